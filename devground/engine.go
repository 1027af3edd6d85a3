package devground

import (
	"math/big"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/yard"
)

// Engine executes Development Ground operations against a state database.
// Staked bones are escrowed by the engine's system address.
type Engine struct {
	addr  common.Address
	cfg   params.DevGroundConfig
	yard  yard.DaysOffReader
	bones assets.Fungible
	smols assets.Creatures
}

// New returns the Development Ground stored at params.DevGroundAddress.
func New(cfg params.DevGroundConfig, y yard.DaysOffReader, bones assets.Fungible, smols assets.Creatures) *Engine {
	return &Engine{
		addr:  params.DevGroundAddress,
		cfg:   cfg,
		yard:  y,
		bones: bones,
		smols: smols,
	}
}

// Address returns the Development Ground's system address.
func (e *Engine) Address() common.Address { return e.addr }

// owned returns the position of id if owner holds it.
func (e *Engine) owned(db vm.StateDB, owner common.Address, id uint64) (*Position, error) {
	p := e.readPosition(db, id)
	if p == nil || p.Owner != owner {
		return nil, stakelock.ErrNotYourToken
	}
	return p, nil
}

// Enter locks a creature for lockPeriod seconds in the given ground.
func (e *Engine) Enter(db vm.StateDB, owner common.Address, id, lockPeriod uint64, kind Kind, now uint64) error {
	// ── Validation phase ─────────────────────────────────────────────────────
	if err := yard.Gate(e.yard, db); err != nil {
		return err
	}
	if e.smols.CommonSense(db, id) < e.cfg.MinCommonSense {
		return ErrCsIsBelowThreshold
	}
	if e.smols.OwnerOf(db, id) != owner {
		return stakelock.ErrNotYourToken
	}
	if e.tier(lockPeriod) == 0 {
		return ErrInvalidLockTime
	}
	if !kind.Valid() {
		return ErrInvalidGround
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	if err := stakelock.Acquire(db, stakelock.Development, owner, id); err != nil {
		return err
	}
	e.writePosition(db, &Position{
		TokenID:         id,
		Owner:           owner,
		Ground:          kind,
		EntryTime:       now,
		LockPeriod:      lockPeriod,
		LastRewardTime:  now,
		BonesStaked:     new(big.Int),
		PendingReward:   new(big.Int),
		DaysOffBaseline: e.yard.DaysOff(db, now),
	})
	EventEnter.Emit(db, e.addr, owner, enterLog{Ground: kind, LockPeriod: lockPeriod}, id)
	log.Debug("Entered development ground", "id", id, "owner", owner, "ground", kind, "lock", lockPeriod)
	return nil
}

// StakeBones escrows amount bones into the position of id.
func (e *Engine) StakeBones(db vm.StateDB, owner common.Address, id uint64, amount *big.Int, now uint64) error {
	// ── Validation phase ─────────────────────────────────────────────────────
	if err := yard.Gate(e.yard, db); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrWrongMultiple
	}
	if e.bones.BalanceOf(db, owner).Cmp(amount) < 0 {
		return assets.ErrBalanceIsInsufficient
	}
	p := e.readPosition(db, id)
	if p == nil {
		return ErrNotInDevelopmentGround
	}
	if p.Owner != owner {
		return stakelock.ErrNotYourToken
	}
	if amount.Sign() == 0 || new(big.Int).Mod(amount, e.cfg.BonesMultiple).Sign() != 0 {
		return ErrWrongMultiple
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	if err := e.bones.Transfer(db, owner, e.addr, amount); err != nil {
		return err
	}
	e.accrue(db, p, now)
	e.addStake(db, p, amount, now)
	e.writePosition(db, p)
	EventStakeBones.Emit(db, e.addr, owner, amountLog{Amount: amount.String()}, id)
	return nil
}

func (e *Engine) addStake(db vm.StateDB, p *Position, amount *big.Int, now uint64) {
	e.appendEntry(db, p.TokenID, new(big.Int).Set(amount), now)
	p.BonesStaked = new(big.Int).Add(p.BonesStaked, amount)
}

// ClaimReward pays out the position's reward. With restake, the whole
// multiples of BonesMultiple are staked back into the position and only the
// remainder is paid out.
func (e *Engine) ClaimReward(db vm.StateDB, owner common.Address, id uint64, restake bool, now uint64) (*big.Int, error) {
	// ── Validation phase ─────────────────────────────────────────────────────
	p, err := e.owned(db, owner, id)
	if err != nil {
		return nil, err
	}
	reward := e.reward(db, p, now)
	if reward.Sign() == 0 {
		return nil, stakelock.ErrZeroBalanceError
	}
	restaked := new(big.Int)
	if restake {
		restaked.Div(reward, e.cfg.BonesMultiple).Mul(restaked, e.cfg.BonesMultiple)
		if restaked.Sign() == 0 {
			return nil, ErrWrongMultiple
		}
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	p.PendingReward = new(big.Int)
	p.LastRewardTime = now
	p.DaysOffBaseline = e.yard.DaysOff(db, now)
	if restaked.Sign() > 0 {
		if err := e.bones.Mint(db, e.addr, restaked); err != nil {
			return nil, err
		}
		e.addStake(db, p, restaked, now)
	}
	if paid := new(big.Int).Sub(reward, restaked); paid.Sign() > 0 {
		if err := e.bones.Mint(db, owner, paid); err != nil {
			return nil, err
		}
	}
	e.writePosition(db, p)
	EventClaim.Emit(db, e.addr, owner, claimLog{Reward: reward.String(), Restaked: restaked.String()}, id)
	if restaked.Sign() > 0 {
		EventStakeBones.Emit(db, e.addr, owner, amountLog{Amount: restaked.String()}, id)
	}
	log.Debug("Claimed development ground reward", "id", id, "reward", reward, "restaked", restaked)
	return reward, nil
}

// withdraw pays out the given entries to the position owner, burning the
// early-removal penalty of immature ones and crediting their skill.
func (e *Engine) withdraw(db vm.StateDB, p *Position, entries []StakeEntry, now uint64) (back, burned *big.Int, err error) {
	back, burned = new(big.Int), new(big.Int)
	skill := new(big.Int)
	for _, en := range entries {
		b, x := e.split(en, now)
		back.Add(back, b)
		burned.Add(burned, x)
		skill.Add(skill, e.entrySkill(en, now))
	}
	if back.Sign() > 0 {
		if err := e.bones.Transfer(db, e.addr, p.Owner, back); err != nil {
			return nil, nil, err
		}
	}
	if burned.Sign() > 0 {
		if err := e.bones.Burn(db, e.addr, burned); err != nil {
			return nil, nil, err
		}
	}
	e.smols.AddSkill(db, p.TokenID, uint8(p.Ground), skill)
	staked := new(big.Int).Sub(p.BonesStaked, back)
	p.BonesStaked = staked.Sub(staked, burned)
	return back, burned, nil
}

// RemoveBones withdraws the position's matured stake entries, or every entry
// when all is set, in which case immature entries lose the early-removal
// penalty.
func (e *Engine) RemoveBones(db vm.StateDB, owner common.Address, id uint64, all bool, now uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if p.BonesStaked.Sign() == 0 {
		return stakelock.ErrZeroBalanceError
	}
	e.accrue(db, p, now)

	var take, keep []StakeEntry
	for _, en := range e.readEntries(db, id) {
		if all || e.mature(en, now) {
			take = append(take, en)
		} else {
			keep = append(keep, en)
		}
	}
	back, burned, err := e.withdraw(db, p, take, now)
	if err != nil {
		return err
	}
	e.writeEntries(db, id, keep)
	e.writePosition(db, p)
	EventRemoveBones.Emit(db, e.addr, owner, removeLog{Returned: back.String(), Burned: burned.String(), Entries: len(take)}, id)
	return nil
}

// RemoveSingleStake withdraws the stake entry at index. The last entry takes
// its place.
func (e *Engine) RemoveSingleStake(db vm.StateDB, owner common.Address, id, index uint64, now uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	count := e.entryCount(db, id)
	if index >= count {
		return ErrInvalidPos
	}
	e.accrue(db, p, now)

	en := e.readEntry(db, id, index)
	back, burned, err := e.withdraw(db, p, []StakeEntry{en}, now)
	if err != nil {
		return err
	}
	if last := count - 1; index != last {
		e.writeEntry(db, id, index, e.readEntry(db, id, last))
	}
	e.truncateEntries(db, id, count-1)
	e.writePosition(db, p)
	EventRemoveSingle.Emit(db, e.addr, owner, removeLog{Returned: back.String(), Burned: burned.String(), Entries: 1, Index: &index}, id)
	return nil
}

// Leave settles the position after its lock expired: the reward is paid,
// every stake entry withdrawn and the creature unlocked.
func (e *Engine) Leave(db vm.StateDB, owner common.Address, id uint64, now uint64) error {
	// ── Validation phase ─────────────────────────────────────────────────────
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if now < p.EntryTime+p.LockPeriod {
		return stakelock.ErrNeandersmolsIsLocked
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	reward := e.reward(db, p, now)
	if reward.Sign() > 0 {
		if err := e.bones.Mint(db, owner, reward); err != nil {
			return err
		}
	}
	back, burned, err := e.withdraw(db, p, e.readEntries(db, id), now)
	if err != nil {
		return err
	}
	if err := stakelock.Release(db, stakelock.Development, owner, id); err != nil {
		return err
	}
	e.deletePosition(db, id)
	EventLeave.Emit(db, e.addr, owner, leaveLog{Reward: reward.String(), Returned: back.String(), Burned: burned.String()}, id)
	log.Debug("Left development ground", "id", id, "owner", owner, "reward", reward)
	return nil
}
