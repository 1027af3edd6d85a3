// Package caves implements the Caves, the simplest facility: a locked
// creature earns a flat daily bones reward until it leaves.
package caves

import (
	"math/big"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/yard"
)

// Position is the record of a creature in the Caves. Absent positions read
// as the zero value.
type Position struct {
	Owner               common.Address `json:"owner"`
	EntryTime           uint64         `json:"entryTime"`
	LastRewardTimestamp uint64         `json:"lastRewardTimestamp"`
}

// FeInfo is the per-creature summary shown to an owner.
type FeInfo struct {
	StakedSmols uint64   `json:"stakedSmols"`
	TimeLeft    uint64   `json:"timeLeft"` // seconds until the lock expires
	Reward      *big.Int `json:"reward"`
}

// Engine executes Caves operations.
type Engine struct {
	addr  common.Address
	cfg   params.CavesConfig
	yard  yard.DaysOffReader
	bones assets.Fungible
	smols assets.NonFungible
}

// New returns the Caves stored at params.CavesAddress.
func New(cfg params.CavesConfig, y yard.DaysOffReader, bones assets.Fungible, smols assets.NonFungible) *Engine {
	return &Engine{addr: params.CavesAddress, cfg: cfg, yard: y, bones: bones, smols: smols}
}

// Address returns the Caves' system address.
func (e *Engine) Address() common.Address { return e.addr }

func slot(id uint64, name string) common.Hash {
	return kvstore.FieldSlot(kvstore.Slot("caves.position", kvstore.Key(id)), name)
}

// Info returns the position of id.
func (e *Engine) Info(db vm.StateDB, id uint64) Position {
	return Position{
		Owner:               kvstore.ReadAddress(db, e.addr, slot(id, "owner")),
		EntryTime:           kvstore.ReadUint64(db, e.addr, slot(id, "entryTime")),
		LastRewardTimestamp: kvstore.ReadUint64(db, e.addr, slot(id, "lastReward")),
	}
}

func (e *Engine) owned(db vm.StateDB, owner common.Address, id uint64) (Position, error) {
	p := e.Info(db, id)
	if p.Owner == (common.Address{}) || p.Owner != owner {
		return p, stakelock.ErrNotYourToken
	}
	return p, nil
}

func (e *Engine) reward(p Position, now uint64) *big.Int {
	days := new(big.Int).SetUint64(params.WholeDays(p.LastRewardTimestamp, now))
	return days.Mul(days, e.cfg.DailyRate)
}

// Reward returns the reward claimable by id at now.
func (e *Engine) Reward(db vm.StateDB, id uint64, now uint64) *big.Int {
	p := e.Info(db, id)
	if p.Owner == (common.Address{}) {
		return new(big.Int)
	}
	return e.reward(p, now)
}

// Enter locks a creature in the Caves.
func (e *Engine) Enter(db vm.StateDB, owner common.Address, id uint64, now uint64) error {
	if err := yard.Gate(e.yard, db); err != nil {
		return err
	}
	if e.smols.OwnerOf(db, id) != owner {
		return stakelock.ErrNotYourToken
	}
	if err := stakelock.Acquire(db, stakelock.Caves, owner, id); err != nil {
		return err
	}
	kvstore.WriteAddress(db, e.addr, slot(id, "owner"), owner)
	kvstore.WriteUint64(db, e.addr, slot(id, "entryTime"), now)
	kvstore.WriteUint64(db, e.addr, slot(id, "lastReward"), now)
	EventEnter.Emit(db, e.addr, owner, struct{}{}, id)
	log.Debug("Entered caves", "id", id, "owner", owner)
	return nil
}

// Claim pays out the reward of id and restarts its accrual.
func (e *Engine) Claim(db vm.StateDB, owner common.Address, id uint64, now uint64) (*big.Int, error) {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return nil, err
	}
	reward := e.reward(p, now)
	if reward.Sign() == 0 {
		return nil, stakelock.ErrZeroBalanceError
	}
	if err := e.bones.Mint(db, owner, reward); err != nil {
		return nil, err
	}
	kvstore.WriteUint64(db, e.addr, slot(id, "lastReward"), now)
	EventClaim.Emit(db, e.addr, owner, rewardLog{Reward: reward.String()}, id)
	return reward, nil
}

// Leave pays the outstanding reward, unlocks the creature and clears its
// position. The lock period must have passed.
func (e *Engine) Leave(db vm.StateDB, owner common.Address, id uint64, now uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if now < p.EntryTime+e.cfg.LockPeriod {
		return stakelock.ErrNeandersmolsIsLocked
	}
	reward := e.reward(p, now)
	if reward.Sign() > 0 {
		if err := e.bones.Mint(db, owner, reward); err != nil {
			return err
		}
	}
	if err := stakelock.Release(db, stakelock.Caves, owner, id); err != nil {
		return err
	}
	kvstore.Clear(db, e.addr, slot(id, "owner"), slot(id, "entryTime"), slot(id, "lastReward"))
	EventLeave.Emit(db, e.addr, owner, rewardLog{Reward: reward.String()}, id)
	log.Debug("Left caves", "id", id, "owner", owner, "reward", reward)
	return nil
}

// EnterBatch enters every creature in ids.
func (e *Engine) EnterBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Enter(db, owner, ids[i], now)
	})
}

// ClaimBatch claims the reward of every creature in ids.
func (e *Engine) ClaimBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		_, err := e.Claim(db, owner, ids[i], now)
		return err
	})
}

// LeaveBatch takes every creature in ids out of the Caves.
func (e *Engine) LeaveBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Leave(db, owner, ids[i], now)
	})
}

// StakedTokens returns the creatures owner has in the Caves.
func (e *Engine) StakedTokens(db vm.StateDB, owner common.Address) []uint64 {
	return stakelock.Owned(db, stakelock.Caves, owner)
}

// FeInfo summarizes every creature owner has in the Caves at now.
func (e *Engine) FeInfo(db vm.StateDB, owner common.Address, now uint64) []*FeInfo {
	ids := e.StakedTokens(db, owner)
	out := make([]*FeInfo, 0, len(ids))
	for _, id := range ids {
		p := e.Info(db, id)
		info := &FeInfo{StakedSmols: id, Reward: e.reward(p, now)}
		if end := p.EntryTime + e.cfg.LockPeriod; now < end {
			info.TimeLeft = end - now
		}
		out = append(out, info)
	}
	return out
}
