// Package yard implements the pits pool. Participants stake bones into a
// shared pool; while the pooled total is below the configured threshold the
// yard is "off", and every whole day it spends off is added to a monotone
// days-off counter the other facilities reconcile against lazily.
package yard

import (
	"errors"
	"math/big"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
)

// DaysOffReader is the read side of the pool consulted by the facilities.
type DaysOffReader interface {
	// IsOn reports whether the pooled total is at or above the threshold.
	IsOn(db vm.StateDB) bool
	// DaysOff returns the whole days the pool has been off up to asOf.
	DaysOff(db vm.StateDB, asOf uint64) uint64
}

// ErrDevelopmentGroundIsLocked is returned by every facility entry point
// gated on the pool being on.
var ErrDevelopmentGroundIsLocked = errors.New("DevelopmentGroundIsLocked")

// Gate fails with ErrDevelopmentGroundIsLocked while the pool is off.
func Gate(r DaysOffReader, db vm.StateDB) error {
	if !r.IsOn(db) {
		return ErrDevelopmentGroundIsLocked
	}
	return nil
}

var (
	totalSlot      = kvstore.Slot("yard.totalStaked")
	offSlot        = kvstore.Slot("yard.off")
	offSinceSlot   = kvstore.Slot("yard.offSince")
	cumulativeSlot = kvstore.Slot("yard.cumulativeDaysOff")
	initSlot       = kvstore.Slot("yard.initialized")
)

func stakedSlot(owner common.Address) common.Hash {
	return kvstore.Slot("yard.stakedBy", owner.Bytes())
}

// Pool is the pits pool bound to its bones ledger.
type Pool struct {
	addr      common.Address
	bones     assets.Fungible
	threshold *big.Int
}

// New returns the pool stored at params.YardAddress.
func New(cfg params.YardConfig, bones assets.Fungible) *Pool {
	threshold := new(big.Int)
	if cfg.MinimumThreshold != nil {
		threshold.Set(cfg.MinimumThreshold)
	}
	return &Pool{addr: params.YardAddress, bones: bones, threshold: threshold}
}

// Address returns the pool's system address, which also escrows the stake.
func (p *Pool) Address() common.Address { return p.addr }

// Threshold returns the minimum pooled total for the pool to be on.
func (p *Pool) Threshold() *big.Int { return new(big.Int).Set(p.threshold) }

// Init records the pool's initial status at genesis time. It is a no-op once
// the pool has been initialized.
func (p *Pool) Init(db vm.StateDB, now uint64) {
	if kvstore.ReadBool(db, p.addr, initSlot) {
		return
	}
	kvstore.WriteBool(db, p.addr, initSlot, true)
	if p.TotalStaked(db).Cmp(p.threshold) < 0 {
		kvstore.WriteBool(db, p.addr, offSlot, true)
		kvstore.WriteUint64(db, p.addr, offSinceSlot, now)
	}
}

// TotalStaked returns the pooled total.
func (p *Pool) TotalStaked(db vm.StateDB) *big.Int {
	return kvstore.ReadBig(db, p.addr, totalSlot)
}

// StakedBy returns the amount owner has in the pool.
func (p *Pool) StakedBy(db vm.StateDB, owner common.Address) *big.Int {
	return kvstore.ReadBig(db, p.addr, stakedSlot(owner))
}

// IsOn reports whether the pool is at or above its threshold.
func (p *Pool) IsOn(db vm.StateDB) bool {
	return !kvstore.ReadBool(db, p.addr, offSlot)
}

// OffSince returns the start of the current off window, if the pool is off.
func (p *Pool) OffSince(db vm.StateDB) (uint64, bool) {
	if p.IsOn(db) {
		return 0, false
	}
	return kvstore.ReadUint64(db, p.addr, offSinceSlot), true
}

// CumulativeDaysOff returns the whole days of every closed off window.
func (p *Pool) CumulativeDaysOff(db vm.StateDB) uint64 {
	return kvstore.ReadUint64(db, p.addr, cumulativeSlot)
}

// DaysOff returns the closed off days plus the whole days of the open off
// window up to asOf. It never writes.
func (p *Pool) DaysOff(db vm.StateDB, asOf uint64) uint64 {
	days := p.CumulativeDaysOff(db)
	if since, off := p.OffSince(db); off {
		days += params.WholeDays(since, asOf)
	}
	return days
}

// Stake escrows amount bones from owner into the pool.
func (p *Pool) Stake(db vm.StateDB, owner common.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return stakelock.ErrZeroBalanceError
	}
	if p.bones.BalanceOf(db, owner).Cmp(amount) < 0 {
		return assets.ErrBalanceIsInsufficient
	}
	if err := p.bones.Transfer(db, owner, p.addr, amount); err != nil {
		return err
	}
	staked := p.StakedBy(db, owner)
	kvstore.WriteBig(db, p.addr, stakedSlot(owner), staked.Add(staked, amount))
	total := p.TotalStaked(db)
	kvstore.WriteBig(db, p.addr, totalSlot, total.Add(total, amount))
	EventYardStake.Emit(db, p.addr, owner, stakeLog{Amount: amount.String(), Total: total.String()})
	p.update(db, now)
	return nil
}

// Unstake returns amount bones from the pool to owner.
func (p *Pool) Unstake(db vm.StateDB, owner common.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return stakelock.ErrZeroBalanceError
	}
	staked := p.StakedBy(db, owner)
	if staked.Cmp(amount) < 0 {
		return assets.ErrBalanceIsInsufficient
	}
	if err := p.bones.Transfer(db, p.addr, owner, amount); err != nil {
		return err
	}
	kvstore.WriteBig(db, p.addr, stakedSlot(owner), staked.Sub(staked, amount))
	total := p.TotalStaked(db)
	kvstore.WriteBig(db, p.addr, totalSlot, total.Sub(total, amount))
	EventYardUnstake.Emit(db, p.addr, owner, stakeLog{Amount: amount.String(), Total: total.String()})
	p.update(db, now)
	return nil
}

// update applies the threshold transition after a stake change. Its event
// follows the stake event that caused it. Turning back on folds the closed
// off window into the cumulative counter.
func (p *Pool) update(db vm.StateDB, now uint64) {
	on := p.TotalStaked(db).Cmp(p.threshold) >= 0
	switch since, off := p.OffSince(db); {
	case on && off:
		days := params.WholeDays(since, now)
		kvstore.WriteUint64(db, p.addr, cumulativeSlot, p.CumulativeDaysOff(db)+days)
		kvstore.Clear(db, p.addr, offSlot, offSinceSlot)
		EventYardOn.Emit(db, p.addr, common.Address{}, statusLog{Time: now, DaysOff: days})
		log.Debug("Yard back on", "offSince", since, "days", days)
	case !on && !off:
		kvstore.WriteBool(db, p.addr, offSlot, true)
		kvstore.WriteUint64(db, p.addr, offSinceSlot, now)
		EventYardOff.Emit(db, p.addr, common.Address{}, statusLog{Time: now})
		log.Debug("Yard off", "time", now, "total", p.TotalStaked(db))
	}
}

// Info is the pool summary returned by the query API.
type Info struct {
	TotalStaked       *big.Int `json:"totalStaked"`
	Threshold         *big.Int `json:"minimumThreshold"`
	On                bool     `json:"on"`
	OffSince          *uint64  `json:"offSince,omitempty"`
	CumulativeDaysOff uint64   `json:"cumulativeDaysOff"`
	DaysOff           uint64   `json:"daysOff"`
}

// Info summarizes the pool as of now.
func (p *Pool) Info(db vm.StateDB, now uint64) *Info {
	info := &Info{
		TotalStaked:       p.TotalStaked(db),
		Threshold:         p.Threshold(),
		On:                p.IsOn(db),
		CumulativeDaysOff: p.CumulativeDaysOff(db),
		DaysOff:           p.DaysOff(db, now),
	}
	if since, off := p.OffSince(db); off {
		info.OffSince = &since
	}
	return info
}
