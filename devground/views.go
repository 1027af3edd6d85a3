package devground

import (
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
)

// Info returns the position of id, or nil if the creature is not in the
// Development Ground.
func (e *Engine) Info(db vm.StateDB, id uint64) *Position {
	return e.readPosition(db, id)
}

// StakeEntries returns the open stake entries of id in storage order.
func (e *Engine) StakeEntries(db vm.StateDB, id uint64) []StakeEntry {
	return e.readEntries(db, id)
}

// Reward returns the reward claimable by the position of id at now.
func (e *Engine) Reward(db vm.StateDB, id uint64, now uint64) *big.Int {
	p := e.readPosition(db, id)
	if p == nil {
		return new(big.Int)
	}
	return e.reward(db, p, now)
}

// PrimarySkill returns the skill the open stake entries of id have earned so
// far, scaled by params.SkillPrecision.
func (e *Engine) PrimarySkill(db vm.StateDB, id uint64, now uint64) *big.Int {
	skill := new(big.Int)
	for _, en := range e.readEntries(db, id) {
		skill.Add(skill, e.entrySkill(en, now))
	}
	return skill
}

// StakedTokens returns the creatures owner has in the Development Ground.
func (e *Engine) StakedTokens(db vm.StateDB, owner common.Address) []uint64 {
	return stakelock.Owned(db, stakelock.Development, owner)
}

// CalculateBones returns the bones staked in each of owner's positions, in
// StakedTokens order.
func (e *Engine) CalculateBones(db vm.StateDB, owner common.Address) []*big.Int {
	ids := e.StakedTokens(db, owner)
	out := make([]*big.Int, 0, len(ids))
	for _, id := range ids {
		if p := e.readPosition(db, id); p != nil {
			out = append(out, p.BonesStaked)
		}
	}
	return out
}

// FeInfo summarizes every position of owner at now.
func (e *Engine) FeInfo(db vm.StateDB, owner common.Address, now uint64) []*FeInfo {
	ids := e.StakedTokens(db, owner)
	out := make([]*FeInfo, 0, len(ids))
	for _, id := range ids {
		p := e.readPosition(db, id)
		if p == nil {
			continue
		}
		info := &FeInfo{
			TokenID:          id,
			Ground:           p.Ground,
			LockPeriod:       p.LockPeriod,
			BonesAccrued:     e.reward(db, p, now),
			SkillLevel:       e.PrimarySkill(db, id, now),
			TotalBonesStaked: p.BonesStaked,
		}
		if now > p.EntryTime {
			info.DaysStaked = now - p.EntryTime
		}
		if end := p.EntryTime + p.LockPeriod; now < end {
			info.TimeLeft = (end - now) / params.Day
		}
		out = append(out, info)
	}
	return out
}
