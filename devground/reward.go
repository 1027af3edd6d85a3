package devground

import (
	"math/big"

	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/params"
)

// tier returns the 1-based lock tier of a lock period, or 0 if the period is
// not a positive multiple of the lock unit within the allowed range.
func (e *Engine) tier(lockPeriod uint64) uint64 {
	unit := e.cfg.LockUnit
	if lockPeriod == 0 || lockPeriod%unit != 0 {
		return 0
	}
	if t := lockPeriod / unit; t <= e.cfg.MaxLockUnits {
		return t
	}
	return 0
}

// effectiveDays returns the whole days since the last settlement during which
// the yard was on.
func (e *Engine) effectiveDays(db vm.StateDB, p *Position, now uint64) uint64 {
	elapsed := params.WholeDays(p.LastRewardTime, now)
	off := e.yard.DaysOff(db, now) - p.DaysOffBaseline
	if off >= elapsed {
		return 0
	}
	return elapsed - off
}

// dailyReward is the tier rate plus the boost of every whole BoostUnit staked.
func (e *Engine) dailyReward(p *Position) *big.Int {
	rate := e.cfg.DailyRate(uint8(p.Ground), e.tier(p.LockPeriod))
	if rate == nil {
		rate = new(big.Int)
	}
	units := new(big.Int).Div(p.BonesStaked, e.cfg.BoostUnit)
	boost := units.Mul(units, e.cfg.StakeBoostRate)
	return boost.Add(boost, rate)
}

// reward returns the pending reward plus everything earned since the last
// settlement.
func (e *Engine) reward(db vm.StateDB, p *Position, now uint64) *big.Int {
	earned := new(big.Int).SetUint64(e.effectiveDays(db, p, now))
	earned.Mul(earned, e.dailyReward(p))
	return earned.Add(earned, p.PendingReward)
}

// accrue moves the reward earned so far into the pending balance and settles
// the position at now. The settlement time and the days-off baseline always
// refer to the same moment.
func (e *Engine) accrue(db vm.StateDB, p *Position, now uint64) {
	p.PendingReward = e.reward(db, p, now)
	p.LastRewardTime = now
	p.DaysOffBaseline = e.yard.DaysOff(db, now)
}

// entrySkill is amount * whole days staked * SkillRate, scaled by SkillPrecision.
func (e *Engine) entrySkill(en StakeEntry, now uint64) *big.Int {
	skill := new(big.Int).SetUint64(params.WholeDays(en.Time, now))
	skill.Mul(skill, en.Amount)
	skill.Mul(skill, e.cfg.SkillRate)
	return skill.Div(skill, params.SkillPrecision)
}

// mature reports whether an entry may be withdrawn without penalty.
func (e *Engine) mature(en StakeEntry, now uint64) bool {
	return now >= en.Time && now-en.Time >= e.cfg.BonesLockPeriod
}

// split returns the part of an entry returned to the owner and the part
// burned when it is withdrawn at now.
func (e *Engine) split(en StakeEntry, now uint64) (back, burn *big.Int) {
	if e.mature(en, now) {
		return new(big.Int).Set(en.Amount), new(big.Int)
	}
	burn = new(big.Int).Mul(en.Amount, new(big.Int).SetUint64(e.cfg.EarlyRemovalBurnBPS))
	burn.Div(burn, big.NewInt(params.BasisPoints))
	return new(big.Int).Sub(en.Amount, burn), burn
}
