// Package devground implements the Development Ground, where creatures are
// locked for a chosen period to earn bones and, with bones staked alongside
// them, skill in the ground's category.
//
// Rewards accrue per whole day at the position's tier rate plus a boost per
// whole BoostUnit of staked bones. Days during which the yard was off are
// excluded by comparing the yard's monotone days-off counter against the
// baseline recorded at the position's last settlement, so a position never
// needs to be touched when the yard changes state.
package devground

import (
	"errors"
	"math/big"

	"github.com/smolage/gbones/common"
)

// Errors returned by the Development Ground. The messages are the reasons
// surfaced to callers verbatim.
var (
	ErrInvalidLockTime        = errors.New("InvalidLockTime")
	ErrInvalidGround          = errors.New("InvalidGround")
	ErrWrongMultiple          = errors.New("WrongMultiple")
	ErrInvalidPos             = errors.New("InvalidPos")
	ErrCsIsBelowThreshold     = errors.New("CsIsBelowThreshold")
	ErrNotInDevelopmentGround = errors.New("NeandersmolIsNotInDevelopmentGround")
)

// Kind is the ground a creature trains in. It selects both the rate
// multiplier and the skill category grown by staked bones.
type Kind uint8

const (
	Mystic Kind = iota
	Farmer
	Fighter
)

// Valid reports whether k is a known ground.
func (k Kind) Valid() bool { return k <= Fighter }

func (k Kind) String() string {
	switch k {
	case Mystic:
		return "mystic"
	case Farmer:
		return "farmer"
	case Fighter:
		return "fighter"
	}
	return "unknown"
}

// Position is the record of a creature in the Development Ground.
type Position struct {
	TokenID         uint64         `json:"tokenId"`
	Owner           common.Address `json:"owner"`
	Ground          Kind           `json:"ground"`
	EntryTime       uint64         `json:"entryTime"`
	LockPeriod      uint64         `json:"lockPeriod"`
	LastRewardTime  uint64         `json:"lastRewardTime"`
	BonesStaked     *big.Int       `json:"bonesStaked"`
	PendingReward   *big.Int       `json:"pendingReward"`
	DaysOffBaseline uint64         `json:"daysOffBaseline"`
}

// StakeEntry is one deposit of bones into a position.
type StakeEntry struct {
	Amount *big.Int `json:"amount"`
	Time   uint64   `json:"timeStaked"`
}

// FeInfo is the per-position summary shown to an owner.
type FeInfo struct {
	TokenID          uint64   `json:"tokenId"`
	Ground           Kind     `json:"ground"`
	LockPeriod       uint64   `json:"lockPeriod"`
	TimeLeft         uint64   `json:"timeLeft"`   // whole days until the lock expires
	DaysStaked       uint64   `json:"daysStaked"` // seconds since entry
	BonesAccrued     *big.Int `json:"bonesAccrued"`
	SkillLevel       *big.Int `json:"skillLevel"`
	TotalBonesStaked *big.Int `json:"totalBonesStaked"`
}
