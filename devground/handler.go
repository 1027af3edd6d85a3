package devground

import (
	"github.com/smolage/gbones/sysaction"
)

var (
	EventEnter        = sysaction.NewEvent("EnterDevelopmentGround")
	EventStakeBones   = sysaction.NewEvent("StakeBonesInDevelopmentGround")
	EventClaim        = sysaction.NewEvent("ClaimDevelopmentGroundBonesReward")
	EventRemoveBones  = sysaction.NewEvent("RemoveBones")
	EventRemoveSingle = sysaction.NewEvent("RemoveSingleBones")
	EventLeave        = sysaction.NewEvent("LeaveDevelopmentGround")
)

type enterLog struct {
	Ground     Kind   `json:"ground"`
	LockPeriod uint64 `json:"lockPeriod"`
}

type amountLog struct {
	Amount string `json:"amount"`
}

type claimLog struct {
	Reward   string `json:"reward"`
	Restaked string `json:"restaked"`
}

type removeLog struct {
	Returned string  `json:"returned"`
	Burned   string  `json:"burned"`
	Entries  int     `json:"entries"`
	Index    *uint64 `json:"index,omitempty"`
}

type leaveLog struct {
	Reward   string `json:"reward"`
	Returned string `json:"returned"`
	Burned   string `json:"burned"`
}

// Handler executes the DEV_* system actions.
type Handler struct {
	e *Engine
}

// NewHandler returns the system action handler of the Development Ground.
func NewHandler(e *Engine) *Handler {
	return &Handler{e: e}
}

func (h *Handler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionDevEnter, sysaction.ActionDevStakeBones, sysaction.ActionDevClaim,
		sysaction.ActionDevRemoveBones, sysaction.ActionDevRemoveSingle, sysaction.ActionDevLeave:
		return true
	}
	return false
}

func (h *Handler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	db, from, now := ctx.StateDB, ctx.From, ctx.Time
	switch sa.Action {
	case sysaction.ActionDevEnter:
		var p sysaction.DevEnterPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		kinds := make([]Kind, len(p.Grounds))
		for i, g := range p.Grounds {
			kinds[i] = Kind(g)
		}
		return h.e.EnterBatch(db, from, p.TokenIDs, p.LockPeriods, kinds, now)

	case sysaction.ActionDevStakeBones:
		var p sysaction.DevStakeBonesPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		amounts, err := sysaction.ParseAmounts(p.Amounts)
		if err != nil {
			return err
		}
		return h.e.StakeBonesBatch(db, from, amounts, p.TokenIDs, now)

	case sysaction.ActionDevClaim:
		var p sysaction.DevClaimPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.ClaimRewardBatch(db, from, p.TokenIDs, p.Restake, now)

	case sysaction.ActionDevRemoveBones:
		var p sysaction.DevRemoveBonesPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.RemoveBonesBatch(db, from, p.TokenIDs, p.All, now)

	case sysaction.ActionDevRemoveSingle:
		var p sysaction.DevRemoveSinglePayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.RemoveSingleStake(db, from, p.TokenID, p.Index, now)

	case sysaction.ActionDevLeave:
		var p sysaction.TokenIDsPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.LeaveBatch(db, from, p.TokenIDs, now)
	}
	return nil
}
