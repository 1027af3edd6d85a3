package caves

import "github.com/smolage/gbones/sysaction"

var (
	EventEnter = sysaction.NewEvent("EnterCaves")
	EventClaim = sysaction.NewEvent("ClaimCaveReward")
	EventLeave = sysaction.NewEvent("LeaveCave")
)

type rewardLog struct {
	Reward string `json:"reward"`
}

// Handler executes the CAVES_* system actions.
type Handler struct {
	e *Engine
}

// NewHandler returns the system action handler of the Caves.
func NewHandler(e *Engine) *Handler { return &Handler{e: e} }

func (h *Handler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionCavesEnter, sysaction.ActionCavesClaim, sysaction.ActionCavesLeave:
		return true
	}
	return false
}

func (h *Handler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TokenIDsPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	switch sa.Action {
	case sysaction.ActionCavesEnter:
		return h.e.EnterBatch(ctx.StateDB, ctx.From, p.TokenIDs, ctx.Time)
	case sysaction.ActionCavesClaim:
		return h.e.ClaimBatch(ctx.StateDB, ctx.From, p.TokenIDs, ctx.Time)
	case sysaction.ActionCavesLeave:
		return h.e.LeaveBatch(ctx.StateDB, ctx.From, p.TokenIDs, ctx.Time)
	}
	return nil
}
