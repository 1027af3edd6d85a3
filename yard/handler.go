package yard

import (
	"github.com/smolage/gbones/sysaction"
)

var (
	EventYardStake   = sysaction.NewEvent("YardStake")
	EventYardUnstake = sysaction.NewEvent("YardUnstake")
	EventYardOff     = sysaction.NewEvent("YardOff")
	EventYardOn      = sysaction.NewEvent("YardOn")
)

type stakeLog struct {
	Amount string `json:"amount"`
	Total  string `json:"totalStaked"`
}

type statusLog struct {
	Time    uint64 `json:"time"`
	DaysOff uint64 `json:"daysOff,omitempty"`
}

// Handler executes YARD_STAKE and YARD_UNSTAKE.
type Handler struct {
	pool *Pool
}

// NewHandler returns the system action handler of the pool.
func NewHandler(p *Pool) *Handler {
	return &Handler{pool: p}
}

func (h *Handler) CanHandle(kind sysaction.ActionKind) bool {
	return kind == sysaction.ActionYardStake || kind == sysaction.ActionYardUnstake
}

func (h *Handler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.AmountPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	amount, err := sysaction.ParseAmount(p.Amount)
	if err != nil {
		return err
	}
	if sa.Action == sysaction.ActionYardUnstake {
		return h.pool.Unstake(ctx.StateDB, ctx.From, amount, ctx.Time)
	}
	return h.pool.Stake(ctx.StateDB, ctx.From, amount, ctx.Time)
}
