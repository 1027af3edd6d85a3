package laborground

import "github.com/smolage/gbones/sysaction"

var (
	EventEnter        = sysaction.NewEvent("EnterLaborGround")
	EventBringAnimal  = sysaction.NewEvent("BringInAnimalsToLaborGround")
	EventRemoveAnimal = sysaction.NewEvent("RemoveAnimalsFromLaborGround")
	EventClaim        = sysaction.NewEvent("ClaimCollectable")
	EventLeave        = sysaction.NewEvent("LeaveLaborGround")
)

type enterLog struct {
	Job      uint8  `json:"job"`
	SupplyID uint64 `json:"supplyId"`
}

type animalLog struct {
	AnimalID uint64 `json:"animalId"`
}

type claimLog struct {
	Rolls uint64   `json:"rolls"`
	Found []uint64 `json:"found"`
}

// Handler executes the LABOR_* system actions.
type Handler struct {
	e *Engine
}

// NewHandler returns the system action handler of the Labor Ground.
func NewHandler(e *Engine) *Handler { return &Handler{e: e} }

func (h *Handler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionLaborEnter, sysaction.ActionLaborBringAnimals, sysaction.ActionLaborRemoveAnimals,
		sysaction.ActionLaborClaim, sysaction.ActionLaborLeave:
		return true
	}
	return false
}

func (h *Handler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	db, from, now := ctx.StateDB, ctx.From, ctx.Time
	switch sa.Action {
	case sysaction.ActionLaborEnter:
		var p sysaction.LaborEnterPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.EnterBatch(db, from, p.TokenIDs, p.SupplyIDs, p.Jobs, now)

	case sysaction.ActionLaborBringAnimals:
		var p sysaction.LaborAnimalsPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		return h.e.BringInAnimalsBatch(db, from, p.TokenIDs, p.AnimalIDs)
	}

	var p sysaction.TokenIDsPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	switch sa.Action {
	case sysaction.ActionLaborRemoveAnimals:
		return h.e.RemoveAnimalsBatch(db, from, p.TokenIDs)
	case sysaction.ActionLaborClaim:
		return h.e.ClaimBatch(db, from, p.TokenIDs, now)
	case sysaction.ActionLaborLeave:
		return h.e.LeaveBatch(db, from, p.TokenIDs, now)
	}
	return nil
}
