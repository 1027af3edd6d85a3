package assets

import (
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/sysaction"
)

var (
	EventBonesTransfer  = sysaction.NewEvent("BonesTransfer")
	EventBonesMint      = sysaction.NewEvent("BonesMint")
	EventSmolMint       = sysaction.NewEvent("SmolMint")
	EventSmolTransfer   = sysaction.NewEvent("SmolTransfer")
	EventCommonSense    = sysaction.NewEvent("CommonSenseSet")
	EventAnimalMint     = sysaction.NewEvent("AnimalMint")
	EventAnimalTransfer = sysaction.NewEvent("AnimalTransfer")
	EventSupplyMint     = sysaction.NewEvent("SupplyMint")
)

type transferLog struct {
	To     common.Address `json:"to"`
	Amount string         `json:"amount,omitempty"`
}

type supplyLog struct {
	IDs     []uint64 `json:"ids"`
	Amounts []uint64 `json:"amounts"`
	Paid    string   `json:"paid"`
}

// Handler executes the token ledger system actions.
type Handler struct {
	l *Ledgers
}

// NewHandler returns the system action handler of the ledgers.
func NewHandler(l *Ledgers) *Handler {
	return &Handler{l: l}
}

func (h *Handler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionBonesTransfer, sysaction.ActionBonesMint,
		sysaction.ActionSmolMint, sysaction.ActionSmolTransfer, sysaction.ActionSmolSetCommonSense,
		sysaction.ActionAnimalMint, sysaction.ActionAnimalTransfer,
		sysaction.ActionSupplyMint:
		return true
	}
	return false
}

func (h *Handler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionBonesTransfer:
		return h.handleBonesTransfer(ctx, sa)
	case sysaction.ActionBonesMint:
		return h.handleBonesMint(ctx, sa)
	case sysaction.ActionSmolMint:
		return h.handleSmolMint(ctx, sa)
	case sysaction.ActionSmolTransfer:
		return h.handleSmolTransfer(ctx, sa)
	case sysaction.ActionSmolSetCommonSense:
		return h.handleSetCommonSense(ctx, sa)
	case sysaction.ActionAnimalMint:
		return h.handleAnimalMint(ctx, sa)
	case sysaction.ActionAnimalTransfer:
		return h.handleAnimalTransfer(ctx, sa)
	case sysaction.ActionSupplyMint:
		return h.handleSupplyMint(ctx, sa)
	}
	return nil
}

func (h *Handler) onlyAdmin(ctx *sysaction.Context) error {
	if ctx.From != h.l.admin {
		return ErrUnauthorized
	}
	return nil
}

func decodeTransfer(sa *sysaction.SysAction) (common.Address, *sysaction.TransferPayload, error) {
	var p sysaction.TransferPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return common.Address{}, nil, err
	}
	to, err := sysaction.ParseAddress(p.To)
	if err != nil {
		return common.Address{}, nil, err
	}
	return to, &p, nil
}

func (h *Handler) handleBonesTransfer(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	to, p, err := decodeTransfer(sa)
	if err != nil {
		return err
	}
	amount, err := sysaction.ParseAmount(p.Amount)
	if err != nil {
		return err
	}
	if err := h.l.Bones.Transfer(ctx.StateDB, ctx.From, to, amount); err != nil {
		return err
	}
	EventBonesTransfer.Emit(ctx.StateDB, h.l.Bones.Address(), ctx.From, transferLog{To: to, Amount: amount.String()})
	return nil
}

func (h *Handler) handleBonesMint(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := h.onlyAdmin(ctx); err != nil {
		return err
	}
	var p sysaction.MintPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	to, err := sysaction.ParseAddress(p.To)
	if err != nil {
		return err
	}
	amount, err := sysaction.ParseAmount(p.Amount)
	if err != nil {
		return err
	}
	if err := h.l.Bones.Mint(ctx.StateDB, to, amount); err != nil {
		return err
	}
	EventBonesMint.Emit(ctx.StateDB, h.l.Bones.Address(), to, transferLog{To: to, Amount: amount.String()})
	return nil
}

func (h *Handler) handleSmolMint(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := h.onlyAdmin(ctx); err != nil {
		return err
	}
	var p sysaction.MintPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	to, err := sysaction.ParseAddress(p.To)
	if err != nil {
		return err
	}
	id, err := h.l.Smols.Mint(ctx.StateDB, to, p.CommonSense)
	if err != nil {
		return err
	}
	EventSmolMint.Emit(ctx.StateDB, h.l.Smols.Address(), to, struct {
		CommonSense uint64 `json:"commonSense"`
	}{p.CommonSense}, id)
	return nil
}

func (h *Handler) handleSmolTransfer(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	to, p, err := decodeTransfer(sa)
	if err != nil {
		return err
	}
	if err := h.l.Smols.Transfer(ctx.StateDB, ctx.From, to, p.TokenID); err != nil {
		return err
	}
	EventSmolTransfer.Emit(ctx.StateDB, h.l.Smols.Address(), ctx.From, transferLog{To: to}, p.TokenID)
	return nil
}

func (h *Handler) handleSetCommonSense(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := h.onlyAdmin(ctx); err != nil {
		return err
	}
	var p sysaction.SetCommonSensePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := h.l.Smols.SetCommonSense(ctx.StateDB, p.TokenID, p.CommonSense); err != nil {
		return err
	}
	owner := h.l.Smols.OwnerOf(ctx.StateDB, p.TokenID)
	EventCommonSense.Emit(ctx.StateDB, h.l.Smols.Address(), owner, struct {
		CommonSense uint64 `json:"commonSense"`
	}{p.CommonSense}, p.TokenID)
	return nil
}

func (h *Handler) handleAnimalMint(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := h.onlyAdmin(ctx); err != nil {
		return err
	}
	var p sysaction.MintPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	to, err := sysaction.ParseAddress(p.To)
	if err != nil {
		return err
	}
	id, err := h.l.Animals.Mint(ctx.StateDB, to)
	if err != nil {
		return err
	}
	EventAnimalMint.Emit(ctx.StateDB, h.l.Animals.Address(), to, struct{}{}, id)
	return nil
}

func (h *Handler) handleAnimalTransfer(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	to, p, err := decodeTransfer(sa)
	if err != nil {
		return err
	}
	if err := h.l.Animals.Transfer(ctx.StateDB, ctx.From, to, p.TokenID); err != nil {
		return err
	}
	EventAnimalTransfer.Emit(ctx.StateDB, h.l.Animals.Address(), ctx.From, transferLog{To: to}, p.TokenID)
	return nil
}

// handleSupplyMint sells supplies for bones. The price is burned.
func (h *Handler) handleSupplyMint(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.SupplyMintPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase ─────────────────────────────────────────────────────
	if len(p.IDs) != len(p.Amounts) {
		return stakelock.ErrLengthsNotEqual
	}
	var units uint64
	for i, id := range p.IDs {
		if !h.l.Supplies.ValidID(id) {
			return ErrInvalidTokenId
		}
		units += p.Amounts[i]
		if units < p.Amounts[i] {
			return ErrAmountOverflow
		}
	}
	cost := new(big.Int).Mul(h.l.supplyPrice, new(big.Int).SetUint64(units))
	if h.l.Bones.BalanceOf(ctx.StateDB, ctx.From).Cmp(cost) < 0 {
		return ErrBalanceIsInsufficient
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	if err := h.l.Bones.Burn(ctx.StateDB, ctx.From, cost); err != nil {
		return err
	}
	for i, id := range p.IDs {
		if err := h.l.Supplies.Mint(ctx.StateDB, h.l.Supplies.Address(), ctx.From, id, p.Amounts[i]); err != nil {
			return err
		}
	}
	EventSupplyMint.Emit(ctx.StateDB, h.l.Supplies.Address(), ctx.From, supplyLog{IDs: p.IDs, Amounts: p.Amounts, Paid: cost.String()})
	return nil
}
