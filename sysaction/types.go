// Package sysaction implements the gbones system action protocol.
//
// Every transaction carries a JSON-encoded SysAction in tx.Data. The chain
// decodes the envelope and dispatches it to the handler registered for its
// kind (token ledgers, the Yard, Development Ground, Caves, Labor Ground).
package sysaction

import "encoding/json"

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// Token ledgers
	ActionBonesTransfer      ActionKind = "BONES_TRANSFER"
	ActionBonesMint          ActionKind = "BONES_MINT" // admin
	ActionSmolMint           ActionKind = "SMOL_MINT"  // admin
	ActionSmolTransfer       ActionKind = "SMOL_TRANSFER"
	ActionSmolSetCommonSense ActionKind = "SMOL_SET_COMMON_SENSE" // admin
	ActionAnimalMint         ActionKind = "ANIMAL_MINT"           // admin
	ActionAnimalTransfer     ActionKind = "ANIMAL_TRANSFER"
	ActionSupplyMint         ActionKind = "SUPPLY_MINT"

	// Yard
	ActionYardStake   ActionKind = "YARD_STAKE"
	ActionYardUnstake ActionKind = "YARD_UNSTAKE"

	// Development Ground
	ActionDevEnter        ActionKind = "DEV_ENTER"
	ActionDevStakeBones   ActionKind = "DEV_STAKE_BONES"
	ActionDevClaim        ActionKind = "DEV_CLAIM"
	ActionDevRemoveBones  ActionKind = "DEV_REMOVE_BONES"
	ActionDevRemoveSingle ActionKind = "DEV_REMOVE_SINGLE"
	ActionDevLeave        ActionKind = "DEV_LEAVE"

	// Caves
	ActionCavesEnter ActionKind = "CAVES_ENTER"
	ActionCavesClaim ActionKind = "CAVES_CLAIM"
	ActionCavesLeave ActionKind = "CAVES_LEAVE"

	// Labor Ground
	ActionLaborEnter         ActionKind = "LABOR_ENTER"
	ActionLaborBringAnimals  ActionKind = "LABOR_BRING_ANIMALS"
	ActionLaborRemoveAnimals ActionKind = "LABOR_REMOVE_ANIMALS"
	ActionLaborClaim         ActionKind = "LABOR_CLAIM"
	ActionLaborLeave         ActionKind = "LABOR_LEAVE"
)

// SysAction is the top-level envelope stored in tx.Data for system action txs.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Amounts are decimal wei strings.

// TransferPayload is the payload for BONES_TRANSFER, SMOL_TRANSFER and
// ANIMAL_TRANSFER.
type TransferPayload struct {
	To      string `json:"to"`
	Amount  string `json:"amount,omitempty"`
	TokenID uint64 `json:"token_id,omitempty"`
}

// MintPayload is the payload for BONES_MINT, SMOL_MINT and ANIMAL_MINT.
type MintPayload struct {
	To          string `json:"to"`
	Amount      string `json:"amount,omitempty"`
	CommonSense uint64 `json:"common_sense,omitempty"`
}

// SetCommonSensePayload is the payload for SMOL_SET_COMMON_SENSE.
type SetCommonSensePayload struct {
	TokenID     uint64 `json:"token_id"`
	CommonSense uint64 `json:"common_sense"`
}

// SupplyMintPayload is the payload for SUPPLY_MINT.
type SupplyMintPayload struct {
	IDs     []uint64 `json:"ids"`
	Amounts []uint64 `json:"amounts"`
}

// AmountPayload is the payload for YARD_STAKE and YARD_UNSTAKE.
type AmountPayload struct {
	Amount string `json:"amount"`
}

// TokenIDsPayload is the payload for DEV_LEAVE and every Caves action, as
// well as LABOR_REMOVE_ANIMALS, LABOR_CLAIM and LABOR_LEAVE.
type TokenIDsPayload struct {
	TokenIDs []uint64 `json:"token_ids"`
}

// DevEnterPayload is the payload for DEV_ENTER. Lock periods are in seconds.
type DevEnterPayload struct {
	TokenIDs    []uint64 `json:"token_ids"`
	LockPeriods []uint64 `json:"lock_periods"`
	Grounds     []uint8  `json:"grounds"`
}

// DevStakeBonesPayload is the payload for DEV_STAKE_BONES.
type DevStakeBonesPayload struct {
	Amounts  []string `json:"amounts"`
	TokenIDs []uint64 `json:"token_ids"`
}

// DevClaimPayload is the payload for DEV_CLAIM.
type DevClaimPayload struct {
	TokenIDs []uint64 `json:"token_ids"`
	Restake  []bool   `json:"restake"`
}

// DevRemoveBonesPayload is the payload for DEV_REMOVE_BONES.
type DevRemoveBonesPayload struct {
	TokenIDs []uint64 `json:"token_ids"`
	All      []bool   `json:"all"`
}

// DevRemoveSinglePayload is the payload for DEV_REMOVE_SINGLE.
type DevRemoveSinglePayload struct {
	TokenID uint64 `json:"token_id"`
	Index   uint64 `json:"index"`
}

// LaborEnterPayload is the payload for LABOR_ENTER.
type LaborEnterPayload struct {
	TokenIDs  []uint64 `json:"token_ids"`
	SupplyIDs []uint64 `json:"supply_ids"`
	Jobs      []uint8  `json:"jobs"`
}

// LaborAnimalsPayload is the payload for LABOR_BRING_ANIMALS.
type LaborAnimalsPayload struct {
	TokenIDs  []uint64 `json:"token_ids"`
	AnimalIDs []uint64 `json:"animal_ids"`
}
