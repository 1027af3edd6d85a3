// Package assets implements the token ledgers the facilities move funds
// through: the bones fungible ledger, the smol and animal registries and the
// supplies and consumables item ledgers. Every ledger lives in the storage
// slots of its own system address.
package assets

import (
	"errors"
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
)

// Errors returned by the ledgers. The messages are the reasons surfaced to
// callers verbatim.
var (
	ErrBalanceIsInsufficient = errors.New("BalanceIsInsufficient")
	ErrInvalidTokenId        = errors.New("InvalidTokenId")
	ErrUnauthorized          = errors.New("Unauthorized")
	ErrNotAuthorized         = errors.New("NotAuthorized")
	ErrAmountOverflow        = errors.New("assets: amount overflows 256 bits")
	ErrZeroAddress           = errors.New("assets: zero address")
)

// Skill categories of a creature, one per Development Ground kind.
const (
	SkillMystics uint8 = iota
	SkillFarmers
	SkillFighters
)

// Supply item ids. A Labor Ground job consumes the supply whose id is job+1.
const (
	SupplyShovel  uint64 = 1
	SupplyPouch   uint64 = 2
	SupplyPickaxe uint64 = 3
)

// Fungible is a bones-like ledger.
type Fungible interface {
	BalanceOf(db vm.StateDB, owner common.Address) *big.Int
	TotalSupply(db vm.StateDB) *big.Int
	Transfer(db vm.StateDB, from, to common.Address, amount *big.Int) error
	Mint(db vm.StateDB, to common.Address, amount *big.Int) error
	Burn(db vm.StateDB, from common.Address, amount *big.Int) error
}

// NonFungible is a registry of uniquely owned tokens.
type NonFungible interface {
	OwnerOf(db vm.StateDB, id uint64) common.Address
	Transfer(db vm.StateDB, from, to common.Address, id uint64) error
	TokensOf(db vm.StateDB, owner common.Address) []uint64
}

// Creatures is the smol registry consumed by the facilities.
type Creatures interface {
	NonFungible
	CommonSense(db vm.StateDB, id uint64) uint64
	Skill(db vm.StateDB, id uint64, category uint8) *big.Int
	AddSkill(db vm.StateDB, id uint64, category uint8, amount *big.Int)
}

// MultiToken is a semi-fungible item ledger.
type MultiToken interface {
	BalanceOf(db vm.StateDB, owner common.Address, id uint64) uint64
	Transfer(db vm.StateDB, from, to common.Address, id, amount uint64) error
	BatchTransfer(db vm.StateDB, from, to common.Address, ids, amounts []uint64) error
	Mint(db vm.StateDB, minter, to common.Address, id, amount uint64) error
}

// Locker reports whether a creature is open in some facility. Locked
// creatures cannot change hands.
type Locker interface {
	IsLocked(db vm.StateDB, id uint64) bool
}
