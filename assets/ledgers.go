package assets

import (
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/params"
)

// Ledgers groups every token ledger the facilities are wired to.
type Ledgers struct {
	Bones       *Bones
	Smols       *Smols
	Animals     *Animals
	Supplies    *Items
	Consumables *Items

	admin       common.Address
	supplyPrice *big.Int
}

// NewLedgers builds the ledgers at their well-known system addresses.
// Consumables are mintable by the Labor Ground only.
func NewLedgers(cfg *params.EconomyConfig, locks Locker, consumableIDs uint64) *Ledgers {
	price := new(big.Int)
	if cfg.Assets.SupplyPrice != nil {
		price.Set(cfg.Assets.SupplyPrice)
	}
	return &Ledgers{
		Bones:       NewBones(params.BonesAddress),
		Smols:       NewSmols(params.SmolsAddress, locks),
		Animals:     NewAnimals(params.AnimalsAddress),
		Supplies:    NewSupplies(params.SuppliesAddress),
		Consumables: NewConsumables(params.ConsumablesAddress, consumableIDs, params.LaborGroundAddress),
		admin:       cfg.Admin,
		supplyPrice: price,
	}
}

// Admin returns the account allowed to mint and configure tokens.
func (l *Ledgers) Admin() common.Address { return l.admin }

// SupplyPrice returns the bones burned per supply item bought.
func (l *Ledgers) SupplyPrice() *big.Int { return new(big.Int).Set(l.supplyPrice) }
