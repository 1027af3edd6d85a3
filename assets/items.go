package assets

import (
	"math"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/stakelock"
)

// Items is a semi-fungible ledger of item ids 1..maxID. Only the configured
// minter may create items.
type Items struct {
	addr   common.Address
	name   string
	maxID  uint64
	minter common.Address
}

// NewSupplies returns the supply ledger stored at addr. Supplies are sold
// for bones by the ledger itself, so it is its own minter.
func NewSupplies(addr common.Address) *Items {
	return &Items{addr: addr, name: "supplies", maxID: SupplyPickaxe, minter: addr}
}

// NewConsumables returns the collectible ledger stored at addr, mintable by
// minter only.
func NewConsumables(addr common.Address, maxID uint64, minter common.Address) *Items {
	return &Items{addr: addr, name: "consumables", maxID: maxID, minter: minter}
}

// Address returns the ledger's system address.
func (it *Items) Address() common.Address { return it.addr }

// ValidID reports whether id is a known item.
func (it *Items) ValidID(id uint64) bool {
	return id >= 1 && id <= it.maxID
}

func (it *Items) balanceSlot(owner common.Address, id uint64) common.Hash {
	return kvstore.Slot(it.name+".balance", owner.Bytes(), kvstore.Key(id))
}

// BalanceOf returns how many of item id owner holds.
func (it *Items) BalanceOf(db vm.StateDB, owner common.Address, id uint64) uint64 {
	return kvstore.ReadUint64(db, it.addr, it.balanceSlot(owner, id))
}

// Balances returns owner's balance of every item id, indexed by id-1.
func (it *Items) Balances(db vm.StateDB, owner common.Address) []uint64 {
	out := make([]uint64, it.maxID)
	for id := uint64(1); id <= it.maxID; id++ {
		out[id-1] = it.BalanceOf(db, owner, id)
	}
	return out
}

// Transfer moves amount of item id.
func (it *Items) Transfer(db vm.StateDB, from, to common.Address, id, amount uint64) error {
	if !it.ValidID(id) {
		return ErrInvalidTokenId
	}
	bal := it.BalanceOf(db, from, id)
	if bal < amount {
		return ErrBalanceIsInsufficient
	}
	if from == to || amount == 0 {
		return nil
	}
	toBal := it.BalanceOf(db, to, id)
	if toBal > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	kvstore.WriteUint64(db, it.addr, it.balanceSlot(from, id), bal-amount)
	kvstore.WriteUint64(db, it.addr, it.balanceSlot(to, id), toBal+amount)
	return nil
}

// BatchTransfer moves several item ids at once.
func (it *Items) BatchTransfer(db vm.StateDB, from, to common.Address, ids, amounts []uint64) error {
	if len(ids) != len(amounts) {
		return stakelock.ErrLengthsNotEqual
	}
	for i := range ids {
		if err := it.Transfer(db, from, to, ids[i], amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Mint creates amount of item id for to. Only the ledger's minter may mint.
func (it *Items) Mint(db vm.StateDB, minter, to common.Address, id, amount uint64) error {
	if minter != it.minter {
		return ErrNotAuthorized
	}
	if !it.ValidID(id) {
		return ErrInvalidTokenId
	}
	bal := it.BalanceOf(db, to, id)
	if bal > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	kvstore.WriteUint64(db, it.addr, it.balanceSlot(to, id), bal+amount)
	return nil
}
