package assets

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/log"
)

// Bones is the fungible resource ledger. Balances are 256-bit words with
// overflow-checked arithmetic.
type Bones struct {
	addr common.Address
}

// NewBones returns the ledger stored at addr.
func NewBones(addr common.Address) *Bones {
	return &Bones{addr: addr}
}

// Address returns the ledger's system address.
func (b *Bones) Address() common.Address { return b.addr }

func bonesBalanceSlot(owner common.Address) common.Hash {
	return kvstore.Slot("bones.balance", owner.Bytes())
}

var bonesSupplySlot = kvstore.Slot("bones.totalSupply")

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrAmountOverflow
	}
	u := new(uint256.Int)
	if overflow := u.SetFromBig(v); overflow {
		return nil, ErrAmountOverflow
	}
	return u, nil
}

// BalanceOf returns the balance of owner.
func (b *Bones) BalanceOf(db vm.StateDB, owner common.Address) *big.Int {
	return kvstore.ReadU256(db, b.addr, bonesBalanceSlot(owner)).ToBig()
}

// TotalSupply returns the amount in circulation.
func (b *Bones) TotalSupply(db vm.StateDB) *big.Int {
	return kvstore.ReadU256(db, b.addr, bonesSupplySlot).ToBig()
}

// Transfer moves amount from one account to another.
func (b *Bones) Transfer(db vm.StateDB, from, to common.Address, amount *big.Int) error {
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	fromBal := kvstore.ReadU256(db, b.addr, bonesBalanceSlot(from))
	if fromBal.Lt(amt) {
		return ErrBalanceIsInsufficient
	}
	if from == to || amt.IsZero() {
		return nil
	}
	toBal := kvstore.ReadU256(db, b.addr, bonesBalanceSlot(to))
	newTo, overflow := new(uint256.Int).AddOverflow(toBal, amt)
	if overflow {
		return ErrAmountOverflow
	}
	kvstore.WriteU256(db, b.addr, bonesBalanceSlot(from), new(uint256.Int).Sub(fromBal, amt))
	kvstore.WriteU256(db, b.addr, bonesBalanceSlot(to), newTo)
	return nil
}

// Mint creates amount new bones for to.
func (b *Bones) Mint(db vm.StateDB, to common.Address, amount *big.Int) error {
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	supply, overflow := new(uint256.Int).AddOverflow(kvstore.ReadU256(db, b.addr, bonesSupplySlot), amt)
	if overflow {
		return ErrAmountOverflow
	}
	// the balance is bounded by the supply
	bal := new(uint256.Int).Add(kvstore.ReadU256(db, b.addr, bonesBalanceSlot(to)), amt)
	kvstore.WriteU256(db, b.addr, bonesSupplySlot, supply)
	kvstore.WriteU256(db, b.addr, bonesBalanceSlot(to), bal)
	log.Trace("Minted bones", "to", to, "amount", amount)
	return nil
}

// Burn destroys amount bones held by from.
func (b *Bones) Burn(db vm.StateDB, from common.Address, amount *big.Int) error {
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	bal := kvstore.ReadU256(db, b.addr, bonesBalanceSlot(from))
	if bal.Lt(amt) {
		return ErrBalanceIsInsufficient
	}
	supply := kvstore.ReadU256(db, b.addr, bonesSupplySlot)
	kvstore.WriteU256(db, b.addr, bonesBalanceSlot(from), new(uint256.Int).Sub(bal, amt))
	kvstore.WriteU256(db, b.addr, bonesSupplySlot, new(uint256.Int).Sub(supply, amt))
	log.Trace("Burned bones", "from", from, "amount", amount)
	return nil
}
