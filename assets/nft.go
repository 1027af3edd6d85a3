package assets

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
)

// registry is the ownership table shared by the smol and animal ledgers.
// Token ids start at 1.
type registry struct {
	addr common.Address
	name string
}

func (r registry) ownerSlot(id uint64) common.Hash {
	return kvstore.Slot(r.name+".owner", kvstore.Key(id))
}

func (r registry) countSlot() common.Hash {
	return kvstore.Slot(r.name + ".count")
}

func (r registry) tokens(owner common.Address) kvstore.List {
	return kvstore.NewList(r.addr, kvstore.Slot(r.name+".tokens", owner.Bytes()))
}

// OwnerOf returns the holder of id, or the zero address if it was never minted.
func (r registry) OwnerOf(db vm.StateDB, id uint64) common.Address {
	return kvstore.ReadAddress(db, r.addr, r.ownerSlot(id))
}

// TokensOf returns the ids held by owner.
func (r registry) TokensOf(db vm.StateDB, owner common.Address) []uint64 {
	return r.tokens(owner).Values(db)
}

// Count returns the number of tokens minted so far.
func (r registry) Count(db vm.StateDB) uint64 {
	return kvstore.ReadUint64(db, r.addr, r.countSlot())
}

func (r registry) mint(db vm.StateDB, to common.Address) (uint64, error) {
	if to == (common.Address{}) {
		return 0, ErrZeroAddress
	}
	id := r.Count(db) + 1
	kvstore.WriteUint64(db, r.addr, r.countSlot(), id)
	kvstore.WriteAddress(db, r.addr, r.ownerSlot(id), to)
	r.tokens(to).Add(db, id)
	return id, nil
}

func (r registry) transfer(db vm.StateDB, from, to common.Address, id uint64) error {
	if r.OwnerOf(db, id) != from || from == (common.Address{}) {
		return errNotOwner
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if from == to {
		return nil
	}
	kvstore.WriteAddress(db, r.addr, r.ownerSlot(id), to)
	r.tokens(from).Remove(db, id)
	r.tokens(to).Add(db, id)
	return nil
}
