package kvstore

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
)

// List is an unordered set of uint64 values stored as a slot array with a
// position index, so membership tests and removals are O(1). Removal swaps
// the last element into the freed position.
type List struct {
	Owner common.Address
	Base  common.Hash
}

// NewList returns the list rooted at base in owner's storage.
func NewList(owner common.Address, base common.Hash) List {
	return List{Owner: owner, Base: base}
}

func (l List) lenSlot() common.Hash          { return FieldSlot(l.Base, "len") }
func (l List) posSlot(v uint64) common.Hash  { return IndexSlot(FieldSlot(l.Base, "pos"), v) }
func (l List) elemSlot(i uint64) common.Hash { return IndexSlot(l.Base, i) }

// Len returns the number of elements.
func (l List) Len(db vm.StateDB) uint64 {
	return ReadUint64(db, l.Owner, l.lenSlot())
}

// At returns the i-th element.
func (l List) At(db vm.StateDB, i uint64) uint64 {
	return ReadUint64(db, l.Owner, l.elemSlot(i))
}

// Contains reports whether v is in the list.
func (l List) Contains(db vm.StateDB, v uint64) bool {
	return ReadUint64(db, l.Owner, l.posSlot(v)) != 0
}

// Add appends v unless already present.
func (l List) Add(db vm.StateDB, v uint64) {
	if l.Contains(db, v) {
		return
	}
	n := l.Len(db)
	WriteUint64(db, l.Owner, l.elemSlot(n), v)
	WriteUint64(db, l.Owner, l.posSlot(v), n+1) // 1-based, 0 means absent
	WriteUint64(db, l.Owner, l.lenSlot(), n+1)
}

// Remove deletes v if present, moving the last element into its place.
func (l List) Remove(db vm.StateDB, v uint64) bool {
	pos := ReadUint64(db, l.Owner, l.posSlot(v))
	if pos == 0 {
		return false
	}
	idx, last := pos-1, l.Len(db)-1
	if idx != last {
		moved := l.At(db, last)
		WriteUint64(db, l.Owner, l.elemSlot(idx), moved)
		WriteUint64(db, l.Owner, l.posSlot(moved), idx+1)
	}
	Clear(db, l.Owner, l.elemSlot(last), l.posSlot(v))
	WriteUint64(db, l.Owner, l.lenSlot(), last)
	return true
}

// Values returns every element in storage order.
func (l List) Values(db vm.StateDB) []uint64 {
	n := l.Len(db)
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		out = append(out, l.At(db, i))
	}
	return out
}
