// Package kvstore provides typed words and ordered lists on top of the
// 32-byte storage slots of a system address.
package kvstore

import (
	"encoding/binary"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/crypto"
)

// Slot derives the base slot of a record: keccak(namespace || len(k) || k ...).
// Parts are length-prefixed so distinct part lists never collide.
func Slot(namespace string, parts ...[]byte) common.Hash {
	var l [8]byte
	size := len(namespace)
	for _, p := range parts {
		size += 8 + len(p)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, namespace...)
	for _, p := range parts {
		binary.BigEndian.PutUint64(l[:], uint64(len(p)))
		buf = append(buf, l[:]...)
		buf = append(buf, p...)
	}
	return common.BytesToHash(crypto.Keccak256(buf))
}

// Key encodes a numeric id as a Slot part.
func Key(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

// FieldSlot hashes (base || 0x00 || field) for one field of a record.
func FieldSlot(base common.Hash, field string) common.Hash {
	buf := make([]byte, 0, len(base)+1+len(field))
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, field...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// IndexSlot returns the slot of the i-th element stored under base.
func IndexSlot(base common.Hash, index uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, len(base)+1+len("elem")+8)
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, "elem"...)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// ReadUint64 reads a right-aligned uint64 word.
func ReadUint64(db vm.StateDB, owner common.Address, slot common.Hash) uint64 {
	raw := db.GetState(owner, slot)
	return binary.BigEndian.Uint64(raw[24:])
}

// WriteUint64 writes a right-aligned uint64 word.
func WriteUint64(db vm.StateDB, owner common.Address, slot common.Hash, n uint64) {
	var word common.Hash
	binary.BigEndian.PutUint64(word[24:], n)
	db.SetState(owner, slot, word)
}

// ReadBool reads a boolean word.
func ReadBool(db vm.StateDB, owner common.Address, slot common.Hash) bool {
	return db.GetState(owner, slot)[31] != 0
}

// WriteBool writes a boolean word.
func WriteBool(db vm.StateDB, owner common.Address, slot common.Hash, v bool) {
	var word common.Hash
	if v {
		word[31] = 1
	}
	db.SetState(owner, slot, word)
}

// ReadBig reads an unsigned 256-bit word as a big integer.
func ReadBig(db vm.StateDB, owner common.Address, slot common.Hash) *big.Int {
	return db.GetState(owner, slot).Big()
}

// WriteBig writes a non-negative big integer. Values must fit 256 bits.
func WriteBig(db vm.StateDB, owner common.Address, slot common.Hash, v *big.Int) {
	if v == nil {
		v = new(big.Int)
	}
	db.SetState(owner, slot, common.BigToHash(v))
}

// ReadU256 reads a 256-bit word.
func ReadU256(db vm.StateDB, owner common.Address, slot common.Hash) *uint256.Int {
	raw := db.GetState(owner, slot)
	return new(uint256.Int).SetBytes32(raw[:])
}

// WriteU256 writes a 256-bit word.
func WriteU256(db vm.StateDB, owner common.Address, slot common.Hash, v *uint256.Int) {
	db.SetState(owner, slot, common.Hash(v.Bytes32()))
}

// ReadAddress reads a right-aligned address word.
func ReadAddress(db vm.StateDB, owner common.Address, slot common.Hash) common.Address {
	raw := db.GetState(owner, slot)
	return common.BytesToAddress(raw[12:])
}

// WriteAddress writes a right-aligned address word.
func WriteAddress(db vm.StateDB, owner common.Address, slot common.Hash, a common.Address) {
	var word common.Hash
	copy(word[12:], a.Bytes())
	db.SetState(owner, slot, word)
}

// Clear zeroes the given slots.
func Clear(db vm.StateDB, owner common.Address, slots ...common.Hash) {
	for _, s := range slots {
		db.SetState(owner, s, common.Hash{})
	}
}
