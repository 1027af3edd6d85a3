package stakelock

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
)

func lockSlot(id uint64) common.Hash {
	return kvstore.Slot("stakelock.facility", kvstore.Key(id))
}

func ownedList(f Facility, owner common.Address) kvstore.List {
	return kvstore.NewList(params.StakeLockAddress,
		kvstore.Slot("stakelock.owned", []byte{byte(f)}, owner.Bytes()))
}

// FacilityOf returns the facility holding id, or None.
func FacilityOf(db vm.StateDB, id uint64) Facility {
	return Facility(kvstore.ReadUint64(db, params.StakeLockAddress, lockSlot(id)))
}

// IsLocked reports whether id is open in any facility.
func IsLocked(db vm.StateDB, id uint64) bool {
	return FacilityOf(db, id) != None
}

// Acquire locks id into f on behalf of owner. It fails with ErrTokenIsStaked
// if the token is already open anywhere.
func Acquire(db vm.StateDB, f Facility, owner common.Address, id uint64) error {
	if IsLocked(db, id) {
		return ErrTokenIsStaked
	}
	kvstore.WriteUint64(db, params.StakeLockAddress, lockSlot(id), uint64(f))
	ownedList(f, owner).Add(db, id)
	log.Trace("Creature locked", "facility", f, "owner", owner, "id", id)
	return nil
}

// Release unlocks id from f and drops it from owner's index.
func Release(db vm.StateDB, f Facility, owner common.Address, id uint64) error {
	if FacilityOf(db, id) != f {
		return ErrNotLockedHere
	}
	kvstore.Clear(db, params.StakeLockAddress, lockSlot(id))
	ownedList(f, owner).Remove(db, id)
	log.Trace("Creature released", "facility", f, "owner", owner, "id", id)
	return nil
}

// Owned returns the ids owner has open in f.
func Owned(db vm.StateDB, f Facility, owner common.Address) []uint64 {
	return ownedList(f, owner).Values(db)
}

// Checker adapts the lock table to the creature registry's transfer hook.
type Checker struct{}

// IsLocked implements assets.Locker.
func (Checker) IsLocked(db vm.StateDB, id uint64) bool { return IsLocked(db, id) }
