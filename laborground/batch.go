package laborground

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/stakelock"
)

// EnterBatch puts every creature to work, ids[i] at jobs[i] paying supplyIDs[i].
func (e *Engine) EnterBatch(db vm.StateDB, owner common.Address, ids, supplyIDs []uint64, jobs []uint8, now uint64) error {
	if len(ids) != len(supplyIDs) || len(ids) != len(jobs) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Enter(db, owner, ids[i], supplyIDs[i], jobs[i], now)
	})
}

// BringInAnimalsBatch brings animalIDs[i] to the position of ids[i].
func (e *Engine) BringInAnimalsBatch(db vm.StateDB, owner common.Address, ids, animalIDs []uint64) error {
	if len(ids) != len(animalIDs) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.BringInAnimal(db, owner, ids[i], animalIDs[i])
	})
}

// RemoveAnimalsBatch returns the animals of every position in ids.
func (e *Engine) RemoveAnimalsBatch(db vm.StateDB, owner common.Address, ids []uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.RemoveAnimal(db, owner, ids[i])
	})
}

// ClaimBatch claims the collectibles of every position in ids.
func (e *Engine) ClaimBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		_, err := e.Claim(db, owner, ids[i], now)
		return err
	})
}

// LeaveBatch ends the job of every creature in ids.
func (e *Engine) LeaveBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Leave(db, owner, ids[i], now)
	})
}
