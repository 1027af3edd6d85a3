package devground

import (
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/stakelock"
)

// EnterBatch enters every creature with its own lock period and ground.
func (e *Engine) EnterBatch(db vm.StateDB, owner common.Address, ids, lockPeriods []uint64, kinds []Kind, now uint64) error {
	if len(ids) != len(lockPeriods) || len(ids) != len(kinds) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Enter(db, owner, ids[i], lockPeriods[i], kinds[i], now)
	})
}

// StakeBonesBatch stakes amounts[i] into the position of ids[i].
func (e *Engine) StakeBonesBatch(db vm.StateDB, owner common.Address, amounts []*big.Int, ids []uint64, now uint64) error {
	if len(ids) != len(amounts) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.StakeBones(db, owner, ids[i], amounts[i], now)
	})
}

// ClaimRewardBatch claims every position, restaking those flagged.
func (e *Engine) ClaimRewardBatch(db vm.StateDB, owner common.Address, ids []uint64, restake []bool, now uint64) error {
	if len(ids) != len(restake) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		_, err := e.ClaimReward(db, owner, ids[i], restake[i], now)
		return err
	})
}

// RemoveBonesBatch removes bones from every position, all[i] selecting a
// full withdrawal for ids[i].
func (e *Engine) RemoveBonesBatch(db vm.StateDB, owner common.Address, ids []uint64, all []bool, now uint64) error {
	if len(ids) != len(all) {
		return stakelock.ErrLengthsNotEqual
	}
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.RemoveBones(db, owner, ids[i], all[i], now)
	})
}

// LeaveBatch leaves every position.
func (e *Engine) LeaveBatch(db vm.StateDB, owner common.Address, ids []uint64, now uint64) error {
	return stakelock.Atomic(db, len(ids), func(i int) error {
		return e.Leave(db, owner, ids[i], now)
	})
}
