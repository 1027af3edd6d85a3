package core

import (
	"fmt"

	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/sysaction"
)

// Executor runs an encoded system action against the state.
type Executor interface {
	Execute(ctx *sysaction.Context, data []byte) error
}

func preCheck(statedb *state.StateDB, tx *types.Transaction) error {
	stNonce := statedb.GetNonce(tx.From)
	if msgNonce := tx.Nonce; stNonce < msgNonce {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh,
			tx.From.Hex(), msgNonce, stNonce)
	} else if stNonce > msgNonce {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow,
			tx.From.Hex(), msgNonce, stNonce)
	} else if stNonce+1 < stNonce {
		return fmt.Errorf("%w: address %v, nonce: %d", ErrNonceMax,
			tx.From.Hex(), stNonce)
	}
	if len(tx.Data) == 0 {
		return ErrEmptyAction
	}
	return nil
}

// ApplyTransaction runs tx on statedb within the block described by header.
//
// An invalid transaction (wrong nonce, no payload) is returned as an error and
// leaves the state untouched. A system action that fails is not an error: its
// writes are reverted, the sender's nonce is still consumed, and the receipt
// records the named reason.
func ApplyTransaction(exec Executor, header *types.Header, statedb *state.StateDB, tx *types.Transaction, index int) (*types.Receipt, error) {
	if err := preCheck(statedb, tx); err != nil {
		return nil, err
	}
	// Increment nonce for all valid transactions.
	statedb.SetNonce(tx.From, statedb.GetNonce(tx.From)+1)

	hash := tx.Hash()
	statedb.Prepare(hash, index)
	snap := statedb.Snapshot()
	ctx := &sysaction.Context{
		From:        tx.From,
		TxHash:      hash,
		BlockNumber: header.Number,
		Time:        header.Time,
		StateDB:     statedb,
	}
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	if err := exec.Execute(ctx, tx.Data); err != nil {
		statedb.RevertToSnapshot(snap)
		receipt.Status = types.ReceiptStatusFailed
		receipt.Err = err.Error()
		log.Debug("System action reverted", "tx", hash, "from", tx.From, "err", err)
	}
	receipt.Logs = statedb.GetLogs(hash)
	receipt.TxHash = hash
	receipt.BlockNumber = header.Number
	receipt.TransactionIndex = uint(index)
	return receipt, nil
}
