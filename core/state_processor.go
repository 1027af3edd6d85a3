package core

import (
	"fmt"

	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/core/types"
)

// StateProcessor is a basic Processor, which takes care of transitioning
// state from one point to another.
type StateProcessor struct {
	exec Executor
}

// NewStateProcessor initialises a new StateProcessor.
func NewStateProcessor(exec Executor) *StateProcessor {
	return &StateProcessor{exec: exec}
}

// Process runs the transactions in order on statedb, returning the receipts
// and logs accumulated. Any invalid transaction fails the whole block.
func (p *StateProcessor) Process(header *types.Header, txs types.Transactions, statedb *state.StateDB) (types.Receipts, []*types.Log, error) {
	var (
		receipts types.Receipts
		allLogs  []*types.Log
	)
	// Iterate over and process the individual transactions
	for i, tx := range txs {
		receipt, err := ApplyTransaction(p.exec, header, statedb, tx, i)
		if err != nil {
			return nil, nil, fmt.Errorf("could not apply tx %d [%v]: %w", i, tx.Hash().Hex(), err)
		}
		receipts = append(receipts, receipt)
		allLogs = append(allLogs, receipt.Logs...)
	}
	return receipts, allLogs, nil
}
