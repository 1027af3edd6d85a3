// Package vm defines the state access surface system-action handlers run
// against. There is no bytecode interpreter: every facility is native code
// over storage slots.
package vm

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
)

// StateDB is the state a handler reads and writes while executing one
// transaction.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)
}
