package core

import (
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
)

// ChainEvent is posted when a block has been sealed and written.
type ChainEvent struct {
	Block    *types.Block
	Hash     common.Hash
	Receipts types.Receipts
	Logs     []*types.Log
}

// ChainHeadEvent is posted when the canonical head changes.
type ChainHeadEvent struct{ Block *types.Block }
