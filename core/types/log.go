package types

import (
	"encoding/json"

	"github.com/smolage/gbones/common"
)

// Log represents a structured event emitted by a facility.
type Log struct {
	// Consensus fields:
	// address of the facility that generated the event
	Address common.Address `json:"address"`
	// list of topics provided by the facility; the first one is the event id.
	Topics []common.Hash `json:"topics"`
	// supplied by the facility, JSON-encoded event fields
	Data json.RawMessage `json:"data"`

	// Derived fields. These fields are filled in by the node
	// but not secured by consensus.
	// block in which the transaction was included
	BlockNumber uint64 `json:"blockNumber"`
	// block time in which the transaction was included
	BlockTime uint64 `json:"blockTime"`
	// hash of the transaction
	TxHash common.Hash `json:"transactionHash"`
	// index of the transaction in the block
	TxIndex uint `json:"transactionIndex"`
	// hash of the block in which the transaction was included
	BlockHash common.Hash `json:"blockHash"`
	// index of the log in the block
	Index uint `json:"logIndex"`
}
