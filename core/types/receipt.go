package types

import (
	"github.com/smolage/gbones/common"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the results of a transaction.
type Receipt struct {
	Status uint64 `json:"status"`
	// Err is the named reason the transaction was reverted with, if any.
	Err  string `json:"error,omitempty"`
	Logs []*Log `json:"logs"`

	// Implementation fields: These fields are added by the node when
	// processing a transaction.
	TxHash           common.Hash `json:"transactionHash"`
	BlockHash        common.Hash `json:"blockHash"`
	BlockNumber      uint64      `json:"blockNumber"`
	TransactionIndex uint        `json:"transactionIndex"`
}

// Failed reports whether the transaction was reverted.
func (r *Receipt) Failed() bool {
	return r.Status == ReceiptStatusFailed
}

// Receipts implements DerivableList for receipts.
type Receipts []*Receipt

// Len returns the number of receipts in this list.
func (rs Receipts) Len() int { return len(rs) }

// DeriveFields fills the receipts and their logs with information based on
// the block they were included in.
func (rs Receipts) DeriveFields(hash common.Hash, number uint64, time uint64, txs Transactions) {
	logIndex := uint(0)
	for i, r := range rs {
		r.TxHash = txs[i].Hash()
		r.BlockHash = hash
		r.BlockNumber = number
		r.TransactionIndex = uint(i)
		for _, l := range r.Logs {
			l.BlockNumber = number
			l.BlockTime = time
			l.BlockHash = hash
			l.TxHash = r.TxHash
			l.TxIndex = uint(i)
			l.Index = logIndex
			logIndex++
		}
	}
}
