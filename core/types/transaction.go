package types

import (
	"encoding/binary"
	"encoding/json"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/crypto"
)

// Transaction is a system action submitted by From. Transactions are not
// signed: the node trusts the sender it is given (dev-mode).
type Transaction struct {
	From  common.Address  `json:"from"`
	Nonce uint64          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// NewTransaction creates a transaction carrying an encoded system action.
func NewTransaction(from common.Address, nonce uint64, data []byte) *Transaction {
	cpy := make([]byte, len(data))
	copy(cpy, data)
	return &Transaction{From: from, Nonce: nonce, Data: cpy}
}

// Hash returns the transaction hash.
func (tx *Transaction) Hash() common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], tx.Nonce)
	return crypto.Keccak256Hash(tx.From.Bytes(), n[:], tx.Data)
}

// Transactions is a Transaction slice type for basic sorting.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// TxRoot commits to the ordered list of transactions.
func (s Transactions) TxRoot() common.Hash {
	if len(s) == 0 {
		return EmptyRootHash
	}
	hw := crypto.NewKeccakState()
	for _, tx := range s {
		h := tx.Hash()
		hw.Write(h[:])
	}
	var root common.Hash
	hw.Read(root[:])
	return root
}
