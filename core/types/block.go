// Package types contains data types related to the gbones chain.
package types

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/crypto"
)

// EmptyRootHash is the known root hash of an empty transaction list.
var EmptyRootHash = crypto.Keccak256Hash(nil)

// Header represents a block header in the gbones chain.
type Header struct {
	ParentHash common.Hash `json:"parentHash"`
	Number     uint64      `json:"number"`
	Time       uint64      `json:"timestamp"`
	Root       common.Hash `json:"stateRoot"`
	TxHash     common.Hash `json:"transactionsRoot"`
}

// Hash returns the block hash of the header.
func (h *Header) Hash() common.Hash {
	var nums [16]byte
	binary.BigEndian.PutUint64(nums[:8], h.Number)
	binary.BigEndian.PutUint64(nums[8:], h.Time)
	return crypto.Keccak256Hash(h.ParentHash[:], nums[:], h.Root[:], h.TxHash[:])
}

// Block represents an entire block in the gbones chain.
type Block struct {
	header       *Header
	transactions Transactions

	// caches
	hash atomic.Value
}

// NewBlock creates a new block. The header is copied and its TxHash set to
// commit to txs.
func NewBlock(header *Header, txs []*Transaction) *Block {
	b := &Block{header: CopyHeader(header)}
	b.header.TxHash = Transactions(txs).TxRoot()
	if len(txs) > 0 {
		b.transactions = make(Transactions, len(txs))
		copy(b.transactions, txs)
	}
	return b
}

// NewBlockWithHeader creates a block with the given header data. The header
// data is copied, changes to header and to the field values will not affect
// the block.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: CopyHeader(header)}
}

// WithBody returns a new block with the given transactions.
func (b *Block) WithBody(txs []*Transaction) *Block {
	block := &Block{header: CopyHeader(b.header)}
	block.transactions = make(Transactions, len(txs))
	copy(block.transactions, txs)
	return block
}

// CopyHeader creates a deep copy of a block header.
func CopyHeader(h *Header) *Header {
	cpy := *h
	return &cpy
}

func (b *Block) Transactions() Transactions { return b.transactions }
func (b *Block) NumberU64() uint64          { return b.header.Number }
func (b *Block) Time() uint64               { return b.header.Time }
func (b *Block) Root() common.Hash          { return b.header.Root }
func (b *Block) ParentHash() common.Hash    { return b.header.ParentHash }
func (b *Block) Header() *Header            { return CopyHeader(b.header) }

// Hash returns the keccak256 hash of b's header.
// The hash is computed on the first call and cached thereafter.
func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := b.header.Hash()
	b.hash.Store(v)
	return v
}

func (b *Block) String() string {
	return fmt.Sprintf("#%d [%s] txs=%d time=%d", b.NumberU64(), b.Hash().TerminalString(), len(b.transactions), b.Time())
}

// Body is the transaction list of a block, stored separately from its header.
type Body struct {
	Transactions []*Transaction `json:"transactions"`
}
