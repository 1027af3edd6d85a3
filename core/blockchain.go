// Package core implements the gbones chain: a single serialized sequence of
// blocks whose transactions are system actions run by the economy.
package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/economy"
	"github.com/smolage/gbones/event"
	"github.com/smolage/gbones/laborground"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
)

const (
	headerCacheLimit   = 512
	receiptsCacheLimit = 32
	blockCacheLimit    = 256
)

var errChainStopped = errors.New("blockchain is stopped")

// CacheConfig contains the configuration values for the caching layers of
// the BlockChain.
type CacheConfig struct {
	StateCleanMB int // Memory allowance (MB) for the clean storage slot cache
}

// defaultCacheConfig are the default caching values if none are specified by the
// user (also used during testing).
var defaultCacheConfig = &CacheConfig{
	StateCleanMB: 16,
}

// BlockChain represents the canonical chain given a database with a genesis
// block. Blocks are produced locally: InsertBlock seals the given
// transactions on top of the current head.
//
// The BlockChain serializes every state transition behind one lock; readers
// share it through View.
type BlockChain struct {
	chainConfig *params.ChainConfig
	cacheConfig *CacheConfig

	db         bonesdb.KeyValueStore
	stateCache *state.Database
	economy    *economy.Economy
	processor  *StateProcessor

	chainmu      sync.RWMutex
	genesisBlock *types.Block
	currentBlock atomic.Value // *types.Block
	statedb      *state.StateDB
	stopped      atomic.Bool

	headerCache   *lru.ARCCache // common.Hash -> *types.Header
	blockCache    *lru.ARCCache // common.Hash -> *types.Block
	receiptsCache *lru.ARCCache // common.Hash -> types.Receipts

	chainFeed     event.FeedOf[ChainEvent]
	chainHeadFeed event.FeedOf[ChainHeadEvent]
	logsFeed      event.FeedOf[[]*types.Log]
}

// NewBlockChain returns a fully initialised block chain using information
// available in the database. The genesis is written first if the database
// has none. A nil randomizer selects the default Labor Ground rolls.
func NewBlockChain(db bonesdb.KeyValueStore, cacheConfig *CacheConfig, genesis *Genesis, rnd laborground.Randomizer) (*BlockChain, error) {
	if cacheConfig == nil {
		cacheConfig = defaultCacheConfig
	}
	chainConfig, genesisHash, err := SetupGenesisBlock(db, genesis)
	if err != nil {
		return nil, err
	}
	eco, err := economy.New(chainConfig.Economy, rnd)
	if err != nil {
		return nil, err
	}
	headerCache, _ := lru.NewARC(headerCacheLimit)
	blockCache, _ := lru.NewARC(blockCacheLimit)
	receiptsCache, _ := lru.NewARC(receiptsCacheLimit)

	bc := &BlockChain{
		chainConfig:   chainConfig,
		cacheConfig:   cacheConfig,
		db:            db,
		stateCache:    state.NewDatabaseWithCache(db, cacheConfig.StateCleanMB),
		economy:       eco,
		processor:     NewStateProcessor(eco),
		headerCache:   headerCache,
		blockCache:    blockCache,
		receiptsCache: receiptsCache,
	}
	bc.genesisBlock = bc.GetBlockByNumber(0)
	if bc.genesisBlock == nil || bc.genesisBlock.Hash() != genesisHash {
		return nil, ErrNoGenesis
	}
	if err := bc.loadLastState(); err != nil {
		return nil, err
	}
	head := bc.CurrentBlock()
	log.Info("Loaded most recent local block", "number", head.NumberU64(), "hash", head.Hash(), "time", head.Time())
	log.Info("Initialised chain configuration", "config", chainConfig)
	return bc, nil
}

// loadLastState loads the last known chain state from the database.
func (bc *BlockChain) loadLastState() error {
	head := rawdb.ReadHeadBlockHash(bc.db)
	if head == (common.Hash{}) {
		return ErrNoGenesis
	}
	number := rawdb.ReadHeaderNumber(bc.db, head)
	if number == nil {
		return ErrNoGenesis
	}
	block := rawdb.ReadBlock(bc.db, head, *number)
	if block == nil {
		return ErrNoGenesis
	}
	statedb, err := state.New(block.Root(), bc.stateCache)
	if err != nil {
		return err
	}
	bc.currentBlock.Store(block)
	bc.statedb = statedb
	return nil
}

// Config retrieves the chain's configuration.
func (bc *BlockChain) Config() *params.ChainConfig { return bc.chainConfig }

// Economy returns the ledgers and facilities the chain executes.
func (bc *BlockChain) Economy() *economy.Economy { return bc.economy }

// Genesis retrieves the chain's genesis block.
func (bc *BlockChain) Genesis() *types.Block { return bc.genesisBlock }

// CurrentBlock retrieves the current head block of the canonical chain.
func (bc *BlockChain) CurrentBlock() *types.Block {
	return bc.currentBlock.Load().(*types.Block)
}

// CurrentHeader retrieves the current head header of the canonical chain.
func (bc *BlockChain) CurrentHeader() *types.Header {
	return bc.CurrentBlock().Header()
}

// InsertBlock seals txs into a new head block stamped with time, which must
// not precede the parent's. Transactions whose system action fails are
// included with a failed receipt; an invalid transaction rejects the block.
func (bc *BlockChain) InsertBlock(txs types.Transactions, time uint64) (*types.Block, types.Receipts, error) {
	if bc.stopped.Load() {
		return nil, nil, errChainStopped
	}
	bc.chainmu.Lock()
	block, receipts, logs, err := bc.insertBlock(txs, time)
	bc.chainmu.Unlock()
	if err != nil {
		return nil, nil, err
	}
	bc.chainFeed.Send(ChainEvent{Block: block, Hash: block.Hash(), Receipts: receipts, Logs: logs})
	if len(logs) > 0 {
		bc.logsFeed.Send(logs)
	}
	bc.chainHeadFeed.Send(ChainHeadEvent{Block: block})
	return block, receipts, nil
}

func (bc *BlockChain) insertBlock(txs types.Transactions, blockTime uint64) (*types.Block, types.Receipts, []*types.Log, error) {
	start := time.Now()
	parent := bc.CurrentBlock()
	if blockTime < parent.Time() {
		return nil, nil, nil, ErrBlockTimeTooOld
	}
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     parent.NumberU64() + 1,
		Time:       blockTime,
	}
	// Process on a scratch state so a rejected block leaves the head intact.
	statedb, err := state.New(parent.Root(), bc.stateCache)
	if err != nil {
		return nil, nil, nil, err
	}
	receipts, logs, err := bc.processor.Process(header, txs, statedb)
	if err != nil {
		return nil, nil, nil, err
	}
	header.Root = statedb.IntermediateRoot()
	block := types.NewBlock(header, txs)
	receipts.DeriveFields(block.Hash(), block.NumberU64(), block.Time(), txs)

	batch := bc.db.NewBatch()
	statedb.Commit(batch)
	rawdb.WriteBlock(batch, block)
	rawdb.WriteReceipts(batch, block.Hash(), block.NumberU64(), receipts)
	rawdb.WriteCanonicalHash(batch, block.Hash(), block.NumberU64())
	rawdb.WriteHeadBlockHash(batch, block.Hash())
	if err := batch.Write(); err != nil {
		log.Crit("Failed to write block into disk", "err", err)
	}
	bc.currentBlock.Store(block)
	bc.statedb = statedb
	bc.blockCache.Add(block.Hash(), block)
	bc.receiptsCache.Add(block.Hash(), receipts)

	log.Info("Sealed new block", "number", block.NumberU64(), "hash", block.Hash(),
		"txs", len(txs), "logs", len(logs), "elapsed", time.Since(start))
	return block, receipts, logs, nil
}

// View runs fn against the head state while holding off block insertion.
// fn must not retain db.
func (bc *BlockChain) View(fn func(db vm.StateDB, head *types.Header) error) error {
	bc.chainmu.RLock()
	defer bc.chainmu.RUnlock()

	head := bc.CurrentBlock()
	statedb, err := state.New(head.Root(), bc.stateCache)
	if err != nil {
		return err
	}
	return fn(statedb, head.Header())
}

// StateAt returns a new mutable state based on the head block. Only the head
// state is retained; any other root fails with ErrStateUnavailable.
func (bc *BlockChain) StateAt(root common.Hash) (*state.StateDB, error) {
	bc.chainmu.RLock()
	defer bc.chainmu.RUnlock()

	if root != bc.CurrentBlock().Root() {
		return nil, ErrStateUnavailable
	}
	return state.New(root, bc.stateCache)
}

// State returns a new mutable state based on the current head block.
func (bc *BlockChain) State() (*state.StateDB, error) {
	return bc.StateAt(bc.CurrentBlock().Root())
}

// NonceAt returns the next nonce expected from addr.
func (bc *BlockChain) NonceAt(addr common.Address) uint64 {
	bc.chainmu.RLock()
	defer bc.chainmu.RUnlock()
	return bc.statedb.GetNonce(addr)
}

// GetHeader retrieves a block header from the database by hash and number,
// caching it if found.
func (bc *BlockChain) GetHeader(hash common.Hash, number uint64) *types.Header {
	if header, ok := bc.headerCache.Get(hash); ok {
		return header.(*types.Header)
	}
	header := rawdb.ReadHeader(bc.db, hash, number)
	if header == nil {
		return nil
	}
	bc.headerCache.Add(hash, header)
	return header
}

// GetHeaderByNumber retrieves a canonical block header from the database by
// number, caching it if found.
func (bc *BlockChain) GetHeaderByNumber(number uint64) *types.Header {
	hash := rawdb.ReadCanonicalHash(bc.db, number)
	if hash == (common.Hash{}) {
		return nil
	}
	return bc.GetHeader(hash, number)
}

// GetBlock retrieves a block from the database by hash and number,
// caching it if found.
func (bc *BlockChain) GetBlock(hash common.Hash, number uint64) *types.Block {
	if block, ok := bc.blockCache.Get(hash); ok {
		return block.(*types.Block)
	}
	block := rawdb.ReadBlock(bc.db, hash, number)
	if block == nil {
		return nil
	}
	bc.blockCache.Add(block.Hash(), block)
	return block
}

// GetBlockByHash retrieves a block from the database by hash, caching it if found.
func (bc *BlockChain) GetBlockByHash(hash common.Hash) *types.Block {
	number := rawdb.ReadHeaderNumber(bc.db, hash)
	if number == nil {
		return nil
	}
	return bc.GetBlock(hash, *number)
}

// GetBlockByNumber retrieves a canonical block from the database by number,
// caching it (associated with its hash) if found.
func (bc *BlockChain) GetBlockByNumber(number uint64) *types.Block {
	hash := rawdb.ReadCanonicalHash(bc.db, number)
	if hash == (common.Hash{}) {
		return nil
	}
	return bc.GetBlock(hash, number)
}

// GetReceiptsByHash retrieves the receipts for all transactions in a given block.
func (bc *BlockChain) GetReceiptsByHash(hash common.Hash) types.Receipts {
	if receipts, ok := bc.receiptsCache.Get(hash); ok {
		return receipts.(types.Receipts)
	}
	number := rawdb.ReadHeaderNumber(bc.db, hash)
	if number == nil {
		return nil
	}
	receipts := rawdb.ReadReceipts(bc.db, hash, *number)
	if receipts == nil {
		return nil
	}
	bc.receiptsCache.Add(hash, receipts)
	return receipts
}

// SubscribeChainEvent registers a subscription of ChainEvent.
func (bc *BlockChain) SubscribeChainEvent(ch chan<- ChainEvent) event.Subscription {
	return bc.chainFeed.Subscribe(ch)
}

// SubscribeChainHeadEvent registers a subscription of ChainHeadEvent.
func (bc *BlockChain) SubscribeChainHeadEvent(ch chan<- ChainHeadEvent) event.Subscription {
	return bc.chainHeadFeed.Subscribe(ch)
}

// SubscribeLogsEvent registers a subscription of []*types.Log.
func (bc *BlockChain) SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription {
	return bc.logsFeed.Subscribe(ch)
}

// Stop stops the blockchain service. Subscriptions are closed and later
// insertions fail.
func (bc *BlockChain) Stop() {
	if !bc.stopped.CompareAndSwap(false, true) {
		return
	}
	bc.chainmu.Lock()
	defer bc.chainmu.Unlock()
	bc.chainFeed.Close()
	bc.chainHeadFeed.Close()
	bc.logsFeed.Close()
	log.Info("Blockchain stopped")
}
