// Package stakeidx keeps a queryable SQLite copy of every event the chain
// emits. The chain remains the source of truth; the index can be dropped and
// rebuilt from the receipts.
package stakeidx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/event"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/sysaction"
)

// BlockChain is the minimal chain interface consumed by Index.
// Satisfied by core.BlockChain.
type BlockChain interface {
	SubscribeChainEvent(ch chan<- core.ChainEvent) event.Subscription
}

// History is the chain interface consumed by Backfill.
// Satisfied by core.BlockChain.
type History interface {
	CurrentBlock() *types.Block
	GetBlockByNumber(number uint64) *types.Block
	GetReceiptsByHash(hash common.Hash) types.Receipts
}

// Index stores the events of every sealed block.
type Index struct {
	db *sql.DB

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Open opens (creating if needed) the index database at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db, quit: make(chan struct{})}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
			number INTEGER PRIMARY KEY,
			hash TEXT NOT NULL,
			time INTEGER NOT NULL,
			txs INTEGER NOT NULL,
			failed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			block_number INTEGER NOT NULL,
			log_index INTEGER NOT NULL,
			block_time INTEGER NOT NULL,
			tx_hash TEXT NOT NULL,
			facility TEXT NOT NULL,
			name TEXT NOT NULL,
			owner TEXT NOT NULL,
			token_id INTEGER,
			fields TEXT NOT NULL,
			PRIMARY KEY (block_number, log_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);`,
		`CREATE INDEX IF NOT EXISTS idx_events_owner ON events(owner);`,
		`CREATE INDEX IF NOT EXISTS idx_events_token ON events(token_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Start begins consuming chain events in a background goroutine.
func (idx *Index) Start(chain BlockChain) {
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop(chain)
	}()
}

// Close stops the indexing loop and closes the database.
func (idx *Index) Close() error {
	var err error
	idx.once.Do(func() {
		close(idx.quit)
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

func (idx *Index) loop(chain BlockChain) {
	ch := make(chan core.ChainEvent, 64)
	sub := chain.SubscribeChainEvent(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case ev := <-ch:
			if err := idx.WriteBlock(context.Background(), ev); err != nil {
				log.Error("Failed to index block", "number", ev.Block.NumberU64(), "err", err)
			}
		case err := <-sub.Err():
			if err != nil {
				log.Warn("Event indexer chain subscription error", "err", err)
			}
			return
		case <-idx.quit:
			return
		}
	}
}

// WriteBlock stores a sealed block and its events in one transaction.
// Re-indexing a block replaces its rows.
func (idx *Index) WriteBlock(ctx context.Context, ev core.ChainEvent) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	failed := 0
	for _, r := range ev.Receipts {
		if r.Failed() {
			failed++
		}
	}
	block := ev.Block
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO blocks(number,hash,time,txs,failed) VALUES(?,?,?,?,?)`,
		int64(block.NumberU64()), block.Hash().Hex(), int64(block.Time()), len(block.Transactions()), failed,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE block_number = ?`, int64(block.NumberU64())); err != nil {
		return err
	}
	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO events(block_number,log_index,block_time,tx_hash,facility,name,owner,token_id,fields) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, l := range ev.Logs {
		de, err := sysaction.DecodeLog(l)
		if err != nil {
			log.Debug("Skipping undecodable log", "block", l.BlockNumber, "index", l.Index, "err", err)
			continue
		}
		var tokenID interface{}
		if de.TokenID != nil {
			tokenID = int64(*de.TokenID)
		}
		if _, err := insert.ExecContext(ctx,
			int64(de.BlockNumber), int64(de.Index), int64(de.BlockTime), de.TxHash.Hex(),
			de.Facility.Hex(), de.Name, de.Owner.Hex(), tokenID, string(de.Fields),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Backfill indexes every canonical block above the last indexed one, up to
// the current head. It returns the number of blocks written.
func (idx *Index) Backfill(ctx context.Context, chain History) (int, error) {
	from := uint64(0)
	if last, ok, err := idx.LastBlock(ctx); err != nil {
		return 0, err
	} else if ok {
		from = last + 1
	}
	head := chain.CurrentBlock().NumberU64()
	written := 0
	for n := from; n <= head; n++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		block := chain.GetBlockByNumber(n)
		if block == nil {
			return written, fmt.Errorf("missing block %d", n)
		}
		receipts := chain.GetReceiptsByHash(block.Hash())
		var logs []*types.Log
		for _, r := range receipts {
			logs = append(logs, r.Logs...)
		}
		ev := core.ChainEvent{Block: block, Hash: block.Hash(), Receipts: receipts, Logs: logs}
		if err := idx.WriteBlock(ctx, ev); err != nil {
			return written, err
		}
		written++
	}
	if written > 0 {
		log.Info("Backfilled event index", "from", from, "head", head, "blocks", written)
	}
	return written, nil
}

// LastBlock returns the highest indexed block number.
func (idx *Index) LastBlock(ctx context.Context) (uint64, bool, error) {
	var n sql.NullInt64
	if err := idx.db.QueryRowContext(ctx, `SELECT MAX(number) FROM blocks`).Scan(&n); err != nil {
		return 0, false, err
	}
	if !n.Valid {
		return 0, false, nil
	}
	return uint64(n.Int64), true, nil
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Name      string
	Owner     *common.Address
	TokenID   *uint64
	FromBlock uint64
	ToBlock   uint64 // inclusive; 0 means no upper bound
	Limit     int
}

var errBadRange = errors.New("fromBlock after toBlock")

// Events returns the events matching f in chain order.
func (idx *Index) Events(ctx context.Context, f Filter) ([]*sysaction.DecodedEvent, error) {
	if f.ToBlock != 0 && f.FromBlock > f.ToBlock {
		return nil, errBadRange
	}
	var (
		where = []string{"block_number >= ?"}
		args  = []interface{}{int64(f.FromBlock)}
	)
	if f.ToBlock != 0 {
		where = append(where, "block_number <= ?")
		args = append(args, int64(f.ToBlock))
	}
	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}
	if f.Owner != nil {
		where = append(where, "owner = ?")
		args = append(args, f.Owner.Hex())
	}
	if f.TokenID != nil {
		where = append(where, "token_id = ?")
		args = append(args, int64(*f.TokenID))
	}
	query := `SELECT block_number,log_index,block_time,tx_hash,facility,name,owner,token_id,fields FROM events WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY block_number, log_index`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sysaction.DecodedEvent
	for rows.Next() {
		var (
			number, index, time int64
			txHash, facility    string
			name, owner, fields string
			tokenID             sql.NullInt64
		)
		if err := rows.Scan(&number, &index, &time, &txHash, &facility, &name, &owner, &tokenID, &fields); err != nil {
			return nil, err
		}
		ev := &sysaction.DecodedEvent{
			Name:        name,
			Facility:    common.HexToAddress(facility),
			Owner:       common.HexToAddress(owner),
			Fields:      []byte(fields),
			BlockNumber: uint64(number),
			BlockTime:   uint64(time),
			TxHash:      common.HexToHash(txHash),
			Index:       uint(index),
		}
		if tokenID.Valid {
			id := uint64(tokenID.Int64)
			ev.TokenID = &id
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
