package state

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
)

// defaultCleanCacheMB is the size of the clean slot cache when none is given.
const defaultCleanCacheMB = 16

// Database wraps access to the flat storage of the system addresses. Only the
// state of the most recently committed block is retained.
type Database struct {
	disk  bonesdb.KeyValueStore
	clean *fastcache.Cache
}

// NewDatabase creates a backing store for state with the default clean cache.
func NewDatabase(db bonesdb.KeyValueStore) *Database {
	return NewDatabaseWithCache(db, defaultCleanCacheMB)
}

// NewDatabaseWithCache creates a backing store for state with a clean slot
// cache of the given size in megabytes.
func NewDatabaseWithCache(db bonesdb.KeyValueStore, cacheMB int) *Database {
	if cacheMB <= 0 {
		cacheMB = defaultCleanCacheMB
	}
	return &Database{
		disk:  db,
		clean: fastcache.New(cacheMB * 1024 * 1024),
	}
}

// DiskDB returns the underlying key-value store.
func (db *Database) DiskDB() bonesdb.KeyValueStore {
	return db.disk
}

func cacheKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, common.AddressLength+common.HashLength)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// readStorage resolves a committed slot, consulting the clean cache first.
func (db *Database) readStorage(addr common.Address, slot common.Hash) common.Hash {
	key := cacheKey(addr, slot)
	if blob, found := db.clean.HasGet(nil, key); found {
		return common.BytesToHash(blob)
	}
	value := rawdb.ReadStorage(db.disk, addr, slot)
	db.clean.Set(key, value.Bytes())
	return value
}

// writeStorage queues a committed slot into batch and refreshes the cache.
func (db *Database) writeStorage(batch bonesdb.KeyValueWriter, addr common.Address, slot, value common.Hash) {
	rawdb.WriteStorage(batch, addr, slot, value)
	db.clean.Set(cacheKey(addr, slot), value.Bytes())
}

// CacheStats returns the clean cache statistics.
func (db *Database) CacheStats() fastcache.Stats {
	var s fastcache.Stats
	db.clean.UpdateStats(&s)
	return s
}
