package rawdb

import (
	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/bonesdb/leveldb"
	"github.com/smolage/gbones/bonesdb/memorydb"
)

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase() bonesdb.KeyValueStore {
	return memorydb.New()
}

// NewLevelDBDatabase creates a persistent key-value database backed by LevelDB.
func NewLevelDBDatabase(file string, cache int, handles int, namespace string, readonly bool) (bonesdb.KeyValueStore, error) {
	db, err := leveldb.New(file, cache, handles, namespace, readonly)
	if err != nil {
		return nil, err
	}
	return db, nil
}
