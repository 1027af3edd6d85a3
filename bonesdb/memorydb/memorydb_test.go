package memorydb

import (
	"testing"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/bonesdb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() bonesdb.KeyValueStore {
			return New()
		})
	})
}
