package rawdb

import (
	"encoding/binary"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/log"
)

// ReadStorage retrieves a storage slot of the given system address. Missing
// slots read as the zero hash.
func ReadStorage(db bonesdb.KeyValueReader, addr common.Address, slot common.Hash) common.Hash {
	data, _ := db.Get(storageKey(addr, slot))
	return common.BytesToHash(data)
}

// WriteStorage stores a storage slot. Zero values delete the slot.
func WriteStorage(db bonesdb.KeyValueWriter, addr common.Address, slot, value common.Hash) {
	if value == (common.Hash{}) {
		if err := db.Delete(storageKey(addr, slot)); err != nil {
			log.Crit("Failed to delete storage slot", "err", err)
		}
		return
	}
	if err := db.Put(storageKey(addr, slot), value.Bytes()); err != nil {
		log.Crit("Failed to store storage slot", "err", err)
	}
}

// ReadNonce retrieves the transaction count of an account.
func ReadNonce(db bonesdb.KeyValueReader, addr common.Address) uint64 {
	data, _ := db.Get(nonceKey(addr))
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// WriteNonce stores the transaction count of an account.
func WriteNonce(db bonesdb.KeyValueWriter, addr common.Address, nonce uint64) {
	if err := db.Put(nonceKey(addr), encodeBlockNumber(nonce)); err != nil {
		log.Crit("Failed to store account nonce", "err", err)
	}
}
