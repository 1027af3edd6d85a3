package rawdb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
)

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db bonesdb.KeyValueReader, number uint64) common.Hash {
	data, _ := db.Get(headerHashKey(number))
	return common.BytesToHash(data)
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db bonesdb.KeyValueWriter, hash common.Hash, number uint64) {
	if err := db.Put(headerHashKey(number), hash.Bytes()); err != nil {
		log.Crit("Failed to store number to hash mapping", "err", err)
	}
}

// ReadHeaderNumber returns the header number assigned to a hash.
func ReadHeaderNumber(db bonesdb.KeyValueReader, hash common.Hash) *uint64 {
	data, _ := db.Get(headerNumberKey(hash))
	if len(data) != 8 {
		return nil
	}
	number := binary.BigEndian.Uint64(data)
	return &number
}

// ReadHeadBlockHash retrieves the hash of the current canonical head block.
func ReadHeadBlockHash(db bonesdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headBlockKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadBlockHash stores the head block's hash.
func WriteHeadBlockHash(db bonesdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(headBlockKey, hash.Bytes()); err != nil {
		log.Crit("Failed to store last block's hash", "err", err)
	}
}

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db bonesdb.KeyValueReader) *uint64 {
	data, _ := db.Get(databaseVersionKey)
	if len(data) != 8 {
		return nil
	}
	version := binary.BigEndian.Uint64(data)
	return &version
}

// WriteDatabaseVersion stores the version number of the database
func WriteDatabaseVersion(db bonesdb.KeyValueWriter, version uint64) {
	if err := db.Put(databaseVersionKey, encodeBlockNumber(version)); err != nil {
		log.Crit("Failed to store the database version", "err", err)
	}
}

// ReadChainConfig retrieves the consensus settings based on the given genesis hash.
func ReadChainConfig(db bonesdb.KeyValueReader) *params.ChainConfig {
	data, _ := db.Get(chainConfigKey)
	if len(data) == 0 {
		return nil
	}
	var config params.ChainConfig
	if err := json.Unmarshal(data, &config); err != nil {
		log.Error("Invalid chain config JSON", "err", err)
		return nil
	}
	return &config
}

// WriteChainConfig writes the chain config settings to the database.
func WriteChainConfig(db bonesdb.KeyValueWriter, cfg *params.ChainConfig) {
	if cfg == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		log.Crit("Failed to JSON encode chain config", "err", err)
	}
	if err := db.Put(chainConfigKey, data); err != nil {
		log.Crit("Failed to store chain config", "err", err)
	}
}

// ReadHeader retrieves the block header corresponding to the hash.
func ReadHeader(db bonesdb.KeyValueReader, hash common.Hash, number uint64) *types.Header {
	data, _ := db.Get(headerKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	header := new(types.Header)
	if err := json.Unmarshal(data, header); err != nil {
		log.Error("Invalid block header JSON", "hash", hash, "err", err)
		return nil
	}
	return header
}

// WriteHeader stores a block header into the database and also stores the hash-
// to-number mapping.
func WriteHeader(db bonesdb.KeyValueWriter, header *types.Header) {
	var (
		hash   = header.Hash()
		number = header.Number
	)
	if err := db.Put(headerNumberKey(hash), encodeBlockNumber(number)); err != nil {
		log.Crit("Failed to store hash to number mapping", "err", err)
	}
	data, err := json.Marshal(header)
	if err != nil {
		log.Crit("Failed to JSON encode header", "err", err)
	}
	if err := db.Put(headerKey(number, hash), data); err != nil {
		log.Crit("Failed to store header", "err", err)
	}
}

// ReadBody retrieves the block body corresponding to the hash.
func ReadBody(db bonesdb.KeyValueReader, hash common.Hash, number uint64) *types.Body {
	data, _ := db.Get(blockBodyKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	body := new(types.Body)
	if err := json.Unmarshal(data, body); err != nil {
		log.Error("Invalid block body JSON", "hash", hash, "err", err)
		return nil
	}
	return body
}

// WriteBody stores a block body into the database.
func WriteBody(db bonesdb.KeyValueWriter, hash common.Hash, number uint64, body *types.Body) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Crit("Failed to JSON encode body", "err", err)
	}
	if err := db.Put(blockBodyKey(number, hash), data); err != nil {
		log.Crit("Failed to store block body", "err", err)
	}
}

// ReadReceipts retrieves all the transaction receipts belonging to a block.
// Receipts are stored snappy-compressed.
func ReadReceipts(db bonesdb.KeyValueReader, hash common.Hash, number uint64) types.Receipts {
	data, _ := db.Get(blockReceiptsKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	blob, err := snappy.Decode(nil, data)
	if err != nil {
		log.Error("Invalid receipt array encoding", "hash", hash, "err", err)
		return nil
	}
	var receipts types.Receipts
	if err := json.Unmarshal(blob, &receipts); err != nil {
		log.Error("Invalid receipt array JSON", "hash", hash, "err", err)
		return nil
	}
	return receipts
}

// WriteReceipts stores all the transaction receipts belonging to a block.
func WriteReceipts(db bonesdb.KeyValueWriter, hash common.Hash, number uint64, receipts types.Receipts) {
	blob, err := json.Marshal(receipts)
	if err != nil {
		log.Crit("Failed to encode block receipts", "err", err)
	}
	if err := db.Put(blockReceiptsKey(number, hash), snappy.Encode(nil, blob)); err != nil {
		log.Crit("Failed to store block receipts", "err", err)
	}
}

// ReadBlock retrieves an entire block corresponding to the hash, assembling it
// back from the stored header and body. If either the header or body could not
// be retrieved nil is returned.
func ReadBlock(db bonesdb.KeyValueReader, hash common.Hash, number uint64) *types.Block {
	header := ReadHeader(db, hash, number)
	if header == nil {
		return nil
	}
	body := ReadBody(db, hash, number)
	if body == nil {
		return nil
	}
	return types.NewBlockWithHeader(header).WithBody(body.Transactions)
}

// WriteBlock serializes a block into the database, header and body separately.
func WriteBlock(db bonesdb.KeyValueWriter, block *types.Block) {
	WriteBody(db, block.Hash(), block.NumberU64(), &types.Body{Transactions: block.Transactions()})
	WriteHeader(db, block.Header())
}
