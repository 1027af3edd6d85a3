package rawdb

import (
	"encoding/json"
	"testing"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/params"
	"github.com/stretchr/testify/require"
)

func TestHeaderStorage(t *testing.T) {
	db := NewMemoryDatabase()

	header := &types.Header{Number: 42, Time: 1000, Root: common.Hash{1}}
	if entry := ReadHeader(db, header.Hash(), header.Number); entry != nil {
		t.Fatalf("Non existent header returned: %v", entry)
	}
	WriteHeader(db, header)
	entry := ReadHeader(db, header.Hash(), header.Number)
	require.NotNil(t, entry)
	require.Equal(t, header.Hash(), entry.Hash())

	number := ReadHeaderNumber(db, header.Hash())
	require.NotNil(t, number)
	require.Equal(t, uint64(42), *number)
}

func TestBlockStorage(t *testing.T) {
	db := NewMemoryDatabase()

	txs := []*types.Transaction{types.NewTransaction(common.Address{1}, 0, []byte(`{"action":"YARD_STAKE"}`))}
	block := types.NewBlock(&types.Header{Number: 1, Time: 10}, txs)
	WriteBlock(db, block)
	WriteCanonicalHash(db, block.Hash(), 1)
	WriteHeadBlockHash(db, block.Hash())

	require.Equal(t, block.Hash(), ReadCanonicalHash(db, 1))
	require.Equal(t, block.Hash(), ReadHeadBlockHash(db))

	entry := ReadBlock(db, block.Hash(), 1)
	require.NotNil(t, entry)
	require.Equal(t, block.Hash(), entry.Hash())
	require.Len(t, entry.Transactions(), 1)
	require.Equal(t, txs[0].Hash(), entry.Transactions()[0].Hash())
}

func TestReceiptStorage(t *testing.T) {
	db := NewMemoryDatabase()
	hash := common.Hash{0xbb}

	receipts := types.Receipts{
		{Status: types.ReceiptStatusFailed, Err: "NotYourToken"},
		{Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{{Address: common.Address{3}, Data: json.RawMessage(`{"a":1}`)}}},
	}
	require.Nil(t, ReadReceipts(db, hash, 0))
	WriteReceipts(db, hash, 0, receipts)

	have := ReadReceipts(db, hash, 0)
	require.Len(t, have, 2)
	require.Equal(t, "NotYourToken", have[0].Err)
	require.True(t, have[0].Failed())
	require.Equal(t, common.Address{3}, have[1].Logs[0].Address)
}

func TestStorageAndNonce(t *testing.T) {
	db := NewMemoryDatabase()
	addr, slot := common.Address{7}, common.Hash{8}

	require.Equal(t, common.Hash{}, ReadStorage(db, addr, slot))
	WriteStorage(db, addr, slot, common.Hash{31: 5})
	require.Equal(t, common.Hash{31: 5}, ReadStorage(db, addr, slot))

	// zero deletes
	WriteStorage(db, addr, slot, common.Hash{})
	has, err := db.Has(storageKey(addr, slot))
	require.NoError(t, err)
	require.False(t, has)

	WriteNonce(db, addr, 3)
	require.Equal(t, uint64(3), ReadNonce(db, addr))
}

func TestChainConfigStorage(t *testing.T) {
	db := NewMemoryDatabase()
	require.Nil(t, ReadChainConfig(db))

	WriteChainConfig(db, params.TestChainConfig)
	cfg := ReadChainConfig(db)
	require.NotNil(t, cfg)
	require.Equal(t, params.TestChainConfig.ChainID, cfg.ChainID)
	require.Equal(t, 0, cfg.Economy.Yard.MinimumThreshold.Cmp(params.TestChainConfig.Economy.Yard.MinimumThreshold))
}
