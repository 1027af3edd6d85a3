package stakeidx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/sysaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
)

const t0 = uint64(1_000_000)

func newTestChain(t *testing.T) *core.BlockChain {
	t.Helper()
	eco := params.DefaultEconomy()
	eco.Yard.MinimumThreshold = params.BoneUnits(1000)
	genesis := &core.Genesis{
		Config:    &params.ChainConfig{ChainID: 1, Economy: eco},
		Timestamp: t0,
		Alloc: core.GenesisAlloc{
			alice: {Bones: params.BoneUnits(2000), Smols: []uint64{10, 20}},
			bob:   {Bones: params.BoneUnits(10)},
		},
	}
	bc, err := core.NewBlockChain(rawdb.NewMemoryDatabase(), nil, genesis, nil)
	require.NoError(t, err)
	t.Cleanup(bc.Stop)
	return bc
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "idx", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func tx(t *testing.T, from common.Address, nonce uint64, kind sysaction.ActionKind, payload interface{}) *types.Transaction {
	t.Helper()
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(t, err)
	return types.NewTransaction(from, nonce, data)
}

func TestWriteAndQuery(t *testing.T) {
	bc := newTestChain(t)
	idx := openTestIndex(t)
	ctx := context.Background()

	events := make(chan core.ChainEvent, 1)
	sub := bc.SubscribeChainEvent(events)
	defer sub.Unsubscribe()

	_, _, err := bc.InsertBlock(types.Transactions{
		tx(t, alice, 0, sysaction.ActionYardStake, sysaction.AmountPayload{Amount: params.BoneUnits(1000).String()}),
		tx(t, alice, 1, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{1, 2}}),
		tx(t, bob, 0, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{1}}),
	}, t0)
	require.NoError(t, err)
	ev := <-events
	require.NoError(t, idx.WriteBlock(ctx, ev))
	// re-indexing replaces the block's rows
	require.NoError(t, idx.WriteBlock(ctx, ev))

	last, ok, err := idx.LastBlock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), last)

	all, err := idx.Events(ctx, Filter{})
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"YardStake", "YardOn", "EnterCaves", "EnterCaves"}, names)

	one := uint64(1)
	byToken, err := idx.Events(ctx, Filter{Name: "EnterCaves", TokenID: &one})
	require.NoError(t, err)
	require.Len(t, byToken, 1)
	assert.Equal(t, alice, byToken[0].Owner)
	assert.Equal(t, params.CavesAddress, byToken[0].Facility)
	assert.Equal(t, ev.Receipts[1].TxHash, byToken[0].TxHash)
	assert.Equal(t, t0, byToken[0].BlockTime)

	byOwner, err := idx.Events(ctx, Filter{Owner: &bob})
	require.NoError(t, err)
	assert.Empty(t, byOwner)

	limited, err := idx.Events(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := idx.Events(ctx, Filter{FromBlock: 2})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = idx.Events(ctx, Filter{FromBlock: 3, ToBlock: 2})
	assert.Equal(t, errBadRange, err)
}

func TestIndexFollowsChain(t *testing.T) {
	bc := newTestChain(t)
	idx := openTestIndex(t)
	ctx := context.Background()

	_, ok, err := idx.LastBlock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	idx.Start(bc)
	// the subscription is registered asynchronously
	require.Eventually(t, func() bool {
		if _, _, err := bc.InsertBlock(nil, t0); err != nil {
			return false
		}
		_, ok, _ := idx.LastBlock(ctx)
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	head := bc.CurrentBlock().NumberU64()
	_, _, err = bc.InsertBlock(types.Transactions{
		tx(t, alice, 0, sysaction.ActionBonesTransfer, sysaction.TransferPayload{To: bob.Hex(), Amount: "1"}),
	}, t0+1)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		last, _, _ := idx.LastBlock(ctx)
		return last == head+1
	}, 5*time.Second, 20*time.Millisecond)

	got, err := idx.Events(ctx, Filter{Name: "BonesTransfer", Owner: &alice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"to":"`+bob.Hex()+`","amount":"1"}`, string(got[0].Fields))
}

func TestBackfill(t *testing.T) {
	bc := newTestChain(t)
	idx := openTestIndex(t)
	ctx := context.Background()

	_, _, err := bc.InsertBlock(types.Transactions{
		tx(t, alice, 0, sysaction.ActionBonesTransfer, sysaction.TransferPayload{To: bob.Hex(), Amount: "5"}),
	}, t0)
	require.NoError(t, err)
	_, _, err = bc.InsertBlock(types.Transactions{
		tx(t, alice, 1, sysaction.ActionYardStake, sysaction.AmountPayload{Amount: params.BoneUnits(1000).String()}),
	}, t0+1)
	require.NoError(t, err)

	// genesis plus two blocks
	n, err := idx.Backfill(ctx, bc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = idx.Backfill(ctx, bc)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := idx.Events(ctx, Filter{Owner: &alice})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BonesTransfer", got[0].Name)
	assert.Equal(t, uint64(1), got[0].BlockNumber)
	assert.Equal(t, "YardStake", got[1].Name)
	assert.Equal(t, uint64(2), got[1].BlockNumber)
}

func TestExportArchive(t *testing.T) {
	bc := newTestChain(t)
	idx := openTestIndex(t)
	ctx := context.Background()

	_, _, err := bc.InsertBlock(types.Transactions{
		tx(t, alice, 0, sysaction.ActionYardStake, sysaction.AmountPayload{Amount: params.BoneUnits(1000).String()}),
		tx(t, alice, 1, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{2}}),
	}, t0)
	require.NoError(t, err)
	_, err = idx.Backfill(ctx, bc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export", "events.jsonl.zst")
	n, err := idx.Export(ctx, path, Filter{Owner: &alice})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := idx.Events(ctx, Filter{Owner: &alice})
	require.NoError(t, err)
	got, err := ReadArchive(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].TxHash, got[i].TxHash)
		assert.Equal(t, want[i].TokenID, got[i].TokenID)
		assert.Equal(t, want[i].BlockTime, got[i].BlockTime)
		assert.JSONEq(t, string(want[i].Fields), string(got[i].Fields))
	}
	assert.Equal(t, uint64(2), *got[1].TokenID)

	_, err = idx.Export(ctx, path, Filter{FromBlock: 2, ToBlock: 1})
	assert.Equal(t, errBadRange, err)
}
