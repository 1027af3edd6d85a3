package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/sysaction"
	"github.com/smolage/gbones/yard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0xad")
	alice = common.HexToAddress("0xa1")
)

const genesisTime = uint64(1_000_000)

func testGenesis() *Genesis {
	eco := params.DefaultEconomy()
	eco.Admin = admin
	eco.Yard.MinimumThreshold = params.BoneUnits(1000)
	return &Genesis{
		Config:    &params.ChainConfig{ChainID: 1, Economy: eco},
		Timestamp: genesisTime,
		Alloc: GenesisAlloc{
			admin: {Bones: params.BoneUnits(10_000)},
			alice: {
				Bones:    params.BoneUnits(500),
				Smols:    []uint64{100, 50},
				Animals:  1,
				Supplies: map[uint64]uint64{1: 3},
			},
		},
	}
}

func action(t *testing.T, from common.Address, nonce uint64, kind sysaction.ActionKind, payload interface{}) *types.Transaction {
	t.Helper()
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(t, err)
	return types.NewTransaction(from, nonce, data)
}

func newTestChain(t *testing.T) *BlockChain {
	t.Helper()
	bc, err := NewBlockChain(rawdb.NewMemoryDatabase(), nil, testGenesis(), nil)
	require.NoError(t, err)
	t.Cleanup(bc.Stop)
	return bc
}

func TestSetupGenesis(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	cfg, hash, err := SetupGenesisBlock(db, nil)
	require.NoError(t, err)
	assert.Equal(t, params.DefaultChainConfig.ChainID, cfg.ChainID)

	// stored genesis is reused
	cfg2, hash2, err := SetupGenesisBlock(db, nil)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, cfg.Economy.Yard.MinimumThreshold, cfg2.Economy.Yard.MinimumThreshold)

	_, _, err = SetupGenesisBlock(db, testGenesis())
	var mismatch *GenesisMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, hash, mismatch.Stored)

	_, _, err = SetupGenesisBlock(rawdb.NewMemoryDatabase(), &Genesis{})
	assert.Equal(t, errGenesisNoConfig, err)
}

func TestGenesisToBlockMatchesCommit(t *testing.T) {
	g := testGenesis()
	block, err := g.ToBlock()
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), g.MustCommit(rawdb.NewMemoryDatabase()).Hash())
	assert.Equal(t, genesisTime, block.Time())
}

func TestGenesisAlloc(t *testing.T) {
	bc := newTestChain(t)
	assert.Equal(t, uint64(0), bc.CurrentBlock().NumberU64())
	assert.Equal(t, bc.Genesis().Hash(), bc.CurrentBlock().Hash())

	l := bc.Economy().Ledgers
	require.NoError(t, bc.View(func(db vm.StateDB, head *types.Header) error {
		assert.Equal(t, params.BoneUnits(10_500), l.Bones.TotalSupply(db))
		assert.Equal(t, params.BoneUnits(500), l.Bones.BalanceOf(db, alice))
		assert.Equal(t, []uint64{1, 2}, l.Smols.TokensOf(db, alice))
		assert.Equal(t, uint64(50), l.Smols.CommonSense(db, 2))
		assert.Equal(t, alice, l.Animals.OwnerOf(db, 1))
		assert.Equal(t, uint64(3), l.Supplies.BalanceOf(db, alice, 1))
		assert.False(t, bc.Economy().Yard.IsOn(db))
		since, off := bc.Economy().Yard.OffSince(db)
		assert.True(t, off)
		assert.Equal(t, genesisTime, since)
		return nil
	}))
}

func TestInsertBlock(t *testing.T) {
	bc := newTestChain(t)
	events := make(chan ChainEvent, 1)
	sub := bc.SubscribeChainEvent(events)
	defer sub.Unsubscribe()

	txs := types.Transactions{
		action(t, admin, 0, sysaction.ActionYardStake, sysaction.AmountPayload{Amount: params.BoneUnits(1000).String()}),
		action(t, alice, 0, sysaction.ActionBonesTransfer, sysaction.TransferPayload{To: admin.Hex(), Amount: params.BoneUnits(501).String()}),
		action(t, alice, 1, sysaction.ActionDevEnter, sysaction.DevEnterPayload{
			TokenIDs: []uint64{1}, LockPeriods: []uint64{50 * params.Day}, Grounds: []uint8{0},
		}),
	}
	block, receipts, err := bc.InsertBlock(txs, genesisTime+params.Day)
	require.NoError(t, err)
	require.Len(t, receipts, 3)

	assert.Equal(t, uint64(1), block.NumberU64())
	assert.Equal(t, bc.Genesis().Hash(), block.ParentHash())
	assert.Equal(t, block.Hash(), bc.CurrentBlock().Hash())

	// yard stake, then the yard opens
	assert.False(t, receipts[0].Failed())
	require.Len(t, receipts[0].Logs, 2)
	// transfer beyond balance is reverted
	assert.True(t, receipts[1].Failed())
	assert.Equal(t, "BalanceIsInsufficient", receipts[1].Err)
	assert.Empty(t, receipts[1].Logs)
	// entered once the yard is on
	assert.False(t, receipts[2].Failed())
	require.Len(t, receipts[2].Logs, 1)

	for i, r := range receipts {
		assert.Equal(t, block.Hash(), r.BlockHash)
		assert.Equal(t, txs[i].Hash(), r.TxHash)
		assert.Equal(t, uint(i), r.TransactionIndex)
	}
	assert.Equal(t, uint(2), receipts[2].Logs[0].Index)
	assert.Equal(t, block.Time(), receipts[2].Logs[0].BlockTime)

	assert.Equal(t, uint64(1), bc.NonceAt(admin))
	assert.Equal(t, uint64(2), bc.NonceAt(alice))
	l := bc.Economy().Ledgers
	require.NoError(t, bc.View(func(db vm.StateDB, head *types.Header) error {
		assert.Equal(t, block.Hash(), head.Hash())
		assert.Equal(t, params.BoneUnits(500), l.Bones.BalanceOf(db, alice))
		assert.Equal(t, stakelock.Development, stakelock.FacilityOf(db, 1))
		return nil
	}))

	ev := <-events
	assert.Equal(t, block.Hash(), ev.Hash)
	assert.Len(t, ev.Logs, 3)
}

func TestInsertBlockRejects(t *testing.T) {
	bc := newTestChain(t)
	head := bc.CurrentBlock().Hash()

	_, _, err := bc.InsertBlock(nil, genesisTime-1)
	assert.Equal(t, ErrBlockTimeTooOld, err)

	_, _, err = bc.InsertBlock(types.Transactions{
		action(t, alice, 1, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{1}}),
	}, genesisTime)
	assert.ErrorIs(t, err, ErrNonceTooHigh)

	_, _, err = bc.InsertBlock(types.Transactions{types.NewTransaction(alice, 0, nil)}, genesisTime)
	assert.ErrorIs(t, err, ErrEmptyAction)

	assert.Equal(t, head, bc.CurrentBlock().Hash())
	assert.Equal(t, uint64(0), bc.NonceAt(alice))

	// the gate holds while the yard is closed
	_, receipts, err := bc.InsertBlock(types.Transactions{
		action(t, alice, 0, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{1}}),
	}, genesisTime)
	require.NoError(t, err)
	assert.Equal(t, yard.ErrDevelopmentGroundIsLocked.Error(), receipts[0].Err)

	_, _, err = bc.InsertBlock(types.Transactions{
		action(t, alice, 0, sysaction.ActionCavesEnter, sysaction.TokenIDsPayload{TokenIDs: []uint64{1}}),
	}, genesisTime)
	assert.ErrorIs(t, err, ErrNonceTooLow)
}

func TestChainReload(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	bc, err := NewBlockChain(db, nil, testGenesis(), nil)
	require.NoError(t, err)
	block, _, err := bc.InsertBlock(types.Transactions{
		action(t, alice, 0, sysaction.ActionBonesTransfer, sysaction.TransferPayload{To: admin.Hex(), Amount: "1"}),
	}, genesisTime+10)
	require.NoError(t, err)
	bc.Stop()
	_, _, err = bc.InsertBlock(nil, genesisTime+20)
	assert.Equal(t, errChainStopped, err)

	reloaded, err := NewBlockChain(db, nil, nil, nil)
	require.NoError(t, err)
	defer reloaded.Stop()
	assert.Equal(t, block.Hash(), reloaded.CurrentBlock().Hash())
	assert.Equal(t, uint64(1), reloaded.NonceAt(alice))
	assert.Equal(t, admin, reloaded.Config().Economy.Admin)

	receipts := reloaded.GetReceiptsByHash(block.Hash())
	require.Len(t, receipts, 1)
	assert.False(t, receipts[0].Failed())
	assert.Equal(t, block.Hash(), reloaded.GetBlockByNumber(1).Hash())
	assert.Equal(t, block.Hash(), reloaded.GetHeaderByNumber(1).Hash())
	assert.Nil(t, reloaded.GetBlockByNumber(2))

	want := new(big.Int).Sub(params.BoneUnits(500), big.NewInt(1))
	statedb, err := reloaded.State()
	require.NoError(t, err)
	assert.Equal(t, want, reloaded.Economy().Ledgers.Bones.BalanceOf(statedb, alice))

	_, err = reloaded.StateAt(common.Hash{1})
	assert.Equal(t, ErrStateUnavailable, err)
}
