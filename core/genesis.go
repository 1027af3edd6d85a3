package core

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/economy"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
)

var errGenesisNoConfig = errors.New("genesis has no chain configuration")

// Genesis specifies the header fields and initial holdings of a genesis block.
type Genesis struct {
	Config    *params.ChainConfig `json:"config"`
	Timestamp uint64              `json:"timestamp"`
	Alloc     GenesisAlloc        `json:"alloc"`
}

// GenesisAlloc specifies the initial holdings that are part of the genesis
// block.
type GenesisAlloc map[common.Address]GenesisAccount

// GenesisAccount is the initial holding of an account.
type GenesisAccount struct {
	Bones    *big.Int          `json:"bones,omitempty"`
	Smols    []uint64          `json:"smols,omitempty"` // common sense of each creature
	Animals  uint64            `json:"animals,omitempty"`
	Supplies map[uint64]uint64 `json:"supplies,omitempty"` // supply id -> amount
}

// GenesisMismatchError is raised when trying to overwrite an existing
// genesis block with an incompatible one.
type GenesisMismatchError struct {
	Stored, New common.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("database contains incompatible genesis (have %x, new %x)", e.Stored, e.New)
}

// SetupGenesisBlock writes or updates the genesis block in db.
//
//	                     genesis == nil       genesis != nil
//	                  +------------------------------------------
//	db has no genesis |  main-net default  |  genesis
//	db has genesis    |  from DB           |  genesis (if compatible)
//
// The stored chain configuration is returned.
func SetupGenesisBlock(db bonesdb.KeyValueStore, genesis *Genesis) (*params.ChainConfig, common.Hash, error) {
	if genesis != nil && genesis.Config == nil {
		return nil, common.Hash{}, errGenesisNoConfig
	}
	stored := rawdb.ReadCanonicalHash(db, 0)
	if (stored == common.Hash{}) {
		if genesis == nil {
			log.Info("Writing default genesis block")
			genesis = DefaultGenesisBlock()
		} else {
			log.Info("Writing custom genesis block")
		}
		block, err := genesis.Commit(db)
		if err != nil {
			return nil, common.Hash{}, err
		}
		return genesis.Config, block.Hash(), nil
	}
	if genesis != nil {
		block, err := genesis.ToBlock()
		if err != nil {
			return nil, common.Hash{}, err
		}
		if hash := block.Hash(); hash != stored {
			return genesis.Config, hash, &GenesisMismatchError{stored, hash}
		}
	}
	cfg := rawdb.ReadChainConfig(db)
	if cfg == nil {
		return nil, stored, ErrNoGenesis
	}
	return cfg, stored, nil
}

func (g *Genesis) configOrDefault() *params.ChainConfig {
	if g.Config != nil {
		return g.Config
	}
	return params.DefaultChainConfig
}

// apply builds the genesis state into statedb.
func (g *Genesis) apply(statedb *state.StateDB) error {
	cfg := g.configOrDefault()
	eco, err := economy.New(cfg.Economy, nil)
	if err != nil {
		return err
	}
	eco.Init(statedb, g.Timestamp)

	addrs := make([]common.Address, 0, len(g.Alloc))
	for addr := range g.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	l := eco.Ledgers
	for _, addr := range addrs {
		account := g.Alloc[addr]
		if account.Bones != nil && account.Bones.Sign() > 0 {
			if err := l.Bones.Mint(statedb, addr, account.Bones); err != nil {
				return fmt.Errorf("alloc %s: %w", addr.Hex(), err)
			}
		}
		for _, cs := range account.Smols {
			if _, err := l.Smols.Mint(statedb, addr, cs); err != nil {
				return fmt.Errorf("alloc %s: %w", addr.Hex(), err)
			}
		}
		for i := uint64(0); i < account.Animals; i++ {
			if _, err := l.Animals.Mint(statedb, addr); err != nil {
				return fmt.Errorf("alloc %s: %w", addr.Hex(), err)
			}
		}
		ids := make([]uint64, 0, len(account.Supplies))
		for id := range account.Supplies {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			if err := l.Supplies.Mint(statedb, params.SuppliesAddress, addr, id, account.Supplies[id]); err != nil {
				return fmt.Errorf("alloc %s supply %d: %w", addr.Hex(), id, err)
			}
		}
	}
	return nil
}

func (g *Genesis) header(root common.Hash) *types.Header {
	return &types.Header{
		Number: 0,
		Time:   g.Timestamp,
		Root:   root,
	}
}

// ToBlock returns the genesis block without writing anything.
func (g *Genesis) ToBlock() (*types.Block, error) {
	statedb, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()))
	if err != nil {
		return nil, err
	}
	if err := g.apply(statedb); err != nil {
		return nil, err
	}
	return types.NewBlock(g.header(statedb.IntermediateRoot()), nil), nil
}

// Commit writes the block and state of a genesis specification to the database.
// The block is committed as the canonical head block.
func (g *Genesis) Commit(db bonesdb.KeyValueStore) (*types.Block, error) {
	statedb, err := state.New(common.Hash{}, state.NewDatabase(db))
	if err != nil {
		return nil, err
	}
	if err := g.apply(statedb); err != nil {
		return nil, err
	}
	batch := db.NewBatch()
	root := statedb.Commit(batch)
	block := types.NewBlock(g.header(root), nil)

	rawdb.WriteBlock(batch, block)
	rawdb.WriteReceipts(batch, block.Hash(), block.NumberU64(), nil)
	rawdb.WriteCanonicalHash(batch, block.Hash(), block.NumberU64())
	rawdb.WriteHeadBlockHash(batch, block.Hash())
	rawdb.WriteChainConfig(batch, g.configOrDefault())
	if err := batch.Write(); err != nil {
		return nil, err
	}
	return block, nil
}

// MustCommit writes the genesis block and state to db, panicking on error.
// The block is committed as the canonical head block.
func (g *Genesis) MustCommit(db bonesdb.KeyValueStore) *types.Block {
	block, err := g.Commit(db)
	if err != nil {
		panic(err)
	}
	return block
}

// DefaultGenesisBlock returns the genesis of a local chain with the default
// economy and no holdings.
func DefaultGenesisBlock() *Genesis {
	return &Genesis{
		Config: &params.ChainConfig{ChainID: params.DefaultChainConfig.ChainID, Economy: params.DefaultEconomy()},
	}
}

// DeveloperGenesisBlock returns the genesis of a development chain
// administered by admin, who also holds the initial bones supply.
func DeveloperGenesisBlock(admin common.Address, bones *big.Int) *Genesis {
	cfg := params.DefaultEconomy()
	cfg.Admin = admin
	return &Genesis{
		Config: &params.ChainConfig{ChainID: params.DefaultChainConfig.ChainID, Economy: cfg},
		Alloc:  GenesisAlloc{admin: {Bones: bones}},
	}
}
