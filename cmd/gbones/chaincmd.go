package main

import (
	"fmt"
	"os"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/log"
	"github.com/urfave/cli/v2"
)

var (
	initCommand = &cli.Command{
		Action:    initGenesis,
		Name:      "init",
		Usage:     "Bootstrap and initialize a new genesis block",
		ArgsUsage: "[<genesisPath>]",
		Flags: flags.Merge(nodeFlags, []cli.Flag{
			utils.DeveloperAdminFlag,
			utils.DeveloperBonesFlag,
		}),
		Description: `
The init command initializes a new genesis block and definition for the chain.
Without a genesis file, a development genesis administered by --dev.admin is
written using the economy of the configuration.

This is a destructive action and changes the chain you will be on.`,
	}
)

// initGenesis will initialise the given JSON format genesis file and writes it as
// the zero'd block (i.e. genesis) or will fail hard if it can't succeed.
func initGenesis(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	var genesis *core.Genesis
	if path := ctx.Args().First(); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to read genesis file: %w", err)
		}
		defer file.Close()

		if genesis, err = core.ReadGenesis(file); err != nil {
			return fmt.Errorf("invalid genesis file: %w", err)
		}
	} else {
		if genesis, err = utils.MakeDeveloperGenesis(ctx, cfg.Economy); err != nil {
			return err
		}
	}
	db, err := utils.MakeChainDatabase(&cfg.Node, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	_, hash, err := core.SetupGenesisBlock(db, genesis)
	if err != nil {
		return fmt.Errorf("failed to write genesis block: %w", err)
	}
	log.Info("Successfully wrote genesis state", "database", cfg.Node.ChainDataDir(), "hash", hash)
	fmt.Fprintln(ctx.App.Writer, hash.Hex())
	return nil
}

// openChain opens the node's chain database and chain. In dev mode an empty
// database is initialised with a development genesis.
func openChain(ctx *cli.Context, cfg *gbonesConfig) (*core.BlockChain, func(), error) {
	db, err := utils.MakeChainDatabase(&cfg.Node, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	var genesis *core.Genesis
	if cfg.API.DevMode && isEmpty(db) {
		if genesis, err = utils.MakeDeveloperGenesis(ctx, cfg.Economy); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	chain, err := utils.MakeChain(&cfg.Node, db, genesis)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return chain, func() {
		chain.Stop()
		db.Close()
	}, nil
}

func isEmpty(db bonesdb.KeyValueReader) bool {
	return rawdb.ReadCanonicalHash(db, 0) == (common.Hash{})
}
