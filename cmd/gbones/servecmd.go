package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/internal/httpapi"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/stakeidx"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var serveCommand = &cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Serve the HTTP API and event stream over the local chain",
	Flags: flags.Merge(nodeFlags, utils.APIFlags, []cli.Flag{
		utils.DeveloperAdminFlag,
		utils.DeveloperBonesFlag,
	}),
	Description: `
The serve command opens the local chain, keeps the event index up to date and
serves the query API. With --dev, transactions are accepted over POST /tx and an
empty data directory is initialised with a development genesis.`,
}

func serve(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	chain, closeChain, err := openChain(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	var idx *stakeidx.Index
	if !cfg.Indexer.Disabled {
		if idx, err = stakeidx.Open(cfg.Indexer.IndexPath(&cfg.Node)); err != nil {
			return err
		}
		defer idx.Close()
		idx.Start(chain)
	}
	srv := httpapi.New(cfg.API, chain, idx)

	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if idx != nil {
		g.Go(func() error {
			if _, err := idx.Backfill(gctx, chain); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		followHead(gctx, chain)
		return nil
	})
	err = g.Wait()
	log.Info("Shutting down", "err", err)
	return err
}

// followHead logs every new chain head until ctx is done.
func followHead(ctx context.Context, chain *core.BlockChain) {
	heads := make(chan core.ChainHeadEvent, 16)
	sub := chain.SubscribeChainHeadEvent(heads)
	defer sub.Unsubscribe()

	for {
		select {
		case ev := <-heads:
			log.Info("Chain head updated", "number", ev.Block.NumberU64(), "hash", ev.Block.Hash(), "txs", len(ev.Block.Transactions()))
		case <-sub.Err():
			return
		case <-ctx.Done():
			return
		}
	}
}
