package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/internal/stakeapi"
	"github.com/smolage/gbones/stakeidx"
	"github.com/smolage/gbones/sysaction"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Sender of the transaction",
		Required: true,
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Transaction nonce (default = next nonce of the sender)",
	}
	timeFlag = &cli.Uint64Flag{
		Name:  "time",
		Usage: "Block timestamp (default = now, never before the head)",
	}
	facilityFlag = &cli.StringFlag{
		Name:  "facility",
		Usage: "Facility to show: dev, caves or labor (default = all)",
	}
	filterFlag = &cli.StringFlag{
		Name:  "filter",
		Usage: "Boolean expression selecting positions, e.g. 'Ground == 1'",
	}
	eventNameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Event name",
	}
	eventOwnerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "Event owner",
	}
	eventTokenFlag = &cli.Uint64Flag{
		Name:  "token",
		Usage: "Token id",
	}
	fromBlockFlag = &cli.Uint64Flag{
		Name:  "fromblock",
		Usage: "First block",
	}
	toBlockFlag = &cli.Uint64Flag{
		Name:  "toblock",
		Usage: "Last block (0 = head)",
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of events",
		Value: 100,
	}
	exportFlag = &cli.StringFlag{
		Name:  "export",
		Usage: "Write the matching events to a zstd-compressed JSONL file instead of printing them",
	}

	execCommand = &cli.Command{
		Action:    execAction,
		Name:      "exec",
		Usage:     "Seal a block executing one system action",
		ArgsUsage: "<ACTION> [<payloadJSON>]",
		Flags: flags.Merge(nodeFlags, []cli.Flag{
			fromFlag,
			nonceFlag,
			timeFlag,
		}),
		Description: `
The exec command wraps the payload into a system action of the given kind,
for example

    gbones exec --from 0x.. CAVES_ENTER '{"token_ids":[1,2]}'

and seals it into a new block on top of the local chain. The receipt and the
emitted events are printed.`,
	}
	yardCommand = &cli.Command{
		Action: yardAction,
		Name:   "yard",
		Usage:  "Show the yard status",
		Flags:  nodeFlags,
	}
	holdingsCommand = &cli.Command{
		Action:    holdingsAction,
		Name:      "holdings",
		Usage:     "Show the assets of an account",
		ArgsUsage: "<address>",
		Flags:     nodeFlags,
	}
	positionsCommand = &cli.Command{
		Action:    positionsAction,
		Name:      "positions",
		Usage:     "Show the staked positions of an account",
		ArgsUsage: "<address>",
		Flags:     flags.Merge(nodeFlags, []cli.Flag{facilityFlag, filterFlag}),
	}
	eventsCommand = &cli.Command{
		Action: eventsAction,
		Name:   "events",
		Usage:  "Query the event index",
		Flags: flags.Merge(nodeFlags, []cli.Flag{
			utils.IndexPathFlag,
			eventNameFlag,
			eventOwnerFlag,
			eventTokenFlag,
			fromBlockFlag,
			toBlockFlag,
			limitFlag,
			exportFlag,
		}),
		Description: `
The events command brings the event index up to date with the local chain and
prints the events matching the filter flags. With --export the events are
archived to the given file as zstd-compressed JSON lines.`,
	}
)

var errMissingArg = errors.New("missing argument")

// withChain opens the chain for the duration of fn.
func withChain(ctx *cli.Context, fn func(cfg *gbonesConfig, chain *core.BlockChain) error) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	chain, closeFn, err := openChain(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(&cfg, chain)
}

func addressArg(ctx *cli.Context) (common.Address, error) {
	if ctx.NArg() < 1 {
		return common.Address{}, fmt.Errorf("%w: <address>", errMissingArg)
	}
	return sysaction.ParseAddress(ctx.Args().First())
}

// blockTime picks the timestamp of a locally sealed block.
func blockTime(chain *core.BlockChain) uint64 {
	now := uint64(time.Now().Unix())
	if head := chain.CurrentBlock().Time(); now < head {
		return head
	}
	return now
}

// sealAction executes one system action in a new block.
func sealAction(chain *core.BlockChain, from common.Address, nonce *uint64, at uint64, kind sysaction.ActionKind, payload string) (*types.Block, *types.Receipt, error) {
	if payload == "" {
		payload = "{}"
	}
	data, err := sysaction.MakeSysAction(kind, json.RawMessage(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid payload: %w", err)
	}
	if !chain.Economy().Registry().Supports(kind) {
		return nil, nil, fmt.Errorf("unknown system action: %q", kind)
	}
	n := chain.NonceAt(from)
	if nonce != nil {
		n = *nonce
	}
	block, receipts, err := chain.InsertBlock(types.Transactions{types.NewTransaction(from, n, data)}, at)
	if err != nil {
		return nil, nil, err
	}
	return block, receipts[0], nil
}

func execAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("%w: <ACTION>", errMissingArg)
	}
	from, err := sysaction.ParseAddress(ctx.String(fromFlag.Name))
	if err != nil {
		return err
	}
	return withChain(ctx, func(_ *gbonesConfig, chain *core.BlockChain) error {
		var nonce *uint64
		if ctx.IsSet(nonceFlag.Name) {
			n := ctx.Uint64(nonceFlag.Name)
			nonce = &n
		}
		at := blockTime(chain)
		if ctx.IsSet(timeFlag.Name) {
			at = ctx.Uint64(timeFlag.Name)
		}
		block, receipt, err := sealAction(chain, from, nonce, at, sysaction.ActionKind(ctx.Args().Get(0)), ctx.Args().Get(1))
		if err != nil {
			return err
		}
		printReceipt(ctx.App.Writer, block, receipt)
		return nil
	})
}

func yardAction(ctx *cli.Context) error {
	return withChain(ctx, func(_ *gbonesConfig, chain *core.BlockChain) error {
		info, err := stakeapi.NewAPI(chain).Yard(ctx.Context)
		if err != nil {
			return err
		}
		printYard(ctx.App.Writer, info)
		return nil
	})
}

func holdingsAction(ctx *cli.Context) error {
	owner, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withChain(ctx, func(_ *gbonesConfig, chain *core.BlockChain) error {
		h, err := stakeapi.NewAPI(chain).Holdings(ctx.Context, owner)
		if err != nil {
			return err
		}
		printHoldings(ctx.App.Writer, h)
		return nil
	})
}

func positionsAction(ctx *cli.Context) error {
	owner, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withChain(ctx, func(_ *gbonesConfig, chain *core.BlockChain) error {
		return showPositions(ctx.Context, ctx.App.Writer, stakeapi.NewAPI(chain), owner, ctx.String(facilityFlag.Name), ctx.String(filterFlag.Name))
	})
}

// showPositions prints owner's positions in facility, or in every facility
// when it is empty. The filter applies to the selected facilities' rows.
func showPositions(ctx context.Context, w io.Writer, api *stakeapi.API, owner common.Address, facility, filter string) error {
	all := facility == ""
	switch facility {
	case "", "dev", "caves", "labor":
	default:
		return fmt.Errorf("unknown facility %q (want dev, caves or labor)", facility)
	}
	if all || facility == "dev" {
		infos, err := api.DevFeInfo(ctx, owner, filter)
		if err != nil {
			return err
		}
		printDevPositions(w, infos)
	}
	if all || facility == "caves" {
		infos, err := api.CavesFeInfo(ctx, owner, filter)
		if err != nil {
			return err
		}
		printCavesPositions(w, infos)
	}
	if all || facility == "labor" {
		infos, err := api.LaborFeInfo(ctx, owner, filter)
		if err != nil {
			return err
		}
		printLaborPositions(w, infos, api.Catalog(ctx))
	}
	return nil
}

func eventsAction(ctx *cli.Context) error {
	f := stakeidx.Filter{
		Name:      ctx.String(eventNameFlag.Name),
		FromBlock: ctx.Uint64(fromBlockFlag.Name),
		ToBlock:   ctx.Uint64(toBlockFlag.Name),
		Limit:     ctx.Int(limitFlag.Name),
	}
	if ctx.IsSet(eventOwnerFlag.Name) {
		owner, err := sysaction.ParseAddress(ctx.String(eventOwnerFlag.Name))
		if err != nil {
			return err
		}
		f.Owner = &owner
	}
	if ctx.IsSet(eventTokenFlag.Name) {
		id := ctx.Uint64(eventTokenFlag.Name)
		f.TokenID = &id
	}
	return withChain(ctx, func(cfg *gbonesConfig, chain *core.BlockChain) error {
		idx, err := stakeidx.Open(cfg.Indexer.IndexPath(&cfg.Node))
		if err != nil {
			return err
		}
		defer idx.Close()

		if _, err := idx.Backfill(ctx.Context, chain); err != nil {
			return err
		}
		if path := ctx.String(exportFlag.Name); path != "" {
			n, err := idx.Export(ctx.Context, path, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "%d events exported to %s\n", n, path)
			return nil
		}
		events, err := idx.Events(ctx.Context, f)
		if err != nil {
			return err
		}
		printEvents(ctx.App.Writer, events)
		fmt.Fprintln(ctx.App.Writer, strconv.Itoa(len(events))+" events")
		return nil
	})
}
