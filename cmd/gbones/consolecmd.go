package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/peterh/liner"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/internal/stakeapi"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/sysaction"
	"github.com/urfave/cli/v2"
)

var consoleCommand = &cli.Command{
	Action: localConsole,
	Name:   "console",
	Usage:  "Start an interactive console over the local chain",
	Flags:  nodeFlags,
	Description: `
The console reads commands line by line and runs them against the local chain.
Type 'help' for the list of commands, 'exit' or ctrl-d to leave.`,
}

const historyFile = "history"

// prompter reads console input. Satisfied by *liner.State.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// terminalPrompter is a liner prompter persisting its history in a file.
type terminalPrompter struct {
	*liner.State
	history string
}

func newTerminalPrompter(history string) *terminalPrompter {
	p := &terminalPrompter{State: liner.NewLiner(), history: history}
	p.SetCtrlCAborts(true)
	if f, err := os.Open(history); err == nil {
		p.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *terminalPrompter) Close() error {
	if f, err := os.Create(p.history); err == nil {
		p.WriteHistory(f)
		f.Close()
	}
	return p.State.Close()
}

// console evaluates commands against a chain.
type console struct {
	chain    *core.BlockChain
	api      *stakeapi.API
	out      io.Writer
	prompter prompter
}

func newConsole(chain *core.BlockChain, out io.Writer, p prompter) *console {
	return &console{chain: chain, api: stakeapi.NewAPI(chain), out: out, prompter: p}
}

func localConsole(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	chain, closeChain, err := openChain(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	p := newTerminalPrompter(filepath.Join(cfg.Node.DataDir, historyFile))
	defer p.Close()

	c := newConsole(chain, ctx.App.Writer, p)
	c.welcome()
	return c.interactive(ctx.Context)
}

func (c *console) welcome() {
	head := c.chain.CurrentBlock()
	fmt.Fprintf(c.out, "Welcome to the %s console!\n\n", clientIdentifier)
	fmt.Fprintf(c.out, "instance: %s/v%s\n", strings.Title(clientIdentifier), params.VersionWithMeta)
	fmt.Fprintf(c.out, "at block: %d (%s)\n\n", head.NumberU64(), formatTime(head.Time()))
	fmt.Fprintln(c.out, "To exit, press ctrl-d or type exit")
}

// interactive reads and evaluates lines until exit or end of input.
func (c *console) interactive(ctx context.Context) error {
	for {
		line, err := c.prompter.Prompt("> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		c.prompter.AppendHistory(line)
		if err := c.evaluate(ctx, line); err != nil {
			failureColor.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

const consoleHelp = `Commands:
  head                                  current block
  yard                                  yard status
  holdings <address>                    assets of an account
  nonce <address>                       next nonce of an account
  smol <id>                             creature record
  staked <address>                      staked creatures per facility
  positions <address> [facility] [filter]
                                        positions, optionally of one facility
  exec <from> <ACTION> [payload]        seal a block executing one action
  exit                                  leave the console`

// evaluate runs one console command.
func (c *console) evaluate(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	log.Trace("Evaluating console command", "cmd", fields[0], "args", len(fields)-1)

	arg := func(i int) (string, error) {
		if len(fields) <= i {
			return "", fmt.Errorf("%w for %s, see help", errMissingArg, fields[0])
		}
		return fields[i], nil
	}

	switch fields[0] {
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
	case "head":
		head, err := c.api.Head(ctx)
		if err != nil {
			return err
		}
		printHead(c.out, head)
	case "yard":
		info, err := c.api.Yard(ctx)
		if err != nil {
			return err
		}
		printYard(c.out, info)
	case "holdings", "nonce", "staked":
		s, err := arg(1)
		if err != nil {
			return err
		}
		owner, err := sysaction.ParseAddress(s)
		if err != nil {
			return err
		}
		switch fields[0] {
		case "holdings":
			h, err := c.api.Holdings(ctx, owner)
			if err != nil {
				return err
			}
			printHoldings(c.out, h)
		case "nonce":
			fmt.Fprintln(c.out, c.chain.NonceAt(owner))
		case "staked":
			staked, err := c.api.StakedTokens(ctx, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "development: %s\ncaves: %s\nlabor: %s\n",
				formatIDs(staked.Development), formatIDs(staked.Caves), formatIDs(staked.Labor))
		}
	case "smol":
		s, err := arg(1)
		if err != nil {
			return err
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token id %q", s)
		}
		smol, err := c.api.Smol(ctx, id)
		if err != nil {
			return err
		}
		printSmol(c.out, smol)
	case "positions":
		s, err := arg(1)
		if err != nil {
			return err
		}
		owner, err := sysaction.ParseAddress(s)
		if err != nil {
			return err
		}
		var facility, filter string
		if len(fields) > 2 {
			facility = fields[2]
			filter = afterFields(line, 3)
		}
		return showPositions(ctx, c.out, c.api, owner, facility, filter)
	case "exec":
		s, err := arg(1)
		if err != nil {
			return err
		}
		from, err := sysaction.ParseAddress(s)
		if err != nil {
			return err
		}
		kind, err := arg(2)
		if err != nil {
			return err
		}
		payload := afterFields(line, 3)
		block, receipt, err := sealAction(c.chain, from, nil, blockTime(c.chain), sysaction.ActionKind(kind), payload)
		if err != nil {
			return err
		}
		printReceipt(c.out, block, receipt)
	default:
		return fmt.Errorf("unknown command %q, see help", fields[0])
	}
	return nil
}

// afterFields returns line with its first n whitespace separated fields
// removed.
func afterFields(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n && rest != ""; i++ {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[end:])
	}
	return rest
}
