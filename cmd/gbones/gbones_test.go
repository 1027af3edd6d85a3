package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakeidx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0xad")
	alice = common.HexToAddress("0xa1")
)

// run executes the command line in-process and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"gbones", "--verbosity", "crit"}, args...))
	return out.String(), err
}

func initTestChain(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := run(t, "init", "--datadir", dir, "--dev.admin", admin.Hex())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "0x"), out)
	return dir
}

func TestInitAndExec(t *testing.T) {
	dir := initTestChain(t)

	out, err := run(t, "exec", "--datadir", dir, "--from", admin.Hex(), "YARD_STAKE",
		`{"amount":"`+params.BoneUnits(3_000_000).String()+`"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "YardStake")
	assert.Contains(t, out, "block #1")

	out, err = run(t, "exec", "--datadir", dir, "--from", admin.Hex(), "BONES_TRANSFER",
		`{"to":"`+alice.Hex()+`","amount":"`+params.BoneUnits(20_000_000).String()+`"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "reverted: BalanceIsInsufficient")

	_, err = run(t, "exec", "--datadir", dir, "--from", admin.Hex(), "NO_SUCH_ACTION")
	assert.ErrorContains(t, err, "unknown system action")

	_, err = run(t, "exec", "--datadir", dir, "--from", admin.Hex(), "--nonce", "0", "YARD_STAKE", `{"amount":"1"}`)
	assert.ErrorContains(t, err, "nonce too low")

	_, err = run(t, "exec", "--datadir", dir, "--from", admin.Hex(), "YARD_STAKE", `{not json`)
	assert.ErrorContains(t, err, "invalid payload")

	out, err = run(t, "yard", "--datadir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3000000")
	assert.Contains(t, out, "on")

	out, err = run(t, "holdings", "--datadir", dir, admin.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "7000000") // 10M allocated, 3M staked

	out, err = run(t, "positions", "--datadir", dir, admin.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "Development Ground")
	assert.Contains(t, out, "Caves")
	assert.Contains(t, out, "Labor Ground")

	_, err = run(t, "positions", "--datadir", dir, "--facility", "moon", admin.Hex())
	assert.ErrorContains(t, err, "unknown facility")

	out, err = run(t, "events", "--datadir", dir, "--name", "YardStake")
	require.NoError(t, err)
	assert.Contains(t, out, "1 events")
	assert.Contains(t, out, admin.Hex())
	assert.FileExists(t, filepath.Join(dir, "events.db"))

	archive := filepath.Join(dir, "yard.jsonl.zst")
	out, err = run(t, "events", "--datadir", dir, "--name", "YardStake", "--export", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "1 events exported")
	exported, err := stakeidx.ReadArchive(archive)
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, admin, exported[0].Owner)
}

func TestCommandsNeedChain(t *testing.T) {
	_, err := run(t, "yard", "--datadir", t.TempDir())
	assert.ErrorContains(t, err, "run init first")

	_, err = run(t, "init", "--datadir", t.TempDir())
	assert.ErrorContains(t, err, "needs an admin")

	_, err = run(t, "holdings", "--datadir", initTestChain(t))
	assert.ErrorContains(t, err, "missing argument")
}

func TestInitFromFile(t *testing.T) {
	dir := t.TempDir()
	genesis := filepath.Join(dir, "genesis.json")
	require.NoError(t, os.WriteFile(genesis, []byte(`{
		"config": {"chainId": 7},
		"timestamp": 1000,
		"alloc": {"`+alice.Hex()+`": {"bones": 5000000000000000000000, "smols": [100, 90]}}
	}`), 0644))

	datadir := filepath.Join(dir, "data")
	_, err := run(t, "init", "--datadir", datadir, genesis)
	require.NoError(t, err)

	out, err := run(t, "holdings", "--datadir", datadir, alice.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "5000")
	assert.Contains(t, out, "1,2")

	// same genesis again is a no-op
	_, err = run(t, "init", "--datadir", datadir, genesis)
	require.NoError(t, err)

	// a different one is refused
	require.NoError(t, os.WriteFile(genesis, []byte(`{"config": {"chainId": 7}, "timestamp": 2000}`), 0644))
	_, err = run(t, "init", "--datadir", datadir, genesis)
	var mismatch *core.GenesisMismatchError
	assert.ErrorAs(t, err, &mismatch)

	require.NoError(t, os.WriteFile(genesis, []byte(`{"timestamp": 1000}`), 0644))
	_, err = run(t, "init", "--datadir", filepath.Join(dir, "other"), genesis)
	assert.ErrorContains(t, err, "no chain configuration")

	require.NoError(t, os.WriteFile(genesis, []byte(`{"config": {"chainId": 7}, "alloc": {"0xa1": {"bones": 1}}}`), 0644))
	_, err = run(t, "init", "--datadir", filepath.Join(dir, "other"), genesis)
	assert.ErrorContains(t, err, "invalid genesis file")
}

func TestDumpConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")

	_, err := run(t, "dumpconfig", "--datadir", dir, "--http.addr", "127.0.0.1:9999", "--cache", "64", file)
	require.NoError(t, err)

	var cfg gbonesConfig
	require.NoError(t, loadConfig(file, &cfg))
	assert.Equal(t, dir, cfg.Node.DataDir)
	assert.Equal(t, 64, cfg.Node.StateCacheMB)
	assert.Equal(t, "127.0.0.1:9999", cfg.API.Addr)
	assert.Equal(t, 0, params.DefaultEconomy().Yard.MinimumThreshold.Cmp(cfg.Economy.Yard.MinimumThreshold))
	assert.Equal(t, params.DefaultEconomy().DevGround.GroundRateBPS, cfg.Economy.DevGround.GroundRateBPS)

	again, err := run(t, "dumpconfig", "--config", file)
	require.NoError(t, err)
	want, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, string(want), again)

	require.NoError(t, os.WriteFile(file, []byte("[Node]\nDataDirectory = \"x\"\n"), 0644))
	_, err = run(t, "dumpconfig", "--config", file)
	assert.ErrorContains(t, err, "field 'DataDirectory' is not defined")
}

// scriptedPrompter replays fixed input lines.
type scriptedPrompter struct {
	lines   []string
	history []string
}

func (p *scriptedPrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) AppendHistory(item string) { p.history = append(p.history, item) }
func (p *scriptedPrompter) Close() error              { return nil }

func TestConsole(t *testing.T) {
	dir := initTestChain(t)
	cfg := defaultConfig()
	cfg.Node.DataDir = dir
	db, err := utils.MakeChainDatabase(&cfg.Node, false)
	require.NoError(t, err)
	defer db.Close()
	chain, err := utils.MakeChain(&cfg.Node, db, nil)
	require.NoError(t, err)
	defer chain.Stop()

	p := &scriptedPrompter{lines: []string{
		"help",
		"head",
		"exec " + admin.Hex() + " BONES_TRANSFER {\"to\": \"" + alice.Hex() + "\", \"amount\": \"" + params.BoneUnits(5).String() + "\"}",
		"holdings " + alice.Hex(),
		"nonce " + admin.Hex(),
		"smol 1",
		"staked " + alice.Hex(),
		"positions " + alice.Hex() + " dev TokenID == 1",
		"bogus",
		"",
		"exit",
		"head",
	}}
	var out bytes.Buffer
	c := newConsole(chain, &out, p)
	c.welcome()
	require.NoError(t, c.interactive(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Welcome to the gbones console!")
	assert.Contains(t, text, "Commands:")
	assert.Contains(t, text, "block #0")
	assert.Contains(t, text, "succeeded")
	assert.Contains(t, text, "Holdings of "+alice.Hex())
	assert.Contains(t, text, "smol 1: not found")
	assert.Contains(t, text, "development: -")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Equal(t, uint64(1), chain.NonceAt(admin))
	// lines after exit are not read
	assert.Equal(t, []string{"head"}, p.lines)
	assert.Len(t, p.history, 9)
}
