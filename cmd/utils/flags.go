// Package utils contains internal helper functions for gbones commands.
package utils

import (
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/internal/httpapi"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/sysaction"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the chain database and event index",
		Value:    DefaultDataDir(),
		Category: flags.ChainCategory,
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.ChainCategory,
	}

	// Dev mode
	DeveloperFlag = &cli.BoolFlag{
		Name:     "dev",
		Usage:    "Accept unsigned transactions over HTTP (POST /tx), sealing one block per submission",
		Category: flags.DevCategory,
	}
	DeveloperAdminFlag = &cli.StringFlag{
		Name:     "dev.admin",
		Usage:    "Admin account of a development genesis",
		Category: flags.DevCategory,
	}
	DeveloperBonesFlag = &cli.StringFlag{
		Name:     "dev.bones",
		Usage:    "Whole bones allocated to the admin of a development genesis",
		Value:    "10000000",
		Category: flags.DevCategory,
	}

	// Performance tuning
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the clean state cache",
		Value:    16,
		Category: flags.PerfCategory,
	}
	CacheDatabaseFlag = &cli.IntFlag{
		Name:     "cache.database",
		Usage:    "Megabytes of memory allocated to the database read cache",
		Value:    16,
		Category: flags.PerfCategory,
	}
	DBHandlesFlag = &cli.IntFlag{
		Name:     "db.handles",
		Usage:    "Maximum number of open files of the chain database",
		Value:    64,
		Category: flags.PerfCategory,
	}

	// API options
	HTTPListenAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP API listening address",
		Value:    httpapi.DefaultConfig.Addr,
		Category: flags.APICategory,
	}
	HTTPCORSDomainFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Value:    "",
		Category: flags.APICategory,
	}
	HTTPRateLimitFlag = &cli.Float64Flag{
		Name:     "http.ratelimit",
		Usage:    "Requests per second accepted by the HTTP API (0 = unlimited)",
		Value:    httpapi.DefaultConfig.RateLimit,
		Category: flags.APICategory,
	}
	HTTPRateBurstFlag = &cli.IntFlag{
		Name:     "http.rateburst",
		Usage:    "Request burst accepted by the HTTP API",
		Value:    httpapi.DefaultConfig.RateBurst,
		Category: flags.APICategory,
	}

	// Event index
	NoIndexFlag = &cli.BoolFlag{
		Name:     "index.off",
		Usage:    "Disable the SQLite event index",
		Category: flags.IndexCategory,
	}
	IndexPathFlag = &cli.StringFlag{
		Name:     "index.path",
		Usage:    "Path of the event index database (default = inside the datadir)",
		Category: flags.IndexCategory,
	}

	// Logging and debug settings
	VerbosityFlag = &cli.StringFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace (or the level name)",
		Value:    "info",
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format logs with JSON",
		Category: flags.LoggingCategory,
	}
	LogDebugFlag = &cli.BoolFlag{
		Name:     "log.debug",
		Usage:    "Prepends log messages with call-site location (file and line number)",
		Category: flags.LoggingCategory,
	}
)

var (
	// DatabaseFlags is the flag group of all database flags.
	DatabaseFlags = []cli.Flag{
		DataDirFlag,
		CacheFlag,
		CacheDatabaseFlag,
		DBHandlesFlag,
	}
	// LoggingFlags is the flag group of all logging flags.
	LoggingFlags = []cli.Flag{
		VerbosityFlag,
		LogJSONFlag,
		LogDebugFlag,
	}
	// APIFlags is the flag group of the HTTP API and event index.
	APIFlags = []cli.Flag{
		DeveloperFlag,
		HTTPListenAddrFlag,
		HTTPCORSDomainFlag,
		HTTPRateLimitFlag,
		HTTPRateBurstFlag,
		NoIndexFlag,
		IndexPathFlag,
	}
)

// DefaultDataDir is the default data directory to use for the databases.
func DefaultDataDir() string {
	if home := flags.HomeDir(); home != "" {
		return filepath.Join(home, ".gbones")
	}
	return ""
}

// NodeConfig locates and sizes the chain database.
type NodeConfig struct {
	DataDir         string
	StateCacheMB    int
	DatabaseCacheMB int
	DatabaseHandles int
}

// IndexConfig configures the event index.
type IndexConfig struct {
	Disabled bool
	Path     string `toml:",omitempty"` // defaults to <datadir>/events.db
}

// DefaultNodeConfig returns the node settings of the flag defaults.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		DataDir:         DataDirFlag.Value,
		StateCacheMB:    CacheFlag.Value,
		DatabaseCacheMB: CacheDatabaseFlag.Value,
		DatabaseHandles: DBHandlesFlag.Value,
	}
}

// ChainDataDir returns the directory of the chain database.
func (c *NodeConfig) ChainDataDir() string {
	return filepath.Join(c.DataDir, "chaindata")
}

// IndexPath returns the event index location for the node.
func (c *IndexConfig) IndexPath(node *NodeConfig) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(node.DataDir, "events.db")
}

// SetNodeConfig applies node-related command line flags to the config.
func SetNodeConfig(ctx *cli.Context, cfg *NodeConfig) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = flags.ExpandPath(ctx.String(DataDirFlag.Name))
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.StateCacheMB = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(CacheDatabaseFlag.Name) {
		cfg.DatabaseCacheMB = ctx.Int(CacheDatabaseFlag.Name)
	}
	if ctx.IsSet(DBHandlesFlag.Name) {
		cfg.DatabaseHandles = ctx.Int(DBHandlesFlag.Name)
	}
}

// SetHTTPConfig applies HTTP-related command line flags to the config.
func SetHTTPConfig(ctx *cli.Context, cfg *httpapi.Config) {
	if ctx.IsSet(HTTPListenAddrFlag.Name) {
		cfg.Addr = ctx.String(HTTPListenAddrFlag.Name)
	}
	if ctx.IsSet(HTTPCORSDomainFlag.Name) {
		cfg.CorsOrigins = SplitAndTrim(ctx.String(HTTPCORSDomainFlag.Name))
	}
	if ctx.IsSet(HTTPRateLimitFlag.Name) {
		cfg.RateLimit = ctx.Float64(HTTPRateLimitFlag.Name)
	}
	if ctx.IsSet(HTTPRateBurstFlag.Name) {
		cfg.RateBurst = ctx.Int(HTTPRateBurstFlag.Name)
	}
	if ctx.IsSet(DeveloperFlag.Name) {
		cfg.DevMode = ctx.Bool(DeveloperFlag.Name)
	}
}

// SetIndexConfig applies event index command line flags to the config.
func SetIndexConfig(ctx *cli.Context, cfg *IndexConfig) {
	if ctx.IsSet(NoIndexFlag.Name) {
		cfg.Disabled = ctx.Bool(NoIndexFlag.Name)
	}
	if ctx.IsSet(IndexPathFlag.Name) {
		cfg.Path = flags.ExpandPath(ctx.String(IndexPathFlag.Name))
	}
}

// SetupLogging installs the root log handler selected by the logging flags.
func SetupLogging(ctx *cli.Context) error {
	lvl, err := log.ParseVerbosity(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", VerbosityFlag.Name, err)
	}
	log.Setup(lvl, ctx.Bool(LogJSONFlag.Name), ctx.Bool(LogDebugFlag.Name))
	return nil
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// MakeChainDatabase opens the LevelDB chain database of the node.
func MakeChainDatabase(cfg *NodeConfig, readonly bool) (bonesdb.KeyValueStore, error) {
	return rawdb.NewLevelDBDatabase(cfg.ChainDataDir(), cfg.DatabaseCacheMB, cfg.DatabaseHandles, "gbones/db/chaindata/", readonly)
}

// MakeDeveloperGenesis builds a development genesis from the dev flags on
// top of the given economy settings.
func MakeDeveloperGenesis(ctx *cli.Context, economy *params.EconomyConfig) (*core.Genesis, error) {
	admin := economy.Admin
	if ctx.IsSet(DeveloperAdminFlag.Name) {
		addr, err := sysaction.ParseAddress(ctx.String(DeveloperAdminFlag.Name))
		if err != nil {
			return nil, err
		}
		admin = addr
	}
	if admin == (common.Address{}) {
		return nil, fmt.Errorf("development genesis needs an admin (--%s)", DeveloperAdminFlag.Name)
	}
	whole, ok := new(big.Int).SetString(ctx.String(DeveloperBonesFlag.Name), 10)
	if !ok || whole.Sign() < 0 {
		return nil, fmt.Errorf("invalid --%s: %q", DeveloperBonesFlag.Name, ctx.String(DeveloperBonesFlag.Name))
	}
	genesis := core.DeveloperGenesisBlock(admin, new(big.Int).Mul(whole, big.NewInt(params.Bone)))
	eco := *economy
	eco.Admin = admin
	genesis.Config.Economy = &eco
	return genesis, nil
}

// MakeChain opens the chain stored in db. A nil genesis requires one to have
// been written by init.
func MakeChain(cfg *NodeConfig, db bonesdb.KeyValueStore, genesis *core.Genesis) (*core.BlockChain, error) {
	if genesis == nil && rawdb.ReadCanonicalHash(db, 0) == (common.Hash{}) {
		return nil, fmt.Errorf("no chain in %s, run init first", cfg.DataDir)
	}
	return core.NewBlockChain(db, &core.CacheConfig{StateCleanMB: cfg.StateCacheMB}, genesis, nil)
}
