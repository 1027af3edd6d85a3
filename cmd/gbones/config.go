package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/smolage/gbones/cmd/utils"
	"github.com/smolage/gbones/internal/flags"
	"github.com/smolage/gbones/internal/httpapi"
	"github.com/smolage/gbones/params"
	"github.com/urfave/cli/v2"
)

var (
	nodeFlags = flags.Merge([]cli.Flag{utils.ConfigFileFlag}, utils.DatabaseFlags)

	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[<dumpfile>]",
		Flags:       flags.Merge(nodeFlags, utils.APIFlags),
		Description: `The dumpconfig command shows configuration values.`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type gbonesConfig struct {
	Node    utils.NodeConfig
	Economy *params.EconomyConfig // economy of a development genesis
	API     httpapi.Config
	Indexer utils.IndexConfig
}

func loadConfig(file string, cfg *gbonesConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func defaultConfig() gbonesConfig {
	return gbonesConfig{
		Node:    utils.DefaultNodeConfig(),
		Economy: params.DefaultEconomy(),
		API:     httpapi.DefaultConfig,
	}
}

// makeConfig loads the defaults, then the config file, then the flags.
func makeConfig(ctx *cli.Context) (gbonesConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Economy.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid economy config: %w", err)
	}
	utils.SetNodeConfig(ctx, &cfg.Node)
	utils.SetHTTPConfig(ctx, &cfg.API)
	utils.SetIndexConfig(ctx, &cfg.Indexer)
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	var dump io.Writer = ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
