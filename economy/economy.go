// Package economy wires the token ledgers and the staking facilities into
// one system action registry. Every collaborator address is injected here;
// the facilities never look each other up.
package economy

import (
	"fmt"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/caves"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/devground"
	"github.com/smolage/gbones/laborground"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/sysaction"
	"github.com/smolage/gbones/yard"
)

// Economy is the complete set of ledgers and facilities of a chain.
type Economy struct {
	Config *params.EconomyConfig

	Ledgers   *assets.Ledgers
	Yard      *yard.Pool
	DevGround *devground.Engine
	Caves     *caves.Engine
	Labor     *laborground.Engine

	registry *sysaction.Registry
}

// New validates cfg and builds the economy it describes. A nil randomizer
// selects the default Labor Ground rolls.
func New(cfg *params.EconomyConfig, rnd laborground.Randomizer) (*Economy, error) {
	if cfg == nil {
		cfg = params.DefaultEconomy()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid economy config: %w", err)
	}
	catalog := laborground.DefaultCatalog()
	if cfg.Labor.Catalog != "" {
		c, err := laborground.LoadCatalog(cfg.Labor.Catalog)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	var (
		ledgers = assets.NewLedgers(cfg, stakelock.Checker{}, catalog.MaxConsumableID())
		pool    = yard.New(cfg.Yard, ledgers.Bones)
		dev     = devground.New(cfg.DevGround, pool, ledgers.Bones, ledgers.Smols)
		cave    = caves.New(cfg.Caves, pool, ledgers.Bones, ledgers.Smols)
		labor   = laborground.New(cfg.Labor, catalog, rnd, pool, ledgers)
	)
	e := &Economy{
		Config:    cfg,
		Ledgers:   ledgers,
		Yard:      pool,
		DevGround: dev,
		Caves:     cave,
		Labor:     labor,
		registry: sysaction.NewRegistry(
			assets.NewHandler(ledgers),
			yard.NewHandler(pool),
			devground.NewHandler(dev),
			caves.NewHandler(cave),
			laborground.NewHandler(labor),
		),
	}
	log.Debug("Economy assembled", "admin", cfg.Admin, "yardThreshold", cfg.Yard.MinimumThreshold,
		"jobs", len(catalog.Jobs), "consumables", len(catalog.Consumables))
	return e, nil
}

// Init prepares a fresh state at genesis time.
func (e *Economy) Init(db vm.StateDB, genesisTime uint64) {
	e.Yard.Init(db, genesisTime)
}

// Registry returns the system action registry of every ledger and facility.
func (e *Economy) Registry() *sysaction.Registry { return e.registry }

// Execute runs one encoded system action. The caller reverts the state on
// error.
func (e *Economy) Execute(ctx *sysaction.Context, data []byte) error {
	return e.registry.Execute(ctx, data)
}
