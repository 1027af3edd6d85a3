// Package stakeapi exposes the read-only views of the ledgers and facilities
// against the head state of the chain.
package stakeapi

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	mapset "github.com/deckarep/golang-set"
	"github.com/hashicorp/go-bexpr"
	"github.com/smolage/gbones/caves"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/devground"
	"github.com/smolage/gbones/economy"
	"github.com/smolage/gbones/laborground"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/yard"
)

var (
	// ErrNotFound is returned for tokens and positions that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadFilter is returned for filter expressions that cannot be parsed
	// or evaluated.
	ErrBadFilter = errors.New("bad filter")
)

// Backend is the chain the API reads from.
type Backend interface {
	View(fn func(db vm.StateDB, head *types.Header) error) error
	Economy() *economy.Economy
}

// API implements the staking views. Every call reads one consistent head
// state; views that depend on time are evaluated at the head block's time.
type API struct {
	b   Backend
	eco *economy.Economy
}

// NewAPI creates an API backed by b.
func NewAPI(b Backend) *API {
	return &API{b: b, eco: b.Economy()}
}

func (api *API) view(ctx context.Context, fn func(db vm.StateDB, head *types.Header) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return api.b.View(fn)
}

// Holdings lists every asset held by an account.
type Holdings struct {
	Owner       common.Address `json:"owner"`
	Bones       *big.Int       `json:"bones"`
	YardStake   *big.Int       `json:"yardStake"`
	Smols       []uint64       `json:"smols"`
	Animals     []uint64       `json:"animals"`
	Supplies    []uint64       `json:"supplies"`    // balance of supply id i+1
	Consumables []uint64       `json:"consumables"` // balance of consumable id i+1
}

// Smol is the registry record of a creature.
type Smol struct {
	ID          uint64         `json:"id"`
	Owner       common.Address `json:"owner"`
	CommonSense uint64         `json:"commonSense"`
	Skills      [3]*big.Int    `json:"skills"` // mystics, farmers, fighters
	Facility    string         `json:"facility"`
}

// Staked lists the creatures an owner has in each facility.
type Staked struct {
	Development []uint64 `json:"development"`
	Caves       []uint64 `json:"caves"`
	Labor       []uint64 `json:"labor"`
	All         []uint64 `json:"all"`
}

// DevPosition is a Development Ground position with its derived values.
type DevPosition struct {
	*devground.Position
	Entries      []devground.StakeEntry `json:"entries"`
	Reward       *big.Int               `json:"reward"`
	PrimarySkill *big.Int               `json:"primarySkill"`
}

// CavesPosition is a Caves position with its outstanding reward.
type CavesPosition struct {
	caves.Position
	Reward *big.Int `json:"reward"`
}

// Head returns the header of the state the views read.
func (api *API) Head(ctx context.Context) (*types.Header, error) {
	var out *types.Header
	err := api.view(ctx, func(_ vm.StateDB, head *types.Header) error {
		out = head
		return nil
	})
	return out, err
}

// Yard returns the pits pool status.
func (api *API) Yard(ctx context.Context) (*yard.Info, error) {
	var out *yard.Info
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		out = api.eco.Yard.Info(db, head.Time)
		return nil
	})
	return out, err
}

// Holdings returns every asset held by owner.
func (api *API) Holdings(ctx context.Context, owner common.Address) (*Holdings, error) {
	l := api.eco.Ledgers
	var out *Holdings
	err := api.view(ctx, func(db vm.StateDB, _ *types.Header) error {
		out = &Holdings{
			Owner:       owner,
			Bones:       l.Bones.BalanceOf(db, owner),
			YardStake:   api.eco.Yard.StakedBy(db, owner),
			Smols:       l.Smols.TokensOf(db, owner),
			Animals:     l.Animals.TokensOf(db, owner),
			Supplies:    l.Supplies.Balances(db, owner),
			Consumables: l.Consumables.Balances(db, owner),
		}
		return nil
	})
	return out, err
}

// Smol returns the registry record of creature id.
func (api *API) Smol(ctx context.Context, id uint64) (*Smol, error) {
	smols := api.eco.Ledgers.Smols
	var out *Smol
	err := api.view(ctx, func(db vm.StateDB, _ *types.Header) error {
		owner := smols.OwnerOf(db, id)
		if owner == (common.Address{}) {
			return fmt.Errorf("smol %d: %w", id, ErrNotFound)
		}
		out = &Smol{
			ID:          id,
			Owner:       owner,
			CommonSense: smols.CommonSense(db, id),
			Skills:      smols.Skills(db, id),
			Facility:    stakelock.FacilityOf(db, id).String(),
		}
		return nil
	})
	return out, err
}

// StakedTokens returns the creatures owner has in every facility.
func (api *API) StakedTokens(ctx context.Context, owner common.Address) (*Staked, error) {
	var out *Staked
	err := api.view(ctx, func(db vm.StateDB, _ *types.Header) error {
		out = &Staked{
			Development: api.eco.DevGround.StakedTokens(db, owner),
			Caves:       api.eco.Caves.StakedTokens(db, owner),
			Labor:       api.eco.Labor.StakedTokens(db, owner),
		}
		out.All = union(out.Development, out.Caves, out.Labor)
		return nil
	})
	return out, err
}

// union merges id lists into one sorted list without duplicates.
func union(lists ...[]uint64) []uint64 {
	set := mapset.NewThreadUnsafeSet()
	for _, ids := range lists {
		for _, id := range ids {
			set.Add(id)
		}
	}
	out := make([]uint64, 0, set.Cardinality())
	for _, v := range set.ToSlice() {
		out = append(out, v.(uint64))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DevPosition returns the Development Ground position of id.
func (api *API) DevPosition(ctx context.Context, id uint64) (*DevPosition, error) {
	dev := api.eco.DevGround
	var out *DevPosition
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		p := dev.Info(db, id)
		if p == nil {
			return fmt.Errorf("development position %d: %w", id, ErrNotFound)
		}
		out = &DevPosition{
			Position:     p,
			Entries:      dev.StakeEntries(db, id),
			Reward:       dev.Reward(db, id, head.Time),
			PrimarySkill: dev.PrimarySkill(db, id, head.Time),
		}
		return nil
	})
	return out, err
}

// DevFeInfo summarizes owner's Development Ground positions, keeping those
// matching filter when it is not empty.
func (api *API) DevFeInfo(ctx context.Context, owner common.Address, filter string) ([]*devground.FeInfo, error) {
	var out []*devground.FeInfo
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		out = api.eco.DevGround.FeInfo(db, owner, head.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applyFilter(out, filter)
}

// CalculateBones returns the bones staked in each of owner's Development
// Ground positions.
func (api *API) CalculateBones(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	var out []*big.Int
	err := api.view(ctx, func(db vm.StateDB, _ *types.Header) error {
		out = api.eco.DevGround.CalculateBones(db, owner)
		return nil
	})
	return out, err
}

// CavesPosition returns the Caves position of id.
func (api *API) CavesPosition(ctx context.Context, id uint64) (*CavesPosition, error) {
	var out *CavesPosition
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		p := api.eco.Caves.Info(db, id)
		if p.Owner == (common.Address{}) {
			return fmt.Errorf("caves position %d: %w", id, ErrNotFound)
		}
		out = &CavesPosition{Position: p, Reward: api.eco.Caves.Reward(db, id, head.Time)}
		return nil
	})
	return out, err
}

// CavesFeInfo summarizes owner's Caves positions.
func (api *API) CavesFeInfo(ctx context.Context, owner common.Address, filter string) ([]*caves.FeInfo, error) {
	var out []*caves.FeInfo
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		out = api.eco.Caves.FeInfo(db, owner, head.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applyFilter(out, filter)
}

// LaborPosition returns the Labor Ground position of id.
func (api *API) LaborPosition(ctx context.Context, id uint64) (*laborground.Position, error) {
	var out laborground.Position
	err := api.view(ctx, func(db vm.StateDB, _ *types.Header) error {
		out = api.eco.Labor.Info(db, id)
		if out.Owner == (common.Address{}) {
			return fmt.Errorf("labor position %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LaborFeInfo summarizes owner's Labor Ground positions.
func (api *API) LaborFeInfo(ctx context.Context, owner common.Address, filter string) ([]*laborground.FeInfo, error) {
	var out []*laborground.FeInfo
	err := api.view(ctx, func(db vm.StateDB, head *types.Header) error {
		out = api.eco.Labor.FeInfo(db, owner, head.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applyFilter(out, filter)
}

// Catalog returns the Labor Ground collectible catalog.
func (api *API) Catalog(_ context.Context) *laborground.Catalog {
	return api.eco.Labor.Catalog()
}

// applyFilter keeps the items matching a boolean expression over their Go
// field names, e.g. `HasAnimal == true`.
func applyFilter[T any](items []T, expr string) ([]T, error) {
	if expr == "" {
		return items, nil
	}
	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFilter, err)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		match, err := eval.Evaluate(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFilter, err)
		}
		if match {
			out = append(out, item)
		}
	}
	return out, nil
}
