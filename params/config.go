package params

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/smolage/gbones/common"
)

// BasisPoints is the denominator of every *BPS setting.
const BasisPoints = 10_000

// SkillPrecision is the fixed-point scale of DevGroundConfig.SkillRate.
var SkillPrecision = big.NewInt(1e18)

var (
	// DefaultChainConfig runs a local development chain with the default economy.
	DefaultChainConfig = &ChainConfig{
		ChainID: 1337,
		Economy: DefaultEconomy(),
	}

	// TestChainConfig is used by the unit tests.
	TestChainConfig = &ChainConfig{
		ChainID: 1,
		Economy: DefaultEconomy(),
	}
)

// ChainConfig is the core config which determines the blockchain settings.
type ChainConfig struct {
	ChainID uint64         `json:"chainId"`
	Economy *EconomyConfig `json:"economy"`
}

// String implements fmt.Stringer.
func (c *ChainConfig) String() string {
	if c.Economy == nil {
		return fmt.Sprintf("{ChainID: %d Economy: default}", c.ChainID)
	}
	return fmt.Sprintf("{ChainID: %d Admin: %s YardThreshold: %v}", c.ChainID, c.Economy.Admin.Hex(), c.Economy.Yard.MinimumThreshold)
}

// EconomyConfig holds every rate, threshold and period of the facilities. All
// bones amounts are in wei, all periods in seconds.
type EconomyConfig struct {
	Admin     common.Address `toml:",omitempty"`
	Yard      YardConfig
	DevGround DevGroundConfig
	Caves     CavesConfig
	Labor     LaborConfig
	Assets    AssetsConfig
}

// YardConfig configures the pits pool.
type YardConfig struct {
	MinimumThreshold *big.Int
}

// DevGroundConfig configures the Development Ground.
type DevGroundConfig struct {
	LockUnit     uint64 // lock periods are positive multiples of this
	MaxLockUnits uint64

	// DailyRates is the base daily reward per lock tier (tier i locks for
	// (i+1)*LockUnit).
	DailyRates []*big.Int

	// GroundRateBPS scales the tier rate per ground kind (Mystic, Farmer, Fighter).
	GroundRateBPS []uint64

	BonesMultiple  *big.Int // stake amounts must be multiples of this
	BoostUnit      *big.Int
	StakeBoostRate *big.Int // daily bonus per whole BoostUnit staked
	SkillRate      *big.Int // skill per bone-day, scaled by SkillPrecision

	MinCommonSense      uint64
	BonesLockPeriod     uint64
	EarlyRemovalBurnBPS uint64
}

// CavesConfig configures the Caves.
type CavesConfig struct {
	DailyRate  *big.Int
	LockPeriod uint64
}

// LaborConfig configures the Labor Ground.
type LaborConfig struct {
	MaxCommonSense   uint64
	Cooldown         uint64
	LockPeriod       uint64
	AnimalBonusRolls uint64

	// Catalog is the path of the collectible catalog; empty selects the
	// built-in one.
	Catalog string `toml:",omitempty"`
}

// AssetsConfig configures the token ledgers.
type AssetsConfig struct {
	SupplyPrice *big.Int
}

// DefaultEconomy returns a fresh copy of the default economy settings.
func DefaultEconomy() *EconomyConfig {
	return &EconomyConfig{
		Yard: YardConfig{
			MinimumThreshold: BoneUnits(3_000_000),
		},
		DevGround: DevGroundConfig{
			LockUnit:            50 * Day,
			MaxLockUnits:        3,
			DailyRates:          []*big.Int{BoneUnits(10), BoneUnits(25), BoneUnits(45)},
			GroundRateBPS:       []uint64{BasisPoints, BasisPoints, BasisPoints},
			BonesMultiple:       BoneUnits(1000),
			BoostUnit:           BoneUnits(1000),
			StakeBoostRate:      BoneUnits(5),
			SkillRate:           big.NewInt(15e13), // 0.00015
			MinCommonSense:      100,
			BonesLockPeriod:     30 * Day,
			EarlyRemovalBurnBPS: 5000,
		},
		Caves: CavesConfig{
			DailyRate:  BoneUnits(15),
			LockPeriod: 100 * Day,
		},
		Labor: LaborConfig{
			MaxCommonSense:   100,
			Cooldown:         3 * Day,
			LockPeriod:       3 * Day,
			AnimalBonusRolls: 1,
		},
		Assets: AssetsConfig{
			SupplyPrice: BoneUnits(100),
		},
	}
}

var errNilAmount = errors.New("amount not set")

// Validate checks the configuration for values the facilities cannot work with.
func (c *EconomyConfig) Validate() error {
	amounts := []struct {
		name     string
		v        *big.Int
		positive bool
	}{
		{"Yard.MinimumThreshold", c.Yard.MinimumThreshold, false},
		{"DevGround.BonesMultiple", c.DevGround.BonesMultiple, true},
		{"DevGround.BoostUnit", c.DevGround.BoostUnit, true},
		{"DevGround.StakeBoostRate", c.DevGround.StakeBoostRate, false},
		{"DevGround.SkillRate", c.DevGround.SkillRate, false},
		{"Caves.DailyRate", c.Caves.DailyRate, false},
		{"Assets.SupplyPrice", c.Assets.SupplyPrice, false},
	}
	for _, a := range amounts {
		if a.v == nil {
			return fmt.Errorf("%s: %w", a.name, errNilAmount)
		}
		if a.v.Sign() < 0 || (a.positive && a.v.Sign() == 0) {
			return fmt.Errorf("%s: invalid amount %v", a.name, a.v)
		}
	}
	dg := c.DevGround
	if dg.LockUnit == 0 || dg.MaxLockUnits == 0 {
		return errors.New("DevGround: lock unit and max lock units must be positive")
	}
	if uint64(len(dg.DailyRates)) != dg.MaxLockUnits {
		return fmt.Errorf("DevGround.DailyRates: have %d tiers, want %d", len(dg.DailyRates), dg.MaxLockUnits)
	}
	for i, r := range dg.DailyRates {
		if r == nil || r.Sign() < 0 {
			return fmt.Errorf("DevGround.DailyRates[%d]: invalid rate", i)
		}
	}
	if len(dg.GroundRateBPS) != 3 {
		return fmt.Errorf("DevGround.GroundRateBPS: have %d grounds, want 3", len(dg.GroundRateBPS))
	}
	if dg.EarlyRemovalBurnBPS > BasisPoints {
		return fmt.Errorf("DevGround.EarlyRemovalBurnBPS: %d exceeds %d", dg.EarlyRemovalBurnBPS, BasisPoints)
	}
	if c.Labor.Cooldown == 0 {
		return errors.New("Labor.Cooldown must be positive")
	}
	return nil
}

// DailyRate returns the base daily reward of a Development Ground position of
// the given ground kind and lock tier (1-based), or nil when either is unknown.
func (c *DevGroundConfig) DailyRate(ground uint8, tier uint64) *big.Int {
	if tier == 0 || tier > uint64(len(c.DailyRates)) || int(ground) >= len(c.GroundRateBPS) {
		return nil
	}
	rate := new(big.Int).Mul(c.DailyRates[tier-1], new(big.Int).SetUint64(c.GroundRateBPS[ground]))
	return rate.Div(rate, big.NewInt(BasisPoints))
}
