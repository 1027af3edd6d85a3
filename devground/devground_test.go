package devground

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/sysaction"
	"github.com/smolage/gbones/yard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day = params.Day
	t0  = uint64(1_000_000)
)

var (
	alice = common.Address{0x01}
	bob   = common.Address{0x02}
)

type testEnv struct {
	st    *state.StateDB
	pool  *yard.Pool
	bones *assets.Bones
	smols *assets.Smols
	e     *Engine
}

// newTestEnv mints ids 1-3 (common sense 100) and 5 (common sense 10) to
// alice and id 4 to bob. The yard starts off.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()))
	require.NoError(t, err)

	cfg := params.DefaultEconomy()
	cfg.Yard.MinimumThreshold = params.BoneUnits(1000)
	bones := assets.NewBones(params.BonesAddress)
	smols := assets.NewSmols(params.SmolsAddress, stakelock.Checker{})
	pool := yard.New(cfg.Yard, bones)
	pool.Init(st, t0)

	for _, a := range []common.Address{alice, bob} {
		require.NoError(t, bones.Mint(st, a, params.BoneUnits(1_000_000)))
	}
	for _, m := range []struct {
		to common.Address
		cs uint64
	}{{alice, 100}, {alice, 100}, {alice, 100}, {bob, 100}, {alice, 10}} {
		_, err := smols.Mint(st, m.to, m.cs)
		require.NoError(t, err)
	}
	return &testEnv{
		st:    st,
		pool:  pool,
		bones: bones,
		smols: smols,
		e:     New(cfg.DevGround, pool, bones, smols),
	}
}

func (env *testEnv) yardOn(t *testing.T, now uint64) {
	require.NoError(t, env.pool.Stake(env.st, bob, params.BoneUnits(1000), now))
}

func (env *testEnv) yardOff(t *testing.T, now uint64) {
	require.NoError(t, env.pool.Unstake(env.st, bob, params.BoneUnits(1000), now))
}

func assertBig(t *testing.T, want, got *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	if want.Cmp(got) != 0 {
		assert.Fail(t, "big.Int mismatch", "want %v, got %v %v", want, got, msgAndArgs)
	}
}

func skill(tenThousandths int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tenThousandths), big.NewInt(1e14))
}

func TestEnter(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e

	assert.Equal(t, stakelock.ErrLengthsNotEqual, e.EnterBatch(st, alice, nil, []uint64{1}, []Kind{Mystic}, t0))
	assert.Equal(t, stakelock.ErrLengthsNotEqual, e.EnterBatch(st, alice, []uint64{1}, []uint64{50 * day}, nil, t0))
	assert.Equal(t, yard.ErrDevelopmentGroundIsLocked, e.Enter(st, alice, 1, 50*day, Mystic, t0))

	env.yardOn(t, t0)
	assert.Equal(t, ErrCsIsBelowThreshold, e.Enter(st, alice, 5, 50*day, Mystic, t0))
	assert.Equal(t, stakelock.ErrNotYourToken, e.Enter(st, alice, 4, 50*day, Mystic, t0))
	assert.Equal(t, ErrInvalidLockTime, e.Enter(st, alice, 1, 1, Mystic, t0))
	assert.Equal(t, ErrInvalidLockTime, e.Enter(st, alice, 1, 0, Mystic, t0))
	assert.Equal(t, ErrInvalidLockTime, e.Enter(st, alice, 1, 200*day, Mystic, t0))
	assert.Equal(t, ErrInvalidGround, e.Enter(st, alice, 1, 50*day, Kind(3), t0))

	require.NoError(t, e.EnterBatch(st, alice, []uint64{1, 3}, []uint64{50 * day, 150 * day}, []Kind{Mystic, Farmer}, t0))
	assert.Equal(t, stakelock.ErrTokenIsStaked, e.EnterBatch(st, alice, []uint64{1, 3}, []uint64{50 * day, 150 * day}, []Kind{Mystic, Farmer}, t0))
	assert.Equal(t, stakelock.ErrTokenIsStaked, env.smols.Transfer(st, alice, bob, 1))

	info := e.Info(st, 1)
	require.NotNil(t, info)
	assert.Equal(t, alice, info.Owner)
	assert.Equal(t, 50*day, info.LockPeriod)
	assert.Equal(t, t0, info.EntryTime)
	assert.Equal(t, Farmer, e.Info(st, 3).Ground)
	assert.Equal(t, []uint64{1, 3}, e.StakedTokens(st, alice))
	assert.Nil(t, e.Info(st, 2))
}

func TestEnterBatchIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	env.yardOn(t, t0)

	err := env.e.EnterBatch(env.st, alice, []uint64{1, 4}, []uint64{50 * day, 50 * day}, []Kind{Mystic, Mystic}, t0)
	assert.Equal(t, stakelock.ErrNotYourToken, err)
	assert.Nil(t, env.e.Info(env.st, 1))
	assert.False(t, stakelock.IsLocked(env.st, 1))
}

func TestStakeBones(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	thousand := params.BoneUnits(1000)

	assert.Equal(t, yard.ErrDevelopmentGroundIsLocked, e.StakeBones(st, alice, 1, thousand, t0))
	env.yardOn(t, t0)
	assert.Equal(t, stakelock.ErrLengthsNotEqual, e.StakeBonesBatch(st, alice, []*big.Int{thousand}, []uint64{1, 2}, t0))
	assert.Equal(t, assets.ErrBalanceIsInsufficient, e.StakeBones(st, alice, 1, params.BoneUnits(2_000_000), t0))
	assert.Equal(t, ErrNotInDevelopmentGround, e.StakeBones(st, alice, 1, params.BoneUnits(1001), t0))

	require.NoError(t, e.Enter(st, alice, 1, 50*day, Farmer, t0))
	assert.Equal(t, ErrWrongMultiple, e.StakeBones(st, alice, 1, params.BoneUnits(1001), t0))
	assert.Equal(t, ErrWrongMultiple, e.StakeBones(st, alice, 1, new(big.Int), t0))
	assert.Equal(t, stakelock.ErrNotYourToken, e.StakeBones(st, bob, 1, thousand, t0))

	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(3000), t0))
	assertBig(t, params.BoneUnits(3000), env.bones.BalanceOf(st, e.Address()))
	assertBig(t, params.BoneUnits(3000), e.Info(st, 1).BonesStaked)
	entries := e.StakeEntries(st, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, t0, entries[0].Time)
}

// TestRewardScenario walks the reference scenario: 10 after a day, 25 after
// staking a boost unit, only 15 more over two days with the yard off for one.
func TestRewardScenario(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)

	require.NoError(t, e.Enter(st, alice, 1, 50*day, Mystic, t0))
	assertBig(t, new(big.Int), e.Reward(st, 1, t0))
	assertBig(t, params.BoneUnits(10), e.Reward(st, 1, t0+day))

	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(1000), t0+day))
	assertBig(t, params.BoneUnits(10), e.Reward(st, 1, t0+day))
	assertBig(t, params.BoneUnits(25), e.Reward(st, 1, t0+2*day))

	env.yardOff(t, t0+2*day)
	env.yardOn(t, t0+3*day)
	assertBig(t, params.BoneUnits(40), e.Reward(st, 1, t0+4*day))

	// the off day stays excluded for the rest of the lock
	end := t0 + 50*day
	want := params.BoneUnits(10 + 48*15)
	assertBig(t, want, e.Reward(st, 1, end))

	before := env.bones.BalanceOf(st, alice)
	got, err := e.ClaimReward(st, alice, 1, false, end)
	require.NoError(t, err)
	assertBig(t, want, got)
	assertBig(t, new(big.Int).Add(before, want), env.bones.BalanceOf(st, alice))
	assert.Equal(t, end, e.Info(st, 1).LastRewardTime)

	supply := env.bones.TotalSupply(st)
	_, err = e.ClaimReward(st, alice, 1, false, end)
	assert.Equal(t, stakelock.ErrZeroBalanceError, err)
	assertBig(t, supply, env.bones.TotalSupply(st))
}

func TestNoRewardWhileYardOff(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)
	require.NoError(t, e.Enter(st, alice, 1, 50*day, Mystic, t0))
	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(5000), t0))
	env.yardOff(t, t0)

	for d := uint64(1); d <= 10; d++ {
		assertBig(t, new(big.Int), e.Reward(st, 1, t0+d*day+day/2), "day %d", d)
	}
	// skill keeps growing while the yard is off
	assertBig(t, skill(75000), e.PrimarySkill(st, 1, t0+10*day))
}

// TestNoRewardAfterSettlingWhileYardOff settles positions at arbitrary times
// inside an open off window: nothing accrues from there on, whatever the
// fraction of a day between the window start and the settlement.
func TestNoRewardAfterSettlingWhileYardOff(t *testing.T) {
	type step struct {
		at uint64
		do func(env *testEnv, now uint64) error
	}
	var (
		claim = func(env *testEnv, now uint64) error {
			_, err := env.e.ClaimReward(env.st, alice, 1, false, now)
			return err
		}
		removeMature = func(env *testEnv, now uint64) error {
			return env.e.RemoveBones(env.st, alice, 1, false, now)
		}
		removeSingle = func(env *testEnv, now uint64) error {
			return env.e.RemoveSingleStake(env.st, alice, 1, 0, now)
		}
	)
	tests := []struct {
		name  string
		offAt uint64
		steps []step
	}{
		{"claim then remove nothing mature", t0 + day/2, []step{{t0 + day, claim}, {t0 + day + 7*day/10, removeMature}}},
		{"remove nothing mature", t0 + day/3, []step{{t0 + day + day/2, removeMature}}},
		{"remove nothing mature twice", t0 + day/2, []step{{t0 + 7*day/10, removeMature}, {t0 + 2*day + day/5, removeMature}}},
		{"remove single stake", t0 + day/2, []step{{t0 + day + 9*day/10, removeSingle}}},
		{"claim inside the window", t0 + day + day/2, []step{{t0 + 3*day + day/4, claim}}},
		{"claim then remove single stake", t0 + day + day/2, []step{{t0 + 2*day + day/3, claim}, {t0 + 3*day + 4*day/5, removeSingle}}},
		{"settle at the window start", t0 + 2*day + day/4, []step{{t0 + 2*day + day/4, removeMature}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			st, e := env.st, env.e
			env.yardOn(t, t0)
			require.NoError(t, e.Enter(st, alice, 1, 50*day, Mystic, t0))
			require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(1000), t0))
			require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(1000), t0))
			env.yardOff(t, tt.offAt)

			var last uint64
			for _, s := range tt.steps {
				require.NoError(t, s.do(env, s.at))
				last = s.at
			}
			settled := e.Reward(st, 1, last)
			for d := uint64(0); d <= 5; d++ {
				for _, frac := range []uint64{0, day / 4, day / 2, 3 * day / 4, day - 1} {
					now := last + d*day + frac
					assertBig(t, settled, e.Reward(st, 1, now), "%d seconds after settlement", now-last)
				}
			}
			// a claim right after any settlement inside the window has nothing new to pay
			if settled.Sign() == 0 {
				_, err := e.ClaimReward(st, alice, 1, false, last+5*day+day/2)
				assert.Equal(t, stakelock.ErrZeroBalanceError, err)
			}
		})
	}
}

func TestClaimReward(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e

	assert.Equal(t, stakelock.ErrLengthsNotEqual, e.ClaimRewardBatch(st, alice, []uint64{1}, []bool{true, false}, t0))
	assert.Equal(t, stakelock.ErrNotYourToken, e.ClaimRewardBatch(st, alice, []uint64{1}, []bool{true}, t0))

	env.yardOn(t, t0)
	require.NoError(t, e.Enter(st, alice, 1, 150*day, Mystic, t0))
	assert.Equal(t, stakelock.ErrZeroBalanceError, e.ClaimRewardBatch(st, alice, []uint64{1}, []bool{false}, t0))
	assert.Equal(t, stakelock.ErrNotYourToken, e.ClaimRewardBatch(st, bob, []uint64{1}, []bool{false}, t0+day))

	// 3 days at 45 is below one bones multiple
	_, err := e.ClaimReward(st, alice, 1, true, t0+3*day)
	assert.Equal(t, ErrWrongMultiple, err)

	before := env.bones.BalanceOf(st, alice)
	reward, err := e.ClaimReward(st, alice, 1, true, t0+30*day)
	require.NoError(t, err)
	assertBig(t, params.BoneUnits(1350), reward)
	assertBig(t, new(big.Int).Add(before, params.BoneUnits(350)), env.bones.BalanceOf(st, alice))
	assertBig(t, params.BoneUnits(1000), e.Info(st, 1).BonesStaked)
	assertBig(t, params.BoneUnits(1000), env.bones.BalanceOf(st, e.Address()))
	require.Len(t, e.StakeEntries(st, 1), 1)

	// the restaked unit boosts the next claim
	reward, err = e.ClaimReward(st, alice, 1, true, t0+50*day)
	require.NoError(t, err)
	assertBig(t, params.BoneUnits(20*50), reward)
	assertBig(t, params.BoneUnits(2000), e.Info(st, 1).BonesStaked)
}

func TestPrimarySkill(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)

	ids := []uint64{1, 2, 3}
	require.NoError(t, e.EnterBatch(st, alice, ids, []uint64{50 * day, 150 * day, 100 * day}, []Kind{Mystic, Farmer, Fighter}, t0))
	assertBig(t, new(big.Int), e.PrimarySkill(st, 1, t0))
	thousand := params.BoneUnits(1000)
	require.NoError(t, e.StakeBonesBatch(st, alice, []*big.Int{thousand, thousand, thousand}, ids, t0))

	assertBig(t, skill(1500), e.PrimarySkill(st, 1, t0+day))
	env.yardOff(t, t0+day)
	assertBig(t, skill(6000), e.PrimarySkill(st, 1, t0+4*day))
	env.yardOn(t, t0+4*day)
	assertBig(t, skill(10500), e.PrimarySkill(st, 1, t0+7*day))

	require.NoError(t, e.RemoveBonesBatch(st, alice, ids, []bool{true, true, true}, t0+30*day))
	for i, id := range ids {
		skills := env.smols.Skills(st, id)
		for cat := range skills {
			want := new(big.Int)
			if cat == i {
				want = skill(45000)
			}
			assertBig(t, want, skills[cat], "id %d category %d", id, cat)
		}
	}
}

func TestRemoveBones(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e

	assert.Equal(t, stakelock.ErrLengthsNotEqual, e.RemoveBonesBatch(st, alice, []uint64{1}, []bool{true, false}, t0))
	env.yardOn(t, t0)
	require.NoError(t, e.EnterBatch(st, alice, []uint64{1, 3}, []uint64{50 * day, 150 * day}, []Kind{Mystic, Farmer}, t0))
	assert.Equal(t, stakelock.ErrZeroBalanceError, e.RemoveBones(st, alice, 3, true, t0))
	assert.Equal(t, stakelock.ErrNotYourToken, e.RemoveBones(st, bob, 3, true, t0))

	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(1000), t0))
	require.NoError(t, e.StakeBones(st, alice, 3, params.BoneUnits(2000), t0+day))

	now := t0 + 30*day
	require.NoError(t, e.RemoveBonesBatch(st, alice, []uint64{1, 3}, []bool{true, false}, now))
	assertBig(t, new(big.Int), e.Info(st, 1).BonesStaked)
	assert.Empty(t, e.StakeEntries(st, 1))
	assertBig(t, params.BoneUnits(2000), e.Info(st, 3).BonesStaked)

	supply := env.bones.TotalSupply(st)
	require.NoError(t, e.RemoveBones(st, alice, 3, true, now))
	assertBig(t, new(big.Int).Sub(supply, params.BoneUnits(1000)), env.bones.TotalSupply(st))
	assertBig(t, params.BoneUnits(999_000), env.bones.BalanceOf(st, alice))
	assertBig(t, new(big.Int), env.bones.BalanceOf(st, e.Address()))

	// reward accrued before the withdrawal is kept
	assertBig(t, params.BoneUnits(30*15), e.Reward(st, 1, now))
}

func TestRemoveSingleStake(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)
	require.NoError(t, e.Enter(st, alice, 1, 50*day, Mystic, t0))
	thousand := params.BoneUnits(1000)
	require.NoError(t, e.StakeBones(st, alice, 1, thousand, t0))
	require.NoError(t, e.StakeBones(st, alice, 1, thousand, t0+day))
	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(3000), t0+2*day))

	now := t0 + 30*day
	assert.Equal(t, stakelock.ErrNotYourToken, e.RemoveSingleStake(st, alice, 4, 1, now))
	assert.Equal(t, stakelock.ErrNotYourToken, e.RemoveSingleStake(st, bob, 1, 1, now))
	assert.Equal(t, ErrInvalidPos, e.RemoveSingleStake(st, alice, 1, 3, now))

	// the first entry is mature and the last one takes its place
	require.NoError(t, e.RemoveSingleStake(st, alice, 1, 0, now))
	entries := e.StakeEntries(st, 1)
	require.Len(t, entries, 2, spew.Sdump(entries))
	assert.Equal(t, t0+2*day, entries[0].Time)
	assert.Equal(t, t0+day, entries[1].Time)
	assertBig(t, params.BoneUnits(4000), e.Info(st, 1).BonesStaked)

	// an immature entry loses half
	supply := env.bones.TotalSupply(st)
	require.NoError(t, e.RemoveSingleStake(st, alice, 1, 1, now))
	assertBig(t, new(big.Int).Sub(supply, params.BoneUnits(500)), env.bones.TotalSupply(st))
	assertBig(t, params.BoneUnits(3000), e.Info(st, 1).BonesStaked)
	require.Len(t, e.StakeEntries(st, 1), 1)
}

func TestLeave(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e

	assert.Equal(t, stakelock.ErrNotYourToken, e.LeaveBatch(st, alice, []uint64{1}, t0))
	env.yardOn(t, t0)
	require.NoError(t, e.Enter(st, alice, 1, 50*day, Mystic, t0))
	require.NoError(t, e.StakeBones(st, alice, 1, params.BoneUnits(1000), t0))
	assert.Equal(t, stakelock.ErrNeandersmolsIsLocked, e.Leave(st, alice, 1, t0+50*day-1))

	before := env.bones.BalanceOf(st, alice)
	require.NoError(t, e.Leave(st, alice, 1, t0+50*day))
	assertBig(t, new(big.Int).Add(before, params.BoneUnits(1000+50*15)), env.bones.BalanceOf(st, alice))
	assert.Empty(t, e.StakedTokens(st, alice))
	assert.Nil(t, e.Info(st, 1))
	assert.Empty(t, e.StakeEntries(st, 1))
	assert.False(t, stakelock.IsLocked(st, 1))
	assert.NoError(t, env.smols.Transfer(st, alice, bob, 1))
}

func TestFeInfo(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)
	require.NoError(t, e.EnterBatch(st, alice, []uint64{1, 3}, []uint64{50 * day, 150 * day}, []Kind{Mystic, Farmer}, t0))
	thousand := params.BoneUnits(1000)
	require.NoError(t, e.StakeBonesBatch(st, alice, []*big.Int{thousand, thousand}, []uint64{1, 3}, t0))

	res := e.FeInfo(st, alice, t0+day+1)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(148), res[1].TimeLeft)
	assert.Equal(t, uint64(48), res[0].TimeLeft)
	assert.Equal(t, uint64(86401), res[0].DaysStaked)
	assertBig(t, skill(1500), res[1].SkillLevel)
	assertBig(t, params.BoneUnits(15), res[0].BonesAccrued)
	assert.Equal(t, Farmer, res[1].Ground)
	assertBig(t, thousand, res[0].TotalBonesStaked)
	assertBig(t, thousand, res[1].TotalBonesStaked)

	bones := e.CalculateBones(st, alice)
	require.Len(t, bones, 2)
	assertBig(t, thousand, bones[0])
}

// TestEscrowInvariant checks after random operations that every position's
// stake equals the sum of its entries and that the escrow holds exactly the
// staked total.
func TestEscrowInvariant(t *testing.T) {
	env := newTestEnv(t)
	st, e := env.st, env.e
	env.yardOn(t, t0)
	ids := []uint64{1, 2, 3}
	require.NoError(t, e.EnterBatch(st, alice, ids, []uint64{50 * day, 100 * day, 150 * day}, []Kind{Mystic, Farmer, Fighter}, t0))

	rng := rand.New(rand.NewSource(1))
	now := t0
	for step := 0; step < 200; step++ {
		now += uint64(rng.Int63n(int64(3 * day)))
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(4) {
		case 0:
			_ = e.StakeBones(st, alice, id, params.BoneUnits(1000*(rng.Int63n(3)+1)), now)
		case 1:
			_, _ = e.ClaimReward(st, alice, id, rng.Intn(2) == 0, now)
		case 2:
			_ = e.RemoveBones(st, alice, id, rng.Intn(2) == 0, now)
		case 3:
			if n := uint64(len(e.StakeEntries(st, id))); n > 0 {
				require.NoError(t, e.RemoveSingleStake(st, alice, id, uint64(rng.Int63n(int64(n))), now))
			}
		}

		total := new(big.Int)
		for _, id := range ids {
			sum := new(big.Int)
			for _, en := range e.StakeEntries(st, id) {
				sum.Add(sum, en.Amount)
			}
			staked := e.Info(st, id).BonesStaked
			require.Zero(t, sum.Cmp(staked), "step %d id %d: %s", step, id, spew.Sdump(e.StakeEntries(st, id)))
			total.Add(total, staked)
		}
		require.Zero(t, total.Cmp(env.bones.BalanceOf(st, e.Address())), "step %d", step)
	}
}

func TestHandler(t *testing.T) {
	env := newTestEnv(t)
	st := env.st
	h := NewHandler(env.e)
	env.yardOn(t, t0)

	run := func(kind sysaction.ActionKind, payload interface{}, now uint64) error {
		data, err := sysaction.MakeSysAction(kind, payload)
		require.NoError(t, err)
		sa, err := sysaction.Decode(data)
		require.NoError(t, err)
		require.True(t, h.CanHandle(sa.Action))
		return h.Handle(&sysaction.Context{From: alice, StateDB: st, Time: now}, sa)
	}

	require.NoError(t, run(sysaction.ActionDevEnter, sysaction.DevEnterPayload{
		TokenIDs: []uint64{1}, LockPeriods: []uint64{50 * day}, Grounds: []uint8{2},
	}, t0))
	assert.Equal(t, Fighter, env.e.Info(st, 1).Ground)

	require.NoError(t, run(sysaction.ActionDevStakeBones, sysaction.DevStakeBonesPayload{
		Amounts: []string{params.BoneUnits(2000).String()}, TokenIDs: []uint64{1},
	}, t0))
	assert.ErrorIs(t, run(sysaction.ActionDevStakeBones, sysaction.DevStakeBonesPayload{
		Amounts: []string{"lots"}, TokenIDs: []uint64{1},
	}, t0), sysaction.ErrInvalidAmount)

	require.NoError(t, run(sysaction.ActionDevClaim, sysaction.DevClaimPayload{TokenIDs: []uint64{1}, Restake: []bool{false}}, t0+day))
	err := run(sysaction.ActionDevRemoveSingle, sysaction.DevRemoveSinglePayload{TokenID: 1, Index: 5}, t0+day)
	assert.Equal(t, "InvalidPos", err.Error())
	require.NoError(t, run(sysaction.ActionDevRemoveBones, sysaction.DevRemoveBonesPayload{TokenIDs: []uint64{1}, All: []bool{true}}, t0+day))
	require.NoError(t, run(sysaction.ActionDevLeave, sysaction.TokenIDsPayload{TokenIDs: []uint64{1}}, t0+50*day))

	var names []string
	for _, l := range st.GetLogs(common.Hash{}) {
		ev, err := sysaction.DecodeLog(l)
		require.NoError(t, err)
		if ev.Facility == env.e.Address() {
			names = append(names, ev.Name)
			require.NotNil(t, ev.TokenID)
			assert.Equal(t, uint64(1), *ev.TokenID)
		}
	}
	assert.Equal(t, []string{
		"EnterDevelopmentGround",
		"StakeBonesInDevelopmentGround",
		"ClaimDevelopmentGroundBonesReward",
		"RemoveBones",
		"LeaveDevelopmentGround",
	}, names)
}
