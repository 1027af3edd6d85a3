package yard

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/state"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/sysaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = params.Day

var (
	alice = common.Address{0x01}
	bob   = common.Address{0x02}
)

func newTestPool(t *testing.T, threshold int64) (*state.StateDB, *Pool, *assets.Bones) {
	t.Helper()
	st, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()))
	require.NoError(t, err)
	bones := assets.NewBones(params.BonesAddress)
	for _, a := range []common.Address{alice, bob} {
		require.NoError(t, bones.Mint(st, a, params.BoneUnits(1_000_000)))
	}
	p := New(params.YardConfig{MinimumThreshold: params.BoneUnits(threshold)}, bones)
	p.Init(st, 0)
	return st, p, bones
}

func TestStakeUnstake(t *testing.T) {
	st, p, bones := newTestPool(t, 100)
	require.False(t, p.IsOn(st))

	require.NoError(t, p.Stake(st, alice, params.BoneUnits(60), day))
	require.NoError(t, p.Stake(st, bob, params.BoneUnits(40), day))
	assert.True(t, p.IsOn(st))
	assert.Equal(t, params.BoneUnits(100), p.TotalStaked(st))
	assert.Equal(t, params.BoneUnits(100), bones.BalanceOf(st, p.Address()))
	assert.Equal(t, params.BoneUnits(999_940), bones.BalanceOf(st, alice))

	assert.Equal(t, assets.ErrBalanceIsInsufficient, p.Unstake(st, bob, params.BoneUnits(41), 2*day))
	assert.Equal(t, stakelock.ErrZeroBalanceError, p.Stake(st, bob, new(big.Int), 2*day))
	assert.Equal(t, assets.ErrBalanceIsInsufficient, p.Stake(st, bob, params.BoneUnits(2_000_000), 2*day))

	require.NoError(t, p.Unstake(st, bob, params.BoneUnits(40), 2*day))
	assert.False(t, p.IsOn(st))
	assert.Equal(t, params.BoneUnits(1_000_000), bones.BalanceOf(st, bob))
	since, off := p.OffSince(st)
	assert.True(t, off)
	assert.Equal(t, 2*day, since)
}

func TestDaysOff(t *testing.T) {
	st, p, _ := newTestPool(t, 100)

	// off since genesis
	assert.Equal(t, uint64(0), p.DaysOff(st, day-1))
	assert.Equal(t, uint64(3), p.DaysOff(st, 3*day+5))

	// on at 3.5 days folds the three whole days
	require.NoError(t, p.Stake(st, alice, params.BoneUnits(100), 3*day+day/2))
	assert.Equal(t, uint64(3), p.CumulativeDaysOff(st))
	assert.Equal(t, uint64(3), p.DaysOff(st, 10*day))

	// off again for a day and a half
	require.NoError(t, p.Unstake(st, alice, params.BoneUnits(1), 10*day))
	assert.Equal(t, uint64(4), p.DaysOff(st, 11*day+day/2))
	require.NoError(t, p.Stake(st, alice, params.BoneUnits(1), 11*day+day/2))
	assert.Equal(t, uint64(4), p.CumulativeDaysOff(st))
	assert.Equal(t, uint64(4), p.DaysOff(st, 20*day))
}

func TestZeroThresholdAlwaysOn(t *testing.T) {
	st, p, _ := newTestPool(t, 0)
	assert.True(t, p.IsOn(st))
	assert.Equal(t, uint64(0), p.DaysOff(st, 100*day))
}

// TestInvariants drives random stakes and unstakes and checks that the pool
// total matches the participants' stakes, the on/off flag matches the
// threshold and the days-off counter never decreases.
func TestInvariants(t *testing.T) {
	st, p, _ := newTestPool(t, 500)
	rng := rand.New(rand.NewSource(7))
	users := []common.Address{alice, bob}

	var now, lastDaysOff uint64
	for i := 0; i < 300; i++ {
		now += uint64(rng.Int63n(int64(2 * day)))
		who := users[rng.Intn(len(users))]
		amount := params.BoneUnits(rng.Int63n(400) + 1)
		if rng.Intn(2) == 0 {
			_ = p.Stake(st, who, amount, now)
		} else {
			_ = p.Unstake(st, who, amount, now)
		}

		sum := new(big.Int)
		for _, u := range users {
			sum.Add(sum, p.StakedBy(st, u))
		}
		require.Equal(t, 0, sum.Cmp(p.TotalStaked(st)), "step %d", i)
		require.Equal(t, p.TotalStaked(st).Cmp(p.Threshold()) >= 0, p.IsOn(st), "step %d", i)

		daysOff := p.DaysOff(st, now)
		require.GreaterOrEqual(t, daysOff, lastDaysOff, "step %d", i)
		lastDaysOff = daysOff
	}
}

func TestHandler(t *testing.T) {
	st, p, _ := newTestPool(t, 100)
	h := NewHandler(p)

	run := func(kind sysaction.ActionKind, amount string) error {
		data, err := sysaction.MakeSysAction(kind, sysaction.AmountPayload{Amount: amount})
		require.NoError(t, err)
		sa, err := sysaction.Decode(data)
		require.NoError(t, err)
		return h.Handle(&sysaction.Context{From: alice, StateDB: st, Time: 2 * day}, sa)
	}
	require.True(t, h.CanHandle(sysaction.ActionYardUnstake))
	require.False(t, h.CanHandle(sysaction.ActionDevEnter))

	require.NoError(t, run(sysaction.ActionYardStake, params.BoneUnits(100).String()))
	assert.True(t, p.IsOn(st))
	assert.ErrorIs(t, run(sysaction.ActionYardStake, "x"), sysaction.ErrInvalidAmount)
	assert.Equal(t, "BalanceIsInsufficient", run(sysaction.ActionYardUnstake, params.BoneUnits(101).String()).Error())

	names := map[string]int{}
	for _, l := range st.Logs() {
		ev, err := sysaction.DecodeLog(l)
		require.NoError(t, err)
		names[ev.Name]++
	}
	assert.Equal(t, map[string]int{"YardOn": 1, "YardStake": 1}, names)

	info := p.Info(st, 2*day)
	assert.True(t, info.On)
	assert.Nil(t, info.OffSince)
	assert.Equal(t, uint64(2), info.CumulativeDaysOff)
}

func TestStatusEventsFollowStakeEvents(t *testing.T) {
	st, p, _ := newTestPool(t, 100)
	names := func(tx common.Hash) []string {
		var out []string
		for _, l := range st.GetLogs(tx) {
			ev, err := sysaction.DecodeLog(l)
			require.NoError(t, err)
			out = append(out, ev.Name)
		}
		return out
	}

	st.Prepare(common.Hash{1}, 0)
	require.NoError(t, p.Stake(st, alice, params.BoneUnits(60), day))
	assert.Equal(t, []string{"YardStake"}, names(common.Hash{1}))

	st.Prepare(common.Hash{2}, 1)
	require.NoError(t, p.Stake(st, bob, params.BoneUnits(40), 2*day))
	assert.Equal(t, []string{"YardStake", "YardOn"}, names(common.Hash{2}))

	st.Prepare(common.Hash{3}, 2)
	require.NoError(t, p.Unstake(st, alice, params.BoneUnits(1), 3*day))
	assert.Equal(t, []string{"YardUnstake", "YardOff"}, names(common.Hash{3}))

	st.Prepare(common.Hash{4}, 3)
	require.NoError(t, p.Unstake(st, bob, params.BoneUnits(40), 4*day))
	assert.Equal(t, []string{"YardUnstake"}, names(common.Hash{4}))

	logs := st.GetLogs(common.Hash{3})
	ev, err := sysaction.DecodeLog(logs[0])
	require.NoError(t, err)
	assert.Equal(t, alice, ev.Owner)
	assert.JSONEq(t, `{"amount":"`+params.BoneUnits(1).String()+`","totalStaked":"`+params.BoneUnits(99).String()+`"}`, string(ev.Fields))
}

func TestGate(t *testing.T) {
	st, p, _ := newTestPool(t, 100)
	assert.Equal(t, ErrDevelopmentGroundIsLocked, Gate(p, st))
	require.NoError(t, p.Stake(st, alice, params.BoneUnits(100), day))
	assert.NoError(t, Gate(p, st))
}
