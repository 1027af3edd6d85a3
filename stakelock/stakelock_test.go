package stakelock

import (
	"testing"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/state"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *state.StateDB {
	t.Helper()
	s, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()))
	require.NoError(t, err)
	return s
}

func TestExclusiveAcrossFacilities(t *testing.T) {
	st := newTestState(t)
	alice := common.Address{0xa}

	require.NoError(t, Acquire(st, Development, alice, 1))
	for _, f := range Facilities {
		require.ErrorIs(t, Acquire(st, f, alice, 1), ErrTokenIsStaked, "facility %s", f)
	}
	require.Equal(t, Development, FacilityOf(st, 1))
	require.True(t, Checker{}.IsLocked(st, 1))

	require.ErrorIs(t, Release(st, Caves, alice, 1), ErrNotLockedHere)
	require.NoError(t, Release(st, Development, alice, 1))
	require.False(t, IsLocked(st, 1))

	require.NoError(t, Acquire(st, Labor, alice, 1))
	require.Equal(t, Labor, FacilityOf(st, 1))
}

func TestOwnedIndex(t *testing.T) {
	st := newTestState(t)
	alice, bob := common.Address{0xa}, common.Address{0xb}

	require.NoError(t, Acquire(st, Caves, alice, 2))
	require.NoError(t, Acquire(st, Caves, alice, 4))
	require.NoError(t, Acquire(st, Caves, bob, 5))
	require.NoError(t, Acquire(st, Labor, alice, 6))

	require.Equal(t, []uint64{2, 4}, Owned(st, Caves, alice))
	require.Equal(t, []uint64{5}, Owned(st, Caves, bob))
	require.Equal(t, []uint64{6}, Owned(st, Labor, alice))

	require.NoError(t, Release(st, Caves, alice, 2))
	require.Equal(t, []uint64{4}, Owned(st, Caves, alice))
	require.Empty(t, Owned(st, Development, alice))
}

func TestFacilityString(t *testing.T) {
	require.Equal(t, "development", Development.String())
	require.Equal(t, "none", None.String())
	require.Equal(t, "unknown", Facility(9).String())
}

func TestAtomic(t *testing.T) {
	st := newTestState(t)
	alice := common.Address{0xa}

	// the third acquire collides with the first and undoes the batch
	ids := []uint64{1, 2, 1}
	err := Atomic(st, len(ids), func(i int) error {
		return Acquire(st, Caves, alice, ids[i])
	})
	require.ErrorIs(t, err, ErrTokenIsStaked)
	require.False(t, IsLocked(st, 1))
	require.False(t, IsLocked(st, 2))
	require.Empty(t, Owned(st, Caves, alice))

	require.NoError(t, Atomic(st, 2, func(i int) error {
		return Acquire(st, Caves, alice, ids[i])
	}))
	require.Equal(t, []uint64{1, 2}, Owned(st, Caves, alice))
}
