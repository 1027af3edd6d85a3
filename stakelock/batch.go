package stakelock

import "github.com/smolage/gbones/core/vm"

// Atomic runs fn for every index in [0,n) and reverts db to its prior state
// if any call fails. Facilities use it for their batch entry points.
func Atomic(db vm.StateDB, n int, fn func(i int) error) error {
	snap := db.Snapshot()
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			db.RevertToSnapshot(snap)
			return err
		}
	}
	return nil
}
