package params

import "time"

// Day is the accounting day of every facility, in seconds of block time.
const Day uint64 = 86400

// UnixToTime converts a block timestamp (seconds) to time.Time.
func UnixToTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// WholeDays returns the number of complete days between from and to, or zero
// when to is not after from.
func WholeDays(from, to uint64) uint64 {
	if to <= from {
		return 0
	}
	return (to - from) / Day
}
