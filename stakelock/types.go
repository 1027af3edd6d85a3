// Package stakelock records which facility, if any, holds each creature, and
// the tokens every owner has open in each facility. A creature is open in at
// most one facility at a time.
package stakelock

import "errors"

// Facility identifies where a creature is locked.
type Facility uint8

const (
	None Facility = iota
	Development
	Caves
	Labor
)

// Facilities lists every lockable facility.
var Facilities = []Facility{Development, Caves, Labor}

func (f Facility) String() string {
	switch f {
	case None:
		return "none"
	case Development:
		return "development"
	case Caves:
		return "caves"
	case Labor:
		return "labor"
	}
	return "unknown"
}

// Errors shared by every facility. The messages are the reasons surfaced to
// callers verbatim.
var (
	ErrNotYourToken         = errors.New("NotYourToken")
	ErrTokenIsStaked        = errors.New("TokenIsStaked")
	ErrNeandersmolsIsLocked = errors.New("NeandersmolsIsLocked")
	ErrLengthsNotEqual      = errors.New("LengthsNotEqual")
	ErrZeroBalanceError     = errors.New("ZeroBalanceError")
	ErrNotLockedHere        = errors.New("stakelock: token not locked in this facility")
)
