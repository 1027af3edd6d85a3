package core

import "errors"

var (
	// ErrNoGenesis is returned when there is no Genesis Block.
	ErrNoGenesis = errors.New("genesis not found in chain")

	// ErrBlockTimeTooOld is returned when a block would be sealed with a
	// timestamp before its parent's.
	ErrBlockTimeTooOld = errors.New("block timestamp before parent")

	// ErrStateUnavailable is returned for state other than the head's; only
	// the latest state is retained.
	ErrStateUnavailable = errors.New("state not available")
)

// List of evm-call-message pre-checking errors. All transactions will
// be pre-checked before execution. If any invalidation detected, the corresponding
// error should be returned which is defined here.
//
// - If the pre-checking happens in the miner, then the transaction won't be packed.
// - If the pre-checking happens in the block processing procedure, then a "BAD BLOCK"
// error should be emitted.
var (
	// ErrNonceTooLow is returned if the nonce of a transaction is lower than the
	// one present in the local chain.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned if the nonce of a transaction is higher than the
	// next one expected based on the local chain.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrNonceMax is returned if the nonce of a transaction sender account has
	// maximum allowed value and would become invalid if incremented.
	ErrNonceMax = errors.New("nonce has max value")

	// ErrEmptyAction is returned for a transaction without a system action.
	ErrEmptyAction = errors.New("transaction carries no system action")
)
