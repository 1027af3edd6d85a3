package laborground

import (
	"encoding/binary"

	"github.com/smolage/gbones/crypto"
)

// Randomizer supplies the rolls of collectible claims.
type Randomizer interface {
	Roll(time, tokenID, nonce uint64) uint64
}

// KeccakRandomizer derives rolls from keccak256(time || tokenID || nonce).
// Rolls are predictable by anyone who knows the block time.
type KeccakRandomizer struct{}

// Roll implements Randomizer.
func (KeccakRandomizer) Roll(time, tokenID, nonce uint64) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:], time)
	binary.BigEndian.PutUint64(buf[8:], tokenID)
	binary.BigEndian.PutUint64(buf[16:], nonce)
	return binary.BigEndian.Uint64(crypto.Keccak256(buf[:])[:8])
}
