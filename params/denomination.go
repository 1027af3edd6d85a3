package params

import "math/big"

// These are the multipliers for bones denominations.
// Example: To get the wei value of an amount in 'bones', use
//
//	new(big.Int).Mul(value, big.NewInt(params.Bone))
const (
	Wei  = 1
	GWei = 1e9
	Bone = 1e18
)

// BoneUnits returns n whole bones expressed in wei.
func BoneUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(Bone))
}
