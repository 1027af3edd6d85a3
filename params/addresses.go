package params

import "github.com/smolage/gbones/common"

// System addresses: fixed, well-known accounts whose storage slots hold the
// state of each ledger and facility.
var (
	// SystemActionAddress is the sentinel address logs of the dispatcher
	// itself are emitted under.
	SystemActionAddress = common.HexToAddress("0x0000000000000000000000000000000042304e30") // "B0N0"

	// BonesAddress stores the fungible bones ledger.
	BonesAddress = common.HexToAddress("0x0000000000000000000000000000000042304e31")

	// SmolsAddress stores the creature registry, common sense and skills.
	SmolsAddress = common.HexToAddress("0x0000000000000000000000000000000042304e32")

	// AnimalsAddress stores the animal registry.
	AnimalsAddress = common.HexToAddress("0x0000000000000000000000000000000042304e33")

	// SuppliesAddress stores the supply item ledger.
	SuppliesAddress = common.HexToAddress("0x0000000000000000000000000000000042304e34")

	// ConsumablesAddress stores the collectible item ledger.
	ConsumablesAddress = common.HexToAddress("0x0000000000000000000000000000000042304e35")

	// StakeLockAddress stores the facility tag of every locked creature.
	StakeLockAddress = common.HexToAddress("0x0000000000000000000000000000000042304e36")

	// YardAddress stores the pits pool and its days-off history.
	YardAddress = common.HexToAddress("0x0000000000000000000000000000000042304e37")

	// DevGroundAddress stores the Development Ground positions. Bones staked
	// in positions are escrowed here.
	DevGroundAddress = common.HexToAddress("0x0000000000000000000000000000000042304e38")

	// CavesAddress stores the Caves positions.
	CavesAddress = common.HexToAddress("0x0000000000000000000000000000000042304e39")

	// LaborGroundAddress stores the Labor Ground positions. Supplies and
	// animals brought in are escrowed here.
	LaborGroundAddress = common.HexToAddress("0x0000000000000000000000000000000042304e3a")
)
