package assets

import (
	"errors"
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/stakelock"
)

var errNotOwner = stakelock.ErrNotYourToken

// ErrInvalidSkill is returned for skill categories other than mystics,
// farmers and fighters.
var ErrInvalidSkill = errors.New("assets: invalid skill category")

// Smols is the creature registry: ownership, common sense and the skill
// record the Development Ground grows.
type Smols struct {
	registry
	locks Locker
}

// NewSmols returns the registry stored at addr. Transfers of creatures locks
// reports as open are refused.
func NewSmols(addr common.Address, locks Locker) *Smols {
	return &Smols{registry: registry{addr: addr, name: "smols"}, locks: locks}
}

// Address returns the registry's system address.
func (s *Smols) Address() common.Address { return s.addr }

func (s *Smols) commonSenseSlot(id uint64) common.Hash {
	return kvstore.Slot("smols.commonSense", kvstore.Key(id))
}

func (s *Smols) skillSlot(id uint64, category uint8) common.Hash {
	return kvstore.Slot("smols.skill", kvstore.Key(id), []byte{category})
}

// Mint creates a creature with the given common sense and returns its id.
func (s *Smols) Mint(db vm.StateDB, to common.Address, commonSense uint64) (uint64, error) {
	id, err := s.mint(db, to)
	if err != nil {
		return 0, err
	}
	kvstore.WriteUint64(db, s.addr, s.commonSenseSlot(id), commonSense)
	return id, nil
}

// Transfer moves a creature. Creatures open in a facility cannot move.
func (s *Smols) Transfer(db vm.StateDB, from, to common.Address, id uint64) error {
	if s.locks != nil && s.locks.IsLocked(db, id) {
		return stakelock.ErrTokenIsStaked
	}
	return s.transfer(db, from, to, id)
}

// CommonSense returns the creature's common sense score.
func (s *Smols) CommonSense(db vm.StateDB, id uint64) uint64 {
	return kvstore.ReadUint64(db, s.addr, s.commonSenseSlot(id))
}

// SetCommonSense overwrites the creature's common sense score.
func (s *Smols) SetCommonSense(db vm.StateDB, id uint64, cs uint64) error {
	if s.OwnerOf(db, id) == (common.Address{}) {
		return ErrInvalidTokenId
	}
	kvstore.WriteUint64(db, s.addr, s.commonSenseSlot(id), cs)
	return nil
}

// Skill returns the creature's skill in category, scaled by 1e18.
func (s *Smols) Skill(db vm.StateDB, id uint64, category uint8) *big.Int {
	return kvstore.ReadBig(db, s.addr, s.skillSlot(id, category))
}

// Skills returns the mystics, farmers and fighters skills of a creature.
func (s *Smols) Skills(db vm.StateDB, id uint64) [3]*big.Int {
	return [3]*big.Int{
		s.Skill(db, id, SkillMystics),
		s.Skill(db, id, SkillFarmers),
		s.Skill(db, id, SkillFighters),
	}
}

// AddSkill credits amount to the creature's skill in category. Unknown
// categories are ignored.
func (s *Smols) AddSkill(db vm.StateDB, id uint64, category uint8, amount *big.Int) {
	if category > SkillFighters || amount == nil || amount.Sign() <= 0 {
		return
	}
	cur := s.Skill(db, id, category)
	kvstore.WriteBig(db, s.addr, s.skillSlot(id, category), cur.Add(cur, amount))
}

// Animals is the animal registry. Animals are brought into the Labor Ground
// to raise its output.
type Animals struct {
	registry
}

// NewAnimals returns the registry stored at addr.
func NewAnimals(addr common.Address) *Animals {
	return &Animals{registry: registry{addr: addr, name: "animals"}}
}

// Address returns the registry's system address.
func (a *Animals) Address() common.Address { return a.addr }

// Mint creates an animal and returns its id.
func (a *Animals) Mint(db vm.StateDB, to common.Address) (uint64, error) {
	return a.mint(db, to)
}

// Transfer moves an animal.
func (a *Animals) Transfer(db vm.StateDB, from, to common.Address, id uint64) error {
	return a.transfer(db, from, to, id)
}
