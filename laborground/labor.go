// Package laborground implements the Labor Ground. Creatures with little
// common sense are put to work at a job, paying one supply item on entry, and
// periodically bring back collectibles rolled from the job's drop table. An
// animal brought along earns extra rolls.
package laborground

import (
	"errors"

	"github.com/smolage/gbones/assets"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
	"github.com/smolage/gbones/log"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/stakelock"
	"github.com/smolage/gbones/yard"
)

// Errors returned by the Labor Ground. The messages are the reasons surfaced
// to callers verbatim.
var (
	ErrCsToHigh               = errors.New("CsToHigh")
	ErrInvalidTokenForThisJob = errors.New("InvalidTokenForThisJob")
	ErrCannotClaimNow         = errors.New("CannotClaimNow")
	ErrAnimalAlreadyIn        = errors.New("AnimalAlreadyInLaborGround")
)

// Position is the record of a creature in the Labor Ground.
type Position struct {
	Owner     common.Address `json:"owner"`
	Job       uint8          `json:"job"`
	SupplyID  uint64         `json:"supplyId"`
	LockTime  uint64         `json:"lockTime"` // entry time
	LastClaim uint64         `json:"lastClaim"`
	AnimalID  uint64         `json:"animalId"`
	HasAnimal bool           `json:"hasAnimal"`
}

// FeInfo is the per-creature summary shown to an owner.
type FeInfo struct {
	TokenID   uint64 `json:"tokenId"`
	Job       uint8  `json:"job"`
	SupplyID  uint64 `json:"supplyId"`
	AnimalID  uint64 `json:"animalId"`
	HasAnimal bool   `json:"hasAnimal"`
	TimeLeft  uint64 `json:"timeLeft"` // seconds until the next claim
}

// Engine executes Labor Ground operations. Supplies and animals are
// escrowed by the engine's system address, which is also the only minter of
// consumables.
type Engine struct {
	addr        common.Address
	cfg         params.LaborConfig
	catalog     *Catalog
	rand        Randomizer
	yard        yard.DaysOffReader
	smols       assets.Creatures
	animals     assets.NonFungible
	supplies    assets.MultiToken
	consumables assets.MultiToken
}

// New returns the Labor Ground stored at params.LaborGroundAddress. A nil
// randomizer selects KeccakRandomizer.
func New(cfg params.LaborConfig, catalog *Catalog, rnd Randomizer, y yard.DaysOffReader, l *assets.Ledgers) *Engine {
	if rnd == nil {
		rnd = KeccakRandomizer{}
	}
	return &Engine{
		addr:        params.LaborGroundAddress,
		cfg:         cfg,
		catalog:     catalog,
		rand:        rnd,
		yard:        y,
		smols:       l.Smols,
		animals:     l.Animals,
		supplies:    l.Supplies,
		consumables: l.Consumables,
	}
}

// Address returns the Labor Ground's system address.
func (e *Engine) Address() common.Address { return e.addr }

// Catalog returns the collectible catalog in use.
func (e *Engine) Catalog() *Catalog { return e.catalog }

var nonceSlot = kvstore.Slot("labor.rollNonce")

func slot(id uint64, name string) common.Hash {
	return kvstore.FieldSlot(kvstore.Slot("labor.position", kvstore.Key(id)), name)
}

var positionFields = []string{"owner", "job", "supply", "lockTime", "lastClaim", "animal", "hasAnimal"}

// Info returns the position of id; absent positions read as the zero value.
func (e *Engine) Info(db vm.StateDB, id uint64) Position {
	return Position{
		Owner:     kvstore.ReadAddress(db, e.addr, slot(id, "owner")),
		Job:       uint8(kvstore.ReadUint64(db, e.addr, slot(id, "job"))),
		SupplyID:  kvstore.ReadUint64(db, e.addr, slot(id, "supply")),
		LockTime:  kvstore.ReadUint64(db, e.addr, slot(id, "lockTime")),
		LastClaim: kvstore.ReadUint64(db, e.addr, slot(id, "lastClaim")),
		AnimalID:  kvstore.ReadUint64(db, e.addr, slot(id, "animal")),
		HasAnimal: kvstore.ReadBool(db, e.addr, slot(id, "hasAnimal")),
	}
}

func (e *Engine) owned(db vm.StateDB, owner common.Address, id uint64) (Position, error) {
	p := e.Info(db, id)
	if p.Owner == (common.Address{}) || p.Owner != owner {
		return p, stakelock.ErrNotYourToken
	}
	return p, nil
}

// Enter puts a creature to work at job, escrowing one supplyID item.
func (e *Engine) Enter(db vm.StateDB, owner common.Address, id, supplyID uint64, job uint8, now uint64) error {
	// ── Validation phase ─────────────────────────────────────────────────────
	if err := yard.Gate(e.yard, db); err != nil {
		return err
	}
	if e.smols.OwnerOf(db, id) != owner {
		return stakelock.ErrNotYourToken
	}
	if e.smols.CommonSense(db, id) >= e.cfg.MaxCommonSense {
		return ErrCsToHigh
	}
	j, ok := e.catalog.job(job)
	if !ok || j.Supply != supplyID {
		return ErrInvalidTokenForThisJob
	}
	if e.supplies.BalanceOf(db, owner, supplyID) == 0 {
		return assets.ErrBalanceIsInsufficient
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	if err := stakelock.Acquire(db, stakelock.Labor, owner, id); err != nil {
		return err
	}
	if err := e.supplies.Transfer(db, owner, e.addr, supplyID, 1); err != nil {
		return err
	}
	kvstore.WriteAddress(db, e.addr, slot(id, "owner"), owner)
	kvstore.WriteUint64(db, e.addr, slot(id, "job"), uint64(job))
	kvstore.WriteUint64(db, e.addr, slot(id, "supply"), supplyID)
	kvstore.WriteUint64(db, e.addr, slot(id, "lockTime"), now)
	kvstore.WriteUint64(db, e.addr, slot(id, "lastClaim"), now)
	EventEnter.Emit(db, e.addr, owner, enterLog{Job: job, SupplyID: supplyID}, id)
	log.Debug("Entered labor ground", "id", id, "owner", owner, "job", j.Name)
	return nil
}

// BringInAnimal escrows an animal with the creature's position.
func (e *Engine) BringInAnimal(db vm.StateDB, owner common.Address, id, animalID uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if p.HasAnimal {
		return ErrAnimalAlreadyIn
	}
	if err := e.animals.Transfer(db, owner, e.addr, animalID); err != nil {
		return err
	}
	kvstore.WriteUint64(db, e.addr, slot(id, "animal"), animalID)
	kvstore.WriteBool(db, e.addr, slot(id, "hasAnimal"), true)
	EventBringAnimal.Emit(db, e.addr, owner, animalLog{AnimalID: animalID}, id)
	return nil
}

// RemoveAnimal returns the position's animal to its owner.
func (e *Engine) RemoveAnimal(db vm.StateDB, owner common.Address, id uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if !p.HasAnimal {
		return stakelock.ErrNotYourToken
	}
	if err := e.animals.Transfer(db, e.addr, owner, p.AnimalID); err != nil {
		return err
	}
	kvstore.Clear(db, e.addr, slot(id, "animal"), slot(id, "hasAnimal"))
	EventRemoveAnimal.Emit(db, e.addr, owner, animalLog{AnimalID: p.AnimalID}, id)
	return nil
}

// Claim rolls the job's drop table and mints the collectibles found. It is
// allowed once per cooldown.
func (e *Engine) Claim(db vm.StateDB, owner common.Address, id uint64, now uint64) ([]uint64, error) {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return nil, err
	}
	if now < p.LastClaim+e.cfg.Cooldown {
		return nil, ErrCannotClaimNow
	}
	j, ok := e.catalog.job(p.Job)
	if !ok {
		return nil, ErrInvalidTokenForThisJob
	}
	rolls := uint64(1)
	if p.HasAnimal {
		rolls += e.cfg.AnimalBonusRolls
	}
	nonce := kvstore.ReadUint64(db, e.addr, nonceSlot)
	var found []uint64
	for i := uint64(0); i < rolls; i++ {
		c := j.pick(e.rand.Roll(now, id, nonce))
		nonce++
		if c == 0 {
			continue
		}
		if err := e.consumables.Mint(db, e.addr, owner, c, 1); err != nil {
			return nil, err
		}
		found = append(found, c)
	}
	kvstore.WriteUint64(db, e.addr, nonceSlot, nonce)
	kvstore.WriteUint64(db, e.addr, slot(id, "lastClaim"), now)
	EventClaim.Emit(db, e.addr, owner, claimLog{Rolls: rolls, Found: found}, id)
	log.Debug("Claimed collectables", "id", id, "rolls", rolls, "found", found)
	return found, nil
}

// Leave ends the creature's job after the lock, returning the escrowed
// supply and animal.
func (e *Engine) Leave(db vm.StateDB, owner common.Address, id uint64, now uint64) error {
	p, err := e.owned(db, owner, id)
	if err != nil {
		return err
	}
	if now < p.LockTime+e.cfg.LockPeriod {
		return stakelock.ErrNeandersmolsIsLocked
	}
	if err := e.supplies.Transfer(db, e.addr, owner, p.SupplyID, 1); err != nil {
		return err
	}
	if p.HasAnimal {
		if err := e.animals.Transfer(db, e.addr, owner, p.AnimalID); err != nil {
			return err
		}
	}
	if err := stakelock.Release(db, stakelock.Labor, owner, id); err != nil {
		return err
	}
	slots := make([]common.Hash, len(positionFields))
	for i, f := range positionFields {
		slots[i] = slot(id, f)
	}
	kvstore.Clear(db, e.addr, slots...)
	EventLeave.Emit(db, e.addr, owner, struct{}{}, id)
	log.Debug("Left labor ground", "id", id, "owner", owner)
	return nil
}

// StakedTokens returns the creatures owner has in the Labor Ground.
func (e *Engine) StakedTokens(db vm.StateDB, owner common.Address) []uint64 {
	return stakelock.Owned(db, stakelock.Labor, owner)
}

// FeInfo summarizes every creature owner has in the Labor Ground at now.
func (e *Engine) FeInfo(db vm.StateDB, owner common.Address, now uint64) []*FeInfo {
	ids := e.StakedTokens(db, owner)
	out := make([]*FeInfo, 0, len(ids))
	for _, id := range ids {
		p := e.Info(db, id)
		info := &FeInfo{
			TokenID:   id,
			Job:       p.Job,
			SupplyID:  p.SupplyID,
			AnimalID:  p.AnimalID,
			HasAnimal: p.HasAnimal,
		}
		if next := p.LastClaim + e.cfg.Cooldown; now < next {
			info.TimeLeft = next - now
		}
		out = append(out, info)
	}
	return out
}
