package devground

import (
	"math/big"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/kvstore"
)

// Position fields live under keccak("dev.position" || id); stake entries are
// two parallel slot arrays indexed from zero.

func positionBase(id uint64) common.Hash {
	return kvstore.Slot("dev.position", kvstore.Key(id))
}

func field(id uint64, name string) common.Hash {
	return kvstore.FieldSlot(positionBase(id), name)
}

func entryAmountSlot(id, i uint64) common.Hash {
	return kvstore.IndexSlot(field(id, "entries.amount"), i)
}

func entryTimeSlot(id, i uint64) common.Hash {
	return kvstore.IndexSlot(field(id, "entries.time"), i)
}

func (e *Engine) readPosition(db vm.StateDB, id uint64) *Position {
	owner := kvstore.ReadAddress(db, e.addr, field(id, "owner"))
	if owner == (common.Address{}) {
		return nil
	}
	return &Position{
		TokenID:         id,
		Owner:           owner,
		Ground:          Kind(kvstore.ReadUint64(db, e.addr, field(id, "ground"))),
		EntryTime:       kvstore.ReadUint64(db, e.addr, field(id, "entryTime")),
		LockPeriod:      kvstore.ReadUint64(db, e.addr, field(id, "lockPeriod")),
		LastRewardTime:  kvstore.ReadUint64(db, e.addr, field(id, "lastRewardTime")),
		BonesStaked:     kvstore.ReadBig(db, e.addr, field(id, "bonesStaked")),
		PendingReward:   kvstore.ReadBig(db, e.addr, field(id, "pending")),
		DaysOffBaseline: kvstore.ReadUint64(db, e.addr, field(id, "baseline")),
	}
}

func (e *Engine) writePosition(db vm.StateDB, p *Position) {
	id := p.TokenID
	kvstore.WriteAddress(db, e.addr, field(id, "owner"), p.Owner)
	kvstore.WriteUint64(db, e.addr, field(id, "ground"), uint64(p.Ground))
	kvstore.WriteUint64(db, e.addr, field(id, "entryTime"), p.EntryTime)
	kvstore.WriteUint64(db, e.addr, field(id, "lockPeriod"), p.LockPeriod)
	kvstore.WriteUint64(db, e.addr, field(id, "lastRewardTime"), p.LastRewardTime)
	kvstore.WriteBig(db, e.addr, field(id, "bonesStaked"), p.BonesStaked)
	kvstore.WriteBig(db, e.addr, field(id, "pending"), p.PendingReward)
	kvstore.WriteUint64(db, e.addr, field(id, "baseline"), p.DaysOffBaseline)
}

func (e *Engine) deletePosition(db vm.StateDB, id uint64) {
	e.truncateEntries(db, id, 0)
	kvstore.Clear(db, e.addr,
		field(id, "owner"), field(id, "ground"), field(id, "entryTime"),
		field(id, "lockPeriod"), field(id, "lastRewardTime"), field(id, "bonesStaked"),
		field(id, "pending"), field(id, "baseline"))
}

func (e *Engine) entryCount(db vm.StateDB, id uint64) uint64 {
	return kvstore.ReadUint64(db, e.addr, field(id, "entries.len"))
}

func (e *Engine) readEntries(db vm.StateDB, id uint64) []StakeEntry {
	n := e.entryCount(db, id)
	out := make([]StakeEntry, n)
	for i := uint64(0); i < n; i++ {
		out[i] = e.readEntry(db, id, i)
	}
	return out
}

func (e *Engine) readEntry(db vm.StateDB, id, i uint64) StakeEntry {
	return StakeEntry{
		Amount: kvstore.ReadBig(db, e.addr, entryAmountSlot(id, i)),
		Time:   kvstore.ReadUint64(db, e.addr, entryTimeSlot(id, i)),
	}
}

func (e *Engine) writeEntry(db vm.StateDB, id, i uint64, en StakeEntry) {
	kvstore.WriteBig(db, e.addr, entryAmountSlot(id, i), en.Amount)
	kvstore.WriteUint64(db, e.addr, entryTimeSlot(id, i), en.Time)
}

func (e *Engine) appendEntry(db vm.StateDB, id uint64, amount *big.Int, now uint64) {
	n := e.entryCount(db, id)
	e.writeEntry(db, id, n, StakeEntry{Amount: amount, Time: now})
	kvstore.WriteUint64(db, e.addr, field(id, "entries.len"), n+1)
}

// writeEntries replaces the entry array with entries, clearing the tail.
func (e *Engine) writeEntries(db vm.StateDB, id uint64, entries []StakeEntry) {
	for i, en := range entries {
		e.writeEntry(db, id, uint64(i), en)
	}
	e.truncateEntries(db, id, uint64(len(entries)))
}

func (e *Engine) truncateEntries(db vm.StateDB, id, n uint64) {
	count := e.entryCount(db, id)
	for i := n; i < count; i++ {
		kvstore.Clear(db, e.addr, entryAmountSlot(id, i), entryTimeSlot(id, i))
	}
	kvstore.WriteUint64(db, e.addr, field(id, "entries.len"), n)
}
