// Package state provides a caching layer atop the flat storage of the system
// addresses.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/smolage/gbones/bonesdb"
	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/rawdb"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/crypto"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB structs within the gbones protocol are used to store anything
// within the state: the storage slots of every system address and the
// nonces of the senders. Writes are held in memory until Commit.
type StateDB struct {
	db   *Database
	root common.Hash

	dirtyStorage map[common.Address]map[common.Hash]common.Hash
	dirtyNonces  map[common.Address]uint64

	thash   common.Hash
	txIndex int
	logs    map[common.Hash][]*types.Log
	logSize uint

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state on top of the latest committed state, whose
// commitment is root.
func New(root common.Hash, db *Database) (*StateDB, error) {
	if db == nil {
		return nil, fmt.Errorf("state: nil database")
	}
	return &StateDB{
		db:           db,
		root:         root,
		dirtyStorage: make(map[common.Address]map[common.Hash]common.Hash),
		dirtyNonces:  make(map[common.Address]uint64),
		logs:         make(map[common.Hash][]*types.Log),
		journal:      newJournal(),
	}, nil
}

// Root returns the commitment of the state this StateDB was opened on.
func (s *StateDB) Root() common.Hash {
	return s.root
}

// GetState retrieves a value from the given account's storage.
func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := s.dirtyStorage[addr]; ok {
		if value, dirty := slots[key]; dirty {
			return value
		}
	}
	return s.db.readStorage(addr, key)
}

// SetState updates a value in the given account's storage.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	slots, ok := s.dirtyStorage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.dirtyStorage[addr] = slots
	}
	prev, existed := slots[key]
	s.journal.append(storageChange{account: addr, key: key, prevalue: prev, existed: existed})
	slots[key] = value
}

// GetNonce returns the number of transactions executed for addr.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if nonce, ok := s.dirtyNonces[addr]; ok {
		return nonce
	}
	return rawdb.ReadNonce(s.db.disk, addr)
}

// SetNonce sets the transaction count of addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	prev, existed := s.dirtyNonces[addr]
	s.journal.append(nonceChange{account: addr, prev: prev, existed: existed})
	s.dirtyNonces[addr] = nonce
}

// Prepare sets the current transaction hash and index which are
// used when the logs are emitted.
func (s *StateDB) Prepare(thash common.Hash, ti int) {
	s.thash = thash
	s.txIndex = ti
}

// TxIndex returns the current transaction index set by Prepare.
func (s *StateDB) TxIndex() int {
	return s.txIndex
}

// AddLog records an event of the current transaction.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{txhash: s.thash})

	log.TxHash = s.thash
	log.TxIndex = uint(s.txIndex)
	log.Index = s.logSize
	s.logs[s.thash] = append(s.logs[s.thash], log)
	s.logSize++
}

// GetLogs returns the logs emitted by the given transaction.
func (s *StateDB) GetLogs(hash common.Hash) []*types.Log {
	return s.logs[hash]
}

// Logs returns every log emitted so far.
func (s *StateDB) Logs() []*types.Log {
	var logs []*types.Log
	for _, lgs := range s.logs {
		logs = append(logs, lgs...)
	}
	return logs
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// IntermediateRoot computes the commitment of the current state: the parent
// root chained with every pending write in a deterministic order.
func (s *StateDB) IntermediateRoot() common.Hash {
	hw := crypto.NewKeccakState()
	hw.Write(s.root[:])

	for _, addr := range s.sortedAccounts() {
		slots := s.dirtyStorage[addr]
		keys := make([]common.Hash, 0, len(slots))
		for k := range slots {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
		for _, k := range keys {
			v := slots[k]
			hw.Write(addr[:])
			hw.Write(k[:])
			hw.Write(v[:])
		}
	}
	nonceAddrs := make([]common.Address, 0, len(s.dirtyNonces))
	for addr := range s.dirtyNonces {
		nonceAddrs = append(nonceAddrs, addr)
	}
	sort.Slice(nonceAddrs, func(i, j int) bool { return bytes.Compare(nonceAddrs[i][:], nonceAddrs[j][:]) < 0 })
	for _, addr := range nonceAddrs {
		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], s.dirtyNonces[addr])
		hw.Write(addr[:])
		hw.Write(enc[:])
	}
	var root common.Hash
	hw.Read(root[:])
	return root
}

// Commit writes the pending state into batch and returns the new root. The
// StateDB stays usable and now sits on the returned root.
func (s *StateDB) Commit(batch bonesdb.KeyValueWriter) common.Hash {
	root := s.IntermediateRoot()
	for addr, slots := range s.dirtyStorage {
		for k, v := range slots {
			s.db.writeStorage(batch, addr, k, v)
		}
	}
	for addr, nonce := range s.dirtyNonces {
		rawdb.WriteNonce(batch, addr, nonce)
	}
	s.root = root
	s.dirtyStorage = make(map[common.Address]map[common.Hash]common.Hash)
	s.dirtyNonces = make(map[common.Address]uint64)
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	return root
}

func (s *StateDB) sortedAccounts() []common.Address {
	addrs := make([]common.Address, 0, len(s.dirtyStorage))
	for addr := range s.dirtyStorage {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })
	return addrs
}
