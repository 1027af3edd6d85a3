package state

import "github.com/smolage/gbones/common"

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last state
// commit. These are tracked to be able to be reverted in the case of an execution
// exception or request for reversal.
type journal struct {
	entries []journalEntry // Current changes tracked by the journal
}

// newJournal creates a new initialized journal.
func newJournal() *journal {
	return &journal{}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(statedb)
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	storageChange struct {
		account  common.Address
		key      common.Hash
		prevalue common.Hash
		existed  bool
	}
	nonceChange struct {
		account common.Address
		prev    uint64
		existed bool
	}
	addLogChange struct {
		txhash common.Hash
	}
)

func (ch storageChange) revert(s *StateDB) {
	if !ch.existed {
		delete(s.dirtyStorage[ch.account], ch.key)
		return
	}
	s.dirtyStorage[ch.account][ch.key] = ch.prevalue
}

func (ch nonceChange) revert(s *StateDB) {
	if !ch.existed {
		delete(s.dirtyNonces, ch.account)
		return
	}
	s.dirtyNonces[ch.account] = ch.prev
}

func (ch addLogChange) revert(s *StateDB) {
	logs := s.logs[ch.txhash]
	if len(logs) == 1 {
		delete(s.logs, ch.txhash)
	} else {
		s.logs[ch.txhash] = logs[:len(logs)-1]
	}
	s.logSize--
}
