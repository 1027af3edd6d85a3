package sysaction

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/core/vm"
	"github.com/smolage/gbones/crypto"
	"github.com/smolage/gbones/log"
)

var (
	eventsMu sync.RWMutex
	events   = make(map[common.Hash]string)
)

// ErrUnknownEvent is returned when decoding a log whose id is not registered.
var ErrUnknownEvent = errors.New("unknown event")

// Event is a named structured event. Its id, the first log topic, is
// keccak256(name).
type Event struct {
	Name string
	ID   common.Hash
}

// NewEvent registers an event name so logs carrying it can be decoded.
func NewEvent(name string) Event {
	id := crypto.Keccak256Hash([]byte(name))
	eventsMu.Lock()
	events[id] = name
	eventsMu.Unlock()
	return Event{Name: name, ID: id}
}

// EventName returns the registered name of an event id.
func EventName(id common.Hash) (string, bool) {
	eventsMu.RLock()
	defer eventsMu.RUnlock()
	name, ok := events[id]
	return name, ok
}

// Emit records the event as a log of facility. Topics are the event id, the
// owner and, when given, the token id; fields become the JSON log data.
func (e Event) Emit(db vm.StateDB, facility, owner common.Address, fields interface{}, tokenID ...uint64) {
	data, err := json.Marshal(fields)
	if err != nil {
		log.Error("Failed to encode event", "event", e.Name, "err", err)
		data = []byte("{}")
	}
	topics := []common.Hash{e.ID, owner.Hash()}
	for _, id := range tokenID {
		topics = append(topics, common.Uint64ToHash(id))
	}
	db.AddLog(&types.Log{
		Address: facility,
		Topics:  topics,
		Data:    data,
	})
}

// DecodedEvent is the readable form of an event log.
type DecodedEvent struct {
	Name     string          `json:"name"`
	Facility common.Address  `json:"facility"`
	Owner    common.Address  `json:"owner"`
	TokenID  *uint64         `json:"tokenId,omitempty"`
	Fields   json.RawMessage `json:"fields"`

	BlockNumber uint64      `json:"blockNumber"`
	BlockTime   uint64      `json:"blockTime"`
	TxHash      common.Hash `json:"transactionHash"`
	Index       uint        `json:"logIndex"`
}

// DecodeLog converts a log emitted through Event.Emit back to its named form.
func DecodeLog(l *types.Log) (*DecodedEvent, error) {
	if len(l.Topics) < 2 {
		return nil, ErrUnknownEvent
	}
	name, ok := EventName(l.Topics[0])
	if !ok {
		return nil, ErrUnknownEvent
	}
	ev := &DecodedEvent{
		Name:        name,
		Facility:    l.Address,
		Owner:       common.BytesToAddress(l.Topics[1][12:]),
		Fields:      l.Data,
		BlockNumber: l.BlockNumber,
		BlockTime:   l.BlockTime,
		TxHash:      l.TxHash,
		Index:       l.Index,
	}
	if len(l.Topics) > 2 {
		id := l.Topics[2].Uint64()
		ev.TokenID = &id
	}
	return ev, nil
}
