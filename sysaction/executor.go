package sysaction

import (
	"fmt"

	"github.com/smolage/gbones/common"
	"github.com/smolage/gbones/core/vm"
)

// Context carries information available to a system-action handler.
type Context struct {
	From        common.Address
	TxHash      common.Hash
	BlockNumber uint64
	Time        uint64 // block timestamp, seconds
	StateDB     vm.StateDB
}

// Handler is implemented by every ledger and facility.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct{ handlers []Handler }

// NewRegistry creates a registry dispatching to the given handlers, in order.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Supports reports whether some handler accepts kind.
func (r *Registry) Supports(kind ActionKind) bool {
	for _, h := range r.handlers {
		if h.CanHandle(kind) {
			return true
		}
	}
	return false
}

// Execute decodes data and dispatches it to the first handler that accepts
// its kind. The caller owns reverting the state on error.
func (r *Registry) Execute(ctx *Context, data []byte) error {
	sa, err := Decode(data)
	if err != nil {
		return err
	}
	for _, h := range r.handlers {
		if h.CanHandle(sa.Action) {
			return h.Handle(ctx, sa)
		}
	}
	return fmt.Errorf("unknown system action: %q", sa.Action)
}
