package protocol

import (
	"fmt"

	"github.com/heysubinoy/minidis/pkg/kv"
)

// Executor runs a command and returns its response. *Dispatcher and remote
// clients implement it.
type Executor interface {
	Execute(cmd Command) Response
}

// Compile-time check to ensure Dispatcher implements Executor.
var _ Executor = (*Dispatcher)(nil)

// Dispatcher executes Commands against a kv.Store. It holds no state of its
// own and may be used from many goroutines at once.
type Dispatcher struct {
	store kv.Store
}

// NewDispatcher creates a Dispatcher backed by store.
func NewDispatcher(store kv.Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Execute runs cmd with exactly one store call (none for PING) and converts
// the outcome into a Response. Store errors become Failure.
func (d *Dispatcher) Execute(cmd Command) Response {
	switch c := cmd.(type) {
	case Get:
		value, found, err := d.store.Get(c.Key)
		if err != nil {
			return FailureFrom(err)
		}
		return OptionalText{Value: value, Found: found}
	case Set:
		if err := d.store.Set(c.Key, c.Value); err != nil {
			return FailureFrom(err)
		}
		return Acknowledged{}
	case Del:
		removed, err := d.store.Delete(c.Key)
		if err != nil {
			return FailureFrom(err)
		}
		return Flag{Value: removed}
	case Exists:
		ok, err := d.store.Exists(c.Key)
		if err != nil {
			return FailureFrom(err)
		}
		return Flag{Value: ok}
	case Keys:
		keys, err := d.store.Keys()
		if err != nil {
			return FailureFrom(err)
		}
		if keys == nil {
			keys = []string{}
		}
		return TextList{Values: keys}
	case Flush:
		if err := d.store.Flush(); err != nil {
			return FailureFrom(err)
		}
		return Acknowledged{}
	case Size:
		n, err := d.store.Size()
		if err != nil {
			return FailureFrom(err)
		}
		return Count{Value: uint64(n)}
	case Ping:
		return TextValue{Value: "PONG"}
	default:
		return Failure{Message: fmt.Sprintf("unsupported command %T", cmd)}
	}
}
