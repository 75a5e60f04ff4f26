package message

import (
	"errors"
	"fmt"

	"github.com/aeolun/netmsg/pkg/alloc"
)

// MaxTypes is the largest number of message types a registry may declare.
// Type tags travel in a 15-bit field.
const MaxTypes = 32768

// messageOverheadBytes is the flat charge taken from the factory's allocator
// for every live message. Go sizes objects itself, so the charge exists to
// make message creation count against the connection's byte budget the same
// way block data does.
const messageOverheadBytes = 128

var (
	ErrNilAllocator   = errors.New("factory requires an allocator")
	ErrNoTypes        = errors.New("registry declares no message types")
	ErrTooManyTypes   = errors.New("registry declares more than 32768 message types")
	ErrNilConstructor = errors.New("registry declares a type with no constructor")
)

// Registry maps the application's closed set of type tags to message
// constructors. The set is fixed at protocol design time; there is no
// runtime registration.
type Registry interface {
	// NumTypes returns the number of declared types. Valid tags are
	// [0, NumTypes-1].
	NumTypes() int

	// New constructs a fresh message for the given tag, or nil if the
	// construction failed (treated as allocation failure by the factory).
	// The factory guarantees the tag is in range.
	New(messageType int) Message
}

// Table is the common Registry implementation: a constructor indexed by type
// tag, declared as a single slice literal so the whole type set is visible in
// one place. NewFactory rejects a table with a hole in it, turning a missing
// mapping into a startup failure instead of a nil during traffic.
type Table []func() Message

func (t Table) NumTypes() int { return len(t) }

func (t Table) New(messageType int) Message { return t[messageType]() }

// ErrorLevel is the factory's sticky resource-exhaustion signal.
type ErrorLevel int

const (
	// ErrorLevelNone means all is well.
	ErrorLevelNone ErrorLevel = iota

	// ErrorLevelAllocationFailed means a message could not be allocated,
	// typically because the allocator backing the factory ran out of budget.
	// The owning connection reads this and decides whether to disconnect the
	// peer.
	ErrorLevelAllocationFailed
)

func (e ErrorLevel) String() string {
	switch e {
	case ErrorLevelNone:
		return "none"
	case ErrorLevelAllocationFailed:
		return "allocation failed"
	default:
		return fmt.Sprintf("unknown (%d)", int(e))
	}
}

// Factory creates and destroys messages for a single connection endpoint.
//
// One factory exists per endpoint (the client's, or one per client slot on
// the server) so each peer is siloed to its own allocator budget. A factory
// and the messages it creates belong to one logical thread of control; none
// of its operations are safe for concurrent use.
type Factory struct {
	allocator  alloc.Allocator
	registry   Registry
	errorLevel ErrorLevel
	metrics    *Metrics
	live       leakTracker
}

// Option configures a Factory.
type Option func(*Factory)

// WithMetrics attaches prometheus instrumentation to the factory's create
// and destroy paths.
func WithMetrics(m *Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// NewFactory creates a message factory backed by the given allocator and
// type registry. The registry is validated eagerly: every declared type must
// have a constructor.
func NewFactory(allocator alloc.Allocator, registry Registry, opts ...Option) (*Factory, error) {
	if allocator == nil {
		return nil, ErrNilAllocator
	}
	if registry == nil || registry.NumTypes() == 0 {
		return nil, ErrNoTypes
	}
	if registry.NumTypes() > MaxTypes {
		return nil, ErrTooManyTypes
	}
	if table, ok := registry.(Table); ok {
		for messageType, constructor := range table {
			if constructor == nil {
				return nil, fmt.Errorf("type %d: %w", messageType, ErrNilConstructor)
			}
		}
	}
	f := &Factory{
		allocator: allocator,
		registry:  registry,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Create constructs a message by type. The returned message has one reference
// on it; pass it to Release when done.
//
// Returns nil when the message could not be allocated, in which case the
// factory's error level is set to ErrorLevelAllocationFailed. Allocation
// failure is an expected condition under adversarial load, not a programming
// error; a type tag outside [0, NumTypes-1] is a programming error and
// panics.
func (f *Factory) Create(messageType int) Message {
	if messageType < 0 || messageType >= f.registry.NumTypes() {
		panic(fmt.Sprintf("message: type %d out of range [0, %d)", messageType, f.registry.NumTypes()))
	}
	reservation := f.allocator.Allocate(messageOverheadBytes)
	if reservation == nil {
		f.fail(messageType)
		return nil
	}
	m := f.registry.New(messageType)
	if m == nil {
		f.allocator.Free(reservation)
		f.fail(messageType)
		return nil
	}
	state := m.base()
	state.refCount = 1
	state.messageType = messageType
	state.reservation = reservation
	f.live.add(m)
	if f.metrics != nil {
		f.metrics.created(messageType)
	}
	return m
}

func (f *Factory) fail(messageType int) {
	f.errorLevel = ErrorLevelAllocationFailed
	if f.metrics != nil {
		f.metrics.allocationFailed(messageType)
	}
}

// AddRef adds a reference to a message. Tolerates nil so failed creation
// paths don't need their own guards.
func (f *Factory) AddRef(m Message) {
	if m == nil {
		return
	}
	m.base().addRef()
}

// Release removes a reference from a message, destroying it when the last
// reference goes. Destruction frees a still-attached block through the
// block's own allocator, refunds the message's allocator charge and drops it
// from the live-set. Tolerates nil.
func (f *Factory) Release(m Message) {
	if m == nil {
		return
	}
	state := m.base()
	state.release()
	if state.refCount > 0 {
		return
	}
	if bm := AsBlockMessage(m); bm != nil {
		bm.freeBlock()
	}
	f.allocator.Free(state.reservation)
	state.reservation = nil
	f.live.remove(m)
	if f.metrics != nil {
		f.metrics.destroyed(m.Type())
	}
}

// NumTypes returns the number of message types this factory can create.
func (f *Factory) NumTypes() int { return f.registry.NumTypes() }

// Allocator returns the allocator backing this factory.
func (f *Factory) Allocator() alloc.Allocator { return f.allocator }

// Error returns the factory's error level. Anything other than
// ErrorLevelNone is the owning connection's signal to tear the session down.
func (f *Factory) Error() ErrorLevel { return f.errorLevel }

// ClearError resets the error level back to ErrorLevelNone.
func (f *Factory) ClearError() { f.errorLevel = ErrorLevelNone }

// Close tears the factory down. In leak-tracking builds (anything built
// without the msgrelease tag) it returns a *LeakError describing every
// message still live; release builds always return nil. Callers that want
// leaks to be fatal during development check the error and abort themselves.
func (f *Factory) Close() error {
	return f.live.check()
}

// Leak describes one message still live at factory teardown.
type Leak struct {
	Message  Message
	Type     int
	RefCount int
}

// LeakError reports messages that were never fully released before the
// factory was closed. This is a development diagnostic for missing Release
// calls, not a production traffic condition.
type LeakError struct {
	Leaks []Leak
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("%d message(s) leaked at factory teardown", len(e.Leaks))
}
