// Package alloc defines the byte allocator boundary used by message
// factories and block-carrying messages.
//
// Go's garbage collector makes raw memory management unnecessary, so the
// allocator here exists for accounting: each connection endpoint gets its own
// allocator with its own budget, which keeps one flooding peer's resource
// consumption contained to its own session. Allocation failure is an expected
// condition under adversarial load and is reported as a nil slice, never as a
// panic.
package alloc

// Allocator hands out byte buffers and tracks how many bytes are outstanding.
type Allocator interface {
	// Allocate returns a zeroed buffer of the given size, or nil if the
	// allocator cannot satisfy the request.
	Allocate(size int) []byte

	// Free returns a buffer previously obtained from Allocate. Freeing nil is
	// a no-op.
	Free(buf []byte)

	// BytesAllocated returns the number of bytes currently outstanding.
	BytesAllocated() int
}

// Heap is an unbounded allocator backed by the Go heap. Allocate never fails.
type Heap struct {
	outstanding int
}

// NewHeap creates an unbounded heap allocator.
func NewHeap() *Heap {
	return &Heap{}
}

func (h *Heap) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}
	h.outstanding += size
	return make([]byte, size)
}

func (h *Heap) Free(buf []byte) {
	if buf == nil {
		return
	}
	h.outstanding -= len(buf)
}

func (h *Heap) BytesAllocated() int {
	return h.outstanding
}

// Bounded wraps an inner allocator with a hard byte budget. Requests that
// would exceed the budget fail with a nil result, which is how a connection's
// message factory detects that its peer has exhausted its quota.
type Bounded struct {
	inner       Allocator
	budget      int
	outstanding int
}

// NewBounded creates an allocator that will never have more than budget bytes
// outstanding at once. The inner allocator may be shared; Bounded only counts
// its own allocations against the budget.
func NewBounded(inner Allocator, budget int) *Bounded {
	return &Bounded{inner: inner, budget: budget}
}

func (b *Bounded) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}
	if b.outstanding+size > b.budget {
		return nil
	}
	buf := b.inner.Allocate(size)
	if buf != nil {
		b.outstanding += size
	}
	return buf
}

func (b *Bounded) Free(buf []byte) {
	if buf == nil {
		return
	}
	b.outstanding -= len(buf)
	b.inner.Free(buf)
}

func (b *Bounded) BytesAllocated() int {
	return b.outstanding
}

// Budget returns the configured byte budget.
func (b *Bounded) Budget() int {
	return b.budget
}
