//go:build !msgrelease

package message

// leakTracker keeps the factory's live-set so that messages leaked by a
// missing Release show up at teardown. Compiled out with the msgrelease tag.
type leakTracker struct {
	live map[Message]struct{}
}

func (t *leakTracker) add(m Message) {
	if t.live == nil {
		t.live = make(map[Message]struct{})
	}
	t.live[m] = struct{}{}
}

func (t *leakTracker) remove(m Message) {
	delete(t.live, m)
}

func (t *leakTracker) check() error {
	if len(t.live) == 0 {
		return nil
	}
	leaks := make([]Leak, 0, len(t.live))
	for m := range t.live {
		leaks = append(leaks, Leak{Message: m, Type: m.Type(), RefCount: m.RefCount()})
	}
	return &LeakError{Leaks: leaks}
}
