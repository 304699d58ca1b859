package settle

import "sync"

// lockTable serializes pipeline runs per caller so the verify-then-charge
// sequence is atomic from this system's perspective. It is keyed rather than
// global: unrelated callers never wait on each other.
//
// Entries are never evicted; one mutex per distinct caller is cheap at the
// scale this runs at.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the caller's mutex and returns its release function.
func (t *lockTable) acquire(caller string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	m, ok := t.locks[caller]
	if !ok {
		m = &sync.Mutex{}
		t.locks[caller] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}
