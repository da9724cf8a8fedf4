package pipeline

import "sync"

// fingerprintLocks provides a mutex per article fingerprint so concurrent
// enrichment of the same article serializes while distinct articles
// proceed in parallel. Entries are reference counted and removed when the
// last holder releases, keeping the map bounded by in-flight work.
type fingerprintLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newFingerprintLocks() *fingerprintLocks {
	return &fingerprintLocks{locks: make(map[string]*lockEntry)}
}

// lock acquires the mutex for fingerprint and returns its release func.
func (f *fingerprintLocks) lock(fingerprint string) func() {
	f.mu.Lock()
	entry, ok := f.locks[fingerprint]
	if !ok {
		entry = &lockEntry{}
		f.locks[fingerprint] = entry
	}
	entry.refs++
	f.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		f.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(f.locks, fingerprint)
		}
		f.mu.Unlock()
	}
}
