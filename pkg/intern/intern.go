// Package intern provides the string-interning service shared by the method IR.
// One Interner covers one compilation run: it is append-only while the run is
// active and is Reset between independent runs.
package intern

import (
	"sync"
	"sync/atomic"
)

// Interner maps structurally equal strings to a single canonical instance.
// It is safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	strings map[string]string
	hits    atomic.Int64
}

// New creates an empty interner
func New() *Interner {
	return &Interner{strings: make(map[string]string)}
}

// Intern returns the canonical instance of s
func (in *Interner) Intern(s string) string {
	if in == nil {
		return s
	}

	in.mu.RLock()
	canonical, ok := in.strings[s]
	in.mu.RUnlock()
	if ok {
		in.hits.Add(1)
		return canonical
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if canonical, ok := in.strings[s]; ok {
		in.hits.Add(1)
		return canonical
	}
	in.strings[s] = s
	return s
}

// Len returns the number of distinct strings held
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings)
}

// Hits returns how many Intern calls were served by an existing entry
func (in *Interner) Hits() int {
	return int(in.hits.Load())
}

// Reset drops every entry, ending the current compilation run
func (in *Interner) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.strings = make(map[string]string)
	in.hits.Store(0)
}
