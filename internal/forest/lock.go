package forest

import "sync"

// typeLocks serializes structural writes per tree type.
type typeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTypeLocks() *typeLocks {
	return &typeLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the tree type is free and returns its release function.
func (l *typeLocks) lock(treeType string) func() {
	l.mu.Lock()
	m, ok := l.locks[treeType]
	if !ok {
		m = &sync.Mutex{}
		l.locks[treeType] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
