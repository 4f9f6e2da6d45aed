package diff

import "sync"

// DefaultMemoSize bounds the number of cached comparisons.
const DefaultMemoSize = 512

type memoKey struct {
	old string
	new string
}

// Memo caches Highlight results by (old, new) pair. When the cache is full
// it is cleared wholesale. Safe for concurrent use.
type Memo struct {
	mu      sync.Mutex
	max     int
	entries map[memoKey]Result
}

// NewMemo creates a cache holding at most size entries. A size of zero or
// less uses DefaultMemoSize.
func NewMemo(size int) *Memo {
	if size <= 0 {
		size = DefaultMemoSize
	}
	return &Memo{
		max:     size,
		entries: make(map[memoKey]Result, size),
	}
}

// Highlight returns the cached result for the pair, computing it on a miss.
func (m *Memo) Highlight(oldText, newText string) Result {
	key := memoKey{old: oldText, new: newText}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.entries[key]; ok {
		return r
	}

	r := Highlight(oldText, newText)
	if len(m.entries) >= m.max {
		m.entries = make(map[memoKey]Result, m.max)
	}
	m.entries[key] = r
	return r
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
