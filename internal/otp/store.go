package otp

import (
	"hash/fnv"
	"sync"
	"time"
)

// Entry is a live OTP challenge. Entries exist only in process memory and are
// lost on restart.
type Entry struct {
	Code    string
	Expiry  time.Time
	Purpose string
}

// Store holds active challenges keyed by "userID:transactionID". At most one
// live entry exists per key; Put overwrites unconditionally.
type Store interface {
	Put(key string, e Entry)
	Get(key string) (Entry, bool)
	// CompareAndDelete removes the entry only if it still holds the given
	// code, and reports whether a removal happened.
	CompareAndDelete(key, code string) bool
}

const shardCount = 32

type shard struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// MemoryStore shards entries by key hash so concurrent callers on different
// keys never contend on the same lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]Entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Put(key string, e Entry) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.entries[key] = e
	sh.mu.Unlock()
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, ok := sh.entries[key]
	sh.mu.Unlock()
	return e, ok
}

func (s *MemoryStore) CompareAndDelete(key, code string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || e.Code != code {
		return false
	}
	delete(sh.entries, key)
	return true
}
