// Package revocation keeps tokens revoked before their expiry.
//
// The store is process local and lives as long as the server. Entries remember token expiry,
// so expired ones may be swept: a token past its expiry is rejected before revocation is consulted.
package revocation

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type shard struct {
	mu sync.RWMutex
	// subject -> token -> token expiry
	entries map[string]map[string]time.Time
}

type Store struct {
	shards [shardCount]*shard
}

func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]map[string]time.Time)}
	}
	return s
}

func (s *Store) shard(subject string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return s.shards[h.Sum32()%shardCount]
}

// Revoke adds token of the subject to the store. Repeated calls are noop
func (s *Store) Revoke(subject string, token string, expiresAt time.Time) {
	sh := s.shard(subject)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	tokens, ok := sh.entries[subject]
	if !ok {
		tokens = make(map[string]time.Time)
		sh.entries[subject] = tokens
	}

	if _, ok := tokens[token]; !ok {
		tokens[token] = expiresAt
	}
}

func (s *Store) IsRevoked(subject string, token string) bool {
	sh := s.shard(subject)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, ok := sh.entries[subject][token]
	return ok
}

// Len returns number of revoked tokens
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, tokens := range sh.entries {
			n += len(tokens)
		}
		sh.mu.RUnlock()
	}
	return n
}

// Sweep drops tokens expired at now. Returns number of dropped tokens
func (s *Store) Sweep(now time.Time) int {
	dropped := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for subject, tokens := range sh.entries {
			for token, expiresAt := range tokens {
				if !now.Before(expiresAt) {
					delete(tokens, token)
					dropped++
				}
			}
			if len(tokens) == 0 {
				delete(sh.entries, subject)
			}
		}
		sh.mu.Unlock()
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done
// Non-positive interval disables sweeping and the call returns immediately
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, clock func() time.Time, onSweep func(dropped int)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := s.Sweep(clock())
			if onSweep != nil {
				onSweep(dropped)
			}
		}
	}
}
