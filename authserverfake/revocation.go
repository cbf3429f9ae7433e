package authserverfake

import (
	"sync"
	"time"
)

// revocationList is the stub's token blacklist, keyed by jti. An entry is only kept while
// the token it names could still pass expiry checks.
type revocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newRevocationList() *revocationList {
	return &revocationList{entries: make(map[string]time.Time)}
}

// revoke blacklists jti until exp and drops entries that expired before now.
func (l *revocationList) revoke(jti string, exp, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, until := range l.entries {
		if now.After(until) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = exp
}

func (l *revocationList) contains(jti string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[jti]
	return ok
}

func (l *revocationList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
