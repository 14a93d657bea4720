package session

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Defaults for NewStore.
const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 256
)

// Store keeps sessions in memory, evicting the least recently used one when full and any
// session idle for longer than the TTL. Nothing survives a restart.
type Store struct {
	gen   Generator
	cache *lru.LRU[string, *Session]
}

// NewStore creates a store whose sessions share gen. Non-positive arguments select
// the defaults.
func NewStore(gen Generator, maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(id string, _ *Session) {
		log.Debug().Str("session", id).Msg("Session evicted")
	}
	return &Store{
		gen:   gen,
		cache: lru.NewLRU[string, *Session](maxSessions, onEvict, ttl),
	}
}

// Create starts a new idle session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.gen)
	st.cache.Add(s.ID(), s)
	return s
}

// Get returns the session with id, refreshing its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	s, ok := st.cache.Get(id)
	if ok {
		st.cache.Add(id, s)
	}
	return s, ok
}

// Delete removes a session. Its in-flight run, if any, finishes unobserved.
func (st *Store) Delete(id string) bool {
	s, ok := st.cache.Peek(id)
	if !ok {
		return false
	}
	s.Reset()
	return st.cache.Remove(id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.cache.Len()
}
