package rum

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store is the tab-scoped persistence the agent keeps its session identity
// in. Hosts bridge it to whatever scope they have (browser session storage,
// an app-local file, a test map). A nil Store is legal and degrades to a
// fresh identity per agent: documented behavior, not a failure.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

const keySessionID = "rum.session_id"
const keySessionStart = "rum.session_start"

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]string{}}
}

type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

// Identity resolves the per-session identifier and the configured endpoint
// identifier. The session id is created at most once per storage scope and
// never regenerated; within one agent it is cached so even the degraded
// nil-store mode hands out a stable value.
type Identity struct {
	store      Store
	clock      Clock
	endpointID string

	mu        sync.Mutex
	sessionID string
}

func newIdentity(store Store, clock Clock, endpointID string) *Identity {
	return &Identity{store: store, clock: clock, endpointID: endpointID}
}

func (id *Identity) SessionID() string {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.sessionID != "" {
		return id.sessionID
	}
	if id.store != nil {
		if v, ok := id.store.Get(keySessionID); ok && v != "" {
			id.sessionID = v
			return v
		}
	}
	// wall clock alone collides across sessions started the same
	// millisecond; the random suffix disambiguates
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	v := fmt.Sprintf("%d-%s", id.clock.Now().UnixMilli(), suffix)
	if id.store != nil {
		id.store.Set(keySessionID, v)
	}
	id.sessionID = v
	return v
}

func (id *Identity) EndpointID() string {
	return id.endpointID
}

// SessionStart returns the session's start stamp in epoch milliseconds, and
// whether this call created it. A fresh marker means the session has just
// begun and a session-start envelope is owed.
func (id *Identity) SessionStart() (int64, bool) {
	if id.store != nil {
		if v, ok := id.store.Get(keySessionStart); ok {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				return ms, false
			}
		}
	}
	now := id.clock.Now().UnixMilli()
	if id.store != nil {
		id.store.Set(keySessionStart, strconv.FormatInt(now, 10))
	}
	return now, true
}
