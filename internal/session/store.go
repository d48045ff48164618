package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/opsdesk/opsdesk/internal/auth"

	log "github.com/sirupsen/logrus"
)

// Snapshot is the session record as observed at one point in time, and also
// its durable JSON shape. Invariant: IsAuthenticated == (Identity != nil).
type Snapshot struct {
	Identity        *auth.AuthenticatedUser `json:"identity"`
	IsAuthenticated bool                    `json:"isAuthenticated"`
}

// Store is the single authoritative session record of a running instance,
// mirrored best-effort to a durable backend. All mutations are whole-record
// replacements under one lock, so no observer can ever see identity and
// the authenticated flag disagree.
type Store struct {
	mutex   sync.RWMutex
	current Snapshot
	storage DurableKeyValue
}

// NewStore builds a store and rehydrates it from the given backend. Any
// rehydration problem (no durable copy, unreadable backend, corrupt data)
// degrades to the empty, logged-out session; construction never fails.
func NewStore(ctx context.Context, storage DurableKeyValue) *Store {
	if storage == nil {
		storage = NewNoopStorage()
	}
	s := &Store{
		storage: storage,
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	data, err := s.storage.Get(ctx)
	if err != nil {
		log.Warnf("session store: rehydrate: %s", err)
		return
	}
	if len(data) == 0 {
		return
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warnf("session store: corrupt durable session, starting logged out: %s", err)
		return
	}
	if snap.Identity == nil {
		return
	}

	// the flag is always derived from the identity, never trusted from disk
	snap.IsAuthenticated = true
	s.current = snap

	log.Debugf("session store: rehydrated session for: %s", snap.Identity.Username)
}

// Login replaces the session record with the given identity and persists
// it. A prior session is simply overwritten, no logout required first.
func (s *Store) Login(ctx context.Context, user auth.AuthenticatedUser) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current = Snapshot{
		Identity:        &user,
		IsAuthenticated: true,
	}
	s.persist(ctx)
}

// Logout clears the session record and the durable copy.
func (s *Store) Logout(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current = Snapshot{}
	if err := s.storage.Clear(ctx); err != nil {
		log.Warnf("session store: clear durable session: %s", err)
	}
}

// Current returns a consistent copy of the session record.
func (s *Store) Current() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := s.current
	if snap.Identity != nil {
		identity := *snap.Identity
		snap.Identity = &identity
	}
	return snap
}

func (s *Store) IsAuthenticated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.current.IsAuthenticated
}

// persist mirrors the current record; callers hold the lock. Durable
// backend trouble is logged and swallowed, the in-memory session stays
// valid either way.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.current)
	if err != nil {
		log.Errorf("session store: marshal session: %s", err)
		return
	}
	if err := s.storage.Set(ctx, data); err != nil {
		log.Warnf("session store: persist session: %s", err)
	}
}
