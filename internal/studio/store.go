package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

// watchBuffer bounds the per-subscriber queue. A subscriber that falls behind
// loses the oldest snapshot, never the newest.
const watchBuffer = 8

// Store holds all live sessions and fans out a snapshot to subscribers on
// every committed change. A single mutex serializes mutations, which is what
// makes the per-session state machine race-free.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	watchers map[string]map[uint64]chan Snapshot
	nextSub  uint64
	ttl      time.Duration
	logger   infra.Logger
}

// NewStore builds an empty store. Sessions idle longer than ttl are removed
// by Sweep.
func NewStore(ttl time.Duration, logger infra.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		watchers: make(map[string]map[uint64]chan Snapshot),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create registers a fresh idle session and returns its first snapshot.
func (st *Store) Create() Snapshot {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.logger.Debug().Str("session_id", sess.ID).Msg("studio: session created")
	return sess.Snapshot()
}

// Get returns the current snapshot of a session.
func (st *Store) Get(id string) (Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return Snapshot{}, domain.ErrNotFound
	}
	return sess.Snapshot(), nil
}

// View runs fn against a read-only clone of the session. fn must not retain
// the clone beyond the call.
func (st *Store) View(id string, fn func(*Session) error) error {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	var clone *Session
	if ok {
		clone = sess.clone()
	}
	st.mu.RUnlock()

	if !ok {
		return domain.ErrNotFound
	}
	return fn(clone)
}

// Update applies fn to the session under the lock. When fn succeeds the
// revision is bumped and the new snapshot is fanned out to all subscribers;
// when fn errors the session is left exactly as it was.
func (st *Store) Update(id string, fn func(*Session) error) (Snapshot, error) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return Snapshot{}, domain.ErrNotFound
	}
	if err := fn(sess); err != nil {
		st.mu.Unlock()
		return Snapshot{}, err
	}
	sess.Revision++
	sess.UpdatedAt = time.Now().UTC()
	snap := sess.Snapshot()
	subs := st.watchers[id]
	for _, ch := range subs {
		offer(ch, snap)
	}
	st.mu.Unlock()

	return snap, nil
}

// offer enqueues without ever blocking the store: when the subscriber's
// buffer is full the oldest snapshot is dropped first.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Watch subscribes to a session's snapshots. The current snapshot is
// delivered immediately. The returned cancel func releases the subscription;
// the channel is closed when the session is swept.
func (st *Store) Watch(id string) (<-chan Snapshot, func(), error) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return nil, nil, domain.ErrNotFound
	}
	st.nextSub++
	sub := st.nextSub
	ch := make(chan Snapshot, watchBuffer)
	if st.watchers[id] == nil {
		st.watchers[id] = make(map[uint64]chan Snapshot)
	}
	st.watchers[id][sub] = ch
	ch <- sess.Snapshot()
	st.mu.Unlock()

	cancel := func() {
		st.mu.Lock()
		if subs, ok := st.watchers[id]; ok {
			if _, live := subs[sub]; live {
				delete(subs, sub)
				close(ch)
			}
			if len(subs) == 0 {
				delete(st.watchers, id)
			}
		}
		st.mu.Unlock()
	}
	return ch, cancel, nil
}

// Sweep removes sessions idle longer than the TTL and closes their
// subscriptions. It returns the number of sessions removed. Sessions with a
// generation in flight are left alone.
func (st *Store) Sweep(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-st.ttl)

	st.mu.Lock()
	var removed int
	for id, sess := range st.sessions {
		if sess.Loading || !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(st.sessions, id)
		for _, ch := range st.watchers[id] {
			close(ch)
		}
		delete(st.watchers, id)
		removed++
	}
	st.mu.Unlock()

	if removed > 0 {
		st.logger.Info().Int("removed", removed).Msg("studio: swept idle sessions")
	}
	return removed
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
