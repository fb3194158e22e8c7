package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Entry is an installed snapshot plus bookkeeping. Entries are immutable.
type Entry struct {
	Snapshot game.Snapshot
	// Version increases by one on every install, including resets.
	Version     uint64
	InstalledAt time.Time
}

// Store holds the single local copy of the last received snapshot.
// Reads are lock-free; writers are serialized.
type Store struct {
	clock   clockwork.Clock
	current atomic.Pointer[Entry]

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// New creates a store holding game.DefaultSnapshot().
func New(c clockwork.Clock) *Store {
	s := &Store{
		clock: c,
		subs:  make(map[*Subscription]struct{}),
	}
	s.current.Store(&Entry{Snapshot: game.DefaultSnapshot(), InstalledAt: c.Now()})
	return s
}

// Current returns the installed entry.
func (s *Store) Current() Entry {
	return *s.current.Load()
}

// Snapshot returns the installed snapshot.
func (s *Store) Snapshot() game.Snapshot {
	return s.current.Load().Snapshot
}

// Apply installs the snapshot carried by a state frame. Calibration corners
// recorded earlier survive unless the frame explicitly resets the map.
func (s *Store) Apply(frame protocol.StateFrame) Entry {
	return s.install(frame.Snapshot, !frame.ResetCalibration)
}

// Replace installs snap as-is, calibration included.
func (s *Store) Replace(snap game.Snapshot) Entry {
	return s.install(snap, false)
}

// Reset discards everything and installs game.DefaultSnapshot().
func (s *Store) Reset() Entry {
	return s.install(game.DefaultSnapshot(), false)
}

func (s *Store) install(snap game.Snapshot, mergeCalibration bool) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	if mergeCalibration {
		snap.Calibration = prev.Snapshot.Calibration.Merge(snap.Calibration)
	}

	snap, clamped := game.Normalize(snap)
	if clamped {
		log.Warn().
			Str("phase", string(snap.Phase())).
			Uint64("version", prev.Version+1).
			Msg("score list exceeded max lives, clamped")
	}

	next := &Entry{
		Snapshot:    snap,
		Version:     prev.Version + 1,
		InstalledAt: s.clock.Now(),
	}
	s.current.Store(next)

	for sub := range s.subs {
		sub.offer(*next)
	}
	return *next
}

// Subscribe registers a consumer that is signalled after every install.
// Slow consumers only ever see the latest entry.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{store: s, ch: make(chan Entry, 1)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(sub.ch)
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

// Close closes every subscription channel.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.ch)
		delete(s.subs, sub)
	}
}

// Subscription delivers installed entries.
type Subscription struct {
	store *Store
	ch    chan Entry
}

// C returns the delivery channel. It is closed when the store closes or the
// subscription is cancelled.
func (sub *Subscription) C() <-chan Entry { return sub.ch }

// Close cancels the subscription.
func (sub *Subscription) Close() {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.ch)
	}
}

// offer replaces any undelivered entry with e. Called with store.mu held.
func (sub *Subscription) offer(e Entry) {
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- e
}
