// Package session holds the short-lived server-side state between the two
// round trips of a registration or login attempt. Entries are keyed by an
// opaque random identifier, expire after a fixed TTL, and are consumed at
// most once: of any number of concurrent Take calls for one identifier,
// exactly one succeeds.
package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates what exchange an entry belongs to.
type Kind uint8

// Exchange kinds.
const (
	KindRegistration Kind = iota + 1
	KindLogin
)

// State is the ephemeral secret material of one in-flight exchange.
// ExpectedMac and SessionKey are only set for login exchanges.
type State struct {
	Kind        Kind
	Username    string
	ExpectedMac []byte
	SessionKey  []byte
}

// NewID returns a fresh opaque session identifier.
func NewID() string {
	return uuid.NewString()
}

const numShards = 16

type entry struct {
	state    State
	deadline time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// Store is a sharded, TTL-evicting map of exchange states. State is
// partitioned by session identifier; there is no lock shared across shards.
type Store struct {
	ttl    time.Duration
	now    func() time.Time
	shards [numShards]*shard

	stop chan struct{}
	once sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithJanitor starts a background goroutine sweeping expired entries at the
// given interval. Without it, expired entries are still never returned and
// are lazily evicted on shard access.
func WithJanitor(interval time.Duration) Option {
	return func(s *Store) {
		go s.janitor(interval)
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store whose entries expire ttl after insertion.
func New(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}

	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return s.shards[h.Sum32()%numShards]
}

// Put stores the state under id. A Put for an existing id overwrites it and
// resets the TTL.
func (s *Store) Put(id string, state State) {
	sh := s.shardFor(id)
	deadline := s.now().Add(s.ttl)

	sh.mu.Lock()
	sh.entries[id] = entry{state: state, deadline: deadline}
	sh.mu.Unlock()
}

// Take atomically removes and returns the state stored under id. It reports
// false if the id is unknown, already consumed, or past its TTL; the three
// cases are indistinguishable to the caller.
func (s *Store) Take(id string) (State, bool) {
	sh := s.shardFor(id)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[id]
	if !ok {
		return State{}, false
	}

	delete(sh.entries, id)

	if now.After(e.deadline) {
		return State{}, false
	}

	return e.state, true
}

// Len returns the number of unexpired entries.
func (s *Store) Len() int {
	now := s.now()
	n := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.entries {
			if !now.After(e.deadline) {
				n++
			}
		}
		sh.mu.Unlock()
	}

	return n
}

func (s *Store) sweep() {
	now := s.now()

	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if now.After(e.deadline) {
				delete(sh.entries, id)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *Store) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the background janitor, if any. The store remains usable.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}
