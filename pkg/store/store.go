package store

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/lifecycle/internal/errors"
)

// ErrUninitializedStore is returned when a nil or zero-value store is used.
var ErrUninitializedStore = errors.New("E001")

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Store holds a single state value and notifies subscribers after each change.
type Store[S any] struct {
	name   string
	state  S
	logger *slog.Logger

	// subs is replaced, never mutated in place, so a snapshot taken for
	// fan-out stays valid while subscribers come and go.
	subs []*subscription[S]
	mu   sync.Mutex

	// pending holds notifications not yet delivered. Only the goroutine
	// that set dispatching drains it, so subscribers see changes in the
	// order they were applied.
	pending     []notification[S]
	dispatching bool

	initialized bool
}

type subscription[S any] struct {
	id     uint64
	fn     func(S)
	active atomic.Bool
}

type notification[S any] struct {
	state S
	subs  []*subscription[S]
}

var subscriptionID atomic.Uint64

// New creates a named store holding initial.
func New[S any](name string, initial S, opts ...Option) *Store[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[S]{
		name:        name,
		state:       initial,
		logger:      o.logger.With("store", name),
		initialized: true,
	}
}

// Name returns the store name.
func (s *Store[S]) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// TryGetState returns a snapshot of the current state.
func (s *Store[S]) TryGetState() (S, error) {
	var zero S
	if s == nil || !s.initialized {
		return zero, ErrUninitializedStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// GetState returns a snapshot of the current state.
// It panics if the store was not created with New.
func (s *Store[S]) GetState() S {
	state, err := s.TryGetState()
	if err != nil {
		panic(err)
	}
	return state
}

// SetState replaces the state and notifies subscribers.
func (s *Store[S]) SetState(next S) error {
	return s.Update(func(S) S { return next })
}

// Update replaces the state with fn(current) and notifies subscribers with
// the new value. The read and the write happen under one lock, so no caller
// observes a partially applied update.
//
// Notifications are delivered one at a time in the order the updates were
// applied. An Update made while another goroutine is delivering, or from
// inside a subscriber, is queued and delivered by that dispatcher before it
// returns.
func (s *Store[S]) Update(fn func(S) S) error {
	if s == nil || !s.initialized {
		return ErrUninitializedStore
	}

	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	s.pending = append(s.pending, notification[S]{state: next, subs: s.subs})
	if s.dispatching {
		s.mu.Unlock()
		return nil
	}
	s.dispatching = true
	s.mu.Unlock()

	s.dispatch()
	return nil
}

func (s *Store[S]) dispatch() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.dispatching = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.pending = nil
			s.dispatching = false
			s.mu.Unlock()
			return
		}
		n := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.logger.Debug("state changed", "subscribers", len(n.subs))
		for _, sub := range n.subs {
			if sub.active.Load() {
				sub.fn(n.state)
			}
		}
	}
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription; calling it more than once
// is a no-op.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	if s == nil || !s.initialized || fn == nil {
		return func() {}
	}

	sub := &subscription[S]{
		id: subscriptionID.Add(1),
		fn: fn,
	}
	sub.active.Store(true)

	s.mu.Lock()
	subs := make([]*subscription[S], len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			s.remove(sub.id)
		})
	}
}

func (s *Store[S]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			subs := make([]*subscription[S], 0, len(s.subs)-1)
			subs = append(subs, s.subs[:i]...)
			s.subs = append(subs, s.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store[S]) Subscribers() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// String implements fmt.Stringer.
func (s *Store[S]) String() string {
	state, err := s.TryGetState()
	if err != nil {
		return "store(<uninitialized>)"
	}
	return fmt.Sprintf("store(%s: %+v)", s.name, state)
}
