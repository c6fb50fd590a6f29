package store

import "fmt"

// CounterName is the name of the counter store.
const CounterName = "counter"

// CounterState is the state of the shared counter.
type CounterState struct {
	Count int
}

// Counter is a store holding a single non-decreasing count.
// The only mutation is Increment.
type Counter struct {
	store *Store[CounterState]
}

// NewCounter creates a counter starting at zero.
func NewCounter(opts ...Option) *Counter {
	return &Counter{
		store: New(CounterName, CounterState{}, opts...),
	}
}

func (c *Counter) inner() *Store[CounterState] {
	if c == nil {
		return nil
	}
	return c.store
}

// Name returns the store name.
func (c *Counter) Name() string {
	return c.inner().Name()
}

// TryGetState returns the current state, or ErrUninitializedStore.
func (c *Counter) TryGetState() (CounterState, error) {
	return c.inner().TryGetState()
}

// GetState returns the current state.
func (c *Counter) GetState() CounterState {
	return c.inner().GetState()
}

// TryIncrement adds one to the count and notifies subscribers.
func (c *Counter) TryIncrement() error {
	err := c.inner().Update(func(s CounterState) CounterState {
		return CounterState{Count: s.Count + 1}
	})
	if err != nil {
		return fmt.Errorf("increment: %w", err)
	}
	return nil
}

// Increment adds one to the count and notifies subscribers.
// It panics if the counter was not created with NewCounter.
func (c *Counter) Increment() {
	if err := c.TryIncrement(); err != nil {
		panic(err)
	}
}

// Subscribe registers fn for every future state change.
func (c *Counter) Subscribe(fn func(CounterState)) (unsubscribe func()) {
	return c.inner().Subscribe(fn)
}

// Subscribers returns the number of active subscriptions.
func (c *Counter) Subscribers() int {
	return c.inner().Subscribers()
}
