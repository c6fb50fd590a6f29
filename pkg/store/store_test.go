package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStartsAtZero(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, CounterState{Count: 0}, c.GetState())
	assert.Equal(t, CounterName, c.Name())
}

func TestIncrementIsMonotonic(t *testing.T) {
	c := NewCounter()
	for n := 1; n <= 25; n++ {
		c.Increment()
		require.Equal(t, n, c.GetState().Count)
	}
}

func TestSubscribersObserveSameValue(t *testing.T) {
	c := NewCounter()

	var a, b []int
	c.Subscribe(func(s CounterState) { a = append(a, s.Count) })
	c.Subscribe(func(s CounterState) { b = append(b, s.Count) })

	c.Increment()
	c.Increment()

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, a, b)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := NewCounter()

	calls := 0
	unsubscribe := c.Subscribe(func(CounterState) { calls++ })
	c.Increment()
	unsubscribe()
	c.Increment()
	c.Increment()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c.Subscribers())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	c := NewCounter()
	first := c.Subscribe(func(CounterState) {})
	keep := 0
	c.Subscribe(func(CounterState) { keep++ })

	first()
	first()
	first()

	require.Equal(t, 1, c.Subscribers())
	c.Increment()
	assert.Equal(t, 1, keep)
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	c := NewCounter()

	var second func()
	secondCalls := 0
	c.Subscribe(func(CounterState) {
		// The first subscriber removes the second before it is reached.
		second()
	})
	second = c.Subscribe(func(CounterState) { secondCalls++ })

	c.Increment()
	assert.Equal(t, 0, secondCalls)
}

func TestSubscribeDuringNotification(t *testing.T) {
	c := NewCounter()

	var late []int
	added := false
	c.Subscribe(func(CounterState) {
		if added {
			return
		}
		added = true
		c.Subscribe(func(s CounterState) { late = append(late, s.Count) })
	})

	c.Increment()
	assert.Empty(t, late, "subscriber added mid-dispatch must not see the in-flight change")

	c.Increment()
	assert.Equal(t, []int{2}, late)
}

func TestLateSubscriberScenario(t *testing.T) {
	c := NewCounter()

	var a, b []int
	c.Subscribe(func(s CounterState) { a = append(a, s.Count) })

	c.Increment()
	c.Increment()

	initialB := c.GetState().Count
	c.Subscribe(func(s CounterState) { b = append(b, s.Count) })

	c.Increment()

	assert.Equal(t, 3, c.GetState().Count)
	assert.Equal(t, []int{1, 2, 3}, a)
	assert.Equal(t, 2, initialB)
	assert.Equal(t, []int{3}, b)
}

func TestConcurrentIncrementsDeliverInOrder(t *testing.T) {
	c := NewCounter()

	var got []int
	c.Subscribe(func(s CounterState) { got = append(got, s.Count) })

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	// The last dispatcher drains the queue before its Increment returns.
	require.Len(t, got, workers*perWorker)
	for i, n := range got {
		assert.Equal(t, i+1, n)
	}
	assert.Equal(t, workers*perWorker, c.GetState().Count)
}

func TestIncrementFromSubscriberIsQueued(t *testing.T) {
	c := NewCounter()

	var first, second []int
	c.Subscribe(func(s CounterState) {
		first = append(first, s.Count)
		if s.Count == 1 {
			c.Increment()
		}
	})
	c.Subscribe(func(s CounterState) { second = append(second, s.Count) })

	c.Increment()

	assert.Equal(t, 2, c.GetState().Count)
	assert.Equal(t, []int{1, 2}, first)
	assert.Equal(t, []int{1, 2}, second, "every subscriber sees 1 before 2")
}

func TestSubscriberPanicDoesNotWedgeStore(t *testing.T) {
	c := NewCounter()

	fail := true
	var got []int
	c.Subscribe(func(s CounterState) {
		if fail {
			fail = false
			panic("boom")
		}
		got = append(got, s.Count)
	})

	assert.Panics(t, func() { c.Increment() })
	c.Increment()
	assert.Equal(t, []int{2}, got)
}

func TestUninitializedStore(t *testing.T) {
	var c *Counter

	_, err := c.TryGetState()
	assert.True(t, errors.Is(err, ErrUninitializedStore))

	err = c.TryIncrement()
	assert.ErrorIs(t, err, ErrUninitializedStore)

	assert.Panics(t, func() { c.Increment() })
	assert.Panics(t, func() { _ = c.GetState() })

	var zero Store[CounterState]
	_, err = zero.TryGetState()
	assert.ErrorIs(t, err, ErrUninitializedStore)
	assert.Equal(t, "store(<uninitialized>)", zero.String())

	// Subscribing to an uninitialized store is a no-op.
	unsubscribe := zero.Subscribe(func(CounterState) {})
	unsubscribe()
}

func TestGenericStore(t *testing.T) {
	type theme struct {
		Name string
		Dark bool
	}

	s := New("theme", theme{Name: "light"})
	var seen []theme
	s.Subscribe(func(v theme) { seen = append(seen, v) })

	require.NoError(t, s.SetState(theme{Name: "night", Dark: true}))
	require.NoError(t, s.Update(func(v theme) theme {
		v.Name = "midnight"
		return v
	}))

	assert.Equal(t, theme{Name: "midnight", Dark: true}, s.GetState())
	assert.Len(t, seen, 2)
	assert.Equal(t, "theme", s.Name())
	assert.Contains(t, s.String(), "midnight")
}

func TestSubscribeNilCallback(t *testing.T) {
	c := NewCounter()
	unsubscribe := c.Subscribe(nil)
	unsubscribe()
	assert.Equal(t, 0, c.Subscribers())
	c.Increment()
}
