// Package store provides small observable state containers.
//
// A Store holds one value of type S and fans out every change to its
// subscribers synchronously, in subscription order:
//
//	counter := store.NewCounter()
//	unsubscribe := counter.Subscribe(func(s store.CounterState) {
//	    fmt.Println("count is now", s.Count)
//	})
//	defer unsubscribe()
//
//	counter.Increment() // prints "count is now 1"
//
// Stores are meant to be driven from a single goroutine (the UI loop).
// Notification runs on a snapshot of the subscriber list: a subscriber removed
// while a notification is in flight is not called again, and one added while a
// notification is in flight only sees later changes.
package store
