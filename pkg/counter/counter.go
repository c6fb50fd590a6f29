package counter

import (
	"github.com/vango-dev/lifecycle/pkg/component"
	"github.com/vango-dev/lifecycle/pkg/store"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// Actions are the actions of the counter store bound to a render context.
type Actions struct {
	Increment func()
}

// UseCounter subscribes the rendering instance to s and returns the current
// state with its actions. Increment runs inside the instance root's Act, so
// one call produces one render pass.
func UseCounter(ctx *component.Ctx, s *store.Counter) (store.CounterState, Actions) {
	state := component.UseStore[store.CounterState](ctx, s)
	increment := component.UseMemo(ctx, func() func() {
		root := ctx.Root()
		return func() { root.Act(s.Increment) }
	}, []any{s})
	return state, Actions{Increment: increment}
}

// Wrapper is the state-injecting wrapper for one counter store. Wrappers are
// compared by pointer, so a *Wrapper can be used as a memo dependency.
type Wrapper struct {
	store *store.Counter
}

// NewWrapper returns a wrapper injecting s.
func NewWrapper(s *store.Counter) *Wrapper {
	return &Wrapper{store: s}
}

// Store returns the wrapped store.
func (w *Wrapper) Store() *store.Counter {
	return w.store
}

// Wrap returns a new component that renders inner with Count and Increment
// taken from the store, overridden by any explicitly passed props.
func (w *Wrapper) Wrap(inner *component.Component) *component.Component {
	return component.Define("WithCounter("+inner.ComponentName()+")",
		func(ctx *component.Ctx, explicit Props) *vdom.VNode {
			state, actions := UseCounter(ctx, w.store)
			injected := Props{
				Count:     Value(state.Count),
				Increment: actions.Increment,
			}
			return inner.Node(Merge(injected, explicit))
		})
}
