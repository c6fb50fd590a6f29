package component

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vango-dev/lifecycle/internal/errors"
)

// ErrHookOutsideRender is the panic value of a hook called without a render
// context.
var ErrHookOutsideRender = errors.New("E004")

// Ctx is the render context passed to a component's render function.
type Ctx struct {
	inst *Instance
}

// Instance returns the instance being rendered.
func (c *Ctx) Instance() *Instance { return c.inst }

// Root returns the root the instance belongs to.
func (c *Ctx) Root() *Root { return c.inst.root }

// Logger returns a logger scoped to the instance.
func (c *Ctx) Logger() *slog.Logger { return c.inst.logger }

// Act runs fn on the instance's root; see Root.Act.
func (c *Ctx) Act(fn func()) { c.inst.root.Act(fn) }

func (c *Ctx) mustInstance() *Instance {
	if c == nil || c.inst == nil {
		panic(ErrHookOutsideRender)
	}
	return c.inst
}

// =============================================================================
// Effects
// =============================================================================

type effectHook struct {
	inst     *Instance
	fn       func() Cleanup
	deps     []any
	cleanup  Cleanup
	disposed bool
}

func (e *effectHook) run() {
	if e.disposed || !e.inst.mounted {
		return
	}
	e.cleanup = e.fn()
}

func (e *effectHook) runCleanup() {
	if e.cleanup != nil {
		fn := e.cleanup
		e.cleanup = nil
		fn()
	}
}

func (e *effectHook) dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.runCleanup()
}

// UseEffect schedules fn to run after the render is committed.
//
// With nil deps the effect runs after every render. Otherwise it runs after
// the first render and after any render where deps differ from the previous
// render's deps; an empty non-nil slice runs it once. The previous run's
// cleanup is called before the effect re-runs and on unmount.
func UseEffect(ctx *Ctx, fn func() Cleanup, deps []any) {
	inst := ctx.mustInstance()
	s, existed := inst.slot(hookEffect)
	if !existed {
		e := &effectHook{inst: inst, fn: fn, deps: copyDeps(deps)}
		s.value = e
		inst.pending = append(inst.pending, e)
		return
	}

	e := s.value.(*effectHook)
	if deps != nil && !depsChanged(e.deps, deps) {
		return
	}
	e.fn = fn
	e.deps = copyDeps(deps)
	inst.root.cleanups = append(inst.root.cleanups, e.runCleanup)
	inst.pending = append(inst.pending, e)
}

// OnMount runs fn once after the instance is first committed. The returned
// cleanup, if any, runs on unmount.
func OnMount(ctx *Ctx, fn func() Cleanup) {
	UseEffect(ctx, fn, []any{})
}

// =============================================================================
// Memoization
// =============================================================================

type memoHook[T any] struct {
	value T
	deps  []any
}

// UseMemo returns compute's result, recomputing only when deps change.
// With nil deps it recomputes on every render.
func UseMemo[T any](ctx *Ctx, compute func() T, deps []any) T {
	inst := ctx.mustInstance()
	s, existed := inst.slot(hookMemo)
	if !existed {
		m := &memoHook[T]{deps: copyDeps(deps)}
		s.value = m
		m.value = compute()
		return m.value
	}

	m, ok := s.value.(*memoHook[T])
	if !ok {
		panic(errors.New("E002").WithDetail(fmt.Sprintf(
			"%s: memo slot holds %T, want %T", inst, s.value, m)))
	}
	if deps == nil || depsChanged(m.deps, deps) {
		m.value = compute()
		m.deps = copyDeps(deps)
	}
	return m.value
}

// UseCallback returns the value cached on the first render, replacing it with
// v only when deps change. v is evaluated on every render by the caller;
// only the cached value escapes.
func UseCallback[T any](ctx *Ctx, v T, deps []any) T {
	return UseMemo(ctx, func() T { return v }, deps)
}

// =============================================================================
// State
// =============================================================================

type stateHook[T any] struct {
	value T
	set   func(T)
}

// UseState returns the instance-local value and a setter. Setting a value
// different from the current one marks the instance dirty.
func UseState[T any](ctx *Ctx, initial T) (T, func(T)) {
	inst := ctx.mustInstance()
	s, existed := inst.slot(hookState)
	if !existed {
		h := &stateHook[T]{value: initial}
		h.set = func(v T) {
			if sameDep(h.value, v) {
				return
			}
			h.value = v
			inst.root.markDirty(inst)
		}
		s.value = h
		return h.value, h.set
	}

	h, ok := s.value.(*stateHook[T])
	if !ok {
		panic(errors.New("E002").WithDetail(fmt.Sprintf(
			"%s: state slot holds %T, want %T", inst, s.value, h)))
	}
	return h.value, h.set
}

// =============================================================================
// External stores
// =============================================================================

// Source is an observable state container.
type Source[S any] interface {
	GetState() S
	Subscribe(fn func(S)) (unsubscribe func())
}

type storeHook struct {
	src         any
	unsubscribe func()
}

func (h *storeHook) release() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
}

// UseStore subscribes the instance to src on first render and returns the
// current state. Every notification marks the instance dirty. The
// subscription is released on unmount, or replaced if a different src is
// passed on a later render.
func UseStore[S any](ctx *Ctx, src Source[S]) S {
	inst := ctx.mustInstance()
	s, existed := inst.slot(hookStore)

	var h *storeHook
	if existed {
		h = s.value.(*storeHook)
	} else {
		h = &storeHook{}
		s.value = h
	}

	if !existed || !sameDep(h.src, src) {
		h.release()
		h.src = src
		h.unsubscribe = src.Subscribe(func(S) {
			inst.root.markDirty(inst)
		})
		inst.logger.Debug("subscribed")
	}
	return src.GetState()
}

// =============================================================================
// Context values
// =============================================================================

// Provide makes value available to the instance's descendants under key.
func Provide(ctx *Ctx, key, value any) {
	inst := ctx.mustInstance()
	if inst.values == nil {
		inst.values = make(map[any]any)
	}
	inst.values[key] = value
}

// Lookup returns the value provided under key by the nearest ancestor (or
// the instance itself).
func Lookup[T any](ctx *Ctx, key any) (T, bool) {
	var zero T
	v, ok := ctx.mustInstance().lookup(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// =============================================================================
// Dependency comparison
// =============================================================================

func copyDeps(deps []any) []any {
	if deps == nil {
		return nil
	}
	out := make([]any, len(deps))
	copy(out, deps)
	return out
}

// depsChanged compares dependency lists element-wise. A nil list always
// counts as changed.
func depsChanged(prev, next []any) bool {
	if prev == nil || next == nil || len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if !sameDep(prev[i], next[i]) {
			return true
		}
	}
	return false
}

// sameDep reports whether a and b are equal with ==. Values of
// non-comparable types are never equal.
func sameDep(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	// Comparable struct or array types can still hold non-comparable
	// values in interface fields.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
