package component

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/lifecycle/pkg/store"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// lifecycleLog collects "<id> mount." / "<id> unmount." lines.
type lifecycleLog struct {
	lines []string
}

func (l *lifecycleLog) add(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *lifecycleLog) take() []string {
	out := l.lines
	l.lines = nil
	return out
}

type leafProps struct {
	ID    string
	Count int
}

func newLeaf(log *lifecycleLog) *Component {
	return Define("Leaf", func(ctx *Ctx, p leafProps) *vdom.VNode {
		UseEffect(ctx, func() Cleanup {
			log.add("%s mount.", p.ID)
			return func() { log.add("%s unmount.", p.ID) }
		}, []any{p.ID})
		return vdom.Div(vdom.Textf("%s: %d", p.ID, p.Count))
	})
}

func TestMountRunsEffectsChildrenFirst(t *testing.T) {
	log := &lifecycleLog{}
	leaf := newLeaf(log)
	parent := Define("Parent", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		OnMount(ctx, func() Cleanup {
			log.add("Parent mount.")
			return func() { log.add("Parent unmount.") }
		})
		return vdom.Fragment(
			leaf.Node(leafProps{ID: "a"}),
			vdom.Div(leaf.Node(leafProps{ID: "b"})),
		)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(parent, nil))
	assert.Equal(t, []string{"a mount.", "b mount.", "Parent mount."}, log.take())

	html := root.Tree().TextContent()
	assert.Equal(t, "a: 0b: 0", html)

	root.Unmount()
	assert.Equal(t, []string{"Parent unmount.", "a unmount.", "b unmount."}, log.take())
	assert.Nil(t, root.Top())
}

func TestMountTwiceFails(t *testing.T) {
	root := NewRoot()
	c := Define("Empty", func(*Ctx, struct{}) *vdom.VNode { return nil })
	require.NoError(t, root.Mount(c, nil))
	assert.ErrorIs(t, root.Mount(c, nil), ErrAlreadyMounted)
}

func TestSameComponentIsUpdatedNotRemounted(t *testing.T) {
	log := &lifecycleLog{}
	leaf := newLeaf(log)

	var bump func(int)
	parent := Define("Parent", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		n, set := UseState(ctx, 0)
		bump = set
		return leaf.Node(leafProps{ID: "stable", Count: n})
	})

	root := NewRoot()
	require.NoError(t, root.Mount(parent, nil))
	first := root.Find("Leaf")[0]
	log.take()

	root.Act(func() { bump(5) })

	assert.Empty(t, log.take(), "re-render with the same component must not remount")
	again := root.Find("Leaf")
	require.Len(t, again, 1)
	assert.Same(t, first, again[0])
	assert.Equal(t, "stable: 5", root.Tree().TextContent())
}

func TestNewComponentIdentityRemounts(t *testing.T) {
	log := &lifecycleLog{}
	leaf := newLeaf(log)

	var bump func(int)
	parent := Define("Parent", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		n, set := UseState(ctx, 0)
		bump = set
		// A fresh definition on every render has a fresh identity.
		inline := Define("Inline", func(ctx *Ctx, _ struct{}) *vdom.VNode {
			return leaf.Node(leafProps{ID: "inline", Count: n})
		})
		return inline.Node(nil)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(parent, nil))
	assert.Equal(t, []string{"inline mount."}, log.take())

	root.Act(func() { bump(1) })
	assert.Equal(t, []string{"inline unmount.", "inline mount."}, log.take())
}

func TestMemoAndCallbackKeepIdentity(t *testing.T) {
	log := &lifecycleLog{}
	leaf := newLeaf(log)
	wrap := func(id string) *Component {
		return Define("Wrapped", func(ctx *Ctx, _ struct{}) *vdom.VNode {
			return leaf.Node(leafProps{ID: id})
		})
	}

	var bump func(int)
	dep := "stable-dep"
	parent := Define("Parent", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		n, set := UseState(ctx, 0)
		bump = set
		_ = n
		viaCallback := UseCallback(ctx, wrap("callback"), []any{dep})
		plain := wrap("plain")
		viaMemo := UseMemo(ctx, func() *Component { return wrap("memo") }, []any{dep})
		return vdom.Fragment(plain.Node(nil), viaCallback.Node(nil), viaMemo.Node(nil))
	})

	root := NewRoot()
	require.NoError(t, root.Mount(parent, nil))
	assert.Equal(t, []string{"plain mount.", "callback mount.", "memo mount."}, log.take())

	for i := 1; i <= 3; i++ {
		root.Act(func() { bump(i) })
		assert.Equal(t, []string{"plain unmount.", "plain mount."}, log.take(), "render %d", i)
	}
}

func TestUseMemoRecomputesOnDepsChange(t *testing.T) {
	computed := 0
	var setDep func(string)
	c := Define("Memo", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		dep, set := UseState(ctx, "x")
		setDep = set
		v := UseMemo(ctx, func() string {
			computed++
			return strings.ToUpper(dep)
		}, []any{dep})
		return vdom.Text(v)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))
	root.Act(func() { setDep("x") })
	assert.Equal(t, 1, computed, "setting an equal value does not re-render")

	root.Act(func() { setDep("y") })
	assert.Equal(t, 2, computed)
	assert.Equal(t, "Y", root.Tree().TextContent())
}

func TestEffectDepsChangeRunsCleanupFirst(t *testing.T) {
	log := &lifecycleLog{}
	var setID func(string)
	c := Define("Effect", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		id, set := UseState(ctx, "one")
		setID = set
		UseEffect(ctx, func() Cleanup {
			log.add("%s mount.", id)
			return func() { log.add("%s unmount.", id) }
		}, []any{id})
		return nil
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))
	root.Act(func() { setID("two") })
	assert.Equal(t, []string{"one mount.", "one unmount.", "two mount."}, log.take())
}

func TestEffectWithoutDepsRunsEveryRender(t *testing.T) {
	runs := 0
	var bump func(int)
	c := Define("Every", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		n, set := UseState(ctx, 0)
		bump = set
		UseEffect(ctx, func() Cleanup { runs++; return nil }, nil)
		return vdom.Textf("%d", n)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))
	root.Act(func() { bump(1) })
	root.Act(func() { bump(2) })
	assert.Equal(t, 3, runs)
}

func TestUseStoreSubscribesAndReleases(t *testing.T) {
	counter := store.NewCounter()
	renders := 0
	c := Define("Display", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		renders++
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Textf("current: %d", s.Count)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))
	assert.Equal(t, 1, counter.Subscribers())

	counter.Increment()
	assert.Equal(t, "current: 1", root.Tree().TextContent())
	assert.Equal(t, 2, renders)

	root.Unmount()
	assert.Equal(t, 0, counter.Subscribers())

	counter.Increment()
	assert.Equal(t, 2, renders, "no renders after unmount")
}

func TestActBatchesRenders(t *testing.T) {
	counter := store.NewCounter()
	renders := 0
	c := Define("Display", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		renders++
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Textf("%d", s.Count)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))
	root.Act(func() {
		counter.Increment()
		counter.Increment()
		counter.Increment()
	})
	assert.Equal(t, 2, renders)
	assert.Equal(t, "3", root.Tree().TextContent())
}

func TestBareStoreChangeCommitsPerSubscriber(t *testing.T) {
	counter := store.NewCounter()
	renders := map[string]int{}
	leaf := Define("Leaf", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		renders["Leaf"]++
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Textf("%d", s.Count)
	})
	top := Define("Top", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		renders["Top"]++
		UseStore[store.CounterState](ctx, counter)
		return leaf.Node(nil)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(top, nil))
	clear(renders)

	// Each subscriber flushes on its own notification.
	counter.Increment()
	assert.Equal(t, map[string]int{"Top": 1, "Leaf": 2}, renders)

	clear(renders)
	root.Act(counter.Increment)
	assert.Equal(t, map[string]int{"Top": 1, "Leaf": 1}, renders)
	assert.Equal(t, "2", root.Tree().TextContent())
}

func TestParentRenderCoversDirtyChild(t *testing.T) {
	counter := store.NewCounter()
	var childRenders int
	child := Define("Child", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		childRenders++
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Textf("child %d", s.Count)
	})
	parent := Define("Parent", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Div(vdom.Textf("parent %d ", s.Count), child.Node(nil))
	})

	root := NewRoot()
	require.NoError(t, root.Mount(parent, nil))
	root.Act(counter.Increment)

	assert.Equal(t, 2, childRenders, "child renders once per flush")
	assert.Equal(t, "parent 1 child 1", root.Tree().TextContent())
}

func TestSchedulerDefersFlush(t *testing.T) {
	counter := store.NewCounter()
	var queued []func()
	root := NewRoot(WithScheduler(func(flush func()) { queued = append(queued, flush) }))

	c := Define("Display", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		s := UseStore[store.CounterState](ctx, counter)
		return vdom.Textf("%d", s.Count)
	})
	require.NoError(t, root.Mount(c, nil))

	counter.Increment()
	counter.Increment()
	require.Len(t, queued, 1, "one flush scheduled for many notifications")
	assert.Equal(t, "0", root.Tree().TextContent())

	queued[0]()
	assert.Equal(t, "2", root.Tree().TextContent())
}

func TestKeyedChildrenFollowKeys(t *testing.T) {
	log := &lifecycleLog{}
	leaf := newLeaf(log)
	var setOrder func(string)
	list := Define("List", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		order, set := UseState(ctx, "ab")
		setOrder = set
		var nodes []*vdom.VNode
		for _, r := range order {
			id := string(r)
			nodes = append(nodes, leaf.KeyedNode(id, leafProps{ID: id}))
		}
		return vdom.Fragment(nodes)
	})

	root := NewRoot()
	require.NoError(t, root.Mount(list, nil))
	log.take()

	root.Act(func() { setOrder("ba") })
	assert.Empty(t, log.take(), "reordering keyed children keeps instances")

	root.Act(func() { setOrder("b") })
	assert.Equal(t, []string{"a unmount."}, log.take())
}

func TestHookOrderChangePanics(t *testing.T) {
	var flip func(bool)
	c := Define("Flaky", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		on, set := UseState(ctx, false)
		flip = set
		if on {
			UseMemo(ctx, func() int { return 1 }, nil)
		} else {
			UseEffect(ctx, func() Cleanup { return nil }, nil)
		}
		return nil
	})

	root := NewRoot()
	require.NoError(t, root.Mount(c, nil))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.Contains(t, err.Error(), "E002")
	}()
	root.Act(func() { flip(true) })
}

func TestHookOutsideRenderPanics(t *testing.T) {
	counter := store.NewCounter()
	hooks := map[string]func(){
		"UseEffect": func() { UseEffect(nil, func() Cleanup { return nil }, nil) },
		"UseMemo":   func() { UseMemo(nil, func() int { return 1 }, nil) },
		"UseState":  func() { UseState(nil, 0) },
		"UseStore":  func() { UseStore[store.CounterState](nil, counter) },
		"Provide":   func() { Provide(&Ctx{}, "key", 1) },
	}

	for name, call := range hooks {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithError(t, ErrHookOutsideRender.Error(), call)
		})
	}
	assert.Equal(t, 0, counter.Subscribers())
}

func TestPropsMismatchPanics(t *testing.T) {
	c := Define("Typed", func(*Ctx, leafProps) *vdom.VNode { return nil })
	root := NewRoot()

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrPropsMismatch))
	}()
	_ = root.Mount(c, "wrong")
}

func TestProvideAndLookup(t *testing.T) {
	type key struct{}
	var got string
	var found bool
	leafC := Define("Reader", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		got, found = Lookup[string](ctx, key{})
		return nil
	})
	top := Define("Provider", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		Provide(ctx, key{}, "value")
		return vdom.Div(leafC.Node(nil))
	})

	root := NewRoot()
	require.NoError(t, root.Mount(top, nil))
	assert.True(t, found)
	assert.Equal(t, "value", got)
}

type recordingObserver struct {
	mounted, unmounted, rendered, flushes int
}

func (o *recordingObserver) Mounted(string)             { o.mounted++ }
func (o *recordingObserver) Unmounted(string)           { o.unmounted++ }
func (o *recordingObserver) Rendered(string)            { o.rendered++ }
func (o *recordingObserver) Flushed(int, time.Duration) { o.flushes++ }

func TestObserverSeesLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	leaf := newLeaf(&lifecycleLog{})
	c := Define("Pair", func(ctx *Ctx, _ struct{}) *vdom.VNode {
		return vdom.Fragment(leaf.Node(leafProps{ID: "x"}), leaf.Node(leafProps{ID: "y"}))
	})

	root := NewRoot(WithObserver(obs))
	require.NoError(t, root.Mount(c, nil))
	root.Unmount()

	assert.Equal(t, 3, obs.mounted)
	assert.Equal(t, 3, obs.unmounted)
	assert.Equal(t, 3, obs.rendered)
	assert.Equal(t, 1, obs.flushes)
}

func TestSameDep(t *testing.T) {
	type withFunc struct{ F any }
	fn := func() {}

	assert.True(t, sameDep(nil, nil))
	assert.True(t, sameDep(1, 1))
	assert.False(t, sameDep(1, int64(1)))
	assert.False(t, sameDep([]int{1}, []int{1}))
	assert.False(t, sameDep(fn, fn))
	assert.False(t, sameDep(withFunc{F: fn}, withFunc{F: fn}))

	p := &struct{}{}
	assert.True(t, depsChanged(nil, nil))
	assert.False(t, depsChanged([]any{p, "a"}, []any{p, "a"}))
	assert.True(t, depsChanged([]any{p}, []any{p, "a"}))
}
