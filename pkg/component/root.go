package component

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lifecycle/internal/errors"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// ErrAlreadyMounted is returned by Mount when the root already holds a tree.
var ErrAlreadyMounted = errors.New("E005")

// maxFlushPasses bounds render passes caused by effects that keep marking
// instances dirty.
const maxFlushPasses = 100

// Observer receives lifecycle notifications from a Root.
type Observer interface {
	Mounted(component string)
	Unmounted(component string)
	Rendered(component string)
	Flushed(renders int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Mounted(string)             {}
func (nopObserver) Unmounted(string)           {}
func (nopObserver) Rendered(string)            {}
func (nopObserver) Flushed(int, time.Duration) {}

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the logger. Lifecycle events are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(r *Root) {
		r.logger = l
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(r *Root) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithTracer sets the tracer used for flush spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Root) {
		r.tracer = t
	}
}

// WithScheduler sets the function that is called when an instance becomes
// dirty outside Act and outside a flush. It must eventually call flush on
// the goroutine that drives the root.
//
// The default calls flush immediately, from inside the store's fan-out. A
// bare store change seen by several instances then commits once per
// subscriber, and a descendant of two subscribers renders twice. Wrap
// changes in Act, or use a scheduler that defers flush (as the server's
// event loop does), to get one render pass and one commit per change.
func WithScheduler(s func(flush func())) Option {
	return func(r *Root) {
		r.scheduler = s
	}
}

// Root owns a mounted component tree. A Root is not safe for concurrent
// use; drive it from one goroutine. Store changes are batched into a single
// commit only inside Act or through a deferring scheduler (see WithScheduler).
type Root struct {
	top  *Instance
	node *vdom.VNode

	logger    *slog.Logger
	observer  Observer
	tracer    trace.Tracer
	scheduler func(flush func())

	acting    int
	flushing  bool
	scheduled bool
	hasDirty  bool

	renders  int
	cleanups []func()
	effects  []*effectHook
}

// NewRoot creates an empty root.
func NewRoot(opts ...Option) *Root {
	r := &Root{
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("github.com/vango-dev/lifecycle/pkg/component")
	}
	if r.scheduler == nil {
		r.scheduler = func(flush func()) { flush() }
	}
	return r
}

// Mount renders c with props as the root of the tree and commits it.
func (r *Root) Mount(c *Component, props any) error {
	if r.top != nil {
		return ErrAlreadyMounted
	}

	ctx, span := r.tracer.Start(context.Background(), "component.mount",
		trace.WithAttributes(attribute.String("component", c.ComponentName())))
	defer span.End()

	r.ActContext(ctx, func() {
		r.node = c.Node(props)
		r.top = r.mountInstance(nil, r.node)
	})
	return nil
}

// Unmount tears down the whole tree.
func (r *Root) Unmount() {
	if r.top == nil {
		return
	}
	top := r.top
	r.top = nil
	r.node = nil
	top.detach()
	r.cleanups = append(r.cleanups, top.teardown)
	r.commit()
}

// Top returns the root instance, or nil when nothing is mounted.
func (r *Root) Top() *Instance {
	return r.top
}

// Tree returns the rendered tree. Component placeholders hold their
// instance output in Children.
func (r *Root) Tree() *vdom.VNode {
	return r.node
}

// Instances returns every mounted instance in tree order (pre-order).
func (r *Root) Instances() []*Instance {
	var out []*Instance
	var walk func(*Instance)
	walk = func(i *Instance) {
		out = append(out, i)
		for _, c := range i.children {
			walk(c)
		}
	}
	if r.top != nil {
		walk(r.top)
	}
	return out
}

// Find returns the mounted instances of the component named name.
func (r *Root) Find(name string) []*Instance {
	var out []*Instance
	for _, i := range r.Instances() {
		if i.Name() == name {
			out = append(out, i)
		}
	}
	return out
}

// Act runs fn and flushes once when the outermost Act returns.
func (r *Root) Act(fn func()) {
	r.ActContext(context.Background(), fn)
}

// ActContext is Act with a parent context for tracing.
func (r *Root) ActContext(ctx context.Context, fn func()) {
	r.acting++
	func() {
		defer func() { r.acting-- }()
		fn()
	}()
	if r.acting == 0 {
		r.flush(ctx)
	}
}

// Flush re-renders dirty instances and commits effects.
func (r *Root) Flush() {
	r.flush(context.Background())
}

func (r *Root) flush(ctx context.Context) {
	if r.flushing || r.top == nil {
		r.scheduled = false
		return
	}
	if !r.hasDirty && len(r.cleanups) == 0 && len(r.effects) == 0 {
		r.scheduled = false
		return
	}

	_, span := r.tracer.Start(ctx, "component.flush")
	defer span.End()

	start := time.Now()
	r.flushing = true
	r.renders = 0
	defer func() {
		r.flushing = false
		r.scheduled = false
	}()

	for pass := 0; r.hasDirty || len(r.cleanups) > 0 || len(r.effects) > 0; pass++ {
		if pass >= maxFlushPasses {
			r.logger.Error("flush did not settle", "passes", pass)
			break
		}
		r.hasDirty = false
		r.renderDirty(r.top)
		r.commit()
	}

	span.SetAttributes(attribute.Int("renders", r.renders))
	r.observer.Flushed(r.renders, time.Since(start))
	r.logger.Debug("flushed", "renders", r.renders)
}

// renderDirty walks the tree in pre-order and re-renders every dirty
// instance. A re-rendered instance re-renders its subtree, so the walk does
// not descend into it.
func (r *Root) renderDirty(i *Instance) {
	if i == nil || !i.mounted {
		return
	}
	if i.dirty {
		r.render(i)
		return
	}
	children := make([]*Instance, len(i.children))
	copy(children, i.children)
	for _, c := range children {
		r.renderDirty(c)
	}
}

func (r *Root) markDirty(i *Instance) {
	if !i.mounted || i.dirty {
		return
	}
	i.dirty = true
	r.hasDirty = true
	if r.acting > 0 || r.flushing || r.scheduled {
		return
	}
	r.scheduled = true
	r.scheduler(r.Flush)
}

// mountInstance creates and renders a new instance for node.
func (r *Root) mountInstance(parent *Instance, node *vdom.VNode) *Instance {
	inst := newInstance(r, parent, node)
	inst.logger.Debug("mount")
	r.render(inst)
	r.observer.Mounted(inst.Name())
	return inst
}

// render runs the component, reconciles its child components and queues
// the effects it scheduled. Children are rendered before the parent's
// effects are queued, so effects run children first.
func (r *Root) render(i *Instance) {
	ctx := &Ctx{inst: i}

	i.startRender()
	out := i.comp.render(ctx, i.props)
	i.endRender()
	r.renders++
	r.observer.Rendered(i.Name())

	if out == nil {
		i.node.Children = nil
	} else {
		i.node.Children = []*vdom.VNode{out}
	}

	r.reconcile(i, out)

	r.effects = append(r.effects, i.pending...)
	i.pending = nil
}

// reconcile matches the component placeholders in out against the
// instance's current children. Keyed placeholders match by key, the rest by
// position among unkeyed placeholders. A match requires the same
// *Component; anything else is unmounted and replaced.
func (r *Root) reconcile(parent *Instance, out *vdom.VNode) {
	var placeholders []*vdom.VNode
	out.Walk(func(n *vdom.VNode) bool {
		if n.Kind == vdom.KindComponent {
			if _, ok := n.Comp.(*Component); ok {
				placeholders = append(placeholders, n)
			}
			return false
		}
		return true
	})

	old := parent.children
	keyed := make(map[string]*Instance)
	var unkeyed []*Instance
	for _, c := range old {
		if c.key != "" {
			keyed[c.key] = c
		} else {
			unkeyed = append(unkeyed, c)
		}
	}

	used := make(map[*Instance]bool, len(old))
	next := make([]*Instance, 0, len(placeholders))
	pos := 0

	for _, ph := range placeholders {
		comp := ph.Comp.(*Component)

		var prev *Instance
		if ph.Key != "" {
			prev = keyed[ph.Key]
		} else if pos < len(unkeyed) {
			prev = unkeyed[pos]
			pos++
		}

		if prev != nil && !used[prev] && prev.comp == comp {
			used[prev] = true
			prev.props = ph.CompArgs
			prev.node = ph
			r.render(prev)
			next = append(next, prev)
			continue
		}

		if prev != nil && !used[prev] {
			used[prev] = true
			r.unmountInstance(prev)
		}
		next = append(next, r.mountInstance(parent, ph))
	}

	for _, c := range old {
		if !used[c] {
			r.unmountInstance(c)
		}
	}

	parent.children = next
}

func (r *Root) unmountInstance(i *Instance) {
	i.detach()
	r.cleanups = append(r.cleanups, i.teardown)
}

// commit runs queued cleanups, then queued effects.
func (r *Root) commit() {
	for len(r.cleanups) > 0 || len(r.effects) > 0 {
		cleanups := r.cleanups
		r.cleanups = nil
		for _, fn := range cleanups {
			fn()
		}

		effects := r.effects
		r.effects = nil
		for _, e := range effects {
			e.run()
		}
	}
}
