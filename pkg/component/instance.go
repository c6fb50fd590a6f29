package component

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/lifecycle/internal/errors"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// hookKind identifies the type of hook stored in a slot.
type hookKind uint8

const (
	hookEffect hookKind = iota + 1
	hookMemo
	hookState
	hookStore
	hookContext
)

func (k hookKind) String() string {
	switch k {
	case hookEffect:
		return "Effect"
	case hookMemo:
		return "Memo"
	case hookState:
		return "State"
	case hookStore:
		return "Store"
	case hookContext:
		return "Context"
	default:
		return "Unknown"
	}
}

type hookSlot struct {
	kind  hookKind
	value any
}

// Instance is a mounted component.
type Instance struct {
	id     uint64
	comp   *Component
	props  any
	key    string
	root   *Root
	parent *Instance
	depth  int

	children []*Instance

	// node is the placeholder in the parent's output; its Children hold
	// this instance's last output.
	node *vdom.VNode

	slots    []hookSlot
	slotIdx  int
	rendered bool

	// effects scheduled by the current render, run at commit.
	pending []*effectHook

	// values are context values provided to descendants.
	values map[any]any

	mounted bool
	dirty   bool
	logger  *slog.Logger
}

var instanceID atomic.Uint64

func newInstance(root *Root, parent *Instance, node *vdom.VNode) *Instance {
	comp, _ := node.Comp.(*Component)
	inst := &Instance{
		id:      instanceID.Add(1),
		comp:    comp,
		props:   node.CompArgs,
		key:     node.Key,
		root:    root,
		parent:  parent,
		node:    node,
		mounted: true,
	}
	if parent != nil {
		inst.depth = parent.depth + 1
	}
	inst.logger = root.logger.With("component", comp.ComponentName(), "instance", inst.id)
	return inst
}

// ID returns the instance identifier. A remount produces a new ID.
func (i *Instance) ID() uint64 { return i.id }

// Name returns the component name.
func (i *Instance) Name() string { return i.comp.ComponentName() }

// Component returns the component definition this instance renders.
func (i *Instance) Component() *Component { return i.comp }

// Parent returns the parent instance, or nil for the root instance.
func (i *Instance) Parent() *Instance { return i.parent }

// Children returns the mounted child instances in render order.
func (i *Instance) Children() []*Instance {
	out := make([]*Instance, len(i.children))
	copy(out, i.children)
	return out
}

// Mounted reports whether the instance is still part of the tree.
func (i *Instance) Mounted() bool { return i.mounted }

// Output returns the instance's last rendered output.
func (i *Instance) Output() *vdom.VNode { return i.node }

// String implements fmt.Stringer.
func (i *Instance) String() string {
	return fmt.Sprintf("%s#%d", i.Name(), i.id)
}

// slot returns the hook slot for the next hook of kind, creating it on the
// first render. The second return value is false for a freshly created slot.
func (i *Instance) slot(kind hookKind) (*hookSlot, bool) {
	idx := i.slotIdx
	i.slotIdx++

	if idx < len(i.slots) {
		s := &i.slots[idx]
		if s.kind != kind {
			panic(errors.New("E002").WithDetail(fmt.Sprintf(
				"%s: hook %d was %s on the first render, got %s", i, idx, s.kind, kind)))
		}
		return s, true
	}
	if i.rendered {
		panic(errors.New("E002").WithDetail(fmt.Sprintf(
			"%s: extra %s hook at index %d", i, kind, idx)))
	}
	i.slots = append(i.slots, hookSlot{kind: kind})
	return &i.slots[idx], false
}

func (i *Instance) startRender() {
	i.slotIdx = 0
	i.dirty = false
}

func (i *Instance) endRender() {
	if i.rendered && i.slotIdx != len(i.slots) {
		panic(errors.New("E002").WithDetail(fmt.Sprintf(
			"%s: expected %d hooks, got %d", i, len(i.slots), i.slotIdx)))
	}
	i.rendered = true
}

// teardown runs hook cleanups in hook order, then tears down children.
// Parents are torn down before their children.
func (i *Instance) teardown() {
	i.logger.Debug("unmount")
	for idx := range i.slots {
		switch h := i.slots[idx].value.(type) {
		case *effectHook:
			h.dispose()
		case *storeHook:
			h.release()
		}
	}
	i.root.observer.Unmounted(i.Name())
	for _, child := range i.children {
		child.teardown()
	}
	i.children = nil
	i.pending = nil
}

// detach marks the instance and its subtree as unmounted without running
// any cleanup. Cleanups run at commit.
func (i *Instance) detach() {
	i.mounted = false
	i.dirty = false
	for _, child := range i.children {
		child.detach()
	}
}

// lookup finds a context value provided by this instance or an ancestor.
func (i *Instance) lookup(key any) (any, bool) {
	for cur := i; cur != nil; cur = cur.parent {
		if v, ok := cur.values[key]; ok {
			return v, true
		}
	}
	return nil, false
}
