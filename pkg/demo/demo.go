// Package demo is the counter lifecycle demo application.
//
// Three parents each render three children built through the counter
// Wrapper in different ways: wrapped on every render, cached with
// UseCallback, and cached with UseMemo. Each child writes "<id> mount." and
// "<id> unmount." lines, so the output shows which children survive a count
// change and which are torn down and mounted again.
package demo

import (
	"fmt"
	"io"

	"github.com/vango-dev/lifecycle/pkg/component"
	"github.com/vango-dev/lifecycle/pkg/counter"
	"github.com/vango-dev/lifecycle/pkg/store"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// Section headings rendered by App.
const (
	HeadingParent          = "-- Parent"
	HeadingParentWithCount = "-- Parent With Counter"
	HeadingPassCount       = "-- Parent With Counter (pass count to children)"
)

// Demo holds the demo components bound to one store and one lifecycle
// output.
type Demo struct {
	store *store.Counter
	hoc   *counter.Wrapper
	out   io.Writer

	Counter                    *component.Component
	Child                      *component.Component
	Parent                     *component.Component
	ParentWithCounter          *component.Component
	ParentWithCounterPassCount *component.Component
	App                        *component.Component
}

// New builds the demo components. Lifecycle lines are written to out.
func New(s *store.Counter, out io.Writer) *Demo {
	if out == nil {
		out = io.Discard
	}
	d := &Demo{
		store: s,
		hoc:   counter.NewWrapper(s),
		out:   out,
	}

	d.Counter = component.Define("Counter", d.renderCounter)
	d.Child = component.Define("Child", d.renderChild)
	d.Parent = component.Define("Parent", d.renderParent)
	d.ParentWithCounter = d.hoc.Wrap(
		component.Define("ParentWithCounter", d.renderParentWithCounter))
	d.ParentWithCounterPassCount = d.hoc.Wrap(
		component.Define("ParentWithCounterPassCount", d.renderPassCount))
	d.App = component.Define("App", d.renderApp)
	return d
}

// Store returns the demo's store.
func (d *Demo) Store() *store.Counter { return d.store }

// Wrapper returns the wrapper passed to the parents as their hoc prop.
func (d *Demo) Wrapper() *counter.Wrapper { return d.hoc }

// lifecycle returns an effect that logs id's mount and unmount.
func (d *Demo) lifecycle(id string) func() component.Cleanup {
	return func() component.Cleanup {
		fmt.Fprintf(d.out, "%s mount.\n", id)
		return func() {
			fmt.Fprintf(d.out, "%s unmount.\n", id)
		}
	}
}

func (d *Demo) renderCounter(ctx *component.Ctx, _ struct{}) *vdom.VNode {
	state, actions := counter.UseCounter(ctx, d.store)
	return vdom.Fragment(
		vdom.Span(vdom.Textf("current: %d", state.Count)),
		vdom.Button(
			vdom.StyleAttr("margin-left: 20px"),
			vdom.OnClick(actions.Increment),
			"Increment",
		),
	)
}

func (d *Demo) renderChild(ctx *component.Ctx, p counter.Props) *vdom.VNode {
	component.UseEffect(ctx, d.lifecycle(p.ChildID), []any{p.ChildID})
	return vdom.Div(vdom.Textf("%s: %d", p.ChildID, p.CountValue()))
}

// childAs returns a component that renders Child with the given id and
// whatever other props it receives.
func (d *Demo) childAs(id string) *component.Component {
	return component.Define(id, func(ctx *component.Ctx, p counter.Props) *vdom.VNode {
		p.ChildID = id
		return d.Child.Node(p)
	})
}

func (d *Demo) hocOf(p counter.Props) *counter.Wrapper {
	if p.HOC == nil {
		return d.hoc
	}
	return p.HOC
}

func (d *Demo) renderParent(ctx *component.Ctx, p counter.Props) *vdom.VNode {
	component.OnMount(ctx, d.lifecycle("Parent"))

	hoc := d.hocOf(p)
	withCallback := component.UseCallback(ctx, hoc.Wrap(d.childAs("PChild_withcallback")), []any{hoc})
	plain := hoc.Wrap(d.childAs("PChild"))
	withMemo := component.UseMemo(ctx, func() *component.Component {
		return hoc.Wrap(d.childAs("PChild_withmemo"))
	}, []any{hoc})

	return vdom.Fragment(
		plain.Node(nil),
		withCallback.Node(nil),
		withMemo.Node(nil),
	)
}

func (d *Demo) renderParentWithCounter(ctx *component.Ctx, p counter.Props) *vdom.VNode {
	component.OnMount(ctx, d.lifecycle("ParentWithCounter"))

	hoc := d.hocOf(p)
	withCallback := component.UseCallback(ctx, hoc.Wrap(d.childAs("PWCChild_withcallback")), []any{hoc})
	plain := d.hoc.Wrap(d.childAs("PWCChild"))
	withMemo := component.UseMemo(ctx, func() *component.Component {
		return hoc.Wrap(d.childAs("PWCChild_withmemo"))
	}, []any{hoc})

	return vdom.Fragment(
		plain.Node(nil),
		withCallback.Node(nil),
		withMemo.Node(nil),
	)
}

// passCountChild returns a component that renders Child with a fixed count.
func (d *Demo) passCountChild(id string, count int) *component.Component {
	return component.Define(id, func(ctx *component.Ctx, _ struct{}) *vdom.VNode {
		return d.Child.Node(counter.Props{Count: counter.Value(count), ChildID: id})
	})
}

func (d *Demo) renderPassCount(ctx *component.Ctx, p counter.Props) *vdom.VNode {
	component.OnMount(ctx, d.lifecycle("ParentWithCounter (pass count to children)"))

	count := p.CountValue()
	withCallback := component.UseCallback(ctx,
		d.passCountChild("PWCChild(pass count)_withcallback", count), []any{count})
	plain := d.passCountChild("PWCChild(pass count)", count)
	withMemo := component.UseMemo(ctx, func() *component.Component {
		return d.passCountChild("PWCChild(pass count)_withmemo", count)
	}, []any{count})

	return vdom.Fragment(
		plain.Node(nil),
		withCallback.Node(nil),
		withMemo.Node(nil),
	)
}

func (d *Demo) renderApp(ctx *component.Ctx, _ struct{}) *vdom.VNode {
	return vdom.Fragment(
		d.Counter.Node(nil),
		vdom.Br(),
		vdom.Div(HeadingParent),
		d.Parent.Node(counter.Props{HOC: d.hoc}),
		vdom.Br(),
		vdom.Div(HeadingParentWithCount),
		d.ParentWithCounter.Node(counter.Props{HOC: d.hoc}),
		vdom.Br(),
		vdom.Div(HeadingPassCount),
		d.ParentWithCounterPassCount.Node(counter.Props{HOC: d.hoc}),
	)
}
