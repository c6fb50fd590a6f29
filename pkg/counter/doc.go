// Package counter injects the shared counter store into components.
//
// Wrapper.Wrap takes a component accepting Props and returns a new component
// that subscribes to the store while mounted and renders the wrapped one with
// the live count and an increment action:
//
//	hoc := counter.NewWrapper(store.NewCounter())
//	Display := hoc.Wrap(component.Define("Display", func(ctx *component.Ctx, p counter.Props) *vdom.VNode {
//	    return vdom.Span(vdom.Textf("current: %d", p.CountValue()))
//	}))
//
// Props passed explicitly to the wrapped component take precedence over the
// injected ones, so Display.Node(counter.Props{Count: counter.Value(5)})
// shows 5 whatever the store holds.
//
// Every Wrap call returns a new component identity. Callers that wrap inside
// a render function must cache the result (component.UseCallback or
// component.UseMemo keyed on the Wrapper) or the wrapped subtree remounts on
// every render.
package counter
