// Package vdom provides the virtual node tree that components render to.
//
// VNode is the building block: elements, text, fragments and component
// placeholders. Elements are created with variadic factory functions:
//
//	Div(Class("card"),
//	    Span(Textf("current: %d", count)),
//	    Button(OnClick(increment), Text("Increment")),
//	)
//
// A component placeholder (KindComponent) names a component and the props to
// render it with. The component runtime mounts or updates an instance for
// each placeholder and stores the instance's output in the placeholder's
// Children, so a fully rendered tree contains no unexpanded components.
package vdom
