// Package render writes VNode trees as HTML.
//
// Component placeholders are rendered transparently through their expanded
// Children. Interactive elements (those with event handlers) receive a
// sequential hydration ID in a data-hid attribute, and their handlers are
// collected so a server can route client events back to them:
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(tree)
//	handlers := r.Handlers() // "h1" -> func()
package render
