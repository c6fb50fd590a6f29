// Package component is a small synchronous component runtime.
//
// A Component is a named render function over a typed props value. Its
// identity is the *Component pointer: reconciliation keeps a mounted instance
// only while its parent keeps rendering the same pointer at the same position
// (or with the same key). Rendering a different pointer unmounts the old
// instance and mounts a new one, running cleanups and effects again.
//
//	Child := component.Define("Child", func(ctx *component.Ctx, p ChildProps) *vdom.VNode {
//	    component.OnMount(ctx, func() component.Cleanup {
//	        log.Println(p.ID, "mount.")
//	        return func() { log.Println(p.ID, "unmount.") }
//	    })
//	    return vdom.Div(vdom.Textf("%s: %d", p.ID, p.Count))
//	})
//
//	root := component.NewRoot()
//	root.Mount(Child, ChildProps{ID: "a"})
//
// Hooks (UseEffect, UseMemo, UseCallback, UseState, UseStore) are stored in
// per-instance slots and must be called in the same order on every render.
//
// # Commit order
//
// A render pass is followed by a commit. Cleanups run first: those of removed
// instances (parents before children) and those of effects whose
// dependencies changed. New effects then run children before parents.
//
// # Scheduling
//
// Store notifications and state setters mark instances dirty. Inside Act the
// flush is deferred until the outermost Act returns, so one click produces one
// render pass. Outside Act the root's scheduler decides when to flush; the
// default flushes immediately.
//
// A Root is not safe for concurrent use. Drive it from one goroutine.
package component
