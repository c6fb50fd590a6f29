package component

import (
	"fmt"

	"github.com/vango-dev/lifecycle/internal/errors"
	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// ErrPropsMismatch is raised when a component is rendered with props of the
// wrong type.
var ErrPropsMismatch = errors.New("E003")

// Cleanup is returned by effects and runs before the effect re-runs and when
// the instance unmounts.
type Cleanup func()

// Component is a component definition. Compare definitions by pointer.
type Component struct {
	name   string
	render func(ctx *Ctx, props any) *vdom.VNode
}

var _ vdom.Component = (*Component)(nil)

// Define creates a component whose render function takes props of type P.
// Rendering with nil props passes the zero value of P.
func Define[P any](name string, render func(ctx *Ctx, props P) *vdom.VNode) *Component {
	return &Component{
		name: name,
		render: func(ctx *Ctx, props any) *vdom.VNode {
			var p P
			if props != nil {
				typed, ok := props.(P)
				if !ok {
					panic(errors.New("E003").WithDetail(
						fmt.Sprintf("component %s expects props of type %T, got %T", name, p, props)))
				}
				p = typed
			}
			return render(ctx, p)
		},
	}
}

// ComponentName returns the name given to Define.
func (c *Component) ComponentName() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Node returns a placeholder that renders c with props.
func (c *Component) Node(props any) *vdom.VNode {
	return vdom.ComponentNode(c, props, "")
}

// KeyedNode returns a keyed placeholder. Keyed instances are matched by key
// instead of position.
func (c *Component) KeyedNode(key string, props any) *vdom.VNode {
	return vdom.ComponentNode(c, props, key)
}

// String implements fmt.Stringer.
func (c *Component) String() string {
	return fmt.Sprintf("component(%s@%p)", c.ComponentName(), c)
}
