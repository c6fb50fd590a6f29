package counter

// Props are the props understood by counter-aware components.
type Props struct {
	// Count is the displayed count. Nil means "not provided"; components
	// render a missing count as 0.
	Count *int

	// Increment advances the shared count.
	Increment func()

	// ChildID names a child in lifecycle output.
	ChildID string

	// HOC is the wrapper a parent uses to build its children.
	HOC *Wrapper
}

// Value returns a pointer to n, for setting Props.Count explicitly.
func Value(n int) *int {
	return &n
}

// CountValue returns the count, or 0 if none was provided.
func (p Props) CountValue() int {
	if p.Count == nil {
		return 0
	}
	return *p.Count
}

// Merge combines injected defaults with explicitly passed props. Every field
// set in explicit wins; unset fields fall back to injected.
func Merge(injected, explicit Props) Props {
	out := injected
	if explicit.Count != nil {
		out.Count = explicit.Count
	}
	if explicit.Increment != nil {
		out.Increment = explicit.Increment
	}
	if explicit.ChildID != "" {
		out.ChildID = explicit.ChildID
	}
	if explicit.HOC != nil {
		out.HOC = explicit.HOC
	}
	return out
}
