package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Runtime errors (E001-E009)
	"E001": {
		Category: CategoryRuntime,
		Message:  "Store used before initialization",
		Detail:   "GetState or Increment was called on a nil or zero-value store. Stores must be created with store.New or store.NewCounter.",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Hook order changed",
		Detail:   "Hooks must be called in the same order on every render of a component instance.",
	},
	"E003": {
		Category: CategoryProps,
		Message:  "Props type mismatch",
		Detail:   "A component was rendered with props of a different type than it was defined with.",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Hook called outside render",
		Detail:   "Hooks need the render context of a mounted component instance.",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Root already mounted",
		Detail:   "A root holds a single component tree. Unmount it before mounting another.",
	},

	// Config errors (E010-E019)
	"E010": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or failed validation.",
	},

	// CLI errors (E020-E029)
	"E020": {
		Category: CategoryCLI,
		Message:  "Invalid command argument",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
