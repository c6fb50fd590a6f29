// Package errors provides coded, structured errors for the lifecycle runtime.
//
// Every error carries a short code (e.g. "E001") that maps to a registered
// template with a category, a one-line message and a longer explanation.
// Callers attach a suggestion or wrap an underlying error:
//
//	err := errors.New("E001").
//	    WithSuggestion("Construct the store with store.NewCounter()")
//
//	fmt.Println(err.Format())
//
// Errors compare by code with errors.Is, so a sentinel created with New can
// be matched against any error produced from the same code.
package errors
