package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/lifecycle/pkg/vdom"
)

// PageOptions configures a full HTML document.
type PageOptions struct {
	Title string

	// Script is inline JavaScript appended to the body. It is written
	// verbatim and must come from trusted code, never from user input.
	Script string
}

// WritePage writes a complete HTML document with body as the content of a
// <main id="app"> element.
func (r *Renderer) WritePage(w io.Writer, body *vdom.VNode, opts PageOptions) error {
	if _, err := fmt.Fprintf(w,
		"<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body><main id=\"app\">",
		escapeHTML(opts.Title)); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, body); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "</main>"); err != nil {
		return err
	}
	if opts.Script != "" {
		if _, err := fmt.Fprintf(w, "<script>%s</script>", opts.Script); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}
