package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vango-dev/lifecycle/pkg/vdom"
)

type placeholder struct{}

func (placeholder) ComponentName() string { return "placeholder" }

func TestRenderElement(t *testing.T) {
	node := vdom.Div(vdom.Class("child"), vdom.Data("child", "PChild"), vdom.Text("PChild: 3"))

	html, err := RenderToString(node)
	if err != nil {
		t.Fatal(err)
	}
	want := `<div class="child" data-child="PChild">PChild: 3</div>`
	if html != want {
		t.Errorf("got  %s\nwant %s", html, want)
	}
}

func TestRenderEscapes(t *testing.T) {
	html, err := RenderToString(vdom.Span(vdom.StyleAttr(`a"b`), vdom.Text("<b>&</b>")))
	if err != nil {
		t.Fatal(err)
	}
	want := `<span style="a&quot;b">&lt;b&gt;&amp;&lt;/b&gt;</span>`
	if html != want {
		t.Errorf("got  %s\nwant %s", html, want)
	}
}

func TestRenderEscapesAttributeWhitespace(t *testing.T) {
	html, err := RenderToString(vdom.Span(vdom.StyleAttr("a\n'b'\t"), vdom.Text("x\ny")))
	if err != nil {
		t.Fatal(err)
	}
	want := "<span style=\"a&#10;&#39;b&#39;&#9;\">x\ny</span>"
	if html != want {
		t.Errorf("got  %s\nwant %s", html, want)
	}
}

func TestRenderVoidAndFragments(t *testing.T) {
	tree := vdom.Fragment(vdom.Text("a"), vdom.Br(), vdom.Text("b"))
	html, err := RenderToString(tree)
	if err != nil {
		t.Fatal(err)
	}
	if html != "a<br>b" {
		t.Errorf("got %q", html)
	}
}

func TestRenderComponentChildren(t *testing.T) {
	comp := vdom.ComponentNode(placeholder{}, nil, "")
	comp.Children = []*vdom.VNode{vdom.Div(vdom.Text("inside"))}

	html, err := RenderToString(vdom.Div(comp))
	if err != nil {
		t.Fatal(err)
	}
	if html != "<div><div>inside</div></div>" {
		t.Errorf("got %q", html)
	}
}

func TestRenderCollectsHandlers(t *testing.T) {
	clicks := 0
	tree := vdom.Fragment(
		vdom.Button(vdom.OnClick(func() { clicks++ }), vdom.Text("one")),
		vdom.Button(vdom.OnClick(func() { clicks += 10 }), vdom.Text("two")),
	)

	r := NewRenderer(RendererConfig{})
	html, err := r.RenderToString(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `data-hid="h1"`) {
		t.Errorf("missing hydration id: %s", html)
	}
	if !strings.Contains(html, `data-on-click="true"`) {
		t.Errorf("missing event marker: %s", html)
	}

	handlers := r.Handlers()
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	handlers["h2"]()
	handlers["h1"]()
	if clicks != 11 {
		t.Errorf("clicks = %d, want 11", clicks)
	}

	r.Reset()
	if len(r.Handlers()) != 0 {
		t.Error("Reset should clear handlers")
	}
}

func TestRenderPretty(t *testing.T) {
	r := NewRenderer(RendererConfig{Pretty: true})
	html, err := r.RenderToString(vdom.Div(vdom.Span(vdom.Text("x"))))
	if err != nil {
		t.Fatal(err)
	}
	want := "<div>\n  <span>x</span>\n</div>\n"
	if html != want {
		t.Errorf("got %q, want %q", html, want)
	}
}

func TestWritePage(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(RendererConfig{})
	err := r.WritePage(&buf, vdom.Div(vdom.Text("body")), PageOptions{Title: "Counter & co", Script: "console.log('x')"})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Counter &amp; co</title>",
		`<main id="app"><div>body</div></main>`,
		"<script>console.log('x')</script>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
}
