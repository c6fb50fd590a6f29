package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lifecycle/pkg/component"
	"github.com/vango-dev/lifecycle/pkg/demo"
	"github.com/vango-dev/lifecycle/pkg/render"
	"github.com/vango-dev/lifecycle/pkg/store"
)

// ErrUnknownHandler is returned for an event whose hydration ID has no
// registered handler in the current render.
var ErrUnknownHandler = errors.New("server: unknown handler")

// maxLogLines bounds the lifecycle lines kept for clients.
const maxLogLines = 200

// Frame is a snapshot of the demo sent to clients.
type Frame struct {
	// Count is the store's count.
	Count int `json:"count"`

	// HTML is the rendered app.
	HTML string `json:"html"`

	// Log holds the most recent lifecycle lines, oldest first.
	Log []string `json:"log"`

	// Seq is the total number of lifecycle lines written so far.
	Seq int `json:"seq"`
}

// LiveOptions configures a Live demo.
type LiveOptions struct {
	Logger   *slog.Logger
	Observer component.Observer
	Tracer   trace.Tracer

	// Lifecycle receives a copy of every lifecycle line.
	Lifecycle io.Writer

	// OnFrame is called on the loop goroutine after every change.
	OnFrame func(Frame)
}

// Live is the demo application mounted on an event loop. Every method is
// safe for concurrent use; the work itself runs on the loop.
type Live struct {
	loop     *Loop
	store    *store.Counter
	demo     *demo.Demo
	root     *component.Root
	renderer *render.Renderer
	handlers map[string]func()
	lines    *lineLog
	tracer   trace.Tracer
	logger   *slog.Logger
	onFrame  func(Frame)
	frame    Frame
}

// NewLive builds the demo on loop and mounts it.
func NewLive(ctx context.Context, loop *Loop, s *store.Counter, opts LiveOptions) (*Live, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "live")

	l := &Live{
		loop:     loop,
		store:    s,
		renderer: render.NewRenderer(render.RendererConfig{}),
		lines:    &lineLog{logger: logger, mirror: opts.Lifecycle},
		tracer:   opts.Tracer,
		logger:   logger,
		onFrame:  opts.OnFrame,
	}
	l.demo = demo.New(s, l.lines)

	rootOpts := []component.Option{
		component.WithLogger(logger),
		component.WithScheduler(func(flush func()) {
			loop.Post(func() {
				flush()
				l.refresh()
			})
		}),
	}
	if opts.Observer != nil {
		rootOpts = append(rootOpts, component.WithObserver(opts.Observer))
	}
	if opts.Tracer != nil {
		rootOpts = append(rootOpts, component.WithTracer(opts.Tracer))
	}
	l.root = component.NewRoot(rootOpts...)

	err := loop.Do(ctx, func() error {
		if err := l.root.Mount(l.demo.App, nil); err != nil {
			return err
		}
		return l.refresh()
	})
	if err != nil {
		return nil, fmt.Errorf("mount demo: %w", err)
	}
	return l, nil
}

// Store returns the demo's store.
func (l *Live) Store() *store.Counter {
	return l.store
}

// Frame returns the current snapshot.
func (l *Live) Frame(ctx context.Context) (Frame, error) {
	var f Frame
	err := l.loop.Do(ctx, func() error {
		f = l.frame
		return nil
	})
	return f, err
}

// Increment increments the counter and returns the resulting snapshot.
func (l *Live) Increment(ctx context.Context) (Frame, error) {
	return l.act(ctx, "live.increment", nil, func(ctx context.Context) error {
		l.root.ActContext(ctx, l.store.Increment)
		return nil
	})
}

// Event runs the click handler registered under hid in the last render.
func (l *Live) Event(ctx context.Context, hid string) (Frame, error) {
	attrs := []attribute.KeyValue{attribute.String("hid", hid)}
	return l.act(ctx, "live.event", attrs, func(ctx context.Context) error {
		fn, ok := l.handlers[hid]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHandler, hid)
		}
		l.root.ActContext(ctx, fn)
		return nil
	})
}

func (l *Live) act(ctx context.Context, name string, attrs []attribute.KeyValue, fn func(context.Context) error) (Frame, error) {
	var span trace.Span
	if l.tracer != nil {
		ctx, span = l.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
		defer span.End()
	}

	var f Frame
	err := l.loop.Do(ctx, func() error {
		if err := fn(ctx); err != nil {
			return err
		}
		if err := l.refresh(); err != nil {
			return err
		}
		f = l.frame
		return nil
	})

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("count", f.Count))
			span.SetStatus(codes.Ok, "")
		}
	}
	return f, err
}

// Page renders the whole HTML document for the current tree.
func (l *Live) Page(ctx context.Context, opts render.PageOptions) ([]byte, error) {
	var buf bytes.Buffer
	err := l.loop.Do(ctx, func() error {
		l.renderer.Reset()
		if err := l.renderer.WritePage(&buf, l.root.Tree(), opts); err != nil {
			return err
		}
		l.handlers = l.renderer.Handlers()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close unmounts the demo.
func (l *Live) Close(ctx context.Context) error {
	return l.loop.Do(ctx, func() error {
		l.root.Unmount()
		return nil
	})
}

// refresh re-renders the tree into a new frame and publishes it. It runs
// on the loop goroutine.
func (l *Live) refresh() error {
	if l.root.Top() == nil {
		return nil
	}
	l.renderer.Reset()
	html, err := l.renderer.RenderToString(l.root.Tree())
	if err != nil {
		l.logger.Error("render failed", "error", err)
		return err
	}
	l.handlers = l.renderer.Handlers()

	log, seq := l.lines.snapshot()
	l.frame = Frame{
		Count: l.store.GetState().Count,
		HTML:  html,
		Log:   log,
		Seq:   seq,
	}
	if l.onFrame != nil {
		l.onFrame(l.frame)
	}
	return nil
}

// lineLog collects lifecycle output line by line.
type lineLog struct {
	mu      sync.Mutex
	logger  *slog.Logger
	mirror  io.Writer
	partial []byte
	lines   []string
	seq     int
}

func (w *lineLog) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mirror != nil {
		if _, err := w.mirror.Write(p); err != nil {
			w.logger.Warn("lifecycle mirror write failed", "error", err)
		}
	}

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		line := string(w.partial[:i])
		w.partial = w.partial[i+1:]

		w.logger.Info("lifecycle", "line", line)
		w.seq++
		w.lines = append(w.lines, line)
		if len(w.lines) > maxLogLines {
			w.lines = w.lines[len(w.lines)-maxLogLines:]
		}
	}
	return len(p), nil
}

func (w *lineLog) snapshot() ([]string, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.lines))
	copy(out, w.lines)
	return out, w.seq
}
