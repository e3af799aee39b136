package renderer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/fiber"
	"github.com/dshills/tessera/internal/renderer/scheduler"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// DefaultMinRemaining is the slice time below which the work loop yields.
const DefaultMinRemaining = time.Millisecond

// Options configures a Root.
type Options struct {
	// MinRemaining is the smallest remaining slice time at which another
	// unit may start.
	MinRemaining time.Duration
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		MinRemaining: DefaultMinRemaining,
	}
}

// Option configures a Root.
type Option func(*Options)

// WithMinRemaining sets the yield threshold of the work loop.
func WithMinRemaining(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.MinRemaining = d
		}
	}
}

// Root is the render-root context of one presentation surface. It owns
// the committed tree, the tree being built and the work loop state.
type Root struct {
	id      string
	opts    Options
	backend backend.Backend
	sched   scheduler.Scheduler

	// current is the committed tree, nil before the first commit.
	current *fiber.Fiber
	// wip is the tree being built, nil when idle.
	wip *fiber.Fiber
	// nextUnit is the next fiber to process, nil when idle.
	nextUnit *fiber.Fiber
	// deletions are the old fibers removed by the current build.
	deletions []*fiber.Fiber

	// rerender requests a build once the first commit lands.
	rerender bool

	observers []func(CommitInfo)
	stats     Stats
}

// New creates a root that renders into b and registers its work loop
// with s.
func New(b backend.Backend, s scheduler.Scheduler, opts ...Option) *Root {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	r := &Root{
		id:      id,
		opts:    o,
		backend: b,
		sched:   s,
	}
	s.RequestIdle(r.workLoop)
	return r
}

// logger resolves the package logger on every call so SetLogger also
// reaches roots created before it.
func (r *Root) logger() *slog.Logger {
	return Logger().With(slog.String("root", r.id))
}

// ID returns the unique identifier of the root.
func (r *Root) ID() string {
	return r.id
}

// SetMinRemaining changes the yield threshold for subsequent slices.
func (r *Root) SetMinRemaining(d time.Duration) {
	if d >= 0 {
		r.opts.MinRemaining = d
	}
}

// Render starts a build that shows el inside container. It returns
// immediately; the work loop completes the build asynchronously. A build
// already in flight is discarded.
//
// The committed tree is used as the baseline only when it was rendered
// into the same container.
func (r *Root) Render(el *vnode.Node, container backend.NodeID) {
	if el == nil {
		panic(ErrNilElement)
	}
	var alternate *fiber.Fiber
	if r.current != nil && r.current.Node == container {
		alternate = r.current
	}
	r.startBuild(fiber.NewRoot(container, []*vnode.Node{el}, alternate), "render")
}

// requestUpdate starts a build from the committed tree after a state
// transition was queued.
func (r *Root) requestUpdate() {
	if r.current == nil {
		// The slot belongs to the first build, which is still in flight.
		// Its queue is read by the build that follows the first commit.
		r.rerender = true
		return
	}
	r.startBuild(fiber.NewRoot(r.current.Node, r.current.Elements, r.current), "state")
}

func (r *Root) startBuild(root *fiber.Fiber, cause string) {
	if r.wip != nil {
		r.stats.Superseded++
		r.logger().Debug("build superseded", slog.String("cause", cause))
	}
	r.wip = root
	r.nextUnit = root
	r.deletions = nil
	r.stats.Builds++
	r.logger().Debug("build started", slog.String("cause", cause))
}

// discard drops the build in flight.
func (r *Root) discard(reason string) {
	if r.wip == nil {
		return
	}
	r.wip = nil
	r.nextUnit = nil
	r.deletions = nil
	r.stats.Abandoned++
	r.logger().Warn("build abandoned", slog.String("reason", reason))
}

// Idle reports whether no build is in flight.
func (r *Root) Idle() bool {
	return r.wip == nil
}

// Current returns the committed root fiber, or nil before the first commit.
func (r *Root) Current() *fiber.Fiber {
	return r.current
}

// OnCommit registers fn to be called after every commit.
func (r *Root) OnCommit(fn func(CommitInfo)) {
	r.observers = append(r.observers, fn)
}

// Stats returns a snapshot of the root counters.
func (r *Root) Stats() Stats {
	return r.stats
}
