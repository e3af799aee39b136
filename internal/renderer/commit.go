package renderer

import (
	"log/slog"
	"time"

	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/fiber"
)

// CommitInfo describes one completed commit.
type CommitInfo struct {
	// Build is the sequence number of the committed build.
	Build uint64

	Placements int
	Updates    int
	Deletions  int

	// Mutations is the number of backend calls made by the commit.
	Mutations int

	Duration time.Duration
}

// commit applies every effect of the finished build and makes it the
// current tree. It runs to completion within one slice.
func (r *Root) commit() {
	start := time.Now()
	info := CommitInfo{Build: r.stats.Builds}

	for _, d := range r.deletions {
		info.Mutations += r.commitDeletion(d)
		info.Deletions++
	}

	root := r.wip
	root.Walk(func(f *fiber.Fiber) {
		if f == root {
			return
		}
		switch f.Effect {
		case fiber.EffectPlacement:
			info.Placements++
			info.Mutations += r.commitPlacement(f)
		case fiber.EffectUpdate:
			info.Updates++
			info.Mutations += r.commitUpdate(f)
		}
	})

	// The committed tree must not keep the previous one alive.
	root.Walk(func(f *fiber.Fiber) {
		f.Alternate = nil
	})

	r.current = root
	r.wip = nil
	r.nextUnit = nil
	r.deletions = nil

	if fl, ok := r.backend.(backend.Flusher); ok {
		fl.Flush()
	}

	info.Duration = time.Since(start)
	r.stats.Commits++
	r.stats.LastMutations = info.Mutations
	r.logger().Debug("commit",
		slog.Uint64("build", info.Build),
		slog.Int("placements", info.Placements),
		slog.Int("updates", info.Updates),
		slog.Int("deletions", info.Deletions),
		slog.Duration("took", info.Duration))

	for _, fn := range r.observers {
		fn(info)
	}

	if r.rerender {
		r.rerender = false
		r.requestUpdate()
	}
}

// commitDeletion detaches the top-level presentation nodes of f. A
// composite has no node of its own, so its host descendants are removed.
func (r *Root) commitDeletion(f *fiber.Fiber) int {
	parent := f.HostParent()
	if parent == nil {
		return 0
	}
	nodes := f.HostNodes()
	for _, n := range nodes {
		r.backend.RemoveChild(parent.Node, n)
	}
	return len(nodes)
}

func (r *Root) commitPlacement(f *fiber.Fiber) int {
	if f.Node == backend.NoNode {
		return 0
	}
	parent := f.HostParent()
	if parent == nil {
		return 0
	}
	r.backend.AppendChild(parent.Node, f.Node)
	return 1
}

func (r *Root) commitUpdate(f *fiber.Fiber) int {
	if f.Node == backend.NoNode || f.Alternate == nil {
		return 0
	}
	if backend.PropsEqual(f.Alternate.Props, f.Props) {
		return 0
	}
	return backend.ApplyProps(r.backend, f.Node, f.Alternate.Props, f.Props)
}
