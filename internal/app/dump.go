package app

import (
	"fmt"
	"io"

	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/scheduler"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// maxDumpSlices bounds the slices Dump runs before giving up.
const maxDumpSlices = 1000

// Dump renders the demo into an in-memory surface, clicks the counter
// the given number of times and writes the resulting node tree as YAML.
func Dump(w io.Writer, clicks int) error {
	rec := backend.NewRecorder()
	m := scheduler.NewManual()
	root := renderer.New(rec, m)

	root.Render(vnode.Element(App, nil), rec.Container())
	if err := settle(root, m); err != nil {
		return err
	}

	for i := 0; i < clicks; i++ {
		id, ok := rec.FindByProp("id", "counter")
		if !ok || !rec.Dispatch(id, "click", nil) {
			return fmt.Errorf("dump: counter has no click listener")
		}
		if err := settle(root, m); err != nil {
			return err
		}
	}

	data, err := rec.DumpYAML()
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// settle runs idle slices until the root has committed all pending work.
func settle(root *renderer.Root, m *scheduler.Manual) error {
	for i := 0; i < maxDumpSlices; i++ {
		if root.Idle() {
			return nil
		}
		m.RunIdle(scheduler.Fixed(scheduler.DefaultFrameBudget))
	}
	return fmt.Errorf("dump: render did not settle after %d slices", maxDumpSlices)
}
