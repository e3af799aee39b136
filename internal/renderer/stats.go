package renderer

// Stats holds the counters of a Root.
type Stats struct {
	// Builds counts builds started by Render or a state setter.
	Builds uint64
	// Superseded counts builds replaced before they committed.
	Superseded uint64
	// Abandoned counts builds dropped because a unit panicked.
	Abandoned uint64
	// Units counts completed units of work.
	Units uint64
	// Slices counts idle slices received from the scheduler.
	Slices uint64
	// Yields counts slices that ended with work left over.
	Yields uint64
	// Commits counts completed commits.
	Commits uint64
	// LastMutations is the number of backend calls of the last commit.
	LastMutations int
}
