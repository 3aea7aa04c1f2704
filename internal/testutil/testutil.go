// Package testutil provides scenario-running helpers shared by this
// module's test suites, grounded in the teacher repository's
// sleep_cases_test.go style of driving several independent setups
// concurrently with golang.org/x/sync/errgroup rather than a hand-rolled
// sync.WaitGroup loop.
package testutil

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sharedcode/repcrec"
	"github.com/sharedcode/repcrec/command"
	"github.com/sharedcode/repcrec/coordinator"
	"github.com/sharedcode/repcrec/event"
)

// Trace is a fixed sequence of commands run against a fresh coordinator.
// Each command's resulting events are recorded in order, one slice per tick.
type Trace struct {
	Config   repcrec.Config
	Commands []command.Command
}

// Run executes the trace against a freshly constructed coordinator and
// returns the per-tick events in submission order. Each trace gets its
// own Coordinator, so Trace values passed to RunAll never share state.
func (tr Trace) Run() ([][]event.Event, error) {
	c := coordinator.NewCoordinator(tr.Config)
	out := make([][]event.Event, 0, len(tr.Commands))
	for _, cmd := range tr.Commands {
		evs, err := c.Tick(cmd)
		if err != nil {
			return out, err
		}
		out = append(out, evs)
	}
	return out, nil
}

// RunAll runs every trace concurrently in an errgroup and returns one
// result per trace in the same order. It waits for every trace to finish
// and returns the first error any trace produced; traces do not observe
// ctx, so one trace's error does not stop the others. Traces are
// independent coordinators, so there is nothing to roll back.
func RunAll(ctx context.Context, traces []Trace) ([][][]event.Event, error) {
	results := make([][][]event.Event, len(traces))
	g, _ := errgroup.WithContext(ctx)
	for i, tr := range traces {
		i, tr := i, tr
		g.Go(func() error {
			evs, err := tr.Run()
			results[i] = evs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
