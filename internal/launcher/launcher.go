// Package launcher orchestrates a batch of experiments end to end:
// validate → prepare → parallel run → registry teardown.
package launcher

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"explab/internal/config"
	"explab/internal/executor"
	"explab/internal/exp"
	ilogger "explab/internal/logger"
	"explab/internal/preflight"
	"explab/internal/serving"
)

// checkWebArenaFn is swapped in tests; the real check dials the configured
// server fleet.
var checkWebArenaFn = preflight.CheckWebArenaServers

// SetWebArenaCheckFn swaps the preflight check (tests).
func SetWebArenaCheckFn(fn func(context.Context) error) (restore func()) {
	prev := checkWebArenaFn
	if fn != nil {
		checkWebArenaFn = fn
	}
	return func() { checkWebArenaFn = prev }
}

// Launch runs one experiment group. A declined confirmation or an empty
// relaunch candidate set returns nil with no further action. Preparation
// errors propagate immediately; once the run phase starts, registry
// teardown is guaranteed on every return path, including cancellation of
// ctx by an interrupt signal.
func Launch(ctx context.Context, opts Options) error {
	ilogger.LogInfo(fmt.Sprintf("Launching experiment group: %s", opts.ExpConfig))

	plan, err := validateLaunchMode(opts)
	if err != nil {
		return err
	}
	if !plan.Proceed {
		return nil
	}
	units := plan.Units

	if opts.ShuffleJobs {
		ilogger.LogInfo("Shuffling jobs")
		rand.Shuffle(len(units), func(i, j int) {
			units[i], units[j] = units[j], units[i]
		})
	}

	if anyTaskNameContains(units, config.WebArenaMarker) {
		ilogger.LogInfo("Checking webarena servers...")
		if err := checkWebArenaFn(ctx); err != nil {
			return err
		}
	}

	if !exp.EpisodeRunnerInstalled() {
		exp.SetEpisodeRunner(executor.RunEpisode)
	}

	registry := serving.NewRegistry()

	ilogger.LogInfo(fmt.Sprintf("Saving experiments to %s", plan.ExpDir))
	for _, unit := range units {
		if err := unit.AgentArgs.Prepare(registry); err != nil {
			return err
		}
		if err := unit.Prepare(plan.ExpDir); err != nil {
			return err
		}
	}

	// Teardown guards the run phase only: it runs on normal completion,
	// run-phase panic, and interrupt-driven cancellation, but a preparation
	// failure above returns before any server was committed to a run. A
	// hard kill bypasses it entirely.
	defer closeAll(units, registry)

	jobs := make([]func(context.Context), 0, len(units))
	for _, unit := range units {
		unit := unit
		jobs = append(jobs, unit.Run)
	}
	executor.RunAll(ctx, jobs, config.ClampJobs(opts.NJobs))

	return ctx.Err()
}

func closeAll(units []*exp.ExpArgs, registry *serving.Registry) {
	if names := registry.ModelNames(); len(names) > 0 {
		ilogger.LogInfo(fmt.Sprintf("Closing model servers: %s", strings.Join(names, ", ")))
	}
	for _, unit := range units {
		unit.AgentArgs.Close(registry)
	}
	ilogger.LogInfo("Model servers closed.")
}

func anyTaskNameContains(units []*exp.ExpArgs, marker string) bool {
	for _, unit := range units {
		if strings.Contains(unit.EnvArgs.TaskName, marker) {
			return true
		}
	}
	return false
}
