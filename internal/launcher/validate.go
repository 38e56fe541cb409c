package launcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"explab/internal/catalog"
	"explab/internal/config"
	"explab/internal/exp"
	ilogger "explab/internal/logger"
)

// Options are the launch parameters, normally filled from CLI flags.
type Options struct {
	ExpRoot     string
	ExpConfig   string
	AgentConfig string
	Benchmark   string
	NJobs       int
	Relaunch    RelaunchMode
	AutoAccept  bool
	ShuffleJobs bool
}

// LaunchPlan is the validator's result. Proceed is false for both an
// operator abort and an empty relaunch candidate set; callers must not
// interpret empty Units on their own.
type LaunchPlan struct {
	Proceed bool
	Units   []*exp.ExpArgs
	ExpDir  string
}

// promptReader is where the confirmation answer is read from (tests swap
// it).
var promptReader io.Reader = os.Stdin

// SetPromptReader swaps the confirmation input source (tests).
func SetPromptReader(r io.Reader) (restore func()) {
	prev := promptReader
	if r != nil {
		promptReader = r
	}
	return func() { promptReader = prev }
}

var timeNow = time.Now

// validateLaunchMode resolves the unit list and output directory, either
// fresh from the group factory or by rescanning a prior group for
// incomplete/errored units, then asks for operator confirmation.
func validateLaunchMode(opts Options) (LaunchPlan, error) {
	var (
		units   []*exp.ExpArgs
		expDir  string
		message string
	)

	if opts.Relaunch != RelaunchNone {
		_, groupName, err := catalog.SplitPath(opts.ExpConfig)
		if err != nil {
			// A bare group name is accepted on the relaunch path.
			groupName = opts.ExpConfig
		}
		expDir = filepath.Join(opts.ExpRoot, groupName)
		if info, statErr := os.Stat(expDir); statErr != nil || !info.IsDir() {
			return LaunchPlan{}, configErrorf(
				"relaunch requested but experiment group %q does not exist under %s", groupName, opts.ExpRoot)
		}

		scanner, err := newIncompleteScanner(expDir, opts.Relaunch)
		if err != nil {
			return LaunchPlan{}, err
		}
		units, err = scanner.collect()
		if err != nil {
			return LaunchPlan{}, err
		}

		if len(units) == 0 {
			ilogger.LogInfo(fmt.Sprintf("No incomplete experiments found in %s.", expDir))
			return LaunchPlan{}, nil
		}

		// Endpoints may have moved since the original run; refresh from the
		// static table before resubmitting.
		for _, unit := range units {
			if unit.AgentArgs == nil {
				continue
			}
			model := unit.AgentArgs.ChatModel.ModelName
			if url := config.ModelEndpointURL(model); url != "" {
				unit.AgentArgs.ChatModel.ModelURL = url
			} else {
				ilogger.LogWarn(fmt.Sprintf(
					"Model %q has no endpoint table entry; relaunching with recorded URL %q",
					model, unit.AgentArgs.ChatModel.ModelURL))
			}
		}

		message = fmt.Sprintf(
			"You are about to relaunch %d incomplete or errored experiments in %s. "+
				"Make sure the processes that were running are all stopped, otherwise "+
				"there will be concurrent writing in the same directories.\n"+
				"Press Y to continue.", len(units), expDir)
	} else {
		factory, groupName, err := catalog.ResolveGroup(opts.ExpConfig)
		if err != nil {
			return LaunchPlan{}, err
		}
		agent, err := catalog.ResolveAgent(opts.AgentConfig)
		if err != nil {
			return LaunchPlan{}, err
		}

		units, err = factory(agent, opts.Benchmark)
		if err != nil {
			return LaunchPlan{}, fmt.Errorf("experiment group %s: %w", opts.ExpConfig, err)
		}

		// Timestamped directory so repeated launches of the same group
		// never collide.
		stamped := fmt.Sprintf("%s_%s", timeNow().Format("2006-01-02_15-04-05"), groupName)
		expDir = filepath.Join(opts.ExpRoot, stamped)
		message = fmt.Sprintf(
			"You are about to launch %d experiments in %s.\nPress Y to continue.", len(units), expDir)
	}

	if opts.AutoAccept {
		ilogger.LogInfo(message)
	} else if !confirm(message) {
		ilogger.LogInfo("Aborting.")
		return LaunchPlan{}, nil
	}

	return LaunchPlan{Proceed: true, Units: units, ExpDir: expDir}, nil
}

// confirm prints the message and blocks until a line is read. Anything but
// a case-insensitive "y" declines.
func confirm(message string) bool {
	fmt.Fprintf(os.Stderr, "\n%s\n", message)
	answer, err := bufio.NewReader(promptReader).ReadString('\n')
	if err != nil && strings.TrimSpace(answer) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
