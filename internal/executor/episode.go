package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"explab/internal/config"
	"explab/internal/exp"
	"explab/internal/utils"
)

// EpisodeLogName is the captured worker output inside an experiment
// directory.
const EpisodeLogName = "episode.log"

const (
	tailLimit      = 16 * 1024
	errorTailChars = 400
)

// rewardPrefix is the line the worker process prints to report its episode
// outcome.
const rewardPrefix = "REWARD="

var commandContext = exec.CommandContext

// SetCommandContextFn swaps the subprocess constructor (tests).
func SetCommandContextFn(fn func(context.Context, string, ...string) *exec.Cmd) (restore func()) {
	prev := commandContext
	if fn != nil {
		commandContext = fn
	}
	return func() { commandContext = prev }
}

// RunEpisode executes one episode of a prepared unit in a worker
// subprocess, streaming output to <exp_dir>/episode.log, and returns the
// reward the worker reported.
func RunEpisode(ctx context.Context, e *exp.ExpArgs) (float64, error) {
	if e.AgentArgs == nil || len(e.AgentArgs.Command) == 0 {
		return 0, fmt.Errorf("unit %s has no agent command configured", e.ExpName)
	}
	if e.ExpDir == "" {
		return 0, fmt.Errorf("unit %s was not prepared", e.ExpName)
	}

	if timeout := config.ResolveEpisodeTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	name := e.AgentArgs.Command[0]
	args := append(append([]string(nil), e.AgentArgs.Command[1:]...),
		"--task", e.EnvArgs.TaskName,
		"--seed", strconv.Itoa(e.EnvArgs.TaskSeed),
		"--max-steps", strconv.Itoa(e.EnvArgs.MaxSteps),
		"--model", e.AgentArgs.ChatModel.ModelName,
		"--model-url", e.AgentArgs.ChatModel.ModelURL,
		"--exp-dir", e.ExpDir,
	)

	logFile, err := os.Create(filepath.Join(e.ExpDir, EpisodeLogName))
	if err != nil {
		return 0, fmt.Errorf("open episode log: %w", err)
	}
	defer logFile.Close()

	lw := newLineWriter(e.ExpName+": ", 0)
	defer lw.Flush()
	tail := &tailBuffer{limit: tailLimit}
	out := io.MultiWriter(logFile, lw, tail)

	cmd := commandContext(ctx, name, args...)
	cmd.Dir = e.ExpDir
	cmd.Stdout = out
	cmd.Stderr = out
	configureTermination(cmd)

	if err := cmd.Run(); err != nil {
		detail := utils.SafeTruncate(utils.SanitizeOutput(tail.String()), errorTailChars)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("episode for %s: %w: %s", e.ExpName, ctxErr, detail)
		}
		return 0, fmt.Errorf("episode for %s: %w: %s", e.ExpName, err, detail)
	}

	reward, ok := parseReward(tail.String())
	if !ok {
		return 0, fmt.Errorf("episode for %s reported no %s line", e.ExpName, rewardPrefix)
	}
	return reward, nil
}

// parseReward returns the value of the last REWARD= line in the output.
func parseReward(output string) (float64, bool) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, rewardPrefix) {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, rewardPrefix)), 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
