// Package exp defines the experiment unit: one runnable agent × task
// configuration with a prepare/run lifecycle and a persisted record of its
// outcome. Units are self-recording: Run never raises, it writes whatever
// happened (including panics) into the unit's summary file.
package exp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"explab/internal/config"
	ilogger "explab/internal/logger"
	"explab/internal/serving"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ArgsFileName is the persisted unit record inside an experiment directory.
const ArgsFileName = "exp_args.json"

// ChatModelArgs identifies the chat model an agent talks to and where it is
// served.
type ChatModelArgs struct {
	ModelName    string  `json:"model_name"`
	ModelURL     string  `json:"model_url,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
}

// AgentArgs is the agent configuration attached to an experiment unit.
// Prepare binds it to the shared serving registry; Close releases that
// binding. Both may be called with the same registry many times across a
// launch (once per unit).
type AgentArgs struct {
	AgentName string        `json:"agent_name"`
	ChatModel ChatModelArgs `json:"chat_model_args"`
	// Command is the agent worker executable and its fixed arguments. The
	// episode runner appends per-unit flags.
	Command []string `json:"command,omitempty"`
}

// Prepare acquires the agent's model server from the shared registry,
// resolving the endpoint from the static model table when the config does
// not pin one.
func (a *AgentArgs) Prepare(registry *serving.Registry) error {
	if a == nil {
		return fmt.Errorf("agent args are nil")
	}
	if strings.TrimSpace(a.ChatModel.ModelURL) == "" {
		a.ChatModel.ModelURL = config.ModelEndpointURL(a.ChatModel.ModelName)
	}
	_, err := registry.Acquire(a.ChatModel.ModelName, a.ChatModel.ModelURL)
	if err != nil {
		return fmt.Errorf("prepare agent %s: %w", a.AgentName, err)
	}
	return nil
}

// Close releases the agent's registry reference. Safe to call even when
// Prepare never ran; teardown is best effort.
func (a *AgentArgs) Close(registry *serving.Registry) {
	if a == nil || registry == nil {
		return
	}
	registry.Release(a.ChatModel.ModelName)
}

// EnvArgs is the environment/task identity of an experiment unit.
type EnvArgs struct {
	TaskName string `json:"task_name"`
	TaskSeed int    `json:"task_seed,omitempty"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

// ExpArgs is one experiment unit.
type ExpArgs struct {
	ExpID     string     `json:"exp_id"`
	ExpName   string     `json:"exp_name"`
	AgentArgs *AgentArgs `json:"agent_args"`
	EnvArgs   EnvArgs    `json:"env_args"`
	// ExpDir is set by Prepare; relaunched units keep their original dir.
	ExpDir string `json:"exp_dir,omitempty"`
}

// New builds a unit for the given agent and task with a fresh unique id.
func New(agent *AgentArgs, env EnvArgs) *ExpArgs {
	agentName := "agent"
	if agent != nil && strings.TrimSpace(agent.AgentName) != "" {
		agentName = agent.AgentName
	}
	return &ExpArgs{
		ExpID:     uuid.NewString(),
		ExpName:   fmt.Sprintf("%s_on_%s", agentName, env.TaskName),
		AgentArgs: agent,
		EnvArgs:   env,
	}
}

// Prepare binds the unit to its output directory under expRoot and persists
// the unit record. A unit that already carries a directory (relaunch) keeps
// it and only refreshes the record.
func (e *ExpArgs) Prepare(expRoot string) error {
	if e.ExpDir == "" {
		shortID := e.ExpID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		e.ExpDir = filepath.Join(expRoot, fmt.Sprintf("%s_%s", e.ExpName, shortID))
	}
	if err := os.MkdirAll(e.ExpDir, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", e.ExpName, err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("prepare %s: %w", e.ExpName, err)
	}
	if err := os.WriteFile(filepath.Join(e.ExpDir, ArgsFileName), data, 0o644); err != nil {
		return fmt.Errorf("prepare %s: %w", e.ExpName, err)
	}
	return nil
}

// EpisodeRunner executes one episode for a prepared unit and returns the
// cumulative reward.
type EpisodeRunner func(ctx context.Context, e *ExpArgs) (float64, error)

var episodeRunner EpisodeRunner

// SetEpisodeRunner installs the episode implementation. The launcher wires
// this before the run phase; tests install fakes.
func SetEpisodeRunner(fn EpisodeRunner) {
	episodeRunner = fn
}

// EpisodeRunnerInstalled reports whether an episode implementation is set.
func EpisodeRunnerInstalled() bool {
	return episodeRunner != nil
}

// Run executes the unit and records the outcome in its summary file. Run
// never returns an error: failures, including panics in the episode runner,
// are captured into the summary so a later relaunch can find them.
func (e *ExpArgs) Run(ctx context.Context) {
	start := time.Now()
	summary := &Summary{ExpID: e.ExpID}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			trace := string(debug.Stack())
			summary.ErrMsg = &msg
			summary.StackTrace = &trace
		}
		summary.ElapsedSec = time.Since(start).Seconds()
		if err := summary.Save(e.ExpDir); err != nil {
			ilogger.LogError(fmt.Sprintf("Failed to save summary for %s: %v", e.ExpName, err))
		}
	}()

	runner := episodeRunner
	if runner == nil {
		msg := "no episode runner installed"
		summary.ErrMsg = &msg
		return
	}

	reward, err := runner(ctx, e)
	if err != nil {
		msg := err.Error()
		summary.ErrMsg = &msg
		return
	}
	summary.CumReward = reward
	summary.Terminated = true
}
