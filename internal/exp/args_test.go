package exp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"explab/internal/serving"
)

func withEpisodeRunner(t *testing.T, fn EpisodeRunner) {
	t.Helper()
	prev := episodeRunner
	episodeRunner = fn
	t.Cleanup(func() { episodeRunner = prev })
}

func testAgent() *AgentArgs {
	return &AgentArgs{
		AgentName: "test_agent",
		ChatModel: ChatModelArgs{ModelName: "test-model", ModelURL: "http://localhost:9999/v1"},
	}
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	agent := testAgent()
	a := New(agent, EnvArgs{TaskName: "miniwob.click-button"})
	b := New(agent, EnvArgs{TaskName: "miniwob.click-button"})

	if a.ExpID == "" || b.ExpID == "" {
		t.Fatal("New left ExpID empty")
	}
	if a.ExpID == b.ExpID {
		t.Error("two units share an ExpID")
	}
	if !strings.Contains(a.ExpName, "test_agent") || !strings.Contains(a.ExpName, "miniwob.click-button") {
		t.Errorf("ExpName %q does not identify agent and task", a.ExpName)
	}
}

func TestPrepareCreatesDirAndRecord(t *testing.T) {
	root := t.TempDir()
	unit := New(testAgent(), EnvArgs{TaskName: "miniwob.login-user", MaxSteps: 10})

	if err := unit.Prepare(root); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if unit.ExpDir == "" {
		t.Fatal("Prepare did not bind an output directory")
	}
	if !strings.HasPrefix(unit.ExpDir, root) {
		t.Errorf("ExpDir %q is outside root %q", unit.ExpDir, root)
	}
	if _, err := os.Stat(filepath.Join(unit.ExpDir, ArgsFileName)); err != nil {
		t.Errorf("unit record not written: %v", err)
	}
}

func TestPrepareKeepsExistingDir(t *testing.T) {
	root := t.TempDir()
	unit := New(testAgent(), EnvArgs{TaskName: "miniwob.login-user"})
	if err := unit.Prepare(root); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	original := unit.ExpDir

	// Relaunch path: a unit that already has a directory keeps it.
	if err := unit.Prepare(t.TempDir()); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if unit.ExpDir != original {
		t.Errorf("Prepare moved an already-bound unit from %q to %q", original, unit.ExpDir)
	}
}

func TestAgentPrepareAndClose(t *testing.T) {
	registry := serving.NewRegistry()
	agent := testAgent()

	if err := agent.Prepare(registry); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if registry.Len() != 1 {
		t.Errorf("registry has %d servers, want 1", registry.Len())
	}

	agent.Close(registry)
	if registry.Len() != 0 {
		t.Errorf("registry has %d servers after Close, want 0", registry.Len())
	}

	// Close without a matching Prepare must not panic or fail teardown.
	agent.Close(registry)
	agent.Close(nil)
}

func TestRunRecordsSuccess(t *testing.T) {
	root := t.TempDir()
	unit := New(testAgent(), EnvArgs{TaskName: "miniwob.click-button"})
	if err := unit.Prepare(root); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	withEpisodeRunner(t, func(ctx context.Context, e *ExpArgs) (float64, error) {
		return 0.75, nil
	})

	unit.Run(context.Background())

	summary, err := LoadSummary(unit.ExpDir)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if summary.HasError() {
		t.Errorf("summary has error %v, want none", *summary.ErrMsg)
	}
	if summary.CumReward != 0.75 {
		t.Errorf("CumReward = %v, want 0.75", summary.CumReward)
	}
	if !summary.Terminated {
		t.Error("Terminated = false on a successful run")
	}
	if summary.ExpID != unit.ExpID {
		t.Errorf("summary ExpID = %q, want %q", summary.ExpID, unit.ExpID)
	}
}

func TestRunRecordsError(t *testing.T) {
	root := t.TempDir()
	unit := New(testAgent(), EnvArgs{TaskName: "miniwob.click-button"})
	if err := unit.Prepare(root); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	withEpisodeRunner(t, func(ctx context.Context, e *ExpArgs) (float64, error) {
		return 0, errors.New("model server: connection refused")
	})

	unit.Run(context.Background())

	summary, err := LoadSummary(unit.ExpDir)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if !summary.HasError() {
		t.Fatal("summary has no error after a failed episode")
	}
	if !strings.Contains(*summary.ErrMsg, "connection refused") {
		t.Errorf("ErrMsg = %q, want the episode error", *summary.ErrMsg)
	}
}

func TestRunCapturesPanic(t *testing.T) {
	root := t.TempDir()
	unit := New(testAgent(), EnvArgs{TaskName: "miniwob.click-button"})
	if err := unit.Prepare(root); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	withEpisodeRunner(t, func(ctx context.Context, e *ExpArgs) (float64, error) {
		panic("episode blew up")
	})

	unit.Run(context.Background()) // must not propagate the panic

	summary, err := LoadSummary(unit.ExpDir)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if !summary.HasError() {
		t.Fatal("panic was not recorded in the summary")
	}
	if !strings.Contains(*summary.ErrMsg, "episode blew up") {
		t.Errorf("ErrMsg = %q, want the panic value", *summary.ErrMsg)
	}
	if summary.StackTrace == nil || *summary.StackTrace == "" {
		t.Error("panic recorded without a stack trace")
	}
}
