package exp

import (
	"os"
	"path/filepath"
	"testing"
)

// writeRecordedUnit fabricates a prior run directory: always an
// exp_args.json, plus a summary when withSummary is set. A non-empty errMsg
// records a failed run.
func writeRecordedUnit(t *testing.T, root, name string, withSummary bool, errMsg string) string {
	t.Helper()
	unit := New(testAgent(), EnvArgs{TaskName: name})
	unit.ExpDir = filepath.Join(root, name)
	if err := os.MkdirAll(unit.ExpDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := unit.Prepare(root); err != nil {
		t.Fatal(err)
	}
	if withSummary {
		summary := &Summary{ExpID: unit.ExpID, Terminated: errMsg == ""}
		if errMsg != "" {
			summary.ErrMsg = &errMsg
		}
		if err := summary.Save(unit.ExpDir); err != nil {
			t.Fatal(err)
		}
	}
	return unit.ExpDir
}

func TestResultsIteratesAllRecordedUnits(t *testing.T) {
	root := t.TempDir()
	writeRecordedUnit(t, root, "a", true, "")
	writeRecordedUnit(t, root, "b", false, "")
	writeRecordedUnit(t, root, "c", true, "boom")

	it, err := Results(root)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}

	var names []string
	for {
		result, ok := it.Next()
		if !ok {
			break
		}
		names = append(names, result.Args.EnvArgs.TaskName)
		if result.Args.ExpDir != result.Dir {
			t.Errorf("loaded args dir %q != result dir %q", result.Args.ExpDir, result.Dir)
		}
	}
	if len(names) != 3 {
		t.Fatalf("iterated %d units, want 3", len(names))
	}
	// WalkDir is lexical, so traversal order is deterministic.
	for i, want := range []string{"a", "b", "c"} {
		if names[i] != want {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want)
		}
	}
}

func TestResultSummaryLazyLoad(t *testing.T) {
	root := t.TempDir()
	writeRecordedUnit(t, root, "done", true, "")
	writeRecordedUnit(t, root, "unfinished", false, "")

	it, err := Results(root)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}

	byName := map[string]*Result{}
	for {
		result, ok := it.Next()
		if !ok {
			break
		}
		byName[result.Args.EnvArgs.TaskName] = result
	}

	if _, err := byName["done"].Summary(); err != nil {
		t.Errorf("summary of finished unit: %v", err)
	}
	if _, err := byName["unfinished"].Summary(); !os.IsNotExist(err) {
		t.Errorf("missing summary error = %v, want os.IsNotExist", err)
	}
}

func TestResultsSkipsUnreadableArgs(t *testing.T) {
	root := t.TempDir()
	writeRecordedUnit(t, root, "good", true, "")

	bad := filepath.Join(root, "bad")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, ArgsFileName), []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	it, err := Results(root)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	count := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Errorf("iterated %d units, want 1 (corrupt record skipped)", count)
	}
}

func TestResultsMissingRoot(t *testing.T) {
	if _, err := Results(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Results on a missing directory succeeded")
	}
}

func TestSummaryRoundTripNullError(t *testing.T) {
	dir := t.TempDir()
	if err := (&Summary{CumReward: 1, Terminated: true}).Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadSummary(dir)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if loaded.HasError() {
		t.Error("clean summary loaded with an error")
	}
	errMsg, stackTrace := loaded.ErrorStrings()
	if errMsg != "" || stackTrace != "" {
		t.Errorf("ErrorStrings() = (%q, %q), want empty", errMsg, stackTrace)
	}
}
