package exp

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ilogger "explab/internal/logger"

	"github.com/goccy/go-json"
)

// Result is one previously recorded experiment found under a group
// directory. The summary is loaded lazily on first access.
type Result struct {
	Dir  string
	Args *ExpArgs

	summary    *Summary
	summaryErr error
	loaded     bool
}

// Summary returns the recorded outcome for this result. The error satisfies
// os.IsNotExist when no summary was ever written (incomplete run).
func (r *Result) Summary() (*Summary, error) {
	if !r.loaded {
		r.summary, r.summaryErr = LoadSummary(r.Dir)
		r.loaded = true
	}
	return r.summary, r.summaryErr
}

// ResultIter walks previously recorded experiments in a single pass, in
// lexical directory order. It is not restartable.
type ResultIter struct {
	dirs []string
	idx  int
}

// Results finds every experiment directory under root (any directory
// containing an exp_args.json) and returns an iterator over them.
func Results(root string) (*ResultIter, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan results: %s is not a directory", root)
	}

	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ArgsFileName {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}

	return &ResultIter{dirs: dirs}, nil
}

// Next returns the next recorded experiment. Directories whose unit record
// cannot be parsed are logged and skipped rather than failing the whole
// scan.
func (it *ResultIter) Next() (*Result, bool) {
	for it.idx < len(it.dirs) {
		dir := it.dirs[it.idx]
		it.idx++

		args, err := loadArgs(dir)
		if err != nil {
			ilogger.LogWarn(fmt.Sprintf("Skipping unreadable experiment in %s: %v", dir, err))
			continue
		}
		args.ExpDir = dir
		return &Result{Dir: dir, Args: args}, true
	}
	return nil, false
}

func loadArgs(dir string) (*ExpArgs, error) {
	data, err := os.ReadFile(filepath.Join(dir, ArgsFileName))
	if err != nil {
		return nil, err
	}
	var args ExpArgs
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ArgsFileName, err)
	}
	return &args, nil
}
