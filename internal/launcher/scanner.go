package launcher

import (
	"os"

	"explab/internal/errcat"
	"explab/internal/exp"
)

// incompleteScanner walks a prior group's recorded results in a single pass
// and yields the units a relaunch policy selects. Order follows the result
// iterator's own traversal order.
type incompleteScanner struct {
	results *exp.ResultIter
	mode    RelaunchMode
}

func newIncompleteScanner(groupDir string, mode RelaunchMode) (*incompleteScanner, error) {
	results, err := exp.Results(groupDir)
	if err != nil {
		return nil, err
	}
	return &incompleteScanner{results: results, mode: mode}, nil
}

// Next returns the next unit needing relaunch. ok is false when the scan is
// exhausted.
func (s *incompleteScanner) Next() (unit *exp.ExpArgs, ok bool, err error) {
	for {
		result, more := s.results.Next()
		if !more {
			return nil, false, nil
		}

		summary, err := result.Summary()
		if err != nil {
			if os.IsNotExist(err) {
				// Never finished: incomplete under every mode.
				return result.Args, true, nil
			}
			return nil, false, err
		}

		if s.mode == RelaunchIncompleteOnly {
			continue
		}

		if !summary.HasError() {
			continue
		}

		switch s.mode {
		case RelaunchAllErrors:
			return result.Args, true, nil
		case RelaunchServerErrors:
			errMsg, stackTrace := summary.ErrorStrings()
			if errcat.IsCriticalServerError(errMsg, stackTrace) ||
				errcat.IsMinorServerError(errMsg, stackTrace) {
				return result.Args, true, nil
			}
		default:
			return nil, false, configErrorf("unknown relaunch mode %q", s.mode)
		}
	}
}

// collect drains the scanner into a slice.
func (s *incompleteScanner) collect() ([]*exp.ExpArgs, error) {
	var units []*exp.ExpArgs
	for {
		unit, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return units, nil
		}
		units = append(units, unit)
	}
}
