package launcher

import "fmt"

// ConfigError reports an invalid launch configuration: a relaunch against a
// missing group, or an unrecognized relaunch mode.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// RelaunchMode selects which previously recorded units are re-launched.
type RelaunchMode string

const (
	// RelaunchNone launches a fresh experiment group.
	RelaunchNone RelaunchMode = ""
	// RelaunchIncompleteOnly re-selects units that never wrote a summary.
	RelaunchIncompleteOnly RelaunchMode = "incomplete_only"
	// RelaunchAllErrors re-selects incomplete units and any unit whose
	// summary carries an error.
	RelaunchAllErrors RelaunchMode = "all_errors"
	// RelaunchServerErrors re-selects incomplete units and units whose
	// error classifies as a server-side failure.
	RelaunchServerErrors RelaunchMode = "server_errors"
)

// ParseRelaunchMode validates a CLI-supplied mode string.
func ParseRelaunchMode(s string) (RelaunchMode, error) {
	switch RelaunchMode(s) {
	case RelaunchNone, RelaunchIncompleteOnly, RelaunchAllErrors, RelaunchServerErrors:
		return RelaunchMode(s), nil
	default:
		return RelaunchNone, configErrorf("unknown relaunch mode %q", s)
	}
}
