package config

import (
	"os"
	"strconv"
	"strings"
)

// Benchmarks accepted by the --benchmark flag.
var Benchmarks = []string{"miniwob", "workarena.l1", "workarena.l2", "workarena.l3"}

// DefaultExpGroup is the experiment group launched when --exp_config is not
// given.
const DefaultExpGroup = "exp_configs.final_run"

// WebArenaMarker flags task names that require the WebArena server fleet.
const WebArenaMarker = "webarena"

// IsKnownBenchmark reports whether name is one of the supported benchmarks.
// The empty string is accepted: some experiment groups fix their own tasks.
func IsKnownBenchmark(name string) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}
	for _, b := range Benchmarks {
		if b == name {
			return true
		}
	}
	return false
}

// EnvFlagEnabled returns true when the environment variable exists and is not
// explicitly set to a falsey value ("0/false/no/off").
func EnvFlagEnabled(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return ParseBoolFlag(val, true)
}

func ParseBoolFlag(val string, defaultValue bool) bool {
	val = strings.TrimSpace(strings.ToLower(val))
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	case "":
		return defaultValue
	default:
		return defaultValue
	}
}

const maxJobsLimit = 100

// ClampJobs bounds a job count to [1, maxJobsLimit].
func ClampJobs(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxJobsLimit {
		return maxJobsLimit
	}
	return n
}

// DefaultExpRoot returns the directory experiment groups are written to,
// EXPLAB_EXP_ROOT when set, otherwise ~/explab_results.
func DefaultExpRoot() string {
	if root := strings.TrimSpace(os.Getenv("EXPLAB_EXP_ROOT")); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "explab_results"
	}
	return home + string(os.PathSeparator) + "explab_results"
}

// ResolveEpisodeTimeout reads EXPLAB_EPISODE_TIMEOUT (seconds). Zero means
// no timeout.
func ResolveEpisodeTimeout() int {
	raw := strings.TrimSpace(os.Getenv("EXPLAB_EPISODE_TIMEOUT"))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
