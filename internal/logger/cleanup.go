package logger

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxStaleLogAge is the age past which a log file is removed even when its
// owning pid cannot be parsed.
const maxStaleLogAge = 7 * 24 * time.Hour

// CleanupStaleLogs removes log files left behind by dead launcher processes.
// A file is stale when its embedded pid no longer maps to a live process, or
// when the live process started after the file was written (pid reuse).
// Returns the number of files removed.
func CleanupStaleLogs() int {
	return cleanupStaleLogsIn(LogDir(), time.Now())
}

func cleanupStaleLogsIn(dir string, now time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !matchesLogPrefix(name) || !strings.HasSuffix(name, ".log") {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}

		pid, ok := pidFromLogName(name)
		if !ok {
			if now.Sub(info.ModTime()) > maxStaleLogAge {
				if os.Remove(path) == nil {
					removed++
				}
			}
			continue
		}

		if pid == os.Getpid() {
			continue
		}

		if isProcessRunning(pid) {
			start := getProcessStartTime(pid)
			if start.IsZero() || start.Before(info.ModTime()) {
				continue
			}
			// Live pid but started after the log was written: reused pid.
		}

		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}

func matchesLogPrefix(name string) bool {
	for _, prefix := range LogPrefixes() {
		if strings.HasPrefix(name, prefix+"-") {
			return true
		}
	}
	return false
}

// pidFromLogName parses the pid out of "<tool>-<pid>-<timestamp>.log".
func pidFromLogName(name string) (int, bool) {
	trimmed := strings.TrimSuffix(name, ".log")
	parts := strings.Split(trimmed, "-")
	if len(parts) < 3 {
		return 0, false
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
