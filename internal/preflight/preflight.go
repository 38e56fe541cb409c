// Package preflight verifies that external benchmark infrastructure is
// reachable before any experiment is prepared. A launch against a dead
// server fleet would record hundreds of identical connection errors.
package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// WebArena instance URLs are taken from the same environment variables the
// benchmark environments read, so the launcher checks exactly what the
// units will use.
var webArenaEnvVars = []string{
	"WA_SHOPPING",
	"WA_SHOPPING_ADMIN",
	"WA_REDDIT",
	"WA_GITLAB",
	"WA_WIKIPEDIA",
	"WA_MAP",
	"WA_HOMEPAGE",
}

const checkTimeout = 10 * time.Second

var httpClient = &http.Client{Timeout: checkTimeout}

// SetHTTPClient swaps the client used for reachability checks (tests).
func SetHTTPClient(c *http.Client) (restore func()) {
	prev := httpClient
	if c != nil {
		httpClient = c
	}
	return func() { httpClient = prev }
}

// CheckWebArenaServers verifies every configured WebArena server responds.
// Unset server variables and unreachable servers are both fatal: a launch
// with half a fleet silently fails every task touching the missing half.
func CheckWebArenaServers(ctx context.Context) error {
	var problems []string
	for _, envVar := range webArenaEnvVars {
		url := strings.TrimSpace(os.Getenv(envVar))
		if url == "" {
			problems = append(problems, fmt.Sprintf("%s is not set", envVar))
			continue
		}
		if err := checkServer(ctx, url); err != nil {
			problems = append(problems, fmt.Sprintf("%s (%s): %v", envVar, url, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("webarena preflight failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func checkServer(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("status %s", resp.Status)
	}
	return nil
}
