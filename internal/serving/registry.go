// Package serving pools model-serving endpoints across experiment units.
// Agents that share a model share one registry entry instead of each
// spinning up (or holding open) their own serving resources.
package serving

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Server is one pooled serving endpoint. Refcounted: it stays alive while
// at least one prepared agent still references it.
type Server struct {
	ModelName string
	BaseURL   string
	Started   time.Time

	refs int
}

// Refs returns the current reference count. Only meaningful while the
// registry lock is not needed, i.e. in tests and teardown logging.
func (s *Server) Refs() int { return s.refs }

// Registry is the shared mutable handle passed to every unit's prepare and
// close calls. A single registry lives for the duration of one launch; it is
// safe for concurrent use during the run phase.
type Registry struct {
	mu      sync.Mutex
	servers map[string]*Server
}

func NewRegistry() *Registry {
	return &Registry{servers: make(map[string]*Server)}
}

// Acquire returns the pooled server for modelName, creating it on first use.
// The reference count is incremented on every call.
func (r *Registry) Acquire(modelName, baseURL string) (*Server, error) {
	name := strings.TrimSpace(modelName)
	if name == "" {
		return nil, fmt.Errorf("acquire: empty model name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if server, ok := r.servers[name]; ok {
		server.refs++
		if strings.TrimSpace(baseURL) != "" {
			server.BaseURL = baseURL
		}
		return server, nil
	}

	server := &Server{
		ModelName: name,
		BaseURL:   strings.TrimSpace(baseURL),
		Started:   time.Now(),
		refs:      1,
	}
	r.servers[name] = server
	return server, nil
}

// Release decrements the reference count for modelName and removes the entry
// when it reaches zero. Releasing an unknown model is a no-op; teardown is
// best effort and must not fail because a prepare never happened.
func (r *Registry) Release(modelName string) bool {
	name := strings.TrimSpace(modelName)
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	server, ok := r.servers[name]
	if !ok {
		return false
	}
	server.refs--
	if server.refs <= 0 {
		delete(r.servers, name)
		return true
	}
	return false
}

// Len returns the number of live pooled servers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.servers)
}

// ModelNames returns the pooled model names, sorted, for teardown logging.
func (r *Registry) ModelNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
