// Package catalog maps dotted path strings like "exp_configs.final_run" to
// registered experiment-group factories and agent configurations. Paths may
// use '/' in place of '.'; both name a namespace plus a symbol inside it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"explab/internal/exp"
)

// ResolutionError reports a path that could not be resolved, carrying the
// original path and the underlying cause.
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("error resolving %q: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

var (
	errNoNamespace      = errors.New("path has no namespace component")
	errUnknownSymbol    = errors.New("unknown symbol")
	errUnknownNamespace = errors.New("unknown namespace")
)

// SplitPath normalizes '/' separators to '.' and splits the path on its
// final dot into (namespace, name).
func SplitPath(path string) (namespace, name string, err error) {
	normalized := strings.ReplaceAll(path, "/", ".")
	idx := strings.LastIndex(normalized, ".")
	if idx < 0 {
		return "", "", &ResolutionError{Path: path, Err: errNoNamespace}
	}
	return normalized[:idx], normalized[idx+1:], nil
}

// GroupFactory produces the experiment units of one group for a given agent
// and benchmark.
type GroupFactory func(agent *exp.AgentArgs, benchmark string) ([]*exp.ExpArgs, error)

var (
	mu     sync.RWMutex
	groups = map[string]map[string]GroupFactory{}
	agents = map[string]map[string]func() *exp.AgentArgs{}
)

// RegisterGroup adds a group factory under a dotted path. Panics on a
// malformed path or duplicate registration; registration happens at init
// time where a panic is a programming error, not a runtime condition.
func RegisterGroup(path string, factory GroupFactory) {
	namespace, name, err := SplitPath(path)
	if err != nil {
		panic(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if groups[namespace] == nil {
		groups[namespace] = map[string]GroupFactory{}
	}
	if _, exists := groups[namespace][name]; exists {
		panic(fmt.Sprintf("duplicate group registration: %s", path))
	}
	groups[namespace][name] = factory
}

// RegisterAgent adds an agent-config constructor under a dotted path.
func RegisterAgent(path string, build func() *exp.AgentArgs) {
	namespace, name, err := SplitPath(path)
	if err != nil {
		panic(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if agents[namespace] == nil {
		agents[namespace] = map[string]func() *exp.AgentArgs{}
	}
	if _, exists := agents[namespace][name]; exists {
		panic(fmt.Sprintf("duplicate agent registration: %s", path))
	}
	agents[namespace][name] = build
}

// ResolveGroup returns the factory registered under path, along with the
// group name (the final path component, used to name output directories).
func ResolveGroup(path string) (GroupFactory, string, error) {
	namespace, name, err := SplitPath(path)
	if err != nil {
		return nil, "", err
	}

	mu.RLock()
	defer mu.RUnlock()
	ns, ok := groups[namespace]
	if !ok {
		return nil, "", &ResolutionError{Path: path, Err: fmt.Errorf("%w %q", errUnknownNamespace, namespace)}
	}
	factory, ok := ns[name]
	if !ok {
		return nil, "", &ResolutionError{Path: path, Err: fmt.Errorf("%w %q in namespace %q", errUnknownSymbol, name, namespace)}
	}
	return factory, name, nil
}

// ResolveAgent builds a fresh agent config from the constructor registered
// under path. Each call returns a new value so launches never share mutable
// agent state through the catalog.
func ResolveAgent(path string) (*exp.AgentArgs, error) {
	namespace, name, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	mu.RLock()
	defer mu.RUnlock()
	ns, ok := agents[namespace]
	if !ok {
		return nil, &ResolutionError{Path: path, Err: fmt.Errorf("%w %q", errUnknownNamespace, namespace)}
	}
	build, ok := ns[name]
	if !ok {
		return nil, &ResolutionError{Path: path, Err: fmt.Errorf("%w %q in namespace %q", errUnknownSymbol, name, namespace)}
	}
	return build(), nil
}

// KnownGroups lists registered group paths, sorted, for CLI help output.
func KnownGroups() []string {
	mu.RLock()
	defer mu.RUnlock()
	var paths []string
	for namespace, ns := range groups {
		for name := range ns {
			paths = append(paths, namespace+"."+name)
		}
	}
	sort.Strings(paths)
	return paths
}
