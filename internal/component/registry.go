// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot, MountAll calls
// Init(deps) on every component and lets it add its routes to the shared
// router.

package component

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes() adds BOTH page and API endpoints to r, e.g:
//
//	r.Get("/newsletter", c.getPage)
//	r.Route("/api", func(api chi.Router) { ... })
type Component interface {
	Name() string
	Init(Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component ordered by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Component) int { return cmp.Compare(a.Name(), b.Name()) })
	return out
}

// MountAll initialises each component in cs and adds its routes to r in an
// isolated group.  The first Init error aborts.
func MountAll(r chi.Router, deps Deps, cs ...Component) error {
	for _, c := range cs {
		if err := c.Init(deps); err != nil {
			return fmt.Errorf("component %s init: %w", c.Name(), err)
		}
		r.Group(c.Routes)
		deps.logger().Infow("component mounted", "component", c.Name())
	}
	return nil
}
