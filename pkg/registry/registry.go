package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/security"
)

// Registry maps entity names to classes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]core.Class
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{classes: make(map[string]core.Class)}
}

// Register adds a class under its name, replacing any previous class of that name.
// Names follow job type rules; an invalid name panics.
func (r *Registry) Register(c core.Class) {
	if err := security.ValidateJobType(c.Name()); err != nil {
		panic(fmt.Sprintf("jobs: invalid model name %q: %v", c.Name(), err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.Name()] = c
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// LookupClass returns the class registered under name.
func (r *Registry) LookupClass(_ context.Context, name string) (core.Class, error) {
	r.mu.RLock()
	c, ok := r.classes[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrModelNotRegistered, name)
	}
	return c, nil
}

// LookupInstance loads an instance of class by id. It returns (nil, nil) when none exists.
func (r *Registry) LookupInstance(ctx context.Context, class core.Class, id string) (core.Instance, error) {
	return class.FindInstance(ctx, id)
}
