package registry

import (
	"context"
	"sync"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Finder loads a *T by id. It returns (nil, nil) when no record matches.
type Finder[T any] func(ctx context.Context, id string) (*T, error)

// InstanceMethod is an instance-level method of T with a declared arity.
type InstanceMethod[T any] struct {
	bind func(v *T) core.Method
}

// WithData declares an instance method that receives the job data.
func WithData[T any](fn func(ctx context.Context, v *T, data core.Data) (any, error)) InstanceMethod[T] {
	if fn == nil {
		return InstanceMethod[T]{}
	}
	return InstanceMethod[T]{bind: func(v *T) core.Method {
		return core.DataMethod(func(ctx context.Context, data core.Data) (any, error) {
			return fn(ctx, v, data)
		})
	}}
}

// NoData declares an instance method that takes no job data.
func NoData[T any](fn func(ctx context.Context, v *T) (any, error)) InstanceMethod[T] {
	if fn == nil {
		return InstanceMethod[T]{}
	}
	return InstanceMethod[T]{bind: func(v *T) core.Method {
		return core.PlainMethod(func(ctx context.Context) (any, error) {
			return fn(ctx, v)
		})
	}}
}

// Model is a core.Class backed by values of type T.
type Model[T any] struct {
	name   string
	find   Finder[T]
	mu     sync.RWMutex
	static map[string]core.Method
	inst   map[string]InstanceMethod[T]
}

// NewModel creates a model named name. A nil finder makes every instance lookup miss.
func NewModel[T any](name string, find Finder[T]) *Model[T] {
	return &Model[T]{
		name:   name,
		find:   find,
		static: make(map[string]core.Method),
		inst:   make(map[string]InstanceMethod[T]),
	}
}

// Name returns the model name.
func (m *Model[T]) Name() string { return m.name }

// Static registers a class-level method.
func (m *Model[T]) Static(name string, method core.Method) *Model[T] {
	m.mu.Lock()
	m.static[name] = method
	m.mu.Unlock()
	return m
}

// Method registers an instance-level method.
func (m *Model[T]) Method(name string, method InstanceMethod[T]) *Model[T] {
	m.mu.Lock()
	m.inst[name] = method
	m.mu.Unlock()
	return m
}

// StaticMethod returns the class-level method called name.
func (m *Model[T]) StaticMethod(name string) (core.Method, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	method, ok := m.static[name]
	if !ok || !method.Valid() {
		return core.Method{}, false
	}
	return method, true
}

// FindInstance loads the instance with the given id.
func (m *Model[T]) FindInstance(ctx context.Context, id string) (core.Instance, error) {
	if m.find == nil {
		return nil, nil
	}
	v, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return &Instance[T]{model: m, value: v}, nil
}

// Instance is a loaded value of a Model.
type Instance[T any] struct {
	model *Model[T]
	value *T
}

// Value returns the loaded value.
func (i *Instance[T]) Value() *T { return i.value }

// InstanceMethod returns the instance-level method called name, bound to the value.
func (i *Instance[T]) InstanceMethod(name string) (core.Method, bool) {
	i.model.mu.RLock()
	method, ok := i.model.inst[name]
	i.model.mu.RUnlock()
	if !ok || method.bind == nil {
		return core.Method{}, false
	}
	bound := method.bind(i.value)
	return bound, bound.Valid()
}
