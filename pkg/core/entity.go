package core

import "context"

// Arity declares which arguments a background method accepts.
type Arity int

const (
	// NoData methods receive only the context.
	NoData Arity = iota
	// TakesData methods receive the job data with the routing context removed.
	TakesData
)

func (a Arity) String() string {
	if a == TakesData {
		return "data"
	}
	return "none"
}

// Method is an invocable background method with an explicit arity.
type Method struct {
	arity    Arity
	withData func(ctx context.Context, data Data) (any, error)
	plain    func(ctx context.Context) (any, error)
}

// DataMethod wraps a method that takes the job data.
func DataMethod(fn func(ctx context.Context, data Data) (any, error)) Method {
	return Method{arity: TakesData, withData: fn}
}

// PlainMethod wraps a method that takes no job data.
func PlainMethod(fn func(ctx context.Context) (any, error)) Method {
	return Method{arity: NoData, plain: fn}
}

// Arity returns the declared arity.
func (m Method) Arity() Arity { return m.arity }

// Valid reports whether the method has a function to invoke.
func (m Method) Valid() bool {
	if m.arity == TakesData {
		return m.withData != nil
	}
	return m.plain != nil
}

// Invoke calls the method, passing data only to TakesData methods.
func (m Method) Invoke(ctx context.Context, data Data) (any, error) {
	switch m.arity {
	case TakesData:
		return m.withData(ctx, data)
	default:
		return m.plain(ctx)
	}
}

// Class is a registered entity exposing class-level methods and instance lookup.
type Class interface {
	Name() string
	StaticMethod(name string) (Method, bool)
	FindInstance(ctx context.Context, id string) (Instance, error)
}

// Instance is a loaded entity exposing instance-level methods.
type Instance interface {
	InstanceMethod(name string) (Method, bool)
}

// Registry resolves entities by name and instances by id.
//
// LookupClass returns ErrModelNotRegistered (possibly wrapped) for unknown names.
// LookupInstance returns (nil, nil) when no instance has the given id.
type Registry interface {
	LookupClass(ctx context.Context, name string) (Class, error)
	LookupInstance(ctx context.Context, class Class, id string) (Instance, error)
}
