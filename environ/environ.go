package environ

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUndefined = errors.New("undefined identifier")
	ErrDefined   = errors.New("identifier already defined")
)

type Environ[T any] interface {
	Resolve(string) (T, error)
	Define(string, T)
	Names() []string
	Len() int
}

// Env is a map of identifiers optionally enclosed by a parent environment.
// Lookups walk the chain of parents until a definition is found.
type Env[T any] struct {
	values map[string]T
	order  []string
	parent Environ[T]
}

func Empty[T any]() *Env[T] {
	return Enclosed[T](nil)
}

func Enclosed[T any](parent Environ[T]) *Env[T] {
	e := Env[T]{
		values: make(map[string]T),
		parent: parent,
	}
	return &e
}

func (e *Env[T]) Len() int {
	return len(e.values)
}

// Names returns the identifiers defined locally in the order of their
// first definition.
func (e *Env[T]) Names() []string {
	return slices.Clone(e.order)
}

func (e *Env[T]) All() []string {
	var all []string
	if p, ok := e.parent.(interface{ All() []string }); ok {
		all = p.All()
	}
	for _, n := range e.order {
		if !slices.Contains(all, n) {
			all = append(all, n)
		}
	}
	return all
}

func (e *Env[T]) Define(ident string, value T) {
	if _, ok := e.values[ident]; !ok {
		e.order = append(e.order, ident)
	}
	e.values[ident] = value
}

// DefineUnique is Define failing with ErrDefined when ident is already
// defined locally.
func (e *Env[T]) DefineUnique(ident string, value T) error {
	if e.Defined(ident) {
		return fmt.Errorf("%s: %w", ident, ErrDefined)
	}
	e.Define(ident, value)
	return nil
}

func (e *Env[T]) Defined(ident string) bool {
	_, ok := e.values[ident]
	return ok
}

func (e *Env[T]) Resolve(ident string) (T, error) {
	value, ok := e.values[ident]
	if ok {
		return value, nil
	}
	if e.parent != nil {
		return e.parent.Resolve(ident)
	}
	var t T
	return t, fmt.Errorf("%s: %w", ident, ErrUndefined)
}

func (e *Env[T]) Lookup(ident string) (T, bool) {
	value, err := e.Resolve(ident)
	return value, err == nil
}

func (e *Env[T]) Parent() Environ[T] {
	return e.parent
}
