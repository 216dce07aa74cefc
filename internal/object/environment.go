package object

import "sync"

// Environment is a set of named values a compiled expression reads host data
// from. An environment may enclose an outer one; lookups fall through to it.
type Environment struct {
	Bindings map[string]Value
	Outer    *Environment

	mu sync.RWMutex
}

func NewEnvironment() *Environment {
	return &Environment{Bindings: make(map[string]Value)}
}

// NewEnclosedEnvironment creates an environment whose misses are answered by outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Lookup implements ast.Env.
func (e *Environment) Lookup(name string) (Value, bool) {
	if e == nil {
		return nil, false
	}
	e.mu.RLock()
	v, ok := e.Bindings[name]
	e.mu.RUnlock()
	if ok {
		return v, true
	}
	return e.Outer.Lookup(name)
}

func (e *Environment) Define(name string, v Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Bindings[name] = v
}
