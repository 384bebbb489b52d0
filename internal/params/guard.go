package params

import (
	"errors"
	"fmt"
)

// ErrUnused is wrapped by every UnusedError.
var ErrUnused = errors.New("params: parameter remains unused")

// UnusedError reports a supplied key that nothing consumed.
type UnusedError struct {
	Key string
}

func (e *UnusedError) Error() string {
	return fmt.Sprintf("WARNING: %q parameter remains unused.", e.Key)
}

func (e *UnusedError) Unwrap() error {
	return ErrUnused
}

// Guard tracks which keys of a mapping have been read.
type Guard struct {
	m    *Value
	path string
	used map[string]bool
}

func NewGuard(m *Value, path string) *Guard {
	return &Guard{m: m, path: path, used: make(map[string]bool)}
}

func (g *Guard) Path() string { return g.path }

// Has reports whether key is present without marking it used.
func (g *Guard) Has(key string) bool {
	_, ok := g.m.Get(key)
	return ok
}

// Use returns the value under key and marks it consumed.
func (g *Guard) Use(key string) (*Value, bool) {
	v, ok := g.m.Get(key)
	if ok {
		g.used[key] = true
	}
	return v, ok
}

// Number reads a required number. ok is false when the key is absent; a
// present key of another kind is a TypeError.
func (g *Guard) Number(key string) (f float64, ok bool, err error) {
	v, ok := g.Use(key)
	if !ok {
		return 0, false, nil
	}
	f, isNum := v.Float()
	if !isNum {
		return 0, true, Mismatch(g.path+"."+key, "number", v)
	}
	return f, true, nil
}

// Text reads a string value.
func (g *Guard) Text(key string) (s string, ok bool, err error) {
	v, ok := g.Use(key)
	if !ok {
		return "", false, nil
	}
	s, isStr := v.Str()
	if !isStr {
		return "", true, Mismatch(g.path+"."+key, "string", v)
	}
	return s, true, nil
}

// Unused lists unconsumed keys in document order.
func (g *Guard) Unused() []string {
	var out []string
	for _, k := range g.m.Keys() {
		if !g.used[k] {
			out = append(out, k)
		}
	}
	return out
}

// Check fails on the first unconsumed key.
func (g *Guard) Check() error {
	if unused := g.Unused(); len(unused) > 0 {
		return &UnusedError{Key: unused[0]}
	}
	return nil
}
