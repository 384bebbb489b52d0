// Package gas holds the ordered set of gas-phase species names.
package gas

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/aerosim/internal/params"
)

var (
	ErrNotFound  = errors.New("Element not found.")
	ErrDuplicate = errors.New("gas species names must be unique")
	ErrEmptyName = errors.New("gas species name must not be empty")
)

type Data struct {
	names []string
	index map[string]int
}

func NewData(names ...string) (*Data, error) {
	d := &Data{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if n == "" {
			return nil, ErrEmptyName
		}
		if _, dup := d.index[n]; dup {
			return nil, fmt.Errorf("%q: %w", n, ErrDuplicate)
		}
		d.index[n] = len(d.names)
		d.names = append(d.names, n)
	}
	return d, nil
}

// NewDataFromParams accepts a list of names.
func NewDataFromParams(v *params.Value) (*Data, error) {
	if v.IsNull() {
		return NewData()
	}
	if !v.IsList() {
		return nil, params.Mismatch("$", "list of strings", v)
	}
	names := make([]string, v.Len())
	for i, item := range v.Items() {
		s, ok := item.Str()
		if !ok {
			return nil, params.Mismatch(fmt.Sprintf("$[%d]", i), "string", item)
		}
		names[i] = s
	}
	return NewData(names...)
}

func (d *Data) Len() int { return len(d.names) }

// IndexOf returns the zero-based position of name.
func (d *Data) IndexOf(name string) (int, error) {
	i, ok := d.index[name]
	if !ok {
		return -1, ErrNotFound
	}
	return i, nil
}

func (d *Data) Names() []string {
	return append([]string(nil), d.names...)
}

func (d *Data) Params() *params.Value {
	return params.Strings(d.names...)
}

func (d *Data) String() string {
	b, err := json.Marshal(d.names)
	if err != nil {
		return fmt.Sprintf("gas.Data(%d species)", len(d.names))
	}
	return string(b)
}
