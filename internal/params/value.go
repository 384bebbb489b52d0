// Package params holds loosely-typed configuration trees decoded from YAML or
// JSON documents and the helpers used to validate them.
package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is a node of an order-preserving configuration tree. Mappings keep
// their keys in document order, which matters for species tables and
// mass fraction lists.
type Value struct {
	kind    Kind
	b       bool
	num     float64
	str     string
	list    []*Value
	entries []Entry
}

// Entry is a single key of a mapping.
type Entry struct {
	Key   string
	Value *Value
}

func KV(key string, v *Value) Entry {
	return Entry{Key: key, Value: v}
}

func Null() *Value                { return &Value{kind: KindNull} }
func Bool(b bool) *Value          { return &Value{kind: KindBool, b: b} }
func Number(f float64) *Value     { return &Value{kind: KindNumber, num: f} }
func String(s string) *Value      { return &Value{kind: KindString, str: s} }
func List(items ...*Value) *Value { return &Value{kind: KindList, list: items} }
func Map(entries ...Entry) *Value { return &Value{kind: KindMap, entries: entries} }

// Numbers builds a list of numbers.
func Numbers(fs ...float64) *Value {
	items := make([]*Value, len(fs))
	for i, f := range fs {
		items[i] = Number(f)
	}
	return List(items...)
}

// Strings builds a list of strings.
func Strings(ss ...string) *Value {
	items := make([]*Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}
	return List(items...)
}

// Kind reports the node kind; a nil Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

func (v *Value) IsNull() bool { return v.Kind() == KindNull }
func (v *Value) IsMap() bool  { return v.Kind() == KindMap }
func (v *Value) IsList() bool { return v.Kind() == KindList }

// Len returns the number of items of a list or keys of a mapping.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.entries)
	default:
		return 0
	}
}

// Index returns the i-th list item, or nil when out of range.
func (v *Value) Index(i int) *Value {
	if v.Kind() != KindList || i < 0 || i >= len(v.list) {
		return nil
	}
	return v.list[i]
}

func (v *Value) Items() []*Value {
	if v.Kind() != KindList {
		return nil
	}
	return v.list
}

func (v *Value) Entries() []Entry {
	if v.Kind() != KindMap {
		return nil
	}
	return v.entries
}

func (v *Value) Keys() []string {
	if v.Kind() != KindMap {
		return nil
	}
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key in a mapping.
func (v *Value) Get(key string) (*Value, bool) {
	for _, e := range v.Entries() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Single returns the only entry of a single-key mapping.
func (v *Value) Single() (Entry, bool) {
	if v.Kind() != KindMap || len(v.entries) != 1 {
		return Entry{}, false
	}
	return v.entries[0], true
}

func (v *Value) Float() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v *Value) Str() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.str, true
}

func (v *Value) Boolean() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

// Floats returns the items of a list of numbers. ok is false when v is not a
// list or any item is not a number.
func (v *Value) Floats() ([]float64, bool) {
	if v.Kind() != KindList {
		return nil, false
	}
	out := make([]float64, len(v.list))
	for i, item := range v.list {
		f, ok := item.Float()
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// Set replaces or appends key in a mapping.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() != KindMap {
		return
	}
	for i, e := range v.entries {
		if e.Key == key {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, KV(key, val))
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{kind: v.kind, b: v.b, num: v.num, str: v.str}
	if v.list != nil {
		c.list = make([]*Value, len(v.list))
		for i, item := range v.list {
			c.list[i] = item.Clone()
		}
	}
	if v.entries != nil {
		c.entries = make([]Entry, len(v.entries))
		for i, e := range v.entries {
			c.entries[i] = KV(e.Key, e.Value.Clone())
		}
	}
	return c
}

// Equal reports deep equality, including mapping key order.
func (v *Value) Equal(o *Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != o.entries[i].Key || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the tree to plain Go values. Mapping order is lost.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders the value in compact flow style, close to JSON.
func (v *Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v *Value) write(sb *strings.Builder) {
	switch v.Kind() {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(e.Key))
			sb.WriteString(": ")
			e.Value.write(sb)
		}
		sb.WriteByte('}')
	}
}

// SortedKeys returns the mapping keys in lexical order.
func (v *Value) SortedKeys() []string {
	keys := v.Keys()
	sort.Strings(keys)
	return keys
}

// TypeError reports input that is not a well-formed configuration tree:
// wrong node kinds, cycles, or nesting beyond MaxDepth. It is raised before
// any domain validation runs.
type TypeError struct {
	Path   string
	Reason string
}

func (e *TypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("incompatible constructor arguments: %s", e.Reason)
	}
	return fmt.Sprintf("incompatible constructor arguments: %s: %s", e.Path, e.Reason)
}

func typeErrorf(path, format string, args ...any) *TypeError {
	return &TypeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Mismatch builds a TypeError for a node of the wrong kind.
func Mismatch(path string, want string, got *Value) *TypeError {
	return typeErrorf(path, "expected %s, got %s", want, got.Kind())
}
