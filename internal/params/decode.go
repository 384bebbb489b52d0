package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxDepth bounds the nesting of any configuration tree.
const MaxDepth = 32

// Decode parses a YAML or JSON document.
func Decode(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if doc.Kind == 0 {
		return Map(), nil
	}
	return FromNode(&doc)
}

// Load reads and decodes a YAML or JSON file.
func Load(path string) (*Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// FromNode converts a yaml.v3 node graph. Aliases are expanded; an alias
// that refers back to one of its own ancestors makes the graph cyclic and
// is rejected with a TypeError.
func FromNode(n *yaml.Node) (*Value, error) {
	d := nodeDecoder{active: make(map[*yaml.Node]bool)}
	return d.decode(n, "$", 0)
}

type nodeDecoder struct {
	active map[*yaml.Node]bool
}

func (d *nodeDecoder) decode(n *yaml.Node, path string, depth int) (*Value, error) {
	if n == nil {
		return Null(), nil
	}
	if depth > MaxDepth {
		return nil, typeErrorf(path, "nesting deeper than %d levels", MaxDepth)
	}
	if d.active[n] {
		return nil, typeErrorf(path, "self-referential structure")
	}
	d.active[n] = true
	defer delete(d.active, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Map(), nil
		}
		return d.decode(n.Content[0], path, depth)
	case yaml.AliasNode:
		return d.decode(n.Alias, path, depth)
	case yaml.ScalarNode:
		return decodeScalar(n, path)
	case yaml.SequenceNode:
		items := make([]*Value, len(n.Content))
		for i, c := range n.Content {
			v, err := d.decode(c, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return List(items...), nil
	case yaml.MappingNode:
		out := Map()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k == nil || k.Kind != yaml.ScalarNode {
				return nil, typeErrorf(path, "mapping keys must be strings")
			}
			if _, dup := out.Get(k.Value); dup {
				return nil, typeErrorf(path, "duplicate key %q", k.Value)
			}
			v, err := d.decode(n.Content[i+1], path+"."+k.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out.entries = append(out.entries, KV(k.Value, v))
		}
		return out, nil
	}
	return nil, typeErrorf(path, "unsupported yaml node kind %d", n.Kind)
}

func decodeScalar(n *yaml.Node, path string) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, typeErrorf(path, "%v", err)
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, typeErrorf(path, "%v", err)
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}

// FromAny converts plain Go values (as produced by encoding/json or built by
// hand) into a Value. Lists that contain themselves and trees deeper than
// MaxDepth are rejected with a TypeError.
func FromAny(x any) (*Value, error) {
	c := anyConverter{active: make(map[*any]bool)}
	return c.convert(x, "$", 0)
}

type anyConverter struct {
	active map[*any]bool
}

func (c *anyConverter) convert(x any, path string, depth int) (*Value, error) {
	if depth > MaxDepth {
		return nil, typeErrorf(path, "nesting deeper than %d levels", MaxDepth)
	}
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, typeErrorf(path, "%v", err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case []float64:
		return Numbers(t...), nil
	case []int:
		fs := make([]float64, len(t))
		for i, n := range t {
			fs[i] = float64(n)
		}
		return Numbers(fs...), nil
	case []string:
		return Strings(t...), nil
	case []any:
		if len(t) > 0 {
			// The address of the first element identifies the backing array.
			id := &t[0]
			if c.active[id] {
				return nil, typeErrorf(path, "self-referential structure")
			}
			c.active[id] = true
			defer delete(c.active, id)
		}
		items := make([]*Value, len(t))
		for i, item := range t {
			v, err := c.convert(item, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return List(items...), nil
	case []map[string]any:
		items := make([]*Value, len(t))
		for i, item := range t {
			v, err := c.convert(item, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		// Go maps are unordered; keys are taken in lexical order so the
		// result is deterministic.
		out := Map()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := c.convert(t[k], path+"."+k, depth+1)
			if err != nil {
				return nil, err
			}
			out.entries = append(out.entries, KV(k, v))
		}
		return out, nil
	case map[string][]float64:
		out := Map()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.entries = append(out.entries, KV(k, Numbers(t[k]...)))
		}
		return out, nil
	}
	return nil, typeErrorf(path, "unsupported type %T", x)
}

// MarshalJSON writes mappings in document order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) writeJSON(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindMap:
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := e.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// UnmarshalJSON accepts any JSON document, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Decode(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// MarshalYAML emits a node graph so key order survives yaml.Marshal.
func (v *Value) MarshalYAML() (any, error) {
	return v.node(), nil
}

func (v *Value) node() *yaml.Node {
	switch v.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v.num), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.num, 'g', -1, 64)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.str}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			n.Content = append(n.Content, item.node())
		}
		return n
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.entries {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				e.Value.node())
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
