package interp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is the dynamic value representation shared by the call-site
// argument vector, the whitelisted host builtins, and the runtime
// adaptor's tree-walking evaluator. It is a closed set of concrete Go
// types rather than an open interface, matching the data model's
// description of the language itself as closed and dynamically
// typed: int64, float64, bool, nil, Atom, string, Tuple, List,
// *ConsCell, *Map, *Closure.
type Value = any

// Atom is a bare Elixir-style atom literal, e.g. :ok, :error.
type Atom string

// Tuple is a fixed-size, ordered, heterogeneous collection.
type Tuple []Value

// List is this sandbox's representation of a (possibly improper) cons
// list. Proper lists are plain slices; [h | t] with a non-list tail is
// represented by ConsCell so Enum/* host functions can distinguish.
type List []Value

// ConsCell represents an improper list `[h | t]` whose tail is not
// itself a list.
type ConsCell struct {
	Head Value
	Tail Value
}

// Map is this sandbox's dynamic map value. It preserves insertion
// order (Elixir's own map does not guarantee order, but deterministic
// iteration makes evaluation reproducible for identical input).
type Map struct {
	keys []Value
	vals []Value
}

func NewMap() *Map { return &Map{} }

func (m *Map) Get(key Value) (Value, bool) {
	k := canonicalKey(key)
	for i, existing := range m.keys {
		if canonicalKey(existing) == k {
			return m.vals[i], true
		}
	}
	return nil, false
}

func (m *Map) Put(key, val Value) *Map {
	k := canonicalKey(key)
	out := &Map{keys: append([]Value{}, m.keys...), vals: append([]Value{}, m.vals...)}
	for i, existing := range out.keys {
		if canonicalKey(existing) == k {
			out.vals[i] = val
			return out
		}
	}
	out.keys = append(out.keys, key)
	out.vals = append(out.vals, val)
	return out
}

func (m *Map) Delete(key Value) *Map {
	k := canonicalKey(key)
	out := &Map{}
	for i, existing := range m.keys {
		if canonicalKey(existing) == k {
			continue
		}
		out.keys = append(out.keys, existing)
		out.vals = append(out.vals, m.vals[i])
	}
	return out
}

func (m *Map) Keys() []Value   { return append([]Value{}, m.keys...) }
func (m *Map) Values() []Value { return append([]Value{}, m.vals...) }
func (m *Map) Size() int       { return len(m.keys) }

func (m *Map) Pairs() [][2]Value {
	out := make([][2]Value, len(m.keys))
	for i := range m.keys {
		out[i] = [2]Value{m.keys[i], m.vals[i]}
	}
	return out
}

// canonicalKey produces a comparable string key for map lookups over
// a dynamic, otherwise Go-uncomparable Value space (tuples and lists
// can be map keys in Elixir, and Go slices are not comparable).
func canonicalKey(v Value) string {
	return stringifyValue(v, true)
}

func stringifyValue(v Value, forKey bool) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case Atom:
		return ":" + string(x)
	case string:
		if forKey {
			return "s:" + x
		}
		return x
	case Tuple:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringifyValue(e, true)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case List:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringifyValue(e, true)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *ConsCell:
		return "[" + stringifyValue(x.Head, true) + "|" + stringifyValue(x.Tail, true) + "]"
	case *Map:
		pairs := x.Pairs()
		sort.Slice(pairs, func(i, j int) bool {
			return stringifyValue(pairs[i][0], true) < stringifyValue(pairs[j][0], true)
		})
		parts := make([]string, len(pairs))
		for i, p := range pairs {
			parts[i] = stringifyValue(p[0], true) + "=>" + stringifyValue(p[1], true)
		}
		return "%{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// DisplayString renders a Value the way `to_string`/string
// interpolation would, for host functions and error messages.
func DisplayString(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case Atom:
		return string(x)
	default:
		return stringifyValue(v, false)
	}
}

func isTruthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

func valuesEqual(a, b Value) bool {
	return canonicalKey(a) == canonicalKey(b)
}
