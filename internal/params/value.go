package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Kind names the runtime type of a Value.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "boolean"
)

// ParseKind converts a declared type name into a Kind.
// "bool" is accepted as an alias of "boolean".
func ParseKind(name string) (Kind, error) {
	switch name {
	case "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "boolean", "bool":
		return KindBool, nil
	default:
		return "", fmt.Errorf("unknown parameter type %q", name)
	}
}

// Value is a sealed interface for parameter values.
// Only String, Number and Bool implement it.
type Value interface {
	Kind() Kind
	// String returns the textual form used when the value is written
	// into a URL.
	String() string
	paramValue()
}

// String is a textual parameter.
type String string

func (String) paramValue()      {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Number is a numeric parameter.
type Number float64

func (Number) paramValue() {}
func (Number) Kind() Kind  { return KindNumber }

// String formats the number without exponent and without trailing zeros,
// so that Coerce(n.String()) == n.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// Bool is a boolean parameter.
type Bool bool

func (Bool) paramValue()      {}
func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Map holds the parameters of one link. Keys are unique.
type Map map[string]Value

// Clone returns a shallow copy of m. Values are immutable, so a shallow
// copy is a full copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding m with every key of over written on top.
func (m Map) Merge(over Map) Map {
	out := m.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Without returns a copy of m with the given keys removed.
func (m Map) Without(keys ...string) Map {
	out := m.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Equal reports whether both maps hold the same keys with equal values
// of the same kind.
func Equal(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av.Kind() != bv.Kind() || av.String() != bv.String() {
			return false
		}
	}
	return true
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders differently for
// characters outside the BMP.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// FromAny converts a decoded Go value (from JSON, YAML or CUE) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return checkFinite(float64(val))
	case float64:
		return checkFinite(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return checkFinite(f)
	case nil:
		return nil, fmt.Errorf("null is not a parameter value")
	default:
		return nil, fmt.Errorf("unsupported parameter type: %T", v)
	}
}

// MapFromAny converts a decoded object into a Map.
func MapFromAny(m map[string]any) (Map, error) {
	out := make(Map, len(m))
	for k, v := range m {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// ToAny converts a Value back into a plain Go value.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

func checkFinite(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	return Number(f), nil
}

// MarshalJSON writes the map with keys in canonical order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return json.Marshal(string(val))
	case Number:
		return []byte(val.String()), nil
	case Bool:
		return json.Marshal(bool(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// UnmarshalJSON decodes a flat JSON object of strings, numbers and booleans.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = make(Map, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", k, err)
		}
		(*m)[k] = val
	}
	return nil
}

func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n', '[', '{':
		return nil, fmt.Errorf("only string, number and boolean values are allowed")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return FromAny(n)
	}
}
