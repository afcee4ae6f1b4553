package params

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// numericPattern matches the decimal forms Coerce turns into numbers.
// Hex, "Infinity" and "NaN" stay strings.
var numericPattern = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Coerce applies best-effort typing to a raw query value:
// "true"/"false" become Bool, numeric strings become Number,
// everything else stays a String.
func Coerce(raw string) Value {
	switch raw {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if numericPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil && !math.IsInf(f, 0) {
			return Number(f)
		}
	}
	return String(raw)
}

// ParseQuery parses "k=v&k2=v2" into a Map. Values are split as
// SplitQuery does and then coerced.
func ParseQuery(raw string) Map {
	out := Map{}
	for k, v := range SplitQuery(raw) {
		out[k] = Coerce(v)
	}
	return out
}

// SplitQuery parses "k=v&k2=v2" into untyped pairs. Keys and values are
// percent-decoded. Pairs with an empty key are skipped, a key without "="
// maps to the empty string, and the last occurrence of a repeated key
// wins.
func SplitQuery(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		out[key] = unescape(value)
	}
	return out
}

// EncodeQuery writes m as a query string with keys sorted, both keys and
// values percent-encoded. An empty map encodes to "".
func EncodeQuery(m Map) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(m[k].String()))
	}
	return b.String()
}

// unescape decodes a query component. Malformed escapes are kept verbatim
// rather than failing the whole link.
func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
