package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

func TestSanitize_RemovesScriptAndPollution(t *testing.T) {
	input := params.Map{
		"name":        params.String("<script>alert(1)</script>John"),
		"__proto__":   params.String("x"),
		"constructor": params.String("y"),
		"count":       params.Number(3),
	}

	r := Sanitize().Validate(input)
	require.True(t, r.Valid)

	out := r.Apply(input)
	assert.NotContains(t, string(out["name"].(params.String)), "<script>")
	assert.Equal(t, params.String("John"), out["name"])
	assert.NotContains(t, out, "__proto__")
	assert.NotContains(t, out, "constructor")
	assert.Equal(t, params.Number(3), out["count"], "non-string values pass through")
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("a", 2000)
	r := Sanitize().Validate(params.Map{"bio": params.String(long)})

	got := string(r.Sanitized["bio"].(params.String))
	assert.LessOrEqual(t, len(got), MaxStringLength)
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Vitamin D3", "Vitamin D3"},
		{"ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"less than", "dose < 5mg", "dose < 5mg"},
		{"javascript uri", "javascript:alert(1)", "alert(1)"},
		{"spaced javascript uri", "JavaScript :alert(1)", "alert(1)"},
		{"event handler text", "x onclick=steal()", "x steal()"},
		{"event handler tag", `<img src=x onerror="alert(1)">ok`, "ok"},
		{"bold markup", "<b>Magnesium</b>", "Magnesium"},
		{"encoded ampersand", "Tom &amp; Jerry", "Tom & Jerry"},
		{"encoded markup inside tag", "<b>&lt;iframe src=//evil.example&gt;&lt;/iframe&gt;</b>", ""},
		{"encoded markup alone", "&lt;img src=x&gt;Zinc", "Zinc"},
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;ok", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.in))
		})
	}
}

func TestSanitizeString_NestedEncodingStaysInert(t *testing.T) {
	in := "<b>&amp;amp;amp;amp;lt;iframe&amp;amp;amp;amp;gt;</b>"
	out := SanitizeString(in)
	assert.NotContains(t, out, "<iframe")
}

func TestSanitizeString_MultibyteTruncation(t *testing.T) {
	in := strings.Repeat("é", 1500)
	out := SanitizeString(in)
	assert.Equal(t, MaxStringLength, len([]rune(out)))
}
