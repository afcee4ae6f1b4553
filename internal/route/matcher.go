package route

import (
	"net/url"
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// ParamMarker prefixes a named parameter in a path pattern ("/product/:id").
const ParamMarker = ":"

// TokenKind distinguishes literal segments from parameter segments.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenParam
)

// Token is one segment of a tokenized pattern. Value is the literal text
// or the parameter name.
type Token struct {
	Kind  TokenKind
	Value string
}

// Tokenize splits a pattern into tokens. Empty segments are dropped, so
// "/a//b/" and "a/b" tokenize identically.
func Tokenize(pattern string) []Token {
	segments := Segments(pattern)
	tokens := make([]Token, 0, len(segments))
	for _, seg := range segments {
		if name, ok := strings.CutPrefix(seg, ParamMarker); ok {
			tokens = append(tokens, Token{Kind: TokenParam, Value: name})
			continue
		}
		tokens = append(tokens, Token{Kind: TokenLiteral, Value: seg})
	}
	return tokens
}

// Segments splits a path on "/" and drops empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match checks path segments against tokens.
//
// A match requires equal segment count and, position by position, either
// a parameter token (binds the percent-decoded segment) or a literal equal
// to the raw segment (case-sensitive). Bound values are always strings.
func Match(tokens []Token, segments []string) (params.Map, bool) {
	if len(tokens) != len(segments) {
		return nil, false
	}

	bound := params.Map{}
	for i, tok := range tokens {
		seg := segments[i]
		switch tok.Kind {
		case TokenParam:
			bound[tok.Value] = params.String(decodeSegment(seg))
		default:
			if tok.Value != seg {
				return nil, false
			}
		}
	}
	return bound, true
}

func decodeSegment(seg string) string {
	decoded, err := url.PathUnescape(seg)
	if err != nil {
		return seg
	}
	return decoded
}
