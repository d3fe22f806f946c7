package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePath splits a document path such as `users[0].name` or
// `config["key with spaces"]` into item keys. Bracketed integers become int
// keys; names and quoted strings become string keys. The empty path and "."
// name the document root.
func parsePath(s string) ([]any, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return nil, nil
	}
	var keys []any
	i := 0
	expectName := true
	for i < len(s) {
		switch c := s[i]; {
		case c == '.':
			if expectName {
				return nil, fmt.Errorf("path %q: empty name at offset %d", s, i)
			}
			expectName = true
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated [", s)
			}
			inner := strings.TrimSpace(s[i+1 : i+end])
			key, err := bracketKey(inner)
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", s, err)
			}
			keys = append(keys, key)
			expectName = false
			i += end + 1
		default:
			if !expectName {
				return nil, fmt.Errorf("path %q: expected . or [ at offset %d", s, i)
			}
			end := i
			for end < len(s) && s[end] != '.' && s[end] != '[' {
				end++
			}
			keys = append(keys, s[i:end])
			expectName = false
			i = end
		}
	}
	if expectName {
		return nil, fmt.Errorf("path %q: trailing .", s)
	}
	return keys, nil
}

func bracketKey(inner string) (any, error) {
	if inner == "" {
		return nil, fmt.Errorf("empty []")
	}
	if inner[0] == '"' || inner[0] == '\'' {
		if inner[0] == '\'' {
			if len(inner) < 2 || inner[len(inner)-1] != '\'' {
				return nil, fmt.Errorf("bad quoted key %s", inner)
			}
			return inner[1 : len(inner)-1], nil
		}
		k, err := strconv.Unquote(inner)
		if err != nil {
			return nil, fmt.Errorf("bad quoted key %s", inner)
		}
		return k, nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return nil, fmt.Errorf("index %s is not an integer", inner)
	}
	return n, nil
}

// formatPath is the inverse of parsePath.
func formatPath(keys []any) string {
	if len(keys) == 0 {
		return "."
	}
	var b strings.Builder
	for i, k := range keys {
		switch k := k.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", k)
		case string:
			if isName(k) {
				if i > 0 {
					b.WriteByte('.')
				}
				b.WriteString(k)
			} else {
				fmt.Fprintf(&b, "[%s]", strconv.Quote(k))
			}
		}
	}
	return b.String()
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, ".[]\"' \t")
}
