package main

import (
	"reflect"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want []any
	}{
		{"", nil},
		{".", nil},
		{"a", []any{"a"}},
		{"a.b", []any{"a", "b"}},
		{"a[0]", []any{"a", 0}},
		{"[1][-1]", []any{1, -1}},
		{`a["x.y"].z`, []any{"a", "x.y", "z"}},
		{"a['k'][2].b", []any{"a", "k", 2, "b"}},
	}
	for _, tt := range tests {
		got, err := parsePath(tt.in)
		if err != nil {
			t.Errorf("parsePath(%q) failed: %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parsePath(%q): expected %#v, got %#v", tt.in, tt.want, got)
		}
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, in := range []string{"a.", ".a", "a..b", "a[", "a[]", "a[x]", `a["x]`, "a[0]b"} {
		if _, err := parsePath(in); err == nil {
			t.Errorf("parsePath(%q): expected error", in)
		}
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		keys []any
		want string
	}{
		{nil, "."},
		{[]any{"a", 0, "b"}, "a[0].b"},
		{[]any{0}, "[0]"},
		{[]any{"a b"}, `["a b"]`},
	}
	for _, tt := range tests {
		got := formatPath(tt.keys)
		if got != tt.want {
			t.Errorf("formatPath(%#v): expected %q, got %q", tt.keys, tt.want, got)
		}
		back, err := parsePath(got)
		if err != nil || (len(tt.keys) > 0 && !reflect.DeepEqual(back, tt.keys)) {
			t.Errorf("parsePath(%q) = %#v, %v; want %#v", got, back, err, tt.keys)
		}
	}
}
