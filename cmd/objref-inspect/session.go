package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/feather-lang/objref"
	"github.com/feather-lang/objref/dyn"
	"gopkg.in/yaml.v3"
)

var errNotFound = errors.New("no such key")

// Session holds one document converted into runtime objects.
type Session struct {
	rt        *dyn.Runtime
	doc       *objref.Handle
	out       io.Writer
	refCounts bool
}

// NewSession decodes a YAML document into rt.
func NewSession(rt *dyn.Runtime, src []byte, out io.Writer) (*Session, error) {
	var v any
	if err := yaml.Unmarshal(src, &v); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	doc, err := objref.From(rt, normalize(v))
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return &Session{rt: rt, doc: doc, out: out}, nil
}

// Close releases the document.
func (s *Session) Close() {
	s.doc.Release()
}

// normalize rewrites the map[any]any values yaml produces for mappings
// with non-string keys, which objref.From does not accept.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, it := range v {
			v[k] = normalize(it)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, it := range v {
			m[fmt.Sprint(k)] = normalize(it)
		}
		return m
	case []any:
		for i, it := range v {
			v[i] = normalize(it)
		}
		return v
	}
	return v
}

// walk follows keys from the document root and returns an owning handle to
// the value reached.
func (s *Session) walk(keys []any) (*objref.Handle, error) {
	cur := s.doc.Copy()
	for i, k := range keys {
		ref, err := cur.Item(k)
		cur.Release()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", formatPath(keys[:i+1]), err)
		}
		if !ref.Found() {
			ref.Release()
			return nil, fmt.Errorf("%s: %w", formatPath(keys[:i+1]), errNotFound)
		}
		cur = ref.Value()
		ref.Release()
	}
	return cur, nil
}

// proxy returns a KeyedRef for the last key of a non-empty path. Dict
// parents go through the dict wrapper so that writes use the dict store.
func (s *Session) proxy(keys []any) (*objref.KeyedRef, *objref.Handle, error) {
	parent, err := s.walk(keys[:len(keys)-1])
	if err != nil {
		return nil, nil, err
	}
	last := keys[len(keys)-1]
	var ref *objref.KeyedRef
	if d, ok := objref.AsDict(parent); ok {
		ref, err = d.Item(last)
	} else {
		ref, err = parent.Item(last)
	}
	if err != nil {
		parent.Release()
		return nil, nil, fmt.Errorf("%s: %w", formatPath(keys), err)
	}
	return ref, parent, nil
}

// Get prints repr of the value at path.
func (s *Session) Get(path string) error {
	keys, err := parsePath(path)
	if err != nil {
		return err
	}
	h, err := s.walk(keys)
	if err != nil {
		return err
	}
	defer h.Release()
	repr, err := h.Repr()
	if err != nil {
		return err
	}
	if s.refCounts {
		// Discount the handle held here.
		fmt.Fprintf(s.out, "%s\trefs=%d\n", repr, h.RefCount()-1)
		return nil
	}
	fmt.Fprintln(s.out, repr)
	return nil
}

// Set stores the YAML value text at path. Missing mapping keys are
// created; out-of-range sequence indexes are errors.
func (s *Session) Set(path, text string) error {
	keys, err := parsePath(path)
	if err != nil {
		return err
	}
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return fmt.Errorf("parsing value: %w", err)
	}
	val, err := objref.From(s.rt, normalize(v))
	if err != nil {
		return err
	}
	defer val.Release()

	if len(keys) == 0 {
		s.doc.Assign(val)
		return nil
	}
	ref, parent, err := s.proxy(keys)
	if err != nil {
		return err
	}
	defer parent.Release()
	defer ref.Release()
	if err := ref.Set(val); err != nil {
		return fmt.Errorf("%s: %w", formatPath(keys), err)
	}
	return nil
}

// SetAssignment parses PATH=YAML.
func (s *Session) SetAssignment(arg string) error {
	path, text, ok := strings.Cut(arg, "=")
	if !ok {
		return fmt.Errorf("%q: expected PATH=VALUE", arg)
	}
	return s.Set(path, text)
}

// Del removes the item at path.
func (s *Session) Del(path string) error {
	keys, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return errors.New("cannot delete the document root")
	}
	parent, err := s.walk(keys[:len(keys)-1])
	if err != nil {
		return err
	}
	defer parent.Release()
	if err := parent.DelItem(keys[len(keys)-1]); err != nil {
		return fmt.Errorf("%s: %w", formatPath(keys), err)
	}
	return nil
}

// Len prints the length of the value at path.
func (s *Session) Len(path string) error {
	return s.describe(path, func(h *objref.Handle) (string, error) {
		n, err := h.Len()
		return strconv.Itoa(n), err
	})
}

// Type prints the type name of the value at path.
func (s *Session) Type(path string) error {
	return s.describe(path, func(h *objref.Handle) (string, error) {
		return h.TypeName(), nil
	})
}

func (s *Session) describe(path string, f func(*objref.Handle) (string, error)) error {
	keys, err := parsePath(path)
	if err != nil {
		return err
	}
	h, err := s.walk(keys)
	if err != nil {
		return err
	}
	defer h.Release()
	text, err := f(h)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, text)
	return nil
}

// Dump writes the document as YAML, keeping mapping order.
func (s *Session) Dump(w io.Writer) error {
	node, err := toNode(s.doc)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

// toNode builds a yaml node from a runtime value. Mapping keys keep their
// insertion order.
func toNode(h *objref.Handle) (*yaml.Node, error) {
	switch {
	case h.IsNone():
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case h.Runtime().Check(h.Ref(), objref.TagBool):
		t, err := h.IsTrue()
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	case h.IsInt():
		s, err := h.Str()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: s}, err
	case h.IsFloat():
		f, err := h.Double()
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(f)}, nil
	case h.IsString():
		s, err := h.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, err
	case h.IsList(), h.IsTuple():
		return seqNode(h)
	case h.IsDict():
		return mapNode(objref.Dict{Handle: h})
	}
	// Anything else is written as its repr.
	s, err := h.Repr()
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, err
}

func yamlFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	switch s {
	case "+Inf":
		return ".inf"
	case "-Inf":
		return "-.inf"
	case "NaN":
		return ".nan"
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func seqNode(h *objref.Handle) (*yaml.Node, error) {
	n, err := h.Len()
	if err != nil {
		return nil, err
	}
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i := 0; i < n; i++ {
		ref, err := h.Item(i)
		if err != nil {
			return nil, err
		}
		child, err := toNode(&ref.Handle)
		ref.Release()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

func mapNode(d objref.Dict) (*yaml.Node, error) {
	keys, err := d.Keys()
	if err != nil {
		return nil, err
	}
	defer keys.Release()
	n, err := keys.Len()
	if err != nil {
		return nil, err
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i < n; i++ {
		k, err := keys.Item(i)
		if err != nil {
			return nil, err
		}
		name, err := k.Str()
		if err != nil {
			k.Release()
			return nil, err
		}
		v, err := d.Item(&k.Handle)
		k.Release()
		if err != nil {
			return nil, err
		}
		child, err := toNode(&v.Handle)
		v.Release()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, child)
	}
	return node, nil
}

// childKeys lists the keys of the value at keys, for completion. Dict keys
// are sorted; sequence indexes are returned in order. Lookup failures give
// no keys.
func (s *Session) childKeys(keys []any) []any {
	h, err := s.walk(keys)
	if err != nil {
		objref.ReleaseError(err)
		return nil
	}
	defer h.Release()
	switch {
	case h.IsDict():
		names, err := h.MethodCall("keys")
		if err != nil {
			objref.ReleaseError(err)
			return nil
		}
		defer names.Release()
		v, err := names.Go()
		if err != nil {
			objref.ReleaseError(err)
			return nil
		}
		var out []string
		for _, k := range v.([]any) {
			if s, ok := k.(string); ok {
				out = append(out, s)
			}
		}
		sort.Strings(out)
		res := make([]any, len(out))
		for i, k := range out {
			res[i] = k
		}
		return res
	case h.IsList(), h.IsTuple():
		n, err := h.Len()
		if err != nil {
			objref.ReleaseError(err)
			return nil
		}
		res := make([]any, n)
		for i := range res {
			res[i] = i
		}
		return res
	}
	return nil
}
