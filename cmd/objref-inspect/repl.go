package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/feather-lang/objref"
)

type command struct {
	name  string
	usage string
	help  string
}

var commands = []command{
	{"get", "get PATH", "print repr of the value at PATH"},
	{"set", "set PATH YAML", "store a YAML value at PATH"},
	{"del", "del PATH", "delete the item at PATH"},
	{"len", "len PATH", "print the length of the value at PATH"},
	{"type", "type PATH", "print the type of the value at PATH"},
	{"dump", "dump", "write the document as YAML"},
	{"help", "help", "list commands"},
	{"quit", "quit", "leave the inspector"},
}

// Exec runs one interactive command line and reports whether the session
// should end.
func (s *Session) Exec(line string) (bool, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "":
		return false, nil
	case "get":
		return false, s.Get(rest)
	case "set":
		path, value, ok := strings.Cut(rest, " ")
		if !ok {
			return false, errors.New("usage: set PATH YAML")
		}
		return false, s.Set(path, value)
	case "del":
		return false, s.Del(rest)
	case "len":
		return false, s.Len(rest)
	case "type":
		return false, s.Type(rest)
	case "dump":
		return false, s.Dump(s.out)
	case "help":
		for _, c := range commands {
			fmt.Fprintf(s.out, "  %-16s %s\n", c.usage, c.help)
		}
		return false, nil
	case "quit", "exit":
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q (try help)", name)
}

// Complete offers command names for the first word and document paths
// after it.
func (s *Session) Complete(line string) []Candidate {
	name, rest, found := strings.Cut(line, " ")
	if !found {
		var out []Candidate
		for _, c := range commands {
			if strings.HasPrefix(c.name, name) {
				out = append(out, Candidate{Text: c.name, Type: "command", Help: c.help})
			}
		}
		return out
	}
	// set takes a value after the path.
	if name == "set" && strings.Contains(strings.TrimLeft(rest, " "), " ") {
		return nil
	}
	return s.completePath(strings.TrimLeft(rest, " "))
}

func (s *Session) completePath(token string) []Candidate {
	base := ""
	if i := strings.LastIndexAny(token, ".["); i >= 0 {
		base = token[:i]
	}
	keys, err := parsePath(base)
	if err != nil {
		return nil
	}
	var out []Candidate
	for _, k := range s.childKeys(keys) {
		path := formatPath(append(keys[:len(keys):len(keys)], k))
		if !strings.HasPrefix(path, token) {
			continue
		}
		typ := "key"
		if _, ok := k.(int); ok {
			typ = "index"
		}
		out = append(out, Candidate{Text: path, Type: typ})
	}
	return out
}

// lineReader is the part of LineEditor the loop needs.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// runInteractive reads commands until quit or end of input. Errors are
// reported and the loop continues.
func runInteractive(s *Session, in lineReader, errOut io.Writer) error {
	fmt.Fprintln(s.out, "objref-inspect - Tab completes commands and paths, Ctrl-D exits")
	for {
		line, err := in.ReadLine("objref> ")
		if err != nil {
			if errors.Is(err, errInterrupted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		quit, err := s.Exec(line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			objref.ReleaseError(err)
		}
		if quit {
			return nil
		}
	}
}
