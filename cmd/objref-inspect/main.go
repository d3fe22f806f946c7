// objref-inspect loads a YAML document into the dyn object runtime and
// reads or edits it through objref handles.
//
//	objref-inspect config.yaml --get servers[0].host
//	objref-inspect config.yaml --set 'servers[0].port=8080' --dump
//	objref-inspect config.yaml -i
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/feather-lang/objref"
	"github.com/feather-lang/objref/dyn"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Config holds the options of one run.
type Config struct {
	Input       string // file path; "" or "-" reads stdin
	Gets        []string
	Sets        []string
	Dels        []string
	Dump        bool
	RefCounts   bool
	Interactive bool
	Verbose     bool

	Stdin     io.Reader
	Output    io.Writer
	ErrOutput io.Writer

	// newEditor builds the interactive line reader; nil uses the terminal.
	newEditor func(s *Session) (lineReader, error)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute parses args and runs the command, returning the exit code.
// Flag and argument errors exit with 1.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cfg Config
	code := 0

	cmd := &cobra.Command{
		Use:   "objref-inspect [flags] [file]",
		Short: "Inspect and edit a YAML document as runtime objects",
		Long: `objref-inspect converts a YAML document into objects of the dyn runtime
and applies item reads and writes through objref handles.

Paths name items from the document root: name.other[0]["key with spaces"].
Operations run in the order --set, --del, --get, --dump.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				cfg.Input = args[0]
			}
			cfg.Stdin = stdin
			cfg.Output = stdout
			cfg.ErrOutput = stderr
			if !cmd.Flags().Changed("interactive") {
				cfg.Interactive = cfg.Input != "" && cfg.Input != "-" &&
					len(cfg.Gets)+len(cfg.Sets)+len(cfg.Dels) == 0 && !cfg.Dump &&
					isTerminal(stdin) && isTerminal(stdout)
			}
			code = Run(cfg)
		},
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringArrayVar(&cfg.Gets, "get", nil, "print repr of the value at `PATH` (repeatable)")
	flags.StringArrayVar(&cfg.Sets, "set", nil, "store a YAML value, as `PATH=VALUE` (repeatable)")
	flags.StringArrayVar(&cfg.Dels, "del", nil, "delete the item at `PATH` (repeatable)")
	flags.BoolVar(&cfg.Dump, "dump", false, "write the resulting document as YAML")
	flags.BoolVar(&cfg.RefCounts, "refcounts", false, "show reference counts with --get")
	flags.BoolVarP(&cfg.Interactive, "interactive", "i", false, "start the interactive editor")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "trace object lifecycle to stderr")

	if err := cmd.Execute(); err != nil {
		return 1
	}
	return code
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run executes cfg and returns the process exit code.
func Run(cfg Config) int {
	if err := run(cfg); err != nil {
		fmt.Fprintf(cfg.ErrOutput, "objref-inspect: %v\n", err)
		return 1
	}
	return 0
}

func run(cfg Config) (err error) {
	src, err := readInput(cfg)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cfg.ErrOutput, &slog.HandlerOptions{Level: level}))
	rt := dyn.New(dyn.WithLogger(logger), dyn.WithStdout(cfg.Output))

	s, err := NewSession(rt, src, cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		// Error text does not need the held exception. Dropping it here
		// keeps it out of the live count below.
		objref.ReleaseError(err)
		s.Close()
		logger.Debug("session closed", "live", rt.Live())
	}()
	s.refCounts = cfg.RefCounts

	for _, arg := range cfg.Sets {
		if err := s.SetAssignment(arg); err != nil {
			return err
		}
	}
	for _, path := range cfg.Dels {
		if err := s.Del(path); err != nil {
			return err
		}
	}
	for _, path := range cfg.Gets {
		if err := s.Get(path); err != nil {
			return err
		}
	}
	if cfg.Dump {
		if err := s.Dump(cfg.Output); err != nil {
			return err
		}
	}

	if cfg.Interactive {
		newEditor := cfg.newEditor
		if newEditor == nil {
			newEditor = terminalEditor
		}
		ed, err := newEditor(s)
		if err != nil {
			return err
		}
		return runInteractive(s, ed, cfg.ErrOutput)
	}
	return nil
}

func readInput(cfg Config) ([]byte, error) {
	if cfg.Input == "" || cfg.Input == "-" {
		if cfg.Interactive {
			return nil, fmt.Errorf("interactive mode needs a file argument")
		}
		data, err := io.ReadAll(cfg.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.Input, err)
	}
	return data, nil
}

func terminalEditor(s *Session) (lineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("interactive mode needs a terminal")
	}
	return NewLineEditor(os.Stdin, os.Stdout, s.Complete), nil
}
