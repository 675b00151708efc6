// Command basil lowers BASIC programs, written in the S-expression AST
// notation, to IL text.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goforj/godump"
	"github.com/spf13/cobra"
	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
	"github.com/strager/basil/il"
	"github.com/strager/basil/lower"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitInternal = 3
)

// errDiagnostics is returned after error diagnostics were printed.
var errDiagnostics = errors.New("program has errors")

// inputError is a program that could not be read or decoded.
type inputError struct {
	err error
}

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

type app struct {
	stdout, stderr io.Writer

	traces   []string
	dumpAST  bool
	color    string
	output   string
	scanOnly bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "basil",
		Short: "basil lowers BASIC programs to IL",
		Long: `basil reads a BASIC program in S-expression AST notation and lowers it
to IL text.

Commands:
  lower     Lower a program and print its IL
  check     Report diagnostics without printing IL
  features  List the runtime helpers a program needs
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureTracing(a.traces, a.stderr)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.Bool(flagBoundsChecks, false, "check array indexes against the array length")
	pf.Int(flagGosubDepth, lower.DefaultGosubStackDepth, "GOSUB return stack depth per procedure")
	pf.StringSliceVar(&a.traces, "trace", nil, "enable debug tracing for selectors (basil.lower, basil.scan, all)")
	pf.BoolVar(&a.dumpAST, "dump-ast", false, "dump the decoded AST to stdout")
	pf.StringVar(&a.color, "color", "auto", "color diagnostics: auto, always or never")

	lowerCmd := &cobra.Command{
		Use:   "lower FILE",
		Short: "Lower a program and print its IL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.lower(cmd, args[0])
			if err != nil {
				return err
			}
			return a.writeIL(m)
		},
	}
	lowerCmd.Flags().StringVarP(&a.output, "output", "o", "", "write IL to this file instead of stdout")

	checkCmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report diagnostics without printing IL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := a.lower(cmd, args[0])
			return err
		},
	}

	featuresCmd := &cobra.Command{
		Use:   "features FILE",
		Short: "List the runtime helpers a program needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.features(cmd, args[0])
		},
	}
	featuresCmd.Flags().BoolVar(&a.scanOnly, "scan", false, "list only the helpers predicted before emission")

	root.AddCommand(lowerCmd, checkCmd, featuresCmd)
	return root
}

func (a *app) readProgram(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, inputError{err}
	}
	prog, err := ast.Decode(string(src))
	if err != nil {
		return nil, inputError{fmt.Errorf("%s: %w", path, err)}
	}
	if a.dumpAST {
		godump.Dump(prog)
	}
	return prog, nil
}

func (a *app) options(cmd *cobra.Command) (lower.Options, error) {
	return lower.OptionsFromConfig(newFlagConfig(cmd.Flags()))
}

// lower decodes and lowers path, printing any diagnostics.
func (a *app) lower(cmd *cobra.Command, path string) (*il.Module, *lower.Result, error) {
	prog, err := a.readProgram(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.options(cmd)
	if err != nil {
		return nil, nil, err
	}
	var sink diag.Collector
	m, res := lower.Lower(prog, opts, &sink)
	a.printDiagnostics(path, sink.Sorted())
	if res.Failed() {
		return nil, res, errDiagnostics
	}
	return m, res, nil
}

func (a *app) writeIL(m *il.Module) error {
	if a.output == "" {
		_, err := io.WriteString(a.stdout, m.String())
		return err
	}
	return os.WriteFile(a.output, []byte(m.String()), 0644)
}

func (a *app) features(cmd *cobra.Command, path string) error {
	if !a.scanOnly {
		_, res, err := a.lower(cmd, path)
		if err != nil {
			return err
		}
		for _, name := range res.Features.Names() {
			fmt.Fprintln(a.stdout, name)
		}
		return nil
	}

	prog, err := a.readProgram(path)
	if err != nil {
		return err
	}
	var sink diag.Collector
	scan := lower.Scan(prog, &sink)
	a.printDiagnostics(path, sink.Sorted())
	if sink.ErrorCount() > 0 {
		return errDiagnostics
	}
	for _, name := range scan.Predicted.Names() {
		fmt.Fprintln(a.stdout, name)
	}
	return nil
}

// run executes the command line and returns the process exit code. A
// broken lowering invariant is reported instead of crashing.
func run(args []string, stdout, stderr io.Writer) (code int) {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ie, ok := r.(lower.InternalError)
		if !ok {
			panic(r)
		}
		fmt.Fprintln(stderr, ie.Error())
		code = exitInternal
	}()

	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errDiagnostics):
		return exitFailed
	}
	fmt.Fprintf(stderr, "basil: %v\n", err)
	var in inputError
	if errors.As(err, &in) {
		return exitFailed
	}
	return exitUsage
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
