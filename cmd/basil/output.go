package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/strager/basil/diag"
	"golang.org/x/term"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// useColor decides whether diagnostics written to w get ANSI colors.
func (a *app) useColor(w io.Writer) bool {
	switch a.color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printDiagnostics writes ds to stderr. Locations without a file name
// are attributed to path.
func (a *app) printDiagnostics(path string, ds []diag.Diagnostic) {
	color := a.useColor(a.stderr)
	for _, d := range ds {
		if d.Loc.File == "" {
			d.Loc.File = path
		}
		line := d.String()
		if color {
			line = colorize(d.Severity) + line + ansiReset
		}
		fmt.Fprintln(a.stderr, line)
	}
}

func colorize(sev diag.Severity) string {
	switch sev {
	case diag.Error:
		return ansiRed
	case diag.Warning:
		return ansiYellow
	}
	return ansiCyan
}

// traceSelector hands a debug-level logger to the selected trace keys and a
// no-op tracer to everything else.
type traceSelector struct {
	keys  map[string]bool
	trace tracing.Trace
}

func (s traceSelector) Select(key string) tracing.Trace {
	if s.keys["all"] || s.keys[key] {
		return s.trace
	}
	return tracing.NoOpTrace()
}

func configureTracing(keys []string, w io.Writer) {
	if len(keys) == 0 {
		return
	}
	t := gologadapter.New()
	t.SetOutput(w)
	t.SetTraceLevel(tracing.LevelDebug)
	sel := traceSelector{keys: map[string]bool{}, trace: t}
	for _, k := range keys {
		sel.keys[strings.TrimSpace(k)] = true
	}
	tracing.SetTraceSelector(sel)
}
