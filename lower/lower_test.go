package lower

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sexy"
)

func TestLowerMarkdownCases(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "basil.lower", "basil.scan")
	defer teardown()

	testFiles, err := filepath.Glob("testdata/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")
		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)
			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					if tc.InputType != sexy.InputTypeBasicAST {
						t.Fatalf("%s:%d: unknown input type %q", testFile, tc.Line, tc.InputType)
					}
					runCase(t, tc)
				})
			}
		})
	}
}

func lowerSource(t *testing.T, src string, opts Options) (*il.Module, *Result, *diag.Collector) {
	t.Helper()
	prog, err := ast.Decode(src)
	be.Err(t, err, nil)
	var sink diag.Collector
	m, res := Lower(prog, opts, &sink)
	return m, res, &sink
}

func runCase(t *testing.T, tc sexy.TestCase) {
	m, res, sink := lowerSource(t, tc.Input, Options{})
	if res.Failed() {
		be.True(t, m == nil)
	} else {
		be.True(t, m != nil)
		be.Err(t, il.Verify(m), nil)

		// Lowering is deterministic.
		again, _, _ := lowerSource(t, tc.Input, Options{})
		be.Equal(t, again.String(), m.String())

		for _, f := range res.Predicted.Features() {
			if !res.Features.Has(f) {
				t.Errorf("predicted helper %s was never called", f)
			}
		}
	}

	text := ""
	if m != nil {
		text = m.String()
	}
	for _, a := range tc.Assertions {
		switch a.Type {
		case sexy.AssertionTypeIL:
			be.True(t, m != nil)
			be.Equal(t, strings.TrimRight(text, "\n"), a.Content)
		case sexy.AssertionTypeILContains:
			be.True(t, m != nil)
			assertContainsInOrder(t, text, a)
		case sexy.AssertionTypeILAbsent:
			be.True(t, m != nil)
			for _, line := range assertionLines(a.Content) {
				if strings.Contains(text, line) {
					t.Errorf("line %d: IL unexpectedly contains %q\n%s", a.Line, line, text)
				}
			}
		case sexy.AssertionTypeDiagnostics:
			var got []string
			for _, d := range sink.Sorted() {
				got = append(got, formatDiagnostic(d))
			}
			be.Equal(t, got, assertionLines(a.Content))
		case sexy.AssertionTypeFeatures:
			want := assertionLines(a.Content)
			sort.Strings(want)
			var got []string
			if res.Features.Len() > 0 {
				got = res.Features.Names()
				sort.Strings(got)
			}
			be.Equal(t, got, want)
		default:
			t.Fatalf("line %d: unknown assertion %q", a.Line, a.Type)
		}
	}
}

// assertionLines returns the trimmed non-empty lines of content, or nil.
func assertionLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func assertContainsInOrder(t *testing.T, text string, a sexy.Assertion) {
	t.Helper()
	rest := text
	for _, line := range assertionLines(a.Content) {
		i := strings.Index(rest, line)
		if i < 0 {
			t.Fatalf("line %d: %q not found after the previous match\n%s", a.Line, line, text)
		}
		rest = rest[i+len(line):]
	}
}

func formatDiagnostic(d diag.Diagnostic) string {
	return fmt.Sprintf("%s %s %d:%d", d.Code, d.Severity, d.Loc.Line, d.Loc.Column)
}

func TestBoundsChecks(t *testing.T) {
	src := `(program (main
  (dim A (extents (int 3)))
  (let (index A (int 1)) (int 2))))`

	off, _, _ := lowerSource(t, src, Options{})
	be.True(t, !strings.Contains(off.String(), "rt_array_oob_panic"))

	m, res, _ := lowerSource(t, src, Options{BoundsChecks: true})
	be.Err(t, il.Verify(m), nil)
	text := m.String()
	be.True(t, strings.Contains(text, "bounds_oob_"))
	be.True(t, strings.Contains(text, "call @rt_array_oob_panic("))
	be.True(t, strings.Contains(text, "store i64 %t1, 4"))
	be.True(t, !strings.Contains(text, "rt_array_i32_len"))
	be.True(t, res.Features.Has(rt.ArrayOobPanic))
}

func TestGosubStackDepthOption(t *testing.T) {
	src := `(program (main
  (gosub ^{line: 10} 100)
  (end ^{line: 20})
  (gosub-return ^{line: 100})))`

	m, _, _ := lowerSource(t, src, Options{GosubStackDepth: 4})
	text := m.String()
	be.True(t, strings.Contains(text, "alloca 16"))
	be.True(t, strings.Contains(text, "scmp_ge i64 %t2, 4"))
}

type prefixNamer struct {
	*BlockNamer
}

func (n prefixNamer) Generic(hint string) string {
	return "x_" + n.BlockNamer.Generic(hint)
}

func TestCustomNamer(t *testing.T) {
	src := `(program (main (while (bool true) (print (int 1)))))`
	opts := Options{Namer: func(proc string) Namer {
		return prefixNamer{NewBlockNamer(proc)}
	}}
	m, _, _ := lowerSource(t, src, opts)
	be.Err(t, il.Verify(m), nil)
	text := m.String()
	be.True(t, strings.Contains(text, "x_while_head_0:"))
	be.True(t, strings.Contains(text, "entry_main:"))
}

func TestFailedScanProducesNoModule(t *testing.T) {
	m, res, sink := lowerSource(t, `(program (main (goto ^{line: 10} 99)))`, Options{})
	be.True(t, m == nil)
	be.True(t, res.Failed())
	be.Equal(t, res.Errors, 1)
	be.Equal(t, sink.ErrorCount(), 1)
	be.Equal(t, res.Features.Len(), 0)
}

func TestWarningsDoNotFail(t *testing.T) {
	m, res, _ := lowerSource(t, `(program (main (let ^{line: 10} (var A) (mod (int 1) (int 0)))))`, Options{})
	be.True(t, m != nil)
	be.True(t, !res.Failed())
	be.Equal(t, res.Warnings, 1)
}

func TestBlockNamer(t *testing.T) {
	n := NewBlockNamer("main")
	be.Equal(t, n.Entry(), "entry_main")
	be.Equal(t, n.Line(10), "L10_main")
	be.Equal(t, n.Exit(), "ret_main")
	be.Equal(t, n.Generic("if_then"), "if_then_0")
	be.Equal(t, n.Generic("if_then"), "if_then_1")
	be.Equal(t, n.Generic("for_head"), "for_head_2")
}

func TestInternalErrorMessage(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(InternalError)
		be.True(t, ok)
		be.Equal(t, err.Error(), "internal compiler error: line 7 has no block")
	}()
	internalf("line %d has no block", 7)
}
