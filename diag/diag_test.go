package diag

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/basil/ast"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: Error, Code: UnknownLabel, Loc: ast.Loc{File: "demo.bas", Line: 10}, Message: "GOTO target line 99 does not exist"}
	be.Equal(t, d.String(), "demo.bas:10:0: error[B0007]: GOTO target line 99 does not exist")

	d.Loc.File = ""
	d.Severity = Warning
	be.Equal(t, d.String(), "10:0: warning[B0007]: GOTO target line 99 does not exist")
}

func TestCollectorSortsByPosition(t *testing.T) {
	var c Collector
	c.Report(Error, TypeMismatch, ast.Loc{Line: 20}, "second")
	c.Report(Warning, DivisionByZero, ast.Loc{Line: 10, Column: 4}, "first b")
	c.Report(Error, UndeclaredName, ast.Loc{Line: 10, Column: 4}, "first c")
	c.Report(Note, UndeclaredName, ast.Loc{Line: 10}, "first a")

	var got []string
	for _, d := range c.Sorted() {
		got = append(got, d.Message)
	}
	be.Equal(t, got, []string{"first a", "first b", "first c", "second"})
	be.Equal(t, c.ErrorCount(), 2)
	// Sorting leaves the report order alone.
	be.Equal(t, c.Diagnostics[0].Message, "second")
}

func TestDedup(t *testing.T) {
	var c Collector
	d := &Dedup{Next: &c}
	loc := ast.Loc{Line: 5}
	d.Report(Error, UndeclaredName, loc, "undeclared variable X")
	d.Report(Error, UndeclaredName, loc, "undeclared variable X")
	d.Report(Error, UndeclaredName, ast.Loc{Line: 6}, "undeclared variable X")
	be.Equal(t, len(c.Diagnostics), 2)
}

func TestSeverityString(t *testing.T) {
	be.Equal(t, Note.String(), "note")
	be.Equal(t, Warning.String(), "warning")
	be.Equal(t, Error.String(), "error")
	be.Equal(t, Severity(9).String(), "severity(9)")
}
