// Package diag carries user-facing diagnostics from the BASIC front end.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/strager/basil/ast"
)

type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Code is a stable diagnostic identifier such as B0001.
type Code string

const (
	TypeMismatch       Code = "B0001"
	UndeclaredName     Code = "B0002"
	ArgumentCount      Code = "B0003"
	MissingReturn      Code = "B0004"
	LoopVariableAssign Code = "B0005"
	DuplicateLabel     Code = "B0006"
	UnknownLabel       Code = "B0007"
	CtorDtorMisuse     Code = "B0008"
	MemberNotFound     Code = "B0009"
	UnknownProcedure   Code = "B0010"
	UnknownClass       Code = "B0011"
	DivisionByZero     Code = "B0012"
	NextMismatch       Code = "B0013"
	ExitOutsideBlock   Code = "B0014"
	ArrayMisuse        Code = "B0015"
)

// Sink receives diagnostics. Lowering only depends on this interface.
type Sink interface {
	Report(sev Severity, code Code, loc ast.Loc, msg string)
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Loc      ast.Loc
	Message  string
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Loc.File != "" {
		sb.WriteString(d.Loc.File)
		sb.WriteString(":")
	}
	fmt.Fprintf(&sb, "%d:%d: %s[%s]: %s", d.Loc.Line, d.Loc.Column, d.Severity, d.Code, d.Message)
	return sb.String()
}

// Collector is a Sink that keeps every diagnostic in report order.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(sev Severity, code Code, loc ast.Loc, msg string) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Severity: sev, Code: code, Loc: loc, Message: msg})
}

// ErrorCount returns the number of Error diagnostics.
func (c *Collector) ErrorCount() int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Sorted returns the diagnostics ordered by position. Reports at the same
// position keep their report order.
func (c *Collector) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), c.Diagnostics...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Loc, out[j].Loc
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

// Dedup wraps a sink so that identical diagnostics are forwarded once.
type Dedup struct {
	Next Sink
	seen map[Diagnostic]bool
}

func (d *Dedup) Report(sev Severity, code Code, loc ast.Loc, msg string) {
	key := Diagnostic{Severity: sev, Code: code, Loc: loc, Message: msg}
	if d.seen == nil {
		d.seen = map[Diagnostic]bool{}
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.Next.Report(sev, code, loc, msg)
}
