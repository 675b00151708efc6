// Package lower translates a checked BASIC program into an IL module. A
// scan pass first builds every symbol table, class layout and procedure
// signature; the emitter then lowers one procedure at a time.
package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// Result summarizes a lowering run.
type Result struct {
	Errors   int
	Warnings int
	// Features are the runtime helpers the module declares.
	Features rt.Set
	// Predicted are the helpers the scan knew about before emission.
	Predicted rt.Set
}

// Failed reports whether any error diagnostic was reported. A failed run
// produces no module.
func (r *Result) Failed() bool {
	return r.Errors > 0
}

type countingSink struct {
	next     diag.Sink
	errors   int
	warnings int
}

func (s *countingSink) Report(sev diag.Severity, code diag.Code, loc ast.Loc, msg string) {
	switch sev {
	case diag.Error:
		s.errors++
	case diag.Warning:
		s.warnings++
	}
	if s.next != nil {
		s.next.Report(sev, code, loc, msg)
	}
}

// Lower scans and lowers prog. User errors are reported to sink; when any
// is an error the module is nil. Broken compiler invariants panic with an
// InternalError.
func Lower(prog *ast.Program, opts Options, sink diag.Sink) (*il.Module, *Result) {
	counter := &countingSink{next: sink}
	scan := Scan(prog, counter)
	res := &Result{Errors: counter.errors, Warnings: counter.warnings, Predicted: scan.Predicted}
	if res.Failed() {
		T().Infof("scan reported %d error(s); no IL emitted", res.Errors)
		return nil, res
	}

	l := &lowerer{env: scan.Env, an: scan.Analyzer, opts: opts}
	// Diagnostics were all reported by the scan.
	l.an.Sink = nil
	m := &il.Module{}
	for _, u := range scan.units {
		m.Functions = append(m.Functions, l.lowerUnit(u))
	}
	for _, f := range l.used.Features() {
		m.Externs = append(m.Externs, f.Extern())
	}
	for _, lit := range l.env.Symbols.Literals() {
		m.Globals = append(m.Globals, il.Global{Name: lit.Label, Value: lit.Value})
	}
	res.Features = l.used
	return m, res
}

// lowerer carries the program-wide emission state.
type lowerer struct {
	env  *sema.Env
	an   *sema.Analyzer
	opts Options
	used rt.Set

	ctx *ProcedureContext
	b   *il.Builder
}

func (l *lowerer) lowerUnit(u *unit) *il.Function {
	enter(l.env, u)
	defer leave(l.env, u)
	c := newCollector(l.env)
	c.declare(u)
	c.reference(u)
	return l.lowerProcedure(u, c.globals)
}

// call invokes a runtime helper and records it as used.
func (l *lowerer) call(f rt.Feature, args ...il.Value) il.Value {
	if !l.used.Has(f) {
		T().Debugf("%s: runtime helper %s", l.ctx.Sig.ILName, f)
		l.used.Add(f)
	}
	s := f.Signature()
	return l.b.Call(s.Name, s.Ret, args...)
}

// str returns a const_str of a pooled literal. The result is a fresh
// reference released at the end of the statement.
func (l *lowerer) str(content string) il.Value {
	v := l.b.ConstStr(l.env.Symbols.InternString(content))
	l.deferStr(v)
	return v
}

// info is the analyzer's verdict for e.
func (l *lowerer) info(e ast.Expr) sema.ExprInfo {
	info, ok := l.an.Types[e]
	if !ok {
		internalf("expression %T at %s was never analyzed", e, e.Position())
	}
	return info
}

func ilLoc(loc ast.Loc) il.Loc {
	return il.Loc{File: loc.File, Line: loc.Line, Column: loc.Column}
}
