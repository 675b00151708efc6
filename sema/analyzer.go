package sema

import (
	"fmt"
	"sort"

	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
)

// ExprInfo is the analyzer's verdict on one expression.
type ExprInfo struct {
	Cat Category
	// Class is the object class for CatObject, or the element class of an
	// object array.
	Class string
	// IsArray is set for a bare array name, which is only valid as an
	// argument to an array parameter.
	IsArray bool
	// IsConst is set for integer literals, including negated ones.
	IsConst bool
	Int     int64
}

var unknown = ExprInfo{Cat: CatUnknown}

type binaryRule struct {
	valid    func(l, r ExprInfo) bool
	result   func(op ast.BinaryOp, l, r ExprInfo) ExprInfo
	mismatch string
}

func bothNumeric(l, r ExprInfo) bool { return l.Cat.IsNumeric() && r.Cat.IsNumeric() }
func bothString(l, r ExprInfo) bool  { return l.Cat == CatStr && r.Cat == CatStr }

func logicalOperand(c Category) bool {
	return c == CatBool || c.IsInteger()
}

func arithResult(op ast.BinaryOp, l, r ExprInfo) ExprInfo {
	if bothString(l, r) {
		return ExprInfo{Cat: CatStr}
	}
	if op == ast.OpSub && l.IsConst && l.Int == 0 && (r.Cat == CatI16 || r.Cat == CatI32) {
		return ExprInfo{Cat: r.Cat}
	}
	if l.IsConst && r.IsConst {
		c, _ := FoldedCategory(op, l.Int, r.Int)
		return ExprInfo{Cat: c}
	}
	return ExprInfo{Cat: Promote(l.Cat, r.Cat)}
}

var binaryRules = map[ast.BinaryOp]binaryRule{
	ast.OpAdd: {
		valid:    func(l, r ExprInfo) bool { return bothNumeric(l, r) || bothString(l, r) },
		result:   arithResult,
		mismatch: "operator %s needs two numbers or two strings, got %s and %s",
	},
	ast.OpSub: {valid: bothNumeric, result: arithResult, mismatch: "operator %s needs numeric operands, got %s and %s"},
	ast.OpMul: {valid: bothNumeric, result: arithResult, mismatch: "operator %s needs numeric operands, got %s and %s"},
	ast.OpDiv: {
		valid:    bothNumeric,
		result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatDouble} },
		mismatch: "operator %s needs numeric operands, got %s and %s",
	},
	ast.OpPow: {
		valid:    bothNumeric,
		result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatDouble} },
		mismatch: "operator %s needs numeric operands, got %s and %s",
	},
	ast.OpIDiv: {
		valid:    bothNumeric,
		result:   func(_ ast.BinaryOp, l, r ExprInfo) ExprInfo { return ExprInfo{Cat: CommonInteger(l.Cat, r.Cat)} },
		mismatch: "operator %s needs numeric operands, got %s and %s",
	},
	ast.OpMod: {
		valid:    bothNumeric,
		result:   func(_ ast.BinaryOp, l, r ExprInfo) ExprInfo { return ExprInfo{Cat: CommonInteger(l.Cat, r.Cat)} },
		mismatch: "operator %s needs numeric operands, got %s and %s",
	},
	ast.OpEq: {
		valid:    func(l, r ExprInfo) bool { return bothNumeric(l, r) || bothString(l, r) },
		result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatBool} },
		mismatch: "cannot compare %[2]s with %[3]s using %[1]s",
	},
	ast.OpNe: {
		valid:    func(l, r ExprInfo) bool { return bothNumeric(l, r) || bothString(l, r) },
		result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatBool} },
		mismatch: "cannot compare %[2]s with %[3]s using %[1]s",
	},

	ast.OpLt:  relational,
	ast.OpLe:  relational,
	ast.OpGt:  relational,
	ast.OpGe:  relational,
	ast.OpAnd: logical,
	ast.OpOr:  logical,
	ast.OpXor: logical,

	ast.OpConcat: {
		valid:    bothString,
		result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatStr} },
		mismatch: "operator %s joins strings, got %s and %s",
	},
}

var relational = binaryRule{
	valid:    bothNumeric,
	result:   func(ast.BinaryOp, ExprInfo, ExprInfo) ExprInfo { return ExprInfo{Cat: CatBool} },
	mismatch: "operator %s compares numbers only, got %s and %s",
}

var logical = binaryRule{
	valid: func(l, r ExprInfo) bool { return logicalOperand(l.Cat) && logicalOperand(r.Cat) },
	result: func(_ ast.BinaryOp, l, r ExprInfo) ExprInfo {
		if l.Cat == CatBool && r.Cat == CatBool {
			return ExprInfo{Cat: CatBool}
		}
		return ExprInfo{Cat: CommonInteger(l.Cat, r.Cat)}
	},
	mismatch: "operator %s needs boolean or integer operands, got %s and %s",
}

// Analyzer assigns categories to expressions and reports user errors. A nil
// sink makes it silent, which the emitter relies on for re-queries.
type Analyzer struct {
	Env   *Env
	Sink  diag.Sink
	Types map[ast.Expr]ExprInfo
}

func NewAnalyzer(env *Env, sink diag.Sink) *Analyzer {
	return &Analyzer{Env: env, Sink: sink, Types: map[ast.Expr]ExprInfo{}}
}

func (a *Analyzer) errorf(n ast.Node, code diag.Code, format string, args ...any) {
	if a.Sink == nil {
		return
	}
	a.Sink.Report(diag.Error, code, n.Position(), fmt.Sprintf(format, args...))
}

func (a *Analyzer) warnf(n ast.Node, code diag.Code, format string, args ...any) {
	if a.Sink == nil {
		return
	}
	a.Sink.Report(diag.Warning, code, n.Position(), fmt.Sprintf(format, args...))
}

// Expr returns the category of e, reporting problems on the way. Array
// names are reported when used as scalars.
func (a *Analyzer) Expr(e ast.Expr) ExprInfo {
	info := a.expr(e)
	if info.IsArray {
		a.errorf(e, diag.ArrayMisuse, "array %s used without an index", nameOf(e))
		return unknown
	}
	return info
}

func nameOf(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.VarExpr:
		return Canonical(e.Name)
	case *ast.MemberAccessExpr:
		return Canonical(e.Member)
	}
	return "expression"
}

func (a *Analyzer) expr(e ast.Expr) ExprInfo {
	info := a.compute(e)
	a.Types[e] = info
	return info
}

func (a *Analyzer) compute(e ast.Expr) ExprInfo {
	switch e := e.(type) {
	case *ast.IntExpr:
		return ExprInfo{Cat: LiteralCategory(e.Value), IsConst: true, Int: e.Value}
	case *ast.FloatExpr:
		return ExprInfo{Cat: CatDouble}
	case *ast.StringExpr:
		return ExprInfo{Cat: CatStr}
	case *ast.BoolExpr:
		return ExprInfo{Cat: CatBool}
	case *ast.VarExpr:
		return a.variable(e)
	case *ast.ArrayExpr:
		return a.arrayElem(e)
	case *ast.UnaryExpr:
		return a.unary(e)
	case *ast.BinaryExpr:
		return a.binary(e)
	case *ast.BuiltinCallExpr:
		return a.builtin(e)
	case *ast.LBoundExpr:
		a.arrayName(e, e.Name)
		return ExprInfo{Cat: CatI64}
	case *ast.UBoundExpr:
		a.arrayName(e, e.Name)
		return ExprInfo{Cat: CatI64}
	case *ast.CallExpr:
		return a.call(e, true)
	case *ast.NewExpr:
		return a.newObject(e)
	case *ast.MeExpr:
		if !a.Env.InClass() {
			a.errorf(e, diag.UndeclaredName, "ME is only valid inside a class")
			return unknown
		}
		return ExprInfo{Cat: CatObject, Class: a.Env.Proc.Class}
	case *ast.MemberAccessExpr:
		return a.member(e)
	case *ast.MethodCallExpr:
		return a.methodCall(e, true)
	case *ast.IsExpr:
		a.objectOperand(e.Value, "IS")
		a.class(e, e.Class)
		return ExprInfo{Cat: CatBool}
	case *ast.AsExpr:
		a.objectOperand(e.Value, "AS")
		if a.class(e, e.Class) == nil {
			return unknown
		}
		return ExprInfo{Cat: CatObject, Class: Canonical(e.Class)}
	}
	panic(fmt.Sprintf("sema: unexpected expression %T", e))
}

func (a *Analyzer) symbolInfo(sym *SymbolInfo) ExprInfo {
	switch {
	case sym.IsArray:
		return ExprInfo{Cat: sym.Category(), Class: sym.ElemClass, IsArray: true}
	case sym.IsObject:
		return ExprInfo{Cat: CatObject, Class: sym.ObjectClass}
	}
	return ExprInfo{Cat: sym.Category()}
}

func (a *Analyzer) variable(e *ast.VarExpr) ExprInfo {
	ref := a.Env.Resolve(e.Name)
	if ref.Kind == RefUndeclared {
		a.undeclared(e, e.Name)
		return ExprInfo{Cat: SuffixCategory(Canonical(e.Name))}
	}
	return a.symbolInfo(ref.Sym)
}

func (a *Analyzer) undeclared(n ast.Node, name string) {
	if hint, ok := Suggest(name, a.Env.VisibleNames()); ok {
		a.errorf(n, diag.UndeclaredName, "undeclared variable %s; did you mean %s?", Canonical(name), hint)
		return
	}
	a.errorf(n, diag.UndeclaredName, "undeclared variable %s", Canonical(name))
}

// arrayName resolves name and checks that it is an array.
func (a *Analyzer) arrayName(n ast.Node, name string) (ExprInfo, bool) {
	ref := a.Env.Resolve(name)
	if ref.Kind == RefUndeclared {
		a.undeclared(n, name)
		return unknown, false
	}
	info := a.symbolInfo(ref.Sym)
	if !info.IsArray {
		a.errorf(n, diag.ArrayMisuse, "%s is not an array", Canonical(name))
		return unknown, false
	}
	return info, true
}

func (a *Analyzer) arrayElem(e *ast.ArrayExpr) ExprInfo {
	info, ok := a.arrayName(e, e.Name)
	for _, idx := range e.Indices {
		a.numeric(idx, "array index")
	}
	if !ok {
		return unknown
	}
	if dims := a.arrayDims(e.Name); len(e.Indices) != dims {
		a.errorf(e, diag.ArrayMisuse, "array %s has %d dimension(s), got %d index(es)", Canonical(e.Name), dims, len(e.Indices))
	}
	info.IsArray = false
	return info
}

// arrayDims is the declared dimension count of an array. Arrays without
// constant extents have one dimension.
func (a *Analyzer) arrayDims(name string) int {
	ref := a.Env.Resolve(name)
	if ref.Kind == RefField && ref.Field != nil && len(ref.Field.Extents) > 0 {
		return len(ref.Field.Extents)
	}
	if ref.Sym != nil && len(ref.Sym.Extents) > 0 {
		return len(ref.Sym.Extents)
	}
	return 1
}

// numeric checks that e is usable as a number.
func (a *Analyzer) numeric(e ast.Expr, what string) ExprInfo {
	info := a.Expr(e)
	if info.Cat != CatUnknown && !info.Cat.IsNumeric() {
		a.errorf(e, diag.TypeMismatch, "%s must be numeric, got %s", what, info.Cat)
	}
	return info
}

func (a *Analyzer) str(e ast.Expr, what string) ExprInfo {
	info := a.Expr(e)
	if info.Cat != CatUnknown && info.Cat != CatStr {
		a.errorf(e, diag.TypeMismatch, "%s must be a string, got %s", what, info.Cat)
	}
	return info
}

func (a *Analyzer) unary(e *ast.UnaryExpr) ExprInfo {
	if lit, ok := e.X.(*ast.IntExpr); ok && e.Op == ast.UnaryNeg {
		a.Types[lit] = ExprInfo{Cat: LiteralCategory(lit.Value), IsConst: true, Int: lit.Value}
		return ExprInfo{Cat: LiteralCategory(-lit.Value), IsConst: true, Int: -lit.Value}
	}
	x := a.Expr(e.X)
	if x.Cat == CatUnknown {
		return unknown
	}
	switch e.Op {
	case ast.UnaryNot:
		if !logicalOperand(x.Cat) {
			a.errorf(e, diag.TypeMismatch, "operator NOT needs a boolean or integer operand, got %s", x.Cat)
			return unknown
		}
		return ExprInfo{Cat: x.Cat}
	default:
		if !x.Cat.IsNumeric() {
			a.errorf(e, diag.TypeMismatch, "unary minus needs a numeric operand, got %s", x.Cat)
			return unknown
		}
		if x.Cat == CatBool {
			return ExprInfo{Cat: CatI64}
		}
		if x.Cat == CatSingle {
			return ExprInfo{Cat: CatDouble}
		}
		return ExprInfo{Cat: x.Cat}
	}
}

func (a *Analyzer) binary(e *ast.BinaryExpr) ExprInfo {
	l := a.Expr(e.X)
	r := a.Expr(e.Y)
	if l.Cat == CatUnknown || r.Cat == CatUnknown {
		return unknown
	}
	rule, ok := binaryRules[e.Op]
	if !ok {
		panic(fmt.Sprintf("sema: no rule for operator %s", e.Op))
	}
	if !rule.valid(l, r) {
		a.errorf(e, diag.TypeMismatch, rule.mismatch, e.Op, l.Cat, r.Cat)
		return unknown
	}
	if (e.Op == ast.OpIDiv || e.Op == ast.OpMod) && r.IsConst && r.Int == 0 {
		a.warnf(e.Y, diag.DivisionByZero, "integer division by zero")
	}
	return rule.result(e.Op, l, r)
}

func (a *Analyzer) builtin(e *ast.BuiltinCallExpr) ExprInfo {
	lo, hi := builtinArity(e.Builtin)
	if len(e.Args) < lo || len(e.Args) > hi {
		a.errorf(e, diag.ArgumentCount, "%s expects %s, got %d", e.Builtin, arity(lo, hi), len(e.Args))
		for _, arg := range e.Args {
			a.Expr(arg)
		}
		return ExprInfo{Cat: builtinResult(e.Builtin, nil)}
	}
	kinds := builtinArgKinds(e.Builtin, len(e.Args))
	args := make([]ExprInfo, len(e.Args))
	for i, arg := range e.Args {
		what := fmt.Sprintf("argument %d of %s", i+1, e.Builtin)
		if kinds[i] == argStr {
			args[i] = a.str(arg, what)
		} else {
			args[i] = a.numeric(arg, what)
		}
	}
	return ExprInfo{Cat: builtinResult(e.Builtin, args)}
}

func arity(lo, hi int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}
		return fmt.Sprintf("%d arguments", n)
	}
	if lo == hi {
		return plural(lo)
	}
	return fmt.Sprintf("%d to %s", lo, plural(hi))
}

// Proc finds a SUB or FUNCTION by name.
func (a *Analyzer) Proc(name string) *ProcSig {
	p := a.Env.Procs[Canonical(name)]
	if p == nil || (p.Kind != ProcSub && p.Kind != ProcFunction) {
		return nil
	}
	return p
}

func (a *Analyzer) call(e *ast.CallExpr, asValue bool) ExprInfo {
	sig := a.Proc(e.Callee)
	if sig == nil {
		if hint, ok := Suggest(e.Callee, a.Env.ProcNames()); ok {
			a.errorf(e, diag.UnknownProcedure, "unknown procedure %s; did you mean %s?", Canonical(e.Callee), hint)
		} else {
			a.errorf(e, diag.UnknownProcedure, "unknown procedure %s", Canonical(e.Callee))
		}
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	}
	a.args(e, sig, e.Args)
	return a.callResult(e, sig, asValue)
}

func (a *Analyzer) callResult(n ast.Node, sig *ProcSig, asValue bool) ExprInfo {
	if !sig.ReturnsValue() {
		if asValue {
			a.errorf(n, diag.TypeMismatch, "%s does not return a value", sig.ILName)
			return unknown
		}
		return ExprInfo{Cat: CatUnknown}
	}
	return ExprInfo{Cat: sig.RetCat, Class: sig.RetClass}
}

// args checks call arguments against sig's parameters.
func (a *Analyzer) args(n ast.Node, sig *ProcSig, args []ast.Expr) {
	if len(args) != len(sig.Params) {
		a.errorf(n, diag.ArgumentCount, "%s expects %s, got %d", sig.ILName, arity(len(sig.Params), len(sig.Params)), len(args))
	}
	for i, arg := range args {
		if i >= len(sig.Params) {
			a.expr(arg)
			continue
		}
		p := sig.Params[i]
		if p.IsArray {
			info := a.expr(arg)
			if info.Cat != CatUnknown && !info.IsArray {
				a.errorf(arg, diag.ArrayMisuse, "argument %d of %s must be an array", i+1, sig.ILName)
			}
			continue
		}
		info := a.Expr(arg)
		a.assignable(arg, p.Cat, p.Class, info, fmt.Sprintf("argument %d of %s", i+1, sig.ILName))
	}
}

// assignable checks that a value of category got can be stored where want
// is expected.
func (a *Analyzer) assignable(n ast.Node, want Category, wantClass string, got ExprInfo, what string) {
	if got.Cat == CatUnknown || want == CatUnknown {
		return
	}
	ok := true
	switch {
	case want == CatStr || got.Cat == CatStr:
		ok = want == got.Cat
	case want == CatObject || got.Cat == CatObject:
		ok = want == got.Cat && (wantClass == "" || got.Class == "" || wantClass == got.Class)
	}
	if !ok {
		gotName := got.Cat.String()
		if got.Cat == CatObject && got.Class != "" {
			gotName = got.Class
		}
		wantName := want.String()
		if want == CatObject && wantClass != "" {
			wantName = wantClass
		}
		a.errorf(n, diag.TypeMismatch, "%s expects %s, got %s", what, wantName, gotName)
	}
}

func (a *Analyzer) class(n ast.Node, name string) *ClassLayout {
	c := a.Env.Lookup(name)
	if c == nil {
		if hint, ok := Suggest(name, a.Env.ClassNames()); ok {
			a.errorf(n, diag.UnknownClass, "unknown class %s; did you mean %s?", Canonical(name), hint)
		} else {
			a.errorf(n, diag.UnknownClass, "unknown class %s", Canonical(name))
		}
	}
	return c
}

func (a *Analyzer) newObject(e *ast.NewExpr) ExprInfo {
	c := a.class(e, e.Class)
	if c == nil {
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	}
	if c.Ctor != nil {
		a.args(e, c.Ctor, e.Args)
	} else if len(e.Args) > 0 {
		a.errorf(e, diag.ArgumentCount, "%s has no constructor taking arguments", c.Name)
		for _, arg := range e.Args {
			a.expr(arg)
		}
	}
	return ExprInfo{Cat: CatObject, Class: c.Name}
}

func (a *Analyzer) objectOperand(e ast.Expr, what string) *ClassLayout {
	info := a.Expr(e)
	if info.Cat == CatUnknown {
		return nil
	}
	if info.Cat != CatObject {
		a.errorf(e, diag.TypeMismatch, "%s needs an object, got %s", what, info.Cat)
		return nil
	}
	return a.Env.Lookup(info.Class)
}

func (a *Analyzer) member(e *ast.MemberAccessExpr) ExprInfo {
	c := a.objectOperand(e.Base, "member access")
	if c == nil {
		return unknown
	}
	f, ok := c.Field(e.Member)
	if !ok {
		a.memberNotFound(e, c, e.Member, c.FieldNames())
		return unknown
	}
	switch {
	case f.IsArray:
		return ExprInfo{Cat: f.ElemCategory(), Class: f.ObjectClass, IsArray: true}
	case f.ObjectClass != "":
		return ExprInfo{Cat: CatObject, Class: f.ObjectClass}
	}
	return ExprInfo{Cat: f.Cat}
}

func (a *Analyzer) memberNotFound(n ast.Node, c *ClassLayout, name string, candidates []string) {
	if hint, ok := Suggest(name, candidates); ok {
		a.errorf(n, diag.MemberNotFound, "%s has no member %s; did you mean %s?", c.Name, Canonical(name), hint)
		return
	}
	a.errorf(n, diag.MemberNotFound, "%s has no member %s", c.Name, Canonical(name))
}

func (a *Analyzer) methodCall(e *ast.MethodCallExpr, asValue bool) ExprInfo {
	c := a.objectOperand(e.Base, "method call")
	if c == nil {
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	}
	m, ok := c.Method(e.Method)
	if !ok {
		var names []string
		for n := range c.Methods {
			names = append(names, n)
		}
		sort.Strings(names)
		a.memberNotFound(e, c, e.Method, names)
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	}
	a.args(e, m.Sig, e.Args)
	return a.callResult(e, m.Sig, asValue)
}

// CallStmt analyzes a call used as a statement, where a missing result is
// fine.
func (a *Analyzer) CallStmt(e ast.Expr) {
	switch e := e.(type) {
	case *ast.CallExpr:
		a.Types[e] = a.call(e, false)
	case *ast.MethodCallExpr:
		a.Types[e] = a.methodCall(e, false)
	default:
		a.Expr(e)
	}
}
