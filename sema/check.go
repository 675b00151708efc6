package sema

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
)

type loopFrame struct {
	kind ast.ExitKind
	// variable is the FOR control variable.
	variable string
}

// bodyChecker holds the per-procedure state of CheckBody.
type bodyChecker struct {
	*Analyzer
	loops   []loopFrame
	labels  map[int]bool
	returns bool
}

// CheckBody analyzes every statement of the current procedure's body.
func (a *Analyzer) CheckBody(body []ast.Stmt) {
	c := &bodyChecker{Analyzer: a, labels: map[int]bool{}}
	c.collectLabels(body)
	c.stmts(body)
	p := a.Env.Proc
	if p != nil && p.Kind != ProcMain && p.ReturnsValue() && !c.returns {
		a.errorf(&ast.Pos{Loc: procLoc(body)}, diag.MissingReturn, "%s never sets its return value", p.ILName)
	}
}

func procLoc(body []ast.Stmt) ast.Loc {
	if len(body) == 0 {
		return ast.Loc{}
	}
	return body[0].Position()
}

// collectLabels reports labels that appear on non-adjacent statements.
// Consecutive statements on one line share its label.
func (c *bodyChecker) collectLabels(body []ast.Stmt) {
	prev := 0
	var visit func(stmts []ast.Stmt)
	visit = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			line := s.SourceLine()
			if line > 0 {
				if c.labels[line] && line != prev {
					c.errorf(s, diag.DuplicateLabel, "line %d is defined more than once", line)
				}
				c.labels[line] = true
			}
			prev = line
			ast.Inspect(s, func(n ast.Node) bool {
				if n == ast.Node(s) {
					return true
				}
				if nested, ok := n.(ast.Stmt); ok {
					visit([]ast.Stmt{nested})
					return false
				}
				return true
			})
		}
	}
	visit(body)
}

func (c *bodyChecker) target(n ast.Node, line int, what string) {
	if !c.labels[line] {
		c.errorf(n, diag.UnknownLabel, "%s target line %d does not exist", what, line)
	}
}

func (c *bodyChecker) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *bodyChecker) cond(e ast.Expr) {
	info := c.Expr(e)
	if info.Cat != CatUnknown && !info.Cat.IsNumeric() {
		c.errorf(e, diag.TypeMismatch, "condition must be numeric or boolean, got %s", info.Cat)
	}
}

func (c *bodyChecker) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LabelStmt, *ast.ClsStmt, *ast.EndStmt:
	case *ast.PrintStmt:
		for _, item := range s.Items {
			if item.Expr != nil {
				c.printable(item.Expr)
			}
		}
	case *ast.PrintChStmt:
		c.numeric(s.Channel, "channel")
		for _, arg := range s.Args {
			c.printable(arg)
		}
	case *ast.CallStmt:
		c.CallStmt(s.Call)
	case *ast.ColorStmt:
		c.numeric(s.Fg, "COLOR foreground")
		c.numeric(s.Bg, "COLOR background")
	case *ast.LocateStmt:
		c.numeric(s.Row, "LOCATE row")
		c.numeric(s.Col, "LOCATE column")
	case *ast.LetStmt:
		c.let(s)
	case *ast.DimStmt:
		for _, e := range s.Extents {
			c.numeric(e, "array extent")
		}
		if len(s.Extents) > 1 && !ConstantExtents(s.Extents) {
			c.errorf(s, diag.ArrayMisuse, "multi-dimensional array %s needs constant extents", Canonical(s.Name))
		}
		if s.ObjectClass != "" {
			c.class(s, s.ObjectClass)
		}
	case *ast.ReDimStmt:
		c.arrayName(s, s.Name)
		for _, e := range s.Extents {
			c.numeric(e, "array extent")
		}
		if len(s.Extents) != 1 || c.arrayDims(s.Name) != 1 {
			c.errorf(s, diag.ArrayMisuse, "REDIM %s supports one dimension only", Canonical(s.Name))
		}
	case *ast.RandomizeStmt:
		c.numeric(s.Seed, "RANDOMIZE seed")
	case *ast.IfStmt:
		c.cond(s.Cond)
		c.stmts(s.Then)
		for _, arm := range s.ElseIfs {
			c.cond(arm.Cond)
			c.stmts(arm.Then)
		}
		c.stmts(s.Else)
	case *ast.SelectCaseStmt:
		c.selectCase(s)
	case *ast.WhileStmt:
		c.cond(s.Cond)
		c.loop(loopFrame{kind: ast.ExitWhile}, s.Body)
	case *ast.DoStmt:
		if s.Cond != nil {
			c.cond(s.Cond)
		}
		c.loop(loopFrame{kind: ast.ExitDo}, s.Body)
	case *ast.ForStmt:
		c.forLoop(s)
	case *ast.NextStmt:
		c.next(s)
	case *ast.ExitStmt:
		c.exit(s)
	case *ast.GotoStmt:
		c.target(s, s.Target, "GOTO")
	case *ast.GosubStmt:
		c.target(s, s.Target, "GOSUB")
	case *ast.OnErrorGotoStmt:
		if s.Target != 0 {
			c.target(s, s.Target, "ON ERROR GOTO")
		}
	case *ast.ResumeStmt:
		if s.Mode == ast.ResumeLabel {
			c.target(s, s.Target, "RESUME")
		}
	case *ast.OpenStmt:
		c.str(s.Path, "OPEN path")
		c.numeric(s.Channel, "channel")
	case *ast.CloseStmt:
		c.numeric(s.Channel, "channel")
	case *ast.SeekStmt:
		c.numeric(s.Channel, "channel")
		c.numeric(s.Offset, "SEEK position")
	case *ast.InputStmt:
		if s.Prompt != nil {
			c.str(s.Prompt, "INPUT prompt")
		}
		for _, t := range s.Targets {
			c.inputTarget(t)
		}
	case *ast.InputChStmt:
		c.numeric(s.Channel, "channel")
		for _, t := range s.Targets {
			c.inputTarget(t)
		}
	case *ast.LineInputChStmt:
		c.numeric(s.Channel, "channel")
		if info := c.lvalue(s.Target); info.Cat != CatUnknown && info.Cat != CatStr {
			c.errorf(s.Target, diag.TypeMismatch, "LINE INPUT needs a string variable, got %s", info.Cat)
		}
	case *ast.ReturnStmt:
		c.ret(s)
	case *ast.StmtList:
		c.stmts(s.Stmts)
	case *ast.DeleteStmt:
		c.objectOperand(s.Target, "DELETE")
	case *ast.FunctionDecl, *ast.SubDecl, *ast.ClassDecl, *ast.TypeDecl,
		*ast.MethodDecl, *ast.ConstructorDecl, *ast.DestructorDecl:
		// Declarations are checked as procedures of their own.
	default:
		panic("sema: unexpected statement")
	}
}

func (c *bodyChecker) printable(e ast.Expr) {
	info := c.Expr(e)
	if info.Cat == CatObject {
		c.errorf(e, diag.TypeMismatch, "cannot print an object")
	}
}

// lvalue analyzes an assignment target.
func (c *bodyChecker) lvalue(e ast.Expr) ExprInfo {
	switch e := e.(type) {
	case *ast.VarExpr:
		if c.Env.Proc != nil && c.Env.Proc.Kind != ProcMain && c.Env.Proc.ReturnsValue() && Canonical(e.Name) == c.Env.Proc.Name {
			c.returns = true
			info := ExprInfo{Cat: c.Env.Proc.RetCat, Class: c.Env.Proc.RetClass}
			c.Types[e] = info
			return info
		}
		for _, l := range c.loops {
			if l.variable != "" && l.variable == Canonical(e.Name) {
				c.errorf(e, diag.LoopVariableAssign, "cannot assign to loop variable %s inside its FOR loop", l.variable)
				break
			}
		}
		return c.Expr(e)
	case *ast.ArrayExpr, *ast.MemberAccessExpr:
		return c.Expr(e)
	}
	c.errorf(e, diag.TypeMismatch, "cannot assign to this expression")
	return unknown
}

func (c *bodyChecker) let(s *ast.LetStmt) {
	target := c.lvalue(s.Target)
	value := c.Expr(s.Value)
	c.assignable(s.Value, target.Cat, target.Class, value, "assignment to "+nameOf(s.Target))
}

func (c *bodyChecker) inputTarget(e ast.Expr) {
	info := c.lvalue(e)
	if info.Cat == CatObject {
		c.errorf(e, diag.TypeMismatch, "cannot INPUT into an object")
	}
}

func (c *bodyChecker) selectCase(s *ast.SelectCaseStmt) {
	sel := c.Expr(s.Selector)
	if sel.Cat != CatUnknown && sel.Cat != CatStr && !sel.Cat.IsNumeric() {
		c.errorf(s.Selector, diag.TypeMismatch, "SELECT CASE needs a number or string, got %s", sel.Cat)
		sel = unknown
	}
	check := func(e ast.Expr) {
		if e == nil {
			return
		}
		info := c.Expr(e)
		if sel.Cat == CatUnknown || info.Cat == CatUnknown {
			return
		}
		if (sel.Cat == CatStr) != (info.Cat == CatStr) {
			c.errorf(e, diag.TypeMismatch, "CASE label %s does not match selector %s", info.Cat, sel.Cat)
		}
	}
	for _, arm := range s.Arms {
		for _, l := range arm.Labels {
			check(l.Lo)
			check(l.Hi)
			if sel.Cat == CatStr && (l.Kind == ast.CaseRange || (l.Kind == ast.CaseIs && l.Op != ast.OpEq && l.Op != ast.OpNe)) {
				c.errorf(s, diag.TypeMismatch, "string CASE labels only support = and <>")
			}
		}
		c.stmts(arm.Body)
	}
	c.stmts(s.Else)
}

func (c *bodyChecker) loop(f loopFrame, body []ast.Stmt) {
	c.loops = append(c.loops, f)
	c.stmts(body)
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *bodyChecker) forLoop(s *ast.ForStmt) {
	v := &ast.VarExpr{Pos: s.Pos, Name: s.Var}
	info := c.lvalue(v)
	if info.Cat != CatUnknown && (!info.Cat.IsNumeric() || info.Cat == CatBool) {
		c.errorf(s, diag.TypeMismatch, "FOR variable %s must be numeric, got %s", Canonical(s.Var), info.Cat)
	}
	c.numeric(s.Start, "FOR start")
	c.numeric(s.End, "FOR end")
	if s.Step != nil {
		c.numeric(s.Step, "FOR step")
	}
	c.loop(loopFrame{kind: ast.ExitFor, variable: Canonical(s.Var)}, s.Body)
}

func (c *bodyChecker) next(s *ast.NextStmt) {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].kind != ast.ExitFor {
			continue
		}
		if s.Var != "" && Canonical(s.Var) != c.loops[i].variable {
			c.errorf(s, diag.NextMismatch, "NEXT %s does not match FOR %s", Canonical(s.Var), c.loops[i].variable)
		}
		return
	}
	c.errorf(s, diag.NextMismatch, "NEXT without FOR")
}

var exitNames = map[ast.ExitKind]string{
	ast.ExitFor: "FOR", ast.ExitWhile: "WHILE", ast.ExitDo: "DO",
	ast.ExitSub: "SUB", ast.ExitFunction: "FUNCTION",
}

func (c *bodyChecker) exit(s *ast.ExitStmt) {
	ok := false
	switch s.Kind {
	case ast.ExitFor, ast.ExitWhile, ast.ExitDo:
		for _, l := range c.loops {
			if l.kind == s.Kind {
				ok = true
			}
		}
	case ast.ExitSub:
		p := c.Env.Proc
		ok = p != nil && p.Kind != ProcMain && !p.ReturnsValue()
	case ast.ExitFunction:
		p := c.Env.Proc
		ok = p != nil && p.Kind != ProcMain && p.ReturnsValue()
	}
	if !ok {
		c.errorf(s, diag.ExitOutsideBlock, "EXIT %s outside of a %s", exitNames[s.Kind], exitNames[s.Kind])
	}
}

func (c *bodyChecker) ret(s *ast.ReturnStmt) {
	p := c.Env.Proc
	if s.Value == nil {
		return
	}
	value := c.Expr(s.Value)
	switch {
	case p == nil || p.Kind == ProcMain:
		c.errorf(s, diag.TypeMismatch, "RETURN with a value outside a FUNCTION")
	case p.Kind == ProcCtor || p.Kind == ProcDtor:
		c.errorf(s, diag.CtorDtorMisuse, "constructors and destructors cannot return a value")
	case !p.ReturnsValue():
		c.errorf(s, diag.TypeMismatch, "%s does not return a value", p.ILName)
	default:
		c.returns = true
		c.assignable(s.Value, p.RetCat, p.RetClass, value, "return value of "+p.ILName)
	}
}

// ConstantExtents reports whether every extent is an integer literal.
func ConstantExtents(extents []ast.Expr) bool {
	for _, e := range extents {
		if _, ok := e.(*ast.IntExpr); !ok {
			return false
		}
	}
	return true
}
