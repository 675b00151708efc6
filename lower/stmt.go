package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// lowerSequence lowers the top-level statements of a procedure, each into
// its own block, and falls through to the exit block.
func (l *lowerer) lowerSequence(body []ast.Stmt) {
	ctx := l.ctx
	for i, s := range body {
		blk := ctx.stmtBlocks[i]
		if !l.b.Terminated() {
			l.br(blk.Label)
		}
		l.b.SetBlock(blk)
		l.b.Loc = ilLoc(s.Position())
		l.enterStmt(s)
		l.storeResumePoint(i)
		l.stmt(s)
	}
	if !l.b.Terminated() {
		l.exitBranch()
	}
}

// lowerBody lowers the statements nested in a compound statement. A
// labeled statement starts its line block; code after a jump goes into an
// unreachable block.
func (l *lowerer) lowerBody(stmts []ast.Stmt) {
	ctx := l.ctx
	for _, s := range stmts {
		l.b.Loc = ilLoc(s.Position())
		if line, ok := ctx.virtual[s]; ok {
			blk := ctx.lines[line]
			if !l.b.Terminated() {
				l.br(blk.Label)
			}
			l.b.SetBlock(blk)
		} else if l.b.Terminated() {
			l.b.SetBlock(l.block("dead"))
		}
		l.enterStmt(s)
		l.stmt(s)
	}
}

// exitBranch leaves the procedure through its exit block.
func (l *lowerer) exitBranch() {
	if l.ctx.handlers.active {
		l.b.EhPop()
	}
	l.br(l.ctx.exit.Label)
}

func (l *lowerer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LabelStmt:
	case *ast.PrintStmt:
		l.print(s)
	case *ast.PrintChStmt:
		l.printCh(s)
	case *ast.CallStmt:
		l.callStmt(s)
	case *ast.ClsStmt:
		l.call(rt.TermCls)
	case *ast.ColorStmt:
		fg := l.coerce(l.expr(s.Fg), il.I32)
		bg := l.coerce(l.expr(s.Bg), il.I32)
		l.call(rt.TermColor, fg, bg)
	case *ast.LocateStmt:
		row := l.coerce(l.expr(s.Row), il.I32)
		col := l.coerce(l.expr(s.Col), il.I32)
		l.call(rt.TermLocate, row, col)
	case *ast.LetStmt:
		l.assign(s.Target, l.expr(s.Value))
	case *ast.DimStmt:
		switch {
		case s.IsArray:
			l.dimArray(s)
		case s.ObjectClass != "":
			l.dimObject(s)
		}
	case *ast.ReDimStmt:
		l.redimArray(s)
	case *ast.RandomizeStmt:
		l.call(rt.RandomizeI64, l.coerce(l.expr(s.Seed), il.I64))
	case *ast.IfStmt:
		l.ifStmt(s)
	case *ast.SelectCaseStmt:
		l.selectCase(s)
	case *ast.WhileStmt:
		l.whileStmt(s)
	case *ast.DoStmt:
		l.doStmt(s)
	case *ast.ForStmt:
		l.forStmt(s)
	case *ast.NextStmt:
		l.next(s)
	case *ast.ExitStmt:
		l.exit(s)
	case *ast.GotoStmt:
		l.br(l.lineBlock(s.Target).Label)
	case *ast.GosubStmt:
		l.gosub(s)
	case *ast.OpenStmt:
		l.open(s)
	case *ast.CloseStmt:
		l.checkIO(l.call(rt.CloseErr, l.coerce(l.expr(s.Channel), il.I32)))
	case *ast.SeekStmt:
		ch := l.coerce(l.expr(s.Channel), il.I32)
		pos := l.coerce(l.expr(s.Offset), il.I64)
		l.checkIO(l.call(rt.SeekChErr, ch, pos))
	case *ast.OnErrorGotoStmt:
		l.onErrorGoto(s)
	case *ast.ResumeStmt:
		l.resume(s)
	case *ast.EndStmt:
		l.exitBranch()
	case *ast.InputStmt:
		l.input(s)
	case *ast.InputChStmt:
		l.inputCh(s)
	case *ast.LineInputChStmt:
		l.lineInputCh(s)
	case *ast.ReturnStmt:
		l.returnStmt(s)
	case *ast.StmtList:
		l.lowerBody(s.Stmts)
	case *ast.DeleteStmt:
		l.deleteObject(s)
	default:
		internalf("unexpected statement %T", s)
	}
	if !l.b.Terminated() {
		l.releaseDeferred()
	}
}

func (l *lowerer) lineBlock(line int) *il.Block {
	blk := l.ctx.lines[line]
	if blk == nil {
		internalf("line %d has no block in %s", line, l.ctx.Sig.ILName)
	}
	return blk
}

func (l *lowerer) callStmt(s *ast.CallStmt) {
	switch c := s.Call.(type) {
	case *ast.CallExpr:
		l.callProc(c)
	case *ast.MethodCallExpr:
		l.callMethod(c)
	default:
		l.expr(c)
	}
}

// returnStmt is RETURN from a GOSUB, or from the procedure with an
// optional value.
func (l *lowerer) returnStmt(s *ast.ReturnStmt) {
	if s.IsGosubReturn {
		l.gosubReturn()
		return
	}
	if s.Value != nil {
		sig := l.ctx.Sig
		sym := l.env.Symbols.Find(sig.Name)
		if sym == nil {
			internalf("%s has no return slot", sig.ILName)
		}
		l.store(slotOf(sym), sym.Slot(), l.expr(s.Value))
	}
	l.exitBranch()
}

// print lowers console PRINT. A comma moves to the next tab stop; the line
// ends unless the list ends with a separator.
func (l *lowerer) print(s *ast.PrintStmt) {
	for _, item := range s.Items {
		if item.Expr == nil {
			if item.Sep == ast.PrintSepComma {
				l.call(rt.PrintStr, l.str("\t"))
			}
			continue
		}
		v := l.expr(item.Expr)
		switch {
		case v.Type == il.Str:
			l.call(rt.PrintStr, v)
		case v.Type == il.F64:
			l.call(rt.PrintF64, v)
		default:
			l.call(rt.PrintI64, l.coerce(v, il.I64))
		}
	}
	if n := len(s.Items); n == 0 || s.Items[n-1].Expr != nil {
		l.call(rt.PrintStr, l.str("\n"))
	}
}

// toStr formats a printable value for a channel.
func (l *lowerer) toStr(v il.Value, cat sema.Category) il.Value {
	if v.Type == il.Str {
		return v
	}
	if v.Type == il.I64 && cat == sema.CatBool {
		cat = sema.CatI64
	}
	f := strFeature(cat)
	return l.strResult(l.call(f, l.coerce(v, f.Signature().Params[0])))
}
