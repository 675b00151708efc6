package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// cond lowers a condition to an i1.
func (l *lowerer) cond(e ast.Expr) il.Value {
	return l.coerce(l.expr(e), il.I1)
}

func (l *lowerer) ifStmt(s *ast.IfStmt) {
	b := l.b
	end := l.block("if_end")
	c := l.cond(s.Cond)
	then := l.block("if_then")
	var next *il.Block
	switch {
	case len(s.ElseIfs) > 0:
		next = l.block("if_elseif")
	case len(s.Else) > 0:
		next = l.block("if_else")
	default:
		next = end
	}
	l.cbr(c, then.Label, next.Label)
	b.SetBlock(then)
	l.lowerBody(s.Then)
	if !b.Terminated() {
		l.br(end.Label)
	}

	for i, arm := range s.ElseIfs {
		b.SetBlock(next)
		b.Loc = ilLoc(arm.Loc)
		c := l.cond(arm.Cond)
		then := l.block("if_then")
		switch {
		case i+1 < len(s.ElseIfs):
			next = l.block("if_elseif")
		case len(s.Else) > 0:
			next = l.block("if_else")
		default:
			next = end
		}
		l.cbr(c, then.Label, next.Label)
		b.SetBlock(then)
		l.lowerBody(arm.Then)
		if !b.Terminated() {
			l.br(end.Label)
		}
	}

	if next != end {
		b.SetBlock(next)
		l.lowerBody(s.Else)
		if !b.Terminated() {
			l.br(end.Label)
		}
	}
	b.SetBlock(end)
}

// caseMatch tests one CASE label against the selector.
func (l *lowerer) caseMatch(sel il.Value, selCat sema.Category, label ast.CaseLabel) il.Value {
	b := l.b
	if selCat == sema.CatStr {
		v := l.expr(label.Lo)
		return l.strEq(sel, v, label.Kind == ast.CaseIs && label.Op == ast.OpNe)
	}
	lo := l.expr(label.Lo)
	loCat := l.info(label.Lo).Cat
	switch label.Kind {
	case ast.CaseRange:
		hi := l.expr(label.Hi)
		above := l.compareValues(ast.OpGe, sel, selCat, lo, loCat)
		below := l.compareValues(ast.OpLe, sel, selCat, hi, l.info(label.Hi).Cat)
		return b.Emit(il.And, il.I1, above, below)
	case ast.CaseIs:
		return l.compareValues(label.Op, sel, selCat, lo, loCat)
	}
	return l.compareValues(ast.OpEq, sel, selCat, lo, loCat)
}

// selectCase tests the arms in order. A fresh string selector is released
// on entry to whichever arm runs.
func (l *lowerer) selectCase(s *ast.SelectCaseStmt) {
	b := l.b
	selCat := l.info(s.Selector).Cat
	sel := l.expr(s.Selector)
	owned := selCat == sema.CatStr && l.steal(sel)
	release := func() {
		if owned {
			l.call(rt.StrReleaseMaybe, sel)
		}
	}

	end := l.block("select_end")
	for _, arm := range s.Arms {
		body := l.block("select_arm")
		miss := l.block("select_next")
		for j, label := range arm.Labels {
			m := l.caseMatch(sel, selCat, label)
			if j+1 < len(arm.Labels) {
				again := l.block("select_label")
				l.cbr(m, body.Label, again.Label)
				b.SetBlock(again)
				continue
			}
			l.cbr(m, body.Label, miss.Label)
		}
		if len(arm.Labels) == 0 {
			l.br(miss.Label)
		}
		b.SetBlock(body)
		b.Loc = ilLoc(arm.Loc)
		release()
		l.lowerBody(arm.Body)
		if !b.Terminated() {
			l.br(end.Label)
		}
		b.SetBlock(miss)
	}
	release()
	l.lowerBody(s.Else)
	if !b.Terminated() {
		l.br(end.Label)
	}
	b.SetBlock(end)
}

func (l *lowerer) pushLoop(f loopFrame) {
	l.ctx.loops = append(l.ctx.loops, f)
}

func (l *lowerer) popLoop() {
	l.ctx.loops = l.ctx.loops[:len(l.ctx.loops)-1]
}

func (l *lowerer) whileStmt(s *ast.WhileStmt) {
	b := l.b
	head := l.block("while_head")
	body := l.block("while_body")
	done := l.block("while_done")
	l.br(head.Label)
	b.SetBlock(head)
	l.cbr(l.cond(s.Cond), body.Label, done.Label)
	b.SetBlock(body)
	l.pushLoop(loopFrame{kind: ast.ExitWhile, next: head.Label, done: done.Label})
	l.lowerBody(s.Body)
	l.popLoop()
	if !b.Terminated() {
		l.br(head.Label)
	}
	b.SetBlock(done)
}

func (l *lowerer) doStmt(s *ast.DoStmt) {
	b := l.b
	body := l.block("do_body")
	done := l.block("do_done")
	// test branches to body while the loop continues.
	test := func() {
		c := l.cond(s.Cond)
		switch s.Test {
		case ast.DoPreWhile, ast.DoPostWhile:
			l.cbr(c, body.Label, done.Label)
		default:
			l.cbr(c, done.Label, body.Label)
		}
	}

	var again *il.Block
	switch s.Test {
	case ast.DoPreWhile, ast.DoPreUntil:
		again = l.block("do_head")
		l.br(again.Label)
		b.SetBlock(again)
		test()
	case ast.DoPostWhile, ast.DoPostUntil:
		again = l.block("do_tail")
		l.br(body.Label)
	default:
		again = body
		l.br(body.Label)
	}

	b.SetBlock(body)
	l.pushLoop(loopFrame{kind: ast.ExitDo, next: again.Label, done: done.Label})
	l.lowerBody(s.Body)
	l.popLoop()
	if !b.Terminated() {
		l.br(again.Label)
	}
	if s.Test == ast.DoPostWhile || s.Test == ast.DoPostUntil {
		b.SetBlock(again)
		test()
	}
	b.SetBlock(done)
}

// constSign reports the sign of a literal FOR step.
func (l *lowerer) constSign(e ast.Expr) (int, bool) {
	if e == nil {
		return 1, true
	}
	if info := l.info(e); info.IsConst {
		if info.Int < 0 {
			return -1, true
		}
		return 1, true
	}
	var f *ast.FloatExpr
	neg := false
	switch e := e.(type) {
	case *ast.FloatExpr:
		f = e
	case *ast.UnaryExpr:
		f, _ = e.X.(*ast.FloatExpr)
		neg = e.Op == ast.UnaryNeg
	}
	if f == nil {
		return 0, false
	}
	if (f.Value < 0) != neg {
		return -1, true
	}
	return 1, true
}

// forStmt evaluates start, end and step once. The loop runs while the
// variable has not passed end in the direction of step.
func (l *lowerer) forStmt(s *ast.ForStmt) {
	b := l.b
	slots, ok := l.ctx.forSlots[s]
	if !ok {
		internalf("FOR %s has no slots", s.Var)
	}
	ty := slots.ty

	addr, _ := l.varAddr(s.Var)
	b.Store(ty, addr, l.coerce(l.expr(s.Start), ty))
	b.Store(ty, slots.end, l.coerce(l.expr(s.End), ty))
	var step il.Value
	if s.Step == nil {
		step = il.ConstInt(1, ty)
		if ty == il.F64 {
			step = il.ConstFloat(1)
		}
	} else {
		step = l.coerce(l.expr(s.Step), ty)
	}
	b.Store(ty, slots.step, step)

	head := l.block("for_head")
	body := l.block("for_body")
	incr := l.block("for_incr")
	done := l.block("for_done")
	l.br(head.Label)

	b.SetBlock(head)
	cmp := func(op ast.BinaryOp, x, y il.Value) il.Value {
		if ty == il.F64 {
			return b.EmitTyped(floatCompare[op], ty, il.I1, x, y)
		}
		return b.EmitTyped(intCompare[op], ty, il.I1, x, y)
	}
	v := b.Load(ty, addr)
	end := b.Load(ty, slots.end)
	var c il.Value
	if sign, ok := l.constSign(s.Step); ok {
		if sign < 0 {
			c = cmp(ast.OpGe, v, end)
		} else {
			c = cmp(ast.OpLe, v, end)
		}
	} else {
		st := b.Load(ty, slots.step)
		neg := cmp(ast.OpLt, st, zero(ty))
		down := cmp(ast.OpGe, v, end)
		up := cmp(ast.OpLe, v, end)
		pos := b.Emit(il.Xor, il.I1, neg, il.Bool(true))
		down = b.Emit(il.And, il.I1, neg, down)
		up = b.Emit(il.And, il.I1, pos, up)
		c = b.Emit(il.Or, il.I1, down, up)
	}
	l.cbr(c, body.Label, done.Label)

	b.SetBlock(body)
	l.pushLoop(loopFrame{kind: ast.ExitFor, variable: sema.Canonical(s.Var), next: incr.Label, done: done.Label})
	l.lowerBody(s.Body)
	l.popLoop()
	if !b.Terminated() {
		l.br(incr.Label)
	}

	b.SetBlock(incr)
	v = b.Load(ty, addr)
	st := b.Load(ty, slots.step)
	if ty == il.F64 {
		v = b.Emit(il.FAdd, ty, v, st)
	} else {
		v = b.Emit(il.IAddOvf, ty, v, st)
	}
	b.Store(ty, addr, v)
	l.br(head.Label)
	b.SetBlock(done)
}

func (l *lowerer) next(s *ast.NextStmt) {
	loops := l.ctx.loops
	for i := len(loops) - 1; i >= 0; i-- {
		if loops[i].kind == ast.ExitFor {
			l.br(loops[i].next)
			return
		}
	}
	internalf("NEXT outside FOR")
}

func (l *lowerer) exit(s *ast.ExitStmt) {
	switch s.Kind {
	case ast.ExitSub, ast.ExitFunction:
		l.exitBranch()
		return
	}
	loops := l.ctx.loops
	for i := len(loops) - 1; i >= 0; i-- {
		if loops[i].kind == s.Kind {
			l.br(loops[i].done)
			return
		}
	}
	internalf("EXIT outside its loop")
}
