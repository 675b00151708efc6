package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
)

// gosubState is the per-procedure GOSUB machinery: a stack of i32 return
// indexes and a continuation block for every GOSUB site.
type gosubState struct {
	enabled bool
	sp      il.Value
	stack   il.Value

	index map[*ast.GosubStmt]int
	conts []*il.Block

	overflow *il.Block
	empty    *il.Block
}

// gosubPrologue numbers the GOSUB sites of body and, when any GOSUB or
// RETURN from one exists, allocates the return stack in the entry block.
func (l *lowerer) gosubPrologue(body []ast.Stmt) {
	g := &l.ctx.gosub
	g.index = map[*ast.GosubStmt]int{}
	ast.InspectStmts(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.GosubStmt:
			g.index[n] = len(g.conts)
			g.conts = append(g.conts, l.block("gosub_cont"))
			g.enabled = true
		case *ast.ReturnStmt:
			if n.IsGosubReturn {
				g.enabled = true
			}
		}
		return true
	})
	if !g.enabled {
		return
	}
	b := l.b
	g.sp = b.Alloca(8)
	b.Store(il.I64, g.sp, il.ConstInt(0, il.I64))
	g.stack = b.Alloca(l.opts.gosubDepth() * 4)
	T().Debugf("%s: %d GOSUB site(s), stack depth %d", l.ctx.Sig.ILName, len(g.conts), l.opts.gosubDepth())
}

// gosubTrap fills blk with a trap carrying msg.
func (l *lowerer) gosubTrap(blk *il.Block, msg string) {
	l.b.SetBlock(blk)
	l.call(rt.Trap, l.constStr(msg))
	l.b.Trap()
}

// stackEntry is the address of return stack slot i.
func (l *lowerer) stackEntry(i il.Value) il.Value {
	b := l.b
	off := b.Emit(il.Shl, il.I64, i, il.ConstInt(2, il.I64))
	return b.Emit(il.Add, il.Ptr, l.ctx.gosub.stack, off)
}

// gosub pushes the index of the site and jumps to the target line. The
// site's continuation block is where RETURN resumes.
func (l *lowerer) gosub(s *ast.GosubStmt) {
	b := l.b
	g := &l.ctx.gosub
	idx, ok := g.index[s]
	if !ok {
		internalf("GOSUB at line %d was not numbered", s.Line)
	}
	target := l.lineBlock(s.Target)
	l.releaseDeferred()

	sp := b.Load(il.I64, g.sp)
	full := b.EmitTyped(il.SCmpGE, il.I64, il.I1, sp, il.ConstInt(int64(l.opts.gosubDepth()), il.I64))
	push := l.block("gosub_push")
	fresh := g.overflow == nil
	if fresh {
		g.overflow = l.block("gosub_overflow")
	}
	b.CBr(full, g.overflow.Label, push.Label)
	if fresh {
		l.gosubTrap(g.overflow, "gosub: stack overflow")
	}

	b.SetBlock(push)
	b.Store(il.I32, l.stackEntry(sp), il.ConstInt(int64(idx), il.I32))
	b.Store(il.I64, g.sp, b.Emit(il.Add, il.I64, sp, il.ConstInt(1, il.I64)))
	b.Br(target.Label)

	b.SetBlock(g.conts[idx])
}

// gosubReturn pops a return index and dispatches to the matching
// continuation.
func (l *lowerer) gosubReturn() {
	b := l.b
	g := &l.ctx.gosub
	l.releaseDeferred()

	sp := b.Load(il.I64, g.sp)
	isEmpty := b.EmitTyped(il.ICmpEq, il.I64, il.I1, sp, il.ConstInt(0, il.I64))
	pop := l.block("gosub_pop")
	fresh := g.empty == nil
	if fresh {
		g.empty = l.block("gosub_empty")
	}
	b.CBr(isEmpty, g.empty.Label, pop.Label)
	if fresh {
		l.gosubTrap(g.empty, "gosub: empty return stack")
	}

	b.SetBlock(pop)
	top := b.Emit(il.Sub, il.I64, sp, il.ConstInt(1, il.I64))
	b.Store(il.I64, g.sp, top)
	idx := b.Load(il.I32, l.stackEntry(top))
	for i, cont := range g.conts {
		hit := b.EmitTyped(il.ICmpEq, il.I32, il.I1, idx, il.ConstInt(int64(i), il.I32))
		miss := l.block("gosub_dispatch")
		b.CBr(hit, cont.Label, miss.Label)
		b.SetBlock(miss)
	}
	l.call(rt.Trap, l.constStr("gosub: invalid return index"))
	b.Trap()
}
