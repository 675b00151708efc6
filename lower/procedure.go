package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

func hasReceiver(sig *sema.ProcSig) bool {
	return sig.Kind == sema.ProcMethod || sig.Kind == sema.ProcCtor || sig.Kind == sema.ProcDtor
}

func ilParams(sig *sema.ProcSig) []il.Param {
	var out []il.Param
	if hasReceiver(sig) {
		out = append(out, il.Param{Name: "ME", Type: il.Ptr})
	}
	for _, p := range sig.Params {
		out = append(out, il.Param{Name: p.Name, Type: p.Type})
	}
	return out
}

// lowerProcedure builds the skeleton of u and lowers its body. globals
// lists the module variables u uses when it is not main.
func (l *lowerer) lowerProcedure(u *unit, globals []string) *il.Function {
	sig := u.sig
	b := il.NewBuilder(sig.ILName, sig.Ret, ilParams(sig))
	ctx := newProcedureContext(sig, u.class, l.opts.namer(sig.ILName))
	l.ctx, l.b = ctx, b
	T().Debugf("lowering %s", sig.ILName)

	ctx.entry = b.AddBlock(ctx.Names.Entry())
	ctx.entry.Params = append([]il.Param(nil), b.Func.Params...)
	b.SetBlock(ctx.entry)
	b.Loc = ilLoc(u.pos.Loc)

	l.materializeParams(u)
	l.allocateLocals(u)
	l.moduleVariables(globals)
	if sig.Kind == sema.ProcCtor {
		l.initFields()
	}

	if len(u.body) == 0 {
		// Nothing to sequence: the entry block returns directly.
		l.finalReturn(u)
		return b.Finish(ctx.Names.Exit())
	}

	l.skeleton(u.body)
	l.prologues(u.body)
	b.Br(ctx.stmtBlocks[0].Label)
	l.lowerSequence(u.body)

	b.SetBlock(ctx.exit)
	l.finalReturn(u)
	f := b.Finish(ctx.exit.Label)
	T().Debugf("lowered %s: %d blocks", sig.ILName, len(f.Blocks))
	return f
}

// skeleton creates one block per top-level statement, one per labeled
// nested statement and the exit block.
func (l *lowerer) skeleton(body []ast.Stmt) {
	ctx := l.ctx
	for _, s := range body {
		n := ctx.VirtualLine(s)
		blk := l.b.AddBlock(ctx.Names.Line(n))
		ctx.stmtBlocks = append(ctx.stmtBlocks, blk)
		if s.SourceLine() == n {
			ctx.lines[n] = blk
		}
	}
	ast.InspectStmts(body, func(n ast.Node) bool {
		s, ok := n.(ast.Stmt)
		if !ok {
			return true
		}
		if line := s.SourceLine(); line > 0 && ctx.lines[line] == nil {
			ctx.virtual[s] = line
			ctx.lines[line] = l.b.AddBlock(ctx.Names.Line(line))
		}
		return true
	})
	ctx.exit = l.b.AddBlock(ctx.Names.Exit())
}

// prologues allocates the per-procedure slots the body needs in the entry
// block: the GOSUB stack, the resume slot and FOR loop bounds.
func (l *lowerer) prologues(body []ast.Stmt) {
	l.gosubPrologue(body)
	l.handlerPrologue(body)
	ast.InspectStmts(body, func(n ast.Node) bool {
		f, ok := n.(*ast.ForStmt)
		if !ok {
			return true
		}
		ty := l.slotType(f.Var).Type
		l.ctx.forSlots[f] = forSlots{end: l.b.Alloca(8), step: l.b.Alloca(8), ty: ty}
		return true
	})
}

// materializeParams gives every parameter a slot. Reference-counted
// parameters are retained here and released by finalReturn.
func (l *lowerer) materializeParams(u *unit) {
	b, ctx := l.b, l.ctx
	first := 0
	if hasReceiver(u.sig) {
		ctx.me = b.Alloca(8)
		ctx.hasMe = true
		b.Store(il.Ptr, ctx.me, b.Param(0))
		first = 1
	}
	for i, p := range u.sig.Params {
		sym := l.env.Symbols.Find(p.Name)
		if sym == nil {
			internalf("parameter %s of %s has no symbol", p.Name, u.sig.ILName)
		}
		v := b.Param(first + i)
		size := 8
		if v.Type == il.I1 {
			size = 1
		}
		slot := b.Alloca(size)
		b.Store(v.Type, slot, v)
		sym.SlotID = slot.ID
		switch {
		case p.IsArray:
			l.call(arrayFamilyOf(sym.Category()).Retain, v)
		case p.ByRef:
		case p.Cat == sema.CatObject:
			l.call(rt.ObjRetainMaybe, v)
		case p.Cat == sema.CatStr:
			l.call(rt.StrRetainMaybe, v)
		}
	}
}

func (l *lowerer) isReturnSlot(sym *sema.SymbolInfo) bool {
	sig := l.ctx.Sig
	return sig.Kind != sema.ProcMain && sig.ReturnsValue() && sym.Name == sig.Name
}

// allocateLocals gives every referenced local a slot and its initial
// value. Numeric locals start uninitialized; the return slot starts at
// zero.
func (l *lowerer) allocateLocals(u *unit) {
	b := l.b
	for _, sym := range l.env.Symbols.Symbols() {
		if !sym.Referenced || sym.IsParam || sym.SlotID >= 0 {
			continue
		}
		st := sym.Slot()
		var slot il.Value
		if u.sig.Kind == sema.ProcMain && l.env.Shared[sym.Name] {
			slot = l.modvarAddr(sym.Name, st.Type)
		} else {
			size := 8
			if st.Type == il.I1 {
				size = 1
			}
			slot = b.Alloca(size)
		}
		sym.SlotID = slot.ID
		switch {
		case st.IsArray, st.IsObject:
			b.Store(il.Ptr, slot, il.Null())
		case st.IsBoolean:
			b.Store(il.I1, slot, il.Bool(false))
		case st.Type == il.Str:
			b.Store(il.Str, slot, l.call(rt.StrEmpty))
		case l.isReturnSlot(sym):
			b.Store(st.Type, slot, zero(st.Type))
		}
		if st.IsArray && l.opts.BoundsChecks && !l.env.Shared[sym.Name] {
			n := b.Alloca(8)
			b.Store(il.I64, n, il.ConstInt(0, il.I64))
			sym.ArrayLengthSlot = n.ID
		}
	}
}

func zero(t il.Type) il.Value {
	if t == il.F64 {
		return il.ConstFloat(0)
	}
	return il.ConstInt(0, t)
}

// finalReturn releases what the procedure owns and returns.
func (l *lowerer) finalReturn(u *unit) {
	b := l.b
	l.releaseDeferred()
	if u.sig.Kind == sema.ProcDtor {
		l.releaseFields()
	}
	var retSlot *sema.SymbolInfo
	for _, sym := range l.env.Symbols.Symbols() {
		if sym.IsParam || sym.SlotID < 0 {
			continue
		}
		if l.isReturnSlot(sym) {
			retSlot = sym
			continue
		}
		l.releaseSlot(slotOf(sym), sym.Slot())
	}
	for _, p := range u.sig.Params {
		sym := l.env.Symbols.Find(p.Name)
		if p.ByRef && !p.IsArray {
			continue
		}
		l.releaseSlot(slotOf(sym), sym.Slot())
	}

	switch {
	case u.sig.Kind == sema.ProcMain:
		b.Ret(il.ConstInt(0, il.I64))
	case retSlot != nil:
		b.Ret(b.Load(u.sig.Ret, slotOf(retSlot)))
	case u.sig.ReturnsValue():
		internalf("%s returns a value but has no return slot", u.sig.ILName)
	default:
		b.RetVoid()
	}
}

// releaseSlot drops the reference a slot holds, if its type is counted.
func (l *lowerer) releaseSlot(slot il.Value, st sema.SlotType) {
	switch {
	case st.IsArray:
		l.call(arrayFamilyOf(st.Elem).Release, l.b.Load(il.Ptr, slot))
	case st.IsObject:
		l.releaseObject(l.b.Load(il.Ptr, slot), st.ObjectClass)
	case st.Type == il.Str:
		l.call(rt.StrReleaseMaybe, l.b.Load(il.Str, slot))
	}
}

func slotOf(sym *sema.SymbolInfo) il.Value {
	if sym.SlotID < 0 {
		internalf("%s has no slot", sym.Name)
	}
	return il.Temp(sym.SlotID, il.Ptr)
}
