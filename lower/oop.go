package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// newObject allocates an instance of c and runs its constructor. The
// result is released at the end of the statement.
func (l *lowerer) newObject(c *sema.ClassLayout, args []ast.Expr) il.Value {
	if c == nil {
		internalf("NEW of an unknown class")
	}
	obj := l.call(rt.ObjNew, il.ConstInt(c.ClassID, il.I64), il.ConstInt(int64(c.Size), il.I64))
	l.deferObj(obj, c.Name)
	if c.Ctor != nil {
		l.b.Call(c.Ctor.ILName, il.Void, append([]il.Value{obj}, l.args(c.Ctor, args)...)...)
	}
	return obj
}

// args evaluates call arguments against sig's parameters. By-reference
// scalars pass an address; array parameters pass the handle.
func (l *lowerer) args(sig *sema.ProcSig, args []ast.Expr) []il.Value {
	out := make([]il.Value, 0, len(args))
	for i, arg := range args {
		p := sig.Params[i]
		switch {
		case p.IsArray:
			out = append(out, l.expr(arg))
		case p.ByRef:
			out = append(out, l.addressOf(arg, p.Cat.ILType()))
		default:
			out = append(out, l.coerce(l.expr(arg), p.Type))
		}
	}
	return out
}

// addressOf returns the address of an lvalue argument. Other expressions
// are copied into a temporary slot.
func (l *lowerer) addressOf(e ast.Expr, ty il.Type) il.Value {
	switch e := e.(type) {
	case *ast.VarExpr:
		addr, st := l.varAddr(e.Name)
		if st.Type == ty {
			return addr
		}
	case *ast.MemberAccessExpr:
		addr, st := l.memberAddr(e)
		if st.Type == ty {
			return addr
		}
	}
	v := l.coerce(l.expr(e), ty)
	slot := l.b.Alloca(ty.SlotSize())
	l.b.Store(ty, slot, v)
	return slot
}

// result defers the reference a call returns.
func (l *lowerer) result(v il.Value, sig *sema.ProcSig) il.Value {
	switch {
	case sig.RetCat == sema.CatObject:
		l.deferObj(v, sig.RetClass)
	case sig.Ret == il.Str:
		l.deferStr(v)
	}
	return v
}

func (l *lowerer) callProc(e *ast.CallExpr) il.Value {
	sig := l.an.Proc(e.Callee)
	if sig == nil {
		internalf("call to unknown procedure %s", e.Callee)
	}
	v := l.b.Call(sig.ILName, sig.Ret, l.args(sig, e.Args)...)
	return l.result(v, sig)
}

func (l *lowerer) callMethod(e *ast.MethodCallExpr) il.Value {
	base := l.info(e.Base)
	c := l.env.Lookup(base.Class)
	if c == nil {
		internalf("method call on unknown class %q", base.Class)
	}
	m, ok := c.Method(e.Method)
	if !ok {
		internalf("%s has no method %s", c.Name, e.Method)
	}
	obj := l.expr(e.Base)
	args := append([]il.Value{obj}, l.args(m.Sig, e.Args)...)
	v := l.b.Call(m.Sig.ILName, m.Sig.Ret, args...)
	return l.result(v, m.Sig)
}

func (l *lowerer) isInstance(e *ast.IsExpr) il.Value {
	c := l.env.Lookup(e.Class)
	id := l.call(rt.ObjClassID, l.expr(e.Value))
	return l.b.EmitTyped(il.ICmpEq, il.I64, il.I1, id, il.ConstInt(c.ClassID, il.I64))
}

// castAs yields the object when it is an instance of the class and null
// otherwise. The result is borrowed.
func (l *lowerer) castAs(e *ast.AsExpr) il.Value {
	c := l.env.Lookup(e.Class)
	return l.call(rt.CastAs, l.expr(e.Value), il.ConstInt(c.ClassID, il.I64))
}

// deleteObject releases the object a variable or field holds and clears
// it.
func (l *lowerer) deleteObject(s *ast.DeleteStmt) {
	var addr il.Value
	var st sema.SlotType
	switch t := s.Target.(type) {
	case *ast.VarExpr:
		addr, st = l.varAddr(t.Name)
	case *ast.MemberAccessExpr:
		addr, st = l.memberAddr(t)
	default:
		v := l.expr(s.Target)
		l.releaseObject(v, l.info(s.Target).Class)
		return
	}
	old := l.b.Load(il.Ptr, addr)
	l.b.Store(il.Ptr, addr, il.Null())
	l.releaseObject(old, st.ObjectClass)
}

// dimObject gives a record variable a fresh instance. Class variables
// start out null.
func (l *lowerer) dimObject(s *ast.DimStmt) {
	c := l.env.Lookup(s.ObjectClass)
	if c == nil || !c.IsRecord {
		return
	}
	addr, st := l.varAddr(s.Name)
	l.store(addr, st, l.newObject(c, nil))
}

// initFields runs in a constructor's entry block: array fields with
// constant extents are allocated and string fields start empty.
func (l *lowerer) initFields() {
	c := l.ctx.Class
	me := l.b.Load(il.Ptr, l.ctx.me)
	for i := range c.Fields {
		f := &c.Fields[i]
		switch {
		case f.IsArray && len(f.Extents) > 0:
			fam := arrayFamilyOf(f.ElemCategory())
			h := l.call(fam.New, il.ConstInt(sema.ElementCount(f.Extents), il.I64))
			l.b.Store(il.Ptr, l.fieldAddr(me, f), h)
		case !f.IsArray && f.ObjectClass == "" && f.Cat == sema.CatStr:
			l.b.Store(il.Str, l.fieldAddr(me, f), l.call(rt.StrEmpty))
		}
	}
}

// releaseFields runs before a destructor returns.
func (l *lowerer) releaseFields() {
	c := l.ctx.Class
	me := l.b.Load(il.Ptr, l.ctx.me)
	for i := range c.Fields {
		f := &c.Fields[i]
		st := fieldSlot(f)
		if st.IsArray || st.IsObject || st.Type == il.Str {
			l.releaseSlot(l.fieldAddr(me, f), st)
		}
	}
}

var modvarFeatures = map[il.Type]rt.Feature{
	il.I16: rt.ModvarAddrI64,
	il.I32: rt.ModvarAddrI64,
	il.I64: rt.ModvarAddrI64,
	il.F64: rt.ModvarAddrF64,
	il.Str: rt.ModvarAddrStr,
	il.I1:  rt.ModvarAddrI1,
	il.Ptr: rt.ModvarAddrPtr,
}

// modvarAddr asks the runtime for the storage of a module variable.
func (l *lowerer) modvarAddr(name string, ty il.Type) il.Value {
	f, ok := modvarFeatures[ty]
	if !ok {
		internalf("module variable %s has type %s", name, ty)
	}
	return l.call(f, l.constStr(name))
}

// moduleVariables computes the address of every module variable a
// procedure other than main uses.
func (l *lowerer) moduleVariables(names []string) {
	for _, name := range names {
		g := l.env.Globals[name]
		if g == nil {
			internalf("%s is not a module variable", name)
		}
		l.ctx.globals[name] = l.modvarAddr(name, g.Slot().Type)
	}
}
