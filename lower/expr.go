package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// expr lowers e to a value of its category's IL type. String <> is the
// exception: it yields an i64 truth value.
func (l *lowerer) expr(e ast.Expr) il.Value {
	info := l.info(e)
	v := l.exprValue(e, info)
	if bin, ok := e.(*ast.BinaryExpr); ok && bin.Op == ast.OpNe && v.Type == il.I64 && info.Cat == sema.CatBool {
		return v
	}
	if info.Cat.IsNumeric() && !info.IsArray && v.Type != il.Void {
		return l.coerce(v, info.Cat.ILType())
	}
	return v
}

func (l *lowerer) exprValue(e ast.Expr, info sema.ExprInfo) il.Value {
	b := l.b
	switch e := e.(type) {
	case *ast.IntExpr:
		return il.ConstInt(e.Value, info.Cat.ILType())
	case *ast.FloatExpr:
		return il.ConstFloat(e.Value)
	case *ast.StringExpr:
		return l.str(e.Value)
	case *ast.BoolExpr:
		return il.Bool(e.Value)
	case *ast.VarExpr:
		addr, st := l.varAddr(e.Name)
		return b.Load(st.Type, addr)
	case *ast.ArrayExpr:
		return l.arrayGet(e)
	case *ast.UnaryExpr:
		return l.unary(e, info)
	case *ast.BinaryExpr:
		return l.binary(e, info)
	case *ast.BuiltinCallExpr:
		return l.builtin(e, info)
	case *ast.LBoundExpr:
		return il.ConstInt(0, il.I64)
	case *ast.UBoundExpr:
		n := l.arrayLen(l.arrayRef(e.Name))
		return b.Emit(il.ISubOvf, il.I64, n, il.ConstInt(1, il.I64))
	case *ast.CallExpr:
		return l.callProc(e)
	case *ast.NewExpr:
		return l.newObject(l.env.Lookup(e.Class), e.Args)
	case *ast.MeExpr:
		return b.Load(il.Ptr, l.ctx.me)
	case *ast.MemberAccessExpr:
		addr, st := l.memberAddr(e)
		return b.Load(st.Type, addr)
	case *ast.MethodCallExpr:
		return l.callMethod(e)
	case *ast.IsExpr:
		return l.isInstance(e)
	case *ast.AsExpr:
		return l.castAs(e)
	}
	internalf("unexpected expression %T", e)
	return il.Value{}
}

func (l *lowerer) binary(e *ast.BinaryExpr, info sema.ExprInfo) il.Value {
	switch {
	case e.Op.IsComparison():
		return l.compare(e)
	case e.Op.IsLogical():
		return l.logical(e, info.Cat)
	case info.Cat == sema.CatStr:
		x, y := l.expr(e.X), l.expr(e.Y)
		v := l.call(rt.Concat, x, y)
		l.deferStr(v)
		return v
	}
	return l.arith(e, info.Cat)
}

// slotType is the storage shape of an unqualified name.
func (l *lowerer) slotType(name string) sema.SlotType {
	ref := l.env.Resolve(name)
	if ref.Sym == nil {
		internalf("%s does not resolve", name)
	}
	return ref.Sym.Slot()
}

// varAddr returns the address of an unqualified variable and its storage
// shape.
func (l *lowerer) varAddr(name string) (il.Value, sema.SlotType) {
	b := l.b
	key := sema.Canonical(name)
	ref := l.env.Resolve(key)
	switch ref.Kind {
	case sema.RefParam:
		slot := slotOf(ref.Sym)
		if ref.Sym.IsByRefParam && !ref.Sym.IsArray {
			return b.Load(il.Ptr, slot), ref.Sym.Slot()
		}
		return slot, ref.Sym.Slot()
	case sema.RefLocal:
		return slotOf(ref.Sym), ref.Sym.Slot()
	case sema.RefGlobal:
		if l.env.InMain() {
			return slotOf(ref.Sym), ref.Sym.Slot()
		}
		addr, ok := l.ctx.globals[key]
		if !ok {
			internalf("module variable %s has no address in %s", key, l.ctx.Sig.ILName)
		}
		return addr, ref.Sym.Slot()
	case sema.RefField:
		me := b.Load(il.Ptr, l.ctx.me)
		return l.fieldAddr(me, ref.Field), ref.Sym.Slot()
	}
	internalf("undeclared variable %s", key)
	return il.Value{}, sema.SlotType{}
}

func (l *lowerer) fieldAddr(obj il.Value, f *sema.FieldInfo) il.Value {
	if f.Offset == 0 {
		return obj
	}
	return l.b.Emit(il.Add, il.Ptr, obj, il.ConstInt(int64(f.Offset), il.I64))
}

func fieldSlot(f *sema.FieldInfo) sema.SlotType {
	st := sema.SlotType{Type: f.SlotType(), ObjectClass: f.ObjectClass}
	switch {
	case f.IsArray:
		st.IsArray = true
		st.Elem = f.ElemCategory()
	case f.ObjectClass != "":
		st.IsObject = true
	case f.Cat == sema.CatBool:
		st.IsBoolean = true
	}
	return st
}

// memberAddr evaluates the object of obj.field and returns the field's
// address.
func (l *lowerer) memberAddr(e *ast.MemberAccessExpr) (il.Value, sema.SlotType) {
	base := l.info(e.Base)
	c := l.env.Lookup(base.Class)
	if c == nil {
		internalf("member access on unknown class %q", base.Class)
	}
	f, ok := c.Field(e.Member)
	if !ok {
		internalf("%s has no field %s", c.Name, e.Member)
	}
	obj := l.expr(e.Base)
	return l.fieldAddr(obj, f), fieldSlot(f)
}

// store writes v to addr, which has storage shape st.
func (l *lowerer) store(addr il.Value, st sema.SlotType, v il.Value) {
	switch {
	case st.IsObject:
		l.storeObj(addr, v, st.ObjectClass)
	case st.Type == il.Str:
		l.storeStr(addr, v)
	case st.IsArray:
		internalf("assignment to a whole array")
	default:
		l.b.Store(st.Type, addr, l.coerce(v, st.Type))
	}
}

// assign stores v into a variable, array element or field.
func (l *lowerer) assign(target ast.Expr, v il.Value) {
	switch t := target.(type) {
	case *ast.VarExpr:
		addr, st := l.varAddr(t.Name)
		l.store(addr, st, v)
	case *ast.ArrayExpr:
		l.arraySet(t, v)
	case *ast.MemberAccessExpr:
		addr, st := l.memberAddr(t)
		l.store(addr, st, v)
	default:
		internalf("cannot assign to %T", target)
	}
}

// targetCategory is the category a value assigned to target must have.
func (l *lowerer) targetCategory(target ast.Expr) sema.Category {
	info, ok := l.an.Types[target]
	if !ok {
		internalf("assignment target %T was never analyzed", target)
	}
	return info.Cat
}
