package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// arrayFamily is the set of runtime helpers for one element type.
type arrayFamily struct {
	New, Resize, Len, Get, Set, Retain, Release rt.Feature
	elem                                        il.Type
}

var (
	arrayI32 = arrayFamily{rt.ArrayI32New, rt.ArrayI32Resize, rt.ArrayI32Len, rt.ArrayI32Get, rt.ArrayI32Set, rt.ArrayI32Retain, rt.ArrayI32Release, il.I32}
	arrayF64 = arrayFamily{rt.ArrayF64New, rt.ArrayF64Resize, rt.ArrayF64Len, rt.ArrayF64Get, rt.ArrayF64Set, rt.ArrayF64Retain, rt.ArrayF64Release, il.F64}
	arrayStr = arrayFamily{rt.ArrayStrNew, rt.ArrayStrResize, rt.ArrayStrLen, rt.ArrayStrGet, rt.ArrayStrSet, rt.ArrayStrRetain, rt.ArrayStrRelease, il.Str}
	arrayObj = arrayFamily{rt.ArrayObjNew, rt.ArrayObjResize, rt.ArrayObjLen, rt.ArrayObjGet, rt.ArrayObjSet, rt.ArrayObjRetain, rt.ArrayObjRelease, il.Ptr}
)

// arrayFamilyOf picks the helpers for elements of category c. Integer and
// boolean elements share the i32 family.
func arrayFamilyOf(c sema.Category) arrayFamily {
	switch {
	case c == sema.CatStr:
		return arrayStr
	case c == sema.CatObject:
		return arrayObj
	case c.IsFloat():
		return arrayF64
	}
	return arrayI32
}

// arrayHandle is an array variable resolved for one access.
type arrayHandle struct {
	name   string
	addr   il.Value
	st     sema.SlotType
	sym    *sema.SymbolInfo
	family arrayFamily
}

func (l *lowerer) arrayRef(name string) arrayHandle {
	addr, st := l.varAddr(name)
	if !st.IsArray {
		internalf("%s is not an array", name)
	}
	return arrayHandle{
		name:   sema.Canonical(name),
		addr:   addr,
		st:     st,
		sym:    l.env.Resolve(name).Sym,
		family: arrayFamilyOf(st.Elem),
	}
}

// arrayLen is the element count, from the length slot when bounds checks
// keep one.
func (l *lowerer) arrayLen(h arrayHandle) il.Value {
	if h.sym != nil && h.sym.ArrayLengthSlot >= 0 {
		return l.b.Load(il.I64, il.Temp(h.sym.ArrayLengthSlot, il.Ptr))
	}
	return l.call(h.family.Len, l.b.Load(il.Ptr, h.addr))
}

// extents are the constant per-dimension bounds of an array, if any.
func (l *lowerer) extents(name string) []int64 {
	ref := l.env.Resolve(name)
	if ref.Kind == sema.RefField && ref.Field != nil {
		return ref.Field.Extents
	}
	if ref.Sym != nil {
		return ref.Sym.Extents
	}
	return nil
}

// index flattens the subscripts of e in row-major order and checks the
// result against the array length when bounds checks are on.
func (l *lowerer) index(e *ast.ArrayExpr, h arrayHandle) il.Value {
	b := l.b
	ext := l.extents(e.Name)
	idx := l.coerce(l.expr(e.Indices[0]), il.I64)
	for k := 1; k < len(e.Indices); k++ {
		if k >= len(ext) {
			internalf("array %s indexed with %d subscripts", h.name, len(e.Indices))
		}
		idx = b.Emit(il.IMulOvf, il.I64, idx, il.ConstInt(ext[k]+1, il.I64))
		next := l.coerce(l.expr(e.Indices[k]), il.I64)
		idx = b.Emit(il.IAddOvf, il.I64, idx, next)
	}
	if !l.opts.BoundsChecks {
		return idx
	}

	n := l.arrayLen(h)
	below := b.EmitTyped(il.SCmpLT, il.I64, il.I1, idx, il.ConstInt(0, il.I64))
	above := b.EmitTyped(il.SCmpGE, il.I64, il.I1, idx, n)
	bad := b.Emit(il.Or, il.I1, below, above)
	oob := l.block("bounds_oob")
	ok := l.block("bounds_ok")
	b.CBr(bad, oob.Label, ok.Label)
	b.SetBlock(oob)
	l.call(rt.ArrayOobPanic, idx, n)
	b.Trap()
	b.SetBlock(ok)
	return idx
}

func (l *lowerer) arrayGet(e *ast.ArrayExpr) il.Value {
	h := l.arrayRef(e.Name)
	idx := l.index(e, h)
	v := l.call(h.family.Get, l.b.Load(il.Ptr, h.addr), idx)
	switch h.family.elem {
	case il.Str:
		l.deferStr(v)
	case il.Ptr:
		l.deferObj(v, h.st.ObjectClass)
	}
	return v
}

func (l *lowerer) arraySet(e *ast.ArrayExpr, v il.Value) {
	h := l.arrayRef(e.Name)
	idx := l.index(e, h)
	v = l.coerce(v, h.family.elem)
	l.call(h.family.Set, l.b.Load(il.Ptr, h.addr), idx, v)
}

// elementCount evaluates the number of elements DIM or REDIM allocates.
func (l *lowerer) elementCount(extents []ast.Expr) il.Value {
	if sema.ConstantExtents(extents) {
		var ext []int64
		for _, e := range extents {
			ext = append(ext, e.(*ast.IntExpr).Value)
		}
		return il.ConstInt(sema.ElementCount(ext), il.I64)
	}
	n := l.coerce(l.expr(extents[0]), il.I64)
	return l.b.Emit(il.IAddOvf, il.I64, n, il.ConstInt(1, il.I64))
}

func (l *lowerer) setLength(h arrayHandle, n il.Value) {
	if h.sym != nil && h.sym.ArrayLengthSlot >= 0 {
		l.b.Store(il.I64, il.Temp(h.sym.ArrayLengthSlot, il.Ptr), n)
	}
}

// dimArray replaces the array with a fresh one of the declared size.
func (l *lowerer) dimArray(s *ast.DimStmt) {
	if len(s.Extents) == 0 {
		return
	}
	n := l.elementCount(s.Extents)
	h := l.arrayRef(s.Name)
	fresh := l.call(h.family.New, n)
	old := l.b.Load(il.Ptr, h.addr)
	l.b.Store(il.Ptr, h.addr, fresh)
	l.call(h.family.Release, old)
	l.setLength(h, n)
}

func (l *lowerer) redimArray(s *ast.ReDimStmt) {
	n := l.elementCount(s.Extents)
	h := l.arrayRef(s.Name)
	old := l.b.Load(il.Ptr, h.addr)
	resized := l.call(h.family.Resize, old, n)
	l.b.Store(il.Ptr, h.addr, resized)
	l.setLength(h, n)
}
