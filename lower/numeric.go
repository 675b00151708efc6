package lower

import (
	"math"

	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

func fits(v int64, t il.Type) bool {
	switch t {
	case il.I16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case il.I32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	}
	return true
}

// coerce converts v to type to. Booleans widen to -1 and 0; narrowing is
// checked at run time.
func (l *lowerer) coerce(v il.Value, to il.Type) il.Value {
	b := l.b
	from := v.Type
	switch {
	case from == to:
		return v
	case to == il.I1:
		if from == il.F64 {
			return b.EmitTyped(il.FCmpNE, il.F64, il.I1, v, il.ConstFloat(0))
		}
		if !from.IsInteger() {
			internalf("cannot convert %s to i1", from)
		}
		return b.EmitTyped(il.ICmpNe, from, il.I1, v, il.ConstInt(0, from))
	case from == il.I1:
		if v.Kind == il.ValueConstInt {
			return l.coerce(il.ConstInt(-v.Int, il.I64), to)
		}
		x := b.Emit(il.Zext1, il.I64, v)
		x = b.Emit(il.ISubOvf, il.I64, il.ConstInt(0, il.I64), x)
		return l.coerce(x, to)
	case from.IsInteger() && to.IsInteger():
		if from.Bits() < to.Bits() || (v.Kind == il.ValueConstInt && fits(v.Int, to)) {
			v.Type = to
			return v
		}
		return b.Emit(il.CastSiNarrowChk, to, v)
	case from.IsInteger() && to == il.F64:
		if v.Kind == il.ValueConstInt {
			return il.ConstFloat(float64(v.Int))
		}
		return b.Emit(il.CastSiToFp, il.F64, v)
	case from == il.F64 && to.IsInteger():
		return l.coerce(l.call(rt.F64ToI64, v), to)
	}
	internalf("cannot convert %s to %s", from, to)
	return il.Value{}
}

// arith lowers + - * / \ MOD and ^ on numbers. The operation is carried
// out in the IL type of the expression's category.
func (l *lowerer) arith(e *ast.BinaryExpr, cat sema.Category) il.Value {
	b := l.b
	switch e.Op {
	case ast.OpDiv:
		x := l.coerce(l.expr(e.X), il.F64)
		y := l.coerce(l.expr(e.Y), il.F64)
		return b.Emit(il.FDiv, il.F64, x, y)
	case ast.OpPow:
		x := l.coerce(l.expr(e.X), il.F64)
		y := l.coerce(l.expr(e.Y), il.F64)
		return l.call(rt.Pow, x, y)
	}

	ty := cat.ILType()
	x := l.coerce(l.expr(e.X), ty)
	y := l.coerce(l.expr(e.Y), ty)
	if ty == il.F64 {
		switch e.Op {
		case ast.OpAdd:
			return b.Emit(il.FAdd, ty, x, y)
		case ast.OpSub:
			return b.Emit(il.FSub, ty, x, y)
		case ast.OpMul:
			return b.Emit(il.FMul, ty, x, y)
		}
	} else {
		switch e.Op {
		case ast.OpAdd:
			return b.Emit(il.IAddOvf, ty, x, y)
		case ast.OpSub:
			return b.Emit(il.ISubOvf, ty, x, y)
		case ast.OpMul:
			return b.Emit(il.IMulOvf, ty, x, y)
		case ast.OpIDiv:
			return b.Emit(il.SDivChk0, ty, x, y)
		case ast.OpMod:
			return b.Emit(il.SRemChk0, ty, x, y)
		}
	}
	internalf("operator %s on %s", e.Op, cat)
	return il.Value{}
}

var intCompare = map[ast.BinaryOp]il.Opcode{
	ast.OpEq: il.ICmpEq, ast.OpNe: il.ICmpNe,
	ast.OpLt: il.SCmpLT, ast.OpLe: il.SCmpLE, ast.OpGt: il.SCmpGT, ast.OpGe: il.SCmpGE,
}

var floatCompare = map[ast.BinaryOp]il.Opcode{
	ast.OpEq: il.FCmpEQ, ast.OpNe: il.FCmpNE,
	ast.OpLt: il.FCmpLT, ast.OpLe: il.FCmpLE, ast.OpGt: il.FCmpGT, ast.OpGe: il.FCmpGE,
}

// compareValues compares two numbers of categories xc and yc and yields
// an i1.
func (l *lowerer) compareValues(op ast.BinaryOp, x il.Value, xc sema.Category, y il.Value, yc sema.Category) il.Value {
	ty := sema.Promote(xc, yc).ILType()
	x, y = l.coerce(x, ty), l.coerce(y, ty)
	if ty == il.F64 {
		return l.b.EmitTyped(floatCompare[op], ty, il.I1, x, y)
	}
	return l.b.EmitTyped(intCompare[op], ty, il.I1, x, y)
}

// strEq compares two strings and yields an i1, negated for <>.
func (l *lowerer) strEq(x, y il.Value, negate bool) il.Value {
	eq := l.call(rt.StrEq, x, y)
	if negate {
		return l.b.Emit(il.Xor, il.I1, eq, il.Bool(true))
	}
	return eq
}

func (l *lowerer) compare(e *ast.BinaryExpr) il.Value {
	xc, yc := l.info(e.X).Cat, l.info(e.Y).Cat
	x, y := l.expr(e.X), l.expr(e.Y)
	if xc == sema.CatStr {
		eq := l.call(rt.StrEq, x, y)
		if e.Op == ast.OpEq {
			return eq
		}
		// <> yields the BASIC truth values -1 and 0.
		t := l.coerce(eq, il.I64)
		return l.b.Emit(il.Xor, il.I64, t, il.ConstInt(-1, il.I64))
	}
	return l.compareValues(e.Op, x, xc, y, yc)
}

// logical lowers AND, OR and XOR. Booleans use i1; integers are bitwise in
// the result's width.
func (l *lowerer) logical(e *ast.BinaryExpr, cat sema.Category) il.Value {
	ty := cat.ILType()
	x := l.coerce(l.expr(e.X), ty)
	y := l.coerce(l.expr(e.Y), ty)
	op := map[ast.BinaryOp]il.Opcode{ast.OpAnd: il.And, ast.OpOr: il.Or, ast.OpXor: il.Xor}[e.Op]
	return l.b.Emit(op, ty, x, y)
}

func (l *lowerer) unary(e *ast.UnaryExpr, info sema.ExprInfo) il.Value {
	b := l.b
	ty := info.Cat.ILType()
	if info.IsConst {
		return il.ConstInt(info.Int, ty)
	}
	x := l.coerce(l.expr(e.X), ty)
	switch e.Op {
	case ast.UnaryPlus:
		return x
	case ast.UnaryNot:
		if ty == il.I1 {
			return b.Emit(il.Xor, il.I1, x, il.Bool(true))
		}
		return b.Emit(il.Xor, ty, x, il.ConstInt(-1, ty))
	}
	if ty == il.F64 {
		return b.Emit(il.FSub, il.F64, il.ConstFloat(0), x)
	}
	return b.Emit(il.ISubOvf, ty, il.ConstInt(0, ty), x)
}
