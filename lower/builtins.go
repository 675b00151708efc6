package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// strResult marks a builtin result as a fresh string.
func (l *lowerer) strResult(v il.Value) il.Value {
	l.deferStr(v)
	return v
}

func (l *lowerer) builtin(e *ast.BuiltinCallExpr, info sema.ExprInfo) il.Value {
	b := l.b
	arg := func(i int, ty il.Type) il.Value {
		return l.coerce(l.expr(e.Args[i]), ty)
	}
	argCat := sema.CatUnknown
	if len(e.Args) > 0 {
		argCat = l.info(e.Args[0]).Cat
	}

	switch e.Builtin {
	case ast.BuiltinLen:
		return l.call(rt.Len, arg(0, il.Str))
	case ast.BuiltinMid:
		if len(e.Args) == 3 {
			return l.strResult(l.call(rt.Mid3, arg(0, il.Str), arg(1, il.I64), arg(2, il.I64)))
		}
		return l.strResult(l.call(rt.Mid2, arg(0, il.Str), arg(1, il.I64)))
	case ast.BuiltinLeft:
		return l.strResult(l.call(rt.Left, arg(0, il.Str), arg(1, il.I64)))
	case ast.BuiltinRight:
		return l.strResult(l.call(rt.Right, arg(0, il.Str), arg(1, il.I64)))
	case ast.BuiltinUCase:
		return l.strResult(l.call(rt.UCase, arg(0, il.Str)))
	case ast.BuiltinLCase:
		return l.strResult(l.call(rt.LCase, arg(0, il.Str)))
	case ast.BuiltinChr:
		return l.strResult(l.call(rt.Chr, arg(0, il.I64)))
	case ast.BuiltinAsc:
		return l.call(rt.Asc, arg(0, il.Str))
	case ast.BuiltinInStr:
		if len(e.Args) == 3 {
			return l.call(rt.InStr3, arg(0, il.I64), arg(1, il.Str), arg(2, il.Str))
		}
		return l.call(rt.InStr2, arg(0, il.Str), arg(1, il.Str))
	case ast.BuiltinStr:
		f := strFeature(argCat)
		return l.strResult(l.call(f, arg(0, f.Signature().Params[0])))
	case ast.BuiltinVal:
		return l.call(rt.Val, arg(0, il.Str))
	case ast.BuiltinInt, ast.BuiltinFix:
		if !argCat.IsFloat() {
			return arg(0, info.Cat.ILType())
		}
		if e.Builtin == ast.BuiltinInt {
			return l.call(rt.IntFloor, arg(0, il.F64))
		}
		return l.call(rt.FixTrunc, arg(0, il.F64))
	case ast.BuiltinAbs:
		if argCat.IsFloat() {
			return l.call(rt.AbsF64, arg(0, il.F64))
		}
		return l.call(rt.AbsI64, arg(0, il.I64))
	case ast.BuiltinSqr:
		return l.call(rt.Sqrt, arg(0, il.F64))
	case ast.BuiltinSin:
		return l.call(rt.Sin, arg(0, il.F64))
	case ast.BuiltinCos:
		return l.call(rt.Cos, arg(0, il.F64))
	case ast.BuiltinRnd:
		// The argument only selects the sequence in older dialects.
		for _, a := range e.Args {
			l.expr(a)
		}
		return l.call(rt.Rnd)
	case ast.BuiltinEof:
		r := l.call(rt.EofCh, arg(0, il.I32))
		return b.EmitTyped(il.ICmpNe, il.I32, il.I1, r, il.ConstInt(0, il.I32))
	case ast.BuiltinLof:
		return l.call(rt.LofCh, arg(0, il.I32))
	case ast.BuiltinLoc:
		return l.call(rt.LocCh, arg(0, il.I32))
	}
	internalf("unhandled builtin %s", e.Builtin)
	return il.Value{}
}
