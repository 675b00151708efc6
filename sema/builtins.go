package sema

import "github.com/strager/basil/ast"

type argKind int

const (
	argNum argKind = iota
	argStr
)

type builtinSig struct {
	min, max int
	// args lists parameter kinds for the longest form.
	args   []argKind
	result func(args []ExprInfo) Category
}

func fixed(c Category) func([]ExprInfo) Category {
	return func([]ExprInfo) Category { return c }
}

// keepInteger returns the argument category for integers and DOUBLE for
// floats.
func keepInteger(args []ExprInfo) Category {
	if len(args) > 0 && args[0].Cat.IsInteger() {
		return args[0].Cat
	}
	return CatDouble
}

func absResult(args []ExprInfo) Category {
	if len(args) > 0 && args[0].Cat.IsFloat() {
		return CatDouble
	}
	return CatI64
}

var builtinSigs = map[ast.Builtin]builtinSig{
	ast.BuiltinLen:   {1, 1, []argKind{argStr}, fixed(CatI64)},
	ast.BuiltinMid:   {2, 3, []argKind{argStr, argNum, argNum}, fixed(CatStr)},
	ast.BuiltinLeft:  {2, 2, []argKind{argStr, argNum}, fixed(CatStr)},
	ast.BuiltinRight: {2, 2, []argKind{argStr, argNum}, fixed(CatStr)},
	ast.BuiltinUCase: {1, 1, []argKind{argStr}, fixed(CatStr)},
	ast.BuiltinLCase: {1, 1, []argKind{argStr}, fixed(CatStr)},
	ast.BuiltinChr:   {1, 1, []argKind{argNum}, fixed(CatStr)},
	ast.BuiltinAsc:   {1, 1, []argKind{argStr}, fixed(CatI64)},
	ast.BuiltinStr:   {1, 1, []argKind{argNum}, fixed(CatStr)},
	ast.BuiltinVal:   {1, 1, []argKind{argStr}, fixed(CatDouble)},
	ast.BuiltinInt:   {1, 1, []argKind{argNum}, keepInteger},
	ast.BuiltinFix:   {1, 1, []argKind{argNum}, keepInteger},
	ast.BuiltinAbs:   {1, 1, []argKind{argNum}, absResult},
	ast.BuiltinSqr:   {1, 1, []argKind{argNum}, fixed(CatDouble)},
	ast.BuiltinSin:   {1, 1, []argKind{argNum}, fixed(CatDouble)},
	ast.BuiltinCos:   {1, 1, []argKind{argNum}, fixed(CatDouble)},
	ast.BuiltinRnd:   {0, 1, []argKind{argNum}, fixed(CatDouble)},
	ast.BuiltinEof:   {1, 1, []argKind{argNum}, fixed(CatBool)},
	ast.BuiltinLof:   {1, 1, []argKind{argNum}, fixed(CatI64)},
	ast.BuiltinLoc:   {1, 1, []argKind{argNum}, fixed(CatI64)},
}

// builtinArgKinds returns the expected kinds for a call with n arguments.
// INSTR takes an optional leading start position.
func builtinArgKinds(b ast.Builtin, n int) []argKind {
	if b == ast.BuiltinInStr {
		if n == 3 {
			return []argKind{argNum, argStr, argStr}
		}
		return []argKind{argStr, argStr}
	}
	return builtinSigs[b].args[:n]
}

func builtinArity(b ast.Builtin) (int, int) {
	if b == ast.BuiltinInStr {
		return 2, 3
	}
	s := builtinSigs[b]
	return s.min, s.max
}

func builtinResult(b ast.Builtin, args []ExprInfo) Category {
	if b == ast.BuiltinInStr {
		return CatI64
	}
	return builtinSigs[b].result(args)
}
