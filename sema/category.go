package sema

import (
	"fmt"
	"math"
	"strings"

	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

// Category is the semantic type of an expression. It refines ast.Type with
// integer widths and single/double precision.
type Category int

const (
	CatUnknown Category = iota
	CatI16
	CatI32
	CatI64
	CatSingle
	CatDouble
	CatStr
	CatBool
	CatObject
)

var categoryNames = [...]string{
	CatUnknown: "unknown",
	CatI16:     "INTEGER",
	CatI32:     "LONG32",
	CatI64:     "LONG",
	CatSingle:  "SINGLE",
	CatDouble:  "DOUBLE",
	CatStr:     "STRING",
	CatBool:    "BOOLEAN",
	CatObject:  "OBJECT",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) IsInteger() bool { return c == CatI16 || c == CatI32 || c == CatI64 }
func (c Category) IsFloat() bool   { return c == CatSingle || c == CatDouble }

// IsNumeric includes BOOLEAN, which BASIC treats as the integers -1 and 0.
func (c Category) IsNumeric() bool {
	return c.IsInteger() || c.IsFloat() || c == CatBool
}

// ILType is the IL type a value of category c is carried in.
func (c Category) ILType() il.Type {
	switch c {
	case CatI16:
		return il.I16
	case CatI32:
		return il.I32
	case CatI64:
		return il.I64
	case CatSingle, CatDouble:
		return il.F64
	case CatStr:
		return il.Str
	case CatBool:
		return il.I1
	case CatObject:
		return il.Ptr
	}
	return il.I64
}

// AstType maps c back onto the four scalar AST types.
func (c Category) AstType() ast.Type {
	switch {
	case c.IsFloat():
		return ast.F64
	case c == CatStr:
		return ast.Str
	case c == CatBool:
		return ast.Bool
	}
	return ast.I64
}

// SuffixCategory derives a category from a BASIC type suffix.
func SuffixCategory(name string) Category {
	switch {
	case strings.HasSuffix(name, "$"):
		return CatStr
	case strings.HasSuffix(name, "#"):
		return CatDouble
	case strings.HasSuffix(name, "!"):
		return CatSingle
	case strings.HasSuffix(name, "%"):
		return CatI16
	}
	return CatI64
}

// categoryOfDeclared refines an explicit type with the suffix when they
// agree, so DIM X% AS INTEGER keeps the 16-bit width.
func categoryOfDeclared(name string, t ast.Type) Category {
	suffix := SuffixCategory(name)
	if suffix.AstType() == t {
		return suffix
	}
	return CategoryOf(t)
}

// CategoryOf maps an AST type to its widest category.
func CategoryOf(t ast.Type) Category {
	switch t {
	case ast.F64:
		return CatDouble
	case ast.Str:
		return CatStr
	case ast.Bool:
		return CatBool
	}
	return CatI64
}

// LiteralCategory is the narrowest integer category holding v.
func LiteralCategory(v int64) Category {
	switch {
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return CatI16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return CatI32
	}
	return CatI64
}

func intRank(c Category) int {
	switch c {
	case CatI16:
		return 1
	case CatI32:
		return 2
	}
	return 3
}

// CommonInteger is the wider of two integer categories. BOOLEAN operands
// count as LONG.
func CommonInteger(a, b Category) Category {
	if !a.IsInteger() {
		a = CatI64
	}
	if !b.IsInteger() {
		b = CatI64
	}
	if intRank(a) >= intRank(b) {
		return a
	}
	return b
}

// Promote returns the category arithmetic on a and b is carried out in.
func Promote(a, b Category) Category {
	if a.IsFloat() || b.IsFloat() {
		return CatDouble
	}
	return CommonInteger(a, b)
}

// FoldedCategory sizes arithmetic between two integer literals so the
// folded result fits. It reports false when the operation overflows 64 bits.
func FoldedCategory(op ast.BinaryOp, x, y int64) (Category, bool) {
	var r int64
	switch op {
	case ast.OpAdd:
		r = x + y
		if (y > 0 && r < x) || (y < 0 && r > x) {
			return CatI64, false
		}
	case ast.OpSub:
		r = x - y
		if (y < 0 && r < x) || (y > 0 && r > x) {
			return CatI64, false
		}
	case ast.OpMul:
		r = x * y
		if x != 0 && (r/x != y || (x == -1 && y == math.MinInt64)) {
			return CatI64, false
		}
	default:
		return CommonInteger(LiteralCategory(x), LiteralCategory(y)), true
	}
	return CommonInteger(CommonInteger(LiteralCategory(x), LiteralCategory(y)), LiteralCategory(r)), true
}
