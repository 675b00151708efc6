package sema

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

func TestSuffixCategory(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"A", CatI64},
		{"A%", CatI16},
		{"A#", CatDouble},
		{"A!", CatSingle},
		{"A$", CatStr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, SuffixCategory(tt.name), tt.want)
		})
	}
}

func TestLiteralCategory(t *testing.T) {
	be.Equal(t, LiteralCategory(0), CatI16)
	be.Equal(t, LiteralCategory(32767), CatI16)
	be.Equal(t, LiteralCategory(-32768), CatI16)
	be.Equal(t, LiteralCategory(32768), CatI32)
	be.Equal(t, LiteralCategory(-2147483648), CatI32)
	be.Equal(t, LiteralCategory(2147483648), CatI64)
}

func TestFoldedCategory(t *testing.T) {
	tests := []struct {
		name   string
		op     ast.BinaryOp
		x, y   int64
		want   Category
		wantOK bool
	}{
		{"small product", ast.OpMul, 2, 3, CatI16, true},
		{"product widens", ast.OpMul, 1000, 1000, CatI32, true},
		{"sum widens", ast.OpAdd, 32767, 1, CatI32, true},
		{"difference widens", ast.OpSub, -32768, 1, CatI32, true},
		{"division keeps operand width", ast.OpIDiv, 40000, 2, CatI32, true},
		{"overflow", ast.OpMul, 1 << 62, 4, CatI64, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FoldedCategory(tt.op, tt.x, tt.y)
			be.Equal(t, got, tt.want)
			be.Equal(t, ok, tt.wantOK)
		})
	}
}

func TestPromote(t *testing.T) {
	be.Equal(t, Promote(CatI16, CatI32), CatI32)
	be.Equal(t, Promote(CatI16, CatSingle), CatDouble)
	be.Equal(t, Promote(CatBool, CatI16), CatI64)
	be.Equal(t, CatI16.ILType(), il.I16)
	be.Equal(t, CatSingle.ILType(), il.F64)
	be.Equal(t, CatBool.ILType(), il.I1)
}

func TestSuggest(t *testing.T) {
	got, ok := Suggest("COUNTR", []string{"TOTAL", "COUNTER"})
	be.True(t, ok)
	be.Equal(t, got, "COUNTER")

	_, ok = Suggest("X", []string{"TOTAL"})
	be.True(t, !ok)

	_, ok = Suggest("total", []string{"TOTAL"})
	be.True(t, !ok)
}

func TestInternStringReusesLabels(t *testing.T) {
	st := NewSymbolTable()
	be.Equal(t, st.InternString("hi"), ".L0")
	be.Equal(t, st.InternString("bye"), ".L1")
	be.Equal(t, st.InternString("hi"), ".L0")

	st.Ensure("X")
	st.ResetForNewProcedure()
	be.True(t, st.Find("X") == nil)
	be.Equal(t, st.InternString("bye"), ".L1")
	be.Equal(t, len(st.Literals()), 2)
}

func TestSymbolsAreCaseInsensitive(t *testing.T) {
	st := NewSymbolTable()
	st.SetType("total", ast.F64)
	be.True(t, st.HasExplicitType("TOTAL"))
	be.Equal(t, st.Find("Total").Name, "TOTAL")
	be.Equal(t, st.CategoryOf("TOTAL"), CatDouble)
}

func TestBuildLayout(t *testing.T) {
	c := BuildLayout("point", []ast.Field{
		{Name: "x", Type: ast.I64},
		{Name: "ok", Type: ast.Bool},
		{Name: "name$", Type: ast.Str},
	}, 1)
	be.Equal(t, c.Name, "POINT")
	be.Equal(t, c.Fields[0].Offset, 0)
	be.Equal(t, c.Fields[1].Offset, 8)
	be.Equal(t, c.Fields[1].Size, 1)
	be.Equal(t, c.Fields[2].Offset, 16)
	be.Equal(t, c.Size, 24)

	f, ok := c.Field("Name$")
	be.True(t, ok)
	be.Equal(t, f.SlotType(), il.Str)
}

func TestElementCount(t *testing.T) {
	be.Equal(t, ElementCount([]int64{10}), int64(11))
	be.Equal(t, ElementCount([]int64{2, 3}), int64(12))
	be.Equal(t, ElementCount(nil), int64(1))
}
