package il

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func sampleModule() *Module {
	return &Module{
		Externs: []Extern{{Name: "rt_print_i64", Ret: Void, Params: []Type{I64}}},
		Globals: []Global{{Name: ".L0", Value: "hi\n"}},
		Functions: []*Function{{
			Name: "main",
			Ret:  I64,
			Blocks: []*Block{
				{Label: "entry_main", Instrs: []Instr{
					{Result: 0, Op: Alloca, Type: Ptr, Operands: []Value{ConstInt(8, I64)}},
					{Result: -1, Op: Br, Labels: []string{"L10_main"}},
				}},
				{Label: "L10_main", Instrs: []Instr{
					{Result: 1, Op: IAddOvf, Type: I64, Operands: []Value{ConstInt(1, I64), ConstInt(2, I64)}},
					{Result: -1, Op: Call, Type: Void, Callee: "rt_print_i64", Operands: []Value{Temp(1, I64)}},
					{Result: -1, Op: Br, Labels: []string{"ret_main"}},
				}},
				{Label: "ret_main", Instrs: []Instr{
					{Result: -1, Op: Ret, Type: I64, Operands: []Value{ConstInt(0, I64)}},
				}},
			},
		}},
	}
}

func TestPrintModule(t *testing.T) {
	got := sampleModule().String()
	want := `il 0.1.2

extern @rt_print_i64(i64) -> void

global const str @.L0 = "hi\n"

func @main() -> i64 {
entry_main:
  %t0 = alloca 8
  br L10_main
L10_main:
  %t1 = iadd.ovf i64 1, 2
  call @rt_print_i64(%t1)
  br ret_main
ret_main:
  ret 0
}
`
	be.Equal(t, got, want)
}

func TestPrintLocs(t *testing.T) {
	m := sampleModule()
	m.Functions[0].Blocks[1].Instrs[0].Loc = Loc{File: "a.bas", Line: 10, Column: 4}
	var sb strings.Builder
	err := (&Printer{Locs: true}).Print(&sb, m)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(sb.String(), "  .loc \"a.bas\" 10 4\n  %t1 = iadd.ovf i64 1, 2\n"))
}

func TestFormatValues(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Temp(3, I64), "%t3"},
		{ConstInt(-32768, I16), "-32768"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{ConstFloat(1), "1.0"},
		{ConstFloat(0.5), "0.5"},
		{GlobalRef(".L2", Str), "@.L2"},
		{Null(), "null"},
	}
	for _, test := range tests {
		be.Equal(t, test.value.String(), test.want)
	}
}

func TestVerifyAcceptsWellFormedModule(t *testing.T) {
	be.Err(t, Verify(sampleModule()), nil)
}

func TestVerifyRejectsUnterminatedBlock(t *testing.T) {
	m := sampleModule()
	b := m.Functions[0].Blocks[2]
	b.Instrs = nil
	err := Verify(m)
	errContains(t, err, "block ret_main is not terminated")
}

func TestVerifyRejectsNonMonotonicTemps(t *testing.T) {
	m := sampleModule()
	m.Functions[0].Blocks[1].Instrs[0].Result = 0
	errContains(t, Verify(m), "does not follow")
}

func TestVerifyRejectsExternMismatch(t *testing.T) {
	m := sampleModule()
	m.Externs = append(m.Externs, Extern{Name: "rt_concat", Ret: Str, Params: []Type{Str, Str}})
	errContains(t, Verify(m), "extern @rt_concat is never called")

	m = sampleModule()
	m.Externs = nil
	errContains(t, Verify(m), "call to undeclared @rt_print_i64")
}

func TestVerifyHandlerBalance(t *testing.T) {
	m := sampleModule()
	entry := m.Functions[0].Blocks[0]
	entry.Instrs = append([]Instr{{Result: -1, Op: EhPush, Labels: []string{"L10_main"}}}, entry.Instrs...)
	errContains(t, Verify(m), "live exception frames")

	ret := m.Functions[0].Blocks[2]
	ret.Instrs = append([]Instr{{Result: -1, Op: EhPop}}, ret.Instrs...)
	be.Err(t, Verify(m), nil)
}

func TestVerifyHandlerPopWithoutPush(t *testing.T) {
	m := sampleModule()
	ret := m.Functions[0].Blocks[2]
	ret.Instrs = append([]Instr{{Result: -1, Op: EhPop}}, ret.Instrs...)
	errContains(t, Verify(m), "eh.pop without a live frame")
}

func errContains(t *testing.T, err error, want string) {
	t.Helper()
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), want))
}
