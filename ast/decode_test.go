package ast

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestDecodeProgram(t *testing.T) {
	prog, err := Decode(`(program ^{file: "demo.bas"}
  (function SQ (params (param N)) (returns i64)
    (return (* (var N) (var N))))
  (main
    (let ^{line: 10} (var X%) (call SQ (int 4)))
    (for ^{line: 20} I (int 1) (int 3) (step (neg (int 1)))
      (print (var I)))))`)
	be.Err(t, err, nil)
	be.Equal(t, prog.File, "demo.bas")
	be.Equal(t, len(prog.Procs), 1)
	be.Equal(t, len(prog.Main), 2)

	fn, ok := prog.Procs[0].(*FunctionDecl)
	be.True(t, ok)
	be.Equal(t, fn.Name, "SQ")
	be.True(t, fn.HasRet)
	be.Equal(t, fn.Ret, I64)
	be.Equal(t, len(fn.Params), 1)

	let, ok := prog.Main[0].(*LetStmt)
	be.True(t, ok)
	be.Equal(t, let.SourceLine(), 10)
	be.Equal(t, let.Position(), Loc{File: "demo.bas", Line: 10})
	// Expressions inherit the statement's location.
	be.Equal(t, let.Value.Position(), Loc{File: "demo.bas", Line: 10})

	loop, ok := prog.Main[1].(*ForStmt)
	be.True(t, ok)
	be.Equal(t, loop.Var, "I")
	step, ok := loop.Step.(*UnaryExpr)
	be.True(t, ok)
	be.Equal(t, step.Op, UnaryNeg)
	be.Equal(t, len(loop.Body), 1)
}

func TestDecodeSourceColumn(t *testing.T) {
	prog, err := Decode(`(program (main (end ^{line: 30, src: 7, col: 4})))`)
	be.Err(t, err, nil)
	s := prog.Main[0]
	be.Equal(t, s.SourceLine(), 30)
	be.Equal(t, s.Position(), Loc{Line: 7, Column: 4})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not a program", `(main)`, "expected (program ...)"},
		{"unknown statement", `(program (main (frobnicate)))`, "unknown statement"},
		{"unknown open mode", `(program (main (open (str "f") sideways (int 1))))`, "unknown OPEN mode"},
		{"unknown builtin", `(program (main (print (builtin NOPE))))`, "unknown builtin"},
		{"unknown exit", `(program (main (exit loop)))`, "unknown EXIT kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tt.want))
		})
	}
}

func TestSuffixType(t *testing.T) {
	be.Equal(t, SuffixType("A$"), Str)
	be.Equal(t, SuffixType("A#"), F64)
	be.Equal(t, SuffixType("A!"), F64)
	be.Equal(t, SuffixType("A%"), I64)
	be.Equal(t, SuffixType("A"), I64)
}

func TestInspectVisitsNestedStatements(t *testing.T) {
	prog, err := Decode(`(program (main
  (if (var A) (then (goto ^{line: 10} 20)) (else (print (int 1))))
  (while (var B) (gosub ^{line: 30} 40))))`)
	be.Err(t, err, nil)
	var gotos, gosubs int
	InspectStmts(prog.Main, func(n Node) bool {
		switch n.(type) {
		case *GotoStmt:
			gotos++
		case *GosubStmt:
			gosubs++
		}
		return true
	})
	be.Equal(t, gotos, 1)
	be.Equal(t, gosubs, 1)
}
