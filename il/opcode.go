package il

import "fmt"

// Opcode is an IL operation. The lowerer only ever produces these.
type Opcode int

const (
	Alloca Opcode = iota
	Load
	Store
	Add
	IAddOvf
	Sub
	ISubOvf
	Mul
	IMulOvf
	SDivChk0
	SRemChk0
	FAdd
	FSub
	FMul
	FDiv
	And
	Or
	Xor
	Shl
	AShr
	ICmpEq
	ICmpNe
	SCmpLT
	SCmpLE
	SCmpGT
	SCmpGE
	FCmpEQ
	FCmpNE
	FCmpLT
	FCmpLE
	FCmpGT
	FCmpGE
	Zext1
	Trunc1
	CastSiToFp
	CastSiNarrowChk
	Br
	CBr
	Call
	CallIndirect
	ConstStr
	Ret
	RetVoid
	Trap
	TrapFromErr
	EhPush
	EhPop

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	Alloca:          "alloca",
	Load:            "load",
	Store:           "store",
	Add:             "add",
	IAddOvf:         "iadd.ovf",
	Sub:             "sub",
	ISubOvf:         "isub.ovf",
	Mul:             "mul",
	IMulOvf:         "imul.ovf",
	SDivChk0:        "sdiv.chk0",
	SRemChk0:        "srem.chk0",
	FAdd:            "fadd",
	FSub:            "fsub",
	FMul:            "fmul",
	FDiv:            "fdiv",
	And:             "and",
	Or:              "or",
	Xor:             "xor",
	Shl:             "shl",
	AShr:            "ashr",
	ICmpEq:          "icmp_eq",
	ICmpNe:          "icmp_ne",
	SCmpLT:          "scmp_lt",
	SCmpLE:          "scmp_le",
	SCmpGT:          "scmp_gt",
	SCmpGE:          "scmp_ge",
	FCmpEQ:          "fcmp_eq",
	FCmpNE:          "fcmp_ne",
	FCmpLT:          "fcmp_lt",
	FCmpLE:          "fcmp_le",
	FCmpGT:          "fcmp_gt",
	FCmpGE:          "fcmp_ge",
	Zext1:           "zext1",
	Trunc1:          "trunc1",
	CastSiToFp:      "cast.si_to_fp",
	CastSiNarrowChk: "cast.si_narrow.chk",
	Br:              "br",
	CBr:             "cbr",
	Call:            "call",
	CallIndirect:    "call.indirect",
	ConstStr:        "const_str",
	Ret:             "ret",
	RetVoid:         "ret",
	Trap:            "trap",
	TrapFromErr:     "trap.from_err",
	EhPush:          "eh.push",
	EhPop:           "eh.pop",
}

func (op Opcode) String() string {
	if op < 0 || op >= opcodeCount {
		return fmt.Sprintf("opcode(%d)", int(op))
	}
	return opcodeNames[op]
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case Br, CBr, Ret, RetVoid, Trap, TrapFromErr:
		return true
	}
	return false
}

// printsType reports whether the printer shows the instruction type after
// the mnemonic.
func (op Opcode) printsType() bool {
	switch op {
	case Alloca, Br, CBr, Call, CallIndirect, ConstStr, Ret, RetVoid, Trap, EhPush, EhPop, Zext1, Trunc1:
		return false
	}
	return true
}
