// Package il defines the typed SSA intermediate language produced by the
// BASIC lowerer, plus a text printer and a structural verifier.
package il

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is an IL value type.
type Type int

const (
	Void Type = iota
	I1
	I16
	I32
	I64
	F64
	Ptr
	Str
	Error
	ResumeTok
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case I1:
		return "i1"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F64:
		return "f64"
	case Ptr:
		return "ptr"
	case Str:
		return "str"
	case Error:
		return "error"
	case ResumeTok:
		return "resume_tok"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// IsInteger reports whether t is one of the integer widths, including I1.
func (t Type) IsInteger() bool {
	return t == I1 || t == I16 || t == I32 || t == I64
}

// Bits returns the width of an integer type, or 0 for other types.
func (t Type) Bits() int {
	switch t {
	case I1:
		return 1
	case I16:
		return 16
	case I32:
		return 32
	case I64:
		return 64
	}
	return 0
}

// SlotSize is the number of bytes an alloca needs to hold a value of t.
func (t Type) SlotSize() int {
	if t == I1 {
		return 1
	}
	return 8
}

// ValueKind distinguishes the operand forms an instruction can take.
type ValueKind int

const (
	ValueTemp ValueKind = iota
	ValueConstInt
	ValueConstFloat
	ValueGlobal
	ValueNull
)

// Value is an instruction operand.
type Value struct {
	Kind  ValueKind
	Type  Type
	ID    int     // ValueTemp
	Int   int64   // ValueConstInt
	Float float64 // ValueConstFloat
	Name  string  // ValueGlobal
}

func Temp(id int, t Type) Value           { return Value{Kind: ValueTemp, ID: id, Type: t} }
func ConstInt(v int64, t Type) Value      { return Value{Kind: ValueConstInt, Int: v, Type: t} }
func ConstFloat(v float64) Value          { return Value{Kind: ValueConstFloat, Float: v, Type: F64} }
func GlobalRef(name string, t Type) Value { return Value{Kind: ValueGlobal, Name: name, Type: t} }
func Null() Value                         { return Value{Kind: ValueNull, Type: Ptr} }
func Bool(b bool) Value {
	if b {
		return ConstInt(1, I1)
	}
	return ConstInt(0, I1)
}

// IsConst reports whether v is an integer or float literal.
func (v Value) IsConst() bool {
	return v.Kind == ValueConstInt || v.Kind == ValueConstFloat
}

func (v Value) String() string {
	switch v.Kind {
	case ValueTemp:
		return "%t" + strconv.Itoa(v.ID)
	case ValueConstInt:
		if v.Type == I1 {
			if v.Int != 0 {
				return "true"
			}
			return "false"
		}
		return strconv.FormatInt(v.Int, 10)
	case ValueConstFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case ValueGlobal:
		return "@" + v.Name
	case ValueNull:
		return "null"
	default:
		return fmt.Sprintf("value(%d)", int(v.Kind))
	}
}
