// Package rt describes the runtime helpers that lowered BASIC programs call.
package rt

import (
	"fmt"
	"sort"

	"github.com/strager/basil/il"
)

// Feature names one runtime helper. Each Feature maps to exactly one extern
// declaration in the lowered module.
type Feature int

const (
	Pow Feature = iota
	Concat
	StrEq
	StrEmpty
	StrRetainMaybe
	StrReleaseMaybe
	StrFromI16
	StrFromI32
	StrFromLong
	StrFromSingle
	StrFromDouble
	InputLine
	SplitFields
	ToInt
	ToDouble
	ParseInt64
	ParseDouble
	Val
	RandomizeI64
	Rnd
	OpenErrVstr
	CloseErr
	SeekChErr
	LineInputChErr
	WriteChErr
	PrintlnChErr
	EofCh
	LofCh
	LocCh
	TermCls
	TermColor
	TermLocate
	CsvQuote
	Trap
	PrintStr
	PrintI64
	PrintF64
	Len
	Mid2
	Mid3
	Left
	Right
	UCase
	LCase
	Chr
	Asc
	InStr2
	InStr3
	Sqrt
	Sin
	Cos
	AbsI64
	AbsF64
	IntFloor
	FixTrunc
	F64ToI64
	ArrayI32New
	ArrayI32Resize
	ArrayI32Len
	ArrayI32Get
	ArrayI32Set
	ArrayI32Retain
	ArrayI32Release
	ArrayF64New
	ArrayF64Resize
	ArrayF64Len
	ArrayF64Get
	ArrayF64Set
	ArrayF64Retain
	ArrayF64Release
	ArrayStrNew
	ArrayStrResize
	ArrayStrLen
	ArrayStrGet
	ArrayStrSet
	ArrayStrRetain
	ArrayStrRelease
	ArrayObjNew
	ArrayObjResize
	ArrayObjLen
	ArrayObjGet
	ArrayObjSet
	ArrayObjRetain
	ArrayObjRelease
	ArrayOobPanic
	ObjNew
	ObjRetainMaybe
	ObjReleaseCheck0
	ObjFree
	ObjClassID
	CastAs
	ModvarAddrI64
	ModvarAddrF64
	ModvarAddrStr
	ModvarAddrI1
	ModvarAddrPtr

	featureCount
)

// Signature is the calling convention of a runtime helper.
type Signature struct {
	Name   string
	Ret    il.Type
	Params []il.Type
}

func sig(name string, ret il.Type, params ...il.Type) Signature {
	return Signature{Name: name, Ret: ret, Params: params}
}

var signatures = [featureCount]Signature{
	Pow:              sig("rt_pow_f64_chkdom", il.F64, il.F64, il.F64),
	Concat:           sig("rt_concat", il.Str, il.Str, il.Str),
	StrEq:            sig("rt_str_eq", il.I1, il.Str, il.Str),
	StrEmpty:         sig("rt_str_empty", il.Str),
	StrRetainMaybe:   sig("rt_str_retain_maybe", il.Void, il.Str),
	StrReleaseMaybe:  sig("rt_str_release_maybe", il.Void, il.Str),
	StrFromI16:       sig("rt_str_i16_alloc", il.Str, il.I16),
	StrFromI32:       sig("rt_str_i32_alloc", il.Str, il.I32),
	StrFromLong:      sig("rt_int_to_str", il.Str, il.I64),
	StrFromSingle:    sig("rt_str_f_alloc", il.Str, il.F64),
	StrFromDouble:    sig("rt_str_d_alloc", il.Str, il.F64),
	InputLine:        sig("rt_input_line", il.Str),
	SplitFields:      sig("rt_split_fields", il.I64, il.Str, il.Ptr, il.I64),
	ToInt:            sig("rt_to_int", il.I64, il.Str),
	ToDouble:         sig("rt_to_double", il.F64, il.Str),
	ParseInt64:       sig("rt_parse_int64", il.I32, il.Str, il.Ptr),
	ParseDouble:      sig("rt_parse_double", il.I32, il.Str, il.Ptr),
	Val:              sig("rt_val", il.F64, il.Str),
	RandomizeI64:     sig("rt_randomize_i64", il.Void, il.I64),
	Rnd:              sig("rt_rnd", il.F64),
	OpenErrVstr:      sig("rt_open_err_vstr", il.I32, il.Str, il.I32, il.I32),
	CloseErr:         sig("rt_close_err", il.I32, il.I32),
	SeekChErr:        sig("rt_seek_ch_err", il.I32, il.I32, il.I64),
	LineInputChErr:   sig("rt_line_input_ch_err", il.I32, il.I32, il.Ptr),
	WriteChErr:       sig("rt_write_ch_err", il.I32, il.I32, il.Str),
	PrintlnChErr:     sig("rt_println_ch_err", il.I32, il.I32, il.Str),
	EofCh:            sig("rt_eof_ch", il.I32, il.I32),
	LofCh:            sig("rt_lof_ch", il.I64, il.I32),
	LocCh:            sig("rt_loc_ch", il.I64, il.I32),
	TermCls:          sig("rt_term_cls", il.Void),
	TermColor:        sig("rt_term_color_i32", il.Void, il.I32, il.I32),
	TermLocate:       sig("rt_term_locate_i32", il.Void, il.I32, il.I32),
	CsvQuote:         sig("rt_csv_quote_alloc", il.Str, il.Str),
	Trap:             sig("rt_trap", il.Void, il.Str),
	PrintStr:         sig("rt_print_str", il.Void, il.Str),
	PrintI64:         sig("rt_print_i64", il.Void, il.I64),
	PrintF64:         sig("rt_print_f64", il.Void, il.F64),
	Len:              sig("rt_len", il.I64, il.Str),
	Mid2:             sig("rt_mid2", il.Str, il.Str, il.I64),
	Mid3:             sig("rt_mid3", il.Str, il.Str, il.I64, il.I64),
	Left:             sig("rt_left", il.Str, il.Str, il.I64),
	Right:            sig("rt_right", il.Str, il.Str, il.I64),
	UCase:            sig("rt_ucase", il.Str, il.Str),
	LCase:            sig("rt_lcase", il.Str, il.Str),
	Chr:              sig("rt_chr", il.Str, il.I64),
	Asc:              sig("rt_asc", il.I64, il.Str),
	InStr2:           sig("rt_instr2", il.I64, il.Str, il.Str),
	InStr3:           sig("rt_instr3", il.I64, il.I64, il.Str, il.Str),
	Sqrt:             sig("rt_sqrt", il.F64, il.F64),
	Sin:              sig("rt_sin", il.F64, il.F64),
	Cos:              sig("rt_cos", il.F64, il.F64),
	AbsI64:           sig("rt_abs_i64", il.I64, il.I64),
	AbsF64:           sig("rt_abs_f64", il.F64, il.F64),
	IntFloor:         sig("rt_int_floor", il.F64, il.F64),
	FixTrunc:         sig("rt_fix_trunc", il.F64, il.F64),
	F64ToI64:         sig("rt_f64_to_i64", il.I64, il.F64),
	ArrayI32New:      sig("rt_array_i32_new", il.Ptr, il.I64),
	ArrayI32Resize:   sig("rt_array_i32_resize", il.Ptr, il.Ptr, il.I64),
	ArrayI32Len:      sig("rt_array_i32_len", il.I64, il.Ptr),
	ArrayI32Get:      sig("rt_array_i32_get", il.I32, il.Ptr, il.I64),
	ArrayI32Set:      sig("rt_array_i32_set", il.Void, il.Ptr, il.I64, il.I32),
	ArrayI32Retain:   sig("rt_array_i32_retain", il.Void, il.Ptr),
	ArrayI32Release:  sig("rt_array_i32_release", il.Void, il.Ptr),
	ArrayF64New:      sig("rt_array_f64_new", il.Ptr, il.I64),
	ArrayF64Resize:   sig("rt_array_f64_resize", il.Ptr, il.Ptr, il.I64),
	ArrayF64Len:      sig("rt_array_f64_len", il.I64, il.Ptr),
	ArrayF64Get:      sig("rt_array_f64_get", il.F64, il.Ptr, il.I64),
	ArrayF64Set:      sig("rt_array_f64_set", il.Void, il.Ptr, il.I64, il.F64),
	ArrayF64Retain:   sig("rt_array_f64_retain", il.Void, il.Ptr),
	ArrayF64Release:  sig("rt_array_f64_release", il.Void, il.Ptr),
	ArrayStrNew:      sig("rt_array_str_new", il.Ptr, il.I64),
	ArrayStrResize:   sig("rt_array_str_resize", il.Ptr, il.Ptr, il.I64),
	ArrayStrLen:      sig("rt_array_str_len", il.I64, il.Ptr),
	ArrayStrGet:      sig("rt_array_str_get", il.Str, il.Ptr, il.I64),
	ArrayStrSet:      sig("rt_array_str_set", il.Void, il.Ptr, il.I64, il.Str),
	ArrayStrRetain:   sig("rt_array_str_retain", il.Void, il.Ptr),
	ArrayStrRelease:  sig("rt_array_str_release", il.Void, il.Ptr),
	ArrayObjNew:      sig("rt_array_obj_new", il.Ptr, il.I64),
	ArrayObjResize:   sig("rt_array_obj_resize", il.Ptr, il.Ptr, il.I64),
	ArrayObjLen:      sig("rt_array_obj_len", il.I64, il.Ptr),
	ArrayObjGet:      sig("rt_array_obj_get", il.Ptr, il.Ptr, il.I64),
	ArrayObjSet:      sig("rt_array_obj_set", il.Void, il.Ptr, il.I64, il.Ptr),
	ArrayObjRetain:   sig("rt_array_obj_retain", il.Void, il.Ptr),
	ArrayObjRelease:  sig("rt_array_obj_release", il.Void, il.Ptr),
	ArrayOobPanic:    sig("rt_array_oob_panic", il.Void, il.I64, il.I64),
	ObjNew:           sig("rt_obj_new_i64", il.Ptr, il.I64, il.I64),
	ObjRetainMaybe:   sig("rt_obj_retain_maybe", il.Void, il.Ptr),
	ObjReleaseCheck0: sig("rt_obj_release_check0", il.I1, il.Ptr),
	ObjFree:          sig("rt_obj_free", il.Void, il.Ptr),
	ObjClassID:       sig("rt_obj_class_id", il.I64, il.Ptr),
	CastAs:           sig("rt_cast_as", il.Ptr, il.Ptr, il.I64),
	ModvarAddrI64:    sig("rt_modvar_addr_i64", il.Ptr, il.Str),
	ModvarAddrF64:    sig("rt_modvar_addr_f64", il.Ptr, il.Str),
	ModvarAddrStr:    sig("rt_modvar_addr_str", il.Ptr, il.Str),
	ModvarAddrI1:     sig("rt_modvar_addr_i1", il.Ptr, il.Str),
	ModvarAddrPtr:    sig("rt_modvar_addr_ptr", il.Ptr, il.Str),
}

var byName = func() map[string]Feature {
	m := make(map[string]Feature, featureCount)
	for f := Feature(0); f < featureCount; f++ {
		m[signatures[f].Name] = f
	}
	return m
}()

// Signature returns the helper's declaration. It panics for values outside
// the enumeration.
func (f Feature) Signature() Signature {
	if f < 0 || f >= featureCount {
		panic(fmt.Sprintf("rt: unknown feature %d", int(f)))
	}
	return signatures[f]
}

// Name returns the helper's symbol name, for example "rt_concat".
func (f Feature) Name() string {
	return f.Signature().Name
}

func (f Feature) String() string {
	return f.Name()
}

// Lookup finds the feature whose helper is called name.
func Lookup(name string) (Feature, bool) {
	f, ok := byName[name]
	return f, ok
}

// Extern converts the helper signature into a module-level declaration.
func (f Feature) Extern() il.Extern {
	s := f.Signature()
	return il.Extern{Name: s.Name, Ret: s.Ret, Params: append([]il.Type(nil), s.Params...)}
}

// Set is a set of features. The zero value is empty and ready to use.
type Set struct {
	bits [(featureCount + 63) / 64]uint64
}

func (s *Set) Add(f Feature) {
	s.bits[f/64] |= 1 << (uint(f) % 64)
}

func (s *Set) Has(f Feature) bool {
	return s.bits[f/64]&(1<<(uint(f)%64)) != 0
}

func (s *Set) Len() int {
	n := 0
	for f := Feature(0); f < featureCount; f++ {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// Union adds every member of other to s.
func (s *Set) Union(other *Set) {
	for i := range s.bits {
		s.bits[i] |= other.bits[i]
	}
}

// Features lists the members in enumeration order.
func (s *Set) Features() []Feature {
	var out []Feature
	for f := Feature(0); f < featureCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Names lists the helper names of the members, sorted alphabetically.
func (s *Set) Names() []string {
	var names []string
	for _, f := range s.Features() {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}
