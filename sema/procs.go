package sema

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

type ProcKind int

const (
	ProcMain ProcKind = iota
	ProcSub
	ProcFunction
	ProcMethod
	ProcCtor
	ProcDtor
)

// ParamInfo is one formal parameter of a procedure.
type ParamInfo struct {
	Name    string
	Cat     Category
	Type    il.Type
	IsArray bool
	ByRef   bool
	// Class is the object class of an object parameter, or the element
	// class of an object array.
	Class string
}

// ProcSig is a procedure signature as computed by the scan. Methods carry
// the receiver implicitly; it is not listed in Params.
type ProcSig struct {
	Name string
	// ILName is the IL function symbol, for example "Point.Move".
	ILName string
	Kind   ProcKind
	Class  string

	RetCat   Category
	Ret      il.Type
	RetClass string
	Params   []ParamInfo
}

// ReturnsValue reports whether calls produce a value.
func (p *ProcSig) ReturnsValue() bool {
	return p.Ret != il.Void
}

// ParamTypes lists the IL parameter types, including the receiver.
func (p *ProcSig) ParamTypes() []il.Type {
	var out []il.Type
	if p.Kind == ProcMethod || p.Kind == ProcCtor || p.Kind == ProcDtor {
		out = append(out, il.Ptr)
	}
	for _, prm := range p.Params {
		out = append(out, prm.Type)
	}
	return out
}

// ByRefFlags lists which parameters are passed by reference.
func (p *ProcSig) ByRefFlags() []bool {
	out := make([]bool, len(p.Params))
	for i, prm := range p.Params {
		out[i] = prm.ByRef
	}
	return out
}

// NewParamInfo classifies a declared parameter.
func NewParamInfo(p ast.Param) ParamInfo {
	name := Canonical(p.Name)
	info := ParamInfo{Name: name, IsArray: p.IsArray, ByRef: p.ByRef, Class: Canonical(p.ObjectClass)}
	switch {
	case p.ObjectClass != "" && !p.IsArray:
		info.Cat = CatObject
	case p.HasType:
		info.Cat = categoryOfDeclared(name, p.Type)
	default:
		info.Cat = SuffixCategory(name)
	}
	switch {
	case p.IsArray || p.ByRef:
		info.Type = il.Ptr
	default:
		info.Type = info.Cat.ILType()
	}
	return info
}

// NewProcSig builds the signature of a procedure declaration.
func NewProcSig(kind ProcKind, class, name string, params []ast.Param, hasRet bool, ret ast.Type, retClass string) *ProcSig {
	sig := &ProcSig{Name: Canonical(name), Kind: kind, Class: Canonical(class), Ret: il.Void}
	switch {
	case class != "":
		sig.ILName = class + "." + name
	default:
		sig.ILName = name
	}
	for _, p := range params {
		sig.Params = append(sig.Params, NewParamInfo(p))
	}
	if kind == ProcFunction || (kind == ProcMethod && (hasRet || retClass != "")) {
		switch {
		case retClass != "":
			sig.RetCat = CatObject
			sig.RetClass = Canonical(retClass)
		case hasRet:
			sig.RetCat = categoryOfDeclared(sig.Name, ret)
		default:
			sig.RetCat = SuffixCategory(sig.Name)
		}
		sig.Ret = sig.RetCat.ILType()
	}
	return sig
}

// NewMainSig is the signature of the procedure holding the top-level
// statements. It returns an i64 exit status.
func NewMainSig() *ProcSig {
	return &ProcSig{Name: "MAIN", ILName: "main", Kind: ProcMain, Ret: il.I64, RetCat: CatI64}
}
