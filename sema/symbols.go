// Package sema holds the symbol table, class layouts, procedure signatures
// and the thin semantic analyzer used while lowering BASIC.
package sema

import (
	"fmt"
	"strings"

	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

// Canonical folds a BASIC identifier to its lookup key. BASIC names are
// case-insensitive.
func Canonical(name string) string {
	return strings.ToUpper(name)
}

// SymbolInfo is everything known about one name in the current procedure.
type SymbolInfo struct {
	Name    string
	Type    ast.Type
	HasType bool

	IsArray      bool
	IsBoolean    bool
	IsObject     bool
	IsStatic     bool
	IsByRefParam bool
	IsParam      bool
	Referenced   bool

	// SlotID is the temp holding the variable's address, or -1.
	SlotID int
	// ArrayLengthSlot holds the current element count for bounds checks, or -1.
	ArrayLengthSlot int
	// StringLabel is set for interned string literals.
	StringLabel string
	// ObjectClass is the class of an object variable.
	ObjectClass string
	// ElemClass is the class of the elements of an object array.
	ElemClass string
	// Extents are the declared per-dimension upper bounds of a constant-size array.
	Extents []int64
}

func newSymbol(name string) *SymbolInfo {
	return &SymbolInfo{Name: name, Type: ast.I64, SlotID: -1, ArrayLengthSlot: -1}
}

// SlotType is the IL storage shape of a variable.
type SlotType struct {
	Type        il.Type
	IsArray     bool
	IsBoolean   bool
	IsObject    bool
	ObjectClass string
	// Elem is the element type when IsArray is set.
	Elem Category
}

// Literal is an entry of the string-literal pool.
type Literal struct {
	Label string
	Value string
}

// SymbolTable maps names to symbol records for the procedure being lowered.
// Interned string literals live in the same table and survive
// ResetForNewProcedure.
type SymbolTable struct {
	syms  map[string]*SymbolInfo
	order []string

	literals    []Literal
	fieldScopes []*fieldScope
}

type fieldScope struct {
	class  *ClassLayout
	shadow map[string]*SymbolInfo
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{syms: map[string]*SymbolInfo{}}
}

// literalKey keeps literal entries apart from identifiers, which can never
// contain a NUL byte.
func literalKey(content string) string {
	return "\x00" + content
}

// Ensure returns the record for name, creating it with defaults on first use.
func (t *SymbolTable) Ensure(name string) *SymbolInfo {
	key := Canonical(name)
	if s, ok := t.syms[key]; ok {
		return s
	}
	s := newSymbol(key)
	t.syms[key] = s
	t.order = append(t.order, key)
	return s
}

// Find returns the record for name, or nil.
func (t *SymbolTable) Find(name string) *SymbolInfo {
	return t.syms[Canonical(name)]
}

func (t *SymbolTable) SetType(name string, typ ast.Type) {
	s := t.Ensure(name)
	s.Type = typ
	s.HasType = true
	s.IsBoolean = !s.IsArray && typ == ast.Bool
}

// HasExplicitType reports whether SetType was called for name since the last
// reset.
func (t *SymbolTable) HasExplicitType(name string) bool {
	s := t.Find(name)
	return s != nil && s.HasType
}

func (t *SymbolTable) MarkReferenced(name string) {
	t.Ensure(name).Referenced = true
}

func (t *SymbolTable) MarkArray(name string) {
	s := t.Ensure(name)
	s.IsArray = true
	s.IsBoolean = false
	if s.IsObject {
		// An object array keeps its class on the elements.
		s.ElemClass = s.ObjectClass
		s.IsObject = false
		s.ObjectClass = ""
	}
}

func (t *SymbolTable) MarkStatic(name string) {
	t.Ensure(name).IsStatic = true
}

// MarkObject records name as holding an instance of class. For arrays the
// class applies to the elements.
func (t *SymbolTable) MarkObject(name, class string) {
	s := t.Ensure(name)
	if s.IsArray {
		s.ElemClass = Canonical(class)
		return
	}
	s.IsObject = true
	s.HasType = true
	s.ObjectClass = Canonical(class)
}

func (t *SymbolTable) MarkByRef(name string) {
	t.Ensure(name).IsByRefParam = true
}

// TypeOf returns the declared type of name, or the suffix type when the
// name has no explicit type.
func (t *SymbolTable) TypeOf(name string) ast.Type {
	if s := t.Find(name); s != nil && s.HasType && !s.IsObject {
		return s.Type
	}
	return ast.SuffixType(name)
}

// CategoryOf returns the numeric category a variable's value has.
func (t *SymbolTable) CategoryOf(name string) Category {
	if s := t.Find(name); s != nil {
		return s.Category()
	}
	return SuffixCategory(Canonical(name))
}

// SlotType combines explicit metadata with suffix inference to produce the
// storage shape of name.
func (t *SymbolTable) SlotType(name string) SlotType {
	if s := t.Find(name); s != nil {
		return s.Slot()
	}
	return SlotType{Type: SuffixCategory(Canonical(name)).ILType()}
}

// Category is the category of the variable's value, or of its elements for
// arrays.
func (s *SymbolInfo) Category() Category {
	switch {
	case s.IsArray && s.ElemClass != "":
		return CatObject
	case s.IsObject:
		return CatObject
	case s.HasType:
		return categoryOfDeclared(s.Name, s.Type)
	}
	return SuffixCategory(s.Name)
}

// Slot is the storage shape of the variable.
func (s *SymbolInfo) Slot() SlotType {
	switch {
	case s.IsArray:
		return SlotType{Type: il.Ptr, IsArray: true, Elem: s.Category(), ObjectClass: s.ElemClass}
	case s.IsObject:
		return SlotType{Type: il.Ptr, IsObject: true, ObjectClass: s.ObjectClass}
	case s.IsBoolean:
		return SlotType{Type: il.I1, IsBoolean: true}
	}
	return SlotType{Type: s.Category().ILType()}
}

// Symbols lists the identifier records in first-use order.
func (t *SymbolTable) Symbols() []*SymbolInfo {
	var out []*SymbolInfo
	for _, key := range t.order {
		s := t.syms[key]
		if s.StringLabel == "" {
			out = append(out, s)
		}
	}
	return out
}

// InternString returns the global label for a string literal, allocating
// one on first use. Labels are assigned in interning order.
func (t *SymbolTable) InternString(content string) string {
	key := literalKey(content)
	if s, ok := t.syms[key]; ok {
		return s.StringLabel
	}
	label := fmt.Sprintf(".L%d", len(t.literals))
	s := newSymbol(key)
	s.Type = ast.Str
	s.HasType = true
	s.StringLabel = label
	t.syms[key] = s
	t.order = append(t.order, key)
	t.literals = append(t.literals, Literal{Label: label, Value: content})
	return label
}

// Literals lists the string-literal pool in interning order.
func (t *SymbolTable) Literals() []Literal {
	return append([]Literal(nil), t.literals...)
}

// ResetForNewProcedure erases every identifier. Interned literals stay but
// lose their per-procedure state.
func (t *SymbolTable) ResetForNewProcedure() {
	var kept []string
	for _, key := range t.order {
		s := t.syms[key]
		if s.StringLabel == "" {
			delete(t.syms, key)
			continue
		}
		s.Referenced = false
		s.SlotID = -1
		kept = append(kept, key)
	}
	t.order = kept
	t.fieldScopes = nil
}

// PushFieldScope makes the fields of class visible as unqualified names.
func (t *SymbolTable) PushFieldScope(class *ClassLayout) {
	fs := &fieldScope{class: class, shadow: map[string]*SymbolInfo{}}
	for _, f := range class.Fields {
		s := newSymbol(f.Name)
		s.Type = f.Type
		s.HasType = true
		s.IsArray = f.IsArray
		s.IsBoolean = !f.IsArray && f.Type == ast.Bool
		if f.ObjectClass != "" {
			if f.IsArray {
				s.ElemClass = f.ObjectClass
			} else {
				s.IsObject = true
				s.ObjectClass = f.ObjectClass
			}
		}
		s.Extents = f.Extents
		fs.shadow[f.Name] = s
	}
	t.fieldScopes = append(t.fieldScopes, fs)
}

func (t *SymbolTable) PopFieldScope() {
	if len(t.fieldScopes) == 0 {
		panic("sema: PopFieldScope without PushFieldScope")
	}
	t.fieldScopes = t.fieldScopes[:len(t.fieldScopes)-1]
}

// LookupField resolves an unqualified name against the innermost field
// scope.
func (t *SymbolTable) LookupField(name string) (*FieldInfo, *SymbolInfo, bool) {
	if len(t.fieldScopes) == 0 {
		return nil, nil, false
	}
	fs := t.fieldScopes[len(t.fieldScopes)-1]
	key := Canonical(name)
	s, ok := fs.shadow[key]
	if !ok {
		return nil, nil, false
	}
	f, _ := fs.class.Field(key)
	return f, s, true
}

// CurrentClass returns the class whose fields are in scope, or nil.
func (t *SymbolTable) CurrentClass() *ClassLayout {
	if len(t.fieldScopes) == 0 {
		return nil
	}
	return t.fieldScopes[len(t.fieldScopes)-1].class
}
