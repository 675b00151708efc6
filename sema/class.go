package sema

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

// FieldInfo is one field of a class layout.
type FieldInfo struct {
	Name        string
	Type        ast.Type
	Cat         Category
	Offset      int
	Size        int
	IsArray     bool
	Extents     []int64
	ObjectClass string
}

// SlotType is the IL type stored at the field's offset. Arrays and objects
// are handles.
func (f *FieldInfo) SlotType() il.Type {
	if f.IsArray || f.ObjectClass != "" {
		return il.Ptr
	}
	return f.Cat.ILType()
}

// ElemCategory is the category of an array field's elements.
func (f *FieldInfo) ElemCategory() Category {
	if f.ObjectClass != "" {
		return CatObject
	}
	return f.Cat
}

// MethodInfo describes a method, constructor or destructor.
type MethodInfo struct {
	Name string
	Sig  *ProcSig
}

// ClassLayout is the storage layout of a CLASS or TYPE. It is immutable once
// the scan has built it.
type ClassLayout struct {
	Name    string
	Fields  []FieldInfo
	Size    int
	ClassID int64
	// IsRecord is set for TYPE declarations, which have no methods.
	IsRecord bool

	HasCtor bool
	HasDtor bool
	Methods map[string]*MethodInfo
	Ctor    *ProcSig
	Dtor    *ProcSig

	fieldIndex map[string]int
}

// Field finds a field by canonical name.
func (c *ClassLayout) Field(name string) (*FieldInfo, bool) {
	i, ok := c.fieldIndex[Canonical(name)]
	if !ok {
		return nil, false
	}
	return &c.Fields[i], true
}

// Method finds a method by name.
func (c *ClassLayout) Method(name string) (*MethodInfo, bool) {
	m, ok := c.Methods[Canonical(name)]
	return m, ok
}

// FieldNames lists field names in declaration order.
func (c *ClassLayout) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

func fieldAlign(f *FieldInfo) int {
	if !f.IsArray && f.ObjectClass == "" && f.Type == ast.Bool {
		return 1
	}
	return 8
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

// BuildLayout assigns offsets to fields in declaration order.
func BuildLayout(name string, fields []ast.Field, classID int64) *ClassLayout {
	c := &ClassLayout{
		Name:       Canonical(name),
		ClassID:    classID,
		Methods:    map[string]*MethodInfo{},
		fieldIndex: map[string]int{},
	}
	offset := 0
	for _, af := range fields {
		f := FieldInfo{
			Name:        Canonical(af.Name),
			Type:        af.Type,
			Cat:         categoryOfDeclared(Canonical(af.Name), af.Type),
			IsArray:     af.IsArray,
			Extents:     append([]int64(nil), af.Extents...),
			ObjectClass: Canonical(af.ObjectClass),
			Size:        8,
		}
		if f.ObjectClass != "" {
			f.Cat = CatObject
		}
		if !f.IsArray && f.ObjectClass == "" && f.Type == ast.Bool {
			f.Size = 1
		}
		offset = alignUp(offset, fieldAlign(&f))
		f.Offset = offset
		offset += f.Size
		c.fieldIndex[f.Name] = len(c.Fields)
		c.Fields = append(c.Fields, f)
	}
	c.Size = alignUp(offset, 8)
	return c
}

// ElementCount is the number of elements of a constant-extent array: the
// product of (extent+1) over every dimension.
func ElementCount(extents []int64) int64 {
	n := int64(1)
	for _, e := range extents {
		n *= e + 1
	}
	return n
}
