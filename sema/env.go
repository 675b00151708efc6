package sema

import "sort"

// RefKind says where a name's storage lives.
type RefKind int

const (
	RefUndeclared RefKind = iota
	RefLocal
	RefParam
	RefField
	RefGlobal
)

// Ref is the result of resolving an unqualified name.
type Ref struct {
	Kind  RefKind
	Sym   *SymbolInfo
	Field *FieldInfo
}

// Env is the program-wide context the analyzer and emitter resolve names
// against.
type Env struct {
	Symbols *SymbolTable
	Procs   map[string]*ProcSig
	Classes map[string]*ClassLayout

	// Globals are the names main declares with DIM, as seen by procedures.
	Globals map[string]*SymbolInfo
	// Shared are the globals some procedure actually references.
	Shared map[string]bool

	// Proc is the procedure being analyzed or lowered.
	Proc *ProcSig
}

func NewEnv() *Env {
	return &Env{
		Symbols: NewSymbolTable(),
		Procs:   map[string]*ProcSig{},
		Classes: map[string]*ClassLayout{},
		Globals: map[string]*SymbolInfo{},
		Shared:  map[string]bool{},
	}
}

func (e *Env) InMain() bool {
	return e.Proc == nil || e.Proc.Kind == ProcMain
}

// InClass reports whether the current procedure has a receiver.
func (e *Env) InClass() bool {
	return e.Proc != nil && e.Proc.Class != ""
}

// IsGlobal reports whether a procedure other than main sees name as the
// module-level variable.
func (e *Env) IsGlobal(name string) bool {
	if e.InMain() {
		return false
	}
	_, ok := e.Globals[Canonical(name)]
	return ok
}

// Resolve finds the storage of an unqualified name. Parameters shadow
// fields; fields shadow locals.
func (e *Env) Resolve(name string) Ref {
	key := Canonical(name)
	sym := e.Symbols.Find(key)
	if sym != nil && sym.IsParam {
		return Ref{Kind: RefParam, Sym: sym}
	}
	if f, fs, ok := e.Symbols.LookupField(key); ok {
		return Ref{Kind: RefField, Sym: fs, Field: f}
	}
	if sym != nil {
		if e.InMain() && e.Shared[key] {
			return Ref{Kind: RefGlobal, Sym: sym}
		}
		return Ref{Kind: RefLocal, Sym: sym}
	}
	if g, ok := e.Globals[key]; ok && !e.InMain() {
		return Ref{Kind: RefGlobal, Sym: g}
	}
	return Ref{Kind: RefUndeclared}
}

// Lookup returns the class layout named class, or nil.
func (e *Env) Lookup(class string) *ClassLayout {
	return e.Classes[Canonical(class)]
}

// VisibleNames lists every name an unqualified reference could resolve to,
// sorted, for did-you-mean suggestions.
func (e *Env) VisibleNames() []string {
	seen := map[string]bool{}
	for _, s := range e.Symbols.Symbols() {
		seen[s.Name] = true
	}
	if c := e.Symbols.CurrentClass(); c != nil {
		for _, f := range c.Fields {
			seen[f.Name] = true
		}
	}
	if !e.InMain() {
		for name := range e.Globals {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ProcNames lists the callable procedure names, sorted.
func (e *Env) ProcNames() []string {
	var names []string
	for n, p := range e.Procs {
		if p.Kind == ProcSub || p.Kind == ProcFunction {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// ClassNames lists declared classes, sorted.
func (e *Env) ClassNames() []string {
	names := make([]string, 0, len(e.Classes))
	for n := range e.Classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
