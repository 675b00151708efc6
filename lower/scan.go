package lower

import (
	"fmt"

	"github.com/strager/basil/ast"
	"github.com/strager/basil/diag"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// unit is one IL function to produce: a SUB, FUNCTION, class member,
// synthesized constructor or destructor, or main.
type unit struct {
	sig    *sema.ProcSig
	class  *sema.ClassLayout
	params []ast.Param
	body   []ast.Stmt
	pos    ast.Pos
}

// ScanResult is everything the scan learns before any IL is emitted. The
// emitter treats it as read-only.
type ScanResult struct {
	Env      *sema.Env
	Analyzer *sema.Analyzer
	// Predicted holds the runtime helpers the program needs regardless of
	// how its statements are lowered.
	Predicted rt.Set

	units []*unit
}

// Scan builds class layouts and procedure signatures, populates the symbol
// table for every procedure, runs the analyzer over every body and
// predicts runtime helpers. Diagnostics go to sink.
func Scan(prog *ast.Program, sink diag.Sink) *ScanResult {
	env := sema.NewEnv()
	s := &ScanResult{Env: env, Analyzer: sema.NewAnalyzer(env, sink)}
	sc := &scanner{ScanResult: s, sink: sink}

	sc.layouts(prog.Procs)
	sc.signatures(prog.Procs)
	main := &unit{sig: sema.NewMainSig(), body: prog.Main}
	if len(prog.Main) > 0 {
		main.pos = ast.Pos{Loc: prog.Main[0].Position()}
	}
	s.units = append(s.units, main)

	sc.globals(main)
	for _, u := range s.units[:len(s.units)-1] {
		sc.analyze(u)
	}
	sc.analyze(main)
	return s
}

type scanner struct {
	*ScanResult
	sink diag.Sink
}

func (sc *scanner) errorf(n ast.Node, code diag.Code, format string, args ...any) {
	if sc.sink == nil {
		return
	}
	sc.sink.Report(diag.Error, code, n.Position(), fmt.Sprintf(format, args...))
}

// layouts assigns class ids in declaration order, starting at 1.
func (sc *scanner) layouts(decls []ast.Stmt) {
	id := int64(1)
	for _, d := range decls {
		var layout *sema.ClassLayout
		switch d := d.(type) {
		case *ast.ClassDecl:
			layout = sema.BuildLayout(d.Name, d.Fields, id)
		case *ast.TypeDecl:
			layout = sema.BuildLayout(d.Name, d.Fields, id)
			layout.IsRecord = true
		default:
			continue
		}
		if sc.Env.Classes[layout.Name] != nil {
			sc.errorf(d, diag.DuplicateLabel, "class %s is declared more than once", layout.Name)
			continue
		}
		sc.Env.Classes[layout.Name] = layout
		tscan().Debugf("class %s: id %d, %d bytes", layout.Name, layout.ClassID, layout.Size)
		id++
	}
}

func (sc *scanner) signatures(decls []ast.Stmt) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.FunctionDecl:
			sig := sema.NewProcSig(sema.ProcFunction, "", d.Name, d.Params, d.HasRet, d.Ret, d.RetClass)
			sc.addProc(d, sig, d.Params, d.Body, nil)
		case *ast.SubDecl:
			sig := sema.NewProcSig(sema.ProcSub, "", d.Name, d.Params, false, 0, "")
			sc.addProc(d, sig, d.Params, d.Body, nil)
		case *ast.ClassDecl:
			sc.members(d)
		case *ast.TypeDecl:
			layout := sc.Env.Lookup(d.Name)
			if layout == nil || layout.Ctor != nil {
				continue
			}
			sc.synthesize(d, d.Name, layout)
		}
	}
}

func (sc *scanner) addProc(n ast.Stmt, sig *sema.ProcSig, params []ast.Param, body []ast.Stmt, class *sema.ClassLayout) {
	if class == nil {
		if sc.Env.Procs[sig.Name] != nil {
			sc.errorf(n, diag.DuplicateLabel, "procedure %s is declared more than once", sig.Name)
			return
		}
		sc.Env.Procs[sig.Name] = sig
	}
	for _, p := range params {
		if p.ObjectClass != "" && sc.Env.Lookup(p.ObjectClass) == nil {
			sc.errorf(n, diag.UnknownClass, "unknown class %s", sema.Canonical(p.ObjectClass))
		}
	}
	sc.units = append(sc.units, &unit{
		sig:    sig,
		class:  class,
		params: params,
		body:   body,
		pos:    ast.Pos{Loc: n.Position()},
	})
}

func (sc *scanner) members(d *ast.ClassDecl) {
	layout := sc.Env.Lookup(d.Name)
	if layout == nil || layout.Ctor != nil {
		return
	}
	for _, m := range d.Members {
		switch m := m.(type) {
		case *ast.MethodDecl:
			name := sema.Canonical(m.Name)
			if _, dup := layout.Methods[name]; dup {
				sc.errorf(m, diag.DuplicateLabel, "%s.%s is declared more than once", layout.Name, name)
				continue
			}
			sig := sema.NewProcSig(sema.ProcMethod, d.Name, m.Name, m.Params, m.HasRet, m.Ret, m.RetClass)
			layout.Methods[name] = &sema.MethodInfo{Name: name, Sig: sig}
			sc.addProc(m, sig, m.Params, m.Body, layout)
		case *ast.ConstructorDecl:
			if layout.HasCtor {
				sc.errorf(m, diag.CtorDtorMisuse, "%s has more than one constructor", layout.Name)
				continue
			}
			if m.HasReturnType {
				sc.errorf(m, diag.CtorDtorMisuse, "constructor of %s cannot have a return type", layout.Name)
			}
			layout.HasCtor = true
			layout.Ctor = sema.NewProcSig(sema.ProcCtor, d.Name, "__ctor", m.Params, false, 0, "")
			sc.addProc(m, layout.Ctor, m.Params, m.Body, layout)
		case *ast.DestructorDecl:
			if layout.HasDtor {
				sc.errorf(m, diag.CtorDtorMisuse, "%s has more than one destructor", layout.Name)
				continue
			}
			if len(m.Params) > 0 {
				sc.errorf(m, diag.CtorDtorMisuse, "destructor of %s cannot take parameters", layout.Name)
			}
			layout.HasDtor = true
			layout.Dtor = sema.NewProcSig(sema.ProcDtor, d.Name, "__dtor", nil, false, 0, "")
			sc.addProc(m, layout.Dtor, nil, m.Body, layout)
		}
	}
	sc.synthesize(d, d.Name, layout)
}

// synthesize adds the constructor and destructor a class did not declare.
// Every class has both so NEW and the release path can call them
// unconditionally.
func (sc *scanner) synthesize(n ast.Stmt, name string, layout *sema.ClassLayout) {
	if layout.Ctor == nil {
		layout.Ctor = sema.NewProcSig(sema.ProcCtor, name, "__ctor", nil, false, 0, "")
		sc.addProc(n, layout.Ctor, nil, nil, layout)
	}
	if layout.Dtor == nil {
		layout.Dtor = sema.NewProcSig(sema.ProcDtor, name, "__dtor", nil, false, 0, "")
		sc.addProc(n, layout.Dtor, nil, nil, layout)
	}
}

// globals records the names main declares with DIM. Procedures see these as
// module variables.
func (sc *scanner) globals(main *unit) {
	env := sc.Env
	env.Symbols.ResetForNewProcedure()
	env.Proc = main.sig
	c := newCollector(env)
	c.declare(main)
	for _, name := range c.dimmed {
		g := *env.Symbols.Find(name)
		g.SlotID = -1
		g.ArrayLengthSlot = -1
		g.Referenced = false
		env.Globals[name] = &g
	}
}

func (sc *scanner) analyze(u *unit) {
	env := sc.Env
	enter(env, u)
	defer leave(env, u)
	tscan().Debugf("scanning %s", u.sig.ILName)

	c := newCollector(env)
	c.declare(u)
	sc.Analyzer.CheckBody(u.body)
	c.reference(u)
	predict(&sc.Predicted, sc.Analyzer, u.body)
}

// enter prepares the environment for one procedure: a fresh symbol table
// and, for class members, the field scope.
func enter(env *sema.Env, u *unit) {
	env.Symbols.ResetForNewProcedure()
	env.Proc = u.sig
	if u.class != nil {
		env.Symbols.PushFieldScope(u.class)
	}
}

func leave(env *sema.Env, u *unit) {
	if u.class != nil {
		env.Symbols.PopFieldScope()
	}
}

// collector populates the symbol table for one procedure. The scan and the
// emitter run it identically so both see the same symbols.
type collector struct {
	env *sema.Env
	// dimmed lists the names DIM declares, in order.
	dimmed []string
	// globals lists the module variables a procedure other than main uses,
	// in first-use order.
	globals []string
	seen    map[string]bool
}

func newCollector(env *sema.Env) *collector {
	return &collector{env: env, seen: map[string]bool{}}
}

// declare records parameters, the return slot, DIM declarations and names
// that are implicitly created by assignment.
func (c *collector) declare(u *unit) {
	t := c.env.Symbols
	for _, p := range u.params {
		name := sema.Canonical(p.Name)
		s := t.Ensure(name)
		s.IsParam = true
		if p.HasType {
			t.SetType(name, p.Type)
		}
		if p.IsArray {
			t.MarkArray(name)
		}
		if p.ObjectClass != "" {
			t.MarkObject(name, p.ObjectClass)
		}
		if p.ByRef && !p.IsArray {
			t.MarkByRef(name)
		}
	}
	if sig := u.sig; sig.Kind != sema.ProcMain && sig.ReturnsValue() {
		if sig.RetClass != "" {
			t.MarkObject(sig.Name, sig.RetClass)
		} else {
			t.SetType(sig.Name, sig.RetCat.AstType())
		}
		t.MarkReferenced(sig.Name)
	}

	ast.InspectStmts(u.body, func(n ast.Node) bool {
		d, ok := n.(*ast.DimStmt)
		if !ok {
			return true
		}
		name := sema.Canonical(d.Name)
		s := t.Ensure(name)
		if d.HasType {
			t.SetType(name, d.Type)
		}
		if d.IsArray {
			t.MarkArray(name)
			if len(d.Extents) > 0 && sema.ConstantExtents(d.Extents) {
				s.Extents = s.Extents[:0]
				for _, e := range d.Extents {
					s.Extents = append(s.Extents, e.(*ast.IntExpr).Value)
				}
			}
		}
		if d.ObjectClass != "" {
			t.MarkObject(name, d.ObjectClass)
		}
		if !c.seen["dim "+name] {
			c.seen["dim "+name] = true
			c.dimmed = append(c.dimmed, name)
		}
		return true
	})

	ast.InspectStmts(u.body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.LetStmt:
			c.implicit(n.Target)
		case *ast.ForStmt:
			c.implicitName(n.Var)
		case *ast.InputStmt:
			for _, target := range n.Targets {
				c.implicit(target)
			}
		case *ast.InputChStmt:
			for _, target := range n.Targets {
				c.implicit(target)
			}
		case *ast.LineInputChStmt:
			c.implicit(n.Target)
		case *ast.ReDimStmt:
			if c.implicitName(n.Name) {
				t.MarkArray(n.Name)
			}
		}
		return true
	})
}

func (c *collector) implicit(target ast.Expr) {
	if v, ok := target.(*ast.VarExpr); ok {
		c.implicitName(v.Name)
	}
}

// implicitName creates a local for an assigned name unless the name
// already refers to something.
func (c *collector) implicitName(name string) bool {
	t := c.env.Symbols
	if t.Find(name) != nil {
		return false
	}
	if _, _, ok := t.LookupField(name); ok {
		return false
	}
	if c.env.IsGlobal(name) {
		return false
	}
	t.Ensure(name)
	return true
}

// reference marks every name the body uses and interns its string
// literals.
func (c *collector) reference(u *unit) {
	ast.InspectStmts(u.body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VarExpr:
			c.use(n.Name)
		case *ast.ArrayExpr:
			c.use(n.Name)
		case *ast.LBoundExpr:
			c.use(n.Name)
		case *ast.UBoundExpr:
			c.use(n.Name)
		case *ast.DimStmt:
			c.use(n.Name)
		case *ast.ReDimStmt:
			c.use(n.Name)
		case *ast.ForStmt:
			c.use(n.Var)
		case *ast.StringExpr:
			c.env.Symbols.InternString(n.Value)
		}
		return true
	})
}

func (c *collector) use(name string) {
	env := c.env
	key := sema.Canonical(name)
	ref := env.Resolve(key)
	switch ref.Kind {
	case sema.RefLocal, sema.RefParam:
		env.Symbols.MarkReferenced(key)
	case sema.RefGlobal:
		if env.InMain() {
			env.Symbols.MarkReferenced(key)
			return
		}
		env.Shared[key] = true
		if !c.seen["global "+key] {
			c.seen["global "+key] = true
			c.globals = append(c.globals, key)
		}
	case sema.RefUndeclared:
		env.Symbols.MarkReferenced(key)
	}
}
