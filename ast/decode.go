package ast

import (
	"fmt"
	"strings"

	"github.com/strager/basil/sexy"
)

// Decode builds a Program from its S-expression notation:
//
//	(program ^{file: "demo.bas"}
//	  (sub GREET (params (param N$)) (print (var N$)))
//	  (main
//	    (let ^{line: 10} (var X%) (* (int 1000) (int 1000)))
//	    (call-stmt ^{line: 20} (call GREET (str "hi")))))
//
// Statements and expressions may carry ^{line: N} for the BASIC line label,
// ^{src: N} for the text line when it differs, and ^{col: N}.
func Decode(input string) (*Program, error) {
	root, err := sexy.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	return DecodeNode(root)
}

// DecodeNode is Decode for an already-parsed datum.
func DecodeNode(root *sexy.Node) (*Program, error) {
	if root.Head() != "program" {
		return nil, fmt.Errorf("expected (program ...) but got %s", root)
	}
	d := &decoder{}
	if f := root.Meta("file"); f != nil {
		d.file = f.Text
	}
	prog := &Program{File: d.file}
	for _, item := range root.Items[1:] {
		switch item.Head() {
		case "main":
			body, err := d.stmts(item.Items[1:], Loc{File: d.file})
			if err != nil {
				return nil, err
			}
			prog.Main = append(prog.Main, body...)
		case "function", "sub", "class", "type":
			s, err := d.stmt(item, Loc{File: d.file})
			if err != nil {
				return nil, err
			}
			prog.Procs = append(prog.Procs, s)
		default:
			return nil, d.errorf(item, "unexpected top-level form")
		}
	}
	return prog, nil
}

type decoder struct {
	file string
}

func (d *decoder) errorf(n *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("offset %d: %s: %s", n.Offset, fmt.Sprintf(format, args...), n)
}

// pos reads position metadata from n, falling back to the enclosing
// location.
func (d *decoder) pos(n *sexy.Node, outer Loc) (Pos, error) {
	p := Pos{Loc: outer}
	p.Loc.File = d.file
	if n.Type != sexy.NodeList {
		return p, nil
	}
	if m := n.Meta("line"); m != nil {
		v, err := m.Int()
		if err != nil {
			return p, d.errorf(n, "bad line: %v", err)
		}
		p.Line = int(v)
		p.Loc.Line = int(v)
		p.Loc.Column = 0
	}
	if m := n.Meta("src"); m != nil {
		v, err := m.Int()
		if err != nil {
			return p, d.errorf(n, "bad src: %v", err)
		}
		p.Loc.Line = int(v)
	}
	if m := n.Meta("col"); m != nil {
		v, err := m.Int()
		if err != nil {
			return p, d.errorf(n, "bad col: %v", err)
		}
		p.Loc.Column = int(v)
	}
	return p, nil
}

func (d *decoder) args(n *sexy.Node, lo, hi int) error {
	got := len(n.Items) - 1
	if got < lo || (hi >= 0 && got > hi) {
		return d.errorf(n, "wrong number of operands for %s", n.Head())
	}
	return nil
}

func (d *decoder) name(n *sexy.Node) (string, error) {
	if n.Type != sexy.NodeSymbol && n.Type != sexy.NodeString {
		return "", d.errorf(n, "expected a name")
	}
	return n.Text, nil
}

func (d *decoder) lineNumber(n *sexy.Node) (int, error) {
	v, err := n.Int()
	if err != nil {
		return 0, d.errorf(n, "expected a line number")
	}
	return int(v), nil
}

func parseType(s string) (Type, bool) {
	switch strings.ToLower(s) {
	case "i64", "integer", "long":
		return I64, true
	case "f64", "single", "double":
		return F64, true
	case "str", "string":
		return Str, true
	case "bool", "boolean":
		return Bool, true
	}
	return 0, false
}

var binaryOps = map[string]BinaryOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, `\`: OpIDiv, "mod": OpMod,
	"pow": OpPow, "=": OpEq, "<>": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt,
	">=": OpGe, "and": OpAnd, "or": OpOr, "xor": OpXor, "&": OpConcat,
}

func (d *decoder) exprs(items []*sexy.Node, outer Loc) ([]Expr, error) {
	var out []Expr
	for _, item := range items {
		e, err := d.expr(item, outer)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(n *sexy.Node, outer Loc) (Expr, error) {
	if n.Type != sexy.NodeList || len(n.Items) == 0 {
		return nil, d.errorf(n, "expected an expression")
	}
	p, err := d.pos(n, outer)
	if err != nil {
		return nil, err
	}
	// Expressions never carry a BASIC line label of their own.
	p.Line = 0
	head := n.Head()
	ops := n.Items[1:]

	if op, ok := binaryOps[strings.ToLower(head)]; ok {
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		x, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		y, err := d.expr(ops[1], p.Loc)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Pos: p, Op: op, X: x, Y: y}, nil
	}

	switch head {
	case "int":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		v, err := ops[0].Int()
		if err != nil {
			return nil, d.errorf(n, "bad integer literal: %v", err)
		}
		return &IntExpr{Pos: p, Value: v}, nil
	case "float":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		v, err := ops[0].Float()
		if err != nil {
			return nil, d.errorf(n, "bad float literal: %v", err)
		}
		return &FloatExpr{Pos: p, Value: v}, nil
	case "str":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		if ops[0].Type != sexy.NodeString {
			return nil, d.errorf(n, "expected a string literal")
		}
		return &StringExpr{Pos: p, Value: ops[0].Text}, nil
	case "bool":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		switch ops[0].Text {
		case "true":
			return &BoolExpr{Pos: p, Value: true}, nil
		case "false":
			return &BoolExpr{Pos: p, Value: false}, nil
		}
		return nil, d.errorf(n, "expected true or false")
	case "var":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		name, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		return &VarExpr{Pos: p, Name: name}, nil
	case "index":
		if err := d.args(n, 2, -1); err != nil {
			return nil, err
		}
		name, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		idx, err := d.exprs(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &ArrayExpr{Pos: p, Name: name, Indices: idx}, nil
	case "neg", "not", "pos":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		x, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		op := map[string]UnaryOp{"neg": UnaryNeg, "not": UnaryNot, "pos": UnaryPlus}[head]
		return &UnaryExpr{Pos: p, Op: op, X: x}, nil
	case "builtin":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		b, ok := LookupBuiltin(strings.ToUpper(ops[0].Text))
		if !ok {
			return nil, d.errorf(n, "unknown builtin %s", ops[0].Text)
		}
		args, err := d.exprs(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &BuiltinCallExpr{Pos: p, Builtin: b, Args: args}, nil
	case "lbound", "ubound":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		name, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		if head == "lbound" {
			return &LBoundExpr{Pos: p, Name: name}, nil
		}
		return &UBoundExpr{Pos: p, Name: name}, nil
	case "call":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		name, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &CallExpr{Pos: p, Callee: name, Args: args}, nil
	case "new":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		class, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &NewExpr{Pos: p, Class: class, Args: args}, nil
	case "me":
		if err := d.args(n, 0, 0); err != nil {
			return nil, err
		}
		return &MeExpr{Pos: p}, nil
	case "member":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		base, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		member, err := d.name(ops[1])
		if err != nil {
			return nil, err
		}
		return &MemberAccessExpr{Pos: p, Base: base, Member: member}, nil
	case "method":
		if err := d.args(n, 2, -1); err != nil {
			return nil, err
		}
		base, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		method, err := d.name(ops[1])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(ops[2:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &MethodCallExpr{Pos: p, Base: base, Method: method, Args: args}, nil
	case "is", "as":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		v, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		class, err := d.name(ops[1])
		if err != nil {
			return nil, err
		}
		if head == "is" {
			return &IsExpr{Pos: p, Value: v, Class: class}, nil
		}
		return &AsExpr{Pos: p, Value: v, Class: class}, nil
	}
	return nil, d.errorf(n, "unknown expression %s", head)
}

func (d *decoder) stmts(items []*sexy.Node, outer Loc) ([]Stmt, error) {
	var out []Stmt
	for _, item := range items {
		s, err := d.stmt(item, outer)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if loc := s.Position(); loc.Line > 0 {
			outer = loc
		}
	}
	return out, nil
}

// optionalExpr decodes n[i] if present.
func (d *decoder) optionalExpr(items []*sexy.Node, i int, outer Loc) (Expr, error) {
	if i >= len(items) {
		return nil, nil
	}
	return d.expr(items[i], outer)
}

func (d *decoder) stmt(n *sexy.Node, outer Loc) (Stmt, error) {
	if n.Type != sexy.NodeList || len(n.Items) == 0 {
		return nil, d.errorf(n, "expected a statement")
	}
	p, err := d.pos(n, outer)
	if err != nil {
		return nil, err
	}
	head := n.Head()
	ops := n.Items[1:]

	switch head {
	case "label":
		return &LabelStmt{Pos: p}, d.args(n, 0, 0)
	case "print":
		s := &PrintStmt{Pos: p}
		for _, item := range ops {
			if item.Type == sexy.NodeSymbol {
				switch item.Text {
				case "semicolon":
					s.Items = append(s.Items, PrintItem{Sep: PrintSepSemicolon})
					continue
				case "comma":
					s.Items = append(s.Items, PrintItem{Sep: PrintSepComma})
					continue
				}
			}
			e, err := d.expr(item, p.Loc)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, PrintItem{Expr: e})
		}
		return s, nil
	case "print-ch", "write-ch":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		ch, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		s := &PrintChStmt{Pos: p, Channel: ch, Write: head == "write-ch"}
		rest := ops[1:]
		if len(rest) > 0 && rest[len(rest)-1].Type == sexy.NodeSymbol && rest[len(rest)-1].Text == "semicolon" {
			s.NoNewline = true
			rest = rest[:len(rest)-1]
		}
		if s.Args, err = d.exprs(rest, p.Loc); err != nil {
			return nil, err
		}
		return s, nil
	case "call-stmt":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		call, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		return &CallStmt{Pos: p, Call: call}, nil
	case "cls":
		return &ClsStmt{Pos: p}, d.args(n, 0, 0)
	case "color", "locate":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		a, err := d.exprs(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		if head == "color" {
			return &ColorStmt{Pos: p, Fg: a[0], Bg: a[1]}, nil
		}
		return &LocateStmt{Pos: p, Row: a[0], Col: a[1]}, nil
	case "let":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		a, err := d.exprs(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		return &LetStmt{Pos: p, Target: a[0], Value: a[1]}, nil
	case "dim":
		return d.dim(n, p)
	case "redim":
		if err := d.args(n, 2, -1); err != nil {
			return nil, err
		}
		name, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		ext, err := d.exprs(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &ReDimStmt{Pos: p, Name: name, Extents: ext}, nil
	case "randomize":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		seed, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		return &RandomizeStmt{Pos: p, Seed: seed}, nil
	case "if":
		return d.ifStmt(n, p)
	case "select":
		return d.selectStmt(n, p)
	case "while":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		cond, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(ops[1:], p.Loc)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Pos: p, Cond: cond, Body: body}, nil
	case "do":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		tests := map[string]DoTest{"forever": DoForever, "pre-while": DoPreWhile, "pre-until": DoPreUntil, "post-while": DoPostWhile, "post-until": DoPostUntil}
		test, ok := tests[ops[0].Text]
		if !ok {
			return nil, d.errorf(n, "unknown DO form %s", ops[0].Text)
		}
		s := &DoStmt{Pos: p, Test: test}
		rest := ops[1:]
		if test != DoForever {
			if len(rest) == 0 {
				return nil, d.errorf(n, "DO needs a condition")
			}
			if s.Cond, err = d.expr(rest[0], p.Loc); err != nil {
				return nil, err
			}
			rest = rest[1:]
		}
		if s.Body, err = d.stmts(rest, p.Loc); err != nil {
			return nil, err
		}
		return s, nil
	case "for":
		if err := d.args(n, 3, -1); err != nil {
			return nil, err
		}
		v, err := d.name(ops[0])
		if err != nil {
			return nil, err
		}
		s := &ForStmt{Pos: p, Var: v}
		if s.Start, err = d.expr(ops[1], p.Loc); err != nil {
			return nil, err
		}
		if s.End, err = d.expr(ops[2], p.Loc); err != nil {
			return nil, err
		}
		rest := ops[3:]
		if len(rest) > 0 && rest[0].Head() == "step" {
			if err := d.args(rest[0], 1, 1); err != nil {
				return nil, err
			}
			if s.Step, err = d.expr(rest[0].Items[1], p.Loc); err != nil {
				return nil, err
			}
			rest = rest[1:]
		}
		if s.Body, err = d.stmts(rest, p.Loc); err != nil {
			return nil, err
		}
		return s, nil
	case "next":
		if err := d.args(n, 0, 1); err != nil {
			return nil, err
		}
		s := &NextStmt{Pos: p}
		if len(ops) == 1 {
			if s.Var, err = d.name(ops[0]); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "exit":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		kinds := map[string]ExitKind{"for": ExitFor, "while": ExitWhile, "do": ExitDo, "sub": ExitSub, "function": ExitFunction}
		k, ok := kinds[ops[0].Text]
		if !ok {
			return nil, d.errorf(n, "unknown EXIT kind")
		}
		return &ExitStmt{Pos: p, Kind: k}, nil
	case "goto", "gosub", "on-error-goto":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		target, err := d.lineNumber(ops[0])
		if err != nil {
			return nil, err
		}
		switch head {
		case "goto":
			return &GotoStmt{Pos: p, Target: target}, nil
		case "gosub":
			return &GosubStmt{Pos: p, Target: target}, nil
		}
		return &OnErrorGotoStmt{Pos: p, Target: target}, nil
	case "open":
		if err := d.args(n, 3, 3); err != nil {
			return nil, err
		}
		modes := map[string]OpenMode{"input": OpenInput, "output": OpenOutput, "append": OpenAppend, "binary": OpenBinary, "random": OpenRandom}
		mode, ok := modes[ops[1].Text]
		if !ok {
			return nil, d.errorf(n, "unknown OPEN mode")
		}
		path, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		ch, err := d.expr(ops[2], p.Loc)
		if err != nil {
			return nil, err
		}
		return &OpenStmt{Pos: p, Path: path, Mode: mode, Channel: ch}, nil
	case "close":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		ch, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		return &CloseStmt{Pos: p, Channel: ch}, nil
	case "seek":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		a, err := d.exprs(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		return &SeekStmt{Pos: p, Channel: a[0], Offset: a[1]}, nil
	case "resume":
		if err := d.args(n, 0, 1); err != nil {
			return nil, err
		}
		s := &ResumeStmt{Pos: p, Mode: ResumeSame}
		if len(ops) == 1 {
			if ops[0].Type == sexy.NodeSymbol && ops[0].Text == "next" {
				s.Mode = ResumeNext
			} else {
				s.Mode = ResumeLabel
				if s.Target, err = d.lineNumber(ops[0]); err != nil {
					return nil, err
				}
			}
		}
		return s, nil
	case "end":
		return &EndStmt{Pos: p}, d.args(n, 0, 0)
	case "input":
		if err := d.args(n, 1, -1); err != nil {
			return nil, err
		}
		s := &InputStmt{Pos: p}
		rest := ops
		if rest[0].Head() == "str" {
			if s.Prompt, err = d.expr(rest[0], p.Loc); err != nil {
				return nil, err
			}
			rest = rest[1:]
		}
		if s.Targets, err = d.exprs(rest, p.Loc); err != nil {
			return nil, err
		}
		return s, nil
	case "input-ch":
		if err := d.args(n, 2, -1); err != nil {
			return nil, err
		}
		a, err := d.exprs(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		return &InputChStmt{Pos: p, Channel: a[0], Targets: a[1:]}, nil
	case "line-input-ch":
		if err := d.args(n, 2, 2); err != nil {
			return nil, err
		}
		a, err := d.exprs(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		return &LineInputChStmt{Pos: p, Channel: a[0], Target: a[1]}, nil
	case "return":
		if err := d.args(n, 0, 1); err != nil {
			return nil, err
		}
		v, err := d.optionalExpr(ops, 0, p.Loc)
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Pos: p, Value: v}, nil
	case "gosub-return":
		return &ReturnStmt{Pos: p, IsGosubReturn: true}, d.args(n, 0, 0)
	case "stmts":
		body, err := d.stmts(ops, p.Loc)
		if err != nil {
			return nil, err
		}
		return &StmtList{Pos: p, Stmts: body}, nil
	case "delete":
		if err := d.args(n, 1, 1); err != nil {
			return nil, err
		}
		target, err := d.expr(ops[0], p.Loc)
		if err != nil {
			return nil, err
		}
		return &DeleteStmt{Pos: p, Target: target}, nil
	case "function", "sub", "method":
		return d.procedure(n, p)
	case "ctor", "dtor":
		return d.ctorDtor(n, p)
	case "class", "type":
		return d.class(n, p)
	}
	return nil, d.errorf(n, "unknown statement %s", head)
}

func (d *decoder) dim(n *sexy.Node, p Pos) (Stmt, error) {
	if err := d.args(n, 1, -1); err != nil {
		return nil, err
	}
	name, err := d.name(n.Items[1])
	if err != nil {
		return nil, err
	}
	s := &DimStmt{Pos: p, Name: name}
	for _, opt := range n.Items[2:] {
		switch {
		case opt.Type == sexy.NodeSymbol:
			t, ok := parseType(opt.Text)
			if !ok {
				return nil, d.errorf(opt, "unknown type")
			}
			s.Type, s.HasType = t, true
		case opt.Head() == "extents":
			s.IsArray = true
			if s.Extents, err = d.exprs(opt.Items[1:], p.Loc); err != nil {
				return nil, err
			}
		case opt.Head() == "array":
			s.IsArray = true
		case opt.Head() == "object":
			if err := d.args(opt, 1, 1); err != nil {
				return nil, err
			}
			s.ObjectClass = opt.Items[1].Text
		default:
			return nil, d.errorf(opt, "unknown DIM option")
		}
	}
	return s, nil
}

func (d *decoder) ifStmt(n *sexy.Node, p Pos) (Stmt, error) {
	if err := d.args(n, 2, -1); err != nil {
		return nil, err
	}
	cond, err := d.expr(n.Items[1], p.Loc)
	if err != nil {
		return nil, err
	}
	s := &IfStmt{Pos: p, Cond: cond}
	for _, part := range n.Items[2:] {
		switch part.Head() {
		case "then":
			if s.Then, err = d.stmts(part.Items[1:], p.Loc); err != nil {
				return nil, err
			}
		case "elseif":
			if err := d.args(part, 1, -1); err != nil {
				return nil, err
			}
			ap, err := d.pos(part, p.Loc)
			if err != nil {
				return nil, err
			}
			c, err := d.expr(part.Items[1], ap.Loc)
			if err != nil {
				return nil, err
			}
			body, err := d.stmts(part.Items[2:], ap.Loc)
			if err != nil {
				return nil, err
			}
			s.ElseIfs = append(s.ElseIfs, ElseIf{Pos: ap, Cond: c, Then: body})
		case "else":
			if s.Else, err = d.stmts(part.Items[1:], p.Loc); err != nil {
				return nil, err
			}
		default:
			return nil, d.errorf(part, "expected then, elseif or else")
		}
	}
	return s, nil
}

func (d *decoder) selectStmt(n *sexy.Node, p Pos) (Stmt, error) {
	if err := d.args(n, 1, -1); err != nil {
		return nil, err
	}
	sel, err := d.expr(n.Items[1], p.Loc)
	if err != nil {
		return nil, err
	}
	s := &SelectCaseStmt{Pos: p, Selector: sel}
	for _, part := range n.Items[2:] {
		switch part.Head() {
		case "case":
			if err := d.args(part, 1, -1); err != nil {
				return nil, err
			}
			ap, err := d.pos(part, p.Loc)
			if err != nil {
				return nil, err
			}
			arm := CaseArm{Pos: ap}
			labels := part.Items[1]
			if labels.Head() != "labels" {
				return nil, d.errorf(part, "expected (labels ...)")
			}
			for _, l := range labels.Items[1:] {
				cl, err := d.caseLabel(l, ap.Loc)
				if err != nil {
					return nil, err
				}
				arm.Labels = append(arm.Labels, cl)
			}
			if arm.Body, err = d.stmts(part.Items[2:], ap.Loc); err != nil {
				return nil, err
			}
			s.Arms = append(s.Arms, arm)
		case "case-else":
			s.HasElse = true
			if s.Else, err = d.stmts(part.Items[1:], p.Loc); err != nil {
				return nil, err
			}
		default:
			return nil, d.errorf(part, "expected case or case-else")
		}
	}
	return s, nil
}

func (d *decoder) caseLabel(n *sexy.Node, outer Loc) (CaseLabel, error) {
	switch n.Head() {
	case "value":
		if err := d.args(n, 1, 1); err != nil {
			return CaseLabel{}, err
		}
		v, err := d.expr(n.Items[1], outer)
		return CaseLabel{Kind: CaseValue, Lo: v}, err
	case "range":
		if err := d.args(n, 2, 2); err != nil {
			return CaseLabel{}, err
		}
		a, err := d.exprs(n.Items[1:], outer)
		if err != nil {
			return CaseLabel{}, err
		}
		return CaseLabel{Kind: CaseRange, Lo: a[0], Hi: a[1]}, nil
	case "is":
		if err := d.args(n, 2, 2); err != nil {
			return CaseLabel{}, err
		}
		op, ok := binaryOps[n.Items[1].Text]
		if !ok || !op.IsComparison() {
			return CaseLabel{}, d.errorf(n, "CASE IS needs a relational operator")
		}
		v, err := d.expr(n.Items[2], outer)
		return CaseLabel{Kind: CaseIs, Op: op, Lo: v}, err
	}
	return CaseLabel{}, d.errorf(n, "unknown case label")
}

func (d *decoder) params(n *sexy.Node) ([]Param, error) {
	var out []Param
	for _, item := range n.Items[1:] {
		if item.Head() != "param" || len(item.Items) < 2 {
			return nil, d.errorf(item, "expected (param NAME ...)")
		}
		name, err := d.name(item.Items[1])
		if err != nil {
			return nil, err
		}
		prm := Param{Name: name}
		for _, opt := range item.Items[2:] {
			switch {
			case opt.Type == sexy.NodeSymbol && opt.Text == "byref":
				prm.ByRef = true
			case opt.Type == sexy.NodeSymbol && opt.Text == "byval":
				prm.ByRef = false
			case opt.Type == sexy.NodeSymbol && opt.Text == "array":
				prm.IsArray = true
			case opt.Type == sexy.NodeSymbol:
				t, ok := parseType(opt.Text)
				if !ok {
					return nil, d.errorf(opt, "unknown parameter option")
				}
				prm.Type, prm.HasType = t, true
			case opt.Head() == "object" && len(opt.Items) == 2:
				prm.ObjectClass = opt.Items[1].Text
			default:
				return nil, d.errorf(opt, "unknown parameter option")
			}
		}
		out = append(out, prm)
	}
	return out, nil
}

// procedure decodes (function|sub|method NAME [(params ...)] [(returns T)] body...).
func (d *decoder) procedure(n *sexy.Node, p Pos) (Stmt, error) {
	if err := d.args(n, 1, -1); err != nil {
		return nil, err
	}
	name, err := d.name(n.Items[1])
	if err != nil {
		return nil, err
	}
	rest := n.Items[2:]
	var params []Param
	if len(rest) > 0 && rest[0].Head() == "params" {
		if params, err = d.params(rest[0]); err != nil {
			return nil, err
		}
		rest = rest[1:]
	}
	var ret Type
	var hasRet bool
	var retClass string
	if len(rest) > 0 && rest[0].Head() == "returns" {
		r := rest[0]
		if err := d.args(r, 1, 1); err != nil {
			return nil, err
		}
		if r.Items[1].Head() == "object" && len(r.Items[1].Items) == 2 {
			retClass = r.Items[1].Items[1].Text
		} else if ret, hasRet = parseType(r.Items[1].Text); !hasRet {
			return nil, d.errorf(r, "unknown return type")
		}
		hasRet = true
		rest = rest[1:]
	}
	body, err := d.stmts(rest, p.Loc)
	if err != nil {
		return nil, err
	}
	switch n.Head() {
	case "function":
		return &FunctionDecl{Pos: p, Name: name, Params: params, Ret: ret, HasRet: hasRet, RetClass: retClass, Body: body}, nil
	case "sub":
		if hasRet {
			return nil, d.errorf(n, "SUB cannot return a value")
		}
		return &SubDecl{Pos: p, Name: name, Params: params, Body: body}, nil
	}
	return &MethodDecl{Pos: p, Name: name, Params: params, Ret: ret, HasRet: hasRet, RetClass: retClass, Body: body}, nil
}

func (d *decoder) ctorDtor(n *sexy.Node, p Pos) (Stmt, error) {
	rest := n.Items[1:]
	var params []Param
	var err error
	if len(rest) > 0 && rest[0].Head() == "params" {
		if params, err = d.params(rest[0]); err != nil {
			return nil, err
		}
		rest = rest[1:]
	}
	hasRet := false
	if len(rest) > 0 && rest[0].Head() == "returns" {
		hasRet = true
		rest = rest[1:]
	}
	body, err := d.stmts(rest, p.Loc)
	if err != nil {
		return nil, err
	}
	if n.Head() == "ctor" {
		return &ConstructorDecl{Pos: p, Params: params, Body: body, HasReturnType: hasRet}, nil
	}
	return &DestructorDecl{Pos: p, Params: params, Body: body}, nil
}

// class decodes (class NAME (field ...)... member...) and (type NAME (field ...)...).
func (d *decoder) class(n *sexy.Node, p Pos) (Stmt, error) {
	if err := d.args(n, 1, -1); err != nil {
		return nil, err
	}
	name, err := d.name(n.Items[1])
	if err != nil {
		return nil, err
	}
	var fields []Field
	var members []Stmt
	for _, item := range n.Items[2:] {
		if item.Head() == "field" {
			f, err := d.field(item)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
			continue
		}
		if n.Head() == "type" {
			return nil, d.errorf(item, "TYPE may only contain fields")
		}
		m, err := d.stmt(item, p.Loc)
		if err != nil {
			return nil, err
		}
		switch m.(type) {
		case *ConstructorDecl, *DestructorDecl, *MethodDecl:
		default:
			return nil, d.errorf(item, "unexpected class member")
		}
		members = append(members, m)
	}
	if n.Head() == "type" {
		return &TypeDecl{Pos: p, Name: name, Fields: fields}, nil
	}
	return &ClassDecl{Pos: p, Name: name, Fields: fields, Members: members}, nil
}

// field decodes (field NAME [TYPE] [(extents N...)] [(object CLASS)]).
func (d *decoder) field(n *sexy.Node) (Field, error) {
	if err := d.args(n, 1, -1); err != nil {
		return Field{}, err
	}
	name, err := d.name(n.Items[1])
	if err != nil {
		return Field{}, err
	}
	f := Field{Name: name, Type: SuffixType(name)}
	for _, opt := range n.Items[2:] {
		switch {
		case opt.Type == sexy.NodeSymbol:
			t, ok := parseType(opt.Text)
			if !ok {
				return Field{}, d.errorf(opt, "unknown field type")
			}
			f.Type = t
		case opt.Head() == "extents":
			f.IsArray = true
			for _, e := range opt.Items[1:] {
				v, err := e.Int()
				if err != nil {
					return Field{}, d.errorf(e, "field extents must be integer constants")
				}
				f.Extents = append(f.Extents, v)
			}
		case opt.Head() == "object" && len(opt.Items) == 2:
			f.ObjectClass = opt.Items[1].Text
		default:
			return Field{}, d.errorf(opt, "unknown field option")
		}
	}
	return f, nil
}

// SuffixType infers a type from a BASIC name suffix. Names without a suffix
// are I64.
func SuffixType(name string) Type {
	if name == "" {
		return I64
	}
	switch name[len(name)-1] {
	case '$':
		return Str
	case '#', '!':
		return F64
	}
	return I64
}
