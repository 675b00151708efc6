// Package ast defines the BASIC syntax tree consumed by the lowerer.
package ast

import "fmt"

// Type is a BASIC scalar type.
type Type int

const (
	I64 Type = iota
	F64
	Str
	Bool
)

func (t Type) String() string {
	switch t {
	case I64:
		return "i64"
	case F64:
		return "f64"
	case Str:
		return "str"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Loc is a source position.
type Loc struct {
	File   string
	Line   int
	Column int
}

func (l Loc) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Pos is embedded in every node.
type Pos struct {
	Loc Loc
	// Line is the BASIC line number; zero or negative when unlabeled.
	Line int
}

func (p *Pos) Position() Loc   { return p.Loc }
func (p *Pos) SourceLine() int { return p.Line }

type Node interface {
	Position() Loc
	SourceLine() int
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// ==== Expressions

type IntExpr struct {
	Pos
	Value int64
}

type FloatExpr struct {
	Pos
	Value float64
}

type StringExpr struct {
	Pos
	Value string
}

type BoolExpr struct {
	Pos
	Value bool
}

type VarExpr struct {
	Pos
	Name string
}

// ArrayExpr is an indexed array element A(i, j).
type ArrayExpr struct {
	Pos
	Name    string
	Indices []Expr
}

type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryPlus
	UnaryNot
)

type UnaryExpr struct {
	Pos
	Op UnaryOp
	X  Expr
}

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpConcat
)

var binaryOpNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpIDiv: "\\", OpMod: "MOD",
	OpPow: "^", OpEq: "=", OpNe: "<>", OpLt: "<", OpLe: "<=", OpGt: ">",
	OpGe: ">=", OpAnd: "AND", OpOr: "OR", OpXor: "XOR", OpConcat: "&",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return binaryOpNames[op]
}

// IsComparison reports whether op yields a truth value.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

type BinaryExpr struct {
	Pos
	Op   BinaryOp
	X, Y Expr
}

type Builtin int

const (
	BuiltinLen Builtin = iota
	BuiltinMid
	BuiltinLeft
	BuiltinRight
	BuiltinUCase
	BuiltinLCase
	BuiltinChr
	BuiltinAsc
	BuiltinInStr
	BuiltinStr
	BuiltinVal
	BuiltinInt
	BuiltinFix
	BuiltinAbs
	BuiltinSqr
	BuiltinSin
	BuiltinCos
	BuiltinRnd
	BuiltinEof
	BuiltinLof
	BuiltinLoc
)

var builtinNames = [...]string{
	BuiltinLen: "LEN", BuiltinMid: "MID$", BuiltinLeft: "LEFT$",
	BuiltinRight: "RIGHT$", BuiltinUCase: "UCASE$", BuiltinLCase: "LCASE$",
	BuiltinChr: "CHR$", BuiltinAsc: "ASC", BuiltinInStr: "INSTR",
	BuiltinStr: "STR$", BuiltinVal: "VAL", BuiltinInt: "INT", BuiltinFix: "FIX",
	BuiltinAbs: "ABS", BuiltinSqr: "SQR", BuiltinSin: "SIN", BuiltinCos: "COS",
	BuiltinRnd: "RND", BuiltinEof: "EOF", BuiltinLof: "LOF", BuiltinLoc: "LOC",
}

func (b Builtin) String() string {
	if b < 0 || int(b) >= len(builtinNames) {
		return fmt.Sprintf("builtin(%d)", int(b))
	}
	return builtinNames[b]
}

// LookupBuiltin maps a BASIC builtin name to its enumerator.
func LookupBuiltin(name string) (Builtin, bool) {
	for i, n := range builtinNames {
		if n == name {
			return Builtin(i), true
		}
	}
	return 0, false
}

type BuiltinCallExpr struct {
	Pos
	Builtin Builtin
	Args    []Expr
}

type LBoundExpr struct {
	Pos
	Name string
}

type UBoundExpr struct {
	Pos
	Name string
}

// CallExpr calls a user FUNCTION or SUB.
type CallExpr struct {
	Pos
	Callee string
	Args   []Expr
}

type NewExpr struct {
	Pos
	Class string
	Args  []Expr
}

type MeExpr struct {
	Pos
}

type MemberAccessExpr struct {
	Pos
	Base   Expr
	Member string
}

type MethodCallExpr struct {
	Pos
	Base   Expr
	Method string
	Args   []Expr
}

type IsExpr struct {
	Pos
	Value Expr
	Class string
}

type AsExpr struct {
	Pos
	Value Expr
	Class string
}

func (*IntExpr) exprNode()          {}
func (*FloatExpr) exprNode()        {}
func (*StringExpr) exprNode()       {}
func (*BoolExpr) exprNode()         {}
func (*VarExpr) exprNode()          {}
func (*ArrayExpr) exprNode()        {}
func (*UnaryExpr) exprNode()        {}
func (*BinaryExpr) exprNode()       {}
func (*BuiltinCallExpr) exprNode()  {}
func (*LBoundExpr) exprNode()       {}
func (*UBoundExpr) exprNode()       {}
func (*CallExpr) exprNode()         {}
func (*NewExpr) exprNode()          {}
func (*MeExpr) exprNode()           {}
func (*MemberAccessExpr) exprNode() {}
func (*MethodCallExpr) exprNode()   {}
func (*IsExpr) exprNode()           {}
func (*AsExpr) exprNode()           {}

// ==== Statements

// LabelStmt is a line number with no statement attached.
type LabelStmt struct {
	Pos
}

type PrintSep int

const (
	PrintSepNone PrintSep = iota
	PrintSepSemicolon
	PrintSepComma
)

// PrintItem is either an expression or a separator.
type PrintItem struct {
	Expr Expr
	Sep  PrintSep
}

type PrintStmt struct {
	Pos
	Items []PrintItem
}

// PrintChStmt is PRINT #n or WRITE #n.
type PrintChStmt struct {
	Pos
	Channel Expr
	Args    []Expr
	Write   bool
	// NoNewline is set when the argument list ended with a separator.
	NoNewline bool
}

// CallStmt invokes a SUB or method for its side effects.
type CallStmt struct {
	Pos
	Call Expr
}

type ClsStmt struct {
	Pos
}

type ColorStmt struct {
	Pos
	Fg, Bg Expr
}

type LocateStmt struct {
	Pos
	Row, Col Expr
}

// LetStmt assigns to a VarExpr, ArrayExpr or MemberAccessExpr.
type LetStmt struct {
	Pos
	Target Expr
	Value  Expr
}

type DimStmt struct {
	Pos
	Name        string
	Type        Type
	HasType     bool
	IsArray     bool
	Extents     []Expr
	ObjectClass string
}

type ReDimStmt struct {
	Pos
	Name    string
	Extents []Expr
}

type RandomizeStmt struct {
	Pos
	Seed Expr
}

type ElseIf struct {
	Pos
	Cond Expr
	Then []Stmt
}

type IfStmt struct {
	Pos
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
}

type CaseLabelKind int

const (
	CaseValue CaseLabelKind = iota
	CaseRange
	CaseIs
)

type CaseLabel struct {
	Kind CaseLabelKind
	// Op is the relation for CASE IS.
	Op     BinaryOp
	Lo, Hi Expr
}

type CaseArm struct {
	Pos
	Labels []CaseLabel
	Body   []Stmt
}

type SelectCaseStmt struct {
	Pos
	Selector Expr
	Arms     []CaseArm
	Else     []Stmt
	HasElse  bool
}

type WhileStmt struct {
	Pos
	Cond Expr
	Body []Stmt
}

type DoTest int

const (
	DoForever DoTest = iota
	DoPreWhile
	DoPreUntil
	DoPostWhile
	DoPostUntil
)

type DoStmt struct {
	Pos
	Test DoTest
	Cond Expr
	Body []Stmt
}

type ForStmt struct {
	Pos
	Var   string
	Start Expr
	End   Expr
	Step  Expr
	Body  []Stmt
}

// NextStmt closes a FOR; Var is empty for a bare NEXT.
type NextStmt struct {
	Pos
	Var string
}

type ExitKind int

const (
	ExitFor ExitKind = iota
	ExitWhile
	ExitDo
	ExitSub
	ExitFunction
)

type ExitStmt struct {
	Pos
	Kind ExitKind
}

type GotoStmt struct {
	Pos
	Target int
}

type GosubStmt struct {
	Pos
	Target int
}

type OpenMode int

const (
	OpenInput OpenMode = iota
	OpenOutput
	OpenAppend
	OpenBinary
	OpenRandom
)

type OpenStmt struct {
	Pos
	Path    Expr
	Mode    OpenMode
	Channel Expr
}

type CloseStmt struct {
	Pos
	Channel Expr
}

type SeekStmt struct {
	Pos
	Channel Expr
	Offset  Expr
}

// OnErrorGotoStmt installs a handler; Target 0 removes it.
type OnErrorGotoStmt struct {
	Pos
	Target int
}

type ResumeMode int

const (
	ResumeSame ResumeMode = iota
	ResumeNext
	ResumeLabel
)

type ResumeStmt struct {
	Pos
	Mode   ResumeMode
	Target int
}

type EndStmt struct {
	Pos
}

type InputStmt struct {
	Pos
	Prompt  Expr
	Targets []Expr
}

type InputChStmt struct {
	Pos
	Channel Expr
	Targets []Expr
}

type LineInputChStmt struct {
	Pos
	Channel Expr
	Target  Expr
}

// ReturnStmt returns from a procedure, or from a GOSUB when
// IsGosubReturn is set.
type ReturnStmt struct {
	Pos
	Value         Expr
	IsGosubReturn bool
}

type Param struct {
	Name        string
	Type        Type
	HasType     bool
	IsArray     bool
	ByRef       bool
	ObjectClass string
}

type FunctionDecl struct {
	Pos
	Name     string
	Params   []Param
	Ret      Type
	HasRet   bool
	RetClass string
	Body     []Stmt
}

type SubDecl struct {
	Pos
	Name   string
	Params []Param
	Body   []Stmt
}

type ConstructorDecl struct {
	Pos
	Params []Param
	Body   []Stmt
	// HasReturnType is set when the source attached a return type, which is
	// rejected.
	HasReturnType bool
}

type DestructorDecl struct {
	Pos
	Params []Param
	Body   []Stmt
}

type MethodDecl struct {
	Pos
	Name     string
	Params   []Param
	Ret      Type
	HasRet   bool
	RetClass string
	Body     []Stmt
}

type Field struct {
	Name        string
	Type        Type
	IsArray     bool
	Extents     []int64
	ObjectClass string
}

type ClassDecl struct {
	Pos
	Name    string
	Fields  []Field
	Members []Stmt
}

// TypeDecl is a record type: a class without members.
type TypeDecl struct {
	Pos
	Name   string
	Fields []Field
}

type StmtList struct {
	Pos
	Stmts []Stmt
}

type DeleteStmt struct {
	Pos
	Target Expr
}

func (*LabelStmt) stmtNode()       {}
func (*PrintStmt) stmtNode()       {}
func (*PrintChStmt) stmtNode()     {}
func (*CallStmt) stmtNode()        {}
func (*ClsStmt) stmtNode()         {}
func (*ColorStmt) stmtNode()       {}
func (*LocateStmt) stmtNode()      {}
func (*LetStmt) stmtNode()         {}
func (*DimStmt) stmtNode()         {}
func (*ReDimStmt) stmtNode()       {}
func (*RandomizeStmt) stmtNode()   {}
func (*IfStmt) stmtNode()          {}
func (*SelectCaseStmt) stmtNode()  {}
func (*WhileStmt) stmtNode()       {}
func (*DoStmt) stmtNode()          {}
func (*ForStmt) stmtNode()         {}
func (*NextStmt) stmtNode()        {}
func (*ExitStmt) stmtNode()        {}
func (*GotoStmt) stmtNode()        {}
func (*GosubStmt) stmtNode()       {}
func (*OpenStmt) stmtNode()        {}
func (*CloseStmt) stmtNode()       {}
func (*SeekStmt) stmtNode()        {}
func (*OnErrorGotoStmt) stmtNode() {}
func (*ResumeStmt) stmtNode()      {}
func (*EndStmt) stmtNode()         {}
func (*InputStmt) stmtNode()       {}
func (*InputChStmt) stmtNode()     {}
func (*LineInputChStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()      {}
func (*FunctionDecl) stmtNode()    {}
func (*SubDecl) stmtNode()         {}
func (*ConstructorDecl) stmtNode() {}
func (*DestructorDecl) stmtNode()  {}
func (*MethodDecl) stmtNode()      {}
func (*ClassDecl) stmtNode()       {}
func (*TypeDecl) stmtNode()        {}
func (*StmtList) stmtNode()        {}
func (*DeleteStmt) stmtNode()      {}

// Program is a whole BASIC program: procedure and class declarations plus
// the top-level statements that form main.
type Program struct {
	File  string
	Procs []Stmt
	Main  []Stmt
}
