package il

// Loc is the source position an instruction was lowered from.
type Loc struct {
	File   string
	Line   int
	Column int
}

// Instr is a single IL instruction.
type Instr struct {
	// Result is the temp id defined by the instruction, or -1.
	Result   int
	Op       Opcode
	Type     Type
	Operands []Value
	Labels   []string // branch targets, handler label for eh.push
	Callee   string   // call target for Call
	Loc      Loc
}

// HasResult reports whether the instruction defines a temporary.
func (in *Instr) HasResult() bool {
	return in.Result >= 0
}

// Param is a function or block parameter.
type Param struct {
	Name string
	Type Type
	ID   int
}

// Block is a basic block.
type Block struct {
	Label      string
	Params     []Param
	Instrs     []Instr
	Terminated bool

	// Seq orders blocks by when they first received an instruction.
	Seq int
}

// Terminator returns the block's final instruction if it is a terminator.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := &b.Instrs[len(b.Instrs)-1]
	if !last.Op.IsTerminator() {
		return nil
	}
	return last
}

// Function is a lowered procedure.
type Function struct {
	Name   string
	Params []Param
	Ret    Type
	Blocks []*Block
}

// Block finds a block by label.
func (f *Function) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Extern declares a runtime helper.
type Extern struct {
	Name   string
	Ret    Type
	Params []Type
}

// Global is a module-level string constant.
type Global struct {
	Name  string
	Value string
}

// Module is the result of lowering a whole program.
type Module struct {
	Externs   []Extern
	Globals   []Global
	Functions []*Function
}

// Function finds a function by name.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
