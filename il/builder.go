package il

import (
	"fmt"
	"sort"
)

// Builder appends instructions to a function under construction. Temps are
// numbered from a single counter, and blocks are laid out in the order they
// first received an instruction.
type Builder struct {
	Func *Function
	// Loc is attached to every instruction emitted until it changes.
	Loc Loc

	cur      *Block
	nextTemp int
	nextSeq  int
}

// NewBuilder starts a function whose parameters take the first temp ids.
func NewBuilder(name string, ret Type, params []Param) *Builder {
	f := &Function{Name: name, Ret: ret}
	for i, p := range params {
		p.ID = i
		f.Params = append(f.Params, p)
	}
	return &Builder{Func: f, nextTemp: len(params)}
}

// Param returns the value of the i-th function parameter.
func (b *Builder) Param(i int) Value {
	p := b.Func.Params[i]
	return Temp(p.ID, p.Type)
}

// NewTemp reserves a temp id.
func (b *Builder) NewTemp() int {
	id := b.nextTemp
	b.nextTemp++
	return id
}

// AddBlock appends an empty block. The label must be unique.
func (b *Builder) AddBlock(label string) *Block {
	if b.Func.Block(label) != nil {
		panic(fmt.Sprintf("il: duplicate block label %s", label))
	}
	blk := &Block{Label: label, Seq: -1}
	b.Func.Blocks = append(b.Func.Blocks, blk)
	return blk
}

// SetBlock makes blk the insertion point.
func (b *Builder) SetBlock(blk *Block) {
	b.cur = blk
}

// Block returns the insertion point, or nil.
func (b *Builder) Block() *Block {
	return b.cur
}

// Terminated reports whether the insertion point already ends in a
// terminator.
func (b *Builder) Terminated() bool {
	return b.cur == nil || b.cur.Terminated
}

func (b *Builder) append(in Instr) {
	if b.cur == nil {
		panic("il: no insertion block")
	}
	if b.cur.Terminated {
		panic(fmt.Sprintf("il: block %s is already terminated", b.cur.Label))
	}
	if b.cur.Seq < 0 {
		b.cur.Seq = b.nextSeq
		b.nextSeq++
	}
	in.Loc = b.Loc
	b.cur.Instrs = append(b.cur.Instrs, in)
	if in.Op.IsTerminator() {
		b.cur.Terminated = true
	}
}

// Emit appends an instruction producing a value of type ty.
func (b *Builder) Emit(op Opcode, ty Type, operands ...Value) Value {
	id := b.NewTemp()
	b.append(Instr{Result: id, Op: op, Type: ty, Operands: operands})
	return Temp(id, ty)
}

// EmitTyped appends an instruction whose result type differs from the type
// printed after the mnemonic, such as comparisons.
func (b *Builder) EmitTyped(op Opcode, ty, result Type, operands ...Value) Value {
	id := b.NewTemp()
	b.append(Instr{Result: id, Op: op, Type: ty, Operands: operands})
	return Temp(id, result)
}

// EmitVoid appends an instruction without a result.
func (b *Builder) EmitVoid(op Opcode, ty Type, operands ...Value) {
	b.append(Instr{Result: -1, Op: op, Type: ty, Operands: operands})
}

func (b *Builder) Alloca(size int) Value {
	return b.Emit(Alloca, Ptr, ConstInt(int64(size), I64))
}

func (b *Builder) Load(ty Type, ptr Value) Value {
	return b.Emit(Load, ty, ptr)
}

func (b *Builder) Store(ty Type, ptr, v Value) {
	b.EmitVoid(Store, ty, ptr, v)
}

// Call calls callee. A Void ret produces no temp.
func (b *Builder) Call(callee string, ret Type, args ...Value) Value {
	if ret == Void {
		b.append(Instr{Result: -1, Op: Call, Callee: callee, Operands: args})
		return Value{}
	}
	id := b.NewTemp()
	b.append(Instr{Result: id, Op: Call, Type: ret, Callee: callee, Operands: args})
	return Temp(id, ret)
}

func (b *Builder) ConstStr(global string) Value {
	return b.Emit(ConstStr, Str, GlobalRef(global, Str))
}

func (b *Builder) Br(label string) {
	b.append(Instr{Result: -1, Op: Br, Labels: []string{label}})
}

func (b *Builder) CBr(cond Value, ifTrue, ifFalse string) {
	b.append(Instr{Result: -1, Op: CBr, Operands: []Value{cond}, Labels: []string{ifTrue, ifFalse}})
}

func (b *Builder) Ret(v Value) {
	b.append(Instr{Result: -1, Op: Ret, Operands: []Value{v}})
}

func (b *Builder) RetVoid() {
	b.append(Instr{Result: -1, Op: RetVoid})
}

func (b *Builder) Trap() {
	b.append(Instr{Result: -1, Op: Trap})
}

// TrapFromErr traps with the error code err.
func (b *Builder) TrapFromErr(ty Type, err Value) {
	b.append(Instr{Result: -1, Op: TrapFromErr, Type: ty, Operands: []Value{err}})
}

func (b *Builder) EhPush(handler string) {
	b.append(Instr{Result: -1, Op: EhPush, Labels: []string{handler}})
}

func (b *Builder) EhPop() {
	b.append(Instr{Result: -1, Op: EhPop})
}

// Finish lays blocks out in first-emission order with entry first, closes
// blocks that never received an instruction with a branch to fallback, and
// returns the function.
func (b *Builder) Finish(fallback string) *Function {
	for _, blk := range b.Func.Blocks {
		if len(blk.Instrs) == 0 {
			b.SetBlock(blk)
			b.Br(fallback)
		}
	}
	blocks := b.Func.Blocks
	if len(blocks) > 1 {
		entry := blocks[0]
		rest := append([]*Block(nil), blocks[1:]...)
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Seq < rest[j].Seq })
		b.Func.Blocks = append([]*Block{entry}, rest...)
	}
	b.cur = nil
	return b.Func
}
