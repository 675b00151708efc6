package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/sema"
)

// syntheticLineBase is the first virtual line number handed to statements
// without a BASIC line label.
const syntheticLineBase = 1_000_000

// ProcedureContext is the lowering state of one procedure. It is created
// fresh for every procedure and discarded afterwards.
type ProcedureContext struct {
	Sig   *sema.ProcSig
	Class *sema.ClassLayout
	Names Namer

	entry *il.Block
	exit  *il.Block

	// lines maps positive BASIC line numbers to their blocks.
	lines map[int]*il.Block
	// stmtBlocks holds the block of each top-level statement.
	stmtBlocks  []*il.Block
	virtual     map[ast.Stmt]int
	nextVirtual int

	// me is the slot holding the receiver of a class member.
	me    il.Value
	hasMe bool
	// globals holds the address of each module variable a procedure other
	// than main uses.
	globals map[string]il.Value

	forSlots map[*ast.ForStmt]forSlots
	loops    []loopFrame

	gosub    gosubState
	handlers handlerState
	deferred []deferredTemp
}

func newProcedureContext(sig *sema.ProcSig, class *sema.ClassLayout, names Namer) *ProcedureContext {
	return &ProcedureContext{
		Sig:         sig,
		Class:       class,
		Names:       names,
		lines:       map[int]*il.Block{},
		virtual:     map[ast.Stmt]int{},
		nextVirtual: syntheticLineBase,
		globals:     map[string]il.Value{},
		forSlots:    map[*ast.ForStmt]forSlots{},
	}
}

// VirtualLine returns the stable block number of a top-level statement: its
// BASIC line when it has one that is not taken yet, otherwise the next
// synthetic number.
func (c *ProcedureContext) VirtualLine(s ast.Stmt) int {
	if n, ok := c.virtual[s]; ok {
		return n
	}
	n := s.SourceLine()
	if n <= 0 || c.lines[n] != nil {
		n = c.nextVirtual
		c.nextVirtual++
	}
	c.virtual[s] = n
	return n
}

// loopFrame is an enclosing FOR, WHILE or DO.
type loopFrame struct {
	kind ast.ExitKind
	// variable is the FOR control variable.
	variable string
	// next is where NEXT branches; done is where EXIT branches.
	next string
	done string
}

// forSlots hold the evaluated end and step of a FOR loop.
type forSlots struct {
	end, step il.Value
	ty        il.Type
}

// deferredTemp is a reference-counted value released at the end of the
// statement that produced it.
type deferredTemp struct {
	v il.Value
	// class is set for objects.
	class  string
	object bool
}
