package lower

import "fmt"

// Namer produces the block labels of one procedure. Generic labels must
// never repeat.
type Namer interface {
	Entry() string
	Line(n int) string
	Exit() string
	Generic(hint string) string
}

// BlockNamer is the default Namer: entry_P, L10_P, ret_P, and hint_N for
// synthesized blocks.
type BlockNamer struct {
	proc string
	next int
}

func NewBlockNamer(proc string) *BlockNamer {
	return &BlockNamer{proc: proc}
}

func (n *BlockNamer) Entry() string        { return "entry_" + n.proc }
func (n *BlockNamer) Line(line int) string { return fmt.Sprintf("L%d_%s", line, n.proc) }
func (n *BlockNamer) Exit() string         { return "ret_" + n.proc }

func (n *BlockNamer) Generic(hint string) string {
	label := fmt.Sprintf("%s_%d", hint, n.next)
	n.next++
	return label
}
