package il

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer writes a module in the textual IL form.
type Printer struct {
	// Locs emits a .loc line whenever the source position changes.
	Locs bool
}

// String renders m without source locations.
func (m *Module) String() string {
	var sb strings.Builder
	if err := (&Printer{}).Print(&sb, m); err != nil {
		panic(err)
	}
	return sb.String()
}

// Print writes m to w.
func (p *Printer) Print(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "il 0.1.2\n")

	if len(m.Externs) > 0 {
		bw.WriteString("\n")
	}
	for _, e := range m.Externs {
		params := make([]string, len(e.Params))
		for i, t := range e.Params {
			params[i] = t.String()
		}
		fmt.Fprintf(bw, "extern @%s(%s) -> %s\n", e.Name, strings.Join(params, ", "), e.Ret)
	}

	if len(m.Globals) > 0 {
		bw.WriteString("\n")
	}
	for _, g := range m.Globals {
		fmt.Fprintf(bw, "global const str @%s = %s\n", g.Name, strconv.Quote(g.Value))
	}

	for _, f := range m.Functions {
		bw.WriteString("\n")
		p.printFunction(bw, f)
	}
	return bw.Flush()
}

func paramList(params []Param) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = fmt.Sprintf("%%t%d:%s", prm.ID, prm.Type)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) printFunction(w *bufio.Writer, f *Function) {
	fmt.Fprintf(w, "func @%s(%s) -> %s {\n", f.Name, paramList(f.Params), f.Ret)
	var last Loc
	for _, b := range f.Blocks {
		if len(b.Params) > 0 {
			fmt.Fprintf(w, "%s(%s):\n", b.Label, paramList(b.Params))
		} else {
			fmt.Fprintf(w, "%s:\n", b.Label)
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if p.Locs && in.Loc.Line > 0 && in.Loc != last {
				fmt.Fprintf(w, "  .loc %q %d %d\n", in.Loc.File, in.Loc.Line, in.Loc.Column)
				last = in.Loc
			}
			w.WriteString("  ")
			w.WriteString(FormatInstr(in))
			w.WriteString("\n")
		}
	}
	w.WriteString("}\n")
}

// FormatInstr renders a single instruction without indentation.
func FormatInstr(in *Instr) string {
	var sb strings.Builder
	if in.HasResult() {
		fmt.Fprintf(&sb, "%%t%d = ", in.Result)
	}
	sb.WriteString(in.Op.String())
	if in.Op.printsType() && in.Type != Void {
		sb.WriteString(" ")
		sb.WriteString(in.Type.String())
	}

	operands := make([]string, len(in.Operands))
	for i, v := range in.Operands {
		operands[i] = v.String()
	}

	switch in.Op {
	case Call:
		fmt.Fprintf(&sb, " @%s(%s)", in.Callee, strings.Join(operands, ", "))
	case CallIndirect:
		if len(operands) > 0 {
			fmt.Fprintf(&sb, " %s(%s)", operands[0], strings.Join(operands[1:], ", "))
		}
	default:
		parts := append(operands, in.Labels...)
		if len(parts) > 0 {
			sb.WriteString(" ")
			sb.WriteString(strings.Join(parts, ", "))
		}
	}
	return sb.String()
}
