package il

import (
	"errors"
	"fmt"
	"sort"
)

// maxHandlerDepth bounds the exception-frame depth the verifier explores.
const maxHandlerDepth = 64

// Verify checks the structural rules every lowered module obeys:
// terminated blocks, increasing temp ids in layout order, extern
// declarations matching the called helpers, and balanced eh.push/eh.pop on
// every path that returns.
func Verify(m *Module) error {
	var errs []error
	for _, f := range m.Functions {
		errs = append(errs, verifyBlocks(f)...)
		errs = append(errs, verifyTemps(f)...)
		errs = append(errs, verifyHandlers(f)...)
	}
	errs = append(errs, verifyExterns(m)...)
	return errors.Join(errs...)
}

func verifyBlocks(f *Function) []error {
	var errs []error
	labels := map[string]bool{}
	for _, b := range f.Blocks {
		if labels[b.Label] {
			errs = append(errs, fmt.Errorf("%s: duplicate block label %s", f.Name, b.Label))
		}
		labels[b.Label] = true
	}
	for _, b := range f.Blocks {
		if b.Terminator() == nil {
			errs = append(errs, fmt.Errorf("%s: block %s is not terminated", f.Name, b.Label))
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Op.IsTerminator() && i != len(b.Instrs)-1 {
				errs = append(errs, fmt.Errorf("%s: block %s has %s before its end", f.Name, b.Label, in.Op))
			}
			for _, l := range in.Labels {
				if !labels[l] {
					errs = append(errs, fmt.Errorf("%s: block %s refers to unknown label %s", f.Name, b.Label, l))
				}
			}
		}
	}
	return errs
}

func verifyTemps(f *Function) []error {
	var errs []error
	highest := -1
	for _, p := range f.Params {
		if p.ID <= highest {
			errs = append(errs, fmt.Errorf("%s: parameter %%t%d is out of order", f.Name, p.ID))
		}
		highest = p.ID
	}
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if !in.HasResult() {
				continue
			}
			if in.Result <= highest {
				errs = append(errs, fmt.Errorf("%s: %%t%d in block %s does not follow %%t%d", f.Name, in.Result, b.Label, highest))
				continue
			}
			highest = in.Result
		}
	}
	return errs
}

func verifyExterns(m *Module) []error {
	var errs []error
	defined := map[string]bool{}
	for _, f := range m.Functions {
		defined[f.Name] = true
	}
	declared := map[string]bool{}
	for _, e := range m.Externs {
		if declared[e.Name] {
			errs = append(errs, fmt.Errorf("extern @%s declared twice", e.Name))
		}
		declared[e.Name] = true
	}
	called := map[string]bool{}
	for _, f := range m.Functions {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if in.Op != Call || defined[in.Callee] {
					continue
				}
				called[in.Callee] = true
				if !declared[in.Callee] {
					errs = append(errs, fmt.Errorf("%s: call to undeclared @%s", f.Name, in.Callee))
				}
			}
		}
	}
	var unused []string
	for name := range declared {
		if !called[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	for _, name := range unused {
		errs = append(errs, fmt.Errorf("extern @%s is never called", name))
	}
	return errs
}

type handlerState struct {
	block string
	depth int
}

// verifyHandlers walks every path from the entry block tracking the number of
// live exception frames. An eh.push also makes its handler block reachable
// with the pushed frame live. Paths ending in a trap are not checked.
func verifyHandlers(f *Function) []error {
	if len(f.Blocks) == 0 {
		return nil
	}
	blocks := map[string]*Block{}
	for _, b := range f.Blocks {
		blocks[b.Label] = b
	}

	var errs []error
	seen := map[handlerState]bool{}
	work := []handlerState{{block: f.Blocks[0].Label}}
	for len(work) > 0 {
		st := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[st] {
			continue
		}
		seen[st] = true
		b := blocks[st.block]
		if b == nil {
			continue
		}
		depth := st.depth
	instrs:
		for i := range b.Instrs {
			in := &b.Instrs[i]
			switch in.Op {
			case EhPush:
				depth++
				if depth > maxHandlerDepth {
					errs = append(errs, fmt.Errorf("%s: exception frames grow without bound in block %s", f.Name, b.Label))
					return errs
				}
				for _, l := range in.Labels {
					work = append(work, handlerState{block: l, depth: depth})
				}
			case EhPop:
				depth--
				if depth < 0 {
					errs = append(errs, fmt.Errorf("%s: eh.pop without a live frame in block %s", f.Name, b.Label))
					break instrs
				}
			case Br, CBr:
				for _, l := range in.Labels {
					work = append(work, handlerState{block: l, depth: depth})
				}
			case Ret, RetVoid:
				if depth != 0 {
					errs = append(errs, fmt.Errorf("%s: returns from block %s with %d live exception frames", f.Name, b.Label, depth))
				}
			}
		}
	}
	return errs
}
