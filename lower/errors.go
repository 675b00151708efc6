package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
)

// handlerState tracks ON ERROR GOTO in source order. A handler is active
// from ON ERROR GOTO n until ON ERROR GOTO 0, and inside any statement
// that starts at a handler line. While one is active exactly one exception
// frame is pushed.
type handlerState struct {
	// targets are the handler lines named by ON ERROR GOTO.
	targets map[int]bool
	active  bool
	// last is the handler RESUME re-installs.
	last int

	// resume holds the index of the top-level statement that was running
	// when the handler fired. Only allocated when the body uses RESUME or
	// RESUME NEXT.
	resume     il.Value
	hasResume  bool
	candidates []int
}

func (h *handlerState) enter(s ast.Stmt) {
	if line := s.SourceLine(); line > 0 && h.targets[line] {
		h.active = true
		h.last = line
	}
}

func (h *handlerState) install(target int) {
	h.active = target != 0
	if target != 0 {
		h.last = target
	}
}

// handlerPrologue collects handler lines, allocates the resume slot and
// works out which statements record themselves in it.
func (l *lowerer) handlerPrologue(body []ast.Stmt) {
	h := &l.ctx.handlers
	h.targets = map[int]bool{}
	ast.InspectStmts(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.OnErrorGotoStmt:
			if n.Target != 0 {
				h.targets[n.Target] = true
			}
		case *ast.ResumeStmt:
			if n.Mode != ast.ResumeLabel {
				h.hasResume = true
			}
		}
		return true
	})
	if !h.hasResume {
		return
	}
	h.resume = l.b.Alloca(8)

	// Replay the handler transitions the emitter will make.
	for i, s := range body {
		h.enter(s)
		switch s.(type) {
		case *ast.OnErrorGotoStmt, *ast.ResumeStmt:
		default:
			if h.active {
				h.candidates = append(h.candidates, i)
			}
		}
		ast.Inspect(s, func(n ast.Node) bool {
			st, ok := n.(ast.Stmt)
			if !ok {
				return true
			}
			if st != s {
				h.enter(st)
			}
			if oe, ok := st.(*ast.OnErrorGotoStmt); ok {
				h.install(oe.Target)
			}
			return true
		})
	}
	h.active, h.last = false, 0
	T().Debugf("%s: %d resumable statement(s)", l.ctx.Sig.ILName, len(h.candidates))
}

func (l *lowerer) enterStmt(s ast.Stmt) {
	l.ctx.handlers.enter(s)
}

// storeResumePoint records top-level statement i in the resume slot.
func (l *lowerer) storeResumePoint(i int) {
	h := &l.ctx.handlers
	if !h.hasResume {
		return
	}
	for _, c := range h.candidates {
		if c == i {
			l.b.Store(il.I64, h.resume, il.ConstInt(int64(i), il.I64))
			return
		}
	}
}

func (l *lowerer) onErrorGoto(s *ast.OnErrorGotoStmt) {
	h := &l.ctx.handlers
	if h.active {
		l.b.EhPop()
	}
	if s.Target != 0 {
		l.b.EhPush(l.lineBlock(s.Target).Label)
	}
	h.install(s.Target)
}

// resume leaves a handler. RESUME and RESUME NEXT dispatch on the resume
// slot to the failing statement or the one after it.
func (l *lowerer) resume(s *ast.ResumeStmt) {
	b := l.b
	h := &l.ctx.handlers
	l.releaseDeferred()
	if s.Mode != ast.ResumeLabel && len(h.candidates) == 0 {
		l.exitBranch()
		return
	}
	if h.active {
		b.EhPop()
		b.EhPush(l.lineBlock(h.last).Label)
	}

	if s.Mode == ast.ResumeLabel {
		b.Br(l.lineBlock(s.Target).Label)
		return
	}

	blocks := l.ctx.stmtBlocks
	var exit *il.Block
	target := func(k int) string {
		if s.Mode == ast.ResumeSame {
			return blocks[k].Label
		}
		if k+1 < len(blocks) {
			return blocks[k+1].Label
		}
		if exit == nil {
			exit = l.block("resume_exit")
		}
		return exit.Label
	}

	at := b.Load(il.I64, h.resume)
	last := len(h.candidates) - 1
	for _, k := range h.candidates[:last] {
		hit := b.EmitTyped(il.ICmpEq, il.I64, il.I1, at, il.ConstInt(int64(k), il.I64))
		miss := l.block("resume_next")
		b.CBr(hit, target(k), miss.Label)
		b.SetBlock(miss)
	}
	b.Br(target(h.candidates[last]))

	if exit != nil {
		b.SetBlock(exit)
		if h.active {
			b.EhPop()
		}
		b.Br(l.ctx.exit.Label)
	}
}
