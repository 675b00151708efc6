package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// checkIO traps with the runtime's error code when a channel helper
// fails.
func (l *lowerer) checkIO(err il.Value) {
	b := l.b
	failed := b.EmitTyped(il.ICmpNe, il.I32, il.I1, err, il.ConstInt(0, il.I32))
	trap := l.block("ioerr")
	ok := l.block("io_ok")
	b.CBr(failed, trap.Label, ok.Label)
	b.SetBlock(trap)
	b.TrapFromErr(il.I32, err)
	b.SetBlock(ok)
}

func (l *lowerer) channel(e ast.Expr) il.Value {
	return l.coerce(l.expr(e), il.I32)
}

func (l *lowerer) open(s *ast.OpenStmt) {
	path := l.expr(s.Path)
	mode := il.ConstInt(int64(s.Mode), il.I32)
	ch := l.channel(s.Channel)
	l.checkIO(l.call(rt.OpenErrVstr, path, mode, ch))
}

// printCh lowers PRINT # and WRITE #. WRITE # quotes strings and joins
// the fields with commas.
func (l *lowerer) printCh(s *ast.PrintChStmt) {
	ch := l.channel(s.Channel)
	if s.Write {
		l.writeCh(ch, s)
		return
	}
	if len(s.Args) == 0 {
		l.checkIO(l.call(rt.PrintlnChErr, ch, l.str("")))
		return
	}
	for i, arg := range s.Args {
		v := l.toStr(l.expr(arg), l.info(arg).Cat)
		f := rt.WriteChErr
		if i == len(s.Args)-1 && !s.NoNewline {
			f = rt.PrintlnChErr
		}
		l.checkIO(l.call(f, ch, v))
	}
}

func (l *lowerer) writeCh(ch il.Value, s *ast.PrintChStmt) {
	var line il.Value
	for i, arg := range s.Args {
		v := l.expr(arg)
		if v.Type == il.Str {
			v = l.strResult(l.call(rt.CsvQuote, v))
		} else {
			v = l.toStr(v, l.info(arg).Cat)
		}
		if i == 0 {
			line = v
			continue
		}
		line = l.strResult(l.call(rt.Concat, line, l.str(",")))
		line = l.strResult(l.call(rt.Concat, line, v))
	}
	if len(s.Args) == 0 {
		line = l.str("")
	}
	f := rt.PrintlnChErr
	if s.NoNewline {
		f = rt.WriteChErr
	}
	l.checkIO(l.call(f, ch, line))
}

// fields splits line into n comma-separated fields. Each field is a
// fresh string.
func (l *lowerer) fields(line il.Value, n int) []il.Value {
	b := l.b
	switch n {
	case 0:
		return nil
	case 1:
		return []il.Value{line}
	}
	buf := b.Alloca(n * 8)
	l.call(rt.SplitFields, line, buf, il.ConstInt(int64(n), il.I64))
	out := make([]il.Value, n)
	for i := range out {
		at := buf
		if i > 0 {
			at = b.Emit(il.Add, il.Ptr, buf, il.ConstInt(int64(i*8), il.I64))
		}
		out[i] = l.strResult(b.Load(il.Str, at))
	}
	return out
}

// input reads a console line into the targets. Numeric fields are
// converted leniently.
func (l *lowerer) input(s *ast.InputStmt) {
	if s.Prompt != nil {
		l.call(rt.PrintStr, l.expr(s.Prompt))
	}
	line := l.strResult(l.call(rt.InputLine))
	for i, f := range l.fields(line, len(s.Targets)) {
		target := s.Targets[i]
		cat := l.targetCategory(target)
		switch {
		case cat == sema.CatStr:
			l.assign(target, f)
		case cat.IsFloat():
			l.assign(target, l.call(rt.ToDouble, f))
		default:
			l.assign(target, l.call(rt.ToInt, f))
		}
	}
}

// readLine reads one line from a channel.
func (l *lowerer) readLine(ch il.Value) il.Value {
	b := l.b
	out := b.Alloca(8)
	l.checkIO(l.call(rt.LineInputChErr, ch, out))
	return l.strResult(b.Load(il.Str, out))
}

// inputCh reads a line from a channel into the targets. Numeric fields
// must parse or the statement traps.
func (l *lowerer) inputCh(s *ast.InputChStmt) {
	b := l.b
	line := l.readLine(l.channel(s.Channel))
	for i, f := range l.fields(line, len(s.Targets)) {
		target := s.Targets[i]
		cat := l.targetCategory(target)
		if cat == sema.CatStr {
			l.assign(target, f)
			continue
		}
		parse, ty := rt.ParseInt64, il.I64
		if cat.IsFloat() {
			parse, ty = rt.ParseDouble, il.F64
		}
		out := b.Alloca(8)
		l.checkIO(l.call(parse, f, out))
		l.assign(target, b.Load(ty, out))
	}
}

func (l *lowerer) lineInputCh(s *ast.LineInputChStmt) {
	line := l.readLine(l.channel(s.Channel))
	l.assign(s.Target, line)
}
