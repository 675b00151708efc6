package lower

import (
	"github.com/strager/basil/il"
	"github.com/strager/basil/rt"
)

// Strings and objects are reference counted. A value produced by a runtime
// call owns one reference; that reference is dropped at the end of the
// statement. Storing into a variable takes a reference of its own.

func (l *lowerer) deferStr(v il.Value) {
	l.ctx.deferred = append(l.ctx.deferred, deferredTemp{v: v})
}

func (l *lowerer) deferObj(v il.Value, class string) {
	l.ctx.deferred = append(l.ctx.deferred, deferredTemp{v: v, class: class, object: true})
}

// steal removes v from the deferred list. The caller becomes responsible
// for releasing it.
func (l *lowerer) steal(v il.Value) bool {
	d := l.ctx.deferred
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].v == v {
			l.ctx.deferred = append(d[:i:i], d[i+1:]...)
			return true
		}
	}
	return false
}

// releaseDeferred releases every pending temp in creation order.
func (l *lowerer) releaseDeferred() {
	d := l.ctx.deferred
	l.ctx.deferred = nil
	for _, t := range d {
		if t.object {
			l.releaseObject(t.v, t.class)
		} else {
			l.call(rt.StrReleaseMaybe, t.v)
		}
	}
}

// br and cbr end the current block of a statement. Pending temps are
// released first.
func (l *lowerer) br(label string) {
	l.releaseDeferred()
	l.b.Br(label)
}

func (l *lowerer) cbr(cond il.Value, ifTrue, ifFalse string) {
	l.releaseDeferred()
	l.b.CBr(cond, ifTrue, ifFalse)
}

// block adds a synthesized block.
func (l *lowerer) block(hint string) *il.Block {
	return l.b.AddBlock(l.ctx.Names.Generic(hint))
}

// releaseObject drops one reference to v. When it was the last one the
// destructor runs and the storage is freed.
func (l *lowerer) releaseObject(v il.Value, class string) {
	b := l.b
	dead := l.call(rt.ObjReleaseCheck0, v)
	free := l.block("obj_free")
	join := l.block("obj_join")
	b.CBr(dead, free.Label, join.Label)

	b.SetBlock(free)
	if c := l.env.Lookup(class); c != nil && c.Dtor != nil {
		b.Call(c.Dtor.ILName, il.Void, v)
	}
	l.call(rt.ObjFree, v)
	b.Br(join.Label)
	b.SetBlock(join)
}

func (l *lowerer) storeStr(addr, v il.Value) {
	l.call(rt.StrRetainMaybe, v)
	old := l.b.Load(il.Str, addr)
	l.b.Store(il.Str, addr, v)
	l.call(rt.StrReleaseMaybe, old)
}

func (l *lowerer) storeObj(addr, v il.Value, class string) {
	l.call(rt.ObjRetainMaybe, v)
	old := l.b.Load(il.Ptr, addr)
	l.b.Store(il.Ptr, addr, v)
	l.releaseObject(old, class)
}

// constStr is a literal that is never released, for trap messages and
// module variable names.
func (l *lowerer) constStr(content string) il.Value {
	return l.b.ConstStr(l.env.Symbols.InternString(content))
}
