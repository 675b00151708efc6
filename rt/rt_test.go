package rt

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/basil/il"
)

func TestEveryFeatureHasAUniqueName(t *testing.T) {
	seen := map[string]Feature{}
	for f := Feature(0); f < featureCount; f++ {
		name := f.Name()
		be.True(t, name != "")
		if prev, dup := seen[name]; dup {
			t.Errorf("%s is used by features %d and %d", name, prev, f)
		}
		seen[name] = f
		got, ok := Lookup(name)
		be.True(t, ok)
		be.Equal(t, got, f)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("rt_nonexistent")
	be.True(t, !ok)
}

func TestExtern(t *testing.T) {
	e := Mid3.Extern()
	be.Equal(t, e.Name, "rt_mid3")
	be.Equal(t, e.Ret, il.Str)
	be.Equal(t, e.Params, []il.Type{il.Str, il.I64, il.I64})

	// The extern owns its parameter list.
	e.Params[0] = il.I1
	be.Equal(t, Mid3.Signature().Params[0], il.Str)
}

func TestSet(t *testing.T) {
	var s Set
	be.Equal(t, s.Len(), 0)
	be.Equal(t, len(s.Names()), 0)

	s.Add(Concat)
	s.Add(PrintStr)
	s.Add(Concat)
	s.Add(ModvarAddrPtr)
	be.Equal(t, s.Len(), 3)
	be.True(t, s.Has(Concat))
	be.True(t, !s.Has(Pow))
	be.Equal(t, s.Features(), []Feature{Concat, PrintStr, ModvarAddrPtr})
	be.Equal(t, s.Names(), []string{"rt_concat", "rt_modvar_addr_ptr", "rt_print_str"})

	var other Set
	other.Add(Pow)
	s.Union(&other)
	be.True(t, s.Has(Pow))
	be.Equal(t, s.Len(), 4)
}

func TestSignaturePanicsOutOfRange(t *testing.T) {
	defer func() {
		be.True(t, recover() != nil)
	}()
	featureCount.Signature()
}
