package lower

import (
	"github.com/strager/basil/ast"
	"github.com/strager/basil/rt"
	"github.com/strager/basil/sema"
)

// predict adds the runtime helpers that body needs no matter how it is
// lowered. The emitter records what it actually calls; every predicted
// helper is among those.
func predict(set *rt.Set, a *sema.Analyzer, body []ast.Stmt) {
	cat := func(e ast.Expr) sema.Category { return a.Types[e].Cat }
	ast.InspectStmts(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.BinaryExpr:
			l, r := cat(n.X), cat(n.Y)
			switch {
			case n.Op == ast.OpPow:
				set.Add(rt.Pow)
			case (n.Op == ast.OpConcat || n.Op == ast.OpAdd) && l == sema.CatStr && r == sema.CatStr:
				set.Add(rt.Concat)
			case (n.Op == ast.OpEq || n.Op == ast.OpNe) && l == sema.CatStr && r == sema.CatStr:
				set.Add(rt.StrEq)
			}
		case *ast.BuiltinCallExpr:
			predictBuiltin(set, n, cat)
		case *ast.NewExpr:
			set.Add(rt.ObjNew)
		case *ast.IsExpr:
			set.Add(rt.ObjClassID)
		case *ast.AsExpr:
			set.Add(rt.CastAs)
		case *ast.PrintStmt:
			predictPrint(set, n, cat)
		case *ast.ClsStmt:
			set.Add(rt.TermCls)
		case *ast.ColorStmt:
			set.Add(rt.TermColor)
		case *ast.LocateStmt:
			set.Add(rt.TermLocate)
		case *ast.RandomizeStmt:
			set.Add(rt.RandomizeI64)
		case *ast.OpenStmt:
			set.Add(rt.OpenErrVstr)
		case *ast.CloseStmt:
			set.Add(rt.CloseErr)
		case *ast.SeekStmt:
			set.Add(rt.SeekChErr)
		case *ast.InputStmt:
			set.Add(rt.InputLine)
			if len(n.Targets) > 1 {
				set.Add(rt.SplitFields)
			}
		case *ast.InputChStmt:
			set.Add(rt.LineInputChErr)
			if len(n.Targets) > 1 {
				set.Add(rt.SplitFields)
			}
		case *ast.LineInputChStmt:
			set.Add(rt.LineInputChErr)
		case *ast.PrintChStmt:
			switch {
			case n.Write && n.NoNewline, !n.Write && n.NoNewline && len(n.Args) > 0:
				set.Add(rt.WriteChErr)
			default:
				set.Add(rt.PrintlnChErr)
			}
			if n.Write {
				for _, arg := range n.Args {
					if cat(arg) == sema.CatStr {
						set.Add(rt.CsvQuote)
					}
				}
				if len(n.Args) > 1 {
					set.Add(rt.Concat)
				}
			}
		case *ast.DimStmt:
			if n.IsArray && len(n.Extents) > 0 {
				set.Add(arrayFamilyOf(dimElem(a, n)).New)
			}
		}
		return true
	})
}

// dimElem is the element category a DIM declares, as the analyzer's symbol
// table sees it.
func dimElem(a *sema.Analyzer, d *ast.DimStmt) sema.Category {
	if d.ObjectClass != "" {
		return sema.CatObject
	}
	if s := a.Env.Symbols.Find(d.Name); s != nil {
		return s.Category()
	}
	if d.HasType {
		return sema.CategoryOf(d.Type)
	}
	return sema.SuffixCategory(sema.Canonical(d.Name))
}

func predictBuiltin(set *rt.Set, e *ast.BuiltinCallExpr, cat func(ast.Expr) sema.Category) {
	arg := sema.CatUnknown
	if len(e.Args) > 0 {
		arg = cat(e.Args[0])
	}
	switch e.Builtin {
	case ast.BuiltinLen:
		set.Add(rt.Len)
	case ast.BuiltinMid:
		if len(e.Args) == 3 {
			set.Add(rt.Mid3)
		} else {
			set.Add(rt.Mid2)
		}
	case ast.BuiltinLeft:
		set.Add(rt.Left)
	case ast.BuiltinRight:
		set.Add(rt.Right)
	case ast.BuiltinUCase:
		set.Add(rt.UCase)
	case ast.BuiltinLCase:
		set.Add(rt.LCase)
	case ast.BuiltinChr:
		set.Add(rt.Chr)
	case ast.BuiltinAsc:
		set.Add(rt.Asc)
	case ast.BuiltinInStr:
		if len(e.Args) == 3 {
			set.Add(rt.InStr3)
		} else {
			set.Add(rt.InStr2)
		}
	case ast.BuiltinStr:
		set.Add(strFeature(arg))
	case ast.BuiltinVal:
		set.Add(rt.Val)
	case ast.BuiltinInt:
		if arg.IsFloat() {
			set.Add(rt.IntFloor)
		}
	case ast.BuiltinFix:
		if arg.IsFloat() {
			set.Add(rt.FixTrunc)
		}
	case ast.BuiltinAbs:
		if arg.IsFloat() {
			set.Add(rt.AbsF64)
		} else {
			set.Add(rt.AbsI64)
		}
	case ast.BuiltinSqr:
		set.Add(rt.Sqrt)
	case ast.BuiltinSin:
		set.Add(rt.Sin)
	case ast.BuiltinCos:
		set.Add(rt.Cos)
	case ast.BuiltinRnd:
		set.Add(rt.Rnd)
	case ast.BuiltinEof:
		set.Add(rt.EofCh)
	case ast.BuiltinLof:
		set.Add(rt.LofCh)
	case ast.BuiltinLoc:
		set.Add(rt.LocCh)
	}
}

func predictPrint(set *rt.Set, s *ast.PrintStmt, cat func(ast.Expr) sema.Category) {
	trailingSep := len(s.Items) > 0 && s.Items[len(s.Items)-1].Expr == nil
	if !trailingSep {
		set.Add(rt.PrintStr)
	}
	for _, item := range s.Items {
		if item.Expr == nil {
			if item.Sep == ast.PrintSepComma {
				set.Add(rt.PrintStr)
			}
			continue
		}
		c := cat(item.Expr)
		switch {
		case c == sema.CatStr:
			set.Add(rt.PrintStr)
		case c.IsFloat():
			set.Add(rt.PrintF64)
		default:
			set.Add(rt.PrintI64)
		}
	}
}

// strFeature is the STR$ helper for a value of category c.
func strFeature(c sema.Category) rt.Feature {
	switch c {
	case sema.CatI16:
		return rt.StrFromI16
	case sema.CatI32:
		return rt.StrFromI32
	case sema.CatSingle:
		return rt.StrFromSingle
	case sema.CatDouble:
		return rt.StrFromDouble
	}
	return rt.StrFromLong
}
