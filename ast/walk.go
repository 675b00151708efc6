package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// every node. If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *ArrayExpr:
		inspectExprs(n.Indices, f)
	case *UnaryExpr:
		Inspect(n.X, f)
	case *BinaryExpr:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *BuiltinCallExpr:
		inspectExprs(n.Args, f)
	case *CallExpr:
		inspectExprs(n.Args, f)
	case *NewExpr:
		inspectExprs(n.Args, f)
	case *MemberAccessExpr:
		Inspect(n.Base, f)
	case *MethodCallExpr:
		Inspect(n.Base, f)
		inspectExprs(n.Args, f)
	case *IsExpr:
		Inspect(n.Value, f)
	case *AsExpr:
		Inspect(n.Value, f)

	case *PrintStmt:
		for _, item := range n.Items {
			if item.Expr != nil {
				Inspect(item.Expr, f)
			}
		}
	case *PrintChStmt:
		Inspect(n.Channel, f)
		inspectExprs(n.Args, f)
	case *CallStmt:
		Inspect(n.Call, f)
	case *ColorStmt:
		Inspect(n.Fg, f)
		Inspect(n.Bg, f)
	case *LocateStmt:
		Inspect(n.Row, f)
		Inspect(n.Col, f)
	case *LetStmt:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *DimStmt:
		inspectExprs(n.Extents, f)
	case *ReDimStmt:
		inspectExprs(n.Extents, f)
	case *RandomizeStmt:
		Inspect(n.Seed, f)
	case *IfStmt:
		Inspect(n.Cond, f)
		InspectStmts(n.Then, f)
		for _, arm := range n.ElseIfs {
			Inspect(arm.Cond, f)
			InspectStmts(arm.Then, f)
		}
		InspectStmts(n.Else, f)
	case *SelectCaseStmt:
		Inspect(n.Selector, f)
		for _, arm := range n.Arms {
			for _, l := range arm.Labels {
				Inspect(l.Lo, f)
				Inspect(l.Hi, f)
			}
			InspectStmts(arm.Body, f)
		}
		InspectStmts(n.Else, f)
	case *WhileStmt:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
	case *DoStmt:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
	case *ForStmt:
		Inspect(n.Start, f)
		Inspect(n.End, f)
		Inspect(n.Step, f)
		InspectStmts(n.Body, f)
	case *OpenStmt:
		Inspect(n.Path, f)
		Inspect(n.Channel, f)
	case *CloseStmt:
		Inspect(n.Channel, f)
	case *SeekStmt:
		Inspect(n.Channel, f)
		Inspect(n.Offset, f)
	case *InputStmt:
		Inspect(n.Prompt, f)
		inspectExprs(n.Targets, f)
	case *InputChStmt:
		Inspect(n.Channel, f)
		inspectExprs(n.Targets, f)
	case *LineInputChStmt:
		Inspect(n.Channel, f)
		Inspect(n.Target, f)
	case *ReturnStmt:
		Inspect(n.Value, f)
	case *FunctionDecl:
		InspectStmts(n.Body, f)
	case *SubDecl:
		InspectStmts(n.Body, f)
	case *ConstructorDecl:
		InspectStmts(n.Body, f)
	case *DestructorDecl:
		InspectStmts(n.Body, f)
	case *MethodDecl:
		InspectStmts(n.Body, f)
	case *ClassDecl:
		InspectStmts(n.Members, f)
	case *StmtList:
		InspectStmts(n.Stmts, f)
	case *DeleteStmt:
		Inspect(n.Target, f)
	}
}

// InspectStmts calls Inspect on each statement in turn.
func InspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

func inspectExprs(exprs []Expr, f func(Node) bool) {
	for _, e := range exprs {
		Inspect(e, f)
	}
}
