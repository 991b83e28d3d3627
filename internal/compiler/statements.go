package compiler

import (
	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/bytecode"
)

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		c.compileExpr(n.X)
		c.emit(bytecode.OP_POP, 0)
	case *ast.VarDecl:
		c.compileVarDecl(n)
	case *ast.Assign:
		c.compileExpr(n.Value)
		c.compileStoreIdent(n.Name)
	case *ast.AttrAssign:
		c.compileExpr(n.Object)
		c.compileExpr(n.Value)
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Name})
		c.emit(bytecode.OP_LOAD_CONST, idx)
		c.emit(bytecode.OP_SET_ATTR, 0)
	case *ast.IndexAssign:
		c.compileExpr(n.Object)
		c.compileExpr(n.Index)
		c.compileExpr(n.Value)
		c.emit(bytecode.OP_SET_ITEM, 0)
	case *ast.FuncDef:
		c.compileFuncDefStmt(n)
	case *ast.ClassDef:
		c.compileClassDef(n)
	case *ast.IfStmt:
		c.compileIf(n)
	case *ast.WhileStmt:
		c.compileWhile(n)
	case *ast.RepeatStmt:
		c.compileRepeat(n)
	case *ast.ForStmt:
		c.compileFor(n)
	case *ast.SwitchStmt:
		c.compileSwitch(n)
	case *ast.ImportStmt:
		c.compileImport(n)
	case *ast.ReturnStmt:
		c.compileReturn(n)
	case *ast.BreakStmt:
		c.compileBreak(n)
	case *ast.ContinueStmt:
		c.compileContinue(n)
	case *ast.TryStmt:
		c.compileTry(n)
	case *ast.ThrowStmt:
		c.compileExpr(n.Value)
		c.emit(bytecode.OP_THROW, 0)
	default:
		c.errorf(s.Pos(), "unsupported statement node %T", s)
	}
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
		c.emit(bytecode.OP_LOAD_CONST, idx)
	}
	// A var decl always introduces a fresh binding in its scope: at top
	// level that's a global; inside a function it is a new local unless
	// the name already names a global (spec.md §9 carve-out applies the
	// same as plain assignment).
	if c.scope != nil {
		if _, isLocal := c.scope.fn.LocalVars[n.Name]; !isLocal && !c.chunk.HasGlobal(n.Name) {
			idx := int32(c.scope.fn.LocalCount)
			c.scope.fn.LocalVars[n.Name] = idx
			c.scope.fn.LocalCount++
			c.emit(bytecode.OP_STORE_LOCAL, idx)
			return
		}
	}
	c.compileStoreIdent(n.Name)
}

// compileIf lowers if/else (and elif chains pre-lowered to nested
// IfStmt by the parser) per spec.md §4.3: forward JUMP_IF_FALSE to the
// next arm, forward JUMP to end, back-patched once targets are known.
func (c *Compiler) compileIf(n *ast.IfStmt) {
	c.compileExpr(n.Cond)
	elseJump := c.emit(bytecode.OP_JUMP_IF_FALSE, 0)
	for _, st := range n.Then {
		c.compileStmt(st)
	}
	if len(n.Else) == 0 {
		c.patchJump(elseJump)
		return
	}
	endJump := c.emit(bytecode.OP_JUMP, 0)
	c.patchJump(elseJump)
	for _, st := range n.Else {
		c.compileStmt(st)
	}
	c.patchJump(endJump)
}

// compileWhile lowers while per spec.md §4.3.
func (c *Compiler) compileWhile(n *ast.WhileStmt) {
	lp := c.pushLoop()
	start := c.here()
	c.compileExpr(n.Cond)
	endJump := c.emit(bytecode.OP_JUMP_IF_FALSE, 0)
	for _, st := range n.Body {
		c.compileStmt(st)
	}
	c.emit(bytecode.OP_JUMP, int32(start))
	c.patchJump(endJump)
	c.resolveLoopPatches(lp, start, c.here())
	c.popLoop()
}

// compileRepeat lowers repeat-while per spec.md §4.3: body runs first,
// then the condition; JUMP_IF_TRUE loops back.
func (c *Compiler) compileRepeat(n *ast.RepeatStmt) {
	lp := c.pushLoop()
	start := c.here()
	for _, st := range n.Body {
		c.compileStmt(st)
	}
	// continue must land here: right before the condition re-check.
	condStart := c.here()
	c.compileExpr(n.Cond)
	c.emit(bytecode.OP_JUMP_IF_TRUE, int32(start))
	end := c.here()
	c.resolveLoopPatchesRepeat(lp, condStart, end)
	c.popLoop()
}

// compileFor lowers for-in per spec.md §4.3.
func (c *Compiler) compileFor(n *ast.ForStmt) {
	c.compileExpr(n.Iterable)
	c.emit(bytecode.OP_GET_ITER, 0)

	lp := c.pushLoop()
	start := c.here()
	forIter := c.emit(bytecode.OP_FOR_ITER, 0)
	c.compileStoreIdent(n.VarName)
	for _, st := range n.Body {
		c.compileStmt(st)
	}
	c.emit(bytecode.OP_JUMP, int32(start))
	c.patchJump(forIter)
	c.resolveLoopPatches(lp, start, c.here())
	c.popLoop()
}

// resolveLoopPatches back-patches break sites to target end and
// continue sites to target start, per spec.md §9's Open Question about
// maintaining a proper per-loop patch stack.
func (c *Compiler) resolveLoopPatches(lp *loopPatches, start, end int) {
	for _, idx := range lp.breaks {
		c.patchJumpTo(idx, end)
	}
	for _, idx := range lp.continues {
		c.patchJumpTo(idx, start)
	}
}

// resolveLoopPatchesRepeat is identical but continue targets the
// condition re-check rather than the loop start, since repeat-while's
// body must not re-run unconditionally on continue.
func (c *Compiler) resolveLoopPatchesRepeat(lp *loopPatches, condStart, end int) {
	for _, idx := range lp.breaks {
		c.patchJumpTo(idx, end)
	}
	for _, idx := range lp.continues {
		c.patchJumpTo(idx, condStart)
	}
}

func (c *Compiler) compileBreak(n *ast.BreakStmt) {
	lp := c.currentLoop()
	if lp == nil {
		c.errorf(n.Position, "'break' outside loop")
		return
	}
	idx := c.emit(bytecode.OP_JUMP, 0)
	lp.breaks = append(lp.breaks, idx)
}

func (c *Compiler) compileContinue(n *ast.ContinueStmt) {
	lp := c.currentLoop()
	if lp == nil {
		c.errorf(n.Position, "'continue' outside loop")
		return
	}
	idx := c.emit(bytecode.OP_JUMP, 0)
	lp.continues = append(lp.continues, idx)
}

// compileSwitch lowers switch/case/default per spec.md §4.3: evaluate
// the scrutinee once; DUP + compare + JUMP_IF_FALSE per case; default
// falls through with no guard; final POP removes the scrutinee.
func (c *Compiler) compileSwitch(n *ast.SwitchStmt) {
	c.compileExpr(n.Subject)
	var endJumps []int
	for _, cs := range n.Cases {
		if cs.Value == nil {
			for _, st := range cs.Body {
				c.compileStmt(st)
			}
			continue
		}
		c.emit(bytecode.OP_DUP, 0)
		c.compileExpr(cs.Value)
		c.emit(bytecode.OP_EQ, 0)
		nextJump := c.emit(bytecode.OP_JUMP_IF_FALSE, 0)
		for _, st := range cs.Body {
			c.compileStmt(st)
		}
		endJumps = append(endJumps, c.emit(bytecode.OP_JUMP, 0))
		c.patchJump(nextJump)
	}
	for _, idx := range endJumps {
		c.patchJump(idx)
	}
	c.emit(bytecode.OP_POP, 0)
}

// compileImport lowers import/from-import forms per spec.md §4.2's
// AST shape {module, items|none}; resolution happens in internal/vm
// via the pluggable module resolver (spec.md §9, SPEC_FULL.md §B).
func (c *Compiler) compileImport(n *ast.ImportStmt) {
	modName := n.Path[len(n.Path)-1]
	fullPath := modName
	if len(n.Path) > 1 {
		fullPath = joinDots(n.Path)
	}
	pathIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: fullPath})

	if len(n.Names) == 0 {
		c.emit(bytecode.OP_IMPORT_MODULE, pathIdx)
		bind := modName
		if n.Alias != "" {
			bind = n.Alias
		}
		c.compileStoreIdent(bind)
		return
	}

	for _, name := range n.Names {
		nameIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: name})
		c.emit(bytecode.OP_IMPORT_FROM, pathIdx)
		c.emit(bytecode.OP_GET_ATTR, nameIdx)
		bind := name
		if alias, ok := n.Aliases[name]; ok {
			bind = alias
		}
		c.compileStoreIdent(bind)
	}
}

func joinDots(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

func (c *Compiler) compileReturn(n *ast.ReturnStmt) {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
		c.emit(bytecode.OP_LOAD_CONST, idx)
	}
	c.emit(bytecode.OP_RETURN, 0)
}
