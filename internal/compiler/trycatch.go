package compiler

import (
	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/bytecode"
)

// compileTry lowers try/catch/finally per spec.md §4.3 and §4.5.
//
// Layout emitted:
//
//	TRY_BEGIN firstCatchOrFinallyPC
//	<body>
//	TRY_END finallyOrEndPC        ; taken on normal (no-exception) completion
//	CATCH_BEGIN type1             ; entered directly by the VM's exception
//	<bind-or-pop> <catch1 body>   ; dispatch, never by linear fall-through
//	CATCH_END
//	JUMP finallyOrEndPC
//	CATCH_BEGIN type2
//	...
//	FINALLY_BEGIN                 ; optional
//	<finally body>
//	FINALLY_END
//
// Mismatched catch types are never reached by fall-through: the VM's
// THROW handler walks the CATCH_BEGIN chain directly (using a
// catch-span table built at load time) and jumps PC straight to the
// first matching CATCH_BEGIN, so no in-line "try next catch" jump is
// needed in the emitted code.
func (c *Compiler) compileTry(n *ast.TryStmt) {
	tryBeginIdx := c.emit(bytecode.OP_TRY_BEGIN, 0)
	for _, st := range n.Body {
		c.compileStmt(st)
	}
	tryEndIdx := c.emit(bytecode.OP_TRY_END, 0)

	firstCatchPC := c.here()
	var endJumps []int
	for _, cc := range n.Catches {
		typeIdx := int32(-1)
		if cc.TypeName != "" {
			typeIdx = c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: cc.TypeName})
		}
		c.emit(bytecode.OP_CATCH_BEGIN, typeIdx)
		if cc.BindName != "" {
			c.compileStoreIdent(cc.BindName)
		} else {
			c.emit(bytecode.OP_POP, 0)
		}
		for _, st := range cc.Body {
			c.compileStmt(st)
		}
		c.emit(bytecode.OP_CATCH_END, 0)
		endJumps = append(endJumps, c.emit(bytecode.OP_JUMP, 0))
	}

	finallyPC := c.here()
	if n.Finally != nil {
		c.emit(bytecode.OP_FINALLY_BEGIN, 0)
		for _, st := range n.Finally {
			c.compileStmt(st)
		}
		c.emit(bytecode.OP_FINALLY_END, 0)
	}

	c.patchJumpTo(tryBeginIdx, firstCatchPC)
	c.patchJumpTo(tryEndIdx, finallyPC)
	for _, idx := range endJumps {
		c.patchJumpTo(idx, finallyPC)
	}
}
