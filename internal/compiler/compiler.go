// Package compiler lowers an internal/ast.Program into an
// internal/bytecode.Chunk, per spec.md §4.3.
package compiler

import (
	"fmt"

	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/pkg/token"
)

// Error is a codegen-time failure with position information, per
// spec.md §7 ("creating a local outside a function; unresolved
// break/continue targets").
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: codegen error: %s", e.Pos, e.Message)
}

// loopPatches is the per-loop stack of unresolved break/continue
// jump-instruction indices, maintained properly (unlike the source's
// brittle patch-list clearing) per spec.md §9's flagged Open Question.
type loopPatches struct {
	breaks    []int
	continues []int
}

// funcScope tracks the instruction list, local-variable table and
// loop-patch stack currently being compiled into. A nil funcScope means
// top-level (main) code, where every name resolves to a global.
type funcScope struct {
	fn    *bytecode.FuncEntry
	loops []*loopPatches
}

// Compiler walks an ast.Program once and emits a bytecode.Chunk.
type Compiler struct {
	chunk    *bytecode.Chunk
	scope    *funcScope // nil at top level
	topScope *funcScope // synthetic scope holding top-level loop patches
	errs     []*Error
}

// New returns a Compiler ready to compile a single Program into a
// fresh Chunk.
func New() *Compiler {
	return &Compiler{chunk: bytecode.NewChunk()}
}

// Compile lowers prog and returns the resulting Chunk, or the
// accumulated codegen errors.
func Compile(prog *ast.Program) (*bytecode.Chunk, []*Error) {
	c := New()
	for _, s := range prog.Statements {
		c.compileStmt(s)
	}
	c.emit(bytecode.OP_HALT, 0)
	return c.chunk, c.errs
}

func (c *Compiler) errorf(pos token.Position, format string, args ...interface{}) {
	c.errs = append(c.errs, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// activeList returns the instruction list currently being appended to:
// the enclosing function's body, or main at top level.
func (c *Compiler) activeList() *[]bytecode.Instruction {
	if c.scope != nil {
		return &c.scope.fn.Instructions
	}
	return &c.chunk.Main
}

// emit appends an instruction to the active list and returns its index.
func (c *Compiler) emit(op bytecode.OpCode, operand int32) int {
	list := c.activeList()
	*list = append(*list, bytecode.Instruction{Op: op, Operand: operand})
	return len(*list) - 1
}

// here returns the index the next emitted instruction will occupy.
func (c *Compiler) here() int { return len(*c.activeList()) }

// patchJump back-patches the operand of the jump instruction at idx to
// target the current end of the active list.
func (c *Compiler) patchJump(idx int) {
	list := c.activeList()
	(*list)[idx].Operand = int32(c.here())
}

func (c *Compiler) patchJumpTo(idx, target int) {
	list := c.activeList()
	(*list)[idx].Operand = int32(target)
}

func (c *Compiler) constIndex(v bytecode.Const) int32 { return c.chunk.AddConst(v) }

func (c *Compiler) pushLoop() *loopPatches {
	lp := &loopPatches{}
	c.scope0Loops(func(s *funcScope) { s.loops = append(s.loops, lp) })
	return lp
}

func (c *Compiler) popLoop() {
	c.scope0Loops(func(s *funcScope) { s.loops = s.loops[:len(s.loops)-1] })
}

func (c *Compiler) currentLoop() *loopPatches {
	var out *loopPatches
	c.scope0Loops(func(s *funcScope) {
		if len(s.loops) > 0 {
			out = s.loops[len(s.loops)-1]
		}
	})
	return out
}

// scope0Loops centralizes top-level-vs-function loop-stack access; at
// top level loops are tracked on a synthetic scope kept on the
// Compiler itself so break/continue work outside functions too.
func (c *Compiler) scope0Loops(f func(*funcScope)) {
	if c.scope == nil {
		if c.topScope == nil {
			c.topScope = &funcScope{}
		}
		f(c.topScope)
		return
	}
	f(c.scope)
}
