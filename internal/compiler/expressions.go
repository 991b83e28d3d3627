package compiler

import (
	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/parser"
	"github.com/aquascript/aqua/pkg/token"
)

func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NumberLit:
		c.compileNumberLit(n)
	case *ast.StringLit:
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Value})
		c.emit(bytecode.OP_LOAD_CONST, idx)
	case *ast.FString:
		c.compileFString(n)
	case *ast.BoolLit:
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstBool, Bool: n.Value})
		c.emit(bytecode.OP_LOAD_CONST, idx)
	case *ast.NilLit:
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
		c.emit(bytecode.OP_LOAD_CONST, idx)
	case *ast.Ident:
		c.compileLoadIdent(n.Name)
	case *ast.BinaryExpr:
		c.compileBinary(n)
	case *ast.UnaryExpr:
		c.compileUnary(n)
	case *ast.CallExpr:
		c.compileCall(n)
	case *ast.ListLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emit(bytecode.OP_BUILD_LIST, int32(len(n.Elements)))
	case *ast.TupleLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emit(bytecode.OP_BUILD_TUPLE, int32(len(n.Elements)))
	case *ast.DictLit:
		for _, entry := range n.Entries {
			c.compileExpr(entry.Key)
			c.compileExpr(entry.Value)
		}
		c.emit(bytecode.OP_BUILD_DICT, int32(len(n.Entries)))
	case *ast.ListComp:
		c.compileListComp(n)
	case *ast.AttrExpr:
		c.compileExpr(n.Object)
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Name})
		c.emit(bytecode.OP_GET_ATTR, idx)
	case *ast.IndexExpr:
		c.compileExpr(n.Object)
		c.compileExpr(n.Index)
		c.emit(bytecode.OP_GET_ITEM, 0)
	case *ast.LambdaExpr:
		c.compileLambda(n)
	default:
		c.errorf(e.Pos(), "unsupported expression node %T", e)
	}
}

func (c *Compiler) compileNumberLit(n *ast.NumberLit) {
	i, f, err := parser.ParseNumber(n.Literal, n.IsFloat)
	if err != nil {
		c.errorf(n.Position, "invalid numeric literal %q", n.Literal)
		return
	}
	var k bytecode.Const
	if n.IsFloat {
		k = bytecode.Const{Kind: bytecode.ConstFloat, Flt: f}
	} else {
		k = bytecode.Const{Kind: bytecode.ConstInt, Int: i}
	}
	c.emit(bytecode.OP_LOAD_CONST, c.constIndex(k))
}

// compileFString lowers an f-string to a chain of string concatenation:
// push each part (literal, or expression followed by FORMAT_VALUE),
// then ADD them left to right. An empty f-string yields "".
func (c *Compiler) compileFString(n *ast.FString) {
	if len(n.Parts) == 0 {
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: ""})
		c.emit(bytecode.OP_LOAD_CONST, idx)
		return
	}
	for i, part := range n.Parts {
		if part.IsExpr {
			c.compileExpr(part.Expr)
			c.emit(bytecode.OP_FORMAT_VALUE, 0)
		} else {
			idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: part.Text})
			c.emit(bytecode.OP_LOAD_CONST, idx)
		}
		if i > 0 {
			c.emit(bytecode.OP_ADD, 0)
		}
	}
}

// compileLoadIdent implements spec.md §4.3's identifier-load rule:
// inside a function, locals take priority over globals; at top level,
// only the global path is taken.
func (c *Compiler) compileLoadIdent(name string) {
	if c.scope != nil {
		if idx, ok := c.scope.fn.LocalVars[name]; ok {
			c.emit(bytecode.OP_LOAD_LOCAL, idx)
			return
		}
	}
	idx := c.chunk.GlobalIndex(name)
	c.emit(bytecode.OP_LOAD_GLOBAL, idx)
}

// compileStoreIdent implements spec.md §4.3's assignment-target rule,
// including the §9 "once global, always global" carve-out.
func (c *Compiler) compileStoreIdent(name string) {
	if c.scope != nil {
		if idx, ok := c.scope.fn.LocalVars[name]; ok {
			c.emit(bytecode.OP_STORE_LOCAL, idx)
			return
		}
		if c.chunk.HasGlobal(name) {
			c.emit(bytecode.OP_STORE_GLOBAL, c.chunk.GlobalIndex(name))
			return
		}
		idx := int32(c.scope.fn.LocalCount)
		c.scope.fn.LocalVars[name] = idx
		c.scope.fn.LocalCount++
		c.emit(bytecode.OP_STORE_LOCAL, idx)
		return
	}
	c.emit(bytecode.OP_STORE_GLOBAL, c.chunk.GlobalIndex(name))
}

func (c *Compiler) compileBinary(n *ast.BinaryExpr) {
	// and/or are re-lowered to conditional jumps (short-circuit), per
	// DESIGN.md's open-question decisions and spec.md §9's stated
	// intended behavior.
	switch n.Op {
	case token.AND:
		c.compileExpr(n.Left)
		c.emit(bytecode.OP_DUP, 0)
		skip := c.emit(bytecode.OP_JUMP_IF_FALSE, 0)
		c.emit(bytecode.OP_POP, 0)
		c.compileExpr(n.Right)
		c.patchJump(skip)
		return
	case token.OR:
		c.compileExpr(n.Left)
		c.emit(bytecode.OP_DUP, 0)
		skip := c.emit(bytecode.OP_JUMP_IF_TRUE, 0)
		c.emit(bytecode.OP_POP, 0)
		c.compileExpr(n.Right)
		c.patchJump(skip)
		return
	}

	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	op, ok := binOpcodes[n.Op]
	if !ok {
		c.errorf(n.Position, "unsupported binary operator %s", n.Op)
		return
	}
	c.emit(op, 0)
}

var binOpcodes = map[token.Kind]bytecode.OpCode{
	token.PLUS: bytecode.OP_ADD, token.MINUS: bytecode.OP_SUB,
	token.STAR: bytecode.OP_MUL, token.SLASH: bytecode.OP_DIV,
	token.PERCENT: bytecode.OP_MOD, token.STARSTAR: bytecode.OP_POW,
	token.EQ: bytecode.OP_EQ, token.NE: bytecode.OP_NE,
	token.LT: bytecode.OP_LT, token.GT: bytecode.OP_GT,
	token.LE: bytecode.OP_LE, token.GE: bytecode.OP_GE,
	token.IN: bytecode.OP_IN,
}

// compileUnary implements spec.md §4.3: "-x lowers to 0 - x; +x is a
// no-op; not x emits NOT".
func (c *Compiler) compileUnary(n *ast.UnaryExpr) {
	switch n.Op {
	case token.MINUS:
		idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstInt, Int: 0})
		c.emit(bytecode.OP_LOAD_CONST, idx)
		c.compileExpr(n.Operand)
		c.emit(bytecode.OP_SUB, 0)
	case token.PLUS:
		c.compileExpr(n.Operand)
	case token.NOT:
		c.compileExpr(n.Operand)
		c.emit(bytecode.OP_NOT, 0)
	default:
		c.errorf(n.Position, "unsupported unary operator %s", n.Op)
	}
}

// compileCall lowers a plain call (push callee, args, CALL argc) or a
// method call (push receiver, args, CALL_METHOD packed) per
// spec.md §4.3.
func (c *Compiler) compileCall(n *ast.CallExpr) {
	if attr, ok := n.Callee.(*ast.AttrExpr); ok {
		c.compileExpr(attr.Object)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		nameIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: attr.Name})
		c.emit(bytecode.OP_CALL_METHOD, bytecode.PackMethodOperand(len(n.Args), int(nameIdx)))
		return
	}

	c.compileExpr(n.Callee)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	c.emit(bytecode.OP_CALL, int32(len(n.Args)))
}

// compileListComp lowers `[elem for var in iterable if cond]` per
// spec.md §4.3: BUILD_LIST 0, then a for-in loop appending filtered
// elements.
func (c *Compiler) compileListComp(n *ast.ListComp) {
	c.emit(bytecode.OP_BUILD_LIST, 0)
	c.compileExpr(n.Iterable)
	c.emit(bytecode.OP_GET_ITER, 0)

	loopStart := c.here()
	forIter := c.emit(bytecode.OP_FOR_ITER, 0)
	c.compileStoreIdent(n.VarName)

	var skip int = -1
	if n.Cond != nil {
		c.compileExpr(n.Cond)
		skip = c.emit(bytecode.OP_JUMP_IF_FALSE, 0)
	}
	c.compileExpr(n.Elem)
	c.emit(bytecode.OP_LIST_APPEND, 0)
	if skip >= 0 {
		c.patchJump(skip)
	}
	c.emit(bytecode.OP_JUMP, int32(loopStart))
	c.patchJump(forIter)
}

// compileLambda compiles an anonymous single-expression function and
// pushes a function reference, following the same function-table
// machinery as a named func def (spec.md §4.3).
func (c *Compiler) compileLambda(n *ast.LambdaExpr) {
	name := c.freshLambdaName()
	params := make([]ast.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = ast.Param{Name: p}
	}
	body := []ast.Stmt{&ast.ReturnStmt{Position: n.Position, Value: n.Body}}
	c.compileFunctionBody(name, params, body, n.Position)
	idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: name})
	c.emit(bytecode.OP_LOAD_FUNC, idx)
}

var lambdaCounter int

func (c *Compiler) freshLambdaName() string {
	lambdaCounter++
	return "<lambda " + itoa(lambdaCounter) + ">"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
