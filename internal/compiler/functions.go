package compiler

import (
	"strconv"

	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/pkg/token"
)

// compileFuncDefStmt lowers a named function definition per
// spec.md §4.3: compile the body under a function-table entry keyed by
// the function's own name, then in the surrounding code LOAD_FUNC +
// STORE the binding.
func (c *Compiler) compileFuncDefStmt(n *ast.FuncDef) {
	c.compileFunctionBody(n.Name, n.Params, n.Body, n.Position)
	idx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Name})
	c.emit(bytecode.OP_LOAD_FUNC, idx)
	c.compileStoreIdent(n.Name)
}

// compileFunctionBody registers a function-table entry named fnName,
// compiles params/body into it, and ensures the body ends in RETURN
// (appending `nil; RETURN` if its last statement didn't), per
// spec.md §4.3.
func (c *Compiler) compileFunctionBody(fnName string, params []ast.Param, body []ast.Stmt, pos token.Position) {
	fn := &bytecode.FuncEntry{
		Name:       fnName,
		LocalVars:  map[string]int32{},
		Parameters: make([]string, len(params)),
	}
	for i, p := range params {
		fn.Parameters[i] = p.Name
		fn.LocalVars[p.Name] = int32(i)
	}
	fn.LocalCount = len(params)
	fn.DefaultConst = make([]int32, len(params))
	for i, p := range params {
		if p.Default == nil {
			fn.DefaultConst[i] = -1
			continue
		}
		fn.DefaultConst[i] = c.defaultConstIndex(p.Default)
	}

	outerScope := c.scope
	c.scope = &funcScope{fn: fn}
	for _, st := range body {
		c.compileStmt(st)
	}
	if len(fn.Instructions) == 0 || fn.Instructions[len(fn.Instructions)-1].Op != bytecode.OP_RETURN {
		nilIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
		c.emit(bytecode.OP_LOAD_CONST, nilIdx)
		c.emit(bytecode.OP_RETURN, 0)
	}
	c.scope = outerScope

	_ = pos
	c.chunk.AddFunction(fn)
}

// defaultConstIndex evaluates a parameter default, which must itself
// be a literal (the source language does not support arbitrary default
// expressions re-evaluated per call); non-literal defaults fall back to
// nil with a codegen error, since nothing in spec.md's opcode set lets
// a function entry carry a lazily-evaluated default.
func (c *Compiler) defaultConstIndex(e ast.Expr) int32 {
	switch n := e.(type) {
	case *ast.NumberLit:
		if n.IsFloat {
			f, err := strconv.ParseFloat(n.Literal, 64)
			if err != nil {
				c.errorf(n.Position, "invalid default literal %q", n.Literal)
				return c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
			}
			return c.constIndex(bytecode.Const{Kind: bytecode.ConstFloat, Flt: f})
		}
		i, err := strconv.ParseInt(n.Literal, 10, 64)
		if err != nil {
			c.errorf(n.Position, "invalid default literal %q", n.Literal)
			return c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
		}
		return c.constIndex(bytecode.Const{Kind: bytecode.ConstInt, Int: i})
	case *ast.StringLit:
		return c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Value})
	case *ast.BoolLit:
		return c.constIndex(bytecode.Const{Kind: bytecode.ConstBool, Bool: n.Value})
	case *ast.NilLit:
		return c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
	default:
		c.errorf(e.Pos(), "parameter default must be a literal")
		return c.constIndex(bytecode.Const{Kind: bytecode.ConstNil})
	}
}

// compileClassDef lowers a class definition per spec.md §4.3: compile
// each method as "<Class>.<method>", build a {methodName:
// function_table_key} constant dict, emit CREATE_CLASS, bind the name.
func (c *Compiler) compileClassDef(n *ast.ClassDef) {
	methodPairs := make([]methodPair, 0, len(n.Methods))
	for _, m := range n.Methods {
		key := n.Name + "." + m.Name
		c.compileFunctionBody(key, m.Params, m.Body, m.Position)
		methodPairs = append(methodPairs, methodPair{name: m.Name, key: key})
	}

	classIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Name})
	if n.Base != "" {
		baseIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: n.Base})
		c.emit(bytecode.OP_LOAD_CONST, baseIdx)
	} else {
		c.emit(bytecode.OP_LOAD_CONST, c.constIndex(bytecode.Const{Kind: bytecode.ConstNil}))
	}
	for _, mp := range methodPairs {
		nameIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: mp.name})
		keyIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: mp.key})
		c.emit(bytecode.OP_LOAD_CONST, nameIdx)
		c.emit(bytecode.OP_LOAD_CONST, keyIdx)
	}
	c.emit(bytecode.OP_BUILD_DICT, int32(len(methodPairs)))

	for _, f := range n.Fields {
		nameIdx := c.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: f.Name})
		c.emit(bytecode.OP_LOAD_CONST, nameIdx)
		if f.Value != nil {
			c.compileExpr(f.Value)
		} else {
			c.emit(bytecode.OP_LOAD_CONST, c.constIndex(bytecode.Const{Kind: bytecode.ConstNil}))
		}
	}
	c.emit(bytecode.OP_BUILD_DICT, int32(len(n.Fields)))

	// CREATE_CLASS k: k names the class (constant-pool index); the
	// stack carries [base-name-or-nil, methodDict, fieldDict], consumed
	// top to bottom as fieldDict, methodDict, base.
	c.emit(bytecode.OP_CREATE_CLASS, classIdx)
	c.compileStoreIdent(n.Name)
}

type methodPair struct {
	name string
	key  string
}
