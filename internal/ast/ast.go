// Package ast defines the abstract syntax tree produced by
// internal/parser and consumed by internal/compiler.
package ast

import "github.com/aquascript/aqua/pkg/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a compiled file: a flat list of top-level
// statements (function defs, class defs, var decls, expression
// statements, import statements, ...).
type Program struct {
	Statements []Stmt
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}

// ---- Expressions ----------------------------------------------------

type NumberLit struct {
	Position token.Position
	Literal  string
	IsFloat  bool
}

type StringLit struct {
	Position token.Position
	Value    string
}

// FString is an f-string literal: an ordered sequence of literal-text
// and expression parts. Expression parts are stored pre-parsed (the
// parser re-lexes/re-parses each raw expression segment).
type FString struct {
	Position token.Position
	Parts    []FStringPart
}

type FStringPart struct {
	IsExpr bool
	Text   string // literal text
	Expr   Expr   // parsed expression, when IsExpr
}

type BoolLit struct {
	Position token.Position
	Value    bool
}

type NilLit struct {
	Position token.Position
}

type Ident struct {
	Position token.Position
	Name     string
}

type BinaryExpr struct {
	Position token.Position
	Op       token.Kind
	Left     Expr
	Right    Expr
}

type UnaryExpr struct {
	Position token.Position
	Op       token.Kind
	Operand  Expr
}

type CallExpr struct {
	Position token.Position
	Callee   Expr
	Args     []Expr
}

type ListLit struct {
	Position token.Position
	Elements []Expr
}

type TupleLit struct {
	Position token.Position
	Elements []Expr
}

type DictEntry struct {
	Key   Expr
	Value Expr
}

type DictLit struct {
	Position token.Position
	Entries  []DictEntry
}

// ListComp is `[expr for ident in iterable if cond]`; Cond may be nil.
type ListComp struct {
	Position token.Position
	Elem     Expr
	VarName  string
	Iterable Expr
	Cond     Expr
}

type AttrExpr struct {
	Position token.Position
	Object   Expr
	Name     string
}

type IndexExpr struct {
	Position token.Position
	Object   Expr
	Index    Expr
}

type LambdaExpr struct {
	Position token.Position
	Params   []string
	Body     Expr
}

func (*NumberLit) exprNode()  {}
func (*StringLit) exprNode()  {}
func (*FString) exprNode()    {}
func (*BoolLit) exprNode()    {}
func (*NilLit) exprNode()     {}
func (*Ident) exprNode()      {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}
func (*ListLit) exprNode()    {}
func (*TupleLit) exprNode()   {}
func (*DictLit) exprNode()    {}
func (*ListComp) exprNode()   {}
func (*AttrExpr) exprNode()   {}
func (*IndexExpr) exprNode()  {}
func (*LambdaExpr) exprNode() {}

func (n *NumberLit) Pos() token.Position  { return n.Position }
func (n *StringLit) Pos() token.Position  { return n.Position }
func (n *FString) Pos() token.Position    { return n.Position }
func (n *BoolLit) Pos() token.Position    { return n.Position }
func (n *NilLit) Pos() token.Position     { return n.Position }
func (n *Ident) Pos() token.Position      { return n.Position }
func (n *BinaryExpr) Pos() token.Position { return n.Position }
func (n *UnaryExpr) Pos() token.Position  { return n.Position }
func (n *CallExpr) Pos() token.Position   { return n.Position }
func (n *ListLit) Pos() token.Position    { return n.Position }
func (n *TupleLit) Pos() token.Position   { return n.Position }
func (n *DictLit) Pos() token.Position    { return n.Position }
func (n *ListComp) Pos() token.Position   { return n.Position }
func (n *AttrExpr) Pos() token.Position   { return n.Position }
func (n *IndexExpr) Pos() token.Position  { return n.Position }
func (n *LambdaExpr) Pos() token.Position { return n.Position }

// ---- Statements -------------------------------------------------------

type ExprStmt struct {
	Position token.Position
	X        Expr
}

type VarDecl struct {
	Position token.Position
	Name     string
	Value    Expr // nil when declared without initializer
}

type Assign struct {
	Position token.Position
	Name     string
	Value    Expr
}

type AttrAssign struct {
	Position token.Position
	Object   Expr
	Name     string
	Value    Expr
}

type IndexAssign struct {
	Position token.Position
	Object   Expr
	Index    Expr
	Value    Expr
}

type Param struct {
	Name    string
	Default Expr // nil if required
}

type FuncDef struct {
	Position token.Position
	Name     string
	Params   []Param
	Body     []Stmt
}

type ClassDef struct {
	Position token.Position
	Name     string
	Base     string // "" if none
	Fields   []VarDecl
	Methods  []*FuncDef
}

type IfStmt struct {
	Position token.Position
	Cond     Expr
	Then     []Stmt
	// Else holds the else-branch statements. An `elif` chain is
	// represented as a single synthetic IfStmt wrapped in Else, per
	// SPEC_FULL.md §C.2 (no dedicated opcode/node for elif).
	Else []Stmt
}

type WhileStmt struct {
	Position token.Position
	Cond     Expr
	Body     []Stmt
}

// RepeatStmt is `repeat { body } while cond` — body runs at least once.
type RepeatStmt struct {
	Position token.Position
	Body     []Stmt
	Cond     Expr
}

type ForStmt struct {
	Position token.Position
	VarName  string
	Iterable Expr
	Body     []Stmt
}

type CaseClause struct {
	Value Expr // nil for default
	Body  []Stmt
}

type SwitchStmt struct {
	Position token.Position
	Subject  Expr
	Cases    []CaseClause
}

// ImportStmt covers every import form spec.md names:
//
//	import foo            -> Path=["foo"], Names=nil
//	import foo.bar         -> Path=["foo","bar"], Names=nil
//	import foo as f        -> Path=["foo"], Alias="f"
//	from foo import a, b   -> Path=["foo"], Names=["a","b"]
//	from foo import a as x -> Names=["a"], Aliases={"a":"x"}
type ImportStmt struct {
	Position token.Position
	Path     []string
	Alias    string
	Names    []string
	Aliases  map[string]string
}

type ReturnStmt struct {
	Position token.Position
	Value    Expr // nil for bare return
}

type BreakStmt struct {
	Position token.Position
}

type ContinueStmt struct {
	Position token.Position
}

// CatchClause covers all three forms spec.md §4.2 names:
//
//	catch TypeName as name { ... }  -> TypeName="TypeName", BindName="name"
//	catch name { ... }              -> TypeName="", BindName="name" (catch-all, bound)
//	catch { ... }                   -> TypeName="", BindName=""     (catch-all, unbound)
type CatchClause struct {
	TypeName string
	BindName string
	Body     []Stmt
}

type TryStmt struct {
	Position token.Position
	Body     []Stmt
	Catches  []CatchClause
	Finally  []Stmt
}

type ThrowStmt struct {
	Position token.Position
	Value    Expr
}

func (*ExprStmt) stmtNode()     {}
func (*VarDecl) stmtNode()      {}
func (*Assign) stmtNode()       {}
func (*AttrAssign) stmtNode()   {}
func (*IndexAssign) stmtNode()  {}
func (*FuncDef) stmtNode()      {}
func (*ClassDef) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*RepeatStmt) stmtNode()   {}
func (*ForStmt) stmtNode()      {}
func (*SwitchStmt) stmtNode()   {}
func (*ImportStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*TryStmt) stmtNode()      {}
func (*ThrowStmt) stmtNode()    {}

func (n *ExprStmt) Pos() token.Position     { return n.Position }
func (n *VarDecl) Pos() token.Position      { return n.Position }
func (n *Assign) Pos() token.Position       { return n.Position }
func (n *AttrAssign) Pos() token.Position   { return n.Position }
func (n *IndexAssign) Pos() token.Position  { return n.Position }
func (n *FuncDef) Pos() token.Position      { return n.Position }
func (n *ClassDef) Pos() token.Position     { return n.Position }
func (n *IfStmt) Pos() token.Position       { return n.Position }
func (n *WhileStmt) Pos() token.Position    { return n.Position }
func (n *RepeatStmt) Pos() token.Position   { return n.Position }
func (n *ForStmt) Pos() token.Position      { return n.Position }
func (n *SwitchStmt) Pos() token.Position   { return n.Position }
func (n *ImportStmt) Pos() token.Position   { return n.Position }
func (n *ReturnStmt) Pos() token.Position   { return n.Position }
func (n *BreakStmt) Pos() token.Position    { return n.Position }
func (n *ContinueStmt) Pos() token.Position { return n.Position }
func (n *TryStmt) Pos() token.Position      { return n.Position }
func (n *ThrowStmt) Pos() token.Position    { return n.Position }
