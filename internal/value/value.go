// Package value implements AquaScript's tagged runtime value model,
// per spec.md §3 and §9.
package value

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Value's runtime type.
type Kind byte

const (
	KNil Kind = iota
	KBool
	KInt
	KFloat
	KString
	KList
	KDict
	KTuple
	KFuncRef
	KNativeFunc
	KClass
	KInstance
	KIterator
	KException
)

// TypeName returns the fixed string type(x) and TYPE_CHECK use, per
// spec.md §9 ("int, float, str, bool, list, dict, tuple, NoneType, plus
// user class names").
func (v Value) TypeName() string {
	switch v.Kind {
	case KNil:
		return "NoneType"
	case KBool:
		return "bool"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "str"
	case KList:
		return "list"
	case KDict:
		return "dict"
	case KTuple:
		return "tuple"
	case KFuncRef, KNativeFunc:
		return "function"
	case KClass:
		return "class"
	case KInstance:
		return v.Instance.Class.Name
	case KIterator:
		return "iterator"
	case KException:
		return "Exception"
	}
	return "unknown"
}

// DictEntry is one insertion-ordered key/value pair of a Dict.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is an insertion-order-preserving mapping, per spec.md §3.
// Keys are compared by their canonical string form (Go maps can't key
// on Value directly since lists/dicts aren't comparable); this mirrors
// how the original dynamically-typed host language hashes script
// values.
type Dict struct {
	index   map[string]int
	Entries []DictEntry
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{index: map[string]int{}}
}

func (d *Dict) Set(k, v Value) {
	key := dictKey(k)
	if i, ok := d.index[key]; ok {
		d.Entries[i].Value = v
		return
	}
	d.index[key] = len(d.Entries)
	d.Entries = append(d.Entries, DictEntry{Key: k, Value: v})
}

func (d *Dict) Get(k Value) (Value, bool) {
	key := dictKey(k)
	if i, ok := d.index[key]; ok {
		return d.Entries[i].Value, true
	}
	return Value{}, false
}

func (d *Dict) Has(k Value) bool {
	_, ok := d.index[dictKey(k)]
	return ok
}

func (d *Dict) Len() int { return len(d.Entries) }

func dictKey(v Value) string {
	switch v.Kind {
	case KString:
		return "s:" + v.Str
	case KInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case KFloat:
		return "f:" + strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case KBool:
		return "b:" + strconv.FormatBool(v.Bool)
	case KNil:
		return "n:"
	default:
		return "r:" + Repr(v)
	}
}

// Class is a runtime class record, per spec.md §3. Instances hold a
// non-owning reference (a pointer into a caller-owned table) so that
// instance<->class cycles never prevent collection by the host's GC,
// per spec.md §9's cyclic-object-graph note.
type Class struct {
	Name    string
	Parent  *Class
	Methods map[string]string // method name -> function-table key
	Fields  map[string]Value  // default attribute map
}

// LookupMethod walks the parent chain, per spec.md §3.
func (c *Class) LookupMethod(name string) (string, bool) {
	for cls := c; cls != nil; cls = cls.Parent {
		if fn, ok := cls.Methods[name]; ok {
			return fn, true
		}
	}
	return "", false
}

// Instance is a runtime object, per spec.md §3.
type Instance struct {
	Class *Class
	Attrs map[string]Value
}

// Iterator is the iteration protocol state from spec.md §4.5:
// (sequence, cursor, length).
type Iterator struct {
	Sequence Value
	Cursor   int
	Length   int
}

// Exception is a thrown value, per spec.md §3.
type Exception struct {
	TypeName string
	Message  string
}

// NativeFunc is a host-provided callable, extending CALL semantics with
// a fourth callee kind per SPEC_FULL.md §B.
type NativeFunc struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

// Value is the tagged union of every AquaScript runtime value.
type Value struct {
	Kind Kind

	Bool bool
	Int  int64
	Flt  float64
	Str  string

	List *[]Value
	Dict *Dict
	Tup  []Value

	FuncName string // KFuncRef: function-table key
	Native   *NativeFunc

	Class    *Class
	Instance *Instance
	Iter     *Iterator
	Exc      *Exception
}

func Nil() Value           { return Value{Kind: KNil} }
func Bool(b bool) Value    { return Value{Kind: KBool, Bool: b} }
func Int(i int64) Value    { return Value{Kind: KInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KFloat, Flt: f} }
func Str(s string) Value   { return Value{Kind: KString, Str: s} }

func List(items []Value) Value {
	l := append([]Value(nil), items...)
	return Value{Kind: KList, List: &l}
}

func TupleOf(items []Value) Value {
	return Value{Kind: KTuple, Tup: append([]Value(nil), items...)}
}

func DictOf(d *Dict) Value { return Value{Kind: KDict, Dict: d} }

func FuncRef(name string) Value { return Value{Kind: KFuncRef, FuncName: name} }

func NativeFn(name string, fn func([]Value) (Value, error)) Value {
	return Value{Kind: KNativeFunc, Native: &NativeFunc{Name: name, Fn: fn}}
}

func ClassVal(c *Class) Value { return Value{Kind: KClass, Class: c} }

func InstanceVal(i *Instance) Value { return Value{Kind: KInstance, Instance: i} }

func IteratorVal(it *Iterator) Value { return Value{Kind: KIterator, Iter: it} }

func ExceptionVal(typeName, message string) Value {
	return Value{Kind: KException, Exc: &Exception{TypeName: typeName, Message: message}}
}

// Truthy implements spec.md §4.5's truthiness rule: "nil and false are
// falsy; numeric zero is falsy; empty string/list/dict/tuple are
// falsy; all others truthy."
func (v Value) Truthy() bool {
	switch v.Kind {
	case KNil:
		return false
	case KBool:
		return v.Bool
	case KInt:
		return v.Int != 0
	case KFloat:
		return v.Flt != 0
	case KString:
		return v.Str != ""
	case KList:
		return len(*v.List) != 0
	case KDict:
		return v.Dict.Len() != 0
	case KTuple:
		return len(v.Tup) != 0
	default:
		return true
	}
}

// Equal implements value equality for EQ/NE and dict-key comparisons.
func Equal(a, b Value) bool {
	if a.Kind == KInt && b.Kind == KFloat {
		return float64(a.Int) == b.Flt
	}
	if a.Kind == KFloat && b.Kind == KInt {
		return a.Flt == float64(b.Int)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNil:
		return true
	case KBool:
		return a.Bool == b.Bool
	case KInt:
		return a.Int == b.Int
	case KFloat:
		return a.Flt == b.Flt
	case KString:
		return a.Str == b.Str
	case KList:
		if len(*a.List) != len(*b.List) {
			return false
		}
		for i := range *a.List {
			if !Equal((*a.List)[i], (*b.List)[i]) {
				return false
			}
		}
		return true
	case KTuple:
		if len(a.Tup) != len(b.Tup) {
			return false
		}
		for i := range a.Tup {
			if !Equal(a.Tup[i], b.Tup[i]) {
				return false
			}
		}
		return true
	case KDict:
		if a.Dict.Len() != b.Dict.Len() {
			return false
		}
		for _, e := range a.Dict.Entries {
			ov, ok := b.Dict.Get(e.Key)
			if !ok || !Equal(e.Value, ov) {
				return false
			}
		}
		return true
	case KInstance:
		return a.Instance == b.Instance
	case KClass:
		return a.Class == b.Class
	case KFuncRef:
		return a.FuncName == b.FuncName
	default:
		return false
	}
}

// Display is the human-readable form used by print/str/FORMAT_VALUE.
func Display(v Value) string {
	switch v.Kind {
	case KNil:
		return "nil"
	case KBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KInt:
		return strconv.FormatInt(v.Int, 10)
	case KFloat:
		return formatFloat(v.Flt)
	case KString:
		return v.Str
	case KList, KTuple, KDict:
		return Repr(v)
	case KFuncRef:
		return "<function " + v.FuncName + ">"
	case KNativeFunc:
		return "<native function " + v.Native.Name + ">"
	case KClass:
		return "<class " + v.Class.Name + ">"
	case KInstance:
		return "<" + v.Instance.Class.Name + " instance>"
	case KIterator:
		return "<iterator>"
	case KException:
		return v.Exc.TypeName + ": " + v.Exc.Message
	}
	return "?"
}

// Repr is the unambiguous form used inside list/dict/tuple display.
func Repr(v Value) string {
	switch v.Kind {
	case KString:
		return strconv.Quote(v.Str)
	case KList:
		parts := make([]string, len(*v.List))
		for i, e := range *v.List {
			parts[i] = Repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KTuple:
		parts := make([]string, len(v.Tup))
		for i, e := range v.Tup {
			parts[i] = Repr(e)
		}
		suffix := ""
		if len(parts) == 1 {
			suffix = ","
		}
		return "(" + strings.Join(parts, ", ") + suffix + ")"
	case KDict:
		parts := make([]string, 0, v.Dict.Len())
		for _, e := range v.Dict.Entries {
			parts = append(parts, Repr(e.Key)+": "+Repr(e.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return Display(v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// SortedKeys is a helper for hosts that want a deterministic key
// ordering distinct from insertion order. Nothing in the core VM or in
// internal/modules calls it.
func SortedKeys(d *Dict) []string {
	keys := make([]string, d.Len())
	for i, e := range d.Entries {
		keys[i] = Display(e.Key)
	}
	sort.Strings(keys)
	return keys
}
