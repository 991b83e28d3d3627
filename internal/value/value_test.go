package value

import "testing"

func TestTruthiness(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil(), false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Int(5), true},
		{Float(0), false},
		{Float(0.5), true},
		{Str(""), false},
		{Str("x"), true},
		{List(nil), false},
		{List([]Value{Int(1)}), true},
		{TupleOf(nil), false},
		{TupleOf([]Value{Int(1)}), true},
		{DictOf(NewDict()), false},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
	d := NewDict()
	d.Set(Str("a"), Int(1))
	if !DictOf(d).Truthy() {
		t.Error("expected a non-empty dict to be truthy")
	}
}

func TestTypeNames(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil(), "NoneType"},
		{Bool(true), "bool"},
		{Int(1), "int"},
		{Float(1), "float"},
		{Str("x"), "str"},
		{List(nil), "list"},
		{DictOf(NewDict()), "dict"},
		{TupleOf(nil), "tuple"},
	}
	for _, c := range cases {
		if got := c.v.TypeName(); got != c.want {
			t.Errorf("TypeName(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestEqualCrossesIntFloat(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Error("expected int 3 to equal float 3.0")
	}
	if Equal(Int(3), Float(3.1)) {
		t.Error("expected int 3 to not equal float 3.1")
	}
}

func TestEqualLists(t *testing.T) {
	a := List([]Value{Int(1), Str("x")})
	b := List([]Value{Int(1), Str("x")})
	c := List([]Value{Int(1), Str("y")})
	if !Equal(a, b) {
		t.Error("expected structurally equal lists to compare equal")
	}
	if Equal(a, c) {
		t.Error("expected differing lists to compare unequal")
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	d := NewDict()
	d.Set(Str("z"), Int(1))
	d.Set(Str("a"), Int(2))
	d.Set(Str("m"), Int(3))
	var order []string
	for _, e := range d.Entries {
		order = append(order, e.Key.Str)
	}
	want := []string{"z", "a", "m"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dict order = %v, want %v", order, want)
		}
	}
}

func TestDictSetOverwritesInPlace(t *testing.T) {
	d := NewDict()
	d.Set(Str("a"), Int(1))
	d.Set(Str("a"), Int(2))
	if d.Len() != 1 {
		t.Fatalf("expected overwrite to keep a single entry, got %d", d.Len())
	}
	got, ok := d.Get(Str("a"))
	if !ok || got.Int != 2 {
		t.Fatalf("expected a -> 2, got %v, %v", got, ok)
	}
}

func TestDisplayAndRepr(t *testing.T) {
	if Display(Int(42)) != "42" {
		t.Errorf("got %q", Display(Int(42)))
	}
	if Display(Bool(true)) != "true" {
		t.Errorf("got %q", Display(Bool(true)))
	}
	if Display(Nil()) != "nil" {
		t.Errorf("got %q", Display(Nil()))
	}
	l := List([]Value{Int(1), Str("a")})
	if Display(l) != `[1, "a"]` {
		t.Errorf("got %q", Display(l))
	}
	tup := TupleOf([]Value{Int(1)})
	if Repr(tup) != "(1,)" {
		t.Errorf("single-element tuple repr: got %q", Repr(tup))
	}
}

func TestFloatDisplayAlwaysShowsDecimalPoint(t *testing.T) {
	if Display(Float(2)) != "2.0" {
		t.Errorf("got %q", Display(Float(2)))
	}
	if Display(Float(2.5)) != "2.5" {
		t.Errorf("got %q", Display(Float(2.5)))
	}
}

func TestClassMethodLookupWalksParentChain(t *testing.T) {
	base := &Class{Name: "Base", Methods: map[string]string{"greet": "Base.greet"}}
	derived := &Class{Name: "Derived", Parent: base, Methods: map[string]string{}}
	fn, ok := derived.LookupMethod("greet")
	if !ok || fn != "Base.greet" {
		t.Fatalf("expected inherited method lookup to find Base.greet, got %q, %v", fn, ok)
	}
	if _, ok := derived.LookupMethod("missing"); ok {
		t.Fatal("expected lookup of an undefined method to fail")
	}
}
