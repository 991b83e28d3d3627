package bytecode

import "testing"

func sampleChunk() *Chunk {
	c := NewChunk()
	c.AddConst(Const{Kind: ConstInt, Int: 7})
	c.AddConst(Const{Kind: ConstString, Str: "hello"})
	c.AddConst(Const{Kind: ConstFloat, Flt: 3.5})
	c.AddConst(Const{Kind: ConstBool, Bool: true})
	c.AddConst(Const{Kind: ConstNil})
	c.GlobalIndex("x")
	c.GlobalIndex("y")
	c.AddFunction(&FuncEntry{
		Name:       "f",
		Parameters: []string{"a", "b"},
		DefaultConst: []int32{-1, 0},
		LocalVars:  map[string]int32{"a": 0, "b": 1},
		LocalCount: 2,
		Instructions: []Instruction{
			{Op: OP_LOAD_LOCAL, Operand: 0},
			{Op: OP_LOAD_LOCAL, Operand: 1},
			{Op: OP_ADD},
			{Op: OP_RETURN},
		},
	})
	c.AddFunction(&FuncEntry{Name: "g", Instructions: []Instruction{{Op: OP_RETURN}}})
	c.Main = []Instruction{
		{Op: OP_LOAD_CONST, Operand: 0},
		{Op: OP_STORE_GLOBAL, Operand: 0},
		{Op: OP_HALT},
	}
	return c
}

// TestRoundTrip is spec.md §8 invariant 1: serialize then deserialize
// must reproduce the compiled unit pointwise.
func TestRoundTrip(t *testing.T) {
	c := sampleChunk()
	data, err := Serialize(c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if len(got.Constants) != len(c.Constants) {
		t.Fatalf("constants length mismatch: got %d want %d", len(got.Constants), len(c.Constants))
	}
	for i := range c.Constants {
		if !got.Constants[i].Equal(c.Constants[i]) {
			t.Fatalf("constant %d mismatch: got %v want %v", i, got.Constants[i], c.Constants[i])
		}
	}

	if len(got.GlobalOrder) != len(c.GlobalOrder) {
		t.Fatalf("global order length mismatch")
	}
	for i, name := range c.GlobalOrder {
		if got.GlobalOrder[i] != name {
			t.Fatalf("global order %d: got %q want %q", i, got.GlobalOrder[i], name)
		}
		if got.GlobalNames[name] != c.GlobalNames[name] {
			t.Fatalf("global index for %q mismatch", name)
		}
	}

	if len(got.FunctionOrder) != len(c.FunctionOrder) {
		t.Fatalf("function order length mismatch: got %v want %v", got.FunctionOrder, c.FunctionOrder)
	}
	for i, name := range c.FunctionOrder {
		if got.FunctionOrder[i] != name {
			t.Fatalf("function order %d: got %q want %q", i, got.FunctionOrder[i], name)
		}
		wantFn, gotFn := c.Functions[name], got.Functions[name]
		if len(gotFn.Instructions) != len(wantFn.Instructions) {
			t.Fatalf("function %q instruction count mismatch", name)
		}
		for j := range wantFn.Instructions {
			if gotFn.Instructions[j] != wantFn.Instructions[j] {
				t.Fatalf("function %q instruction %d mismatch: got %v want %v",
					name, j, gotFn.Instructions[j], wantFn.Instructions[j])
			}
		}
		if len(gotFn.Parameters) != len(wantFn.Parameters) {
			t.Fatalf("function %q parameter count mismatch", name)
		}
	}

	if len(got.Main) != len(c.Main) {
		t.Fatalf("main instruction count mismatch")
	}
	for i := range c.Main {
		if got.Main[i] != c.Main[i] {
			t.Fatalf("main instruction %d mismatch: got %v want %v", i, got.Main[i], c.Main[i])
		}
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := Deserialize([]byte("XXXX\x01\x00"))
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestDeserializeRejectsUnsupportedVersion(t *testing.T) {
	data, err := Serialize(NewChunk())
	if err != nil {
		t.Fatal(err)
	}
	data[4] = 0xFF
	data[5] = 0xFF
	_, err = Deserialize(data)
	if err == nil {
		t.Fatal("expected an error for unsupported version")
	}
}

func TestConstDeduplication(t *testing.T) {
	c := NewChunk()
	i1 := c.AddConst(Const{Kind: ConstInt, Int: 42})
	i2 := c.AddConst(Const{Kind: ConstInt, Int: 42})
	i3 := c.AddConst(Const{Kind: ConstString, Str: "42"})
	if i1 != i2 {
		t.Fatalf("expected the same constant to dedup to one index, got %d and %d", i1, i2)
	}
	if i3 == i1 {
		t.Fatalf("expected a different-kind constant to get its own index")
	}
	if len(c.Constants) != 2 {
		t.Fatalf("expected 2 distinct constants, got %d", len(c.Constants))
	}
}

func TestFunctionOrderSurvivesManyFunctions(t *testing.T) {
	// Regression test for the map-iteration-order bug DESIGN.md records
	// as fixed: with several functions, FunctionOrder must round-trip
	// exactly, not merely contain the same set.
	c := NewChunk()
	names := []string{"zeta", "alpha", "mid", "beta", "omega"}
	for _, n := range names {
		c.AddFunction(&FuncEntry{Name: n, Instructions: []Instruction{{Op: OP_RETURN}}})
	}
	data, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range names {
		if got.FunctionOrder[i] != n {
			t.Fatalf("function order mismatch at %d: got %q want %q (full: %v)", i, got.FunctionOrder[i], n, got.FunctionOrder)
		}
	}
}
