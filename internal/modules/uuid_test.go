package modules

import (
	"testing"

	"github.com/aquascript/aqua/internal/value"
)

func TestUUIDNewReturnsDistinctStrings(t *testing.T) {
	mod := uuidModule()
	fn, ok := mod.Dict.Get(value.Str("new"))
	if !ok || fn.Kind != value.KNativeFunc {
		t.Fatal("uuid module has no native function \"new\"")
	}
	a, err := fn.Native.Fn(nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := fn.Native.Fn(nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != value.KString || len(a.Str) != 36 {
		t.Fatalf("expected a 36-char UUID string, got %q", a.Str)
	}
	if a.Str == b.Str {
		t.Fatal("expected two calls to uuid.new() to return distinct UUIDs")
	}
}

func TestUUIDNewRejectsArguments(t *testing.T) {
	mod := uuidModule()
	fn, _ := mod.Dict.Get(value.Str("new"))
	if _, err := fn.Native.Fn([]value.Value{value.Int(1)}); err == nil {
		t.Fatal("expected uuid.new() to reject arguments")
	}
}
