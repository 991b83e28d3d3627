package modules

import (
	"testing"

	"github.com/aquascript/aqua/internal/value"
)

func jsonFn(t *testing.T, name string) func([]value.Value) (value.Value, error) {
	t.Helper()
	mod := jsonModule()
	fn, ok := mod.Dict.Get(value.Str(name))
	if !ok || fn.Kind != value.KNativeFunc {
		t.Fatalf("json module has no native function %q", name)
	}
	return fn.Native.Fn
}

func TestJSONEncodeScalarsAndAggregates(t *testing.T) {
	encode := jsonFn(t, "encode")

	v, err := encode([]value.Value{value.Int(42)})
	if err != nil || v.Str != "42" {
		t.Fatalf("encode(42) = %v, %v", v, err)
	}

	v, err = encode([]value.Value{value.Str("hi")})
	if err != nil || v.Str != `"hi"` {
		t.Fatalf("encode(\"hi\") = %v, %v", v, err)
	}

	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	v, err = encode([]value.Value{list})
	if err != nil || v.Str != "[1,2,3]" {
		t.Fatalf("encode(list) = %v, %v", v, err)
	}

	d := value.NewDict()
	d.Set(value.Str("a"), value.Int(1))
	v, err = encode([]value.Value{value.DictOf(d)})
	if err != nil || v.Str != `{"a":1}` {
		t.Fatalf("encode(dict) = %v, %v", v, err)
	}
}

func TestJSONEncodeRejectsNonStringDictKeys(t *testing.T) {
	encode := jsonFn(t, "encode")
	d := value.NewDict()
	d.Set(value.Int(1), value.Int(2))
	if _, err := encode([]value.Value{value.DictOf(d)}); err == nil {
		t.Fatal("expected an error encoding a dict with a non-str key")
	}
}

func TestJSONDecodeBuildsNestedValues(t *testing.T) {
	decode := jsonFn(t, "decode")
	v, err := decode([]value.Value{value.Str(`{"a": 1, "b": [true, null, "x"]}`)})
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != value.KDict {
		t.Fatalf("expected a dict, got %v", v)
	}
	a, ok := v.Dict.Get(value.Str("a"))
	if !ok || a.Kind != value.KInt || a.Int != 1 {
		t.Fatalf("a = %v, %v", a, ok)
	}
	b, ok := v.Dict.Get(value.Str("b"))
	if !ok || b.Kind != value.KList || len(*b.List) != 3 {
		t.Fatalf("b = %v, %v", b, ok)
	}
	if (*b.List)[0].Bool != true || (*b.List)[1].Kind != value.KNil || (*b.List)[2].Str != "x" {
		t.Fatalf("b elements = %v", *b.List)
	}
}

func TestJSONDecodeRejectsInvalidJSON(t *testing.T) {
	decode := jsonFn(t, "decode")
	if _, err := decode([]value.Value{value.Str("{not json")}); err == nil {
		t.Fatal("expected an error decoding malformed JSON")
	}
}

func TestJSONGetExtractsByPath(t *testing.T) {
	get := jsonFn(t, "get")
	v, err := get([]value.Value{value.Str(`{"a":{"b":7}}`), value.Str("a.b")})
	if err != nil || v.Int != 7 {
		t.Fatalf("json.get = %v, %v", v, err)
	}
}

func TestJSONGetMissingPathReturnsNil(t *testing.T) {
	get := jsonFn(t, "get")
	v, err := get([]value.Value{value.Str(`{"a":1}`), value.Str("missing")})
	if err != nil || v.Kind != value.KNil {
		t.Fatalf("json.get missing = %v, %v", v, err)
	}
}

func TestJSONEncodeFloatAndBool(t *testing.T) {
	encode := jsonFn(t, "encode")
	v, err := encode([]value.Value{value.Float(1.5)})
	if err != nil || v.Str != "1.5" {
		t.Fatalf("encode(1.5) = %v, %v", v, err)
	}
	v, err = encode([]value.Value{value.Bool(false)})
	if err != nil || v.Str != "false" {
		t.Fatalf("encode(false) = %v, %v", v, err)
	}
}
