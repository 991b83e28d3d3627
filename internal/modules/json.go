package modules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/aquascript/aqua/internal/value"
)

// jsonModule implements SPEC_FULL.md §B's "json" host module:
// json.encode(value), json.decode(text), json.get(text, path). Encode
// builds text bottom-up with sjson.SetRaw/sjson.Set; decode and get
// walk a gjson.Result tree into AquaScript values.
func jsonModule() value.Value {
	d := value.NewDict()
	d.Set(value.Str("encode"), value.NativeFn("json.encode", jsonEncode))
	d.Set(value.Str("decode"), value.NativeFn("json.decode", jsonDecode))
	d.Set(value.Str("get"), value.NativeFn("json.get", jsonGet))
	return value.DictOf(d)
}

func jsonEncode(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), fmt.Errorf("json.encode() takes exactly 1 argument, got %d", len(args))
	}
	text, err := encodeJSONValue(args[0])
	if err != nil {
		return value.Nil(), err
	}
	return value.Str(text), nil
}

func jsonDecode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KString {
		return value.Nil(), fmt.Errorf("json.decode(text) expects a single str argument")
	}
	if !gjson.Valid(args[0].Str) {
		return value.Nil(), fmt.Errorf("json.decode: invalid JSON")
	}
	return decodeJSONResult(gjson.Parse(args[0].Str)), nil
}

func jsonGet(args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[0].Kind != value.KString || args[1].Kind != value.KString {
		return value.Nil(), fmt.Errorf("json.get(text, path) expects two str arguments")
	}
	r := gjson.Get(args[0].Str, args[1].Str)
	if !r.Exists() {
		return value.Nil(), nil
	}
	return decodeJSONResult(r), nil
}

func encodeJSONValue(v value.Value) (string, error) {
	switch v.Kind {
	case value.KNil:
		return "null", nil
	case value.KBool:
		return jsonScalar(v.Bool)
	case value.KInt:
		return jsonScalar(v.Int)
	case value.KFloat:
		return jsonScalar(v.Flt)
	case value.KString:
		return jsonScalar(v.Str)
	case value.KList:
		return encodeJSONSequence(*v.List)
	case value.KTuple:
		return encodeJSONSequence(v.Tup)
	case value.KDict:
		return encodeJSONDict(v.Dict)
	default:
		return "", fmt.Errorf("json.encode: cannot encode %s", v.TypeName())
	}
}

// jsonScalar leans on sjson to produce a correctly quoted/escaped JSON
// literal for a single Go scalar, then lifts it back out with gjson.
func jsonScalar(x interface{}) (string, error) {
	wrapped, err := sjson.Set(`{}`, "v", x)
	if err != nil {
		return "", fmt.Errorf("json.encode: %w", err)
	}
	return gjson.Get(wrapped, "v").Raw, nil
}

func encodeJSONSequence(items []value.Value) (string, error) {
	out := "[]"
	for i, item := range items {
		raw, err := encodeJSONValue(item)
		if err != nil {
			return "", err
		}
		var serr error
		out, serr = sjson.SetRaw(out, strconv.Itoa(i), raw)
		if serr != nil {
			return "", fmt.Errorf("json.encode: %w", serr)
		}
	}
	return out, nil
}

func encodeJSONDict(d *value.Dict) (string, error) {
	out := "{}"
	for _, e := range d.Entries {
		if e.Key.Kind != value.KString {
			return "", fmt.Errorf("json.encode: dict keys must be str, got %s", e.Key.TypeName())
		}
		raw, err := encodeJSONValue(e.Value)
		if err != nil {
			return "", err
		}
		var serr error
		out, serr = sjson.SetRaw(out, jsonPathEscape(e.Key.Str), raw)
		if serr != nil {
			return "", fmt.Errorf("json.encode: %w", serr)
		}
	}
	return out, nil
}

// jsonPathEscape escapes sjson's path metacharacters so an arbitrary
// dict key is always treated as a single literal path segment.
func jsonPathEscape(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

func decodeJSONResult(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Nil()
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) && !strings.ContainsAny(r.Raw, ".eE") {
			return value.Int(int64(r.Num))
		}
		return value.Float(r.Num)
	case gjson.String:
		return value.Str(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var items []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				items = append(items, decodeJSONResult(v))
				return true
			})
			return value.List(items)
		}
		d := value.NewDict()
		r.ForEach(func(k, v gjson.Result) bool {
			d.Set(value.Str(k.String()), decodeJSONResult(v))
			return true
		})
		return value.DictOf(d)
	default:
		return value.Nil()
	}
}
