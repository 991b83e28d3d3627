package modules

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/aquascript/aqua/internal/value"
)

// humanizeModule implements SPEC_FULL.md §B's "humanize" host module:
// humanize.bytes(n) and humanize.comma(n).
func humanizeModule() value.Value {
	d := value.NewDict()
	d.Set(value.Str("bytes"), value.NativeFn("humanize.bytes", humanizeBytes))
	d.Set(value.Str("comma"), value.NativeFn("humanize.comma", humanizeComma))
	return value.DictOf(d)
}

func humanizeBytes(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), fmt.Errorf("humanize.bytes() takes exactly 1 argument, got %d", len(args))
	}
	n, err := numericArg(args[0], "humanize.bytes")
	if err != nil {
		return value.Nil(), err
	}
	return value.Str(humanize.Bytes(uint64(n))), nil
}

func humanizeComma(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), fmt.Errorf("humanize.comma() takes exactly 1 argument, got %d", len(args))
	}
	n, err := numericArg(args[0], "humanize.comma")
	if err != nil {
		return value.Nil(), err
	}
	return value.Str(humanize.Comma(n)), nil
}

func numericArg(v value.Value, context string) (int64, error) {
	switch v.Kind {
	case value.KInt:
		return v.Int, nil
	case value.KFloat:
		return int64(v.Flt), nil
	default:
		return 0, fmt.Errorf("%s: expected numeric argument, got %s", context, v.TypeName())
	}
}
