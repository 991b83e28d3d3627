// Package builtins implements AquaScript's fixed built-in function
// set, per spec.md §4.6 (C7): print, str, int, float, bool, len,
// range, type, abs, min, max, sum, round. Each has strict arity and
// raises a runtime error (never panics) on a conversion or type
// failure, so internal/vm can fold a builtin call into the ordinary
// CALL error path.
package builtins

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aquascript/aqua/internal/value"
)

// Func is a built-in's implementation. out is the VM's configured
// output sink (print writes there, never directly to os.Stdout) so
// that embedding and test code can capture it.
type Func func(out io.Writer, args []value.Value) (value.Value, error)

var registry = map[string]Func{
	"print": biPrint,
	"str":   biStr,
	"int":   biInt,
	"float": biFloat,
	"bool":  biBool,
	"len":   biLen,
	"range": biRange,
	"type":  biType,
	"abs":   biAbs,
	"min":   biMin,
	"max":   biMax,
	"sum":   biSum,
	"round": biRound,
}

// Lookup returns the named built-in, if one exists.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

func arityError(name string, want string, got int) error {
	return fmt.Errorf("%s() takes %s argument(s), got %d", name, want, got)
}

func biPrint(out io.Writer, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Display(a)
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
	return value.Nil(), nil
}

func biStr(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("str", "exactly 1", len(args))
	}
	return value.Str(value.Display(args[0])), nil
}

func biInt(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("int", "exactly 1", len(args))
	}
	switch v := args[0]; v.Kind {
	case value.KInt:
		return v, nil
	case value.KFloat:
		return value.Int(int64(v.Flt)), nil
	case value.KBool:
		if v.Bool {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.KString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return value.Nil(), fmt.Errorf("int(): cannot convert %q to int", v.Str)
		}
		return value.Int(i), nil
	default:
		return value.Nil(), fmt.Errorf("int(): cannot convert %s to int", v.TypeName())
	}
}

func biFloat(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("float", "exactly 1", len(args))
	}
	switch v := args[0]; v.Kind {
	case value.KFloat:
		return v, nil
	case value.KInt:
		return value.Float(float64(v.Int)), nil
	case value.KBool:
		if v.Bool {
			return value.Float(1), nil
		}
		return value.Float(0), nil
	case value.KString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Nil(), fmt.Errorf("float(): cannot convert %q to float", v.Str)
		}
		return value.Float(f), nil
	default:
		return value.Nil(), fmt.Errorf("float(): cannot convert %s to float", v.TypeName())
	}
}

func biBool(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("bool", "exactly 1", len(args))
	}
	return value.Bool(args[0].Truthy()), nil
}

func biLen(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("len", "exactly 1", len(args))
	}
	switch v := args[0]; v.Kind {
	case value.KString:
		return value.Int(int64(len([]rune(v.Str)))), nil
	case value.KList:
		return value.Int(int64(len(*v.List))), nil
	case value.KTuple:
		return value.Int(int64(len(v.Tup))), nil
	case value.KDict:
		return value.Int(int64(v.Dict.Len())), nil
	default:
		return value.Nil(), fmt.Errorf("len(): object of type %s has no length", v.TypeName())
	}
}

func biRange(_ io.Writer, args []value.Value) (value.Value, error) {
	var start, stop, step int64
	switch len(args) {
	case 1:
		start, stop, step = 0, mustInt(args[0]), 1
	case 2:
		start, stop, step = mustInt(args[0]), mustInt(args[1]), 1
	case 3:
		start, stop, step = mustInt(args[0]), mustInt(args[1]), mustInt(args[2])
	default:
		return value.Nil(), arityError("range", "1 to 3", len(args))
	}
	for _, a := range args {
		if a.Kind != value.KInt {
			return value.Nil(), fmt.Errorf("range(): arguments must be int, got %s", a.TypeName())
		}
	}
	if step == 0 {
		return value.Nil(), fmt.Errorf("range(): step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.List(out), nil
}

func mustInt(v value.Value) int64 {
	if v.Kind == value.KInt {
		return v.Int
	}
	return 0
}

func biType(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("type", "exactly 1", len(args))
	}
	return value.Str(args[0].TypeName()), nil
}

func biAbs(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), arityError("abs", "exactly 1", len(args))
	}
	switch v := args[0]; v.Kind {
	case value.KInt:
		if v.Int < 0 {
			return value.Int(-v.Int), nil
		}
		return v, nil
	case value.KFloat:
		if v.Flt < 0 {
			return value.Float(-v.Flt), nil
		}
		return v, nil
	default:
		return value.Nil(), fmt.Errorf("abs(): expected numeric argument, got %s", v.TypeName())
	}
}

func numericCompare(a, b value.Value) (int, error) {
	af, aok := asFloatOk(a)
	bf, bok := asFloatOk(b)
	if !aok || !bok {
		if a.Kind == value.KString && b.Kind == value.KString {
			return strings.Compare(a.Str, b.Str), nil
		}
		return 0, fmt.Errorf("cannot compare %s and %s", a.TypeName(), b.TypeName())
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

func asFloatOk(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.KInt:
		return float64(v.Int), true
	case value.KFloat:
		return v.Flt, true
	}
	return 0, false
}

// variadicOperands implements min/max/sum's "accept a single list/tuple
// or many positional arguments" convenience.
func variadicOperands(args []value.Value) []value.Value {
	if len(args) == 1 {
		switch args[0].Kind {
		case value.KList:
			return *args[0].List
		case value.KTuple:
			return args[0].Tup
		}
	}
	return args
}

func biMin(_ io.Writer, args []value.Value) (value.Value, error) {
	operands := variadicOperands(args)
	if len(operands) == 0 {
		return value.Nil(), fmt.Errorf("min() requires at least one argument")
	}
	best := operands[0]
	for _, v := range operands[1:] {
		cmp, err := numericCompare(v, best)
		if err != nil {
			return value.Nil(), err
		}
		if cmp < 0 {
			best = v
		}
	}
	return best, nil
}

func biMax(_ io.Writer, args []value.Value) (value.Value, error) {
	operands := variadicOperands(args)
	if len(operands) == 0 {
		return value.Nil(), fmt.Errorf("max() requires at least one argument")
	}
	best := operands[0]
	for _, v := range operands[1:] {
		cmp, err := numericCompare(v, best)
		if err != nil {
			return value.Nil(), err
		}
		if cmp > 0 {
			best = v
		}
	}
	return best, nil
}

func biSum(_ io.Writer, args []value.Value) (value.Value, error) {
	operands := variadicOperands(args)
	intTotal := int64(0)
	floatTotal := 0.0
	isFloat := false
	for _, v := range operands {
		switch v.Kind {
		case value.KInt:
			intTotal += v.Int
		case value.KFloat:
			isFloat = true
			floatTotal += v.Flt
		default:
			return value.Nil(), fmt.Errorf("sum(): expected numeric elements, got %s", v.TypeName())
		}
	}
	if isFloat {
		return value.Float(floatTotal + float64(intTotal)), nil
	}
	return value.Int(intTotal), nil
}

func biRound(_ io.Writer, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Nil(), arityError("round", "1 or 2", len(args))
	}
	f, ok := asFloatOk(args[0])
	if !ok {
		return value.Nil(), fmt.Errorf("round(): expected numeric argument, got %s", args[0].TypeName())
	}
	if len(args) == 1 {
		return value.Int(int64(roundHalfAwayFromZero(f))), nil
	}
	if args[1].Kind != value.KInt {
		return value.Nil(), fmt.Errorf("round(): digit count must be int, got %s", args[1].TypeName())
	}
	n := args[1].Int
	scale := pow10(n)
	return value.Float(roundHalfAwayFromZero(f*scale) / scale), nil
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

func pow10(n int64) float64 {
	neg := n < 0
	if neg {
		n = -n
	}
	result := 1.0
	for i := int64(0); i < n; i++ {
		result *= 10
	}
	if neg {
		return 1 / result
	}
	return result
}
