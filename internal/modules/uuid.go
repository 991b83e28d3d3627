package modules

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aquascript/aqua/internal/value"
)

// uuidModule implements SPEC_FULL.md §B's "uuid" host module: a single
// uuid.new() that returns a random (v4) UUID's string form.
func uuidModule() value.Value {
	d := value.NewDict()
	d.Set(value.Str("new"), value.NativeFn("uuid.new", uuidNew))
	return value.DictOf(d)
}

func uuidNew(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil(), fmt.Errorf("uuid.new() takes no arguments, got %d", len(args))
	}
	return value.Str(uuid.NewString()), nil
}
