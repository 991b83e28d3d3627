package vm

import (
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/value"
)

// Frame is a function activation record, per spec.md §3: "the called
// function, return PC, own locals array sized to |parameters| +
// |local_vars|". Parameters occupy the first |parameters| slots, in
// declaration order.
type Frame struct {
	FuncName     string
	Fn           *bytecode.FuncEntry
	ReturnPC     int
	ReturnToMain bool
	Locals       []value.Value
	PC           int

	// IsConstructor marks a frame running a class's __init__: RETURN
	// discards __init__'s own (always-nil) return value and pushes
	// ConstructResult instead, per spec.md §4.5 point 2.
	IsConstructor  bool
	ConstructResult value.Value
}

// instructions returns the frame's own instruction list.
func (f *Frame) instructions() []bytecode.Instruction {
	return f.Fn.Instructions
}
