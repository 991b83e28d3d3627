package bytecode

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Magic and Version identify the framed container format, per
// spec.md §4.4.
var Magic = [4]byte{'A', 'Q', 'U', 'A'}

const Version uint16 = 1

// wire mirrors the JSON-shaped sections spec.md §4.4 describes; it is
// an intermediate representation only, never exposed outside this file.
type wireFunc struct {
	Parameters   []string         `json:"parameters"`
	DefaultConst []int32          `json:"default_const"`
	LocalVars    map[string]int32 `json:"local_vars"`
	LocalCount   int              `json:"local_count"`
	Instructions [][2]int32       `json:"instructions"`
}

type wireConst struct {
	Kind ConstKind `json:"kind"`
	Bool bool      `json:"bool,omitempty"`
	Int  int64     `json:"int,omitempty"`
	Flt  float64   `json:"flt,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// Serialize encodes chunk as the flat little-endian framed blob defined
// by spec.md §4.4: magic, version, then five length-prefixed JSON
// sections (constants, global names, function table, function order,
// main instructions).
//
// encoding/json is used for the section payloads themselves — spec.md
// explicitly sanctions "utf-8 JSON" framing, and these are typed Go
// structs (not dynamic documents), which is exactly what encoding/json
// is for; the gjson/sjson pair used by internal/modules's "json" host
// module exists for a different job (ad hoc queries over untyped JSON
// text from script values), so it is not a fit here.
func Serialize(c *Chunk) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	binary.Write(&buf, binary.LittleEndian, Version)

	consts := make([]wireConst, len(c.Constants))
	for i, k := range c.Constants {
		consts[i] = wireConst{Kind: k.Kind, Bool: k.Bool, Int: k.Int, Flt: k.Flt, Str: k.Str}
	}
	if err := writeSection(&buf, consts); err != nil {
		return nil, err
	}

	globals := make(map[string]int32, len(c.GlobalOrder))
	for _, name := range c.GlobalOrder {
		globals[name] = c.GlobalNames[name]
	}
	if err := writeSection(&buf, globals); err != nil {
		return nil, err
	}

	funcs := make(map[string]wireFunc, len(c.FunctionOrder))
	for _, name := range c.FunctionOrder {
		fn := c.Functions[name]
		instrs := make([][2]int32, len(fn.Instructions))
		for i, ins := range fn.Instructions {
			instrs[i] = [2]int32{int32(ins.Op), ins.Operand}
		}
		funcs[name] = wireFunc{
			Parameters:   fn.Parameters,
			DefaultConst: fn.DefaultConst,
			LocalVars:    fn.LocalVars,
			LocalCount:   fn.LocalCount,
			Instructions: instrs,
		}
	}
	if err := writeSection(&buf, funcs); err != nil {
		return nil, err
	}

	// Go map iteration order is randomized, so the function table above
	// can't be replayed in original insertion order on its own; carry
	// FunctionOrder explicitly so a round trip restores it exactly.
	if err := writeSection(&buf, c.FunctionOrder); err != nil {
		return nil, err
	}

	main := make([][2]int32, len(c.Main))
	for i, ins := range c.Main {
		main[i] = [2]int32{int32(ins.Op), ins.Operand}
	}
	if err := writeSection(&buf, main); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	buf.Write(payload)
	return nil
}

// Deserialize validates the magic/version header and re-hydrates a
// Chunk from a blob produced by Serialize.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 6 || !bytes.Equal(data[:4], Magic[:]) {
		return nil, fmt.Errorf("bytecode: bad magic")
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != Version {
		return nil, fmt.Errorf("bytecode: unsupported version %d", version)
	}
	r := data[6:]

	var consts []wireConst
	r, err := readSection(r, &consts)
	if err != nil {
		return nil, fmt.Errorf("bytecode: constants section: %w", err)
	}

	var globals map[string]int32
	r, err = readSection(r, &globals)
	if err != nil {
		return nil, fmt.Errorf("bytecode: globals section: %w", err)
	}

	var funcs map[string]wireFunc
	r, err = readSection(r, &funcs)
	if err != nil {
		return nil, fmt.Errorf("bytecode: functions section: %w", err)
	}

	var funcOrder []string
	r, err = readSection(r, &funcOrder)
	if err != nil {
		return nil, fmt.Errorf("bytecode: function order section: %w", err)
	}

	var main [][2]int32
	_, err = readSection(r, &main)
	if err != nil {
		return nil, fmt.Errorf("bytecode: main section: %w", err)
	}

	c := NewChunk()
	for _, wc := range consts {
		c.Constants = append(c.Constants, Const{Kind: wc.Kind, Bool: wc.Bool, Int: wc.Int, Flt: wc.Flt, Str: wc.Str})
	}
	// Globals recover their order positionally from each name's index,
	// which is authoritative; functions need the explicit order section
	// above since nothing about a FuncEntry encodes its table position.
	c.GlobalNames = globals
	c.GlobalOrder = make([]string, len(globals))
	for name, idx := range globals {
		if int(idx) < len(c.GlobalOrder) {
			c.GlobalOrder[idx] = name
		}
	}
	for _, name := range funcOrder {
		wf, ok := funcs[name]
		if !ok {
			return nil, fmt.Errorf("bytecode: function order names unknown function %q", name)
		}
		instrs := make([]Instruction, len(wf.Instructions))
		for i, pair := range wf.Instructions {
			instrs[i] = Instruction{Op: OpCode(pair[0]), Operand: pair[1]}
		}
		fn := &FuncEntry{
			Name:         name,
			Parameters:   wf.Parameters,
			DefaultConst: wf.DefaultConst,
			LocalVars:    wf.LocalVars,
			LocalCount:   wf.LocalCount,
			Instructions: instrs,
		}
		c.AddFunction(fn)
	}
	for i, pair := range main {
		_ = i
		c.Main = append(c.Main, Instruction{Op: OpCode(pair[0]), Operand: pair[1]})
	}
	return c, nil
}

func readSection(data []byte, v interface{}) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated section length")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, fmt.Errorf("truncated section payload")
	}
	payload := data[:n]
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, err
	}
	return data[n:], nil
}
