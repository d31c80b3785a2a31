package isa

import (
	"errors"
	"fmt"
)

// Source is a bounded, byte-addressable view the decoder reads from.
type Source interface {
	Len() int
	At(offset int) byte
}

// Bytes adapts a byte slice to Source.
type Bytes []byte

func (b Bytes) Len() int           { return len(b) }
func (b Bytes) At(offset int) byte { return b[offset] }

// ErrOutOfBounds is wrapped by ReadError.
var ErrOutOfBounds = errors.New("out of bounds")

// ReadError reports a byte the decoder needed beyond the end of the source.
type ReadError struct {
	Offset int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("isa: read at offset %#x: %v", e.Offset, ErrOutOfBounds)
}

func (e *ReadError) Unwrap() error { return ErrOutOfBounds }

// UnknownOpcodeError reports a byte with no table entry.
type UnknownOpcodeError struct {
	Extended bool
	Opcode   byte
}

func (e *UnknownOpcodeError) Error() string {
	table := "base"
	if e.Extended {
		table = "extended"
	}
	return fmt.Sprintf("isa: unknown %s opcode %s", table, opName(e.Extended, e.Opcode))
}

// Operation is a fully decoded instruction: the descriptor's kind with all
// immediate operands read from the source.
type Operation struct {
	Kind
	Address  uint16
	Opcode   byte
	Extended bool
	Width    uint8
	Cycles   Cycles
}

// Next is the address of the instruction following op.
func (op Operation) Next() uint16 { return op.Address + uint16(op.Width) }

// Target is the destination of a relative or absolute jump/call.
func (op Operation) Target() (uint16, bool) {
	switch op.Dst.Mode {
	case Rel8:
		return uint16(int32(op.Next()) + int32(op.Dst.Offset())), true
	case Imm16:
		if op.Family() == FamilyJump || op.Family() == FamilySubroutine {
			return op.Dst.Value, true
		}
	case Vector:
		return op.Dst.Value, true
	}
	return 0, false
}

// Bytes returns the raw encoding of the operation.
func (op Operation) Bytes() []byte {
	out := make([]byte, 0, op.Width)
	if op.Extended {
		out = append(out, Prefix)
	}
	out = append(out, op.Opcode)
	for _, o := range [2]Operand{op.Dst, op.Src} {
		switch o.Size() {
		case 1:
			out = append(out, byte(o.Value))
		case 2:
			out = append(out, byte(o.Value), byte(o.Value>>8))
		}
	}
	return out
}

func (op Operation) String() string {
	if op.Dst.Mode == Rel8 {
		target, _ := op.Target()
		k := op.Kind
		k.Dst = Operand{Mode: Imm16, Value: target}
		return k.String()
	}
	return op.Kind.String()
}

// Decode parses the instruction starting at offset.
func Decode(src Source, offset int) (Operation, error) {
	code, err := readAt(src, offset)
	if err != nil {
		return Operation{}, err
	}
	cursor := offset + 1
	table, extended := Base(), false
	if code == Prefix {
		if code, err = readAt(src, cursor); err != nil {
			return Operation{}, err
		}
		cursor++
		table, extended = Extended(), true
	}
	d, ok := table.Lookup(code)
	if !ok {
		return Operation{}, &UnknownOpcodeError{Extended: extended, Opcode: code}
	}

	op := Operation{
		Kind:     d.Kind,
		Address:  uint16(offset),
		Opcode:   code,
		Extended: extended,
		Width:    d.Width,
		Cycles:   d.Cycles,
	}
	if op.Dst, cursor, err = resolve(src, cursor, op.Dst); err != nil {
		return Operation{}, err
	}
	if op.Src, _, err = resolve(src, cursor, op.Src); err != nil {
		return Operation{}, err
	}
	return op, nil
}

func resolve(src Source, cursor int, o Operand) (Operand, int, error) {
	switch o.Size() {
	case 1:
		v, err := readAt(src, cursor)
		if err != nil {
			return o, cursor, err
		}
		o.Value = uint16(v)
		return o, cursor + 1, nil
	case 2:
		lo, err := readAt(src, cursor)
		if err != nil {
			return o, cursor, err
		}
		hi, err := readAt(src, cursor+1)
		if err != nil {
			return o, cursor, err
		}
		o.Value = uint16(hi)<<8 | uint16(lo)
		return o, cursor + 2, nil
	}
	return o, cursor, nil
}

func readAt(src Source, offset int) (byte, error) {
	if offset < 0 || offset >= src.Len() {
		return 0, &ReadError{Offset: offset}
	}
	return src.At(offset), nil
}

// Disassemble decodes up to n consecutive instructions starting at offset.
// A count of zero or less yields nothing.
// It stops early at the first decode error and returns what it has along
// with the error.
func Disassemble(src Source, offset, n int) ([]Operation, error) {
	if n <= 0 {
		return nil, nil
	}
	ops := make([]Operation, 0, n)
	for i := 0; i < n; i++ {
		op, err := Decode(src, offset)
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
		offset += int(op.Width)
	}
	return ops, nil
}
