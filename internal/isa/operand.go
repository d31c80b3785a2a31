package isa

import "fmt"

// Reg names one of the 8-bit registers.
type Reg uint8

const (
	A Reg = iota
	B
	C
	D
	E
	H
	L
	F
)

func (r Reg) String() string {
	return [...]string{"A", "B", "C", "D", "E", "H", "L", "F"}[r]
}

// Pair names a 16-bit register. SP is a real 16-bit register, the others
// are composed from two byte registers (high:low).
type Pair uint8

const (
	BC Pair = iota
	DE
	HL
	SP
	AF
)

func (p Pair) String() string {
	return [...]string{"BC", "DE", "HL", "SP", "AF"}[p]
}

// Mode is the addressing mode of an operand.
type Mode uint8

const (
	None        Mode = iota
	Reg8             // r
	Reg16            // rr
	Indirect         // (rr)
	IndirectInc      // (HL+)
	IndirectDec      // (HL-)
	HighC            // (FF00+C)
	Imm8             // d8
	Imm16            // d16
	Rel8             // s8, relative to the next instruction
	SPRel8           // SP+s8
	Abs16            // (a16)
	High8            // (FF00+a8)
	BitIndex         // 0..7 for BIT/SET/RES
	Vector           // RST target
)

// Operand is one instruction operand. Value carries the immediate data,
// address, bit index or vector. For descriptors taken from a table the
// immediate modes hold zero; Decode fills them in from the byte stream.
type Operand struct {
	Mode  Mode
	Reg   Reg
	Pair  Pair
	Value uint16
}

func R(r Reg) Operand        { return Operand{Mode: Reg8, Reg: r} }
func R16(p Pair) Operand     { return Operand{Mode: Reg16, Pair: p} }
func Ptr(p Pair) Operand     { return Operand{Mode: Indirect, Pair: p} }
func D8() Operand            { return Operand{Mode: Imm8} }
func D16() Operand           { return Operand{Mode: Imm16} }
func S8() Operand            { return Operand{Mode: Rel8} }
func A16() Operand           { return Operand{Mode: Abs16} }
func A8() Operand            { return Operand{Mode: High8} }
func Bit(n uint8) Operand    { return Operand{Mode: BitIndex, Value: uint16(n & 7)} }
func Rst(vec uint16) Operand { return Operand{Mode: Vector, Value: vec} }

var (
	HLInc   = Operand{Mode: IndirectInc, Pair: HL}
	HLDec   = Operand{Mode: IndirectDec, Pair: HL}
	CPort   = Operand{Mode: HighC, Reg: C}
	SPPlus8 = Operand{Mode: SPRel8, Pair: SP}
)

// Size is the number of bytes the operand occupies after the opcode.
func (o Operand) Size() int {
	switch o.Mode {
	case Imm8, Rel8, SPRel8, High8:
		return 1
	case Imm16, Abs16:
		return 2
	}
	return 0
}

// Offset interprets an 8-bit operand value as a signed displacement.
func (o Operand) Offset() int8 { return int8(uint8(o.Value)) }

// IsMemory reports whether the operand dereferences memory.
func (o Operand) IsMemory() bool {
	switch o.Mode {
	case Indirect, IndirectInc, IndirectDec, HighC, Abs16, High8:
		return true
	}
	return false
}

// Template renders the operand the way an opcode table lists it.
func (o Operand) Template() string {
	switch o.Mode {
	case Imm8:
		return "d8"
	case Imm16:
		return "d16"
	case Rel8:
		return "s8"
	case SPRel8:
		return "SP+s8"
	case Abs16:
		return "(a16)"
	case High8:
		return "(a8)"
	}
	return o.String()
}

func (o Operand) String() string {
	switch o.Mode {
	case None:
		return ""
	case Reg8:
		return o.Reg.String()
	case Reg16:
		return o.Pair.String()
	case Indirect:
		return "(" + o.Pair.String() + ")"
	case IndirectInc:
		return "(HL+)"
	case IndirectDec:
		return "(HL-)"
	case HighC:
		return "(C)"
	case Imm8:
		return fmt.Sprintf("$%02X", o.Value)
	case Imm16:
		return fmt.Sprintf("$%04X", o.Value)
	case Rel8:
		return fmt.Sprintf("%+d", o.Offset())
	case SPRel8:
		return fmt.Sprintf("SP%+d", o.Offset())
	case Abs16:
		return fmt.Sprintf("($%04X)", o.Value)
	case High8:
		return fmt.Sprintf("($FF00+$%02X)", o.Value)
	case BitIndex:
		return fmt.Sprintf("%d", o.Value)
	case Vector:
		return fmt.Sprintf("$%02X", o.Value)
	}
	return "?"
}
