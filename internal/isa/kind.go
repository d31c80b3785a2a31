package isa

import "strings"

// Family groups instructions that share execution semantics.
type Family uint8

const (
	FamilyNop Family = iota
	FamilyAdd
	FamilySubtract
	FamilyCompare
	FamilyIncrement
	FamilyDecrement
	FamilyBitwise
	FamilyRotateLeft
	FamilyRotateRight
	FamilyJump
	FamilyLoad
	FamilyStack
	FamilySubroutine
	FamilyControl
)

var familyNames = [...]string{
	FamilyNop:         "nop",
	FamilyAdd:         "add",
	FamilySubtract:    "subtract",
	FamilyCompare:     "compare",
	FamilyIncrement:   "increment",
	FamilyDecrement:   "decrement",
	FamilyBitwise:     "bitwise",
	FamilyRotateLeft:  "rotate-left",
	FamilyRotateRight: "rotate-right",
	FamilyJump:        "jump",
	FamilyLoad:        "load",
	FamilyStack:       "stack",
	FamilySubroutine:  "subroutine",
	FamilyControl:     "control",
}

func (f Family) String() string { return familyNames[f] }

// Mnemonic identifies an instruction independent of its operands.
type Mnemonic uint8

const (
	NOP Mnemonic = iota
	LD
	LDH
	ADD
	ADC
	SUB
	SBC
	CP
	INC
	DEC
	AND
	OR
	XOR
	CPL
	SCF
	CCF
	BIT
	SET
	RES
	SWAP
	RLCA
	RLA
	RLC
	RL
	SLA
	RRCA
	RRA
	RRC
	RR
	SRA
	SRL
	JP
	JR
	PUSH
	POP
	CALL
	RET
	RETI
	RST
	DAA
	HALT
	STOP
	DI
	EI
)

type mnemonicInfo struct {
	name   string
	family Family
}

var mnemonics = [...]mnemonicInfo{
	NOP:  {"NOP", FamilyNop},
	LD:   {"LD", FamilyLoad},
	LDH:  {"LDH", FamilyLoad},
	ADD:  {"ADD", FamilyAdd},
	ADC:  {"ADC", FamilyAdd},
	SUB:  {"SUB", FamilySubtract},
	SBC:  {"SBC", FamilySubtract},
	CP:   {"CP", FamilyCompare},
	INC:  {"INC", FamilyIncrement},
	DEC:  {"DEC", FamilyDecrement},
	AND:  {"AND", FamilyBitwise},
	OR:   {"OR", FamilyBitwise},
	XOR:  {"XOR", FamilyBitwise},
	CPL:  {"CPL", FamilyBitwise},
	SCF:  {"SCF", FamilyBitwise},
	CCF:  {"CCF", FamilyBitwise},
	BIT:  {"BIT", FamilyBitwise},
	SET:  {"SET", FamilyBitwise},
	RES:  {"RES", FamilyBitwise},
	SWAP: {"SWAP", FamilyBitwise},
	RLCA: {"RLCA", FamilyRotateLeft},
	RLA:  {"RLA", FamilyRotateLeft},
	RLC:  {"RLC", FamilyRotateLeft},
	RL:   {"RL", FamilyRotateLeft},
	SLA:  {"SLA", FamilyRotateLeft},
	RRCA: {"RRCA", FamilyRotateRight},
	RRA:  {"RRA", FamilyRotateRight},
	RRC:  {"RRC", FamilyRotateRight},
	RR:   {"RR", FamilyRotateRight},
	SRA:  {"SRA", FamilyRotateRight},
	SRL:  {"SRL", FamilyRotateRight},
	JP:   {"JP", FamilyJump},
	JR:   {"JR", FamilyJump},
	PUSH: {"PUSH", FamilyStack},
	POP:  {"POP", FamilyStack},
	CALL: {"CALL", FamilySubroutine},
	RET:  {"RET", FamilySubroutine},
	RETI: {"RETI", FamilySubroutine},
	RST:  {"RST", FamilySubroutine},
	DAA:  {"DAA", FamilyControl},
	HALT: {"HALT", FamilyControl},
	STOP: {"STOP", FamilyControl},
	DI:   {"DI", FamilyControl},
	EI:   {"EI", FamilyControl},
}

func (m Mnemonic) String() string { return mnemonics[m].name }

// Family returns the instruction family the mnemonic belongs to.
func (m Mnemonic) Family() Family { return mnemonics[m].family }

// Condition gates jumps, calls and returns on a flag.
type Condition uint8

const (
	Always Condition = iota
	NZ
	Z
	NC
	CY
)

func (c Condition) String() string {
	return [...]string{"", "NZ", "Z", "NC", "C"}[c]
}

// Kind describes an instruction: what it does and which operands it uses.
// A Kind stored in a table holds placeholder immediates; the Kind inside a
// decoded Operation carries the concrete values.
type Kind struct {
	Mnemonic Mnemonic
	Cond     Condition
	Dst      Operand
	Src      Operand
}

// Family is shorthand for k.Mnemonic.Family().
func (k Kind) Family() Family { return k.Mnemonic.Family() }

// OperandSize is the number of bytes of immediate data the kind consumes.
func (k Kind) OperandSize() int { return k.Dst.Size() + k.Src.Size() }

func (k Kind) render(op func(Operand) string) string {
	var sb strings.Builder
	sb.WriteString(k.Mnemonic.String())
	args := make([]string, 0, 3)
	if k.Cond != Always {
		args = append(args, k.Cond.String())
	}
	if k.Dst.Mode != None {
		args = append(args, op(k.Dst))
	}
	if k.Src.Mode != None {
		args = append(args, op(k.Src))
	}
	if len(args) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(args, ","))
	}
	return sb.String()
}

// Template renders the kind with operand placeholders, e.g. "LD A,d8".
func (k Kind) Template() string { return k.render(Operand.Template) }

func (k Kind) String() string { return k.render(Operand.String) }
