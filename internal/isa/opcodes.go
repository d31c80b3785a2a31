package isa

// operand8 maps the 3-bit register field used throughout the opcode map:
// B, C, D, E, H, L, (HL), A.
func operand8(i byte) Operand {
	switch i & 7 {
	case 0:
		return R(B)
	case 1:
		return R(C)
	case 2:
		return R(D)
	case 3:
		return R(E)
	case 4:
		return R(H)
	case 5:
		return R(L)
	case 6:
		return Ptr(HL)
	}
	return R(A)
}

// pairs in the order the 16-bit load/inc/dec/add columns use.
var pairs = [4]Pair{BC, DE, HL, SP}

// stackPairs in the order the push/pop columns use.
var stackPairs = [4]Pair{BC, DE, HL, AF}

var conds = [4]Condition{NZ, Z, NC, CY}

func op(m Mnemonic, dst, src Operand) Kind { return Kind{Mnemonic: m, Dst: dst, Src: src} }
func op1(m Mnemonic, dst Operand) Kind     { return Kind{Mnemonic: m, Dst: dst} }
func op0(m Mnemonic) Kind                  { return Kind{Mnemonic: m} }
func cond(m Mnemonic, c Condition, dst Operand) Kind {
	return Kind{Mnemonic: m, Cond: c, Dst: dst}
}

func buildBase() *Table {
	b := NewBuilder(false)

	b.Register(0x00, op0(NOP), 1, Fixed(4))
	b.Register(0x10, op1(STOP, D8()), 2, Fixed(4))
	b.Register(0x76, op0(HALT), 1, Fixed(4))
	b.Register(0xF3, op0(DI), 1, Fixed(4))
	b.Register(0xFB, op0(EI), 1, Fixed(4))
	b.Register(0x27, op0(DAA), 1, Fixed(4))
	b.Register(0x2F, op0(CPL), 1, Fixed(4))
	b.Register(0x37, op0(SCF), 1, Fixed(4))
	b.Register(0x3F, op0(CCF), 1, Fixed(4))

	b.Register(0x07, op0(RLCA), 1, Fixed(4))
	b.Register(0x17, op0(RLA), 1, Fixed(4))
	b.Register(0x0F, op0(RRCA), 1, Fixed(4))
	b.Register(0x1F, op0(RRA), 1, Fixed(4))

	// 16-bit column: LD rr,d16 / INC rr / DEC rr / ADD HL,rr
	for i, p := range pairs {
		row := byte(i) << 4
		b.Register(0x01|row, op(LD, R16(p), D16()), 3, Fixed(12))
		b.Register(0x03|row, op1(INC, R16(p)), 1, Fixed(8))
		b.Register(0x0B|row, op1(DEC, R16(p)), 1, Fixed(8))
		b.Register(0x09|row, op(ADD, R16(HL), R16(p)), 1, Fixed(8))
	}

	b.Register(0x02, op(LD, Ptr(BC), R(A)), 1, Fixed(8))
	b.Register(0x12, op(LD, Ptr(DE), R(A)), 1, Fixed(8))
	b.Register(0x22, op(LD, HLInc, R(A)), 1, Fixed(8))
	b.Register(0x32, op(LD, HLDec, R(A)), 1, Fixed(8))
	b.Register(0x0A, op(LD, R(A), Ptr(BC)), 1, Fixed(8))
	b.Register(0x1A, op(LD, R(A), Ptr(DE)), 1, Fixed(8))
	b.Register(0x2A, op(LD, R(A), HLInc), 1, Fixed(8))
	b.Register(0x3A, op(LD, R(A), HLDec), 1, Fixed(8))
	b.Register(0x08, op(LD, A16(), R16(SP)), 3, Fixed(20))

	// 8-bit column: INC r / DEC r / LD r,d8
	for i := byte(0); i < 8; i++ {
		row := i << 3
		dst := operand8(i)
		if i == 6 {
			b.Register(0x04|row, op1(INC, dst), 1, Fixed(12))
			b.Register(0x05|row, op1(DEC, dst), 1, Fixed(12))
			b.Register(0x06|row, op(LD, dst, D8()), 2, Fixed(12))
			continue
		}
		b.Register(0x04|row, op1(INC, dst), 1, Fixed(4))
		b.Register(0x05|row, op1(DEC, dst), 1, Fixed(4))
		b.Register(0x06|row, op(LD, dst, D8()), 2, Fixed(8))
	}

	b.Register(0x18, op1(JR, S8()), 2, Fixed(12))
	for i, c := range conds {
		row := byte(i) << 3
		b.Register(0x20|row, cond(JR, c, S8()), 2, Variable(8, 12))
		b.Register(0xC0|row, cond(RET, c, Operand{}), 1, Variable(8, 20))
		b.Register(0xC2|row, cond(JP, c, D16()), 3, Variable(12, 16))
		b.Register(0xC4|row, cond(CALL, c, D16()), 3, Variable(12, 24))
	}

	// LD r,r' block; $76 would be LD (HL),(HL) and is HALT instead.
	for code := 0x40; code < 0x80; code++ {
		if code == 0x76 {
			continue
		}
		dst, src := operand8(byte(code)>>3), operand8(byte(code))
		cycles := Fixed(4)
		if dst.IsMemory() || src.IsMemory() {
			cycles = Fixed(8)
		}
		b.Register(byte(code), op(LD, dst, src), 1, cycles)
	}

	// ALU block and its immediate forms.
	alu := [8]Mnemonic{ADD, ADC, SUB, SBC, AND, XOR, OR, CP}
	for i, m := range alu {
		row := byte(i) << 3
		for j := byte(0); j < 8; j++ {
			src := operand8(j)
			cycles := Fixed(4)
			if src.IsMemory() {
				cycles = Fixed(8)
			}
			b.Register(0x80|row|j, op(m, R(A), src), 1, cycles)
		}
		b.Register(0xC6|row, op(m, R(A), D8()), 2, Fixed(8))
		b.Register(0xC7|row, op1(RST, Rst(uint16(row))), 1, Fixed(16))
	}

	for i, p := range stackPairs {
		row := byte(i) << 4
		b.Register(0xC1|row, op1(POP, R16(p)), 1, Fixed(12))
		b.Register(0xC5|row, op1(PUSH, R16(p)), 1, Fixed(16))
	}

	b.Register(0xC3, op1(JP, D16()), 3, Fixed(16))
	b.Register(0xE9, op1(JP, R16(HL)), 1, Fixed(4))
	b.Register(0xCD, op1(CALL, D16()), 3, Fixed(24))
	b.Register(0xC9, op0(RET), 1, Fixed(16))
	b.Register(0xD9, op0(RETI), 1, Fixed(16))

	b.Register(0xE0, op(LDH, A8(), R(A)), 2, Fixed(12))
	b.Register(0xF0, op(LDH, R(A), A8()), 2, Fixed(12))
	b.Register(0xE2, op(LD, CPort, R(A)), 1, Fixed(8))
	b.Register(0xF2, op(LD, R(A), CPort), 1, Fixed(8))
	b.Register(0xEA, op(LD, A16(), R(A)), 3, Fixed(16))
	b.Register(0xFA, op(LD, R(A), A16()), 3, Fixed(16))

	b.Register(0xE8, op(ADD, R16(SP), S8()), 2, Fixed(16))
	b.Register(0xF8, op(LD, R16(HL), SPPlus8), 2, Fixed(12))
	b.Register(0xF9, op(LD, R16(SP), R16(HL)), 1, Fixed(8))

	return b.Build()
}

func buildExtended() *Table {
	b := NewBuilder(true)

	shifts := [8]Mnemonic{RLC, RRC, RL, RR, SLA, SRA, SWAP, SRL}
	for i, m := range shifts {
		row := byte(i) << 3
		for j := byte(0); j < 8; j++ {
			dst := operand8(j)
			cycles := Fixed(8)
			if dst.IsMemory() {
				cycles = Fixed(16)
			}
			b.Register(row|j, op1(m, dst), 2, cycles)
		}
	}

	for n := byte(0); n < 8; n++ {
		row := n << 3
		for j := byte(0); j < 8; j++ {
			target := operand8(j)
			bitCycles, rmwCycles := Fixed(8), Fixed(8)
			if target.IsMemory() {
				bitCycles, rmwCycles = Fixed(12), Fixed(16)
			}
			b.Register(0x40|row|j, op(BIT, Bit(n), target), 2, bitCycles)
			b.Register(0x80|row|j, op(RES, Bit(n), target), 2, rmwCycles)
			b.Register(0xC0|row|j, op(SET, Bit(n), target), 2, rmwCycles)
		}
	}

	return b.Build()
}

// Illegal lists the unprefixed opcodes with no instruction. $CB is the
// extended-table prefix rather than an instruction of its own.
var Illegal = []byte{0xCB, 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
