package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// Execute applies a decoded operation. PC is first moved past the
// instruction, so relative jumps and calls see the address of the next one.
// Operations the table never produces are a programming error and panic
// before any state changes.
func (c *CPU) Execute(op isa.Operation) Effect {
	c.mustSupport(op)
	c.PC = op.Next()

	taken := true
	switch op.Family() {
	case isa.FamilyNop:
	case isa.FamilyLoad:
		c.load(op)
	case isa.FamilyAdd:
		c.add(op)
	case isa.FamilySubtract:
		c.subtract(op)
	case isa.FamilyCompare:
		_, z, n, h, cy := sub8(c.A, c.read8(op.Src), 0)
		c.setZNHC(z, n, h, cy)
	case isa.FamilyIncrement, isa.FamilyDecrement:
		c.step8or16(op)
	case isa.FamilyBitwise:
		c.bitwise(op)
	case isa.FamilyRotateLeft, isa.FamilyRotateRight:
		c.rotate(op)
	case isa.FamilyJump:
		taken = c.jump(op)
	case isa.FamilyStack:
		c.stack(op)
	case isa.FamilySubroutine:
		taken = c.subroutine(op)
	case isa.FamilyControl:
		c.control(op)
	}
	return Effect{Cycles: int(op.Cycles.Resolve(taken)), Taken: taken}
}

func unsupported(op isa.Operation) string {
	return fmt.Sprintf("cpu: unsupported operation %s (%s)", op.Kind.Template(), op.Family())
}

// mustSupport rejects operand shapes Execute has no semantics for, so a
// bad operation never leaves the machine half updated.
func (c *CPU) mustSupport(op isa.Operation) {
	ok8 := func(o isa.Operand) bool {
		switch o.Mode {
		case isa.Reg8, isa.Imm8, isa.Indirect, isa.IndirectInc, isa.IndirectDec, isa.HighC, isa.Abs16, isa.High8:
			return true
		}
		return false
	}
	switch op.Mnemonic {
	case isa.NOP, isa.DAA, isa.HALT, isa.STOP, isa.DI, isa.EI, isa.CPL, isa.SCF, isa.CCF,
		isa.RLCA, isa.RLA, isa.RRCA, isa.RRA, isa.RETI, isa.RET:
		return
	case isa.LD, isa.LDH:
		if is16(op) || (ok8(op.Dst) && ok8(op.Src)) {
			return
		}
	case isa.ADD:
		if op.Dst.Mode == isa.Reg16 || ok8(op.Src) {
			return
		}
	case isa.ADC, isa.SUB, isa.SBC, isa.CP, isa.AND, isa.OR, isa.XOR:
		if ok8(op.Src) {
			return
		}
	case isa.INC, isa.DEC, isa.RLC, isa.RL, isa.SLA, isa.RRC, isa.RR, isa.SRA, isa.SRL, isa.SWAP:
		if op.Dst.Mode == isa.Reg16 && (op.Mnemonic == isa.INC || op.Mnemonic == isa.DEC) {
			return
		}
		if ok8(op.Dst) {
			return
		}
	case isa.BIT, isa.SET, isa.RES:
		if op.Dst.Mode == isa.BitIndex && ok8(op.Src) {
			return
		}
	case isa.JP, isa.JR, isa.CALL, isa.RST:
		switch op.Dst.Mode {
		case isa.Imm16, isa.Rel8, isa.Vector, isa.Reg16:
			return
		}
	case isa.PUSH, isa.POP:
		if op.Dst.Mode == isa.Reg16 {
			return
		}
	}
	panic(unsupported(op))
}

func (c *CPU) read8(o isa.Operand) byte {
	switch o.Mode {
	case isa.Reg8:
		return c.Reg(o.Reg)
	case isa.Imm8:
		return byte(o.Value)
	case isa.Indirect:
		return c.mem.Read(c.Pair(o.Pair))
	case isa.IndirectInc:
		hl := c.Pair(isa.HL)
		c.SetPair(isa.HL, hl+1)
		return c.mem.Read(hl)
	case isa.IndirectDec:
		hl := c.Pair(isa.HL)
		c.SetPair(isa.HL, hl-1)
		return c.mem.Read(hl)
	case isa.HighC:
		return c.mem.Read(0xFF00 | uint16(c.C))
	case isa.Abs16:
		return c.mem.Read(o.Value)
	case isa.High8:
		return c.mem.Read(0xFF00 | o.Value&0xFF)
	}
	panic(fmt.Sprintf("cpu: operand %s is not an 8-bit source", o.Template()))
}

func (c *CPU) write8(o isa.Operand, v byte) {
	switch o.Mode {
	case isa.Reg8:
		c.SetReg(o.Reg, v)
	case isa.Indirect:
		c.mem.Write(c.Pair(o.Pair), v)
	case isa.IndirectInc:
		hl := c.Pair(isa.HL)
		c.mem.Write(hl, v)
		c.SetPair(isa.HL, hl+1)
	case isa.IndirectDec:
		hl := c.Pair(isa.HL)
		c.mem.Write(hl, v)
		c.SetPair(isa.HL, hl-1)
	case isa.HighC:
		c.mem.Write(0xFF00|uint16(c.C), v)
	case isa.Abs16:
		c.mem.Write(o.Value, v)
	case isa.High8:
		c.mem.Write(0xFF00|o.Value&0xFF, v)
	default:
		panic(fmt.Sprintf("cpu: operand %s is not an 8-bit destination", o.Template()))
	}
}

func is16(op isa.Operation) bool {
	return op.Dst.Mode == isa.Reg16 || op.Src.Mode == isa.Reg16
}

func (c *CPU) load(op isa.Operation) {
	if !is16(op) {
		c.write8(op.Dst, c.read8(op.Src))
		return
	}
	switch {
	case op.Src.Mode == isa.Imm16: // LD rr,d16
		c.SetPair(op.Dst.Pair, op.Src.Value)
	case op.Dst.Mode == isa.Abs16: // LD (a16),SP
		c.write16(op.Dst.Value, c.Pair(op.Src.Pair))
	case op.Src.Mode == isa.SPRel8: // LD HL,SP+s8
		res, h, cy := addSP(c.SP, op.Src.Offset())
		c.SetPair(op.Dst.Pair, res)
		c.setZNHC(false, false, h, cy)
	default: // LD SP,HL
		c.SetPair(op.Dst.Pair, c.Pair(op.Src.Pair))
	}
}

func (c *CPU) add(op isa.Operation) {
	switch {
	case op.Dst.Mode == isa.Reg16 && op.Dst.Pair == isa.SP: // ADD SP,s8
		res, h, cy := addSP(c.SP, op.Src.Offset())
		c.SP = res
		c.setZNHC(false, false, h, cy)
	case op.Dst.Mode == isa.Reg16: // ADD HL,rr
		res, h, cy := addHL(c.Pair(isa.HL), c.Pair(op.Src.Pair))
		c.SetPair(isa.HL, res)
		c.setZNHC(c.Flag(FlagZ), false, h, cy)
	default:
		var carry byte
		if op.Mnemonic == isa.ADC {
			carry = c.carry()
		}
		res, z, n, h, cy := add8(c.A, c.read8(op.Src), carry)
		c.A = res
		c.setZNHC(z, n, h, cy)
	}
}

func (c *CPU) subtract(op isa.Operation) {
	var carry byte
	if op.Mnemonic == isa.SBC {
		carry = c.carry()
	}
	res, z, n, h, cy := sub8(c.A, c.read8(op.Src), carry)
	c.A = res
	c.setZNHC(z, n, h, cy)
}

// step8or16 implements INC and DEC. The 16-bit forms touch no flags, the
// 8-bit forms never touch C.
func (c *CPU) step8or16(op isa.Operation) {
	inc := op.Mnemonic == isa.INC
	if op.Dst.Mode == isa.Reg16 {
		v := c.Pair(op.Dst.Pair)
		if inc {
			v++
		} else {
			v--
		}
		c.SetPair(op.Dst.Pair, v)
		return
	}
	v := c.read8(op.Dst)
	var res byte
	var h bool
	if inc {
		res, h = inc8(v)
	} else {
		res, h = dec8(v)
	}
	c.write8(op.Dst, res)
	c.setZNHC(res == 0, !inc, h, c.Flag(FlagC))
}

func (c *CPU) bitwise(op isa.Operation) {
	switch op.Mnemonic {
	case isa.AND, isa.OR, isa.XOR:
		f := and8
		switch op.Mnemonic {
		case isa.OR:
			f = or8
		case isa.XOR:
			f = xor8
		}
		res, z, n, h, cy := f(c.A, c.read8(op.Src))
		c.A = res
		c.setZNHC(z, n, h, cy)
	case isa.CPL:
		c.A = ^c.A
		c.SetFlag(FlagN, true)
		c.SetFlag(FlagH, true)
	case isa.SCF:
		c.setZNHC(c.Flag(FlagZ), false, false, true)
	case isa.CCF:
		c.setZNHC(c.Flag(FlagZ), false, false, !c.Flag(FlagC))
	case isa.BIT:
		v := c.read8(op.Src)
		c.setZNHC(v&(1<<op.Dst.Value) == 0, false, true, c.Flag(FlagC))
	case isa.SET:
		c.write8(op.Src, c.read8(op.Src)|1<<op.Dst.Value)
	case isa.RES:
		c.write8(op.Src, c.read8(op.Src)&^(1<<op.Dst.Value))
	case isa.SWAP:
		res, _ := swap(c.read8(op.Dst), 0)
		c.write8(op.Dst, res)
		c.setZNHC(res == 0, false, false, false)
	}
}

var shifters = map[isa.Mnemonic]func(v, carry byte) (byte, bool){
	isa.RLCA: rlc, isa.RLC: rlc,
	isa.RLA: rl, isa.RL: rl,
	isa.RRCA: rrc, isa.RRC: rrc,
	isa.RRA: rr, isa.RR: rr,
	isa.SLA: sla,
	isa.SRA: sra,
	isa.SRL: srl,
}

// rotate covers the accumulator forms (Z always cleared) and the prefixed
// forms (Z from the result).
func (c *CPU) rotate(op isa.Operation) {
	f := shifters[op.Mnemonic]
	switch op.Mnemonic {
	case isa.RLCA, isa.RLA, isa.RRCA, isa.RRA:
		res, out := f(c.A, c.carry())
		c.A = res
		c.setZNHC(false, false, false, out)
	default:
		res, out := f(c.read8(op.Dst), c.carry())
		c.write8(op.Dst, res)
		c.setZNHC(res == 0, false, false, out)
	}
}

func (c *CPU) jump(op isa.Operation) bool {
	if !c.Check(op.Cond) {
		return false
	}
	switch op.Dst.Mode {
	case isa.Reg16: // JP HL
		c.PC = c.Pair(op.Dst.Pair)
	default:
		c.PC, _ = op.Target()
	}
	return true
}

func (c *CPU) stack(op isa.Operation) {
	if op.Mnemonic == isa.PUSH {
		c.push16(c.Pair(op.Dst.Pair))
		return
	}
	c.SetPair(op.Dst.Pair, c.pop16())
}

func (c *CPU) subroutine(op isa.Operation) bool {
	switch op.Mnemonic {
	case isa.CALL, isa.RST:
		if !c.Check(op.Cond) {
			return false
		}
		c.push16(c.PC)
		c.PC, _ = op.Target()
	case isa.RET:
		if !c.Check(op.Cond) {
			return false
		}
		c.PC = c.pop16()
	case isa.RETI:
		c.PC = c.pop16()
		c.IME = true
	}
	return true
}

func (c *CPU) control(op isa.Operation) {
	switch op.Mnemonic {
	case isa.DAA:
		res, cy := daa(c.A, c.Flag(FlagN), c.Flag(FlagH), c.Flag(FlagC))
		c.A = res
		c.setZNHC(res == 0, c.Flag(FlagN), false, cy)
	case isa.HALT:
		c.halted = true
	case isa.STOP:
		c.Stopped = true
	case isa.DI:
		c.IME = false
		c.eiPending = false
	case isa.EI:
		c.eiPending = true
	}
}
