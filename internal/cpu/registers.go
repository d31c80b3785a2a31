package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// Flag is a bit of the F register.
type Flag byte

const (
	FlagZ Flag = 1 << 7 // zero
	FlagN Flag = 1 << 6 // subtract
	FlagH Flag = 1 << 5 // half-carry
	FlagC Flag = 1 << 4 // carry
)

// Registers is the SM83 register file. The low nibble of F always reads 0.
type Registers struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	Stopped bool
}

// Reg returns an 8-bit register.
func (r *Registers) Reg(n isa.Reg) byte {
	switch n {
	case isa.A:
		return r.A
	case isa.B:
		return r.B
	case isa.C:
		return r.C
	case isa.D:
		return r.D
	case isa.E:
		return r.E
	case isa.H:
		return r.H
	case isa.L:
		return r.L
	case isa.F:
		return r.F & 0xF0
	}
	panic(fmt.Sprintf("cpu: bad register %d", n))
}

// SetReg writes an 8-bit register.
func (r *Registers) SetReg(n isa.Reg, v byte) {
	switch n {
	case isa.A:
		r.A = v
	case isa.B:
		r.B = v
	case isa.C:
		r.C = v
	case isa.D:
		r.D = v
	case isa.E:
		r.E = v
	case isa.H:
		r.H = v
	case isa.L:
		r.L = v
	case isa.F:
		r.F = v & 0xF0
	default:
		panic(fmt.Sprintf("cpu: bad register %d", n))
	}
}

// Pair returns a 16-bit register, composing byte pairs as high:low.
func (r *Registers) Pair(p isa.Pair) uint16 {
	switch p {
	case isa.BC:
		return uint16(r.B)<<8 | uint16(r.C)
	case isa.DE:
		return uint16(r.D)<<8 | uint16(r.E)
	case isa.HL:
		return uint16(r.H)<<8 | uint16(r.L)
	case isa.SP:
		return r.SP
	case isa.AF:
		return uint16(r.A)<<8 | uint16(r.F&0xF0)
	}
	panic(fmt.Sprintf("cpu: bad register pair %d", p))
}

// SetPair writes a 16-bit register. Writing AF drops the low nibble of F.
func (r *Registers) SetPair(p isa.Pair, v uint16) {
	hi, lo := byte(v>>8), byte(v)
	switch p {
	case isa.BC:
		r.B, r.C = hi, lo
	case isa.DE:
		r.D, r.E = hi, lo
	case isa.HL:
		r.H, r.L = hi, lo
	case isa.SP:
		r.SP = v
	case isa.AF:
		r.A, r.F = hi, lo&0xF0
	default:
		panic(fmt.Sprintf("cpu: bad register pair %d", p))
	}
}

// Flag reports whether f is set.
func (r *Registers) Flag(f Flag) bool { return r.F&byte(f) != 0 }

// SetFlag sets or clears a single flag.
func (r *Registers) SetFlag(f Flag, on bool) {
	if on {
		r.F |= byte(f)
	} else {
		r.F &^= byte(f)
	}
}

func (r *Registers) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= byte(FlagZ)
	}
	if n {
		f |= byte(FlagN)
	}
	if h {
		f |= byte(FlagH)
	}
	if carry {
		f |= byte(FlagC)
	}
	r.F = f
}

func (r *Registers) carry() byte {
	if r.Flag(FlagC) {
		return 1
	}
	return 0
}

// Check evaluates a branch condition against the flags.
func (r *Registers) Check(c isa.Condition) bool {
	switch c {
	case isa.NZ:
		return !r.Flag(FlagZ)
	case isa.Z:
		return r.Flag(FlagZ)
	case isa.NC:
		return !r.Flag(FlagC)
	case isa.CY:
		return r.Flag(FlagC)
	}
	return true
}

func (r Registers) String() string {
	return fmt.Sprintf("A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X PC=%04X",
		r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, r.PC)
}

// FlagString renders the flags as e.g. "Z-H-".
func (r *Registers) FlagString() string {
	out := []byte("----")
	for i, f := range []Flag{FlagZ, FlagN, FlagH, FlagC} {
		if r.Flag(f) {
			out[i] = "ZNHC"[i]
		}
	}
	return string(out)
}
