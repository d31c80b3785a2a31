package cpu

import (
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// Memory is the CPU's view of the 16-bit address space. Reads and writes
// never fail: unmapped addresses read 0xFF and ignore writes.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

const (
	addrIF uint16 = 0xFF0F
	addrIE uint16 = 0xFFFF

	interruptCycles = 20
	idleCycles      = 4
)

// Effect describes what executing one step cost.
type Effect struct {
	Cycles int // T-states
	// Taken reports the branch outcome of a conditional instruction. It is
	// true for unconditional instructions.
	Taken bool
	// Interrupt is set when the step dispatched an interrupt instead of
	// executing an instruction. Vector holds the handler address.
	Interrupt bool
	Vector    uint16
	// Idle is set when the CPU was halted or stopped and did nothing.
	Idle bool
}

// CPU is an SM83 core bound to a memory.
type CPU struct {
	Registers

	IME    bool
	halted bool
	// EI enables IME after the following instruction
	eiPending bool

	mem Memory
}

// New creates a CPU with SP at the top of HRAM and PC at 0.
func New(mem Memory) *CPU {
	c := &CPU{mem: mem}
	c.SP = 0xFFFE
	return c
}

// SetPC allows tests or a boot stub to set the program counter.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// Memory exposes the memory the CPU executes against.
func (c *CPU) Memory() Memory { return c.mem }

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool { return c.halted }

// ResetNoBoot sets registers to typical DMG post-boot state.
// Useful when running without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.Registers = Registers{
		A: 0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
	c.IME = false
	c.halted = false
	c.eiPending = false
}

// memSource lets the decoder read straight from the address space.
type memSource struct{ m Memory }

func (s memSource) Len() int           { return 0x10000 }
func (s memSource) At(offset int) byte { return s.m.Read(uint16(offset)) }

// Source returns the address space as a decoder source.
func Source(m Memory) isa.Source { return memSource{m} }

// Fetch decodes the instruction at PC without executing it.
func (c *CPU) Fetch() (isa.Operation, error) {
	return isa.Decode(memSource{c.mem}, int(c.PC))
}

func (c *CPU) pendingInterrupts() byte {
	return c.mem.Read(addrIE) & c.mem.Read(addrIF) & 0x1F
}

// serviceInterrupt dispatches the highest priority pending interrupt:
// VBlank(0), LCD STAT(1), Timer(2), Serial(3), Joypad(4).
func (c *CPU) serviceInterrupt(pending byte) Effect {
	var bit uint
	for bit = 0; bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			break
		}
	}
	ifReg := c.mem.Read(addrIF)
	c.mem.Write(addrIF, ifReg&^(1<<bit)&0x1F)
	c.halted = false
	c.Stopped = false
	c.IME = false
	c.push16(c.PC)
	c.PC = 0x40 + uint16(bit)*8
	return Effect{Cycles: interruptCycles, Taken: true, Interrupt: true, Vector: c.PC}
}

// Step services a pending interrupt or executes one instruction. The
// returned operation is zero when no instruction ran. Decode errors leave
// the CPU untouched.
func (c *CPU) Step() (isa.Operation, Effect, error) {
	if c.halted || c.Stopped {
		pending := c.pendingInterrupts()
		if pending == 0 {
			return isa.Operation{}, Effect{Cycles: idleCycles, Idle: true}, nil
		}
		if !c.IME {
			// wake without servicing
			c.halted, c.Stopped = false, false
		}
	}

	if c.IME {
		if pending := c.pendingInterrupts(); pending != 0 {
			return isa.Operation{}, c.serviceInterrupt(pending), nil
		}
	}

	op, err := c.Fetch()
	if err != nil {
		return isa.Operation{}, Effect{}, err
	}
	armIME := c.eiPending
	c.eiPending = false
	eff := c.Execute(op)
	if armIME && op.Mnemonic != isa.DI {
		c.IME = true
	}
	return op, eff, nil
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.mem.Read(addr))
	hi := uint16(c.mem.Read(addr + 1))
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.mem.Write(addr, byte(v))
	c.mem.Write(addr+1, byte(v>>8))
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}
