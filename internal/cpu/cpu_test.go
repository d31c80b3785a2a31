package cpu

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// flatMem is a 64KiB RAM with no mapping rules.
type flatMem [0x10000]byte

func (m *flatMem) Read(addr uint16) byte     { return m[addr] }
func (m *flatMem) Write(addr uint16, v byte) { m[addr] = v }

func newCPUWithCode(code ...byte) (*CPU, *flatMem) {
	mem := &flatMem{}
	copy(mem[:], code)
	return New(mem), mem
}

func step(t *testing.T, c *CPU) Effect {
	t.Helper()
	_, eff, err := c.Step()
	if err != nil {
		t.Fatalf("step at %04X: %v", c.PC, err)
	}
	return eff
}

func TestCPU_NopAndPC(t *testing.T) {
	c, _ := newCPUWithCode(0x00) // NOP
	if eff := step(t, c); eff.Cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", eff.Cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c, _ := newCPUWithCode(0x3E, 0x12, 0xAF) // LD A,0x12; XOR A
	step(t, c)
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	step(t, c)
	if c.A != 0x00 || !c.Flag(FlagZ) {
		t.Fatalf("XOR A got A=%02x F=%s", c.A, c.FlagString())
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	c, mem := newCPUWithCode(0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0)
	step(t, c) // LD A,77
	step(t, c) // LD (C000),A
	if mem[0xC000] != 0x77 {
		t.Fatalf("C000 got %02x want 77", mem[0xC000])
	}
	step(t, c) // LD A,00
	step(t, c) // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_FlagTable(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		setup func(c *CPU, m *flatMem)
		check func(c *CPU, m *flatMem) bool
		flags string
	}{
		{
			name:  "ADD A,B half carry",
			code:  []byte{0x80},
			setup: func(c *CPU, m *flatMem) { c.A, c.B = 0x0F, 0x01 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x10 },
			flags: "--H-",
		},
		{
			name:  "ADD A,B carry and zero",
			code:  []byte{0x80},
			setup: func(c *CPU, m *flatMem) { c.A, c.B = 0xF0, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x00 },
			flags: "Z--C",
		},
		{
			name: "INC (HL) wraps",
			code: []byte{0x34},
			setup: func(c *CPU, m *flatMem) {
				c.SetPair(isa.HL, 0xC000)
				m[0xC000] = 0xFF
			},
			check: func(c *CPU, m *flatMem) bool { return m[0xC000] == 0x00 },
			flags: "Z-H-",
		},
		{
			name:  "DEC B from zero",
			code:  []byte{0x05},
			setup: func(c *CPU, m *flatMem) { c.B = 0x00 },
			check: func(c *CPU, m *flatMem) bool { return c.B == 0xFF },
			flags: "-NH-",
		},
		{
			name:  "INC B keeps carry",
			code:  []byte{0x04},
			setup: func(c *CPU, m *flatMem) { c.B, c.F = 0x0F, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.B == 0x10 },
			flags: "--HC",
		},
		{
			name:  "ADC half carry from carry-in",
			code:  []byte{0x88},
			setup: func(c *CPU, m *flatMem) { c.A, c.B, c.F = 0x0F, 0x00, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x10 },
			flags: "--H-",
		},
		{
			name:  "ADC carry out from carry-in",
			code:  []byte{0x88},
			setup: func(c *CPU, m *flatMem) { c.A, c.B, c.F = 0xFF, 0x00, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x00 },
			flags: "Z-HC",
		},
		{
			name:  "SBC borrow from carry-in",
			code:  []byte{0x98},
			setup: func(c *CPU, m *flatMem) { c.A, c.B, c.F = 0x10, 0x0F, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x00 },
			flags: "ZNH-",
		},
		{
			name:  "SBC full borrow",
			code:  []byte{0x98},
			setup: func(c *CPU, m *flatMem) { c.A, c.B, c.F = 0x00, 0xFF, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x00 },
			flags: "ZNHC",
		},
		{
			name:  "CP leaves A",
			code:  []byte{0xFE, 0x40},
			setup: func(c *CPU, m *flatMem) { c.A = 0x3F },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x3F },
			flags: "-N-C",
		},
		{
			name:  "AND sets H",
			code:  []byte{0xE6, 0x0F},
			setup: func(c *CPU, m *flatMem) { c.A = 0xF0 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x00 },
			flags: "Z-H-",
		},
		{
			name:  "ADD HL,BC keeps Z",
			code:  []byte{0x09},
			setup: func(c *CPU, m *flatMem) { c.F = 0x80; c.SetPair(isa.HL, 0x0FFF); c.SetPair(isa.BC, 0x0001) },
			check: func(c *CPU, m *flatMem) bool { return c.Pair(isa.HL) == 0x1000 },
			flags: "Z-H-",
		},
		{
			name:  "ADD SP,s8 clears Z",
			code:  []byte{0xE8, 0x01},
			setup: func(c *CPU, m *flatMem) { c.F = 0x80; c.SP = 0x00FF },
			check: func(c *CPU, m *flatMem) bool { return c.SP == 0x0100 },
			flags: "--HC",
		},
		{
			name:  "LD HL,SP-1",
			code:  []byte{0xF8, 0xFF},
			setup: func(c *CPU, m *flatMem) { c.SP = 0x0000 },
			check: func(c *CPU, m *flatMem) bool { return c.Pair(isa.HL) == 0xFFFF },
			flags: "----",
		},
		{
			name:  "RLCA clears Z",
			code:  []byte{0x07},
			setup: func(c *CPU, m *flatMem) { c.A, c.F = 0x80, 0x80 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x01 },
			flags: "---C",
		},
		{
			name:  "RLC B sets Z",
			code:  []byte{0xCB, 0x00},
			setup: func(c *CPU, m *flatMem) { c.B = 0x00 },
			check: func(c *CPU, m *flatMem) bool { return c.B == 0x00 },
			flags: "Z---",
		},
		{
			name:  "RR C through carry",
			code:  []byte{0xCB, 0x19},
			setup: func(c *CPU, m *flatMem) { c.C, c.F = 0x01, 0x10 },
			check: func(c *CPU, m *flatMem) bool { return c.C == 0x80 },
			flags: "---C",
		},
		{
			name:  "SRA keeps sign",
			code:  []byte{0xCB, 0x2F},
			setup: func(c *CPU, m *flatMem) { c.A = 0x81 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0xC0 },
			flags: "---C",
		},
		{
			name:  "SWAP (HL)",
			code:  []byte{0xCB, 0x36},
			setup: func(c *CPU, m *flatMem) { c.SetPair(isa.HL, 0xC000); m[0xC000] = 0xAB; c.F = 0x10 },
			check: func(c *CPU, m *flatMem) bool { return m[0xC000] == 0xBA },
			flags: "----",
		},
		{
			name:  "BIT 7,H clear keeps carry",
			code:  []byte{0xCB, 0x7C},
			setup: func(c *CPU, m *flatMem) { c.H, c.F = 0x7F, 0x50 },
			check: func(c *CPU, m *flatMem) bool { return c.H == 0x7F },
			flags: "Z-HC",
		},
		{
			name:  "SET 3,(HL)",
			code:  []byte{0xCB, 0xDE},
			setup: func(c *CPU, m *flatMem) { c.SetPair(isa.HL, 0xC000); c.F = 0xF0 },
			check: func(c *CPU, m *flatMem) bool { return m[0xC000] == 0x08 },
			flags: "ZNHC",
		},
		{
			name:  "RES 0,A",
			code:  []byte{0xCB, 0x87},
			setup: func(c *CPU, m *flatMem) { c.A = 0xFF },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0xFE },
			flags: "----",
		},
		{
			name:  "CPL",
			code:  []byte{0x2F},
			setup: func(c *CPU, m *flatMem) { c.A, c.F = 0x0F, 0x90 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0xF0 },
			flags: "ZNHC",
		},
		{
			name:  "SCF",
			code:  []byte{0x37},
			setup: func(c *CPU, m *flatMem) { c.F = 0x60 },
			check: func(c *CPU, m *flatMem) bool { return true },
			flags: "---C",
		},
		{
			name:  "CCF",
			code:  []byte{0x3F},
			setup: func(c *CPU, m *flatMem) { c.F = 0xF0 },
			check: func(c *CPU, m *flatMem) bool { return true },
			flags: "Z---",
		},
		{
			name:  "LD (HL+),A",
			code:  []byte{0x22},
			setup: func(c *CPU, m *flatMem) { c.A = 0x42; c.SetPair(isa.HL, 0xC0FF) },
			check: func(c *CPU, m *flatMem) bool { return m[0xC0FF] == 0x42 && c.Pair(isa.HL) == 0xC100 },
			flags: "----",
		},
		{
			name:  "LD A,(HL-)",
			code:  []byte{0x3A},
			setup: func(c *CPU, m *flatMem) { c.SetPair(isa.HL, 0xC000); m[0xC000] = 0x99 },
			check: func(c *CPU, m *flatMem) bool { return c.A == 0x99 && c.Pair(isa.HL) == 0xBFFF },
			flags: "----",
		},
		{
			name:  "LDH (a8),A",
			code:  []byte{0xE0, 0x80},
			setup: func(c *CPU, m *flatMem) { c.A = 0x5A },
			check: func(c *CPU, m *flatMem) bool { return m[0xFF80] == 0x5A },
			flags: "----",
		},
		{
			name:  "LD (C),A",
			code:  []byte{0xE2},
			setup: func(c *CPU, m *flatMem) { c.A, c.C = 0x11, 0x81 },
			check: func(c *CPU, m *flatMem) bool { return m[0xFF81] == 0x11 },
			flags: "----",
		},
		{
			name:  "LD (a16),SP",
			code:  []byte{0x08, 0x00, 0xC0},
			setup: func(c *CPU, m *flatMem) { c.SP = 0xBEEF },
			check: func(c *CPU, m *flatMem) bool { return m[0xC000] == 0xEF && m[0xC001] == 0xBE },
			flags: "----",
		},
		{
			name:  "INC BC no flags",
			code:  []byte{0x03},
			setup: func(c *CPU, m *flatMem) { c.SetPair(isa.BC, 0xFFFF) },
			check: func(c *CPU, m *flatMem) bool { return c.Pair(isa.BC) == 0x0000 },
			flags: "----",
		},
	}
	for _, tt := range tests {
		c, mem := newCPUWithCode(tt.code...)
		c.F = 0
		tt.setup(c, mem)
		step(t, c)
		if !tt.check(c, mem) {
			t.Fatalf("%s: unexpected result, regs %s", tt.name, c.Registers)
		}
		if got := c.FlagString(); got != tt.flags {
			t.Fatalf("%s: flags got %s want %s", tt.name, got, tt.flags)
		}
		if c.PC != uint16(len(tt.code)) {
			t.Fatalf("%s: PC got %04X want %04X", tt.name, c.PC, len(tt.code))
		}
	}
}

func TestCPU_DAA_AddAndSub(t *testing.T) {
	// LD A,0x45; ADD A,0x38; DAA -> 0x83
	c, _ := newCPUWithCode(0x3E, 0x45, 0xC6, 0x38, 0x27, 0xD6, 0x38, 0x27)
	step(t, c)
	step(t, c)
	step(t, c)
	if c.A != 0x83 || c.FlagString() != "----" {
		t.Fatalf("DAA after add got A=%02X F=%s want 83 ----", c.A, c.FlagString())
	}
	// SUB 0x38; DAA -> 0x45
	step(t, c)
	step(t, c)
	if c.A != 0x45 || c.FlagString() != "-N--" {
		t.Fatalf("DAA after sub got A=%02X F=%s want 45 -N--", c.A, c.FlagString())
	}
}

func TestCPU_JR_NZ_Cycles(t *testing.T) {
	// JR NZ,+4 at 0x0100
	code := []byte{0x20, 0x04}

	c, mem := newCPUWithCode()
	copy(mem[0x0100:], code)
	c.SetPC(0x0100)
	c.SetFlag(FlagZ, true)
	eff := step(t, c)
	if eff.Cycles != 8 || eff.Taken || c.PC != 0x0102 {
		t.Fatalf("not taken: cycles=%d taken=%v PC=%04X", eff.Cycles, eff.Taken, c.PC)
	}

	c.SetPC(0x0100)
	c.SetFlag(FlagZ, false)
	eff = step(t, c)
	if eff.Cycles != 12 || !eff.Taken || c.PC != 0x0106 {
		t.Fatalf("taken: cycles=%d taken=%v PC=%04X", eff.Cycles, eff.Taken, c.PC)
	}

	// negative displacement
	mem[0x0101] = 0xFE
	c.SetPC(0x0100)
	step(t, c)
	if c.PC != 0x0100 {
		t.Fatalf("JR NZ,-2 PC got %04X want 0100", c.PC)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	c, mem := newCPUWithCode(0xC3, 0x10, 0x00) // JP 0x0010
	mem[0x0010] = 0x18                         // JR -2
	mem[0x0011] = 0xFE
	eff := step(t, c)
	if eff.Cycles != 16 || c.PC != 0x0010 {
		t.Fatalf("JP cycles=%d PC=%#04x want cycles=16 PC=0x0010", eff.Cycles, c.PC)
	}
	step(t, c)
	if c.PC != 0x0010 {
		t.Fatalf("JR -2 PC got %#04x want 0x0010", c.PC)
	}

	c.SetPair(isa.HL, 0x1234)
	mem[0x0010] = 0xE9 // JP HL
	if eff := step(t, c); eff.Cycles != 4 || c.PC != 0x1234 {
		t.Fatalf("JP HL cycles=%d PC=%04X", eff.Cycles, c.PC)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	// 0000: CALL 0005; NOP; NOP; RET
	c, mem := newCPUWithCode(0xCD, 0x05, 0x00, 0x00, 0x00, 0xC9)
	if eff := step(t, c); eff.Cycles != 24 || c.PC != 0x0005 {
		t.Fatalf("CALL cycles=%d PC=%04X", eff.Cycles, c.PC)
	}
	if c.SP != 0xFFFC || mem[0xFFFC] != 0x03 || mem[0xFFFD] != 0x00 {
		t.Fatalf("CALL pushed SP=%04X [%02X %02X]", c.SP, mem[0xFFFC], mem[0xFFFD])
	}
	if eff := step(t, c); c.PC != 0x0003 || eff.Cycles != 16 || c.SP != 0xFFFE {
		t.Fatalf("RET did not return to 0003; PC=%04X cyc=%d SP=%04X", c.PC, eff.Cycles, c.SP)
	}
}

func TestCPU_ConditionalCallAndRet(t *testing.T) {
	// CALL C,0010 ; RET NC at 0010
	c, mem := newCPUWithCode(0xDC, 0x10, 0x00)
	mem[0x0010] = 0xD0
	eff := step(t, c)
	if eff.Cycles != 12 || c.PC != 0x0003 || c.SP != 0xFFFE {
		t.Fatalf("CALL C not taken: cyc=%d PC=%04X SP=%04X", eff.Cycles, c.PC, c.SP)
	}
	c.SetPC(0)
	c.SetFlag(FlagC, true)
	if eff := step(t, c); eff.Cycles != 24 || c.PC != 0x0010 {
		t.Fatalf("CALL C taken: cyc=%d PC=%04X", eff.Cycles, c.PC)
	}
	if eff := step(t, c); eff.Cycles != 8 || c.PC != 0x0011 {
		t.Fatalf("RET NC not taken: cyc=%d PC=%04X", eff.Cycles, c.PC)
	}
	c.SetFlag(FlagC, false)
	c.SetPC(0x0010)
	if eff := step(t, c); eff.Cycles != 20 || c.PC != 0x0003 {
		t.Fatalf("RET NC taken: cyc=%d PC=%04X", eff.Cycles, c.PC)
	}
}

func TestCPU_RST(t *testing.T) {
	c, mem := newCPUWithCode()
	mem[0x0200] = 0xEF // RST 28
	c.SetPC(0x0200)
	if eff := step(t, c); eff.Cycles != 16 || c.PC != 0x0028 {
		t.Fatalf("RST cyc=%d PC=%04X", eff.Cycles, c.PC)
	}
	if got := c.read16(c.SP); got != 0x0201 {
		t.Fatalf("RST return address got %04X want 0201", got)
	}
}

func TestCPU_PushPopRoundTrip(t *testing.T) {
	c, _ := newCPUWithCode(0xC5, 0xD1) // PUSH BC; POP DE
	c.SetPair(isa.BC, 0xBEEF)
	sp := c.SP
	step(t, c)
	step(t, c)
	if c.Pair(isa.DE) != 0xBEEF || c.SP != sp {
		t.Fatalf("PUSH BC/POP DE got DE=%04X SP=%04X", c.Pair(isa.DE), c.SP)
	}
}

func TestCPU_PopAFMasksFlags(t *testing.T) {
	c, _ := newCPUWithCode(0xC5, 0xF1, 0xF5, 0xE1) // PUSH BC; POP AF; PUSH AF; POP HL
	c.SetPair(isa.BC, 0x12FF)
	for i := 0; i < 4; i++ {
		step(t, c)
	}
	if c.A != 0x12 || c.F != 0xF0 {
		t.Fatalf("POP AF got A=%02X F=%02X want 12 F0", c.A, c.F)
	}
	if c.Pair(isa.HL) != 0x12F0 {
		t.Fatalf("PUSH AF pushed %04X want 12F0", c.Pair(isa.HL))
	}
}

func TestCPU_InterruptServiceAndHALT(t *testing.T) {
	c, mem := newCPUWithCode()
	c.SetPC(0x0100)

	c.IME = true
	mem[0xFFFF] = 0x01 // IE VBlank
	mem[0xFF0F] = 0x01 // IF VBlank

	_, eff, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if eff.Cycles != 20 || !eff.Interrupt {
		t.Fatalf("expected 20 cycle interrupt service, got %+v", eff)
	}
	if c.PC != 0x0040 {
		t.Fatalf("expected PC at 0x0040 vector, got %04X", c.PC)
	}
	if c.IME {
		t.Fatal("IME should be cleared after interrupt service")
	}
	if mem[0xFF0F]&0x01 != 0 {
		t.Fatal("IF bit should be acknowledged")
	}

	// HALT without IME idles until IF&IE != 0, then wakes without servicing.
	c.halted = true
	mem[0xFFFF] = 0x02
	mem[0xFF0F] = 0x00
	if eff := step(t, c); !eff.Idle || eff.Cycles != 4 || !c.halted {
		t.Fatalf("halted step got %+v halted=%v", eff, c.halted)
	}
	mem[0xFF0F] = 0x02
	pc := c.PC
	step(t, c)
	if c.halted {
		t.Fatal("HALT should wake when IF&IE!=0 even with IME=0")
	}
	if c.PC != pc+1 {
		t.Fatalf("woken CPU should execute the next instruction, PC=%04X", c.PC)
	}
}

func TestCPU_EIDelay(t *testing.T) {
	c, mem := newCPUWithCode(0xFB, 0x00, 0x00) // EI; NOP; NOP
	mem[0xFFFF] = 0x04
	mem[0xFF0F] = 0x04
	step(t, c) // EI
	if c.IME {
		t.Fatal("IME must not be set right after EI")
	}
	step(t, c) // NOP runs before the interrupt
	if !c.IME || c.PC != 0x0002 {
		t.Fatalf("after NOP IME=%v PC=%04X", c.IME, c.PC)
	}
	if eff := step(t, c); !eff.Interrupt || c.PC != 0x0050 {
		t.Fatalf("timer interrupt not serviced: %+v PC=%04X", eff, c.PC)
	}
}

func TestCPU_RETI(t *testing.T) {
	c, _ := newCPUWithCode(0xD9)
	c.push16(0x1234)
	step(t, c)
	if c.PC != 0x1234 || !c.IME {
		t.Fatalf("RETI PC=%04X IME=%v", c.PC, c.IME)
	}
}

func TestCPU_STOP(t *testing.T) {
	c, _ := newCPUWithCode(0x10, 0x00, 0x00)
	step(t, c)
	if !c.Stopped || c.PC != 2 {
		t.Fatalf("STOP stopped=%v PC=%04X", c.Stopped, c.PC)
	}
	if eff := step(t, c); !eff.Idle {
		t.Fatalf("stopped CPU should idle, got %+v", eff)
	}
}

func TestCPU_DecodeErrorLeavesState(t *testing.T) {
	c, _ := newCPUWithCode(0xDD)
	before := c.Registers
	if _, _, err := c.Step(); err == nil {
		t.Fatal("expected unknown opcode error")
	}
	if c.Registers != before {
		t.Fatalf("registers changed on decode error: %s", c.Registers)
	}
}

func TestCPU_ExecutePanicsOnForeignOperation(t *testing.T) {
	c, _ := newCPUWithCode()
	before := c.Registers
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
		if c.Registers != before {
			t.Fatal("registers changed before panic")
		}
	}()
	c.Execute(isa.Operation{Kind: isa.Kind{Mnemonic: isa.PUSH, Dst: isa.R(isa.A)}, Width: 1})
}

func TestRegisters_Pairs(t *testing.T) {
	var r Registers
	r.SetPair(isa.AF, 0x12FF)
	if r.A != 0x12 || r.F != 0xF0 || r.Pair(isa.AF) != 0x12F0 {
		t.Fatalf("AF got A=%02X F=%02X", r.A, r.F)
	}
	r.SetPair(isa.HL, 0xABCD)
	if r.H != 0xAB || r.L != 0xCD {
		t.Fatalf("HL got H=%02X L=%02X", r.H, r.L)
	}
	r.SetReg(isa.F, 0xFF)
	if r.F != 0xF0 {
		t.Fatalf("F low nibble not masked: %02X", r.F)
	}
}
