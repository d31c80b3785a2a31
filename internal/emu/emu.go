// Package emu assembles cartridge, bus and CPU into a steppable machine.
package emu

import (
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/inspect"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// FrameCycles is the number of T-states in one LCD frame.
const FrameCycles = 70224

type Machine struct {
	cfg Config

	cart *cart.Cartridge
	bus  *bus.Bus
	cpu  *cpu.CPU

	cycles  uint64
	steps   uint64
	romPath string

	inspector *inspect.Sender
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// FromBytes builds a machine with default settings around a ROM image
// and leaves it in the post-boot state at 0x0100.
func FromBytes(rom []byte) (*Machine, error) {
	m := New(Defaults())
	if err := m.LoadCartridge(rom); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadCartridge replaces the whole machine state with a fresh one built
// around rom.
func (m *Machine) LoadCartridge(rom []byte) error {
	c, err := cart.New(rom)
	if err != nil {
		return fmt.Errorf("emu: load cartridge: %w", err)
	}
	b := bus.New(c)
	b.SetSerialWriter(m.cfg.Serial)
	core := cpu.New(b)
	core.ResetNoBoot()
	// CGB-capable games look for A=$11 to detect color hardware.
	if c.Header().Mode != cart.Classic {
		core.A = 0x11
	}
	m.cart, m.bus, m.cpu = c, b, core
	m.cycles, m.steps = 0, 0
	m.applyPostBootIO()
	return nil
}

// applyPostBootIO sets the IO registers the boot ROM leaves behind.
func (m *Machine) applyPostBootIO() {
	b := m.bus
	b.Write(0xFF00, 0xCF) // JOYP
	b.Write(0xFF07, 0xF8) // TAC
	b.Write(0xFF0F, 0x01) // IF: VBlank pending
	b.Write(0xFF40, 0x91) // LCDC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFFFF, 0x00) // IE
}

// LoadROMFromFile loads a ROM from disk and remembers its path.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path of the ROM loaded with LoadROMFromFile.
func (m *Machine) ROMPath() string { return m.romPath }

func (m *Machine) CPU() *cpu.CPU              { return m.cpu }
func (m *Machine) Bus() *bus.Bus              { return m.bus }
func (m *Machine) Cartridge() *cart.Cartridge { return m.cart }

// Cycles returns the T-states elapsed since the cartridge was loaded.
func (m *Machine) Cycles() uint64 { return m.cycles }

// Steps returns the number of Step calls that executed an instruction.
func (m *Machine) Steps() uint64 { return m.steps }

// Step executes one instruction, services one interrupt, or idles one
// M-cycle while halted. A decode error leaves the machine untouched.
func (m *Machine) Step() error {
	pc := m.cpu.PC
	op, eff, err := m.cpu.Step()
	if err != nil {
		return fmt.Errorf("emu: step at $%04X: %w", pc, err)
	}
	m.cycles += uint64(eff.Cycles)
	if eff.Idle || eff.Interrupt {
		return nil
	}
	m.steps++
	if m.cfg.Trace && m.cfg.Logger != nil {
		m.trace(op, eff)
	}
	if m.inspector != nil && !m.inspector.Send(inspect.Event{Address: op.Address, Operation: op}) {
		m.inspector = nil
	}
	return nil
}

func (m *Machine) trace(op isa.Operation, eff cpu.Effect) {
	c := m.cpu
	m.cfg.Logger.Printf("PC=%04X %-16s cyc=%-2d A=%02X F=%s BC=%04X DE=%04X HL=%04X SP=%04X IME=%t",
		op.Address, op.String(), eff.Cycles, c.A, c.FlagString(),
		c.Pair(isa.BC), c.Pair(isa.DE), c.Pair(isa.HL), c.SP, c.IME)
}

// RunCycles steps until at least n T-states have elapsed and returns the
// number actually run.
func (m *Machine) RunCycles(n int) (int, error) {
	start := m.cycles
	for m.cycles-start < uint64(n) {
		if err := m.Step(); err != nil {
			return int(m.cycles - start), err
		}
	}
	return int(m.cycles - start), nil
}

// StepFrame advances roughly one frame's worth of cycles.
func (m *Machine) StepFrame() error {
	_, err := m.RunCycles(FrameCycles)
	return err
}

// Inspect attaches an observer. Every executed instruction is queued to
// the returned receiver; closing it stops publishing on the next step.
// A previous observer is disconnected.
func (m *Machine) Inspect() *inspect.Receiver {
	if m.inspector != nil {
		m.inspector.Close()
	}
	s, r := inspect.New()
	m.inspector = s
	return r
}

// Observed reports whether an observer is attached.
func (m *Machine) Observed() bool { return m.inspector != nil }

// SaveBattery returns the cartridge's battery-backed RAM and clock, if any.
// The actual file IO is managed by the caller (e.g., cmd/gbemu).
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.cart == nil || !m.cart.HasBattery() {
		return nil, false
	}
	data := m.cart.SaveRAM()
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// LoadBattery restores what SaveBattery produced.
func (m *Machine) LoadBattery(data []byte) error {
	if m.cart == nil || !m.cart.HasBattery() {
		return nil
	}
	return m.cart.LoadRAM(data)
}
