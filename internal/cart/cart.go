package cart

import (
	"encoding/binary"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/rtc"
)

// Type is the memory bank controller family.
type Type uint8

const (
	TypeROMOnly Type = iota
	TypeMBC1
	TypeMBC3
	TypeMBC5
)

func (t Type) String() string {
	return [...]string{"ROM ONLY", "MBC1", "MBC3", "MBC5"}[t]
}

// Controller is the decoded cartridge type byte.
type Controller struct {
	Type    Type
	RAM     bool
	Battery bool
	Timer   bool
	Rumble  bool
}

func (c Controller) String() string {
	s := c.Type.String()
	for _, f := range []struct {
		on   bool
		name string
	}{{c.Timer, "TIMER"}, {c.Rumble, "RUMBLE"}, {c.RAM, "RAM"}, {c.Battery, "BATTERY"}} {
		if f.on {
			s += "+" + f.name
		}
	}
	return s
}

// UnsupportedControllerError reports a cartridge type byte the emulator
// has no controller for.
type UnsupportedControllerError struct {
	Code byte
}

func (e *UnsupportedControllerError) Error() string {
	return fmt.Sprintf("cart: unsupported cartridge type %#02x (%s)", e.Code, cartTypeString(e.Code))
}

// ControllerOf decodes the cartridge type byte at 0x0147.
func ControllerOf(rom []byte) (Controller, error) {
	switch code := rom[addrCartType]; code {
	case 0x00:
		return Controller{Type: TypeROMOnly}, nil
	case 0x08:
		return Controller{Type: TypeROMOnly, RAM: true}, nil
	case 0x09:
		return Controller{Type: TypeROMOnly, RAM: true, Battery: true}, nil
	case 0x01:
		return Controller{Type: TypeMBC1}, nil
	case 0x02:
		return Controller{Type: TypeMBC1, RAM: true}, nil
	case 0x03:
		return Controller{Type: TypeMBC1, RAM: true, Battery: true}, nil
	case 0x0F:
		return Controller{Type: TypeMBC3, Timer: true, Battery: true}, nil
	case 0x10:
		return Controller{Type: TypeMBC3, Timer: true, RAM: true, Battery: true}, nil
	case 0x11:
		return Controller{Type: TypeMBC3}, nil
	case 0x12:
		return Controller{Type: TypeMBC3, RAM: true}, nil
	case 0x13:
		return Controller{Type: TypeMBC3, RAM: true, Battery: true}, nil
	case 0x19:
		return Controller{Type: TypeMBC5}, nil
	case 0x1A:
		return Controller{Type: TypeMBC5, RAM: true}, nil
	case 0x1B:
		return Controller{Type: TypeMBC5, RAM: true, Battery: true}, nil
	case 0x1C:
		return Controller{Type: TypeMBC5, Rumble: true}, nil
	case 0x1D:
		return Controller{Type: TypeMBC5, Rumble: true, RAM: true}, nil
	case 0x1E:
		return Controller{Type: TypeMBC5, Rumble: true, RAM: true, Battery: true}, nil
	default:
		return Controller{}, &UnsupportedControllerError{Code: code}
	}
}

// bankController is the closed set of banking strategies: *ROMOnly,
// *MBC1, *MBC3 and *MBC5. Addresses are CPU addresses. ROM reads never
// fail and return 0xFF past the end of the image; RAM accesses are gated
// by the controller's enable flag.
type bankController interface {
	ReadROM(addr uint16) byte
	WriteROM(addr uint16, value byte)
	ReadRAM(addr uint16) byte
	WriteRAM(addr uint16, value byte)

	ram() []byte
	kind() Type
}

// Cartridge is a loaded ROM image with its header and controller.
type Cartridge struct {
	header *Header
	mbc    bankController
}

// New parses the header and picks the controller it names.
func New(rom []byte) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	ramSize := 0
	if h.Controller.RAM {
		ramSize = h.RAMSizeBytes
	}
	c := &Cartridge{header: h}
	switch h.Controller.Type {
	case TypeROMOnly:
		c.mbc = NewROMOnly(rom, ramSize)
	case TypeMBC1:
		c.mbc = NewMBC1(rom, ramSize)
	case TypeMBC3:
		m := NewMBC3(rom, ramSize)
		if h.Controller.Timer {
			m.clock = rtc.New()
		}
		c.mbc = m
	case TypeMBC5:
		c.mbc = NewMBC5(rom, ramSize, h.Controller.Rumble)
	}
	return c, nil
}

// Header returns the parsed header.
func (c *Cartridge) Header() *Header { return c.header }

// Type returns the controller family.
func (c *Cartridge) Type() Type { return c.mbc.kind() }

// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
func (c *Cartridge) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return c.mbc.ReadROM(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return c.mbc.ReadRAM(addr)
	}
	return 0xFF
}

// Write handles MBC control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
func (c *Cartridge) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		c.mbc.WriteROM(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		c.mbc.WriteRAM(addr, value)
	}
}

// RTC returns the cartridge clock, or nil for carts without one.
func (c *Cartridge) RTC() *rtc.RTC {
	if m, ok := c.mbc.(*MBC3); ok {
		return m.clock
	}
	return nil
}

// HasBattery reports whether the cart keeps RAM or a clock across power-off.
func (c *Cartridge) HasBattery() bool { return c.header.Controller.Battery }

// rtcRecordSize is the clock record appended to battery saves:
// a little-endian u64 Unix timestamp followed by the five registers.
const rtcRecordSize = 8 + rtc.NumRegisters

// SaveRAM returns the battery-backed state: a copy of external RAM
// followed, for carts with a clock, by the clock record.
func (c *Cartridge) SaveRAM() []byte {
	ram := c.mbc.ram()
	out := make([]byte, len(ram), len(ram)+rtcRecordSize)
	copy(out, ram)
	if clock := c.RTC(); clock != nil {
		ts, regs := clock.Snapshot()
		out = binary.LittleEndian.AppendUint64(out, ts)
		out = append(out, regs[:]...)
	}
	return out
}

// LoadRAM restores what SaveRAM produced. A missing clock record leaves
// the clock fresh; a record with a future timestamp is rejected and leaves
// RAM untouched.
func (c *Cartridge) LoadRAM(data []byte) error {
	ram := c.mbc.ram()
	rest := data[min(len(ram), len(data)):]
	if clock := c.RTC(); clock != nil && len(rest) >= rtcRecordSize {
		var regs rtc.Registers
		copy(regs[:], rest[8:rtcRecordSize])
		restored, err := rtc.Restore(binary.LittleEndian.Uint64(rest[:8]), regs)
		if err != nil {
			return fmt.Errorf("cart: load clock: %w", err)
		}
		c.mbc.(*MBC3).clock = restored
	}
	copy(ram, data)
	return nil
}

// romOffset returns the offset of a 16KiB ROM bank, wrapping bank numbers
// past the end of the image the way the unconnected address lines do.
func romOffset(rom []byte, bank int, addr uint16) int {
	banks := len(rom) / 0x4000
	if banks == 0 {
		banks = 1
	}
	return (bank%banks)*0x4000 + int(addr&0x3FFF)
}

func readROM(rom []byte, off int) byte {
	if off >= 0 && off < len(rom) {
		return rom[off]
	}
	return 0xFF
}

// ramOffset returns the offset of addr inside an 8KiB RAM bank, or -1.
func ramOffset(ram []byte, bank int, addr uint16) int {
	off := bank*0x2000 + int(addr-0xA000)
	if off < 0 || off >= len(ram) {
		return -1
	}
	return off
}
