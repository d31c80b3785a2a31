package cart

// MBC5 supports up to 8MB ROM and 128KB RAM. Unlike MBC1/MBC3, bank 0 can
// be mapped at 4000-7FFF.
// - 0000-1FFF: RAM enable
// - 2000-2FFF: ROM bank low 8 bits
// - 3000-3FFF: ROM bank bit 8
// - 4000-5FFF: RAM bank (0..15); on rumble carts bit 3 drives the motor
type MBC5 struct {
	rom  []byte
	sram []byte

	romBank    uint16 // 9 bits (0..511)
	ramBank    byte   // 0..15
	ramEnabled bool

	rumble      bool
	motorActive bool
}

func NewMBC5(rom []byte, ramSize int, rumble bool) *MBC5 {
	m := &MBC5{rom: rom, romBank: 1, rumble: rumble}
	if ramSize > 0 {
		m.sram = make([]byte, ramSize)
	}
	return m
}

// ROMBank returns the bank mapped at 4000-7FFF.
func (m *MBC5) ROMBank() int { return int(m.romBank) }

// Motor reports whether a rumble cart is currently driving its motor.
func (m *MBC5) Motor() bool { return m.motorActive }

func (m *MBC5) ReadROM(addr uint16) byte {
	if addr < 0x4000 {
		return readROM(m.rom, int(addr))
	}
	return readROM(m.rom, romOffset(m.rom, int(m.romBank), addr))
}

func (m *MBC5) WriteROM(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = m.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		m.romBank = m.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		if m.rumble {
			m.motorActive = value&0x08 != 0
			m.ramBank = value & 0x07
		} else {
			m.ramBank = value & 0x0F
		}
	}
}

func (m *MBC5) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	if off := ramOffset(m.sram, int(m.ramBank), addr); off >= 0 {
		return m.sram[off]
	}
	return 0xFF
}

func (m *MBC5) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	if off := ramOffset(m.sram, int(m.ramBank), addr); off >= 0 {
		m.sram[off] = value
	}
}

func (m *MBC5) ram() []byte { return m.sram }
func (m *MBC5) kind() Type  { return TypeMBC5 }
