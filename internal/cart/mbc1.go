package cart

// MBC1 implements MBC1 ROM/RAM banking: up to 2MB ROM and 32KB RAM.
//
//   - 0000-1FFF: RAM enable (0x0A in low nibble)
//   - 2000-3FFF: ROM bank low 5 bits (0 maps to 1)
//   - 4000-5FFF: 2-bit register, RAM bank or ROM bank bits 5-6
//   - 6000-7FFF: banking mode (0 simple, 1 advanced)
//
// In simple mode the 2-bit register only extends the switchable ROM bank.
// In advanced mode it also selects the RAM bank and the bank mapped at
// 0000-3FFF, which is how 1MB+ carts reach banks 0x20/0x40/0x60.
type MBC1 struct {
	rom  []byte
	sram []byte

	romBank    byte // lower 5 bits, never 0
	ramBank    byte // 2 bits
	ramEnabled bool
	advanced   bool
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.sram = make([]byte, ramSize)
	}
	return m
}

// ROMBank returns the bank mapped at 4000-7FFF.
func (m *MBC1) ROMBank() int {
	return int(m.ramBank&0x03)<<5 | int(m.romBank)
}

// lowBank returns the bank mapped at 0000-3FFF.
func (m *MBC1) lowBank() int {
	if !m.advanced {
		return 0
	}
	return int(m.ramBank&0x03) << 5
}

func (m *MBC1) activeRAMBank() int {
	if !m.advanced {
		return 0
	}
	return int(m.ramBank & 0x03)
}

func (m *MBC1) ReadROM(addr uint16) byte {
	if addr < 0x4000 {
		return readROM(m.rom, romOffset(m.rom, m.lowBank(), addr))
	}
	return readROM(m.rom, romOffset(m.rom, m.ROMBank(), addr))
}

func (m *MBC1) WriteROM(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		m.romBank = value & 0x1F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr < 0x6000:
		m.ramBank = value & 0x03
	case addr < 0x8000:
		m.advanced = value&0x01 != 0
	}
}

func (m *MBC1) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	if off := ramOffset(m.sram, m.activeRAMBank(), addr); off >= 0 {
		return m.sram[off]
	}
	return 0xFF
}

func (m *MBC1) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	if off := ramOffset(m.sram, m.activeRAMBank(), addr); off >= 0 {
		m.sram[off] = value
	}
}

func (m *MBC1) ram() []byte { return m.sram }
func (m *MBC1) kind() Type  { return TypeMBC1 }
