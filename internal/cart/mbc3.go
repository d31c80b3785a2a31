package cart

import "github.com/FabianRolfMatthiasNoll/gbstep/internal/rtc"

// MBC3 implements ROM/RAM banking and, for timer carts, the real-time clock.
// Banking behavior:
// - 0000-1FFF: RAM and RTC enable (0x0A in low nibble)
// - 2000-3FFF: ROM bank low 7 bits (0 maps to 1)
// - 4000-5FFF: RAM bank (0-3) or RTC register select (08-0C)
// - 6000-7FFF: latch clock (write 0 then 1)
// - A000-BFFF: external RAM or the selected RTC register
type MBC3 struct {
	rom  []byte
	sram []byte

	romBank       byte // 7 bits (1..127)
	ramRTCEnabled bool
	// rtcMode selects an RTC register instead of a RAM bank; index holds
	// the RAM bank (0..3) or the RTC register (0..4).
	rtcMode bool
	index   byte

	clock *rtc.RTC
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.sram = make([]byte, ramSize)
	}
	return m
}

// ROMBank returns the bank mapped at 4000-7FFF.
func (m *MBC3) ROMBank() int { return int(m.romBank) }

func (m *MBC3) ReadROM(addr uint16) byte {
	if addr < 0x4000 {
		return readROM(m.rom, int(addr))
	}
	return readROM(m.rom, romOffset(m.rom, int(m.romBank), addr))
}

func (m *MBC3) WriteROM(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramRTCEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		switch {
		case value <= 0x03:
			m.rtcMode, m.index = false, value
		case value >= 0x08 && value <= 0x0C:
			m.rtcMode, m.index = true, value-0x08
		}
	case addr < 0x8000:
		if m.clock != nil {
			m.clock.LatchWrite(value)
		}
	}
}

func (m *MBC3) ReadRAM(addr uint16) byte {
	if !m.ramRTCEnabled {
		return 0xFF
	}
	if m.rtcMode {
		if m.clock == nil {
			return 0xFF
		}
		return m.clock.Read(int(m.index))
	}
	if off := ramOffset(m.sram, int(m.index), addr); off >= 0 {
		return m.sram[off]
	}
	return 0xFF
}

func (m *MBC3) WriteRAM(addr uint16, value byte) {
	if !m.ramRTCEnabled {
		return
	}
	if m.rtcMode {
		if m.clock != nil {
			m.clock.Write(int(m.index), value)
		}
		return
	}
	if off := ramOffset(m.sram, int(m.index), addr); off >= 0 {
		m.sram[off] = value
	}
}

func (m *MBC3) ram() []byte { return m.sram }
func (m *MBC3) kind() Type  { return TypeMBC3 }
