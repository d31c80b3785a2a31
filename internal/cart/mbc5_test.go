package cart

import "testing"

func TestMBC5_ROMBanking(t *testing.T) {
	rom := make([]byte, 8*1024*1024) // 512 banks
	for bank := 0; bank < 512; bank++ {
		rom[bank*0x4000] = byte(bank)
		rom[bank*0x4000+1] = byte(bank >> 8)
	}
	m := NewMBC5(rom, 0, false)

	if got := m.ReadROM(0x4000); got != 1 {
		t.Fatalf("default bank got %02X want 01", got)
	}
	m.WriteROM(0x2000, 0x00)
	if got := m.ReadROM(0x4000); got != 0 || m.ROMBank() != 0 {
		t.Fatalf("bank 0 not mapped: got %02X", got)
	}
	m.WriteROM(0x2000, 0x34)
	m.WriteROM(0x3000, 0x01)
	if m.ROMBank() != 0x134 {
		t.Fatalf("ROMBank got %#x want 0x134", m.ROMBank())
	}
	if lo, hi := m.ReadROM(0x4000), m.ReadROM(0x4001); lo != 0x34 || hi != 0x01 {
		t.Fatalf("bank 0x134 got %02X%02X", hi, lo)
	}
	m.WriteROM(0x3000, 0x00)
	if m.ROMBank() != 0x34 {
		t.Fatalf("clearing bit 8 got %#x", m.ROMBank())
	}
}

func TestMBC5_RAMBanks(t *testing.T) {
	m := NewMBC5(make([]byte, 0x8000), 128*1024, false)
	m.WriteROM(0x0000, 0x0A)
	m.WriteROM(0x4000, 0x0F)
	m.WriteRAM(0xBFFF, 0xAB)
	if m.sram[len(m.sram)-1] != 0xAB {
		t.Fatalf("bank 15 write missed the last RAM byte")
	}
	m.WriteROM(0x4000, 0x00)
	if got := m.ReadRAM(0xBFFF); got != 0x00 {
		t.Fatalf("bank 0 read got %02X", got)
	}
}

func TestMBC5_Rumble(t *testing.T) {
	m := NewMBC5(make([]byte, 0x8000), 32*1024, true)
	m.WriteROM(0x0000, 0x0A)
	m.WriteROM(0x4000, 0x09)
	if !m.Motor() {
		t.Fatalf("motor bit ignored")
	}
	m.WriteRAM(0xA000, 0x42)
	if m.sram[0x2000] != 0x42 {
		t.Fatalf("rumble cart selected wrong RAM bank")
	}
	m.WriteROM(0x4000, 0x01)
	if m.Motor() {
		t.Fatalf("motor still on")
	}
}
