package cart

import "testing"

func TestNew_PicksController(t *testing.T) {
	cases := []struct {
		code byte
		ram  byte
		want Type
	}{
		{0x00, 0x00, TypeROMOnly},
		{0x09, 0x02, TypeROMOnly},
		{0x01, 0x00, TypeMBC1},
		{0x0F, 0x00, TypeMBC3},
		{0x13, 0x03, TypeMBC3},
		{0x1E, 0x03, TypeMBC5},
	}
	for _, c := range cases {
		cart, err := New(buildROM("T", c.code, 0x01, c.ram, 64*1024))
		if err != nil {
			t.Fatalf("code %#02x: %v", c.code, err)
		}
		if cart.Type() != c.want {
			t.Fatalf("code %#02x: got %v want %v", c.code, cart.Type(), c.want)
		}
		if hasClock := cart.RTC() != nil; hasClock != (c.code == 0x0F) {
			t.Fatalf("code %#02x: clock present = %v", c.code, hasClock)
		}
	}
}

func TestCartridge_Routing(t *testing.T) {
	rom := buildROM("ROUTE", 0x09, 0x00, 0x02, 32*1024)
	rom[0x7FFF] = 0xEE
	c, err := New(rom)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Read(0x7FFF); got != 0xEE {
		t.Fatalf("ROM read got %02X", got)
	}
	c.Write(0x1234, 0x55) // no bank registers, no effect
	if got := c.Read(0x1234); got != 0x00 {
		t.Fatalf("ROM changed by write: %02X", got)
	}
	c.Write(0xA000, 0x12)
	if got := c.Read(0xA000); got != 0x12 {
		t.Fatalf("RAM read got %02X", got)
	}
	if got := c.Read(0xC000); got != 0xFF {
		t.Fatalf("non-cart address got %02X", got)
	}
	if !c.HasBattery() {
		t.Fatalf("0x09 should report a battery")
	}
	if got := c.SaveRAM(); len(got) != 8*1024 || got[0] != 0x12 {
		t.Fatalf("SaveRAM got %d bytes, first %02X", len(got), got[0])
	}
}

func TestCartridge_RAMWithoutRAMFlag(t *testing.T) {
	// Header advertises RAM but the type byte says none.
	c, err := New(buildROM("T", 0x01, 0x01, 0x03, 64*1024))
	if err != nil {
		t.Fatal(err)
	}
	c.Write(0x0000, 0x0A)
	c.Write(0xA000, 0x12)
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM present on plain MBC1: %02X", got)
	}
}
