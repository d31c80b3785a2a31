package cart

// ROMOnly implements a cartridge without banking. Types 0x08/0x09 add up
// to 8KiB of RAM mapped directly at 0xA000.
type ROMOnly struct {
	rom  []byte
	sram []byte
}

func NewROMOnly(rom []byte, ramSize int) *ROMOnly {
	c := &ROMOnly{rom: rom}
	if ramSize > 0 {
		c.sram = make([]byte, ramSize)
	}
	return c
}

func (c *ROMOnly) ReadROM(addr uint16) byte { return readROM(c.rom, int(addr)) }

// WriteROM ignores the write: there are no bank registers.
func (c *ROMOnly) WriteROM(addr uint16, value byte) {}

func (c *ROMOnly) ReadRAM(addr uint16) byte {
	if off := ramOffset(c.sram, 0, addr); off >= 0 {
		return c.sram[off]
	}
	return 0xFF
}

func (c *ROMOnly) WriteRAM(addr uint16, value byte) {
	if off := ramOffset(c.sram, 0, addr); off >= 0 {
		c.sram[off] = value
	}
}

func (c *ROMOnly) ram() []byte { return c.sram }
func (c *ROMOnly) kind() Type  { return TypeROMOnly }
