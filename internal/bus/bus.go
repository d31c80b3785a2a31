// Package bus routes CPU addresses to the cartridge and the console's
// internal memories.
package bus

import "io"

// Cartridge is the slice of the cartridge the bus needs: ROM at
// 0000-7FFF (including bank register writes) and external RAM at A000-BFFF.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

const (
	addrSB = 0xFF01
	addrSC = 0xFF02
	addrIF = 0xFF0F
	addrIE = 0xFFFF

	// SerialIRQ is the IF bit raised when a serial transfer completes.
	SerialIRQ = 1 << 3
)

// Bus is the 64KiB DMG address space.
type Bus struct {
	cart Cartridge

	vram [0x2000]byte // 8000-9FFF
	wram [0x2000]byte // C000-DFFF, echoed at E000-FDFF
	oam  [0xA0]byte   // FE00-FE9F
	io   [0x80]byte   // FF00-FF7F
	hram [0x7F]byte   // FF80-FFFE
	ie   byte

	serial io.Writer
}

func New(cart Cartridge) *Bus {
	return &Bus{cart: cart}
}

// SetSerialWriter sets where bytes shifted out of the serial port go.
// A nil writer discards them.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serial = w }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return b.cart.Read(addr)
	case addr < 0xA000:
		return b.vram[addr-0x8000]
	case addr < 0xC000:
		return b.cart.Read(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0xE000]
	case addr < 0xFEA0:
		return b.oam[addr-0xFE00]
	case addr < 0xFF00:
		return 0xFF // unusable
	case addr == addrIF:
		return 0xE0 | b.io[addr-0xFF00]
	case addr < 0xFF80:
		return b.io[addr-0xFF00]
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default:
		return b.ie
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr < 0xA000:
		b.vram[addr-0x8000] = value
	case addr < 0xC000:
		b.cart.Write(addr, value)
	case addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value
	case addr < 0xFEA0:
		b.oam[addr-0xFE00] = value
	case addr < 0xFF00:
	case addr == addrIF:
		b.io[addr-0xFF00] = value & 0x1F
	case addr == addrSC:
		b.io[addr-0xFF00] = value
		if value&0x81 == 0x81 {
			b.transfer()
		}
	case addr < 0xFF80:
		b.io[addr-0xFF00] = value
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value
	default:
		b.ie = value
	}
}

// transfer completes a serial transfer at once: with no link partner the
// byte goes to the writer and 0xFF shifts in.
func (b *Bus) transfer() {
	if b.serial != nil {
		b.serial.Write([]byte{b.io[addrSB-0xFF00]})
	}
	b.io[addrSB-0xFF00] = 0xFF
	b.io[addrSC-0xFF00] &^= 0x80
	b.RequestInterrupt(SerialIRQ)
}

// RequestInterrupt sets bits in IF.
func (b *Bus) RequestInterrupt(mask byte) {
	b.io[addrIF-0xFF00] |= mask & 0x1F
}

func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr)) | uint16(b.Read(addr+1))<<8
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, byte(v))
	b.Write(addr+1, byte(v>>8))
}

// Len and At expose the address space as a flat byte source for the
// decoder. Reads through At go through the same routing as the CPU.
func (b *Bus) Len() int { return 0x10000 }

func (b *Bus) At(i int) byte { return b.Read(uint16(i)) }
