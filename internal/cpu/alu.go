package cpu

// 8-bit ALU helpers. Each returns the result and the Z/N/H/C flags the
// operation produces; callers decide which of them reach F.

func add8(a, b, carryIn byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b) + uint16(carryIn)
	res = byte(r)
	z = res == 0
	h = (a&0x0F)+(b&0x0F)+carryIn > 0x0F
	cy = r > 0xFF
	return
}

func sub8(a, b, carryIn byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b) - int16(carryIn)
	res = byte(r)
	z = res == 0
	n = true
	h = int16(a&0x0F)-int16(b&0x0F)-int16(carryIn) < 0
	cy = r < 0
	return
}

func and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	return res, res == 0, false, true, false
}

func xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	return res, res == 0, false, false, false
}

func or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	return res, res == 0, false, false, false
}

func inc8(v byte) (res byte, h bool) {
	return v + 1, v&0x0F == 0x0F
}

func dec8(v byte) (res byte, h bool) {
	return v - 1, v&0x0F == 0x00
}

// addHL adds two 16-bit values the way ADD HL,rr does: H from bit 11,
// C from bit 15.
func addHL(a, b uint16) (res uint16, h, cy bool) {
	r := uint32(a) + uint32(b)
	return uint16(r), (a&0x0FFF)+(b&0x0FFF) > 0x0FFF, r > 0xFFFF
}

// addSP adds a signed offset to SP. H and C come from the unsigned add of
// the low byte, as for ADD SP,s8 and LD HL,SP+s8.
func addSP(sp uint16, off int8) (res uint16, h, cy bool) {
	low := byte(sp)
	_, _, _, h, cy = add8(low, byte(off), 0)
	return uint16(int32(sp) + int32(off)), h, cy
}

// daa adjusts A to packed BCD after an addition or subtraction.
func daa(a byte, n, h, cy bool) (res byte, carry bool) {
	if !n {
		if cy || a > 0x99 {
			a += 0x60
			cy = true
		}
		if h || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if cy {
			a -= 0x60
		}
		if h {
			a -= 0x06
		}
	}
	return a, cy
}

// Shift and rotate helpers return the result and the bit shifted out.

func rlc(v, _ byte) (byte, bool) { return v<<1 | v>>7, v&0x80 != 0 }
func rrc(v, _ byte) (byte, bool) { return v>>1 | v<<7, v&0x01 != 0 }
func rl(v, c byte) (byte, bool)  { return v<<1 | c, v&0x80 != 0 }
func rr(v, c byte) (byte, bool)  { return v>>1 | c<<7, v&0x01 != 0 }
func sla(v, _ byte) (byte, bool) { return v << 1, v&0x80 != 0 }
func sra(v, _ byte) (byte, bool) { return v>>1 | v&0x80, v&0x01 != 0 }
func srl(v, _ byte) (byte, bool) { return v >> 1, v&0x01 != 0 }
func swap(v, _ byte) (byte, bool) {
	return v<<4 | v>>4, false
}
