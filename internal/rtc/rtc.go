// Package rtc models the MBC3 real-time clock.
//
// The clock does not tick in the background. It remembers the instant it
// was last brought up to date and catches up lazily: every register access
// first folds the wall-clock time elapsed since then into the registers.
package rtc

import (
	"errors"
	"fmt"
	"time"
)

// Register indices, in the order the cartridge selects them with
// values $08..$0C.
const (
	Seconds = iota
	Minutes
	Hours
	DaysLow
	DaysHigh

	NumRegisters
)

// Bits of the DaysHigh register.
const (
	DayBit8  byte = 0x01
	HaltBit  byte = 0x40
	CarryBit byte = 0x80

	daysHighMask = DayBit8 | HaltBit | CarryBit
)

// Registers holds the five clock registers:
// seconds, minutes, hours, days low, days high.
type Registers [NumRegisters]byte

// Days returns the 9-bit day counter.
func (r Registers) Days() uint16 {
	return uint16(r[DaysHigh]&DayBit8)<<8 | uint16(r[DaysLow])
}

func (r *Registers) setDays(d uint16) {
	r[DaysLow] = byte(d)
	r[DaysHigh] = r[DaysHigh]&^DayBit8 | byte(d>>8)&DayBit8
}

func (r Registers) Halted() bool { return r[DaysHigh]&HaltBit != 0 }
func (r Registers) Carry() bool  { return r[DaysHigh]&CarryBit != 0 }

func (r Registers) String() string {
	s := fmt.Sprintf("day %03d %02d:%02d:%02d", r.Days(), r[Hours], r[Minutes], r[Seconds])
	if r.Halted() {
		s += " halted"
	}
	if r.Carry() {
		s += " carry"
	}
	return s
}

// ErrTimestampInFuture is returned by Restore when the saved timestamp is
// later than the current time.
var ErrTimestampInFuture = errors.New("rtc: saved timestamp is in the future")

var now = time.Now

// RTC is the clock. The zero value is not usable; call New or Restore.
type RTC struct {
	live    Registers
	latched Registers

	isLatched bool
	lastLatch byte

	// mark is when live was last brought up to date. It is zero while the
	// clock is halted.
	mark time.Time
}

// New returns a running clock at day 0, 00:00:00.
func New() *RTC {
	return &RTC{lastLatch: 0xFF, mark: now()}
}

// Restore rebuilds a clock from its persisted form and fast-forwards it by
// the time elapsed since lastUnix.
func Restore(lastUnix uint64, regs Registers) (*RTC, error) {
	t := now()
	if lastUnix > uint64(t.Unix()) {
		return nil, fmt.Errorf("%w: saved %d, now %d", ErrTimestampInFuture, lastUnix, t.Unix())
	}
	r := &RTC{live: regs, lastLatch: 0xFF}
	r.live[DaysHigh] &= daysHighMask
	if !r.live.Halted() {
		r.UpdateFromElapsed(uint64(t.Unix()) - lastUnix)
		r.mark = t
	}
	return r, nil
}

// Snapshot brings the clock up to date and returns its persisted form:
// the current Unix time and the live registers.
func (r *RTC) Snapshot() (uint64, Registers) {
	r.Refresh()
	return uint64(now().Unix()), r.live
}

// UpdateFromElapsed advances the live registers by secs seconds, carrying
// into minutes, hours and days. Overflowing day 511 sets the sticky carry.
func (r *RTC) UpdateFromElapsed(secs uint64) {
	if secs == 0 {
		return
	}
	total := uint64(r.live[Seconds]) + secs
	r.live[Seconds] = byte(total % 60)
	total = uint64(r.live[Minutes]) + total/60
	r.live[Minutes] = byte(total % 60)
	total = uint64(r.live[Hours]) + total/60
	r.live[Hours] = byte(total % 24)
	days := uint64(r.live.Days()) + total/24
	if days > 511 {
		r.live[DaysHigh] |= CarryBit
		days %= 512
	}
	r.live.setDays(uint16(days))
}

// Refresh folds elapsed wall-clock time into the live registers. Whole
// seconds are consumed; the fraction carries over to the next refresh.
func (r *RTC) Refresh() {
	if r.mark.IsZero() {
		return
	}
	elapsed := now().Sub(r.mark)
	if elapsed < time.Second {
		return
	}
	secs := uint64(elapsed / time.Second)
	r.UpdateFromElapsed(secs)
	r.mark = r.mark.Add(time.Duration(secs) * time.Second)
}

// Read returns a register. While latched it returns the value captured at
// latch time.
func (r *RTC) Read(reg int) byte {
	if reg < 0 || reg >= NumRegisters {
		return 0xFF
	}
	if r.isLatched {
		return r.latched[reg]
	}
	r.Refresh()
	return r.live[reg]
}

// Write sets a register. Writing the halt bit stops or restarts the clock.
func (r *RTC) Write(reg int, v byte) {
	if reg < 0 || reg >= NumRegisters {
		return
	}
	r.Refresh()
	switch reg {
	case Seconds, Minutes:
		r.live[reg] = v & 0x3F
	case Hours:
		r.live[reg] = v & 0x1F
	case DaysLow:
		r.live[reg] = v
	case DaysHigh:
		wasHalted := r.live.Halted()
		r.live[reg] = v & daysHighMask
		switch halted := r.live.Halted(); {
		case halted && !wasHalted:
			r.mark = time.Time{}
		case !halted && wasHalted:
			r.mark = now()
		}
	}
	if reg == Seconds && !r.mark.IsZero() {
		// writing seconds resets the sub-second divider
		r.mark = now()
	}
}

// LatchWrite handles a write to the latch register. Writing 0 then 1
// toggles between latched and live reads.
func (r *RTC) LatchWrite(v byte) {
	if r.lastLatch == 0x00 && v == 0x01 {
		if r.isLatched {
			r.isLatched = false
		} else {
			r.Refresh()
			r.latched = r.live
			r.isLatched = true
		}
	}
	r.lastLatch = v
}

// Latched reports whether reads return the latched copy.
func (r *RTC) Latched() bool { return r.isLatched }

// Halted reports whether the clock is stopped.
func (r *RTC) Halted() bool { return r.live.Halted() }

// Live brings the clock up to date and returns the running registers,
// regardless of latch state.
func (r *RTC) Live() Registers {
	r.Refresh()
	return r.live
}
