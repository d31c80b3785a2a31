package shell

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

const helpText = `commands:
  step [n]         execute n instructions (default 1)
  regs             show registers
  run [ms]         auto-advance one frame every ms milliseconds
  stop             stop auto-advance
  mem addr [n]     dump n bytes (default 16)
  dis [addr] [n]   disassemble n instructions (default PC, 10)
  header           show cartridge header
  quit             leave`

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "q", "exit":
		return true
	}
	return false
}

// exec runs one command. Only errQuit is returned; command failures are
// printed.
func (s *Session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	if isQuit(fields[0]) {
		return errQuit
	}
	var err error
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "step", "s":
		err = s.cmdStep(args)
	case "regs", "r":
		s.cmdRegs()
	case "run":
		err = s.cmdRun(args)
	case "stop":
		s.stopAuto()
	case "mem", "m":
		err = s.cmdMem(args)
	case "dis", "d":
		err = s.cmdDis(args)
	case "header":
		s.cmdHeader()
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return nil
}

func (s *Session) cmdStep(args []string) error {
	n, err := optCount(args, 0, 1)
	if err != nil {
		return err
	}
	bus := s.m.Bus()
	for i := 0; i < n; i++ {
		before := s.m.Steps()
		op, decErr := isa.Decode(bus, int(s.m.CPU().PC))
		if err := s.m.Step(); err != nil {
			return err
		}
		// idle and interrupt steps execute nothing
		if decErr == nil && s.m.Steps() != before {
			s.printOp(op)
		}
	}
	return nil
}

func (s *Session) cmdRegs() {
	c := s.m.CPU()
	fmt.Fprintf(s.out, "%v\nflags=%s IME=%t halted=%t cycles=%d\n",
		c.Registers, c.FlagString(), c.IME, c.Halted(), s.m.Cycles())
}

func (s *Session) cmdRun(args []string) error {
	every := s.cfg.Tick
	if len(args) > 0 {
		ms, err := strconv.Atoi(args[0])
		if err != nil || ms <= 0 {
			return fmt.Errorf("bad period %q", args[0])
		}
		every = time.Duration(ms) * time.Millisecond
	}
	s.startAuto(every)
	return nil
}

func (s *Session) cmdMem(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("mem needs an address")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := optCount(args, 1, 16)
	if err != nil {
		return err
	}
	bus := s.m.Bus()
	for row := 0; row < n; row += 16 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04X:", uint16(int(addr)+row))
		for i := row; i < n && i < row+16; i++ {
			fmt.Fprintf(&sb, " %02X", bus.Read(uint16(int(addr)+i)))
		}
		fmt.Fprintln(s.out, sb.String())
	}
	return nil
}

func (s *Session) cmdDis(args []string) error {
	addr := s.m.CPU().PC
	if len(args) > 0 {
		a, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		addr = a
	}
	n, err := optCount(args, 1, 10)
	if err != nil {
		return err
	}
	ops, err := isa.Disassemble(s.m.Bus(), int(addr), n)
	for _, op := range ops {
		s.printOp(op)
	}
	return err
}

func (s *Session) cmdHeader() {
	h := s.m.Cartridge().Header()
	fmt.Fprintf(s.out, "title=%q mode=%v type=%v rom=%dKiB/%d banks ram=%dB licensee=%#04x version=%d logo=%v\n",
		h.Title, h.Mode, h.Controller, h.ROMSizeBytes/1024, h.ROMBanks, h.RAMSizeBytes,
		h.LicenseeID, h.ROMVersion, h.LogoOK)
}

func (s *Session) printOp(op isa.Operation) {
	var raw strings.Builder
	for _, b := range op.Bytes() {
		fmt.Fprintf(&raw, "%02X ", b)
	}
	fmt.Fprintf(s.out, "%04X  %-9s %s\n", op.Address, raw.String(), op)
}

// parseAddr reads a hex address with an optional $ or 0x prefix.
func parseAddr(s string) (uint16, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "$"), "0x")
	v, err := strconv.ParseUint(t, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return uint16(v), nil
}

func optCount(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad count %q", args[i])
	}
	return n, nil
}
