package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/inspect"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/isa"
)

// ring keeps the most recent n entries.
type ring[T any] struct {
	buf  []T
	next int
	fill int
}

func newRing[T any](n int) *ring[T] { return &ring[T]{buf: make([]T, n)} }

func (r *ring[T]) add(v T) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.fill < len(r.buf) {
		r.fill++
	}
}

// items returns the entries in chronological order.
func (r *ring[T]) items() []T {
	out := make([]T, 0, r.fill)
	start := (r.next - r.fill + len(r.buf)) % max(len(r.buf), 1)
	for j := 0; j < r.fill; j++ {
		out = append(out, r.buf[(start+j)%len(r.buf)])
	}
	return out
}

// writerFunc adapts a function to io.Writer
type writerFunc func(p []byte) (n int, err error)

func (f writerFunc) Write(p []byte) (n int, err error) { return f(p) }

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	startPC := flag.Int("pc", 0x0100, "initial PC value")
	trace := flag.Bool("trace", false, "print every executed instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, print a recent trace window")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in 'traceOnFail' dump")
	serialWindow := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}

	// Stream serial to stdout and capture in-memory for pattern detection
	var ser bytes.Buffer
	serRing := newRing[byte](max(*serialWindow, 256))
	w := io.Writer(os.Stdout)
	if *until != "" || *auto {
		w = io.MultiWriter(os.Stdout, &ser, writerFunc(func(p []byte) (int, error) {
			for _, ch := range p {
				serRing.add(ch)
			}
			return len(p), nil
		}))
	}

	cfg := emu.Defaults()
	cfg.Serial = w
	m := emu.New(cfg)
	if err := m.LoadROMFromFile(*romPath); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	m.CPU().SetPC(uint16(*startPC))

	var events *inspect.Receiver
	traceRing := newRing[inspect.Event](0)
	if *trace || *traceOnFail {
		events = m.Inspect()
		if *traceOnFail {
			traceRing = newRing[inspect.Event](*traceWindow)
		}
	}
	drain := func() {
		if events == nil {
			return
		}
		for {
			ev, ok := events.TryRecv()
			if !ok {
				return
			}
			if *trace {
				fmt.Printf("%04X  %s\n", ev.Address, ev.Operation)
			}
			traceRing.add(ev)
		}
	}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	done := func(steps int) {
		fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", steps, m.Cycles(), time.Since(start).Truncate(time.Millisecond))
	}
	// Regex for failure summary: "Failed <n> tests"
	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	// Regex to capture test markers like "11:01"
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	lastStage := ""

	for i := 0; i < *steps; i++ {
		if err := m.Step(); err != nil {
			drain()
			var unknown *isa.UnknownOpcodeError
			if errors.As(err, &unknown) {
				fmt.Printf("\nHit illegal opcode: %v\n", err)
			} else {
				fmt.Printf("\nStep failed: %v\n", err)
			}
			done(i)
			os.Exit(3)
		}
		drain()
		if *auto {
			s := ser.String()
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\n")
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				done(i + 1)
				os.Exit(0)
			}
			if mt := failRe.FindStringSubmatch(s); mt != nil {
				fmt.Printf("\nDetected %s in serial output.\n", mt[0])
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				if recent := traceRing.items(); len(recent) > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(recent))
					for _, ev := range recent {
						fmt.Printf("%04X  %s\n", ev.Address, ev.Operation)
					}
					fmt.Printf("--- end trace ---\n")
				}
				if recent := serRing.items(); len(recent) > 0 {
					fmt.Printf("\n--- recent serial (last %d bytes) ---\n%s\n--- end serial ---\n", len(recent), recent)
				}
				done(i + 1)
				os.Exit(1)
			}
		} else if *until != "" {
			if strings.Contains(strings.ToLower(ser.String()), strings.ToLower(*until)) {
				fmt.Printf("\nDetected '%s' in serial output.\n", *until)
				done(i + 1)
				return
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(i + 1)
			os.Exit(2)
		}
	}
	done(*steps)
}
