package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/shell"
	"github.com/FabianRolfMatthiasNoll/gbstep/internal/statsview"
)

type CLIFlags struct {
	ROMPath   string
	Trace     bool
	SaveRAM   bool // persist battery RAM next to ROM (.sav)
	Tick      int  // auto-advance period in ms
	StatsView bool
	StatsAddr string
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")
	flag.IntVar(&f.Tick, "tick", 16, "auto-advance period in milliseconds for the run command")
	flag.BoolVar(&f.StatsView, "statsview", false, "serve runtime statistics (needs -tags statsview)")
	flag.StringVar(&f.StatsAddr, "statsaddr", statsview.Address, "statsview listen address")
	flag.Parse()
	return f
}

func savPath(rom string) string {
	return strings.TrimSuffix(rom, ".gb") + ".sav"
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("-rom is required")
	}

	cfg := emu.Defaults()
	cfg.Trace = f.Trace
	cfg.Serial = os.Stdout
	m := emu.New(cfg)
	if err := m.LoadROMFromFile(f.ROMPath); err != nil {
		log.Fatalf("load cart: %v", err)
	}
	h := m.Cartridge().Header()
	log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.Controller, h.ROMBanks, h.RAMSizeBytes)

	// Battery RAM: load .sav if present
	sav := savPath(f.ROMPath)
	if f.SaveRAM {
		if data, err := os.ReadFile(sav); err == nil {
			if err := m.LoadBattery(data); err != nil {
				log.Printf("ignoring %s: %v", sav, err)
			} else {
				log.Printf("loaded save RAM: %s (%d bytes)", sav, len(data))
			}
		}
	}

	if f.StatsView {
		stop := statsview.Launch(os.Stderr, f.StatsAddr)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	scfg := shell.Defaults()
	scfg.Tick = time.Duration(f.Tick) * time.Millisecond
	if err := shell.New(m, scfg).Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("shell: %v", err)
	}

	if f.SaveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(sav, data, 0644); err != nil {
				log.Printf("write %s: %v", sav, err)
			} else {
				log.Printf("wrote %s", sav)
			}
		}
	}
}
