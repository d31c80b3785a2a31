// Package shell drives a Machine from line-based commands. User input and
// auto-advance ticks are serialized through one channel, so the machine is
// only ever stepped from the session loop.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/FabianRolfMatthiasNoll/gbstep/internal/emu"
)

// Config controls where a session reads and writes.
type Config struct {
	In     io.Reader
	Out    io.Writer
	Prompt bool          // print a prompt before each command
	Tick   time.Duration // default auto-advance period
}

// Defaults wires the session to the process's terminal. The prompt is
// only shown when stdin is interactive.
func Defaults() Config {
	return Config{
		In:     os.Stdin,
		Out:    os.Stdout,
		Prompt: term.IsTerminal(int(os.Stdin.Fd())),
		Tick:   16 * time.Millisecond,
	}
}

type msgKind int

const (
	msgLine msgKind = iota
	msgTick
	msgEOF
)

type message struct {
	kind msgKind
	line string
	err  error // input failure, with msgEOF
}

// errQuit ends the session loop without reporting an error.
var errQuit = errors.New("quit")

type Session struct {
	m   *emu.Machine
	cfg Config
	out io.Writer

	msgs chan message
	auto *autoRun
}

func New(m *emu.Machine, cfg Config) *Session {
	if cfg.Tick <= 0 {
		cfg.Tick = 16 * time.Millisecond
	}
	return &Session{m: m, cfg: cfg, out: cfg.Out, msgs: make(chan message)}
}

// Run processes commands until quit, end of input or cancellation. Any
// auto-advance loop is stopped and joined before Run returns.
//
// The input reader is not joined: a terminal read cannot be interrupted,
// so on cancellation it is left parked and exits at its next line.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.read(ctx)
	defer s.stopAuto()
	err := s.loop(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// read forwards input lines. It stops after a quit command so it never
// blocks on input nobody will consume.
func (s *Session) read(ctx context.Context) {
	send := func(msg message) bool {
		select {
		case s.msgs <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}
	sc := bufio.NewScanner(s.cfg.In)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !send(message{kind: msgLine, line: line}) || isQuit(line) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		send(message{kind: msgEOF, err: fmt.Errorf("shell: read input: %w", err)})
		return
	}
	send(message{kind: msgEOF})
}

func (s *Session) loop(ctx context.Context) error {
	s.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.msgs:
			switch msg.kind {
			case msgEOF:
				if msg.err != nil {
					return msg.err
				}
				return errQuit
			case msgTick:
				if err := s.m.StepFrame(); err != nil {
					s.stopAuto()
					fmt.Fprintf(s.out, "stopped: %v\n", err)
				}
			case msgLine:
				if err := s.exec(msg.line); err != nil {
					return err
				}
				s.prompt()
			}
		}
	}
}

func (s *Session) prompt() {
	if s.cfg.Prompt {
		fmt.Fprintf(s.out, "gb> ")
	}
}

// autoRun is a ticker goroutine producing msgTick. Closing stop cancels
// it; g joins it.
type autoRun struct {
	stop chan struct{}
	g    errgroup.Group
}

func (s *Session) startAuto(every time.Duration) {
	s.stopAuto()
	a := &autoRun{stop: make(chan struct{})}
	a.g.Go(func() error {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-a.stop:
				return nil
			case <-t.C:
			}
			select {
			case s.msgs <- message{kind: msgTick}:
			case <-a.stop:
				return nil
			}
		}
	})
	s.auto = a
}

// stopAuto cancels the auto-advance loop and waits for it to exit.
func (s *Session) stopAuto() {
	if s.auto == nil {
		return
	}
	close(s.auto.stop)
	s.auto.g.Wait()
	s.auto = nil
}

// Running reports whether auto-advance is active.
func (s *Session) Running() bool { return s.auto != nil }
