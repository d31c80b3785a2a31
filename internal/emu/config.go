package emu

import (
	"io"
	"log"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace  bool        // log every executed instruction
	Logger *log.Logger // trace destination; nil silences tracing
	Serial io.Writer   // bytes shifted out of the serial port; nil discards
}

// Defaults returns the configuration used by FromBytes.
func Defaults() Config {
	return Config{Logger: log.Default()}
}
