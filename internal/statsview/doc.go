// Package statsview serves live Go runtime statistics (heap, GC,
// goroutines) in the browser while the emulator runs. The server is only
// compiled in with the statsview build tag:
//
//	go build -tags statsview ./cmd/gbemu
package statsview

// Address is the default listen address.
const Address = "localhost:12600"
