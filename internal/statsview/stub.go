//go:build !statsview

package statsview

import "io"

// Launch is a no-op without the statsview build tag.
func Launch(output io.Writer, addr string) func() {
	io.WriteString(output, "stats server not available: rebuild with -tags statsview\n")
	return func() {}
}

func Available() bool {
	return false
}
