//go:build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const url = "/debug/statsview"

// Launch starts the runtime statistics server in the background and
// reports its URL to output. The returned function shuts the server down.
func Launch(output io.Writer, addr string) func() {
	if addr == "" {
		addr = Address
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, url)
	return mgr.Stop
}

func Available() bool {
	return true
}
