// Loomwsd is a small example host application embedding the loomws
// server the way a real consumer would: it registers one demo
// WebSocket handler, optionally serves a static directory, and starts
// the event loop on the calling goroutine.
//
// Usage:
//
//	loomwsd serve [flags]
//
// See 'loomwsd serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loomwsd",
	Short: "Embeddable HTTP/WebSocket server demo host",
	Long: `loomwsd hosts the loomws event loop as a standalone process: a single
dedicated I/O thread accepting connections, serving static files, and
dispatching WebSocket frames to registered handlers.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
