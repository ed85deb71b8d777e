package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"aiarena/engine/tools/replay_player"
)

func main() {
	path := flag.String("path", "", "Path to a replay bundle directory")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "path flag is required")
		os.Exit(1)
	}

	report, err := replayplayer.Verify(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	//1.- Render the report as JSON so callers can pipe the output elsewhere.
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		os.Exit(3)
	}
	if !report.Consistent() {
		os.Exit(4)
	}
}
