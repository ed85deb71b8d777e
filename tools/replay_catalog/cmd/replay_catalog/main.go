package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"aiarena/engine/tools/replay_catalog"
)

func main() {
	root := flag.String("dir", "replays", "directory containing replay bundles")
	jsonFlag := flag.Bool("json", false, "emit JSON instead of human-readable output")
	flag.Parse()

	entries, err := replaycatalog.List(*root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *jsonFlag {
		payload, err := replaycatalog.MarshalEntries(entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
		return
	}

	for _, entry := range entries {
		fmt.Printf("%s (schema %d)\n", entry.Header.MatchID, entry.Header.SchemaVersion)
		fmt.Printf("  created: %s\n", entry.Header.CreatedAt)
		fmt.Printf("  winner: %s after %d turns\n", entry.Header.Winner, entry.Header.TotalTurns)
		if len(entry.Header.Models) > 0 {
			ships := make([]string, 0, len(entry.Header.Models))
			for ship := range entry.Header.Models {
				ships = append(ships, ship)
			}
			sort.Strings(ships)
			fmt.Printf("  models:\n")
			for _, ship := range ships {
				fmt.Printf("    %s: %s\n", ship, entry.Header.Models[ship])
			}
		}
		fmt.Printf("  bundle: %s\n", entry.BundleDir)
	}

	wins := replaycatalog.Tally(entries)
	names := make([]string, 0, len(wins))
	for name := range wins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %d\n", name, wins[name])
	}
}
