package replaycatalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aiarena/engine/internal/replay"
)

// Entry captures a replay header alongside the bundle directory it describes.
type Entry struct {
	HeaderPath string        `json:"header_path"`
	BundleDir  string        `json:"bundle_dir"`
	Header     replay.Header `json:"header"`
}

// List walks the directory tree and returns the headers of every finished match, oldest first.
func List(root string) ([]Entry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory must be provided")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root must be a directory")
	}

	var entries []Entry
	//1.- Walk the directory tree searching for header documents; unfinished bundles have none.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != "header.json" {
			return nil
		}
		header, err := replay.ReadHeader(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		entries = append(entries, Entry{HeaderPath: path, BundleDir: filepath.Dir(path), Header: header})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Header.CreatedAt == entries[j].Header.CreatedAt {
			return entries[i].BundleDir < entries[j].BundleDir
		}
		return entries[i].Header.CreatedAt < entries[j].Header.CreatedAt
	})
	return entries, nil
}

// Tally counts wins per model across the listed matches. Ties are counted under "tie".
func Tally(entries []Entry) map[string]int {
	wins := make(map[string]int)
	for _, entry := range entries {
		if entry.Header.Winner == replay.WinnerTie {
			wins[replay.WinnerTie]++
			continue
		}
		model := entry.Header.Models[entry.Header.Winner]
		if model == "" {
			model = entry.Header.Winner
		}
		wins[model]++
	}
	return wins
}

// MarshalEntries produces a stable JSON representation of the entries for CLI output.
func MarshalEntries(entries []Entry) ([]byte, error) {
	//1.- Marshal with indentation to keep CLI output legible for operators.
	return json.MarshalIndent(entries, "", "  ")
}
