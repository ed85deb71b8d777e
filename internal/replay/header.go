package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aiarena/engine/internal/gameplay"
)

// HeaderSchemaVersion tracks the schema version for replay header documents.
const HeaderSchemaVersion = 1

// Header is the match summary persisted alongside a replay bundle.
type Header struct {
	SchemaVersion int                 `json:"schema_version"`
	MatchID       string              `json:"match_id"`
	Models        Models              `json:"models,omitempty"`
	Winner        string              `json:"winner"`
	TotalTurns    int                 `json:"total_turns"`
	CreatedAt     string              `json:"created_at"`
	Config        gameplay.GameConfig `json:"config"`
	FilePointer   string              `json:"file_pointer"`
}

// Validate ensures the header contains enough information for catalogue tooling.
func (h Header) Validate() error {
	if h.SchemaVersion <= 0 {
		return fmt.Errorf("schema_version must be positive")
	}
	if strings.TrimSpace(h.MatchID) == "" {
		return fmt.Errorf("match_id must not be empty")
	}
	//1.- Ensure catalogue tooling can locate the replay artefact reliably.
	if strings.TrimSpace(h.FilePointer) == "" {
		return fmt.Errorf("file_pointer must not be empty")
	}
	switch h.Winner {
	case WinnerShipA, WinnerShipB, WinnerTie:
	default:
		return fmt.Errorf("winner %q is not one of ship_a, ship_b, tie", h.Winner)
	}
	return nil
}

// WriteHeader persists the supplied header to the provided file path.
func WriteHeader(path string, header Header) error {
	if err := header.Validate(); err != nil {
		return err
	}
	//1.- Encode using indented JSON so manual inspection remains readable.
	payload, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	//2.- Terminate with a newline so POSIX tooling can append easily.
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

// ReadHeader loads and decodes a replay header from disk.
func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return Header{}, err
	}
	if err := header.Validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}
