package replay

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"aiarena/engine/internal/events"
	"aiarena/engine/internal/gameplay"
	"aiarena/engine/internal/orders"
	"aiarena/engine/internal/state"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var writerMatchCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

const (
	manifestFile = "manifest.json"
	headerFile   = "header.json"
	turnsFile    = "turns.jsonl.sz"
	framesFile   = "frames.bin.zst"

	frameHeaderSize = 8 + 8 + 8 + 4
)

// Manifest describes the replay bundle layout so tooling can locate artefacts.
type Manifest struct {
	Version       int    `json:"version"`
	MatchID       string `json:"match_id"`
	CreatedAt     string `json:"created_at"`
	TurnsPath     string `json:"turns_path"`
	FramesPath    string `json:"frames_path"`
	HeaderPath    string `json:"header_path"`
	FrameEncoding string `json:"frame_encoding"`
	EventEncoding string `json:"event_encoding"`
}

// turnLine is one JSON line of the turns stream. Events are protojson documents of the structpb form.
type turnLine struct {
	Turn      int               `json:"turn"`
	OrdersA   orders.Orders     `json:"orders_a"`
	OrdersB   orders.Orders     `json:"orders_b"`
	ThinkingA string            `json:"thinking_a"`
	ThinkingB string            `json:"thinking_b"`
	Events    []json.RawMessage `json:"events"`
}

// Writer streams a replay bundle to disk: snappy framed JSONL turn records plus zstd compressed,
// length-prefixed msgpack state frames.
type Writer struct {
	mu          sync.Mutex
	dir         string
	matchID     string
	now         func() time.Time
	interval    float64
	turnFile    *os.File
	turnStream  *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	frames      int
	closed      bool
}

// NewWriter prepares the bundle directory under root and opens the compressed sinks. interval is the
// decision interval in seconds, used to stamp simulated time on frames.
func NewWriter(root, matchID string, interval float64, clock func() time.Time) (*Writer, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, fmt.Errorf("replay root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := writerMatchCleaner.ReplaceAllString(matchID, "")
	if cleaned == "" {
		cleaned = "match"
	}
	created := clock().UTC()
	path := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z")))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, Manifest{}, err
	}

	//1.- Open both compressed sinks, unwinding whatever was opened on failure.
	turnFile, err := os.Create(filepath.Join(path, turnsFile))
	if err != nil {
		return nil, Manifest{}, err
	}
	turnStream := snappy.NewBufferedWriter(turnFile)

	frameFile, err := os.Create(filepath.Join(path, framesFile))
	if err != nil {
		turnFile.Close()
		return nil, Manifest{}, err
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		turnStream.Close()
		turnFile.Close()
		frameFile.Close()
		return nil, Manifest{}, err
	}

	//2.- Persist the manifest up front so a crashed match still leaves a readable bundle.
	manifest := Manifest{
		Version:       1,
		MatchID:       matchID,
		CreatedAt:     created.Format(time.RFC3339Nano),
		TurnsPath:     turnsFile,
		FramesPath:    framesFile,
		HeaderPath:    headerFile,
		FrameEncoding: "msgpack",
		EventEncoding: "protojson",
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(path, manifestFile), data, 0o644)
	}
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		turnStream.Close()
		turnFile.Close()
		return nil, Manifest{}, err
	}

	writer := &Writer{
		dir:         path,
		matchID:     matchID,
		now:         clock,
		interval:    interval,
		turnFile:    turnFile,
		turnStream:  turnStream,
		frameFile:   frameFile,
		frameStream: frameStream,
	}
	return writer, manifest, nil
}

// Directory exposes the directory backing the replay bundle.
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// AppendTurn writes the turn line and the frame holding the state the turn started from.
func (w *Writer) AppendTurn(record TurnRecord) error {
	if w == nil {
		return fmt.Errorf("writer not initialised")
	}
	//1.- Encode events through their protobuf form so any protobuf consumer can read them back.
	line := turnLine{
		Turn:      record.Turn,
		OrdersA:   record.OrdersA,
		OrdersB:   record.OrdersB,
		ThinkingA: record.ThinkingA,
		ThinkingB: record.ThinkingB,
		Events:    make([]json.RawMessage, 0, len(record.Events)),
	}
	for _, event := range record.Events {
		payload, err := event.ToStruct()
		if err != nil {
			return err
		}
		encoded, err := protojson.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", event.Type, err)
		}
		line.Events = append(line.Events, encoded)
	}
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("writer closed")
	}
	//2.- Write the JSON line then the matching frame.
	if _, err := w.turnStream.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := w.turnStream.Flush(); err != nil {
		return err
	}
	return w.appendFrameLocked(record.StateBefore)
}

// AppendFrame writes a standalone state frame, e.g. the final state of the match.
func (w *Writer) AppendFrame(gs state.GameState) error {
	if w == nil {
		return fmt.Errorf("writer not initialised")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("writer closed")
	}
	return w.appendFrameLocked(gs)
}

// appendFrameLocked writes one length-prefixed frame; callers must hold the mutex.
func (w *Writer) appendFrameLocked(gs state.GameState) error {
	payload, err := encodeState(gs)
	if err != nil {
		return err
	}
	simulatedMs := int64(float64(gs.Turn) * w.interval * 1000)
	header := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint64(header[0:8], uint64(gs.Turn))
	binary.LittleEndian.PutUint64(header[8:16], uint64(simulatedMs))
	binary.LittleEndian.PutUint64(header[16:24], uint64(w.now().UTC().UnixNano()))
	binary.LittleEndian.PutUint32(header[24:28], uint32(len(payload)))
	if _, err := w.frameStream.Write(header); err != nil {
		return err
	}
	if _, err := w.frameStream.Write(payload); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Close writes the header and releases the sinks. The header is skipped when nil, leaving an unfinished
// bundle that Load rejects.
func (w *Writer) Close(header *Header) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	//1.- Attempt every flush/close and surface the first failure for callers to inspect.
	var firstErr error
	if header != nil {
		if err := WriteHeader(filepath.Join(w.dir, headerFile), *header); err != nil {
			firstErr = err
		}
	}
	if err := w.turnStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.turnFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// WriteMatch persists a finished match as a bundle under root and returns the bundle directory.
func WriteMatch(root string, record MatchRecord, cfg gameplay.GameConfig, clock func() time.Time) (string, error) {
	writer, _, err := NewWriter(root, record.MatchID, cfg.Simulation.DecisionIntervalSeconds, clock)
	if err != nil {
		return "", err
	}
	header := &Header{
		SchemaVersion: HeaderSchemaVersion,
		MatchID:       record.MatchID,
		Models:        record.Models.Clone(),
		Winner:        record.Winner,
		TotalTurns:    record.TotalTurns,
		CreatedAt:     record.CreatedAt.UTC().Format(time.RFC3339Nano),
		Config:        cfg,
		FilePointer:   manifestFile,
	}
	//1.- Stream every turn followed by the final state frame.
	for _, turn := range record.Turns {
		if err := writer.AppendTurn(turn); err != nil {
			writer.Close(nil)
			return "", fmt.Errorf("write turn %d: %w", turn.Turn, err)
		}
	}
	if err := writer.AppendFrame(record.FinalState); err != nil {
		writer.Close(nil)
		return "", fmt.Errorf("write final frame: %w", err)
	}
	//2.- The header goes last so its presence marks a complete bundle.
	if err := writer.Close(header); err != nil {
		return "", err
	}
	return writer.Directory(), nil
}

// encodeState serialises a state with msgpack, reusing the JSON field names.
func encodeState(gs state.GameState) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(gs); err != nil {
		return nil, fmt.Errorf("encode turn %d frame: %w", gs.Turn, err)
	}
	return buf.Bytes(), nil
}

// decodeState reverses encodeState.
func decodeState(payload []byte) (state.GameState, error) {
	var gs state.GameState
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&gs); err != nil {
		return state.GameState{}, fmt.Errorf("decode frame: %w", err)
	}
	return gs, nil
}

// decodeEvent reverses the protojson event encoding used in turn lines.
func decodeEvent(raw json.RawMessage) (events.Event, error) {
	var payload structpb.Struct
	if err := protojson.Unmarshal(raw, &payload); err != nil {
		return events.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return events.FromStruct(&payload)
}
