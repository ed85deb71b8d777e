package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"aiarena/engine/internal/state"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// maxTurnLine bounds a single turn line; a turn's event log is usually a few kilobytes.
const maxTurnLine = 16 << 20

// Frame is one decoded state snapshot from the frames stream.
type Frame struct {
	Turn        int
	SimulatedMs int64
	CapturedAt  time.Time
	State       state.GameState
}

// Bundle is a replay read back from disk.
type Bundle struct {
	Manifest Manifest
	Header   Header
	Record   MatchRecord
	Frames   []Frame
}

// Load reads the bundle in dir. A bundle without a header is an unfinished match and is rejected.
func Load(dir string) (*Bundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay path must be provided")
	}
	manifestBytes, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	header, err := ReadHeader(filepath.Join(dir, manifest.HeaderPath))
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	//1.- Decode the turn lines and the state frames independently.
	turns, err := readTurns(filepath.Join(dir, manifest.TurnsPath))
	if err != nil {
		return nil, err
	}
	frames, err := readFrames(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, err
	}
	//2.- Every turn owns the frame it started from and one more frame holds the final state.
	if len(frames) != len(turns)+1 {
		return nil, fmt.Errorf("bundle has %d turns but %d frames", len(turns), len(frames))
	}
	for idx := range turns {
		turns[idx].StateBefore = frames[idx].State
	}

	created, err := time.Parse(time.RFC3339Nano, header.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	record := MatchRecord{
		MatchID:    header.MatchID,
		Models:     header.Models.Clone(),
		Winner:     header.Winner,
		TotalTurns: header.TotalTurns,
		CreatedAt:  created,
		FinalState: frames[len(frames)-1].State,
		Turns:      turns,
	}
	return &Bundle{Manifest: manifest, Header: header, Record: record, Frames: frames}, nil
}

func readTurns(path string) ([]TurnRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64<<10), maxTurnLine)
	var turns []TurnRecord
	for scanner.Scan() {
		var line turnLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("decode turn line %d: %w", len(turns)+1, err)
		}
		record := TurnRecord{
			Turn:      line.Turn,
			OrdersA:   line.OrdersA,
			OrdersB:   line.OrdersB,
			ThinkingA: line.ThinkingA,
			ThinkingB: line.ThinkingB,
		}
		for _, raw := range line.Events {
			event, err := decodeEvent(raw)
			if err != nil {
				return nil, fmt.Errorf("turn %d: %w", line.Turn, err)
			}
			record.Events = append(record.Events, event)
		}
		turns = append(turns, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	return turns, nil
}

func readFrames(path string) ([]Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var frames []Frame
	header := make([]byte, frameHeaderSize)
	for {
		//1.- A clean EOF on a frame boundary ends the stream.
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("read frame header: %w", err)
		}
		payload := make([]byte, binary.LittleEndian.Uint32(header[24:28]))
		if _, err := io.ReadFull(decoder, payload); err != nil {
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
		gs, err := decodeState(payload)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{
			Turn:        int(binary.LittleEndian.Uint64(header[0:8])),
			SimulatedMs: int64(binary.LittleEndian.Uint64(header[8:16])),
			CapturedAt:  time.Unix(0, int64(binary.LittleEndian.Uint64(header[16:24]))).UTC(),
			State:       gs,
		})
	}
}

// Replay walks the recorded turns in order.
func (b *Bundle) Replay(apply func(TurnRecord) error) error {
	if b == nil {
		return fmt.Errorf("bundle not loaded")
	}
	if apply == nil {
		return fmt.Errorf("replay callback must be provided")
	}
	for _, turn := range b.Record.Turns {
		if err := apply(turn); err != nil {
			return err
		}
	}
	return nil
}
