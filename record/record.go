// record/record.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package record saves and loads per-tick trajectories of a simulation
// run. A recording is a zstd-compressed stream of msgpack values: a
// Header followed by one Frame per tick.
package record

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/uamsim/uamsim/log"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const FormatVersion = 1

type Header struct {
	Version    int       `msgpack:"version"`
	RunID      string    `msgpack:"run_id"`
	Created    time.Time `msgpack:"created"`
	Seed       int64     `msgpack:"seed"`
	Controller string    `msgpack:"controller"`
	DT         float64   `msgpack:"dt"`
}

// AircraftState is one aircraft in a frame. Command is the avoidance
// command applied that tick as (acceleration, heading).
type AircraftState struct {
	ID        uint64     `msgpack:"id"`
	Position  [2]float64 `msgpack:"pos"`
	Heading   float64    `msgpack:"hdg"`
	Speed     float64    `msgpack:"spd"`
	Intruders int        `msgpack:"intruders,omitempty"`
	Command   [2]float64 `msgpack:"cmd"`
	Departed  bool       `msgpack:"departed"`
	Arrived   bool       `msgpack:"arrived"`
}

type Frame struct {
	Tick       int             `msgpack:"tick"`
	Aircraft   []AircraftState `msgpack:"aircraft"`
	NMAC       [][2]uint64     `msgpack:"nmac,omitempty"`
	Collisions [][2]uint64     `msgpack:"collisions,omitempty"`
}

type Recording struct {
	Header Header
	Frames []Frame
}

// Recorder streams frames to a file. A nil *Recorder silently discards
// everything, so callers needn't check whether recording is enabled.
type Recorder struct {
	mu     sync.Mutex
	f      *os.File
	zw     *zstd.Encoder
	enc    *msgpack.Encoder
	header Header
	frames int
	err    error
	lg     *log.Logger
}

// Create opens |path| for writing and writes the header. The header's
// Version, RunID and Created fields are filled in.
func Create(path string, h Header, lg *log.Logger) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r, err := NewRecorder(f, h, lg)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

// NewRecorder writes the recording to w, which is not closed by Close.
func NewRecorder(w io.Writer, h Header, lg *log.Logger) (*Recorder, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}

	h.Version = FormatVersion
	h.RunID = uuid.NewString()
	h.Created = time.Now().UTC()

	r := &Recorder{zw: zw, enc: msgpack.NewEncoder(zw), header: h, lg: lg}
	if err := r.enc.Encode(&h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	lg.Info("recording started", slog.String("run_id", h.RunID))
	return r, nil
}

func (r *Recorder) Header() Header {
	if r == nil {
		return Header{}
	}
	return r.header
}

// Record appends a frame. After the first error, frames are dropped and
// the error is reported by Close.
func (r *Recorder) Record(fr Frame) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.enc.Encode(&fr); err != nil {
		r.err = fmt.Errorf("tick %d: %w", fr.Tick, err)
		r.lg.Error("unable to record frame", slog.Any("error", r.err))
		return
	}
	r.frames++
}

// Close flushes the stream and closes the file if the Recorder opened
// it. It returns the first error encountered while recording.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	errs := []error{r.err, r.zw.Close()}
	if r.f != nil {
		errs = append(errs, r.f.Close())
	}
	r.lg.Info("recording finished", slog.String("run_id", r.header.RunID), slog.Int("frames", r.frames))
	return errors.Join(errs...)
}

// Load reads a complete recording from a file.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a recording written by a Recorder.
func Decode(rd io.Reader) (*Recording, error) {
	zr, err := zstd.NewReader(rd, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)

	var rec Recording
	if err := dec.Decode(&rec.Header); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if rec.Header.Version != FormatVersion {
		return nil, fmt.Errorf("recording version %d: expected %d", rec.Header.Version, FormatVersion)
	}

	for {
		var fr Frame
		if err := dec.Decode(&fr); err != nil {
			if errors.Is(err, io.EOF) {
				return &rec, nil
			}
			return nil, fmt.Errorf("failed to decode frame %d: %w", len(rec.Frames), err)
		}
		rec.Frames = append(rec.Frames, fr)
	}
}
