// Package telemetry reads decoded MAVLink message dumps into survey
// observations.
//
// The input is the JSON-lines output of pymavlink's mavlogdump with
// --format json: one object per line holding a "meta" header with the
// message type and capture timestamp, and a "data" object of decoded fields.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/transects/internal/fsutil"
	"github.com/banshee-data/transects/internal/survey"
)

// maxLineBytes bounds a single dump line.
const maxLineBytes = 1 << 20

// consumed lists the message types the aggregator understands. Everything
// else is counted and discarded at read time.
var consumed = map[survey.MessageType]bool{
	survey.MsgGPSRaw:         true,
	survey.MsgGlobalPosition: true,
	survey.MsgLocalPosition:  true,
	survey.MsgAttitude:       true,
	survey.MsgVFRHUD:         true,
	survey.MsgRangefinder:    true,
}

// Stats counts what the reader saw.
type Stats struct {
	Lines     int
	Decoded   int
	Ignored   int // well-formed lines of a type nobody consumes
	Malformed int
}

type line struct {
	Meta struct {
		Type      string  `json:"type"`
		Timestamp float64 `json:"timestamp"`
	} `json:"meta"`
	Data map[string]any `json:"data"`
}

// ReadJSONLines decodes every line of r. Malformed lines are counted and
// skipped; only a read failure returns an error.
func ReadJSONLines(r io.Reader) ([]survey.Observation, Stats, error) {
	var (
		obs   []survey.Observation
		stats Stats
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		stats.Lines++

		var l line
		if err := json.Unmarshal(raw, &l); err != nil || l.Meta.Type == "" {
			stats.Malformed++
			if stats.Malformed <= 5 {
				survey.Opsf("telemetry: skipping malformed line %d: %v", stats.Lines, err)
			}
			continue
		}

		typ := survey.MessageType(l.Meta.Type)
		if !consumed[typ] {
			stats.Ignored++
			continue
		}

		fields := make(map[string]float64, len(l.Data))
		for k, v := range l.Data {
			if f, ok := v.(float64); ok {
				fields[k] = f
			}
		}
		obs = append(obs, survey.Observation{Type: typ, Timestamp: l.Meta.Timestamp, Fields: fields})
		stats.Decoded++
	}
	if err := sc.Err(); err != nil {
		return obs, stats, fmt.Errorf("read telemetry at line %d: %w", stats.Lines+1, err)
	}
	if stats.Malformed > 0 {
		survey.Opsf("telemetry: %d of %d lines malformed", stats.Malformed, stats.Lines)
	}
	return obs, stats, nil
}

// ReadFile opens path on fsys and decodes it.
func ReadFile(fsys fsutil.FileSystem, path string) ([]survey.Observation, Stats, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open telemetry log: %w", err)
	}
	defer f.Close()
	return ReadJSONLines(f)
}
