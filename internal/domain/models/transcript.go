// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TranscriptItem is one parsed utterance from a transcript export.
// Items are ephemeral: they are consumed to produce a summary and are never
// persisted individually.
type TranscriptItem struct {
	SpeakerID string              `json:"speaker_id"`
	StartTS   TranscriptTimestamp `json:"start_ts"`
	Text      string              `json:"text"`
}

// TranscriptTimestamp tolerates the timestamp shapes seen in transcript
// exports: numeric epoch milliseconds, numeric strings, and RFC3339 strings.
// An unparseable timestamp is not an error; it unmarshals as unset so the
// formatter can fall back to the item's positional index.
type TranscriptTimestamp struct {
	t  time.Time
	ok bool
}

// NewTranscriptTimestamp builds a set timestamp, mainly for tests.
func NewTranscriptTimestamp(t time.Time) TranscriptTimestamp {
	return TranscriptTimestamp{t: t.UTC(), ok: true}
}

// Time returns the parsed timestamp and whether it was parseable.
func (ts TranscriptTimestamp) Time() (time.Time, bool) {
	return ts.t, ts.ok
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *TranscriptTimestamp) UnmarshalJSON(data []byte) error {
	*ts = TranscriptTimestamp{}

	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		ts.t = time.UnixMilli(int64(ms)).UTC()
		ts.ok = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Unknown shape; leave the timestamp unset rather than failing the item.
		return nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ts.t = t.UTC()
		ts.ok = true
		return nil
	}

	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		ts.t = time.UnixMilli(int64(ms)).UTC()
		ts.ok = true
		return nil
	}

	return nil
}

// MarshalJSON implements json.Marshaler. Set timestamps round-trip as epoch
// milliseconds; unset timestamps marshal as null.
func (ts TranscriptTimestamp) MarshalJSON() ([]byte, error) {
	if !ts.ok {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.UnixMilli())
}

// ParseTranscriptJSONL decodes a newline-delimited JSON transcript export
// into transcript items. Blank lines are skipped; a malformed line fails the
// whole parse since a partial transcript would produce a misleading summary.
func ParseTranscriptJSONL(data []byte) ([]TranscriptItem, error) {
	var items []TranscriptItem

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Transcript lines of long meetings can exceed the default scanner limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var item TranscriptItem
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("malformed transcript line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan transcript: %w", err)
	}

	return items, nil
}
