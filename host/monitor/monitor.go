// Package monitor parses the firmware console stream and keeps running
// statistics about acknowledged edges and the blink loop.
package monitor

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Line prefixes written by the firmware
const (
	PrefixEvent = "[EVENT]"
	PrefixBlink = "[BLINK]"
	PrefixSetup = "[EDGEIRQ]"
)

// Kind classifies a console line
type Kind int

const (
	KindOther Kind = iota
	KindEvent
	KindBlink
	KindSetup
	KindFatal
)

// Record is one parsed console line
type Record struct {
	Kind   Kind
	Name   string            // Event name (ISR_ACK, ...) for KindEvent
	Fields map[string]string // key=value pairs
	Text   string            // Raw line
}

// Uint returns a numeric field, or 0 if absent or malformed
func (r Record) Uint(key string) uint64 {
	v, err := strconv.ParseUint(r.Fields[key], 10, 32)
	if err != nil {
		return 0
	}
	return v
}

// ParseLine classifies a console line and splits its key=value fields
func ParseLine(line string) Record {
	line = strings.TrimRight(line, "\r\n")
	rec := Record{Kind: KindOther, Text: line, Fields: map[string]string{}}

	var rest string
	switch {
	case strings.HasPrefix(line, PrefixEvent):
		rec.Kind = KindEvent
		rest = strings.TrimSpace(line[len(PrefixEvent):])
		name, tail, _ := strings.Cut(rest, " ")
		rec.Name = name
		rest = tail
	case strings.HasPrefix(line, PrefixBlink):
		rec.Kind = KindBlink
		rest = line[len(PrefixBlink):]
	case strings.HasPrefix(line, PrefixSetup):
		rec.Kind = KindSetup
		rest = strings.TrimSpace(line[len(PrefixSetup):])
		if strings.HasPrefix(rest, "FATAL:") {
			rec.Kind = KindFatal
			return rec
		}
	default:
		return rec
	}

	for _, field := range strings.Fields(rest) {
		if k, v, ok := strings.Cut(field, "="); ok {
			rec.Fields[k] = v
		}
	}
	return rec
}

// Stats accumulates what the console has reported so far
type Stats struct {
	Acks     uint64
	Spurious uint64
	Lost     uint64 // Events missing from the sequence (ring overflow)
	LastSeq  uint64

	Toggles uint64
	High    bool
	State   string

	SetupLines int
	Fatal      string
}

// Apply folds one record into the statistics
func (s *Stats) Apply(rec Record) {
	switch rec.Kind {
	case KindEvent:
		seq := rec.Uint("seq")
		if s.LastSeq != 0 && seq > s.LastSeq+1 {
			s.Lost += seq - s.LastSeq - 1
		}
		if seq > s.LastSeq {
			s.LastSeq = seq
		}
		switch rec.Name {
		case "ISR_ACK":
			s.Acks++
		case "ISR_SPURIOUS":
			s.Spurious++
		}
	case KindBlink:
		s.Toggles = rec.Uint("toggles")
		s.High = rec.Fields["level"] == "high"
		s.State = rec.Fields["state"]
	case KindSetup:
		s.SetupLines++
	case KindFatal:
		s.Fatal = rec.Text
	}
}

// String renders a one-line summary
func (s Stats) String() string {
	level := "low"
	if s.High {
		level = "high"
	}
	out := fmt.Sprintf("acks=%d spurious=%d lost=%d toggles=%d level=%s state=%s",
		s.Acks, s.Spurious, s.Lost, s.Toggles, level, s.State)
	if s.Fatal != "" {
		out += " fatal=" + strconv.Quote(s.Fatal)
	}
	return out
}

// Monitor reads a console stream line by line
type Monitor struct {
	stats    Stats
	onRecord func(Record, Stats)
}

// New creates a monitor. onRecord, if non-nil, is called after each line
// is applied.
func New(onRecord func(Record, Stats)) *Monitor {
	return &Monitor{onRecord: onRecord}
}

// Run consumes r until EOF or a read error. A clean EOF returns nil.
func (m *Monitor) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rec := ParseLine(scanner.Text())
		m.stats.Apply(rec)
		if m.onRecord != nil {
			m.onRecord(rec, m.stats)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("console read failed: %w", err)
	}
	return nil
}

// Stats returns a copy of the current statistics
func (m *Monitor) Stats() Stats {
	return m.stats
}
