package monitor

import (
	"strings"
	"testing"

	"edgeirq/core"
)

func TestParseEventLine(t *testing.T) {
	line := core.FormatEvent(core.Event{Type: core.EvtISRAck, Seq: 3, Clock: 99, Pin: 0, Pending: true})
	rec := ParseLine(line + "\r\n")

	if rec.Kind != KindEvent {
		t.Fatalf("Expected event record, got %v", rec.Kind)
	}
	if rec.Name != "ISR_ACK" {
		t.Errorf("Expected ISR_ACK, got %q", rec.Name)
	}
	if rec.Uint("seq") != 3 || rec.Uint("clock") != 99 || rec.Fields["pending"] != "1" {
		t.Errorf("Unexpected fields %v", rec.Fields)
	}
}

func TestParseBlinkLine(t *testing.T) {
	rec := ParseLine(core.FormatBlink(true, 8, 2, core.RegisteredActive))

	if rec.Kind != KindBlink {
		t.Fatalf("Expected blink record, got %v", rec.Kind)
	}
	if rec.Fields["level"] != "high" || rec.Uint("toggles") != 8 || rec.Fields["state"] != "active" {
		t.Errorf("Unexpected fields %v", rec.Fields)
	}
}

func TestParseOtherLines(t *testing.T) {
	if rec := ParseLine("Hello esp_println!"); rec.Kind != KindOther {
		t.Errorf("Expected other, got %v", rec.Kind)
	}
	if rec := ParseLine("[EDGEIRQ] FATAL: boom"); rec.Kind != KindFatal {
		t.Errorf("Expected fatal, got %v", rec.Kind)
	}
	if rec := ParseLine("[EDGEIRQ] published input pin=0"); rec.Kind != KindSetup || rec.Fields["pin"] != "0" {
		t.Errorf("Expected setup record with pin=0, got %+v", rec)
	}
}

func TestMonitorRun(t *testing.T) {
	console := strings.Join([]string{
		"[EDGEIRQ] published input pin=0",
		"[EDGEIRQ] interrupts unmasked mask=0x2",
		"[EVENT] ISR_ACK seq=1 clock=10 pin=0 pending=1",
		"[BLINK] level=low toggles=1 acks=1 state=active",
		"[EVENT] ISR_SPURIOUS seq=2 clock=20 pin=0 pending=0",
		"[EVENT] ISR_ACK seq=5 clock=30 pin=0 pending=1",
		"[BLINK] level=high toggles=2 acks=2 state=active",
	}, "\n")

	var seen int
	m := New(func(Record, Stats) { seen++ })
	if err := m.Run(strings.NewReader(console)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := m.Stats()
	if seen != 7 {
		t.Errorf("Expected 7 records, got %d", seen)
	}
	if s.Acks != 2 || s.Spurious != 1 {
		t.Errorf("Expected 2 acks and 1 spurious, got %d and %d", s.Acks, s.Spurious)
	}
	if s.Lost != 2 {
		t.Errorf("Expected 2 lost events (seq 3, 4), got %d", s.Lost)
	}
	if s.Toggles != 2 || !s.High || s.State != "active" {
		t.Errorf("Unexpected blink state %+v", s)
	}
	if s.SetupLines != 2 {
		t.Errorf("Expected 2 setup lines, got %d", s.SetupLines)
	}
	want := "acks=2 spurious=1 lost=2 toggles=2 level=high state=active"
	if s.String() != want {
		t.Errorf("Expected %q, got %q", want, s.String())
	}
}

func TestMonitorCountsRingOverflow(t *testing.T) {
	var log core.EventLog
	var lines []string
	drain := func() {
		log.Drain(func(evt core.Event) { lines = append(lines, core.FormatEvent(evt)) })
	}

	for i := 0; i < core.EventRingSize+5; i++ {
		log.Record(core.EvtISRAck, 0, true)
	}
	drain()
	log.Record(core.EvtISRAck, 0, true)
	drain()

	m := New(nil)
	if err := m.Run(strings.NewReader(strings.Join(lines, "\n"))); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	s := m.Stats()
	if s.Lost != uint64(log.Dropped()) || s.Lost != 5 {
		t.Errorf("Expected 5 lost events, got %d (ring dropped %d)", s.Lost, log.Dropped())
	}
	if s.Acks != core.EventRingSize+1 {
		t.Errorf("Expected %d acks, got %d", core.EventRingSize+1, s.Acks)
	}
}
