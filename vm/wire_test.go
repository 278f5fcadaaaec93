package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	ev := &Event{
		Type: EventStep,
		Line: 12,
		Step: &Snapshot{
			Line:  12,
			Event: EventLine,
			Variables: []VarView{
				{Name: "n", Value: "3", Address: "@1000", Type: "Entier", Size: 4},
				{Name: "heap_50000", Label: "Allocated space", Value: "{coeff=5.0}", Address: "@50000", Type: "Monome", Size: 16},
			},
			Output: "Bonjour",
		},
	}

	data, err := MarshalEvent(ev)
	if err != nil {
		t.Fatalf("MarshalEvent: %v", err)
	}
	again, err := MarshalEvent(ev)
	if err != nil {
		t.Fatalf("MarshalEvent: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("encoding is not deterministic")
	}

	got, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if got.Type != ev.Type || got.Line != 12 || got.Step == nil {
		t.Fatalf("got %+v", got)
	}
	if v, ok := got.Step.Lookup("heap_50000"); !ok || v.Label != "Allocated space" || v.Size != 16 {
		t.Errorf("heap row = %+v, %v", v, ok)
	}

	if _, err := UnmarshalEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalEvent accepted garbage")
	}
}

func TestSnapshotsRoundTrip(t *testing.T) {
	tr := Trace(context.Background(), mustParse(t, carreIR), []string{"4"}, DefaultLimits)
	data, err := MarshalSnapshots(tr.Steps)
	if err != nil {
		t.Fatalf("MarshalSnapshots: %v", err)
	}
	steps, err := UnmarshalSnapshots(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshots: %v", err)
	}
	if len(steps) != len(tr.Steps) {
		t.Fatalf("got %d snapshots, want %d", len(steps), len(tr.Steps))
	}
	last := steps[len(steps)-1]
	if r, _ := last.Lookup("r"); r.Value != "16" {
		t.Errorf("r = %q, want 16", r.Value)
	}
}

func TestErrorEvent(t *testing.T) {
	tests := []struct {
		err      error
		typ      string
		code     string
		line     int
		terminal bool
	}{
		{nil, EventFinished, "", 0, true},
		{ErrStopped, EventStopped, "", 0, true},
		{fmt.Errorf("run: %w", ErrStopped), EventStopped, "", 0, true},
		{&RuntimeError{Kind: ErrNilPointer, Line: 7}, EventError, "E4.6", 7, true},
		{errors.New("disque plein"), EventError, "", 0, true},
	}
	for _, tc := range tests {
		ev := ErrorEvent(tc.err)
		if ev.Type != tc.typ || ev.Code != tc.code || ev.Line != tc.line {
			t.Errorf("ErrorEvent(%v) = %+v, want %s/%s/%d", tc.err, ev, tc.typ, tc.code, tc.line)
		}
		if ev.Terminal() != tc.terminal {
			t.Errorf("ErrorEvent(%v).Terminal() = %v", tc.err, ev.Terminal())
		}
	}

	if ev := ErrorEvent(ErrStopped); ev.Data != StoppedMessage {
		t.Errorf("stopped data = %q", ev.Data)
	}
	for _, typ := range []string{EventStdout, EventInputRequest, EventStep} {
		if (Event{Type: typ}).Terminal() {
			t.Errorf("%s should not be terminal", typ)
		}
	}
}
