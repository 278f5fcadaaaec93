package vm

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire encoding for execution events
// ---------------------------------------------------------------------------

// Event kinds streamed to a host while a program runs.
const (
	EventStdout       = "stdout"
	EventInputRequest = "input-request"
	EventStep         = "step"
	EventError        = "runtime-error"
	EventStopped      = "stopped"
	EventFinished     = "finished"
)

// Event is one message of an execution stream.
type Event struct {
	Type string    `json:"type" cbor:"type"`
	Data string    `json:"data,omitempty" cbor:"data,omitempty"`
	Step *Snapshot `json:"step,omitempty" cbor:"step,omitempty"`
	Code string    `json:"code,omitempty" cbor:"code,omitempty"`
	Line int       `json:"line,omitempty" cbor:"line,omitempty"`
}

// Terminal reports whether no event follows e.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventError, EventStopped, EventFinished:
		return true
	}
	return false
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalEvent serializes an Event to canonical CBOR.
func MarshalEvent(e *Event) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// UnmarshalEvent deserializes an Event from CBOR bytes.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("vm: unmarshal event: %w", err)
	}
	return &e, nil
}

// MarshalSnapshots serializes a whole trace.
func MarshalSnapshots(steps []*Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(steps)
}

// UnmarshalSnapshots deserializes a trace.
func UnmarshalSnapshots(data []byte) ([]*Snapshot, error) {
	var steps []*Snapshot
	if err := cbor.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshots: %w", err)
	}
	return steps, nil
}

// ErrorEvent converts a run error into its terminal event.
func ErrorEvent(err error) Event {
	if err == nil {
		return Event{Type: EventFinished}
	}
	if errors.Is(err, ErrStopped) {
		return Event{Type: EventStopped, Data: StoppedMessage}
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return Event{Type: EventError, Data: re.Error(), Code: re.Kind.Code(), Line: re.Line}
	}
	return Event{Type: EventError, Data: fmt.Sprintf("Erreur d'exécution (%s): %v", ErrInternal, err)}
}
