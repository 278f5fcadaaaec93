package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

// ErrorKind classifies a runtime fault.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrInfiniteLoop
	ErrRecursion
	ErrMemory
	ErrIndex
	ErrZeroDivision
	ErrNilPointer
	ErrUseAfterFree
	ErrInputMismatch
	ErrTypeMismatch
	ErrEndOfInput
	ErrUndefined
)

var errorKindNames = map[ErrorKind]string{
	ErrInternal:      "InternalError",
	ErrInfiniteLoop:  "TimeoutError",
	ErrRecursion:     "RecursionError",
	ErrMemory:        "MemoryError",
	ErrIndex:         "IndexError",
	ErrZeroDivision:  "ZeroDivisionError",
	ErrNilPointer:    "NilPointerError",
	ErrUseAfterFree:  "UseAfterFreeError",
	ErrInputMismatch: "ValueError",
	ErrTypeMismatch:  "TypeError",
	ErrEndOfInput:    "EOFError",
	ErrUndefined:     "NameError",
}

var errorKindCodes = map[ErrorKind]string{
	ErrInfiniteLoop:  "E4.1",
	ErrRecursion:     "E4.2",
	ErrMemory:        "E4.3",
	ErrIndex:         "E4.4",
	ErrZeroDivision:  "E4.5",
	ErrNilPointer:    "E4.6",
	ErrUseAfterFree:  "E4.7",
	ErrInputMismatch: "E4.8",
	ErrTypeMismatch:  "E4.9",
	ErrEndOfInput:    "E4.10",
	ErrUndefined:     "E4.11",
}

// Fixed learner-facing messages. Kinds absent here carry their own detail.
var errorKindMessages = map[ErrorKind]string{
	ErrInfiniteLoop: "[E4.1] Boucle infinie détectée (Temps/Instructions dépassés).",
	ErrRecursion:    "[E4.2] Erreur de récursion infinie (Trop d'appels de sous-programmes).",
	ErrMemory:       "[E4.3] Dépassement de capacité mémoire (Trop d'allocations).",
	ErrIndex:        "[E4.4] Accès au tableau expiré ou hors limites.",
	ErrZeroDivision: "[E4.5] Division par zéro impossible.",
	ErrNilPointer:   "[E4.6] Déréférencement d'un pointeur NIL.",
	ErrUseAfterFree: "[E4.7] Accès à une zone mémoire libérée.",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "Error"
}

// Code returns the stable diagnostic code, or "" for internal errors.
func (k ErrorKind) Code() string {
	return errorKindCodes[k]
}

// RuntimeError is a fault raised while executing a program.
type RuntimeError struct {
	Kind   ErrorKind
	Line   int
	Detail string
}

// Message is the learner-facing text without the kind prefix.
func (e *RuntimeError) Message() string {
	if msg, ok := errorKindMessages[e.Kind]; ok {
		return msg
	}
	return e.Detail
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Erreur d'exécution (%s): %s", e.Kind, e.Message())
}

// Is matches any RuntimeError of the same kind.
func (e *RuntimeError) Is(target error) bool {
	var t *RuntimeError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// fault aborts execution with a runtime error. Recovered at the run boundary.
func fault(kind ErrorKind, format string, args ...interface{}) {
	panic(&RuntimeError{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// StoppedMessage is the payload of the stopped event.
const StoppedMessage = "Exécution interrompue."

// ErrStopped is returned when execution was interrupted by the host.
var ErrStopped = errors.New("vm: execution stopped")
