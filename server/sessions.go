package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

var log = commonlog.GetLogger("algo.server")

// ---------------------------------------------------------------------------
// Execution sessions
// ---------------------------------------------------------------------------

// Options size the channels of a session and bound its runs.
type Options struct {
	Limits       vm.Limits
	OutputBuffer int           // events buffered before a writer waits
	InputBuffer  int           // input lines buffered before SendInput fails
	PollInterval time.Duration // how often a blocked writer checks liveness
}

// DefaultOptions match the limits of the hosted web runner.
var DefaultOptions = Options{
	Limits:       vm.DefaultLimits,
	OutputBuffer: 10000,
	InputBuffer:  1000,
	PollInterval: 100 * time.Millisecond,
}

func (o Options) withDefaults() Options {
	if o.OutputBuffer <= 0 {
		o.OutputBuffer = DefaultOptions.OutputBuffer
	}
	if o.InputBuffer <= 0 {
		o.InputBuffer = DefaultOptions.InputBuffer
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOptions.PollInterval
	}
	return o
}

// Session errors.
var (
	ErrAlreadyStarted = errors.New("server: session already started")
	ErrNotRunning     = errors.New("server: session is not running")
	ErrInputFull      = errors.New("server: input buffer full")
)

// inputLine is one queued input. A poison line unblocks a pending read
// when the session stops.
type inputLine struct {
	text   string
	poison bool
}

// Session runs at most one program and streams its events.
type Session struct {
	ID string

	opts   Options
	events chan vm.Event
	input  chan inputLine
	alive  atomic.Bool

	mu       sync.Mutex
	started  bool
	machine  *vm.Machine
	cancel   context.CancelFunc
	preset   []string
	terminal *vm.Event
	done     chan struct{}
}

func newSession(id string, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:     id,
		opts:   opts,
		events: make(chan vm.Event, opts.OutputBuffer),
		input:  make(chan inputLine, opts.InputBuffer),
		done:   make(chan struct{}),
	}
}

// Events streams the session's events. The channel is closed after the
// terminal event.
func (s *Session) Events() <-chan vm.Event {
	return s.events
}

// Done is closed once the run is over.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Running reports whether a program is executing.
func (s *Session) Running() bool {
	return s.alive.Load()
}

// Start parses an intermediate program and runs it with preset input
// lines consumed before any input request.
func (s *Session) Start(programText string, presetInput []string) error {
	prog, err := vm.ParseProgram(programText)
	if err != nil {
		return fmt.Errorf("server: start %s: %w", s.ID, err)
	}
	return s.StartProgram(prog, presetInput)
}

// StartProgram runs an already parsed program.
func (s *Session) StartProgram(prog *vm.Program, presetInput []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.preset = append([]string(nil), presetInput...)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.machine = vm.NewMachine(prog, vm.Options{
		Limits: s.opts.Limits,
		IO:     sessionIO{s},
		OnStep: s.onStep,
	})
	s.alive.Store(true)
	log.Infof("session %s: start %q", s.ID, prog.Name)
	go s.run(ctx)
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer s.cancel()
	err := s.machine.Run(ctx)
	s.alive.Store(false)
	ev := vm.ErrorEvent(err)

	s.mu.Lock()
	s.terminal = &ev
	s.mu.Unlock()
	log.Infof("session %s: %s after %d steps", s.ID, ev.Type, s.machine.Steps())

	s.deliverTerminal(ev)
	close(s.events)
	close(s.done)
}

// deliverTerminal always succeeds: when the buffer is full the oldest
// pending events are dropped to make room. Only the run goroutine sends,
// so room, once made, stays available.
func (s *Session) deliverTerminal(ev vm.Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// emit delivers ev unless the session stops while the buffer is full.
func (s *Session) emit(ev vm.Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
	}
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case s.events <- ev:
			return true
		case <-ticker.C:
			if !s.alive.Load() {
				return false
			}
		}
	}
}

func (s *Session) onStep(snap *vm.Snapshot) error {
	if !s.emit(vm.Event{Type: vm.EventStep, Step: snap, Line: snap.Line}) {
		return vm.ErrStopped
	}
	return nil
}

// SendInput queues one line for the program.
func (s *Session) SendInput(line string) error {
	if !s.alive.Load() {
		return ErrNotRunning
	}
	select {
	case s.input <- inputLine{text: line}:
		return nil
	default:
		return ErrInputFull
	}
}

// Stop interrupts the run. Pending input is discarded and a blocked read
// is released; the run then ends with a stopped event.
func (s *Session) Stop() {
	s.mu.Lock()
	m, cancel := s.machine, s.cancel
	s.mu.Unlock()
	if m == nil {
		return
	}
	s.alive.Store(false)
	m.Stop()
	for drained := false; !drained; {
		select {
		case <-s.input:
		default:
			drained = true
		}
	}
	select {
	case s.input <- inputLine{poison: true}:
	default:
	}
	cancel()
	log.Debugf("session %s: stop requested", s.ID)
}

// Wait blocks until the run ends and returns its terminal event.
func (s *Session) Wait(ctx context.Context) (vm.Event, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return vm.Event{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.terminal, nil
}

// sessionIO connects the machine to the session channels.
type sessionIO struct{ s *Session }

func (io sessionIO) Write(text string) error {
	if !io.s.emit(vm.Event{Type: vm.EventStdout, Data: text}) {
		return vm.ErrStopped
	}
	return nil
}

func (io sessionIO) ReadLine(ctx context.Context) (string, error) {
	s := io.s
	s.mu.Lock()
	if len(s.preset) > 0 {
		line := s.preset[0]
		s.preset = s.preset[1:]
		s.mu.Unlock()
		return line, nil
	}
	s.mu.Unlock()

	if !s.emit(vm.Event{Type: vm.EventInputRequest}) {
		return "", vm.ErrStopped
	}
	select {
	case in := <-s.input:
		if in.poison {
			return "", vm.ErrNoInput
		}
		return in.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Session store
// ---------------------------------------------------------------------------

// SessionStore manages execution sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

// NewSessionStore creates a store whose sessions use opts.
func NewSessionStore(opts Options) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		opts:     opts.withDefaults(),
	}
}

// Create creates an idle session.
func (s *SessionStore) Create() *Session {
	session := newSession(uuid.NewString(), s.opts)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Destroy stops a session and forgets it.
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.Stop()
	}
}

// StopAll stops every running session.
func (s *SessionStore) StopAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		session.Stop()
	}
}
