package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
)

// Slot runs at most one process at a time.
type Slot struct {
	ID       string
	Killer   Killer
	Grace    time.Duration
	Registry *Registry

	mu      sync.Mutex
	state   State
	current *Handle
	killing chan struct{}
}

// NewSlot creates an idle slot.
func NewSlot(id string, killer Killer, grace time.Duration, registry *Registry) *Slot {
	return &Slot{ID: id, Killer: killer, Grace: grace, Registry: registry}
}

// State reports the slot state: the current process's state, or the
// outcome of the last spawn attempt.
func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current.State()
	}
	return s.state
}

// Current returns the last spawned handle, or nil.
func (s *Slot) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Start spawns spec in the slot. It returns ErrSlotBusy while a process
// runs, and waits for a kill in flight to resolve before spawning. Spawn
// failures are returned as *SpawnError.
func (s *Slot) Start(ctx context.Context, spec Spec) (*Handle, error) {
	log := ctxlog.FromContext(ctx)

	s.mu.Lock()
	for s.killing != nil {
		wait := s.killing
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	if s.current != nil && s.current.State() == StateRunning {
		return nil, ErrSlotBusy
	}
	s.state = StateSpawning

	h, err := s.spawn(log, spec)
	if err != nil {
		s.state = StateSpawnFailed
		log.Warn("spawn failed", "slot", s.ID, "command", spec.Command.String(), "err", err)
		return nil, err
	}
	s.current = h
	log.Info("process started", "slot", s.ID, "pid", h.pid, "command", spec.Command.String())
	return h, nil
}

// Kill kills the current process, if running.
func (s *Slot) Kill() error {
	h := s.Current()
	if h == nil {
		return nil
	}
	return h.Kill()
}

func (s *Slot) beginKill() func() {
	s.mu.Lock()
	done := make(chan struct{})
	s.killing = done
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if s.killing == done {
			s.killing = nil
		}
		s.mu.Unlock()
		close(done)
	}
}

func (s *Slot) spawn(log *slog.Logger, spec Spec) (*Handle, error) {
	c := spec.Command
	cmd := exec.Command(c.Executable, c.Args...)
	cmd.Dir = c.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Command: c.String(), Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Command: c.String(), Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: c.String(), Err: err}
	}

	killer := s.Killer
	if killer == nil {
		killer = NopKiller{}
	}
	grace := s.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	h := &Handle{
		slot:      s,
		cmd:       cmd,
		command:   c.String(),
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		out:       newOutput(spec.QueueSize),
		killer:    killer,
		grace:     grace,
		log:       log,
		state:     StateRunning,
		done:      make(chan struct{}),
	}
	if s.Registry != nil {
		s.Registry.add(Entry{Slot: s.ID, PID: h.pid, StartedAt: h.startedAt, Command: h.command})
	}
	go h.stream(stdout, stderr)
	return h, nil
}

// Handle is a running (or finished) process.
type Handle struct {
	slot      *Slot
	cmd       *exec.Cmd
	command   string
	pid       int
	startedAt time.Time
	out       *Output
	killer    Killer
	grace     time.Duration
	log       *slog.Logger

	mu            sync.Mutex
	state         State
	exitCode      int
	killRequested bool
	done          chan struct{}
}

func (h *Handle) PID() int             { return h.pid }
func (h *Handle) StartedAt() time.Time { return h.startedAt }
func (h *Handle) Output() *Output      { return h.out }
func (h *Handle) Command() string      { return h.command }

// Done is closed once the process has been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ExitCode returns the exit code once the process exited on its own.
func (h *Handle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.state == StateExited
}

// Kill terminates the process group. The state becomes Killed even when
// the killer fails; the failure is logged and returned.
func (h *Handle) Kill() error {
	h.mu.Lock()
	if h.state != StateRunning || h.killRequested {
		h.mu.Unlock()
		return nil
	}
	h.killRequested = true
	h.mu.Unlock()

	// Mark the slot before the state leaves Running so no spawn slips in.
	if h.slot != nil {
		defer h.slot.beginKill()()
	}
	h.mu.Lock()
	if h.state != StateRunning {
		h.mu.Unlock()
		return nil
	}
	h.state = StateKilled
	h.mu.Unlock()

	h.log.Info("killing process group", "pid", h.pid, "grace", h.grace)
	if err := h.killer.Kill(h.pid, h.grace, h.done); err != nil {
		h.log.Warn("kill failed", "pid", h.pid, "err", err)
		return err
	}
	return nil
}

func (h *Handle) stream(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(i int, r io.Reader) {
			defer wg.Done()
			errs[i] = h.pump(Stream(i), r)
		}(i, r)
	}
	wg.Wait()

	waitErr := h.cmd.Wait()
	code := -1
	if h.cmd.ProcessState != nil {
		code = h.cmd.ProcessState.ExitCode()
	}

	h.mu.Lock()
	killed := h.state == StateKilled
	if !killed {
		h.state = StateExited
		h.exitCode = code
	}
	h.mu.Unlock()
	close(h.done)

	if h.slot != nil && h.slot.Registry != nil {
		h.slot.Registry.remove(h.slot.ID, h.pid)
	}

	ioErr := errors.Join(errs...)
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		ioErr = errors.Join(ioErr, waitErr)
	}

	final := Message{At: time.Now()}
	switch {
	case killed:
		final.Kind = KindKilled
	case ioErr != nil:
		final.Kind = KindError
		final.Err = ioErr
	default:
		final.Kind = KindExit
		final.ExitCode = code
	}
	h.log.Debug("process finished", "pid", h.pid, "result", final.Kind.String(), "code", code)
	h.out.finish(final)
}

// maxLineBytes bounds one output message. Longer lines are split into
// consecutive messages.
const maxLineBytes = 1024 * 1024

// pump forwards r line by line. After a read error the rest of the pipe
// is discarded so the child never blocks on a full pipe.
func (h *Handle) pump(stream Stream, r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	emit := func() {
		h.out.send(Message{Kind: KindLine, Stream: stream, Text: string(line), At: time.Now()})
		line = line[:0]
	}
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(line) > 0 {
				emit()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			io.Copy(io.Discard, r)
			return err
		}
		line = append(line, chunk...)
		if isPrefix && len(line) < maxLineBytes {
			continue
		}
		emit()
	}
}
