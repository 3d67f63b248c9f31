// Package executor spawns build processes into execution slots, streams
// their output line by line and kills whole process groups.
package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/Phreno/lazymvn-sub002/internal/command"
)

// State is the lifecycle state of a slot or process.
type State int

const (
	StateIdle State = iota
	StateSpawning
	StateRunning
	StateExited
	StateKilled
	StateSpawnFailed
)

func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	case StateSpawnFailed:
		return "spawn-failed"
	default:
		return "idle"
	}
}

// Stream identifies where a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// MessageKind distinguishes output lines from the terminal message.
type MessageKind int

const (
	KindLine MessageKind = iota
	KindExit
	KindKilled
	KindError
)

func (k MessageKind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindKilled:
		return "killed"
	case KindError:
		return "error"
	default:
		return "line"
	}
}

// Message is one item of a process's output. Exactly one message with a
// terminal kind ends every stream.
type Message struct {
	Kind   MessageKind
	Stream Stream
	Text   string
	// ExitCode is set on KindExit.
	ExitCode int
	// Err is set on KindError.
	Err error
	At  time.Time
}

// Terminal reports whether m ends the stream.
func (m Message) Terminal() bool {
	return m.Kind != KindLine
}

func (m Message) String() string {
	switch m.Kind {
	case KindExit:
		return fmt.Sprintf("process exited with code %d", m.ExitCode)
	case KindKilled:
		return "process killed"
	case KindError:
		return fmt.Sprintf("process output failed: %v", m.Err)
	default:
		return m.Text
	}
}

// Spec describes what to spawn.
type Spec struct {
	Command command.Command
	// Env is appended to the inherited environment.
	Env []string
	// QueueSize bounds buffered output lines; DefaultQueueSize when zero.
	QueueSize int
}

// DefaultQueueSize is the output queue capacity when Spec leaves it unset.
const DefaultQueueSize = 1024

// DefaultGrace is how long a killed group gets between the graceful and
// the forceful signal.
const DefaultGrace = 3 * time.Second

// ErrSlotBusy is returned when a slot already runs a process.
var ErrSlotBusy = errors.New("execution slot busy")

// SpawnError reports a process that could not be started. No Handle
// exists for it.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
