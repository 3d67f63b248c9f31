package ui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Phreno/lazymvn-sub002/internal/executor"
)

// Phase is what a session runs.
type Phase string

const (
	PhaseBuild Phase = "Build"
	PhaseRun   Phase = "Run"
)

// Status represents the current status of a session
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
	StatusStopped Status = "Stopped"
)

// maxLogLines bounds the scrollback kept per session.
const maxLogLines = 5000

// Session is one module process shown by the dashboard.
type Session struct {
	Name    string
	Phase   Phase
	Command string

	mu        sync.RWMutex
	status    Status
	url       string
	port      int
	exitCode  int
	startTime time.Time
	stats     executor.Stats
	handle    *executor.Handle
	logs      *LogBuffer
}

// NewSession tracks h under name. A nil handle leaves the session pending.
func NewSession(name string, phase Phase, h *executor.Handle) *Session {
	s := &Session{
		Name:   name,
		Phase:  phase,
		status: StatusPending,
		handle: h,
		logs:   NewLogBuffer(maxLogLines),
	}
	if h != nil {
		s.Command = h.Command()
		s.status = StatusRunning
		s.startTime = h.StartedAt()
	}
	return s
}

// Handle returns the tracked process.
func (s *Session) Handle() *executor.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Status returns the session status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ExitCode is meaningful once the status is Success or Error.
func (s *Session) ExitCode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitCode
}

// URL returns the address the application reported, if any.
func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// SetPort records the port the application was launched on.
func (s *Session) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
	if port > 0 && s.url == "" {
		s.url = fmt.Sprintf("http://localhost:%d", port)
	}
}

// Port returns the known listening port, 0 when unknown.
func (s *Session) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// Logs returns a copy of the scrollback.
func (s *Session) Logs() []string {
	return s.logs.GetAll()
}

// Elapsed is the time since the process started.
func (s *Session) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime).Round(time.Second)
}

// Stats returns the last sampled process statistics.
func (s *Session) Stats() executor.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetStats stores a resource sample.
func (s *Session) SetStats(st executor.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = st
}

// Poll moves up to max buffered messages from the process into the
// session without blocking, and reports how many it took.
func (s *Session) Poll(max int) int {
	h := s.Handle()
	if h == nil {
		return 0
	}
	msgs := h.Output().Drain(max)
	s.Feed(msgs)
	return len(msgs)
}

// Feed applies output messages: lines go to the scrollback and the
// terminal message settles the status.
func (s *Session) Feed(msgs []executor.Message) {
	for _, m := range msgs {
		if !m.Terminal() {
			s.logs.Append(m.Text)
			s.detectURL(m.Text)
			continue
		}

		s.mu.Lock()
		switch m.Kind {
		case executor.KindExit:
			s.exitCode = m.ExitCode
			s.status = StatusSuccess
			if m.ExitCode != 0 {
				s.status = StatusError
			}
		case executor.KindKilled:
			s.status = StatusStopped
		default:
			s.status = StatusError
		}
		s.mu.Unlock()
		s.logs.Append("── " + m.String())
	}
}

// Stop kills the session's process group.
func (s *Session) Stop() error {
	h := s.Handle()
	if h == nil {
		return nil
	}
	return h.Kill()
}

var (
	serverStarted = regexp.MustCompile(`(?i)(tomcat|jetty|netty|undertow) started on port(?:\(s\))?:?\s*(\d+)(?:\s*\((https?)\))?`)
	contextPath   = regexp.MustCompile(`with context path '([^']*)'`)
	localURL      = regexp.MustCompile(`(https?)://(?:localhost|127\.0\.0\.1|0\.0\.0\.0):(\d+)(/[^\s'"]*)?`)
)

// detectURL picks the application address out of embedded server start
// lines. The server banner wins over URLs printed elsewhere in the log.
func (s *Session) detectURL(line string) {
	if m := serverStarted.FindStringSubmatch(line); m != nil {
		port, _ := strconv.Atoi(m[2])
		scheme := strings.ToLower(m[3])
		if scheme == "" {
			scheme = "http"
		}
		url := fmt.Sprintf("%s://localhost:%d", scheme, port)
		if cp := contextPath.FindStringSubmatch(line); cp != nil {
			url += strings.TrimSuffix(cp[1], "/")
		}

		s.mu.Lock()
		s.url, s.port = url, port
		s.mu.Unlock()
		return
	}

	m := localURL.FindStringSubmatch(line)
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.url != "" {
		return
	}
	s.port, _ = strconv.Atoi(m[2])
	s.url = fmt.Sprintf("%s://localhost:%d%s", m[1], s.port, strings.TrimSuffix(m[3], "/"))
}
