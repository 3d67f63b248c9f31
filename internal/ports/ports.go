// Package ports finds the HTTP port a launched application will bind and
// whether something already holds it.
package ports

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// DefaultServerPort is Spring Boot's default HTTP port.
const DefaultServerPort = 8080

var serverPortArg = regexp.MustCompile(`^-Dserver\.port=(\d+)$`)

// ServerPort returns the port the application is configured to listen
// on: a -Dserver.port JVM argument wins over the server.port property,
// and DefaultServerPort applies when neither is set. Zero means the
// application picks a random port.
func ServerPort(props map[string]string, jvmArgs []string) int {
	port := DefaultServerPort
	if v, ok := props["server.port"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			port = n
		}
	}
	for _, a := range jvmArgs {
		if m := serverPortArg.FindStringSubmatch(a); m != nil {
			port, _ = strconv.Atoi(m[1])
		}
	}
	return port
}

// IsPortAvailable checks if a port is available for binding
func IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// FindAvailablePort finds the next available port starting from the given port
func FindAvailablePort(startPort int) int {
	for i := 0; i < 100; i++ {
		port := startPort + i
		if port > 65535 {
			break
		}
		if IsPortAvailable(port) {
			return port
		}
	}
	return 0
}

// Owner returns the PID listening on port, or 0 when it cannot be told.
func Owner(port int) int {
	conns, err := psnet.Connections("tcp")
	if err != nil {
		return 0
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == port && c.Pid > 0 {
			return int(c.Pid)
		}
	}
	return 0
}

// Conflict describes a busy port.
type Conflict struct {
	Port int
	// PID holds the port, 0 when unknown.
	PID int
	// Next is the first free port after Port, 0 when none was found.
	Next int
}

func (c Conflict) String() string {
	owner := "another process"
	if c.PID > 0 {
		owner = fmt.Sprintf("PID %d", c.PID)
	}
	return fmt.Sprintf("port %d is held by %s", c.Port, owner)
}

// Check returns a Conflict when port is taken.
func Check(port int) (Conflict, bool) {
	if port <= 0 || IsPortAvailable(port) {
		return Conflict{}, false
	}
	return Conflict{Port: port, PID: Owner(port), Next: FindAvailablePort(port + 1)}, true
}

// ShiftArg returns the JVM argument that moves the application to port.
func ShiftArg(port int) string {
	return "-Dserver.port=" + strconv.Itoa(port)
}
