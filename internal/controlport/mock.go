package controlport

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// MockPort implements SerialPorter in memory for tests and dev mode. Every
// command line written to it is recorded and answered with scripted console
// output (by default a single "Done" acknowledgement), mimicking the
// sensor's CLI behaviour.
type MockPort struct {
	mu       sync.Mutex
	commands []string
	incoming chan []byte
	pending  []byte
	closed   bool

	// ResponseFor overrides the scripted response for a command. A nil
	// function or nil return acknowledges with "Done".
	ResponseFor func(command string) []string
}

// NewMockPort creates a MockPort ready for use.
func NewMockPort() *MockPort {
	return &MockPort{incoming: make(chan []byte, 64)}
}

// Commands returns a copy of the command lines written so far.
func (m *MockPort) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	copy(out, m.commands)
	return out
}

// Inject queues console output as if the sensor had emitted it.
func (m *MockPort) Inject(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.incoming <- []byte(line + "\n")
}

func (m *MockPort) Read(p []byte) (int, error) {
	if len(m.pending) == 0 {
		chunk, ok := <-m.incoming
		if !ok {
			return 0, io.EOF
		}
		m.pending = chunk
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	command := strings.TrimSpace(string(p))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, errors.New("mock port closed")
	}
	m.commands = append(m.commands, command)
	responses := []string{"Done"}
	if m.ResponseFor != nil {
		if r := m.ResponseFor(command); r != nil {
			responses = r
		}
	}
	for _, line := range responses {
		m.incoming <- []byte(line + "\n")
	}
	m.mu.Unlock()

	return len(p), nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.incoming)
	}
	return nil
}
