package dataport

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the sensor data channel rate. The People Tracking
// firmware streams binary frames at 921600 baud.
const DefaultBaudRate = 921600

// Open opens the binary data channel at path and flushes any stale bytes
// buffered by the OS from a previous session.
func Open(path string, baud int) (serial.Port, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// MockPort replays a byte stream as a data port, delivering it in fixed
// size chunks with an optional delay between reads to simulate serial
// pacing. After the stream is exhausted, reads block until Close (a real
// idle port blocks too).
type MockPort struct {
	mu        sync.Mutex
	remaining []byte
	chunkSize int
	delay     time.Duration
	closed    chan struct{}
	closeOnce sync.Once
}

// NewMockPort creates a MockPort serving stream in chunkSize reads.
func NewMockPort(stream []byte, chunkSize int, delay time.Duration) *MockPort {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	return &MockPort{
		remaining: stream,
		chunkSize: chunkSize,
		delay:     delay,
		closed:    make(chan struct{}),
	}
}

func (m *MockPort) Read(p []byte) (int, error) {
	select {
	case <-m.closed:
		return 0, io.EOF
	default:
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-m.closed:
			return 0, io.EOF
		}
	}

	m.mu.Lock()
	if len(m.remaining) == 0 {
		m.mu.Unlock()
		// Idle port: block until closed.
		<-m.closed
		return 0, io.EOF
	}
	n := m.chunkSize
	if n > len(m.remaining) {
		n = len(m.remaining)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, m.remaining[:n])
	m.remaining = m.remaining[n:]
	m.mu.Unlock()

	return n, nil
}

func (m *MockPort) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

var _ io.ReadCloser = (*MockPort)(nil)
