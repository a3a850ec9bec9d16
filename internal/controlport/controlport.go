// Package controlport multiplexes the sensor's line-oriented command
// console: multiple clients can subscribe to console output while commands
// are written one at a time. The sensor acknowledges each command line with
// a textual status ("Done" on success), so configuration scripts are sent
// line by line inside an acknowledgement window. The contents of the
// commands are not interpreted here.
package controlport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("controlport: short write to serial port")

// DefaultAckWindow bounds how long a command waits for the sensor's
// acknowledgement line.
const DefaultAckWindow = 2 * time.Second

// subscriberBuffer is the per-subscriber channel depth. Console output is
// bursty around command acks; a small buffer keeps the ack scanner from
// racing the fan-out.
const subscriberBuffer = 16

// Muxer is the interface the rest of the system consumes.
type Muxer interface {
	// Subscribe creates a channel receiving console lines. The returned id
	// identifies the channel for Unsubscribe.
	Subscribe() (string, chan string)
	Unsubscribe(string)
	// SendCommand writes one command line to the console without waiting
	// for an acknowledgement.
	SendCommand(string) error
	// SendCommandAwait writes one command line and collects console output
	// until the sensor acknowledges or the window elapses.
	SendCommandAwait(ctx context.Context, command string, window time.Duration) ([]string, error)
	// SendConfig streams a configuration script line by line, awaiting an
	// acknowledgement after each line. Blank lines and %-comments are
	// skipped; command semantics are not interpreted.
	SendConfig(ctx context.Context, script io.Reader) error
	// Monitor reads console lines and fans them out to subscribers until
	// the context ends or the port fails.
	Monitor(context.Context) error
	Close() error
}

// Mux multiplexes a single command console across subscribers.
type Mux[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewMux wraps an open console port.
func NewMux[T SerialPorter](port T) *Mux[T] {
	return &Mux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

func (m *Mux[T]) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, subscriberBuffer)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

func (m *Mux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// SendCommand writes a single newline-terminated command to the console.
func (m *Mux[T]) SendCommand(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// ackStatus classifies a console line as an acknowledgement terminator.
// The People Tracking CLI closes every command with "Done" or an error
// report.
func ackStatus(line string) (done, failed bool) {
	switch {
	case strings.Contains(line, "Done"):
		return true, false
	case strings.Contains(line, "Error"), strings.Contains(line, "not recognized"):
		return true, true
	}
	return false, false
}

func (m *Mux[T]) SendCommandAwait(ctx context.Context, command string, window time.Duration) ([]string, error) {
	if window <= 0 {
		window = DefaultAckWindow
	}

	// Subscribe before writing so the acknowledgement cannot slip past.
	id, lines := m.Subscribe()
	defer m.Unsubscribe(id)

	if err := m.SendCommand(command); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(window)
	defer deadline.Stop()

	var collected []string
	for {
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		case <-deadline.C:
			return collected, fmt.Errorf("controlport: no acknowledgement for %q within %v", strings.TrimSpace(command), window)
		case line, ok := <-lines:
			if !ok {
				return collected, fmt.Errorf("controlport: console closed awaiting acknowledgement for %q", strings.TrimSpace(command))
			}
			collected = append(collected, line)
			done, failed := ackStatus(line)
			if failed {
				return collected, fmt.Errorf("controlport: sensor rejected %q: %s", strings.TrimSpace(command), line)
			}
			if done {
				return collected, nil
			}
		}
	}
}

func (m *Mux[T]) SendConfig(ctx context.Context, script io.Reader) error {
	scan := bufio.NewScanner(script)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if _, err := m.SendCommandAwait(ctx, line, DefaultAckWindow); err != nil {
			return fmt.Errorf("controlport: config line %d: %w", lineNo, err)
		}
		monitoring.Debugf("controlport: config line %d acknowledged: %s", lineNo, line)
	}
	return scan.Err()
}

// Probe checks whether the port behind the mux is the command console by
// sending sensorStop and waiting for any textual response. A data port
// would answer with binary frames, which never produce an acknowledgement
// line.
func (m *Mux[T]) Probe(ctx context.Context) error {
	_, err := m.SendCommandAwait(ctx, "sensorStop", DefaultAckWindow)
	return err
}

// Monitor reads console lines and fans them out to subscribers. It returns
// when the context is cancelled, the port errors, or the console closes.
func (m *Mux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan runs in its own goroutine so the outer loop can
	// await lines and cancellation at the same time.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return scan.Err()
			}

			m.closingMu.Lock()
			closing := m.closing
			m.closingMu.Unlock()
			if closing {
				return nil
			}

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- line:
				default:
					// Skip a full subscriber rather than stall the console.
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

func (m *Mux[T]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.port.Close()
}

// NewSerialMux opens the command console at path and wraps it in a Mux.
func NewSerialMux(path string, baud int) (*Mux[SerialPorter], error) {
	port, err := Open(path, baud)
	if err != nil {
		return nil, err
	}
	return NewMux[SerialPorter](port), nil
}

var _ Muxer = (*Mux[SerialPorter])(nil)
