// Package dataport owns the sensor's binary data channel: it reads raw
// chunks from the serial port, feeds them through the frame decoder, and
// fans decoded frames out to subscribers. The decoder itself never touches
// I/O; this package is the single producer that owns the parser's buffer.
package dataport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

// readChunkSize is the per-read buffer. The sensor emits a frame every
// 50-100ms at 921600 baud, so a frame rarely spans more than two reads.
const readChunkSize = 8192

// subscriberBuffer is the per-subscriber frame channel depth. A slow
// consumer drops frames rather than stalling the read loop.
const subscriberBuffer = 8

// ErrNoStream is returned by WaitForStream when no magic word shows up
// inside the deadline, typically because the sensor was never started.
var ErrNoStream = errors.New("dataport: no frame data on port")

// Reader pumps the data channel into a frame decoder.
type Reader struct {
	port   io.ReadCloser
	parser *mmwave.Parser

	subscriberMu sync.Mutex
	subscribers  map[string]chan mmwave.RadarFrame

	frameMu   sync.Mutex
	lastFrame *mmwave.RadarFrame
	arrivals  []time.Time
	closing   bool
}

// arrivalRingSize bounds the retained frame arrival timestamps used for
// inter-frame interval statistics.
const arrivalRingSize = 256

// NewReader wraps an open data port and a decoder.
func NewReader(port io.ReadCloser, parser *mmwave.Parser) *Reader {
	return &Reader{
		port:        port,
		parser:      parser,
		subscribers: make(map[string]chan mmwave.RadarFrame),
	}
}

// Subscribe creates a channel receiving decoded frames in arrival order.
func (r *Reader) Subscribe() (string, chan mmwave.RadarFrame) {
	id := uuid.NewString()
	ch := make(chan mmwave.RadarFrame, subscriberBuffer)
	r.subscriberMu.Lock()
	defer r.subscriberMu.Unlock()
	r.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (r *Reader) Unsubscribe(id string) {
	r.subscriberMu.Lock()
	defer r.subscriberMu.Unlock()
	if ch, ok := r.subscribers[id]; ok {
		close(ch)
		delete(r.subscribers, id)
	}
}

// Stats returns the decoder's counters.
func (r *Reader) Stats() mmwave.Stats {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return r.parser.Stats()
}

// LastFrame returns the most recently decoded frame, or nil before the
// first frame arrives.
func (r *Reader) LastFrame() *mmwave.RadarFrame {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return r.lastFrame
}

// FrameArrivals returns a copy of the recent frame arrival timestamps,
// oldest first.
func (r *Reader) FrameArrivals() []time.Time {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	out := make([]time.Time, len(r.arrivals))
	copy(out, r.arrivals)
	return out
}

// WaitForStream polls until the decoder has emitted at least one frame or
// the deadline passes. Monitor must already be running; the poll never
// touches the port, so there is exactly one reader. Use at startup to
// distinguish "sensor never started" from "stream live".
func (r *Reader) WaitForStream(ctx context.Context, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	for {
		if r.Stats().FramesDecoded > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			if r.Stats().FramesDecoded > 0 {
				return nil
			}
			return fmt.Errorf("%w after %v", ErrNoStream, deadline)
		case <-tick.C:
		}
	}
}

// Monitor runs the read loop until the context ends or the port fails. A
// closed port during shutdown is reported as nil.
func (r *Reader) Monitor(ctx context.Context) error {
	readErr := make(chan error, 1)

	// Blocking reads run in their own goroutine so cancellation does not
	// wait on the port.
	go func() {
		buf := make([]byte, readChunkSize)
		for {
			n, err := r.port.Read(buf)
			if n > 0 {
				r.pump(buf[:n])
			}
			if err != nil {
				readErr <- err
				return
			}
			if ctx.Err() != nil {
				readErr <- nil
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		// Unblock the pending read; the goroutine exits on the error.
		r.port.Close()
		return ctx.Err()
	case err := <-readErr:
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		r.frameMu.Lock()
		closing := r.closing
		r.frameMu.Unlock()
		if closing {
			return nil
		}
		return fmt.Errorf("dataport: read: %w", err)
	}
}

// pump feeds one chunk through the decoder and fans out resulting frames.
// Returns the number of frames decoded from this chunk.
func (r *Reader) pump(chunk []byte) int {
	r.frameMu.Lock()
	frames := r.parser.Parse(chunk)
	now := time.Now()
	for i := range frames {
		r.lastFrame = &frames[i]
		r.arrivals = append(r.arrivals, now)
	}
	if len(r.arrivals) > arrivalRingSize {
		r.arrivals = r.arrivals[len(r.arrivals)-arrivalRingSize:]
	}
	r.frameMu.Unlock()

	if len(frames) == 0 {
		return 0
	}

	r.subscriberMu.Lock()
	for _, ch := range r.subscribers {
		for _, frame := range frames {
			select {
			case ch <- frame:
			default:
				monitoring.Debugf("dataport: dropping frame %d for slow subscriber", frame.FrameNumber)
			}
		}
	}
	r.subscriberMu.Unlock()

	return len(frames)
}

// Close closes subscribers and the underlying port.
func (r *Reader) Close() error {
	r.frameMu.Lock()
	r.closing = true
	r.frameMu.Unlock()

	r.subscriberMu.Lock()
	for id, ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, id)
	}
	r.subscriberMu.Unlock()

	return r.port.Close()
}
