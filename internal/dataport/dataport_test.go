package dataport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

func testStream(frameNumbers ...uint32) []byte {
	var stream []byte
	for _, n := range frameNumbers {
		stream = append(stream, mmwave.EncodeFrame(n, []mmwave.Point{{X: 1, Y: float32(n)}}, nil, mmwave.TargetEncodingLite)...)
	}
	return stream
}

func TestMonitorDeliversFramesInOrder(t *testing.T) {
	port := NewMockPort(testStream(1, 2, 3), 13, 0)
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))

	id, frames := reader.Subscribe()
	defer reader.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- reader.Monitor(ctx) }()

	for want := uint32(1); want <= 3; want++ {
		select {
		case frame := <-frames:
			assert.Equal(t, want, frame.FrameNumber)
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never arrived", want)
		}
	}

	require.NoError(t, reader.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	port := NewMockPort(nil, 64, 0) // idle port, reads block
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reader.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after cancellation")
	}
}

func TestWaitForStreamSeesFrames(t *testing.T) {
	port := NewMockPort(testStream(7), 16, time.Millisecond)
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- reader.Monitor(ctx) }()

	require.NoError(t, reader.WaitForStream(ctx, 2*time.Second))

	last := reader.LastFrame()
	require.NotNil(t, last)
	assert.Equal(t, uint32(7), last.FrameNumber)

	require.NoError(t, reader.Close())
	<-done
}

func TestWaitForStreamTimesOutOnSilence(t *testing.T) {
	// Noise only, no frames.
	noise := make([]byte, 256)
	port := NewMockPort(noise, 64, time.Millisecond)
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- reader.Monitor(ctx) }()

	err := reader.WaitForStream(ctx, 100*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoStream)

	require.NoError(t, reader.Close())
	<-done
}

func TestSlowSubscriberDropsInsteadOfStalling(t *testing.T) {
	// More frames than the subscriber buffer holds, consumed by nobody.
	numbers := make([]uint32, subscriberBuffer+5)
	for i := range numbers {
		numbers[i] = uint32(i + 1)
	}
	port := NewMockPort(testStream(numbers...), 4096, 0)
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))

	_, frames := reader.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- reader.Monitor(ctx) }()

	// Wait for the decoder to chew through the stream.
	require.Eventually(t, func() bool {
		return reader.Stats().FramesDecoded == uint64(len(numbers))
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, reader.Close())
	<-done

	// The subscriber got the buffered prefix in order; the rest were
	// dropped rather than blocking the read loop.
	var received []uint32
	for frame := range frames {
		received = append(received, frame.FrameNumber)
	}
	assert.LessOrEqual(t, len(received), subscriberBuffer)
	for i, n := range received {
		assert.Equal(t, uint32(i+1), n)
	}
}

func TestFrameArrivalsBounded(t *testing.T) {
	numbers := make([]uint32, arrivalRingSize+20)
	for i := range numbers {
		numbers[i] = uint32(i)
	}
	port := NewMockPort(testStream(numbers...), 1<<20, 0)
	reader := NewReader(port, mmwave.NewParser(mmwave.ParserConfig{}))
	defer reader.Close()

	buf := make([]byte, 1<<20)
	n, err := port.Read(buf)
	require.NoError(t, err)
	reader.pump(buf[:n])

	assert.LessOrEqual(t, len(reader.FrameArrivals()), arrivalRingSize)
}
