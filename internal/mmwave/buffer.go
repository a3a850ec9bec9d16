package mmwave

// streamBuffer owns the bytes accumulated between Parse calls. The consumed
// prefix is dropped by advancing an index rather than reslicing-and-copying
// on every frame; the backing array is compacted once the dead prefix grows
// past compactThreshold so memory stays bounded on long-lived connections.
type streamBuffer struct {
	data  []byte
	start int
}

// compactThreshold is the dead-prefix size that triggers a compaction.
const compactThreshold = 4096

// append grows the buffer with newly-read bytes.
func (b *streamBuffer) append(p []byte) {
	b.data = append(b.data, p...)
}

// window returns the live (unconsumed) portion of the buffer.
func (b *streamBuffer) window() []byte {
	return b.data[b.start:]
}

// len returns the number of live bytes.
func (b *streamBuffer) len() int {
	return len(b.data) - b.start
}

// drop consumes n bytes from the front of the window.
func (b *streamBuffer) drop(n int) {
	if n > b.len() {
		n = b.len()
	}
	b.start += n
	if b.start == len(b.data) {
		b.data = b.data[:0]
		b.start = 0
		return
	}
	if b.start > compactThreshold {
		b.compact()
	}
}

// retainTail discards everything but the last n live bytes and compacts.
// Used after a failed sync so that at most MagicLength-1 bytes survive a
// garbage-only read.
func (b *streamBuffer) retainTail(n int) {
	if live := b.len(); live > n {
		b.start += live - n
	}
	b.compact()
}

func (b *streamBuffer) compact() {
	if b.start == 0 {
		return
	}
	n := copy(b.data, b.data[b.start:])
	b.data = b.data[:n]
	b.start = 0
}
