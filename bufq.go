package sxml

// BufferQueue is a zero-copy queue of byte chunks. The decoder consumes
// it byte-wise; a chunk is released as soon as it has been fully
// consumed. Pushed slices are owned by the queue until consumed, so
// callers must not reuse them.
type BufferQueue struct {
	q      [][]byte
	offset int // read position within q[0]
	length int
	eof    bool
}

func NewBufferQueue() *BufferQueue {
	return &BufferQueue{}
}

// Push appends a chunk to the queue. A zero-length chunk is a no-op.
// Push panics if PushEOF has been called.
func (b *BufferQueue) Push(buf []byte) {
	if b.eof {
		panic("sxml: push after eof")
	}
	if len(buf) == 0 {
		return
	}
	b.q = append(b.q, buf)
	b.length += len(buf)
}

// PushEOF marks the end of the stream. No further chunks may be pushed.
func (b *BufferQueue) PushEOF() {
	b.eof = true
}

// EOFPushed reports whether PushEOF has been called.
func (b *BufferQueue) EOFPushed() bool {
	return b.eof
}

// Len returns the number of bytes that have been pushed but not
// consumed yet.
func (b *BufferQueue) Len() int {
	return b.length
}

// Clear drops all unconsumed bytes. The EOF marker, if set, is kept.
func (b *BufferQueue) Clear() {
	b.q = nil
	b.offset = 0
	b.length = 0
}

// readByte consumes a single byte. It returns false when the queue is
// empty, regardless of whether EOF has been signaled.
func (b *BufferQueue) readByte() (byte, bool) {
	if len(b.q) == 0 {
		return 0, false
	}
	front := b.q[0]
	c := front[b.offset]
	b.offset++
	if b.offset >= len(front) {
		b.q[0] = nil
		b.q = b.q[1:]
		b.offset = 0
	}
	b.length--
	return c, true
}
