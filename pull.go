package sxml

import (
	"io"

	"github.com/pkg/errors"
)

const pullReadSize = 4096

// PullParser is the blocking-read facade. It drives the same parser as
// FeedParser, but refills the buffer from an io.Reader whenever the
// parser runs dry.
type PullParser struct {
	q   *BufferQueue
	p   *parser
	src io.Reader
	buf []byte
}

func NewPullParser(src io.Reader, options ...ParserOption) *PullParser {
	q := NewBufferQueue()
	return &PullParser{
		q:   q,
		p:   newParser(q, options...),
		src: src,
		buf: make([]byte, pullReadSize),
	}
}

// Depth reports the number of currently open elements.
func (pp *PullParser) Depth() int {
	return pp.p.depth()
}

// Next returns the next event, reading from the source as needed. It
// returns (nil, io.EOF) once the document has completed. A read that
// returns zero bytes with no error surfaces as ErrWouldBlock so that
// callers on non-blocking sources can retry.
func (pp *PullParser) Next() (Event, error) {
	for {
		ev, err := pp.p.next()
		if err == nil || !IsWouldBlock(err) {
			return ev, err
		}
		if err := pp.fill(); err != nil {
			return nil, err
		}
	}
}

func (pp *PullParser) fill() error {
	n, err := pp.src.Read(pp.buf)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, pp.buf[:n])
		pp.q.Push(chunk)
	}
	switch {
	case err == io.EOF:
		pp.q.PushEOF()
		return nil
	case err != nil:
		return errors.Wrap(err, "failed to read from source")
	case n == 0:
		return ErrWouldBlock
	}
	return nil
}

// ReadAll delivers every remaining event to fn. It returns (true, nil)
// when the document completed, (false, nil) when the source is
// temporarily dry, and (false, err) on a parse or read error.
func (pp *PullParser) ReadAll(fn func(Event)) (bool, error) {
	for {
		ev, err := pp.Next()
		if err != nil {
			switch {
			case err == io.EOF:
				return true, nil
			case IsWouldBlock(err):
				return false, nil
			}
			return false, err
		}
		fn(ev)
	}
}
