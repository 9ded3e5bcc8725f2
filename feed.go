package sxml

import "io"

// FeedParser is the push-mode facade. Callers hand it byte chunks of
// any size, including empty, and poll for events as they become
// available. Next returns ErrWouldBlock whenever the buffered bytes do
// not complete the next event.
type FeedParser struct {
	q *BufferQueue
	p *parser
}

func NewFeedParser(options ...ParserOption) *FeedParser {
	q := NewBufferQueue()
	return &FeedParser{
		q: q,
		p: newParser(q, options...),
	}
}

// Feed appends a chunk of input. The bytes are copied, so the caller
// may reuse buf. Feed panics if called after FeedEOF.
func (fp *FeedParser) Feed(buf []byte) {
	if len(buf) == 0 {
		return
	}
	chunk := make([]byte, len(buf))
	copy(chunk, buf)
	fp.q.Push(chunk)
}

// FeedEOF marks the end of input. No more chunks may be fed.
func (fp *FeedParser) FeedEOF() {
	fp.q.PushEOF()
}

// Buffered reports the number of bytes fed but not yet consumed.
func (fp *FeedParser) Buffered() int {
	return fp.q.Len()
}

// Depth reports the number of currently open elements.
func (fp *FeedParser) Depth() int {
	return fp.p.depth()
}

// Next returns the next event. It returns ErrWouldBlock when more
// input is needed, and (nil, io.EOF) once the document has completed.
func (fp *FeedParser) Next() (Event, error) {
	return fp.p.next()
}

// ReadAll delivers every available event to fn. It returns (true, nil)
// when the document completed, (false, nil) when the parser ran out of
// input, and (false, err) on a parse error.
func (fp *FeedParser) ReadAll(fn func(Event)) (bool, error) {
	return readAll(fp.p, fn)
}

func readAll(p *parser, fn func(Event)) (bool, error) {
	for {
		ev, err := p.next()
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
