// Package sxml implements a streaming, restartable XML 1.0 parser with
// namespace support, intended for long-lived XML streams where
// documents arrive as arbitrary byte chunks over a transport.
//
// Input is consumed through a BufferQueue and may be split at any byte
// boundary, including mid-codepoint. Two facades drive the parser:
// FeedParser, where the caller pushes chunks and polls events, and
// PullParser, which reads from an io.Reader.
package sxml

import "io"

const Version = "0.1.0"

// EventRead is the read side shared by FeedParser and PullParser.
type EventRead interface {
	Next() (Event, error)
	ReadAll(func(Event)) (bool, error)
	Depth() int
}

var _ EventRead = (*FeedParser)(nil)
var _ EventRead = (*PullParser)(nil)

// Parse consumes buf as one complete document and returns its events.
func Parse(buf []byte, options ...ParserOption) ([]Event, error) {
	fp := NewFeedParser(options...)
	fp.Feed(buf)
	fp.FeedEOF()

	var events []Event
	for {
		ev, err := fp.Next()
		if err != nil {
			if err == io.EOF {
				return events, nil
			}
			return nil, err
		}
		events = append(events, ev)
	}
}
