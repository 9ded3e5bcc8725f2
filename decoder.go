package sxml

import "io"

// decoder turns the byte queue into a stream of Unicode scalar values
// annotated with the byte offset of their first octet. It validates
// UTF-8 incrementally: a multi-byte sequence split across Push
// boundaries survives suspension because the consumed prefix is held in
// partial until the sequence completes.
//
// Line ends are normalized here: "\r\n" and a lone "\r" both come out as
// a single '\n', with the offset of the original '\r'.
type decoder struct {
	q        *BufferQueue
	offset   int64 // total bytes consumed from the logical stream
	partial  [4]byte
	npartial int
	need     int
	start    int64 // offset of the first byte of the pending sequence
	skipLF   bool  // last rune was a normalized '\r'; swallow one '\n'
}

func newDecoder(q *BufferQueue) *decoder {
	return &decoder{q: q}
}

// next returns the next codepoint and the byte offset where it began.
// It returns ErrWouldBlock when the queue has run dry without EOF, and
// io.EOF once the stream is cleanly exhausted.
func (d *decoder) next() (rune, int64, error) {
	for {
		r, at, err := d.decodeOne()
		if err != nil {
			return 0, 0, err
		}
		if d.skipLF {
			d.skipLF = false
			if r == '\n' {
				continue
			}
		}
		if !isChar(r) {
			return 0, 0, newErrorf(KindInvalidChar, at, "codepoint U+%04X not allowed in XML", r)
		}
		if r == '\r' {
			d.skipLF = true
			r = '\n'
		}
		return r, at, nil
	}
}

func (d *decoder) decodeOne() (rune, int64, error) {
	for {
		c, ok := d.q.readByte()
		if !ok {
			if !d.q.EOFPushed() {
				return 0, 0, ErrWouldBlock
			}
			if d.npartial > 0 {
				return 0, 0, newError(KindUnexpectedEOF, d.offset, "end of input within utf-8 sequence")
			}
			return 0, 0, io.EOF
		}

		if d.npartial == 0 {
			d.start = d.offset
			d.offset++
			switch {
			case c < 0x80:
				return rune(c), d.start, nil
			case c&0xe0 == 0xc0:
				d.need = 2
			case c&0xf0 == 0xe0:
				d.need = 3
			case c&0xf8 == 0xf0:
				d.need = 4
			default:
				return 0, 0, newErrorf(KindInvalidUTF8, d.start, "invalid start byte 0x%02x", c)
			}
			d.partial[0] = c
			d.npartial = 1
			continue
		}

		if c&0xc0 != 0x80 {
			at := d.offset
			d.npartial = 0
			return 0, 0, newErrorf(KindInvalidUTF8, at, "invalid continuation byte 0x%02x", c)
		}
		d.partial[d.npartial] = c
		d.npartial++
		d.offset++
		if d.npartial < d.need {
			continue
		}

		raw := decodeRaw(d.partial[:d.need])
		at := d.start
		n := d.need
		d.npartial = 0
		switch {
		case raw < minScalar[n]:
			return 0, 0, newErrorf(KindInvalidUTF8, at, "overlong %d-byte encoding of U+%04X", n, raw)
		case 0xd800 <= raw && raw <= 0xdfff:
			return 0, 0, newErrorf(KindInvalidUTF8, at, "surrogate codepoint U+%04X", raw)
		case raw > 0x10ffff:
			return 0, 0, newErrorf(KindInvalidUTF8, at, "codepoint out of range: %#x", raw)
		}
		return rune(raw), at, nil
	}
}

// minScalar[n] is the smallest scalar value that requires n bytes.
var minScalar = [5]uint32{0, 0, 0x80, 0x800, 0x10000}

func decodeRaw(seq []byte) uint32 {
	var raw uint32
	switch len(seq) {
	case 2:
		raw = uint32(seq[0] & 0x1f)
	case 3:
		raw = uint32(seq[0] & 0x0f)
	case 4:
		raw = uint32(seq[0] & 0x07)
	}
	for _, c := range seq[1:] {
		raw = raw<<6 | uint32(c&0x3f)
	}
	return raw
}
