package sxml_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/lestrrat-go/sxml"
	"github.com/stretchr/testify/assert"
)

// oneByteReader returns a single byte per Read call.
type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestPullParser(t *testing.T) {
	doc := `<?xml version="1.0"?><r xmlns="u"><c>body</c></r>`

	events := func(src io.Reader) []sxml.Event {
		p := sxml.NewPullParser(src)
		var out []sxml.Event
		for {
			ev, err := p.Next()
			if err == io.EOF {
				return out
			}
			if !assert.NoError(t, err) {
				t.FailNow()
			}
			out = append(out, ev)
		}
	}

	whole := events(strings.NewReader(doc))
	if !assert.Len(t, whole, 6) {
		return
	}

	trickled := events(oneByteReader{strings.NewReader(doc)})
	if !assert.Equal(t, whole, trickled, "read granularity does not change the event stream") {
		return
	}
}

func TestPullParserReadAll(t *testing.T) {
	p := sxml.NewPullParser(strings.NewReader(`<a>x</a>`))

	var events []sxml.Event
	done, err := p.ReadAll(func(ev sxml.Event) { events = append(events, ev) })
	if !assert.NoError(t, err) {
		return
	}
	if !assert.True(t, done) {
		return
	}
	expected := []sxml.Event{
		&sxml.StartElement{Name: sxml.Name{Local: "a"}, Attrs: []sxml.Attribute{}},
		&sxml.Text{Content: "x"},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

// stallReader yields its payload, then reports (0, nil) forever.
type stallReader struct {
	payload []byte
}

func (s *stallReader) Read(p []byte) (int, error) {
	n := copy(p, s.payload)
	s.payload = s.payload[n:]
	return n, nil
}

func TestPullParserStalledSource(t *testing.T) {
	p := sxml.NewPullParser(&stallReader{payload: []byte(`<a>`)})

	ev, err := p.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.IsType(t, &sxml.StartElement{}, ev) {
		return
	}

	_, err = p.Next()
	if !assert.True(t, sxml.IsWouldBlock(err), "a zero-byte read surfaces as starvation") {
		return
	}
}

func TestPullParserPropagatesReadError(t *testing.T) {
	src := io.MultiReader(strings.NewReader(`<a>`), iotestErrReader{})
	p := sxml.NewPullParser(src)

	ev, err := p.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.IsType(t, &sxml.StartElement{}, ev) {
		return
	}

	_, err = p.Next()
	if !assert.Error(t, err) {
		return
	}
	if !assert.Contains(t, err.Error(), "closed pipe") {
		return
	}
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestParseConvenience(t *testing.T) {
	events, err := sxml.Parse([]byte(`<greeting who="world">hi</greeting>`))
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Len(t, events, 3) {
		return
	}

	_, err = sxml.Parse([]byte(`<broken`))
	if !assert.Error(t, err, "truncated document fails") {
		return
	}
}

func TestFeedCopiesChunk(t *testing.T) {
	fp := sxml.NewFeedParser()
	buf := []byte(`<a>`)
	fp.Feed(buf)
	copy(buf, []byte(`xxx`)) // caller reuses its buffer

	ev, err := fp.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Equal(t, sxml.Event(&sxml.StartElement{Name: sxml.Name{Local: "a"}, Attrs: []sxml.Attribute{}}), ev) {
		return
	}
}

func TestParseLargeDocumentBuffered(t *testing.T) {
	var b bytes.Buffer
	b.WriteString(`<root>`)
	for i := 0; i < 500; i++ {
		b.WriteString(`<item attr="value">content</item>`)
	}
	b.WriteString(`</root>`)

	events, err := sxml.Parse(b.Bytes())
	if !assert.NoError(t, err) {
		return
	}
	// root open/close plus 3 events per item
	if !assert.Len(t, events, 2+500*3) {
		return
	}
}
