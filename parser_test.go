package sxml_test

import (
	"io"
	"testing"

	"github.com/lestrrat-go/sxml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain pulls events until the parser blocks, ends, or fails.
func drain(fp *sxml.FeedParser) ([]sxml.Event, error) {
	var events []sxml.Event
	for {
		ev, err := fp.Next()
		if err != nil {
			if err == io.EOF {
				return events, nil
			}
			return events, err
		}
		events = append(events, ev)
	}
}

func parseKind(t *testing.T, input string, options ...sxml.ParserOption) (sxml.ErrorKind, int64) {
	t.Helper()
	fp := sxml.NewFeedParser(options...)
	fp.Feed([]byte(input))
	fp.FeedEOF()
	_, err := drain(fp)
	var perr *sxml.ErrParse
	require.True(t, sxml.AsParseError(err, &perr), "parse of %q fails, got %v", input, err)
	return perr.Kind, perr.Offset
}

func TestParseDocumentWithHeader(t *testing.T) {
	events, err := sxml.Parse([]byte("<?xml version='1.0'?>\n<r xmlns='u:x' a=\"1\"><c>hi</c></r>"))
	if !assert.NoError(t, err) {
		return
	}
	expected := []sxml.Event{
		&sxml.XMLDecl{Version: "1.0"},
		&sxml.StartElement{
			Name: sxml.Name{URI: "u:x", Local: "r"},
			Attrs: []sxml.Attribute{
				{Name: sxml.Name{Local: "a"}, Value: "1"},
			},
		},
		&sxml.StartElement{
			Name:  sxml.Name{URI: "u:x", Local: "c"},
			Attrs: []sxml.Attribute{},
		},
		&sxml.Text{Content: "hi"},
		&sxml.EndElement{},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestElementMismatchOffset(t *testing.T) {
	fp := sxml.NewFeedParser()
	fp.Feed([]byte(`<r><c></d></r>`))
	fp.FeedEOF()

	events, err := drain(fp)
	if !assert.Len(t, events, 2, "both start elements delivered before the error") {
		return
	}
	var perr *sxml.ErrParse
	if !assert.True(t, sxml.AsParseError(err, &perr)) {
		return
	}
	if !assert.Equal(t, sxml.KindElementMismatch, perr.Kind) {
		return
	}
	if !assert.Equal(t, int64(7), perr.Offset) {
		return
	}
}

func TestByteByByteFeeding(t *testing.T) {
	doc := []byte(`<a xmlns:p='u'><p:b/></a>`)
	fp := sxml.NewFeedParser()

	var events []sxml.Event
	for _, b := range doc {
		fp.Feed([]byte{b})
		for {
			ev, err := fp.Next()
			if err != nil {
				if !assert.True(t, sxml.IsWouldBlock(err), "only starvation between bytes") {
					return
				}
				break
			}
			events = append(events, ev)
		}
	}
	fp.FeedEOF()
	rest, err := drain(fp)
	if !assert.NoError(t, err) {
		return
	}
	events = append(events, rest...)

	expected := []sxml.Event{
		&sxml.StartElement{Name: sxml.Name{Local: "a"}, Attrs: []sxml.Attribute{}},
		&sxml.StartElement{Name: sxml.Name{URI: "u", Local: "b"}, Prefix: "p", Attrs: []sxml.Attribute{}},
		&sxml.EndElement{},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestDuplicateAttribute(t *testing.T) {
	kind, _ := parseKind(t, `<r a="1" a="1"/>`)
	if !assert.Equal(t, sxml.KindDuplicateAttribute, kind) {
		return
	}

	// duplicates must be caught on expanded names, even through
	// different prefixes
	kind, _ = parseKind(t, `<r xmlns:p='u' xmlns:q='u' p:a='1' q:a='2'/>`)
	if !assert.Equal(t, sxml.KindDuplicateAttribute, kind) {
		return
	}
}

func TestReferencesJoinTextRun(t *testing.T) {
	events, err := sxml.Parse([]byte(`<r>&#x26;&amp;&#38;</r>`))
	if !assert.NoError(t, err) {
		return
	}
	expected := []sxml.Event{
		&sxml.StartElement{Name: sxml.Name{Local: "r"}, Attrs: []sxml.Attribute{}},
		&sxml.Text{Content: "&&&"},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestSplitUTF8AcrossFeeds(t *testing.T) {
	doc := []byte("<r>\U0001f600</r>")
	fp := sxml.NewFeedParser()

	// split inside the 4-byte emoji
	fp.Feed(doc[:5])
	ev, err := fp.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.IsType(t, &sxml.StartElement{}, ev) {
		return
	}
	_, err = fp.Next()
	if !assert.True(t, sxml.IsWouldBlock(err), "mid-codepoint starvation is not an error") {
		return
	}

	fp.Feed(doc[5:])
	fp.FeedEOF()
	events, err := drain(fp)
	if !assert.NoError(t, err) {
		return
	}
	expected := []sxml.Event{
		&sxml.Text{Content: "\U0001f600"},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestChunkInvariance(t *testing.T) {
	docs := []string{
		"<?xml version='1.0' encoding='utf-8'?><r xmlns='u' a='1'><c xmlns:p='v'>x<p:d/>y</c></r>",
		"<a>\u00e9\u3042<![CDATA[<raw>]]>tail</a>",
		"<r><c></d></r>", // parse error must also be position-stable
		"<r>text &amp; more&#x21;</r>",
	}
	for _, doc := range docs {
		whole := sxml.NewFeedParser()
		whole.Feed([]byte(doc))
		whole.FeedEOF()
		wantEvents, wantErr := drain(whole)

		for split := 0; split <= len(doc); split++ {
			fp := sxml.NewFeedParser()
			fp.Feed([]byte(doc[:split]))
			fp.Feed([]byte(doc[split:]))
			fp.FeedEOF()
			gotEvents, gotErr := drain(fp)

			require.Equal(t, wantEvents, gotEvents, "events for %q split at %d", doc, split)
			require.Equal(t, wantErr, gotErr, "error for %q split at %d", doc, split)
		}
	}
}

func TestErrorIsSticky(t *testing.T) {
	fp := sxml.NewFeedParser()
	fp.Feed([]byte(`<r></x>`))
	fp.FeedEOF()

	_, first := drain(fp)
	if !assert.Error(t, first) {
		return
	}
	for i := 0; i < 5; i++ {
		_, err := fp.Next()
		if !assert.Equal(t, first, err, "error repeats unchanged") {
			return
		}
	}
}

func TestWhitespaceCommentsOutsideRoot(t *testing.T) {
	bare, err := sxml.Parse([]byte(`<r>x</r>`))
	if !assert.NoError(t, err) {
		return
	}
	decorated, err := sxml.Parse([]byte("\n <!-- pre --> <?pi?>\n<r>x</r> <!-- post -->\n<?pi 2?> "))
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Equal(t, bare, decorated, "decoration outside the root changes nothing") {
		return
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  sxml.ErrorKind
	}{
		{"multiple roots", `<a/><b/>`, sxml.KindMultipleRoots},
		{"content after root", `<a/>x`, sxml.KindContentAfterRoot},
		{"cdata after root", `<a/><![CDATA[x]]>`, sxml.KindContentAfterRoot},
		{"text before root", `x<a/>`, sxml.KindUnexpectedChar},
		{"stray end tag", `<a/></b>`, sxml.KindElementMismatch},
		{"unclosed element", `<a><b>`, sxml.KindUnexpectedEOF},
		{"empty input", ``, sxml.KindUnexpectedEOF},
		{"whitespace only", "  \n ", sxml.KindUnexpectedEOF},
		{"doctype after root", `<a/><!DOCTYPE a>`, sxml.KindUnsupportedDoctype},
		{"doctype twice", `<!DOCTYPE a><!DOCTYPE a><a/>`, sxml.KindUnsupportedDoctype},
		{"doctype inside root", `<a><!DOCTYPE a></a>`, sxml.KindUnsupportedDoctype},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, _ := parseKind(t, tc.input)
			if !assert.Equal(t, tc.kind, kind) {
				return
			}
		})
	}
}

func TestMalformedNames(t *testing.T) {
	tests := []string{
		`<a:b:c/>`,
		`<:a/>`,
		`<a:/>`,
		`<r x:y:z="1"/>`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			kind, _ := parseKind(t, input)
			if !assert.Equal(t, sxml.KindMalformedName, kind) {
				return
			}
		})
	}
}

func TestNamespaceDeclarations(t *testing.T) {
	events, err := sxml.Parse([]byte(`<x:a xmlns:x='u'><b xml:lang='en'/></x:a>`))
	if !assert.NoError(t, err) {
		return
	}
	expected := []sxml.Event{
		&sxml.StartElement{Name: sxml.Name{URI: "u", Local: "a"}, Prefix: "x", Attrs: []sxml.Attribute{}},
		&sxml.StartElement{
			Name: sxml.Name{Local: "b"},
			Attrs: []sxml.Attribute{
				{Name: sxml.Name{URI: sxml.XMLNamespace, Local: "lang"}, Prefix: "xml", Value: "en"},
			},
		},
		&sxml.EndElement{},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestDefaultNamespaceUndeclaration(t *testing.T) {
	events, err := sxml.Parse([]byte(`<r xmlns='u'><c xmlns=''/></r>`))
	if !assert.NoError(t, err) {
		return
	}
	expected := []sxml.Event{
		&sxml.StartElement{Name: sxml.Name{URI: "u", Local: "r"}, Attrs: []sxml.Attribute{}},
		&sxml.StartElement{Name: sxml.Name{Local: "c"}, Attrs: []sxml.Attribute{}},
		&sxml.EndElement{},
		&sxml.EndElement{},
	}
	if !assert.Equal(t, expected, events) {
		return
	}
}

func TestNamespaceScoping(t *testing.T) {
	// the binding for p ends with c, so the second use fails
	kind, _ := parseKind(t, `<r><c xmlns:p='u'><p:x/></c><p:y/></r>`)
	if !assert.Equal(t, sxml.KindUndeclaredPrefix, kind) {
		return
	}
}

func TestNamespaceErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  sxml.ErrorKind
	}{
		{"undeclared element prefix", `<p:r/>`, sxml.KindUndeclaredPrefix},
		{"undeclared attribute prefix", `<r p:a='1'/>`, sxml.KindUndeclaredPrefix},
		{"declaring xmlns", `<r xmlns:xmlns='u'/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"rebinding xml", `<r xmlns:xml='u'/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"stealing the xml uri", `<r xmlns:a='http://www.w3.org/XML/1998/namespace'/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"stealing the xmlns uri", `<r xmlns:a='http://www.w3.org/2000/xmlns/'/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"default ns to xml uri", `<r xmlns='http://www.w3.org/XML/1998/namespace'/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"undeclaring a prefix", `<r xmlns:p=''/>`, sxml.KindIllegalNamespaceRedeclaration},
		{"duplicate prefix declaration", `<r xmlns:p='u' xmlns:p='v'/>`, sxml.KindDuplicateAttribute},
		{"duplicate default declaration", `<r xmlns='u' xmlns='v'/>`, sxml.KindDuplicateAttribute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, _ := parseKind(t, tc.input)
			if !assert.Equal(t, tc.kind, kind) {
				return
			}
		})
	}
}

func TestRedundantXMLPrefixDeclaration(t *testing.T) {
	_, err := sxml.Parse([]byte(`<r xmlns:xml='http://www.w3.org/XML/1998/namespace'/>`))
	if !assert.NoError(t, err, "restating the fixed xml binding is allowed") {
		return
	}
}

func TestTextCoalescing(t *testing.T) {
	// CDATA joins the surrounding text run
	events, err := sxml.Parse([]byte(`<r>a<![CDATA[b]]>c</r>`))
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Equal(t, sxml.Event(&sxml.Text{Content: "abc"}), events[1]) {
		return
	}
	if !assert.Len(t, events, 3) {
		return
	}

	// a comment splits it
	events, err = sxml.Parse([]byte(`<r>a<!-- x -->b</r>`))
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Equal(t, sxml.Event(&sxml.Text{Content: "a"}), events[1]) {
		return
	}
	if !assert.Equal(t, sxml.Event(&sxml.Text{Content: "b"}), events[2]) {
		return
	}
}

func TestDepthLimit(t *testing.T) {
	kind, _ := parseKind(t, `<a><b><c><d/></c></b></a>`, sxml.WithMaxDepth(3))
	if !assert.Equal(t, sxml.KindRestricted, kind) {
		return
	}

	_, err := sxml.Parse([]byte(`<a><b><c/></b></a>`), sxml.WithMaxDepth(3))
	if !assert.NoError(t, err, "limit is inclusive") {
		return
	}
}

func TestAttributeLimit(t *testing.T) {
	kind, _ := parseKind(t, `<r a='1' b='2' c='3'/>`, sxml.WithMaxAttributes(2))
	if !assert.Equal(t, sxml.KindRestricted, kind) {
		return
	}

	// namespace declarations count against the limit
	kind, _ = parseKind(t, `<r xmlns:p='u' a='1' b='2'/>`, sxml.WithMaxAttributes(2))
	if !assert.Equal(t, sxml.KindRestricted, kind) {
		return
	}
}

func TestNamespaceLimit(t *testing.T) {
	kind, _ := parseKind(t, `<r xmlns:a='1' xmlns:b='2' xmlns:c='3'/>`, sxml.WithMaxNamespaces(2))
	if !assert.Equal(t, sxml.KindRestricted, kind) {
		return
	}
}

func TestCoalescedTextRespectsLimit(t *testing.T) {
	kind, _ := parseKind(t, `<r>abc<![CDATA[def]]></r>`, sxml.WithMaxTokenLength(4))
	if !assert.Equal(t, sxml.KindRestricted, kind) {
		return
	}
}

func TestFeedParserBookkeeping(t *testing.T) {
	fp := sxml.NewFeedParser()
	fp.Feed([]byte(`<a><b>`))
	if !assert.Equal(t, 6, fp.Buffered()) {
		return
	}

	ev, err := fp.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.IsType(t, &sxml.StartElement{}, ev) {
		return
	}
	if !assert.Equal(t, 1, fp.Depth()) {
		return
	}

	ev, err = fp.Next()
	if !assert.NoError(t, err) {
		return
	}
	if !assert.IsType(t, &sxml.StartElement{}, ev) {
		return
	}
	if !assert.Equal(t, 2, fp.Depth()) {
		return
	}
	if !assert.Equal(t, 0, fp.Buffered(), "all bytes consumed") {
		return
	}
}

func TestReadAll(t *testing.T) {
	fp := sxml.NewFeedParser()
	fp.Feed([]byte(`<a>one`))

	var count int
	done, err := fp.ReadAll(func(sxml.Event) { count++ })
	if !assert.NoError(t, err) {
		return
	}
	if !assert.False(t, done, "document not complete yet") {
		return
	}
	if !assert.Equal(t, 1, count, "start element delivered") {
		return
	}

	fp.Feed([]byte(`</a>`))
	fp.FeedEOF()
	done, err = fp.ReadAll(func(sxml.Event) { count++ })
	if !assert.NoError(t, err) {
		return
	}
	if !assert.True(t, done) {
		return
	}
	if !assert.Equal(t, 3, count, "text and end element delivered") {
		return
	}
}
