package sxml

import (
	"io"
	"strings"

	"github.com/lestrrat-go/pdebug/v3"
	"github.com/lestrrat-go/sxml/internal/nsstack"
	"github.com/lestrrat-go/sxml/internal/orderedmap"
)

// Reserved namespace URIs.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

type parserState int

const (
	psProlog  parserState = iota // before the root element
	psContent                    // inside the root element
	psEpilog                     // after the root element closed
	psDone                       // end of document reached
)

// elemFrame is one open element. rawName is the qname exactly as
// written, compared byte-for-byte against the matching end tag.
type elemFrame struct {
	rawName string
	nsMark  int
}

// rawAttr is an ordinary (non-xmlns) attribute awaiting namespace
// resolution once the whole start tag has been lexed.
type rawAttr struct {
	prefix string
	local  string
	value  string
	offset int64
}

// tagFrame accumulates one start tag while its attributes arrive.
type tagFrame struct {
	rawName   string
	prefix    string
	local     string
	offset    int64
	nsMark    int
	attrs     []rawAttr
	attrCount int

	// attribute currently between its name and value tokens
	curPrefix string
	curLocal  string
	curOffset int64
}

type parser struct {
	lex    *lexer
	limits limits
	ns     *nsstack.Stack
	state  parserState

	stack []elemFrame
	tag   *tagFrame
	decl  *XMLDecl

	sawDoctype bool
	sawRoot    bool

	text []byte

	queued []Event
	err    error
}

func newParser(q *BufferQueue, options ...ParserOption) *parser {
	lim := applyOptions(options...)
	return &parser{
		lex:    newLexer(newDecoder(q), lim),
		limits: lim,
		ns:     nsstack.New(),
	}
}

func (p *parser) depth() int {
	return len(p.stack)
}

// next returns the next event. It returns (nil, io.EOF) once the
// document has ended, and ErrWouldBlock when more input is needed.
// Any other error is sticky.
func (p *parser) next() (Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	for {
		if len(p.queued) > 0 {
			ev := p.queued[0]
			p.queued = p.queued[1:]
			return ev, nil
		}
		if p.state == psDone {
			return nil, io.EOF
		}
		tok, err := p.lex.next()
		if err != nil {
			if isFatal(err) {
				p.err = err
			}
			return nil, err
		}
		if err := p.handle(tok); err != nil {
			p.err = err
			return nil, err
		}
	}
}

func (p *parser) handle(tok token) error {
	if pdebug.Enabled {
		pdebug.Printf("parser: %s at %d (depth %d)", tok.typ, tok.offset, len(p.stack))
	}
	switch tok.typ {
	case tokenXMLDeclStart:
		p.decl = &XMLDecl{}
		return nil
	case tokenXMLDeclAttr:
		switch tok.name {
		case "version":
			p.decl.Version = tok.value
		case "encoding":
			p.decl.Encoding = tok.value
		case "standalone":
			p.decl.Standalone = tok.value
		}
		return nil
	case tokenXMLDeclEnd:
		p.queued = append(p.queued, p.decl)
		p.decl = nil
		return nil
	case tokenDoctype:
		return p.handleDoctype(tok)
	case tokenSkip:
		// comments and PIs produce no event, but they do break a
		// text run in two
		p.flushText()
		return nil
	case tokenText:
		return p.handleText(tok)
	case tokenElementOpen:
		return p.handleElementOpen(tok)
	case tokenAttrName:
		return p.handleAttrName(tok)
	case tokenAttrValue:
		return p.handleAttrValue(tok)
	case tokenElementOpenEnd:
		return p.finalizeElement(tok)
	case tokenElementClose:
		return p.handleElementClose(tok)
	case tokenEnd:
		return p.handleEnd(tok)
	}
	return newErrorf(KindUnexpectedChar, tok.offset, "unhandled token %s", tok.typ)
}

// flushText drains the pending text run into a Text event. Outside the
// root element pending text is whitespace only and is dropped.
func (p *parser) flushText() {
	if len(p.text) == 0 {
		return
	}
	if len(p.stack) > 0 {
		p.queued = append(p.queued, &Text{Content: string(p.text)})
	}
	p.text = p.text[:0]
}

func (p *parser) handleText(tok token) error {
	if len(p.stack) == 0 {
		if tok.cdata || !isAllWhitespace(tok.value) {
			if p.state == psEpilog {
				return newError(KindContentAfterRoot, tok.offset, "character data after root element")
			}
			return newError(KindUnexpectedChar, tok.offset, "character data before root element")
		}
		// whitespace outside the root carries no information
		return nil
	}
	if len(p.text)+len(tok.value) > p.limits.maxTokenLength {
		return newErrorf(KindRestricted, tok.offset, "character data exceeds token length limit (%d)", p.limits.maxTokenLength)
	}
	p.text = append(p.text, tok.value...)
	return nil
}

func (p *parser) handleDoctype(tok token) error {
	if p.sawRoot || len(p.stack) > 0 {
		return newError(KindUnsupportedDoctype, tok.offset, "document type declaration must precede the root element")
	}
	if p.sawDoctype {
		return newError(KindUnsupportedDoctype, tok.offset, "multiple document type declarations")
	}
	p.sawDoctype = true
	return nil
}

func (p *parser) handleElementOpen(tok token) error {
	p.flushText()
	if len(p.stack) == 0 && p.sawRoot {
		return newError(KindMultipleRoots, tok.offset, "")
	}
	if len(p.stack)+1 > p.limits.maxDepth {
		return newErrorf(KindRestricted, tok.offset, "element nesting exceeds depth limit (%d)", p.limits.maxDepth)
	}
	prefix, local, err := splitName(tok.name)
	if err != nil {
		return newErrorf(KindMalformedName, tok.offset, "%s: %q", err, tok.name)
	}
	p.tag = &tagFrame{
		rawName: tok.name,
		prefix:  prefix,
		local:   local,
		offset:  tok.offset,
		nsMark:  p.ns.Mark(),
	}
	return nil
}

func (p *parser) handleAttrName(tok token) error {
	t := p.tag
	t.attrCount++
	if t.attrCount > p.limits.maxAttributes {
		return newErrorf(KindRestricted, tok.offset, "element exceeds attribute limit (%d)", p.limits.maxAttributes)
	}
	prefix, local, err := splitName(tok.name)
	if err != nil {
		return newErrorf(KindMalformedName, tok.offset, "%s: %q", err, tok.name)
	}
	t.curPrefix = prefix
	t.curLocal = local
	t.curOffset = tok.offset
	return nil
}

func (p *parser) handleAttrValue(tok token) error {
	t := p.tag
	switch {
	case t.curPrefix == "" && t.curLocal == "xmlns":
		return p.declareNamespace(t, "", tok.value)
	case t.curPrefix == "xmlns":
		return p.declareNamespace(t, t.curLocal, tok.value)
	}
	t.attrs = append(t.attrs, rawAttr{
		prefix: t.curPrefix,
		local:  t.curLocal,
		value:  tok.value,
		offset: t.curOffset,
	})
	return nil
}

// declareNamespace intercepts an xmlns or xmlns:prefix attribute and
// turns it into a binding on the namespace stack; it never becomes a
// user-visible attribute.
func (p *parser) declareNamespace(t *tagFrame, prefix, uri string) error {
	off := t.curOffset
	switch prefix {
	case "xmlns":
		return newError(KindIllegalNamespaceRedeclaration, off, "the xmlns prefix cannot be declared")
	case "xml":
		if uri != XMLNamespace {
			return newErrorf(KindIllegalNamespaceRedeclaration, off, "the xml prefix is bound to %s", XMLNamespace)
		}
	default:
		if uri == XMLNamespace || uri == XMLNSNamespace {
			return newErrorf(KindIllegalNamespaceRedeclaration, off, "%s is reserved", uri)
		}
		if uri == "" && prefix != "" {
			return newErrorf(KindIllegalNamespaceRedeclaration, off, "prefix %q cannot be undeclared", prefix)
		}
	}
	if p.ns.DeclaredSince(t.nsMark, prefix) {
		return newErrorf(KindDuplicateAttribute, off, "namespace prefix %q declared twice on one element", prefix)
	}
	if p.ns.Len()+1 > p.limits.maxNamespaces {
		return newErrorf(KindRestricted, off, "namespace bindings exceed limit (%d)", p.limits.maxNamespaces)
	}
	p.ns.Push(prefix, uri)
	return nil
}

// resolvePrefix maps a non-empty prefix to its URI in the current
// scope. The empty prefix takes the default namespace, which may be
// none.
func (p *parser) resolvePrefix(prefix string, off int64) (string, error) {
	switch prefix {
	case "":
		uri, _ := p.ns.Lookup("")
		return uri, nil
	case "xml":
		return XMLNamespace, nil
	}
	uri, ok := p.ns.Lookup(prefix)
	if !ok || uri == "" {
		return "", newErrorf(KindUndeclaredPrefix, off, "%q", prefix)
	}
	return uri, nil
}

func (p *parser) finalizeElement(tok token) error {
	t := p.tag
	p.tag = nil

	uri, err := p.resolvePrefix(t.prefix, t.offset)
	if err != nil {
		return err
	}

	// duplicate detection runs on expanded names, so two attributes
	// whose prefixes resolve to the same URI still collide
	seen := orderedmap.New[Name, Attribute]()
	for _, a := range t.attrs {
		var auri string
		if a.prefix != "" {
			auri, err = p.resolvePrefix(a.prefix, a.offset)
			if err != nil {
				return err
			}
		}
		name := Name{URI: auri, Local: a.local}
		attr := Attribute{Name: name, Prefix: a.prefix, Value: a.value}
		if err := seen.Set(name, attr); err != nil {
			return newErrorf(KindDuplicateAttribute, a.offset, "attribute %s declared twice", a.local)
		}
	}
	attrs := make([]Attribute, 0, seen.Len())
	for _, a := range seen.Range() {
		attrs = append(attrs, a)
	}

	p.sawRoot = true
	p.state = psContent
	p.queued = append(p.queued, &StartElement{
		Name:   Name{URI: uri, Local: t.local},
		Prefix: t.prefix,
		Attrs:  attrs,
	})

	if tok.selfClosing {
		p.ns.Truncate(t.nsMark)
		p.queued = append(p.queued, &EndElement{})
		if len(p.stack) == 0 {
			p.state = psEpilog
		}
		return nil
	}
	p.stack = append(p.stack, elemFrame{rawName: t.rawName, nsMark: t.nsMark})
	return nil
}

func (p *parser) handleElementClose(tok token) error {
	p.flushText()
	if len(p.stack) == 0 {
		return newErrorf(KindElementMismatch, tok.offset, "end tag %q with no element open", tok.name)
	}
	top := p.stack[len(p.stack)-1]
	if top.rawName != tok.name {
		return newErrorf(KindElementMismatch, tok.offset, "expected </%s>, got </%s>", top.rawName, tok.name)
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.ns.Truncate(top.nsMark)
	p.queued = append(p.queued, &EndElement{})
	if len(p.stack) == 0 {
		p.state = psEpilog
	}
	return nil
}

func (p *parser) handleEnd(tok token) error {
	if len(p.stack) > 0 {
		return newErrorf(KindUnexpectedEOF, tok.offset, "%d element(s) still open", len(p.stack))
	}
	if !p.sawRoot {
		return newError(KindUnexpectedEOF, tok.offset, "no root element")
	}
	p.text = p.text[:0]
	p.state = psDone
	return nil
}

func isAllWhitespace(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !isBlankCh(r) }) < 0
}
