package sxml

import (
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/lestrrat-go/pdebug/v3"
)

// lexerState is the explicit suspension phase of the lexer. Every
// consumed codepoint performs exactly one transition, so the lexer can
// stop between any two codepoints and resume without loss.
type lexerState int

const (
	lsInit lexerState = iota // nothing consumed yet
	lsInitDecl               // matching "<?xml" at the very start of the stream
	lsDeclBlank
	lsDeclName
	lsDeclEq
	lsDeclQuote
	lsDeclValue
	lsDeclAfterValue
	lsDeclEnd
	lsContent
	lsTextCDataEnd // matching "]]>" in character data (forbidden)
	lsMarkup       // consumed '<'
	lsMarkupBang   // consumed "<!"
	lsCommentStart // consumed "<!-"
	lsComment
	lsCommentDash
	lsCommentDashDash
	lsPI
	lsPIQuestion
	lsCDATAStart // matching "<![CDATA["
	lsCDATA
	lsCDATAEnd // matching "]]>" inside a CDATA section
	lsDoctypeMatch
	lsDoctypeBody
	lsElementName
	lsElementBody
	lsAttrName
	lsAttrEq
	lsAttrQuote
	lsAttrValue
	lsAfterAttrValue
	lsElementSlash // consumed '/' inside an element head
	lsEndTagStart  // consumed "</"
	lsEndTagName
	lsEndTagWS
	lsRefStart // consumed '&'
	lsRefName
	lsRefNum // consumed "&#"
	lsRefDec
	lsRefHex
	lsEOF
)

const (
	litXMLDecl    = "<?xml"
	litCDATAStart = "<![CDATA["
	litDoctype    = "<!DOCTYPE"

	// longest named entity is 4 chars, longest valid decimal reference
	// is 7 digits, longest valid hex reference is 6 digits
	maxReferenceLength = 8
)

type lexer struct {
	dec    *decoder
	limits limits
	state  lexerState

	acc []byte // accumulator for the token under construction
	ref []byte // accumulator for the reference under construction

	pending []token // emitted but not yet delivered

	matchPos  int        // progress through a literal match
	quote     rune       // active attribute value delimiter
	declName  string     // pseudo-attribute currently being lexed
	declStep  int        // 0 version, 1 encoding, 2 standalone, 3 done
	closeName string     // end tag name awaiting its '>'
	refReturn lexerState // state to restore after a reference

	refStart    int64 // offset of the '&' of the pending reference
	textStart   int64 // offset of the first char of the pending text run
	markupStart int64 // offset of the '<' of the pending markup
	tokenStart  int64 // offset carried into the next emitted token

	err error
}

func newLexer(dec *decoder, lim limits) *lexer {
	return &lexer{dec: dec, limits: lim}
}

// next produces the next token. ErrWouldBlock is returned on byte
// starvation and may be retried; every other error is sticky.
func (l *lexer) next() (token, error) {
	if l.err != nil {
		return token{}, l.err
	}
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok, nil
	}
	for {
		r, off, err := l.dec.next()
		if err != nil {
			if err == io.EOF {
				tok, eoferr := l.handleEOF()
				if eoferr != nil {
					l.err = eoferr
					return token{}, eoferr
				}
				return tok, nil
			}
			if isFatal(err) {
				l.err = err
			}
			return token{}, err
		}
		tok, emitted, err := l.step(r, off)
		if err != nil {
			l.err = err
			return token{}, err
		}
		if emitted {
			if pdebug.Enabled {
				pdebug.Printf("lexer: emit %s at %d", tok.typ, tok.offset)
			}
			return tok, nil
		}
	}
}

func (l *lexer) emit(tok token) (token, bool, error) {
	return tok, true, nil
}

func (l *lexer) fail(err error) (token, bool, error) {
	return token{}, false, err
}

func (l *lexer) proceed() (token, bool, error) {
	return token{}, false, nil
}

// accPush appends one codepoint to the accumulator, enforcing the token
// length limit.
func (l *lexer) accPush(r rune, off int64, what string) error {
	if len(l.acc)+utf8.RuneLen(r) > l.limits.maxTokenLength {
		return newErrorf(KindRestricted, off, "%s exceeds token length limit (%d)", what, l.limits.maxTokenLength)
	}
	l.acc = utf8.AppendRune(l.acc, r)
	return nil
}

// flushText drains the accumulator into a text token. Returns false if
// there is nothing to flush.
func (l *lexer) flushText() (token, bool) {
	if len(l.acc) == 0 {
		return token{}, false
	}
	tok := token{typ: tokenText, value: string(l.acc), offset: l.textStart}
	l.acc = l.acc[:0]
	return tok, true
}

func (l *lexer) step(r rune, off int64) (token, bool, error) {
	switch l.state {
	case lsInit:
		if r == '<' {
			l.state = lsInitDecl
			l.matchPos = 1
			l.markupStart = off
			return l.proceed()
		}
		l.state = lsContent
		return l.contentStep(r, off)

	case lsInitDecl:
		return l.initDeclStep(r, off)

	case lsDeclBlank:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '?':
			if l.declStep == 0 {
				return l.fail(newError(KindUnexpectedChar, off, "'<?xml' must be followed by 'version'"))
			}
			l.state = lsDeclEnd
			return l.proceed()
		case isNameStartChar(r):
			l.acc = l.acc[:0]
			l.state = lsDeclName
			l.tokenStart = off
			return l.step(r, off)
		}
		return l.fail(newError(KindUnexpectedChar, off, "in XML declaration"))

	case lsDeclName:
		switch {
		case isNameChar(r):
			return token{}, false, l.accPush(r, off, "declaration attribute name")
		case isBlankCh(r):
			if err := l.finishDeclName(off); err != nil {
				return l.fail(err)
			}
			l.state = lsDeclEq
			return l.proceed()
		case r == '=':
			if err := l.finishDeclName(off); err != nil {
				return l.fail(err)
			}
			l.state = lsDeclQuote
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "in XML declaration attribute name"))

	case lsDeclEq:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '=':
			l.state = lsDeclQuote
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '=' in XML declaration"))

	case lsDeclQuote:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '"' || r == '\'':
			l.quote = r
			l.acc = l.acc[:0]
			l.state = lsDeclValue
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected quoted value in XML declaration"))

	case lsDeclValue:
		if r == l.quote {
			return l.finishDeclValue()
		}
		return token{}, false, l.accPush(r, off, "declaration attribute value")

	case lsDeclAfterValue:
		switch {
		case isBlankCh(r):
			l.state = lsDeclBlank
			return l.proceed()
		case r == '?':
			l.state = lsDeclEnd
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "space required in XML declaration"))

	case lsDeclEnd:
		if r == '>' {
			l.state = lsContent
			return l.emit(token{typ: tokenXMLDeclEnd, offset: off})
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '>' to close XML declaration"))

	case lsContent:
		return l.contentStep(r, off)

	case lsTextCDataEnd:
		return l.textCDataEndStep(r, off)

	case lsMarkup:
		switch {
		case r == '?':
			l.state = lsPI
			return l.proceed()
		case r == '!':
			l.state = lsMarkupBang
			return l.proceed()
		case r == '/':
			l.state = lsEndTagStart
			l.tokenStart = off
			return l.proceed()
		case isNameStartChar(r):
			l.state = lsElementName
			l.tokenStart = l.markupStart
			l.acc = l.acc[:0]
			return token{}, false, l.accPush(r, off, "element name")
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected element name, '!', '?' or '/' after '<'"))

	case lsMarkupBang:
		switch r {
		case '-':
			l.state = lsCommentStart
			return l.proceed()
		case '[':
			l.state = lsCDATAStart
			l.matchPos = 3
			return l.proceed()
		case 'D':
			l.state = lsDoctypeMatch
			l.matchPos = 3
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "malformed markup declaration"))

	case lsCommentStart:
		if r == '-' {
			l.state = lsComment
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '<!--'"))

	case lsComment:
		if r == '-' {
			l.state = lsCommentDash
		}
		return l.proceed()

	case lsCommentDash:
		if r == '-' {
			l.state = lsCommentDashDash
		} else {
			l.state = lsComment
		}
		return l.proceed()

	case lsCommentDashDash:
		if r == '>' {
			l.state = lsContent
			return l.emit(token{typ: tokenSkip, offset: l.markupStart})
		}
		return l.fail(newError(KindInvalidComment, off, "'--' not allowed within comment"))

	case lsPI:
		if r == '?' {
			l.state = lsPIQuestion
		}
		return l.proceed()

	case lsPIQuestion:
		switch r {
		case '>':
			l.state = lsContent
			return l.emit(token{typ: tokenSkip, offset: l.markupStart})
		case '?':
			return l.proceed()
		}
		l.state = lsPI
		return l.proceed()

	case lsCDATAStart:
		if r != rune(litCDATAStart[l.matchPos]) {
			return l.fail(newError(KindUnexpectedChar, off, "malformed CDATA section start"))
		}
		l.matchPos++
		if l.matchPos == len(litCDATAStart) {
			l.state = lsCDATA
		}
		return l.proceed()

	case lsCDATA:
		if r == ']' {
			l.state = lsCDATAEnd
			l.matchPos = 1
			return l.proceed()
		}
		return token{}, false, l.accPush(r, off, "CDATA section")

	case lsCDATAEnd:
		return l.cdataEndStep(r, off)

	case lsDoctypeMatch:
		if r != rune(litDoctype[l.matchPos]) {
			return l.fail(newError(KindUnexpectedChar, off, "malformed markup declaration"))
		}
		l.matchPos++
		if l.matchPos == len(litDoctype) {
			l.state = lsDoctypeBody
		}
		return l.proceed()

	case lsDoctypeBody:
		switch r {
		case '[':
			return l.fail(newError(KindUnsupportedDoctype, off, "internal subset not supported"))
		case '>':
			l.state = lsContent
			return l.emit(token{typ: tokenDoctype, offset: l.markupStart})
		}
		return l.proceed()

	case lsElementName:
		switch {
		case isNameChar(r):
			return token{}, false, l.accPush(r, off, "element name")
		case isBlankCh(r):
			tok := l.takeName(tokenElementOpen)
			l.state = lsElementBody
			return l.emit(tok)
		case r == '>':
			tok := l.takeName(tokenElementOpen)
			l.state = lsContent
			l.pending = append(l.pending, token{typ: tokenElementOpenEnd, offset: off})
			return l.emit(tok)
		case r == '/':
			tok := l.takeName(tokenElementOpen)
			l.state = lsElementSlash
			return l.emit(tok)
		}
		return l.fail(newError(KindUnexpectedChar, off, "in element name"))

	case lsElementBody:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case isNameStartChar(r):
			l.state = lsAttrName
			l.tokenStart = off
			l.acc = l.acc[:0]
			return token{}, false, l.accPush(r, off, "attribute name")
		case r == '>':
			l.state = lsContent
			return l.emit(token{typ: tokenElementOpenEnd, offset: off})
		case r == '/':
			l.state = lsElementSlash
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "in element"))

	case lsAttrName:
		switch {
		case isNameChar(r):
			return token{}, false, l.accPush(r, off, "attribute name")
		case isBlankCh(r):
			tok := l.takeName(tokenAttrName)
			l.state = lsAttrEq
			return l.emit(tok)
		case r == '=':
			tok := l.takeName(tokenAttrName)
			l.state = lsAttrQuote
			return l.emit(tok)
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '=' after attribute name"))

	case lsAttrEq:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '=':
			l.state = lsAttrQuote
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '=' after attribute name"))

	case lsAttrQuote:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '"' || r == '\'':
			l.quote = r
			l.acc = l.acc[:0]
			l.state = lsAttrValue
			l.tokenStart = off
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected quoted attribute value"))

	case lsAttrValue:
		switch {
		case r == l.quote:
			tok := token{typ: tokenAttrValue, value: string(l.acc), offset: l.tokenStart}
			l.acc = l.acc[:0]
			l.state = lsAfterAttrValue
			return l.emit(tok)
		case r == '<':
			return l.fail(newError(KindUnexpectedChar, off, "'<' not allowed in attribute value"))
		case r == '&':
			l.refStart = off
			l.refReturn = lsAttrValue
			l.ref = l.ref[:0]
			l.state = lsRefStart
			return l.proceed()
		case r == '\t' || r == '\n':
			return token{}, false, l.accPush(' ', off, "attribute value")
		}
		return token{}, false, l.accPush(r, off, "attribute value")

	case lsAfterAttrValue:
		switch {
		case isBlankCh(r):
			l.state = lsElementBody
			return l.proceed()
		case r == '>':
			l.state = lsContent
			return l.emit(token{typ: tokenElementOpenEnd, offset: off})
		case r == '/':
			l.state = lsElementSlash
			return l.proceed()
		}
		return l.fail(newError(KindUnexpectedChar, off, "space required after attribute value"))

	case lsElementSlash:
		if r == '>' {
			l.state = lsContent
			return l.emit(token{typ: tokenElementOpenEnd, offset: off, selfClosing: true})
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected '>' after '/'"))

	case lsEndTagStart:
		if isNameStartChar(r) {
			l.state = lsEndTagName
			l.acc = l.acc[:0]
			return token{}, false, l.accPush(r, off, "element name")
		}
		return l.fail(newError(KindUnexpectedChar, off, "in end tag"))

	case lsEndTagName:
		switch {
		case isNameChar(r):
			return token{}, false, l.accPush(r, off, "element name")
		case isBlankCh(r):
			l.closeName = string(l.acc)
			l.acc = l.acc[:0]
			l.state = lsEndTagWS
			return l.proceed()
		case r == '>':
			tok := l.takeName(tokenElementClose)
			l.state = lsContent
			return l.emit(tok)
		}
		return l.fail(newError(KindUnexpectedChar, off, "in end tag"))

	case lsEndTagWS:
		switch {
		case isBlankCh(r):
			return l.proceed()
		case r == '>':
			tok := token{typ: tokenElementClose, name: l.closeName, offset: l.tokenStart}
			l.closeName = ""
			l.state = lsContent
			return l.emit(tok)
		}
		return l.fail(newError(KindUnexpectedChar, off, "in end tag"))

	case lsRefStart:
		switch {
		case r == '#':
			l.state = lsRefNum
			return l.proceed()
		case isNameChar(r):
			l.state = lsRefName
			return token{}, false, l.refPush(r, KindUndeclaredEntity)
		}
		return l.fail(newError(KindInvalidReference, l.refStart, "empty or malformed reference"))

	case lsRefName:
		switch {
		case r == ';':
			return l.resolveEntity(off)
		case isNameChar(r):
			return token{}, false, l.refPush(r, KindUndeclaredEntity)
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected ';' to end reference"))

	case lsRefNum:
		switch {
		case r == 'x':
			l.state = lsRefHex
			return l.proceed()
		case isDecimalDigit(r):
			l.state = lsRefDec
			return token{}, false, l.refPush(r, KindInvalidReference)
		}
		return l.fail(newError(KindInvalidReference, l.refStart, "malformed character reference"))

	case lsRefDec:
		switch {
		case r == ';':
			return l.resolveCharRef(off, 10)
		case isDecimalDigit(r):
			return token{}, false, l.refPush(r, KindInvalidReference)
		}
		return l.fail(newError(KindInvalidReference, l.refStart, "malformed character reference"))

	case lsRefHex:
		switch {
		case r == ';':
			return l.resolveCharRef(off, 16)
		case isHexDigit(r):
			return token{}, false, l.refPush(r, KindInvalidReference)
		}
		return l.fail(newError(KindInvalidReference, l.refStart, "malformed character reference"))
	}
	return l.fail(newErrorf(KindUnexpectedChar, off, "lexer in impossible state %d", l.state))
}

// initDeclStep matches the "<?xml" prologue at the very beginning of the
// stream. Divergence re-routes into ordinary markup handling: "<" +
// name is an element, "<!" a declaration, "<?" anything else a
// processing instruction.
func (l *lexer) initDeclStep(r rune, off int64) (token, bool, error) {
	if l.matchPos == 1 {
		switch {
		case r == '?':
			l.matchPos = 2
			return l.proceed()
		case r == '!':
			l.state = lsMarkupBang
			return l.proceed()
		case r == '/':
			l.state = lsEndTagStart
			l.tokenStart = off
			return l.proceed()
		case isNameStartChar(r):
			l.state = lsElementName
			l.tokenStart = l.markupStart
			l.acc = l.acc[:0]
			return token{}, false, l.accPush(r, off, "element name")
		}
		return l.fail(newError(KindUnexpectedChar, off, "expected element name, '!', '?' or '/' after '<'"))
	}

	if l.matchPos < len(litXMLDecl) {
		if r == rune(litXMLDecl[l.matchPos]) {
			l.matchPos++
			return l.proceed()
		}
		// not the XML declaration after all; it is a processing
		// instruction and those are skipped wholesale
		if r == '?' {
			l.state = lsPIQuestion
		} else {
			l.state = lsPI
		}
		return l.proceed()
	}

	// the full "<?xml" matched; only whitespace makes it a declaration
	switch {
	case isBlankCh(r):
		l.state = lsDeclBlank
		l.declStep = 0
		return l.emit(token{typ: tokenXMLDeclStart, offset: l.markupStart})
	case r == '?':
		l.state = lsPIQuestion
		return l.proceed()
	}
	l.state = lsPI
	return l.proceed()
}

func (l *lexer) contentStep(r rune, off int64) (token, bool, error) {
	switch r {
	case '<':
		l.markupStart = off
		l.state = lsMarkup
		if tok, ok := l.flushText(); ok {
			return l.emit(tok)
		}
		return l.proceed()
	case '&':
		if len(l.acc) == 0 {
			l.textStart = off
		}
		l.refStart = off
		l.refReturn = lsContent
		l.ref = l.ref[:0]
		l.state = lsRefStart
		return l.proceed()
	case ']':
		if len(l.acc) == 0 {
			l.textStart = off
		}
		l.state = lsTextCDataEnd
		l.matchPos = 1
		return l.proceed()
	}
	if len(l.acc) == 0 {
		l.textStart = off
	}
	return token{}, false, l.accPush(r, off, "character data")
}

// textCDataEndStep guards against the literal "]]>" sequence in
// character data, while letting any shorter run of ']' through as text.
func (l *lexer) textCDataEndStep(r rune, off int64) (token, bool, error) {
	switch {
	case r == ']':
		if l.matchPos == 1 {
			l.matchPos = 2
			return l.proceed()
		}
		// long ']' run; the surplus is plain text
		return token{}, false, l.accPush(']', off, "character data")
	case r == '>' && l.matchPos == 2:
		return l.fail(newError(KindIllegalCDataEnd, off-2, "unescaped ']]>' in character data"))
	}
	for i := 0; i < l.matchPos; i++ {
		if err := l.accPush(']', off, "character data"); err != nil {
			return l.fail(err)
		}
	}
	l.state = lsContent
	return l.contentStep(r, off)
}

func (l *lexer) cdataEndStep(r rune, off int64) (token, bool, error) {
	switch {
	case r == ']':
		if l.matchPos == 1 {
			l.matchPos = 2
			return l.proceed()
		}
		return token{}, false, l.accPush(']', off, "CDATA section")
	case r == '>' && l.matchPos == 2:
		l.state = lsContent
		if len(l.acc) == 0 {
			return l.proceed()
		}
		tok := token{typ: tokenText, value: string(l.acc), offset: l.markupStart, cdata: true}
		l.acc = l.acc[:0]
		return l.emit(tok)
	}
	for i := 0; i < l.matchPos; i++ {
		if err := l.accPush(']', off, "CDATA section"); err != nil {
			return l.fail(err)
		}
	}
	l.state = lsCDATA
	return token{}, false, l.accPush(r, off, "CDATA section")
}

func (l *lexer) takeName(typ tokenType) token {
	tok := token{typ: typ, name: string(l.acc), offset: l.tokenStart}
	l.acc = l.acc[:0]
	return tok
}

func (l *lexer) finishDeclName(off int64) error {
	name := string(l.acc)
	l.acc = l.acc[:0]
	switch name {
	case "version":
		if l.declStep != 0 {
			return newError(KindUnexpectedChar, l.tokenStart, "'version' must come first in XML declaration")
		}
	case "encoding":
		if l.declStep != 1 {
			return newError(KindUnexpectedChar, l.tokenStart, "'encoding' out of order in XML declaration")
		}
	case "standalone":
		if l.declStep != 1 && l.declStep != 2 {
			return newError(KindUnexpectedChar, l.tokenStart, "'standalone' out of order in XML declaration")
		}
	default:
		if l.declStep == 0 {
			return newError(KindUnexpectedChar, l.tokenStart, "'<?xml' must be followed by 'version'")
		}
		return newErrorf(KindUnexpectedChar, l.tokenStart, "unknown XML declaration attribute %q", name)
	}
	l.declName = name
	return nil
}

func (l *lexer) finishDeclValue() (token, bool, error) {
	value := string(l.acc)
	l.acc = l.acc[:0]
	switch l.declName {
	case "version":
		if value != "1.0" {
			return l.fail(newErrorf(KindUnsupportedVersion, l.tokenStart, "only XML version 1.0 is supported, got %q", value))
		}
		l.declStep = 1
	case "encoding":
		if !equalFoldASCII(value, "utf-8") {
			return l.fail(newErrorf(KindUnsupportedEncoding, l.tokenStart, "only utf-8 is supported, got %q", value))
		}
		l.declStep = 2
	case "standalone":
		if value != "yes" && value != "no" {
			return l.fail(newError(KindUnexpectedChar, l.tokenStart, "standalone must be 'yes' or 'no'"))
		}
		l.declStep = 3
	}
	l.state = lsDeclAfterValue
	return l.emit(token{typ: tokenXMLDeclAttr, name: l.declName, value: value, offset: l.tokenStart})
}

func (l *lexer) refPush(r rune, overflowKind ErrorKind) error {
	if len(l.ref) >= maxReferenceLength {
		if overflowKind == KindUndeclaredEntity {
			return newError(KindUndeclaredEntity, l.refStart, "")
		}
		return newError(KindInvalidReference, l.refStart, "character reference too long")
	}
	l.ref = utf8.AppendRune(l.ref, r)
	return nil
}

var predefEntities = map[string]rune{
	"lt":   '<',
	"gt":   '>',
	"amp":  '&',
	"apos": '\'',
	"quot": '"',
}

func (l *lexer) resolveEntity(off int64) (token, bool, error) {
	if len(l.ref) == 0 {
		return l.fail(newError(KindInvalidReference, l.refStart, "empty reference"))
	}
	r, ok := predefEntities[string(l.ref)]
	if !ok {
		return l.fail(newError(KindUndeclaredEntity, l.refStart, ""))
	}
	return l.resumeFromRef(r, off)
}

func (l *lexer) resolveCharRef(off int64, base int) (token, bool, error) {
	if len(l.ref) == 0 {
		return l.fail(newError(KindInvalidReference, l.refStart, "empty character reference"))
	}
	v, err := strconv.ParseUint(string(l.ref), base, 32)
	if err != nil || v > 0x10ffff {
		return l.fail(newError(KindInvalidReference, l.refStart, "character reference out of range"))
	}
	r := rune(v)
	if (0xd800 <= v && v <= 0xdfff) || !isChar(r) {
		return l.fail(newErrorf(KindInvalidChar, l.refStart, "character reference expanded to invalid codepoint U+%04X", v))
	}
	return l.resumeFromRef(r, off)
}

func (l *lexer) resumeFromRef(r rune, off int64) (token, bool, error) {
	l.ref = l.ref[:0]
	what := "character data"
	if l.refReturn == lsAttrValue {
		what = "attribute value"
	}
	if err := l.accPush(r, off, what); err != nil {
		return l.fail(err)
	}
	l.state = l.refReturn
	return l.proceed()
}

// handleEOF maps a clean end of input onto the current phase: flush any
// pending character data, emit the end token from a resting state, or
// report where the input broke off.
func (l *lexer) handleEOF() (token, error) {
	switch l.state {
	case lsTextCDataEnd:
		for i := 0; i < l.matchPos; i++ {
			if err := l.accPush(']', l.dec.offset, "character data"); err != nil {
				return token{}, err
			}
		}
		l.state = lsContent
		fallthrough
	case lsContent:
		if tok, ok := l.flushText(); ok {
			return tok, nil
		}
		l.state = lsEOF
		return token{typ: tokenEnd, offset: l.dec.offset}, nil
	case lsInit:
		l.state = lsEOF
		return token{typ: tokenEnd, offset: l.dec.offset}, nil
	case lsEOF:
		return token{typ: tokenEnd, offset: l.dec.offset}, nil
	}
	return token{}, newError(KindUnexpectedEOF, l.dec.offset, eofContext(l.state))
}

func eofContext(st lexerState) string {
	switch st {
	case lsInitDecl, lsMarkup, lsMarkupBang:
		return "in markup"
	case lsDeclBlank, lsDeclName, lsDeclEq, lsDeclQuote, lsDeclValue, lsDeclAfterValue, lsDeclEnd:
		return "in XML declaration"
	case lsCommentStart, lsComment, lsCommentDash, lsCommentDashDash:
		return "in comment"
	case lsPI, lsPIQuestion:
		return "in processing instruction"
	case lsCDATAStart, lsCDATA, lsCDATAEnd:
		return "in CDATA section"
	case lsDoctypeMatch, lsDoctypeBody:
		return "in document type declaration"
	case lsElementName, lsElementBody, lsAttrName, lsAttrEq, lsAttrQuote, lsAttrValue, lsAfterAttrValue, lsElementSlash:
		return "in element"
	case lsEndTagStart, lsEndTagName, lsEndTagWS:
		return "in end tag"
	case lsRefStart, lsRefName, lsRefNum, lsRefDec, lsRefHex:
		return "in reference"
	}
	return "in document"
}

func equalFoldASCII(s, t string) bool {
	if len(s) != len(t) {
		return false
	}
	for i := 0; i < len(s); i++ {
		a, b := s[i], t[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
