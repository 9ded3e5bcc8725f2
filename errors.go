package sxml

import (
	"errors"
	"fmt"
)

// ErrWouldBlock is returned by Next when the parser cannot make progress
// without more input. It is not a parse error: feed more bytes (or signal
// the end of the stream) and call Next again.
var ErrWouldBlock = errors.New("would block: need more input")

// ErrorKind classifies parse failures. The set is closed; every error
// produced by this package carries exactly one kind.
type ErrorKind int

const (
	KindNone ErrorKind = iota

	// Lexical errors
	KindInvalidUTF8
	KindInvalidChar
	KindUnexpectedChar
	KindUnexpectedEOF
	KindMalformedName
	KindInvalidComment
	KindIllegalCDataEnd
	KindUndeclaredEntity
	KindInvalidReference

	// Declaration errors
	KindUnsupportedVersion
	KindUnsupportedEncoding
	KindUnsupportedDoctype

	// Structural errors
	KindElementMismatch
	KindDuplicateAttribute
	KindContentAfterRoot
	KindMultipleRoots

	// Namespace errors
	KindUndeclaredPrefix
	KindIllegalNamespaceRedeclaration

	// Resource errors
	KindRestricted
)

var kindNames = map[ErrorKind]string{
	KindInvalidUTF8:                   "invalid utf-8",
	KindInvalidChar:                   "invalid character",
	KindUnexpectedChar:                "unexpected character",
	KindUnexpectedEOF:                 "unexpected end of input",
	KindMalformedName:                 "malformed name",
	KindInvalidComment:                "invalid comment",
	KindIllegalCDataEnd:               "']]>' not allowed in character data",
	KindUndeclaredEntity:              "use of undeclared entity",
	KindInvalidReference:              "invalid character reference",
	KindUnsupportedVersion:            "unsupported XML version",
	KindUnsupportedEncoding:           "unsupported encoding",
	KindUnsupportedDoctype:            "unsupported document type declaration",
	KindElementMismatch:               "start and end tag do not match",
	KindDuplicateAttribute:            "duplicate attribute",
	KindContentAfterRoot:              "content not allowed after root element",
	KindMultipleRoots:                 "multiple root elements",
	KindUndeclaredPrefix:              "use of undeclared namespace prefix",
	KindIllegalNamespaceRedeclaration: "illegal namespace declaration",
	KindRestricted:                    "restricted construct",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown error kind (%d)", int(k))
}

// ErrParse is the error type for all fatal parse failures. Offset is the
// byte position in the logical input stream where the offending construct
// was found; it is stable across Feed boundaries.
type ErrParse struct {
	Kind    ErrorKind
	Offset  int64
	Message string
}

func (e *ErrParse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s at byte %d", e.Kind, e.Message, e.Offset)
	}
	return fmt.Sprintf("%s at byte %d", e.Kind, e.Offset)
}

func newError(kind ErrorKind, offset int64, message string) *ErrParse {
	return &ErrParse{Kind: kind, Offset: offset, Message: message}
}

func newErrorf(kind ErrorKind, offset int64, format string, args ...interface{}) *ErrParse {
	return &ErrParse{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// IsWouldBlock reports whether err indicates byte starvation rather than a
// parse failure.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// AsParseError unwraps err into an *ErrParse if one is present.
func AsParseError(err error, target **ErrParse) bool {
	return errors.As(err, target)
}

// isFatal reports whether err should poison the component that produced
// it. Starvation and I/O conditions are transient and may be retried.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	var pe *ErrParse
	return errors.As(err, &pe)
}
