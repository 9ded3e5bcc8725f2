package sxml

// tokenType enumerates the lexical tokens. Tokens do not map one-to-one
// onto XML 1.0 productions; they are shaped for the parser's state
// machine on top of the lexer.
type tokenType int

const (
	tokenNone tokenType = iota
	tokenXMLDeclStart
	tokenXMLDeclAttr // name, value
	tokenXMLDeclEnd
	tokenElementOpen    // name (raw qname)
	tokenAttrName       // name (raw qname)
	tokenAttrValue      // value (normalized, references expanded)
	tokenElementOpenEnd // selfClosing
	tokenElementClose   // name (raw qname)
	tokenText           // value, cdata
	tokenSkip           // comment or processing instruction, skipped
	tokenDoctype        // simple-form doctype declaration, skipped
	tokenEnd            // end of input
)

var tokenNames = map[tokenType]string{
	tokenXMLDeclStart:   "'<?xml'",
	tokenXMLDeclAttr:    "declaration attribute",
	tokenXMLDeclEnd:     "'?>'",
	tokenElementOpen:    "element start",
	tokenAttrName:       "attribute name",
	tokenAttrValue:      "attribute value",
	tokenElementOpenEnd: "element head end",
	tokenElementClose:   "element end",
	tokenText:           "text",
	tokenSkip:           "skip",
	tokenDoctype:        "doctype",
	tokenEnd:            "end of input",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "unknown token"
}

// token is a single lexed token. offset is the byte position where the
// token began in the logical input stream.
type token struct {
	typ         tokenType
	name        string
	value       string
	offset      int64
	cdata       bool
	selfClosing bool
}
