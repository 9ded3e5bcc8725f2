package sxml

// Name is an expanded element or attribute name. URI is the resolved
// namespace URI, or the empty string when the name is in no namespace.
type Name struct {
	URI   string
	Local string
}

// Attribute is a single resolved attribute. Per Namespaces in XML 1.0,
// unprefixed attributes carry no namespace URI. Prefix preserves the raw
// prefix as written, for callers that need to reconstruct the qname.
type Attribute struct {
	Name   Name
	Prefix string
	Value  string
}

// Event is one element of the SAX-like event stream. The set of
// implementations is closed: XMLDecl, StartElement, EndElement and Text.
type Event interface {
	event()
}

// XMLDecl is the XML declaration. It is emitted at most once, and always
// first if present. Encoding and Standalone are empty when the respective
// pseudo-attribute was absent.
type XMLDecl struct {
	Version    string
	Encoding   string
	Standalone string
}

// StartElement is the start of an element. Attrs preserves document
// order; xmlns declarations are consumed by the parser and never appear
// here.
type StartElement struct {
	Name   Name
	Prefix string
	Attrs  []Attribute
}

// EndElement is the end of an element. It carries no name: the parser
// enforces proper nesting, so the closed element is always the most
// recently opened one.
type EndElement struct{}

// Text is a run of character data. References are already expanded and
// adjacent CDATA sections are merged in, so Content is the logical
// character data exactly.
type Text struct {
	Content string
}

func (*XMLDecl) event()      {}
func (*StartElement) event() {}
func (*EndElement) event()   {}
func (*Text) event()         {}
