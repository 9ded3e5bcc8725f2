package sxml

import "github.com/lestrrat-go/option"

type Option = option.Interface

type identMaxTokenLength struct{}
type identMaxAttributes struct{}
type identMaxDepth struct{}
type identMaxNamespaces struct{}

type ParserOption interface {
	Option
	parserOption()
}

type parserOption struct{ Option }

func (*parserOption) parserOption() {}

// limits holds the resource bounds a parser enforces against
// pathological input.
type limits struct {
	maxTokenLength int
	maxAttributes  int
	maxDepth       int
	maxNamespaces  int
}

func defaultLimits() limits {
	return limits{
		maxTokenLength: 8192,
		maxAttributes:  256,
		maxDepth:       256,
		maxNamespaces:  1024,
	}
}

func applyOptions(options ...ParserOption) limits {
	lim := defaultLimits()
	for _, o := range options {
		switch o.Ident().(type) {
		case identMaxTokenLength:
			lim.maxTokenLength = o.Value().(int)
		case identMaxAttributes:
			lim.maxAttributes = o.Value().(int)
		case identMaxDepth:
			lim.maxDepth = o.Value().(int)
		case identMaxNamespaces:
			lim.maxNamespaces = o.Value().(int)
		}
	}
	return lim
}

// WithMaxTokenLength bounds the byte length of any single name, text
// run, or attribute value. The default is 8192.
func WithMaxTokenLength(v int) ParserOption {
	return &parserOption{option.New(identMaxTokenLength{}, v)}
}

// WithMaxAttributes bounds the number of attributes on one element,
// namespace declarations included. The default is 256.
func WithMaxAttributes(v int) ParserOption {
	return &parserOption{option.New(identMaxAttributes{}, v)}
}

// WithMaxDepth bounds element nesting depth. The default is 256.
func WithMaxDepth(v int) ParserOption {
	return &parserOption{option.New(identMaxDepth{}, v)}
}

// WithMaxNamespaces bounds the number of live namespace bindings. The
// default is 1024.
func WithMaxNamespaces(v int) ParserOption {
	return &parserOption{option.New(identMaxNamespaces{}, v)}
}
