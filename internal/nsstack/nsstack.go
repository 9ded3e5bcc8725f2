// Package nsstack implements the scoped prefix-to-URI binding stack
// used during namespace resolution. Bindings pushed while processing an
// element shadow outer bindings with the same prefix, and are discarded
// wholesale when the element closes.
package nsstack

type Binding struct {
	Prefix string
	URI    string
}

type Stack struct {
	bindings []Binding
}

func New() *Stack {
	return &Stack{}
}

func (s *Stack) Len() int {
	return len(s.bindings)
}

// Mark returns a position that a later Truncate restores. Call it
// before pushing an element's declarations.
func (s *Stack) Mark() int {
	return len(s.bindings)
}

func (s *Stack) Push(prefix, uri string) {
	s.bindings = append(s.bindings, Binding{Prefix: prefix, URI: uri})
}

// Truncate drops every binding pushed since mark.
func (s *Stack) Truncate(mark int) {
	if mark < 0 || mark > len(s.bindings) {
		return
	}
	s.bindings = s.bindings[:mark]
	if c := cap(s.bindings); c > 20 && c > len(s.bindings)*2 {
		s.bindings = append([]Binding(nil), s.bindings...)
	}
}

// Lookup finds the innermost binding for prefix. The second return is
// false when the prefix has never been bound. An empty URI with ok ==
// true means the default namespace was explicitly undeclared.
func (s *Stack) Lookup(prefix string) (string, bool) {
	for i := len(s.bindings) - 1; i >= 0; i-- {
		if s.bindings[i].Prefix == prefix {
			return s.bindings[i].URI, true
		}
	}
	return "", false
}

// DeclaredSince reports whether prefix was bound at or after mark.
// Used to reject duplicate declarations on a single element.
func (s *Stack) DeclaredSince(mark int, prefix string) bool {
	for i := len(s.bindings) - 1; i >= mark; i-- {
		if s.bindings[i].Prefix == prefix {
			return true
		}
	}
	return false
}
