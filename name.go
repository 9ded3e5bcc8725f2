package sxml

import (
	"errors"
	"strings"
)

var (
	errMultiColonName = errors.New("more than one colon in name")
	errEmptyNamePart  = errors.New("empty string on one side of the colon")
)

// splitName splits a raw qualified name into its prefix and local part,
// enforcing the Namespaces in XML 1.0 shape: at most one colon, with
// neither side empty. The lexer guarantees the character classes, so only
// the colon structure is checked here.
func splitName(qname string) (prefix string, local string, err error) {
	i := strings.IndexByte(qname, ':')
	if i < 0 {
		return "", qname, nil
	}
	if strings.IndexByte(qname[i+1:], ':') >= 0 {
		return "", "", errMultiColonName
	}
	prefix = qname[:i]
	local = qname[i+1:]
	if prefix == "" || local == "" {
		return "", "", errEmptyNamePart
	}
	return prefix, local, nil
}
