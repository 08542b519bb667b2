package internal

import "strings"

// aliasPrefix namespaces entries managed by this tool inside the keystore.
const aliasPrefix = "debian:"

// DirectiveKind identifies what an input line asks for.
type DirectiveKind int

const (
	DirectiveInvalid DirectiveKind = iota
	DirectiveAdd
	DirectiveRemove
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveAdd:
		return "add"
	case DirectiveRemove:
		return "remove"
	default:
		return "invalid"
	}
}

// Directive is one parsed input line.
type Directive struct {
	Kind DirectiveKind
	Path string // certificate path; empty for invalid lines
	Line string // the raw input line
}

// ParseDirective turns one input line into a Directive. Lines starting with
// "+" add the certificate at the rest of the line, lines starting with "-"
// remove it, anything else is invalid. It never fails.
func ParseDirective(line string) Directive {
	switch {
	case strings.HasPrefix(line, "+"):
		return Directive{Kind: DirectiveAdd, Path: line[1:], Line: line}
	case strings.HasPrefix(line, "-"):
		return Directive{Kind: DirectiveRemove, Path: line[1:], Line: line}
	default:
		return Directive{Kind: DirectiveInvalid, Line: line}
	}
}

// Alias returns the keystore alias for a certificate path: "debian:" followed
// by everything after the last "/". Paths sharing a file name share an alias.
func Alias(path string) string {
	return aliasPrefix + LegacyAlias(path)
}

// LegacyAlias returns the unprefixed alias that releases before Wheezy used.
// It is only consulted when removing certificates.
func LegacyAlias(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
