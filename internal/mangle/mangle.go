// Package mangle classifies and demangles Itanium C++ symbol names.
package mangle

import "github.com/ianlancetaylor/demangle"

// IsItaniumEncoding reports whether name follows the Itanium mangling
// scheme: one to four leading underscores immediately followed by 'Z'.
// A name with no leading underscore, or consisting entirely of
// underscores, does not qualify.
func IsItaniumEncoding(name string) bool {
	p := 0
	for p < len(name) && name[p] == '_' {
		p++
	}
	return p >= 1 && p <= 4 && p < len(name) && name[p] == 'Z'
}

// Demangle returns the demangled form of name. Names that do not demangle
// are returned unchanged.
func Demangle(name string) string {
	return demangle.Filter(name)
}
