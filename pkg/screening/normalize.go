// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separators = strings.NewReplacer("/", " ", "-", " ")

// Normalize returns the canonical form of a name used for comparisons.
//
// Slashes and hyphens become spaces, the name is upper-cased, anything other
// than letters, digits and whitespace is dropped, and whitespace runs are
// collapsed into single spaces with no leading or trailing space.
func Normalize(raw string) string {
	s := separators.Replace(raw)

	// cases.Caser holds state, so one is created per call
	s = cases.Upper(language.Und).String(s)

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// NormalizeAll normalizes every name, returning a new slice in the same order.
func NormalizeAll(names []string) []string {
	out := make([]string, len(names))
	for i := range names {
		out[i] = Normalize(names[i])
	}
	return out
}
