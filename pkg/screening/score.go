// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUncomputable is returned when two strings can't be compared, which
	// happens when either is empty.
	ErrUncomputable = errors.New("similarity can not be computed")
)

// Score compares a and b and returns their similarity in [0, 1] rounded to
// four decimal places, with exact ties going to the even digit. ok is false
// when no score could be computed.
//
// With sortTokens both operands are replaced by the whitespace separated
// tokens of a in sorted order. Only a's tokens are used, so b does not
// influence a token sorted score.
func Score(a, b string, sortTokens bool) (score float64, ok bool) {
	if sortTokens {
		tokens := strings.Fields(a)
		sort.Strings(tokens)
		a = strings.Join(tokens, " ")
		b = a
	}
	ratio, err := Ratio(a, b)
	if err != nil {
		return 0, false
	}
	return round4(ratio / 100), true
}

// round4 rounds the exact binary value of f to four decimals, half to even.
func round4(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 4, 64), 64)
	return v
}

// Ratio returns the normalized Indel similarity of a and b in [0, 100].
//
// The Indel distance counts the insertions and deletions needed to turn a
// into b, which is len(a) + len(b) - 2*LCS(a, b) over runes.
func Ratio(a, b string) (float64, error) {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if len(ra) == 0 || len(rb) == 0 {
		return 0, ErrUncomputable
	}
	lcs := longestCommonSubsequence(ra, rb)
	return 100 * float64(2*lcs) / float64(total), nil
}

func longestCommonSubsequence(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
