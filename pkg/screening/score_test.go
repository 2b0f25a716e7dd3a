// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	score, ok := Score("JOHN SMITH", "JOHN SMITH", false)
	require.True(t, ok)
	require.Equal(t, 1.0, score)

	score, ok = Score("JOHN SMITH", "JOHN SMYTH", false)
	require.True(t, ok)
	require.Equal(t, 0.9, score)

	// 2*3 / 18
	score, ok = Score("JANE DOE", "JOHN SMITH", false)
	require.True(t, ok)
	require.Equal(t, 0.3333, score)

	score, ok = Score("ABC", "XYZ", false)
	require.True(t, ok)
	require.Equal(t, 0.0, score)
}

func TestScore__ties(t *testing.T) {
	// 2*25 / 64 is exactly 0.78125
	score, ok := Score(strings.Repeat("A", 25)+strings.Repeat("B", 7), strings.Repeat("A", 25)+strings.Repeat("C", 7), false)
	require.True(t, ok)
	require.Equal(t, 0.7812, score)

	// 2*21 / 64 is exactly 0.65625
	score, ok = Score(strings.Repeat("A", 21)+strings.Repeat("B", 11), strings.Repeat("A", 21)+strings.Repeat("C", 11), false)
	require.True(t, ok)
	require.Equal(t, 0.6562, score)

	// 2*29 / 64 is exactly 0.90625
	score, ok = Score(strings.Repeat("A", 29)+"BBB", strings.Repeat("A", 29)+"CCC", false)
	require.True(t, ok)
	require.Equal(t, 0.9062, score)

	// 2*27 / 64 is exactly 0.84375, rounds up to the even digit
	score, ok = Score(strings.Repeat("A", 27)+strings.Repeat("B", 5), strings.Repeat("A", 27)+strings.Repeat("C", 5), false)
	require.True(t, ok)
	require.Equal(t, 0.8438, score)
}

func TestRound4(t *testing.T) {
	require.Equal(t, 0.0312, round4(0.03125))
	require.Equal(t, 0.0938, round4(0.09375))
	require.Equal(t, 0.3333, round4(1.0/3))
	require.Equal(t, 0.5, round4(0.5))
	require.Equal(t, 0.0, round4(0.00004))
}

func TestScore__symmetric(t *testing.T) {
	pairs := [][2]string{
		{"JOHN SMITH", "JON SMITHE"},
		{"BANCO NACIONAL DE CUBA", "BANCO CUBA"},
		{"A", "AB"},
		{"ÉMILE", "EMILE"},
	}
	for i := range pairs {
		ab, ok1 := Score(pairs[i][0], pairs[i][1], false)
		ba, ok2 := Score(pairs[i][1], pairs[i][0], false)
		require.True(t, ok1 && ok2)
		require.Equal(t, ab, ba, "%v", pairs[i])
	}
}

func TestScore__uncomputable(t *testing.T) {
	_, ok := Score("", "JOHN", false)
	require.False(t, ok)

	_, ok = Score("JOHN", "", false)
	require.False(t, ok)

	_, ok = Score("", "", false)
	require.False(t, ok)

	_, err := Ratio("", "x")
	require.Equal(t, ErrUncomputable, err)
}

func TestScore__sortTokens(t *testing.T) {
	// only the first operand's tokens are used
	score, ok := Score("SMITH JOHN", "COMPLETELY DIFFERENT", true)
	require.True(t, ok)
	require.Equal(t, 1.0, score)

	_, ok = Score("", "JOHN", true)
	require.False(t, ok)
}

func TestRatio(t *testing.T) {
	ratio, err := Ratio("ABCD", "ACBD")
	require.NoError(t, err)
	require.Equal(t, 75.0, ratio)

	// multi-byte runes count once
	ratio, err = Ratio("ÄB", "AB")
	require.NoError(t, err)
	require.Equal(t, 50.0, ratio)
}

func TestLongestCommonSubsequence(t *testing.T) {
	require.Equal(t, 0, longestCommonSubsequence(nil, []rune("abc")))
	require.Equal(t, 3, longestCommonSubsequence([]rune("abc"), []rune("abc")))
	require.Equal(t, 4, longestCommonSubsequence([]rune("AGGTAB"), []rune("GXTXAYB")))
}
