// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRecords() []Record {
	return []Record{
		{Name: "John Smith", Fields: map[string]interface{}{"name": "John Smith", "entity_id": "1", "programs": "SDGT"}},
		{Name: "Jane Doe", Fields: map[string]interface{}{"name": "Jane Doe", "entity_id": "2", "programs": nil}},
		{Name: "JOHN-SMITH", Fields: map[string]interface{}{"name": "JOHN-SMITH", "entity_id": "3"}},
		{Name: "", Fields: map[string]interface{}{"name": nil, "entity_id": "4"}},
	}
}

func TestFilter(t *testing.T) {
	matches := Filter(testRecords(), "john smith", 0.7)
	require.Len(t, matches, 2)

	// source order is kept
	require.Equal(t, "John Smith", matches[0].Record.Name)
	require.Equal(t, 1.0, matches[0].Score)
	require.Equal(t, "JOHN-SMITH", matches[1].Record.Name)
	require.Equal(t, 1.0, matches[1].Score)
}

func TestFilter__fuzzy(t *testing.T) {
	matches := Filter(testRecords(), "Jon Smyth", 0.7)
	require.Len(t, matches, 2)
	for i := range matches {
		require.GreaterOrEqual(t, matches[i].Score, 0.7)
		require.Less(t, matches[i].Score, 1.0)
	}

	require.Empty(t, Filter(testRecords(), "Jon Smyth", 0.95))
}

func TestFilter__exactOnly(t *testing.T) {
	matches := Filter(testRecords(), "jane-doe", 1.0)
	require.Len(t, matches, 1)
	require.Equal(t, "2", matches[0].Record.Fields["entity_id"])
}

func TestFilter__zeroThreshold(t *testing.T) {
	// empty names are never scored, even at threshold 0
	matches := Filter(testRecords(), "x", 0.0)
	require.Len(t, matches, 3)
}

func TestFilter__empty(t *testing.T) {
	require.Nil(t, Filter(nil, "john smith", 0.7))
	require.Nil(t, Filter([]Record{}, "john smith", 0.7))

	// a query which normalizes to nothing can't match
	require.Empty(t, Filter(testRecords(), "!!!", 0.0))
}
