// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

// Filter compares query against the name of every candidate and returns those
// scoring at or above threshold, in the order they were given.
//
// Both sides are normalized before scoring. Candidates whose score can't be
// computed (such as an empty name) are never returned.
func Filter(candidates []Record, query string, threshold float64) []Match {
	if len(candidates) == 0 {
		return nil
	}

	query = Normalize(query)

	names := make([]string, len(candidates))
	for i := range candidates {
		names[i] = candidates[i].Name
	}
	names = NormalizeAll(names)

	var out []Match
	for i := range candidates {
		score, ok := Score(names[i], query, false)
		if !ok || score < threshold {
			continue
		}
		out = append(out, Match{
			Record: candidates[i],
			Score:  score,
		})
	}
	return out
}
