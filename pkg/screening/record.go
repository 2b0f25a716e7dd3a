// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"encoding/json"
	"time"
)

// Placeholder is rendered in place of missing or null record fields.
const Placeholder = "-"

// Record is one row of the sanctions list.
//
// Fields holds every column of the row, keyed by column name, including the
// name column. Values are passed through from the source unchanged, a nil
// value represents a null column.
type Record struct {
	Name   string
	Fields map[string]interface{}
}

// Render returns the fields of r with nil values replaced by Placeholder.
func (r Record) Render() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		if v == nil {
			out[k] = Placeholder
		} else {
			out[k] = v
		}
	}
	return out
}

// Match is a Record whose name scored at or above the requested threshold.
type Match struct {
	Record Record
	Score  float64
}

func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Record map[string]interface{} `json:"record"`
		Score  float64                `json:"score"`
	}{
		Record: m.Record.Render(),
		Score:  m.Score,
	})
}

// RequestLogEntry records a single screening request.
type RequestLogEntry struct {
	RequestID  string    `json:"requestID"`
	Name       string    `json:"name"`
	HadMatches bool      `json:"hadMatches"`
	CreatedAt  time.Time `json:"createdAt"`
}
