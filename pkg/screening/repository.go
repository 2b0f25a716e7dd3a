// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/screener/pkg/database"
)

// ErrDuplicateRequest is returned when a request ID has already been recorded.
var ErrDuplicateRequest = errors.New("screening request already recorded")

// CandidateSource returns the current sanctions list.
type CandidateSource interface {
	FetchAll(ctx context.Context) ([]Record, error)
}

// RequestLogger records screening requests. Implementations are called after each
// request and their errors are only logged.
type RequestLogger interface {
	Record(ctx context.Context, entry RequestLogEntry) error
}

// NewCandidateSource reads every row of table, using nameColumn for Record.Name.
// Both identifiers are expected to be validated by config.Screening.
func NewCandidateSource(db *sql.DB, table, nameColumn string) CandidateSource {
	return &sqlSource{
		db:         db,
		query:      fmt.Sprintf(`select * from %s;`, table),
		nameColumn: nameColumn,
	}
}

type sqlSource struct {
	db         *sql.DB
	query      string
	nameColumn string
}

func (r *sqlSource) FetchAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	nameIdx := -1
	for i := range columns {
		if strings.EqualFold(columns[i], r.nameColumn) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("name column %q not found in %v", r.nameColumn, columns)
	}

	var out []Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("fetch: row %d: %v", len(out), err)
		}

		rec := Record{
			Fields: make(map[string]interface{}, len(columns)),
		}
		for i := range columns {
			// drivers return text columns as []byte
			if bs, ok := values[i].([]byte); ok {
				values[i] = string(bs)
			}
			rec.Fields[columns[i]] = values[i]
		}
		if name, ok := values[nameIdx].(string); ok {
			rec.Name = name
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// NewRequestLog writes each screening request into the screening_requests table.
func NewRequestLog(db *sql.DB) RequestLogger {
	return &sqlRequestLog{db: db}
}

type sqlRequestLog struct {
	db *sql.DB
}

func (r *sqlRequestLog) Record(ctx context.Context, entry RequestLogEntry) error {
	query := `insert into screening_requests (request_id, name, had_matches, created_at) values (?, ?, ?, ?);`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, entry.RequestID, entry.Name, entry.HadMatches, entry.CreatedAt)
	if database.UniqueViolation(err) {
		return fmt.Errorf("%w: requestID=%s", ErrDuplicateRequest, entry.RequestID)
	}
	return err
}

// MultiLogger records each entry with every RequestLogger and returns the first error.
func MultiLogger(loggers ...RequestLogger) RequestLogger {
	return multiLogger(loggers)
}

type multiLogger []RequestLogger

func (ml multiLogger) Record(ctx context.Context, entry RequestLogEntry) error {
	var firstError error
	for i := range ml {
		if err := ml[i].Record(ctx, entry); err != nil && firstError == nil {
			firstError = err
		}
	}
	return firstError
}
