// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"sync"
)

type MockSource struct {
	Records []Record
	Err     error

	mu    sync.Mutex
	calls int
}

func (s *MockSource) FetchAll(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// Calls returns how many times FetchAll was called.
func (s *MockSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type MockRequestLogger struct {
	Entries []RequestLogEntry
	Err     error

	mu sync.Mutex
}

func (l *MockRequestLogger) Record(_ context.Context, entry RequestLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return l.Err
	}
	l.Entries = append(l.Entries, entry)
	return nil
}
