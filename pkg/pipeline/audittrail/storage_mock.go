// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package audittrail

import (
	"sync"
)

type MockStorage struct {
	Err error

	mu    sync.Mutex
	Saved map[string][]byte
}

func (s *MockStorage) SaveFile(filename string, contents []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if s.Saved == nil {
		s.Saved = make(map[string][]byte)
	}
	s.Saved[filename] = contents
	return nil
}

func (s *MockStorage) Close() error {
	return s.Err
}
