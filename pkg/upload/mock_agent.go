// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"io/ioutil"
	"sync"
)

type MockAgent struct {
	// Uploaded holds the contents of each uploaded file by name
	Uploaded map[string][]byte
	mu       sync.RWMutex // protects all fields

	Err error
}

func (a *MockAgent) UploadFile(f File) error {
	defer f.Close()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Err != nil {
		return a.Err
	}
	// read f.Contents before callers remove the underlying file
	bs, err := ioutil.ReadAll(f.Contents)
	if err != nil {
		return err
	}
	if a.Uploaded == nil {
		a.Uploaded = make(map[string][]byte)
	}
	a.Uploaded[f.Filename] = bs
	return nil
}

func (a *MockAgent) File(name string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	bs, ok := a.Uploaded[name]
	return bs, ok
}

func (a *MockAgent) OutboundPath() string {
	return "outbound/"
}

func (a *MockAgent) Hostname() string {
	return "ftp.example.com"
}

func (a *MockAgent) Ping() error {
	return a.Err
}

func (a *MockAgent) Close() error {
	return nil
}
