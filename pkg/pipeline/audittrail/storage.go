// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package audittrail

import (
	"errors"

	"github.com/moov-io/screener/pkg/config"
)

// Storage keeps a copy of every uploaded file for records retention.
//
// File retention after upload is not part of this storage.
type Storage interface {
	SaveFile(filename string, contents []byte) error

	Close() error
}

// NewStorage returns a MockStorage when cfg is nil.
func NewStorage(cfg *config.AuditTrail) (Storage, error) {
	if cfg == nil {
		return &MockStorage{}, nil
	}
	if cfg.BucketURI != "" {
		return newBlobStorage(cfg)
	}
	return nil, errors.New("unknown storage config")
}
