// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"errors"
	"fmt"
	"io"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
)

// Agent uploads files to a remote server.
type Agent interface {
	UploadFile(f File) error
	Ping() error

	OutboundPath() string
	Hostname() string

	Close() error
}

// File is a named stream of contents to upload. Contents are always
// closed by an Agent.
type File struct {
	Filename string
	Contents io.ReadCloser
}

func (f File) Close() error {
	if f.Contents == nil {
		return nil
	}
	return f.Contents.Close()
}

// New returns an FTP agent when cfg.FTP is set, otherwise an SFTP agent.
func New(logger log.Logger, cfg config.Upload) (Agent, error) {
	switch {
	case cfg.FTP != nil:
		logger.Log("upload", fmt.Sprintf("using %v", cfg.FTP))
		return newFTPTransferAgent(logger, cfg)
	case cfg.SFTP != nil:
		logger.Log("upload", fmt.Sprintf("using %v", cfg.SFTP))
		return newSFTPTransferAgent(logger, cfg)
	}
	return nil, errors.New("upload: missing ftp or sftp config")
}
