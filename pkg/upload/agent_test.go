// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"bytes"
	"errors"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
)

func TestNew__missing(t *testing.T) {
	agent, err := New(log.NewNopLogger(), config.Upload{})
	require.Error(t, err)
	require.Nil(t, agent)
}

func TestNew__notAllowed(t *testing.T) {
	cfg := config.Upload{
		AllowedIPs: "10.0.0.0/8",
		FTP: &config.FTP{
			Hostname: "127.0.0.1:2121",
		},
	}
	_, err := New(log.NewNopLogger(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not allowed")

	cfg.FTP, cfg.SFTP = nil, &config.SFTP{Hostname: "127.0.0.1:2222"}
	_, err = New(log.NewNopLogger(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not allowed")
}

type closer struct {
	*strings.Reader
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestMockAgent(t *testing.T) {
	agent := &MockAgent{}

	contents := &closer{Reader: strings.NewReader("name\nJOHN SMITH\n")}
	require.NoError(t, agent.UploadFile(File{Filename: "ofac.CSV", Contents: contents}))
	require.True(t, contents.closed)

	bs, ok := agent.File("ofac.CSV")
	require.True(t, ok)
	require.Equal(t, "name\nJOHN SMITH\n", string(bs))

	agent.Err = errors.New("bad")
	require.Error(t, agent.UploadFile(File{Filename: "eu.CSV", Contents: ioutil.NopCloser(&bytes.Buffer{})}))
	require.Error(t, agent.Ping())

	_, ok = agent.File("eu.CSV")
	require.False(t, ok)
}

func TestFile__Close(t *testing.T) {
	require.NoError(t, File{Filename: "empty"}.Close())
}

func TestHostname(t *testing.T) {
	require.Equal(t, "ftp.example.com", hostname("ftp.example.com:21"))
	require.Equal(t, "ftp.example.com", hostname("ftp.example.com"))
	require.Equal(t, "::1", hostname("[::1]:22"))
}
