// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/moov-io/base/docker"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
)

// spawnMailslurp starts an SMTPS server accepting any credentials and returns
// a connection URI for it. The container is removed when t finishes.
func spawnMailslurp(t *testing.T) string {
	t.Helper()

	if testing.Short() || !docker.Enabled() {
		t.Skip("skipping docker test")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository:   "oryd/mailslurper",
		Tag:          "latest-smtps",
		ExposedPorts: []string{"1025"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	addr := net.JoinHostPort("localhost", container.GetPort("1025/tcp"))
	err = pool.Retry(func() error {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return err
		}
		return conn.Close()
	})
	require.NoError(t, err)

	return fmt.Sprintf("smtps://test:test@%s/?insecure_skip_verify=true", addr)
}
