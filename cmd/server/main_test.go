// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/moov-io/base/admin"
	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/database"
	"github.com/moov-io/screener/pkg/screening"

	"github.com/stretchr/testify/require"
)

func TestMain__readConfig(t *testing.T) {
	cfg, err := readConfig(filepath.Join("..", "..", "pkg", "config", "testdata", "valid.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "json", cfg.Logging.Format)

	_, err = readConfig(filepath.Join("..", "..", "pkg", "config", "testdata", "invalid.yaml"))
	require.Error(t, err)
}

func TestMain__setupRequestLog(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()

	ctx := context.Background()
	cfg := config.Empty()

	requests, closeFn, err := setupRequestLog(ctx, cfg, db.DB)
	require.NoError(t, err)
	require.NotNil(t, requests)
	closeFn()

	cfg.Screening.RequestLog.Disabled = true
	requests, closeFn, err = setupRequestLog(ctx, cfg, db.DB)
	require.NoError(t, err)
	require.Nil(t, requests)
	closeFn()

	cfg.Screening.RequestLog.Stream = &config.Stream{
		InMem: &config.InMemStream{URL: "mem://screening-requests"},
	}
	requests, closeFn, err = setupRequestLog(ctx, cfg, db.DB)
	require.NoError(t, err)
	require.IsType(t, &screening.StreamLogger{}, requests)
	closeFn()
}

func TestMain__setupPipeline(t *testing.T) {
	svc := admin.NewServer(":0")
	defer svc.Shutdown()

	cfg := config.Empty()
	shutdown, err := setupPipeline(context.Background(), cfg, svc)
	require.NoError(t, err)
	shutdown()

	cfg.Pipeline.Sources = []config.Source{{Name: "OFAC", URL: "https://example.com/sdn.csv"}}
	_, err = setupPipeline(context.Background(), cfg, svc)
	require.Error(t, err)
}

func TestMain__setupTracer(t *testing.T) {
	cfg := config.Empty()
	closer, err := setupTracer(cfg)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
}

func TestMain__or(t *testing.T) {
	require.Equal(t, "a", or("", " ", "a", "b"))
	require.Equal(t, "", or())
}
