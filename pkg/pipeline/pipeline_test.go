// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/pipeline/audittrail"
	"github.com/moov-io/screener/pkg/pipeline/notify"
	"github.com/moov-io/screener/pkg/sources"
	"github.com/moov-io/screener/pkg/upload"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
)

type mockDownloader struct {
	tables map[string]*sources.Table
	err    error
}

func (dl *mockDownloader) Download(_ context.Context, src config.Source) (*sources.Table, error) {
	if dl.err != nil {
		return nil, dl.err
	}
	table, ok := dl.tables[src.Name]
	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return table, nil
}

type testPipeline struct {
	*Pipeline

	dir      string
	agent    *upload.MockAgent
	audit    *audittrail.MockStorage
	notifier *notify.MockSender
}

func setupTestPipeline(t *testing.T, dl Downloader, names ...string) *testPipeline {
	t.Helper()

	dir, err := ioutil.TempDir("", "screener-pipeline")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfg := config.Pipeline{
		Directory: dir,
	}
	for i := range names {
		cfg.Sources = append(cfg.Sources, config.Source{
			Name: names[i],
			URL:  "https://example.com/" + names[i] + ".csv",
		})
	}

	tp := &testPipeline{
		dir:      dir,
		agent:    &upload.MockAgent{},
		audit:    &audittrail.MockStorage{},
		notifier: &notify.MockSender{},
	}
	tp.Pipeline = New(log.NewNopLogger(), cfg, dl, tp.agent, tp.audit, tp.notifier)
	return tp
}

func ofacTable() *sources.Table {
	return &sources.Table{
		Header: []string{"name", "program"},
		Rows: [][]string{
			{"JOHN SMITH", "SDGT"},
			{"ANGLO-CARIBBEAN CO., LTD.", "CUBA"},
		},
	}
}

func TestPipeline__Run(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"OFAC": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC")

	require.NoError(t, tp.Run(context.Background()))

	expected := "name,program\nJOHN SMITH,SDGT\n\"ANGLO-CARIBBEAN CO., LTD.\",CUBA\n"

	bs, ok := tp.agent.File("OFAC.CSV")
	require.True(t, ok)
	require.Equal(t, expected, string(bs))
	require.Equal(t, expected, string(tp.audit.Saved["OFAC.CSV"]))

	infos := tp.notifier.Infos()
	require.Len(t, infos, 1)
	require.Equal(t, "OFAC", infos[0].Source)
	require.Equal(t, "OFAC.CSV", infos[0].Filename)
	require.Equal(t, "ftp.example.com", infos[0].Hostname)
	require.Equal(t, 2, infos[0].Rows)
	require.Empty(t, tp.notifier.Criticals())

	// staged file is removed
	_, err := os.Stat(tp.dir + "/OFAC.CSV")
	require.True(t, os.IsNotExist(err))
}

func TestPipeline__RunContinuesAfterFailure(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"EU": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC", "EU")

	err := tp.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "OFAC")

	criticals := tp.notifier.Criticals()
	require.Len(t, criticals, 1)
	require.Equal(t, "OFAC", criticals[0].Source)
	require.Error(t, criticals[0].Err)

	// EU is still uploaded
	_, ok := tp.agent.File("EU.CSV")
	require.True(t, ok)
	require.Len(t, tp.notifier.Infos(), 1)
}

func TestPipeline__uploadFailure(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"OFAC": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC")
	tp.agent.Err = errors.New("530 Login incorrect")

	err := tp.Run(context.Background())
	require.Error(t, err)

	criticals := tp.notifier.Criticals()
	require.Len(t, criticals, 1)
	require.Contains(t, criticals[0].Err.Error(), "530 Login incorrect")
	require.Equal(t, "OFAC.CSV", criticals[0].Filename)

	// staged file is removed on failures too
	infos, err := ioutil.ReadDir(tp.dir)
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestPipeline__auditFailure(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"OFAC": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC")
	tp.audit.Err = errors.New("bucket unavailable")

	require.Error(t, tp.Run(context.Background()))

	// nothing is uploaded without an archived copy
	_, ok := tp.agent.File("OFAC.CSV")
	require.False(t, ok)
}

func TestPipeline__filenameTemplate(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"ofac": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "ofac")
	tp.cfg.FilenameTemplate = `sanctions-{{ upper .SourceName }}.csv`

	require.NoError(t, tp.Run(context.Background()))

	_, ok := tp.agent.File("sanctions-OFAC.csv")
	require.True(t, ok)
}

func TestPipeline__noSources(t *testing.T) {
	tp := setupTestPipeline(t, &mockDownloader{})
	require.NoError(t, tp.Run(context.Background()))
	require.Empty(t, tp.notifier.Infos())
}

func TestPipeline__cancelled(t *testing.T) {
	tp := setupTestPipeline(t, &mockDownloader{}, "OFAC")

	ctx, cancelFunc := context.WithCancel(context.Background())
	cancelFunc()

	require.Equal(t, context.Canceled, tp.Run(ctx))
}

func TestPipeline__Start(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"OFAC": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC")

	ctx, cancelFunc := context.WithCancel(context.Background())
	done := make(chan struct{})

	ticks := make(chan time.Time)
	go func() {
		tp.Start(ctx, ticks)
		close(done)
	}()

	ticks <- time.Now()

	// a manual trigger is handled after the scheduled run
	req := httptest.NewRequest("PUT", "/pipeline/run", nil)
	w := httptest.NewRecorder()
	tp.triggerManualRun()(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, tp.notifier.Infos(), 2)

	cancelFunc()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline didn't shut down")
	}
}

func TestPipeline__StartClosedTicks(t *testing.T) {
	dl := &mockDownloader{
		tables: map[string]*sources.Table{"OFAC": ofacTable()},
	}
	tp := setupTestPipeline(t, dl, "OFAC")

	done := make(chan struct{})
	ticks := make(chan time.Time)
	go func() {
		tp.Start(context.Background(), ticks)
		close(done)
	}()

	close(ticks)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline didn't shut down")
	}

	// a closed schedule never starts a run
	require.Len(t, tp.notifier.Infos(), 0)
	require.Len(t, tp.notifier.Criticals(), 0)
}

func TestPipeline__triggerErrors(t *testing.T) {
	tp := setupTestPipeline(t, &mockDownloader{err: errors.New("timeout")}, "OFAC")

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go tp.Start(ctx, nil)

	// wrong method
	req := httptest.NewRequest("GET", "/pipeline/run", nil)
	w := httptest.NewRecorder()
	tp.triggerManualRun()(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest("PUT", "/pipeline/run", nil)
	w = httptest.NewRecorder()
	tp.triggerManualRun()(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "OFAC")
}
