// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/pipeline/audittrail"
	"github.com/moov-io/screener/pkg/pipeline/notify"
	"github.com/moov-io/screener/pkg/sources"
	"github.com/moov-io/screener/pkg/upload"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsTotal = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "pipeline_uploads_total",
		Help: "Counter of source files processed by the pipeline",
	}, []string{"source", "result"})
)

// Downloader is satisfied by *sources.Downloader.
type Downloader interface {
	Download(ctx context.Context, src config.Source) (*sources.Table, error)
}

// Pipeline downloads each configured source, stages it as a CSV file and
// uploads it to the remote server.
type Pipeline struct {
	logger log.Logger
	cfg    config.Pipeline

	downloader Downloader
	agent      upload.Agent
	audit      audittrail.Storage
	notifier   notify.Sender

	// mu serializes runs so scheduled and manual triggers don't overlap
	mu      sync.Mutex
	trigger chan manuallyTriggeredRun
}

func New(
	logger log.Logger,
	cfg config.Pipeline,
	downloader Downloader,
	agent upload.Agent,
	audit audittrail.Storage,
	notifier notify.Sender,
) *Pipeline {
	return &Pipeline{
		logger:     logger,
		cfg:        cfg,
		downloader: downloader,
		agent:      agent,
		audit:      audit,
		notifier:   notifier,
		trigger:    make(chan manuallyTriggeredRun, 1),
	}
}

// Start runs the pipeline on every tick and manual trigger until ctx is done
// or ticks is closed.
func (p *Pipeline) Start(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				p.logger.Log("pipeline", "schedule stopped, shutting down")
				return
			}
			if err := p.Run(ctx); err != nil {
				p.logger.Log("pipeline", fmt.Sprintf("ERROR during scheduled run: %v", err))
			}

		case waiter := <-p.trigger:
			waiter.C <- p.Run(ctx)

		case <-ctx.Done():
			p.logger.Log("pipeline", "shutting down")
			return
		}
	}
}

// Run processes every source once. A failed source is reported and the
// remaining sources are still processed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.cfg.Sources) == 0 {
		p.logger.Log("pipeline", "no sources configured")
		return nil
	}

	var failed []string
	for i := range p.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := p.cfg.Sources[i]
		if err := p.process(ctx, src); err != nil {
			failed = append(failed, src.Name)
			uploadsTotal.With("source", src.Name, "result", "failure").Add(1)
			p.logger.Log("pipeline", fmt.Sprintf("ERROR processing %s: %v", src.Name, err))
		} else {
			uploadsTotal.With("source", src.Name, "result", "success").Add(1)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed sources: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (p *Pipeline) process(ctx context.Context, src config.Source) error {
	msg := &notify.Message{
		Source:   src.Name,
		Hostname: p.agent.Hostname(),
	}
	err := p.upload(ctx, src, msg)
	if err != nil {
		msg.Err = err
		if nerr := p.notifier.Critical(msg); nerr != nil {
			p.logger.Log("pipeline", fmt.Sprintf("problem sending critical notification for %s: %v", src.Name, nerr))
		}
		return err
	}
	if nerr := p.notifier.Info(msg); nerr != nil {
		p.logger.Log("pipeline", fmt.Sprintf("problem sending notification for %s: %v", src.Name, nerr))
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, src config.Source, msg *notify.Message) error {
	table, err := p.downloader.Download(ctx, src)
	if err != nil {
		return err
	}
	msg.Rows = len(table.Rows)

	filename, err := upload.RenderFilename(p.cfg.FilenameTemplate, upload.FilenameData{
		SourceName: src.Name,
	})
	if err != nil {
		return fmt.Errorf("rendering filename: %v", err)
	}
	msg.Filename = filename

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		return fmt.Errorf("writing csv: %v", err)
	}

	path, err := p.stage(filename, buf.Bytes())
	if err != nil {
		return err
	}
	defer p.remove(path)

	p.logger.Log("pipeline", fmt.Sprintf("%s is uploaded", filename))

	if p.audit != nil {
		if err := p.audit.SaveFile(filename, buf.Bytes()); err != nil {
			return fmt.Errorf("saving %s to audit trail: %v", filename, err)
		}
	}

	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	if err := p.agent.UploadFile(upload.File{Filename: filename, Contents: fd}); err != nil {
		return fmt.Errorf("uploading %s: %v", filename, err)
	}
	return nil
}

func (p *Pipeline) stage(filename string, contents []byte) (string, error) {
	dir := p.cfg.Directory
	if dir == "" {
		return "", errors.New("missing pipeline directory")
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", fmt.Errorf("creating %s: %v", dir, err)
	}
	path := filepath.Join(dir, filename)
	if err := ioutil.WriteFile(path, contents, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %v", path, err)
	}
	return path, nil
}

func (p *Pipeline) remove(path string) {
	p.logger.Log("pipeline", fmt.Sprintf("%s to be removed", filepath.Base(path)))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Log("pipeline", fmt.Sprintf("problem removing %s: %v", path, err))
	}
}
