// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"time"

	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/pipeline/audittrail"
	"github.com/moov-io/screener/pkg/pipeline/notify"
	"github.com/moov-io/screener/pkg/sources"
	"github.com/moov-io/screener/pkg/upload"
	"github.com/moov-io/screener/x/schedule"

	"github.com/go-kit/kit/log"
)

// FromConfig connects the upload agent and opens the audit trail and notifiers
// described by cfg. Callers should Close the returned Pipeline.
func FromConfig(logger log.Logger, cfg config.Pipeline) (*Pipeline, error) {
	agent, err := upload.New(logger, cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("upload agent: %v", err)
	}
	audit, err := audittrail.NewStorage(cfg.AuditTrail)
	if err != nil {
		agent.Close()
		return nil, fmt.Errorf("audit trail: %v", err)
	}
	notifier, err := notify.NewMultiSender(logger, cfg.Notifications)
	if err != nil {
		agent.Close()
		audit.Close()
		return nil, fmt.Errorf("notifications: %v", err)
	}
	return New(logger, cfg, sources.NewDownloader(logger, nil), agent, audit, notifier), nil
}

// Schedule returns the daily ticker for cfg.Schedule.
func Schedule(cfg config.Pipeline) (*schedule.DailyTimes, error) {
	if cfg.Schedule == nil || len(cfg.Schedule.Times) == 0 {
		return nil, fmt.Errorf("missing pipeline schedule")
	}
	return schedule.ForDailyTimes(cfg.Schedule.Timezone, cfg.Schedule.Times)
}

func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var firstError error
	if p.agent != nil {
		firstError = p.agent.Close()
	}
	if p.audit != nil {
		if err := p.audit.Close(); err != nil && firstError == nil {
			firstError = err
		}
	}
	return firstError
}

// nextRuns returns when the pipeline will next run, for startup logging.
func nextRuns(cfg config.Pipeline, now time.Time) []time.Time {
	if cfg.Schedule == nil {
		return nil
	}
	location := time.UTC
	if cfg.Schedule.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Schedule.Timezone); err == nil {
			location = l
		}
	}
	now = now.In(location)

	var out []time.Time
	for i := range cfg.Schedule.Times {
		when, err := time.Parse("15:04", cfg.Schedule.Times[i])
		if err != nil {
			continue
		}
		next := time.Date(now.Year(), now.Month(), now.Day(), when.Hour(), when.Minute(), 0, 0, location)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		out = append(out, next)
	}
	return out
}

// LogSchedule logs the next run of each configured time.
func LogSchedule(logger log.Logger, cfg config.Pipeline) {
	for _, next := range nextRuns(cfg, time.Now()) {
		logger.Log("pipeline", fmt.Sprintf("next run at %s", next.Format(time.RFC3339)))
	}
}
