// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	screeningRequests = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "screening_requests_total",
		Help: "Counter of screening requests by their outcome",
	}, []string{"status"})

	requestLogFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "screening_request_log_failures",
		Help: "Counter of screening requests which failed to be recorded",
	}, nil)
)

var (
	ErrMissingName      = errors.New("missing name")
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
)

// DataSourceError is returned when the sanctions list could not be read.
type DataSourceError struct {
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("sanctions data source: %v", e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

type Status string

const (
	NoData    Status = "no_data"
	NoMatches Status = "no_matches"
	Matches   Status = "matches"
)

// Outcome is the result of screening a name. Matches is only populated
// when Status is Matches.
type Outcome struct {
	Status  Status
	Matches []Match
}

type Service struct {
	logger   log.Logger
	source   CandidateSource
	requests RequestLogger
}

// NewService returns a Service reading candidates from source. requests may be nil
// to skip recording screening requests.
func NewService(logger log.Logger, source CandidateSource, requests RequestLogger) *Service {
	return &Service{
		logger:   logger,
		source:   source,
		requests: requests,
	}
}

// Screen compares name against every record of the sanctions list and returns
// the records scoring at or above threshold.
//
// A *DataSourceError is returned when the sanctions list can't be read. Failing
// to record the request is logged and does not change the Outcome.
func (s *Service) Screen(ctx context.Context, name string, threshold float64) (*Outcome, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	candidates, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, &DataSourceError{Err: err}
	}

	outcome := &Outcome{Status: NoData}
	if len(candidates) > 0 {
		outcome.Matches = Filter(candidates, name, threshold)
		if len(outcome.Matches) > 0 {
			outcome.Status = Matches
		} else {
			outcome.Status = NoMatches
		}
	}
	screeningRequests.With("status", string(outcome.Status)).Add(1)

	s.record(ctx, RequestLogEntry{
		RequestID:  base.ID(),
		Name:       name,
		HadMatches: outcome.Status == Matches,
		CreatedAt:  time.Now(),
	})

	return outcome, nil
}

func (s *Service) record(ctx context.Context, entry RequestLogEntry) {
	if s.requests == nil {
		return
	}
	if err := s.requests.Record(ctx, entry); err != nil {
		requestLogFailures.Add(1)
		s.logger.Log("screening", fmt.Sprintf("problem recording requestID=%s: %v", entry.RequestID, err))
	}
}
