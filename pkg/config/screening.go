// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	DefaultSanctionsTable = "sanctions"
	DefaultNameColumn     = "name"
	DefaultThreshold      = 0.7
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Screening struct {
	// Table is read in full for every screening request.
	Table      string
	NameColumn string

	DefaultThreshold float64

	// CacheTTL keeps the candidate list in memory between requests.
	// Zero disables caching and reads the table on each request.
	CacheTTL time.Duration

	RequestLog RequestLog
}

func (cfg Screening) Validate() error {
	if !identifierRegex.MatchString(cfg.Table) {
		return fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if !identifierRegex.MatchString(cfg.NameColumn) {
		return fmt.Errorf("invalid name column %q", cfg.NameColumn)
	}
	if cfg.DefaultThreshold < 0 || cfg.DefaultThreshold > 1 {
		return fmt.Errorf("default threshold %v is outside [0, 1]", cfg.DefaultThreshold)
	}
	if cfg.CacheTTL < 0 {
		return errors.New("negative cache ttl")
	}
	if err := cfg.RequestLog.Stream.Validate(); err != nil {
		return fmt.Errorf("request log: %v", err)
	}
	return nil
}

type RequestLog struct {
	// Disabled skips writing screening_requests rows.
	Disabled bool

	Stream *Stream
}

type Stream struct {
	InMem *InMemStream
	Kafka *KafkaStream
}

func (cfg *Stream) Validate() error {
	if cfg == nil {
		return nil
	}
	if cfg.InMem == nil && cfg.Kafka == nil {
		return errors.New("stream: missing inmem or kafka config")
	}
	if cfg.InMem != nil && cfg.InMem.URL == "" {
		return errors.New("inmem: missing stream url")
	}
	if k := cfg.Kafka; k != nil {
		if len(k.Brokers) == 0 || k.Topic == "" {
			return errors.New("kafka: missing brokers or topic")
		}
	}
	return nil
}

type InMemStream struct {
	URL string
}

type KafkaStream struct {
	Brokers []string
	Topic   string
}
