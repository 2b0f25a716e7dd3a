// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/screener/pkg/config"

	"github.com/PagerDuty/go-pagerduty"
)

type PagerDuty struct {
	routingKey string

	// manageEvent sends V2 events, replaced in tests
	manageEvent func(pagerduty.V2Event) (*pagerduty.V2EventResponse, error)
}

func NewPagerDuty(cfg *config.PagerDuty) (*PagerDuty, error) {
	if cfg == nil || cfg.RoutingKey == "" {
		return nil, errors.New("pagerduty: missing routing key")
	}
	return &PagerDuty{
		routingKey:  cfg.RoutingKey,
		manageEvent: pagerduty.ManageEvent,
	}, nil
}

// Info is a no-op, successful uploads don't page anyone.
func (pd *PagerDuty) Info(msg *Message) error {
	return nil
}

func (pd *PagerDuty) Critical(msg *Message) error {
	resp, err := pd.manageEvent(pd.event(msg))
	if err != nil {
		return fmt.Errorf("pagerduty: %v", err)
	}
	if resp != nil && resp.Status != "" && resp.Status != "success" {
		return fmt.Errorf("pagerduty: status=%s message=%s", resp.Status, resp.Message)
	}
	return nil
}

func (pd *PagerDuty) event(msg *Message) pagerduty.V2Event {
	details := map[string]interface{}{
		"source":   msg.Source,
		"filename": msg.Filename,
		"rows":     msg.Rows,
	}
	if msg.Err != nil {
		details["error"] = msg.Err.Error()
	}
	return pagerduty.V2Event{
		RoutingKey: pd.routingKey,
		Action:     "trigger",
		DedupKey:   fmt.Sprintf("screener-%s-%s", msg.Source, time.Now().Format("2006-01-02")),
		Payload: &pagerduty.V2Payload{
			Summary:   fmt.Sprintf("%s %s %s", msg.Filename, verb(true), msg.Hostname),
			Source:    msg.Hostname,
			Severity:  "critical",
			Timestamp: time.Now().Format(time.RFC3339),
			Component: "pipeline",
			Details:   details,
		},
	}
}
