// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"fmt"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
)

// MultiSender delivers each Message to every configured Sender, continuing past
// failures, and returns the first error.
type MultiSender struct {
	logger  log.Logger
	senders []Sender
}

// NewMultiSender builds a Sender for each notification channel in cfg. A nil cfg
// sends nothing.
func NewMultiSender(logger log.Logger, cfg *config.PipelineNotifications) (*MultiSender, error) {
	ms := &MultiSender{logger: logger}
	if cfg == nil {
		return ms, nil
	}

	var constructors []func() (Sender, error)
	if cfg.Email != nil {
		constructors = append(constructors, func() (Sender, error) { return NewEmail(cfg.Email) })
	}
	if cfg.PagerDuty != nil {
		constructors = append(constructors, func() (Sender, error) { return NewPagerDuty(cfg.PagerDuty) })
	}
	if cfg.Slack != nil {
		constructors = append(constructors, func() (Sender, error) { return NewSlack(cfg.Slack) })
	}
	for _, create := range constructors {
		sender, err := create()
		if err != nil {
			return nil, err
		}
		ms.senders = append(ms.senders, sender)
	}
	return ms, nil
}

func (ms *MultiSender) Info(msg *Message) error {
	return ms.each("info", func(s Sender) error { return s.Info(msg) })
}

func (ms *MultiSender) Critical(msg *Message) error {
	return ms.each("critical", func(s Sender) error { return s.Critical(msg) })
}

func (ms *MultiSender) each(level string, send func(Sender) error) error {
	var firstError error
	for _, sender := range ms.senders {
		err := send(sender)
		if err == nil {
			continue
		}
		ms.logger.Log("notify", fmt.Sprintf("problem sending %s notification with %T: %v", level, sender, err))
		if firstError == nil {
			firstError = err
		}
	}
	return firstError
}
