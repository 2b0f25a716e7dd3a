// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"errors"
	"testing"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
)

func TestMultiSender(t *testing.T) {
	ms, err := NewMultiSender(log.NewNopLogger(), nil)
	require.NoError(t, err)
	require.Empty(t, ms.senders)
	require.NoError(t, ms.Info(&Message{}))

	ms, err = NewMultiSender(log.NewNopLogger(), &config.PipelineNotifications{
		PagerDuty: &config.PagerDuty{RoutingKey: "key"},
		Slack:     &config.Slack{WebhookURL: "https://hooks.slack.com/services/T0/B0/X"},
	})
	require.NoError(t, err)
	require.Len(t, ms.senders, 2)

	_, err = NewMultiSender(log.NewNopLogger(), &config.PipelineNotifications{
		PagerDuty: &config.PagerDuty{},
	})
	require.Error(t, err)
}

func TestMultiSender__firstError(t *testing.T) {
	failing := &MockSender{Err: errors.New("bad")}
	working := &MockSender{}

	ms := &MultiSender{
		logger:  log.NewNopLogger(),
		senders: []Sender{failing, working},
	}

	msg := &Message{Source: "OFAC"}
	require.EqualError(t, ms.Info(msg), "bad")
	require.EqualError(t, ms.Critical(msg), "bad")

	// every sender is called
	require.Len(t, working.Infos(), 1)
	require.Len(t, working.Criticals(), 1)
	require.Equal(t, msg, working.Infos()[0])
}
