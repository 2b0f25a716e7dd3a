// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/moov-io/screener/pkg/config"
)

// Slack posts messages to an incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(cfg *config.Slack) (*Slack, error) {
	if cfg == nil || cfg.WebhookURL == "" {
		return nil, errors.New("slack: missing webhook url")
	}
	return &Slack{
		webhookURL: cfg.WebhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (s *Slack) Info(msg *Message) error {
	return s.send("successful " + slackMessage(msg, false))
}

func (s *Slack) Critical(msg *Message) error {
	return s.send("failed " + slackMessage(msg, true))
}

func slackMessage(msg *Message, critical bool) string {
	out := fmt.Sprintf("upload of %s (%s, %d rows) %s %s", msg.Filename, msg.Source, msg.Rows, verb(critical), msg.Hostname)
	if msg.Err != nil {
		out += fmt.Sprintf(": %v", msg.Err)
	}
	return out
}

func (s *Slack) send(text string) error {
	bs, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("slack: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(ioutil.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: unexpected http status %s", resp.Status)
	}
	return nil
}
