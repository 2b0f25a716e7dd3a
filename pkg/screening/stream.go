// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/pubsub"
)

// StreamLogger publishes each screening request as JSON onto a pubsub topic.
type StreamLogger struct {
	topic *pubsub.Topic
}

func NewStreamLogger(topic *pubsub.Topic) *StreamLogger {
	return &StreamLogger{topic: topic}
}

func (sl *StreamLogger) Record(ctx context.Context, entry RequestLogEntry) error {
	bs, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding requestID=%s: %v", entry.RequestID, err)
	}
	return sl.topic.Send(ctx, &pubsub.Message{
		Body: bs,
		Metadata: map[string]string{
			"requestID": entry.RequestID,
		},
	})
}

func (sl *StreamLogger) Close(ctx context.Context) error {
	if sl == nil || sl.topic == nil {
		return nil
	}
	return sl.topic.Shutdown(ctx)
}
