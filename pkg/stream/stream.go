// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package stream opens the gocloud.dev/pubsub topics screening requests are
// published to. Kafka (through sarama) and in-memory topics are registered.
package stream

import (
	"context"
	"errors"

	"github.com/moov-io/screener/pkg/config"

	"github.com/Shopify/sarama"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/kafkapubsub"
	_ "gocloud.dev/pubsub/mempubsub"
)

// OpenTopic returns the topic described by cfg, preferring Kafka when both are set.
func OpenTopic(ctx context.Context, cfg *config.Stream) (*pubsub.Topic, error) {
	if cfg == nil {
		return nil, errors.New("nil stream config")
	}
	if cfg.Kafka != nil {
		return KafkaTopic(cfg.Kafka.Brokers, kafkapubsub.MinimalConfig(), cfg.Kafka.Topic, nil)
	}
	if cfg.InMem != nil {
		return Topic(ctx, cfg.InMem.URL)
	}
	return nil, errors.New("stream: missing inmem or kafka config")
}

func Topic(ctx context.Context, url string) (*pubsub.Topic, error) {
	return pubsub.OpenTopic(ctx, url)
}

func Subscription(ctx context.Context, url string) (*pubsub.Subscription, error) {
	return pubsub.OpenSubscription(ctx, url)
}

// KafkaTopic publishes to topicName with a sarama.SyncProducer, so
// saramaCfg.Producer.Return.Successes must be true.
func KafkaTopic(brokers []string, saramaCfg *sarama.Config, topicName string, opts *kafkapubsub.TopicOptions) (*pubsub.Topic, error) {
	return kafkapubsub.OpenTopic(brokers, saramaCfg, topicName, opts)
}
