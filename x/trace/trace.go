// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package trace

import (
	"fmt"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentracing/opentracing-go"
	jaegermetrics "github.com/uber/jaeger-lib/metrics/prometheus"

	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// NewTracer returns a Jaeger tracer for serviceName. A sampleRate of 1.0 or more records
// every span, otherwise roughly sampleRate of spans are recorded.
//
// The tracer is installed as the opentracing singleton.
func NewTracer(logger log.Logger, serviceName string, sampleRate float64) (opentracing.Tracer, io.Closer, error) {
	if sampleRate >= 1.0 {
		return NewConstantTracer(logger, serviceName)
	}
	return NewProbabilisticTracer(logger, serviceName, sampleRate)
}

// NewConstantTracer returns an opentracing.Tracer from Jaeger that always records spans.
func NewConstantTracer(logger log.Logger, serviceName string) (opentracing.Tracer, io.Closer, error) {
	return setupTracer(logger, jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1.0,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans: true,
		},
	})
}

// NewProbabilisticTracer returns an opentracing.Tracer from Jaeger that records approximately
// rate of all spans.
func NewProbabilisticTracer(logger log.Logger, serviceName string, rate float64) (opentracing.Tracer, io.Closer, error) {
	return setupTracer(logger, jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: rate,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans: true,
		},
	})
}

var (
	// only register the jaeger metrics once
	wrappedPrometheusRegisterer = jaegermetrics.New(jaegermetrics.WithRegisterer(prometheus.DefaultRegisterer))
)

func setupTracer(logger log.Logger, cfg jaegercfg.Configuration) (opentracing.Tracer, io.Closer, error) {
	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(&jaegerLogger{inner: logger}),
		jaegercfg.Metrics(wrappedPrometheusRegisterer),
	)
	if err != nil {
		return nil, nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

var _ jaeger.Logger = (*jaegerLogger)(nil)

type jaegerLogger struct {
	inner log.Logger
}

func (l *jaegerLogger) Error(msg string) {
	l.inner.Log("tracing", msg, "level", "error")
}

func (l *jaegerLogger) Infof(msg string, args ...interface{}) {
	l.inner.Log("tracing", fmt.Sprintf(msg, args...))
}
