// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package trace

import (
	"net/http"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// StartClientSpan starts a client span for an outgoing request and injects it into
// the request headers. A span found in the request's context becomes the parent.
// Callers must Finish the span.
func StartClientSpan(name string, req *http.Request) (opentracing.Span, *http.Request) {
	tracer := opentracing.GlobalTracer()

	var opts []opentracing.StartSpanOption
	if parent := opentracing.SpanFromContext(req.Context()); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := tracer.StartSpan(name, opts...)

	ext.SpanKindRPCClient.Set(span)
	ext.HTTPUrl.Set(span, req.URL.String())
	ext.HTTPMethod.Set(span, req.Method)

	tracer.Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))

	return span, req.WithContext(opentracing.ContextWithSpan(req.Context(), span))
}

// SetResponse records the status code of resp on span, marking 5xx responses
// and transport errors as failures.
func SetResponse(span opentracing.Span, resp *http.Response, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
		return
	}
	if resp == nil {
		return
	}
	ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))
	if resp.StatusCode >= 500 {
		ext.Error.Set(span, true)
	}
}

// FromRequest starts a server span, continuing any trace found in the request headers.
func FromRequest(name string, req *http.Request) opentracing.Span {
	tracer := opentracing.GlobalTracer()

	// a missing or malformed header starts a new trace
	ctx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))
	return tracer.StartSpan(name, ext.RPCServerOption(ctx))
}
