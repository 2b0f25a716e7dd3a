// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	moovhttp "github.com/moov-io/base/http"
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	Histogram = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Name: "http_response_duration_seconds",
		Help: "Histogram representing the http response durations",
	}, []string{"route"})
)

// Responder wraps a single HTTP request with logging, metrics and a tracing span.
type Responder struct {
	XRequestID string

	logger log.Logger

	request *http.Request
	span    opentracing.Span

	writer *moovhttp.ResponseWriter
}

func NewResponder(logger log.Logger, w http.ResponseWriter, r *http.Request) *Responder {
	resp := &Responder{
		XRequestID: moovhttp.GetRequestID(r),
		logger:     logger,
		request:    r,
	}
	resp.span = resp.Span()
	resp.writer = wrapResponseWriter(logger, w, r)
	return resp
}

func (r *Responder) Log(kvpairs ...interface{}) {
	if r == nil || r.writer == nil {
		return
	}
	args := []interface{}{"requestID", r.XRequestID}
	r.logger.Log(append(args, kvpairs...)...)
}

func (r *Responder) Respond(fn func(http.ResponseWriter)) {
	if r == nil {
		return
	}
	r.finishSpan()
	r.writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	fn(r.writer)
}

// JSON writes v with the given status code.
func (r *Responder) JSON(status int, v interface{}) {
	r.Respond(func(w http.ResponseWriter) {
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			r.Log("route", fmt.Sprintf("problem encoding response: %v", err))
		}
	})
}

// Problem writes err as a 400 Bad Request.
func (r *Responder) Problem(err error) {
	if r == nil {
		return
	}
	r.finishSpan()
	r.writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	moovhttp.Problem(r.writer, err)
}

func (r *Responder) finishSpan() {
	if r.span != nil {
		r.span.Finish()
		r.span = nil
	}
}

func wrapResponseWriter(logger log.Logger, w http.ResponseWriter, r *http.Request) *moovhttp.ResponseWriter {
	name := fmt.Sprintf("%s-%s", strings.ToLower(r.Method), CleanPath(r.URL.Path))
	return moovhttp.Wrap(logger, Histogram.With("route", name), w, r)
}

var baseIdRegex = regexp.MustCompile(`([a-f0-9]{40})`)

// CleanPath takes a URL path and formats it for Prometheus metrics
//
// This method replaces /'s with -'s and strips out moov/base.ID() values from URL path slugs.
func CleanPath(path string) string {
	parts := strings.Split(path, "/")
	var out []string
	for i := range parts {
		if parts[i] == "" || baseIdRegex.MatchString(parts[i]) {
			continue // assume it's a moov/base.ID() value
		}
		out = append(out, parts[i])
	}
	return strings.Join(out, "-")
}
