// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"fmt"
	"strings"

	"github.com/moov-io/screener/x/trace"

	opentracing "github.com/opentracing/opentracing-go"
)

// Span starts a server span named after the request's method and path.
func (r *Responder) Span() opentracing.Span {
	method := strings.ToLower(r.request.Method)
	path := CleanPath(r.request.URL.Path)

	return trace.FromRequest(fmt.Sprintf("%s-%s", method, path), r.request)
}
