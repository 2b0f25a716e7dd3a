// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestPingRoute(t *testing.T) {
	var buf bytes.Buffer
	router := mux.NewRouter()
	PingRoute(log.NewLogfmtLogger(&buf), router)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "screen-ping")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "PONG", w.Body.String())
	require.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	require.Contains(t, buf.String(), "requestID=screen-ping")

	// only GET is routed
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/ping", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
