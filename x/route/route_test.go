// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	router := mux.NewRouter()
	router.Methods("GET").Path("/test").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder := NewResponder(log.NewNopLogger(), w, r)
		responder.Log("test", "response")
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"error": null}`))
		})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "abc123")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	w.Flush()

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRoute__JSON(t *testing.T) {
	router := mux.NewRouter()
	router.Methods("GET").Path("/json").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewResponder(log.NewNopLogger(), w, r).JSON(http.StatusInternalServerError, map[string]string{
			"status": "error",
		})
	})

	req := httptest.NewRequest("GET", "/json", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	w.Flush()

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"status":"error"}`, w.Body.String())
}

func TestRoute__problem(t *testing.T) {
	router := mux.NewRouter()
	router.Methods("GET").Path("/bad").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder := NewResponder(log.NewNopLogger(), w, r)
		responder.Problem(errors.New("bad error"))
	})

	req := httptest.NewRequest("GET", "/bad", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	w.Flush()

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "bad error")
}

func TestRoute__CleanPath(t *testing.T) {
	if v := CleanPath("/screen"); v != "screen" {
		t.Errorf("got %q", v)
	}
	if v := CleanPath("/pipeline/run/19636f90bc95779e2488b0f7a45c4b68958a2ddd"); v != "pipeline-run" {
		t.Errorf("got %q", v)
	}
	// A value which looks like moov/base.ID, but is off by one character (last letter)
	if v := CleanPath("/pipeline/19636f90bc95779e2488b0f7a45c4b68958a2ddz"); v != "pipeline-19636f90bc95779e2488b0f7a45c4b68958a2ddz" {
		t.Errorf("got %q", v)
	}
}
