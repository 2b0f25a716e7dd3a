// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/moov-io/screener/x/route"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

// Screener is satisfied by *Service.
type Screener interface {
	Screen(ctx context.Context, name string, threshold float64) (*Outcome, error)
}

type Router struct {
	logger log.Logger

	screener         Screener
	defaultThreshold float64
}

func NewRouter(logger log.Logger, screener Screener, defaultThreshold float64) *Router {
	return &Router{
		logger:           logger,
		screener:         screener,
		defaultThreshold: defaultThreshold,
	}
}

func (c *Router) RegisterRoutes(r *mux.Router) {
	r.Methods("GET").Path("/screen").HandlerFunc(c.screen())
}

type screenResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Matches []Match `json:"matches,omitempty"`
}

func (c *Router) screen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(c.logger, w, r)

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		threshold, err := c.readThreshold(r)
		if err != nil {
			responder.Problem(err)
			return
		}

		outcome, err := c.screener.Screen(r.Context(), name, threshold)
		if err != nil {
			var dsErr *DataSourceError
			if errors.As(err, &dsErr) {
				responder.Log("screening", fmt.Sprintf("problem reading sanctions: %v", err))
				responder.JSON(http.StatusInternalServerError, screenResponse{
					Status:  "error",
					Message: err.Error(),
				})
				return
			}
			responder.Problem(err)
			return
		}

		switch outcome.Status {
		case NoData:
			responder.JSON(http.StatusOK, screenResponse{
				Status:  "info",
				Message: "no sanctions data found",
			})
		case NoMatches:
			responder.JSON(http.StatusOK, screenResponse{
				Status:  "info",
				Message: fmt.Sprintf("no matches found for %s", name),
			})
		default:
			responder.Log("screening", fmt.Sprintf("found %d matches", len(outcome.Matches)))
			responder.JSON(http.StatusOK, screenResponse{
				Status:  "success",
				Matches: outcome.Matches,
			})
		}
	}
}

func (c *Router) readThreshold(r *http.Request) (float64, error) {
	v := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if v == "" {
		return c.defaultThreshold, nil
	}
	threshold, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidThreshold, v)
	}
	return threshold, nil
}
