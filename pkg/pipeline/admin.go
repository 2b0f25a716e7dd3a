// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"net/http"

	"github.com/moov-io/base/admin"
	moovhttp "github.com/moov-io/base/http"
)

func (p *Pipeline) RegisterRoutes(svc *admin.Server) {
	svc.AddHandler("/pipeline/run", p.triggerManualRun())
}

type manuallyTriggeredRun struct {
	C chan error
}

func (p *Pipeline) triggerManualRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			moovhttp.Problem(w, fmt.Errorf("invalid method %s", r.Method))
			return
		}

		waiter := manuallyTriggeredRun{
			C: make(chan error, 1),
		}
		select {
		case p.trigger <- waiter:
		case <-r.Context().Done():
			return
		}

		select {
		case err := <-waiter.C:
			if err != nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				moovhttp.Problem(w, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	}
}

// AddLivenessCheck reports the upload agent's connectivity on the admin server.
func (p *Pipeline) AddLivenessCheck(svc *admin.Server) {
	if p.agent != nil {
		svc.AddLivenessCheck(p.agent.Hostname(), p.agent.Ping)
	}
}
