package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type readyResp struct {
	Mongo     string `json:"mongo"`
	Processor string `json:"processor"`
}

// handleReady reports whether Mongo and the processor answer. Either failing
// makes the service unready.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := readyResp{Mongo: "skipped", Processor: "skipped"}
	status := http.StatusOK
	check := func(name string, p func(context.Context) error) string {
		if err := p(ctx); err != nil {
			a.log.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			status = http.StatusServiceUnavailable
			return "down"
		}
		return "ok"
	}
	if a.mongo != nil {
		resp.Mongo = check("mongo", func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) })
	}
	if p, ok := a.imagery.(pinger); ok {
		resp.Processor = check("processor", p.Ping)
	}
	writeJSON(w, status, resp)
}
