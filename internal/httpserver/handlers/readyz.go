package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/marque-app/marque/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool   `json:"ready"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

// Readyz reports readiness based on the persistence and cache backends.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{Ready: true, Postgres: "ok", Redis: "ok"}

		if d.DB == nil {
			resp.Ready = false
			resp.Postgres = "not configured"
		} else if err := d.DB.PingContext(ctx); err != nil {
			resp.Ready = false
			resp.Postgres = err.Error()
		}

		// Redis only caches resolved URLs; it degrades, it does not gate.
		if d.RedisClient == nil {
			resp.Redis = "not configured"
		} else if err := d.RedisClient.Ping(ctx).Err(); err != nil {
			resp.Redis = err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		if !resp.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
