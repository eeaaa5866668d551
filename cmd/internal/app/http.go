package app

import (
	"encoding/json"
	"net/http"
	"time"

	authapi "quest/cmd/internal/auth/api"
	"quest/cmd/internal/realtime"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func registerHTTP(
	mux *http.ServeMux,
	metrics *Metrics,
	api *authapi.Handler,
	ws *realtime.WSGateway,
) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	// All state is in-process, so the server is ready once it is serving.
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", metrics.Handler())

	api.Register(mux)

	mux.HandleFunc("GET /progress/stream", ws.HandleWS)
}
