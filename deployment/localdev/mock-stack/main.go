// mock-stack fakes every collaborator the observer talks to over HTTP:
// the Prometheus instant-query API, the target health endpoint, and the
// local inference endpoint. Toggle anomaly readings with ?breach=1 kept
// in memory via /toggle.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

var breaching atomic.Bool

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/toggle", func(w http.ResponseWriter, _ *http.Request) {
		now := !breaching.Load()
		breaching.Store(now)
		fmt.Fprintf(w, "breaching=%v\n", now)
	})

	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		value := "0.05"
		if strings.Contains(query, "histogram_quantile") {
			value = "NaN"
			if breaching.Load() {
				value = "4.2"
			}
		} else if breaching.Load() {
			value = "0.92"
		}
		writeJSON(w, map[string]any{
			"status": "success",
			"data": map[string]any{
				"result": []map[string]any{
					{"value": []any{float64(time.Now().Unix()), value}},
				},
			},
		})
	})

	mux.HandleFunc("/api/v1/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		verdict := "```json\n{\"root_cause\": \"Synthetic CPU saturation\", \"severity\": \"High\", \"remediation_step\": \"docker-compose restart\"}\n```"
		writeJSON(w, map[string]any{"response": verdict})
	})

	logger := log.New(log.Writer(), "mock-stack ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
