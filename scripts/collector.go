//go:build ignore

// Collector is a throwaway ingest endpoint for trying logship end to end.
// It prints every event it receives and can be told to fail a share of
// requests so the transport's circuit breaker can be watched opening.
//
// Usage:
//
//	go run scripts/collector.go -port 9000 -fail-rate 0.2
//	REMOTELOG_ENDPOINT=http://localhost:9000/ingest go run ./cmd/logship < app.log
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var levelColors = map[string]*color.Color{
	"DEBUG": color.New(color.FgWhite),
	"INFO":  color.New(color.FgBlue),
	"WARN":  color.New(color.FgYellow),
	"ERROR": color.New(color.FgRed),
	"FATAL": color.New(color.FgRed, color.Bold),
}

func main() {
	port := flag.Int("port", 9000, "port to listen on")
	failRate := flag.Float64("fail-rate", 0, "share of requests answered with 503, 0..1")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if rand.Float64() < *failRate {
			log.Printf("rejecting request from %s", r.RemoteAddr)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var event map[string]any
		if err := jsoniter.Unmarshal(body, &event); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id := r.Header.Get("X-Log-Event-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = "missing:" + uuid.NewString()
		}

		at := "-"
		if ms, err := strconv.ParseInt(r.Header.Get("X-Log-Timestamp"), 10, 64); err == nil {
			at = time.UnixMilli(ms).Format(time.RFC3339Nano)
		}

		level, _ := event["level"].(string)
		paint, ok := levelColors[level]
		if !ok {
			paint = color.New(color.Reset)
		}
		fmt.Printf("%s %s %s %s\n", at, id, paint.Sprintf("%-5s", level), string(body))

		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("collector listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
