package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Vazimax/BuyMin/jobs"
	"github.com/Vazimax/BuyMin/logger"
)

// IngestionSSE streams finished ingestion runs as Server-Sent Events
func IngestionSSE(worker *jobs.IngestionWorker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get flusher to send data immediately
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		updateCh := make(chan jobs.IngestionUpdate, 10)
		worker.Subscribe(updateCh)
		defer worker.Unsubscribe(updateCh)

		logger.Info("SSE client connected")

		fmt.Fprintf(w, "event: connected\ndata: {\"status\": \"connected\"}\n\n")
		flusher.Flush()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				logger.Info("SSE client disconnected")
				return
			case update, ok := <-updateCh:
				if !ok {
					return
				}
				data, err := json.Marshal(update)
				if err != nil {
					logger.Error("Failed to marshal ingestion update", "error", err)
					continue
				}
				fmt.Fprintf(w, "event: ingestion_update\ndata: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}
