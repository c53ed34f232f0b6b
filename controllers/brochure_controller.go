package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Vazimax/BuyMin/extractor"
	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/logger"
)

// BrochureIngester stores uploads and runs the ingestion pipeline on them.
type BrochureIngester interface {
	Save(name string, payload io.Reader) (*ingest.Document, error)
	RunStored(ctx context.Context, doc *ingest.Document) (*ingest.Report, error)
}

// Queue accepts documents for background ingestion.
type Queue interface {
	Enqueue(doc *ingest.Document) bool
}

// BrochureController handles brochure uploads.
type BrochureController struct {
	Ingester       BrochureIngester
	Queue          Queue
	MaxUploadBytes int64
}

type queuedResponse struct {
	Status   string           `json:"status"`
	Document *ingest.Document `json:"document"`
}

// UploadBrochure handles POST /brochures. The file is read from the
// "pdf_file" form field. With ?async=true the run is queued and 202 is
// returned; otherwise the run completes before the response is written.
func (c *BrochureController) UploadBrochure(w http.ResponseWriter, r *http.Request) {
	logger.Info("Received brochure upload")

	if c.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fh, err := r.FormFile("pdf_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error retrieving file")
		return
	}
	defer file.Close()

	if !extractor.Supported(fh.Filename) {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported document format")
		return
	}

	doc, err := c.Ingester.Save(fh.Filename, file)
	if err != nil {
		logger.Error("Failed to save brochure", "name", fh.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if c.Queue == nil || !c.Queue.Enqueue(doc) {
			writeError(w, http.StatusServiceUnavailable, "Ingestion queue is full")
			return
		}
		writeJSON(w, http.StatusAccepted, queuedResponse{Status: "queued", Document: doc})
		return
	}

	// a started run finishes even if the client goes away
	report, err := c.Ingester.RunStored(context.WithoutCancel(r.Context()), doc)
	if err != nil {
		logger.Error("Brochure ingestion failed", "document_id", doc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to ingest brochure")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}
