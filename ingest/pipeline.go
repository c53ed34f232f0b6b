package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Vazimax/BuyMin/extractor"
	"github.com/Vazimax/BuyMin/llm"
	"github.com/Vazimax/BuyMin/logger"
)

// Structurer turns one chunk of brochure text into candidate records.
// *llm.Client is the production implementation.
type Structurer interface {
	ExtractRecords(ctx context.Context, chunk string) ([]llm.Candidate, error)
}

// Report summarizes one ingestion run.
type Report struct {
	DocumentID   string        `json:"document_id"`
	Path         string        `json:"path"`
	Pages        int           `json:"pages"`
	Chunks       int           `json:"chunks"`
	FailedChunks int           `json:"failed_chunks"`
	Candidates   int           `json:"candidates"`
	Applied      int           `json:"applied"`
	Skipped      int           `json:"skipped"`
	Duration     time.Duration `json:"duration"`
}

// Pipeline runs save, extract, chunk, structure and upsert in sequence.
type Pipeline struct {
	loader       *Loader
	structurer   Structurer
	upserter     *Upserter
	maxChunkSize int
	extract      func(path string) ([]string, error)
	log          *slog.Logger
}

func NewPipeline(loader *Loader, structurer Structurer, store Store, maxChunkSize int, log *slog.Logger) *Pipeline {
	log = logger.Or(log)
	return &Pipeline{
		loader:       loader,
		structurer:   structurer,
		upserter:     NewUpserter(store, log),
		maxChunkSize: maxChunkSize,
		extract:      extractor.Extract,
		log:          log.With("component", "pipeline"),
	}
}

// Save stores a payload without processing it, for later RunStored calls.
func (p *Pipeline) Save(name string, payload io.Reader) (*Document, error) {
	doc, err := p.loader.Save(name, payload)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Run stores the payload and ingests it.
func (p *Pipeline) Run(ctx context.Context, name string, payload io.Reader) (*Report, error) {
	doc, err := p.Save(name, payload)
	if err != nil {
		return nil, err
	}
	return p.RunStored(ctx, doc)
}

// RunStored ingests an already saved document. Chunks whose structuring
// fails contribute no records. Extraction and store errors end the run; the
// returned report still describes the work done up to that point.
func (p *Pipeline) RunStored(ctx context.Context, doc *Document) (*Report, error) {
	start := time.Now()
	report := &Report{DocumentID: doc.ID, Path: doc.Path}
	log := p.log.With("document_id", doc.ID, "name", doc.Name)
	defer func() { report.Duration = time.Since(start) }()

	log.Info("Ingestion started", "path", doc.Path, "size", doc.Size)

	pages, err := p.extract(doc.Path)
	if err != nil {
		log.Error("Extraction failed", "error", err)
		return report, fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	report.Pages = len(pages)

	chunks := SplitIntoChunks(extractor.Join(pages), p.maxChunkSize)
	report.Chunks = len(chunks)
	log.Info("Text extracted", "pages", report.Pages, "chunks", report.Chunks)

	var candidates []llm.Candidate
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		records, err := p.structurer.ExtractRecords(ctx, chunk)
		if err != nil {
			log.Warn("Chunk produced no records", "chunk", i, "error", err)
			report.FailedChunks++
			continue
		}
		candidates = append(candidates, records...)
	}
	report.Candidates = len(candidates)

	res, err := p.upserter.Apply(ctx, candidates)
	report.Applied, report.Skipped = res.Applied, res.Skipped
	if err != nil {
		log.Error("Upsert failed", "error", err, "applied", res.Applied)
		return report, fmt.Errorf("upsert: %w", err)
	}

	log.Info("Ingestion finished", "candidates", report.Candidates, "applied", report.Applied,
		"skipped", report.Skipped, "failed_chunks", report.FailedChunks,
		"elapsed_ms", time.Since(start).Milliseconds())
	return report, nil
}
