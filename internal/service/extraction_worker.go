package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"superca/internal/domain"
	"superca/internal/port"
)

// ExtractionWorkerConfig holds settings for the extraction worker.
type ExtractionWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// ExtractionWorker polls for pending documents and runs the extraction chain
// on them. It covers documents whose synchronous extraction was interrupted
// (a crash between upload and extraction leaves them pending).
type ExtractionWorker struct {
	docRepo    port.DocumentRepository
	docService DocumentService
	cfg        ExtractionWorkerConfig
	wg         sync.WaitGroup
}

// NewExtractionWorker creates a new ExtractionWorker.
func NewExtractionWorker(docRepo port.DocumentRepository, docService DocumentService, cfg ExtractionWorkerConfig) *ExtractionWorker {
	return &ExtractionWorker{
		docRepo:    docRepo,
		docService: docService,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractionWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractionWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractionWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.docRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("extractionWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range docs {
				doc := docs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// A fresh context independent of the poll context so
					// in-flight extractions complete even during shutdown.
					extractCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("extractionWorker: dispatching document %s", doc.ID)
					if _, err := w.docService.ExtractDocument(extractCtx, &doc); err != nil {
						if errors.Is(err, domain.ErrUnextractedDocument) {
							log.Printf("extractionWorker: document %s unextracted", doc.ID)
						} else {
							log.Printf("extractionWorker: document %s: %v", doc.ID, err)
						}
					}
				}()
			}
		}
	}
}
