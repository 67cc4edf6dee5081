package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"superca/internal/artifact/jsonrender"
	"superca/internal/config"
	"superca/internal/email/noop"
	"superca/internal/email/ses"
	"superca/internal/extractor"
	"superca/internal/filing"
	"superca/internal/handler"
	"superca/internal/port"
	"superca/internal/recon"
	"superca/internal/repository/postgres"
	"superca/internal/router"
	"superca/internal/service"
	s3storage "superca/internal/storage/s3"
	"superca/internal/tax"

	// Extraction providers register themselves in init().
	_ "superca/internal/extractor/claude"
	_ "superca/internal/extractor/gemini"
	_ "superca/internal/extractor/openai"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	docRepo := postgres.NewDocumentRepo(db)
	resultRepo := postgres.NewExtractionResultRepo(db)
	overrideRepo := postgres.NewOverrideRepo(db)
	returnRepo := postgres.NewReturnRepo(db)
	auditRepo := postgres.NewReturnAuditRepo(db)

	// Storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Extraction chain
	chain, err := extractor.NewChainFromConfig(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to build extraction chain: %w", err)
	}

	// Rule tables
	rules := tax.NewRegistry()
	if err := rules.LoadEmbedded(); err != nil {
		return fmt.Errorf("failed to load embedded rule tables: %w", err)
	}
	if err := rules.LoadDir(cfg.Rules.Dir); err != nil {
		return fmt.Errorf("failed to load rule tables from %s: %w", cfg.Rules.Dir, err)
	}

	// Email
	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Services
	reconciler := recon.New(reconPolicy(cfg))
	gate := recon.NewGate()
	gateway := filing.NewHTTPGateway(&cfg.Filing)

	docSvc := service.NewDocumentService(docRepo, resultRepo, s3Client, chain,
		cfg.S3.Bucket, cfg.S3.MaxFileSizeMB, cfg.Extractor.MaxParallelDocs)
	returnSvc := service.NewReturnService(returnRepo, auditRepo, resultRepo, overrideRepo,
		reconciler, gate, rules, gateway, emailSender)
	taxSvc := service.NewTaxService(rules, returnSvc)

	// Handlers
	docH := handler.NewDocumentHandler(docSvc)
	itrH := handler.NewITRHandler(returnSvc, taxSvc, jsonrender.NewRenderer())
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, docH, itrH, healthH)

	// Background worker picks up documents whose synchronous extraction
	// was interrupted.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewExtractionWorker(docRepo, docSvc, service.ExtractionWorkerConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("Received %s, shutting down", sig)
	}

	stopWorker()
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func reconPolicy(cfg *config.Config) recon.Policy {
	policy := recon.DefaultPolicy()
	if cfg.Recon.AutoFixThresholdRupees > 0 {
		policy.AutoFixThresholdPaise = cfg.Recon.AutoFixThresholdRupees * 100
	}
	return policy
}
