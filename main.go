package main

import (
	"os"
	"time"

	"gloveiq-importer/config"
	"gloveiq-importer/services"
	"gloveiq-importer/storage"
	"gloveiq-importer/utils"
	"gloveiq-importer/workbook"
)

func main() {
	logger := utils.NewLogger()
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	logger.Infof("=== GloveIQ Library Import starting ===")
	logger.Infof("Config: workbook: %s | out: %s | prefix: %s | raw: %t | resume: %t | force: %t",
		cfg.WorkbookPath, cfg.OutputDir, cfg.MediaPrefix, cfg.EmitRaw, cfg.Resume, cfg.Force)

	fingerprint, err := storage.FileFingerprint(cfg.WorkbookPath)
	if err != nil {
		logger.Errorf("Cannot fingerprint workbook: %v", err)
		os.Exit(1)
	}

	writer, err := storage.NewExportWriter(cfg.OutputDir, cfg.EmitRaw)
	if err != nil {
		logger.Errorf("Failed to prepare export directory: %v", err)
		os.Exit(1)
	}

	checkpoints := storage.NewCheckpointManager(cfg.OutputDir)
	if checkpoints.ShouldSkip(fingerprint, cfg.Resume, cfg.Force, writer.RequiredPaths()) {
		logger.Infof("Unchanged input fingerprint, skipping export (set FORCE=true to regenerate)")
		return
	}

	wb, err := workbook.Open(cfg.WorkbookPath)
	if err != nil {
		logger.Errorf("Failed to open workbook: %v", err)
		os.Exit(1)
	}
	defer wb.Close()

	validation, err := services.ValidateWorkbook(wb)
	if err != nil {
		logger.Errorf("Validation aborted: %v", err)
		os.Exit(1)
	}
	if !validation.OK {
		logger.Errorf("Workbook validation failed with %d errors:", len(validation.Errors))
		for _, e := range validation.Errors {
			logger.Errorf("  - %s", e)
		}
		os.Exit(2)
	}

	builder := services.NewBuilder(logger, cfg.MediaPrefix)
	exports, err := builder.BuildExports(wb, cfg.WorkbookPath)
	if err != nil {
		logger.Errorf("Export build failed: %v", err)
		os.Exit(1)
	}

	if err := writer.WriteExports(exports); err != nil {
		logger.Errorf("Export write failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("Wrote %s", writer.NormalizedPath())
	if cfg.EmitRaw {
		logger.Infof("Wrote %s", writer.RawPath())
	}
	logger.Infof("Wrote %s", writer.ManifestPath())
	logger.Infof("Wrote %s", writer.ReportPath())

	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), retry)
		if err != nil {
			logger.Errorf("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(exports.Listings); err != nil {
				logger.Errorf("PostgreSQL write failed: %v", err)
			} else {
				logger.Infof("Listings upserted into PostgreSQL (table: listings)")
			}
		}
	}

	checkpoint := storage.BuildCheckpoint(fingerprint, exports)
	if err := checkpoints.Persist(checkpoint); err != nil {
		logger.Errorf("Checkpoint write failed: %v", err)
		os.Exit(1)
	}

	services.PrintReportSummary(exports.Report)
}
