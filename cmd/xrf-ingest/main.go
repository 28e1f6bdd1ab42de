// Command xrf-ingest uploads an XRF raw export, creates a measurement
// record for it and runs the normalization pipeline, printing the resulting
// record as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"xrfcore/internal/core"
	"xrfcore/internal/rawfile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xrf-ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "measurement name (defaults to the export file name)")
	key := fs.String("key", "", "raw-file store key (defaults to the export file name)")
	labIDs := fs.String("samples", "", "comma-separated lab IDs to register before ingestion")
	envFile := fs.String("env", "", "optional .env file with XRFCORE_* variables")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: xrf-ingest [flags] <export-file>")
		fs.PrintDefaults()
		return 2
	}
	path := fs.Arg(0)

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(stderr, "load env file: %v\n", err)
			return 1
		}
	} else {
		_ = godotenv.Load()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := ingest(context.Background(), path, *name, *key, *labIDs, logger, stdout); err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		return 1
	}
	return 0
}

func ingest(ctx context.Context, path, name, key, labIDs string, logger *zap.Logger, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export file: %w", err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if key == "" {
		key = filepath.Base(path)
	}

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open persistent store: %w", err)
	}
	files, err := rawfile.Open(ctx)
	if err != nil {
		return fmt.Errorf("open raw-file store: %w", err)
	}

	svc := core.NewService(store, files, core.WithLogger(logger))

	for _, labID := range splitLabIDs(labIDs) {
		smp, _, err := svc.RegisterSample(ctx, core.Sample{LabID: labID})
		if err != nil {
			return fmt.Errorf("register sample %q: %w", labID, err)
		}
		logger.Info("registered sample", zap.String("lab_id", smp.LabID), zap.String("id", smp.ID))
	}

	created, _, err := svc.CreateMeasurement(ctx, core.Measurement{Name: name})
	if err != nil {
		return fmt.Errorf("create measurement: %w", err)
	}
	if _, _, err := svc.AttachRawData(ctx, created.ID, key, data); err != nil {
		return fmt.Errorf("attach raw data: %w", err)
	}
	normalized, state, _, err := svc.NormalizeMeasurement(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("normalize measurement: %w", err)
	}
	logger.Info("measurement normalized",
		zap.String("id", normalized.ID),
		zap.String("state", string(state)),
		zap.Int("results", len(normalized.Results)),
		zap.Int("samples", len(normalized.Samples)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(normalized)
}

func splitLabIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
