// backend-go/cmd/alertjob/export.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/storage"
	"github.com/modacentro/retail-dashboard/backend-go/pkg/logger"
)

// exportReport uploads the batch result as a JSON report. Export is opt-in;
// a disabled config is a no-op, not an error.
func exportReport(ctx context.Context, cfg config.ExportConfig, window domain.DateRange, result *domain.AlertBatchResult) error {
	if !cfg.Enabled {
		return nil
	}

	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return fmt.Errorf("object storage unavailable: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	key := reportKey(window)
	if err := client.UploadObject(ctx, key, payload, "application/json"); err != nil {
		return err
	}

	logger.Log.Info().Str("key", key).Int("bytes", len(payload)).Msg("Report exported")
	return nil
}

func reportKey(window domain.DateRange) string {
	return fmt.Sprintf("alerts/redistribution_%s_%s.json",
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
}

// listReports returns the keys of previously exported reports.
func listReports(ctx context.Context, cfg config.ExportConfig) ([]storage.ObjectInfo, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("report export is not configured")
	}

	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage unavailable: %w", err)
	}

	return client.ListObjects(ctx, "alerts/")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to write response")
	}
}
