package drive

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/modacentro/retail-dashboard/backend-go/internal/semaphore"
	"github.com/rs/zerolog/log"
)

const overridesFileName = "semaphore_overrides.csv"

// LoadOverrides fetches the semaphore-override sheet from the configured
// Drive folder. Expected columns: scope (supplier|category), key,
// window_days, reorder_threshold_days; empty cells inherit the default.
// Malformed rows are skipped with a warning, never applied half-parsed.
func LoadOverrides(svc *Service, folderPath string) (semaphore.Overrides, error) {
	overrides := semaphore.Overrides{
		Supplier: make(map[string]semaphore.Override),
		Category: make(map[string]semaphore.Override),
	}

	folderID, err := svc.FindFolderByPath(folderPath)
	if err != nil {
		return overrides, err
	}

	files, err := svc.ListFiles(folderID)
	if err != nil {
		return overrides, err
	}

	var fileID string
	for _, f := range files {
		if strings.EqualFold(f.Name, overridesFileName) {
			fileID = f.ID
			break
		}
	}
	if fileID == "" {
		return overrides, fmt.Errorf("override sheet %s not found in %s", overridesFileName, folderPath)
	}

	var buf bytes.Buffer
	if err := svc.DownloadFile(fileID, &buf); err != nil {
		return overrides, err
	}

	return parseOverrides(&buf)
}

func parseOverrides(r io.Reader) (semaphore.Overrides, error) {
	overrides := semaphore.Overrides{
		Supplier: make(map[string]semaphore.Override),
		Category: make(map[string]semaphore.Override),
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return overrides, fmt.Errorf("failed to parse override sheet: %w", err)
	}

	for i, row := range records {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < 4 {
			log.Warn().Int("row", i+1).Msg("override sheet: short row skipped")
			continue
		}

		scope := strings.ToLower(strings.TrimSpace(row[0]))
		key := strings.TrimSpace(row[1])
		if key == "" {
			log.Warn().Int("row", i+1).Msg("override sheet: missing key, row skipped")
			continue
		}

		var ov semaphore.Override
		valid := true

		if v := strings.TrimSpace(row[2]); v != "" {
			days, err := strconv.Atoi(v)
			if err != nil {
				log.Warn().Int("row", i+1).Str("value", v).Msg("override sheet: bad window_days, row skipped")
				valid = false
			} else {
				ov.WindowDays = &days
			}
		}
		if v := strings.TrimSpace(row[3]); v != "" && valid {
			threshold, err := strconv.ParseFloat(v, 64)
			if err != nil {
				log.Warn().Int("row", i+1).Str("value", v).Msg("override sheet: bad reorder_threshold_days, row skipped")
				valid = false
			} else {
				ov.ReorderThresholdDays = &threshold
			}
		}
		if !valid {
			continue
		}

		switch scope {
		case "supplier":
			overrides.Supplier[key] = ov
		case "category":
			overrides.Category[key] = ov
		default:
			log.Warn().Int("row", i+1).Str("scope", scope).Msg("override sheet: unknown scope, row skipped")
		}
	}

	return overrides, nil
}

func looksLikeHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "scope")
}
