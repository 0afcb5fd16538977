package roster

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetLoader reads the roster from a Google Sheet range. Expected columns:
// display name, team, note; rows with an empty name are skipped.
type SheetLoader struct {
	service   *sheets.Service
	sheetID   string
	readRange string
}

// NewSheetLoader creates a loader with API-key auth.
func NewSheetLoader(ctx context.Context, apiKey, sheetID, readRange string) (*SheetLoader, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("roster sheet ID is required")
	}
	svc, err := sheets.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetLoader{service: svc, sheetID: sheetID, readRange: readRange}, nil
}

// Load fetches the configured range and builds the roster map.
func (s *SheetLoader) Load(ctx context.Context) (map[string]PlayerRecord, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster sheet: %w", err)
	}

	records := make(map[string]PlayerRecord, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(cellString(row[0]))
		if name == "" {
			continue
		}
		rec := PlayerRecord{Name: name}
		if len(row) > 1 {
			rec.Team = strings.TrimSpace(cellString(row[1]))
		}
		if len(row) > 2 {
			rec.Note = strings.TrimSpace(cellString(row[2]))
		}
		records[name] = rec
	}
	return records, nil
}

func cellString(v interface{}) string {
	s, _ := v.(string)
	return s
}
