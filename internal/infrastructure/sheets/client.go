package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
)

// Config Google Sheets ulanish sozlamalari. CredentialsFile takes precedence
// over APIKey; the API key only works for link-shared spreadsheets.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	APIKey          string
}

type sheetsSource struct {
	service       *gsheets.Service
	spreadsheetID string
}

// NewSheetsSource yangi Google Sheets manba yaratish
func NewSheetsSource(ctx context.Context, cfg Config) (repository.GridSource, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, eris.New("spreadsheet id is empty")
	}

	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsReadonlyScope)}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create sheets service")
	}

	zap.L().Info("google sheets source ready", zap.String("spreadsheet", cfg.SpreadsheetID))
	return &sheetsSource{service: service, spreadsheetID: cfg.SpreadsheetID}, nil
}

// FetchGrid varaqning barcha qiymatlarini matn sifatida olish
func (s *sheetsSource) FetchGrid(ctx context.Context, sheet string) ([][]string, error) {
	if sheet == "" {
		first, err := s.firstSheetTitle(ctx)
		if err != nil {
			return nil, err
		}
		sheet = first
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, quoteRange(sheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %q", sheet)
	}
	return toGrid(resp.Values), nil
}

func (s *sheetsSource) firstSheetTitle(ctx context.Context) (string, error) {
	meta, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", eris.Wrap(err, "read spreadsheet metadata")
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return "", eris.New("spreadsheet has no sheets")
	}
	return meta.Sheets[0].Properties.Title, nil
}

// quoteRange A1 notation for a whole sheet; quotes are doubled inside.
func quoteRange(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		grid[i] = cells
	}
	return grid
}
