package xlsx

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
)

type fileSource struct {
	path string
}

// NewFileSource local .xlsx workbook as a grid source. The file is reopened
// on every fetch so edits are picked up on reload.
func NewFileSource(path string) repository.GridSource {
	return &fileSource{path: path}
}

// FetchGrid varaq qatorlarini o'qish
func (s *fileSource) FetchGrid(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "open workbook %s", s.path)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, eris.Errorf("sheet %q not found in %s", sheet, s.path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %q", sheet)
	}
	return rows, nil
}
