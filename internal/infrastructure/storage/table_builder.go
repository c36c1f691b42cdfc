package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// headerRowIndex first row with at least constants.HeaderMinCells non-empty cells, or -1.
func headerRowIndex(grid [][]string) int {
	for i, row := range grid {
		filled := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
		if filled >= constants.HeaderMinCells {
			return i
		}
	}
	return -1
}

func buildColumns(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := textnorm.CollapseSpaces(raw)
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		cols[i] = name
	}
	return cols
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// BuildTable turns a raw grid into a table: header detection, fill-down of
// blank cells per column (merged cells in the sheet), active-ingredient tokens.
func BuildTable(grid [][]string, loadedAt time.Time) entity.Table {
	hi := headerRowIndex(grid)
	if hi < 0 {
		return entity.Table{LoadedAt: loadedAt}
	}
	cols := buildColumns(grid[hi])
	last := make([]string, len(cols))

	rows := make([]entity.Row, 0, len(grid)-hi-1)
	for _, raw := range grid[hi+1:] {
		if blankRow(raw) {
			continue
		}
		cells := make(map[string]string, len(cols))
		for i, col := range cols {
			v := cellAt(raw, i)
			if v == "" {
				v = last[i]
			} else {
				last[i] = v
			}
			cells[col] = v
		}
		row := entity.NewRow(cols, cells)
		active := row.Field(entity.FieldActiveIngredient)
		row.ActiveTokens = activeTokens(active)
		row.ActiveCompact = textnorm.Compact(active)
		rows = append(rows, row)
	}

	return entity.Table{Columns: cols, Rows: rows, LoadedAt: loadedAt}
}

func activeTokens(raw string) []string {
	norm := textnorm.Normalize(raw)
	if norm == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(norm) {
		if utf8.RuneCountInString(tok) < constants.ActiveTokenMinLen {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// FilterRequired keeps rows whose kind field is non-empty.
func FilterRequired(t entity.Table, kind entity.FieldKind) entity.Table {
	out := entity.Table{Columns: t.Columns, LoadedAt: t.LoadedAt}
	for _, row := range t.Rows {
		if strings.TrimSpace(row.Field(kind)) != "" {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
