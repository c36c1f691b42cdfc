package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Наименование препарата", "Культура", "Норма расхода"},
		{"Миура", "Соя", "0,6 л/га"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	_, err := f.NewSheet("Контакты")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Контакты", "A1", "Филиал"))

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestFileSource_FirstSheet(t *testing.T) {
	src := NewFileSource(writeWorkbook(t))
	grid, err := src.FetchGrid(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "Миура", grid[1][0])
	assert.Equal(t, "0,6 л/га", grid[1][2])
}

func TestFileSource_NamedSheet(t *testing.T) {
	src := NewFileSource(writeWorkbook(t))
	grid, err := src.FetchGrid(context.Background(), "Контакты")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Филиал"}}, grid)

	_, err = src.FetchGrid(context.Background(), "Нет такого")
	assert.Error(t, err)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "none.xlsx")).FetchGrid(context.Background(), "")
	assert.Error(t, err)
}
