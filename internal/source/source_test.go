package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contact-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "subjects.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "empresas.csv", "CNPJ,Nome_Fantasia,Cidade\n"+
		"1, Padaria Central ,Mogi Mirim\n"+
		"2,,Mogi Mirim\n"+
		"3,Loja XYZ,Mogi Mirim\n"+
		"4,   ,Mogi Mirim\n"+
		"5,Padaria Central,Mogi Mirim\n")

	names, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Padaria Central", "Loja XYZ", "Padaria Central"}, names)
}

func TestLoad_CSVWithBOM(t *testing.T) {
	path := writeFile(t, "bom.csv", "\ufeffNome_Fantasia;Cidade\nCafé São José;Mogi Mirim\n")

	names, err := Load(context.Background(), path, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"Café São José"}, names)
}

func TestLoad_ShortRows(t *testing.T) {
	path := writeFile(t, "short.csv", "CNPJ,Nome_Fantasia\n1\n2,Loja XYZ\n")

	names, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Loja XYZ"}, names)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSourceNotFound))
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeFile(t, "wrong.csv", "Razao_Social\nPadaria Central LTDA\nLoja XYZ ME\n")

	_, err := Load(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "Nome_Fantasia"`)
	assert.False(t, errors.Is(err, model.ErrSourceNotFound))
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := Load(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestLoad_HeaderOnly(t *testing.T) {
	path := writeFile(t, "header.csv", "Nome_Fantasia\n")

	names, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoad_CustomColumn(t *testing.T) {
	path := writeFile(t, "custom.csv", "Empresa\nLoja XYZ\n")

	names, err := Load(context.Background(), path, Options{Column: "Empresa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Loja XYZ"}, names)
}

func TestLoad_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Empresas": {
			{"Nome_Fantasia", "Cidade"},
			{"Padaria Central", "Mogi Mirim"},
			{"", "Mogi Mirim"},
			{" Loja XYZ ", "Mogi Mirim"},
		},
	})

	names, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Padaria Central", "Loja XYZ"}, names)

	names, err = Load(context.Background(), path, Options{Sheet: "Empresas"})
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestLoad_XLSXMissingSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"Nome_Fantasia"}}})

	_, err := Load(context.Background(), path, Options{Sheet: "Outra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Outra" not found`)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, errs := StreamCSV(ctx, strings.NewReader("a\nb\n"), 0)
	for range rows {
	}
	err := <-errs
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
