package factors

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	book := excelize.NewFile()
	_, err := book.NewSheet(FactorSheet)
	require.NoError(t, err)

	header := make([]any, len(workbookColumns))
	for i, col := range workbookColumns {
		header[i] = col
	}
	require.NoError(t, book.SetSheetRow(FactorSheet, "A1", &header))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(FactorSheet, cell, &row))
	}

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestWorkbookImport(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"waste_generated_in_operations", "1.25", "kgCO2e/kg", "DEFRA", "DEFRA 2024", "GB", "2024", "10", "20"},
		{"business_travel", "0.15", "kgCO2e/km", "EPA", "EPA 2023", "", "2023", "", ""},
	})

	store := NewMemoryStore()
	importer := NewWorkbookImporter(store, zap.NewNop())

	report, err := importer.Import(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.RowErrors)

	waste, err := store.QueryFactors(context.Background(), Query{Category: emissions.CategoryWaste})
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.Equal(t, "GB", waste[0].Region)
	require.NotNil(t, waste[0].Uncertainty)
	assert.Equal(t, 10.0, waste[0].Uncertainty.LowerPct)
	assert.Equal(t, 20.0, waste[0].Uncertainty.UpperPct)

	travel, err := store.QueryFactors(context.Background(), Query{Category: emissions.CategoryBusinessTravel})
	require.NoError(t, err)
	require.Len(t, travel, 1)
	assert.True(t, travel[0].Global())
	assert.Nil(t, travel[0].Uncertainty)
}

func TestWorkbookImportCollectsRowErrors(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"waste_generated_in_operations", "1.25", "kgCO2e/kg", "DEFRA", "DEFRA 2024", "GB", "2024", "", ""},
		{"not_a_category", "-3", "kgCO2e/kg", "EPA", "", "US", "badyear", "", ""},
		{"business_travel", "0.15", "kgCO2e/km", "EPA", "EPA 2023", "", "2023", "30", ""},
	})

	store := NewMemoryStore()
	importer := NewWorkbookImporter(store, zap.NewNop())

	report, err := importer.Import(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.RowErrors, 2)

	// Row 3 collects every parse failure, not just the first.
	assert.GreaterOrEqual(t, len(report.RowErrors[3]), 2)
	// Row 4 has one uncertainty bound without the other.
	assert.NotEmpty(t, report.RowErrors[4])
}

func TestWorkbookImportBadHeader(t *testing.T) {
	book := excelize.NewFile()
	_, err := book.NewSheet(FactorSheet)
	require.NoError(t, err)
	header := []any{"category", "amount"}
	require.NoError(t, book.SetSheetRow(FactorSheet, "A1", &header))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	importer := NewWorkbookImporter(NewMemoryStore(), zap.NewNop())
	_, err = importer.Import(context.Background(), buf)
	assert.Error(t, err)
}
