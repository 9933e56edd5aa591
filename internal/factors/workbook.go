package factors

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

// FactorSheet is the worksheet name the importer reads.
const FactorSheet = "Factors"

// workbookColumns is the expected header row, in order. Uncertainty
// columns may be left blank.
var workbookColumns = []string{
	"category", "value", "unit", "source", "source_ref",
	"region", "year", "uncertainty_lower_pct", "uncertainty_upper_pct",
}

// ImportReport summarizes a workbook import. Row numbers are 1-based as
// shown in a spreadsheet editor.
type ImportReport struct {
	Imported  int
	RowErrors map[int][]string
}

// WorkbookImporter ingests published emission-factor datasets (EPA, DEFRA
// and similar agencies distribute them as spreadsheets) into a Store.
// Invalid rows are collected per row number and do not abort the import.
type WorkbookImporter struct {
	store  Store
	logger *zap.Logger
}

// NewWorkbookImporter creates an importer writing into store.
func NewWorkbookImporter(store Store, logger *zap.Logger) *WorkbookImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookImporter{store: store, logger: logger}
}

// Import reads the Factors sheet from r and saves every valid row.
func (w *WorkbookImporter) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening factor workbook: %w", err)
	}
	defer book.Close()

	rows, err := book.GetRows(FactorSheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", FactorSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", FactorSheet)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	report := &ImportReport{RowErrors: make(map[int][]string)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		factor, errs := parseFactorRow(row)
		if len(errs) == 0 {
			if _, err := w.store.SaveFactor(ctx, factor); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if len(errs) > 0 {
			report.RowErrors[rowNum] = errs
			w.logger.Warn("skipping invalid factor row",
				zap.Int("row", rowNum),
				zap.Strings("errors", errs))
			continue
		}
		report.Imported++
	}

	w.logger.Info("factor workbook imported",
		zap.Int("imported", report.Imported),
		zap.Int("rejected", len(report.RowErrors)))
	return report, nil
}

func checkHeader(header []string) error {
	if len(header) < len(workbookColumns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(workbookColumns))
	}
	for i, want := range workbookColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseFactorRow(row []string) (*emissions.EmissionFactor, []string) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var errs []string

	category, err := emissions.ParseCategory(cell(0))
	if err != nil {
		errs = append(errs, err.Error())
	}

	value, err := decimal.NewFromString(cell(1))
	if err != nil {
		errs = append(errs, fmt.Sprintf("value %q is not a number", cell(1)))
	}

	year, err := strconv.Atoi(cell(6))
	if err != nil {
		errs = append(errs, fmt.Sprintf("year %q is not an integer", cell(6)))
	}

	factor := &emissions.EmissionFactor{
		Category:  category,
		Value:     value,
		Unit:      cell(2),
		Source:    emissions.FactorSource(cell(3)),
		SourceRef: cell(4),
		Region:    cell(5),
		Year:      year,
	}

	lowerCell, upperCell := cell(7), cell(8)
	if lowerCell != "" || upperCell != "" {
		lower, errLo := strconv.ParseFloat(lowerCell, 64)
		upper, errUp := strconv.ParseFloat(upperCell, 64)
		if errLo != nil || errUp != nil {
			errs = append(errs, "uncertainty bounds must both be numbers when either is set")
		} else {
			factor.Uncertainty = &emissions.UncertaintyRange{LowerPct: lower, UpperPct: upper}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if violations := factor.Validate(); len(violations) > 0 {
		return nil, violations
	}
	return factor, nil
}
