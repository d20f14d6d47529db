package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetEntries = "Entries"
	SheetSummary = "Summary"
)

// XLSX renders entries into a workbook with an entries sheet using the
// CSV columns and a summary sheet with averages and distributions.
// Scores are written as numbers.
func XLSX(entries []model.Entry, loc *time.Location) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetEntries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildXLSX, err)
	}
	if err := writeRow(f, SheetEntries, 1, toCells(Header())); err != nil {
		return nil, err
	}
	for i, e := range entries {
		row := Row(e, loc)
		cells := make([]any, 0, len(row))
		cells = append(cells, row[0], row[1], row[2])
		for _, v := range e.Scores {
			cells = append(cells, v)
		}
		cells = append(cells, e.Overall())
		if err := writeRow(f, SheetEntries, i+2, cells); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildXLSX, err)
	}
	if err := writeSummary(f, aggregate.Summarize(entries)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildXLSX, err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, s aggregate.Summary) error {
	header := []any{"Criterion", "Average"}
	for _, l := range rubric.Levels() {
		header = append(header, fmt.Sprintf("Level %d", l))
	}
	if err := writeRow(f, SheetSummary, 1, header); err != nil {
		return err
	}
	for i, c := range s.Criteria {
		if err := writeRow(f, SheetSummary, i+2, histogramRow(c.Label, c.Average, c.Distribution)); err != nil {
			return err
		}
	}
	next := len(s.Criteria) + 2
	if err := writeRow(f, SheetSummary, next, histogramRow("Overall", nil, s.OverallDistribution)); err != nil {
		return err
	}
	return writeRow(f, SheetSummary, next+2, []any{"Entries", s.Count})
}

func histogramRow(label string, avg any, h aggregate.Histogram) []any {
	row := []any{label, avg}
	for _, c := range h {
		row = append(row, c)
	}
	return row
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildXLSX, err)
	}
	if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildXLSX, err)
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
