package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/roster-cli/internal/model"
)

const (
	summarySheet  = "Summary"
	findingsSheet = "Findings"
)

var findingsWidths = []float64{22, 16, 14, 12, 34, 14, 12, 12, 22, 22, 10, 10, 48}

// XLSX writes a workbook with a summary sheet and a findings sheet.
func XLSX(w io.Writer, rep *model.Report) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return eris.Wrap(err, "export: create findings sheet")
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return eris.Wrap(err, "export: header style")
	}

	if err := writeSummary(f, rep, header); err != nil {
		return err
	}
	if err := writeFindings(f, rep, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return eris.Wrap(err, "export: write workbook")
}

func writeSummary(f *excelize.File, rep *model.Report, header int) error {
	s := rep.Summary
	rows := [][]any{
		{"Metric", "Value"},
		{"Registry A records", s.TotalA},
		{"Registry A skipped", s.SkippedA},
		{"Registry B records", s.TotalB},
		{"Registry B skipped", s.SkippedB},
		{"Total findings", s.TotalFindings},
		{"Organizations", s.Organizations},
	}
	for _, tier := range []model.Tier{model.TierExact, model.TierRelaxedName, model.TierSimilarName, model.TierUltraLenient} {
		rows = append(rows, []any{"Matched " + tier.String(), s.Matched[tier.String()]})
	}
	for _, t := range model.InconsistencyTypes {
		rows = append(rows, []any{string(t), s.Counts[t]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return eris.Wrap(err, "export: summary cell")
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return eris.Wrapf(err, "export: summary row %d", i+1)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return eris.Wrap(err, "export: summary style")
	}
	return eris.Wrap(f.SetColWidth(summarySheet, "A", "A", 28), "export: summary width")
}

func writeFindings(f *excelize.File, rep *model.Report, header int) error {
	head := make([]any, len(Columns))
	for i, c := range Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(findingsSheet, "A1", &head); err != nil {
		return eris.Wrap(err, "export: findings header")
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return eris.Wrap(err, "export: findings header cell")
	}
	if err := f.SetCellStyle(findingsSheet, "A1", last, header); err != nil {
		return eris.Wrap(err, "export: findings style")
	}

	for i, width := range findingsWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return eris.Wrap(err, "export: column name")
		}
		if err := f.SetColWidth(findingsSheet, col, col, width); err != nil {
			return eris.Wrap(err, "export: column width")
		}
	}

	row := 2
	for _, org := range rep.Organizations {
		for _, fd := range org.Findings {
			values := findingRow(org.OrganizationName, fd)
			cells := make([]any, len(values))
			for i, v := range values {
				cells[i] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return eris.Wrap(err, "export: findings cell")
			}
			if err := f.SetSheetRow(findingsSheet, cell, &cells); err != nil {
				return eris.Wrapf(err, "export: findings row %d", row)
			}
			row++
		}
	}
	return eris.Wrap(f.AutoFilter(findingsSheet, "A1:"+last, nil), "export: autofilter")
}
