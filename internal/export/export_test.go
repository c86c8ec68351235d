package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roster-cli/internal/model"
)

func intPtr(n int) *int { return &n }

func testReport() *model.Report {
	return &model.Report{
		Organizations: []model.OrganizationReport{
			{
				OrganizationName: "Busan Center",
				Findings: []model.Finding{{
					PersonName:          "Park",
					PersonID:            "A2",
					BirthDate:           "850505",
					Types:               []model.InconsistencyType{model.ResignDateMismatch},
					Tier:                model.TierExact,
					A:                   &model.FieldValues{Name: "Park", Status: "inactive", Institution: "Busan Center"},
					B:                   &model.FieldValues{Name: "Park", Status: "withdrawn"},
					ResignDateDeltaDays: intPtr(19),
				}},
				Counts: map[model.InconsistencyType]int{model.ResignDateMismatch: 1},
			},
			{
				OrganizationName: "Seoul Center",
				Findings: []model.Finding{{
					PersonName: "Chio",
					BirthDate:  "900108",
					Types:      []model.InconsistencyType{model.OnlyInB},
					B:          &model.FieldValues{Name: "Chio", Status: "normal"},
					Suggestion: &model.Suggestion{
						Registry:  model.RegistryA,
						Name:      "Choi",
						BirthDate: "900101",
						DayDelta:  7,
						Reason:    "birthdate differs by 7 days",
					},
				}},
				Counts: map[model.InconsistencyType]int{model.OnlyInB: 1},
			},
			{OrganizationName: "Daegu Center", Counts: map[model.InconsistencyType]int{}},
		},
		Summary: model.Summary{
			TotalA:        4,
			TotalB:        3,
			Matched:       map[string]int{"exact": 2},
			Counts:        map[model.InconsistencyType]int{model.ResignDateMismatch: 1, model.OnlyInB: 1},
			TotalFindings: 2,
			Organizations: 3,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{" csv ", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"", FormatTable, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFor("out/report.xlsx", FormatTable))
	assert.Equal(t, FormatYAML, FormatFor("report.yml", FormatTable))
	assert.Equal(t, FormatJSON, FormatFor("report", FormatJSON))
	assert.Equal(t, FormatCSV, FormatFor("report.txt", FormatCSV))
}

func TestWrite_NilReport(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, nil, FormatJSON))
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, testReport(), Format("pdf")))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testReport(), FormatJSON))

	var got model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Summary.TotalFindings)
	require.Len(t, got.Organizations, 3)
	assert.Equal(t, "Choi", got.Organizations[1].Findings[0].Suggestion.Name)
	assert.Contains(t, buf.String(), `"similar_suggestion"`)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testReport(), FormatYAML))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Contains(t, got, "organizations")
	assert.Contains(t, buf.String(), "organization_name: Busan Center")
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testReport(), FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])

	park := rows[1]
	assert.Equal(t, "Busan Center", park[0])
	assert.Equal(t, "resign_date_mismatch", park[4])
	assert.Equal(t, "exact", park[5])
	assert.Equal(t, "19", park[11])
	assert.Equal(t, "", park[12])

	chio := rows[2]
	assert.Equal(t, "", chio[5], "unmatched has no tier")
	assert.Equal(t, "Choi (900101) in A: birthdate differs by 7 days", chio[12])
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testReport(), FormatTable))
	out := buf.String()

	assert.Contains(t, out, "Matched:")
	assert.Contains(t, out, "2 (exact=2)")
	assert.Contains(t, out, "resign_date_mismatch:")
	assert.Contains(t, out, "== Busan Center (1) ==")
	assert.Contains(t, out, "== Seoul Center (1) ==")
	assert.NotContains(t, out, "Daegu Center", "organizations without findings are omitted")
	assert.Less(t, strings.Index(out, "Busan"), strings.Index(out, "Seoul"))
}

func TestTable_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, &model.Report{}))
	assert.Contains(t, buf.String(), "0 across 0 organizations")
	assert.NotContains(t, buf.String(), "==")
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testReport(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{summarySheet, findingsSheet}, f.GetSheetList())

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Registry A records", "4"}, summary[1])

	findings, err := f.GetRows(findingsSheet)
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, Columns, findings[0])
	assert.Equal(t, "Park", findings[1][1])
	assert.Equal(t, "Chio", findings[2][1])
}
