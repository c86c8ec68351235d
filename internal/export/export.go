// Package export renders reconciliation reports as tables, JSON, YAML, CSV
// or XLSX workbooks.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roster-cli/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatXLSX}

// ParseFormat resolves a format name, case-insensitively. "yml" is accepted
// for YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// FormatFor infers a format from an output path's extension, falling back
// to def.
func FormatFor(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return def
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

// Write renders rep to w in the given format.
func Write(w io.Writer, rep *model.Report, f Format) error {
	if rep == nil {
		return eris.New("export: nil report")
	}
	switch f {
	case FormatTable, "":
		return Table(w, rep)
	case FormatJSON:
		return JSON(w, rep)
	case FormatYAML:
		return YAML(w, rep)
	case FormatCSV:
		return CSV(w, rep)
	case FormatXLSX:
		return XLSX(w, rep)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, rep *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rep), "export: json")
}

// YAML writes the report as a YAML document.
func YAML(w io.Writer, rep *model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "export: yaml")
	}
	return eris.Wrap(enc.Close(), "export: yaml close")
}

// Columns is the flat findings layout shared by CSV and XLSX output.
var Columns = []string{
	"organization", "name", "id", "birth_date", "types", "tier",
	"a_status", "b_status", "a_institution", "b_institution",
	"hire_delta_days", "resign_delta_days", "suggestion",
}

// CSV writes one row per finding under a header row.
func CSV(w io.Writer, rep *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	for _, org := range rep.Organizations {
		for _, f := range org.Findings {
			if err := cw.Write(findingRow(org.OrganizationName, f)); err != nil {
				return eris.Wrap(err, "export: csv row")
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: csv flush")
}

// Table writes a human-readable summary followed by per-organization
// findings.
func Table(out io.Writer, rep *model.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	s := rep.Summary
	_, _ = fmt.Fprintf(w, "Registry A:\t%d (skipped %d)\n", s.TotalA, s.SkippedA)
	_, _ = fmt.Fprintf(w, "Registry B:\t%d (skipped %d)\n", s.TotalB, s.SkippedB)
	_, _ = fmt.Fprintf(w, "Matched:\t%s\n", matchedLine(s.Matched))
	_, _ = fmt.Fprintf(w, "Findings:\t%d across %d organizations\n", s.TotalFindings, s.Organizations)
	for _, t := range model.InconsistencyTypes {
		if n := s.Counts[t]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", t, n)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "export: table summary")
	}

	for _, org := range rep.Organizations {
		if len(org.Findings) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, "\n== %s (%d) ==\n", org.OrganizationName, len(org.Findings))
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tID\tBIRTH\tTYPES\tA\tB\tSUGGESTION")
		_, _ = fmt.Fprintln(w, "----\t--\t-----\t-----\t-\t-\t----------")
		for _, f := range org.Findings {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				f.PersonName,
				f.PersonID,
				f.BirthDate,
				f.TypeKey(),
				statusOf(f.A),
				statusOf(f.B),
				suggestionText(f.Suggestion),
			)
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "export: table findings")
		}
	}
	return nil
}

func matchedLine(m map[string]int) string {
	if len(m) == 0 {
		return "0"
	}
	var parts []string
	total := 0
	for _, tier := range []model.Tier{model.TierExact, model.TierRelaxedName, model.TierSimilarName, model.TierUltraLenient} {
		if n := m[tier.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", tier, n))
			total += n
		}
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, " "))
}

func findingRow(org string, f model.Finding) []string {
	return []string{
		org,
		f.PersonName,
		f.PersonID,
		f.BirthDate,
		f.TypeKey(),
		tierText(f.Tier),
		statusOf(f.A),
		statusOf(f.B),
		institutionOf(f.A),
		institutionOf(f.B),
		deltaText(f.HireDateDeltaDays),
		deltaText(f.ResignDateDeltaDays),
		suggestionText(f.Suggestion),
	}
}

func tierText(t model.Tier) string {
	if t == model.TierNone {
		return ""
	}
	return t.String()
}

func statusOf(v *model.FieldValues) string {
	if v == nil {
		return ""
	}
	return v.Status
}

func institutionOf(v *model.FieldValues) string {
	if v == nil {
		return ""
	}
	return v.Institution
}

func deltaText(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

func suggestionText(s *model.Suggestion) string {
	if s == nil {
		return ""
	}
	label := s.Name
	if s.BirthDate != "" {
		label += " (" + s.BirthDate + ")"
	}
	return fmt.Sprintf("%s in %s: %s", label, s.Registry, s.Reason)
}
