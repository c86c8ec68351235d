package roster

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roster-cli/internal/normalize"
)

// Field names a record attribute a roster column can populate.
type Field string

const (
	FieldID          Field = "id"
	FieldName        Field = "name"
	FieldBirthDate   Field = "birth_date"
	FieldInstitution Field = "institution"
	FieldJobType     Field = "job_type"
	FieldHireDate    Field = "hire_date"
	FieldResignDate  Field = "resign_date"
	FieldIsActive    Field = "is_active"
	FieldStatus      Field = "status"
	FieldPhone       Field = "phone"
)

// ColumnMap lists, per field, the header labels that populate it.
type ColumnMap map[Field][]string

// DefaultColumns covers the English and Korean headers seen in HR and
// training-portal exports.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		FieldID:          {"id", "employee_id", "member_id", "사번", "회원번호", "아이디"},
		FieldName:        {"name", "full_name", "이름", "성명"},
		FieldBirthDate:   {"birth_date", "birthdate", "birthday", "dob", "생년월일"},
		FieldInstitution: {"institution", "organization", "agency", "기관", "기관명", "소속", "소속기관"},
		FieldJobType:     {"job_type", "job", "position", "직종", "직무", "직위"},
		FieldHireDate:    {"hire_date", "hired", "start_date", "입사일", "채용일"},
		FieldResignDate:  {"resign_date", "resigned", "end_date", "퇴사일"},
		FieldIsActive:    {"is_active", "active", "employed", "재직여부"},
		FieldStatus:      {"status", "member_status", "상태", "회원상태"},
		FieldPhone:       {"phone", "mobile", "연락처", "전화번호", "휴대폰"},
	}
}

// LoadColumnMap reads a YAML column map and merges it over the defaults.
// Labels listed in the file take precedence over the built-in ones.
func LoadColumnMap(path string) (ColumnMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read column map %s", path)
	}
	var custom ColumnMap
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, eris.Wrapf(err, "roster: parse column map %s", path)
	}
	return DefaultColumns().Merge(custom), nil
}

// Merge returns a copy of m with the labels of other prepended per field.
func (m ColumnMap) Merge(other ColumnMap) ColumnMap {
	out := make(ColumnMap, len(m))
	for f, labels := range m {
		out[f] = append([]string(nil), labels...)
	}
	for f, labels := range other {
		out[f] = append(append([]string(nil), labels...), out[f]...)
	}
	return out
}

// layout maps fields to column positions of one header row.
type layout map[Field]int

var labelSeparators = strings.NewReplacer("_", "", "-", "", ".", "")

// labelKey is the comparable form of a header label.
func labelKey(s string) string {
	return labelSeparators.Replace(normalize.Name(s))
}

// resolve matches header labels against the map. Labels are compared by
// labelKey; the first listed label that appears wins.
func (m ColumnMap) resolve(header []string) layout {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		n := labelKey(h)
		if _, dup := pos[n]; n != "" && !dup {
			pos[n] = i
		}
	}

	l := make(layout)
	for f, labels := range m {
		for _, label := range labels {
			if i, ok := pos[labelKey(label)]; ok {
				l[f] = i
				break
			}
		}
	}
	return l
}

func (l layout) get(row []string, f Field) string {
	i, ok := l[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
