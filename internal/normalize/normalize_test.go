package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_Empty(t *testing.T) {
	assert.Equal(t, "", Name(""))
	assert.Equal(t, "", Name("   "))
}

func TestName_StripsWhitespaceAndParens(t *testing.T) {
	assert.Equal(t, "kimmin-su", Name("  Kim Min-su "))
	assert.Equal(t, "leejiho", Name("Lee (Ji Ho)"))
	assert.Equal(t, "홍길동", Name("홍 길동"))
	assert.Equal(t, "홍길동a", Name("홍길동(A)"))
}

func TestName_FullWidth(t *testing.T) {
	assert.Equal(t, "park", Name("ＰＡＲＫ"))
	assert.Equal(t, "홍길동", Name("홍길동（　）"))
}

func TestName_CaseFold(t *testing.T) {
	assert.Equal(t, Name("CHOI"), Name("choi"))
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{"", "Kim", " Lee (Ji) ", "ＰＡＲＫ　Ｓｏｏ", "홍 길 동", "Straße", "[HQ] Office"}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "input %q", in)
	}
}

func TestBirthDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"19900101", "19900101"},
		{"1990-01-01", "19900101"},
		{"1990.01.01", "19900101"},
		{"900101", "19900101"},
		{"300101", "19300101"},
		{"290101", "20290101"},
		{"050505", "20050505"},
		{"90-01-01", "19900101"},
		{"abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BirthDate(tt.in))
		})
	}
}

func TestBirthDate_Idempotent(t *testing.T) {
	for _, in := range []string{"900101", "19900101", "1990-01-01", "05/05/05", "250101"} {
		once := BirthDate(in)
		assert.Equal(t, once, BirthDate(once), "input %q", in)
	}
}

func TestComparable(t *testing.T) {
	assert.True(t, Comparable("19900101"))
	assert.False(t, Comparable("199011"))
	assert.False(t, Comparable(""))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "normal", Status(" Normal "))
	assert.Equal(t, "normal", Status("정상"))
	assert.Equal(t, "suspended", Status("SUSPENDED"))
	assert.Equal(t, "suspended", Status("정지"))
	assert.Equal(t, "dormant", Status("휴면"))
	assert.Equal(t, "withdrawn", Status("탈퇴"))
	assert.Equal(t, "pending", Status("Pending"))
	assert.Equal(t, "", Status(""))
}

func TestJobCategory(t *testing.T) {
	prefixes := []string{"senior", "regional", "수석", "지역"}

	assert.Equal(t, "counselor", JobCategory("Senior Counselor", prefixes))
	assert.Equal(t, "counselor", JobCategory("Regional Counselor", prefixes))
	assert.Equal(t, "counselor", JobCategory("Senior Regional Counselor", prefixes))
	assert.Equal(t, "상담사", JobCategory("수석 상담사", prefixes))
	assert.Equal(t, "counselor", JobCategory("counselor", prefixes))
	assert.Equal(t, "", JobCategory("", prefixes))
}

func TestJobCategory_PrefixOnlyIsKept(t *testing.T) {
	assert.Equal(t, "senior", JobCategory("Senior", []string{"senior"}))
}

func TestOrganization(t *testing.T) {
	assert.Equal(t, "seouloffice", Organization(" Seoul Office "))
}
