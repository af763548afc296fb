package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDiseases(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			"thai canonical passes through",
			[]string{"เบาหวาน", "ความดัน"},
			[]string{"เบาหวาน", "ความดัน"},
		},
		{
			"english aliases fold to canonical",
			[]string{"diabetes", "high blood pressure", "cardiac"},
			[]string{"เบาหวาน", "ความดัน", "หัวใจ"},
		},
		{
			"longest alias wins",
			[]string{"type 2 diabetes"},
			[]string{"เบาหวาน"},
		},
		{
			"duplicates collapse, order preserved",
			[]string{"dm", "diabetes", "ht", "เบาหวาน"},
			[]string{"เบาหวาน", "ความดัน"},
		},
		{
			"negatives drop out",
			[]string{"none", "ไม่มี", "no disease", "healthy", "n/a"},
			[]string{},
		},
		{
			"substring negation",
			[]string{"no diseases at all", "ไม่มีโรคประจำตัว"},
			[]string{},
		},
		{
			"unrecognized mention kept verbatim",
			[]string{"โรคเกาต์"},
			[]string{"โรคเกาต์"},
		},
		{
			"mixed input",
			[]string{"ไม่มี", "kidney", "renal", "โรคเกาต์"},
			[]string{"ไต", "โรคเกาต์"},
		},
		{
			"blank entries ignored",
			[]string{"", "   ", "มะเร็ง"},
			[]string{"มะเร็ง"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDiseases(tt.in))
		})
	}
}

func TestNormalizeDiseasesIdempotent(t *testing.T) {
	in := []string{"diabetes", "hypertension", "โรคเกาต์"}
	once := NormalizeDiseases(in)
	assert.Equal(t, once, NormalizeDiseases(once))
}

func TestRiskDiseaseSubset(t *testing.T) {
	in := []string{"เบาหวาน", "โรคเกาต์", "ไต"}
	assert.Equal(t, []string{"เบาหวาน", "ไต"}, RiskDiseaseSubset(in))
}
