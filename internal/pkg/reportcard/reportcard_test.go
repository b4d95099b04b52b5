package reportcard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardTotals(t *testing.T) {
	c := &Card{Lines: []Line{{"Math", 92, "A+"}, {"English", 67, "C"}, {"Physics", 70, "B"}}}

	assert.Equal(t, 229, c.Total())
	assert.Equal(t, 76.33, c.Average())
	assert.Equal(t, 0.0, (&Card{}).Average())
}

func TestFilename(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Term 1 2025", "GHS-00001-24_Term_1_2025_Report.pdf"},
		{"2024/25", "GHS-00001-24_2024-25_Report.pdf"},
		{`T1"; filename=x.exe`, "GHS-00001-24_T1___filename_x.exe_Report.pdf"},
		{`a\b:c`, "GHS-00001-24_a_b_c_Report.pdf"},
		{"Muhula wa Pili é", "GHS-00001-24_Muhula_wa_Pili___Report.pdf"},
	}
	for _, tt := range tests {
		c := &Card{AdmissionNumber: "GHS/00001/24", Term: tt.term}
		name := c.Filename()
		assert.Equal(t, tt.want, name, tt.term)
		assert.NotContainsf(t, name, `"`, "term %q", tt.term)
	}
}

func TestRender(t *testing.T) {
	out, err := Render(&Card{
		SchoolName:      "Greenfield High",
		StudentName:     "Ann",
		AdmissionNumber: "GHS/00001/24",
		Form:            2,
		Term:            "Term 1",
		Lines:           []Line{{"Math", 92, "A+"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
