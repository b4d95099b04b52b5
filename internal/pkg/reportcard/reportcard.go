// Package reportcard renders a student's term results as a PDF.
package reportcard

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Fixed strings printed on every card
const (
	ClassRank       = "N/A"
	TeacherRemark   = "Consistent effort shown in all subjects."
	PrincipalRemark = "A promising term. Keep up the good work."
)

// Line is one subject row
type Line struct {
	Subject string
	Marks   int
	Letter  string
}

// Card is everything printed on a report card
type Card struct {
	SchoolName      string
	StudentName     string
	AdmissionNumber string
	Form            int
	Term            string
	Lines           []Line
	GeneratedAt     time.Time
}

// Total sums the marks of all lines
func (c *Card) Total() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Marks
	}
	return total
}

// Average is the mean mark rounded to 2 decimals, 0 without lines
func (c *Card) Average() float64 {
	if len(c.Lines) == 0 {
		return 0
	}
	return math.Round(float64(c.Total())/float64(len(c.Lines))*100) / 100
}

// Filename is "<admission number>_<term>_Report.pdf". Only ASCII letters,
// digits, '-', '_' and '.' survive: '/' becomes '-', anything else '_'.
func (c *Card) Filename() string {
	return fmt.Sprintf("%s_%s_Report.pdf", safeName(c.AdmissionNumber), safeName(c.Term))
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		case r == '/':
			return '-'
		default:
			return '_'
		}
	}, s)
}

// Render draws the card and returns the PDF bytes
func Render(c *Card) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("%s %s", c.StudentName, c.Term), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(c.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "STUDENT REPORT CARD", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(40, 90, 145)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY()+2, 190, pdf.GetY()+2)
	pdf.Ln(8)

	info := [][2]string{
		{"Student Name:", c.StudentName},
		{"Admission No:", c.AdmissionNumber},
		{"Form:", fmt.Sprintf("Form %d", c.Form)},
		{"Term:", c.Term},
	}
	for _, kv := range info {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(40, 6, kv[0])
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, tr(kv[1]))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(40, 90, 145)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(100, 8, "SUBJECT", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "MARKS", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "GRADE", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(245, 245, 245)
	for i, l := range c.Lines {
		fill := i%2 == 0
		pdf.CellFormat(100, 7, tr(l.Subject), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", l.Marks), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(40, 7, l.Letter, "1", 1, "C", fill, 0, "")
	}
	pdf.Ln(6)

	summary := [][2]string{
		{"Total Marks:", fmt.Sprintf("%d", c.Total())},
		{"Average:", fmt.Sprintf("%.2f", c.Average())},
		{"Class Rank:", ClassRank},
	}
	for _, kv := range summary {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, kv[0])
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, kv[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Class Teacher's Remarks")
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(0, 6, TeacherRemark, "", "L", false)
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Principal's Remarks")
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(0, 6, PrincipalRemark, "", "L", false)

	generated := c.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 5, fmt.Sprintf("Generated on %s", generated.Format("January 02, 2006")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report card: %w", err)
	}
	return buf.Bytes(), nil
}
