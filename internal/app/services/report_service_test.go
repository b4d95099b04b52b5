package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func TestReportCard(t *testing.T) {
	f := newFixture(t)
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")
	eng := f.subject(f.school, "English")
	f.grade(teacher, ann, math, "Term 1 2025", 92)
	f.grade(teacher, ann, eng, "Term 1 2025", 67)

	card, pdf, err := f.reports().ReportCard(f.ctx, f.studentIdentity("ann1"), ann.ID, "Term 1 2025")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, "Greenfield High", card.SchoolName)
	assert.Equal(t, 2, card.Form)
	assert.Equal(t, 159, card.Total())
	assert.Equal(t, 79.5, card.Average())
	require.Len(t, card.Lines, 2)
	assert.Equal(t, "English", card.Lines[0].Subject)
	assert.Equal(t, "C", card.Lines[0].Letter)
	assert.Equal(t, "GHS-00001-24_Term_1_2025_Report.pdf", card.Filename())

	_, _, err = f.reports().ReportCard(f.ctx, f.studentIdentity("ann1"), ann.ID, "Term 2 2025")
	assert.ErrorIs(t, err, apperrors.ErrNoGradesForTerm)

	_, _, err = f.reports().ReportCard(f.ctx, f.studentIdentity("ann1"), ann.ID, " ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestReportCardVisibility(t *testing.T) {
	f := newFixture(t)
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	f.admit(f.school, "Ben Kamau", "ben1", 2024)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")
	f.grade(teacher, ann, math, "T1", 75)

	f.superAdmin("root")
	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	mum := f.parent(f.school, "mum1")

	allowed := map[string]models.Identity{
		"own school admin":   f.identify("ghs_admin"),
		"own school teacher": teacher,
	}
	for name, id := range allowed {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.reports().ReportCard(f.ctx, id, ann.ID, "T1")
			assert.NoError(t, err)
		})
	}

	denied := map[string]models.Identity{
		"another student":      f.studentIdentity("ben1"),
		"unlinked parent":      mum,
		"other school admin":   f.identify("khs_admin"),
		"other school teacher": f.teacher(other, "teach2"),
		"super admin":          f.identify("root"),
	}
	for name, id := range denied {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.reports().ReportCard(f.ctx, id, ann.ID, "T1")
			assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
		})
	}

	links := f.links("ann-code")
	_, err := links.Issue(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	_, err = links.Redeem(f.ctx, mum, "ann-code")
	require.NoError(t, err)

	_, _, err = f.reports().ReportCard(f.ctx, mum, ann.ID, "T1")
	assert.NoError(t, err, "linked parent")
}

func TestReportCardFormFollowsServiceClock(t *testing.T) {
	f := newFixture(t)
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2025)
	teacher := f.teacher(f.school, "teach1")
	f.grade(teacher, ann, f.subject(f.school, "Math"), "Term 1", 80)

	svc := NewReportService(f.db, models.DefaultMaxForm, zerolog.Nop()).(*reportService)
	for year, form := range map[int]int{2025: 1, 2026: 2, 2031: 4} {
		svc.now = fixedClock(year, time.January, 10)
		card, _, err := svc.ReportCard(f.ctx, teacher, ann.ID, "Term 1")
		require.NoError(t, err)
		assert.Equal(t, form, card.Form, "year %d", year)
		assert.Equal(t, year, card.GeneratedAt.Year())
	}
}
