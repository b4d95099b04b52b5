package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func TestSubmitGradeUpserts(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)

	marks := 85
	req := &dto.SubmitGradeRequest{AdmissionNumber: ann.AdmissionNumber, SubjectID: math.ID, Term: "Term 1 2025", Marks: &marks}

	g, created, err := f.grades().Submit(f.ctx, teacher, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.GradeA, g.Letter)
	assert.Equal(t, "Math", g.SubjectName)
	assert.Equal(t, "Ann Mwangi", g.StudentName)

	marks = 92
	g2, created, err := f.grades().Submit(f.ctx, teacher, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, g.ID, g2.ID)
	assert.Equal(t, models.GradeAPlus, g2.Letter)
	assert.Equal(t, 1, f.db.GradeCount(ann.ID, math.ID, "Term 1 2025"))

	terms, err := f.grades().ByTerm(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.Len(t, terms[0].Grades, 1)
	assert.Equal(t, 92, terms[0].Grades[0].Marks)

	recent, err := f.grades().Recent(f.ctx, teacher, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.GradeAPlus, recent[0].Letter)
}

func TestSubmitGradeStaysInTenant(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")

	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	cy := f.admit(other, "Cy Njeri", "cy1", 2024)
	otherMath := f.subject(other, "Math")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)

	marks := 70
	_, _, err := f.grades().Submit(f.ctx, teacher, &dto.SubmitGradeRequest{
		AdmissionNumber: cy.AdmissionNumber, SubjectID: math.ID, Term: "Term 1", Marks: &marks,
	})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, _, err = f.grades().Submit(f.ctx, teacher, &dto.SubmitGradeRequest{
		AdmissionNumber: ann.AdmissionNumber, SubjectID: otherMath.ID, Term: "Term 1", Marks: &marks,
	})
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)

	assert.Zero(t, f.db.GradeCount(cy.ID, math.ID, "Term 1"))
	assert.Zero(t, f.db.GradeCount(ann.ID, otherMath.ID, "Term 1"))
}

func TestSubmitGradeValidation(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)

	over, under, ok := 101, -1, 50
	tests := []struct {
		name string
		req  dto.SubmitGradeRequest
	}{
		{"marks above 100", dto.SubmitGradeRequest{AdmissionNumber: ann.AdmissionNumber, SubjectID: math.ID, Term: "T1", Marks: &over}},
		{"negative marks", dto.SubmitGradeRequest{AdmissionNumber: ann.AdmissionNumber, SubjectID: math.ID, Term: "T1", Marks: &under}},
		{"missing marks", dto.SubmitGradeRequest{AdmissionNumber: ann.AdmissionNumber, SubjectID: math.ID, Term: "T1"}},
		{"blank term", dto.SubmitGradeRequest{AdmissionNumber: ann.AdmissionNumber, SubjectID: math.ID, Term: " ", Marks: &ok}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.grades().Submit(f.ctx, teacher, &tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}
