package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func TestIssueReplacesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	links := f.links("first", "second")

	first, err := links.Issue(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Code)
	assert.Equal(t, ann.AdmissionNumber, first.AdmissionNumber)

	second, err := links.Issue(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, f.db.UnusedLinkCodes(ann.ID))

	mum := f.parent(f.school, "mum1")
	_, err = links.Redeem(f.ctx, mum, first.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLinkCode)

	linked, err := links.Redeem(f.ctx, mum, second.Code)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, linked.ID)
	assert.Equal(t, 2, linked.Form)
	assert.Empty(t, f.db.UnusedLinkCodes(ann.ID))

	_, err = links.Redeem(f.ctx, f.parent(f.school, "dad1"), second.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLinkCode, "codes are single use")
}

func TestIssueForOtherSchoolStudent(t *testing.T) {
	f := newFixture(t)
	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	cy := f.admit(other, "Cy Njeri", "cy1", 2024)

	_, err := f.links().Issue(f.ctx, f.school.ID, cy.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.Empty(t, f.db.UnusedLinkCodes(cy.ID))
}

func TestRedeemRejectsOtherSchoolCode(t *testing.T) {
	f := newFixture(t)
	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	stranger := f.parent(other, "stranger1")
	links := f.links("ann-code")

	_, err := links.Issue(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)

	_, err = links.Redeem(f.ctx, stranger, "ann-code")
	assert.ErrorIs(t, err, apperrors.ErrInvalidLinkCode)
	assert.Equal(t, []string{"ann-code"}, f.db.UnusedLinkCodes(ann.ID), "a rejected redemption leaves the code usable")

	children, err := links.Children(f.ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, children)

	for _, code := range []string{"", "  ", "no-such-code"} {
		_, err = links.Redeem(f.ctx, stranger, code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidLinkCode, code)
	}
}

func TestChildrenAndChildGrades(t *testing.T) {
	f := newFixture(t)
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	ben := f.admit(f.school, "Ben Kamau", "ben1", 2025)
	teacher := f.teacher(f.school, "teach1")
	math := f.subject(f.school, "Math")
	f.grade(teacher, ann, math, "Term 1 2025", 81)
	f.grade(teacher, ben, math, "Term 1 2025", 40)

	mum := f.parent(f.school, "mum1")
	links := f.links("ann-code")
	_, err := links.Issue(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	_, err = links.Redeem(f.ctx, mum, "ann-code")
	require.NoError(t, err)

	children, err := links.Children(f.ctx, mum)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, ann.ID, children[0].ID)
	assert.Equal(t, 2, children[0].Form)

	grades, err := links.ChildGrades(f.ctx, mum, ann.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "Term 1 2025", grades[0].Term)
	assert.Equal(t, 81, grades[0].Grades[0].Marks)

	_, err = links.ChildGrades(f.ctx, mum, ben.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}
