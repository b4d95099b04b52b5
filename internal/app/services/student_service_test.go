package services

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func TestAdmitAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)

	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	ben := f.admit(f.school, "Ben Kamau", "ben1", 0)

	assert.Equal(t, "GHS/00001/24", ann.AdmissionNumber)
	assert.Equal(t, 2, ann.Form)
	assert.Equal(t, "ann1", ann.Username)

	assert.Equal(t, "GHS/00002/25", ben.AdmissionNumber)
	assert.Equal(t, 2025, ben.AdmissionYear)
	assert.Equal(t, 1, ben.Form)

	assert.Equal(t, 2, f.db.Sequence(f.school.ID))
}

func TestAdmitCountersArePerSchool(t *testing.T) {
	f := newFixture(t)
	other := f.createSchool("Kilimani High", "KHS", "khs_admin")

	f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	cy := f.admit(other, "Cy Njeri", "cy1", 2024)

	assert.Equal(t, "KHS/00001/24", cy.AdmissionNumber)
	assert.Equal(t, 1, f.db.Sequence(other.ID))
}

func TestAdmitFailureConsumesNoNumber(t *testing.T) {
	f := newFixture(t)
	f.admit(f.school, "Ann Mwangi", "ann1", 2024)

	_, err := f.students().Admit(f.ctx, f.school.ID, &dto.CreateStudentRequest{
		FullName: "Another Ann", Username: "ann1", Password: password, AdmissionYear: 2024,
	})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

	f.db.FailOn["students.create"] = func(interface{}) error { return errors.New("boom") }
	_, err = f.students().Admit(f.ctx, f.school.ID, &dto.CreateStudentRequest{
		FullName: "Ben Kamau", Username: "ben1", Password: password, AdmissionYear: 2024,
	})
	require.Error(t, err)
	delete(f.db.FailOn, "students.create")

	_, err = f.db.Store().Users.GetByUsername(f.ctx, "ben1")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Equal(t, 1, f.db.Sequence(f.school.ID))

	ben := f.admit(f.school, "Ben Kamau", "ben1", 2024)
	assert.Equal(t, "GHS/00002/24", ben.AdmissionNumber)
}

func TestAdmitValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  dto.CreateStudentRequest
	}{
		{"blank name", dto.CreateStudentRequest{FullName: "  ", Username: "ann1", Password: password}},
		{"year too early", dto.CreateStudentRequest{FullName: "Ann", Username: "ann1", Password: password, AdmissionYear: 1999}},
		{"username with space", dto.CreateStudentRequest{FullName: "Ann", Username: "ann 1", Password: password}},
		{"username with slash", dto.CreateStudentRequest{FullName: "Ann", Username: "ann/1", Password: password}},
		{"short password", dto.CreateStudentRequest{FullName: "Ann", Username: "ann1", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.students().Admit(f.ctx, f.school.ID, &tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
	assert.Zero(t, f.db.Sequence(f.school.ID))
}

func TestAdmitUnknownSchool(t *testing.T) {
	f := newFixture(t)
	_, err := f.students().Admit(f.ctx, 9999, &dto.CreateStudentRequest{FullName: "Ann", Username: "ann1", Password: password})
	assert.ErrorIs(t, err, apperrors.ErrSchoolNotFound)
}

func TestListAndRosterByForm(t *testing.T) {
	f := newFixture(t)
	f.admit(f.school, "Ann Mwangi", "ann1", 2025)
	f.admit(f.school, "Ben Kamau", "ben1", 2024)
	f.admit(f.school, "Cy Njeri", "cy1", 2021)
	f.admit(f.school, "Dee Atieno", "dee1", 2018)

	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	f.admit(other, "Eli Omondi", "eli1", 2025)

	all, total, err := f.students().List(f.ctx, f.school.ID, 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"Ann Mwangi", "Ben Kamau", "Cy Njeri", "Dee Atieno"}, names(all))

	form1, err := f.students().Roster(f.ctx, f.school.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann Mwangi"}, names(form1))

	form4, err := f.students().Roster(f.ctx, f.school.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cy Njeri", "Dee Atieno"}, names(form4))
	for _, s := range form4 {
		assert.Equal(t, 4, s.Form)
	}

	page, total, err := f.students().List(f.ctx, f.school.ID, 0, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"Dee Atieno"}, names(page))

	_, err = f.students().Roster(f.ctx, f.school.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, _, err = f.students().List(f.ctx, f.school.ID, 5, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCreateSchool(t *testing.T) {
	f := newFixture(t)
	svc := NewSchoolService(f.db, zerolog.Nop())

	resp, err := svc.CreateSchool(f.ctx, &dto.CreateSchoolRequest{
		Name: "Kilimani High", SchoolCode: "KHS@2", AdminUsername: "khs_admin", AdminPassword: password, AdminFullName: "Jane Wanjiru",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSchoolAdmin, resp.Admin.Role)
	require.NotNil(t, resp.Admin.SchoolID)
	assert.Equal(t, resp.School.ID, *resp.Admin.SchoolID)

	admin := f.identify("khs_admin").(*models.SchoolAdminIdentity)
	assert.Equal(t, "Jane Wanjiru", admin.Profile.FullName)

	_, err = svc.CreateSchool(f.ctx, &dto.CreateSchoolRequest{
		Name: "Copy", SchoolCode: "GHS@1", AdminUsername: "copy_admin", AdminPassword: password,
	})
	assert.ErrorIs(t, err, apperrors.ErrSchoolCodeTaken)

	_, err = svc.CreateSchool(f.ctx, &dto.CreateSchoolRequest{
		Name: "Hilltop", SchoolCode: "HTS@1", AdminUsername: "ghs_admin", AdminPassword: password,
	})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
	_, err = f.db.Store().Schools.GetByCode(f.ctx, "HTS@1")
	assert.ErrorIs(t, err, apperrors.ErrSchoolNotFound, "school is rolled back with its admin")

	_, err = svc.CreateSchool(f.ctx, &dto.CreateSchoolRequest{
		Name: "Bad", SchoolCode: "G H", AdminUsername: "bad_admin", AdminPassword: password,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreateSchool(f.ctx, &dto.CreateSchoolRequest{
		Name: "Greenfield Annex", SchoolCode: "GHS@2", AdminUsername: "annex_admin", AdminPassword: password,
	})
	assert.ErrorIs(t, err, apperrors.ErrSchoolCodeBaseTaken)
	_, err = f.db.Store().Users.GetByUsername(f.ctx, "annex_admin")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	options, err := svc.PublicSchools(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []dto.SchoolOption{
		{Name: "Greenfield High", SchoolCode: "GHS@1"},
		{Name: "Kilimani High", SchoolCode: "KHS@2"},
	}, options)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.admit(f.school, "Ann Mwangi", "ann1", 2025)
	f.teacher(f.school, "teach1")
	f.parent(f.school, "mum1")
	f.subject(f.school, "Math")

	stats, err := NewSchoolService(f.db, zerolog.Nop()).Dashboard(f.ctx, f.school.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.SchoolStats{Students: 1, Teachers: 1, Parents: 1, Subjects: 1}, stats)
}

func TestCreateSubjectIgnoresCase(t *testing.T) {
	f := newFixture(t)
	svc := NewSubjectService(f.db, zerolog.Nop())

	f.subject(f.school, "Math")
	_, err := svc.CreateSubject(f.ctx, f.school.ID, "MATH")
	assert.ErrorIs(t, err, apperrors.ErrSubjectExists)

	_, err = svc.CreateSubject(f.ctx, f.school.ID, " ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	_, err = svc.CreateSubject(f.ctx, other.ID, "math")
	assert.NoError(t, err)
}

func names(students []*models.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.FullName)
	}
	return out
}

func TestSchoolsAdmitIndependently(t *testing.T) {
	f := newFixture(t)
	other := f.createSchool("Kilimani High", "KHS@1", "khs_admin")

	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	ben := f.admit(other, "Ben Kamau", "ben1", 2024)
	cy := f.admit(other, "Cy Njeri", "cy1", 2024)

	assert.Equal(t, "GHS/00001/24", ann.AdmissionNumber)
	assert.Equal(t, "KHS/00001/24", ben.AdmissionNumber)
	assert.Equal(t, "KHS/00002/24", cy.AdmissionNumber)
	assert.Equal(t, 1, f.db.Sequence(f.school.ID))
	assert.Equal(t, 2, f.db.Sequence(other.ID))
}
