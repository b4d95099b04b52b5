package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/app/repositories/memory"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func createSchool(t *testing.T, db *memory.DB, code string) *models.School {
	school := &models.School{Name: "Greenfield High", SchoolCode: code}
	require.NoError(t, db.Store().Schools.Create(context.Background(), school))
	return school
}

func run(t *testing.T, db *memory.DB, rows [][]string, newFlow func() Flow) (*Report, error) {
	var report *Report
	err := db.InTx(context.Background(), func(ctx context.Context, tx *repositories.Store) error {
		var err error
		report, err = Run(ctx, tx, spreadsheet.NewSheet(rows), newFlow(), zerolog.Nop())
		return err
	})
	return report, err
}

var studentHeader = []string{"FullName", "AdmissionYear", "LoginUsername", "InitialPassword"}

func TestStudentImport(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")

	report, err := run(t, db, [][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann1", "secret1"},
		{"Ben Kamau", "2024", "ann1", "secret1"},
		{"Cy Njeri", "", "cy1", "secret1"},
		{"Dee Atieno", "abcd", "dee1", "secret1"},
		{"Eli Omondi", "2025.0", "eli1", "123"},
		{"Fay Wambui", "2025.0", "fay1", "secret1"},
	}, func() Flow { return NewStudentFlow(school, nil) })
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 4, report.Skipped)
	assert.Equal(t, []string{
		"Row 3: Username 'ann1' is already taken.",
		"Row 4: One or more cells are blank.",
		"Row 5: 'AdmissionYear' must be a 4-digit number (e.g., 2025).",
		"Row 6: Password for 'eli1' must be at least 6 characters.",
	}, report.Errors)
	assert.Equal(t, []RowErrorKind{RowDuplicate, RowBlank, RowInvalid, RowInvalid}, kinds(report))

	ctx := context.Background()
	ann, err := db.Store().Students.GetByAdmissionNumber(ctx, school.ID, "GHS/00001/24")
	require.NoError(t, err)
	assert.Equal(t, "Ann Mwangi", ann.FullName)

	fay, err := db.Store().Students.GetByAdmissionNumber(ctx, school.ID, "GHS/00002/25")
	require.NoError(t, err)
	assert.Equal(t, 2025, fay.AdmissionYear)

	assert.Equal(t, 2, db.Sequence(school.ID))
}

func TestStudentImportContinuesSequence(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")
	require.NoError(t, db.Store().Schools.SetSequence(context.Background(), school.ID, 41))

	report, err := run(t, db, [][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann1", "secret1"},
	}, func() Flow { return NewStudentFlow(school, nil) })
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	_, err = db.Store().Students.GetByAdmissionNumber(context.Background(), school.ID, "GHS/00042/24")
	assert.NoError(t, err)
	assert.Equal(t, 42, db.Sequence(school.ID))
}

func TestStudentImportRollsBackFailedRow(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")
	db.FailOn["students.create"] = func(v interface{}) error {
		if v.(*models.Student).FullName == "Bad Row" {
			return errors.New("check constraint violated")
		}
		return nil
	}

	report, err := run(t, db, [][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann1", "secret1"},
		{"Bad Row", "2024", "bad1", "secret1"},
		{"Cy Njeri", "2024", "cy1", "secret1"},
	}, func() Flow { return NewStudentFlow(school, nil) })
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, RowConstraintViolation, report.Failures[0].Kind)
	assert.Equal(t, "Row 3: check constraint violated", report.Errors[0])

	// the user written before the failing insert is gone too
	_, err = db.Store().Users.GetByUsername(context.Background(), "bad1")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	// the failed row did not consume a number
	_, err = db.Store().Students.GetByAdmissionNumber(context.Background(), school.ID, "GHS/00002/24")
	assert.NoError(t, err)
	assert.Equal(t, 2, db.Sequence(school.ID))
}

func TestMissingColumns(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")

	_, err := run(t, db, [][]string{
		{"FullName", "AdmissionYear", "LoginUsername"},
		{"Ann Mwangi", "2024", "ann1"},
	}, func() Flow { return NewStudentFlow(school, nil) })

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t,
		"Invalid file format. Missing one or more required columns: [FullName, AdmissionYear, LoginUsername, InitialPassword]",
		formatErr.Message)
	assert.Equal(t, 0, db.Sequence(school.ID))
}

func TestSchoolImport(t *testing.T) {
	db := memory.New()
	createSchool(t, db, "OLD@1")

	report, err := run(t, db, [][]string{
		{"SchoolName", "SchoolCode", "AdminUsername", "AdminPassword"},
		{"Greenfield High", "GHS@1", "ghs_admin", "secret1"},
		{"Old School", "OLD@1", "old_admin", "secret1"},
		{"Copy", "GHS@1", "other", "secret1"},
		{"Hilltop", "HTS@1", "ghs_admin", "secret1"},
		{"Short", "SHS@1", "shs_admin", "abc"},
		{"", "", "", ""},
		{"Lakeside", "LKS", "lks_admin", "secret1"},
	}, func() Flow { return NewSchoolFlow(nil) })
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	assert.Equal(t, []string{
		"Row 3: SchoolCode 'OLD@1' is already taken.",
		"Row 4: SchoolCode 'GHS@1' is already taken.",
		"Row 5: AdminUsername 'ghs_admin' is already taken.",
		"Row 6: Password for 'shs_admin' must be at least 6 characters.",
		"Row 7: One or more cells are blank.",
	}, report.Errors)

	ctx := context.Background()
	school, err := db.Store().Schools.GetByCode(ctx, "GHS@1")
	require.NoError(t, err)
	admin, err := db.Store().Users.GetByUsername(ctx, "ghs_admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSchoolAdmin, admin.Role)
	require.NotNil(t, admin.SchoolID)
	assert.Equal(t, school.ID, *admin.SchoolID)

	profile, err := db.Store().SchoolAdmins.GetByUserID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ghs_admin", profile.FullName)
}

func TestSubjectImport(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")
	require.NoError(t, db.Store().Subjects.Create(context.Background(), &models.Subject{SchoolID: school.ID, Name: "English"}))

	report, err := run(t, db, [][]string{
		{"SubjectName"},
		{"Math"},
		{"math"},
		{""},
		{"ENGLISH"},
		{"Biology"},
		{""},
		{""},
	}, func() Flow { return NewSubjectFlow(school.ID) })
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	assert.Equal(t, []string{
		"Row 3: Subject 'math' already exists.",
		"Row 4: SubjectName is blank.",
		"Row 5: Subject 'ENGLISH' already exists.",
	}, report.Errors)

	subjects, err := db.Store().Subjects.ListBySchool(context.Background(), school.ID)
	require.NoError(t, err)
	assert.Len(t, subjects, 3)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2024", 2024, true},
		{"2024.0", 2024, true},
		{"2024.5", 0, false},
		{"24", 0, false},
		{"1999", 0, false},
		{"2101", 0, false},
		{"abcd", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseYear(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func kinds(r *Report) []RowErrorKind {
	out := make([]RowErrorKind, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Kind)
	}
	return out
}

func TestSchoolImportRejectsMalformedAndSharedCodes(t *testing.T) {
	db := memory.New()
	createSchool(t, db, "GHX@1")

	report, err := run(t, db, [][]string{
		{"SchoolName", "SchoolCode", "AdminUsername", "AdminPassword"},
		{"Greenfield Two", "GHX@2", "ghx2_admin", "secret1"},
		{"Tiny", "GH", "gh_admin", "secret1"},
		{"Long", "ABCDEFGHIJKLMNOPQRSTUV", "long_admin", "secret1"},
		{"Spaced", "SPC@1", "spc admin", "secret1"},
		{"Lakeside", "LKS@1", "lks_admin", "secret1"},
		{"Lakeside Annex", "LKS@2", "lks2_admin", "secret1"},
	}, func() Flow { return NewSchoolFlow(nil) })
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, []string{
		"Row 2: SchoolCode 'GHX@2' uses the prefix 'GHX' of another school.",
		"Row 3: SchoolCode 'GH' must be 3-20 letters or digits, optionally followed by @suffix.",
		"Row 4: SchoolCode 'ABCDEFGHIJKLMNOPQRSTUV' must be 3-20 letters or digits, optionally followed by @suffix.",
		"Row 5: AdminUsername 'spc admin' must not contain spaces or '/'.",
		"Row 7: SchoolCode 'LKS@2' uses the prefix 'LKS' of another school.",
	}, report.Errors)
	for _, f := range report.Failures {
		if f.Row == 2 || f.Row == 7 {
			assert.Equal(t, RowDuplicate, f.Kind)
		} else {
			assert.Equal(t, RowInvalid, f.Kind)
		}
	}
}

func TestStudentImportRejectsMalformedUsernames(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")

	report, err := run(t, db, [][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann mwangi", "secret1"},
		{"Ben Kamau", "2024", "ben/1", "secret1"},
		{"Cy Njeri", "2024", "cy1", "secret1"},
	}, func() Flow { return NewStudentFlow(school, nil) })
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, []string{
		"Row 2: LoginUsername 'ann mwangi' must not contain spaces or '/'.",
		"Row 3: LoginUsername 'ben/1' must not contain spaces or '/'.",
	}, report.Errors)
	assert.Equal(t, 1, db.Sequence(school.ID))
}

func TestHashPasswords(t *testing.T) {
	sheet := spreadsheet.NewSheet([][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann1", "secret1"},
		{"Ben Kamau", "2024", "ben1", "abc"},
		{"Cy Njeri", "2024", "cy1", ""},
		{"Dee Atieno", "2024", "dee1", "secret4"},
	})

	var running, peak int32
	hash := func(password string) (string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "hashed:" + password, nil
	}

	passwords, err := HashPasswords(context.Background(), sheet, "InitialPassword", hash, 1)
	require.NoError(t, err)
	assert.Equal(t, Passwords{"hashed:secret1", "", "", "hashed:secret4"}, passwords)
	assert.Equal(t, int32(1), peak)
}

func TestHashPasswordsStopsAtDeadline(t *testing.T) {
	rows := [][]string{studentHeader}
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"Student", "2024", fmt.Sprintf("s%d", i), "secret1"})
	}
	slow := func(password string) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return password, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := HashPasswords(ctx, spreadsheet.NewSheet(rows), "InitialPassword", slow, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStudentImportUsesPrecomputedHashes(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")

	report, err := run(t, db, [][]string{
		studentHeader,
		{"Ann Mwangi", "2024", "ann1", "secret1"},
	}, func() Flow { return NewStudentFlow(school, Passwords{"precomputed"}) })
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	user, err := db.Store().Users.GetByUsername(context.Background(), "ann1")
	require.NoError(t, err)
	assert.Equal(t, "precomputed", user.PasswordHash)
}

func TestRunStopsWhenTransactionDeadlinePasses(t *testing.T) {
	db := memory.New()
	school := createSchool(t, db, "GHS@1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var report *Report
	err := db.InTx(context.Background(), func(_ context.Context, tx *repositories.Store) error {
		var err error
		report, err = Run(ctx, tx, spreadsheet.NewSheet([][]string{
			studentHeader,
			{"Ann Mwangi", "2024", "ann1", "secret1"},
		}), NewStudentFlow(school, nil), zerolog.Nop())
		return err
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
	assert.Zero(t, db.Sequence(school.ID))
}
