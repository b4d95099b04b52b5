package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/importer"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

func workbook(t *testing.T, header []string, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	data, err := spreadsheet.Build(header, rows)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestImportStudents(t *testing.T) {
	f := newFixture(t)
	f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	svc := NewImportService(f.db, ImportOptions{}, zerolog.Nop())

	report, err := svc.ImportStudents(f.ctx, f.school.ID, workbook(t, importer.StudentColumns,
		[]interface{}{"Ben Kamau", 2024, "ben1", "secret1"},
		[]interface{}{"Ann Again", 2024, "ann1", "secret1"},
		[]interface{}{"Cy Njeri", "2025.0", "cy1", "secret1"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, []string{"Row 3: Username 'ann1' is already taken."}, report.Errors)

	cy, err := f.db.Store().Students.GetByAdmissionNumber(f.ctx, f.school.ID, "GHS/00003/25")
	require.NoError(t, err)
	assert.Equal(t, "Cy Njeri", cy.FullName)
	assert.Equal(t, 3, f.db.Sequence(f.school.ID))

	// the counter keeps going for single admissions
	dee := f.admit(f.school, "Dee Atieno", "dee1", 2025)
	assert.Equal(t, "GHS/00004/25", dee.AdmissionNumber)
}

func TestImportCommitFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.db, ImportOptions{}, zerolog.Nop())
	f.db.FailCommit = errors.New("duplicate key value violates unique constraint")

	_, err := svc.ImportStudents(f.ctx, f.school.ID, workbook(t, importer.StudentColumns,
		[]interface{}{"Ben Kamau", 2024, "ben1", "secret1"},
	))
	require.ErrorIs(t, err, apperrors.ErrConflict)
	msg, ok := apperrors.UserMessage(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Database error. This may be due to duplicate data."), msg)

	_, err = f.db.Store().Users.GetByUsername(f.ctx, "ben1")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Zero(t, f.db.Sequence(f.school.ID))
}

func TestImportFileProblems(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.db, ImportOptions{}, zerolog.Nop())

	_, err := svc.ImportSubjects(f.ctx, f.school.ID, strings.NewReader("not a workbook"))
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	msg, _ := apperrors.UserMessage(err)
	assert.True(t, strings.HasPrefix(msg, "Could not read Excel file."), msg)

	_, err = svc.ImportSubjects(f.ctx, f.school.ID, workbook(t, []string{"Name"}, []interface{}{"Math"}))
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
	msg, _ = apperrors.UserMessage(err)
	assert.Equal(t, "Invalid file format. Missing one or more required columns: [SubjectName]", msg)

	_, err = svc.ImportStudents(f.ctx, 9999, workbook(t, importer.StudentColumns))
	assert.ErrorIs(t, err, apperrors.ErrSchoolNotFound)
}

func TestImportSchoolsAndSubjects(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.db, ImportOptions{}, zerolog.Nop())

	report, err := svc.ImportSchools(f.ctx, workbook(t, importer.SchoolColumns,
		[]interface{}{"Kilimani High", "KHS@1", "khs_admin", "secret1"},
		[]interface{}{"Greenfield Copy", "GHS@1", "copy_admin", "secret1"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Skipped)

	khs, err := f.db.Store().Schools.GetByCode(f.ctx, "KHS@1")
	require.NoError(t, err)

	report, err = svc.ImportSubjects(f.ctx, khs.ID, workbook(t, importer.SubjectColumns,
		[]interface{}{"Math"}, []interface{}{"MATH"}, []interface{}{"Kiswahili"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, []string{"Row 3: Subject 'MATH' already exists."}, report.Errors)
}

func TestTemplate(t *testing.T) {
	svc := NewImportService(nil, ImportOptions{}, zerolog.Nop())

	name, data, err := svc.Template(TemplateStudents)
	require.NoError(t, err)
	assert.Equal(t, "students_template.xlsx", name)

	sheet, err := spreadsheet.Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, importer.StudentColumns, sheet.Header)
	assert.Empty(t, sheet.Rows)

	_, _, err = svc.Template("teachers")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func slowHasher(delay time.Duration) importer.Hasher {
	return func(password string) (string, error) {
		time.Sleep(delay)
		return "hashed:" + password, nil
	}
}

func TestImportHashesBeforeTransaction(t *testing.T) {
	f := newFixture(t)
	// hashing all rows one at a time takes about 240ms
	f.db.TxTimeout = 100 * time.Millisecond
	svc := &importService{
		db:     f.db,
		opts:   ImportOptions{HashWorkers: 1},
		hash:   slowHasher(30 * time.Millisecond),
		logger: zerolog.Nop(),
	}

	var rows [][]interface{}
	for i := 1; i <= 8; i++ {
		rows = append(rows, []interface{}{fmt.Sprintf("Student %d", i), 2024, fmt.Sprintf("student%d", i), "secret1"})
	}
	report, err := svc.ImportStudents(f.ctx, f.school.ID, workbook(t, importer.StudentColumns, rows...))
	require.NoError(t, err)
	assert.Equal(t, 8, report.Added)
	assert.Equal(t, 8, f.db.Sequence(f.school.ID))

	user, err := f.db.Store().Users.GetByUsername(f.ctx, "student8")
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret1", user.PasswordHash)
}

func TestImportTimeout(t *testing.T) {
	f := newFixture(t)
	svc := &importService{
		db:     f.db,
		opts:   ImportOptions{Timeout: 50 * time.Millisecond, HashWorkers: 1},
		hash:   slowHasher(20 * time.Millisecond),
		logger: zerolog.Nop(),
	}

	var rows [][]interface{}
	for i := 1; i <= 10; i++ {
		rows = append(rows, []interface{}{fmt.Sprintf("Student %d", i), 2024, fmt.Sprintf("student%d", i), "secret1"})
	}
	_, err := svc.ImportStudents(f.ctx, f.school.ID, workbook(t, importer.StudentColumns, rows...))
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	msg, ok := apperrors.UserMessage(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Import did not finish in time."), msg)

	_, err = f.db.Store().Users.GetByUsername(f.ctx, "student1")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Zero(t, f.db.Sequence(f.school.ID))
}

func TestImportTransactionDeadlineIsNotAServerError(t *testing.T) {
	f := newFixture(t)
	svc := NewImportService(f.db, ImportOptions{}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(f.ctx, time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.ImportSubjects(ctx, f.school.ID, workbook(t, importer.SubjectColumns, []interface{}{"Math"}))
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	subjects, err := f.db.Store().Subjects.ListBySchool(f.ctx, f.school.ID)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
