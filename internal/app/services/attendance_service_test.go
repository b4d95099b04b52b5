package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/helpers"
)

func TestRecordAttendance(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2025)
	ben := f.admit(f.school, "Ben Kamau", "ben1", 2025)
	f.admit(f.school, "Cy Njeri", "cy1", 2024)

	res, err := f.attendance().Record(f.ctx, teacher, &dto.RecordAttendanceRequest{
		Date: "2025-02-03",
		Form: 1,
		Entries: []dto.AttendanceEntry{
			{StudentID: ann.ID, Status: "present"},
			{StudentID: ben.ID, Status: "Absent"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.AttendanceResult{Created: 2}, res)

	res, err = f.attendance().Record(f.ctx, teacher, &dto.RecordAttendanceRequest{
		Date:    "2025-02-03",
		Form:    1,
		Entries: []dto.AttendanceEntry{{StudentID: ben.ID, Status: "late"}},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.AttendanceResult{Updated: 1}, res)

	date, _ := helpers.ParseDate("2025-02-03")
	sheet, err := f.attendance().Sheet(f.ctx, f.school.ID, date, 1)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	assert.Equal(t, models.AttendancePresent, sheet[0].Status)
	assert.Equal(t, models.AttendanceLate, sheet[1].Status)

	empty, err := f.attendance().Sheet(f.ctx, f.school.ID, date.AddDate(0, 0, 1), 1)
	require.NoError(t, err)
	for _, e := range empty {
		assert.Empty(t, e.Status)
	}

	history, err := f.attendance().History(f.ctx, f.school.ID, ben.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.AttendanceLate, history[0].Status)
}

func TestRecordAttendanceRejectsStudentsOffRoster(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2025)
	cy := f.admit(f.school, "Cy Njeri", "cy1", 2024)

	other := f.createSchool("Kilimani High", "KHS", "khs_admin")
	eli := f.admit(other, "Eli Omondi", "eli1", 2025)

	for _, intruder := range []*models.Student{cy, eli} {
		_, err := f.attendance().Record(f.ctx, teacher, &dto.RecordAttendanceRequest{
			Date: "2025-02-03",
			Form: 1,
			Entries: []dto.AttendanceEntry{
				{StudentID: ann.ID, Status: "present"},
				{StudentID: intruder.ID, Status: "present"},
			},
		})
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	}

	history, err := f.attendance().History(f.ctx, f.school.ID, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "the whole batch is rolled back")
}

func TestRecordAttendanceValidation(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(f.school, "teach1")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2025)

	tests := []struct {
		name string
		req  dto.RecordAttendanceRequest
	}{
		{"bad date", dto.RecordAttendanceRequest{Date: "03/02/2025", Form: 1, Entries: []dto.AttendanceEntry{{StudentID: ann.ID, Status: "present"}}}},
		{"no entries", dto.RecordAttendanceRequest{Date: "2025-02-03", Form: 1}},
		{"unknown status", dto.RecordAttendanceRequest{Date: "2025-02-03", Form: 1, Entries: []dto.AttendanceEntry{{StudentID: ann.ID, Status: "asleep"}}}},
		{"form out of range", dto.RecordAttendanceRequest{Date: "2025-02-03", Form: 5, Entries: []dto.AttendanceEntry{{StudentID: ann.ID, Status: "present"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.attendance().Record(f.ctx, teacher, &tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}
