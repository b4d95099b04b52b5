package services

import (
	"context"
	"time"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

// studentAccess decides which student records a caller may read. Anything
// the caller may not see is reported as not found.
type studentAccess struct {
	db      repositories.Transactor
	maxForm int
}

// visibleStudent loads studentID with its form as of now
func (a *studentAccess) visibleStudent(ctx context.Context, id models.Identity, studentID int64, now time.Time) (*models.Student, error) {
	store := a.db.Store()

	switch v := id.(type) {
	case *models.StudentIdentity:
		if v.Profile.ID != studentID {
			return nil, apperrors.ErrStudentNotFound
		}
	case *models.ParentIdentity:
		linked, err := store.Parents.IsLinked(ctx, v.Profile.ID, studentID)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, apperrors.ErrStudentNotFound
		}
	case *models.TeacherIdentity, *models.SchoolAdminIdentity:
	default:
		return nil, apperrors.ErrStudentNotFound
	}

	student, err := store.Students.GetByID(ctx, id.TenantID(), studentID)
	if err != nil {
		return nil, err
	}
	return student.WithForm(now, a.maxForm), nil
}
