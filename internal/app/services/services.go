// Package services holds the business rules of the school book. Every
// operation that writes runs inside one transaction obtained from a
// repositories.Transactor; tenant-scoped reads always filter by school.
//
// Services defined in this package:
//   - AuthService: login and identity resolution
//   - SchoolService: tenants and the admin dashboard
//   - StaffService: teacher and parent accounts
//   - StudentService: admissions and form rosters
//   - SubjectService: subjects
//   - GradeService: grade upserts and reads
//   - AttendanceService: attendance batches
//   - LinkService: parent link codes
//   - ImportService: spreadsheet imports and templates
//   - AnalyticsService, InsightsService, ReportService: read-only reporting
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/validation"
)

// Clock returns the current time
type Clock func() time.Time

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.NewValidationError("username cannot be empty")
	}
	if !validation.ValidUsername(username) {
		return apperrors.NewValidationError("username cannot contain spaces or '/'")
	}
	if auth.PasswordTooShort(password) {
		return apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	return nil
}

// createAccount inserts a login for role. schoolID is ignored for super admins.
func createAccount(ctx context.Context, tx *repositories.Store, role models.RoleType, schoolID int64, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if role.TenantScoped() {
		user.SchoolID = &schoolID
	}

	if err := tx.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}
	return user, nil
}

func requireName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError(field + " cannot be empty")
	}
	return value, nil
}

// groupByTerm groups grades already ordered by term
func groupByTerm(grades []*models.Grade) []models.TermGrades {
	groups := []models.TermGrades{}
	for _, g := range grades {
		if n := len(groups); n > 0 && groups[n-1].Term == g.Term {
			groups[n-1].Grades = append(groups[n-1].Grades, g)
			continue
		}
		groups = append(groups, models.TermGrades{Term: g.Term, Grades: []*models.Grade{g}})
	}
	return groups
}

func withForms(students []*models.Student, now time.Time, maxForm int) []*models.Student {
	for _, s := range students {
		s.WithForm(now, maxForm)
	}
	return students
}
