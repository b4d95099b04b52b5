package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgLinkCodeRepository manages parent link codes in the database
type PgLinkCodeRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewLinkCodeRepository creates a new PgLinkCodeRepository
func NewLinkCodeRepository(q db.Querier) *PgLinkCodeRepository {
	return &PgLinkCodeRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Replace deletes whatever code the student had and stores the new one
func (r *PgLinkCodeRepository) Replace(ctx context.Context, code *models.StudentLinkCode) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM student_link_codes WHERE student_id = $1`, code.StudentID); err != nil {
		logger.Error().Err(err).Int64("studentID", code.StudentID).Msg("Error deleting previous link code")
		return fmt.Errorf("error deleting previous link code: %w", err)
	}

	sql, args, err := r.sb.Insert("student_link_codes").
		Columns("code", "student_id").
		Values(code.Code, code.StudentID).
		Suffix("RETURNING id, is_used, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create link code query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&code.ID, &code.IsUsed, &code.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("studentID", code.StudentID).Msg("Error creating link code")
		return fmt.Errorf("error creating link code: %w", err)
	}
	return nil
}

// GetByCodeForUpdate retrieves a code and locks its row
func (r *PgLinkCodeRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.StudentLinkCode, error) {
	sql, args, err := r.sb.Select("id", "code", "student_id", "is_used", "created_at").
		From("student_link_codes").
		Where(squirrel.Eq{"code": code}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get link code query: %w", err)
	}

	lc := &models.StudentLinkCode{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&lc.ID, &lc.Code, &lc.StudentID, &lc.IsUsed, &lc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidLinkCode
		}
		logger.Error().Err(err).Msg("Error scanning link code row")
		return nil, fmt.Errorf("error retrieving link code: %w", err)
	}
	return lc, nil
}

// MarkUsed marks a code as used to prevent reuse
func (r *PgLinkCodeRepository) MarkUsed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE student_link_codes SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`, id)
	if err != nil {
		return fmt.Errorf("error marking link code as used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidLinkCode
	}
	return nil
}
