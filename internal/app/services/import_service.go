package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/importer"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

// Template kinds
const (
	TemplateSchools  = "schools"
	TemplateStudents = "students"
	TemplateSubjects = "subjects"
)

// ImportService runs spreadsheet imports. Row problems end up in the report;
// only file-level problems and failed commits are returned as errors.
type ImportService interface {
	ImportSchools(ctx context.Context, file io.Reader) (*importer.Report, error)
	ImportStudents(ctx context.Context, schoolID int64, file io.Reader) (*importer.Report, error)
	ImportSubjects(ctx context.Context, schoolID int64, file io.Reader) (*importer.Report, error)
	// Template returns an empty workbook for kind and its file name
	Template(kind string) (string, []byte, error)
}

// ImportOptions tunes spreadsheet imports
type ImportOptions struct {
	// Timeout bounds a whole import, hashing and transaction included.
	// Zero leaves the transaction on the database default.
	Timeout time.Duration
	// HashWorkers caps concurrent password hashes; zero means one per CPU
	HashWorkers int
}

type importService struct {
	db     repositories.Transactor
	opts   ImportOptions
	hash   importer.Hasher
	logger zerolog.Logger
}

// NewImportService creates a new ImportService
func NewImportService(db repositories.Transactor, opts ImportOptions, logger zerolog.Logger) ImportService {
	return &importService{db: db, opts: opts, hash: auth.HashPassword, logger: logger}
}

// newFlowFunc builds a flow inside the import transaction
type newFlowFunc func(ctx context.Context, tx *repositories.Store, passwords importer.Passwords) (importer.Flow, error)

func (s *importService) ImportSchools(ctx context.Context, file io.Reader) (*importer.Report, error) {
	return s.run(ctx, file, "schools", "AdminPassword",
		func(_ context.Context, _ *repositories.Store, passwords importer.Passwords) (importer.Flow, error) {
			return importer.NewSchoolFlow(passwords), nil
		})
}

func (s *importService) ImportStudents(ctx context.Context, schoolID int64, file io.Reader) (*importer.Report, error) {
	return s.run(ctx, file, "students", "InitialPassword",
		func(ctx context.Context, tx *repositories.Store, passwords importer.Passwords) (importer.Flow, error) {
			school, err := tx.Schools.GetByID(ctx, schoolID)
			if err != nil {
				return nil, err
			}
			return importer.NewStudentFlow(school, passwords), nil
		})
}

func (s *importService) ImportSubjects(ctx context.Context, schoolID int64, file io.Reader) (*importer.Report, error) {
	return s.run(ctx, file, "subjects", "",
		func(context.Context, *repositories.Store, importer.Passwords) (importer.Flow, error) {
			return importer.NewSubjectFlow(schoolID), nil
		})
}

// run reads file, hashes passwordColumn (if any) outside the transaction,
// then stages every row in one transaction
func (s *importService) run(ctx context.Context, file io.Reader, kind, passwordColumn string, newFlow newFlowFunc) (*importer.Report, error) {
	sheet, err := spreadsheet.Read(file)
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("Unreadable import file")
		return nil, apperrors.NewBadRequestError(importer.ReadError(err).Error())
	}

	log := s.logger.With().Str("kind", kind).Int("rows", len(sheet.Rows)).Logger()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var passwords importer.Passwords
	if passwordColumn != "" {
		started := time.Now()
		passwords, err = importer.HashPasswords(ctx, sheet, passwordColumn, s.hash, s.opts.HashWorkers)
		if err != nil {
			return nil, s.failed(log, err)
		}
		log.Debug().Dur("took", time.Since(started)).Msg("Passwords hashed")
	}

	var report *importer.Report
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		flow, err := newFlow(ctx, tx, passwords)
		if err != nil {
			return err
		}
		report, err = importer.Run(ctx, tx, sheet, flow, log)
		return err
	})
	if err != nil {
		return nil, s.failed(log, err)
	}

	return report, nil
}

// failed maps an aborted import to a client error
func (s *importService) failed(log zerolog.Logger, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("Import timed out")
		return apperrors.NewTimeoutError("Import did not finish in time. Nothing was saved; try splitting the file.")
	}
	var formatErr *importer.FormatError
	if errors.As(err, &formatErr) {
		return apperrors.NewBadRequestError(formatErr.Error())
	}
	var commitErr *db.CommitError
	if errors.As(err, &commitErr) {
		log.Error().Err(err).Msg("Import commit failed")
		return apperrors.NewConflictError(fmt.Sprintf("Database error. This may be due to duplicate data. %v", commitErr.Err))
	}
	return err
}

func (s *importService) Template(kind string) (string, []byte, error) {
	var columns []string
	switch kind {
	case TemplateSchools:
		columns = importer.SchoolColumns
	case TemplateStudents:
		columns = importer.StudentColumns
	case TemplateSubjects:
		columns = importer.SubjectColumns
	default:
		return "", nil, apperrors.NewResourceNotFoundError("unknown template " + kind)
	}

	data, err := spreadsheet.Template(columns)
	if err != nil {
		return "", nil, err
	}
	return kind + "_template.xlsx", data, nil
}
