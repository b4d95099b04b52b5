package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
)

// Every method taking a schoolID filters by it. A record belonging to another
// school is reported exactly like a missing one.

// SchoolRepository persists tenants and their admission counters
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	GetByID(ctx context.Context, id int64) (*models.School, error)
	GetByCode(ctx context.Context, code string) (*models.School, error)
	List(ctx context.Context) ([]*models.SchoolSummary, error)
	Codes(ctx context.Context) (map[string]struct{}, error)
	// LockSequence returns the last admission sequence number of the school
	// and holds a row lock on it until the transaction ends.
	LockSequence(ctx context.Context, schoolID int64) (int, error)
	SetSequence(ctx context.Context, schoolID int64, seq int) error
	Stats(ctx context.Context, schoolID int64) (*models.SchoolStats, error)
}

// UserRepository persists login accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Usernames(ctx context.Context) (map[string]struct{}, error)
	ExistsWithRole(ctx context.Context, role models.RoleType) (bool, error)
}

// SchoolAdminRepository persists school admin profiles
type SchoolAdminRepository interface {
	Create(ctx context.Context, admin *models.SchoolAdmin) error
	GetByUserID(ctx context.Context, userID int64) (*models.SchoolAdmin, error)
}

// TeacherRepository persists teacher profiles
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
	ListBySchool(ctx context.Context, schoolID int64) ([]*models.Teacher, error)
}

// ParentRepository persists parent profiles and their links to students
type ParentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	GetByUserID(ctx context.Context, userID int64) (*models.Parent, error)
	ListBySchool(ctx context.Context, schoolID int64) ([]*models.Parent, error)
	LinkStudent(ctx context.Context, parentID, studentID int64) error
	IsLinked(ctx context.Context, parentID, studentID int64) (bool, error)
	Children(ctx context.Context, parentID int64) ([]*models.Student, error)
}

// StudentFilter narrows a student listing. Zero years mean unbounded.
type StudentFilter struct {
	SchoolID int64
	YearFrom int
	YearTo   int
	Limit    int
	Offset   int
}

// StudentRepository persists student profiles
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, schoolID, id int64) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	GetByAdmissionNumber(ctx context.Context, schoolID int64, admissionNumber string) (*models.Student, error)
	// List orders by admission year descending (lower forms first), then name
	List(ctx context.Context, filter StudentFilter) ([]*models.Student, int, error)
}

// SubjectRepository persists subjects
type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, schoolID, id int64) (*models.Subject, error)
	ListBySchool(ctx context.Context, schoolID int64) ([]*models.Subject, error)
	// Names returns the lower-cased subject names of a school
	Names(ctx context.Context, schoolID int64) (map[string]struct{}, error)
}

// GradeRepository persists grades
type GradeRepository interface {
	// Upsert inserts or overwrites the grade of (student, subject, term)
	Upsert(ctx context.Context, grade *models.Grade) (created bool, err error)
	ListByStudent(ctx context.Context, schoolID, studentID int64) ([]*models.Grade, error)
	ListByStudentTerm(ctx context.Context, schoolID, studentID int64, term string) ([]*models.Grade, error)
	RecentByTeacher(ctx context.Context, schoolID, teacherID int64, limit int) ([]*models.Grade, error)
}

// AttendanceRepository persists attendance records
type AttendanceRepository interface {
	// Upsert inserts or overwrites the record of (student, date)
	Upsert(ctx context.Context, record *models.Attendance) (created bool, err error)
	StatusesOn(ctx context.Context, schoolID int64, date time.Time) (map[int64]models.AttendanceStatus, error)
	ListByStudent(ctx context.Context, schoolID, studentID int64) ([]*models.Attendance, error)
}

// LinkCodeRepository persists parent link codes
type LinkCodeRepository interface {
	// Replace removes any code of the student and stores code
	Replace(ctx context.Context, code *models.StudentLinkCode) error
	// GetByCodeForUpdate locks the code row until the transaction ends
	GetByCodeForUpdate(ctx context.Context, code string) (*models.StudentLinkCode, error)
	// MarkUsed flips an unused code to used; already used codes are not found
	MarkUsed(ctx context.Context, id int64) error
}

// AnalyticsRepository runs read-only aggregates
type AnalyticsRepository interface {
	StudentTrend(ctx context.Context, schoolID, studentID int64) ([]models.TermAverage, error)
	ClassDistribution(ctx context.Context, schoolID int64, yearFrom, yearTo int) (models.LetterDistribution, error)
	SchoolComparison(ctx context.Context) ([]models.SchoolAverage, error)
}

// SavepointFunc runs fn so that a failure discards only fn's writes
type SavepointFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Store bundles repositories bound to a single executor
type Store struct {
	Schools      SchoolRepository
	Users        UserRepository
	SchoolAdmins SchoolAdminRepository
	Teachers     TeacherRepository
	Parents      ParentRepository
	Students     StudentRepository
	Subjects     SubjectRepository
	Grades       GradeRepository
	Attendance   AttendanceRepository
	LinkCodes    LinkCodeRepository
	Analytics    AnalyticsRepository

	Nested SavepointFunc
}

// Savepoint runs fn in a nested transaction when the store is transactional
func (s *Store) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Nested == nil {
		return fn(ctx)
	}
	return s.Nested(ctx, fn)
}

// Transactor hands out stores
type Transactor interface {
	// Store returns a non-transactional store
	Store() *Store
	// InTx runs fn against a store bound to one transaction, committed if fn returns nil
	InTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error
}

// NewRepositories binds all Postgres repositories to q
func NewRepositories(q db.Querier) *Store {
	return &Store{
		Schools:      NewSchoolRepository(q),
		Users:        NewUserRepository(q),
		SchoolAdmins: NewSchoolAdminRepository(q),
		Teachers:     NewTeacherRepository(q),
		Parents:      NewParentRepository(q),
		Students:     NewStudentRepository(q),
		Subjects:     NewSubjectRepository(q),
		Grades:       NewGradeRepository(q),
		Attendance:   NewAttendanceRepository(q),
		LinkCodes:    NewLinkCodeRepository(q),
		Analytics:    NewAnalyticsRepository(q),
	}
}

// PostgresTransactor implements Transactor on a pgx pool
type PostgresTransactor struct {
	pg    *db.PostgresDB
	store *Store
}

// NewPostgresTransactor creates a PostgresTransactor
func NewPostgresTransactor(pg *db.PostgresDB) *PostgresTransactor {
	return &PostgresTransactor{
		pg:    pg,
		store: NewRepositories(pg.Pool),
	}
}

func (t *PostgresTransactor) Store() *Store {
	return t.store
}

func (t *PostgresTransactor) InTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return t.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		store := NewRepositories(tx)
		store.Nested = func(ctx context.Context, inner func(ctx context.Context) error) error {
			return db.WithSavepoint(ctx, tx, inner)
		}
		return fn(ctx, store)
	})
}
