package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
)

const schoolComparisonKey = "analytics:school-comparison"

// AnalyticsService runs the read-only aggregates
type AnalyticsService interface {
	// StudentTrend returns average marks per term, visible to the caller
	StudentTrend(ctx context.Context, id models.Identity, studentID int64) ([]models.TermAverage, error)
	// ClassDistribution counts grade letters of a form, all six letters present
	ClassDistribution(ctx context.Context, schoolID int64, form int) (models.LetterDistribution, error)
	// SchoolComparison ranks schools by average marks, highest first
	SchoolComparison(ctx context.Context) ([]models.SchoolAverage, error)
}

type analyticsService struct {
	db      repositories.Transactor
	access  *studentAccess
	cache   *cache.Cache
	maxForm int
	now     Clock
	logger  zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService. Cross-school results are
// cached for ttl.
func NewAnalyticsService(db repositories.Transactor, maxForm int, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		db:      db,
		access:  &studentAccess{db: db, maxForm: maxForm},
		cache:   cache.New(ttl, 2*ttl),
		maxForm: maxForm,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *analyticsService) StudentTrend(ctx context.Context, id models.Identity, studentID int64) ([]models.TermAverage, error) {
	student, err := s.access.visibleStudent(ctx, id, studentID, s.now())
	if err != nil {
		return nil, err
	}
	return s.db.Store().Analytics.StudentTrend(ctx, student.SchoolID, student.ID)
}

func (s *analyticsService) ClassDistribution(ctx context.Context, schoolID int64, form int) (models.LetterDistribution, error) {
	filter, err := formFilter(schoolID, form, s.now(), s.maxForm)
	if err != nil {
		return nil, err
	}
	if form == 0 {
		filter.YearFrom, filter.YearTo = models.MinAdmissionYear, models.MaxAdmissionYear
	}

	counts, err := s.db.Store().Analytics.ClassDistribution(ctx, schoolID, filter.YearFrom, filter.YearTo)
	if err != nil {
		return nil, err
	}

	dist := make(models.LetterDistribution, len(models.GradeLetters))
	for _, l := range models.GradeLetters {
		dist[l] = counts[l]
	}
	return dist, nil
}

func (s *analyticsService) SchoolComparison(ctx context.Context) ([]models.SchoolAverage, error) {
	if cached, ok := s.cache.Get(schoolComparisonKey); ok {
		return cached.([]models.SchoolAverage), nil
	}

	rows, err := s.db.Store().Analytics.SchoolComparison(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(schoolComparisonKey, rows, cache.DefaultExpiration)
	s.logger.Debug().Int("schools", len(rows)).Msg("School comparison refreshed")
	return rows, nil
}
