package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
)

// Trend labels of a prediction
const (
	TrendUp     = "strong upward trend"
	TrendDown   = "downward trend"
	TrendStable = "stable performance"
)

// Prediction estimates next term's average from the per-term trend
type Prediction struct {
	Available        bool    `json:"available"`
	Trend            string  `json:"trend,omitempty"`
	ChangePerTerm    float64 `json:"changePerTerm,omitempty"`
	PredictedAverage float64 `json:"predictedAverage,omitempty"`
	Message          string  `json:"message"`
}

// Insights is a student's rule-based feedback for one term
type Insights struct {
	Term       string     `json:"term"`
	Average    float64    `json:"average"`
	Remark     string     `json:"remark"`
	Prediction Prediction `json:"prediction"`
}

// InsightsService produces remarks and predictions for students
type InsightsService interface {
	// Insights for term; an empty term means the latest term with grades
	Insights(ctx context.Context, student *models.StudentIdentity, term string) (*Insights, error)
}

type insightsService struct {
	db     repositories.Transactor
	logger zerolog.Logger
}

// NewInsightsService creates a new InsightsService
func NewInsightsService(db repositories.Transactor, logger zerolog.Logger) InsightsService {
	return &insightsService{db: db, logger: logger}
}

func (s *insightsService) Insights(ctx context.Context, student *models.StudentIdentity, term string) (*Insights, error) {
	store := s.db.Store()
	schoolID, studentID := student.TenantID(), student.Profile.ID

	trend, err := store.Analytics.StudentTrend(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" && len(trend) > 0 {
		term = trend[len(trend)-1].Term
	}

	grades, err := store.Grades.ListByStudentTerm(ctx, schoolID, studentID, term)
	if err != nil {
		return nil, err
	}

	out := &Insights{
		Term:       term,
		Remark:     Remark(grades),
		Prediction: Predict(trend),
	}
	if len(grades) > 0 {
		out.Average = round2(meanMarks(grades))
	}
	return out, nil
}

func meanMarks(grades []*models.Grade) float64 {
	total := 0
	for _, g := range grades {
		total += g.Marks
	}
	return float64(total) / float64(len(grades))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Remark summarizes a term's grades in a sentence or three
func Remark(grades []*models.Grade) string {
	if len(grades) == 0 {
		return "No grades available for this term."
	}

	avg := meanMarks(grades)
	strongest, weakest := grades[0], grades[0]
	for _, g := range grades[1:] {
		if g.Marks > strongest.Marks {
			strongest = g
		}
		if g.Marks < weakest.Marks {
			weakest = g
		}
	}

	var b strings.Builder
	b.WriteString("Overall performance this term was ")
	switch {
	case avg >= 80:
		fmt.Fprintf(&b, "excellent, with an average of %.1f%%. ", avg)
	case avg >= 60:
		fmt.Fprintf(&b, "good, with an average of %.1f%%. ", avg)
	case avg >= 50:
		fmt.Fprintf(&b, "satisfactory, with an average of %.1f%%. ", avg)
	default:
		fmt.Fprintf(&b, "below average, with an average of %.1f%%. Needs improvement. ", avg)
	}

	if strongest.Marks > 85 {
		fmt.Fprintf(&b, "Outstanding work in %s (%d%%). ", strongest.SubjectName, strongest.Marks)
	}

	if weakest.Marks < 50 {
		fmt.Fprintf(&b, "Significant focus is required in %s (%d%%).", weakest.SubjectName, weakest.Marks)
	} else if weakest.Marks < 60 && avg > 70 {
		fmt.Fprintf(&b, "Consider extra practice in %s to match overall performance.", weakest.SubjectName)
	}

	return strings.TrimSpace(b.String())
}

// Predict extrapolates the average change per term one term ahead
func Predict(trend []models.TermAverage) Prediction {
	if len(trend) < 2 {
		return Prediction{Message: "Not enough data to predict future performance."}
	}

	first, last := trend[0].AverageMarks, trend[len(trend)-1].AverageMarks
	change := (last - first) / float64(len(trend)-1)
	predicted := math.Max(0, math.Min(100, last+change))

	label := TrendStable
	switch {
	case change > 2:
		label = TrendUp
	case change < -2:
		label = TrendDown
	}

	return Prediction{
		Available:        true,
		Trend:            label,
		ChangePerTerm:    round2(change),
		PredictedAverage: round2(predicted),
		Message:          fmt.Sprintf("Based on a %s, estimated average for next term is ~%.0f%%.", label, predicted),
	}
}
