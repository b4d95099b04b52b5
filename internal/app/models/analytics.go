package models

// TermAverage is one point of a student's trend
type TermAverage struct {
	Term         string  `json:"term"`
	AverageMarks float64 `json:"averageMarks"`
}

// SchoolAverage is one row of the cross-school comparison
type SchoolAverage struct {
	SchoolName   string  `json:"schoolName"`
	AverageMarks float64 `json:"averageMarks"`
}

// LetterDistribution counts grades per letter
type LetterDistribution map[GradeLetter]int
