package domain

import (
	"time"
)

// QuestionKind discriminates the two question variants of a quiz.
type QuestionKind string

const (
	QuestionKindObjective QuestionKind = "objective"
	QuestionKindTheory    QuestionKind = "theory"
)

// OptionCount is the number of choices every objective question carries.
const OptionCount = 4

// Quiz is immutable once fetched from the catalog.
type Quiz struct {
	QuizID           string
	Title            string
	Description      string
	TimerMode        bool
	TimeLimitMinutes int
	Questions        []Question
	Creator          string
	CreateTime       time.Time
}

// Question is a tagged union over the objective and theory variants.
// Kind selects which group of fields is meaningful.
type Question struct {
	Kind QuestionKind
	Text string

	// Objective
	Options      []string
	CorrectIndex int

	// Theory
	ExpectedAnswer string
	Mark           int
}

// TheoryQuestion is a standalone bank item. A quiz that embeds the same
// question holds its own copy; the two are independent.
type TheoryQuestion struct {
	QuestionID   string
	Text         string
	SampleAnswer string
	Creator      string
	CreateTime   time.Time
}

// SessionStatus only advances forward. Completed is terminal.
type SessionStatus string

const (
	SessionStatusSetup              SessionStatus = "setup"
	SessionStatusActive             SessionStatus = "active"
	SessionStatusAwaitingEvaluation SessionStatus = "awaiting_evaluation"
	SessionStatusExpired            SessionStatus = "expired"
	SessionStatusCompleted          SessionStatus = "completed"
)

// AttemptResult records one graded question. Immutable once appended.
type AttemptResult struct {
	QuestionIndex int
	IsCorrect     bool
	AwardedScore  int
	Feedback      string
	Timestamp     time.Time
}

// PerformanceRecord is the only thing a finished session persists.
type PerformanceRecord struct {
	UserID    string
	QuizID    string
	QuizTitle string
	Score     int
	Timestamp time.Time
}

// PerformanceReport is a read-side view over a user's records.
type PerformanceReport struct {
	TotalQuizzesTaken int
	OverallAverage    int
	Recent            []PerformanceRecord
	All               []PerformanceRecord
}

type User struct {
	UserID     string
	Username   string
	CreateTime time.Time
}

// LeaderboardEntry is a user's best score on one quiz.
type LeaderboardEntry struct {
	UserID string
	Score  float64
}

type Leaderboard struct {
	QuizID  string
	Entries []LeaderboardEntry
}
