package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/explain"
	"github.com/victornm/quickcraft/internal/session"
)

const timeFormat = time.RFC3339

type (
	Attempt struct {
		QuestionIndex int    `json:"question_index"`
		IsCorrect     bool   `json:"is_correct"`
		AwardedScore  int    `json:"awarded_score"`
		Feedback      string `json:"feedback,omitempty"`
		Timestamp     string `json:"timestamp"`
	}

	SessionQuestion struct {
		Index   int      `json:"index"`
		Kind    string   `json:"kind"`
		Text    string   `json:"text"`
		Options []string `json:"options,omitempty"`
		Mark    int      `json:"mark,omitempty"`
	}

	Session struct {
		SessionID      string           `json:"session_id"`
		QuizID         string           `json:"quiz_id"`
		QuizTitle      string           `json:"quiz_title"`
		UserID         string           `json:"user_id"`
		Status         string           `json:"status"`
		CurrentIndex   int              `json:"current_index"`
		TotalQuestions int              `json:"total_questions"`
		ReadyToAdvance bool             `json:"ready_to_advance"`
		CorrectCount   int              `json:"correct_count"`
		FinalScore     int              `json:"final_score"`
		Deadline       string           `json:"deadline,omitempty"`
		SecondsLeft    int              `json:"seconds_left,omitempty"`
		Attempts       []Attempt        `json:"attempts"`
		Question       *SessionQuestion `json:"question,omitempty"`
	}

	CreateSessionRequest struct {
		QuizID string `json:"quiz_id"`
		UserID string `json:"user_id"`
	}

	StartSessionRequest struct {
		TimerMinutes *int `json:"timer_minutes"`
	}

	SubmitAnswerRequest struct {
		SelectedOption *int   `json:"selected_option"`
		Text           string `json:"text"`
	}

	SubmitAnswerResponse struct {
		Session      Session `json:"session"`
		IsCorrect    bool    `json:"is_correct"`
		AwardedScore int     `json:"awarded_score"`
		Feedback     string  `json:"feedback,omitempty"`
		CorrectIndex *int    `json:"correct_index,omitempty"`
		SampleAnswer string  `json:"sample_answer,omitempty"`
	}
)

func (a *API) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	v, err := a.ss.Create(c.Request.Context(), session.CreateRequest{
		QuizID: req.QuizID,
		UserID: req.UserID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSession(v))
}

func (a *API) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	v, err := a.ss.Start(c.Request.Context(), session.StartRequest{
		SessionID:    c.Param("id"),
		TimerMinutes: req.TimerMinutes,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(v))
}

func (a *API) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	resp, err := a.ss.Submit(c.Request.Context(), session.SubmitRequest{
		SessionID:      c.Param("id"),
		SelectedOption: req.SelectedOption,
		Text:           req.Text,
	})
	if err != nil {
		abort(c, err)
		return
	}

	out := SubmitAnswerResponse{
		Session:      toSession(resp.Session),
		IsCorrect:    resp.IsCorrect,
		AwardedScore: resp.AwardedScore,
		Feedback:     resp.Feedback,
		SampleAnswer: resp.SampleAnswer,
	}
	if resp.Session.Question != nil && resp.Session.Question.Kind == domain.QuestionKindObjective {
		idx := resp.CorrectIndex
		out.CorrectIndex = &idx
	}

	c.JSON(http.StatusOK, out)
}

func (a *API) AdvanceSession(c *gin.Context) {
	v, err := a.ss.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(v))
}

func (a *API) GetSession(c *gin.Context) {
	v, err := a.ss.Get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(v))
}

func (a *API) AbandonSession(c *gin.Context) {
	if err := a.ss.Abandon(c.Param("id")); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session discarded"})
}

type (
	User struct {
		UserID     string `json:"user_id"`
		Username   string `json:"username"`
		CreateTime string `json:"create_time"`
	}

	CreateUserRequest struct {
		Username string `json:"username"`
	}
)

func (a *API) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	u, err := a.us.CreateOrFind(c.Request.Context(), req.Username)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toUser(u))
}

func (a *API) GetUser(c *gin.Context) {
	u, err := a.us.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toUser(u))
}

type (
	PerformanceRecord struct {
		UserID    string `json:"user_id"`
		QuizID    string `json:"quiz_id"`
		QuizTitle string `json:"quiz_title"`
		Score     int    `json:"score"`
		Timestamp string `json:"timestamp"`
	}

	PerformanceReport struct {
		TotalQuizzesTaken  int                 `json:"total_quizzes_taken"`
		OverallAverage     int                 `json:"overall_average"`
		RecentPerformances []PerformanceRecord `json:"recent_performances"`
		AllPerformances    []PerformanceRecord `json:"all_performances"`
	}
)

func (a *API) GetPerformance(c *gin.Context) {
	r, err := a.ps.Report(c.Request.Context(), c.Param("userId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, PerformanceReport{
		TotalQuizzesTaken:  r.TotalQuizzesTaken,
		OverallAverage:     r.OverallAverage,
		RecentPerformances: toRecords(r.Recent),
		AllPerformances:    toRecords(r.All),
	})
}

type ExplainRequest struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correct_answer"`
	SelectedAnswer string   `json:"selected_answer"`
}

func (a *API) Explain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	resp, err := a.es.Explain(c.Request.Context(), explain.ExplainRequest{
		Question:       req.Question,
		Options:        req.Options,
		CorrectAnswer:  req.CorrectAnswer,
		SelectedAnswer: req.SelectedAnswer,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"explanation": resp.Explanation,
		"is_correct":  resp.IsCorrect,
	})
}

func toSession(v *session.View) Session {
	s := Session{
		SessionID:      v.SessionID,
		QuizID:         v.QuizID,
		QuizTitle:      v.QuizTitle,
		UserID:         v.UserID,
		Status:         string(v.Status),
		CurrentIndex:   v.CurrentIndex,
		TotalQuestions: v.TotalQuestions,
		ReadyToAdvance: v.ReadyToAdvance,
		CorrectCount:   v.CorrectCount,
		FinalScore:     v.FinalScore,
		SecondsLeft:    v.SecondsLeft,
		Attempts:       make([]Attempt, 0, len(v.Attempts)),
	}

	if !v.Deadline.IsZero() {
		s.Deadline = v.Deadline.Format(timeFormat)
	}

	for _, at := range v.Attempts {
		s.Attempts = append(s.Attempts, Attempt{
			QuestionIndex: at.QuestionIndex,
			IsCorrect:     at.IsCorrect,
			AwardedScore:  at.AwardedScore,
			Feedback:      at.Feedback,
			Timestamp:     at.Timestamp.Format(timeFormat),
		})
	}

	if v.Question != nil {
		s.Question = &SessionQuestion{
			Index:   v.Question.Index,
			Kind:    string(v.Question.Kind),
			Text:    v.Question.Text,
			Options: v.Question.Options,
			Mark:    v.Question.Mark,
		}
	}

	return s
}

func toUser(u *domain.User) User {
	return User{
		UserID:     u.UserID,
		Username:   u.Username,
		CreateTime: u.CreateTime.Format(timeFormat),
	}
}

func toRecords(in []domain.PerformanceRecord) []PerformanceRecord {
	out := make([]PerformanceRecord, 0, len(in))
	for _, r := range in {
		out = append(out, PerformanceRecord{
			UserID:    r.UserID,
			QuizID:    r.QuizID,
			QuizTitle: r.QuizTitle,
			Score:     r.Score,
			Timestamp: r.Timestamp.Format(timeFormat),
		})
	}
	return out
}
