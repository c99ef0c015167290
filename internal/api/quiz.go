package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quickcraft/internal/catalog"
	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/leaderboard"
)

type (
	Question struct {
		Kind           string   `json:"kind"`
		Text           string   `json:"text"`
		Options        []string `json:"options,omitempty"`
		CorrectIndex   int      `json:"correct_index,omitempty"`
		ExpectedAnswer string   `json:"expected_answer,omitempty"`
		Mark           int      `json:"mark,omitempty"`
	}

	Quiz struct {
		QuizID           string     `json:"quiz_id"`
		Title            string     `json:"title"`
		Description      string     `json:"description"`
		TimerMode        bool       `json:"timer_mode"`
		TimeLimitMinutes int        `json:"time_limit_minutes,omitempty"`
		Questions        []Question `json:"questions,omitempty"`
		Creator          string     `json:"creator"`
		CreateTime       string     `json:"create_time"`
	}

	CreateQuizRequest struct {
		Title            string     `json:"title"`
		Description      string     `json:"description"`
		TimerMode        bool       `json:"timer_mode"`
		TimeLimitMinutes int        `json:"time_limit_minutes"`
		Questions        []Question `json:"questions"`
		Creator          string     `json:"creator"`
	}

	UpdateQuizRequest struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Questions   []Question `json:"questions"`
	}
)

func (a *API) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	q, err := a.cs.CreateQuiz(c.Request.Context(), catalog.CreateQuizRequest{
		Title:            req.Title,
		Description:      req.Description,
		TimerMode:        req.TimerMode,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        toDomainQuestions(req.Questions),
		Creator:          req.Creator,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuiz(q))
}

func (a *API) ListQuizzes(c *gin.Context) {
	quizzes, err := a.cs.ListQuizzes(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]Quiz, 0, len(quizzes))
	for i := range quizzes {
		resp = append(resp, toQuiz(&quizzes[i]))
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) GetQuiz(c *gin.Context) {
	q, err := a.cs.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuiz(q))
}

func (a *API) UpdateQuiz(c *gin.Context) {
	var req UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	q, err := a.cs.UpdateQuiz(c.Request.Context(), catalog.UpdateQuizRequest{
		QuizID:      c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Questions:   toDomainQuestions(req.Questions),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuiz(q))
}

func (a *API) DeleteQuiz(c *gin.Context) {
	if err := a.cs.DeleteQuiz(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quiz deleted"})
}

type (
	LeaderboardEntry struct {
		UserID string  `json:"user_id"`
		Score  float64 `json:"score"`
	}

	Leaderboard struct {
		QuizID  string             `json:"quiz_id"`
		Entries []LeaderboardEntry `json:"entries"`
	}
)

func (a *API) GetQuizLeaderboard(c *gin.Context) {
	l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{
		QuizID: c.Param("id"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toLeaderboard(l))
}

type (
	TheoryQuestion struct {
		QuestionID   string `json:"question_id"`
		Text         string `json:"text"`
		SampleAnswer string `json:"sample_answer"`
		Creator      string `json:"creator"`
		CreateTime   string `json:"create_time"`
	}

	CreateTheoryQuestionRequest struct {
		Text         string `json:"text"`
		SampleAnswer string `json:"sample_answer"`
		Creator      string `json:"creator"`
	}
)

func (a *API) ListTheoryQuestions(c *gin.Context) {
	questions, err := a.cs.ListTheoryQuestions(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]TheoryQuestion, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, toTheoryQuestion(&q))
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) CreateTheoryQuestion(c *gin.Context) {
	var req CreateTheoryQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	q, err := a.cs.CreateTheoryQuestion(c.Request.Context(), catalog.CreateTheoryQuestionRequest{
		Text:         req.Text,
		SampleAnswer: req.SampleAnswer,
		Creator:      req.Creator,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTheoryQuestion(q))
}

func toDomainQuestions(in []Question) []domain.Question {
	out := make([]domain.Question, 0, len(in))
	for _, q := range in {
		out = append(out, domain.Question{
			Kind:           domain.QuestionKind(q.Kind),
			Text:           q.Text,
			Options:        q.Options,
			CorrectIndex:   q.CorrectIndex,
			ExpectedAnswer: q.ExpectedAnswer,
			Mark:           q.Mark,
		})
	}
	return out
}

func toQuiz(q *domain.Quiz) Quiz {
	out := Quiz{
		QuizID:           q.QuizID,
		Title:            q.Title,
		Description:      q.Description,
		TimerMode:        q.TimerMode,
		TimeLimitMinutes: q.TimeLimitMinutes,
		Creator:          q.Creator,
		CreateTime:       q.CreateTime.Format(timeFormat),
	}

	for _, qq := range q.Questions {
		out.Questions = append(out.Questions, Question{
			Kind:           string(qq.Kind),
			Text:           qq.Text,
			Options:        qq.Options,
			CorrectIndex:   qq.CorrectIndex,
			ExpectedAnswer: qq.ExpectedAnswer,
			Mark:           qq.Mark,
		})
	}

	return out
}

func toTheoryQuestion(q *domain.TheoryQuestion) TheoryQuestion {
	return TheoryQuestion{
		QuestionID:   q.QuestionID,
		Text:         q.Text,
		SampleAnswer: q.SampleAnswer,
		Creator:      q.Creator,
		CreateTime:   q.CreateTime.Format(timeFormat),
	}
}

func toLeaderboard(l *domain.Leaderboard) Leaderboard {
	out := Leaderboard{
		QuizID:  l.QuizID,
		Entries: make([]LeaderboardEntry, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		out.Entries = append(out.Entries, LeaderboardEntry{
			UserID: e.UserID,
			Score:  e.Score,
		})
	}
	return out
}
