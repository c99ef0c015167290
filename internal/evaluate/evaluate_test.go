package evaluate_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/evaluate"
)

func TestObjective(t *testing.T) {
	q := domain.Question{
		Kind:         domain.QuestionKindObjective,
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 2,
	}

	assert.True(t, evaluate.Objective(q, 2))
	assert.False(t, evaluate.Objective(q, 0))
	assert.False(t, evaluate.Objective(q, 3))
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		verdict string
		want    bool
	}{
		"bare true":                  {verdict: "true", want: true},
		"bare false":                 {verdict: "false", want: false},
		"mixed case":                 {verdict: "True", want: true},
		"all caps":                   {verdict: "TRUE", want: true},
		"sentence containing true":   {verdict: "The answer is true.", want: true},
		"sentence containing false":  {verdict: "That is false, sorry.", want: false},
		"neither word":               {verdict: "well reasoned answer", want: false},
		"empty":                      {verdict: "", want: false},
		"both words, true anywhere":  {verdict: "not false but true", want: true},
		"true inside a larger token": {verdict: "untrue", want: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluate.Classify(tt.verdict))
		})
	}
}

func TestTheory(t *testing.T) {
	q := domain.Question{
		Kind:           domain.QuestionKindTheory,
		Text:           "explain gravity",
		ExpectedAnswer: "masses attract",
		Mark:           5,
	}

	t.Run("classifies the verdict", func(t *testing.T) {
		j := judgeFunc(func(ctx context.Context, question, expected, submitted string) (string, error) {
			assert.Equal(t, "explain gravity", question)
			assert.Equal(t, "masses attract", expected)
			assert.Equal(t, "things fall", submitted)
			return "true, well put", nil
		})

		res, err := evaluate.Theory(context.Background(), j, q, "things fall")
		require.NoError(t, err)
		assert.True(t, res.IsCorrect)
		assert.Equal(t, "true, well put", res.Verdict)
	})

	t.Run("judge failure is wrapped as unavailable", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		j := judgeFunc(func(context.Context, string, string, string) (string, error) {
			return "", cause
		})

		_, err := evaluate.Theory(context.Background(), j, q, "things fall")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeUnavailable))
	})
}

type judgeFunc func(ctx context.Context, questionText, expectedAnswer, submittedText string) (string, error)

func (f judgeFunc) Evaluate(ctx context.Context, questionText, expectedAnswer, submittedText string) (string, error) {
	return f(ctx, questionText, expectedAnswer, submittedText)
}
