package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const judgePrompt = `You are an educational AI.
Check the student's answer below against the expected answer and determine if it is correct.
Give a simple response with just one of these: "true" or "false".
Question: %s
Expected Answer: %s
Student's Answer: %s
`

// HTTPJudge asks a generative model endpoint for a verdict. The endpoint
// enforces its own timeouts; none is layered on top here.
type HTTPJudge struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPJudge(url, apiKey string) *HTTPJudge {
	return &HTTPJudge{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{},
	}
}

type judgeRequest struct {
	Prompt string `json:"prompt"`
}

type judgeResponse struct {
	Text string `json:"text"`
}

func (j *HTTPJudge) Evaluate(ctx context.Context, questionText, expectedAnswer, submittedText string) (string, error) {
	body, err := json.Marshal(judgeRequest{
		Prompt: fmt.Sprintf(judgePrompt, questionText, expectedAnswer, submittedText),
	})
	if err != nil {
		return "", fmt.Errorf("judge: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("judge: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if j.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.apiKey)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge: call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("judge: unexpected status %d: %s", resp.StatusCode, b)
	}

	var jr judgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return "", fmt.Errorf("judge: decode response: %w", err)
	}

	return jr.Text, nil
}
