// Package llm implements the delegated semantic grader on top of any
// OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// gradeResponse is the JSON object the model is instructed to return.
type gradeResponse struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Client wraps an OpenAI-compatible API client. It satisfies the grading
// pipeline's TextGrader capability.
type Client struct {
	api     *openai.Client
	model   string
	retries int
	backoff time.Duration
}

// New creates a new LLM client. retries is the number of additional attempts
// per grading call after the first one fails.
func New(baseURL, apiKey, modelName string, retries int) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		retries: retries,
		backoff: time.Second,
	}
}

// Ping verifies the endpoint is reachable and the credentials work.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// GradeText sends the question, its expected keywords, and the student's
// answer to the scoring service and returns the awarded score with feedback.
// The returned score is clamped to [0, question points]. Transient failures
// are retried with exponential backoff up to the configured retry count;
// the caller's deadline still bounds the whole call.
func (c *Client) GradeText(ctx context.Context, q model.Question, answer string) (float64, string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildGradingPrompt(q)},
			{Role: openai.ChatMessageRoleUser, Content: answer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if attempt >= c.retries || ctx.Err() != nil {
			return 0, "", fmt.Errorf("LLM grading call: %w", err)
		}
		slog.Debug("LLM call failed, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return 0, "", ctx.Err()
		case <-time.After(c.backoff << attempt):
		}
	}

	if len(resp.Choices) == 0 {
		return 0, "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM grading response", "question_id", q.ID, "raw", raw)

	score, feedback, err := parseGradeResponse(raw, q.Points)
	if err != nil {
		return 0, "", err
	}
	return score, feedback, nil
}

// parseGradeResponse decodes the model's JSON reply and clamps the score into
// the question's point range.
func parseGradeResponse(raw string, maxPoints float64) (float64, string, error) {
	var result gradeResponse
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return 0, "", fmt.Errorf("parse grading response: %w (raw: %s)", err, raw)
	}

	score := result.Score
	if score < 0 {
		score = 0
	}
	if score > maxPoints {
		score = maxPoints
	}
	return score, result.Feedback, nil
}

func buildGradingPrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are an exam grader. Grade the student's answer to the following question.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAX POINTS: %g\n\n", q.Points))

	if len(q.Keywords) > 0 {
		sb.WriteString("EXPECTED ANSWER / RUBRIC:\n" + strings.Join(q.Keywords, ", ") + "\n\n")
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Evaluate the answer for correctness, completeness, and understanding.\n")
	sb.WriteString("- Be fair and thorough. Award partial credit for partially correct answers.\n")
	sb.WriteString(fmt.Sprintf("- The score must be between 0 and %g.\n", q.Points))
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"score": <number>, "feedback": "<constructive feedback explaining the grade>"}`)
	sb.WriteString("\n")

	return sb.String()
}
