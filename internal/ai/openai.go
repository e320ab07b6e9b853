package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"onlevel/internal/model"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("openai returned no choices")

// ChatCompleter is the part of the OpenAI client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client grades transcripts and prepares interview questions.
type Client struct {
	api   ChatCompleter
	model string
}

// NewClient creates a client for the OpenAI API or a compatible endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewClientWith(openai.NewClientWithConfig(oc), cfg.Model), nil
}

// NewClientWith wraps an existing completer.
func NewClientWith(api ChatCompleter, model string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: api, model: model}
}

// Evaluation is the graded result of one transcript.
type Evaluation struct {
	TotalScore          int                   `json:"totalScore"`
	CategoryScores      []model.CategoryScore `json:"categoryScores"`
	Strengths           []string              `json:"strengths"`
	AreasForImprovement []string              `json:"areasForImprovement"`
	FinalAssessment     string                `json:"finalAssessment"`
}

// Evaluate scores the candidate in the fixed categories.
func (c *Client) Evaluate(ctx context.Context, turns []model.TranscriptTurn) (*Evaluation, error) {
	schema, err := jsonschema.GenerateSchemaForType(Evaluation{})
	if err != nil {
		return nil, fmt.Errorf("failed to build feedback schema: %w", err)
	}

	systemPrompt, userPrompt := BuildFeedbackPrompt(turns)
	log.Printf("[AI] evaluating transcript: %d turns, model %s", len(turns), c.model)

	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "feedback",
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var result Evaluation
	if err := decodeJSON(content, &result); err != nil {
		return nil, err
	}
	normalizeEvaluation(&result)
	log.Printf("[AI] evaluation done: total %d, %d categories", result.TotalScore, len(result.CategoryScores))
	return &result, nil
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

// GenerateQuestions prepares p.Amount interview questions.
func (c *Client) GenerateQuestions(ctx context.Context, p QuestionParams) ([]string, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", p.Amount)
	}
	systemPrompt, userPrompt := BuildQuestionsPrompt(p)
	log.Printf("[AI] generating %d questions for %s (%s)", p.Amount, p.Role, p.Level)

	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp questionsResponse
	if err := decodeJSON(content, &resp); err != nil {
		return nil, err
	}
	questions := make([]string, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("openai returned no questions")
	}
	if len(questions) > p.Amount {
		questions = questions[:p.Amount]
	}
	return questions, nil
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("[AI] OpenAI API error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	log.Printf("[AI] usage: prompt %d, completion %d, total %d tokens",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// decodeJSON parses content, retrying without a markdown code fence.
func decodeJSON(content string, v any) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}
	extracted := extractJSONFromMarkdown(content)
	if err := json.Unmarshal([]byte(extracted), v); err != nil {
		log.Printf("[AI] unparseable response: %s", truncateString(content, 500))
		return fmt.Errorf("failed to parse OpenAI response as JSON: %w", err)
	}
	return nil
}

// normalizeEvaluation keeps known categories in canonical order and clamps scores.
func normalizeEvaluation(e *Evaluation) {
	byName := make(map[string]model.CategoryScore, len(e.CategoryScores))
	for _, cs := range e.CategoryScores {
		name, ok := canonicalCategory(cs.Name)
		if !ok {
			continue
		}
		if _, seen := byName[name]; seen {
			continue
		}
		cs.Name = name
		cs.Score = clampScore(cs.Score)
		byName[name] = cs
	}
	scores := make([]model.CategoryScore, 0, len(Categories))
	for _, name := range Categories {
		if cs, ok := byName[name]; ok {
			scores = append(scores, cs)
		}
	}
	e.CategoryScores = scores
	e.TotalScore = clampScore(e.TotalScore)
	if e.Strengths == nil {
		e.Strengths = []string{}
	}
	if e.AreasForImprovement == nil {
		e.AreasForImprovement = []string{}
	}
}

func canonicalCategory(name string) (string, bool) {
	key := strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c, key) {
			return c, true
		}
	}
	return "", false
}

func clampScore(score int) int {
	return min(max(score, 0), 100)
}

// extractJSONFromMarkdown extracts JSON from markdown code blocks
func extractJSONFromMarkdown(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}

// truncateString truncates string to max length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
