// Package classify wraps the language-model oracle that turns free-text
// captures into structured intents, transcribes voice notes, and elaborates
// digest skeletons into prose.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/config"
)

// Classifier is the intent oracle. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	Elaborate(ctx context.Context, kind DigestKind, contextBlock string) (string, error)
}

const classificationPrompt = `You are a classification system for a personal task manager.
Analyze the input and return JSON only, no markdown.

Categories:
- "tasks": General to-do items, DIY tasks, things to order, online admin
- "work": Work-related thoughts, meeting proposals, project tasks
- "people": Follow-ups with specific people, meetings to arrange with someone
- "admin": Appointments, bills, scheduled events

Actions:
- "create": capture a new item (default)
- "update": change an existing item (e.g. "mark the boiler task done")
- "query": ask what's on a list (e.g. "what's due today?")

Extract into "data":
- title: Brief, actionable title
- project: (work only) project name
- category: (admin only) "Appointments", "Bills", or "Orders"
- person_name: (people only) The person's name
- follow_up: (people only) What action to take
- due_date: ISO date if mentioned or implied
- priority: 1 (urgent) to 3 (low) if implied
- notes: Any additional context
- needs_clarification / clarification_question when something is ambiguous

For "update" fill "update": {"search_query": ..., "field": "status"|"due_date"|"priority", "value": ...}.
For "query" fill "query": {"database": "tasks"|"work"|"people"|"admin"|"all", "filter": "due_today"|"overdue"|"high_priority"|"all_active", "tag": optional tag name}.

Return JSON:
{
  "action": "create" | "update" | "query",
  "destination": "tasks" | "work" | "people" | "admin",
  "confidence": 0.0-1.0,
  "data": { ... },
  "update": { ... },
  "query": { ... }
}`

var digestPrompts = map[DigestKind]string{
	DigestMorning: `You are a personal assistant. Given the following tasks and items, create a brief morning briefing (under 150 words). Focus on:
- Top 3 priorities for today
- Any due dates today or overdue
- One thing that might be blocked or needs attention
Be concise and actionable.`,
	DigestEvening: `You are a personal assistant. Given the following tasks and items, create a brief evening review (under 150 words). Focus on:
- What was captured today
- Any items that need attention tomorrow
- One small win or progress to acknowledge
Be concise and encouraging.`,
	DigestWeekly: `You are a personal assistant. Given the following tasks and items, create a weekly review (under 300 words). Focus on:
- Overview of active projects
- Items that have been sitting too long
- People you haven't followed up with
- Suggested priorities for the coming week
Be thorough but actionable.`,
}

// OpenAIClassifier implements Classifier against the OpenAI API.
type OpenAIClassifier struct {
	client *openai.Client
	cfg    config.OpenAIConfig
}

// NewOpenAIClassifier builds the oracle from config.
func NewOpenAIClassifier(cfg config.OpenAIConfig) (*OpenAIClassifier, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("openai api key is required")
	}
	return &OpenAIClassifier{
		client: openai.NewClient(cfg.APIKey.Value()),
		cfg:    cfg,
	}, nil
}

// Classify maps free text to a structured intent.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Result, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ClassifyModel,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classificationPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("classify: empty completion")
	}

	return decodeResult(resp.Choices[0].Message.Content)
}

// decodeResult parses the oracle's JSON reply and normalizes it: a missing
// action defaults to create, and an invented destination falls back to the
// general list with capped confidence rather than failing the capture.
func decodeResult(content string) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return Result{}, fmt.Errorf("classify: decoding oracle response: %w", err)
	}
	if result.Action == "" {
		result.Action = ActionCreate
	}
	if !result.Destination.Valid() {
		result.Destination = category.Tasks
		if result.Confidence > 0.5 {
			result.Confidence = 0.5
		}
	}
	return result, nil
}

// Transcribe converts a voice note to text via Whisper.
func (c *OpenAIClassifier) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.WhisperModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return resp.Text, nil
}

// Elaborate turns a digest context block into prose for the given persona.
func (c *OpenAIClassifier) Elaborate(ctx context.Context, kind DigestKind, contextBlock string) (string, error) {
	prompt, ok := digestPrompts[kind]
	if !ok {
		return "", fmt.Errorf("elaborate: unknown digest kind %q", kind)
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.DigestModel,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: contextBlock},
		},
	})
	if err != nil {
		return "", fmt.Errorf("elaborate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("elaborate: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
