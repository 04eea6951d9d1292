package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"speech-grader/dto"
)

// OpenAIGrader grades a transcript with a chat completion. The model reply
// is free text expected to embed a JSON block.
type OpenAIGrader struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIGrader(apiKey, model string) *OpenAIGrader {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIGrader{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}
}

func (g *OpenAIGrader) Grade(ctx context.Context, prompt, transcript string) (GradeReport, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return GradeReport{}, err
	}
	if len(completion.Choices) == 0 {
		return GradeReport{}, errors.New("completion returned no choices")
	}
	return ParseGradeReport(completion.Choices[0].Message.Content), nil
}

type gradePayload struct {
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Coherence     float64 `json:"coherence"`
	Grammar       float64 `json:"grammar"`
	Vocabulary    float64 `json:"vocabulary"`
	Explanation   string  `json:"explanation"`
}

// ParseGradeReport locates the JSON block between the first opening brace
// and the last closing brace of a model reply. Replies with no parseable
// block yield a zero-filled vector tagged with a note instead of an error.
func ParseGradeReport(raw string) GradeReport {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return GradeReport{Notes: "grading response contained no structured block, scores defaulted to zero"}
	}

	var payload gradePayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return GradeReport{Notes: "grading response could not be parsed, scores defaulted to zero"}
	}

	grades := dto.Grades{
		Pronunciation: payload.Pronunciation,
		Fluency:       payload.Fluency,
		Coherence:     payload.Coherence,
		Grammar:       payload.Grammar,
		Vocabulary:    payload.Vocabulary,
	}
	return GradeReport{Grades: grades.Clamp(), Explanation: payload.Explanation}
}
