package dto

import "speech-grader/constant"

// Grades is the five-dimension quality score, each value in [0.0, 1.0].
type Grades struct {
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Coherence     float64 `json:"coherence"`
	Grammar       float64 `json:"grammar"`
	Vocabulary    float64 `json:"vocabulary"`
}

// Clamp bounds every dimension to [0.0, 1.0].
func (g Grades) Clamp() Grades {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return Grades{
		Pronunciation: clamp(g.Pronunciation),
		Fluency:       clamp(g.Fluency),
		Coherence:     clamp(g.Coherence),
		Grammar:       clamp(g.Grammar),
		Vocabulary:    clamp(g.Vocabulary),
	}
}

// Mean averages the five dimensions.
func (g Grades) Mean() float64 {
	return (g.Pronunciation + g.Fluency + g.Coherence + g.Grammar + g.Vocabulary) / 5
}

type PredictionMetadata struct {
	Confidence    float64 `json:"confidence"`
	Sentiment     string  `json:"sentiment"`
	AudioDuration float64 `json:"audio_duration"`
	Timestamp     string  `json:"timestamp"`
}

// PredictionResult is the pipeline output envelope. Status is either
// "success", in which case Transcription/Grades/Metadata are populated,
// or "error", in which case Error and Timestamp describe the failure.
type PredictionResult struct {
	Status             constant.PredictionStatus `json:"status"`
	Transcription      string                    `json:"transcription,omitempty"`
	Grades             Grades                    `json:"grades"`
	GradingExplanation string                    `json:"grading_explanation,omitempty"`
	GradingNotes       string                    `json:"grading_notes,omitempty"`
	Metadata           PredictionMetadata        `json:"metadata"`
	Error              string                    `json:"error,omitempty"`
	Timestamp          string                    `json:"timestamp,omitempty"`
}

func (r PredictionResult) IsSuccess() bool {
	return r.Status == constant.PredictionStatusSuccess
}

// RecordingView is the client-facing shape of a ledger row. Timestamp is
// normalized to ISO-8601 regardless of how the row stored it.
type RecordingView struct {
	ID                 uint     `json:"id"`
	UserID             string   `json:"user_id"`
	Filename           string   `json:"filename"`
	Timestamp          string   `json:"timestamp"`
	Duration           *float64 `json:"duration"`
	Transcription      *string  `json:"transcription"`
	Prompt             *string  `json:"prompt"`
	PronunciationGrade float64  `json:"pronunciation_grade"`
	FluencyGrade       float64  `json:"fluency_grade"`
	CoherenceGrade     float64  `json:"coherence_grade"`
	GrammarGrade       float64  `json:"grammar_grade"`
	VocabularyGrade    float64  `json:"vocabulary_grade"`
	GradingExplanation *string  `json:"grading_explanation"`
	GradingNotes       *string  `json:"grading_notes"`
	ModelResponse      *string  `json:"model_response"`
	Metadata           *string  `json:"metadata"`
}

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
