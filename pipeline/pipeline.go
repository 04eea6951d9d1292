package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speech-grader/constant"
	"speech-grader/dto"
)

// TranscriptionUnavailable is the sentinel transcription used when the
// speech provider returns no result. An empty result is a valid outcome,
// not a failure.
const TranscriptionUnavailable = "Could not transcribe audio"

// DefaultGradingPrompt instructs the grading model to embed a JSON block in
// its reply; the grading stage extracts and parses that block.
const DefaultGradingPrompt = `You are an English speech examiner. Grade the transcript you receive on ` +
	`pronunciation, fluency, coherence, grammar and vocabulary, each as a number between 0.0 and 1.0. ` +
	`Reply with a JSON object of the form {"pronunciation":0.0,"fluency":0.0,"coherence":0.0,` +
	`"grammar":0.0,"vocabulary":0.0,"explanation":"..."} and nothing else.`

// Transcript is the speech-to-text stage output.
type Transcript struct {
	Text       string
	Confidence float64
}

// Transcriber abstracts speech-to-text backends.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (Transcript, error)
}

// GradeReport is the grading stage output. Notes carries the explanatory
// tag attached to a zero-filled vector when the provider reply could not be
// parsed.
type GradeReport struct {
	Grades      dto.Grades
	Explanation string
	Notes       string
}

// Grader abstracts grading backends.
type Grader interface {
	Grade(ctx context.Context, prompt, transcript string) (GradeReport, error)
}

// Pipeline composes the two stages. Predict never lets an internal fault
// escape: transcription errors become an error-status result and grading
// errors degrade to a zero-filled grade vector.
type Pipeline struct {
	stt     Transcriber
	grader  Grader
	timeout time.Duration
	prompt  string
}

func New(stt Transcriber, grader Grader, timeout time.Duration, prompt string) *Pipeline {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if prompt == "" {
		prompt = DefaultGradingPrompt
	}
	return &Pipeline{stt: stt, grader: grader, timeout: timeout, prompt: prompt}
}

// Prompt returns the grading prompt in use.
func (p *Pipeline) Prompt() string {
	return p.prompt
}

func (p *Pipeline) Predict(ctx context.Context, audio []byte) dto.PredictionResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	duration := EstimateDuration(audio)

	transcript, err := p.stt.Transcribe(ctx, audio)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("transcription failed")
		return dto.PredictionResult{
			Status:    constant.PredictionStatusError,
			Error:     "transcription failed",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		text = TranscriptionUnavailable
	}

	report := p.gradeSafe(ctx, text)

	return dto.PredictionResult{
		Status:             constant.PredictionStatusSuccess,
		Transcription:      text,
		Grades:             report.Grades.Clamp(),
		GradingExplanation: report.Explanation,
		GradingNotes:       report.Notes,
		Metadata: dto.PredictionMetadata{
			Confidence:    transcript.Confidence,
			Sentiment:     sentimentFor(report.Grades.Mean()),
			AudioDuration: duration,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// gradeSafe converts grading transport failures into a zero-filled vector
// with a note; grading must never abort the overall prediction.
func (p *Pipeline) gradeSafe(ctx context.Context, transcript string) GradeReport {
	report, err := p.grader.Grade(ctx, p.prompt, transcript)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("grading failed")
		return GradeReport{Notes: "grading unavailable, scores defaulted to zero"}
	}
	return report
}

func sentimentFor(mean float64) string {
	switch {
	case mean >= 0.7:
		return "positive"
	case mean >= 0.4:
		return "neutral"
	default:
		return "negative"
	}
}
