package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-grader/constant"
	"speech-grader/dto"
	"speech-grader/pipeline"
)

func fixtureReport() pipeline.GradeReport {
	return pipeline.GradeReport{
		Grades: dto.Grades{
			Pronunciation: 0.9,
			Fluency:       0.8,
			Coherence:     0.7,
			Grammar:       0.85,
			Vocabulary:    0.75,
		},
		Explanation: "clear delivery",
	}
}

func TestPredictSuccess(t *testing.T) {
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Text: "hello there", Confidence: 0.93},
		&pipeline.FixtureGrader{Report: fixtureReport()},
		time.Second, "",
	)

	result := pred.Predict(context.Background(), []byte("fake audio"))
	require.Equal(t, constant.PredictionStatusSuccess, result.Status)
	assert.Equal(t, "hello there", result.Transcription)
	assert.InDelta(t, 0.93, result.Metadata.Confidence, 1e-9)
	assert.Equal(t, "positive", result.Metadata.Sentiment)
	assert.Greater(t, result.Metadata.AudioDuration, 0.0)

	for _, grade := range []float64{
		result.Grades.Pronunciation,
		result.Grades.Fluency,
		result.Grades.Coherence,
		result.Grades.Grammar,
		result.Grades.Vocabulary,
	} {
		assert.GreaterOrEqual(t, grade, 0.0)
		assert.LessOrEqual(t, grade, 1.0)
	}
}

func TestPredictTranscriptionFailure(t *testing.T) {
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Err: errors.New("network down")},
		&pipeline.FixtureGrader{Report: fixtureReport()},
		time.Second, "",
	)

	result := pred.Predict(context.Background(), []byte("fake audio"))
	assert.Equal(t, constant.PredictionStatusError, result.Status)
	assert.NotEmpty(t, result.Timestamp)
	// provider error strings stay internal
	assert.NotContains(t, result.Error, "network down")
}

func TestPredictEmptyTranscriptUsesSentinel(t *testing.T) {
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Text: "   "},
		&pipeline.FixtureGrader{Report: fixtureReport()},
		time.Second, "",
	)

	result := pred.Predict(context.Background(), []byte("fake audio"))
	require.Equal(t, constant.PredictionStatusSuccess, result.Status)
	assert.Equal(t, pipeline.TranscriptionUnavailable, result.Transcription)
}

func TestPredictGradingErrorDegradesToZero(t *testing.T) {
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Text: "hello there"},
		&pipeline.FixtureGrader{Err: errors.New("quota exceeded")},
		time.Second, "",
	)

	result := pred.Predict(context.Background(), []byte("fake audio"))
	require.Equal(t, constant.PredictionStatusSuccess, result.Status)
	assert.Equal(t, dto.Grades{}, result.Grades)
	assert.NotEmpty(t, result.GradingNotes)
}

func TestPredictUnparseableGradingDegradesToZero(t *testing.T) {
	pred := pipeline.New(
		&pipeline.FixtureTranscriber{Text: "hello there"},
		&pipeline.FixtureGrader{Raw: "I would give this speech a solid B+."},
		time.Second, "",
	)

	result := pred.Predict(context.Background(), []byte("fake audio"))
	require.Equal(t, constant.PredictionStatusSuccess, result.Status)
	assert.Equal(t, dto.Grades{}, result.Grades)
	assert.NotEmpty(t, result.GradingNotes)
}

func TestParseGradeReport(t *testing.T) {
	t.Run("block embedded in prose", func(t *testing.T) {
		raw := `Here is my assessment: {"pronunciation":0.9,"fluency":0.8,"coherence":0.7,` +
			`"grammar":0.6,"vocabulary":0.5,"explanation":"good pace"} Hope that helps!`
		report := pipeline.ParseGradeReport(raw)
		assert.Empty(t, report.Notes)
		assert.Equal(t, "good pace", report.Explanation)
		assert.InDelta(t, 0.9, report.Grades.Pronunciation, 1e-9)
		assert.InDelta(t, 0.5, report.Grades.Vocabulary, 1e-9)
	})

	t.Run("out-of-range values are clamped", func(t *testing.T) {
		raw := `{"pronunciation":1.7,"fluency":-0.3,"coherence":0.5,"grammar":0.5,"vocabulary":0.5}`
		report := pipeline.ParseGradeReport(raw)
		assert.Equal(t, 1.0, report.Grades.Pronunciation)
		assert.Equal(t, 0.0, report.Grades.Fluency)
	})

	t.Run("no braces yields zero vector with note", func(t *testing.T) {
		report := pipeline.ParseGradeReport("no structured content here")
		assert.Equal(t, dto.Grades{}, report.Grades)
		assert.NotEmpty(t, report.Notes)
	})

	t.Run("invalid json yields zero vector with note", func(t *testing.T) {
		report := pipeline.ParseGradeReport(`{"pronunciation": oops}`)
		assert.Equal(t, dto.Grades{}, report.Grades)
		assert.NotEmpty(t, report.Notes)
	})
}
