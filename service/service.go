package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"speech-grader/dto"
	"speech-grader/entities"
	"speech-grader/pipeline"
	"speech-grader/repository"
	"speech-grader/storage"
)

var (
	// ErrNotFound reports a missing recording or audio blob.
	ErrNotFound = errors.New("recording not found")
	// ErrInconsistent reports a ledger delete that affected no rows after
	// the blob was already removed. Fatal for the operation; requires
	// manual reconciliation, not a retry.
	ErrInconsistent = errors.New("ledger and blob store diverged")
)

// Service sequences the blob store, pipeline and ledger. It is the only
// component permitted to touch both stores.
type Service interface {
	Submit(ctx context.Context, owner string, audio []byte) (dto.PredictionResult, error)
	List(ctx context.Context, owner string) ([]dto.RecordingView, error)
	FetchAudio(ctx context.Context, owner, filename string) ([]byte, error)
	Remove(ctx context.Context, owner string, id uint) error
}

type service struct {
	repo  repository.Repository
	blobs storage.Store
	pred  *pipeline.Pipeline
}

func New(repo repository.Repository, blobs storage.Store, pred *pipeline.Pipeline) Service {
	return &service{repo: repo, blobs: blobs, pred: pred}
}

// Submit runs the pipeline and, only on success, persists the blob and then
// the ledger row in that order. A blob write failure leaves no orphan row;
// a ledger write failure leaves an orphan blob, which is accepted and logged
// for reconciliation rather than rolled back.
func (s *service) Submit(ctx context.Context, owner string, audio []byte) (dto.PredictionResult, error) {
	filename := fmt.Sprintf("recording_%s.wav", uuid.New())

	result := s.pred.Predict(ctx, audio)
	if !result.IsSuccess() {
		zerolog.Ctx(ctx).Warn().Str("owner", owner).Str("error", result.Error).Msg("prediction failed, nothing persisted")
		return result, nil
	}

	if _, err := s.blobs.Save(ctx, owner, audio, filename); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("owner", owner).Str("filename", filename).Msg("failed to persist audio blob")
		return dto.PredictionResult{}, fmt.Errorf("save audio: %w", err)
	}

	rec := recordingFrom(owner, filename, s.pred.Prompt(), result)
	if _, err := s.repo.InsertRecording(ctx, rec); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("owner", owner).
			Str("filename", filename).
			Msg("ledger insert failed after blob write, orphan blob left for reconciliation")
		return dto.PredictionResult{}, fmt.Errorf("insert recording: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("owner", owner).Str("filename", filename).Uint("id", rec.ID).Msg("recording persisted")
	return result, nil
}

func (s *service) List(ctx context.Context, owner string) ([]dto.RecordingView, error) {
	recordings, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	views := make([]dto.RecordingView, 0, len(recordings))
	for _, rec := range recordings {
		views = append(views, viewFrom(rec))
	}
	return views, nil
}

func (s *service) FetchAudio(ctx context.Context, owner, filename string) ([]byte, error) {
	data, err := s.blobs.Fetch(ctx, owner, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

// Remove deletes the blob first, then the ledger row. A row that vanishes
// between lookup and delete means the two stores diverged.
func (s *service) Remove(ctx context.Context, owner string, id uint) error {
	rec, err := s.repo.GetByID(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := s.blobs.Delete(ctx, owner, rec.Filename); err != nil {
		return fmt.Errorf("delete audio: %w", err)
	}

	removed, err := s.repo.DeleteByID(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if !removed {
		zerolog.Ctx(ctx).Error().
			Str("owner", owner).
			Uint("id", id).
			Str("filename", rec.Filename).
			Msg("ledger delete affected no rows after blob removal")
		return ErrInconsistent
	}

	zerolog.Ctx(ctx).Info().Str("owner", owner).Uint("id", id).Msg("recording removed")
	return nil
}

func recordingFrom(owner, filename, prompt string, result dto.PredictionResult) *entities.Recording {
	rec := &entities.Recording{
		UserID:             owner,
		Filename:           filename,
		Duration:           &result.Metadata.AudioDuration,
		Transcription:      &result.Transcription,
		Prompt:             &prompt,
		PronunciationGrade: result.Grades.Pronunciation,
		FluencyGrade:       result.Grades.Fluency,
		CoherenceGrade:     result.Grades.Coherence,
		GrammarGrade:       result.Grades.Grammar,
		VocabularyGrade:    result.Grades.Vocabulary,
	}
	if result.GradingExplanation != "" {
		rec.GradingExplanation = &result.GradingExplanation
	}
	if result.GradingNotes != "" {
		rec.GradingNotes = &result.GradingNotes
	}
	if raw, err := json.Marshal(result); err == nil {
		s := string(raw)
		rec.ModelResponse = &s
	}
	if raw, err := json.Marshal(result.Metadata); err == nil {
		s := string(raw)
		rec.Metadata = &s
	}
	return rec
}

func viewFrom(rec entities.Recording) dto.RecordingView {
	return dto.RecordingView{
		ID:                 rec.ID,
		UserID:             rec.UserID,
		Filename:           rec.Filename,
		Timestamp:          rec.Timestamp,
		Duration:           rec.Duration,
		Transcription:      rec.Transcription,
		Prompt:             rec.Prompt,
		PronunciationGrade: rec.PronunciationGrade,
		FluencyGrade:       rec.FluencyGrade,
		CoherenceGrade:     rec.CoherenceGrade,
		GrammarGrade:       rec.GrammarGrade,
		VocabularyGrade:    rec.VocabularyGrade,
		GradingExplanation: rec.GradingExplanation,
		GradingNotes:       rec.GradingNotes,
		ModelResponse:      rec.ModelResponse,
		Metadata:           rec.Metadata,
	}
}
