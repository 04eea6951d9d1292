package pipeline

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GoogleConfig carries the externally injected provider settings.
type GoogleConfig struct {
	ProjectID       string
	CredentialsFile string
	LanguageCode    string
	SampleRateHertz int32
}

// GoogleTranscriber performs non-streaming recognition against the Google
// Cloud Speech-to-Text API.
type GoogleTranscriber struct {
	client          *speech.Client
	languageCode    string
	sampleRateHertz int32
}

func NewGoogleTranscriber(ctx context.Context, cfg GoogleConfig) (*GoogleTranscriber, error) {
	opts := make([]option.ClientOption, 0, 2)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHertz == 0 {
		cfg.SampleRateHertz = 48000
	}

	return &GoogleTranscriber{
		client:          client,
		languageCode:    cfg.LanguageCode,
		sampleRateHertz: cfg.SampleRateHertz,
	}, nil
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (Transcript, error) {
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz:            t.sampleRateHertz,
			LanguageCode:               t.languageCode,
			EnableAutomaticPunctuation: true,
			UseEnhanced:                true,
			Model:                      "default",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	operation := func() (*speechpb.RecognizeResponse, error) {
		resp, err := t.client.Recognize(ctx, req)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("speech recognition attempt failed")
			return nil, err
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	resp, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	if err != nil {
		return Transcript{}, err
	}

	var builder strings.Builder
	var confidence float64
	var alternatives int
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(alt.Transcript)
		confidence += float64(alt.Confidence)
		alternatives++
	}
	if alternatives > 0 {
		confidence /= float64(alternatives)
	}

	return Transcript{Text: strings.TrimSpace(builder.String()), Confidence: confidence}, nil
}

func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}
