package pipeline

import "context"

// FixtureTranscriber returns a fixed transcript without network access.
type FixtureTranscriber struct {
	Text       string
	Confidence float64
	Err        error
}

func (f *FixtureTranscriber) Transcribe(_ context.Context, _ []byte) (Transcript, error) {
	if f.Err != nil {
		return Transcript{}, f.Err
	}
	return Transcript{Text: f.Text, Confidence: f.Confidence}, nil
}

// FixtureGrader returns a fixed report, or parses Raw through the same
// brace-span extraction the live grader uses.
type FixtureGrader struct {
	Report GradeReport
	Raw    string
	Err    error
}

func (f *FixtureGrader) Grade(_ context.Context, _, _ string) (GradeReport, error) {
	if f.Err != nil {
		return GradeReport{}, f.Err
	}
	if f.Raw != "" {
		return ParseGradeReport(f.Raw), nil
	}
	return f.Report, nil
}
