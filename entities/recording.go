package entities

type Recording struct {
	ID                 uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID             string   `json:"user_id" gorm:"type:text;not null;index:idx_recordings_user_id;uniqueIndex:idx_recordings_user_filename,priority:1"`
	Filename           string   `json:"filename" gorm:"type:text;not null;uniqueIndex:idx_recordings_user_filename,priority:2"`
	Timestamp          string   `json:"timestamp" gorm:"type:text;not null"`
	Duration           *float64 `json:"duration"`
	Transcription      *string  `json:"transcription" gorm:"type:text"`
	Prompt             *string  `json:"prompt" gorm:"type:text"`
	PronunciationGrade float64  `json:"pronunciation_grade" gorm:"not null;default:0"`
	FluencyGrade       float64  `json:"fluency_grade" gorm:"not null;default:0"`
	CoherenceGrade     float64  `json:"coherence_grade" gorm:"not null;default:0"`
	GrammarGrade       float64  `json:"grammar_grade" gorm:"not null;default:0"`
	VocabularyGrade    float64  `json:"vocabulary_grade" gorm:"not null;default:0"`
	GradingExplanation *string  `json:"grading_explanation" gorm:"type:text"`
	GradingNotes       *string  `json:"grading_notes" gorm:"type:text"`
	ModelResponse      *string  `json:"model_response" gorm:"type:text"`
	Metadata           *string  `json:"metadata" gorm:"type:text"`
}

func (Recording) TableName() string {
	return "recordings"
}
