package types

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of the Processed Datetime column.
const TimestampLayout = "2006-01-02 15:04:05"

// Run is the per-invocation context shared by every stage.
type Run struct {
	ID             uuid.UUID `json:"run_id"`
	InputPath      string    `json:"input_path"`
	InputName      string    `json:"input_name"`
	SourceLanguage string    `json:"source_language"`
	StartedAt      time.Time `json:"started_at"`
}

// NewRun builds the context for one pipeline run. input is kept verbatim as
// InputName since it is what ends up in the result record.
func NewRun(input, lang string, now time.Time) (Run, error) {
	if input == "" {
		return Run{}, fmt.Errorf("input file: %w", ErrEmptyInput)
	}
	if lang == "" {
		return Run{}, fmt.Errorf("source language: %w", ErrEmptyInput)
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return Run{}, fmt.Errorf("resolve input path: %w", err)
	}
	return Run{
		ID:             uuid.New(),
		InputPath:      abs,
		InputName:      input,
		SourceLanguage: lang,
		StartedAt:      now,
	}, nil
}

// Timestamp renders StartedAt in the result record layout.
func (r Run) Timestamp() string {
	return r.StartedAt.Format(TimestampLayout)
}

// ShortID is the first segment of the run id, used in derived file names.
func (r Run) ShortID() string {
	return r.ID.String()[:8]
}

type AudioEncoding struct {
	Codec           string `json:"codec"`
	Channels        int    `json:"channels"`
	SampleRateHertz int    `json:"sample_rate_hertz"`
	SampleFormat    string `json:"sample_format,omitempty"`
}

// AudioArtifact is a derived audio file produced by the transcoder.
type AudioArtifact struct {
	Path     string        `json:"path"`
	Encoding AudioEncoding `json:"encoding"`
	Digest   string        `json:"digest"`
	Size     int64         `json:"size"`
}

// StorageReference locates an uploaded object.
type StorageReference struct {
	Bucket string `json:"bucket"`
	Object string `json:"object"`
	Digest string `json:"digest,omitempty"`
}

// URI returns the gs:// form accepted by the recognition service.
func (s StorageReference) URI() string {
	return "gs://" + s.Bucket + "/" + s.Object
}

type ResultRecord struct {
	VideoFilename  string   `json:"video_filename"`
	TranslatedText string   `json:"translated_text"`
	ProperNouns    []string `json:"proper_nouns"`
	ProcessedAt    string   `json:"processed_at"`
}
