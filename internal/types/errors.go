package types

import (
	"errors"
	"fmt"
)

var (
	ErrNoAudioTrack       = errors.New("input has no audio track")
	ErrMalformedResponse  = errors.New("malformed service response")
	ErrRecognitionTimeout = errors.New("recognition did not finish before the deadline")
	ErrEmptyInput         = errors.New("empty input")
)

// ErrorKind classifies a failed run for callers and exit codes.
type ErrorKind string

const (
	KindConfig             ErrorKind = "config"
	KindMedia              ErrorKind = "media"
	KindUpload             ErrorKind = "upload"
	KindRecognition        ErrorKind = "recognition"
	KindRecognitionTimeout ErrorKind = "recognition_timeout"
	KindTranslation        ErrorKind = "translation"
	KindExtraction         ErrorKind = "extraction"
	KindPersistence        ErrorKind = "persistence"
)

// StageError is returned by the pipeline when a stage fails.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf reports the kind of the first StageError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
