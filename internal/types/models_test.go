package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRunKeepsInputVerbatim(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	run, err := NewRun("clips/talk.mp4", "zh-CN", now)
	if err != nil {
		t.Fatalf("NewRun error: %v", err)
	}
	if run.InputName != "clips/talk.mp4" {
		t.Fatalf("InputName = %q, want clips/talk.mp4", run.InputName)
	}
	if !filepath.IsAbs(run.InputPath) {
		t.Fatalf("InputPath = %q, want absolute", run.InputPath)
	}
	if !run.StartedAt.Equal(now) {
		t.Fatalf("StartedAt = %v, want %v", run.StartedAt, now)
	}
	if got := run.Timestamp(); got != "2024-03-09 07:05:01" {
		t.Fatalf("Timestamp = %q, want 2024-03-09 07:05:01", got)
	}
	if len(run.ShortID()) != 8 {
		t.Fatalf("ShortID = %q, want 8 chars", run.ShortID())
	}
}

func TestNewRunUniqueIDs(t *testing.T) {
	a, _ := NewRun("a.mp4", "en-US", time.Now())
	b, _ := NewRun("a.mp4", "en-US", time.Now())
	if a.ID == b.ID {
		t.Fatalf("two runs share id %s", a.ID)
	}
}

func TestNewRunRejectsEmpty(t *testing.T) {
	if _, err := NewRun("", "zh-CN", time.Now()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty input err = %v, want ErrEmptyInput", err)
	}
	if _, err := NewRun("a.mp4", "", time.Now()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty lang err = %v, want ErrEmptyInput", err)
	}
}

func TestStorageReferenceURI(t *testing.T) {
	ref := StorageReference{Bucket: "b", Object: "audio-extracts/x.flac"}
	if got := ref.URI(); got != "gs://b/audio-extracts/x.flac" {
		t.Fatalf("URI = %q", got)
	}
}

func TestKindOfUnwrapsStageError(t *testing.T) {
	err := fmt.Errorf("run: %w", &StageError{Stage: StageTranscribe, Kind: KindRecognitionTimeout, Err: ErrRecognitionTimeout})
	kind, ok := KindOf(err)
	if !ok || kind != KindRecognitionTimeout {
		t.Fatalf("KindOf = %q,%v, want recognition_timeout", kind, ok)
	}
	if !errors.Is(err, ErrRecognitionTimeout) {
		t.Fatalf("errors.Is(ErrRecognitionTimeout) = false")
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("KindOf(plain) ok = true, want false")
	}
}
