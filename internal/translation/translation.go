package translation

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/translate"
	"github.com/pemistahl/lingua-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

// translator is satisfied by *translate.Client.
type translator interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
}

// languageDetector is satisfied by lingua.LanguageDetector.
type languageDetector interface {
	DetectLanguageOf(text string) (lingua.Language, bool)
}

// Stage translates transcripts into English.
type Stage struct {
	client   translator
	detector languageDetector
	log      *logger.Logger
}

func NewStage(client *translate.Client, log *logger.Logger) *Stage {
	return newStage(client, newDetector(), log)
}

// newDetector covers English and the languages most often recognized as
// source, which is enough to flag an untranslated result.
func newDetector() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Chinese,
			lingua.Japanese,
			lingua.Korean,
			lingua.Spanish,
			lingua.French,
			lingua.German,
			lingua.Portuguese,
			lingua.Russian,
		).
		Build()
}

// newStage accepts a nil detector, which disables the output check.
func newStage(client translator, detector languageDetector, log *logger.Logger) *Stage {
	return &Stage{client: client, detector: detector, log: log.Component("translation")}
}

// Translate returns the English rendering of text. A missing or empty
// translation is an error, never an empty success.
func (s *Stage) Translate(ctx context.Context, text, source string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("translate: %w", types.ErrEmptyInput)
	}
	src, err := language.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse source language %q: %w", source, err)
	}
	log := s.log.WithField("source", src.String())

	out, err := s.client.Translate(ctx, []string{text}, language.English, &translate.Options{
		Source: src,
		Format: translate.Text,
	})
	if err != nil {
		log.WithError(err).Error("translation request failed")
		return "", fmt.Errorf("translate: %w", err)
	}
	if len(out) != 1 {
		err := fmt.Errorf("got %d translations for 1 input: %w", len(out), types.ErrMalformedResponse)
		log.WithError(err).Error("translation response rejected")
		return "", err
	}
	translated := strings.TrimSpace(out[0].Text)
	if translated == "" {
		err := fmt.Errorf("empty translation: %w", types.ErrMalformedResponse)
		log.WithError(err).Error("translation response rejected")
		return "", err
	}

	s.checkLanguage(log.WithField("chars", len(translated)), translated)
	log.Info("translation finished")
	return translated, nil
}

// checkLanguage only logs; a suspicious translation is still returned.
func (s *Stage) checkLanguage(log *logrus.Entry, text string) bool {
	if s.detector == nil {
		return true
	}
	detected, ok := s.detector.DetectLanguageOf(text)
	if ok && detected != lingua.English {
		log.WithField("detected", detected.String()).Warn("translated text does not look like English")
		return false
	}
	return true
}
