package extractor

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/samber/lo"
	"video-translate-go/internal/logger"
)

// Token is a word with its Penn Treebank part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

type tagger interface {
	Tag(text string) ([]Token, error)
}

type proseTagger struct{}

func (proseTagger) Tag(text string) ([]Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}
	return lo.Map(doc.Tokens(), func(t prose.Token, _ int) Token {
		return Token{Text: t.Text, Tag: t.Tag}
	}), nil
}

// Extractor pulls proper nouns out of English text.
type Extractor struct {
	tagger tagger
	log    *logger.Logger
}

func New(log *logger.Logger) *Extractor {
	return newExtractor(proseTagger{}, log)
}

func newExtractor(t tagger, log *logger.Logger) *Extractor {
	return &Extractor{tagger: t, log: log.Component("extractor")}
}

// ProperNouns returns tokens tagged NNP or NNPS, each once, in order of first
// appearance. Blank text yields an empty, non-nil slice.
func (e *Extractor) ProperNouns(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	tokens, err := e.tagger.Tag(text)
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}
	nouns := lo.Uniq(lo.FilterMap(tokens, func(t Token, _ int) (string, bool) {
		word := trimSentencePunct(t.Text)
		return word, word != "" && strings.HasPrefix(t.Tag, "NNP")
	}))
	e.log.WithField("tokens", len(tokens)).WithField("proper_nouns", len(nouns)).Debug("proper nouns extracted")
	return nouns, nil
}

// trimSentencePunct drops punctuation the tokenizer left attached to the end
// of a word, so "Bob." and "Bob" are the same noun. Abbreviations such as
// "U.S." keep their final period.
func trimSentencePunct(word string) string {
	trimmed := strings.TrimRight(word, ".,!?;:")
	if strings.Contains(trimmed, ".") {
		return strings.TrimRight(word, ",!?;:")
	}
	return trimmed
}
