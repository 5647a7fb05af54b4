package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/cenkalti/backoff/v4"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

var errNotDone = errors.New("recognition still running")

type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	// Separator joins the best alternative of consecutive segments.
	Separator string
}

// Stage runs long-running speech recognition on uploaded audio.
type Stage struct {
	rec  recognizer
	opts Options
	log  *logger.Logger
}

func NewStage(client *speech.Client, opts Options, log *logger.Logger) *Stage {
	return newStage(&speechRecognizer{client: client}, opts, log)
}

func newStage(rec recognizer, opts Options, log *logger.Logger) *Stage {
	if opts.Timeout <= 0 {
		opts.Timeout = 600 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Stage{rec: rec, opts: opts, log: log.Component("transcription")}
}

func buildRequest(ref types.StorageReference, enc types.AudioEncoding, lang string) *speechpb.LongRunningRecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		Encoding:     speechpb.RecognitionConfig_FLAC,
		LanguageCode: lang,
	}
	if enc.Channels > 0 {
		cfg.AudioChannelCount = int32(enc.Channels)
	}
	if enc.SampleRateHertz > 0 {
		cfg.SampleRateHertz = int32(enc.SampleRateHertz)
	}
	return &speechpb.LongRunningRecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: ref.URI()},
		},
	}
}

// Transcribe submits the job and waits for it, bounded by Options.Timeout.
// An empty transcript with a nil error means no speech was recognized.
func (s *Stage) Transcribe(ctx context.Context, ref types.StorageReference, enc types.AudioEncoding, lang string) (string, error) {
	log := s.log.WithField("object", ref.URI()).WithField("lang", lang)

	jobCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	op, err := s.rec.Start(jobCtx, buildRequest(ref, enc, lang))
	if err != nil {
		err = s.classify(ctx, jobCtx, err)
		log.WithError(err).Error("recognition request failed")
		return "", fmt.Errorf("start recognition: %w", err)
	}
	log = log.WithField("operation", op.Name())
	log.Info("recognition started")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.PollInterval
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	var resp *speechpb.LongRunningRecognizeResponse
	poll := func() error {
		r, err := op.Poll(jobCtx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !op.Done() {
			log.Debug("recognition pending")
			return errNotDone
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(poll, backoff.WithContext(bo, jobCtx)); err != nil {
		err = s.classify(ctx, jobCtx, err)
		log.WithError(err).Error("recognition failed")
		return "", fmt.Errorf("poll recognition: %w", err)
	}

	transcript, err := joinTranscript(resp, s.opts.Separator)
	if err != nil {
		log.WithError(err).Error("recognition response rejected")
		return "", err
	}
	log.WithField("segments", len(resp.GetResults())).WithField("chars", len(transcript)).Info("recognition finished")
	return transcript, nil
}

// classify maps expiry of the job deadline to ErrRecognitionTimeout.
// Cancellation of the caller's context is returned as is.
func (s *Stage) classify(parent, job context.Context, err error) error {
	if parent.Err() == nil && errors.Is(job.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", types.ErrRecognitionTimeout, s.opts.Timeout)
	}
	return err
}

func joinTranscript(resp *speechpb.LongRunningRecognizeResponse, sep string) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("nil recognition response: %w", types.ErrMalformedResponse)
	}
	parts := make([]string, 0, len(resp.GetResults()))
	for i, r := range resp.GetResults() {
		if r == nil || len(r.GetAlternatives()) == 0 {
			return "", fmt.Errorf("segment %d has no alternatives: %w", i, types.ErrMalformedResponse)
		}
		parts = append(parts, r.GetAlternatives()[0].GetTranscript())
	}
	return strings.Join(parts, sep), nil
}
