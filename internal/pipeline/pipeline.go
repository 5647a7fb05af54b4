package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

type Transcoder interface {
	Transcode(ctx context.Context, run types.Run) (types.AudioArtifact, error)
	Cleanup(a types.AudioArtifact) error
}

type Uploader interface {
	Upload(ctx context.Context, run types.Run, a types.AudioArtifact) (types.StorageReference, error)
	Remove(ctx context.Context, ref types.StorageReference) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, ref types.StorageReference, enc types.AudioEncoding, lang string) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, source string) (string, error)
}

type Extractor interface {
	ProperNouns(text string) ([]string, error)
}

type Sink interface {
	Write(rec types.ResultRecord) error
}

type Stages struct {
	Transcoder  Transcoder
	Uploader    Uploader
	Transcriber Transcriber
	Translator  Translator
	Extractor   Extractor
	Sink        Sink
}

type Options struct {
	// KeepArtifacts leaves the transcoded audio on disk after the run.
	KeepArtifacts bool
	// DeleteRemote removes the uploaded object after the run.
	DeleteRemote bool
}

// Pipeline runs the stages of one video in order. Each stage runs at most
// once and a failed stage stops the run.
type Pipeline struct {
	stages Stages
	opts   Options
	log    *logger.Logger
	now    func() time.Time
}

func New(stages Stages, opts Options, log *logger.Logger) *Pipeline {
	return &Pipeline{stages: stages, opts: opts, log: log.Component("pipeline"), now: time.Now}
}

// Run processes run end to end. The returned error is a *types.StageError
// and is also stored on the report. A run without recognized speech ends
// with OutcomeNoSpeech and a nil error, and writes nothing.
func (p *Pipeline) Run(ctx context.Context, run types.Run) (report types.RunReport, err error) {
	start := p.now()
	log := p.log.WithRun(run)
	report = types.RunReport{Run: run, Outcome: types.OutcomeFailed}

	defer func() {
		for _, s := range types.Stages {
			if _, ok := report.Stage(s); !ok {
				report.Stages = append(report.Stages, types.NewStageReport(s, types.StatusSkipped, nil, 0))
			}
		}
		report.Err = err
		report.DurationMs = p.now().Sub(start).Milliseconds()
		if err != nil {
			log.WithError(err).WithField("duration_ms", report.DurationMs).Error("run failed")
			return
		}
		log.WithField("outcome", report.Outcome).WithField("duration_ms", report.DurationMs).Info("run finished")
	}()

	log.Info("run started")

	var artifact types.AudioArtifact
	if err := p.step(&report, types.StageTranscode, types.KindMedia, func() (err error) {
		artifact, err = p.stages.Transcoder.Transcode(ctx, run)
		return err
	}); err != nil {
		return report, err
	}
	if !p.opts.KeepArtifacts {
		defer func() {
			if err := p.stages.Transcoder.Cleanup(artifact); err != nil {
				log.WithError(err).Warn("artifact cleanup failed")
			}
		}()
	}

	var ref types.StorageReference
	if err := p.step(&report, types.StageUpload, types.KindUpload, func() (err error) {
		ref, err = p.stages.Uploader.Upload(ctx, run, artifact)
		return err
	}); err != nil {
		return report, err
	}
	if p.opts.DeleteRemote {
		defer func() {
			if err := p.stages.Uploader.Remove(context.WithoutCancel(ctx), ref); err != nil {
				log.WithError(err).WithField("object", ref.URI()).Warn("remote audio cleanup failed")
			}
		}()
	}

	var transcript string
	if err := p.step(&report, types.StageTranscribe, types.KindRecognition, func() (err error) {
		transcript, err = p.stages.Transcriber.Transcribe(ctx, ref, artifact.Encoding, run.SourceLanguage)
		return err
	}); err != nil {
		return report, err
	}
	report.Transcript = transcript
	if strings.TrimSpace(transcript) == "" {
		log.Warn("no speech recognized")
		report.Outcome = types.OutcomeNoSpeech
		return report, nil
	}

	var translated string
	if err := p.step(&report, types.StageTranslate, types.KindTranslation, func() (err error) {
		translated, err = p.stages.Translator.Translate(ctx, transcript, run.SourceLanguage)
		return err
	}); err != nil {
		return report, err
	}

	var nouns []string
	if err := p.step(&report, types.StageExtract, types.KindExtraction, func() (err error) {
		nouns, err = p.stages.Extractor.ProperNouns(translated)
		return err
	}); err != nil {
		return report, err
	}

	rec := types.ResultRecord{
		VideoFilename:  run.InputName,
		TranslatedText: translated,
		ProperNouns:    nouns,
		ProcessedAt:    run.Timestamp(),
	}
	if err := p.step(&report, types.StagePersist, types.KindPersistence, func() error {
		return p.stages.Sink.Write(rec)
	}); err != nil {
		return report, err
	}

	report.Record = &rec
	report.Outcome = types.OutcomeCompleted
	return report, nil
}

// step runs fn, records its report, and wraps a failure in a StageError.
func (p *Pipeline) step(report *types.RunReport, stage types.Stage, kind types.ErrorKind, fn func() error) error {
	start := p.now()
	err := fn()
	elapsed := p.now().Sub(start)
	if err == nil {
		report.Stages = append(report.Stages, types.NewStageReport(stage, types.StatusOK, nil, elapsed))
		return nil
	}

	report.Stages = append(report.Stages, types.NewStageReport(stage, types.StatusFailed, err, elapsed))
	if stage == types.StageTranscribe && errors.Is(err, types.ErrRecognitionTimeout) {
		kind = types.KindRecognitionTimeout
	}
	return &types.StageError{Stage: stage, Kind: kind, Err: err}
}
