package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	gcs "cloud.google.com/go/storage"
	"cloud.google.com/go/translate"
	"video-translate-go/internal/config"
	"video-translate-go/internal/extractor"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/media"
	"video-translate-go/internal/pipeline"
	"video-translate-go/internal/results"
	"video-translate-go/internal/storage"
	"video-translate-go/internal/transcription"
	"video-translate-go/internal/translation"
	"video-translate-go/internal/types"
)

// Processor owns the cloud clients and the pipeline built on them.
type Processor struct {
	storageClient   *gcs.Client
	speechClient    *speech.Client
	translateClient *translate.Client
	pipeline        *pipeline.Pipeline
	sinkPath        string
	log             *logger.Logger
}

// New dials the storage, speech and translation services using application
// default credentials.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Processor, error) {
	p := &Processor{sinkPath: cfg.ResultPath, log: log.Component("processor")}

	var err error
	if p.storageClient, err = gcs.NewClient(ctx); err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if p.speechClient, err = speech.NewClient(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if p.translateClient, err = translate.NewClient(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}

	p.pipeline = pipeline.New(pipeline.Stages{
		Transcoder: media.NewTranscoder(media.Options{
			FFmpegPath:  cfg.FFmpegPath,
			FFprobePath: cfg.FFprobePath,
			Channels:    cfg.AudioChannels,
			OutputDir:   cfg.ArtifactDir,
		}, log),
		Uploader: storage.NewUploader(p.storageClient, cfg.Bucket, cfg.ObjectPrefix, log),
		Transcriber: transcription.NewStage(p.speechClient, transcription.Options{
			Timeout:      cfg.RecognitionTimeout,
			PollInterval: cfg.PollInterval,
			Separator:    cfg.Separator,
		}, log),
		Translator: translation.NewStage(p.translateClient, log),
		Extractor:  extractor.New(log),
		Sink:       results.New(cfg.ResultPath),
	}, pipeline.Options{
		KeepArtifacts: cfg.KeepArtifacts,
		DeleteRemote:  cfg.DeleteRemote,
	}, log)

	return p, nil
}

// Process runs one video through the pipeline.
func (p *Processor) Process(ctx context.Context, input, lang string) (types.RunReport, error) {
	run, err := types.NewRun(input, lang, time.Now())
	if err != nil {
		return types.RunReport{Outcome: types.OutcomeFailed, Err: err}, err
	}
	p.log.WithRun(run).WithField("result_path", p.sinkPath).Debug("processing video")
	return p.pipeline.Run(ctx, run)
}

func (p *Processor) Close() error {
	var errs []error
	if p.translateClient != nil {
		errs = append(errs, p.translateClient.Close())
	}
	if p.speechClient != nil {
		errs = append(errs, p.speechClient.Close())
	}
	if p.storageClient != nil {
		errs = append(errs, p.storageClient.Close())
	}
	return errors.Join(errs...)
}
