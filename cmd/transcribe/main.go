package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"video-translate-go/internal/config"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/processor"
	"video-translate-go/internal/types"
)

const (
	exitOK                 = 0
	exitMedia              = 2
	exitUpload             = 3
	exitRecognition        = 4
	exitRecognitionTimeout = 5
	exitTranslation        = 6
	exitExtraction         = 7
	exitPersistence        = 8
	exitUsage              = 64
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load() // loads .env

	log := logger.New()

	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	file := fs.String("file", "", "path to the input video (required)")
	lang := fs.String("lang", "zh-CN", "BCP-47 language code spoken in the video")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: --file")
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := processor.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize cloud clients")
		return exitUsage
	}
	defer func() {
		if err := proc.Close(); err != nil {
			log.WithError(err).Warn("failed to close clients")
		}
	}()

	report, err := proc.Process(ctx, *file, *lang)
	entry := log.WithField("outcome", report.Outcome).WithField("duration_ms", report.DurationMs)
	for _, s := range report.Stages {
		entry = entry.WithField("stage_"+string(s.Stage), s.Status)
	}
	if err != nil {
		entry.WithField("error", err.Error()).Error("video processing failed")
		return exitCode(err)
	}
	if report.Record != nil {
		entry = entry.WithField("result_path", cfg.ResultPath).WithField("proper_nouns", len(report.Record.ProperNouns))
	}
	entry.Info("video processed")
	return exitOK
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	kind, ok := types.KindOf(err)
	if !ok {
		return exitUsage
	}
	switch kind {
	case types.KindMedia:
		return exitMedia
	case types.KindUpload:
		return exitUpload
	case types.KindRecognition:
		return exitRecognition
	case types.KindRecognitionTimeout:
		return exitRecognitionTimeout
	case types.KindTranslation:
		return exitTranslation
	case types.KindExtraction:
		return exitExtraction
	case types.KindPersistence:
		return exitPersistence
	default:
		return exitUsage
	}
}
