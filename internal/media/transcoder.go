package media

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

type Options struct {
	FFmpegPath  string
	FFprobePath string
	// Channels downmixes the output when > 0; otherwise the source layout is kept.
	Channels int
	// OutputDir defaults to the input file's directory.
	OutputDir string
}

// Transcoder extracts the audio track of a video into a FLAC file.
type Transcoder struct {
	ffmpegPath  string
	ffprobePath string
	channels    int
	outputDir   string
	runner      commandRunner
	log         *logger.Logger
}

func NewTranscoder(opts Options, log *logger.Logger) *Transcoder {
	return newTranscoder(opts, &execRunner{}, log)
}

func newTranscoder(opts Options, runner commandRunner, log *logger.Logger) *Transcoder {
	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := opts.FFprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Transcoder{
		ffmpegPath:  ffmpeg,
		ffprobePath: ffprobe,
		channels:    opts.Channels,
		outputDir:   opts.OutputDir,
		runner:      runner,
		log:         log.Component("media"),
	}
}

// Transcode writes <name>.<run>.flac and describes the produced stream.
// The input is never modified.
func (t *Transcoder) Transcode(ctx context.Context, run types.Run) (types.AudioArtifact, error) {
	log := t.log.WithRun(run)

	info, err := os.Stat(run.InputPath)
	if err != nil {
		return types.AudioArtifact{}, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return types.AudioArtifact{}, fmt.Errorf("input %s is a directory", run.InputPath)
	}

	src, err := t.probeAudio(ctx, run.InputPath)
	if err != nil {
		return types.AudioArtifact{}, fmt.Errorf("probe input: %w", err)
	}
	log.WithField("codec", src.Codec).WithField("channels", src.Channels).Debug("source audio stream")

	out, err := t.outputPath(run)
	if err != nil {
		return types.AudioArtifact{}, err
	}

	args := buildFFmpegArgs(run.InputPath, out, t.channels)
	res, err := t.runner.Run(ctx, t.ffmpegPath, args...)
	if err != nil {
		_ = os.Remove(out)
		return types.AudioArtifact{}, fmt.Errorf("transcode to flac: %w",
			&CommandError{Command: t.ffmpegPath, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err})
	}

	artifact, err := t.describe(ctx, out)
	if err != nil {
		_ = os.Remove(out)
		return types.AudioArtifact{}, err
	}
	log.WithField("path", out).WithField("bytes", artifact.Size).Info("audio extracted")
	return artifact, nil
}

// describe probes and hashes a produced file.
func (t *Transcoder) describe(ctx context.Context, out string) (types.AudioArtifact, error) {
	enc, err := t.probeAudio(ctx, out)
	if err != nil {
		return types.AudioArtifact{}, fmt.Errorf("probe output: %w", err)
	}

	f, err := os.Open(out)
	if err != nil {
		return types.AudioArtifact{}, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()
	digest, size, err := digestOf(f)
	if err != nil {
		return types.AudioArtifact{}, err
	}
	return types.AudioArtifact{Path: out, Encoding: enc, Digest: digest, Size: size}, nil
}

// Cleanup removes a derived artifact. A missing file is not an error.
func (t *Transcoder) Cleanup(a types.AudioArtifact) error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

func (t *Transcoder) outputPath(run types.Run) (string, error) {
	dir := t.outputDir
	if dir == "" {
		dir = filepath.Dir(run.InputPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	base := filepath.Base(run.InputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"."+run.ShortID()+".flac"), nil
}

func buildFFmpegArgs(in, out string, channels int) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", in,
		"-vn",
		"-map", "0:a:0",
	}
	if channels > 0 {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	return append(args, "-c:a", "flac", "-sample_fmt", "s16", out)
}

func digestOf(r io.Reader) (string, int64, error) {
	h := blake3.New(32, nil)
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("calculating blake3 hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
