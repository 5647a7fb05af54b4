package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	GCSBucket           = "GCS_BUCKET"
	GCSObjectPrefix     = "GCS_OBJECT_PREFIX"
	DeleteRemoteAudio   = "DELETE_REMOTE_AUDIO"
	KeepArtifacts       = "KEEP_ARTIFACTS"
	ArtifactDir         = "ARTIFACT_DIR"
	FFmpegPath          = "FFMPEG_PATH"
	FFprobePath         = "FFPROBE_PATH"
	AudioChannels       = "AUDIO_CHANNELS"
	RecognitionTimeout  = "RECOGNITION_TIMEOUT_SECONDS"
	RecognitionPoll     = "RECOGNITION_POLL_SECONDS"
	TranscriptSeparator = "TRANSCRIPT_SEPARATOR"
	ResultPath          = "RESULT_PATH"
)

type Config struct {
	Bucket       string
	ObjectPrefix string
	DeleteRemote bool

	KeepArtifacts bool
	ArtifactDir   string
	FFmpegPath    string
	FFprobePath   string
	AudioChannels int

	RecognitionTimeout time.Duration
	PollInterval       time.Duration
	Separator          string

	ResultPath string
}

// Load reads configuration from the environment. Unset keys fall back to
// defaults; malformed values are an error.
func Load() (Config, error) {
	cfg := Config{
		Bucket:       envOr(GCSBucket, "vaquita-audio-extracts"),
		ObjectPrefix: envOr(GCSObjectPrefix, "audio-extracts/"),
		ArtifactDir:  envOr(ArtifactDir, ""),
		FFmpegPath:   envOr(FFmpegPath, "ffmpeg"),
		FFprobePath:  envOr(FFprobePath, "ffprobe"),
		// not trimmed: whitespace is a legitimate separator
		Separator:  os.Getenv(TranscriptSeparator),
		ResultPath: envOr(ResultPath, "audio_out_results.csv"),
	}

	var err error
	if cfg.DeleteRemote, err = boolEnv(DeleteRemoteAudio, true); err != nil {
		return Config{}, err
	}
	if cfg.KeepArtifacts, err = boolEnv(KeepArtifacts, true); err != nil {
		return Config{}, err
	}
	if cfg.AudioChannels, err = intEnv(AudioChannels, 0); err != nil {
		return Config{}, err
	}
	if cfg.AudioChannels < 0 {
		return Config{}, fmt.Errorf("%s must not be negative", AudioChannels)
	}

	timeout, err := intEnv(RecognitionTimeout, 600)
	if err != nil {
		return Config{}, err
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", RecognitionTimeout)
	}
	cfg.RecognitionTimeout = time.Duration(timeout) * time.Second

	poll, err := intEnv(RecognitionPoll, 2)
	if err != nil {
		return Config{}, err
	}
	if poll <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", RecognitionPoll)
	}
	cfg.PollInterval = time.Duration(poll) * time.Second

	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("%s is required", GCSBucket)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
