package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"video-translate-go/internal/types"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	Channels   int    `json:"channels"`
	SampleRate string `json:"sample_rate"`
	SampleFmt  string `json:"sample_fmt"`
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index,codec_name,channels,sample_rate,sample_fmt",
		"-of", "json",
		path,
	}
}

// probeAudio returns the encoding of the first audio stream in path.
func (t *Transcoder) probeAudio(ctx context.Context, path string) (types.AudioEncoding, error) {
	args := buildProbeArgs(path)
	res, err := t.runner.Run(ctx, t.ffprobePath, args...)
	if err != nil {
		return types.AudioEncoding{}, &CommandError{Command: t.ffprobePath, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return parseProbe([]byte(res.Stdout))
}

func parseProbe(raw []byte) (types.AudioEncoding, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.AudioEncoding{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return types.AudioEncoding{}, types.ErrNoAudioTrack
	}
	s := out.Streams[0]
	enc := types.AudioEncoding{Codec: s.CodecName, Channels: s.Channels, SampleFormat: s.SampleFmt}
	if s.SampleRate != "" {
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil {
			return types.AudioEncoding{}, fmt.Errorf("parse sample rate %q: %w", s.SampleRate, err)
		}
		enc.SampleRateHertz = rate
	}
	return enc, nil
}
