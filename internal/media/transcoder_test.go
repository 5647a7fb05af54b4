package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newRun(t *testing.T, path string) types.Run {
	t.Helper()
	run, err := types.NewRun(path, "zh-CN", time.Now())
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	return run
}

const sourceProbe = `{"streams":[{"index":1,"codec_name":"aac","channels":2,"sample_rate":"48000"}]}`
const flacProbe = `{"streams":[{"index":0,"codec_name":"flac","channels":2,"sample_rate":"48000","sample_fmt":"s16"}]}`

func TestTranscodeSuccess(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "talk.mp4")
	mustWriteFile(t, input, "video")
	run := newRun(t, input)

	var calls []string
	var ffmpegArgs []string
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		calls = append(calls, name)
		switch len(calls) {
		case 1:
			if args[len(args)-1] != input {
				t.Fatalf("probe target = %q, want %q", args[len(args)-1], input)
			}
			return commandResult{Stdout: sourceProbe}, nil
		case 2:
			ffmpegArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "flac-bytes")
			return commandResult{}, nil
		default:
			return commandResult{Stdout: flacProbe}, nil
		}
	}}

	tr := newTranscoder(Options{FFmpegPath: "ffmpeg-custom", FFprobePath: "ffprobe-custom"}, runner, logger.Discard())
	got, err := tr.Transcode(context.Background(), run)
	if err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}

	want := []string{"ffprobe-custom", "ffmpeg-custom", "ffprobe-custom"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	wantPath := filepath.Join(root, "talk."+run.ShortID()+".flac")
	if got.Path != wantPath {
		t.Fatalf("path = %q, want %q", got.Path, wantPath)
	}
	if got.Encoding.Codec != "flac" || got.Encoding.Channels != 2 || got.Encoding.SampleRateHertz != 48000 || got.Encoding.SampleFormat != "s16" {
		t.Fatalf("encoding = %+v", got.Encoding)
	}
	if got.Size != int64(len("flac-bytes")) || len(got.Digest) != 64 {
		t.Fatalf("size = %d digest = %q", got.Size, got.Digest)
	}
	if strings.Contains(strings.Join(ffmpegArgs, " "), "-ac") {
		t.Fatalf("ffmpeg args %v should keep source channels", ffmpegArgs)
	}
	if b, _ := os.ReadFile(input); string(b) != "video" {
		t.Fatalf("input modified: %q", b)
	}
}

func TestTranscodeNoAudioTrack(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "silent.mp4")
	mustWriteFile(t, input, "video")

	ffmpegCalled := false
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		if name == "ffmpeg" {
			ffmpegCalled = true
		}
		return commandResult{Stdout: `{"streams":[]}`}, nil
	}}

	tr := newTranscoder(Options{}, runner, logger.Discard())
	_, err := tr.Transcode(context.Background(), newRun(t, input))
	if !errors.Is(err, types.ErrNoAudioTrack) {
		t.Fatalf("err = %v, want ErrNoAudioTrack", err)
	}
	if ffmpegCalled {
		t.Fatal("ffmpeg should not run without an audio track")
	}
}

func TestTranscodeMissingInput(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		t.Fatalf("unexpected command %s", name)
		return commandResult{}, nil
	}}
	tr := newTranscoder(Options{}, runner, logger.Discard())
	_, err := tr.Transcode(context.Background(), newRun(t, filepath.Join(t.TempDir(), "nope.mp4")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}

func TestTranscodeFFmpegFailure(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "broken.mkv")
	mustWriteFile(t, input, "video")

	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		if name == "ffprobe" {
			return commandResult{Stdout: sourceProbe}, nil
		}
		return commandResult{Stderr: "header\nInvalid data found when processing input", ExitCode: 1}, errors.New("exit status 1")
	}}

	tr := newTranscoder(Options{}, runner, logger.Discard())
	_, err := tr.Transcode(context.Background(), newRun(t, input))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 1 || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("command error = %v", err)
	}
}

func TestTranscodeRemovesOutputWhenProbeFails(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "talk.mp4")
	mustWriteFile(t, input, "video")

	var out string
	call := 0
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		call++
		switch call {
		case 1:
			return commandResult{Stdout: sourceProbe}, nil
		case 2:
			out = args[len(args)-1]
			mustWriteFile(t, out, "flac")
			return commandResult{}, nil
		default:
			return commandResult{Stdout: "not json"}, nil
		}
	}}

	tr := newTranscoder(Options{}, runner, logger.Discard())
	if _, err := tr.Transcode(context.Background(), newRun(t, input)); err == nil {
		t.Fatal("Transcode() error = nil, want probe error")
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("derived file %q left behind: %v", out, err)
	}
}

func TestTranscodeOutputDirAndCleanup(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in", "talk.mov")
	outDir := filepath.Join(root, "artifacts")
	mustWriteFile(t, input, "video")

	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		if name == "ffmpeg" {
			mustWriteFile(t, args[len(args)-1], "flac")
			return commandResult{}, nil
		}
		return commandResult{Stdout: flacProbe}, nil
	}}

	tr := newTranscoder(Options{OutputDir: outDir, Channels: 1}, runner, logger.Discard())
	got, err := tr.Transcode(context.Background(), newRun(t, input))
	if err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}
	if filepath.Dir(got.Path) != outDir {
		t.Fatalf("artifact dir = %q, want %q", filepath.Dir(got.Path), outDir)
	}
	if err := tr.Cleanup(got); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(got.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("artifact still present: %v", err)
	}
	if err := tr.Cleanup(got); err != nil {
		t.Fatalf("second Cleanup() error = %v", err)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	got := strings.Join(buildFFmpegArgs("in.mp4", "out.flac", 2), " ")
	want := "-hide_banner -nostdin -y -i in.mp4 -vn -map 0:a:0 -ac 2 -c:a flac -sample_fmt s16 out.flac"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestParseProbeBadSampleRate(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams":[{"codec_name":"aac","channels":2,"sample_rate":"fast"}]}`))
	if err == nil {
		t.Fatal("parseProbe() error = nil, want error")
	}
}
