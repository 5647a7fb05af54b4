package processor

import (
	"context"
	"errors"
	"testing"

	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

func TestProcessRejectsEmptyInput(t *testing.T) {
	p := &Processor{log: logger.Discard()}
	report, err := p.Process(context.Background(), "", "zh-CN")
	if !errors.Is(err, types.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if _, ok := types.KindOf(err); ok {
		t.Fatal("input validation error should not carry a stage kind")
	}
	if report.Outcome != types.OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", report.Outcome)
	}
}

func TestCloseWithoutClients(t *testing.T) {
	if err := (&Processor{}).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
