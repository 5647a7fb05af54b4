package transcription

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// operation is a started long-running recognition job.
type operation interface {
	Name() string
	Done() bool
	// Poll fetches the latest state; the response is nil until Done.
	Poll(ctx context.Context) (*speechpb.LongRunningRecognizeResponse, error)
}

type recognizer interface {
	Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (operation, error)
}

type speechRecognizer struct {
	client *speech.Client
}

func (r *speechRecognizer) Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (operation, error) {
	op, err := r.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return &speechOperation{op: op}, nil
}

type speechOperation struct {
	op *speech.LongRunningRecognizeOperation
}

func (o *speechOperation) Name() string { return o.op.Name() }
func (o *speechOperation) Done() bool   { return o.op.Done() }

func (o *speechOperation) Poll(ctx context.Context) (*speechpb.LongRunningRecognizeResponse, error) {
	return o.op.Poll(ctx)
}
