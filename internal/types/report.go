package types

import "time"

type Stage string

const (
	StageTranscode  Stage = "transcode"
	StageUpload     Stage = "upload"
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
	StageExtract    Stage = "extract"
	StagePersist    Stage = "persist"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageTranscode,
	StageUpload,
	StageTranscribe,
	StageTranslate,
	StageExtract,
	StagePersist,
}

type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusFailed  StageStatus = "failed"
	StatusSkipped StageStatus = "skipped"
)

type StageReport struct {
	Stage      Stage       `json:"stage"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeNoSpeech  Outcome = "no_speech"
	OutcomeFailed    Outcome = "failed"
)

// RunReport summarizes one run. Record is nil unless the sink was written.
type RunReport struct {
	Run        Run           `json:"run"`
	Outcome    Outcome       `json:"outcome"`
	Stages     []StageReport `json:"stages"`
	Transcript string        `json:"transcript,omitempty"`
	Record     *ResultRecord `json:"record,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Err        error         `json:"-"`
}

// Stage returns the report for s, if s was reached.
func (r RunReport) Stage(s Stage) (StageReport, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageReport{}, false
}

func NewStageReport(s Stage, status StageStatus, err error, d time.Duration) StageReport {
	sr := StageReport{Stage: s, Status: status, DurationMs: d.Milliseconds()}
	if err != nil {
		sr.Error = err.Error()
	}
	return sr
}
