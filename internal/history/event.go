package history

import "time"

// Event types.
const (
	TypeRunStarted     = "RunStarted"
	TypeStageCompleted = "StageCompleted"
	TypeRunCompleted   = "RunCompleted"
)

// Event is one stored record of a run.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// RunStartedPayload is the body of a RunStarted event.
type RunStartedPayload struct {
	Kind     string `json:"kind"`
	Work     string `json:"work,omitempty"`
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
	Variant  string `json:"variant,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// StageCompletedPayload is the body of a StageCompleted event.
type StageCompletedPayload struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunCompletedPayload is the body of a RunCompleted event.
type RunCompletedPayload struct {
	Outcome     string   `json:"outcome"`
	FailedStage string   `json:"failed_stage,omitempty"`
	Error       string   `json:"error,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
	Warnings    int      `json:"warnings"`
	Artifacts   []string `json:"artifacts,omitempty"`
}
