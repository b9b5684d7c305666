package task

import "time"

const DeadLetterTaskType = "DeadLetterTask"

// DeadLetterTask records a failed build for inspection or replay.
type DeadLetterTask struct {
	Stage      string    `json:"stage"`
	Error      string    `json:"error"`
	Source     string    `json:"source"`
	RunID      string    `json:"run_id,omitempty"`
	OccurredAt time.Time `json:"ts"`
}

func (t *DeadLetterTask) TaskType() string {
	return DeadLetterTaskType
}

func (t *DeadLetterTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
