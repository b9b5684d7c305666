package task

import "time"

const BuildTaskType = "BuildTask"

// BuildTask asks a worker to run the pipeline for one source page.
type BuildTask struct {
	SourcePage   string    `json:"source_page"`
	FixturePath  string    `json:"fixture_path,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	IncludeAllIn bool      `json:"include_all_in"`
	Attempt      int       `json:"attempt"`
	RequestedAt  time.Time `json:"requested_at"`
}

func (t *BuildTask) TaskType() string {
	return BuildTaskType
}

func (t *BuildTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
