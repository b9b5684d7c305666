package domain

import "time"

// Document is the assembled taxonomy handed to validation and storage.
type Document struct {
	Version     string      `json:"version" validate:"required"`
	SourcePage  string      `json:"source_page" validate:"required"`
	CollectedAt time.Time   `json:"collected_at" validate:"required"`
	Items       []Item      `json:"items" validate:"required,min=1,dive"`
	Provenance  *Provenance `json:"provenance,omitempty"`
}

// RuntimeInfo describes the binary that produced a document.
type RuntimeInfo struct {
	GoVersion   string `json:"go"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	Profile     string `json:"profile,omitempty"`
	VCSRevision string `json:"vcs_revision,omitempty"`
}

// Provenance stamps run metadata onto an output document.
type Provenance struct {
	RunID         string            `json:"run_id"`
	Timestamp     time.Time         `json:"ts"`
	SourcePage    string            `json:"source_page"`
	ParserVersion string            `json:"parser_version"`
	Profile       string            `json:"profile,omitempty"`
	Runtime       RuntimeInfo       `json:"runtime"`
	Extra         map[string]string `json:"extra,omitempty"`
}
