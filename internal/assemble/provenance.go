package assemble

import (
	"maps"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"taxonomy/builder/internal/domain"
)

// ProvenanceOptions describe the run being stamped.
type ProvenanceOptions struct {
	SourcePage    string
	ParserVersion string
	Profile       string
	Extra         map[string]string
	Now           func() time.Time
}

// NewProvenance returns a provenance record with a fresh run id.
func NewProvenance(opts ProvenanceOptions) domain.Provenance {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	p := domain.Provenance{
		RunID:         uuid.NewString(),
		Timestamp:     now().UTC().Truncate(time.Second),
		SourcePage:    opts.SourcePage,
		ParserVersion: opts.ParserVersion,
		Profile:       opts.Profile,
		Runtime: domain.RuntimeInfo{
			GoVersion:   runtime.Version(),
			OS:          runtime.GOOS,
			Arch:        runtime.GOARCH,
			Profile:     opts.Profile,
			VCSRevision: vcsRevision(),
		},
	}
	if len(opts.Extra) > 0 {
		p.Extra = maps.Clone(opts.Extra)
	}
	return p
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
