package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"taxonomy/builder/internal/assemble"
	"taxonomy/builder/internal/client"
	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/dedupe"
	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/metrics"
	"taxonomy/builder/internal/normalize"
	"taxonomy/builder/internal/output"
	"taxonomy/builder/internal/parser"
	"taxonomy/builder/internal/queue"
	"taxonomy/builder/internal/repository"
	"taxonomy/builder/internal/state"
)

// Pipeline stages, as recorded in dead letters and stage timings.
const (
	StageGovernance = "governance"
	StageFetch      = "fetch"
	StageParse      = "parse"
	StageNormalize  = "normalize"
	StageDedupe     = "dedupe"
	StageValidate   = "validate"
	StageWrite      = "write"
	StagePersist    = "persist"
)

// BuildRequest describes one pipeline run. Zero fields fall back to config.
type BuildRequest struct {
	SourcePage   string
	FixturePath  string
	OutputPath   string
	IncludeAllIn bool
}

func (r BuildRequest) source() string {
	if r.FixturePath != "" {
		return "file://" + r.FixturePath
	}
	return r.SourcePage
}

// BuildResult summarizes a successful run.
type BuildResult struct {
	RunID        string
	Items        int
	Counts       map[domain.ItemType]int
	TaxonomyPath string
	ChoicesPath  string
	Profile      string
}

// Summary lists the item count per type, e.g. "Category: 2, Subcategory: 5, All-in: 1".
func (r *BuildResult) Summary() string {
	parts := make([]string, 0, len(domain.ItemTypes))
	for _, t := range domain.ItemTypes {
		parts = append(parts, fmt.Sprintf("%s: %d", t.GetTypeName(), r.Counts[t]))
	}
	return strings.Join(parts, ", ")
}

type Service struct {
	cfg         *config.Config
	fetcher     client.Fetcher
	parser      *parser.DirectoryParser
	validator   *assemble.Validator
	repository  repository.TaxonomyRepository
	queue       queue.Queue
	buildState  state.BuildState
	deadLetters *output.DeadLetterSink
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService wires the pipeline. repository, queue and buildState may be
// nil when the matching backend is disabled.
func NewService(
	cfg *config.Config,
	fetcher client.Fetcher,
	repository repository.TaxonomyRepository,
	queue queue.Queue,
	buildState state.BuildState,
	deadLetters *output.DeadLetterSink,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		cfg:         cfg,
		fetcher:     fetcher,
		parser:      parser.NewDirectoryParser(),
		validator:   assemble.NewValidator(),
		repository:  repository,
		queue:       queue,
		buildState:  buildState,
		deadLetters: deadLetters,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Build runs fetch through persistence for one directory page. Any failure
// is dead-lettered and returned wrapped with its stage.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	req = s.withDefaults(req)
	log.Infof("🚀 Building taxonomy from %s (profile %s)", req.source(), s.cfg.App.Profile)
	defer s.logMetrics()

	if req.FixturePath == "" && !client.AllowDomain(req.SourcePage) {
		return nil, s.fail(ctx, StageGovernance, req, fmt.Errorf("%w: %s", client.ErrDisallowed, req.SourcePage))
	}

	done := s.metrics.StartStage(StageFetch)
	markup, err := s.fetcherFor(req).Fetch(ctx, req.SourcePage)
	done()
	if err != nil {
		return nil, s.fail(ctx, StageFetch, req, err)
	}

	done = s.metrics.StartStage(StageParse)
	raw := s.parser.Extract(markup)
	selectorProfile, _ := s.parser.ProfileFor(markup)
	done()
	s.metrics.ItemsFound(raw)
	log.Infof("🔍 Found %d raw items using %q selectors", len(raw), selectorProfile)

	done = s.metrics.StartStage(StageNormalize)
	items := normalize.AttachLineage(raw, s.baseURL(req.SourcePage))
	done()
	s.metrics.ItemsNormalized(len(items))

	done = s.metrics.StartStage(StageDedupe)
	items = dedupe.Items(items)
	done()
	s.metrics.ItemsDeduped(len(items))

	version := s.cfg.App.ParserVersion
	doc := assemble.NewDocument(items, req.SourcePage, version, s.now())

	done = s.metrics.StartStage(StageValidate)
	err = s.validator.Validate(doc)
	done()
	if err != nil {
		return nil, s.fail(ctx, StageValidate, req, err)
	}

	extra := map[string]string{"selector_profile": selectorProfile}
	if req.FixturePath != "" {
		extra["fixture_path"] = req.FixturePath
	}
	prov := assemble.NewProvenance(assemble.ProvenanceOptions{
		SourcePage:    req.SourcePage,
		ParserVersion: version,
		Profile:       s.cfg.App.Profile,
		Extra:         extra,
		Now:           s.now,
	})
	doc = assemble.AttachProvenance(doc, prov)

	choicesPath := output.SiblingPath(req.OutputPath, s.cfg.Output.ChoicesFile)
	done = s.metrics.StartStage(StageWrite)
	err = s.writeOutputs(doc, req, choicesPath)
	done()
	if err != nil {
		return nil, s.fail(ctx, StageWrite, req, err)
	}

	if s.repository != nil {
		done = s.metrics.StartStage(StagePersist)
		err = s.repository.SaveItems(ctx, req.SourcePage, doc.Items)
		done()
		if err != nil {
			return nil, s.fail(ctx, StagePersist, req, err)
		}
	}

	if s.buildState != nil {
		last := state.LastBuild{RunID: prov.RunID, Items: len(doc.Items), Completed: prov.Timestamp}
		if err := s.buildState.SetLastBuild(ctx, req.SourcePage, last); err != nil {
			log.Warnf("⚠️ Failed to record last build for %s: %v", req.SourcePage, err)
		}
	}

	result := &BuildResult{
		RunID:        prov.RunID,
		Items:        len(doc.Items),
		Counts:       countByType(doc.Items),
		TaxonomyPath: req.OutputPath,
		ChoicesPath:  choicesPath,
		Profile:      s.cfg.App.Profile,
	}
	log.Infof("✅ Wrote %d items to %s (%s)", result.Items, result.TaxonomyPath, result.Summary())

	return result, nil
}

func (s *Service) withDefaults(req BuildRequest) BuildRequest {
	if req.SourcePage == "" {
		req.SourcePage = s.cfg.Source.PageURL
	}
	if req.FixturePath == "" {
		req.FixturePath = s.cfg.Source.FixturePath
	}
	if req.OutputPath == "" {
		req.OutputPath = s.cfg.Output.TaxonomyPath()
	}
	return req
}

func (s *Service) fetcherFor(req BuildRequest) client.Fetcher {
	if req.FixturePath != "" || s.fetcher == nil {
		return client.FixtureFetcher{Path: req.FixturePath}
	}
	return s.fetcher
}

// baseURL resolves relative hrefs. The configured base wins, then the
// source page's origin.
func (s *Service) baseURL(sourcePage string) string {
	if s.cfg.Source.BaseURL != "" {
		return s.cfg.Source.BaseURL
	}
	u, err := url.Parse(sourcePage)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (s *Service) writeOutputs(doc domain.Document, req BuildRequest, choicesPath string) error {
	pretty := s.cfg.Output.Pretty
	if err := output.WriteJSON(req.OutputPath, doc, pretty); err != nil {
		return err
	}

	choices := output.BuildChoices(doc.Items, req.IncludeAllIn, doc.Version, s.now())
	return output.WriteJSON(choicesPath, choices, pretty)
}

func (s *Service) fail(ctx context.Context, stage string, req BuildRequest, err error) error {
	log.Errorf("❌ Stage %s failed for %s: %v", stage, req.source(), err)
	if s.deadLetters != nil {
		s.deadLetters.Record(ctx, output.DeadLetter{
			Stage:  stage,
			Error:  err.Error(),
			Source: req.source(),
		})
	}
	return fmt.Errorf("%s stage: %w", stage, err)
}

func (s *Service) logMetrics() {
	snap := s.metrics.Snapshot()
	log.WithFields(log.Fields{
		"items_found":      snap.ItemsFound,
		"items_normalized": snap.ItemsNormalized,
		"items_deduped":    snap.ItemsDeduped,
		"fetches":          snap.Fetches,
	}).Info("📊 Run metrics")
}

func countByType(items []domain.Item) map[domain.ItemType]int {
	counts := make(map[domain.ItemType]int, len(domain.ItemTypes))
	for _, item := range items {
		counts[item.Type]++
	}
	return counts
}
