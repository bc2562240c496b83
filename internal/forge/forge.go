// Package forge is the orchestration layer of the engine. It owns the three
// user-facing operations of the authoring workflow: pre-generation
// validation, post-generation content scanning, and the gated commit of a
// finalized entity together with its resolved discoveries.
//
// The engine composes the pure pipeline stages (extract, classify, match,
// validate, codexcheck) over live campaign state fetched from the catalog
// and codex collaborators. Catalog reads and codex reads run concurrently;
// a missing or failing codex degrades the operation to codex-less behavior
// instead of failing it.
package forge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/canonry/internal/classify"
	"github.com/MrWong99/canonry/internal/codexcheck"
	"github.com/MrWong99/canonry/internal/extract"
	"github.com/MrWong99/canonry/internal/match"
	"github.com/MrWong99/canonry/internal/mint"
	"github.com/MrWong99/canonry/internal/observe"
	"github.com/MrWong99/canonry/internal/review"
	"github.com/MrWong99/canonry/internal/validate"
	"github.com/MrWong99/canonry/pkg/canon"
)

// ErrPendingResolutions is returned by [Engine.Commit] while any discovery or
// conflict of the session is still pending.
var ErrPendingResolutions = errors.New("forge: session has pending resolutions")

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithExtractor overrides the mention extractor.
func WithExtractor(ex *extract.Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithMetrics overrides the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMatchOptions passes options through to every catalog matcher the
// engine constructs.
func WithMatchOptions(opts ...match.Option) Option {
	return func(e *Engine) { e.matchOpts = opts }
}

// Engine orchestrates the authoring workflow over one storage backend. It is
// read-only after construction and safe for concurrent use.
type Engine struct {
	catalog canon.Catalog
	codex   canon.CodexProvider
	minter  *mint.Minter

	extractor *extract.Extractor
	matchOpts []match.Option
	metrics   *observe.Metrics
}

// New builds an [Engine]. codex may be nil when the deployment has no codex
// source at all.
func New(catalog canon.Catalog, codex canon.CodexProvider, minter *mint.Minter, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		codex:     codex,
		minter:    minter,
		extractor: extract.New(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// fetchWorld loads the campaign catalog snapshot and codex concurrently. The
// catalog is required; a codex failure is logged and degrades to nil.
func (e *Engine) fetchWorld(ctx context.Context, campaignID string) ([]canon.Entity, *canon.Codex, error) {
	var (
		entities []canon.Entity
		codex    *canon.Codex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = e.catalog.Entities(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("forge: load catalog for campaign %q: %w", campaignID, err)
		}
		return nil
	})
	g.Go(func() error {
		if e.codex == nil {
			return nil
		}
		c, err := e.codex.Codex(gctx, campaignID)
		if err != nil {
			observe.Logger(gctx).Warn("codex unavailable, continuing without it",
				"campaign", campaignID, "err", err)
			return nil
		}
		codex = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return entities, codex, nil
}

// ValidatePreGeneration runs all pre-generation checks for a planned entity
// of the given kind against the campaign's current state.
func (e *Engine) ValidatePreGeneration(ctx context.Context, campaignID string, kind canon.EntityType, in validate.Input) (*canon.PreValidationResult, error) {
	ctx, span := observe.StartSpan(ctx, "forge.validate_pre_generation")
	defer span.End()
	start := time.Now()

	entities, codex, err := e.fetchWorld(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	res := validate.Run(kind, in, entities, codex, e.matchOpts...)

	for _, c := range res.Conflicts {
		e.metrics.RecordConflict(ctx, string(c.Type), string(c.Severity))
	}
	e.metrics.ValidateDuration.Record(ctx, time.Since(start).Seconds())

	observe.Logger(ctx).Info("pre-generation validation finished",
		"campaign", campaignID, "kind", kind,
		"conflicts", len(res.Conflicts), "warnings", len(res.Warnings),
		"can_proceed", res.CanProceed)
	return &res, nil
}

// ScanRequest describes one block of generated content to scan.
type ScanRequest struct {
	// EntityName is the name of the entity being authored; its own
	// occurrences in Text are not reported as mentions.
	EntityName string

	// Kind is the entity type being authored, used for codex checks.
	Kind canon.EntityType

	// Text is the generated content.
	Text string
}

// ScanGeneratedContent extracts candidate mentions from generated text,
// resolves them against the campaign catalog, classifies the remainder into
// discoveries, checks the text against the codex, and grades the whole with
// a canon score.
func (e *Engine) ScanGeneratedContent(ctx context.Context, campaignID string, req ScanRequest) (*canon.ScanResult, error) {
	ctx, span := observe.StartSpan(ctx, "forge.scan_generated_content")
	defer span.End()
	start := time.Now()

	entities, codex, err := e.fetchWorld(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	matcher := match.New(entities, e.matchOpts...)
	res := &canon.ScanResult{
		Discoveries:            []canon.Discovery{},
		Conflicts:              []canon.Conflict{},
		ExistingEntityMentions: []canon.EntityMention{},
	}

	seen := map[string]bool{}
	for _, m := range e.extractor.Extract(req.Text, req.EntityName) {
		if ent, ok := matcher.Match(m.Text); ok {
			res.ExistingEntityMentions = append(res.ExistingEntityMentions, canon.EntityMention{
				ID:    ent.ID,
				Name:  ent.Name,
				Type:  ent.Type,
				Start: m.Start,
				End:   m.End,
			})
			continue
		}
		kind := classify.Classify(m)
		if kind == canon.EntityOther {
			continue
		}
		id := canon.DiscoveryID(kind, m.Text)
		if seen[id] {
			continue
		}
		seen[id] = true
		res.Discoveries = append(res.Discoveries, canon.Discovery{
			ID:            id,
			Text:          m.Text,
			SuggestedType: kind,
			Context:       m.Context,
			Start:         m.Start,
			End:           m.End,
			Status:        canon.DiscoveryPending,
		})
		e.metrics.RecordDiscovery(ctx, string(kind))
	}

	// Codex rule violations surface as advisory conflicts on the scan.
	report := codexcheck.Validate(scanned{req}, codex)
	for i, w := range report.Warnings {
		res.Conflicts = append(res.Conflicts, canon.Conflict{
			ID:          fmt.Sprintf("%s-%d", canon.ConflictCodex, i+1),
			Type:        canon.ConflictCodex,
			Description: w,
			Severity:    canon.SeverityWarning,
			Suggestions: report.Suggestions,
			Resolution:  canon.ResolutionPending,
		})
		e.metrics.RecordConflict(ctx, string(canon.ConflictCodex), string(canon.SeverityWarning))
	}

	res.CanonScore = match.Score(len(res.Discoveries), len(res.ExistingEntityMentions))

	e.metrics.ExistingMentions.Add(ctx, int64(len(res.ExistingEntityMentions)))
	e.metrics.ScanDuration.Record(ctx, time.Since(start).Seconds())

	observe.Logger(ctx).Info("content scan finished",
		"campaign", campaignID, "entity", req.EntityName,
		"discoveries", len(res.Discoveries),
		"existing_mentions", len(res.ExistingEntityMentions),
		"canon_score", res.CanonScore)
	return res, nil
}

// ValidateAgainstCodex checks a finalized payload against the campaign
// codex. A campaign without a codex yields a valid, empty report.
func (e *Engine) ValidateAgainstCodex(ctx context.Context, campaignID string, payload canon.Payload) (canon.CodexReport, error) {
	var codex *canon.Codex
	if e.codex != nil {
		c, err := e.codex.Codex(ctx, campaignID)
		if err != nil {
			return canon.CodexReport{}, fmt.Errorf("forge: load codex for campaign %q: %w", campaignID, err)
		}
		codex = c
	}
	return codexcheck.Validate(payload, codex), nil
}

// CreateStubEntities materializes stub entities ahead of commit for every
// accepted discovery of the session, marking each successful stub on the
// session so commit does not mint it twice.
func (e *Engine) CreateStubEntities(ctx context.Context, campaignID string, session *review.Session, authoringKind canon.EntityType) ([]mint.StubResult, error) {
	ctx, span := observe.StartSpan(ctx, "forge.create_stub_entities")
	defer span.End()

	results := e.minter.CreateStubs(ctx, campaignID, session.Discoveries(), authoringKind, "")
	for _, sr := range results {
		if sr.Err != nil {
			continue
		}
		if err := session.MarkStub(sr.DiscoveryID, sr.Stub.ID); err != nil {
			return results, err
		}
		e.metrics.StubsMinted.Add(ctx, 1)
	}
	return results, nil
}

// CommitMeta carries the explicitly supplied related entities into a commit.
type CommitMeta struct {
	OwnerID    string
	LocationID string
	FactionID  string
}

// Commit persists the finalized payload and its resolved review session.
// It refuses with [ErrPendingResolutions] while any discovery or conflict is
// still pending; afterwards persistence follows the minter's staged,
// partial-success contract.
func (e *Engine) Commit(ctx context.Context, campaignID string, payload canon.Payload, session *review.Session, meta CommitMeta) (*mint.Result, error) {
	ctx, span := observe.StartSpan(ctx, "forge.commit")
	defer span.End()
	start := time.Now()

	if !session.CanCommit() {
		return nil, ErrPendingResolutions
	}

	res, err := e.minter.SaveForgedEntity(ctx, campaignID, payload, mint.CommitContext{
		Discoveries: session.Discoveries(),
		OwnerID:     meta.OwnerID,
		LocationID:  meta.LocationID,
		FactionID:   meta.FactionID,
	})
	if err != nil {
		return nil, err
	}

	for _, d := range session.Discoveries() {
		if d.Status == canon.DiscoveryCreateStub && d.StubID == "" {
			e.metrics.StubsMinted.Add(ctx, 1)
		}
	}
	for _, p := range res.Partial {
		e.metrics.RecordPersistenceError(ctx, p.Stage)
	}
	e.metrics.CommitDuration.Record(ctx, time.Since(start).Seconds())

	observe.Logger(ctx).Info("entity committed",
		"campaign", campaignID, "entity", res.Entity.ID, "name", res.Entity.Name,
		"stubs", len(res.Stubs), "relationships", len(res.Relationships),
		"partial_failures", len(res.Partial))
	return res, nil
}

// scanned adapts a scan request to the payload interface for codex checks.
type scanned struct{ req ScanRequest }

func (s scanned) Kind() canon.EntityType      { return s.req.Kind }
func (s scanned) EntityName() string          { return s.req.EntityName }
func (s scanned) Text() string                { return s.req.Text }
func (s scanned) Attributes() map[string]any  { return nil }
func (s scanned) FactSeeds() []canon.FactSeed { return nil }
