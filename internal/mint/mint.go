// Package mint is the commit-time writer of the engine: it creates stub
// entities for accepted discoveries, persists the primary forged entity,
// and wires relationships.
//
// Persistence is an explicit staged pipeline and deliberately not atomic.
// The primary entity write is guaranteed — its failure aborts the commit —
// while facts and relationships are best-effort enrichment: a failed
// sub-step is captured per stage in the result and the remaining stages
// still run, leaving a saved entity that is recoverable by retry.
package mint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/canonry/internal/lexicon"
	"github.com/MrWong99/canonry/internal/observe"
	"github.com/MrWong99/canonry/pkg/canon"
)

// Option is a functional option for configuring a [Minter].
type Option func(*Minter)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Minter) { m.now = now }
}

// WithIDGenerator overrides the primary-entity ID generator. Intended for
// tests; the default generates UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(m *Minter) { m.newID = newID }
}

// Minter commits resolved review sessions to the entity store. It is
// read-only after construction and safe for concurrent use.
type Minter struct {
	entities canon.EntityWriter
	facts    canon.FactWriter
	rels     canon.RelationshipWriter

	now   func() time.Time
	newID func() string
}

// New returns a [Minter] writing through the given collaborators.
func New(entities canon.EntityWriter, facts canon.FactWriter, rels canon.RelationshipWriter, opts ...Option) *Minter {
	m := &Minter{
		entities: entities,
		facts:    facts,
		rels:     rels,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CommitContext carries the resolved review state and external metadata
// into [Minter.SaveForgedEntity].
type CommitContext struct {
	// Discoveries are the session's discoveries; only non-pending ones
	// may be passed.
	Discoveries []canon.Discovery

	// OwnerID, LocationID and FactionID are explicitly supplied related
	// entities; each produces one typed relationship.
	OwnerID    string
	LocationID string
	FactionID  string
}

// StageError captures one failed best-effort persistence stage.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

// Result is the structured partial-success outcome of a commit: the
// guaranteed primary entity plus everything the enrichment stages managed
// to write, with per-stage errors for what they did not.
type Result struct {
	Entity        canon.Entity
	Stubs         []canon.Entity
	Relationships []canon.Relationship
	Partial       []StageError
}

// StubResult pairs a discovery with the stub minted for it, or the error
// that prevented it.
type StubResult struct {
	DiscoveryID string
	Stub        canon.Entity
	Err         error
}

// StubID derives the deterministic stub entity ID for a discovery.
func StubID(discoveryID string) string { return "stub-" + discoveryID }

// CreateStubs mints one stub entity per accepted discovery (status
// create_stub, not yet materialized). authoringKind names the kind of the
// entity being authored; originContext is recorded on each stub so later
// editors know where the name came from.
//
// Stub creation is per-discovery best-effort: a failed insert is reported
// in its [StubResult] and does not stop the remaining stubs.
func (m *Minter) CreateStubs(ctx context.Context, campaignID string, discoveries []canon.Discovery, authoringKind canon.EntityType, originContext string) []StubResult {
	log := observe.Logger(ctx)

	var out []StubResult
	for _, d := range discoveries {
		if d.Status != canon.DiscoveryCreateStub || d.StubID != "" {
			continue
		}
		stub := m.buildStub(campaignID, d, authoringKind, originContext)
		res := StubResult{DiscoveryID: d.ID, Stub: stub}
		if err := m.entities.PutEntity(ctx, stub); err != nil {
			res.Err = fmt.Errorf("mint: create stub %q: %w", stub.ID, err)
			log.Warn("stub creation failed", "discovery", d.ID, "err", err)
		}
		out = append(out, res)
	}
	return out
}

// buildStub maps one discovery to its stub entity record.
func (m *Minter) buildStub(campaignID string, d canon.Discovery, authoringKind canon.EntityType, originContext string) canon.Entity {
	kind := canon.TypeOfDiscoveryID(d.ID)
	if kind == canon.EntityOther {
		kind = d.SuggestedType
	}
	note := fmt.Sprintf("discovered while authoring a %s", authoringKind)
	attrs := map[string]any{
		"history": []canon.HistoryEntry{{
			Event:     "stub_created",
			Note:      note,
			Timestamp: m.now(),
		}},
	}
	if d.Context != "" {
		attrs["origin_context"] = d.Context
	} else if originContext != "" {
		attrs["origin_context"] = originContext
	}
	return canon.Entity{
		ID:         StubID(d.ID),
		CampaignID: campaignID,
		Type:       kind,
		Name:       d.Text,
		IsStub:     true,
		Attributes: attrs,
	}
}

// SaveForgedEntity commits the finalized payload together with its resolved
// discoveries. Stages, in order: stub creation, primary entity write, fact
// writes, linked-discovery relationships, stub relationships, kind-specific
// enrichment, metadata relationships.
//
// Only the primary entity write is fatal; every other stage records its
// failure in [Result.Partial] and the commit proceeds.
func (m *Minter) SaveForgedEntity(ctx context.Context, campaignID string, payload canon.Payload, commit CommitContext) (*Result, error) {
	log := observe.Logger(ctx)
	res := &Result{}

	// Stage 1: stubs for accepted discoveries not materialized yet.
	stubByDiscovery := map[string]canon.Entity{}
	for _, sr := range m.CreateStubs(ctx, campaignID, commit.Discoveries, payload.Kind(), "") {
		if sr.Err != nil {
			res.Partial = append(res.Partial, StageError{Stage: "stub:" + sr.DiscoveryID, Err: sr.Err})
			continue
		}
		res.Stubs = append(res.Stubs, sr.Stub)
		stubByDiscovery[sr.DiscoveryID] = sr.Stub
	}
	// Stubs materialized ahead of commit still take part in relationship
	// wiring and enrichment.
	for _, d := range commit.Discoveries {
		if d.Status == canon.DiscoveryCreateStub && d.StubID != "" {
			stubByDiscovery[d.ID] = canon.Entity{
				ID:         d.StubID,
				CampaignID: campaignID,
				Type:       canon.TypeOfDiscoveryID(d.ID),
				Name:       d.Text,
				IsStub:     true,
				Attributes: map[string]any{"origin_context": d.Context},
			}
		}
	}

	// Stage 2: the primary entity. This is the guaranteed write.
	entity := canon.Entity{
		ID:         m.newID(),
		CampaignID: campaignID,
		Type:       payload.Kind(),
		Name:       payload.EntityName(),
		Attributes: payload.Attributes(),
	}
	if entity.Attributes == nil {
		entity.Attributes = map[string]any{}
	}
	entity.Attributes["history"] = []canon.HistoryEntry{{
		Event:     "forged",
		Note:      fmt.Sprintf("created as a %s", entity.Type),
		Timestamp: m.now(),
	}}
	if err := m.entities.PutEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("mint: save entity %q: %w", entity.Name, err)
	}
	res.Entity = entity

	// Stage 3: itemized facts. Supplementary — never rolls back the entity.
	if seeds := payload.FactSeeds(); len(seeds) > 0 {
		facts := make([]canon.Fact, 0, len(seeds))
		for _, seed := range seeds {
			facts = append(facts, canon.Fact{
				EntityID:   entity.ID,
				CampaignID: campaignID,
				Content:    seed.Content,
				Category:   seed.Category,
				Visibility: "gm",
				IsCurrent:  true,
				SourceType: "forged",
			})
		}
		if err := m.facts.PutFacts(ctx, facts); err != nil {
			res.Partial = append(res.Partial, StageError{Stage: "facts", Err: err})
			log.Warn("fact write failed, entity persisted without facts", "entity", entity.ID, "err", err)
		}
	}

	// Stage 4: linked discoveries become generic references.
	for _, d := range commit.Discoveries {
		if d.Status != canon.DiscoveryLinkExisting || d.LinkedEntityID == "" {
			continue
		}
		m.putRel(ctx, res, canon.Relationship{
			CampaignID:  campaignID,
			SourceID:    entity.ID,
			TargetID:    d.LinkedEntityID,
			RelType:     canon.RelRelatedTo,
			Description: fmt.Sprintf("mentioned as %q", d.Text),
		})
	}

	// Stage 5: stub relationships, typed by the discovery ID convention.
	for _, d := range commit.Discoveries {
		stub, ok := stubByDiscovery[d.ID]
		if !ok {
			continue
		}
		m.putRel(ctx, res, canon.Relationship{
			CampaignID: campaignID,
			SourceID:   entity.ID,
			TargetID:   stub.ID,
			RelType:    stubRelType(entity.Type, d.ID),
		})
	}

	// Stage 6: kind-specific enrichment.
	if entity.Type == canon.EntityLocation {
		m.enrichLocation(ctx, res, entity, commit.Discoveries, stubByDiscovery)
	}

	// Stage 7: explicitly supplied metadata relationships.
	metadata := []struct {
		target  string
		relType string
	}{
		{commit.OwnerID, canon.RelOwnedBy},
		{commit.LocationID, canon.RelLocatedIn},
		{commit.FactionID, canon.RelMemberOf},
	}
	for _, md := range metadata {
		if md.target == "" {
			continue
		}
		m.putRel(ctx, res, canon.Relationship{
			CampaignID: campaignID,
			SourceID:   entity.ID,
			TargetID:   md.target,
			RelType:    md.relType,
		})
	}

	return res, nil
}

// putRel writes one relationship, capturing a failure as a partial error so
// the remaining relationships still attempt to write.
func (m *Minter) putRel(ctx context.Context, res *Result, rel canon.Relationship) {
	if err := m.rels.PutRelationship(ctx, rel); err != nil {
		res.Partial = append(res.Partial, StageError{
			Stage: fmt.Sprintf("relationship:%s→%s", rel.RelType, rel.TargetID),
			Err:   err,
		})
		observe.Logger(ctx).Warn("relationship write failed",
			"rel_type", rel.RelType, "target", rel.TargetID, "err", err)
		return
	}
	res.Relationships = append(res.Relationships, rel)
}

// stubRelType derives the relationship role from the discovery ID prefix:
// sub-locations are contained, characters discovered while authoring a
// location inhabit it, everything else is generically related.
func stubRelType(authoring canon.EntityType, discoveryID string) string {
	switch canon.TypeOfDiscoveryID(discoveryID) {
	case canon.EntityLocation:
		return canon.RelContains
	case canon.EntityNPC:
		if authoring == canon.EntityLocation {
			return canon.RelInhabitedBy
		}
	}
	return canon.RelRelatedTo
}

// enrichLocation back-fills a freshly minted location with named staff
// cross-references from its inhabitant stubs. The owner is the first
// inhabitant whose origin context carries an ownership-indicating title
// word, falling back to the first inhabitant.
func (m *Minter) enrichLocation(ctx context.Context, res *Result, entity canon.Entity, discoveries []canon.Discovery, stubs map[string]canon.Entity) {
	var (
		staff []string
		owner string
	)
	for _, d := range discoveries {
		stub, ok := stubs[d.ID]
		if !ok || canon.TypeOfDiscoveryID(d.ID) != canon.EntityNPC {
			continue
		}
		staff = append(staff, stub.Name)
		if owner == "" && lexicon.ContainsAnyWord(d.Context, lexicon.OwnershipRoles) {
			owner = stub.Name
		}
	}
	if len(staff) == 0 {
		return
	}
	if owner == "" {
		owner = staff[0]
	}

	attrs := map[string]any{"staff": staff, "owner": owner}
	if err := m.entities.UpdateEntity(ctx, entity.ID, attrs); err != nil {
		res.Partial = append(res.Partial, StageError{Stage: "enrich:location", Err: err})
		observe.Logger(ctx).Warn("location enrichment failed", "entity", entity.ID, "err", err)
	}
}
