// Package canon defines the domain types and collaborator interfaces of the
// Canonry consistency engine.
//
// Canonry sits inside a content-generation pipeline for persistent fictional
// worlds. Before a new entity is generated, the engine validates the request
// against the existing world ([PreValidationResult]); after generation it
// scans the produced text for proper nouns and splits them into references to
// existing entities and new [Discovery] records needing a human decision
// ([ScanResult]); once every discovery and [Conflict] is resolved, the minter
// commits the result by creating stub records and wiring relationships.
//
// The package is storage-agnostic: persistence happens through the small
// [Catalog], [EntityWriter], [FactWriter] and [RelationshipWriter]
// interfaces so that alternative backends (Postgres, in-memory, …) can be
// supplied without depending on canonry internals.
package canon

import "time"

// EntityType classifies an entity in the campaign catalog.
type EntityType string

const (
	// EntityNPC represents a non-player character.
	EntityNPC EntityType = "npc"

	// EntityLocation represents a place in the game world.
	EntityLocation EntityType = "location"

	// EntityItem represents a physical object or artifact.
	EntityItem EntityType = "item"

	// EntityFaction represents an organisation, guild, or faction.
	EntityFaction EntityType = "faction"

	// EntityQuest represents a quest, mission, or story hook.
	EntityQuest EntityType = "quest"

	// EntityCreature represents a monster or beast.
	EntityCreature EntityType = "creature"

	// EntityOther is the classifier's bucket for mentions that are proper
	// nouns but not world entities (spells, jargon, sentence noise).
	EntityOther EntityType = "other"
)

// IsValid reports whether t is a recognised entity type.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityNPC, EntityLocation, EntityItem, EntityFaction, EntityQuest, EntityCreature, EntityOther:
		return true
	}
	return false
}

// StatusDeceased is the catalog status marking an entity as dead in-world.
// Deceased entities still participate in duplicate-name detection but produce
// a [ConflictDeceasedEntity] instead of a [ConflictDuplicateName].
const StatusDeceased = "deceased"

// Entity is one record of the campaign catalog. It is the shape returned by
// [Catalog.Entities] and written by [EntityWriter].
type Entity struct {
	// ID is the unique, stable identifier of the entity.
	ID string `json:"id"`

	// CampaignID scopes the entity to one campaign.
	CampaignID string `json:"campaign_id"`

	// Type classifies the entity.
	Type EntityType `json:"type"`

	// Name is the canonical display name (e.g., "Eldrinax the Undying").
	Name string `json:"name"`

	// Status is a free-form lifecycle marker. The engine only interprets
	// [StatusDeceased]; everything else is treated as alive.
	Status string `json:"status,omitempty"`

	// IsStub marks a placeholder record minted for a discovery, to be
	// fleshed out later.
	IsStub bool `json:"is_stub,omitempty"`

	// Attributes holds arbitrary key/value metadata specific to this entity
	// (role, faction, description, history, …).
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attr returns the string value of an attribute, or "" when the attribute is
// absent or not a string.
func (e Entity) Attr(key string) string {
	if e.Attributes == nil {
		return ""
	}
	s, _ := e.Attributes[key].(string)
	return s
}

// Deceased reports whether the entity is marked dead in-world.
func (e Entity) Deceased() bool { return e.Status == StatusDeceased }

// CandidateMention is a span found in raw generated text plus a fixed-radius
// window of surrounding characters. It is ephemeral: produced by the mention
// extractor and consumed by the classifier and catalog matcher within one
// scan.
type CandidateMention struct {
	// Text is the matched span, as it appears in the source.
	Text string

	// Start and End delimit the span as byte offsets into the source text
	// (End is exclusive).
	Start int
	End   int

	// Context is the surrounding text window used for context-based
	// classification.
	Context string
}

// DiscoveryStatus tracks the operator's decision for one discovery.
type DiscoveryStatus string

const (
	// DiscoveryPending means no decision has been made yet. Pending
	// discoveries block commit.
	DiscoveryPending DiscoveryStatus = "pending"

	// DiscoveryCreateStub accepts the discovery: a stub entity will be
	// minted at commit time.
	DiscoveryCreateStub DiscoveryStatus = "create_stub"

	// DiscoveryLinkExisting resolves the discovery as a variant reference
	// to an already-catalogued entity.
	DiscoveryLinkExisting DiscoveryStatus = "link_existing"

	// DiscoveryIgnore marks the mention as deliberately ignored.
	DiscoveryIgnore DiscoveryStatus = "ignore"
)

// IsValid reports whether s is a recognised discovery status.
func (s DiscoveryStatus) IsValid() bool {
	switch s {
	case DiscoveryPending, DiscoveryCreateStub, DiscoveryLinkExisting, DiscoveryIgnore:
		return true
	}
	return false
}

// Discovery is a proper noun found in generated text that does not match any
// existing catalog entity. It is born from one scan, lives for the review
// session, and is consumed by the minter at commit time.
//
// Identity is derived from the suggested type and the normalized mention
// text (see [DiscoveryID]), so rescanning edited text yields the same ID for
// the same name and operator resolutions survive position shifts.
type Discovery struct {
	// ID is the stable discovery identifier, e.g. "npc-tharivol".
	ID string `json:"id"`

	// Text is the mention as found in the source.
	Text string `json:"text"`

	// SuggestedType is the classifier's best-guess entity category.
	SuggestedType EntityType `json:"suggested_type"`

	// Context is the text window surrounding the first occurrence.
	Context string `json:"context,omitempty"`

	// Start and End delimit the first occurrence in the scanned text.
	Start int `json:"start_index"`
	End   int `json:"end_index"`

	// Status is the operator's decision. New discoveries start pending.
	Status DiscoveryStatus `json:"status"`

	// LinkedEntityID is the chosen target when Status is
	// [DiscoveryLinkExisting].
	LinkedEntityID string `json:"linked_entity_id,omitempty"`

	// StubID is set once a stub entity has been materialized for this
	// discovery (either ahead of commit or by the minter).
	StubID string `json:"stub_id,omitempty"`
}

// ConflictType names the validator check that produced a conflict.
type ConflictType string

const (
	ConflictDuplicateName   ConflictType = "duplicate_name"
	ConflictDeceasedEntity  ConflictType = "deceased_entity"
	ConflictLocationMissing ConflictType = "location_missing"
	ConflictRole            ConflictType = "role_conflict"
	ConflictCodex           ConflictType = "codex_conflict"
)

// Severity grades a conflict. Only [SeverityError] blocks proceeding;
// [SeverityWarning] is advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ConflictResolution tracks the operator's decision for one conflict.
type ConflictResolution string

const (
	ResolutionPending      ConflictResolution = "pending"
	ResolutionKeepNew      ConflictResolution = "keep_new"
	ResolutionKeepExisting ConflictResolution = "keep_existing"
	ResolutionMerge        ConflictResolution = "merge"
	ResolutionRename       ConflictResolution = "rename"
	ResolutionIgnore       ConflictResolution = "ignore"
)

// IsValid reports whether r is a recognised conflict resolution.
func (r ConflictResolution) IsValid() bool {
	switch r {
	case ResolutionPending, ResolutionKeepNew, ResolutionKeepExisting,
		ResolutionMerge, ResolutionRename, ResolutionIgnore:
		return true
	}
	return false
}

// Conflict is a detected inconsistency between requested/generated content
// and existing world state or rules. Conflicts are never persisted — they
// exist only to gate an operator decision.
type Conflict struct {
	// ID identifies the conflict within one validation pass.
	ID string `json:"id"`

	// Type names the check that produced this conflict.
	Type ConflictType `json:"type"`

	// Description is a human-readable explanation.
	Description string `json:"description"`

	// Severity grades the conflict. Only error severity blocks proceeding.
	Severity Severity `json:"severity"`

	// ExistingEntityID and ExistingEntityName reference the catalog entity
	// involved, when one is.
	ExistingEntityID   string `json:"existing_entity_id,omitempty"`
	ExistingEntityName string `json:"existing_entity_name,omitempty"`

	// Suggestions are operator-facing ways out of the conflict.
	Suggestions []string `json:"suggestions,omitempty"`

	// Resolution is the operator's decision. New conflicts start pending.
	Resolution ConflictResolution `json:"resolution"`
}

// EntityMention records one span of scanned text that matched a catalog
// entity (exactly or as a variant reference).
type EntityMention struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Type  EntityType `json:"type"`
	Start int        `json:"start_index"`
	End   int        `json:"end_index"`
}

// CanonScore is a coarse, monotonic signal of how much generated content
// reuses established lore versus inventing new elements. It is intended to
// bias operators toward reuse, not to be a precise metric.
type CanonScore string

const (
	ScoreHigh   CanonScore = "high"
	ScoreMedium CanonScore = "medium"
	ScoreLow    CanonScore = "low"
)

// ScanResult aggregates the outcome of scanning one block of generated text.
//
// Invariant: the character spans reported across Discoveries and
// ExistingEntityMentions are mutually non-overlapping (overlap between
// extraction passes is resolved earliest-start-wins).
type ScanResult struct {
	Discoveries            []Discovery     `json:"discoveries"`
	Conflicts              []Conflict      `json:"conflicts"`
	CanonScore             CanonScore      `json:"canon_score"`
	ExistingEntityMentions []EntityMention `json:"existing_entity_mentions"`
}

// PreValidationResult is the outcome of the pre-generation validator.
type PreValidationResult struct {
	// CanProceed is false only when an error-severity conflict exists.
	CanProceed bool `json:"can_proceed"`

	Conflicts []Conflict `json:"conflicts"`
	Warnings  []string   `json:"warnings"`
}

// CodexReport is the outcome of validating a generated payload against the
// campaign codex. It is pure advisory data: warnings and suggestions, never
// errors.
type CodexReport struct {
	// IsValid is false when at least one warning was produced.
	IsValid bool `json:"is_valid"`

	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// HistoryEntry is one append-only event in a minted entity's attribute
// history. Entries are never rewritten.
type HistoryEntry struct {
	Event     string    `json:"event"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Fact is an itemized piece of lore scoped to one entity, written in batches
// through [FactWriter]. Facts are supplementary: a failed fact write never
// rolls back the entity it belongs to.
type Fact struct {
	EntityID   string `json:"entity_id"`
	CampaignID string `json:"campaign_id"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	Visibility string `json:"visibility"`
	IsCurrent  bool   `json:"is_current"`
	SourceType string `json:"source_type"`
}

// Relationship is a directed, typed edge between two catalog entities.
type Relationship struct {
	CampaignID  string `json:"campaign_id"`
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	RelType     string `json:"relationship_type"`
	Description string `json:"description,omitempty"`
}

// Well-known relationship types wired by the minter.
const (
	// RelRelatedTo is the generic edge created for linked discoveries and
	// for stubs with no more specific role.
	RelRelatedTo = "related_to"

	// RelContains links a location to a sub-location discovered inside it.
	RelContains = "contains"

	// RelInhabitedBy links a location to a character discovered while the
	// location was being authored.
	RelInhabitedBy = "inhabited_by"

	// RelOwnedBy links an item to its owner.
	RelOwnedBy = "owned_by"

	// RelLocatedIn links an entity to the location it sits in.
	RelLocatedIn = "located_in"

	// RelMemberOf links a character to a faction.
	RelMemberOf = "member_of"
)
