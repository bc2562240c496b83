package canon

import "context"

// Catalog is the read side of the campaign entity store. Both the
// pre-generation validator and the catalog matcher consume it as a
// point-in-time snapshot — no transactional isolation is assumed between a
// read (validate/scan) and a later write (commit), because resolution is a
// human-paced, single-actor workflow.
//
// Implementations must be safe for concurrent use.
type Catalog interface {
	// Entities returns all non-deleted entities of the campaign.
	// Returns an empty (non-nil) slice when the campaign has no entities.
	Entities(ctx context.Context, campaignID string) ([]Entity, error)
}

// CodexProvider fetches the campaign codex: world-level configuration
// describing setting, tone, naming conventions, and safety constraints.
//
// Returning (nil, nil) means the campaign has no codex; the engine treats an
// absent codex as "no codex", not as a failure.
type CodexProvider interface {
	Codex(ctx context.Context, campaignID string) (*Codex, error)
}

// EntityWriter is the write side of the campaign entity store used by the
// minter.
//
// PutEntity must behave as an upsert so that a partially-completed commit is
// recoverable by retry rather than requiring a distributed transaction.
type EntityWriter interface {
	// PutEntity inserts or replaces an entity.
	PutEntity(ctx context.Context, entity Entity) error

	// UpdateEntity merges attrs into the entity's attribute map. Keys
	// present in attrs overwrite existing values; absent keys are left
	// unchanged. Returns an error when the entity does not exist.
	UpdateEntity(ctx context.Context, id string, attrs map[string]any) error
}

// FactWriter persists batches of itemized facts scoped to an entity.
type FactWriter interface {
	PutFacts(ctx context.Context, facts []Fact) error
}

// RelationshipWriter persists directed, typed edges between entities.
// Writing an edge that already exists must behave as an upsert.
type RelationshipWriter interface {
	PutRelationship(ctx context.Context, rel Relationship) error
}

// Store bundles the four collaborator interfaces for backends that provide
// all of them (the Postgres store, the in-memory store).
type Store interface {
	Catalog
	EntityWriter
	FactWriter
	RelationshipWriter
}
