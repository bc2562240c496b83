package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/canonry/pkg/canon"
)

// Compile-time interface checks.
var (
	_ canon.Store         = (*Store)(nil)
	_ canon.CodexProvider = (*Store)(nil)
)

// Store is the PostgreSQL-backed campaign catalog. All operations are safe
// for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate] to ensure all required tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Entities implements [canon.Catalog]. Soft-deleted entities are excluded.
func (s *Store) Entities(ctx context.Context, campaignID string) ([]canon.Entity, error) {
	const q = `
		SELECT id, campaign_id, type, name, status, is_stub, attributes
		FROM   entities
		WHERE  campaign_id = $1
		  AND  deleted_at IS NULL
		ORDER  BY name`

	rows, err := s.pool.Query(ctx, q, campaignID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list entities: %w", err)
	}
	entities, err := collectEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("catalog: list entities: %w", err)
	}
	return entities, nil
}

// PutEntity implements [canon.EntityWriter]. An entity with the same ID is
// completely replaced and its updated_at timestamp refreshed.
func (s *Store) PutEntity(ctx context.Context, entity canon.Entity) error {
	attrsJSON, err := json.Marshal(entity.Attributes)
	if err != nil {
		return fmt.Errorf("catalog: marshal attributes: %w", err)
	}

	const q = `
		INSERT INTO entities (id, campaign_id, type, name, status, is_stub, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE SET
		    campaign_id = EXCLUDED.campaign_id,
		    type        = EXCLUDED.type,
		    name        = EXCLUDED.name,
		    status      = EXCLUDED.status,
		    is_stub     = EXCLUDED.is_stub,
		    attributes  = EXCLUDED.attributes,
		    updated_at  = now()`

	_, err = s.pool.Exec(ctx, q,
		entity.ID,
		entity.CampaignID,
		entity.Type,
		entity.Name,
		entity.Status,
		entity.IsStub,
		attrsJSON,
	)
	if err != nil {
		return fmt.Errorf("catalog: put entity: %w", err)
	}
	return nil
}

// UpdateEntity implements [canon.EntityWriter]. It merges attrs into the
// entity's attribute map using PostgreSQL's jsonb || operator and refreshes
// updated_at. Returns an error when the entity does not exist.
func (s *Store) UpdateEntity(ctx context.Context, id string, attrs map[string]any) error {
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("catalog: marshal update attrs: %w", err)
	}

	const q = `
		UPDATE entities
		SET    attributes = attributes || $2::jsonb,
		       updated_at = now()
		WHERE  id = $1`

	tag, err := s.pool.Exec(ctx, q, id, attrsJSON)
	if err != nil {
		return fmt.Errorf("catalog: update entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: update entity: entity %q not found", id)
	}
	return nil
}

// DeleteEntity soft-deletes the entity so that it no longer participates in
// scans and validation, while its history remains queryable.
func (s *Store) DeleteEntity(ctx context.Context, id string) error {
	const q = `UPDATE entities SET deleted_at = now() WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("catalog: delete entity: %w", err)
	}
	return nil
}

// PutFacts implements [canon.FactWriter]. Facts are inserted in one batch.
func (s *Store) PutFacts(ctx context.Context, facts []canon.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	const q = `
		INSERT INTO facts (entity_id, campaign_id, content, category, visibility, is_current, source_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	batch := &pgx.Batch{}
	for _, f := range facts {
		batch.Queue(q, f.EntityID, f.CampaignID, f.Content, f.Category, f.Visibility, f.IsCurrent, f.SourceType)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("catalog: put facts: %w", err)
	}
	return nil
}

// Facts returns all current facts of an entity, newest first.
func (s *Store) Facts(ctx context.Context, entityID string) ([]canon.Fact, error) {
	const q = `
		SELECT entity_id, campaign_id, content, category, visibility, is_current, source_type
		FROM   facts
		WHERE  entity_id = $1
		  AND  is_current
		ORDER  BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, entityID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list facts: %w", err)
	}
	facts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (canon.Fact, error) {
		var f canon.Fact
		err := row.Scan(&f.EntityID, &f.CampaignID, &f.Content, &f.Category, &f.Visibility, &f.IsCurrent, &f.SourceType)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list facts: %w", err)
	}
	if facts == nil {
		facts = []canon.Fact{}
	}
	return facts, nil
}

// PutRelationship implements [canon.RelationshipWriter]. An edge with the
// same (source, target, type) is replaced.
func (s *Store) PutRelationship(ctx context.Context, rel canon.Relationship) error {
	const q = `
		INSERT INTO relationships (campaign_id, source_id, target_id, rel_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (source_id, target_id, rel_type) DO UPDATE SET
		    description = EXCLUDED.description`

	_, err := s.pool.Exec(ctx, q, rel.CampaignID, rel.SourceID, rel.TargetID, rel.RelType, rel.Description)
	if err != nil {
		return fmt.Errorf("catalog: put relationship: %w", err)
	}
	return nil
}

// Relationships returns all edges touching entityID, outgoing and incoming,
// oldest first.
func (s *Store) Relationships(ctx context.Context, entityID string) ([]canon.Relationship, error) {
	const q = `
		SELECT campaign_id, source_id, target_id, rel_type, description
		FROM   relationships
		WHERE  source_id = $1 OR target_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, entityID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list relationships: %w", err)
	}
	rels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (canon.Relationship, error) {
		var r canon.Relationship
		err := row.Scan(&r.CampaignID, &r.SourceID, &r.TargetID, &r.RelType, &r.Description)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list relationships: %w", err)
	}
	if rels == nil {
		rels = []canon.Relationship{}
	}
	return rels, nil
}

// Codex implements [canon.CodexProvider]. A campaign without a stored codex
// yields (nil, nil).
func (s *Store) Codex(ctx context.Context, campaignID string) (*canon.Codex, error) {
	const q = `SELECT doc FROM codexes WHERE campaign_id = $1`

	var doc []byte
	if err := s.pool.QueryRow(ctx, q, campaignID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: get codex: %w", err)
	}

	var codex canon.Codex
	if err := json.Unmarshal(doc, &codex); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal codex: %w", err)
	}
	return &codex, nil
}

// SetCodex stores or replaces the campaign codex document.
func (s *Store) SetCodex(ctx context.Context, campaignID string, codex canon.Codex) error {
	doc, err := json.Marshal(codex)
	if err != nil {
		return fmt.Errorf("catalog: marshal codex: %w", err)
	}

	const q = `
		INSERT INTO codexes (campaign_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (campaign_id) DO UPDATE SET
		    doc        = EXCLUDED.doc,
		    updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, campaignID, doc); err != nil {
		return fmt.Errorf("catalog: set codex: %w", err)
	}
	return nil
}

// collectEntities scans pgx rows into a slice of Entity values.
func collectEntities(rows pgx.Rows) ([]canon.Entity, error) {
	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (canon.Entity, error) {
		var (
			e         canon.Entity
			attrsJSON []byte
		)
		if err := row.Scan(
			&e.ID,
			&e.CampaignID,
			&e.Type,
			&e.Name,
			&e.Status,
			&e.IsStub,
			&attrsJSON,
		); err != nil {
			return canon.Entity{}, err
		}
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &e.Attributes); err != nil {
				return canon.Entity{}, fmt.Errorf("unmarshal entity attributes: %w", err)
			}
		}
		if e.Attributes == nil {
			e.Attributes = map[string]any{}
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []canon.Entity{}
	}
	return entities, nil
}
