// Package memstore provides a thread-safe, in-memory implementation of the
// campaign catalog. It is suitable for single-session use, the CLI, and
// testing. The zero value of [Store] is ready to use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MrWong99/canonry/pkg/canon"
)

// Compile-time interface checks.
var (
	_ canon.Store         = (*Store)(nil)
	_ canon.CodexProvider = (*Store)(nil)
)

// Store is a thread-safe, in-memory implementation of [canon.Store] and
// [canon.CodexProvider].
type Store struct {
	mu       sync.RWMutex
	entities map[string]canon.Entity
	facts    []canon.Fact
	rels     map[relKey]canon.Relationship
	relOrder []relKey
	codexes  map[string]canon.Codex
}

// relKey identifies one directed edge, mirroring the uniqueness constraint
// of the Postgres backend.
type relKey struct {
	sourceID string
	targetID string
	relType  string
}

// New returns an initialised [Store].
func New() *Store {
	return &Store{
		entities: make(map[string]canon.Entity),
		rels:     make(map[relKey]canon.Relationship),
		codexes:  make(map[string]canon.Codex),
	}
}

// Entities implements [canon.Catalog]. Results are sorted by name for
// deterministic iteration.
func (s *Store) Entities(ctx context.Context, campaignID string) ([]canon.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]canon.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if e.CampaignID == campaignID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// PutEntity implements [canon.EntityWriter] as an upsert.
func (s *Store) PutEntity(ctx context.Context, entity canon.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entities == nil {
		s.entities = make(map[string]canon.Entity)
	}
	s.entities[entity.ID] = entity
	return nil
}

// UpdateEntity implements [canon.EntityWriter]. It merges attrs into the
// entity's attribute map; absent keys are left unchanged.
func (s *Store) UpdateEntity(ctx context.Context, id string, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("memstore: update entity: entity %q not found", id)
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		e.Attributes[k] = v
	}
	s.entities[id] = e
	return nil
}

// PutFacts implements [canon.FactWriter].
func (s *Store) PutFacts(ctx context.Context, facts []canon.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = append(s.facts, facts...)
	return nil
}

// Facts returns all facts of an entity in insertion order.
func (s *Store) Facts(ctx context.Context, entityID string) ([]canon.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []canon.Fact{}
	for _, f := range s.facts {
		if f.EntityID == entityID {
			result = append(result, f)
		}
	}
	return result, nil
}

// PutRelationship implements [canon.RelationshipWriter] as an upsert keyed
// by (source, target, type).
func (s *Store) PutRelationship(ctx context.Context, rel canon.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rels == nil {
		s.rels = make(map[relKey]canon.Relationship)
	}
	key := relKey{sourceID: rel.SourceID, targetID: rel.TargetID, relType: rel.RelType}
	if _, exists := s.rels[key]; !exists {
		s.relOrder = append(s.relOrder, key)
	}
	s.rels[key] = rel
	return nil
}

// Relationships returns all edges touching entityID in insertion order.
func (s *Store) Relationships(ctx context.Context, entityID string) ([]canon.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []canon.Relationship{}
	for _, key := range s.relOrder {
		r := s.rels[key]
		if r.SourceID == entityID || r.TargetID == entityID {
			result = append(result, r)
		}
	}
	return result, nil
}

// Codex implements [canon.CodexProvider]. A campaign without a codex yields
// (nil, nil).
func (s *Store) Codex(ctx context.Context, campaignID string) (*canon.Codex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codexes[campaignID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SetCodex stores or replaces the campaign codex.
func (s *Store) SetCodex(campaignID string, codex canon.Codex) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codexes == nil {
		s.codexes = make(map[string]canon.Codex)
	}
	s.codexes[campaignID] = codex
}

// BulkImport adds entities one at a time and returns the count of entities
// imported.
func (s *Store) BulkImport(ctx context.Context, entities []canon.Entity) (int, error) {
	count := 0
	for _, e := range entities {
		if err := s.PutEntity(ctx, e); err != nil {
			return count, fmt.Errorf("memstore: bulk import at index %d (name %q): %w", count, e.Name, err)
		}
		count++
	}
	return count, nil
}
