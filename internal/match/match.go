// Package match resolves candidate mentions against the live catalog of
// named entities, separating "existing mention" from "discovery", and
// derives the coarse canon score from the ratio between the two.
//
// Matching is deliberately simple and deterministic: case-insensitive exact
// equality first, then a bidirectional substring test so that "Eldrinax"
// still resolves against "Eldrinax the Undying" (and vice versa). A separate
// Jaro-Winkler pass ([Matcher.NearMatches]) surfaces near-duplicates for the
// pre-generation validator without ever influencing scan results.
package match

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/canonry/pkg/canon"
)

// defaultNearThreshold is the minimum Jaro-Winkler similarity for a name to
// count as a near-duplicate of a catalog entity.
const defaultNearThreshold = 0.88

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithNearThreshold sets the minimum Jaro-Winkler score for
// [Matcher.NearMatches]. Default: 0.88.
func WithNearThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.nearThreshold = threshold
	}
}

// Matcher resolves names against one point-in-time catalog snapshot. It is
// read-only after construction and safe for concurrent use.
type Matcher struct {
	entries       []canon.Entity
	byName        map[string]canon.Entity
	nearThreshold float64
}

// New builds a [Matcher] over the catalog snapshot. When several entities
// share a name (case-insensitive), the first one in slice order wins the
// exact-match index; the duplicate still participates in substring and
// near-duplicate checks.
func New(entries []canon.Entity, opts ...Option) *Matcher {
	m := &Matcher{
		entries:       entries,
		byName:        make(map[string]canon.Entity, len(entries)),
		nearThreshold: defaultNearThreshold,
	}
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if _, taken := m.byName[key]; !taken {
			m.byName[key] = e
		}
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves name against the catalog: exact case-insensitive equality
// first, then a bidirectional substring test against every known name. A
// substring hit is a variant reference to the existing entity, not a new
// discovery.
func (m *Matcher) Match(name string) (canon.Entity, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return canon.Entity{}, false
	}
	if e, ok := m.byName[lower]; ok {
		return e, true
	}
	for _, e := range m.entries {
		known := strings.ToLower(e.Name)
		if known == "" {
			continue
		}
		if strings.Contains(lower, known) || strings.Contains(known, lower) {
			return e, true
		}
	}
	return canon.Entity{}, false
}

// Exact resolves name by case-insensitive equality only.
func (m *Matcher) Exact(name string) (canon.Entity, bool) {
	e, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// NearMatch pairs a catalog entity with its Jaro-Winkler similarity to a
// queried name.
type NearMatch struct {
	Entity canon.Entity
	Score  float64
}

// NearMatches returns catalog entities whose names are suspiciously similar
// to name (Jaro-Winkler at or above the configured threshold), excluding
// exact matches — those are reported as duplicates, not near-duplicates.
// Results are ordered by descending score, ties broken by name.
func (m *Matcher) NearMatches(name string) []NearMatch {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil
	}
	var out []NearMatch
	for _, e := range m.entries {
		known := strings.ToLower(e.Name)
		if known == "" || known == lower {
			continue
		}
		if score := matchr.JaroWinkler(lower, known, false); score >= m.nearThreshold {
			out = append(out, NearMatch{Entity: e, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entity.Name < out[j].Entity.Name
	})
	return out
}

// Score derives the canon score from the discovery and existing-mention
// counts. Nothing to judge scores high; otherwise the ratio of existing
// references r = e/(d+e) grades the text: high when r >= 0.7 with at most 2
// discoveries, medium when r >= 0.4 with at most 4 discoveries, low
// otherwise. The signal is coarse and monotonic — it exists to bias
// operators toward reusing established lore.
func Score(discoveries, existing int) canon.CanonScore {
	total := discoveries + existing
	if total == 0 {
		return canon.ScoreHigh
	}
	ratio := float64(existing) / float64(total)
	switch {
	case ratio >= 0.7 && discoveries <= 2:
		return canon.ScoreHigh
	case ratio >= 0.4 && discoveries <= 4:
		return canon.ScoreMedium
	default:
		return canon.ScoreLow
	}
}
