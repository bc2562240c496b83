// Package validate implements the pre-generation validator: the checks that
// run before any content is produced, so that conflicts with the existing
// world surface while they are still cheap to avoid.
//
// Every check is independent and read-only over a point-in-time catalog
// snapshot, producing zero or more conflicts or warnings. Findings are data,
// not errors: the validator always returns successfully and leaves the
// decision to the operator.
package validate

import (
	"fmt"
	"strings"

	"github.com/MrWong99/canonry/internal/codexcheck"
	"github.com/MrWong99/canonry/internal/lexicon"
	"github.com/MrWong99/canonry/internal/match"
	"github.com/MrWong99/canonry/pkg/canon"
)

// Input is the free-form request payload for one planned generation.
type Input struct {
	// Name is the requested entity name. Required for the duplicate check.
	Name string

	// Description is optional seed prose, checked against codex rules.
	Description string

	// Location is the name of the place the entity belongs to, when known.
	Location string

	// Faction and Role describe the entity's organisational position.
	// Both must be present for the leadership-collision check to run.
	Faction string
	Role    string

	// SkipID excludes one catalog entity from the duplicate check — set it
	// to the stub's ID when fleshing out an existing stub.
	SkipID string
}

// Run executes all pre-generation checks for a planned entity of the given
// kind against the catalog snapshot and optional codex.
//
// No base check emits error severity; CanProceed is computed from severity
// so stricter campaign policies can flip individual checks to blocking
// without touching callers.
func Run(kind canon.EntityType, in Input, entities []canon.Entity, codex *canon.Codex, matchOpts ...match.Option) canon.PreValidationResult {
	res := canon.PreValidationResult{CanProceed: true}

	matcher := match.New(entities, matchOpts...)
	checkDuplicateName(&res, in, entities, matcher)
	checkLocationExists(&res, in, entities)
	checkRoleCollision(&res, kind, in, entities)
	checkCodexAdvisories(&res, kind, in, codex)

	report := codexcheck.Validate(draft{kind: kind, name: in.Name, text: in.Description}, codex)
	res.Warnings = append(res.Warnings, report.Warnings...)
	res.Warnings = append(res.Warnings, report.Suggestions...)

	for _, c := range res.Conflicts {
		if c.Severity == canon.SeverityError {
			res.CanProceed = false
			break
		}
	}
	return res
}

// checkDuplicateName compares the requested name against all non-deleted
// entities, case-insensitive. An exact hit on a deceased entity produces a
// deceased_entity conflict with successor/retcon suggestions; a living hit
// produces a duplicate_name conflict. Near-duplicates (no exact hit) become
// a warning, not a conflict.
func checkDuplicateName(res *canon.PreValidationResult, in Input, entities []canon.Entity, matcher *match.Matcher) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return
	}
	lower := strings.ToLower(name)

	for _, e := range entities {
		if e.ID == in.SkipID || strings.ToLower(e.Name) != lower {
			continue
		}
		if e.Deceased() {
			res.Conflicts = append(res.Conflicts, canon.Conflict{
				ID:                 string(canon.ConflictDeceasedEntity) + "-" + canon.Slug(name),
				Type:               canon.ConflictDeceasedEntity,
				Description:        fmt.Sprintf("%q already exists in this campaign and is deceased", e.Name),
				Severity:           canon.SeverityWarning,
				ExistingEntityID:   e.ID,
				ExistingEntityName: e.Name,
				Suggestions: []string{
					"introduce a successor who inherits the name",
					"retcon the death and flesh out the existing record",
					"rename the new entity",
				},
				Resolution: canon.ResolutionPending,
			})
		} else {
			res.Conflicts = append(res.Conflicts, canon.Conflict{
				ID:                 string(canon.ConflictDuplicateName) + "-" + canon.Slug(name),
				Type:               canon.ConflictDuplicateName,
				Description:        fmt.Sprintf("an entity named %q already exists in this campaign", e.Name),
				Severity:           canon.SeverityWarning,
				ExistingEntityID:   e.ID,
				ExistingEntityName: e.Name,
				Suggestions: []string{
					"edit the existing entity instead",
					"create anyway as a distinct namesake",
					"rename the new entity",
				},
				Resolution: canon.ResolutionPending,
			})
		}
		return
	}

	// No exact hit: surface suspiciously similar names as a warning.
	for _, near := range matcher.NearMatches(name) {
		if near.Entity.ID == in.SkipID {
			continue
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%q is very close to existing %s %q", name, near.Entity.Type, near.Entity.Name))
	}
}

// checkLocationExists verifies that a supplied location name resolves to a
// location entity.
func checkLocationExists(res *canon.PreValidationResult, in Input, entities []canon.Entity) {
	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		return
	}
	lower := strings.ToLower(loc)
	for _, e := range entities {
		if e.Type == canon.EntityLocation && strings.ToLower(e.Name) == lower {
			return
		}
	}
	res.Conflicts = append(res.Conflicts, canon.Conflict{
		ID:          string(canon.ConflictLocationMissing) + "-" + canon.Slug(loc),
		Type:        canon.ConflictLocationMissing,
		Description: fmt.Sprintf("location %q does not exist in this campaign", loc),
		Severity:    canon.SeverityWarning,
		Suggestions: []string{
			fmt.Sprintf("create %q as a location stub first", loc),
			"choose an existing location",
			"proceed and resolve the location later",
		},
		Resolution: canon.ResolutionPending,
	})
}

// checkRoleCollision detects two leaders of the same faction. It only runs
// for characters with both a role and a faction, and only when the role
// matches the leadership vocabulary.
func checkRoleCollision(res *canon.PreValidationResult, kind canon.EntityType, in Input, entities []canon.Entity) {
	if kind != canon.EntityNPC || in.Role == "" || in.Faction == "" {
		return
	}
	if !lexicon.IsLeadershipRole(in.Role) {
		return
	}
	for _, e := range entities {
		if e.Type != canon.EntityNPC || e.ID == in.SkipID {
			continue
		}
		role := e.Attr("role")
		faction := e.Attr("faction")
		if role == "" || faction == "" || !lexicon.IsLeadershipRole(role) {
			continue
		}
		if !containsFold(faction, in.Faction) && !containsFold(in.Faction, faction) {
			continue
		}
		res.Conflicts = append(res.Conflicts, canon.Conflict{
			ID:                 string(canon.ConflictRole) + "-" + canon.Slug(e.Name),
			Type:               canon.ConflictRole,
			Description:        fmt.Sprintf("%q already holds the leadership role %q in %q", e.Name, role, faction),
			Severity:           canon.SeverityWarning,
			ExistingEntityID:   e.ID,
			ExistingEntityName: e.Name,
			Suggestions: []string{
				fmt.Sprintf("replace %s as leader", e.Name),
				"make them co-leaders",
				"place the new character in a rival faction",
				"change the new character's role",
			},
			Resolution: canon.ResolutionPending,
		})
		return
	}
}

// checkCodexAdvisories surfaces codex naming guidance and unknown-faction
// warnings. Always advisory, never blocking.
func checkCodexAdvisories(res *canon.PreValidationResult, kind canon.EntityType, in Input, codex *canon.Codex) {
	if codex == nil {
		return
	}
	if codex.Naming.Notes != "" {
		res.Warnings = append(res.Warnings, "codex naming guidance: "+codex.Naming.Notes)
	}
	if len(codex.KnownFactions) == 0 {
		return
	}
	faction := in.Faction
	if kind == canon.EntityFaction {
		faction = in.Name
	}
	if faction == "" || knownFaction(codex.KnownFactions, faction) {
		return
	}
	res.Warnings = append(res.Warnings, fmt.Sprintf(
		"faction %q is not in the codex's known factions", faction))
}

func knownFaction(known []string, name string) bool {
	for _, k := range known {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// draft adapts a pre-generation input to the payload interface so the codex
// validator can check it before any content exists.
type draft struct {
	kind canon.EntityType
	name string
	text string
}

func (d draft) Kind() canon.EntityType      { return d.kind }
func (d draft) EntityName() string          { return d.name }
func (d draft) Text() string                { return d.text }
func (d draft) Attributes() map[string]any  { return nil }
func (d draft) FactSeeds() []canon.FactSeed { return nil }
