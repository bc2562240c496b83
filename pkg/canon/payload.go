package canon

import "strings"

// Payload is a finalized generated payload ready for commit. Each entity
// kind has radically different optional fields, so payloads are modeled as a
// closed set of concrete types implementing this interface — one mapping per
// kind from generated content to persisted shape — rather than one generic
// bag of optional fields.
type Payload interface {
	// Kind is the entity kind this payload produces.
	Kind() EntityType

	// EntityName is the primary entity's display name.
	EntityName() string

	// Text serializes the payload's free-form content for rule checks
	// (codex theme and safety validation).
	Text() string

	// Attributes maps the payload to the persisted attribute layout of
	// its kind.
	Attributes() map[string]any

	// FactSeeds are the itemized sub-facts attached to the payload,
	// persisted as separate fact records scoped to the new entity.
	FactSeeds() []FactSeed
}

// FactSeed is one itemized sub-fact carried by a payload before it is scoped
// to an entity.
type FactSeed struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// joinText concatenates non-empty parts with newlines; the common Text()
// implementation for payload kinds.
func joinText(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// putNonEmpty copies only the non-empty string fields into attrs.
func putNonEmpty(attrs map[string]any, kv map[string]string) {
	for k, v := range kv {
		if v != "" {
			attrs[k] = v
		}
	}
}

// NPCPayload is the generated content for a character.
type NPCPayload struct {
	Name        string     `json:"name"`
	Role        string     `json:"role,omitempty"`
	Faction     string     `json:"faction,omitempty"`
	Location    string     `json:"location,omitempty"`
	Appearance  string     `json:"appearance,omitempty"`
	Personality string     `json:"personality,omitempty"`
	Background  string     `json:"background,omitempty"`
	Hooks       []string   `json:"hooks,omitempty"`
	Facts       []FactSeed `json:"facts,omitempty"`
}

func (p NPCPayload) Kind() EntityType   { return EntityNPC }
func (p NPCPayload) EntityName() string { return p.Name }

func (p NPCPayload) Text() string {
	return joinText(p.Appearance, p.Personality, p.Background, strings.Join(p.Hooks, "\n"))
}

func (p NPCPayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"role":        p.Role,
		"faction":     p.Faction,
		"location":    p.Location,
		"appearance":  p.Appearance,
		"personality": p.Personality,
		"background":  p.Background,
	})
	if len(p.Hooks) > 0 {
		attrs["hooks"] = p.Hooks
	}
	return attrs
}

func (p NPCPayload) FactSeeds() []FactSeed { return p.Facts }

// LocationPayload is the generated content for a place.
type LocationPayload struct {
	Name             string     `json:"name"`
	Region           string     `json:"region,omitempty"`
	Description      string     `json:"description,omitempty"`
	Atmosphere       string     `json:"atmosphere,omitempty"`
	PointsOfInterest []string   `json:"points_of_interest,omitempty"`
	Facts            []FactSeed `json:"facts,omitempty"`
}

func (p LocationPayload) Kind() EntityType   { return EntityLocation }
func (p LocationPayload) EntityName() string { return p.Name }

func (p LocationPayload) Text() string {
	return joinText(p.Description, p.Atmosphere, strings.Join(p.PointsOfInterest, "\n"))
}

func (p LocationPayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"region":      p.Region,
		"description": p.Description,
		"atmosphere":  p.Atmosphere,
	})
	if len(p.PointsOfInterest) > 0 {
		attrs["points_of_interest"] = p.PointsOfInterest
	}
	return attrs
}

func (p LocationPayload) FactSeeds() []FactSeed { return p.Facts }

// ItemPayload is the generated content for an object or artifact.
type ItemPayload struct {
	Name       string     `json:"name"`
	ItemType   string     `json:"item_type,omitempty"`
	Rarity     string     `json:"rarity,omitempty"`
	Properties string     `json:"properties,omitempty"`
	History    string     `json:"history,omitempty"`
	Facts      []FactSeed `json:"facts,omitempty"`
}

func (p ItemPayload) Kind() EntityType   { return EntityItem }
func (p ItemPayload) EntityName() string { return p.Name }
func (p ItemPayload) Text() string       { return joinText(p.Properties, p.History) }

func (p ItemPayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"item_type":  p.ItemType,
		"rarity":     p.Rarity,
		"properties": p.Properties,
		"history":    p.History,
	})
	return attrs
}

func (p ItemPayload) FactSeeds() []FactSeed { return p.Facts }

// FactionPayload is the generated content for an organisation.
type FactionPayload struct {
	Name      string     `json:"name"`
	Goals     string     `json:"goals,omitempty"`
	Structure string     `json:"structure,omitempty"`
	Allies    []string   `json:"allies,omitempty"`
	Rivals    []string   `json:"rivals,omitempty"`
	Facts     []FactSeed `json:"facts,omitempty"`
}

func (p FactionPayload) Kind() EntityType   { return EntityFaction }
func (p FactionPayload) EntityName() string { return p.Name }

func (p FactionPayload) Text() string {
	return joinText(p.Goals, p.Structure, strings.Join(p.Allies, "\n"), strings.Join(p.Rivals, "\n"))
}

func (p FactionPayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"goals":     p.Goals,
		"structure": p.Structure,
	})
	if len(p.Allies) > 0 {
		attrs["allies"] = p.Allies
	}
	if len(p.Rivals) > 0 {
		attrs["rivals"] = p.Rivals
	}
	return attrs
}

func (p FactionPayload) FactSeeds() []FactSeed { return p.Facts }

// QuestPayload is the generated content for a quest or story hook.
type QuestPayload struct {
	Name       string     `json:"name"`
	Hook       string     `json:"hook,omitempty"`
	Objectives []string   `json:"objectives,omitempty"`
	Reward     string     `json:"reward,omitempty"`
	Facts      []FactSeed `json:"facts,omitempty"`
}

func (p QuestPayload) Kind() EntityType   { return EntityQuest }
func (p QuestPayload) EntityName() string { return p.Name }

func (p QuestPayload) Text() string {
	return joinText(p.Hook, strings.Join(p.Objectives, "\n"), p.Reward)
}

func (p QuestPayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"hook":   p.Hook,
		"reward": p.Reward,
	})
	if len(p.Objectives) > 0 {
		attrs["objectives"] = p.Objectives
	}
	return attrs
}

func (p QuestPayload) FactSeeds() []FactSeed { return p.Facts }

// CreaturePayload is the generated content for a monster or beast.
type CreaturePayload struct {
	Name      string     `json:"name"`
	Habitat   string     `json:"habitat,omitempty"`
	Behavior  string     `json:"behavior,omitempty"`
	Abilities []string   `json:"abilities,omitempty"`
	Facts     []FactSeed `json:"facts,omitempty"`
}

func (p CreaturePayload) Kind() EntityType   { return EntityCreature }
func (p CreaturePayload) EntityName() string { return p.Name }

func (p CreaturePayload) Text() string {
	return joinText(p.Habitat, p.Behavior, strings.Join(p.Abilities, "\n"))
}

func (p CreaturePayload) Attributes() map[string]any {
	attrs := map[string]any{}
	putNonEmpty(attrs, map[string]string{
		"habitat":  p.Habitat,
		"behavior": p.Behavior,
	})
	if len(p.Abilities) > 0 {
		attrs["abilities"] = p.Abilities
	}
	return attrs
}

func (p CreaturePayload) FactSeeds() []FactSeed { return p.Facts }
