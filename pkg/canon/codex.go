package canon

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Codex is the world-level configuration of a campaign: setting, themes,
// tone, naming conventions, safety presets, and a small excerpt of
// established proper nouns.
//
// The codex is owned and mutated by an external editor; the engine consumes
// it read-only as an immutable snapshot per call.
type Codex struct {
	// Setting is a short description of the campaign world.
	Setting string `yaml:"setting" json:"setting"`

	// Themes lists the campaign's narrative themes.
	Themes []string `yaml:"themes,omitempty" json:"themes,omitempty"`

	// Tone is the campaign's overall mood. The validator interprets
	// "light" and "dark"; other values disable theme-consistency checks.
	Tone string `yaml:"tone,omitempty" json:"tone,omitempty"`

	// Naming describes the campaign's naming conventions.
	Naming NamingConvention `yaml:"naming,omitempty" json:"naming,omitempty"`

	// SafetyPresets lists the safety topics configured for this campaign
	// (e.g. "violence", "horror"). Each topic expands to a fixed keyword
	// set during content validation.
	SafetyPresets []string `yaml:"safety_presets,omitempty" json:"safety_presets,omitempty"`

	// KnownFactions lists faction names established in the campaign.
	KnownFactions []string `yaml:"known_factions,omitempty" json:"known_factions,omitempty"`

	// ProperNouns is a catalog excerpt of established names.
	ProperNouns []string `yaml:"proper_nouns,omitempty" json:"proper_nouns,omitempty"`

	// ResolvedQuestions records worldbuilding questions already answered
	// by the operator.
	ResolvedQuestions []ResolvedQuestion `yaml:"resolved_questions,omitempty" json:"resolved_questions,omitempty"`
}

// NamingConvention captures how names should look in this campaign.
type NamingConvention struct {
	// Style is a keyword triggering a regional style check
	// (e.g. "nordic", "celtic", "imperial").
	Style string `yaml:"style,omitempty" json:"style,omitempty"`

	// Notes is free-form operator guidance, surfaced as an advisory
	// warning during pre-generation validation.
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`

	// Examples are names considered on-style for this campaign.
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// ResolvedQuestion is a worldbuilding question with its settled answer.
type ResolvedQuestion struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// LoadCodexFile reads a YAML codex from the file at path.
func LoadCodexFile(path string) (*Codex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codex: open %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCodexFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("codex: parse %q: %w", path, err)
	}
	return c, nil
}

// LoadCodexFromReader decodes a YAML codex from r. Useful in tests where
// codexes are constructed from string literals.
func LoadCodexFromReader(r io.Reader) (*Codex, error) {
	c := &Codex{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("codex: decode yaml: %w", err)
	}
	return c, nil
}
