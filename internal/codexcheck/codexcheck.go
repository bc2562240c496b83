// Package codexcheck validates generated content against the campaign
// codex: naming-convention style, theme consistency with the campaign tone,
// and safety-preset keyword violations.
//
// Everything here is pure and read-only — the checks return warnings and
// suggestions, never errors, and never block on their own.
package codexcheck

import (
	"fmt"
	"strings"

	"github.com/MrWong99/canonry/pkg/canon"
)

// namingStyle is one keyword-triggered regional naming heuristic. A name is
// considered on-style when it carries one of the style's affixes or passes
// the style's cluster test.
type namingStyle struct {
	suffixes []string
	prefixes []string

	// vowelClusters switches the fallback cluster test from consonant
	// runs (nordic-style) to vowel runs (celtic-style).
	vowelClusters bool
	examples      []string
}

// namingStyles maps codex style keywords to their heuristics. The tests are
// tiny on purpose — they exist to nudge, not to police.
var namingStyles = map[string]namingStyle{
	"nordic": {
		suffixes: []string{"grim", "ulf", "heim", "gard", "bjorn", "dottir", "son", "vald"},
		prefixes: []string{"thor", "sig", "rag", "ast", "frey"},
		examples: []string{"Sigrun Thorsdottir", "Ragnvald Grimheim", "Astrid Freygard"},
	},
	"celtic": {
		prefixes:      []string{"ael", "bran", "cael", "gwyn", "mor", "rhi", "niam"},
		suffixes:      []string{"wen", "wyn", "an", "agh"},
		vowelClusters: true,
		examples:      []string{"Aelwen", "Branagh", "Rhiannon", "Caelan"},
	},
	"imperial": {
		suffixes: []string{"us", "ius", "ia", "illa", "anus"},
		examples: []string{"Cassius Varro", "Livia Marcella", "Tiberius Quin"},
	},
}

// darkWords and lightWords drive the theme-consistency check: dark
// vocabulary in a light-toned campaign is flagged, and vice versa.
var (
	darkWords = []string{
		"blood", "corpse", "plague", "torture", "despair", "rot", "gore",
		"curse", "doom", "dread", "carnage", "butcher", "agony", "grave",
	}
	lightWords = []string{
		"cheer", "festival", "sunshine", "laughter", "friendship", "wonder",
		"joy", "merry", "picnic", "rainbow", "whimsy", "giggle",
	}
)

// safetyExpansions maps each configurable safety topic to the fixed keyword
// set checked against serialized payload text. Every matched keyword is
// reported per topic.
var safetyExpansions = map[string][]string{
	"violence":        {"gore", "torture", "mutilation", "graphic", "dismember", "maim"},
	"horror":          {"terror", "dread", "nightmare", "eldritch", "viscera"},
	"harm to animals": {"vivisection", "skinned", "butchered animal"},
	"slavery":         {"slave", "enslaved", "shackled", "auction block"},
	"disease":         {"plague", "pox", "infection", "pestilence"},
	"self-harm":       {"self-harm", "suicide", "cutting"},
}

// Validate checks the payload's name and free-form content against the
// codex. A nil codex yields a valid, empty report — no codex means nothing
// to check, not a failure.
func Validate(payload canon.Payload, codex *canon.Codex) canon.CodexReport {
	report := canon.CodexReport{IsValid: true}
	if codex == nil {
		return report
	}

	checkNaming(&report, payload.EntityName(), codex.Naming)
	checkTheme(&report, payload.Text(), codex.Tone)
	checkSafety(&report, payload.Text(), codex.SafetyPresets)

	report.IsValid = len(report.Warnings) == 0
	return report
}

// checkNaming applies the keyword-triggered regional style heuristic.
func checkNaming(report *canon.CodexReport, name string, naming canon.NamingConvention) {
	style, ok := namingStyles[strings.ToLower(naming.Style)]
	if !ok || name == "" {
		return
	}
	if nameOnStyle(name, style) {
		return
	}

	examples := naming.Examples
	if len(examples) == 0 {
		examples = style.examples
	}
	report.Warnings = append(report.Warnings, fmt.Sprintf(
		"name %q does not follow the campaign's %s naming style", name, strings.ToLower(naming.Style)))
	report.Suggestions = append(report.Suggestions, fmt.Sprintf(
		"consider a %s-style name, e.g. %s", strings.ToLower(naming.Style), strings.Join(examples, ", ")))
}

// nameOnStyle reports whether any word of the name carries a style affix or
// passes the style's cluster test.
func nameOnStyle(name string, style namingStyle) bool {
	for _, word := range strings.Fields(strings.ToLower(name)) {
		for _, s := range style.suffixes {
			if strings.HasSuffix(word, s) {
				return true
			}
		}
		for _, p := range style.prefixes {
			if strings.HasPrefix(word, p) {
				return true
			}
		}
		if style.vowelClusters && hasVowelCluster(word) {
			return true
		}
		if !style.vowelClusters && hasConsonantCluster(word) {
			return true
		}
	}
	return false
}

func hasVowelCluster(word string) bool     { return hasRun(word, "aeiou", 3) }
func hasConsonantCluster(word string) bool { return hasRun(word, "bcdfghjklmnpqrstvwxz", 3) }

// hasRun reports a run of at least n consecutive letters from class.
func hasRun(word, class string, n int) bool {
	run := 0
	for _, r := range word {
		if strings.ContainsRune(class, r) {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// checkTheme flags vocabulary that clashes with the campaign tone.
func checkTheme(report *canon.CodexReport, text, tone string) {
	var clash []string
	switch strings.ToLower(tone) {
	case "light":
		clash = matchedWords(text, darkWords)
		if len(clash) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"dark vocabulary in a light-toned campaign: %s", strings.Join(clash, ", ")))
		}
	case "dark":
		clash = matchedWords(text, lightWords)
		if len(clash) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"light vocabulary in a dark-toned campaign: %s", strings.Join(clash, ", ")))
		}
	}
}

// checkSafety reports every matched keyword per configured safety topic.
func checkSafety(report *canon.CodexReport, text string, presets []string) {
	for _, topic := range presets {
		keywords, ok := safetyExpansions[strings.ToLower(topic)]
		if !ok {
			continue
		}
		if hits := matchedWords(text, keywords); len(hits) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"safety preset %q matched: %s", topic, strings.Join(hits, ", ")))
		}
	}
}

// matchedWords returns the keywords present in text (case-insensitive
// substring match), in vocabulary order.
func matchedWords(text string, vocab []string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, w := range vocab {
		if strings.Contains(lower, w) {
			hits = append(hits, w)
		}
	}
	return hits
}
