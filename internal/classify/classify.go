// Package classify assigns a best-guess entity category to a candidate
// mention using an ordered list of heuristic rules — first match wins.
//
// The rules inspect the mention text itself first (title prefixes, epithet
// and place-noun shapes, indicator words), then fall back to the surrounding
// context window (travel prepositions, faction nouns, possession verbs,
// speech verbs, quest vocabulary). Characters dominate tabletop prose, so
// npc is the default when nothing else matches.
package classify

import (
	"strings"

	"github.com/MrWong99/canonry/internal/lexicon"
	"github.com/MrWong99/canonry/pkg/canon"
)

// Classify returns the best-guess entity type for the mention.
//
// Ignore-listed and known spell names always classify as
// [canon.EntityOther], regardless of context.
func Classify(m canon.CandidateMention) canon.EntityType {
	text := strings.TrimSpace(m.Text)

	// Known non-entities win over everything.
	if lexicon.IsIgnored(text) || lexicon.IsSpellName(text) {
		return canon.EntityOther
	}

	// Shape of the mention itself.
	if lexicon.HasTitlePrefix(text) || isEpithetShape(text) {
		return canon.EntityNPC
	}
	if isAdjPlaceShape(text) {
		return canon.EntityLocation
	}

	// Indicator words inside the mention text, location > faction > item.
	switch {
	case lexicon.ContainsAnyWord(text, lexicon.PlaceNouns):
		return canon.EntityLocation
	case lexicon.ContainsAnyWord(text, lexicon.FactionNouns):
		return canon.EntityFaction
	case lexicon.ContainsAnyWord(text, lexicon.ItemNouns):
		return canon.EntityItem
	}

	// A name directly after a creation/ownership phrase is its agent —
	// "forged by Tharivol" names the smith, not the blade.
	if precededByCreationPhrase(m) {
		return canon.EntityNPC
	}

	// Context indicators, in the same priority order, then quests.
	switch {
	case lexicon.ContainsAnyPhrase(m.Context, lexicon.LocationContext):
		return canon.EntityLocation
	case lexicon.ContainsAnyPhrase(m.Context, lexicon.FactionContext):
		return canon.EntityFaction
	case lexicon.ContainsAnyPhrase(m.Context, lexicon.ItemContext):
		return canon.EntityItem
	case lexicon.ContainsAnyPhrase(m.Context, lexicon.NPCContext):
		return canon.EntityNPC
	case lexicon.ContainsAnyPhrase(m.Context, lexicon.QuestContext):
		return canon.EntityQuest
	}

	// "First Last" with no other signal reads as a person, and npc is the
	// dominant category in this domain either way.
	return canon.EntityNPC
}

// isEpithetShape reports the "Name the Epithet" pattern.
func isEpithetShape(text string) bool {
	words := strings.Fields(text)
	return len(words) == 3 && words[1] == "the" &&
		isCapitalized(words[0]) && isCapitalized(words[2])
}

// isAdjPlaceShape reports the "Adjective PlaceNoun" pattern
// ("Whispering Glade", "Obsidian Spire").
func isAdjPlaceShape(text string) bool {
	words := strings.Fields(text)
	return len(words) >= 2 && lexicon.IsPlaceNoun(words[len(words)-1])
}

// precededByCreationPhrase reports whether the text immediately before the
// mention inside its context window ends with a creation/ownership phrase.
func precededByCreationPhrase(m canon.CandidateMention) bool {
	at := strings.Index(m.Context, m.Text)
	if at < 0 {
		return false
	}
	prefix := strings.ToLower(strings.TrimRight(m.Context[:at], " "))
	for _, phrase := range lexicon.CreationVerbPhrases {
		if strings.HasSuffix(prefix, phrase) {
			return true
		}
	}
	return false
}

func isCapitalized(w string) bool {
	return w != "" && w[0] >= 'A' && w[0] <= 'Z'
}
