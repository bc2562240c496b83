// Package lexicon holds the static lookup data of the consistency engine:
// the ignore list of domain jargon that must never be treated as an entity,
// and the indicator vocabularies (titles, place nouns, faction nouns, item
// nouns, leadership roles, creation verbs) used by the mention extractor and
// the entity classifier.
//
// Everything here is deliberately closed-world and explainable: the engine
// is a deterministic heuristic pipeline tuned to fantasy/tabletop
// proper-noun conventions, not a general NER system. Tuning happens by
// editing these tables, not by training anything.
package lexicon

import (
	"maps"
	"slices"
	"strings"
)

// ignoreList is domain jargon that recurs capitalized in tabletop prose but
// never names a world entity. Matching is case-insensitive.
var ignoreList = toSet([]string{
	// Rules vocabulary.
	"armor class", "hit points", "hit dice", "saving throw", "saving throws",
	"difficulty class", "initiative", "advantage", "disadvantage",
	"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma",
	"perception", "stealth", "arcana", "athletics", "insight", "persuasion",
	"intimidation", "investigation", "survival", "religion", "deception",
	// Table roles and meta terms.
	"game master", "dungeon master", "player", "players", "party", "the party",
	"campaign", "session", "adventure", "encounter", "quest log", "downtime",
	// Generic capitalized nouns that keep starting sentences.
	"the", "then", "there", "this", "that", "these", "those", "they",
	"however", "meanwhile", "suddenly", "later", "afterwards", "tonight",
	"yesterday", "tomorrow", "north", "south", "east", "west", "beyond",
	"inside", "outside", "nearby", "legend", "legends", "rumor", "rumors",
	"gold", "silver", "copper", "common", "elvish", "dwarvish", "draconic",
})

// IgnoredTerms returns every term on the ignore list, sorted, for callers
// that need to enumerate the table rather than test a single candidate.
func IgnoredTerms() []string {
	return slices.Sorted(maps.Keys(ignoreList))
}

// IsIgnored reports whether s is on the ignore list (case-insensitive).
func IsIgnored(s string) bool {
	_, ok := ignoreList[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Titles is the closed vocabulary of rank/title words that prefix personal
// names ("Captain Elara Voss", "High Priest Maron"). Multi-word titles come
// first so regex alternations built from this slice match greedily.
var Titles = []string{
	"High Priestess", "High Priest", "Grand Duke", "Grand Duchess",
	"Archmage", "Archdruid", "Warlord", "Guildmaster", "Chieftain",
	"King", "Queen", "Prince", "Princess", "Emperor", "Empress",
	"Lord", "Lady", "Sir", "Dame", "Duke", "Duchess", "Baron", "Baroness",
	"Count", "Countess", "Captain", "Commander", "General", "Sergeant",
	"Elder", "Chief", "Master", "Mistress", "Brother", "Sister",
	"Saint", "Abbot", "Abbess", "Bishop", "Priestess", "Priest",
	"Mage", "Wizard", "Doctor", "Professor",
}

// HasTitlePrefix reports whether text starts with one of the known titles
// followed by a space (case-insensitive).
func HasTitlePrefix(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range Titles {
		lt := strings.ToLower(t)
		if strings.HasPrefix(lower, lt+" ") {
			return true
		}
	}
	return false
}

// PlaceNouns are place-type nouns used by the "the Adjective Noun" and
// "noun of [the] Name" extraction passes and by the classifier.
var PlaceNouns = []string{
	"keep", "glade", "spire", "citadel", "tower", "hold", "gate", "bridge",
	"harbor", "port", "vale", "valley", "wood", "woods", "forest", "marsh",
	"mire", "fen", "moor", "peak", "crag", "hollow", "barrow", "mount",
	"isle", "island", "reach", "pass", "falls", "ford", "crossing", "den",
	"lair", "sanctum", "temple", "shrine", "abbey", "monastery", "fortress",
	"bastion", "quarter", "district", "ward", "market", "plaza", "square",
	"crypt", "tomb", "catacombs", "mine", "quarry", "plains", "steppe",
	"coast", "shore", "bay", "lake", "river", "city", "town", "village",
	"kingdom", "realm", "expanse", "waste",
}

var placeNounSet = toSet(PlaceNouns)

// IsPlaceNoun reports whether word is a known place-type noun
// (case-insensitive).
func IsPlaceNoun(word string) bool {
	_, ok := placeNounSet[strings.ToLower(word)]
	return ok
}

// FactionNouns indicate organisations when present inside a mention or its
// context window.
var FactionNouns = []string{
	"guild", "order", "brotherhood", "sisterhood", "circle", "covenant",
	"syndicate", "cabal", "company", "legion", "clan", "tribe", "house",
	"court", "council", "conclave", "church", "cult", "sect", "band",
	"crew", "pact", "alliance", "league", "consortium", "fellowship",
}

// ItemNouns indicate objects and artifacts when present inside a mention or
// its context window.
var ItemNouns = []string{
	"sword", "blade", "axe", "hammer", "spear", "bow", "dagger", "staff",
	"wand", "orb", "amulet", "ring", "crown", "cloak", "shield", "helm",
	"gauntlet", "tome", "grimoire", "scroll", "potion", "elixir", "relic",
	"talisman", "chalice", "horn", "banner", "key", "lantern", "mirror",
	"gem", "jewel", "pendant",
}

// ContainsAnyWord reports whether any word of the vocabulary appears as a
// whole word in s (case-insensitive).
func ContainsAnyWord(s string, vocab []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
	for _, f := range fields {
		for _, v := range vocab {
			if f == v {
				return true
			}
		}
	}
	return false
}

// ContainsAnyPhrase reports whether any phrase of the vocabulary appears as
// a substring of s (case-insensitive). Used for multi-word context
// indicators like "forged by" or "north of".
func ContainsAnyPhrase(s string, vocab []string) bool {
	lower := strings.ToLower(s)
	for _, v := range vocab {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// leadershipVocab is the fixed vocabulary of leadership titles used by the
// role-collision check. Matching is a case-insensitive substring test so
// that "Guildmaster of the Docks" still registers as a leadership role.
var leadershipVocab = []string{
	"leader", "guildmaster", "chieftain", "chief", "king", "queen",
	"captain", "commander", "high priest", "high priestess", "archmage",
	"warlord", "matriarch", "patriarch", "elder", "boss", "head of",
}

// IsLeadershipRole reports whether role contains one of the known
// leadership titles (case-insensitive substring test).
func IsLeadershipRole(role string) bool {
	return ContainsAnyPhrase(role, leadershipVocab)
}

// OwnershipRoles indicate that an inhabitant owns or runs a location. Used
// by the minter's location enrichment step to pick an owner among
// discovered inhabitants.
var OwnershipRoles = []string{
	"owner", "proprietor", "keeper", "innkeeper", "shopkeeper", "landlord",
	"barkeep", "master", "matron", "warden", "steward",
}

// spellNames are well-known incantations that read like proper nouns but
// must never become discoveries.
var spellNames = toSet([]string{
	"fireball", "counterspell", "misty step", "eldritch blast",
	"magic missile", "mage hand", "prestidigitation", "dispel magic",
	"detect magic", "cure wounds", "healing word", "thunderwave",
	"invisibility", "haste", "polymorph", "banishment", "teleport",
	"dimension door", "lightning bolt", "cone of cold", "power word kill",
	"hold person", "charm person", "bless", "bane", "guidance",
})

// IsSpellName reports whether s is a known spell or incantation name
// (case-insensitive).
func IsSpellName(s string) bool {
	_, ok := spellNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CreationVerbPhrases are creation/ownership verb phrases. A standalone
// capitalized word within a fixed window of one of these is treated as a
// probable personal or item name by the extractor's final pass.
var CreationVerbPhrases = []string{
	"forged by", "owned by", "known as", "called", "named", "crafted by",
	"wielded by", "carried by", "founded by", "built by", "ruled by",
	"led by", "blessed by", "cursed by", "belonged to", "gifted to",
}

// Stopwords are words that may legitimately appear capitalized without
// naming anything. A multi-word candidate consisting only of stopwords is
// discarded.
var Stopwords = toSet([]string{
	"the", "a", "an", "of", "in", "on", "at", "and", "but", "or", "nor",
	"for", "yet", "so", "to", "from", "with", "by", "as", "if", "then",
	"he", "she", "it", "they", "we", "i", "you", "his", "her", "its",
	"their", "our", "my", "your", "was", "were", "is", "are", "be", "been",
	"no", "not", "all", "some", "any", "each", "every",
})

// IsStopword reports whether word is a stopword (case-insensitive).
func IsStopword(word string) bool {
	_, ok := Stopwords[strings.ToLower(word)]
	return ok
}

// Context indicator phrase families for the classifier, checked against the
// mention's surrounding window in priority order.
var (
	// LocationContext signals a place: prepositions of travel and
	// position plus settlement phrases.
	LocationContext = []string{
		"in the", "at the", "near", "north of", "south of", "east of",
		"west of", "traveled to", "travelled to", "arrived at",
		"journey to", "road to", "city of", "town of", "village of",
		"walls of", "streets of", "gates of",
	}

	// FactionContext signals an organisation.
	FactionContext = []string{
		"member of", "sworn to", "allied with", "loyal to", "joined",
		"guild", "order of", "banner of", "ranks of",
	}

	// ItemContext signals an object: creation and possession verbs.
	ItemContext = []string{
		"forged", "crafted", "enchanted", "wields", "wielded", "carries",
		"carried", "holds", "bears", "sheathed", "hilt of",
	}

	// NPCContext signals a person: speech and action verbs, pronouns.
	NPCContext = []string{
		"said", "says", "spoke", "whispered", "shouted", "smiled",
		"laughed", "nodded", "replied", "asked", "told", " he ", " she ",
		" his ", " her ",
	}

	// QuestContext signals a quest or mission.
	QuestContext = []string{
		"quest", "task", "mission", "bounty", "contract", "prophecy",
		"oath", "vow", "sworn quest",
	}
)

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
