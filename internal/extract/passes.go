package extract

import (
	"regexp"
	"strings"

	"github.com/MrWong99/canonry/internal/lexicon"
)

// A pass scans text and returns raw spans for one lexical pattern family.
// Passes are pure; the verb window parameter only affects passVerbAdjacent.
type pass func(text string, verbWindow int) []span

// Pass priority order. Earlier passes take precedence on overlap.
var passes = []pass{
	passQuoted,       // 1. quoted spans beginning with a capital
	passTitled,       // 2. title-prefixed names
	passEpithet,      // 3. "Name the Epithet"
	passNameOfPlace,  // 4. "Name of [the] Place"
	passTheAdjPlace,  // 5. "the Adjective PlaceNoun"
	passPlaceOfName,  // 6. "place-noun of [the] Name" (trailing name only)
	passMultiCapSeq,  // 7. consecutive capitalized words (>= 2)
	passAfterPunct,   // 8. capitalized word after sentence punctuation
	passVerbAdjacent, // 9. capitalized word near a creation/ownership verb
}

// passMultiCap is the index from which the static ignore table applies as a
// per-pass exclusion (passes 7–9).
const passMultiCap = 6

// capWord matches one capitalized word, allowing internal apostrophes
// (fantasy prose is full of Tel'Avar and D'haran).
const capWord = `[A-Z][a-z']+`

var (
	quotedPat = regexp.MustCompile(`["\x{201C}](` + capWord + `(?:[ -]` + capWord + `)*)["\x{201D}]`)

	titledPat = regexp.MustCompile(
		`\b(?:` + strings.Join(lexicon.Titles, `|`) +
			`)(?:\s+(?:(?:the|of|de|von|van)\s+)?` + capWord + `)+(?:\s+[IVX]+\b)?`)

	epithetPat = regexp.MustCompile(`\b` + capWord + `\s+the\s+` + capWord + `\b`)

	nameOfPat = regexp.MustCompile(
		`\b` + capWord + `(?:\s+` + capWord + `)*\s+of\s+(?:the\s+)?` + capWord + `(?:\s+` + capWord + `)*\b`)

	theAdjPlacePat = regexp.MustCompile(
		`\bthe\s+(` + capWord + `\s+(?:` + strings.Join(capitalized(lexicon.PlaceNouns), `|`) + `))\b`)

	placeOfNamePat = regexp.MustCompile(
		`\b(?:` + strings.Join(lexicon.PlaceNouns, `|`) + `)\s+of\s+(?:the\s+)?(` +
			capWord + `(?:\s+` + capWord + `)*)\b`)

	multiCapPat = regexp.MustCompile(`\b` + capWord + `(?:\s+` + capWord + `)+\b`)

	afterPunctPat = regexp.MustCompile(`[.!?,:;]\s+([A-Z][a-z']{3,})\b`)

	singleCapPat = regexp.MustCompile(`\b[A-Z][a-z']{3,}\b`)
)

// capitalized upper-cases the first letter of each word, for building
// alternations that must match capitalized occurrences.
func capitalized(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return out
}

// matchAll converts whole-pattern matches into spans.
func matchAll(pat *regexp.Regexp, text string) []span {
	var out []span
	for _, idx := range pat.FindAllStringIndex(text, -1) {
		out = append(out, span{text: text[idx[0]:idx[1]], start: idx[0], end: idx[1]})
	}
	return out
}

// matchGroup converts capture-group-1 matches into spans.
func matchGroup(pat *regexp.Regexp, text string) []span {
	var out []span
	for _, idx := range pat.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, span{text: text[idx[2]:idx[3]], start: idx[2], end: idx[3]})
	}
	return out
}

func passQuoted(text string, _ int) []span {
	return matchGroup(quotedPat, text)
}

func passTitled(text string, _ int) []span {
	return matchAll(titledPat, text)
}

func passEpithet(text string, _ int) []span {
	return matchAll(epithetPat, text)
}

func passNameOfPlace(text string, _ int) []span {
	return matchAll(nameOfPat, text)
}

func passTheAdjPlace(text string, _ int) []span {
	return matchGroup(theAdjPlacePat, text)
}

func passPlaceOfName(text string, _ int) []span {
	return matchGroup(placeOfNamePat, text)
}

func passMultiCapSeq(text string, _ int) []span {
	var out []span
	for _, s := range matchAll(multiCapPat, text) {
		if allStopwords(s.text) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func passAfterPunct(text string, _ int) []span {
	return matchGroup(afterPunctPat, text)
}

// passVerbAdjacent catches single-token personal and item names that the
// multi-word passes cannot see: a standalone capitalized word of length >= 4
// within verbWindow characters of a creation/ownership verb phrase
// ("forged by", "known as", …).
func passVerbAdjacent(text string, verbWindow int) []span {
	lower := strings.ToLower(text)
	var out []span
	for _, phrase := range lexicon.CreationVerbPhrases {
		from := 0
		for {
			rel := strings.Index(lower[from:], phrase)
			if rel < 0 {
				break
			}
			at := from + rel
			lo := at - verbWindow
			if lo < 0 {
				lo = 0
			}
			hi := at + len(phrase) + verbWindow
			if hi > len(text) {
				hi = len(text)
			}
			for _, idx := range singleCapPat.FindAllStringIndex(text[lo:hi], -1) {
				// Skip words truncated by the window edges.
				if (idx[0] == 0 && lo > 0) || (lo+idx[1] == hi && hi < len(text)) {
					continue
				}
				out = append(out, span{
					text:  text[lo+idx[0] : lo+idx[1]],
					start: lo + idx[0],
					end:   lo + idx[1],
				})
			}
			from = at + len(phrase)
		}
	}
	return out
}

// allStopwords reports whether every word of the candidate is a stopword.
func allStopwords(s string) bool {
	for _, w := range strings.Fields(s) {
		if !lexicon.IsStopword(w) {
			return false
		}
	}
	return true
}
