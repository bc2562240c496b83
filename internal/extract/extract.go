// Package extract implements the mention extractor: a pipeline of
// independent lexical passes over raw generated text that yields candidate
// entity mentions with position and surrounding context.
//
// Each pass is a pure text → matches function covering one pattern family
// (quoted names, title-prefixed names, epithets, "X of Y" constructions,
// place-noun shapes, capitalized sequences, and verb-adjacent single words).
// The passes run in a fixed priority order and their results are reconciled
// in a single step: matches are sorted by start index (ties broken by pass
// priority) and kept greedily so that no two reported spans overlap.
//
// Proper-noun extraction in fantasy prose cannot rely on part-of-speech
// tagging — invented words, rank titles, and capitalization conventions
// defeat generic NER — so the extractor is a layered, explainable pattern
// pipeline that stays auditable and tunable without a model dependency.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/MrWong99/canonry/internal/lexicon"
	"github.com/MrWong99/canonry/pkg/canon"
)

const (
	// defaultContextRadius is the window of surrounding characters
	// captured with each mention for context-based classification.
	defaultContextRadius = 60

	// defaultVerbWindow is how far a standalone capitalized word may sit
	// from a creation/ownership verb phrase and still be extracted.
	defaultVerbWindow = 50
)

// Option is a functional option for configuring an [Extractor].
type Option func(*Extractor)

// WithContextRadius sets the context window radius in characters.
// Default: 60.
func WithContextRadius(radius int) Option {
	return func(e *Extractor) {
		if radius > 0 {
			e.contextRadius = radius
		}
	}
}

// WithVerbWindow sets the search window around creation/ownership verb
// phrases in characters. Default: 50.
func WithVerbWindow(window int) Option {
	return func(e *Extractor) {
		if window > 0 {
			e.verbWindow = window
		}
	}
}

// Extractor runs the extraction passes. It is read-only after construction
// and safe for concurrent use.
type Extractor struct {
	contextRadius int
	verbWindow    int
}

// New returns an [Extractor] configured with the supplied options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		contextRadius: defaultContextRadius,
		verbWindow:    defaultVerbWindow,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// span is one raw pass match before reconciliation.
type span struct {
	text  string
	start int
	end   int
	pass  int
}

// Extract runs all passes over text and returns the ordered, deduplicated
// candidate mentions. selfName is the name of the entity currently being
// authored; spans equal to or contained in it (case-insensitive) are
// excluded so an entity never discovers itself. Pass "" when no entity is
// being authored.
//
// The result is deterministic: the same text always yields the same
// mentions in the same order.
func (e *Extractor) Extract(text, selfName string) []canon.CandidateMention {
	var all []span
	for i, p := range passes {
		for _, s := range p(text, e.verbWindow) {
			s.pass = i
			if e.excluded(s, selfName) {
				continue
			}
			all = append(all, s)
		}
	}

	// Reconcile: earliest start wins; ties go to the higher-priority pass,
	// then to the longer span.
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		if all[i].pass != all[j].pass {
			return all[i].pass < all[j].pass
		}
		return all[i].end > all[j].end
	})

	starters := sentenceStarters(text)

	var (
		mentions []canon.CandidateMention
		seen     = map[string]struct{}{}
		cursor   int
	)
	for _, s := range all {
		if s.start < cursor {
			continue // overlaps an already accepted span
		}
		key := strings.ToLower(s.text)
		if _, dup := seen[key]; dup {
			continue // first occurrence wins
		}
		// Final filter: recurring capitalized common nouns. A single-word
		// match, or one that also starts a sentence elsewhere, is dropped
		// when the ignore table knows it.
		if singleWord(s.text) || starterElsewhere(starters, s, key) {
			if lexicon.IsIgnored(s.text) {
				continue
			}
		}
		seen[key] = struct{}{}
		cursor = s.end
		mentions = append(mentions, canon.CandidateMention{
			Text:    s.text,
			Start:   s.start,
			End:     s.end,
			Context: window(text, s.start, s.end, e.contextRadius),
		})
	}
	return mentions
}

// excluded applies the per-pass exclusion rules: the self-reference name,
// known spell names, and — for the loose passes (7–9) — the ignore table.
func (e *Extractor) excluded(s span, selfName string) bool {
	if selfName != "" {
		lowerSelf := strings.ToLower(selfName)
		lowerText := strings.ToLower(s.text)
		if lowerText == lowerSelf ||
			strings.Contains(lowerSelf, lowerText) ||
			strings.Contains(lowerText, lowerSelf) {
			return true
		}
	}
	if lexicon.IsSpellName(s.text) {
		return true
	}
	if s.pass >= passMultiCap && lexicon.IsIgnored(s.text) {
		return true
	}
	return false
}

// window returns the context slice of radius characters around [start, end).
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func singleWord(s string) bool { return !strings.ContainsRune(s, ' ') }

// starterElsewhere reports whether the span's first word also begins a
// sentence at a position other than the span itself.
func starterElsewhere(starters map[string][]int, s span, lowerKey string) bool {
	first, _, _ := strings.Cut(lowerKey, " ")
	for _, pos := range starters[first] {
		if pos != s.start {
			return true
		}
	}
	return false
}

var sentenceStartPat = regexp.MustCompile(`(?:^|[.!?]\s+)([A-Z][a-z']+)`)

// sentenceStarters maps each lowercased sentence-initial word to the
// positions where it starts a sentence.
func sentenceStarters(text string) map[string][]int {
	out := map[string][]int{}
	for _, idx := range sentenceStartPat.FindAllStringSubmatchIndex(text, -1) {
		word := strings.ToLower(text[idx[2]:idx[3]])
		out[word] = append(out[word], idx[2])
	}
	return out
}
