package classify

import (
	"testing"

	"github.com/MrWong99/canonry/internal/lexicon"
	"github.com/MrWong99/canonry/pkg/canon"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mention canon.CandidateMention
		want    canon.EntityType
	}{
		{
			name:    "title prefix is a person",
			mention: canon.CandidateMention{Text: "Captain Elara Voss"},
			want:    canon.EntityNPC,
		},
		{
			name:    "epithet shape is a person",
			mention: canon.CandidateMention{Text: "Eldrinax the Undying"},
			want:    canon.EntityNPC,
		},
		{
			name:    "adjective plus place noun is a location",
			mention: canon.CandidateMention{Text: "Whispering Glade"},
			want:    canon.EntityLocation,
		},
		{
			name:    "item noun inside the mention",
			mention: canon.CandidateMention{Text: "Moonfall Blade"},
			want:    canon.EntityItem,
		},
		{
			name:    "faction noun inside the mention",
			mention: canon.CandidateMention{Text: "Gilded Serpent Syndicate"},
			want:    canon.EntityFaction,
		},
		{
			name: "agent of a creation phrase is a person",
			mention: canon.CandidateMention{
				Text:    "Tharivol",
				Context: "The blade was forged by Tharivol in the mountains",
			},
			want: canon.EntityNPC,
		},
		{
			name: "settlement phrase in context",
			mention: canon.CandidateMention{
				Text:    "Duskhollow",
				Context: "the caravan left for the city of Duskhollow at dawn",
			},
			want: canon.EntityLocation,
		},
		{
			name: "membership phrase in context",
			mention: canon.CandidateMention{
				Text:    "Ashen Compact",
				Context: "a member of the Ashen Compact",
			},
			want: canon.EntityFaction,
		},
		{
			name: "possession verb in context",
			mention: canon.CandidateMention{
				Text:    "Duskrender",
				Context: "wields Duskrender in battle",
			},
			want: canon.EntityItem,
		},
		{
			name: "quest vocabulary in context",
			mention: canon.CandidateMention{
				Text:    "Crimson Oath",
				Context: "bound by the Crimson Oath until death",
			},
			want: canon.EntityQuest,
		},
		{
			name:    "ignore-listed term",
			mention: canon.CandidateMention{Text: "The Party"},
			want:    canon.EntityOther,
		},
		{
			name:    "spell name",
			mention: canon.CandidateMention{Text: "Fireball"},
			want:    canon.EntityOther,
		},
		{
			name:    "two capitalized words with no signal default to npc",
			mention: canon.CandidateMention{Text: "Mira Thorsdottir"},
			want:    canon.EntityNPC,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.mention); got != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.mention.Text, got, tc.want)
			}
		})
	}
}

func TestClassify_IgnoredTermsAlwaysOther(t *testing.T) {
	t.Parallel()

	// The ignore rule must win over every context heuristic, so cycle
	// through windows that would otherwise suggest a location, an item,
	// a faction, and a person.
	contexts := []string{
		"the caravan traveled to the city of walls at dawn",
		"the blade was forged by unseen hands in the deep",
		"a sworn member of the guild said it quietly",
		"she whispered and he nodded in reply",
	}
	for i, term := range lexicon.IgnoredTerms() {
		m := canon.CandidateMention{Text: term, Context: contexts[i%len(contexts)]}
		if got := Classify(m); got != canon.EntityOther {
			t.Errorf("Classify(%q) in context %q = %q, want %q", term, m.Context, got, canon.EntityOther)
		}
	}
}
