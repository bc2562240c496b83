package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/canonry/pkg/canon"
)

// texts returns just the mention texts, in order.
func texts(mentions []canon.CandidateMention) []string {
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, m.Text)
	}
	return out
}

func TestExtract_QuotedName(t *testing.T) {
	t.Parallel()

	got := New().Extract(`She pointed at the map and said "Duskhollow" twice.`, "")
	if diff := cmp.Diff([]string{"Duskhollow"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_TitledNames(t *testing.T) {
	t.Parallel()

	text := "Captain Elara Voss bowed before Queen Maravel II."
	got := New().Extract(text, "")
	if diff := cmp.Diff([]string{"Captain Elara Voss", "Queen Maravel II"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Epithet(t *testing.T) {
	t.Parallel()

	got := New().Extract("Eldrinax the Undying rose from the barrow.", "")
	if diff := cmp.Diff([]string{"Eldrinax the Undying"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_NameOfConstruction(t *testing.T) {
	t.Parallel()

	got := New().Extract("They sought the Temple of the Silver Flame.", "")
	if diff := cmp.Diff([]string{"Temple of the Silver Flame"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_TheAdjectivePlace(t *testing.T) {
	t.Parallel()

	got := New().Extract("They sheltered in the Whispering Glade overnight.", "")
	if diff := cmp.Diff([]string{"Whispering Glade"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_PlaceNounOfName(t *testing.T) {
	t.Parallel()

	got := New().Extract("The caravan left for the city of Duskhollow at dawn.", "")
	if diff := cmp.Diff([]string{"Duskhollow"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_VerbAdjacentSingleName(t *testing.T) {
	t.Parallel()

	// A single-token name is invisible to the multi-word passes but sits
	// next to a creation phrase; a place construction follows in the same
	// sentence. Both must come out, each exactly once.
	text := "The blade was forged by Tharivol in the city of Duskhollow."
	got := New().Extract(text, "")
	if diff := cmp.Diff([]string{"Tharivol", "Duskhollow"}, texts(got)); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
	for _, m := range got {
		if text[m.Start:m.End] != m.Text {
			t.Errorf("span [%d,%d) does not round-trip: %q", m.Start, m.End, m.Text)
		}
	}
}

func TestExtract_SelfNameExcluded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		self string
	}{
		{"exact", "Eldrinax the Undying"},
		{"mention contains self", "Eldrinax"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := New().Extract("Eldrinax the Undying rose from the barrow.", tc.self)
			if len(got) != 0 {
				t.Errorf("self-reference should be excluded, got %v", texts(got))
			}
		})
	}
}

func TestExtract_SpellNamesExcluded(t *testing.T) {
	t.Parallel()

	got := New().Extract(`He cast "Fireball" at the wall.`, "")
	if len(got) != 0 {
		t.Errorf("spell name should be excluded, got %v", texts(got))
	}
}

func TestExtract_IgnoreTableOnLoosePasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"jargon after punctuation", "The battle raged. Initiative was rolled."},
		{"meta term as capitalized sequence", "We cheered for The Party loudly."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := New().Extract(tc.text, ""); len(got) != 0 {
				t.Errorf("ignored jargon leaked through: %v", texts(got))
			}
		})
	}
}

func TestExtract_DuplicateMentionFirstWins(t *testing.T) {
	t.Parallel()

	text := "They reached the city of Duskhollow. Duskhollow was silent."
	got := New().Extract(text, "")
	if diff := cmp.Diff([]string{"Duskhollow"}, texts(got)); diff != "" {
		t.Fatalf("mentions mismatch (-want +got):\n%s", diff)
	}
	first := strings.Index(text, "Duskhollow")
	if got[0].Start != first {
		t.Errorf("Start = %d, want first occurrence at %d", got[0].Start, first)
	}
}

func TestExtract_SpansDoNotOverlap(t *testing.T) {
	t.Parallel()

	text := "Captain Elara Voss of the Gilded Serpent met Eldrinax the Undying " +
		"near the Whispering Glade. The blade was forged by Tharivol."
	got := New().Extract(text, "")
	if len(got) == 0 {
		t.Fatal("expected mentions")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].End {
			t.Errorf("spans overlap: [%d,%d) %q and [%d,%d) %q",
				got[i-1].Start, got[i-1].End, got[i-1].Text,
				got[i].Start, got[i].End, got[i].Text)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	text := "Queen Maravel sent Captain Elara Voss to the city of Duskhollow, " +
		"where Eldrinax the Undying guards the Moonfall Blade forged by Tharivol."
	e := New()
	a := e.Extract(text, "")
	b := e.Extract(text, "")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("extraction not deterministic (-first +second):\n%s", diff)
	}
}

func TestExtract_ContextWindow(t *testing.T) {
	t.Parallel()

	text := "The blade was forged by Tharivol in the hills."
	got := New(WithContextRadius(10)).Extract(text, "")
	if len(got) == 0 {
		t.Fatal("expected a mention")
	}
	m := got[0]
	if !strings.Contains(m.Context, m.Text) {
		t.Errorf("context %q does not contain mention %q", m.Context, m.Text)
	}
	if want := len(m.Text) + 20; len(m.Context) > want {
		t.Errorf("context length = %d, want <= %d", len(m.Context), want)
	}
}
