package canon

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNPCPayload(t *testing.T) {
	t.Parallel()

	p := NPCPayload{
		Name:        "Mira Thorsdottir",
		Role:        "innkeeper",
		Location:    "Duskhollow",
		Personality: "Warm but guarded.",
		Hooks:       []string{"owes the Ashen Compact a debt"},
		Facts:       []FactSeed{{Content: "Keeps a ledger of every guest.", Category: "secret"}},
	}

	if p.Kind() != EntityNPC {
		t.Errorf("Kind = %q, want npc", p.Kind())
	}
	if p.EntityName() != "Mira Thorsdottir" {
		t.Errorf("EntityName = %q", p.EntityName())
	}
	if !strings.Contains(p.Text(), "Warm but guarded.") || !strings.Contains(p.Text(), "owes the Ashen Compact") {
		t.Errorf("Text missing content: %q", p.Text())
	}

	want := map[string]any{
		"role":        "innkeeper",
		"location":    "Duskhollow",
		"personality": "Warm but guarded.",
		"hooks":       []string{"owes the Ashen Compact a debt"},
	}
	if diff := cmp.Diff(want, p.Attributes()); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
	if len(p.FactSeeds()) != 1 {
		t.Errorf("FactSeeds = %d, want 1", len(p.FactSeeds()))
	}
}

func TestLocationPayload_EmptyFieldsOmitted(t *testing.T) {
	t.Parallel()

	p := LocationPayload{Name: "Duskhollow", Description: "A mist-cloaked mining town."}

	attrs := p.Attributes()
	if _, ok := attrs["region"]; ok {
		t.Error("empty region should not appear in attributes")
	}
	if _, ok := attrs["points_of_interest"]; ok {
		t.Error("empty points_of_interest should not appear in attributes")
	}
	if attrs["description"] != "A mist-cloaked mining town." {
		t.Errorf("description = %v", attrs["description"])
	}
}

func TestPayloadKinds(t *testing.T) {
	t.Parallel()

	payloads := []struct {
		p    Payload
		want EntityType
	}{
		{NPCPayload{Name: "a"}, EntityNPC},
		{LocationPayload{Name: "b"}, EntityLocation},
		{ItemPayload{Name: "c"}, EntityItem},
		{FactionPayload{Name: "d"}, EntityFaction},
		{QuestPayload{Name: "e"}, EntityQuest},
		{CreaturePayload{Name: "f"}, EntityCreature},
	}
	for _, tc := range payloads {
		if got := tc.p.Kind(); got != tc.want {
			t.Errorf("%T.Kind() = %q, want %q", tc.p, got, tc.want)
		}
		if !tc.p.Kind().IsValid() {
			t.Errorf("%T.Kind() reported invalid", tc.p)
		}
	}
}
