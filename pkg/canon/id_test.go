package canon

import "testing"

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Tharivol", "tharivol"},
		{"spaces", "Whispering Glade", "whispering-glade"},
		{"apostrophe", "Moonfall D'Arc", "moonfall-d-arc"},
		{"punctuation runs", "The  --  Gilded   Serpent!!", "the-gilded-serpent"},
		{"leading and trailing noise", "  'Eldrinax'  ", "eldrinax"},
		{"digits kept", "Route 66", "route-66"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tc.in); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDiscoveryID_StableAcrossPositions(t *testing.T) {
	t.Parallel()

	a := DiscoveryID(EntityNPC, "Tharivol")
	b := DiscoveryID(EntityNPC, "tharivol")
	if a != b {
		t.Errorf("same name should yield same ID: %q vs %q", a, b)
	}
	if a != "npc-tharivol" {
		t.Errorf("DiscoveryID = %q, want %q", a, "npc-tharivol")
	}
}

func TestTypeOfDiscoveryID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want EntityType
	}{
		{"npc-tharivol", EntityNPC},
		{"location-whispering-glade", EntityLocation},
		{"item-moonfall-blade", EntityItem},
		{"faction-gilded-serpent", EntityFaction},
		{"bogus-name", EntityOther},
		{"noprefix", EntityOther},
		{"", EntityOther},
	}

	for _, tc := range tests {
		if got := TypeOfDiscoveryID(tc.id); got != tc.want {
			t.Errorf("TypeOfDiscoveryID(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
