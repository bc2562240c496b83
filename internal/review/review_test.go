package review

import (
	"errors"
	"testing"

	"github.com/MrWong99/canonry/pkg/canon"
)

func scanResult() canon.ScanResult {
	return canon.ScanResult{
		Discoveries: []canon.Discovery{
			{ID: "npc-tharivol", SuggestedType: canon.EntityNPC, Text: "Tharivol", Status: canon.DiscoveryPending},
			{ID: "location-duskhollow", SuggestedType: canon.EntityLocation, Text: "Duskhollow", Status: canon.DiscoveryPending},
		},
		Conflicts: []canon.Conflict{
			{ID: "duplicate_name-grak", Type: canon.ConflictDuplicateName, Resolution: canon.ResolutionPending},
		},
	}
}

func TestResolveDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("pending to create_stub", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
			t.Fatalf("ResolveDiscovery: %v", err)
		}
		if got := s.Discoveries()[0].Status; got != canon.DiscoveryCreateStub {
			t.Errorf("Status = %q", got)
		}
	})

	t.Run("link requires target", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryLinkExisting, ""); !errors.Is(err, ErrMissingLink) {
			t.Fatalf("err = %v, want ErrMissingLink", err)
		}
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryLinkExisting, "e1"); err != nil {
			t.Fatalf("ResolveDiscovery with target: %v", err)
		}
		if got := s.Discoveries()[0].LinkedEntityID; got != "e1" {
			t.Errorf("LinkedEntityID = %q, want e1", got)
		}
	})

	t.Run("ignore can be reversed to create_stub", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryIgnore, ""); err != nil {
			t.Fatalf("ignore: %v", err)
		}
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
			t.Fatalf("ignore → create_stub: %v", err)
		}
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryIgnore, ""); err != nil {
			t.Fatalf("create_stub → ignore: %v", err)
		}
	})

	t.Run("ignore cannot become link_existing", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryIgnore, ""); err != nil {
			t.Fatalf("ignore: %v", err)
		}
		err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryLinkExisting, "e1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("cannot return to pending", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryPending, "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		s := NewSession(scanResult())
		err := s.ResolveDiscovery("npc-nobody", canon.DiscoveryIgnore, "")
		if !errors.Is(err, ErrUnknownDiscovery) {
			t.Errorf("err = %v, want ErrUnknownDiscovery", err)
		}
	})
}

func TestResolveConflict_OneWay(t *testing.T) {
	t.Parallel()

	s := NewSession(scanResult())
	if err := s.ResolveConflict("duplicate_name-grak", canon.ResolutionKeepNew); err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	err := s.ResolveConflict("duplicate_name-grak", canon.ResolutionRename)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-resolution err = %v, want ErrInvalidTransition", err)
	}
	if got := s.Conflicts()[0].Resolution; got != canon.ResolutionKeepNew {
		t.Errorf("Resolution = %q, want keep_new", got)
	}

	if err := s.ResolveConflict("nope", canon.ResolutionIgnore); !errors.Is(err, ErrUnknownConflict) {
		t.Errorf("unknown conflict err = %v", err)
	}
}

func TestCanCommit(t *testing.T) {
	t.Parallel()

	s := NewSession(scanResult())
	if s.CanCommit() {
		t.Fatal("CanCommit with pending items")
	}

	if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
		t.Fatal(err)
	}
	if s.CanCommit() {
		t.Fatal("CanCommit with one discovery and the conflict still pending")
	}

	if err := s.ResolveDiscovery("location-duskhollow", canon.DiscoveryIgnore, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.ResolveConflict("duplicate_name-grak", canon.ResolutionKeepNew); err != nil {
		t.Fatal(err)
	}
	if !s.CanCommit() {
		t.Fatal("CanCommit should pass once everything is resolved")
	}
}

func TestRescan_CarriesDecisionsByIdentity(t *testing.T) {
	t.Parallel()

	s := NewSession(scanResult())
	if err := s.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkStub("npc-tharivol", "stub-npc-tharivol"); err != nil {
		t.Fatal(err)
	}
	if err := s.ResolveConflict("duplicate_name-grak", canon.ResolutionKeepExisting); err != nil {
		t.Fatal(err)
	}

	// Same names at new positions, one discovery gone, one brand new.
	s.Rescan(canon.ScanResult{
		Discoveries: []canon.Discovery{
			{ID: "npc-tharivol", SuggestedType: canon.EntityNPC, Text: "Tharivol", Start: 99, Status: canon.DiscoveryPending},
			{ID: "item-moonfall-blade", SuggestedType: canon.EntityItem, Text: "Moonfall Blade", Status: canon.DiscoveryPending},
		},
		Conflicts: []canon.Conflict{
			{ID: "duplicate_name-grak", Type: canon.ConflictDuplicateName, Resolution: canon.ResolutionPending},
		},
	})

	ds := s.Discoveries()
	if len(ds) != 2 {
		t.Fatalf("discoveries = %d, want 2", len(ds))
	}
	if ds[0].Status != canon.DiscoveryCreateStub || ds[0].StubID != "stub-npc-tharivol" {
		t.Errorf("carried discovery = %+v", ds[0])
	}
	if ds[0].Start != 99 {
		t.Errorf("Start not refreshed from new scan: %d", ds[0].Start)
	}
	if ds[1].Status != canon.DiscoveryPending {
		t.Errorf("new discovery should be pending, got %q", ds[1].Status)
	}
	if got := s.Conflicts()[0].Resolution; got != canon.ResolutionKeepExisting {
		t.Errorf("conflict resolution not carried: %q", got)
	}
}

func TestMarkStub_UnknownDiscovery(t *testing.T) {
	t.Parallel()

	s := NewSession(scanResult())
	if err := s.MarkStub("npc-nobody", "stub-x"); !errors.Is(err, ErrUnknownDiscovery) {
		t.Errorf("err = %v, want ErrUnknownDiscovery", err)
	}
}
