package forge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/canonry/internal/mint"
	"github.com/MrWong99/canonry/internal/review"
	"github.com/MrWong99/canonry/internal/storage/memstore"
	"github.com/MrWong99/canonry/internal/validate"
	"github.com/MrWong99/canonry/pkg/canon"
)

const campaign = "camp-1"

func seededStore(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	entities := []canon.Entity{
		{ID: "e1", CampaignID: campaign, Type: canon.EntityNPC, Name: "Eldrinax the Undying"},
		{ID: "e2", CampaignID: campaign, Type: canon.EntityLocation, Name: "Duskhollow"},
	}
	if _, err := store.BulkImport(context.Background(), entities); err != nil {
		t.Fatal(err)
	}
	return store
}

func newEngine(store *memstore.Store) *Engine {
	minter := mint.New(store, store, store,
		mint.WithClock(func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }),
		mint.WithIDGenerator(func() string { return "forged-1" }),
	)
	return New(store, store, minter)
}

type failingCatalog struct{}

func (failingCatalog) Entities(context.Context, string) ([]canon.Entity, error) {
	return nil, errors.New("connection refused")
}

type failingCodex struct{}

func (failingCodex) Codex(context.Context, string) (*canon.Codex, error) {
	return nil, errors.New("connection refused")
}

func TestScanGeneratedContent(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	e := newEngine(store)

	text := "Captain Elara Voss rode to the city of Duskhollow. " +
		"Eldrinax waited. The blade was forged by Tharivol."
	res, err := e.ScanGeneratedContent(context.Background(), campaign, ScanRequest{
		EntityName: "Moonfall Blade",
		Kind:       canon.EntityItem,
		Text:       text,
	})
	if err != nil {
		t.Fatalf("ScanGeneratedContent: %v", err)
	}

	var discovered []string
	for _, d := range res.Discoveries {
		discovered = append(discovered, d.ID)
		if d.Status != canon.DiscoveryPending {
			t.Errorf("discovery %s status = %q, want pending", d.ID, d.Status)
		}
	}
	if diff := cmp.Diff([]string{"npc-captain-elara-voss", "npc-tharivol"}, discovered); diff != "" {
		t.Errorf("discoveries mismatch (-want +got):\n%s", diff)
	}

	var mentioned []string
	for _, m := range res.ExistingEntityMentions {
		mentioned = append(mentioned, m.ID)
	}
	if diff := cmp.Diff([]string{"e2", "e1"}, mentioned); diff != "" {
		t.Errorf("existing mentions mismatch (-want +got):\n%s", diff)
	}

	// Two discoveries against two existing references.
	if res.CanonScore != canon.ScoreMedium {
		t.Errorf("CanonScore = %q, want medium", res.CanonScore)
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("conflicts without a codex: %+v", res.Conflicts)
	}
}

func TestScanGeneratedContent_RescanYieldsSameIdentity(t *testing.T) {
	t.Parallel()

	e := newEngine(seededStore(t))
	req := func(text string) ScanRequest {
		return ScanRequest{EntityName: "Moonfall Blade", Kind: canon.EntityItem, Text: text}
	}

	first, err := e.ScanGeneratedContent(context.Background(), campaign,
		req("The blade was forged by Tharivol."))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.ScanGeneratedContent(context.Background(), campaign,
		req("In a forgotten age, the blade was forged by Tharivol."))
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Discoveries) != 1 || len(second.Discoveries) != 1 {
		t.Fatalf("discoveries = %d and %d, want 1 each", len(first.Discoveries), len(second.Discoveries))
	}
	if first.Discoveries[0].ID != second.Discoveries[0].ID {
		t.Errorf("identity not stable across rescan: %q vs %q",
			first.Discoveries[0].ID, second.Discoveries[0].ID)
	}
	if first.Discoveries[0].Start == second.Discoveries[0].Start {
		t.Error("positions should differ between the two texts")
	}
}

func TestScanGeneratedContent_CodexConflicts(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	store.SetCodex(campaign, canon.Codex{Tone: "light"})
	e := newEngine(store)

	res, err := e.ScanGeneratedContent(context.Background(), campaign, ScanRequest{
		EntityName: "Moonfall Blade",
		Kind:       canon.EntityItem,
		Text:       "A curse lingers on the hilt.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want 1", res.Conflicts)
	}
	c := res.Conflicts[0]
	if c.ID != "codex_conflict-1" || c.Type != canon.ConflictCodex {
		t.Errorf("conflict = %+v", c)
	}
	if c.Severity != canon.SeverityWarning || c.Resolution != canon.ResolutionPending {
		t.Errorf("conflict = %+v", c)
	}
}

func TestScanGeneratedContent_CatalogFailurePropagates(t *testing.T) {
	t.Parallel()

	minter := mint.New(memstore.New(), memstore.New(), memstore.New())
	e := New(failingCatalog{}, nil, minter)

	_, err := e.ScanGeneratedContent(context.Background(), campaign, ScanRequest{Text: "anything"})
	if err == nil || !strings.Contains(err.Error(), "load catalog") {
		t.Errorf("err = %v, want catalog load failure", err)
	}
}

func TestScanGeneratedContent_CodexFailureDegrades(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	minter := mint.New(store, store, store)
	e := New(store, failingCodex{}, minter)

	res, err := e.ScanGeneratedContent(context.Background(), campaign, ScanRequest{
		EntityName: "Moonfall Blade",
		Kind:       canon.EntityItem,
		Text:       "A curse lingers on the hilt.",
	})
	if err != nil {
		t.Fatalf("codex failure must degrade, not fail the scan: %v", err)
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none without a codex", res.Conflicts)
	}
}

func TestValidatePreGeneration(t *testing.T) {
	t.Parallel()

	e := newEngine(seededStore(t))

	res, err := e.ValidatePreGeneration(context.Background(), campaign, canon.EntityNPC,
		validate.Input{Name: "Eldrinax the Undying"})
	if err != nil {
		t.Fatalf("ValidatePreGeneration: %v", err)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Type != canon.ConflictDuplicateName {
		t.Errorf("conflicts = %+v", res.Conflicts)
	}
	if !res.CanProceed {
		t.Error("warning-severity conflicts must not block")
	}
}

func TestCommit_GatedOnPendingResolutions(t *testing.T) {
	t.Parallel()

	e := newEngine(seededStore(t))
	session := review.NewSession(canon.ScanResult{
		Discoveries: []canon.Discovery{
			{ID: "npc-tharivol", Text: "Tharivol", Status: canon.DiscoveryPending},
		},
	})

	_, err := e.Commit(context.Background(), campaign, canon.ItemPayload{Name: "Moonfall Blade"}, session, CommitMeta{})
	if !errors.Is(err, ErrPendingResolutions) {
		t.Fatalf("err = %v, want ErrPendingResolutions", err)
	}

	if err := session.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
		t.Fatal(err)
	}
	res, err := e.Commit(context.Background(), campaign, canon.ItemPayload{Name: "Moonfall Blade"}, session, CommitMeta{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Entity.ID != "forged-1" || len(res.Stubs) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestCreateStubEntities_MarksSession(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	e := newEngine(store)
	session := review.NewSession(canon.ScanResult{
		Discoveries: []canon.Discovery{
			{ID: "npc-tharivol", Text: "Tharivol", SuggestedType: canon.EntityNPC, Status: canon.DiscoveryPending},
		},
	})
	if err := session.ResolveDiscovery("npc-tharivol", canon.DiscoveryCreateStub, ""); err != nil {
		t.Fatal(err)
	}

	results, err := e.CreateStubEntities(context.Background(), campaign, session, canon.EntityItem)
	if err != nil {
		t.Fatalf("CreateStubEntities: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if got := session.Discoveries()[0].StubID; got != "stub-npc-tharivol" {
		t.Errorf("StubID = %q, session not marked", got)
	}

	// A subsequent commit must not mint the stub again.
	res, err := e.Commit(context.Background(), campaign, canon.ItemPayload{Name: "Moonfall Blade"}, session, CommitMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stubs) != 0 {
		t.Errorf("commit re-minted stubs: %+v", res.Stubs)
	}
}

func TestValidateAgainstCodex(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	store.SetCodex(campaign, canon.Codex{Naming: canon.NamingConvention{Style: "nordic"}})
	e := newEngine(store)

	report, err := e.ValidateAgainstCodex(context.Background(), campaign, canon.NPCPayload{Name: "Julia Moreno"})
	if err != nil {
		t.Fatal(err)
	}
	if report.IsValid || len(report.Warnings) != 1 {
		t.Errorf("report = %+v", report)
	}

	report, err = e.ValidateAgainstCodex(context.Background(), "other-campaign", canon.NPCPayload{Name: "Julia Moreno"})
	if err != nil {
		t.Fatal(err)
	}
	if !report.IsValid {
		t.Errorf("campaign without codex should validate, got %+v", report)
	}
}
