package interactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsintel/internal/core"
)

func newTestInteractionStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestInteractionStore(t)
	ctx := context.Background()

	profile := core.UserProfile{
		UserID:     "alice",
		Categories: []string{"sports", "technology"},
		Countries:  []string{"us"},
		Language:   "en",
	}
	if err := s.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	loaded, err := s.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if len(loaded.Categories) != 2 || loaded.Categories[0] != "sports" {
		t.Errorf("Expected categories round-tripped, got %v", loaded.Categories)
	}
	if loaded.Language != "en" {
		t.Errorf("Expected language 'en', got %q", loaded.Language)
	}
	if len(loaded.History) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(loaded.History))
	}
}

func TestProfileUnknownUser(t *testing.T) {
	s := newTestInteractionStore(t)

	_, err := s.Profile(context.Background(), "nobody")
	if !errors.Is(err, core.ErrProfileUnavailable) {
		t.Errorf("Expected ErrProfileUnavailable, got %v", err)
	}
}

func TestHistoryOrderedOldestFirst(t *testing.T) {
	s := newTestInteractionStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	entries := []core.Interaction{
		{Fingerprint: "fp-1", Action: core.ActionView, Timestamp: base},
		{Fingerprint: "fp-2", Action: core.ActionLike, Timestamp: base.Add(10 * time.Minute)},
		{Fingerprint: "fp-3", Action: core.ActionBookmark, Timestamp: base.Add(20 * time.Minute)},
	}
	// Append out of order; reads must still come back chronological.
	for _, i := range []int{1, 2, 0} {
		if err := s.Append(ctx, "alice", entries[i]); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	history, err := s.History(ctx, "alice")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 interactions, got %d", len(history))
	}
	for i, want := range []string{"fp-1", "fp-2", "fp-3"} {
		if history[i].Fingerprint != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, history[i].Fingerprint)
		}
	}
}

func TestProfileFromHistoryOnly(t *testing.T) {
	s := newTestInteractionStore(t)
	ctx := context.Background()

	interaction := core.Interaction{Fingerprint: "fp-1", Action: core.ActionView, Timestamp: time.Now().UTC()}
	if err := s.Append(ctx, "bob", interaction); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// A user with interactions but no saved preferences is still known.
	profile, err := s.Profile(ctx, "bob")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if len(profile.History) != 1 {
		t.Errorf("Expected 1 interaction, got %d", len(profile.History))
	}
	if len(profile.Categories) != 0 {
		t.Errorf("Expected no preferences, got %v", profile.Categories)
	}
}

func TestHistoriesTouchingExcludesRequester(t *testing.T) {
	s := newTestInteractionStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_ = s.Append(ctx, "alice", core.Interaction{Fingerprint: "fp-1", Action: core.ActionLike, Timestamp: now})
	_ = s.Append(ctx, "bob", core.Interaction{Fingerprint: "fp-1", Action: core.ActionView, Timestamp: now})
	_ = s.Append(ctx, "bob", core.Interaction{Fingerprint: "fp-9", Action: core.ActionLike, Timestamp: now})
	_ = s.Append(ctx, "carol", core.Interaction{Fingerprint: "fp-2", Action: core.ActionBookmark, Timestamp: now})

	histories, err := s.HistoriesTouching(ctx, []string{"fp-1", "fp-2"}, "alice")
	if err != nil {
		t.Fatalf("HistoriesTouching failed: %v", err)
	}

	if _, ok := histories["alice"]; ok {
		t.Error("Expected requesting user excluded")
	}
	if len(histories["bob"]) != 1 {
		t.Errorf("Expected bob's fp-9 interaction filtered out, got %v", histories["bob"])
	}
	if len(histories["carol"]) != 1 {
		t.Errorf("Expected carol's interaction included, got %v", histories["carol"])
	}
}

func TestMemoryStoreMatchesContract(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if _, err := m.Profile(ctx, "ghost"); !errors.Is(err, core.ErrProfileUnavailable) {
		t.Errorf("Expected ErrProfileUnavailable, got %v", err)
	}

	_ = m.SaveProfile(ctx, core.UserProfile{UserID: "alice", Categories: []string{"sports"}})
	_ = m.Append(ctx, "alice", core.Interaction{Fingerprint: "fp-1", Action: core.ActionView})
	_ = m.Append(ctx, "bob", core.Interaction{Fingerprint: "fp-1", Action: core.ActionLike})

	profile, err := m.Profile(ctx, "alice")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if len(profile.History) != 1 {
		t.Errorf("Expected 1 interaction, got %d", len(profile.History))
	}

	histories, err := m.HistoriesTouching(ctx, []string{"fp-1"}, "alice")
	if err != nil {
		t.Fatalf("HistoriesTouching failed: %v", err)
	}
	if len(histories) != 1 || len(histories["bob"]) != 1 {
		t.Errorf("Expected only bob's interaction, got %v", histories)
	}
}
