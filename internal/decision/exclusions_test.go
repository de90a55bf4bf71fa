// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decision

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pdiddy/match-engine/pkg/types"
)

func TestAddExclusionDefaults(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.AddExclusion(ctx, types.NonMatchExclusion{
		SellID: "s1", BuyID: "b1", Reason: "different language", Permanent: true,
	}); err != nil {
		t.Fatal(err)
	}

	excls, err := store.Exclusions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(excls) != 1 {
		t.Fatalf("got %d exclusions, want 1", len(excls))
	}
	e := excls[0]
	if e.Origin != types.OriginUser {
		t.Errorf("Origin defaulted to %q, want user", e.Origin)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}
	if e.Reason != "different language" {
		t.Errorf("Reason = %q", e.Reason)
	}
}

func TestAddExclusionRequiresIDs(t *testing.T) {
	store := testStore(t)

	if err := store.AddExclusion(context.Background(), types.NonMatchExclusion{SellID: "s1"}); err == nil {
		t.Error("expected error for missing buy id")
	}
}

func TestAddExclusionSamePairRefreshes(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.AddExclusion(ctx, types.NonMatchExclusion{SellID: "s1", BuyID: "b1", Reason: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := store.AddExclusion(ctx, types.NonMatchExclusion{SellID: "s1", BuyID: "b1", Reason: "second", Permanent: true}); err != nil {
		t.Fatal(err)
	}

	excls, err := store.Exclusions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(excls) != 1 {
		t.Fatalf("got %d exclusions, want 1 after re-add", len(excls))
	}
	if excls[0].Reason != "second" || !excls[0].Permanent {
		t.Errorf("exclusion not refreshed: %+v", excls[0])
	}
}

func TestRemoveExclusion(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.AddExclusion(ctx, types.NonMatchExclusion{SellID: "s1", BuyID: "b1", Permanent: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveExclusion(ctx, "s1", "b1"); err != nil {
		t.Fatal(err)
	}

	set, err := store.ExclusionSet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 0 {
		t.Errorf("got %d excluded pairs after removal, want 0", len(set))
	}

	err = store.RemoveExclusion(ctx, "s1", "b1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("removing twice: want ErrNotFound, got %v", err)
	}
}

func TestExclusionSet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.AddExclusion(ctx, types.NonMatchExclusion{SellID: "s1", BuyID: "b1", Permanent: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.AddExclusion(ctx, types.NonMatchExclusion{SellID: "s2", BuyID: "b2", Permanent: true}); err != nil {
		t.Fatal(err)
	}

	set, err := store.ExclusionSet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 {
		t.Fatalf("got %d excluded pairs, want 2", len(set))
	}
	if _, ok := set[types.PairKey{SellID: "s1", BuyID: "b1"}]; !ok {
		t.Error("pair s1/b1 missing from set")
	}
	// Exclusions are directional pairs, not id blocks.
	if _, ok := set[types.PairKey{SellID: "s1", BuyID: "b2"}]; ok {
		t.Error("pair s1/b2 should not be excluded")
	}
}

func TestExclusionSetSkipsSessionScoped(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(types.StoreConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddExclusion(ctx, types.NonMatchExclusion{
		SellID: "s1", BuyID: "b1", Reason: "set aside for now",
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.AddExclusion(ctx, types.NonMatchExclusion{
		SellID: "s2", BuyID: "b2", Reason: "wrong printing", Permanent: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// A later session still lists the row but no longer prunes with it.
	store, err = Open(types.StoreConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	set, err := store.ExclusionSet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set[types.PairKey{SellID: "s1", BuyID: "b1"}]; ok {
		t.Error("session-scoped pair s1/b1 still prunes after its session ended")
	}
	if _, ok := set[types.PairKey{SellID: "s2", BuyID: "b2"}]; !ok {
		t.Error("permanent pair s2/b2 missing from set")
	}

	excls, err := store.Exclusions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(excls) != 2 {
		t.Errorf("got %d listed exclusions, want 2", len(excls))
	}
}
