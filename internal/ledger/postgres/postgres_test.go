package postgres_test

import (
	"context"
	"testing"

	"github.com/pokevault/auctioneer/internal/ledger"
	"github.com/pokevault/auctioneer/internal/ledger/postgres"
)

func TestLoad_EmptyTableCreatesDefault(t *testing.T) {
	db := newTestDB(t)
	st := postgres.New(db, 11500)

	state, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.NextAID != 11500 {
		t.Errorf("NextAID = %d, want 11500", state.NextAID)
	}

	// The default document must have been persisted.
	var count int
	if err := db.Get(&count, `SELECT count(*) FROM ledger_snapshot`); err != nil {
		t.Fatalf("counting snapshots: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshot rows = %d, want 1", count)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	st := postgres.New(db, 11500)
	ctx := context.Background()

	state := ledger.DefaultState(11500)
	state.Coins["42"] = 940
	state.Banned = []string{"13"}
	state.PutAuction(&ledger.Auction{
		AuctionID: 11500,
		Pokemon:   "Gholdengo",
		UniqueID:  11500,
		MinBid:    10,
		TopBid:    &ledger.TopBid{UserID: "42", Amount: 60, TS: 1000},
	})
	state.NextAID = 11501

	if err := st.Save(ctx, state); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	// Save again to exercise the upsert path.
	state.Coins["42"] = 900
	if err := st.Save(ctx, state); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Coins["42"] != 900 {
		t.Errorf("Coins[42] = %d, want 900", got.Coins["42"])
	}
	if got.NextAID != 11501 {
		t.Errorf("NextAID = %d, want 11501", got.NextAID)
	}
	a := got.Auction(11500)
	if a == nil || a.TopBid == nil || a.TopBid.Amount != 60 {
		t.Errorf("Auction(11500) = %+v, want top bid 60", a)
	}

	// Only ever one snapshot row.
	var count int
	if err := db.Get(&count, `SELECT count(*) FROM ledger_snapshot`); err != nil {
		t.Fatalf("counting snapshots: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshot rows = %d, want 1", count)
	}
}
