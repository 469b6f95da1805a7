package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pokevault/auctioneer/internal/ledger"
	"github.com/pokevault/auctioneer/internal/ledger/jsonfile"
)

func TestLoad_MissingFileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.json")
	st := jsonfile.New(path, 11500)

	state, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.NextAID != 11500 {
		t.Errorf("NextAID = %d, want 11500", state.NextAID)
	}

	// The default document must have been persisted immediately.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected ledger file to exist after first Load: %v", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.json")
	st := jsonfile.New(path, 11500)
	ctx := context.Background()

	state := ledger.DefaultState(11500)
	state.Coins["42"] = 950
	state.Inventory["42"] = []ledger.ItemGrant{{Pokemon: "Dragonite", UniqueID: 11500, ReceivedTS: 1234.5}}
	state.Banned = []string{"13"}
	state.PutAuction(&ledger.Auction{
		AuctionID: 11500,
		Pokemon:   "Dragonite",
		UniqueID:  11500,
		CreatedBy: "1",
		EndTS:     9999999999,
		MinBid:    10,
		TopBid:    &ledger.TopBid{UserID: "42", Amount: 50, TS: 1000},
	})
	state.NextAID = 11501

	if err := st.Save(ctx, state); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got.Coins["42"] != 950 {
		t.Errorf("Coins[42] = %d, want 950", got.Coins["42"])
	}
	if got.NextAID != 11501 {
		t.Errorf("NextAID = %d, want 11501", got.NextAID)
	}
	if len(got.Inventory["42"]) != 1 || got.Inventory["42"][0].Pokemon != "Dragonite" {
		t.Errorf("Inventory[42] = %+v, want one Dragonite grant", got.Inventory["42"])
	}
	if !got.IsBanned("13") {
		t.Error("IsBanned(13) = false after round trip")
	}

	a := got.Auction(11500)
	if a == nil {
		t.Fatal("Auction(11500) = nil after round trip")
	}
	if a.TopBid == nil || a.TopBid.UserID != "42" || a.TopBid.Amount != 50 {
		t.Errorf("TopBid = %+v, want user 42 @ 50", a.TopBid)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := jsonfile.New(filepath.Join(dir, "auctions.json"), 11500)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := st.Save(ctx, ledger.DefaultState(11500)); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the ledger file", len(entries))
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	_, err := jsonfile.New(path, 11500).Load(context.Background())
	if err == nil {
		t.Fatal("Load() expected error for corrupt file, got nil")
	}
}

func TestLoad_OlderDocumentGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.json")
	if err := os.WriteFile(path, []byte(`{"coins": {"7": 200}}`), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	state, err := jsonfile.New(path, 11500).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.Coins["7"] != 200 {
		t.Errorf("Coins[7] = %d, want 200", state.Coins["7"])
	}
	if state.NextAID != 11500 {
		t.Errorf("NextAID = %d, want seeded 11500", state.NextAID)
	}
	if state.Auctions == nil {
		t.Error("Auctions map is nil after Load of older document")
	}
}
