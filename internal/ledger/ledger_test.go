package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pokevault/auctioneer/internal/ledger"
)

func TestDefaultState(t *testing.T) {
	s := ledger.DefaultState(11500)

	if s.NextAID != 11500 {
		t.Errorf("NextAID = %d, want 11500", s.NextAID)
	}
	if s.Coins == nil || s.Inventory == nil || s.Auctions == nil || s.Banned == nil {
		t.Error("default state has nil collections")
	}
}

func TestState_Normalize(t *testing.T) {
	// A document from an older file may omit whole sections.
	var s ledger.State
	if err := json.Unmarshal([]byte(`{"coins": {"42": 100}}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s.Normalize(11500)

	if s.Coins["42"] != 100 {
		t.Errorf("Coins[42] = %d, want 100", s.Coins["42"])
	}
	if s.Inventory == nil || s.Auctions == nil || s.Banned == nil {
		t.Error("Normalize left nil collections")
	}
	if s.NextAID != 11500 {
		t.Errorf("NextAID = %d, want seeded 11500", s.NextAID)
	}
}

func TestState_AuctionRoundTrip(t *testing.T) {
	s := ledger.DefaultState(11500)
	a := &ledger.Auction{AuctionID: 11500, Pokemon: "Dragonite", UniqueID: 11500, MinBid: 10}
	s.PutAuction(a)

	if got := s.Auction(11500); got != a {
		t.Errorf("Auction(11500) = %+v, want the stored record", got)
	}
	if got := s.Auction(99999); got != nil {
		t.Errorf("Auction(99999) = %+v, want nil", got)
	}
}

func TestState_IsBanned(t *testing.T) {
	s := ledger.DefaultState(11500)
	s.Banned = append(s.Banned, "123")

	if !s.IsBanned("123") {
		t.Error("IsBanned(123) = false, want true")
	}
	if s.IsBanned("456") {
		t.Error("IsBanned(456) = true, want false")
	}
}

func TestTS_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 45, 500_000_000, time.UTC)
	got := ledger.FromTS(ledger.TS(now))

	if d := got.Sub(now); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip drifted by %s: got %v, want %v", d, got, now)
	}
}

func TestAuction_JSONShape(t *testing.T) {
	a := &ledger.Auction{
		AuctionID: 11501,
		Pokemon:   "Gholdengo",
		UniqueID:  11501,
		CreatedBy: "42",
		MinBid:    10,
		TopBid:    &ledger.TopBid{UserID: "7", Amount: 50, TS: 100.5},
		ChannelID: "555",
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"auction_id", "pokemon", "unique_id", "created_by", "created_ts", "end_ts", "min_bid", "top_bid", "bids_received", "channel_id", "is_closed"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("serialized auction missing key %q", key)
		}
	}

	top, ok := doc["top_bid"].(map[string]any)
	if !ok {
		t.Fatalf("top_bid = %T, want object", doc["top_bid"])
	}
	if top["user_id"] != "7" {
		t.Errorf("top_bid.user_id = %v, want \"7\"", top["user_id"])
	}
}
