// Package ledger defines the persisted state document for the auction house
// and the Store contract for loading and saving it as a whole.
package ledger

import (
	"math"
	"strconv"
	"time"
)

// ItemGrant records one item awarded to an account. Immutable once created;
// inventories are append-only.
type ItemGrant struct {
	Pokemon    string  `json:"pokemon"`
	UniqueID   int64   `json:"unique_id"`
	ReceivedTS float64 `json:"received_ts"`
}

// TopBid is the current leading bid on an auction. The amount is escrowed:
// it has already been debited from the bidder's balance.
type TopBid struct {
	UserID string  `json:"user_id"`
	Amount int     `json:"amount"`
	TS     float64 `json:"ts"`
}

// Auction is one auction record.
type Auction struct {
	AuctionID    int64   `json:"auction_id"`
	Pokemon      string  `json:"pokemon"`
	UniqueID     int64   `json:"unique_id"`
	CreatedBy    string  `json:"created_by"`
	CreatedTS    float64 `json:"created_ts"`
	EndTS        float64 `json:"end_ts"`
	MinBid       int     `json:"min_bid"`
	TopBid       *TopBid `json:"top_bid"`
	BidsReceived int     `json:"bids_received"`
	ChannelID    string  `json:"channel_id"`
	IsClosed     bool    `json:"is_closed"`
}

// EndsAt returns the auction end as a time.Time.
func (a *Auction) EndsAt() time.Time { return FromTS(a.EndTS) }

// State is the whole persisted document. Maps are keyed by decimal user id
// (coins, inventory) and decimal auction id (auctions).
type State struct {
	Coins     map[string]int         `json:"coins"`
	Inventory map[string][]ItemGrant `json:"inventory"`
	Auctions  map[string]*Auction    `json:"auctions"`
	NextAID   int64                  `json:"next_aid"`
	Banned    []string               `json:"banned"`
}

// DefaultState returns a fresh document with the auction id counter seeded.
func DefaultState(nextAID int64) *State {
	return &State{
		Coins:     map[string]int{},
		Inventory: map[string][]ItemGrant{},
		Auctions:  map[string]*Auction{},
		NextAID:   nextAID,
		Banned:    []string{},
	}
}

// Normalize fills in zero-valued fields after decoding a document written by
// an older version. nextAID is used only when the stored counter is unset.
func (s *State) Normalize(nextAID int64) {
	if s.Coins == nil {
		s.Coins = map[string]int{}
	}
	if s.Inventory == nil {
		s.Inventory = map[string][]ItemGrant{}
	}
	if s.Auctions == nil {
		s.Auctions = map[string]*Auction{}
	}
	if s.Banned == nil {
		s.Banned = []string{}
	}
	if s.NextAID == 0 {
		s.NextAID = nextAID
	}
}

// Auction returns the record for id, or nil.
func (s *State) Auction(id int64) *Auction {
	return s.Auctions[strconv.FormatInt(id, 10)]
}

// PutAuction stores a under its auction id.
func (s *State) PutAuction(a *Auction) {
	s.Auctions[strconv.FormatInt(a.AuctionID, 10)] = a
}

// IsBanned reports whether the user id is on the ban list.
func (s *State) IsBanned(userID string) bool {
	for _, b := range s.Banned {
		if b == userID {
			return true
		}
	}
	return false
}

// TS converts a time to the float-seconds representation used on the wire.
func TS(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromTS converts float-seconds back to a time.
func FromTS(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
