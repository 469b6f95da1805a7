// Package auction implements the auction ledger and settlement engine:
// coin balances with escrow, the auction registry, bid validation, timed
// settlement and cancellation. All mutations are persisted through a
// ledger.Store before they are reported successful.
package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pokevault/auctioneer/internal/catalog"
	"github.com/pokevault/auctioneer/internal/clock"
	"github.com/pokevault/auctioneer/internal/ledger"
)

// Notifier delivers settlement and outbid notices. Implementations are
// best-effort: the ledger mutation is authoritative even when delivery fails.
type Notifier interface {
	Announce(ctx context.Context, channelID, message string) error
	DirectMessage(ctx context.Context, userID, message string) error
}

// Rules are the house rules applied by the engine.
type Rules struct {
	StartingCoins   int
	DefaultMinBid   int
	DefaultDuration time.Duration
	NextIDStart     int64
	// ReportChannel, when set, receives settlement announcements instead of
	// the auction's origin channel.
	ReportChannel string
}

// Service owns the ledger state and serializes all mutations to it.
type Service struct {
	// mu guards state and every Save; the store sees one writer at a time.
	mu    sync.Mutex
	state *ledger.State
	store ledger.Store

	// locksMu guards locks; lookup-and-create is a single atomic step so two
	// bidders can never hold distinct locks for the same auction.
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	sched    *Scheduler
	notifier Notifier
	rules    Rules
	logger   *slog.Logger
	tracer   trace.Tracer
	clock    clock.Clock
}

// NewService loads the ledger from store and returns a Service. Timers for
// persisted open auctions are not armed until Recover is called.
func NewService(ctx context.Context, store ledger.Store, rules Rules, notifier Notifier, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock) (*Service, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	s := &Service{
		state:    state,
		store:    store,
		locks:    make(map[int64]*sync.Mutex),
		notifier: notifier,
		rules:    rules,
		logger:   logger,
		tracer:   tp.Tracer("github.com/pokevault/auctioneer/internal/auction"),
		clock:    clk,
	}
	s.sched = newScheduler(s.settleExpired, logger, clk)
	return s, nil
}

// Stop cancels all pending closure timers. The ledger itself needs no
// shutdown; every mutation was already persisted.
func (s *Service) Stop() {
	s.sched.CancelAll()
}

// persist writes the whole document. Callers must hold s.mu.
func (s *Service) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.state); err != nil {
		return fmt.Errorf("persisting ledger: %w", err)
	}
	return nil
}

// auctionLock returns the serialization lock for one auction, creating it
// atomically on first use.
func (s *Service) auctionLock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// balanceLocked returns the stored balance or the starting balance for an
// unseen account. Callers must hold s.mu. Reading never persists the default.
func (s *Service) balanceLocked(userID string) int {
	if v, ok := s.state.Coins[userID]; ok {
		return v
	}
	return s.rules.StartingCoins
}

// --- Account operations ---

// GetBalance returns the user's coin balance.
func (s *Service) GetBalance(ctx context.Context, userID string) int {
	_, span := s.tracer.Start(ctx, "Service.GetBalance",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(userID)
}

// AddBalance applies a delta (possibly negative) to the user's balance and
// returns the new balance. A delta that would go negative is rejected with
// ErrInvariantViolation and nothing is persisted.
func (s *Service) AddBalance(ctx context.Context, userID string, delta int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Service.AddBalance",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("delta", delta),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.state.Coins[userID]
	next := s.balanceLocked(userID) + delta
	if next < 0 {
		return 0, ErrInvariantViolation
	}
	s.state.Coins[userID] = next
	if err := s.persist(ctx); err != nil {
		if hadPrev {
			s.state.Coins[userID] = prev
		} else {
			delete(s.state.Coins, userID)
		}
		return 0, err
	}
	return next, nil
}

// SetBalance overwrites the user's balance.
func (s *Service) SetBalance(ctx context.Context, userID string, amount int) error {
	ctx, span := s.tracer.Start(ctx, "Service.SetBalance",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("amount", amount),
		),
	)
	defer span.End()

	if amount < 0 {
		return ErrInvariantViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.state.Coins[userID]
	s.state.Coins[userID] = amount
	if err := s.persist(ctx); err != nil {
		if hadPrev {
			s.state.Coins[userID] = prev
		} else {
			delete(s.state.Coins, userID)
		}
		return err
	}
	return nil
}

// RegisterAccount seeds a user with the starting balance and an empty
// inventory if not already present.
func (s *Service) RegisterAccount(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "Service.RegisterAccount",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Coins[userID]; !ok {
		s.state.Coins[userID] = s.rules.StartingCoins
	}
	if _, ok := s.state.Inventory[userID]; !ok {
		s.state.Inventory[userID] = []ledger.ItemGrant{}
	}
	return s.persist(ctx)
}

// GrantItem appends an item to the user's inventory with a fresh timestamp.
// Used for manual awards outside the settlement path.
func (s *Service) GrantItem(ctx context.Context, userID, pokemon string, uniqueID int64) error {
	ctx, span := s.tracer.Start(ctx, "Service.GrantItem",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item", pokemon),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Inventory[userID] = append(s.state.Inventory[userID], ledger.ItemGrant{
		Pokemon:    pokemon,
		UniqueID:   uniqueID,
		ReceivedTS: ledger.TS(s.clock.Now()),
	})
	if err := s.persist(ctx); err != nil {
		inv := s.state.Inventory[userID]
		s.state.Inventory[userID] = inv[:len(inv)-1]
		return err
	}
	return nil
}

// Inventory returns a copy of the user's item grants.
func (s *Service) Inventory(ctx context.Context, userID string) []ledger.ItemGrant {
	_, span := s.tracer.Start(ctx, "Service.Inventory",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.state.Inventory[userID]
	out := make([]ledger.ItemGrant, len(inv))
	copy(out, inv)
	return out
}

// IsBanned reports whether the user is banned from bidding.
func (s *Service) IsBanned(ctx context.Context, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsBanned(userID)
}

// Ban adds the user to the ban list. Banning twice is a no-op.
func (s *Service) Ban(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "Service.Ban",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsBanned(userID) {
		return nil
	}
	s.state.Banned = append(s.state.Banned, userID)
	if err := s.persist(ctx); err != nil {
		s.state.Banned = s.state.Banned[:len(s.state.Banned)-1]
		return err
	}
	return nil
}

// Unban removes the user from the ban list. It reports whether the user was
// banned in the first place.
func (s *Service) Unban(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Unban",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.state.Banned {
		if b == userID {
			prev := s.state.Banned
			s.state.Banned = append(append([]string{}, prev[:i]...), prev[i+1:]...)
			if err := s.persist(ctx); err != nil {
				s.state.Banned = prev
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// --- Auction registry ---

// CreateRequest describes a new auction. Zero values fall back to the house
// rules; UniqueID zero defaults to the allocated auction id.
type CreateRequest struct {
	Pokemon   string
	CreatedBy string
	ChannelID string
	Duration  time.Duration
	MinBid    int
	UniqueID  int64
}

// Create opens a new auction and arms its closure timer before returning.
// An auction can therefore never exist in the store without a scheduled
// settlement.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*ledger.Auction, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Create",
		trace.WithAttributes(
			attribute.String("item", req.Pokemon),
			attribute.String("created_by", req.CreatedBy),
		),
	)
	defer span.End()

	auctions, err := s.createBatch(ctx, []string{req.Pokemon}, req)
	if err != nil {
		return nil, err
	}
	return auctions[0], nil
}

// CreateBatch opens one auction per name. Auction ids follow input order and
// every auction gets its own closure timer.
func (s *Service) CreateBatch(ctx context.Context, names []string, req CreateRequest) ([]*ledger.Auction, error) {
	ctx, span := s.tracer.Start(ctx, "Service.CreateBatch",
		trace.WithAttributes(
			attribute.Int("count", len(names)),
			attribute.String("created_by", req.CreatedBy),
		),
	)
	defer span.End()

	return s.createBatch(ctx, names, req)
}

func (s *Service) createBatch(ctx context.Context, names []string, req CreateRequest) ([]*ledger.Auction, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no items to auction")
	}

	canonical := make([]string, len(names))
	for i, name := range names {
		c, ok := catalog.Canon(name)
		if !ok {
			return nil, fmt.Errorf("unknown item %q", name)
		}
		canonical[i] = c
	}

	duration := req.Duration
	if duration <= 0 {
		duration = s.rules.DefaultDuration
	}
	minBid := req.MinBid
	if minBid <= 0 {
		minBid = s.rules.DefaultMinBid
	}

	now := s.clock.Now()
	endTS := ledger.TS(now.Add(duration))

	created := make([]*ledger.Auction, 0, len(canonical))

	s.mu.Lock()
	records := make([]*ledger.Auction, 0, len(canonical))
	for _, name := range canonical {
		aid := s.state.NextAID
		s.state.NextAID++

		uniqueID := req.UniqueID
		if uniqueID == 0 || len(canonical) > 1 {
			uniqueID = aid
		}

		a := &ledger.Auction{
			AuctionID:    aid,
			Pokemon:      name,
			UniqueID:     uniqueID,
			CreatedBy:    req.CreatedBy,
			CreatedTS:    ledger.TS(now),
			EndTS:        endTS,
			MinBid:       minBid,
			BidsReceived: 0,
			ChannelID:    req.ChannelID,
			IsClosed:     false,
		}
		s.state.PutAuction(a)
		records = append(records, a)
	}

	// One save for the whole batch: either every auction is durable or none
	// is. The advanced counter stays advanced; ids are never reused.
	if err := s.persist(ctx); err != nil {
		for _, a := range records {
			delete(s.state.Auctions, formatID(a.AuctionID))
		}
		s.mu.Unlock()
		return nil, err
	}
	for _, a := range records {
		created = append(created, copyAuction(a))
	}
	s.mu.Unlock()

	for _, a := range created {
		s.sched.Schedule(a.AuctionID, a.EndsAt())
		s.logger.InfoContext(ctx, "auction started",
			slog.Int64("auction_id", a.AuctionID),
			slog.String("item", a.Pokemon),
			slog.Int("min_bid", a.MinBid),
			slog.Time("ends_at", a.EndsAt()),
		)
	}
	return created, nil
}

// Get returns a copy of one auction.
func (s *Service) Get(ctx context.Context, auctionID int64) (*ledger.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.state.Auction(auctionID)
	if a == nil {
		return nil, ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

// ListActive returns copies of all open auctions, soonest-ending first.
// Callers paginate; the ordering is part of the contract.
func (s *Service) ListActive(ctx context.Context) []*ledger.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Auction
	for _, a := range s.state.Auctions {
		if !a.IsClosed {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTS != out[j].EndTS {
			return out[i].EndTS < out[j].EndTS
		}
		return out[i].AuctionID < out[j].AuctionID
	})
	return out
}

// FindByItem returns active auctions whose item matches name
// case-insensitively, soonest-ending first.
func (s *Service) FindByItem(ctx context.Context, name string) []*ledger.Auction {
	all := s.ListActive(ctx)
	var out []*ledger.Auction
	for _, a := range all {
		if strings.EqualFold(a.Pokemon, name) {
			out = append(out, a)
		}
	}
	return out
}

// --- Bidding ---

// BidResult carries what the command layer needs to answer the bidder and to
// notify the outbid party outside the critical section.
type BidResult struct {
	AuctionID   int64
	Pokemon     string
	Amount      int
	NewBalance  int
	NextMinimum int
	// PrevBidder is empty when this was the first bid.
	PrevBidder string
	PrevAmount int
	ChannelID  string
}

// PlaceBid validates and applies a bid. Bids on the same auction are totally
// ordered by a per-auction lock; bids on different auctions only contend on
// the short state/save section.
func (s *Service) PlaceBid(ctx context.Context, auctionID int64, bidderID string, amount int) (*BidResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.PlaceBid",
		trace.WithAttributes(
			attribute.Int64("auction.id", auctionID),
			attribute.String("user.id", bidderID),
			attribute.Int("bid.amount", amount),
		),
	)
	defer span.End()

	// Precondition order is part of the contract: amount, then ban, then
	// auction existence. A banned user is told so even for a bogus id.
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if s.IsBanned(ctx, bidderID) {
		return nil, ErrBanned
	}

	lock := s.auctionLock(auctionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.state.Auction(auctionID)
	if a == nil {
		return nil, ErrAuctionNotFound
	}
	if a.IsClosed {
		return nil, ErrAuctionClosed
	}

	current := 0
	if a.TopBid != nil {
		current = a.TopBid.Amount
	}
	required := NextMinimum(current, a.MinBid)
	if amount < required {
		return nil, &BidTooLowError{Required: required}
	}

	balance := s.balanceLocked(bidderID)
	if amount > balance {
		return nil, ErrInsufficientFunds
	}

	// All checks passed; refund the outbid party, then escrow the new bid.
	prevTop := a.TopBid
	prevBidderBalance, hadPrevBidderBalance := 0, false
	if prevTop != nil {
		prevBidderBalance, hadPrevBidderBalance = s.state.Coins[prevTop.UserID]
		s.state.Coins[prevTop.UserID] = s.balanceLocked(prevTop.UserID) + prevTop.Amount
	}
	// Debit the post-refund balance. When the top bidder raises their own bid
	// the refund above lands on the same account, so they pay only the
	// difference.
	bidderBalance, hadBidderBalance := s.state.Coins[bidderID]
	newBalance := s.balanceLocked(bidderID) - amount
	s.state.Coins[bidderID] = newBalance

	a.TopBid = &ledger.TopBid{
		UserID: bidderID,
		Amount: amount,
		TS:     ledger.TS(s.clock.Now()),
	}
	a.BidsReceived++

	if err := s.persist(ctx); err != nil {
		// Undo so memory matches the last durable snapshot.
		a.TopBid = prevTop
		a.BidsReceived--
		restoreBalance(s.state.Coins, bidderID, bidderBalance, hadBidderBalance)
		if prevTop != nil {
			restoreBalance(s.state.Coins, prevTop.UserID, prevBidderBalance, hadPrevBidderBalance)
		}
		return nil, err
	}

	result := &BidResult{
		AuctionID:   auctionID,
		Pokemon:     a.Pokemon,
		Amount:      amount,
		NewBalance:  newBalance,
		NextMinimum: NextMinimum(amount, a.MinBid),
		ChannelID:   a.ChannelID,
	}
	if prevTop != nil {
		result.PrevBidder = prevTop.UserID
		result.PrevAmount = prevTop.Amount
	}

	s.logger.InfoContext(ctx, "bid placed",
		slog.Int64("auction_id", auctionID),
		slog.String("user_id", bidderID),
		slog.Int("amount", amount),
		slog.Int("bids_received", a.BidsReceived),
	)
	return result, nil
}

func restoreBalance(coins map[string]int, userID string, prev int, had bool) {
	if had {
		coins[userID] = prev
	} else {
		delete(coins, userID)
	}
}

// --- Settlement and cancellation ---

// Settlement summarizes a closed auction for the notification boundary.
type Settlement struct {
	AuctionID int64
	Pokemon   string
	UniqueID  int64
	// WinnerID is empty when the auction closed without bids.
	WinnerID  string
	Amount    int
	ChannelID string
}

// Settle closes the auction and grants the item to the winner, if any. The
// winning amount was escrowed at bid time, so no balance changes here.
// Settling an already-closed auction returns ErrAlreadySettled and changes
// nothing, which makes the scheduler-vs-admin race harmless.
func (s *Service) Settle(ctx context.Context, auctionID int64) (*Settlement, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Settle",
		trace.WithAttributes(attribute.Int64("auction.id", auctionID)),
	)
	defer span.End()

	lock := s.auctionLock(auctionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	a := s.state.Auction(auctionID)
	if a == nil {
		s.mu.Unlock()
		return nil, ErrAuctionNotFound
	}
	if a.IsClosed {
		s.mu.Unlock()
		return nil, ErrAlreadySettled
	}

	a.IsClosed = true
	sum := &Settlement{
		AuctionID: a.AuctionID,
		Pokemon:   a.Pokemon,
		UniqueID:  a.UniqueID,
		ChannelID: a.ChannelID,
	}

	grantedTo := ""
	if a.TopBid != nil {
		sum.WinnerID = a.TopBid.UserID
		sum.Amount = a.TopBid.Amount
		grantedTo = a.TopBid.UserID
		s.state.Inventory[grantedTo] = append(s.state.Inventory[grantedTo], ledger.ItemGrant{
			Pokemon:    a.Pokemon,
			UniqueID:   a.UniqueID,
			ReceivedTS: ledger.TS(s.clock.Now()),
		})
	}

	if err := s.persist(ctx); err != nil {
		a.IsClosed = false
		if grantedTo != "" {
			inv := s.state.Inventory[grantedTo]
			s.state.Inventory[grantedTo] = inv[:len(inv)-1]
		}
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.sched.Cancel(auctionID)

	s.logger.InfoContext(ctx, "auction settled",
		slog.Int64("auction_id", sum.AuctionID),
		slog.String("item", sum.Pokemon),
		slog.String("winner_id", sum.WinnerID),
		slog.Int("amount", sum.Amount),
	)
	return sum, nil
}

// Cancellation summarizes a cancelled auction.
type Cancellation struct {
	AuctionID int64
	Pokemon   string
	// RefundedTo is empty when there was no standing bid.
	RefundedTo     string
	RefundedAmount int
	ChannelID      string
}

// Cancel closes an open auction without awarding the item, refunding the
// standing bid in full.
func (s *Service) Cancel(ctx context.Context, auctionID int64) (*Cancellation, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Cancel",
		trace.WithAttributes(attribute.Int64("auction.id", auctionID)),
	)
	defer span.End()

	lock := s.auctionLock(auctionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	a := s.state.Auction(auctionID)
	if a == nil {
		s.mu.Unlock()
		return nil, ErrAuctionNotFound
	}
	if a.IsClosed {
		s.mu.Unlock()
		return nil, ErrAlreadySettled
	}

	can := &Cancellation{
		AuctionID: a.AuctionID,
		Pokemon:   a.Pokemon,
		ChannelID: a.ChannelID,
	}

	prevTop := a.TopBid
	refundedBalance, hadBalance := 0, false
	if prevTop != nil {
		can.RefundedTo = prevTop.UserID
		can.RefundedAmount = prevTop.Amount
		refundedBalance, hadBalance = s.state.Coins[prevTop.UserID]
		s.state.Coins[prevTop.UserID] = s.balanceLocked(prevTop.UserID) + prevTop.Amount
	}
	a.IsClosed = true

	if err := s.persist(ctx); err != nil {
		a.IsClosed = false
		if prevTop != nil {
			restoreBalance(s.state.Coins, prevTop.UserID, refundedBalance, hadBalance)
		}
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.sched.Cancel(auctionID)

	s.logger.InfoContext(ctx, "auction cancelled",
		slog.Int64("auction_id", can.AuctionID),
		slog.String("refunded_to", can.RefundedTo),
		slog.Int("refunded_amount", can.RefundedAmount),
	)
	return can, nil
}

// ResetAll cancels every timer, clears the lock table and replaces the whole
// document with defaults.
func (s *Service) ResetAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Service.ResetAll")
	defer span.End()

	s.sched.CancelAll()

	s.locksMu.Lock()
	s.locks = make(map[int64]*sync.Mutex)
	s.locksMu.Unlock()

	s.mu.Lock()
	prev := s.state
	s.state = ledger.DefaultState(s.rules.NextIDStart)
	if err := s.persist(ctx); err != nil {
		s.state = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.logger.WarnContext(ctx, "ledger reset: coins, inventories, auctions and bans wiped")

	if s.notifier != nil && s.rules.ReportChannel != "" {
		msg := "The auction house was reset: all balances, inventories, auctions and bans are gone."
		if err := s.notifier.Announce(ctx, s.rules.ReportChannel, msg); err != nil {
			s.logger.WarnContext(ctx, "could not announce reset", slog.Any("error", err))
		}
	}
	return nil
}

// --- Recovery ---

// Recover re-arms one timer per persisted open auction with a future end
// time, and settles every open auction whose end already passed. Called once
// at startup, before the bot starts accepting commands.
func (s *Service) Recover(ctx context.Context) (rearmed, settled int, err error) {
	ctx, span := s.tracer.Start(ctx, "Service.Recover")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	var pending, overdue []*ledger.Auction
	for _, a := range s.state.Auctions {
		if a.IsClosed {
			continue
		}
		if a.EndsAt().After(now) {
			pending = append(pending, copyAuction(a))
		} else {
			overdue = append(overdue, copyAuction(a))
		}
	}
	s.mu.Unlock()

	for _, a := range pending {
		s.sched.Schedule(a.AuctionID, a.EndsAt())
		rearmed++
	}

	// Deterministic settlement order for the downtime backlog.
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].AuctionID < overdue[j].AuctionID })
	for _, a := range overdue {
		sum, settleErr := s.Settle(ctx, a.AuctionID)
		if settleErr != nil {
			return rearmed, settled, fmt.Errorf("settling overdue auction %d: %w", a.AuctionID, settleErr)
		}
		settled++
		s.announceSettlement(ctx, sum)
	}

	s.logger.InfoContext(ctx, "auction recovery complete",
		slog.Int("rearmed", rearmed),
		slog.Int("settled_overdue", settled),
	)
	return rearmed, settled, nil
}

// settleExpired is the scheduler's callback when a timer fires.
func (s *Service) settleExpired(auctionID int64) {
	ctx := context.Background()

	sum, err := s.Settle(ctx, auctionID)
	if errors.Is(err, ErrAlreadySettled) || errors.Is(err, ErrAuctionNotFound) {
		// Lost the race to an admin close/cancel or a reset; nothing to do.
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry settlement failed",
			slog.Int64("auction_id", auctionID),
			slog.Any("error", err),
		)
		return
	}
	s.announceSettlement(ctx, sum)
}

// announceSettlement emits the closure notifications. Delivery failures are
// logged and swallowed; the ledger mutation stands regardless.
func (s *Service) announceSettlement(ctx context.Context, sum *Settlement) {
	if s.notifier == nil {
		return
	}

	channel := s.rules.ReportChannel
	if channel == "" {
		channel = sum.ChannelID
	}

	var msg string
	if sum.WinnerID != "" {
		msg = fmt.Sprintf("Auction #%d closed! <@%s> won **%s** (UID %d) for **%d** coins.",
			sum.AuctionID, sum.WinnerID, sum.Pokemon, sum.UniqueID, sum.Amount)
	} else {
		msg = fmt.Sprintf("Auction #%d (**%s**) closed with no bids.", sum.AuctionID, sum.Pokemon)
	}

	if channel != "" {
		if err := s.notifier.Announce(ctx, channel, msg); err != nil {
			s.logger.WarnContext(ctx, "could not announce auction close",
				slog.Int64("auction_id", sum.AuctionID),
				slog.Any("error", err),
			)
		}
	}

	if sum.WinnerID != "" {
		dm := fmt.Sprintf("You won auction #%d! **%s** (UID %d) for **%d** coins has been added to your inventory.",
			sum.AuctionID, sum.Pokemon, sum.UniqueID, sum.Amount)
		if err := s.notifier.DirectMessage(ctx, sum.WinnerID, dm); err != nil {
			s.logger.WarnContext(ctx, "could not DM auction winner",
				slog.String("user_id", sum.WinnerID),
				slog.Any("error", err),
			)
		}
	}
}

func copyAuction(a *ledger.Auction) *ledger.Auction {
	c := *a
	if a.TopBid != nil {
		tb := *a.TopBid
		c.TopBid = &tb
	}
	return &c
}

func formatID(id int64) string {
	return fmt.Sprintf("%d", id)
}
