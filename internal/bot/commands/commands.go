// Package commands defines the slash command surface and translates Discord
// interactions into auction engine calls.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pokevault/auctioneer/internal/auction"
	"github.com/pokevault/auctioneer/internal/catalog"
	"github.com/pokevault/auctioneer/internal/clock"
	"github.com/pokevault/auctioneer/internal/config"
	"github.com/pokevault/auctioneer/internal/ledger"
)

const (
	listPageSize = 10
	resetPhrase  = "CONFIRM"
	maxBatchSize = 50
)

// Handlers process Discord interactions against the auction engine.
type Handlers struct {
	svc             *auction.Service
	cfg             config.DiscordConfig
	defaultDuration time.Duration
	clock           clock.Clock
	logger          *slog.Logger
	tracer          trace.Tracer
}

// NewHandlers creates new command handlers.
func NewHandlers(svc *auction.Service, cfg config.DiscordConfig, defaultDuration time.Duration, clk clock.Clock, logger *slog.Logger, tp trace.TracerProvider) *Handlers {
	return &Handlers{
		svc:             svc,
		cfg:             cfg,
		defaultDuration: defaultDuration,
		clock:           clk,
		logger:          logger,
		tracer:          tp.Tracer("github.com/pokevault/auctioneer/internal/bot/commands"),
	}
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "register",
			Description: "Create your auction house account",
		},
		{
			Name:        "coins",
			Description: "Check a coin balance",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Whose balance to check (default: yours)",
					Required:    false,
				},
			},
		},
		{
			Name:        "inventory",
			Description: "Show won Pokémon",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Whose inventory to show (default: yours)",
					Required:    false,
				},
			},
		},
		{
			Name:        "bid",
			Description: "Place a bid on an auction",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "auction-id",
					Description: "Auction ID to bid on",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Bid amount in coins",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-start",
			Description: "Start an auction (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "pokemon",
					Description: "Pokémon to auction (default: random pick)",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "min-bid",
					Description: "Minimum first bid",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Auction duration, e.g. 2d, 12h, 30m (default: 48h)",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-start-gen",
			Description: "Start auctions for every Pokémon in generations (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "gens",
					Description: "Generations, e.g. 1,3-5",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "times",
					Description: "Copies per Pokémon (default: 1)",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Auction duration, e.g. 2d, 12h, 30m (default: 48h)",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-start-multi",
			Description: "Start one auction per listed Pokémon (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "pokemon",
					Description: "Comma-separated names, or a list name like starters",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Auction duration, e.g. 2d, 12h, 30m (default: 48h)",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-start-copies",
			Description: "Start several auctions for the same Pokémon (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "pokemon",
					Description: "Pokémon to auction",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "Number of copies",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Auction duration, e.g. 2d, 12h, 30m (default: 48h)",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-list",
			Description: "List running auctions, soonest ending first",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number (default: 1)",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-info",
			Description: "Show one auction in detail",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "auction-id",
					Description: "Auction ID",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-lookup",
			Description: "Find running auctions for a Pokémon",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "pokemon",
					Description: "Pokémon name",
					Required:    true,
				},
			},
		},
		{
			Name:        "legal-list",
			Description: "Show the auctionable Pokémon",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "gen",
					Description: "Limit to one generation",
					Required:    false,
				},
			},
		},
		{
			Name:        "add-coins",
			Description: "Add or deduct coins (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Account to adjust",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Delta in coins, may be negative",
					Required:    true,
				},
			},
		},
		{
			Name:        "set-coins",
			Description: "Overwrite a coin balance (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Account to overwrite",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "New balance",
					Required:    true,
				},
			},
		},
		{
			Name:        "ban",
			Description: "Ban a user from bidding (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to ban",
					Required:    true,
				},
			},
		},
		{
			Name:        "unban",
			Description: "Lift a bidding ban (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to unban",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-close",
			Description: "Settle an auction early (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "auction-id",
					Description: "Auction ID to settle",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-cancel",
			Description: "Cancel an auction and refund the top bid (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "auction-id",
					Description: "Auction ID to cancel",
					Required:    true,
				},
			},
		},
		{
			Name:        "reset-all",
			Description: "Wipe all balances, inventories, auctions and bans (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "confirm",
					Description: "Type CONFIRM to proceed",
					Required:    true,
				},
			},
		},
	}
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	ctx, span := h.tracer.Start(context.Background(), "InteractionCreate",
		trace.WithAttributes(attribute.String("command", name)),
	)
	defer span.End()

	switch name {
	case "register":
		h.handleRegister(ctx, s, i)
	case "coins":
		h.handleCoins(ctx, s, i)
	case "inventory":
		h.handleInventory(ctx, s, i)
	case "bid":
		h.handleBid(ctx, s, i)
	case "auction-start":
		h.handleAuctionStart(ctx, s, i)
	case "auction-start-gen":
		h.handleAuctionStartGen(ctx, s, i)
	case "auction-start-multi":
		h.handleAuctionStartMulti(ctx, s, i)
	case "auction-start-copies":
		h.handleAuctionStartCopies(ctx, s, i)
	case "auction-list":
		h.handleAuctionList(ctx, s, i)
	case "auction-info":
		h.handleAuctionInfo(ctx, s, i)
	case "auction-lookup":
		h.handleAuctionLookup(ctx, s, i)
	case "legal-list":
		h.handleLegalList(ctx, s, i)
	case "add-coins":
		h.handleAddCoins(ctx, s, i)
	case "set-coins":
		h.handleSetCoins(ctx, s, i)
	case "ban":
		h.handleBan(ctx, s, i)
	case "unban":
		h.handleUnban(ctx, s, i)
	case "auction-close":
		h.handleAuctionClose(ctx, s, i)
	case "auction-cancel":
		h.handleAuctionCancel(ctx, s, i)
	case "reset-all":
		h.handleResetAll(ctx, s, i)
	default:
		respond(s, i, "Unknown command")
	}
}

func (h *Handlers) handleRegister(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := invoker(i).ID
	if err := h.svc.RegisterAccount(ctx, userID); err != nil {
		respond(s, i, renderErr(err))
		return
	}
	respond(s, i, fmt.Sprintf("Account ready. Balance: **%d** coins.", h.svc.GetBalance(ctx, userID)))
}

func (h *Handlers) handleCoins(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := invoker(i)
	if u, ok := userOption(s, i, "user"); ok {
		target = u
	}
	respond(s, i, fmt.Sprintf("<@%s> has **%d** coins.", target.ID, h.svc.GetBalance(ctx, target.ID)))
}

func (h *Handlers) handleInventory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := invoker(i)
	if u, ok := userOption(s, i, "user"); ok {
		target = u
	}

	inv := h.svc.Inventory(ctx, target.ID)
	if len(inv) == 0 {
		respond(s, i, fmt.Sprintf("<@%s> has not won anything yet.", target.ID))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inventory of <@%s>:\n", target.ID)
	for _, item := range inv {
		fmt.Fprintf(&sb, "- **%s** (UID %d), won %s\n",
			item.Pokemon, item.UniqueID,
			time.Unix(int64(item.ReceivedTS), 0).UTC().Format("2006-01-02"))
	}
	respond(s, i, sb.String())
}

func (h *Handlers) handleBid(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	auctionID := opts["auction-id"].IntValue()
	amount := int(opts["amount"].IntValue())

	res, err := h.svc.PlaceBid(ctx, auctionID, invoker(i).ID, amount)
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}

	msg := fmt.Sprintf("Bid of **%d** coins placed on auction `#%d` (**%s**). Your balance: **%d**. Next minimum: **%d**.",
		res.Amount, res.AuctionID, res.Pokemon, res.NewBalance, res.NextMinimum)
	respond(s, i, msg)

	if recipient := outbidRecipient(res, invoker(i).ID); recipient != "" {
		outbid := fmt.Sprintf("You were outbid on auction `#%d` (**%s**). Your **%d** coins were refunded.",
			res.AuctionID, res.Pokemon, res.PrevAmount)
		if err := h.notifyDM(s, recipient, outbid); err != nil {
			h.logger.WarnContext(ctx, "could not DM outbid user",
				slog.String("user_id", recipient), slog.Any("error", err))
		}
	}
}

// outbidRecipient returns the user owed an outbid notice, or empty when there
// was no prior bid or the bidder superseded their own bid.
func outbidRecipient(res *auction.BidResult, bidderID string) string {
	if res.PrevBidder == "" || res.PrevBidder == bidderID {
		return ""
	}
	return res.PrevBidder
}

func (h *Handlers) handleAuctionStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)

	name := ""
	if opt, ok := opts["pokemon"]; ok {
		name = opt.StringValue()
	}
	if name == "" {
		legal := catalog.Names()
		name = legal[rand.IntN(len(legal))]
	} else if _, ok := catalog.Canon(name); !ok {
		respond(s, i, unknownPokemon(name))
		return
	}

	minBid := 0
	if opt, ok := opts["min-bid"]; ok {
		minBid = int(opt.IntValue())
	}
	duration, err := h.durationOption(opts)
	if err != nil {
		respond(s, i, err.Error())
		return
	}

	a, err := h.svc.Create(ctx, auction.CreateRequest{
		Pokemon:   name,
		CreatedBy: invoker(i).ID,
		ChannelID: i.ChannelID,
		Duration:  duration,
		MinBid:    minBid,
	})
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}
	respond(s, i, fmt.Sprintf("Auction `#%d` started for **%s**! Minimum bid: **%d**. Ends %s.",
		a.AuctionID, a.Pokemon, a.MinBid, h.formatEnd(a.EndsAt())))
}

func (h *Handlers) handleAuctionStartGen(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)

	gens := catalog.ParseGens(opts["gens"].StringValue())
	if len(gens) == 0 {
		respond(s, i, "No valid generations in that spec. Use something like `1,3-5`.")
		return
	}
	pool := catalog.ByGens(gens)

	times := 1
	if opt, ok := opts["times"]; ok {
		times = int(opt.IntValue())
	}
	if times < 1 {
		respond(s, i, "times must be at least 1.")
		return
	}
	if len(pool)*times > maxBatchSize {
		respond(s, i, fmt.Sprintf("That would start %d auctions, the limit is %d per batch.", len(pool)*times, maxBatchSize))
		return
	}
	duration, err := h.durationOption(opts)
	if err != nil {
		respond(s, i, err.Error())
		return
	}

	// Copies of the same Pokémon are grouped so their ids are adjacent.
	names := make([]string, 0, len(pool)*times)
	for _, name := range pool {
		for n := 0; n < times; n++ {
			names = append(names, name)
		}
	}

	h.startBatch(ctx, s, i, names, duration)
}

func (h *Handlers) handleAuctionStartMulti(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)
	raw := opts["pokemon"].StringValue()

	// A single token naming a curated list expands to that list.
	names := catalog.NamedList(raw)
	if len(names) == 0 {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			c, ok := catalog.Canon(part)
			if !ok {
				respond(s, i, unknownPokemon(part))
				return
			}
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		respond(s, i, "Nothing to auction.")
		return
	}
	if len(names) > maxBatchSize {
		respond(s, i, fmt.Sprintf("At most %d auctions per batch.", maxBatchSize))
		return
	}
	duration, err := h.durationOption(opts)
	if err != nil {
		respond(s, i, err.Error())
		return
	}

	h.startBatch(ctx, s, i, names, duration)
}

func (h *Handlers) handleAuctionStartCopies(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)

	count := int(opts["count"].IntValue())
	if count < 1 || count > maxBatchSize {
		respond(s, i, fmt.Sprintf("count must be between 1 and %d.", maxBatchSize))
		return
	}
	names := catalog.ExpandCopies(opts["pokemon"].StringValue(), count)
	if names == nil {
		respond(s, i, unknownPokemon(opts["pokemon"].StringValue()))
		return
	}
	duration, err := h.durationOption(opts)
	if err != nil {
		respond(s, i, err.Error())
		return
	}

	h.startBatch(ctx, s, i, names, duration)
}

func (h *Handlers) startBatch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, names []string, duration time.Duration) {
	auctions, err := h.svc.CreateBatch(ctx, names, auction.CreateRequest{
		CreatedBy: invoker(i).ID,
		ChannelID: i.ChannelID,
		Duration:  duration,
	})
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Started **%d** auctions, ending %s:\n", len(auctions), h.formatEnd(auctions[0].EndsAt()))
	for _, a := range auctions {
		fmt.Fprintf(&sb, "- `#%d` **%s** (min bid %d)\n", a.AuctionID, a.Pokemon, a.MinBid)
	}
	respond(s, i, sb.String())
}

func (h *Handlers) handleAuctionList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	page := 1
	if opt, ok := opts["page"]; ok && opt.IntValue() > 0 {
		page = int(opt.IntValue())
	}

	active := h.svc.ListActive(ctx)
	if len(active) == 0 {
		respond(s, i, "No auctions are running.")
		return
	}

	pages := (len(active) + listPageSize - 1) / listPageSize
	if page > pages {
		respond(s, i, fmt.Sprintf("Page %d is out of range, there are %d pages.", page, pages))
		return
	}
	lo := (page - 1) * listPageSize
	hi := min(lo+listPageSize, len(active))

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Running auctions** (page %d/%d):\n", page, pages)
	for _, a := range active[lo:hi] {
		sb.WriteString(h.formatAuctionLine(a))
	}
	respond(s, i, sb.String())
}

func (h *Handlers) handleAuctionInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	a, err := h.svc.Get(ctx, opts["auction-id"].IntValue())
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Auction `#%d` — **%s** (UID %d)\n", a.AuctionID, a.Pokemon, a.UniqueID)
	if a.IsClosed {
		sb.WriteString("Status: **closed**\n")
	} else {
		fmt.Fprintf(&sb, "Status: open, ends %s\n", h.formatEnd(a.EndsAt()))
	}
	if a.TopBid != nil {
		fmt.Fprintf(&sb, "Top bid: **%d** coins by <@%s>\n", a.TopBid.Amount, a.TopBid.UserID)
	} else {
		sb.WriteString("No bids yet.\n")
	}
	if !a.IsClosed {
		current := 0
		if a.TopBid != nil {
			current = a.TopBid.Amount
		}
		fmt.Fprintf(&sb, "Next minimum: **%d** coins\n", auction.NextMinimum(current, a.MinBid))
	}
	fmt.Fprintf(&sb, "Bids received: %d\n", a.BidsReceived)
	respond(s, i, sb.String())
}

func (h *Handlers) handleAuctionLookup(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	name := opts["pokemon"].StringValue()

	found := h.svc.FindByItem(ctx, name)
	if len(found) == 0 {
		respond(s, i, fmt.Sprintf("No running auctions for **%s**.", name))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Running auctions for **%s**:\n", found[0].Pokemon)
	for _, a := range found {
		sb.WriteString(h.formatAuctionLine(a))
	}
	respond(s, i, sb.String())
}

func (h *Handlers) handleLegalList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	if opt, ok := opts["gen"]; ok {
		gen := int(opt.IntValue())
		names := catalog.ByGen(gen)
		if len(names) == 0 {
			respond(s, i, fmt.Sprintf("No generation %d in the catalog.", gen))
			return
		}
		respond(s, i, fmt.Sprintf("**Gen %d:** %s", gen, strings.Join(names, ", ")))
		return
	}

	respond(s, i, fmt.Sprintf("**Auctionable Pokémon (%d):** %s",
		len(catalog.Names()), strings.Join(catalog.Names(), ", ")))
}

func (h *Handlers) handleAddCoins(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	delta := int(opts["amount"].IntValue())

	balance, err := h.svc.AddBalance(ctx, target.ID, delta)
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}
	respond(s, i, fmt.Sprintf("Adjusted <@%s> by **%+d** coins. New balance: **%d**.", target.ID, delta, balance))
}

func (h *Handlers) handleSetCoins(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	amount := int(opts["amount"].IntValue())

	if err := h.svc.SetBalance(ctx, target.ID, amount); err != nil {
		respond(s, i, renderErr(err))
		return
	}
	respond(s, i, fmt.Sprintf("Set <@%s>'s balance to **%d** coins.", target.ID, amount))
}

func (h *Handlers) handleBan(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	target := optionMap(i)["user"].UserValue(s)

	if err := h.svc.Ban(ctx, target.ID); err != nil {
		respond(s, i, renderErr(err))
		return
	}
	respond(s, i, fmt.Sprintf("<@%s> is banned from bidding.", target.ID))
}

func (h *Handlers) handleUnban(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	target := optionMap(i)["user"].UserValue(s)

	was, err := h.svc.Unban(ctx, target.ID)
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}
	if !was {
		respond(s, i, fmt.Sprintf("<@%s> was not banned.", target.ID))
		return
	}
	respond(s, i, fmt.Sprintf("<@%s> may bid again.", target.ID))
}

func (h *Handlers) handleAuctionClose(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	auctionID := optionMap(i)["auction-id"].IntValue()

	sum, err := h.svc.Settle(ctx, auctionID)
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}
	if sum.WinnerID == "" {
		respond(s, i, fmt.Sprintf("Auction `#%d` (**%s**) closed with no bids.", sum.AuctionID, sum.Pokemon))
		return
	}
	respond(s, i, fmt.Sprintf("Auction `#%d` closed. <@%s> won **%s** (UID %d) for **%d** coins.",
		sum.AuctionID, sum.WinnerID, sum.Pokemon, sum.UniqueID, sum.Amount))
}

func (h *Handlers) handleAuctionCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	auctionID := optionMap(i)["auction-id"].IntValue()

	can, err := h.svc.Cancel(ctx, auctionID)
	if err != nil {
		respond(s, i, renderErr(err))
		return
	}
	if can.RefundedTo == "" {
		respond(s, i, fmt.Sprintf("Auction `#%d` (**%s**) cancelled.", can.AuctionID, can.Pokemon))
		return
	}
	respond(s, i, fmt.Sprintf("Auction `#%d` (**%s**) cancelled. Refunded **%d** coins to <@%s>.",
		can.AuctionID, can.Pokemon, can.RefundedAmount, can.RefundedTo))
}

func (h *Handlers) handleResetAll(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	if optionMap(i)["confirm"].StringValue() != resetPhrase {
		respond(s, i, fmt.Sprintf("Not reset. Pass `%s` to wipe everything.", resetPhrase))
		return
	}

	if err := h.svc.ResetAll(ctx); err != nil {
		respond(s, i, renderErr(err))
		return
	}

	h.logger.WarnContext(ctx, "ledger reset requested",
		slog.String("user_id", invoker(i).ID))
	respond(s, i, "The auction house has been reset: balances, inventories, auctions and bans are gone.")
}

// requireAdmin responds with a refusal and returns false unless the invoker
// has the administrator permission or carries the whitelist role.
func (h *Handlers) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		respond(s, i, "Admin commands only work inside the server.")
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if h.cfg.WhitelistRole != "" {
		for _, role := range i.Member.Roles {
			if role == h.cfg.WhitelistRole {
				return true
			}
		}
	}
	respond(s, i, "You are not allowed to run this command.")
	return false
}

func (h *Handlers) durationOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (time.Duration, error) {
	raw := ""
	if opt, ok := opts["duration"]; ok {
		raw = opt.StringValue()
	}
	return parseDuration(raw, h.defaultDuration)
}

// parseDuration accepts "2d", "12h", "30m", any time.ParseDuration string,
// or a bare number of seconds. Empty means the default.
func parseDuration(s string, def time.Duration) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}

	var d time.Duration
	if num, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("cannot parse duration %q, use forms like 2d, 12h or 30m", s)
		}
		d = time.Duration(days) * 24 * time.Hour
	} else if parsed, err := time.ParseDuration(s); err == nil {
		d = parsed
	} else if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		return 0, fmt.Errorf("cannot parse duration %q, use forms like 2d, 12h or 30m", s)
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

func (h *Handlers) formatAuctionLine(a *ledger.Auction) string {
	top := "no bids"
	if a.TopBid != nil {
		top = fmt.Sprintf("top bid %d by <@%s>", a.TopBid.Amount, a.TopBid.UserID)
	}
	return fmt.Sprintf("- `#%d` **%s** — %s — ends %s\n", a.AuctionID, a.Pokemon, top, h.formatEnd(a.EndsAt()))
}

func unknownPokemon(name string) string {
	msg := fmt.Sprintf("**%s** is not in the auction catalog.", name)
	if suggestions := catalog.Suggest(name, 3); len(suggestions) > 0 {
		msg += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return msg
}

// renderErr maps engine errors to user-facing wording.
func renderErr(err error) string {
	var tooLow *auction.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return fmt.Sprintf("Bid too low. The next bid must be at least **%d** coins.", tooLow.Required)
	case errors.Is(err, auction.ErrInvalidAmount):
		return "Bids must be a positive number of coins."
	case errors.Is(err, auction.ErrBanned):
		return "You are banned from bidding."
	case errors.Is(err, auction.ErrAuctionNotFound):
		return "No auction with that ID."
	case errors.Is(err, auction.ErrAuctionClosed):
		return "That auction has already ended."
	case errors.Is(err, auction.ErrInsufficientFunds):
		return "You do not have enough coins for that bid."
	case errors.Is(err, auction.ErrAlreadySettled):
		return "That auction is already settled."
	case errors.Is(err, auction.ErrInvariantViolation):
		return "That change would make the balance negative."
	default:
		return fmt.Sprintf("Something went wrong: %s", err)
	}
}

func (h *Handlers) notifyDM(s *discordgo.Session, userID, message string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSend(ch.ID, message)
	return err
}

func (h *Handlers) formatEnd(t time.Time) string {
	remaining := t.Sub(h.clock.Now()).Round(time.Minute)
	if remaining < time.Minute {
		return "in under a minute"
	}
	return fmt.Sprintf("in %s (<t:%d:f>)", formatRemaining(remaining), t.Unix())
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func invoker(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func userOption(s *discordgo.Session, i *discordgo.InteractionCreate, name string) (*discordgo.User, bool) {
	if opt, ok := optionMap(i)[name]; ok {
		return opt.UserValue(s), true
	}
	return nil, false
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}
