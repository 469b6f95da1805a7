// Package bot wraps the Discord session: slash command registration, the
// interaction dispatch loop and outbound notifications for the auction
// engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/pokevault/auctioneer/internal/bot/commands"
	"github.com/pokevault/auctioneer/internal/config"
)

// Bot wraps the Discord session and command handlers.
type Bot struct {
	session *discordgo.Session
	cfg     config.DiscordConfig
	logger  *slog.Logger
	cmds    []*discordgo.ApplicationCommand
}

// New creates the session without opening it. The returned Bot already
// satisfies auction.Notifier so the engine can be constructed next and
// handed to Start.
func New(cfg config.DiscordConfig, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return &Bot{
		session: session,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Announce posts a message to a channel.
func (b *Bot) Announce(_ context.Context, channelID, message string) error {
	if _, err := b.session.ChannelMessageSend(channelID, message); err != nil {
		return fmt.Errorf("announcing to channel %s: %w", channelID, err)
	}
	return nil
}

// DirectMessage opens (or reuses) a DM channel with the user and sends.
func (b *Bot) DirectMessage(_ context.Context, userID, message string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("opening DM channel with %s: %w", userID, err)
	}
	if _, err := b.session.ChannelMessageSend(ch.ID, message); err != nil {
		return fmt.Errorf("sending DM to %s: %w", userID, err)
	}
	return nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start(ctx context.Context, handlers *commands.Handlers) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.InfoContext(ctx, "bot is ready", slog.String("user", s.State.User.Username))
	})

	b.session.AddHandler(handlers.InteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID, b.cfg.GuildID, commands.SlashCommands())
	if err != nil {
		return fmt.Errorf("registering slash commands: %w", err)
	}
	b.cmds = registered

	b.logger.InfoContext(ctx, "slash commands registered", slog.Int("count", len(registered)))
	return nil
}

// Ping reports whether the gateway session heartbeat is alive. Used by the
// readiness probe.
func (b *Bot) Ping(context.Context) error {
	if b.session.HeartbeatLatency() == 0 {
		return fmt.Errorf("gateway session not established")
	}
	return nil
}

// Stop removes the registered slash commands and closes the connection.
func (b *Bot) Stop() error {
	for _, cmd := range b.cmds {
		if err := b.session.ApplicationCommandDelete(b.session.State.User.ID, b.cfg.GuildID, cmd.ID); err != nil {
			b.logger.Error("failed to delete command", slog.String("command", cmd.Name), slog.Any("error", err))
		}
	}
	return b.session.Close()
}
