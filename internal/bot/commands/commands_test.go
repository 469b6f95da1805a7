package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pokevault/auctioneer/internal/auction"
)

func TestParseDuration(t *testing.T) {
	def := 48 * time.Hour

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", def, false},
		{"3d", 72 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"90", 90 * time.Second, false},
		{" 2D ", 48 * time.Hour, false},
		{"0", 0, true},
		{"-5m", 0, true},
		{"soon", 0, true},
		{"xd", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.in, def)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDuration(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDuration(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{49*time.Hour + 30*time.Minute, "2d 1h"},
		{3*time.Hour + 2*time.Minute, "3h 2m"},
		{45 * time.Minute, "45m"},
	}

	for _, tt := range tests {
		if got := formatRemaining(tt.in); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&auction.BidTooLowError{Required: 55}, "at least **55** coins"},
		{auction.ErrBanned, "banned"},
		{auction.ErrAuctionNotFound, "No auction"},
		{auction.ErrAuctionClosed, "already ended"},
		{auction.ErrInsufficientFunds, "enough coins"},
		{errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		if got := renderErr(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("renderErr(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestOutbidRecipient(t *testing.T) {
	tests := []struct {
		name   string
		res    *auction.BidResult
		bidder string
		want   string
	}{
		{"first bid", &auction.BidResult{}, "u1", ""},
		{"outbid someone else", &auction.BidResult{PrevBidder: "u1"}, "u2", "u1"},
		{"raised own bid", &auction.BidResult{PrevBidder: "u1"}, "u1", ""},
	}

	for _, tt := range tests {
		if got := outbidRecipient(tt.res, tt.bidder); got != tt.want {
			t.Errorf("%s: outbidRecipient = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnknownPokemon_Suggests(t *testing.T) {
	got := unknownPokemon("gholdeno")
	if !strings.Contains(got, "Gholdengo") {
		t.Errorf("unknownPokemon(gholdeno) = %q, want a Gholdengo suggestion", got)
	}
}
