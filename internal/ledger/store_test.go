package ledger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pokevault/auctioneer/internal/config"
	"github.com/pokevault/auctioneer/internal/ledger"
)

type fakeStore struct{}

func (fakeStore) Load(context.Context) (*ledger.State, error) { return ledger.DefaultState(1), nil }
func (fakeStore) Save(context.Context, *ledger.State) error   { return nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestOpen_RegisteredDriver(t *testing.T) {
	var gotNextID int64
	ledger.Register("fake-driver", func(_ context.Context, _ config.LedgerConfig, opts ledger.Options) (*ledger.Handle, error) {
		gotNextID = opts.NextIDStart
		return &ledger.Handle{
			Store:  fakeStore{},
			Closer: nopCloser{},
			Ping:   func(context.Context) error { return nil },
		}, nil
	})

	h, err := ledger.Open(context.Background(),
		config.LedgerConfig{Driver: "fake-driver"},
		ledger.Options{NextIDStart: 11500},
	)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if h.Store == nil {
		t.Error("Open() returned nil Store")
	}
	if gotNextID != 11500 {
		t.Errorf("driver received NextIDStart = %d, want 11500", gotNextID)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := ledger.Open(context.Background(),
		config.LedgerConfig{Driver: "no-such-driver"},
		ledger.Options{},
	)
	if err == nil {
		t.Fatal("Open() expected error for unknown driver, got nil")
	}
	if !strings.Contains(err.Error(), "unknown ledger driver") {
		t.Errorf("error = %v, want mention of unknown ledger driver", err)
	}
}
