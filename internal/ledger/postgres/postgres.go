// Package postgres provides a ledger.Driver that stores the whole state
// document as a single jsonb snapshot row. It keeps the same whole-document
// contract as the jsonfile driver; the upsert replaces the snapshot
// atomically, which is the database's equivalent of the temp-file rename.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/pokevault/auctioneer/internal/config"
	"github.com/pokevault/auctioneer/internal/ledger"
)

func init() {
	ledger.Register("postgres", open)
}

func open(ctx context.Context, cfg config.LedgerConfig, opts ledger.Options) (*ledger.Handle, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ledger.Handle{
		Store:  New(db, opts.NextIDStart),
		Closer: db,
		Ping:   db.PingContext,
	}, nil
}

// Connect opens and verifies a Postgres connection with OTEL instrumentation.
func Connect(ctx context.Context, cfg config.LedgerConfig) (*sqlx.DB, error) {
	// Register the OTel-instrumented driver wrapping lib/pq.
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("registering otel driver: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Store implements ledger.Store on a single-row jsonb snapshot.
type Store struct {
	db          *sqlx.DB
	nextIDStart int64
}

// New returns a Store using the given connection.
func New(db *sqlx.DB, nextIDStart int64) *Store {
	return &Store{db: db, nextIDStart: nextIDStart}
}

// Load reads the snapshot row. An empty table produces a default document
// which is persisted immediately.
func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM ledger_snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		state := ledger.DefaultState(s.nextIDStart)
		if saveErr := s.Save(ctx, state); saveErr != nil {
			return nil, fmt.Errorf("initializing ledger snapshot: %w", saveErr)
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger snapshot: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("parsing ledger snapshot: %w", err)
	}
	state.Normalize(s.nextIDStart)
	return &state, nil
}

// Save replaces the snapshot row with the whole document.
func (s *Store) Save(ctx context.Context, state *ledger.State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_snapshot (id, doc, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		doc,
	)
	if err != nil {
		return fmt.Errorf("writing ledger snapshot: %w", err)
	}
	return nil
}
