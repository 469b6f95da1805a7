// Package jsonfile provides a ledger.Driver backed by a single flat JSON
// document on disk. Saves are atomic: the document is written to a temp file
// in the same directory, fsynced, then renamed over the live file, so a crash
// mid-write leaves the previous snapshot intact.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pokevault/auctioneer/internal/config"
	"github.com/pokevault/auctioneer/internal/ledger"
)

func init() {
	ledger.Register("jsonfile", open)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func open(ctx context.Context, cfg config.LedgerConfig, opts ledger.Options) (*ledger.Handle, error) {
	st := New(cfg.Path, opts.NextIDStart)

	// Fail fast on an unusable path instead of at the first mutation.
	if _, err := st.Load(ctx); err != nil {
		return nil, err
	}

	return &ledger.Handle{
		Store:  st,
		Closer: nopCloser{},
		Ping:   st.ping,
	}, nil
}

// Store implements ledger.Store on a flat file.
type Store struct {
	path        string
	nextIDStart int64
}

// New returns a Store for the given file path. The file is created with a
// default document on first Load.
func New(path string, nextIDStart int64) *Store {
	return &Store{path: path, nextIDStart: nextIDStart}
}

// Load reads the document. A missing file produces a default document which
// is persisted immediately.
func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		state := ledger.DefaultState(s.nextIDStart)
		if saveErr := s.Save(ctx, state); saveErr != nil {
			return nil, fmt.Errorf("initializing ledger file: %w", saveErr)
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger file: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing ledger file %s: %w", s.path, err)
	}
	state.Normalize(s.nextIDStart)
	return &state, nil
}

// Save writes the whole document atomically.
func (s *Store) Save(_ context.Context, state *ledger.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp ledger file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp ledger file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ledger file: %w", err)
	}
	return nil
}

func (s *Store) ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("ledger file unavailable: %w", err)
	}
	return nil
}
