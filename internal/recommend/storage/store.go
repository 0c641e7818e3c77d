// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/fxamacker/cbor/v2"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

const backendBadger = "badger"

// Key prefixes. The separator is NUL so ids may contain ':' or '/'.
const (
	sep             = "\x00"
	prefixSong      = "song" + sep
	prefixLike      = "like" + sep
	prefixFriend    = "friend" + sep
	prefixFeedback  = "feedback" + sep
	prefixRec       = "rec" + sep
	prefixRecByUser = "recuser" + sep
	prefixClusters  = "clusters" + sep
)

const (
	defaultGCRatio    = 0.5
	maxGCPassesPerRun = 16
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: closed")

	// ErrInvalidID is returned for empty ids or ids containing NUL.
	ErrInvalidID = errors.New("storage: invalid id")
)

// Config holds BadgerDB settings.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps all data in memory; useful for tests and demos.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites forces fsync after every write.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `koanf:"compression"`

	// GCRatio is the discard ratio passed to value log GC. Default: 0.5.
	GCRatio float64 `koanf:"gc_ratio"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("storage path is required unless in_memory is set")
	}
	if c.GCRatio < 0 || c.GCRatio >= 1 {
		return fmt.Errorf("gc_ratio must be in [0, 1), got %f", c.GCRatio)
	}
	return nil
}

// Store is the BadgerDB-backed collaborator store.
type Store struct {
	db     *badger.DB
	config Config
	enc    cbor.EncMode
	dec    cbor.DecMode
	closed atomic.Bool
	ownsDB bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s, err := newStore(db, *cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("store opened")
	return s, nil
}

// New wraps an already open database. The caller keeps ownership of db.
func New(db *badger.DB) (*Store, error) {
	return newStore(db, Config{InMemory: true})
}

func newStore(db *badger.DB, cfg Config) (*Store, error) {
	if cfg.GCRatio == 0 {
		cfg.GCRatio = defaultGCRatio
	}

	enc, err := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}

	return &Store{db: db, config: cfg, enc: enc, dec: dec}, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !s.ownsDB {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.observe(ctx, "ping", func() error {
		return s.db.View(func(*badger.Txn) error { return nil })
	})
}

// GCResult values reported by RunValueLogGC.
const (
	GCRewritten = "rewritten"
	GCNothing   = "nothing"
	GCError     = "error"
)

// RunValueLogGC runs value log garbage collection until nothing is left to
// rewrite (bounded per call). It is a no-op for in-memory stores.
func (s *Store) RunValueLogGC() (string, error) {
	if s.closed.Load() {
		return GCError, ErrClosed
	}
	if s.config.InMemory {
		return GCNothing, nil
	}

	result := GCNothing
	for i := 0; i < maxGCPassesPerRun; i++ {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			metrics.RecordStoreGC(GCError)
			return GCError, fmt.Errorf("run value log GC: %w", err)
		}
		result = GCRewritten
	}

	metrics.RecordStoreGC(result)
	return result, nil
}

// observe wraps a store operation with a span and metrics.
func (s *Store) observe(ctx context.Context, op string, fn func() error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	_, end := tracing.StartStoreSpan(ctx, backendBadger, op)
	err := fn()
	end(err)
	metrics.RecordStoreOperation(backendBadger, op, time.Since(start), err)
	return err
}

func (s *Store) marshal(v any) ([]byte, error) {
	data, err := s.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

func (s *Store) unmarshal(data []byte, v any) error {
	if err := s.dec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// get decodes the value at key into v, returning ErrNotFound when absent.
func (s *Store) get(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return s.unmarshal(val, v)
	})
}

// set encodes v and stores it at key.
func (s *Store) set(txn *badger.Txn, key []byte, v any) error {
	data, err := s.marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// keySuffixes returns the last key component of every key under prefix.
func keySuffixes(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		out = append(out, string(it.Item().Key()[len(prefix):]))
	}
	return out
}

func key(prefix string, parts ...string) []byte {
	return []byte(prefix + strings.Join(parts, sep))
}

func validID(ids ...string) error {
	for _, id := range ids {
		if id == "" || strings.Contains(id, sep) {
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}
