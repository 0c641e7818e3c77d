// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Command seed loads a YAML catalog and social graph fixture into a Badger
// store so the server can be exercised locally.
//
//	go run ./cmd/seed -data ./data -fixture ./cmd/seed/testdata/catalog.yaml
//
// Without -data the store path comes from the server configuration
// (config.yaml, CONFIG_PATH or TUNEGRAPH_DATA_PATH).
package main

import (
	"context"
	"flag"
	"time"

	"github.com/tomtom215/tunegraph/internal/config"
	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
)

func main() {
	dataPath := flag.String("data", "", "badger directory (default: storage.badger.path from config)")
	fixturePath := flag.String("fixture", "cmd/seed/testdata/catalog.yaml", "YAML fixture to load")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console", Timestamp: true})

	storeCfg := storage.Config{Compression: true, SyncWrites: true}
	if *dataPath != "" {
		storeCfg.Path = *dataPath
	} else {
		cfg, err := config.Load()
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to load configuration")
		}
		storeCfg = cfg.Storage.Badger
	}

	fixture, err := LoadFixture(*fixturePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load fixture")
	}

	store, err := storage.Open(&storeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sum, err := fixture.Apply(ctx, store, time.Now().UTC())
	if err != nil {
		logging.Error().Err(err).Msg("seeding failed")
		return
	}
	logging.Info().
		Str("path", storeCfg.Path).
		Int("songs", sum.Songs).
		Int("likes", sum.Likes).
		Int("friendships", sum.Friendships).
		Msg("fixture loaded")
}
