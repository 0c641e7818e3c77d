// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

/*
Package logging wraps zerolog for Tunegraph.

A single global logger is configured once at startup with Init and used
through the package-level helpers:

	logging.Init(logging.Config{Level: "debug", Format: "console"})
	logging.Info().Str("user_id", id).Int("items", n).Msg("recommendations served")

Request-scoped entries go through Ctx, which adds the request and user ids
stored by the API middleware:

	ctx = logging.ContextWithRequestID(ctx, logging.NewRequestID())
	logging.Ctx(ctx).Warn().Err(err).Msg("friends signal failed")

Components that accept an slog.Logger (the suture supervisor tree via
sutureslog) get one from NewSlogLogger so every line shares one format.
*/
package logging
