// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package supervisor runs Tunegraph's long-lived services under a suture
// tree. Services restart with backoff when they fail, and the whole tree
// stops when its context is canceled (SIGINT/SIGTERM in cmd/server).
//
//	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
//	tree.AddDataService(services.NewIntervalService("badger-gc", 10*time.Minute, gcFunc))
//	tree.AddAPIService(services.NewHTTPServerService(srv, 15*time.Second))
//	err := tree.Serve(ctx)
//
// Service adapters live in the services subpackage.
package supervisor
