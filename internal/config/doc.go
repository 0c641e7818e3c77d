// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

/*
Package config loads Tunegraph server configuration with koanf.

Layers, lowest priority first:

 1. Defaults (Defaults)
 2. YAML file from CONFIG_PATH, or the first of DefaultConfigPaths that exists
 3. TUNEGRAPH_* environment variables

Environment variables use short names that map to koanf paths, for example:

	TUNEGRAPH_HTTP_PORT=9000          server.port
	TUNEGRAPH_DATA_PATH=/var/lib/tg   storage.badger.path
	TUNEGRAPH_CLUSTER_CACHE=redis     storage.cluster_cache
	TUNEGRAPH_REDIS_ADDR=redis:6379   storage.redis.addr
	TUNEGRAPH_WORKERS=8               recommend.workers

Unmapped TUNEGRAPH_* variables are ignored.

Example config.yaml:

	server:
	  port: 8420
	storage:
	  badger:
	    path: /data/tunegraph
	  cluster_cache: memory
	recommend:
	  max_limit: 50
	  mmr_lambda: 0.6
*/
package config
