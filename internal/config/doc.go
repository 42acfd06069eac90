// Package config handles configuration loading for synapse-gateway.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Values not present in the file keep their defaults, and the
// result is validated before it is returned.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from SYNAPSE_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/synapse/gateway.yaml or ~/.config/synapse/gateway.yaml
//
// A file whose name ends in .toml is parsed as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${SYNAPSE_DATA}/gateway.db"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	hub:
//	  poll_interval: "10ms"
//	server:
//	  write_timeout: "5s"
//
// # Example Configuration
//
//	server:
//	  interface: "0.0.0.0"
//	  port: 19132
//	  max_frame_size: 8388608
//	  write_timeout: "5s"
//
//	database:
//	  path: "~/.local/share/synapse/gateway.db"
//
//	hub:
//	  poll_interval: "10ms"
//
//	health:
//	  grpc_addr: "127.0.0.1:19133"
//
//	metrics:
//	  enabled: true
//	  addr: "127.0.0.1:9132"
//	  path: "/metrics"
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text, json
//
//	admins:
//	  - alice
//
// # Defaults
//
//   - server.interface: 0.0.0.0
//   - server.port: 19132
//   - server.max_frame_size: 8 MiB
//   - server.write_timeout: 5s
//   - hub.poll_interval: 10ms
//   - health.grpc_addr: 127.0.0.1:19133
//   - metrics.addr: 127.0.0.1:9132, metrics.path: /metrics (disabled)
//   - logging: info, text
//
// database.path has no default and must be set.
package config
