// Package config handles configuration loading for coven-desk.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. The package applies defaults for everything except the
// provider API key, which must be present.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	anthropic:
//	  api_key: "${ANTHROPIC_API_KEY}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  allowed_origins:
//	    - "http://localhost:5173"
//
// Database:
//
//	database:
//	  path: "/var/lib/coven/desk.db"
//
// Provider and loop tuning:
//
//	anthropic:
//	  api_key: "${ANTHROPIC_API_KEY}"
//	  model: "claude-sonnet-4-20250514"
//	  max_tokens: 4096
//	  max_iterations: 10
//	  system_prompt: ""
//
// Uploads:
//
//	uploads:
//	  dir: "data/uploads"
//	  max_size: 33554432  # bytes
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
