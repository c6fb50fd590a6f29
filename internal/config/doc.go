// Package config loads the optional lifecycle.yaml configuration.
//
// A missing file is not an error: every field has a default. Environment
// variables override the file:
//
//	LIFECYCLE_ADDR       server.addr
//	LIFECYCLE_LOG_LEVEL  log.level
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  title: "Counter lifecycle"
//	  shutdown_timeout: 5s
//	log:
//	  level: info     # debug, info, warn, error
//	  format: text    # text or json
//	demo:
//	  increments: 3   # increments performed by "lifecycle run"
package config
