// Package config loads the relay configuration from a YAML file, overlays
// environment variables, and optionally watches the file for live reloads.
//
// Precedence, lowest to highest: built-in defaults, YAML file, environment.
// The relay runs with no config file at all; every field has a default.
//
// Environment overrides:
//   - PORT                 - HTTP listen port
//   - USE_NGROK            - "true" serves through an ngrok tunnel
//   - DEFAULT_ROOM         - room every connection auto-joins
//   - TIKTOK_LIVE_ENDPOINT - upstream live-event URL template
//   - TIKTOK_LIVE_ENABLED  - "false" disables the live bridge
package config
