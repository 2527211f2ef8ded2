// Package config holds the scratchindex settings and loads them from the
// YAML config file, a .env file and SCRATCHINDEX_* environment variables.
//
// Precedence, lowest first: defaults, config file, environment, CLI flags.
package config
