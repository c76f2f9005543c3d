// Package config loads the whistledger configuration file.
//
// Values come from built-in defaults, then the TOML file, then WHISTLEDGER_*
// environment variables; command-line flags are applied by the caller last.
package config
