// Package config resolves shelfcut settings from defaults, SHELFCUT_*
// environment variables, a YAML file and command-line flags.
package config
