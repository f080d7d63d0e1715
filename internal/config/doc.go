// Package config builds the explicit configuration value consumed by every
// other package. It layers built-in defaults, the user config file at
// ~/.mlreg/config.yaml, an optional dotenv file, MLREG_* environment variables
// and command-line flags, and gates startup on the tracking credential.
package config
