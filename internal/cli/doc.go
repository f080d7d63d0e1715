// Package cli defines the Cobra command tree for the mlreg CLI. Each file
// registers one command with the root. Commands resolve an explicit
// config.Config, delegate to internal packages for the work, and map
// failures to exit codes.
package cli
