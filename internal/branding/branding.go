// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary. It carries the CLI name, the
// environment prefix, and the fixed identifiers of the tracking server the
// tool registers models into (host, owner, repository).
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	TokenEnv     string `yaml:"token_env"`
	TrackingHost string `yaml:"tracking_host"`
	RepoOwner    string `yaml:"repo_owner"`
	RepoName     string `yaml:"repo_name"`
	ModelName    string `yaml:"model_name"`
	InfoPath     string `yaml:"info_path"`
	TargetStage  string `yaml:"target_stage"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "mlreg",
			DisplayName:  "mlreg",
			Description:  "Register trained models into an MLflow registry and stage them",
			HomeDir:      ".mlreg",
			EnvPrefix:    "MLREG",
			TokenEnv:     "CAPSTONE_TEST",
			TrackingHost: "https://dagshub.com",
			RepoOwner:    "madhusudhanreddy8074",
			RepoName:     "capstone-project",
			ModelName:    "my_model",
			InfoPath:     "reports/experiment_info.json",
			TargetStage:  "Staging",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "mlreg").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".mlreg").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MLREG").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// TokenEnv returns the name of the environment variable holding the
// tracking server token (e.g., "CAPSTONE_TEST").
func TokenEnv() string { load(); return defaults.TokenEnv }

// TrackingHost returns the base URL of the hosted tracking service.
func TrackingHost() string { load(); return defaults.TrackingHost }

// RepoOwner returns the account owning the tracking repository.
func RepoOwner() string { load(); return defaults.RepoOwner }

// RepoName returns the tracking repository name.
func RepoName() string { load(); return defaults.RepoName }

// ModelName returns the default registered model name.
func ModelName() string { load(); return defaults.ModelName }

// InfoPath returns the default path of the model info JSON document.
func InfoPath() string { load(); return defaults.InfoPath }

// TargetStage returns the stage new versions are moved to.
func TargetStage() string { load(); return defaults.TargetStage }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "MLREG_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
