package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/capstone-project/mlreg/internal/branding"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys. Each maps to MLREG_<KEY> with dots replaced by
// underscores, e.g. model.name -> MLREG_MODEL_NAME.
const (
	KeyTrackingURI     = "tracking.uri"
	KeyTrackingHost    = "tracking.host"
	KeyTrackingOwner   = "tracking.owner"
	KeyTrackingRepo    = "tracking.repo"
	KeyTrackingToken   = "tracking.token"
	KeyModelName       = "model.name"
	KeyInfoPath        = "model.info_path"
	KeyStage           = "model.stage"
	KeyArchiveExisting = "model.archive_existing"
	KeyAwaitSeconds    = "registry.await_seconds"
	KeyTimeout         = "registry.timeout"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// DefaultAwaitSeconds bounds how long registration waits for a new version
// to become READY.
const DefaultAwaitSeconds = 300

// ErrMissingCredential is returned by Load when the tracking token is unset.
var ErrMissingCredential = errors.New("tracking credential is not set")

// Config is the resolved configuration for one invocation. Logging settings
// are not part of it: the logger is built before the credential is checked.
type Config struct {
	TrackingURI     string
	Token           string
	ModelName       string
	InfoPath        string
	Stage           string
	ArchiveExisting bool
	AwaitTimeout    time.Duration
	HTTPTimeout     time.Duration
}

// Username returns the basic-auth user name. The hosted tracking server
// accepts the token as both user name and password.
func (c *Config) Username() string { return c.Token }

// Password returns the basic-auth password.
func (c *Config) Password() string { return c.Token }

// Dir returns the path to the config directory (~/.mlreg/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.mlreg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// TrackingURI joins host, owner and repository into the MLflow tracking
// endpoint of a hosted repository, e.g. https://dagshub.com/owner/repo.mlflow.
func TrackingURI(host, owner, repo string) string {
	return fmt.Sprintf("%s/%s/%s.mlflow", strings.TrimRight(host, "/"), owner, repo)
}

// New returns a Viper instance with defaults and environment bindings set.
// It does not read any file.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTrackingHost, branding.TrackingHost())
	v.SetDefault(KeyTrackingOwner, branding.RepoOwner())
	v.SetDefault(KeyTrackingRepo, branding.RepoName())
	v.SetDefault(KeyModelName, branding.ModelName())
	v.SetDefault(KeyInfoPath, branding.InfoPath())
	v.SetDefault(KeyStage, branding.TargetStage())
	v.SetDefault(KeyArchiveExisting, false)
	v.SetDefault(KeyAwaitSeconds, DefaultAwaitSeconds)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	// The token lives under its historical variable name, outside the prefix.
	_ = v.BindEnv(KeyTrackingToken, branding.TokenEnv())
	return v
}

// ReadFile reads the user config file into v. A missing file is not an error.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set are left untouched.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// ResolveTrackingURI returns tracking.uri when set, otherwise the endpoint
// built from tracking.host, tracking.owner and tracking.repo.
func ResolveTrackingURI(v *viper.Viper) string {
	uri := v.GetString(KeyTrackingURI)
	if uri == "" {
		uri = TrackingURI(v.GetString(KeyTrackingHost), v.GetString(KeyTrackingOwner), v.GetString(KeyTrackingRepo))
	}
	return strings.TrimRight(uri, "/")
}

// Load resolves a Config from v. It fails with ErrMissingCredential before
// anything else is inspected when the tracking token is absent.
func Load(v *viper.Viper) (*Config, error) {
	token := strings.TrimSpace(v.GetString(KeyTrackingToken))
	if token == "" {
		return nil, fmt.Errorf("%w: %s environment variable is not set", ErrMissingCredential, branding.TokenEnv())
	}

	await := v.GetInt(KeyAwaitSeconds)
	if await < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyAwaitSeconds, await)
	}

	return &Config{
		TrackingURI:     ResolveTrackingURI(v),
		Token:           token,
		ModelName:       v.GetString(KeyModelName),
		InfoPath:        v.GetString(KeyInfoPath),
		Stage:           v.GetString(KeyStage),
		ArchiveExisting: v.GetBool(KeyArchiveExisting),
		AwaitTimeout:    time.Duration(await) * time.Second,
		HTTPTimeout:     v.GetDuration(KeyTimeout),
	}, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(v *viper.Viper, key string) string {
	return v.GetString(key)
}

// Set writes a config key-value pair and saves the config file. Only keys
// already in the file plus the new one are written; defaults and environment
// values stay out of it.
func Set(key, value string) error {
	if key == KeyTrackingToken {
		return fmt.Errorf("refusing to store %s in the config file; export %s instead", key, branding.TokenEnv())
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	file := viper.New()
	file.SetConfigFile(configFile)
	file.SetConfigType(fileType)
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", configFile, err)
	}
	file.Set(key, value)

	if err := file.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Redact masks a secret for display. Values with 4+ chars show the first 4
// chars + "***"; shorter values are fully redacted.
func Redact(value string) string {
	if len(value) >= 4 {
		return value[:4] + "***"
	}
	return "***"
}
