package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every variable Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CAPSTONE_TEST", "MLREG_TRACKING_URI", "MLREG_TRACKING_HOST", "MLREG_MODEL_NAME",
		"MLREG_MODEL_STAGE", "MLREG_MODEL_ARCHIVE_EXISTING", "MLREG_REGISTRY_AWAIT_SECONDS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoad_MissingCredential(t *testing.T) {
	isolate(t)

	cfg, err := Load(New())
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "CAPSTONE_TEST")
}

func TestLoad_BlankCredential(t *testing.T) {
	isolate(t)
	t.Setenv("CAPSTONE_TEST", "   ")

	_, err := Load(New())
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("CAPSTONE_TEST", "tok-123")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "https://dagshub.com/madhusudhanreddy8074/capstone-project.mlflow", cfg.TrackingURI)
	assert.Equal(t, "tok-123", cfg.Username())
	assert.Equal(t, "tok-123", cfg.Password())
	assert.Equal(t, "my_model", cfg.ModelName)
	assert.Equal(t, "reports/experiment_info.json", cfg.InfoPath)
	assert.Equal(t, "Staging", cfg.Stage)
	assert.False(t, cfg.ArchiveExisting)
	assert.Equal(t, 300*time.Second, cfg.AwaitTimeout)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CAPSTONE_TEST", "tok")
	t.Setenv("MLREG_TRACKING_URI", "http://localhost:5000/")
	t.Setenv("MLREG_MODEL_NAME", "churn")
	t.Setenv("MLREG_MODEL_ARCHIVE_EXISTING", "true")
	t.Setenv("MLREG_REGISTRY_AWAIT_SECONDS", "0")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.TrackingURI)
	assert.Equal(t, "churn", cfg.ModelName)
	assert.True(t, cfg.ArchiveExisting)
	assert.Equal(t, time.Duration(0), cfg.AwaitTimeout)
}

func TestLoad_NegativeAwait(t *testing.T) {
	isolate(t)
	t.Setenv("CAPSTONE_TEST", "tok")
	t.Setenv("MLREG_REGISTRY_AWAIT_SECONDS", "-1")

	_, err := Load(New())
	require.Error(t, err)
}

func TestTrackingURI(t *testing.T) {
	tests := []struct {
		host, owner, repo string
		want              string
	}{
		{"https://dagshub.com", "alice", "proj", "https://dagshub.com/alice/proj.mlflow"},
		{"https://dagshub.com/", "alice", "proj", "https://dagshub.com/alice/proj.mlflow"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TrackingURI(tt.host, tt.owner, tt.repo))
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("# local credentials\nCAPSTONE_TEST=from-file\n"), 0600))

	require.NoError(t, LoadEnvFile(envFile))
	t.Cleanup(func() { os.Unsetenv("CAPSTONE_TEST") })

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("CAPSTONE_TEST", "from-env")
	envFile := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CAPSTONE_TEST=from-file\n"), 0600))

	require.NoError(t, LoadEnvFile(envFile))
	assert.Equal(t, "from-env", os.Getenv("CAPSTONE_TEST"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	require.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
	require.NoError(t, LoadEnvFile(""))
}

func TestSetAndReadFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("CAPSTONE_TEST", "tok")

	require.NoError(t, Set(KeyModelName, "fraud"))
	assert.FileExists(t, filepath.Join(home, ".mlreg", "config.yaml"))

	v := New()
	require.NoError(t, ReadFile(v))
	assert.Equal(t, "fraud", Get(v, KeyModelName))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "fraud", cfg.ModelName)

	data, err := os.ReadFile(filepath.Join(home, ".mlreg", "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tok")
}

func TestReadFile_Missing(t *testing.T) {
	isolate(t)
	require.NoError(t, ReadFile(New()))
}

func TestSet_RefusesToken(t *testing.T) {
	isolate(t)
	require.Error(t, Set(KeyTrackingToken, "secret"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "abcd***", Redact("abcdef123"))
	assert.Equal(t, "***", Redact("ab"))
	assert.Equal(t, "***", Redact(""))
}
