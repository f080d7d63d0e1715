package modelinfo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/capstone-project/mlreg/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPath(name string) string {
	return filepath.Join("testdata", name)
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment_info.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model_path": "runs:/abc123/model"}`), 0644))

	info, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, ModelInfo{"model_path": "runs:/abc123/model"}, info)

	uri, err := info.ModelPath()
	require.NoError(t, err)
	assert.Equal(t, "runs:/abc123/model", uri)
}

func TestLoad_PassesThroughExtraFields(t *testing.T) {
	info, err := Load(context.Background(), testPath("valid.json"))
	require.NoError(t, err)

	raw, err := os.ReadFile(testPath("valid.json"))
	require.NoError(t, err)
	var want map[string]any
	require.NoError(t, json.Unmarshal(raw, &want))

	assert.Equal(t, ModelInfo(want), info)
	assert.Equal(t, "abc123", info["run_id"])
}

func TestLoad_LogsSourcePath(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New("info", "text", &buf))

	_, err := Load(ctx, testPath("valid.json"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "model info loaded")
	assert.Contains(t, buf.String(), testPath("valid.json"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"not found", filepath.Join(t.TempDir(), "missing.json")},
		{"malformed", testPath("malformed.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, info)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoad_NotFoundIsErrNotExist(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_RejectsNonObject(t *testing.T) {
	for _, doc := range []string{`null`, `[1, 2]`, `"runs:/x/model"`} {
		t.Run(doc, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestModelPath(t *testing.T) {
	tests := []struct {
		name string
		info ModelInfo
		want string
		ok   bool
	}{
		{"present", ModelInfo{"model_path": "s3://bucket/model"}, "s3://bucket/model", true},
		{"absent", ModelInfo{}, "", false},
		{"empty", ModelInfo{"model_path": ""}, "", false},
		{"wrong type", ModelInfo{"model_path": 3.0}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.info.ModelPath()
			if !tt.ok {
				assert.ErrorIs(t, err, ErrMissingModelPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
