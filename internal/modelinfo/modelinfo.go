package modelinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/capstone-project/mlreg/internal/ctxlog"
)

// KeyModelPath is the field holding the artifact URI.
const KeyModelPath = "model_path"

// ErrMissingModelPath is returned when model_path is absent, not a string,
// or empty.
var ErrMissingModelPath = errors.New("model info has no " + KeyModelPath)

// ModelInfo is the parsed model info document.
type ModelInfo map[string]any

// ModelPath returns the fully-qualified artifact URI.
func (m ModelInfo) ModelPath() (string, error) {
	raw, ok := m[KeyModelPath]
	if !ok {
		return "", ErrMissingModelPath
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: expected a non-empty string, got %T", ErrMissingModelPath, raw)
	}
	return s, nil
}

// Load reads and parses the model info document at path. It either returns
// the complete mapping or fails.
func Load(ctx context.Context, path string) (ModelInfo, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	info, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing model info %s: %w", path, err)
	}

	ctxlog.FromContext(ctx).Info("model info loaded", "path", path)
	return info, nil
}

// Parse decodes a model info document. The top level must be a JSON object.
func Parse(data []byte) (ModelInfo, error) {
	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errors.New("model info must be a JSON object")
	}
	return info, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model info %s: %w", path, err)
	}
	return data, nil
}
