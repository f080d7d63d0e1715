package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/capstone-project/mlreg/internal/mlflow"
)

// Memory is an in-memory Registry. Versions are numbered per model starting
// at 1. The zero value is not usable; call NewMemory.
type Memory struct {
	mu       sync.Mutex
	models   map[string][]*ModelVersion
	failures map[string]error
	calls    []Call
}

// Call records one operation made against a Memory registry.
type Call struct {
	Op              string
	Name            string
	URI             string
	Version         string
	Stage           Stage
	ArchiveExisting bool
}

// Operation names recorded in Call.Op and accepted by FailOn.
const (
	OpRegister   = "register"
	OpTransition = "transition"
)

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		models:   make(map[string][]*ModelVersion),
		failures: make(map[string]error),
	}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns the operations received so far, failed ones included.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Register appends a new version of name with stage None.
func (m *Memory) Register(_ context.Context, uri, name string) (*ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: OpRegister, Name: name, URI: uri})
	if err := m.failures[OpRegister]; err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("model name must not be empty")
	}

	mv := &ModelVersion{
		Name:    name,
		Version: strconv.Itoa(len(m.models[name]) + 1),
		Source:  uri,
		Stage:   StageNone,
		Status:  mlflow.StatusReady,
	}
	m.models[name] = append(m.models[name], mv)

	out := *mv
	return &out, nil
}

// Transition moves a version to stage. With archiveExisting, versions
// already in a Staging or Production target stage are moved to Archived.
func (m *Memory) Transition(_ context.Context, name, version string, stage Stage, archiveExisting bool) (*ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: OpTransition, Name: name, Version: version, Stage: stage, ArchiveExisting: archiveExisting})
	if err := m.failures[OpTransition]; err != nil {
		return nil, err
	}

	var target *ModelVersion
	for _, mv := range m.models[name] {
		if mv.Version == version {
			target = mv
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("model %s version %s not found", name, version)
	}

	if archiveExisting && (stage == StageStaging || stage == StageProduction) {
		for _, mv := range m.models[name] {
			if mv != target && mv.Stage == stage {
				mv.Stage = StageArchived
			}
		}
	}
	target.Stage = stage

	out := *target
	return &out, nil
}

// Versions lists every version of name, oldest first.
func (m *Memory) Versions(_ context.Context, name string) ([]ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ModelVersion, 0, len(m.models[name]))
	for _, mv := range m.models[name] {
		out = append(out, *mv)
	}
	sortVersions(out)
	return out, nil
}

// sortVersions orders versions numerically, falling back to string order.
func sortVersions(vs []ModelVersion) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, errA := strconv.Atoi(vs[i].Version)
		b, errB := strconv.Atoi(vs[j].Version)
		if errA == nil && errB == nil {
			return a < b
		}
		return vs[i].Version < vs[j].Version
	})
}
