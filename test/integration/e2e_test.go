//go:build integration

package integration_test

import (
	"net/http"
	"testing"

	"github.com/capstone-project/mlreg/internal/mlflow/mlflowtest"
)

const token = "integration-token"

func startServer(t *testing.T) *mlflowtest.Server {
	t.Helper()
	server := mlflowtest.NewServer("/madhusudhanreddy8074/capstone-project.mlflow")
	t.Cleanup(server.Close)
	server.RequireToken(token)
	return server
}

// TestRegisterFlow drives the binary through register and status using the
// default info path under the working directory.
func TestRegisterFlow(t *testing.T) {
	env := setupTestEnv(t)
	server := startServer(t)
	env.setenv("CAPSTONE_TEST", token)
	env.setenv("MLREG_TRACKING_URI", server.TrackingURI())
	env.writeInfo(t, `{"run_id": "abc", "model_path": "s3://bucket/model"}`)

	res := env.run(t, "register")
	assertExitCode(t, res, 0)
	assertContains(t, res.Stdout, "Model my_model version 1 registered and moved to Staging")
	assertContains(t, res.Stderr, "model info loaded")

	res = env.run(t, "status")
	assertExitCode(t, res, 0)
	assertContains(t, res.Stdout, "Staging")
	assertContains(t, res.Stdout, "s3://bucket/model")
}

// TestMissingCredentialExitCode checks the process exits 2 without touching
// the server.
func TestMissingCredentialExitCode(t *testing.T) {
	env := setupTestEnv(t)
	server := startServer(t)
	env.setenv("MLREG_TRACKING_URI", server.TrackingURI())

	res := env.run(t, "register")
	assertExitCode(t, res, 2)
	assertContains(t, res.Stderr, "CAPSTONE_TEST")
	if n := len(server.Requests()); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

// TestFailureExitCodes covers the explicit failure code and the legacy
// exit-zero behavior.
func TestFailureExitCodes(t *testing.T) {
	env := setupTestEnv(t)
	server := startServer(t)
	server.Fail(mlflowtest.PathTransitionStage, http.StatusInternalServerError, "INTERNAL_ERROR", "boom")
	env.setenv("CAPSTONE_TEST", token)
	env.setenv("MLREG_TRACKING_URI", server.TrackingURI())
	env.writeInfo(t, `{"model_path": "s3://bucket/model"}`)

	res := env.run(t, "register")
	assertExitCode(t, res, 1)
	assertContains(t, res.Stderr, "boom")

	res = env.run(t, "register", "--exit-zero-on-failure")
	assertExitCode(t, res, 0)
	assertContains(t, res.Stderr, "failed to complete the model registration process")

	if got := len(server.Versions("my_model")); got != 2 {
		t.Errorf("versions = %d, want 2 (no rollback)", got)
	}
}
