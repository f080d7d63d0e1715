package registry

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/capstone-project/mlreg/internal/mlflow"
	"github.com/capstone-project/mlreg/internal/mlflow/mlflowtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

func newMLflowRegistry(t *testing.T, opts ...MLflowOption) (*MLflow, *mlflowtest.Server) {
	t.Helper()
	server := mlflowtest.NewServer("/owner/repo.mlflow")
	t.Cleanup(server.Close)

	client, err := mlflow.New(server.TrackingURI(), mlflow.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	opts = append([]MLflowOption{WithPollInterval(time.Millisecond)}, opts...)
	return NewMLflow(client, opts...), server
}

func TestMLflow_RegisterResolvesRunsURI(t *testing.T) {
	reg, server := newMLflowRegistry(t, WithAwaitTimeout(time.Second))
	server.AddRun("abc123", "mlflow-artifacts:/0/abc123/artifacts")

	mv, err := reg.Register(context.Background(), "runs:/abc123/model", "my_model")
	require.NoError(t, err)

	assert.Equal(t, "1", mv.Version)
	assert.Equal(t, "mlflow-artifacts:/0/abc123/artifacts/model", mv.Source)
	assert.Equal(t, "abc123", mv.RunID)
	assert.Equal(t, mlflow.StatusReady, mv.Status)
	assert.Equal(t, StageNone, mv.Stage)
}

func TestMLflow_RegisterExistingModel(t *testing.T) {
	reg, server := newMLflowRegistry(t)
	server.AddModel("my_model")

	mv, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/model", mv.Source)
	assert.Empty(t, mv.RunID)

	mv, err = reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.NoError(t, err)
	assert.Equal(t, 2, mustAtoi(t, mv.Version))
}

func TestMLflow_RegisterWithoutAwait(t *testing.T) {
	reg, server := newMLflowRegistry(t)

	mv, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.NoError(t, err)
	assert.Equal(t, mlflow.StatusPendingRegistration, mv.Status)
	assert.Zero(t, server.RequestCount(mlflowtest.PathGetModelVersion))
}

func TestMLflow_RegisterAwaitsPending(t *testing.T) {
	reg, server := newMLflowRegistry(t, WithAwaitTimeout(5*time.Second))
	server.PendingPolls(2)

	mv, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.NoError(t, err)
	assert.Equal(t, mlflow.StatusReady, mv.Status)
	assert.Equal(t, 3, server.RequestCount(mlflowtest.PathGetModelVersion))
}

func TestMLflow_RegisterAwaitTimesOut(t *testing.T) {
	reg, server := newMLflowRegistry(t, WithAwaitTimeout(20*time.Millisecond))
	server.PendingPolls(1 << 20)

	_, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PENDING_REGISTRATION")
}

func TestMLflow_RegisterFailedRegistration(t *testing.T) {
	reg, server := newMLflowRegistry(t, WithAwaitTimeout(time.Second))
	server.FailReady()

	mv, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.ErrorIs(t, err, ErrRegistrationFailed)
	assert.Contains(t, err.Error(), "artifact not found")

	require.NotNil(t, mv, "created version must be reported")
	assert.Equal(t, "1", mv.Version)
	assert.Equal(t, StageNone, mv.Stage)
}

func TestMLflow_RegisterUnknownRun(t *testing.T) {
	reg, server := newMLflowRegistry(t)

	_, err := reg.Register(context.Background(), "runs:/nope/model", "my_model")
	require.Error(t, err)
	assert.True(t, mlflow.IsNotFound(err))
	assert.Empty(t, server.Versions("my_model"))
}

func TestMLflow_RegisterCreateModelFails(t *testing.T) {
	reg, server := newMLflowRegistry(t)
	server.Fail(mlflowtest.PathCreateRegisteredModel, http.StatusForbidden, "PERMISSION_DENIED", "no write access")

	_, err := reg.Register(context.Background(), "s3://bucket/model", "my_model")
	require.Error(t, err)
	assert.True(t, mlflow.IsUnauthorized(err))
	assert.Zero(t, server.RequestCount(mlflowtest.PathCreateModelVersion))
}

func TestMLflow_Transition(t *testing.T) {
	reg, server := newMLflowRegistry(t)
	ctx := context.Background()

	mv, err := reg.Register(ctx, "s3://bucket/model", "my_model")
	require.NoError(t, err)

	staged, err := reg.Transition(ctx, "my_model", mv.Version, StageStaging, false)
	require.NoError(t, err)
	assert.Equal(t, StageStaging, staged.Stage)

	transitions := server.Transitions()
	require.Len(t, transitions, 1)
	assert.Equal(t, mlflow.TransitionStageRequest{
		Name: "my_model", Version: "1", Stage: "Staging", ArchiveExistingVersions: false,
	}, transitions[0])
}

func TestMLflow_TransitionUnknownVersion(t *testing.T) {
	reg, _ := newMLflowRegistry(t)
	_, err := reg.Transition(context.Background(), "my_model", "4", StageStaging, false)
	require.Error(t, err)
	assert.True(t, mlflow.IsNotFound(err))
}

func TestMLflow_Versions(t *testing.T) {
	reg, _ := newMLflowRegistry(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := reg.Register(ctx, "s3://bucket/model", "my_model")
		require.NoError(t, err)
	}
	_, err := reg.Transition(ctx, "my_model", "2", StageStaging, false)
	require.NoError(t, err)

	versions, err := reg.Versions(ctx, "my_model")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "1", versions[0].Version)
	assert.Equal(t, StageStaging, versions[1].Stage)
	assert.Equal(t, StageNone, versions[2].Stage)
}
