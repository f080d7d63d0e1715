package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/mlflow"
	"github.com/capstone-project/mlreg/internal/modelinfo"
)

// Server is the part of the tracking client the checks need.
type Server interface {
	TrackingURI() string
	ServerVersion(ctx context.Context) (string, error)
	GetRegisteredModel(ctx context.Context, name string) (*mlflow.RegisteredModel, error)
}

// Report counts check outcomes.
type Report struct {
	OK       int
	Warnings int
	Failures int
}

// Healthy reports whether no check failed.
func (r *Report) Healthy() bool { return r.Failures == 0 }

func (r *Report) ok(w io.Writer, format string, args ...any) {
	r.OK++
	fmt.Fprintf(w, "  [ OK ] "+format+"\n", args...)
}

func (r *Report) warn(w io.Writer, format string, args ...any) {
	r.Warnings++
	fmt.Fprintf(w, "  [WARN] "+format+"\n", args...)
}

func (r *Report) miss(w io.Writer, format string, args ...any) {
	r.Failures++
	fmt.Fprintf(w, "  [MISS] "+format+"\n", args...)
}

func (r *Report) fail(w io.Writer, format string, args ...any) {
	r.Failures++
	fmt.Fprintf(w, "  [FAIL] "+format+"\n", args...)
}

// CheckCredential reports whether the tracking token is set.
func CheckCredential(w io.Writer, r *Report, envVar, token string) {
	fmt.Fprintln(w, "Credential check:")
	if token == "" {
		r.miss(w, "%s is not set", envVar)
		fmt.Fprintf(w, "         export %s=<token> or pass --env-file\n", envVar)
		return
	}
	r.ok(w, "%s=%s", envVar, config.Redact(token))
}

// CheckModelInfo verifies the model info document exists and matches the schema.
func CheckModelInfo(w io.Writer, r *Report, path string) {
	fmt.Fprintln(w, "Model info check:")

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.miss(w, "%s does not exist", path)
		return
	} else if err != nil {
		r.fail(w, "%s: %v", path, err)
		return
	}
	r.ok(w, "%s exists", path)

	result, err := modelinfo.ValidateFile(path)
	if err != nil {
		r.fail(w, "%s: %v", path, err)
		return
	}
	if !result.Valid {
		for _, issue := range result.Issues {
			r.fail(w, "%s %s", path, issue)
		}
		return
	}
	r.ok(w, "%s is valid", path)
}

// CheckServer verifies the tracking server answers, accepts the credentials,
// and still supports stage transitions.
func CheckServer(ctx context.Context, w io.Writer, r *Report, server Server, modelName string) {
	fmt.Fprintln(w, "Tracking server check:")

	version, err := server.ServerVersion(ctx)
	if err != nil {
		if mlflow.IsUnauthorized(err) {
			r.fail(w, "%s rejected the credentials: %v", server.TrackingURI(), err)
			return
		}
		// Some hosted endpoints do not expose /version; fall through to the
		// registry probe before declaring the server unreachable.
		r.warn(w, "%s did not report a version: %v", server.TrackingURI(), err)
	} else {
		r.ok(w, "%s is reachable (MLflow %s)", server.TrackingURI(), version)
		deprecated, cmpErr := StagesDeprecated(version)
		switch {
		case cmpErr != nil:
			r.warn(w, "cannot parse server version %q: %v", version, cmpErr)
		case deprecated:
			r.warn(w, "MLflow %s deprecates stages (since %s); transitions still work but may be removed", version, StagesDeprecatedSince)
		}
	}

	_, err = server.GetRegisteredModel(ctx, modelName)
	switch {
	case err == nil:
		r.ok(w, "registered model %q exists", modelName)
	case mlflow.IsNotFound(err):
		r.ok(w, "registered model %q does not exist yet; it will be created", modelName)
	case mlflow.IsUnauthorized(err):
		r.fail(w, "registry rejected the credentials: %v", err)
	default:
		r.fail(w, "registry is not reachable: %v", err)
	}
}
