package cli

import (
	"fmt"

	"github.com/capstone-project/mlreg/internal/branding"
	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/ctxlog"
	"github.com/capstone-project/mlreg/internal/mlflow"
	"github.com/capstone-project/mlreg/internal/modelinfo"
	"github.com/capstone-project/mlreg/internal/registration"
	"github.com/capstone-project/mlreg/internal/registry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) newRegisterCmd() *cobra.Command {
	var (
		dryRun            bool
		exitZeroOnFailure bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the trained model and move it to Staging",
		Long: `Register the artifact named by model_path in the model info file as a new
version of the registered model, then transition that version to the target
stage.

Examples:
  ` + branding.CLIName() + ` register
  ` + branding.CLIName() + ` register --info reports/experiment_info.json --model-name my_model
  ` + branding.CLIName() + ` register --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags(), map[string]string{
				"model-name":       config.KeyModelName,
				"info":             config.KeyInfoPath,
				"stage":            config.KeyStage,
				"archive-existing": config.KeyArchiveExisting,
				"await-seconds":    config.KeyAwaitSeconds,
			}); err != nil {
				return err
			}

			cfg, err := config.Load(a.v)
			if err != nil {
				a.printError(err)
				return &ExitError{Code: ExitConfigError, Err: err}
			}

			result, err := a.register(cmd, cfg, dryRun)
			if err != nil {
				ctxlog.FromContext(cmd.Context()).Error("failed to complete the model registration process", "error", err)
				a.printError(err)
				if result != nil && result.Phase == registration.PhaseRegistered {
					color.New(color.FgYellow).Fprintf(a.stderr, "Version %s of %s was registered but not moved to %s\n",
						result.Version, result.ModelName, result.Target)
				}
				if exitZeroOnFailure {
					return nil
				}
				return &ExitError{Code: ExitFailure, Err: err}
			}

			suffix := ""
			if dryRun {
				suffix = " (dry run)"
			}
			color.New(color.FgGreen).Fprintf(a.stdout, "✓ Model %s version %s registered and moved to %s%s\n",
				result.ModelName, result.Version, result.Stage, suffix)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("model-name", "", "Registered model name (default "+branding.ModelName()+")")
	f.String("info", "", "Path to the model info JSON file (default "+branding.InfoPath()+")")
	f.String("stage", "", "Target stage (default "+branding.TargetStage()+")")
	f.Bool("archive-existing", false, "Archive versions already in the target stage")
	f.Int("await-seconds", config.DefaultAwaitSeconds, "Seconds to wait for the new version to become READY (0 disables)")
	f.BoolVar(&dryRun, "dry-run", false, "Register into an in-memory registry without contacting the server")
	f.BoolVar(&exitZeroOnFailure, "exit-zero-on-failure", false, "Report failures but exit with status 0")
	return cmd
}

// register runs the pipeline after the config is resolved. Stage parsing
// and client construction errors are returned before any file is read.
func (a *app) register(cmd *cobra.Command, cfg *config.Config, dryRun bool) (*registration.Result, error) {
	stage, err := registry.ParseStage(cfg.Stage)
	if err != nil {
		return nil, err
	}

	var reg registry.Registry
	if dryRun {
		reg = registry.NewMemory()
	} else {
		reg, err = newMLflowRegistry(cfg)
		if err != nil {
			return nil, err
		}
	}

	ctx := cmd.Context()
	ctxlog.FromContext(ctx).Debug("registering model",
		"tracking_uri", cfg.TrackingURI, "model", cfg.ModelName, "info", cfg.InfoPath, "dry_run", dryRun)

	info, err := modelinfo.Load(ctx, cfg.InfoPath)
	if err != nil {
		return nil, err
	}

	return registration.Register(ctx, reg, cfg.ModelName, info, registration.Options{
		Stage:           stage,
		ArchiveExisting: cfg.ArchiveExisting,
	})
}

// newClient builds an authenticated tracking client.
func newClient(cfg *config.Config) (*mlflow.Client, error) {
	client, err := mlflow.New(cfg.TrackingURI,
		mlflow.WithBasicAuth(cfg.Username(), cfg.Password()),
		mlflow.WithUserAgent(fmt.Sprintf("%s/%s", branding.CLIName(), buildVersion)),
		mlflow.WithTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracking client: %w", err)
	}
	return client, nil
}

func newMLflowRegistry(cfg *config.Config) (*registry.MLflow, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return registry.NewMLflow(client, registry.WithAwaitTimeout(cfg.AwaitTimeout)), nil
}
