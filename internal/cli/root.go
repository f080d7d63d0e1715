package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/capstone-project/mlreg/internal/branding"
	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/ctxlog"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Exit codes returned by the process.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// ExitError carries the exit code for a failure the command already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// app holds what one invocation shares between commands.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	envFile   string
	logLevel  string
	logFormat string
}

// NewRootCmd builds the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      config.New(),
		stdout: stdout,
		stderr: stderr,
	}

	rootCmd := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` registers a trained model artifact into an MLflow model registry
and moves the new version to the Staging stage.

The tracking token is read from ` + branding.TokenEnv() + `. Other settings come from
` + config.FilePath() + ` or environment variables such as
` + branding.EnvVar("MODEL_NAME") + ` and ` + branding.EnvVar("TRACKING_URI") + `.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "Load environment variables from a dotenv file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	pf.String("tracking-uri", "", "MLflow tracking URI (default https://dagshub.com/<owner>/<repo>.mlflow)")

	rootCmd.AddCommand(
		a.newRegisterCmd(),
		a.newValidateCmd(),
		a.newStatusCmd(),
		a.newDoctorCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)
	return rootCmd
}

// setup runs before every command: dotenv file, config file, flag bindings
// and the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	if err := config.ReadFile(a.v); err != nil {
		return err
	}
	if err := a.bind(cmd.Flags(), map[string]string{
		"tracking-uri": config.KeyTrackingURI,
		"log-level":    config.KeyLogLevel,
		"log-format":   config.KeyLogFormat,
	}); err != nil {
		return err
	}

	logger := ctxlog.New(a.v.GetString(config.KeyLogLevel), a.v.GetString(config.KeyLogFormat), a.stderr)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
	return nil
}

// bind attaches flags to config keys so an explicitly set flag wins over
// the config file and environment.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := a.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// printError writes a red "Error: ..." line.
func (a *app) printError(err error) {
	color.New(color.FgRed).Fprintf(a.stderr, "Error: %v\n", err)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	rootCmd := NewRootCmd(os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}
