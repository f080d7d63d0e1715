package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/capstone-project/mlreg/internal/branding"
	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/doctor"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, the model info file and the tracking server",
		Long: `Run diagnostic checks:
  - the ` + branding.TokenEnv() + ` credential is set
  - the model info file exists and matches the schema
  - the tracking server is reachable, accepts the credential and supports stages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := a.stdout
			report := &doctor.Report{}

			fmt.Fprintf(w, "%s doctor\n\n", branding.DisplayName())
			fmt.Fprintf(w, "Tracking URI: %s\n", config.ResolveTrackingURI(a.v))
			fmt.Fprintf(w, "Model:        %s\n\n", a.v.GetString(config.KeyModelName))

			cfg, err := config.Load(a.v)
			token := strings.TrimSpace(a.v.GetString(config.KeyTrackingToken))
			doctor.CheckCredential(w, report, branding.TokenEnv(), token)
			fmt.Fprintln(w)

			doctor.CheckModelInfo(w, report, a.v.GetString(config.KeyInfoPath))
			fmt.Fprintln(w)

			switch {
			case errors.Is(err, config.ErrMissingCredential):
				fmt.Fprintln(w, "Tracking server check:")
				fmt.Fprintln(w, "  skipped: no credential")
			case err != nil:
				a.printError(err)
				return &ExitError{Code: ExitConfigError, Err: err}
			default:
				client, err := newClient(cfg)
				if err != nil {
					return err
				}
				doctor.CheckServer(cmd.Context(), w, report, client, cfg.ModelName)
			}
			fmt.Fprintln(w)

			if !report.Healthy() {
				color.New(color.FgRed).Fprintf(w, "%d check(s) failed, %d warning(s)\n", report.Failures, report.Warnings)
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d doctor check(s) failed", report.Failures)}
			}
			color.New(color.FgGreen).Fprintf(w, "All checks passed (%d warning(s))\n", report.Warnings)
			return nil
		},
	}
}
