package cli

import (
	"fmt"

	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/modelinfo"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a model info file against its schema",
		Long: `Validate the model info JSON document. The path defaults to the configured
model.info_path. No credential is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString(config.KeyInfoPath)
			if len(args) == 1 {
				path = args[0]
			}

			result, err := modelinfo.ValidateFile(path)
			if err != nil {
				return err
			}
			if !result.Valid {
				for _, issue := range result.Issues {
					color.New(color.FgRed).Fprintf(a.stdout, "  ✗ %s\n", issue)
				}
				return &ExitError{
					Code: ExitFailure,
					Err:  fmt.Errorf("%s: %d validation issue(s)", path, len(result.Issues)),
				}
			}

			color.New(color.FgGreen).Fprintf(a.stdout, "✓ %s is valid\n", path)
			return nil
		},
	}
}
