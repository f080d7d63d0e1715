package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/capstone-project/mlreg/internal/config"
	"github.com/capstone-project/mlreg/internal/mlflow"
	"github.com/capstone-project/mlreg/internal/registry"
	"github.com/spf13/cobra"
)

func (a *app) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the versions of a registered model and their stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags(), map[string]string{
				"model-name": config.KeyModelName,
			}); err != nil {
				return err
			}

			cfg, err := config.Load(a.v)
			if err != nil {
				a.printError(err)
				return &ExitError{Code: ExitConfigError, Err: err}
			}

			reg, err := newMLflowRegistry(cfg)
			if err != nil {
				return err
			}
			return a.printStatus(cmd, reg, cfg.ModelName)
		},
	}
	cmd.Flags().String("model-name", "", "Registered model name")
	return cmd
}

func (a *app) printStatus(cmd *cobra.Command, lister registry.Lister, name string) error {
	versions, err := lister.Versions(cmd.Context(), name)
	if err != nil {
		if mlflow.IsNotFound(err) {
			fmt.Fprintf(a.stdout, "Model %s is not registered.\n", name)
			return nil
		}
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintf(a.stdout, "Model %s has no versions.\n", name)
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTAGE\tSTATUS\tSOURCE")
	for _, mv := range versions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mv.Version, mv.Stage, mv.Status, mv.Source)
	}
	return w.Flush()
}
