package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"adpulse/internal/cli/cmd"
)

const appName = "adpulse"

// Version is stamped at build time via -ldflags.
var Version = "dev"

type GlobalFlags struct {
	Dashboard string
	Debug     bool
}

func Execute() error {
	root := NewRootCommand()
	return root.Execute()
}

func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Ad insights reporting for client dashboards",
		Long:          "adpulse pulls Meta Graph insights for configured client dashboards and renders normalized, aggregated reports.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(c *cobra.Command, _ []string) error {
			showVersion, err := c.Flags().GetBool("version")
			if err != nil {
				return err
			}
			if showVersion {
				fmt.Fprintln(c.OutOrStdout(), Version)
				return nil
			}
			return c.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.Dashboard, "dashboard", "", "Dashboard name (defaults to default_dashboard from config)")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	root.Flags().BoolP("version", "v", false, "Print version and exit")

	runtime := cmd.Runtime{
		Dashboard: &flags.Dashboard,
		Debug:     &flags.Debug,
	}
	root.AddCommand(cmd.NewAuthCommand(runtime))
	root.AddCommand(cmd.NewDashboardCommand(runtime))
	root.AddCommand(cmd.NewReportCommand(runtime))

	return root
}
