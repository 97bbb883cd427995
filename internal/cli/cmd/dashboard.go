package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"adpulse/internal/auth"
	"adpulse/internal/config"
)

func defaultConfigPath() (string, error) {
	return config.DefaultPath()
}

func NewDashboardCommand(runtime Runtime) *cobra.Command {
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Client dashboard registry",
	}
	dashboardCmd.AddCommand(newDashboardAddCommand(runtime))
	dashboardCmd.AddCommand(newDashboardListCommand(runtime))
	dashboardCmd.AddCommand(newDashboardRemoveCommand(runtime))
	dashboardCmd.AddCommand(newDashboardDefaultCommand(runtime))
	return dashboardCmd
}

func newDashboardAddCommand(_ Runtime) *cobra.Command {
	var (
		actID           string
		vertical        string
		conversionEvent string
		graphVersion    string
		withAppSecret   bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a client dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return WrapExit(ExitCodeInput, errors.New("dashboard name cannot be empty"))
			}
			if !config.ValidVertical(vertical) {
				return WrapExit(ExitCodeInput, fmt.Errorf("invalid --vertical %q: expected app|lead|ecom", vertical))
			}

			tokenRef, err := auth.SecretRef(name, auth.SecretToken)
			if err != nil {
				return WrapExit(ExitCodeInput, err)
			}
			dashboard := config.Dashboard{
				Name:            name,
				ActID:           actID,
				Vertical:        vertical,
				ConversionEvent: conversionEvent,
				GraphVersion:    graphVersion,
				TokenRef:        tokenRef,
			}
			if withAppSecret {
				secretRef, err := auth.SecretRef(name, auth.SecretAppSecret)
				if err != nil {
					return WrapExit(ExitCodeInput, err)
				}
				dashboard.AppSecretRef = secretRef
			}

			path, err := configFilePath()
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			if err := cfg.UpsertDashboard(name, dashboard); err != nil {
				return WrapExit(ExitCodeInput, err)
			}
			if err := config.Save(path, cfg); err != nil {
				return WrapExit(ExitCodeConfig, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dashboard %q registered (%s, %s)\n", name, cfg.Dashboards[name].ActID, vertical)
			fmt.Fprintf(cmd.OutOrStdout(), "store its token with: %s auth set-token --dashboard %s\n", "adpulse", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&actID, "act-id", "", "Ad account id (act_ prefix added when missing)")
	cmd.Flags().StringVar(&vertical, "vertical", "", "Business vertical: app|lead|ecom")
	cmd.Flags().StringVar(&conversionEvent, "conversion-event", "", "Conversion action type (defaults per vertical)")
	cmd.Flags().StringVar(&graphVersion, "graph-version", "", "Graph API version override")
	cmd.Flags().BoolVar(&withAppSecret, "with-app-secret", false, "Reserve an app secret ref for appsecret_proof signing")
	mustMarkFlagRequired(cmd, "act-id")
	mustMarkFlagRequired(cmd, "vertical")
	return cmd
}

func newDashboardListCommand(_ Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered dashboards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configFilePath()
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}

			names := make([]string, 0, len(cfg.Dashboards))
			for name := range cfg.Dashboards {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tACT ID\tVERTICAL\tCONVERSION EVENT\tDEFAULT")
			for _, name := range names {
				dashboard := cfg.Dashboards[name]
				marker := ""
				if name == cfg.DefaultDashboard {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, dashboard.ActID, dashboard.Vertical, dashboard.ConversionEvent, marker)
			}
			return tw.Flush()
		},
	}
}

func newDashboardRemoveCommand(_ Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a dashboard from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, err := configFilePath()
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			if err := cfg.RemoveDashboard(name); err != nil {
				return WrapExit(ExitCodeInput, err)
			}
			if err := config.Save(path, cfg); err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dashboard %q removed; stored credentials are kept until %s auth delete\n", name, "adpulse")
			return nil
		},
	}
}

func newDashboardDefaultCommand(_ Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set the default dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, err := configFilePath()
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			if _, ok := cfg.Dashboards[name]; !ok {
				return WrapExit(ExitCodeInput, fmt.Errorf("dashboard %q does not exist", name))
			}
			cfg.DefaultDashboard = name
			if err := config.Save(path, cfg); err != nil {
				return WrapExit(ExitCodeConfig, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default dashboard set to %q\n", name)
			return nil
		},
	}
}

func mustMarkFlagRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("mark flag %q required for %s: %v", name, cmd.Name(), err))
	}
}
