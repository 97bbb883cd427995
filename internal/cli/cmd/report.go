package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adpulse/internal/config"
	"adpulse/internal/export"
	"adpulse/internal/graph"
	"adpulse/internal/insights"
)

var (
	reportNewGraphClient = func() *graph.Client { return graph.NewClient(nil, "") }
	reportNow            = time.Now
)

const reportDateLayout = "2006-01-02"

func NewReportCommand(runtime Runtime) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch and render dashboard reports",
	}
	reportCmd.AddCommand(newReportRunCommand(runtime))
	reportCmd.AddCommand(newReportTopCommand(runtime))
	return reportCmd
}

func newReportRunCommand(runtime Runtime) *cobra.Command {
	var (
		dashboard   string
		since       string
		until       string
		preset      int
		compare     bool
		format      string
		annotations string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a dashboard refresh and render it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadDashboardCredentials(resolveDashboardFlag(dashboard, runtime))
			if err != nil {
				return err
			}
			sinceDay, untilDay, err := resolveDateRange(since, until, preset)
			if err != nil {
				return err
			}

			vertical, err := insights.ParseVertical(creds.Dashboard.Vertical)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}

			if runtime.DebugEnabled() {
				fmt.Fprintf(cmd.ErrOrStderr(), "refreshing %s from %s to %s (compare=%t)\n", creds.Dashboard.ActID, sinceDay, untilDay, compare)
			}

			service := insights.New(reportNewGraphClient())
			report, err := service.Refresh(cmd.Context(), insights.RefreshRequest{
				ActID:           creds.Dashboard.ActID,
				Vertical:        vertical,
				ConversionEvent: creds.Dashboard.ConversionEvent,
				Since:           sinceDay,
				Until:           untilDay,
				Compare:         compare,
				GraphVersion:    creds.Dashboard.GraphVersion,
				AccessToken:     creds.Token,
				AppSecret:       creds.AppSecret,
			})
			if err != nil {
				return wrapRefreshError(err)
			}

			metrics := insights.MetricsFor(vertical, creds.Dashboard.ConversionEvent)
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "csv":
				return export.WriteCSV(cmd.OutOrStdout(), report.Daily, metrics)
			case "report":
				notes, err := loadReportAnnotations(annotations)
				if err != nil {
					return WrapExit(ExitCodeInput, err)
				}
				return export.WriteReport(cmd.OutOrStdout(), report, metrics, notes)
			default:
				return WrapExit(ExitCodeInput, fmt.Errorf("invalid --format value %q: expected report|csv", format))
			}
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "Dashboard name")
	cmd.Flags().StringVar(&since, "since", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&preset, "preset", 7, "Day-count preset anchored to yesterday: 1|7|14|30")
	cmd.Flags().BoolVar(&compare, "compare", false, "Compare against the preceding period of the same length")
	cmd.Flags().StringVar(&format, "format", "report", "Output format: report|csv")
	cmd.Flags().StringVar(&annotations, "annotations", "", "YAML file with dated notes to weave into the report")
	return cmd
}

func newReportTopCommand(runtime Runtime) *cobra.Command {
	var (
		dashboard string
		since     string
		until     string
		preset    int
		level     string
		sortKey   string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank campaigns, ad sets, or ads by a vertical's presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadDashboardCredentials(resolveDashboardFlag(dashboard, runtime))
			if err != nil {
				return err
			}
			sinceDay, untilDay, err := resolveDateRange(since, until, preset)
			if err != nil {
				return err
			}
			vertical, err := insights.ParseVertical(creds.Dashboard.Vertical)
			if err != nil {
				return WrapExit(ExitCodeConfig, err)
			}

			service := insights.New(reportNewGraphClient())
			report, err := service.Refresh(cmd.Context(), insights.RefreshRequest{
				ActID:           creds.Dashboard.ActID,
				Vertical:        vertical,
				ConversionEvent: creds.Dashboard.ConversionEvent,
				Since:           sinceDay,
				Until:           untilDay,
				GraphVersion:    creds.Dashboard.GraphVersion,
				AccessToken:     creds.Token,
				AppSecret:       creds.AppSecret,
			})
			if err != nil {
				return wrapRefreshError(err)
			}

			rows, err := reportRowsForLevel(report, level)
			if err != nil {
				return WrapExit(ExitCodeInput, err)
			}
			metrics := insights.MetricsFor(vertical, creds.Dashboard.ConversionEvent)

			presets := insights.RankPresets(vertical)
			if sortKey != "" {
				presets = filterRankPresets(presets, sortKey)
				if len(presets) == 0 {
					return WrapExit(ExitCodeInput, fmt.Errorf("no rank preset matches --sort %q for vertical %s", sortKey, vertical))
				}
			}

			for _, rankPreset := range presets {
				ranked := insights.TopN(rows, rankPreset.Key, rankPreset.Direction, limit)
				if err := export.WriteEntityTable(cmd.OutOrStdout(), rankPreset.Label, ranked, metrics); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "Dashboard name")
	cmd.Flags().StringVar(&since, "since", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&preset, "preset", 7, "Day-count preset anchored to yesterday: 1|7|14|30")
	cmd.Flags().StringVar(&level, "level", "ad", "Entity level: campaign|adset|ad")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Metric key to restrict ranking to (default: all presets)")
	cmd.Flags().IntVar(&limit, "limit", insights.DefaultTopN, "Entities per ranking")
	return cmd
}

type dashboardCredentials struct {
	Name      string
	Dashboard config.Dashboard
	Token     string
	AppSecret string
}

func loadDashboardCredentials(name string) (*dashboardCredentials, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, WrapExit(ExitCodeConfig, err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExit(ExitCodeConfig, err)
	}
	resolvedName, dashboard, err := cfg.ResolveDashboard(name)
	if err != nil {
		return nil, WrapExit(ExitCodeConfig, err)
	}

	store := newSecretStore()
	token, err := store.Get(dashboard.TokenRef)
	if err != nil {
		return nil, WrapExit(ExitCodeAuth, err)
	}
	creds := &dashboardCredentials{
		Name:      resolvedName,
		Dashboard: dashboard,
		Token:     token,
	}
	if dashboard.AppSecretRef != "" {
		secret, err := store.Get(dashboard.AppSecretRef)
		if err != nil {
			return nil, WrapExit(ExitCodeAuth, err)
		}
		creds.AppSecret = secret
	}
	return creds, nil
}

// resolveDateRange turns flags into an inclusive ISO day range. Presets are
// anchored at yesterday so partial today data never skews a report.
func resolveDateRange(since, until string, preset int) (string, string, error) {
	if since != "" || until != "" {
		if since == "" || until == "" {
			return "", "", WrapExit(ExitCodeInput, errors.New("--since and --until must be given together"))
		}
		sinceDay, err := time.Parse(reportDateLayout, since)
		if err != nil {
			return "", "", WrapExit(ExitCodeInput, fmt.Errorf("invalid --since %q: expected YYYY-MM-DD", since))
		}
		untilDay, err := time.Parse(reportDateLayout, until)
		if err != nil {
			return "", "", WrapExit(ExitCodeInput, fmt.Errorf("invalid --until %q: expected YYYY-MM-DD", until))
		}
		if untilDay.Before(sinceDay) {
			return "", "", WrapExit(ExitCodeInput, fmt.Errorf("invalid range: --until %s precedes --since %s", until, since))
		}
		return since, until, nil
	}

	switch preset {
	case 1, 7, 14, 30:
	default:
		return "", "", WrapExit(ExitCodeInput, fmt.Errorf("invalid --preset %d: expected 1|7|14|30", preset))
	}
	yesterday := reportNow().AddDate(0, 0, -1)
	start := yesterday.AddDate(0, 0, -(preset - 1))
	return start.Format(reportDateLayout), yesterday.Format(reportDateLayout), nil
}

func loadReportAnnotations(path string) ([]export.Annotation, error) {
	if path == "" {
		return nil, nil
	}
	return export.LoadAnnotations(path)
}

func reportRowsForLevel(report *insights.Report, level string) ([]insights.Row, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "campaign":
		return report.Campaigns, nil
	case "adset":
		return report.AdSets, nil
	case "ad":
		return report.Ads, nil
	default:
		return nil, fmt.Errorf("invalid --level %q: expected campaign|adset|ad", level)
	}
}

func filterRankPresets(presets []insights.RankPreset, key string) []insights.RankPreset {
	matched := make([]insights.RankPreset, 0, len(presets))
	for _, preset := range presets {
		if preset.Key == key {
			matched = append(matched, preset)
		}
	}
	return matched
}

func wrapRefreshError(err error) error {
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		return WrapExit(ExitCodeAPI, err)
	}
	var transportErr *graph.TransportError
	if errors.As(err, &transportErr) {
		return WrapExit(ExitCodeAPI, err)
	}
	if errors.Is(err, insights.ErrSuperseded) {
		return WrapExit(ExitCodeUnknown, err)
	}
	return WrapExit(ExitCodeInput, err)
}
