package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"adpulse/internal/config"
)

func swapConfigPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	previous := configFilePath
	configFilePath = func() (string, error) { return path, nil }
	t.Cleanup(func() { configFilePath = previous })
	return path
}

func TestDashboardAddNormalizesAndDefaults(t *testing.T) {
	path := swapConfigPath(t)

	dashCmd := NewDashboardCommand(Runtime{})
	stdout, _, err := executeCommand(t, dashCmd, "", "add", "acme", "--act-id", "123", "--vertical", "app")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(stdout, "act_123") {
		t.Fatalf("act id not normalized in output: %q", stdout)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	dashboard, ok := cfg.Dashboards["acme"]
	if !ok {
		t.Fatal("dashboard not saved")
	}
	if dashboard.ActID != "act_123" {
		t.Fatalf("act id: got %q, want act_123", dashboard.ActID)
	}
	if dashboard.ConversionEvent != "app_install" {
		t.Fatalf("conversion event: got %q, want app_install", dashboard.ConversionEvent)
	}
	if dashboard.GraphVersion != config.DefaultGraphVersion {
		t.Fatalf("graph version: got %q", dashboard.GraphVersion)
	}
	if dashboard.TokenRef != "keychain://adpulse/acme/token" {
		t.Fatalf("token ref: got %q", dashboard.TokenRef)
	}
	if cfg.DefaultDashboard != "acme" {
		t.Fatal("first dashboard must become the default")
	}
}

func TestDashboardAddRejectsUnknownVertical(t *testing.T) {
	swapConfigPath(t)

	dashCmd := NewDashboardCommand(Runtime{})
	_, _, err := executeCommand(t, dashCmd, "", "add", "acme", "--act-id", "123", "--vertical", "retail")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitCodeInput {
		t.Fatalf("expected input exit code, got %v", err)
	}
}

func TestDashboardListShowsDefaultMarker(t *testing.T) {
	swapConfigPath(t)

	dashCmd := NewDashboardCommand(Runtime{})
	if _, _, err := executeCommand(t, dashCmd, "", "add", "acme", "--act-id", "1", "--vertical", "app"); err != nil {
		t.Fatalf("add acme: %v", err)
	}
	if _, _, err := executeCommand(t, dashCmd, "", "add", "globex", "--act-id", "2", "--vertical", "ecom"); err != nil {
		t.Fatalf("add globex: %v", err)
	}

	stdout, _, err := executeCommand(t, dashCmd, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got:\n%s", stdout)
	}
	var acmeLine string
	for _, line := range lines {
		if strings.HasPrefix(line, "acme") {
			acmeLine = line
		}
	}
	if !strings.Contains(acmeLine, "*") {
		t.Fatalf("first-added dashboard should carry the default marker:\n%s", stdout)
	}
}

func TestDashboardRemoveClearsDefault(t *testing.T) {
	path := swapConfigPath(t)

	dashCmd := NewDashboardCommand(Runtime{})
	if _, _, err := executeCommand(t, dashCmd, "", "add", "acme", "--act-id", "1", "--vertical", "lead"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := executeCommand(t, dashCmd, "", "remove", "acme"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Dashboards) != 0 {
		t.Fatalf("dashboards left behind: %v", cfg.Dashboards)
	}
	if cfg.DefaultDashboard != "" {
		t.Fatalf("default not cleared: %q", cfg.DefaultDashboard)
	}
}

func TestDashboardDefaultSwitches(t *testing.T) {
	path := swapConfigPath(t)

	dashCmd := NewDashboardCommand(Runtime{})
	if _, _, err := executeCommand(t, dashCmd, "", "add", "acme", "--act-id", "1", "--vertical", "app"); err != nil {
		t.Fatalf("add acme: %v", err)
	}
	if _, _, err := executeCommand(t, dashCmd, "", "add", "globex", "--act-id", "2", "--vertical", "ecom"); err != nil {
		t.Fatalf("add globex: %v", err)
	}
	if _, _, err := executeCommand(t, dashCmd, "", "default", "globex"); err != nil {
		t.Fatalf("default: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DefaultDashboard != "globex" {
		t.Fatalf("default dashboard: got %q, want globex", cfg.DefaultDashboard)
	}
}
