package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion       = 1
	DefaultGraphVersion = "v18.0"
)

// Dashboard is one client reporting configuration: which ad account to
// query, which business vertical applies, and which conversion event
// counts as "conversion" for that client.
type Dashboard struct {
	Name            string `yaml:"name"`
	ActID           string `yaml:"act_id"`
	Vertical        string `yaml:"vertical"`
	ConversionEvent string `yaml:"conversion_event"`
	GraphVersion    string `yaml:"graph_version"`
	TokenRef        string `yaml:"token_ref"`
	AppSecretRef    string `yaml:"app_secret_ref,omitempty"`
}

type Config struct {
	SchemaVersion    int                  `yaml:"schema_version"`
	DefaultDashboard string               `yaml:"default_dashboard,omitempty"`
	Dashboards       map[string]Dashboard `yaml:"dashboards"`
}

var verticals = map[string]string{
	"app":  "app_install",
	"lead": "lead",
	"ecom": "purchase",
}

// NormalizeActID enforces the act_ prefix the insights endpoints expect.
func NormalizeActID(actID string) string {
	actID = strings.TrimSpace(actID)
	if actID == "" || strings.HasPrefix(actID, "act_") {
		return actID
	}
	return "act_" + actID
}

// DefaultConversionEvent returns the conversion event a vertical implies
// when the dashboard does not name one explicitly.
func DefaultConversionEvent(vertical string) string {
	return verticals[vertical]
}

func ValidVertical(vertical string) bool {
	_, ok := verticals[vertical]
	return ok
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(home, ".adpulse", "config.yaml"), nil
}

func New() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Dashboards:    map[string]Dashboard{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file does not exist at %s", os.ErrNotExist, path)
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrCreate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = New()
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory for %s: %w", path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("replace config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported config schema_version=%d (expected %d)", c.SchemaVersion, SchemaVersion)
	}
	if c.Dashboards == nil {
		return errors.New("config dashboards map is required")
	}
	for name, dashboard := range c.Dashboards {
		if err := validateDashboard(name, dashboard); err != nil {
			return err
		}
	}
	if c.DefaultDashboard != "" {
		if _, ok := c.Dashboards[c.DefaultDashboard]; !ok {
			return fmt.Errorf("default_dashboard %q does not exist", c.DefaultDashboard)
		}
	}
	return nil
}

func (c *Config) ResolveDashboard(name string) (string, Dashboard, error) {
	if c == nil {
		return "", Dashboard{}, errors.New("config is nil")
	}
	if name == "" {
		name = c.DefaultDashboard
	}
	if name == "" {
		return "", Dashboard{}, errors.New("dashboard is required and default_dashboard is not configured")
	}
	dashboard, ok := c.Dashboards[name]
	if !ok {
		return "", Dashboard{}, fmt.Errorf("dashboard %q does not exist", name)
	}
	return name, dashboard, nil
}

func (c *Config) UpsertDashboard(name string, dashboard Dashboard) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Dashboards == nil {
		c.Dashboards = map[string]Dashboard{}
	}
	dashboard = applyDashboardDefaults(dashboard)
	if err := validateDashboard(name, dashboard); err != nil {
		return err
	}

	c.Dashboards[name] = dashboard
	if c.DefaultDashboard == "" {
		c.DefaultDashboard = name
	}
	return nil
}

func (c *Config) RemoveDashboard(name string) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, ok := c.Dashboards[name]; !ok {
		return fmt.Errorf("dashboard %q does not exist", name)
	}
	delete(c.Dashboards, name)
	if c.DefaultDashboard == name {
		c.DefaultDashboard = ""
	}
	return nil
}

func applyDashboardDefaults(dashboard Dashboard) Dashboard {
	dashboard.ActID = NormalizeActID(dashboard.ActID)
	if dashboard.GraphVersion == "" {
		dashboard.GraphVersion = DefaultGraphVersion
	}
	if dashboard.ConversionEvent == "" {
		dashboard.ConversionEvent = DefaultConversionEvent(dashboard.Vertical)
	}
	return dashboard
}

func validateDashboard(name string, dashboard Dashboard) error {
	if name == "" {
		return errors.New("dashboard name cannot be empty")
	}
	if dashboard.ActID == "" {
		return fmt.Errorf("dashboard %q act_id is required", name)
	}
	if !strings.HasPrefix(dashboard.ActID, "act_") {
		return fmt.Errorf("dashboard %q act_id must carry the act_ prefix", name)
	}
	if !ValidVertical(dashboard.Vertical) {
		return fmt.Errorf("dashboard %q vertical must be app|lead|ecom", name)
	}
	if dashboard.ConversionEvent == "" {
		return fmt.Errorf("dashboard %q conversion_event is required", name)
	}
	if dashboard.GraphVersion == "" {
		return fmt.Errorf("dashboard %q graph_version is required", name)
	}
	if dashboard.TokenRef == "" {
		return fmt.Errorf("dashboard %q token_ref is required", name)
	}
	return nil
}
