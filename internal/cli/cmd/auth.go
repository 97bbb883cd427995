package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adpulse/internal/auth"
)

// Seams for tests: swap the keychain and config path without touching the
// operator's machine.
var (
	newSecretStore = func() auth.SecretStore { return auth.NewKeychainStore() }
	configFilePath = defaultConfigPath
)

func NewAuthCommand(runtime Runtime) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Dashboard credential management",
	}
	authCmd.AddCommand(newAuthSetTokenCommand(runtime))
	authCmd.AddCommand(newAuthSetAppSecretCommand(runtime))
	authCmd.AddCommand(newAuthDeleteCommand(runtime))
	return authCmd
}

func newAuthSetTokenCommand(runtime Runtime) *cobra.Command {
	var (
		dashboard string
		token     string
	)
	cmd := &cobra.Command{
		Use:   "set-token",
		Short: "Store an access token for a dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return storeSecret(cmd, runtime, dashboard, auth.SecretToken, token, "Access token")
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "Dashboard name")
	cmd.Flags().StringVar(&token, "token", "", "Access token (prompted on stdin when omitted)")
	return cmd
}

func newAuthSetAppSecretCommand(runtime Runtime) *cobra.Command {
	var (
		dashboard string
		appSecret string
	)
	cmd := &cobra.Command{
		Use:   "set-app-secret",
		Short: "Store an app secret for appsecret_proof signing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return storeSecret(cmd, runtime, dashboard, auth.SecretAppSecret, appSecret, "App secret")
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "Dashboard name")
	cmd.Flags().StringVar(&appSecret, "app-secret", "", "App secret (prompted on stdin when omitted)")
	return cmd
}

func newAuthDeleteCommand(runtime Runtime) *cobra.Command {
	var dashboard string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove stored credentials for a dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := resolveDashboardFlag(dashboard, runtime)
			if name == "" {
				return WrapExit(ExitCodeInput, errors.New("dashboard is required (--dashboard or global --dashboard)"))
			}

			store := newSecretStore()
			var removed []string
			for _, kind := range []string{auth.SecretToken, auth.SecretAppSecret} {
				ref, err := auth.SecretRef(name, kind)
				if err != nil {
					return WrapExit(ExitCodeInput, err)
				}
				if err := store.Delete(ref); err == nil {
					removed = append(removed, kind)
				}
			}
			if len(removed) == 0 {
				return WrapExit(ExitCodeAuth, fmt.Errorf("no stored credentials for dashboard %q", name))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s for dashboard %q\n", strings.Join(removed, ", "), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "Dashboard name")
	return cmd
}

func storeSecret(cmd *cobra.Command, runtime Runtime, dashboard, kind, value, prompt string) error {
	name := resolveDashboardFlag(dashboard, runtime)
	if name == "" {
		return WrapExit(ExitCodeInput, errors.New("dashboard is required (--dashboard or global --dashboard)"))
	}

	if value == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s for dashboard %q: ", prompt, name)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return WrapExit(ExitCodeInput, fmt.Errorf("read secret from stdin: %w", err))
		}
		value = strings.TrimSpace(line)
	}
	if value == "" {
		return WrapExit(ExitCodeInput, errors.New("secret value cannot be empty"))
	}

	ref, err := auth.SecretRef(name, kind)
	if err != nil {
		return WrapExit(ExitCodeInput, err)
	}
	if err := newSecretStore().Set(ref, value); err != nil {
		return WrapExit(ExitCodeAuth, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s for dashboard %q\n", kind, name)
	return nil
}

func resolveDashboardFlag(local string, runtime Runtime) string {
	if local != "" {
		return local
	}
	return runtime.DashboardName()
}
