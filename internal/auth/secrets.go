package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	KeychainService = "adpulse"
	SecretToken     = "token"
	SecretAppSecret = "app_secret"
)

// SecretStore resolves token refs stored in dashboard configuration to the
// secrets behind them. The config file never holds secret material itself.
type SecretStore interface {
	Set(ref string, value string) error
	Get(ref string) (string, error)
	Delete(ref string) error
}

type KeychainStore struct {
	service string
	backend keyringBackend
}

type keyringBackend interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type defaultKeyringBackend struct{}

func (defaultKeyringBackend) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (defaultKeyringBackend) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (defaultKeyringBackend) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{
		service: KeychainService,
		backend: defaultKeyringBackend{},
	}
}

func SecretRef(dashboard string, kind string) (string, error) {
	dashboard = strings.TrimSpace(dashboard)
	if dashboard == "" {
		return "", errors.New("dashboard is required for secret ref")
	}

	switch kind {
	case SecretToken, SecretAppSecret:
	default:
		return "", fmt.Errorf("unsupported secret kind %q", kind)
	}

	return fmt.Sprintf("keychain://%s/%s/%s", KeychainService, dashboard, kind), nil
}

func ParseSecretRef(ref string) (string, string, error) {
	if !strings.HasPrefix(ref, "keychain://") {
		return "", "", fmt.Errorf("invalid secret ref %q: expected keychain:// prefix", ref)
	}
	trimmed := strings.TrimPrefix(ref, "keychain://")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("invalid secret ref %q: expected keychain://<service>/<dashboard>/<kind>", ref)
	}
	if parts[0] != KeychainService {
		return "", "", fmt.Errorf("invalid secret ref %q: unsupported service %q", ref, parts[0])
	}
	dashboard := strings.TrimSpace(parts[1])
	kind := strings.TrimSpace(parts[2])
	if dashboard == "" || kind == "" {
		return "", "", fmt.Errorf("invalid secret ref %q: empty dashboard or kind", ref)
	}
	if kind != SecretToken && kind != SecretAppSecret {
		return "", "", fmt.Errorf("invalid secret ref %q: unknown kind %q", ref, kind)
	}
	return dashboard, kind, nil
}

func (s *KeychainStore) Set(ref string, value string) error {
	dashboard, kind, err := ParseSecretRef(ref)
	if err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value cannot be empty")
	}
	if err := s.backend.Set(s.service, accountName(dashboard, kind), value); err != nil {
		return fmt.Errorf("keychain set %q: %w", ref, err)
	}
	return nil
}

func (s *KeychainStore) Get(ref string) (string, error) {
	dashboard, kind, err := ParseSecretRef(ref)
	if err != nil {
		return "", err
	}
	value, err := s.backend.Get(s.service, accountName(dashboard, kind))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keychain secret not found for %q: %w", ref, err)
		}
		return "", fmt.Errorf("keychain get %q: %w", ref, err)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("keychain secret value is empty for %q", ref)
	}
	return value, nil
}

func (s *KeychainStore) Delete(ref string) error {
	dashboard, kind, err := ParseSecretRef(ref)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(s.service, accountName(dashboard, kind)); err != nil {
		return fmt.Errorf("keychain delete %q: %w", ref, err)
	}
	return nil
}

func accountName(dashboard string, kind string) string {
	return fmt.Sprintf("%s:%s", dashboard, kind)
}
