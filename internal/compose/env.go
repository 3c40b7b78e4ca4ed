package compose

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/manifest"
	"github.com/havenos/haven/internal/secrets"
)

// ResolveEnv builds the complete environment exported to an app's
// orchestrator invocation: the fixed platform variables plus everything
// the app's manifest declares.
//
// Resolution is deterministic for a given seed, manifest, and filesystem
// state. Missing hidden service hostname files resolve to the placeholder
// address rather than failing; the app comes up and the address appears on
// the next start after tor provisions it.
func ResolveEnv(cfg *config.Config, deriver *secrets.Deriver, m *manifest.Manifest) (map[string]string, error) {
	env := map[string]string{
		"APP_ID":       m.ID,
		"APP_VERSION":  m.Version,
		"APP_DOMAIN":   cfg.Domain,
		"APP_DATA_DIR": cfg.DataDir(m.ID),
	}
	if m.Port != 0 {
		env["APP_PORT"] = strconv.Itoa(m.Port)
	}

	// Every app gets a stable seed and password of its own.
	appSeed, err := deriver.Derive("app-" + m.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve env for %s: %w", m.ID, err)
	}
	env["APP_SEED"] = appSeed

	appPassword, err := deriver.Derive("password-" + m.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve env for %s: %w", m.ID, err)
	}
	env["APP_PASSWORD"] = appPassword

	env["APP_HIDDEN_SERVICE"] = readHiddenService(cfg, "app-"+m.ID)

	for key, value := range m.Env {
		env[key] = value
	}

	for key, secret := range m.Secrets {
		if secret.Bytes > 0 {
			material, err := deriver.DeriveKey(secret.Label, secret.Bytes)
			if err != nil {
				return nil, fmt.Errorf("resolve secret %s for %s: %w", key, m.ID, err)
			}
			env[key] = hex.EncodeToString(material)
			continue
		}
		digest, err := deriver.Derive(secret.Label)
		if err != nil {
			return nil, fmt.Errorf("resolve secret %s for %s: %w", key, m.ID, err)
		}
		env[key] = digest
	}

	for key, hs := range m.HiddenServices {
		env[key] = readHiddenService(cfg, hs.Dir)
	}

	for key, addr := range m.Addresses {
		env[key] = addr
	}

	return env, nil
}

// readHiddenService returns the onion hostname for a hidden service
// directory, or the placeholder when tor has not provisioned it yet.
func readHiddenService(cfg *config.Config, dir string) string {
	data, err := os.ReadFile(cfg.HiddenServiceHostnamePath(dir))
	if err != nil {
		return config.PlaceholderHiddenService
	}
	hostname := strings.TrimSpace(string(data))
	if hostname == "" {
		return config.PlaceholderHiddenService
	}
	return hostname
}
