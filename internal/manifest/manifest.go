// Package manifest defines the declarative per-app manifest.
//
// An app directory carries a haven-app.yml naming the app and enumerating
// every environment variable it needs: plain values, derived secrets,
// hidden service addresses, and static network addresses. The platform
// resolves these generically, so adding an app never adds a special case
// to the lifecycle code.
//
// Manifests are validated against an embedded CUE schema before decoding,
// so schema violations are reported with CUE's structural error messages
// rather than as downstream nil-map surprises.
package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Filename is the manifest file name inside an app directory.
const Filename = "haven-app.yml"

//go:embed schema.cue
var schemaSource string

// idPattern constrains app identifiers to lowercase DNS-label style names.
var idPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Manifest describes one app.
type Manifest struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `yaml:"port,omitempty"`

	// Compose is the app's compose fragment, relative to the app
	// directory. Empty means docker-compose.yml.
	Compose string `yaml:"compose,omitempty"`

	Env            map[string]string        `yaml:"env,omitempty"`
	Secrets        map[string]Secret        `yaml:"secrets,omitempty"`
	HiddenServices map[string]HiddenService `yaml:"hidden_services,omitempty"`
	Addresses      map[string]string        `yaml:"addresses,omitempty"`
}

// Secret declares a derived secret exported to the app.
type Secret struct {
	// Label is the derivation identifier. Same seed + same label always
	// yields the same value.
	Label string `yaml:"label"`

	// Bytes, when non-zero, requests raw key material of that length
	// (hex encoded) instead of an HMAC digest.
	Bytes int `yaml:"bytes,omitempty"`
}

// HiddenService declares an onion address exported to the app.
type HiddenService struct {
	// Dir is the hidden service directory name under the tor data dir.
	Dir string `yaml:"dir"`
}

// NormalizeID canonicalizes an app identifier for comparison and lookup.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// ValidID reports whether id is an acceptable app identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Load reads and validates the manifest in an app directory.
func Load(appDir string) (*Manifest, error) {
	path := filepath.Join(appDir, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates manifest data against the embedded schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Compose == "" {
		m.Compose = "docker-compose.yml"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validateSchema unifies the raw document with #Manifest and reports all
// violations at once.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schemaSource)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}
	schema := schemaVal.LookupPath(cue.ParsePath("#Manifest"))
	if !schema.Exists() {
		return fmt.Errorf("manifest schema: #Manifest not found")
	}

	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("invalid manifest:\n  %s", strings.Join(msgs, "\n  "))
	}
	return nil
}

// Validate checks constraints the schema cannot express. All violations
// are aggregated into a single error.
func (m *Manifest) Validate() error {
	var errs []string

	if !ValidID(m.ID) {
		errs = append(errs, fmt.Sprintf("invalid app id %q", m.ID))
	}
	if strings.ContainsAny(m.Compose, `/\`) {
		errs = append(errs, fmt.Sprintf("compose %q must be a bare file name", m.Compose))
	}

	// An environment variable may be declared in at most one section.
	seen := make(map[string]string)
	claim := func(section, key string) {
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Sprintf("%s %q already declared in %s", section, key, prev))
			return
		}
		seen[key] = section
	}
	for key := range m.Env {
		claim("env", key)
	}
	for key := range m.Secrets {
		claim("secret", key)
	}
	for key := range m.HiddenServices {
		claim("hidden service", key)
	}
	for key := range m.Addresses {
		claim("address", key)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid manifest:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
