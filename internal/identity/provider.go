package identity

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed providers/*.yaml
var providersFS embed.FS

// ProviderSpec describes an identity provider profile loaded from a YAML file.
type ProviderSpec struct {
	Name         string   `yaml:"name"`
	DisplayName  string   `yaml:"displayName"`
	Description  string   `yaml:"description"`
	Authority    string   `yaml:"authority"`
	ClientID     string   `yaml:"clientId"`
	ResponseType string   `yaml:"responseType"`
	Scopes       []string `yaml:"scopes"`
	RedirectPort int      `yaml:"redirectPort,omitempty"`
}

// providerSpecs is loaded at package init time from embedded YAML files.
var providerSpecs = mustLoadProviders(providersFS)

func mustLoadProviders(fsys embed.FS) map[string]*ProviderSpec {
	entries, err := fsys.ReadDir("providers")
	if err != nil {
		panic(fmt.Sprintf("identity: read providers dir: %v", err))
	}

	specs := make(map[string]*ProviderSpec, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, readErr := fsys.ReadFile("providers/" + entry.Name())
		if readErr != nil {
			panic(fmt.Sprintf("identity: read provider file %s: %v", entry.Name(), readErr))
		}

		spec, parseErr := parseProviderSpec(data)
		if parseErr != nil {
			panic(fmt.Sprintf("identity: provider %s: %v", entry.Name(), parseErr))
		}

		if _, dup := specs[spec.Name]; dup {
			panic(fmt.Sprintf("identity: duplicate provider name %q in %s", spec.Name, entry.Name()))
		}

		specs[spec.Name] = spec
	}

	return specs
}

// parseProviderSpec decodes one profile, rejecting unknown keys.
func parseProviderSpec(data []byte) (*ProviderSpec, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var spec ProviderSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("unmarshal provider: %w", err)
	}

	if err := validateProviderSpec(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

func validateProviderSpec(spec *ProviderSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("name is required")
	}

	if spec.Authority == "" {
		return fmt.Errorf("authority is required")
	}

	if !strings.HasPrefix(spec.Authority, "https://") && !strings.HasPrefix(spec.Authority, "http://") {
		return fmt.Errorf("authority must be an http(s) URL, got %q", spec.Authority)
	}

	if spec.ResponseType != "" && spec.ResponseType != "code" {
		return fmt.Errorf("unsupported responseType %q, only \"code\" is supported", spec.ResponseType)
	}

	return nil
}

// GetProvider returns the ProviderSpec for a named provider profile.
// User profiles from <user config dir>/forge/providers.yaml shadow the
// embedded defaults by name.
func GetProvider(name string) (*ProviderSpec, bool) {
	if spec, ok := loadUserProviders()[name]; ok {
		return spec, true
	}

	spec, ok := providerSpecs[name]

	return spec, ok
}

// ProviderNames returns all provider names in sorted order.
func ProviderNames() []string {
	seen := make(map[string]struct{}, len(providerSpecs))
	for name := range providerSpecs {
		seen[name] = struct{}{}
	}

	for name := range loadUserProviders() {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// userProvidersPath is overridable in tests.
var userProvidersPath = defaultUserProvidersPath

func defaultUserProvidersPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return home + "/.config/forge/providers.yaml"
}

// loadUserProviders reads optional user profiles. Malformed files are
// ignored rather than blocking sign-in with the built-in profiles.
func loadUserProviders() map[string]*ProviderSpec {
	path := userProvidersPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from controlled config directory
	if err != nil {
		return nil
	}

	var doc struct {
		Providers []yaml.Node `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	specs := make(map[string]*ProviderSpec, len(doc.Providers))

	for _, node := range doc.Providers {
		raw, err := yaml.Marshal(&node)
		if err != nil {
			continue
		}

		spec, err := parseProviderSpec(raw)
		if err != nil {
			continue
		}

		specs[spec.Name] = spec
	}

	return specs
}
