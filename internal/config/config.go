// Package config loads CLI configuration from flags, GITOPS_APPS_* environment
// variables and $HOME/.gitops-apps.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/ia-eknorr/gitops-apps/internal/git"
)

const (
	DefaultServer    = "http://localhost:9001"
	DefaultNamespace = "wego-system"
	DefaultLogLevel  = "info"
	DefaultOutput    = OutputTable

	OutputTable = "table"
	OutputJSON  = "json"

	// EnvPrefix prefixes environment overrides, e.g. GITOPS_APPS_SERVER.
	EnvPrefix = "GITOPS_APPS"

	fileName = ".gitops-apps.yaml"
)

// Configuration keys, shared by flags, environment and the config file.
const (
	KeyServer            = "server"
	KeyToken             = "token"
	KeyNamespace         = "namespace"
	KeyKubeconfig        = "kubeconfig"
	KeyLogLevel          = "log-level"
	KeyOutput            = "output"
	KeyMetricsTextfile   = "metrics-textfile"
	KeyGitSSHKeyFile     = "git-ssh-key-file"
	KeyGitKnownHostsFile = "git-known-hosts-file"
	KeyGitTokenFile      = "git-token-file"
)

var logLevels = []string{"debug", "info", "error"}

// ErrNoConfigFile is returned by SaveToken when no config file location is
// known, which happens when neither --config nor a home directory is set.
var ErrNoConfigFile = errors.New("no config file location")

// Config holds the resolved CLI configuration.
type Config struct {
	Server    string
	Token     string
	Namespace string
	LogLevel  string
	Output    string

	// MetricsTextfile, when set, receives client metrics on exit.
	MetricsTextfile string

	// Git locates credentials for repository checks.
	Git git.AuthOptions

	// File is the config file in use, or where one would be written.
	File string
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file read in. A missing config file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyOutput, DefaultOutput)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		p, err := DefaultFile()
		if err != nil {
			return v, nil
		}
		configFile = p
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", configFile, err)
	}
	return v, nil
}

// DefaultFile returns $HOME/.gitops-apps.yaml.
func DefaultFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, fileName), nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server:          strings.TrimRight(strings.TrimSpace(v.GetString(KeyServer)), "/"),
		Token:           strings.TrimSpace(v.GetString(KeyToken)),
		Namespace:       v.GetString(KeyNamespace),
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		Output:          strings.ToLower(v.GetString(KeyOutput)),
		MetricsTextfile: v.GetString(KeyMetricsTextfile),
		Git: git.AuthOptions{
			SSHKeyFile:     v.GetString(KeyGitSSHKeyFile),
			KnownHostsFile: v.GetString(KeyGitKnownHostsFile),
			TokenFile:      v.GetString(KeyGitTokenFile),
		},
		File: v.ConfigFileUsed(),
	}

	// Defaults
	if cfg.Namespace == "" {
		cfg.Namespace = KubeconfigNamespace(v.GetString(KeyKubeconfig))
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.File == "" {
		// Without a home directory there is nowhere to save a token; File
		// stays empty and SaveToken reports ErrNoConfigFile.
		if f, err := DefaultFile(); err == nil {
			cfg.File = f
		}
	}

	// Validate
	u, err := url.Parse(cfg.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s must be an http(s) URL, got %q", KeyServer, cfg.Server)
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("%s must be one of %v, got %q", KeyLogLevel, logLevels, cfg.LogLevel)
	}
	if cfg.Output != OutputTable && cfg.Output != OutputJSON {
		return nil, fmt.Errorf("%s must be %s or %s, got %q", KeyOutput, OutputTable, OutputJSON, cfg.Output)
	}

	return cfg, nil
}

// KubeconfigNamespace returns the namespace of the current kubeconfig
// context, or "" when none is set. An empty path uses the default loading
// rules ($KUBECONFIG, then ~/.kube/config).
func KubeconfigNamespace(path string) string {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}
	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).RawConfig()
	if err != nil {
		return ""
	}
	kctx, ok := raw.Contexts[raw.CurrentContext]
	if !ok || kctx == nil {
		return ""
	}
	return kctx.Namespace
}

// SaveToken stores token in the config file at path, keeping its other keys.
func SaveToken(path, token string) error {
	if path == "" {
		return ErrNoConfigFile
	}
	doc := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	doc[KeyToken] = token
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
