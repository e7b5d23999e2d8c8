package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const kubeconfig = `apiVersion: v1
kind: Config
current-context: dev
clusters:
- name: dev
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: dev
  context:
    cluster: dev
    user: dev
    namespace: flux-system
users:
- name: dev
  user: {}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return p
}

// isolate points HOME and KUBECONFIG at empty temp locations.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KUBECONFIG", filepath.Join(home, "missing-kubeconfig"))
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("expected default server, got %q", cfg.Server)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("expected namespace %s, got %q", DefaultNamespace, cfg.Namespace)
	}
	if cfg.LogLevel != "info" || cfg.Output != OutputTable {
		t.Errorf("unexpected log level/output %q/%q", cfg.LogLevel, cfg.Output)
	}
	if cfg.File != filepath.Join(home, ".gitops-apps.yaml") {
		t.Errorf("unexpected config file %q", cfg.File)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, ".gitops-apps.yaml", "server: https://gitops.example.com/\ntoken: file-token\nnamespace: apps\noutput: json\n")
	t.Setenv("GITOPS_APPS_TOKEN", "env-token")
	t.Setenv("GITOPS_APPS_LOG_LEVEL", "DEBUG")

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://gitops.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Server)
	}
	if cfg.Token != "env-token" {
		t.Errorf("expected env to override file, got %q", cfg.Token)
	}
	if cfg.Namespace != "apps" || cfg.Output != OutputJSON || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	p := writeFile(t, t.TempDir(), "custom.yaml", "git-token-file: /var/run/token\n")

	v, err := NewViper(p)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != p {
		t.Errorf("expected file %q, got %q", p, cfg.File)
	}
	if cfg.Git.TokenFile != "/var/run/token" {
		t.Errorf("expected git token file, got %q", cfg.Git.TokenFile)
	}
}

func TestLoad_ExplicitFileMissingIsNotAnError(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "new.yaml")

	v, err := NewViper(p)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	if _, err := Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)
	p := writeFile(t, t.TempDir(), "bad.yaml", "server: [unclosed\n")

	if _, err := NewViper(p); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoad_KubeconfigNamespace(t *testing.T) {
	home := isolate(t)
	t.Setenv("KUBECONFIG", writeFile(t, home, "kubeconfig", kubeconfig))

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Namespace != "flux-system" {
		t.Fatalf("expected kubeconfig namespace, got %q", cfg.Namespace)
	}
}

func TestKubeconfigNamespace_ExplicitPath(t *testing.T) {
	isolate(t)
	p := writeFile(t, t.TempDir(), "config", kubeconfig)

	if ns := KubeconfigNamespace(p); ns != "flux-system" {
		t.Fatalf("expected flux-system, got %q", ns)
	}
	if ns := KubeconfigNamespace(""); ns != "" {
		t.Fatalf("expected empty namespace without kubeconfig, got %q", ns)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GITOPS_APPS_SERVER", "localhost:9001"},
		{"GITOPS_APPS_SERVER", "ftp://example.com"},
		{"GITOPS_APPS_LOG_LEVEL", "verbose"},
		{"GITOPS_APPS_OUTPUT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			v, err := NewViper("")
			if err != nil {
				t.Fatalf("NewViper: %v", err)
			}
			if _, err := Load(v); err == nil {
				t.Fatalf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestSaveToken_PreservesOtherKeys(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", "server: https://gitops.example.com\ntoken: old\n")

	if err := SaveToken(p, "new-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	var doc map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	if doc["token"] != "new-token" || doc["server"] != "https://gitops.example.com" {
		t.Fatalf("unexpected config after save:\n%s", data)
	}

	info, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
}

func TestSaveToken_CreatesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fresh.yaml")
	if err := SaveToken(p, "tok"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	data, _ := os.ReadFile(p)
	if !strings.Contains(string(data), "token: tok") {
		t.Fatalf("expected token in new file, got:\n%s", data)
	}
}

func TestLoad_NoHomeLeavesFileEmpty(t *testing.T) {
	isolate(t)
	t.Setenv("HOME", "")

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file without HOME, got %q", cfg.File)
	}
	if err := SaveToken(cfg.File, "tok"); !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("expected ErrNoConfigFile, got %v", err)
	}
}
