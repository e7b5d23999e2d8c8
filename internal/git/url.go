package git

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Protocols a repository URL may use.
const (
	ProtocolHTTPS = "https"
	ProtocolSSH   = "ssh"
)

// ErrUnsupportedURL is returned for URLs that do not name a hosted repository.
var ErrUnsupportedURL = errors.New("unsupported repository URL")

// RepoURL is a repository URL split into its parts. ssh, scp-like and https
// spellings of the same repository normalize to equal values.
type RepoURL struct {
	Protocol string
	Host     string
	Port     int
	Owner    string
	Repo     string
}

// NormalizeRepoURL parses raw, e.g. "git@github.com:org/app.git",
// "ssh://git@github.com/org/app.git" or "https://github.com/org/app".
func NormalizeRepoURL(raw string) (RepoURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepoURL{}, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	}

	ep, err := transport.NewEndpoint(raw)
	if err != nil {
		return RepoURL{}, fmt.Errorf("parsing repository URL %s: %w", raw, err)
	}

	var protocol string
	switch ep.Protocol {
	case "https", "http":
		protocol = ProtocolHTTPS
	case "ssh":
		protocol = ProtocolSSH
	default:
		return RepoURL{}, fmt.Errorf("%w: %s uses protocol %q", ErrUnsupportedURL, raw, ep.Protocol)
	}

	p := strings.Trim(ep.Path, "/")
	p = strings.TrimSuffix(p, ".git")
	owner, repo := path.Split(p)
	owner = strings.Trim(owner, "/")
	if ep.Host == "" || owner == "" || repo == "" {
		return RepoURL{}, fmt.Errorf("%w: %s has no owner/repository path", ErrUnsupportedURL, raw)
	}

	u := RepoURL{
		Protocol: protocol,
		Host:     strings.ToLower(ep.Host),
		Owner:    owner,
		Repo:     repo,
	}
	if ep.Port != 0 && ep.Port != defaultPort(ep.Protocol) {
		u.Port = ep.Port
	}
	return u, nil
}

func defaultPort(protocol string) int {
	switch protocol {
	case "https":
		return 443
	case "http":
		return 80
	case "ssh":
		return 22
	}
	return 0
}

func (u RepoURL) hostPort() string {
	if u.Port != 0 {
		return fmt.Sprintf("%s:%d", u.Host, u.Port)
	}
	return u.Host
}

// String returns the canonical ssh form, ssh://git@host/owner/repo.git.
func (u RepoURL) String() string {
	return fmt.Sprintf("ssh://git@%s/%s/%s.git", u.hostPort(), u.Owner, u.Repo)
}

// HTTPS returns the browsable https form, https://host/owner/repo.
func (u RepoURL) HTTPS() string {
	return fmt.Sprintf("https://%s/%s/%s", u.hostPort(), u.Owner, u.Repo)
}

// Provider returns "github" or "gitlab" for the public hosts, "" otherwise.
func (u RepoURL) Provider() string {
	switch u.Host {
	case "github.com":
		return "github"
	case "gitlab.com":
		return "gitlab"
	}
	return ""
}
