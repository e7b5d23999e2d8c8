package git

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	gogithttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gogitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// AuthOptions locates credentials for repository access on the local disk.
type AuthOptions struct {
	// SSHKeyFile is a PEM private key used for ssh URLs.
	SSHKeyFile string
	// KnownHostsFile verifies ssh host keys. Host keys are not checked when empty.
	KnownHostsFile string
	// TokenFile holds an access token used for https URLs.
	TokenFile string
}

// ResolveAuth builds a go-git transport.AuthMethod for repoURL.
// Returns nil auth (valid for public repos) if nothing applies.
func ResolveAuth(repoURL string, opts AuthOptions) (transport.AuthMethod, error) {
	u, err := NormalizeRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	switch {
	case u.Protocol == ProtocolSSH && opts.SSHKeyFile != "":
		return resolveSSHAuth(opts)
	case u.Protocol == ProtocolHTTPS && opts.TokenFile != "":
		return resolveTokenAuth(opts.TokenFile)
	default:
		return nil, nil
	}
}

func resolveSSHAuth(opts AuthOptions) (transport.AuthMethod, error) {
	pemBytes, err := os.ReadFile(opts.SSHKeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading SSH key %s: %w", opts.SSHKeyFile, err)
	}

	publicKey, err := gogitssh.NewPublicKeys("git", pemBytes, "")
	if err != nil {
		return nil, fmt.Errorf("parsing SSH private key: %w", err)
	}

	if opts.KnownHostsFile != "" {
		hostKeyCallback, err := knownhosts.New(opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("parsing known_hosts %s: %w", opts.KnownHostsFile, err)
		}
		publicKey.HostKeyCallback = hostKeyCallback
	} else {
		publicKey.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	return publicKey, nil
}

func resolveTokenAuth(tokenFile string) (transport.AuthMethod, error) {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", tokenFile, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, fmt.Errorf("token file %s is empty", tokenFile)
	}

	return &gogithttp.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}, nil
}
