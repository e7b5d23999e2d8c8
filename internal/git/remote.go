package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp"
	"github.com/go-git/go-git/v5/plumbing/transport"
	transportclient "github.com/go-git/go-git/v5/plumbing/transport/client"
)

// Result is a ref resolved on a remote.
type Result struct {
	Commit string
	Ref    string
}

// Resolver resolves refs on a remote repository.
type Resolver interface {
	// LsRemote resolves ref to a commit SHA with a single HTTP/SSH round
	// trip, without cloning. An empty ref resolves HEAD.
	LsRemote(ctx context.Context, repoURL, ref string, auth transport.AuthMethod) (Result, error)
}

// GoGitResolver implements Resolver using go-git.
type GoGitResolver struct{}

var _ Resolver = (*GoGitResolver)(nil)

func (g *GoGitResolver) LsRemote(ctx context.Context, repoURL, ref string, auth transport.AuthMethod) (Result, error) {
	ep, err := transport.NewEndpoint(repoURL)
	if err != nil {
		return Result{}, fmt.Errorf("parsing endpoint %s: %w", repoURL, err)
	}

	cli, err := transportclient.NewClient(ep)
	if err != nil {
		return Result{}, fmt.Errorf("creating transport for %s: %w", repoURL, err)
	}

	sess, err := cli.NewUploadPackSession(ep, auth)
	if err != nil {
		return Result{}, fmt.Errorf("opening session for %s: %w", repoURL, err)
	}
	defer func() { _ = sess.Close() }()

	ar, err := sess.AdvertisedReferencesContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ls-remote %s: %w", repoURL, err)
	}

	return matchRef(ar, ref, repoURL)
}

// matchRef resolves ref against the advertised references: a full SHA as is,
// then tags before branches. Peeled hashes win for annotated tags so the
// commit, not the tag object, is returned.
func matchRef(ar *packp.AdvRefs, ref, repoURL string) (Result, error) {
	if ref == "" || ref == plumbing.HEAD.String() {
		if ar.Head == nil {
			return Result{}, fmt.Errorf("remote %s advertises no HEAD", repoURL)
		}
		return Result{Commit: ar.Head.String(), Ref: plumbing.HEAD.String()}, nil
	}

	if plumbing.IsHash(ref) {
		return Result{Commit: ref, Ref: ref}, nil
	}

	candidates := []string{
		"refs/tags/" + ref,
		"refs/heads/" + ref,
	}

	for _, candidate := range candidates {
		if hash, ok := ar.Peeled[candidate]; ok {
			return Result{Commit: hash.String(), Ref: ref}, nil
		}
	}
	for _, candidate := range candidates {
		if hash, ok := ar.References[candidate]; ok {
			return Result{Commit: hash.String(), Ref: ref}, nil
		}
	}

	return Result{}, fmt.Errorf("ref %q not found in remote %s", ref, repoURL)
}
