package git

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp"
)

func newAdvRefs(refs map[string]string, peeled map[string]string) *packp.AdvRefs {
	ar := packp.NewAdvRefs()
	for name, hash := range refs {
		ar.References[name] = plumbing.NewHash(hash)
	}
	for name, hash := range peeled {
		ar.Peeled[name] = plumbing.NewHash(hash)
	}
	return ar
}

const testRepo = "https://github.com/jpellizzari/stringly.git"

func TestMatchRef_Head(t *testing.T) {
	head := plumbing.NewHash("1111111111111111111111111111111111111111")
	ar := packp.NewAdvRefs()
	ar.Head = &head

	for _, ref := range []string{"", "HEAD"} {
		res, err := matchRef(ar, ref, testRepo)
		if err != nil {
			t.Fatalf("matchRef(%q): %v", ref, err)
		}
		if res.Commit != head.String() || res.Ref != "HEAD" {
			t.Errorf("matchRef(%q) = %+v", ref, res)
		}
	}
}

func TestMatchRef_NoHead(t *testing.T) {
	if _, err := matchRef(packp.NewAdvRefs(), "", testRepo); err == nil {
		t.Fatal("expected error when remote has no HEAD")
	}
}

func TestMatchRef_AnnotatedTag(t *testing.T) {
	tagObjHash := "6019298770000000000000000000000000000000"
	commitHash := "78ace97500000000000000000000000000000000"

	ar := newAdvRefs(
		map[string]string{"refs/tags/v0.3.0": tagObjHash},
		map[string]string{"refs/tags/v0.3.0": commitHash},
	)

	res, err := matchRef(ar, "v0.3.0", testRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Commit != commitHash {
		t.Errorf("expected commit hash %s (peeled), got %s (tag object)", commitHash, res.Commit)
	}
}

func TestMatchRef_Branch(t *testing.T) {
	commitHash := "abcdef1234567890abcdef1234567890abcdef12"
	ar := newAdvRefs(map[string]string{"refs/heads/main": commitHash}, nil)

	res, err := matchRef(ar, "main", testRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Commit != commitHash {
		t.Errorf("expected %s, got %s", commitHash, res.Commit)
	}
}

func TestMatchRef_FullSHA(t *testing.T) {
	sha := "abcdef1234567890abcdef1234567890abcdef12"

	res, err := matchRef(packp.NewAdvRefs(), sha, testRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Commit != sha {
		t.Errorf("expected %s, got %s", sha, res.Commit)
	}
}

func TestMatchRef_TagPreferredOverBranch(t *testing.T) {
	tagHash := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	branchHash := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	ar := newAdvRefs(map[string]string{
		"refs/tags/v1.0":  tagHash,
		"refs/heads/v1.0": branchHash,
	}, nil)

	res, err := matchRef(ar, "v1.0", testRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Commit != tagHash {
		t.Errorf("expected tag hash %s, got %s", tagHash, res.Commit)
	}
}

func TestMatchRef_NotFound(t *testing.T) {
	ar := newAdvRefs(map[string]string{"refs/heads/main": "abcdef1234567890abcdef1234567890abcdef12"}, nil)

	if _, err := matchRef(ar, "nonexistent", testRepo); err == nil {
		t.Fatal("expected error for nonexistent ref")
	}
}
