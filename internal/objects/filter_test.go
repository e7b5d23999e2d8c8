package objects

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

func obj(kind, ns, name string) appsv1.UnstructuredObject {
	return appsv1.UnstructuredObject{
		GroupVersionKind: &appsv1.GroupVersionKind{Kind: kind, Version: "v1"},
		Namespace:        ns,
		Name:             name,
	}
}

func names(objs []appsv1.UnstructuredObject) []string {
	var out []string
	for i := range objs {
		out = append(out, Path(&objs[i]))
	}
	return out
}

func TestPath(t *testing.T) {
	o := obj("Deployment", "default", "podinfo")
	if got := Path(&o); got != "Deployment/default/podinfo" {
		t.Fatalf("Path() = %q", got)
	}
	cluster := obj("Namespace", "", "podinfo")
	if got := Path(&cluster); got != "Namespace//podinfo" {
		t.Fatalf("Path(cluster-scoped) = %q", got)
	}
	noKind := appsv1.UnstructuredObject{Name: "x"}
	if got := Path(&noKind); got != "//x" {
		t.Fatalf("Path(no kind) = %q", got)
	}
}

func TestMatch(t *testing.T) {
	deploy := obj("Deployment", "default", "podinfo")
	tests := []struct {
		pattern string
		want    bool
	}{
		{"Deployment/**", true},
		{"*/default/*", true},
		{"**/podinfo", true},
		{"Service/**", false},
		{"Deployment/kube-system/*", false},
		{"[", false},
	}
	for _, tt := range tests {
		if got := Match(&deploy, []string{tt.pattern}); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	objs := []appsv1.UnstructuredObject{
		obj("Deployment", "default", "podinfo"),
		obj("Service", "default", "podinfo"),
		obj("HorizontalPodAutoscaler", "default", "podinfo"),
		obj("Namespace", "", "default"),
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{"all", nil, nil, names(objs)},
		{"include kinds", []string{"Deployment/**", "Service/**"}, nil, []string{"Deployment/default/podinfo", "Service/default/podinfo"}},
		{"exclude namespaces", nil, []string{"Namespace/**"}, []string{"Deployment/default/podinfo", "Service/default/podinfo", "HorizontalPodAutoscaler/default/podinfo"}},
		{"exclude wins", []string{"**/podinfo"}, []string{"Service/**"}, []string{"Deployment/default/podinfo", "HorizontalPodAutoscaler/default/podinfo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, names(Filter(objs, tt.include, tt.exclude))); diff != "" {
				t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergePatterns(t *testing.T) {
	got := MergePatterns([]string{" Deployment/** ", "", "Service/**"}, []string{"Service/**", "ConfigMap/**"})
	want := []string{"Deployment/**", "Service/**", "ConfigMap/**"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergePatterns mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatePatterns(t *testing.T) {
	if bad, ok := ValidatePatterns([]string{"Deployment/**", "[abc"}); ok || bad != "[abc" {
		t.Fatalf("expected [abc to be invalid, got %q %v", bad, ok)
	}
	if _, ok := ValidatePatterns([]string{"*/default/*"}); !ok {
		t.Fatal("expected valid patterns")
	}
}
