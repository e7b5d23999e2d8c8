// Package objects filters reconciled and child objects by glob patterns over
// their "Kind/namespace/name" path.
package objects

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

// Path returns the path patterns are matched against. Cluster-scoped
// objects have an empty namespace segment, e.g. "Namespace//podinfo".
func Path(obj *appsv1.UnstructuredObject) string {
	return obj.Kind() + "/" + obj.Namespace + "/" + obj.Name
}

// MergePatterns trims and deduplicates patterns, keeping first-seen order.
func MergePatterns(patterns ...[]string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, list := range patterns {
		for _, p := range list {
			p = strings.TrimSpace(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

// Match reports whether obj matches any of patterns. Invalid patterns never match.
func Match(obj *appsv1.UnstructuredObject, patterns []string) bool {
	p := Path(obj)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, p)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Filter keeps objects matching include (all when include is empty) and
// none of exclude.
func Filter(objs []appsv1.UnstructuredObject, include, exclude []string) []appsv1.UnstructuredObject {
	var out []appsv1.UnstructuredObject
	for i := range objs {
		if len(include) > 0 && !Match(&objs[i], include) {
			continue
		}
		if Match(&objs[i], exclude) {
			continue
		}
		out = append(out, objs[i])
	}
	return out
}

// ValidatePatterns returns the first malformed pattern, if any.
func ValidatePatterns(patterns []string) (string, bool) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return p, false
		}
	}
	return "", true
}
