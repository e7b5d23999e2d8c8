package conditions

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/pkg/types"
)

// Condition types reported on sources, Kustomizations and HelmReleases.
const (
	// TypeReady indicates the object is reconciled and healthy.
	TypeReady = "Ready"

	// TypeReconciling indicates a reconciliation is in progress.
	TypeReconciling = "Reconciling"

	// TypeStalled indicates reconciliation cannot proceed without intervention.
	TypeStalled = "Stalled"

	// TypeHealthy indicates the applied workloads passed health checks.
	TypeHealthy = "Healthy"
)

// Ready=False reasons that mean the automation is still working.
const (
	ReasonProgressing        = "Progressing"
	ReasonDependencyNotReady = "DependencyNotReady"
)

// Find returns the condition of type t, or nil.
func Find(conds []appsv1.Condition, t string) *appsv1.Condition {
	for i := range conds {
		if conds[i].Type == t {
			return &conds[i]
		}
	}
	return nil
}

// IsTrue reports whether the condition of type t has status True.
func IsTrue(conds []appsv1.Condition, t string) bool {
	c := Find(conds, t)
	return c != nil && c.Status == string(metav1.ConditionTrue)
}

// IsReady reports whether conds carry Ready=True.
func IsReady(conds []appsv1.Condition) bool {
	return IsTrue(conds, TypeReady)
}

// ReadyStatus returns the Ready status ("True", "False" or "Unknown").
// A missing Ready condition is Unknown.
func ReadyStatus(conds []appsv1.Condition) metav1.ConditionStatus {
	c := Find(conds, TypeReady)
	if c == nil || c.Status == "" {
		return metav1.ConditionUnknown
	}
	return metav1.ConditionStatus(c.Status)
}

// Status summarises conds as an object status. Ready=True is Current,
// Ready=Unknown or a progressing reason is InProgress, any other Ready=False
// is Failed and a missing Ready condition is Unknown.
func Status(conds []appsv1.Condition) string {
	c := Find(conds, TypeReady)
	switch {
	case c == nil:
		return types.StatusUnknown
	case c.Status == string(metav1.ConditionTrue):
		return types.StatusCurrent
	case c.Status != string(metav1.ConditionFalse),
		c.Reason == ReasonProgressing,
		c.Reason == ReasonDependencyNotReady:
		return types.StatusInProgress
	}
	return types.StatusFailed
}

// LastTransition returns the latest timestamp among conds, or the zero time.
func LastTransition(conds []appsv1.Condition) time.Time {
	var latest int64
	for _, c := range conds {
		if c.Timestamp > latest {
			latest = c.Timestamp
		}
	}
	if latest == 0 {
		return time.Time{}
	}
	return time.Unix(latest, 0).UTC()
}
