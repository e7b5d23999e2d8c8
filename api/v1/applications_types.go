package v1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// AutomationKind identifies which reconciliation mechanism manages an application.
type AutomationKind string

const (
	// AutomationKindKustomize reconciles an application through a Kustomization.
	AutomationKindKustomize AutomationKind = "Kustomize"
	// AutomationKindHelm reconciles an application through a HelmRelease.
	AutomationKindHelm AutomationKind = "Helm"
)

// Valid reports whether k is a known automation kind.
func (k AutomationKind) Valid() bool {
	return k == AutomationKindKustomize || k == AutomationKindHelm
}

// SourceType identifies the kind of source an application is fetched from.
type SourceType string

const (
	SourceTypeGit  SourceType = "Git"
	SourceTypeHelm SourceType = "Helm"
)

// ============================================================
// Entities
// ============================================================

// Condition mirrors a status condition reported on a cluster object.
type Condition struct {
	Type    string `json:"type,omitempty"`
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`

	// timestamp is the last transition time in unix seconds.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Application is a GitOps-managed application as reported by the controller.
type Application struct {
	Name      string `json:"name,omitempty"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	// sourceConditions are the conditions of the application's source object.
	SourceConditions []Condition `json:"sourceConditions,omitempty"`

	// deploymentConditions are the conditions of the Kustomization or HelmRelease.
	DeploymentConditions []Condition `json:"deploymentConditions,omitempty"`

	DeploymentType AutomationKind `json:"deploymentType,omitempty"`

	// reconciledObjectKinds lists the kinds the automation is known to produce.
	// It is the default kind set for reconciled object queries.
	ReconciledObjectKinds []GroupVersionKind `json:"reconciledObjectKinds,omitempty"`

	// kustomization is set when deploymentType is Kustomize.
	Kustomization *Kustomization `json:"kustomization,omitempty"`

	// helmRelease is set when deploymentType is Helm.
	HelmRelease *HelmRelease `json:"helmRelease,omitempty"`

	Source *Source `json:"source,omitempty"`
}

// Key returns the namespaced name identifying the application.
func (a *Application) Key() types.NamespacedName {
	return types.NamespacedName{Namespace: a.Namespace, Name: a.Name}
}

// AutomationName returns the name of the automation object that reconciles
// the application, falling back to the application name.
func (a *Application) AutomationName() string {
	switch {
	case a.DeploymentType == AutomationKindHelm && a.HelmRelease != nil && a.HelmRelease.Name != "":
		return a.HelmRelease.Name
	case a.Kustomization != nil && a.Kustomization.Name != "":
		return a.Kustomization.Name
	}
	return a.Name
}

// Kustomization is the template-overlay automation of an application.
type Kustomization struct {
	Name            string      `json:"name,omitempty"`
	Namespace       string      `json:"namespace,omitempty"`
	TargetNamespace string      `json:"targetNamespace,omitempty"`
	Path            string      `json:"path,omitempty"`
	Conditions      []Condition `json:"conditions,omitempty"`
	Interval        string      `json:"interval,omitempty"`
	Prune           bool        `json:"prune,omitempty"`

	// lastAppliedRevision is the source revision last applied to the cluster.
	LastAppliedRevision string `json:"lastAppliedRevision,omitempty"`
}

// HelmRelease is the package-chart automation of an application.
type HelmRelease struct {
	Name                string      `json:"name,omitempty"`
	Namespace           string      `json:"namespace,omitempty"`
	TargetNamespace     string      `json:"targetNamespace,omitempty"`
	Chart               *HelmChart  `json:"chart,omitempty"`
	Interval            string      `json:"interval,omitempty"`
	LastAppliedRevision string      `json:"lastAppliedRevision,omitempty"`
	Conditions          []Condition `json:"conditions,omitempty"`
}

// HelmChart describes the chart a HelmRelease installs.
type HelmChart struct {
	Chart       string   `json:"chart,omitempty"`
	Version     string   `json:"version,omitempty"`
	ValuesFiles []string `json:"valuesFiles,omitempty"`
}

// Source is the Git or Helm repository an application is fetched from.
type Source struct {
	Name       string      `json:"name,omitempty"`
	URL        string      `json:"url,omitempty"`
	Type       SourceType  `json:"type,omitempty"`
	Namespace  string      `json:"namespace,omitempty"`
	Interval   string      `json:"interval,omitempty"`
	Reference  string      `json:"reference,omitempty"`
	Suspend    bool        `json:"suspend,omitempty"`
	Timeout    string      `json:"timeout,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Commit is a single commit of an application's repository.
type Commit struct {
	Hash    string `json:"hash,omitempty"`
	Date    string `json:"date,omitempty"`
	Author  string `json:"author,omitempty"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// GroupVersionKind identifies a Kubernetes object type.
type GroupVersionKind struct {
	Group   string `json:"group,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Version string `json:"version,omitempty"`
}

// Schema converts g to the apimachinery representation.
func (g GroupVersionKind) Schema() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: g.Group, Version: g.Version, Kind: g.Kind}
}

func (g GroupVersionKind) String() string {
	return g.Schema().String()
}

// GVKFromSchema converts an apimachinery GroupVersionKind.
func GVKFromSchema(gvk schema.GroupVersionKind) GroupVersionKind {
	return GroupVersionKind{Group: gvk.Group, Version: gvk.Version, Kind: gvk.Kind}
}

// UnstructuredObject is a cluster object reduced to its identity and status.
type UnstructuredObject struct {
	GroupVersionKind *GroupVersionKind `json:"groupVersionKind,omitempty"`
	Name             string            `json:"name,omitempty"`
	Namespace        string            `json:"namespace,omitempty"`
	UID              string            `json:"uid,omitempty"`
	Status           string            `json:"status,omitempty"`
}

// Key returns the namespaced name of the object.
func (o *UnstructuredObject) Key() types.NamespacedName {
	return types.NamespacedName{Namespace: o.Namespace, Name: o.Name}
}

// Kind returns the object's kind, or "" when the server omitted it.
func (o *UnstructuredObject) Kind() string {
	if o.GroupVersionKind == nil {
		return ""
	}
	return o.GroupVersionKind.Kind
}
