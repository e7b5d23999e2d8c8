// Package form implements the add-application form: a single draft record,
// its input controls, and the submit flow that registers the application and
// navigates to its detail view.
package form

import (
	"fmt"
	"strconv"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

// FieldID names a draft field. Values match the request's JSON field names.
type FieldID string

const (
	FieldName      FieldID = "name"
	FieldNamespace FieldID = "namespace"
	FieldURL       FieldID = "url"
	FieldPath      FieldID = "path"
	FieldAutoMerge FieldID = "autoMerge"
)

// FieldKind is the kind of input control rendered for a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindSwitch
)

// Field describes one input control of the form.
type Field struct {
	ID       FieldID
	Label    string
	Required bool
	Kind     FieldKind
}

var fields = []Field{
	{ID: FieldName, Label: "Name", Required: true, Kind: KindText},
	{ID: FieldNamespace, Label: "Kubernetes Namespace", Required: true, Kind: KindText},
	{ID: FieldURL, Label: "Repo URL", Required: true, Kind: KindText},
	{ID: FieldPath, Label: "path", Required: true, Kind: KindText},
	{ID: FieldAutoMerge, Label: "Auto Merge", Kind: KindSwitch},
}

// Fields returns the form's input controls in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Draft is the record being edited.
type Draft struct {
	Name      string
	Namespace string
	URL       string
	Path      string
	AutoMerge bool
}

// DefaultDraft returns the example values the form opens with.
func DefaultDraft() Draft {
	return Draft{
		Name:      "stringly",
		Namespace: "wego-system",
		URL:       "ssh://git@github.com/jpellizzari/stringly.git",
		Path:      "k8s/overlays/development",
		AutoMerge: false,
	}
}

// With returns a copy of d with field set to value. The switch field accepts
// any value strconv.ParseBool does.
func (d Draft) With(field FieldID, value string) (Draft, error) {
	switch field {
	case FieldName:
		d.Name = value
	case FieldNamespace:
		d.Namespace = value
	case FieldURL:
		d.URL = value
	case FieldPath:
		d.Path = value
	case FieldAutoMerge:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return d, fmt.Errorf("field %s: %w", field, err)
		}
		d.AutoMerge = b
	default:
		return d, fmt.Errorf("unknown field %q", field)
	}
	return d, nil
}

// Value returns the current value of field formatted for display.
func (d Draft) Value(field FieldID) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldNamespace:
		return d.Namespace
	case FieldURL:
		return d.URL
	case FieldPath:
		return d.Path
	case FieldAutoMerge:
		return strconv.FormatBool(d.AutoMerge)
	}
	return ""
}

// Missing returns the required fields that are empty.
func (d Draft) Missing() []FieldID {
	var out []FieldID
	for _, f := range fields {
		if f.Required && d.Value(f.ID) == "" {
			out = append(out, f.ID)
		}
	}
	return out
}

// Request packages the draft as an add-application request.
func (d Draft) Request() *appsv1.AddApplicationRequest {
	return &appsv1.AddApplicationRequest{
		Name:      d.Name,
		Namespace: d.Namespace,
		URL:       d.URL,
		Path:      d.Path,
		AutoMerge: d.AutoMerge,
	}
}
