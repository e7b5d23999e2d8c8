package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"k8s.io/apimachinery/pkg/runtime/schema"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/config"
	"github.com/ia-eknorr/gitops-apps/pkg/types"
)

var severityColors = map[types.Severity]*color.Color{
	types.SeverityOK:      color.New(color.FgGreen),
	types.SeverityPending: color.New(color.FgYellow),
	types.SeverityError:   color.New(color.FgRed),
	types.SeverityUnknown: color.New(color.FgHiBlack),
}

// render writes v as indented JSON or, for table output, through table.
func (a *app) render(v any, table func(w io.Writer)) error {
	if a.cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(a.opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(a.opts.Out, 0, 0, 3, ' ', 0)
	table(tw)
	return tw.Flush()
}

func row(w io.Writer, cols ...string) {
	_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func statusCell(status string) string {
	if status == "" {
		status = types.StatusUnknown
	}
	return severityColors[types.StatusSeverity(status)].Sprint(status)
}

func objectsTable(objs []appsv1.UnstructuredObject) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "KIND", "NAMESPACE", "NAME", "STATUS", "UID")
		for i := range objs {
			o := &objs[i]
			row(w, o.Kind(), o.Namespace, o.Name, statusCell(o.Status), o.UID)
		}
	}
}

// parseGVK parses "group/version/Kind", or "version/Kind" for the core group.
func parseGVK(s string) (appsv1.GroupVersionKind, error) {
	idx := strings.LastIndex(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return appsv1.GroupVersionKind{}, fmt.Errorf("invalid kind %q: want group/version/Kind or version/Kind", s)
	}
	gv, err := schema.ParseGroupVersion(s[:idx])
	if err != nil {
		return appsv1.GroupVersionKind{}, fmt.Errorf("invalid kind %q: %w", s, err)
	}
	return appsv1.GVKFromSchema(gv.WithKind(s[idx+1:])), nil
}

func parseGVKs(values []string) ([]appsv1.GroupVersionKind, error) {
	var out []appsv1.GroupVersionKind
	for _, v := range values {
		gvk, err := parseGVK(v)
		if err != nil {
			return nil, err
		}
		out = append(out, gvk)
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
