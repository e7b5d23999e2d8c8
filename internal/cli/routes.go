package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ia-eknorr/gitops-apps/internal/route"
)

type routeView struct {
	Method string   `json:"method"`
	Verb   string   `json:"verb"`
	Path   string   `json:"path"`
	Body   bool     `json:"body"`
	Params []string `json:"params,omitempty"`
}

func newRoutesCommand(a *app) *cobra.Command {
	var (
		openapi bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show how API methods map to HTTP requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if openapi {
				return writeOpenAPI(a.opts.Out, format)
			}

			var views []routeView
			for _, rt := range route.All() {
				views = append(views, routeView{Method: rt.Method, Verb: rt.Verb, Path: rt.Path, Body: rt.Body, Params: rt.PathParams()})
			}
			return a.render(views, func(w io.Writer) {
				row(w, "METHOD", "VERB", "PATH", "BODY")
				for _, v := range views {
					body := "query"
					if v.Body {
						body = "json"
					}
					row(w, v.Method, v.Verb, v.Path, body)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&openapi, "openapi", false, "print an OpenAPI 3 document of the routes")
	cmd.Flags().StringVar(&format, "format", "yaml", "OpenAPI document format: json or yaml")
	return cmd
}

func writeOpenAPI(w io.Writer, format string) error {
	data, err := json.MarshalIndent(route.OpenAPI("Applications API", Version), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding OpenAPI document: %w", err)
	}

	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decoding OpenAPI document: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding OpenAPI document: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", format)
	}
}
