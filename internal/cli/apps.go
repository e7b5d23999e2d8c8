package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/client"
	"github.com/ia-eknorr/gitops-apps/internal/config"
	"github.com/ia-eknorr/gitops-apps/internal/git"
	"github.com/ia-eknorr/gitops-apps/internal/objects"
	"github.com/ia-eknorr/gitops-apps/pkg/conditions"
)

func newAppsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app", "applications"},
		Short:   "Inspect and add applications",
	}
	cmd.AddCommand(
		newListCommand(a),
		newGetCommand(a),
		newCommitsCommand(a),
		newObjectsCommand(a),
		newChildrenCommand(a),
		newAddCommand(a),
	)
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var allNamespaces bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &appsv1.ListApplicationsRequest{Namespace: a.cfg.Namespace}
			if allNamespaces {
				req.Namespace = ""
			}
			res, err := a.client.ListApplications(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("listing applications: %w", err)
			}
			return a.render(res, func(w io.Writer) {
				row(w, "NAME", "NAMESPACE", "TYPE", "READY", "STATUS", "URL", "PATH")
				for i := range res.Applications {
					application := &res.Applications[i]
					row(w, application.Name, application.Namespace, string(application.DeploymentType),
						string(conditions.ReadyStatus(application.DeploymentConditions)),
						statusCell(conditions.Status(application.DeploymentConditions)), application.URL, application.Path)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "list applications in every namespace")
	return cmd
}

func (a *app) getApplication(cmd *cobra.Command, name string) (*appsv1.Application, error) {
	res, err := a.client.GetApplication(cmd.Context(), &appsv1.GetApplicationRequest{Name: name, Namespace: a.cfg.Namespace})
	if client.IsNotFound(err) {
		return nil, fmt.Errorf("application %s not found in namespace %s: %w", name, a.cfg.Namespace, err)
	}
	if err != nil {
		return nil, fmt.Errorf("getting application %s: %w", name, err)
	}
	if res.Application == nil {
		return nil, fmt.Errorf("application %s: empty response", name)
	}
	return res.Application, nil
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show an application and its conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := a.getApplication(cmd, args[0])
			if err != nil {
				return err
			}
			return a.render(application, func(w io.Writer) {
				row(w, "Name:", application.Name)
				row(w, "Namespace:", application.Namespace)
				row(w, "URL:", application.URL)
				if u, err := git.NormalizeRepoURL(application.URL); err == nil {
					row(w, "Repository:", u.HTTPS())
					if p := u.Provider(); p != "" {
						row(w, "Provider:", p)
					}
				}
				row(w, "Path:", application.Path)
				row(w, "Type:", string(application.DeploymentType))
				row(w, "Automation:", application.AutomationName())
				row(w, "Ready:", string(conditions.ReadyStatus(application.DeploymentConditions)))
				row(w, "Status:", statusCell(conditions.Status(application.DeploymentConditions)))
				if application.Source != nil {
					row(w, "Source:", fmt.Sprintf("%s %s (%s)", application.Source.Type, application.Source.Name, application.Source.Reference))
				}
				if t := conditions.LastTransition(application.DeploymentConditions); !t.IsZero() {
					row(w, "Last transition:", t.Format(time.RFC3339))
				}
				if len(application.DeploymentConditions) > 0 {
					row(w)
					row(w, "TYPE", "STATUS", "REASON", "MESSAGE")
					for _, c := range application.DeploymentConditions {
						row(w, c.Type, c.Status, c.Reason, c.Message)
					}
				}
			})
		},
	}
}

func newCommitsCommand(a *app) *cobra.Command {
	var pageSize, pageToken int32
	cmd := &cobra.Command{
		Use:   "commits NAME",
		Short: "List the commits of an application's repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &appsv1.ListCommitsRequest{
				Name:      args[0],
				Namespace: a.cfg.Namespace,
				PageSize:  pageSize,
			}
			if cmd.Flags().Changed("page-token") {
				req.Page = appsv1.PageToken(pageToken)
			}
			res, err := a.client.ListCommits(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("listing commits of %s: %w", args[0], err)
			}
			err = a.render(res, func(w io.Writer) {
				row(w, "HASH", "DATE", "AUTHOR", "MESSAGE")
				for _, c := range res.Commits {
					row(w, shortHash(c.Hash), c.Date, c.Author, firstLine(c.Message))
				}
			})
			if err == nil && res.NextPageToken != 0 && a.cfg.Output != config.OutputJSON {
				_, _ = fmt.Fprintf(a.opts.ErrOut, "More commits: --page-token %d\n", res.NextPageToken)
			}
			return err
		},
	}
	cmd.Flags().Int32Var(&pageSize, "page-size", 10, "commits per page")
	cmd.Flags().Int32Var(&pageToken, "page-token", 0, "page token returned by a previous call")
	return cmd
}

func newObjectsCommand(a *app) *cobra.Command {
	var (
		kind           string
		gvks           []string
		match, exclude []string
	)
	cmd := &cobra.Command{
		Use:   "objects NAME",
		Short: "List the objects reconciled by an application's automation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bad, ok := objects.ValidatePatterns(append(match, exclude...)); !ok {
				return fmt.Errorf("invalid pattern %q", bad)
			}
			application, err := a.getApplication(cmd, args[0])
			if err != nil {
				return err
			}

			req := &appsv1.GetReconciledObjectsRequest{
				AutomationName:      application.AutomationName(),
				AutomationNamespace: automationNamespace(application),
				AutomationKind:      application.DeploymentType,
				Kinds:               application.ReconciledObjectKinds,
			}
			if kind != "" {
				req.AutomationKind = appsv1.AutomationKind(kind)
			}
			if !req.AutomationKind.Valid() {
				return fmt.Errorf("unknown automation kind %q: want %s or %s", req.AutomationKind, appsv1.AutomationKindKustomize, appsv1.AutomationKindHelm)
			}
			if len(gvks) > 0 {
				if req.Kinds, err = parseGVKs(gvks); err != nil {
					return err
				}
			}

			res, err := a.client.GetReconciledObjects(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("getting objects of %s: %w", args[0], err)
			}
			res.Objects = objects.Filter(res.Objects, objects.MergePatterns(match), objects.MergePatterns(exclude))
			return a.render(res, objectsTable(res.Objects))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "automation kind, Kustomize or Helm (default from the application)")
	cmd.Flags().StringSliceVar(&gvks, "gvk", nil, "object kinds to query as group/version/Kind (default from the application)")
	cmd.Flags().StringSliceVar(&match, "match", nil, "only show objects whose Kind/namespace/name matches a glob")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "hide objects whose Kind/namespace/name matches a glob")
	return cmd
}

func automationNamespace(application *appsv1.Application) string {
	switch {
	case application.DeploymentType == appsv1.AutomationKindHelm && application.HelmRelease != nil && application.HelmRelease.Namespace != "":
		return application.HelmRelease.Namespace
	case application.Kustomization != nil && application.Kustomization.Namespace != "":
		return application.Kustomization.Namespace
	}
	return application.Namespace
}

func newChildrenCommand(a *app) *cobra.Command {
	var (
		uid, gvk       string
		match, exclude []string
	)
	cmd := &cobra.Command{
		Use:   "children",
		Short: "List the child objects of a reconciled object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bad, ok := objects.ValidatePatterns(append(match, exclude...)); !ok {
				return fmt.Errorf("invalid pattern %q", bad)
			}
			childKind, err := parseGVK(gvk)
			if err != nil {
				return err
			}
			res, err := a.client.GetChildObjects(cmd.Context(), &appsv1.GetChildObjectsRequest{
				GroupVersionKind: &childKind,
				ParentUID:        uid,
			})
			if err != nil {
				return fmt.Errorf("getting children of %s: %w", uid, err)
			}
			res.Objects = objects.Filter(res.Objects, objects.MergePatterns(match), objects.MergePatterns(exclude))
			return a.render(res, objectsTable(res.Objects))
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "UID of the parent object")
	cmd.Flags().StringVar(&gvk, "gvk", "", "child kind as group/version/Kind, e.g. apps/v1/ReplicaSet")
	cmd.Flags().StringSliceVar(&match, "match", nil, "only show objects whose Kind/namespace/name matches a glob")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "hide objects whose Kind/namespace/name matches a glob")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("gvk")
	return cmd
}
