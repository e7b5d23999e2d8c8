package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ia-eknorr/gitops-apps/internal/form"
	"github.com/ia-eknorr/gitops-apps/internal/git"
)

// addFlagFields maps "apps add" flags onto form fields.
var addFlagFields = map[string]form.FieldID{
	"name":       form.FieldName,
	"url":        form.FieldURL,
	"path":       form.FieldPath,
	"auto-merge": form.FieldAutoMerge,
}

// editFromFlags applies the form flags set on the command line to c.
func editFromFlags(c *form.Controller, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if field, ok := addFlagFields[f.Name]; ok && err == nil {
			err = c.Edit(field, f.Value.String())
		}
	})
	return err
}

func newAddCommand(a *app) *cobra.Command {
	var (
		noPrompt  bool
		verifyRef string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an application",
		Long: `Add an application through the add-application form.

Each field is prompted for, with flag values or the form defaults offered
as the current value. The namespace comes from --namespace, the kubeconfig
context or the default namespace. With --no-prompt the form is submitted as is.
On success the detail route of the new application is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := form.NewController(a.client, form.NavigatorFunc(func(target string) {
				_, _ = fmt.Fprintf(a.opts.Out, "Application detail: %s\n", target)
			}))
			if err := c.Edit(form.FieldNamespace, a.cfg.Namespace); err != nil {
				return err
			}
			if err := editFromFlags(c, cmd.Flags()); err != nil {
				return err
			}

			driver := a.opts.Prompt
			switch {
			case noPrompt:
				driver = &form.DefaultsDriver{Out: a.opts.Out}
			case driver == nil:
				driver = form.NewSurveyDriver(a.opts.Out)
			}

			checks := []form.Check{a.warnRepoURL}
			if verifyRef != "" {
				checks = append(checks, a.verifyRemote(verifyRef))
			}

			err := form.Run(cmd.Context(), driver, c, checks...)
			if err != nil && c.State() == form.StateFailed {
				return &reportedError{err: err}
			}
			return err
		},
	}
	cmd.Flags().String("name", "", "application name")
	cmd.Flags().String("url", "", "repository URL")
	cmd.Flags().String("path", "", "path of the manifests in the repository")
	cmd.Flags().Bool("auto-merge", false, "merge the automation pull request automatically")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "submit without prompting")
	cmd.Flags().StringVar(&verifyRef, "verify-ref", "", "check that the repository advertises this ref (e.g. HEAD or main) before submitting")
	return cmd
}

// warnRepoURL prints a warning for a repository URL that does not parse.
// It never blocks submission.
func (a *app) warnRepoURL(_ context.Context, d form.Draft) error {
	if _, err := git.NormalizeRepoURL(d.URL); err != nil {
		_, _ = color.New(color.FgYellow).Fprintf(a.opts.ErrOut, "Warning: %v\n", err)
	}
	return nil
}

func (a *app) verifyRemote(ref string) form.Check {
	return func(ctx context.Context, d form.Draft) error {
		auth, err := git.ResolveAuth(d.URL, a.cfg.Git)
		if err != nil {
			return fmt.Errorf("resolving repository credentials: %w", err)
		}
		res, err := a.opts.Resolver.LsRemote(ctx, d.URL, ref, auth)
		if err != nil {
			return fmt.Errorf("verifying repository: %w", err)
		}
		logf.FromContext(ctx).V(1).Info("repository verified", "url", d.URL, "ref", res.Ref, "commit", res.Commit)
		_, _ = fmt.Fprintf(a.opts.Out, "Repository %s at %s is %s\n", d.URL, res.Ref, shortHash(res.Commit))
		return nil
	}
}
