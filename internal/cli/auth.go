package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/client"
	"github.com/ia-eknorr/gitops-apps/internal/config"
)

var tokenStatusColors = map[string]*color.Color{
	"valid":   color.New(color.FgGreen),
	"expired": color.New(color.FgRed),
}

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the Applications API",
	}
	cmd.AddCommand(newAuthGithubCommand(a), newAuthStatusCommand(a))
	return cmd
}

func newAuthGithubCommand(a *app) *cobra.Command {
	var (
		interval   time.Duration
		noSave     bool
		printToken bool
	)
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Sign in with the GitHub device flow",
		Long: `Sign in with the GitHub device flow.

A user code is printed together with the page to enter it on. Once the
code is accepted, the GitHub token is exchanged for a session token which
is saved to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow := &client.DeviceFlow{Client: a.client, DefaultInterval: interval}
			token, err := flow.Run(cmd.Context(), func(code *appsv1.GetGithubDeviceCodeResponse) {
				_, _ = fmt.Fprintf(a.opts.ErrOut, "Enter the code %s at %s\n",
					color.New(color.Bold).Sprint(code.UserCode), code.ValidationURI)
			})
			if err != nil {
				return err
			}

			if claims, err := client.ParseToken(token); err == nil && claims.ExpiresAt != nil {
				_, _ = fmt.Fprintf(a.opts.ErrOut, "Session expires at %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
			}
			if printToken {
				_, _ = fmt.Fprintln(a.opts.Out, token)
			}
			if noSave {
				return nil
			}
			if err := config.SaveToken(a.cfg.File, token); err != nil {
				if errors.Is(err, config.ErrNoConfigFile) {
					return fmt.Errorf("saving token: %w; pass --config, or --no-save --print to print it", err)
				}
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(a.opts.ErrOut, "Signed in, token saved to %s\n", a.cfg.File)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "polling interval when the server suggests none")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the token to the config file")
	cmd.Flags().BoolVar(&printToken, "print", false, "print the session token")
	return cmd
}

func newAuthStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Token == "" {
				return errors.New("not signed in, run \"gitops-apps auth github\"")
			}
			claims, err := client.ParseToken(a.cfg.Token)
			if err != nil {
				return err
			}
			status := "valid"
			if claims.Expired(time.Now()) {
				status = "expired"
			}
			expires := "never"
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time.Format(time.RFC3339)
			}
			return a.render(map[string]string{"status": status, "expires": expires, "server": a.cfg.Server}, func(w io.Writer) {
				row(w, "Server:", a.cfg.Server)
				row(w, "Token:", tokenStatusColors[status].Sprint(status))
				row(w, "Expires:", expires)
			})
		},
	}
}
