// Package cli implements the gitops-apps command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ia-eknorr/gitops-apps/internal/client"
	"github.com/ia-eknorr/gitops-apps/internal/config"
	"github.com/ia-eknorr/gitops-apps/internal/form"
	"github.com/ia-eknorr/gitops-apps/internal/git"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// Options wires the command line to its environment.
type Options struct {
	Out    io.Writer
	ErrOut io.Writer

	// Prompt replaces the interactive terminal driver of "apps add".
	Prompt form.PromptDriver

	// Resolver replaces the go-git remote resolver used by --verify-ref.
	Resolver git.Resolver
}

// reportedError is an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

type app struct {
	opts Options

	configFile string
	cfg        *config.Config
	client     *client.Client
	metrics    *client.Metrics
}

// NewRootCommand builds the gitops-apps command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Resolver == nil {
		opts.Resolver = &git.GoGitResolver{}
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "gitops-apps",
		Short: "Inspect and add GitOps applications through the Applications API",
		Long: `gitops-apps talks to the Applications API gateway of a GitOps controller.

It lists applications, their commits and the objects their automation
reconciled, adds new applications and signs in with GitHub.

Configuration is read from flags, GITOPS_APPS_* environment variables and
$HOME/.gitops-apps.yaml, in that order of precedence.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is $HOME/.gitops-apps.yaml)")
	pf.String(config.KeyServer, config.DefaultServer, "Applications API base URL")
	pf.String(config.KeyToken, "", "session token sent as \"Authorization: token <token>\"")
	pf.StringP(config.KeyNamespace, "n", "", "namespace (default from the kubeconfig context, then "+config.DefaultNamespace+")")
	pf.String(config.KeyKubeconfig, "", "kubeconfig used to default the namespace")
	pf.String(config.KeyLogLevel, config.DefaultLogLevel, "log level: debug, info or error")
	pf.StringP(config.KeyOutput, "o", config.DefaultOutput, "output format: table or json")
	pf.String(config.KeyMetricsTextfile, "", "write client metrics in Prometheus text format to this file")
	pf.String(config.KeyGitSSHKeyFile, "", "SSH private key for --verify-ref on ssh repository URLs")
	pf.String(config.KeyGitKnownHostsFile, "", "known_hosts file for --verify-ref on ssh repository URLs")
	pf.String(config.KeyGitTokenFile, "", "access token file for --verify-ref on https repository URLs")

	root.AddCommand(
		newAppsCommand(a),
		newAuthCommand(a),
		newRoutesCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			_, _ = color.New(color.FgRed).Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		}
		if client.IsUnauthorized(err) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), `Sign in with "gitops-apps auth github" or pass --token.`)
		}
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(cfg.LogLevel, a.opts.ErrOut)
	cmd.SetContext(logf.IntoContext(ctx, log))

	if cfg.MetricsTextfile != "" {
		a.metrics = client.NewMetrics()
	}
	a.client = client.New(cfg.Server, client.WithToken(cfg.Token), client.WithMetrics(a.metrics))

	log.V(1).Info("configured", "server", cfg.Server, "namespace", cfg.Namespace, "config", cfg.File)
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.metrics == nil || a.cfg == nil || a.cfg.MetricsTextfile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(a.cfg.MetricsTextfile)
}

func newLogger(level string, w io.Writer) logr.Logger {
	opts := []zap.Opts{zap.WriteTo(w)}
	switch level {
	case "debug":
		opts = append(opts, zap.UseDevMode(true), zap.Level(zapcore.DebugLevel))
	case "error":
		opts = append(opts, zap.Level(zapcore.ErrorLevel))
	default:
		opts = append(opts, zap.Level(zapcore.InfoLevel))
	}
	return zap.New(opts...)
}
