package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("form: aborted")

	// ErrRequired is returned when required fields are left empty.
	ErrRequired = errors.New("form: required fields are empty")
)

// InputConfig configures a text input prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// PromptDriver abstracts the terminal so the form flow can be tested
// without one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Notify(ctx context.Context, b Banner) error
}

// Check inspects the filled draft before submission. An error aborts the run.
type Check func(ctx context.Context, d Draft) error

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a PromptDriver backed by interactive terminal
// prompts. Banners are written to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	var opts []survey.AskOpt
	if cfg.Validator != nil {
		validate := cfg.Validator
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Notify(ctx context.Context, b Banner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return RenderBanner(d.out, b)
}

// DefaultsDriver answers every prompt with its default, for non-interactive use.
type DefaultsDriver struct {
	Out io.Writer
}

func (d *DefaultsDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	return cfg.Default, ctx.Err()
}

func (d *DefaultsDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return cfg.Default, ctx.Err()
}

func (d *DefaultsDriver) Notify(ctx context.Context, b Banner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return RenderBanner(d.Out, b)
}

var bannerColors = map[Severity]*color.Color{
	SeveritySuccess: color.New(color.FgGreen, color.Bold),
	SeverityWarning: color.New(color.FgYellow),
	SeverityError:   color.New(color.FgRed, color.Bold),
}

// RenderBanner writes b as one line, coloured by severity when the terminal allows.
func RenderBanner(w io.Writer, b Banner) error {
	msg := b.Title
	if b.Message != "" {
		msg += " " + b.Message
	}
	c, ok := bannerColors[b.Severity]
	if !ok {
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	_, err := c.Fprintln(w, msg)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func requiredValue(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// Fill prompts for every field, offering the current draft value as the
// default, and applies each answer with Edit.
func Fill(ctx context.Context, d PromptDriver, c *Controller) error {
	for _, f := range Fields() {
		current := c.Draft().Value(f.ID)

		var value string
		switch f.Kind {
		case KindSwitch:
			on, err := d.Confirm(ctx, ConfirmConfig{Message: f.Label, Default: current == "true"})
			if err != nil {
				return err
			}
			value = strconv.FormatBool(on)
		default:
			cfg := InputConfig{Message: f.Label, Default: current}
			if f.Required {
				cfg.Validator = requiredValue(f.Label)
			}
			v, err := d.Input(ctx, cfg)
			if err != nil {
				return err
			}
			value = v
		}

		if err := c.Edit(f.ID, value); err != nil {
			return err
		}
	}
	return nil
}

// Run fills the draft, runs checks, submits it and reports the outcome
// through d. Required fields left empty block submission.
func Run(ctx context.Context, d PromptDriver, c *Controller, checks ...Check) error {
	if err := Fill(ctx, d, c); err != nil {
		return err
	}
	draft := c.Draft()
	if missing := draft.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrRequired, missing)
	}
	for _, check := range checks {
		if err := check(ctx, draft); err != nil {
			return err
		}
	}

	err := c.Submit(ctx)
	if b := c.Banner(); b != nil {
		if notifyErr := d.Notify(ctx, *b); notifyErr != nil && err == nil {
			err = notifyErr
		}
	}
	return err
}
