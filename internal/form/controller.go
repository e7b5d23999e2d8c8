package form

import (
	"context"
	"errors"
	"net/url"
	"sync"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/client"
)

// DetailRoute is the view an added application is shown in.
const DetailRoute = "/application_detail"

const (
	successTitle = "Application added successfully!"
	errorTitle   = "Error!"
)

var (
	// ErrSubmitInFlight is returned by Submit while an earlier submission is outstanding.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrAlreadySubmitted is returned by Submit after a successful submission.
	// The form has moved on to the detail view and its draft is spent.
	ErrAlreadySubmitted = errors.New("application already submitted")

	// ErrMissingApplicationName is returned when the server reports success
	// without naming the added application.
	ErrMissingApplicationName = errors.New("response does not name the added application")
)

// State is the submission state of the form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSubmitting:
		return "Submitting"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	}
	return "Unknown"
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Banner is the alert shown above the form.
type Banner struct {
	Severity Severity
	Title    string
	Message  string
}

// Adder registers applications. *client.Client satisfies it.
type Adder interface {
	AddApplication(ctx context.Context, req *appsv1.AddApplicationRequest) (*appsv1.AddApplicationResponse, error)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// DetailURL returns the detail view target for the named application.
func DetailURL(name string) string {
	return DetailRoute + "?" + url.Values{"name": {name}}.Encode()
}

// Controller owns the draft of one form session.
type Controller struct {
	adder Adder
	nav   Navigator

	mu     sync.Mutex
	draft  Draft
	state  State
	banner *Banner
}

// NewController opens a form session with the default draft.
func NewController(adder Adder, nav Navigator) *Controller {
	return &Controller{
		adder: adder,
		nav:   nav,
		draft: DefaultDraft(),
	}
}

func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Banner returns the current alert, or nil when none is shown.
func (c *Controller) Banner() *Banner {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.banner == nil {
		return nil
	}
	b := *c.banner
	return &b
}

// Edit replaces the draft with a copy differing in field.
func (c *Controller) Edit(field FieldID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.draft.With(field, value)
	if err != nil {
		return err
	}
	c.draft = next
	return nil
}

// Submit sends the draft as one AddApplication call. On success it navigates
// to the application's detail view; on failure it shows an error banner and
// keeps the draft for a retry.
func (c *Controller) Submit(ctx context.Context) error {
	log := logf.FromContext(ctx).WithName("add-application")

	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case StateSuccess:
		c.mu.Unlock()
		return ErrAlreadySubmitted
	}
	c.state = StateSubmitting
	c.banner = nil
	req := c.draft.Request()
	c.mu.Unlock()

	log.V(1).Info("submitting", "name", req.Name, "namespace", req.Namespace)
	res, err := c.adder.AddApplication(ctx, req)
	if err == nil && (res == nil || res.Application == nil || res.Application.Name == "") {
		err = ErrMissingApplicationName
	}

	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.banner = &Banner{Severity: SeverityError, Title: errorTitle, Message: client.Message(err)}
		c.mu.Unlock()
		log.V(1).Info("add application failed", "name", req.Name, "error", err.Error())
		return err
	}
	c.state = StateSuccess
	if res.Success {
		c.banner = &Banner{Severity: SeveritySuccess, Title: successTitle}
	}
	c.mu.Unlock()

	log.Info("application added", "name", res.Application.Name)
	if c.nav != nil {
		c.nav.Navigate(DetailURL(res.Application.Name))
	}
	return nil
}
