package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

const (
	// GithubProvider is the provider name used to authenticate GitHub tokens.
	GithubProvider = "github"

	authPending  = "authorization_pending"
	authSlowDown = "slow_down"

	// defaultSlowDownStep is how much slow_down adds to the polling interval.
	defaultSlowDownStep = 5 * time.Second
)

// ErrDeviceFlowDenied is returned when the provider ends the device flow with an error.
var ErrDeviceFlowDenied = errors.New("device flow denied")

// DeviceFlow runs the GitHub device code flow through the gateway:
// request a code, poll its status until the user completes login on another
// device, then exchange the provider token for a session token.
type DeviceFlow struct {
	Client *Client

	// DefaultInterval is used when the server reports no polling interval.
	DefaultInterval time.Duration

	// SlowDownStep is added to the interval on each slow_down response.
	// Zero means five seconds.
	SlowDownStep time.Duration
}

// Run performs the flow. prompt is called once with the user code and
// verification URI to show to the user.
func (f *DeviceFlow) Run(ctx context.Context, prompt func(*appsv1.GetGithubDeviceCodeResponse)) (string, error) {
	log := logf.FromContext(ctx).WithName("device-flow")

	code, err := f.Client.GetGithubDeviceCode(ctx, &appsv1.GetGithubDeviceCodeRequest{})
	if err != nil {
		return "", fmt.Errorf("requesting device code: %w", err)
	}
	if prompt != nil {
		prompt(code)
	}

	interval := time.Duration(code.Interval) * time.Second
	if interval <= 0 {
		interval = f.DefaultInterval
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		status, err := f.Client.GetGithubAuthStatus(ctx, &appsv1.GetGithubAuthStatusRequest{DeviceCode: code.DeviceCode})
		if err != nil {
			return "", fmt.Errorf("polling device code status: %w", err)
		}

		switch {
		case status.AccessToken != "":
			log.V(1).Info("device code authorized")
			res, err := f.Client.Authenticate(ctx, &appsv1.AuthenticateRequest{
				ProviderName: GithubProvider,
				AccessToken:  status.AccessToken,
			})
			if err != nil {
				return "", fmt.Errorf("authenticating with %s: %w", GithubProvider, err)
			}
			return res.Token, nil
		case status.Error == authPending || status.Error == "":
			log.V(1).Info("authorization pending")
		case status.Error == authSlowDown:
			step := f.SlowDownStep
			if step <= 0 {
				step = defaultSlowDownStep
			}
			interval += step
			log.V(1).Info("slowing down", "interval", interval)
		default:
			return "", fmt.Errorf("%w: %s", ErrDeviceFlowDenied, status.Error)
		}
	}
}
