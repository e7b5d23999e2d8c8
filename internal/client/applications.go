package client

import (
	"context"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

func (c *Client) Authenticate(ctx context.Context, req *appsv1.AuthenticateRequest) (*appsv1.AuthenticateResponse, error) {
	return Do[appsv1.AuthenticateResponse](ctx, c, appsv1.MethodAuthenticate, req)
}

func (c *Client) ListApplications(ctx context.Context, req *appsv1.ListApplicationsRequest) (*appsv1.ListApplicationsResponse, error) {
	return Do[appsv1.ListApplicationsResponse](ctx, c, appsv1.MethodListApplications, req)
}

func (c *Client) GetApplication(ctx context.Context, req *appsv1.GetApplicationRequest) (*appsv1.GetApplicationResponse, error) {
	return Do[appsv1.GetApplicationResponse](ctx, c, appsv1.MethodGetApplication, req)
}

func (c *Client) ListCommits(ctx context.Context, req *appsv1.ListCommitsRequest) (*appsv1.ListCommitsResponse, error) {
	return Do[appsv1.ListCommitsResponse](ctx, c, appsv1.MethodListCommits, req)
}

func (c *Client) GetReconciledObjects(ctx context.Context, req *appsv1.GetReconciledObjectsRequest) (*appsv1.GetReconciledObjectsResponse, error) {
	return Do[appsv1.GetReconciledObjectsResponse](ctx, c, appsv1.MethodGetReconciledObjects, req)
}

func (c *Client) GetChildObjects(ctx context.Context, req *appsv1.GetChildObjectsRequest) (*appsv1.GetChildObjectsResponse, error) {
	return Do[appsv1.GetChildObjectsResponse](ctx, c, appsv1.MethodGetChildObjects, req)
}

func (c *Client) GetGithubDeviceCode(ctx context.Context, req *appsv1.GetGithubDeviceCodeRequest) (*appsv1.GetGithubDeviceCodeResponse, error) {
	return Do[appsv1.GetGithubDeviceCodeResponse](ctx, c, appsv1.MethodGetGithubDeviceCode, req)
}

func (c *Client) GetGithubAuthStatus(ctx context.Context, req *appsv1.GetGithubAuthStatusRequest) (*appsv1.GetGithubAuthStatusResponse, error) {
	return Do[appsv1.GetGithubAuthStatusResponse](ctx, c, appsv1.MethodGetGithubAuthStatus, req)
}

// AddApplication registers a new application with the controller.
func (c *Client) AddApplication(ctx context.Context, req *appsv1.AddApplicationRequest) (*appsv1.AddApplicationResponse, error) {
	return Do[appsv1.AddApplicationResponse](ctx, c, appsv1.MethodAddApplication, req)
}
