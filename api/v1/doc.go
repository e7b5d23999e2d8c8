// Package v1 contains the request and response records of the GitOps
// Applications API served under /v1 by the cluster-side controller.
package v1
