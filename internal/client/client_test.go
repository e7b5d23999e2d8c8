package client

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/apitest"
)

var _ = Describe("Applications client", func() {
	var (
		srv *apitest.Server
		c   *Client
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		srv = apitest.NewServer()
		c = New(srv.URL + "/")
		srv.AddApplication(appsv1.Application{
			Name:           "podinfo",
			Namespace:      "wego-system",
			URL:            "https://github.com/stefanprodan/podinfo",
			Path:           "kustomize",
			DeploymentType: appsv1.AutomationKindKustomize,
			Kustomization:  &appsv1.Kustomization{Name: "podinfo-kustomization"},
		})
	})

	AfterEach(func() {
		srv.Close()
	})

	Context("GET routes", func() {
		It("substitutes the name and sends the remaining fields as query", func() {
			res, err := c.GetApplication(ctx, &appsv1.GetApplicationRequest{Name: "podinfo", Namespace: "wego-system"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Application).NotTo(BeNil())
			Expect(res.Application.AutomationName()).To(Equal("podinfo-kustomization"))

			rec, ok := srv.LastRequest(appsv1.MethodGetApplication)
			Expect(ok).To(BeTrue())
			Expect(rec.Verb).To(Equal(http.MethodGet))
			Expect(rec.Path).To(Equal("/v1/applications/podinfo"))
			Expect(rec.Query.Get("namespace")).To(Equal("wego-system"))
			Expect(rec.Query.Has("name")).To(BeFalse())
			Expect(rec.Body).To(BeEmpty())
		})

		It("lists applications filtered by namespace", func() {
			srv.AddApplication(appsv1.Application{Name: "other", Namespace: "flux-system"})

			res, err := c.ListApplications(ctx, &appsv1.ListApplicationsRequest{Namespace: "wego-system"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Applications).To(HaveLen(1))
			Expect(res.Applications[0].Name).To(Equal("podinfo"))
		})

		It("pages commits with the page token", func() {
			srv.SetCommits("podinfo", []appsv1.Commit{
				{Hash: "c3"}, {Hash: "c2"}, {Hash: "c1"},
			})

			first, err := c.ListCommits(ctx, &appsv1.ListCommitsRequest{Name: "podinfo", Namespace: "wego-system", PageSize: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Commits).To(HaveLen(2))
			Expect(first.NextPageToken).To(Equal(int32(1)))

			rec, _ := srv.LastRequest(appsv1.MethodListCommits)
			Expect(rec.Query.Has("pageToken")).To(BeFalse())

			second, err := c.ListCommits(ctx, &appsv1.ListCommitsRequest{
				Name:      "podinfo",
				Namespace: "wego-system",
				PageSize:  2,
				Page:      appsv1.PageToken(first.NextPageToken),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Commits).To(ConsistOf(appsv1.Commit{Hash: "c1"}))
			Expect(second.NextPageToken).To(BeZero())

			rec, _ = srv.LastRequest(appsv1.MethodListCommits)
			Expect(rec.Query.Get("pageToken")).To(Equal("1"))
		})

		It("sends no body and no query for an empty request", func() {
			res, err := c.GetGithubDeviceCode(ctx, &appsv1.GetGithubDeviceCodeRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.UserCode).To(Equal(apitest.UserCode))

			rec, _ := srv.LastRequest(appsv1.MethodGetGithubDeviceCode)
			Expect(rec.Query).To(BeEmpty())
		})
	})

	Context("POST routes", func() {
		It("sends the whole request as the JSON body", func() {
			deployment := appsv1.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}
			srv.SetReconciledObjects("podinfo-kustomization", []appsv1.UnstructuredObject{
				{GroupVersionKind: &deployment, Name: "podinfo", Namespace: "default", UID: "uid-1"},
				{GroupVersionKind: &appsv1.GroupVersionKind{Version: "v1", Kind: "Service"}, Name: "podinfo"},
			})

			req := &appsv1.GetReconciledObjectsRequest{
				AutomationName:      "podinfo-kustomization",
				AutomationNamespace: "wego-system",
				AutomationKind:      appsv1.AutomationKindKustomize,
				Kinds:               []appsv1.GroupVersionKind{deployment},
			}
			res, err := c.GetReconciledObjects(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Objects).To(HaveLen(1))
			Expect(res.Objects[0].UID).To(Equal("uid-1"))

			rec, _ := srv.LastRequest(appsv1.MethodGetReconciledObjects)
			Expect(rec.Verb).To(Equal(http.MethodPost))
			Expect(rec.Path).To(Equal("/v1/applications/podinfo-kustomization/reconciled_objects"))
			Expect(rec.Header.Get("Content-Type")).To(Equal("application/json"))

			var sent appsv1.GetReconciledObjectsRequest
			Expect(json.Unmarshal(rec.Body, &sent)).To(Succeed())
			Expect(sent).To(Equal(*req))
		})

		It("adds an application with every field in the body", func() {
			res, err := c.AddApplication(ctx, &appsv1.AddApplicationRequest{
				Name:      "demo",
				Namespace: "ns1",
				URL:       "https://x/y.git",
				Path:      "k8s/overlay",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Application.Name).To(Equal("demo"))

			rec, _ := srv.LastRequest(appsv1.MethodAddApplication)
			Expect(rec.Path).To(Equal("/v1/applications"))
			Expect(string(rec.Body)).To(MatchJSON(`{"name":"demo","namespace":"ns1","url":"https://x/y.git","path":"k8s/overlay","autoMerge":false}`))
		})

		It("fetches child objects of a parent", func() {
			srv.SetChildObjects("uid-1", []appsv1.UnstructuredObject{
				{GroupVersionKind: &appsv1.GroupVersionKind{Group: "apps", Version: "v1", Kind: "ReplicaSet"}, Name: "podinfo-abc"},
			})

			res, err := c.GetChildObjects(ctx, &appsv1.GetChildObjectsRequest{
				GroupVersionKind: &appsv1.GroupVersionKind{Group: "apps", Version: "v1", Kind: "ReplicaSet"},
				ParentUID:        "uid-1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Objects).To(HaveLen(1))
			Expect(res.Objects[0].Kind()).To(Equal("ReplicaSet"))

			rec, _ := srv.LastRequest(appsv1.MethodGetChildObjects)
			Expect(rec.Path).To(Equal("/v1/applications/child_objects"))
		})
	})

	Context("errors", func() {
		It("returns an APIError carrying the server message", func() {
			_, err := c.GetApplication(ctx, &appsv1.GetApplicationRequest{Name: "missing", Namespace: "wego-system"})
			Expect(err).To(HaveOccurred())
			Expect(IsNotFound(err)).To(BeTrue())

			var apiErr *APIError
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			Expect(Message(err)).To(Equal(`application "missing" not found`))
		})

		It("surfaces injected failures", func() {
			srv.FailNext(appsv1.MethodAddApplication, http.StatusConflict, "conflict")

			_, err := c.AddApplication(ctx, &appsv1.AddApplicationRequest{Name: "demo"})
			Expect(StatusCode(err)).To(Equal(http.StatusConflict))
			Expect(Message(err)).To(Equal("conflict"))
		})

		It("rejects a missing path parameter before sending", func() {
			_, err := c.GetApplication(ctx, &appsv1.GetApplicationRequest{Namespace: "wego-system"})
			Expect(err).To(HaveOccurred())
			Expect(StatusCode(err)).To(BeZero())
			Expect(srv.Requests()).To(BeEmpty())
		})
	})

	Context("headers", func() {
		It("sends the session token and a request id", func() {
			srv.RequireToken = "jwt-1"

			_, err := c.ListApplications(ctx, &appsv1.ListApplicationsRequest{})
			Expect(IsUnauthorized(err)).To(BeTrue())

			authed := New(srv.URL, WithToken(" jwt-1 \n"))
			_, err = authed.ListApplications(ctx, &appsv1.ListApplicationsRequest{})
			Expect(err).NotTo(HaveOccurred())

			rec, _ := srv.LastRequest(appsv1.MethodListApplications)
			Expect(rec.Header.Get("Authorization")).To(Equal("token jwt-1"))
			Expect(rec.Header.Get("X-Request-Id")).NotTo(BeEmpty())
		})
	})
})
