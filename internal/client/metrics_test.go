package client

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/apitest"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.observe(appsv1.MethodGetApplication, "200", 120*time.Millisecond)
	m.observe(appsv1.MethodGetApplication, "200", 80*time.Millisecond)
	m.observe(appsv1.MethodGetApplication, "404", 10*time.Millisecond)

	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(appsv1.MethodGetApplication, "200")); v != 2 {
		t.Errorf("expected requests_total{code=200}=2, got %f", v)
	}
	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(appsv1.MethodGetApplication, "404")); v != 1 {
		t.Errorf("expected requests_total{code=404}=1, got %f", v)
	}
	if count := testutil.CollectAndCount(m.RequestDuration); count != 1 {
		t.Errorf("expected 1 duration series, got %d", count)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observe(appsv1.MethodGetApplication, "200", time.Second)
}

func TestMetrics_RecordedByClient(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	m := NewMetrics()
	c := New(srv.URL, WithMetrics(m))

	_, _ = c.ListApplications(context.Background(), &appsv1.ListApplicationsRequest{})
	_, _ = c.GetApplication(context.Background(), &appsv1.GetApplicationRequest{Name: "nope"})

	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(appsv1.MethodListApplications, "200")); v != 1 {
		t.Errorf("expected ListApplications 200 count 1, got %f", v)
	}
	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(appsv1.MethodGetApplication, "404")); v != 1 {
		t.Errorf("expected GetApplication 404 count 1, got %f", v)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.observe(appsv1.MethodAddApplication, "200", time.Millisecond)

	path := filepath.Join(t.TempDir(), "gitops_apps.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `gitops_apps_client_requests_total{code="200",method="AddApplication"} 1`) {
		t.Fatalf("expected requests_total sample in textfile, got:\n%s", data)
	}
}
