package deploy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/storage/driver"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestIsNoDeployedReleaseErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"release not found", driver.ErrReleaseNotFound, true},
		{"wrapped release not found", fmt.Errorf("upgrade: %w", driver.ErrReleaseNotFound), true},
		{"no deployed releases text", errors.New(`"unityexpress" has no deployed releases`), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNoDeployedReleaseErr(tt.err); got != tt.want {
				t.Fatalf("isNoDeployedReleaseErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestEnsureInstallable(t *testing.T) {
	app := &chart.Chart{Metadata: &chart.Metadata{Name: "unityexpress", Type: "application"}}
	if err := ensureInstallable(app); err != nil {
		t.Fatalf("application chart: %v", err)
	}
	untyped := &chart.Chart{Metadata: &chart.Metadata{Name: "unityexpress"}}
	if err := ensureInstallable(untyped); err != nil {
		t.Fatalf("untyped chart: %v", err)
	}
	lib := &chart.Chart{Metadata: &chart.Metadata{Name: "helpers", Type: "library"}}
	if err := ensureInstallable(lib); err == nil {
		t.Fatal("library chart should not be installable")
	}
}

func TestEnsureNamespaceCreatesWhenMissing(t *testing.T) {
	client := fake.NewSimpleClientset()
	if err := EnsureNamespace(context.Background(), client, "unityexpress"); err != nil {
		t.Fatalf("EnsureNamespace: %v", err)
	}
	if _, err := client.CoreV1().Namespaces().Get(context.Background(), "unityexpress", metav1.GetOptions{}); err != nil {
		t.Fatalf("namespace not created: %v", err)
	}
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "unityexpress"}})
	if err := EnsureNamespace(context.Background(), client, "unityexpress"); err != nil {
		t.Fatalf("EnsureNamespace on existing namespace: %v", err)
	}
}

func TestDeleteNamespaceAbsentIsNoError(t *testing.T) {
	client := fake.NewSimpleClientset()
	if err := DeleteNamespace(context.Background(), client, "unityexpress"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
}
