package main

import (
	"strings"
	"testing"
	"time"

	"github.com/unityexpress/uxctl/internal/appcfg"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "<1m"},
		{90 * time.Second, "1m"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
		{49 * time.Hour, "2d1h"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.d); got != tt.want {
			t.Fatalf("humanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestComponentDeployment(t *testing.T) {
	cfg := appcfg.Default()
	if got, err := componentDeployment(cfg, "api"); err != nil || got != cfg.APIService {
		t.Fatalf("api -> %q, %v", got, err)
	}
	if got, err := componentDeployment(cfg, "web"); err != nil || got != cfg.WebService {
		t.Fatalf("web -> %q, %v", got, err)
	}
	if _, err := componentDeployment(cfg, "db"); err == nil {
		t.Fatal("unknown component should error")
	}
}

func TestRenderPodTable(t *testing.T) {
	pods := []corev1.Pod{
		{
			ObjectMeta: metav1.ObjectMeta{
				Name:              "unityexpress-api-0",
				CreationTimestamp: metav1.Time{Time: time.Now().Add(-3 * time.Minute)},
			},
			Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "api"}}},
			Status: corev1.PodStatus{
				Phase:             corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{{Ready: true, RestartCount: 2}},
			},
		},
	}
	var sb strings.Builder
	renderPodTable(&sb, pods)
	out := sb.String()
	if !strings.Contains(out, "unityexpress-api-0") {
		t.Fatalf("pod name missing: %q", out)
	}
	if !strings.Contains(out, "1/1") || !strings.Contains(out, "Running") {
		t.Fatalf("ready/status missing: %q", out)
	}
}

func TestRenderPodTableEmpty(t *testing.T) {
	var sb strings.Builder
	renderPodTable(&sb, nil)
	if !strings.Contains(sb.String(), "(none)") {
		t.Fatalf("empty table should say (none): %q", sb.String())
	}
}
