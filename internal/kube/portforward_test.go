package kube

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func TestForwardStopExactlyOnce(t *testing.T) {
	fwd := &Forward{stopCh: make(chan struct{})}
	if !fwd.Alive() {
		t.Fatal("fresh forward should report alive")
	}
	fwd.Stop()
	if fwd.Alive() {
		t.Fatal("stopped forward still reports alive")
	}
	select {
	case <-fwd.stopCh:
	default:
		t.Fatal("stop channel not closed")
	}
	// A second Stop must not panic on the already-closed channel.
	fwd.Stop()
	if fwd.Alive() {
		t.Fatal("forward came back alive after repeated Stop")
	}
}

func TestResolveTargetPort(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "unityexpress-api-0"},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name: "api",
				Ports: []corev1.ContainerPort{
					{Name: "http", ContainerPort: 8080},
					{Name: "metrics", ContainerPort: 9102},
				},
			}},
		},
	}
	tests := []struct {
		name    string
		port    corev1.ServicePort
		want    int
		wantErr bool
	}{
		{
			"numeric target port",
			corev1.ServicePort{Port: 80, TargetPort: intstr.FromInt32(8080)},
			8080, false,
		},
		{
			"named target port resolves to container port",
			corev1.ServicePort{Port: 80, TargetPort: intstr.FromString("http")},
			8080, false,
		},
		{
			"named metrics port",
			corev1.ServicePort{Port: 9100, TargetPort: intstr.FromString("metrics")},
			9102, false,
		},
		{
			"unset target port defaults to service port",
			corev1.ServicePort{Port: 8080},
			8080, false,
		},
		{
			"unknown named port errors",
			corev1.ServicePort{Port: 80, TargetPort: intstr.FromString("grpc")},
			0, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTargetPort(tt.port, pod)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveTargetPort error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("resolveTargetPort = %d, want %d", got, tt.want)
			}
		})
	}
}
