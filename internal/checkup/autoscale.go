// autoscale.go covers the optional autoscaling surface: HPAs, the metrics
// API they depend on, and KEDA ScaledObjects. Absence is a warning rather
// than a failure since autoscaling may be intentionally disabled.
package checkup

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// HPAPresent warns when the namespace carries no HorizontalPodAutoscaler.
type HPAPresent struct {
	Client    kubernetes.Interface
	Namespace string
}

func (h HPAPresent) Name() string { return "Horizontal pod autoscaler" }

func (h HPAPresent) Run(ctx context.Context) Result {
	hpas, err := h.Client.AutoscalingV2().HorizontalPodAutoscalers(h.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return Warn("list HPAs in %s: %v", h.Namespace, err)
	}
	if len(hpas.Items) == 0 {
		return Warn("no HPA in namespace %s (autoscaling may be intentionally disabled)", h.Namespace)
	}
	var names []string
	for _, hpa := range hpas.Items {
		names = append(names, fmt.Sprintf("%s (%d-%d replicas)", hpa.Name, orOne(hpa.Spec.MinReplicas), hpa.Spec.MaxReplicas))
	}
	return Pass("%d HPA(s) configured", len(hpas.Items)).WithDetails(names...)
}

func orOne(v *int32) int32 {
	if v == nil {
		return 1
	}
	return *v
}

// MetricsAvailable warns when the metrics API serves no node metrics,
// which starves CPU-based autoscaling.
type MetricsAvailable struct {
	Metrics metricsclient.Interface
}

func (m MetricsAvailable) Name() string { return "Metrics API" }

func (m MetricsAvailable) Run(ctx context.Context) Result {
	nodes, err := m.Metrics.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return Warn("metrics API unavailable: %v (is metrics-server running?)", err)
	}
	if len(nodes.Items) == 0 {
		return Warn("metrics API returned no node metrics yet")
	}
	return Pass("metrics available for %d node(s)", len(nodes.Items))
}

var scaledObjectGVR = schema.GroupVersionResource{
	Group:    "keda.sh",
	Version:  "v1alpha1",
	Resource: "scaledobjects",
}

// ScaledObjectPresent warns when KEDA is absent or the namespace carries no
// ScaledObject. Uses the dynamic client since ScaledObject is a CRD.
type ScaledObjectPresent struct {
	Dynamic   dynamic.Interface
	Namespace string
}

func (s ScaledObjectPresent) Name() string { return "KEDA ScaledObject" }

func (s ScaledObjectPresent) Run(ctx context.Context) Result {
	list, err := s.Dynamic.Resource(scaledObjectGVR).Namespace(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return Warn("KEDA not detected: %v", err)
	}
	if len(list.Items) == 0 {
		return Warn("no ScaledObject in %s (event-driven scaling not enabled)", s.Namespace)
	}
	var names []string
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}
	return Pass("ScaledObject present: %s", strings.Join(names, ", "))
}
