// watermark.go reads back the build watermark the chart stamps onto pods,
// so a verify run can tell which build of the stack is actually serving.
package checkup

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// WatermarkPresent checks the pods in the namespace for the watermark
// annotation. A missing or mismatched watermark is a warning, not a
// failure: the stack may have been deployed by an older chart.
type WatermarkPresent struct {
	Client    kubernetes.Interface
	Namespace string
	Key       string
	Expected  string
}

func (w WatermarkPresent) Name() string { return "Build watermark" }

func (w WatermarkPresent) Run(ctx context.Context) Result {
	pods, err := w.Client.CoreV1().Pods(w.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return Warn("list pods in %s: %v", w.Namespace, err)
	}
	if len(pods.Items) == 0 {
		return Warn("no pods in %s to read the watermark from", w.Namespace)
	}

	var matched, missing, mismatched []string
	for _, pod := range pods.Items {
		value, ok := pod.Annotations[w.Key]
		switch {
		case !ok || value == "":
			missing = append(missing, pod.Name)
		case w.Expected != "" && value != w.Expected:
			mismatched = append(mismatched, fmt.Sprintf("%s: %s", pod.Name, value))
		default:
			matched = append(matched, pod.Name)
		}
	}
	if len(mismatched) > 0 {
		return Warn("watermark mismatch on %d pod(s) (expected %s)", len(mismatched), w.Expected).
			WithDetails(mismatched...)
	}
	if len(matched) == 0 {
		return Warn("no pod carries the %s annotation", w.Key).WithDetails(missing...)
	}
	if len(missing) > 0 {
		return Warn("%d of %d pod(s) missing the %s annotation", len(missing), len(pods.Items), w.Key).
			WithDetails(missing...)
	}
	return Pass("watermark %s present on %d pod(s)", w.Expected, len(matched))
}
