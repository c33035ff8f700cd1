// cluster.go holds the cluster-facing checks: connectivity, namespace
// existence, and pod health. All of them use the typed client-go API rather
// than scraping kubectl output.
package checkup

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Connectivity verifies the API server answers a version request.
type Connectivity struct {
	Client kubernetes.Interface
}

func (c Connectivity) Name() string { return "Cluster connectivity" }

func (c Connectivity) Run(_ context.Context) Result {
	version, err := c.Client.Discovery().ServerVersion()
	if err != nil {
		return Fail("cluster unreachable: %v", err)
	}
	return Pass("connected to Kubernetes %s", version.GitVersion)
}

// NamespaceExists verifies the deployment namespace is present and active.
type NamespaceExists struct {
	Client    kubernetes.Interface
	Namespace string
}

func (n NamespaceExists) Name() string {
	return fmt.Sprintf("Namespace %s", n.Namespace)
}

func (n NamespaceExists) Run(ctx context.Context) Result {
	ns, err := n.Client.CoreV1().Namespaces().Get(ctx, n.Namespace, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return Fail("namespace %s does not exist", n.Namespace)
	}
	if err != nil {
		return Fail("get namespace %s: %v", n.Namespace, err)
	}
	if ns.Status.Phase == corev1.NamespaceTerminating {
		return Fail("namespace %s is terminating", n.Namespace)
	}
	return Pass("namespace %s is %s", n.Namespace, ns.Status.Phase)
}

// badWaitingReasons and badTerminatedReasons are the container states the
// pod check treats as unhealthy.
var badWaitingReasons = map[string]bool{
	"CrashLoopBackOff":           true,
	"ImagePullBackOff":           true,
	"ErrImagePull":               true,
	"CreateContainerConfigError": true,
	"CreateContainerError":       true,
	"InvalidImageName":           true,
}

var badTerminatedReasons = map[string]bool{
	"Error":     true,
	"OOMKilled": true,
}

// PodsHealthy lists every pod in the namespace and fails when any pod is
// stuck in a known-bad state. No pods at all is also a failure: the chart
// should have produced workloads.
type PodsHealthy struct {
	Client    kubernetes.Interface
	Namespace string
}

func (p PodsHealthy) Name() string { return "Pod health" }

func (p PodsHealthy) Run(ctx context.Context) Result {
	pods, err := p.Client.CoreV1().Pods(p.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return Fail("list pods in %s: %v", p.Namespace, err)
	}
	if len(pods.Items) == 0 {
		return Fail("no pods found in namespace %s", p.Namespace)
	}
	var unhealthy []string
	for _, pod := range pods.Items {
		if state := podProblem(&pod); state != "" {
			unhealthy = append(unhealthy, fmt.Sprintf("%s is %s", pod.Name, state))
		}
	}
	if len(unhealthy) > 0 {
		return Fail("%d of %d pods unhealthy", len(unhealthy), len(pods.Items)).WithDetails(unhealthy...)
	}
	return Pass("all %d pods running", len(pods.Items))
}

// podProblem returns a description of the pod's bad state, or "" when the
// pod looks healthy.
func podProblem(pod *corev1.Pod) string {
	if pod.DeletionTimestamp != nil {
		return "Terminating"
	}
	if pod.Status.Reason == "Evicted" {
		return "Evicted"
	}
	switch pod.Status.Phase {
	case corev1.PodFailed:
		return "Failed"
	case corev1.PodPending:
		// A pending pod with a bad container reason gets the specific
		// reason below; otherwise report the phase itself.
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.State.Waiting != nil && badWaitingReasons[cs.State.Waiting.Reason] {
				return cs.State.Waiting.Reason
			}
		}
		return "Pending"
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && badWaitingReasons[cs.State.Waiting.Reason] {
			return cs.State.Waiting.Reason
		}
		if cs.State.Terminated != nil && badTerminatedReasons[cs.State.Terminated.Reason] {
			return cs.State.Terminated.Reason
		}
	}
	return ""
}
