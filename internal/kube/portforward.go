// portforward.go opens short-lived local forwards to service backing pods.
// A forward is a scoped resource: every caller must Stop() it on all exit
// paths, since a leaked forward keeps the local port bound and breaks later
// probes.
package kube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// resolveTargetPort maps a service port to the concrete container port on
// the backing pod. Named target ports are looked up on the pod's
// containers; an unset target port defaults to the service port itself.
func resolveTargetPort(port corev1.ServicePort, pod *corev1.Pod) (int, error) {
	if port.TargetPort.Type == intstr.String {
		name := port.TargetPort.StrVal
		for _, container := range pod.Spec.Containers {
			for _, cp := range container.Ports {
				if cp.Name == name {
					return int(cp.ContainerPort), nil
				}
			}
		}
		return 0, fmt.Errorf("named target port %q not found on pod %s", name, pod.Name)
	}
	if v := port.TargetPort.IntValue(); v != 0 {
		return v, nil
	}
	return int(port.Port), nil
}

// Forward is a running port-forward to a single pod. Stop releases it and is
// safe to call multiple times; only the first call has an effect.
type Forward struct {
	LocalPort  int
	RemotePort int
	Pod        string

	stopCh   chan struct{}
	errCh    chan error
	stopOnce sync.Once

	mu      sync.Mutex
	stopped bool
}

// Stop terminates the forwarding session exactly once.
func (f *Forward) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	})
}

// Alive reports whether the forward has not been stopped yet.
func (f *Forward) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.stopped
}

// ForwardService forwards localPort to the first running pod backing the
// named service. The remote port is the service's first target port.
func (c *Client) ForwardService(ctx context.Context, namespace, service string, localPort int) (*Forward, error) {
	svc, err := c.Clientset.CoreV1().Services(namespace).Get(ctx, service, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", service, err)
	}
	if len(svc.Spec.Ports) == 0 {
		return nil, fmt.Errorf("service %s has no ports", service)
	}

	selector := metav1.FormatLabelSelector(&metav1.LabelSelector{MatchLabels: svc.Spec.Selector})
	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("list pods for service %s: %w", service, err)
	}
	var backing *corev1.Pod
	for i := range pods.Items {
		if pods.Items[i].Status.Phase == corev1.PodRunning {
			backing = &pods.Items[i]
			break
		}
	}
	if backing == nil {
		return nil, fmt.Errorf("no running pods back service %s", service)
	}
	podName := backing.Name

	remotePort, err := resolveTargetPort(svc.Spec.Ports[0], backing)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", service, err)
	}

	transport, upgrader, err := spdy.RoundTripperFor(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("build spdy transport: %w", err)
	}
	req := c.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(podName).
		SubResource("portforward")
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, "POST", req.URL())

	fwd := &Forward{
		LocalPort:  localPort,
		RemotePort: remotePort,
		Pod:        podName,
		stopCh:     make(chan struct{}),
		errCh:      make(chan error, 1),
	}
	readyCh := make(chan struct{})
	pf, err := portforward.New(dialer, []string{fmt.Sprintf("%d:%d", localPort, remotePort)}, fwd.stopCh, readyCh, io.Discard, io.Discard)
	if err != nil {
		return nil, fmt.Errorf("create port forward: %w", err)
	}
	go func() {
		fwd.errCh <- pf.ForwardPorts()
	}()

	select {
	case <-readyCh:
		return fwd, nil
	case err := <-fwd.errCh:
		fwd.Stop()
		return nil, fmt.Errorf("port forward %s :%d: %w", service, localPort, err)
	case <-ctx.Done():
		fwd.Stop()
		return nil, ctx.Err()
	}
}
