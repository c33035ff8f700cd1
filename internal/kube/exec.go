// exec.go runs commands inside pods for the in-cluster reachability probes.
package kube

import (
	"bytes"
	"context"
	"fmt"
	"io"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
)

// Exec streams the provided command inside the target pod.
func (c *Client) Exec(ctx context.Context, namespace, pod, container string, command []string, stdout, stderr io.Writer) error {
	if len(command) == 0 {
		return fmt.Errorf("command must not be empty")
	}
	if namespace == "" {
		namespace = c.Namespace
	}
	if namespace == "" {
		return fmt.Errorf("namespace must be specified")
	}
	if pod == "" {
		return fmt.Errorf("pod must be specified")
	}

	req := c.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(pod).
		SubResource("exec")

	req.VersionedParams(&corev1.PodExecOptions{
		Command:   command,
		Container: container,
		Stdout:    stdout != nil,
		Stderr:    stderr != nil,
		TTY:       false,
	}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.RESTConfig, "POST", req.URL())
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}
	if err := executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: stdout,
		Stderr: stderr,
	}); err != nil {
		return fmt.Errorf("exec command: %w", err)
	}
	return nil
}

// ExecCapture runs the command and returns its combined output.
func (c *Client) ExecCapture(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	var buf bytes.Buffer
	err := c.Exec(ctx, namespace, pod, container, command, &buf, &buf)
	return buf.String(), err
}

// FirstRunningPod returns the name of a running pod backing the deployment.
func (c *Client) FirstRunningPod(ctx context.Context, namespace, deployment string) (string, error) {
	deploy, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, deployment, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("get deployment %s: %w", deployment, err)
	}
	selector := metav1.FormatLabelSelector(deploy.Spec.Selector)
	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return "", fmt.Errorf("list pods for %s: %w", deployment, err)
	}
	for _, pod := range pods.Items {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name, nil
		}
	}
	return "", fmt.Errorf("no running pods for deployment %s", deployment)
}
