// execprobe.go checks in-cluster reachability of backing stores by running
// a command inside a pod and matching its output for a success token.
package checkup

import (
	"context"
	"strings"
)

// RemoteExecutor runs commands inside cluster workloads. kube.Client
// satisfies it; tests substitute a fake.
type RemoteExecutor interface {
	FirstRunningPod(ctx context.Context, namespace, deployment string) (string, error)
	ExecCapture(ctx context.Context, namespace, pod, container string, command []string) (string, error)
}

// ExecProbe execs Command inside a running pod of Deployment and passes
// when the combined output contains SuccessToken.
type ExecProbe struct {
	Label        string
	Executor     RemoteExecutor
	Namespace    string
	Deployment   string
	Command      []string
	SuccessToken string
}

func (e ExecProbe) Name() string { return e.Label }

func (e ExecProbe) Run(ctx context.Context) Result {
	pod, err := e.Executor.FirstRunningPod(ctx, e.Namespace, e.Deployment)
	if err != nil {
		return Warn("%s: no pod to probe from: %v", e.Label, err)
	}
	out, err := e.Executor.ExecCapture(ctx, e.Namespace, pod, "", e.Command)
	if err != nil {
		return Warn("%s: exec in %s failed: %v", e.Label, pod, err)
	}
	if !strings.Contains(out, e.SuccessToken) {
		return Warn("%s: unexpected response from %s", e.Label, pod).
			WithDetails(strings.TrimSpace(truncate(out, 200)))
	}
	return Pass("%s reachable from %s", e.Label, pod)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
