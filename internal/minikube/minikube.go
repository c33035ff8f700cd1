// Package minikube wraps the minikube CLI for the handful of operations
// the deploy pipeline needs: status, the docker-env handshake, and
// NodePort service URLs. Structured output modes are used wherever
// minikube offers them.
package minikube

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a minikube invocation and returns its combined output.
// Swappable so the wrapper is testable without a minikube binary.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "minikube", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("minikube %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Client talks to a local minikube installation.
type Client struct {
	Profile string
	run     Runner
}

// New returns a client for the given profile. An empty profile uses
// minikube's default.
func New(profile string) *Client {
	return &Client{Profile: profile, run: defaultRunner}
}

// NewWithRunner is used by tests to substitute the command execution.
func NewWithRunner(profile string, run Runner) *Client {
	return &Client{Profile: profile, run: run}
}

func (c *Client) args(base ...string) []string {
	if c.Profile != "" {
		base = append(base, "--profile", c.Profile)
	}
	return base
}

// Status mirrors the fields of minikube's JSON status output.
type Status struct {
	Name       string `json:"Name"`
	Host       string `json:"Host"`
	Kubelet    string `json:"Kubelet"`
	APIServer  string `json:"APIServer"`
	Kubeconfig string `json:"Kubeconfig"`
}

// Running reports whether the cluster is fully up.
func (s Status) Running() bool {
	return s.Host == "Running" && s.Kubelet == "Running" && s.APIServer == "Running"
}

// Status queries the cluster state. A non-running cluster is not an
// error; callers inspect the returned Status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	out, err := c.run(ctx, c.args("status", "--output", "json")...)
	var status Status
	// minikube exits non-zero for stopped clusters but still emits JSON.
	if jsonErr := json.Unmarshal(firstJSONObject(out), &status); jsonErr != nil {
		if err != nil {
			return Status{}, err
		}
		return Status{}, fmt.Errorf("parse minikube status: %w", jsonErr)
	}
	return status, nil
}

// firstJSONObject trims log noise minikube sometimes prints around the
// status document.
func firstJSONObject(out []byte) []byte {
	s := string(out)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return out
	}
	return []byte(s[start : end+1])
}

// DockerEnv returns the environment variables that point a docker CLI at
// the daemon inside the minikube VM, parsed from the shell export lines.
func (c *Client) DockerEnv(ctx context.Context) (map[string]string, error) {
	out, err := c.run(ctx, c.args("docker-env", "--shell", "bash")...)
	if err != nil {
		return nil, err
	}
	env, err := ParseDockerEnv(string(out))
	if err != nil {
		return nil, err
	}
	if len(env) == 0 {
		return nil, fmt.Errorf("minikube docker-env produced no variables")
	}
	return env, nil
}

// ParseDockerEnv extracts KEY=VALUE pairs from `export KEY="VALUE"`
// lines, ignoring comments and the eval hint minikube appends.
func ParseDockerEnv(output string) (map[string]string, error) {
	env := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rest, ok := strings.CutPrefix(line, "export ")
		if !ok {
			continue
		}
		key, value, ok := strings.Cut(rest, "=")
		if !ok {
			return nil, fmt.Errorf("malformed docker-env line %q", line)
		}
		env[key] = strings.Trim(value, `"`)
	}
	return env, nil
}

// ServiceURL resolves the externally reachable URL of a NodePort service.
func (c *Client) ServiceURL(ctx context.Context, namespace, service string) (string, error) {
	out, err := c.run(ctx, c.args("service", service, "--namespace", namespace, "--url")...)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	return "", fmt.Errorf("no URL reported for service %s/%s", namespace, service)
}

// Available reports whether a minikube binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("minikube")
	return err == nil
}
