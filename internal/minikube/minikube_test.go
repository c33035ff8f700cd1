package minikube

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func stubRunner(out string, err error, got *[]string) Runner {
	return func(_ context.Context, args ...string) ([]byte, error) {
		if got != nil {
			*got = append([]string(nil), args...)
		}
		return []byte(out), err
	}
}

func TestStatusRunning(t *testing.T) {
	out := `{"Name":"minikube","Host":"Running","Kubelet":"Running","APIServer":"Running","Kubeconfig":"Configured"}`
	client := NewWithRunner("", stubRunner(out, nil, nil))
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running() {
		t.Fatalf("expected running cluster, got %+v", status)
	}
}

func TestStatusStoppedClusterStillParses(t *testing.T) {
	// minikube exits non-zero for stopped clusters but emits JSON anyway.
	out := "* Profile \"minikube\" found\n" +
		`{"Name":"minikube","Host":"Stopped","Kubelet":"Stopped","APIServer":"Stopped","Kubeconfig":"Configured"}`
	client := NewWithRunner("", stubRunner(out, errors.New("exit status 7"), nil))
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running() {
		t.Fatal("stopped cluster reported as running")
	}
}

func TestStatusGarbageOutput(t *testing.T) {
	client := NewWithRunner("", stubRunner("not json at all", errors.New("exit status 1"), nil))
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("expected error for unparseable status")
	}
}

func TestParseDockerEnv(t *testing.T) {
	out := `export DOCKER_TLS_VERIFY="1"
export DOCKER_HOST="tcp://192.168.49.2:2376"
export DOCKER_CERT_PATH="/home/dev/.minikube/certs"
export MINIKUBE_ACTIVE_DOCKERD="minikube"
# To point your shell to minikube's docker-daemon, run:
# eval $(minikube -p minikube docker-env)
`
	env, err := ParseDockerEnv(out)
	if err != nil {
		t.Fatalf("ParseDockerEnv: %v", err)
	}
	if env["DOCKER_HOST"] != "tcp://192.168.49.2:2376" {
		t.Fatalf("DOCKER_HOST = %q", env["DOCKER_HOST"])
	}
	if env["DOCKER_TLS_VERIFY"] != "1" {
		t.Fatalf("DOCKER_TLS_VERIFY = %q", env["DOCKER_TLS_VERIFY"])
	}
	if len(env) != 4 {
		t.Fatalf("expected 4 variables, got %d: %v", len(env), env)
	}
}

func TestParseDockerEnvMalformed(t *testing.T) {
	if _, err := ParseDockerEnv("export BROKEN\n"); err == nil {
		t.Fatal("expected error for export line without =")
	}
}

func TestServiceURL(t *testing.T) {
	var got []string
	out := "* Starting tunnel...\nhttp://192.168.49.2:30080\n"
	client := NewWithRunner("demo", stubRunner(out, nil, &got))
	url, err := client.ServiceURL(context.Background(), "unityexpress", "unityexpress-api")
	if err != nil {
		t.Fatalf("ServiceURL: %v", err)
	}
	if url != "http://192.168.49.2:30080" {
		t.Fatalf("url = %q", url)
	}
	if strings.Join(got, " ") != "service unityexpress-api --namespace unityexpress --url --profile demo" {
		t.Fatalf("unexpected args: %v", got)
	}
}

func TestServiceURLNoURL(t *testing.T) {
	client := NewWithRunner("", stubRunner("nothing here\n", nil, nil))
	if _, err := client.ServiceURL(context.Background(), "unityexpress", "unityexpress-web"); err == nil {
		t.Fatal("expected error when no URL line present")
	}
}
