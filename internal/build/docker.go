// Package build drives docker image builds for the application images.
// The docker daemon is selected per invocation through an explicit
// environment rather than by mutating the process environment, so a
// build against the minikube daemon cannot leak into later commands.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Options describes one docker build.
type Options struct {
	// Dir is the build context directory. Must contain a Dockerfile
	// unless Dockerfile overrides the location.
	Dir        string
	Dockerfile string
	Tag        string
	NoCache    bool
	// Env holds daemon-selection variables (DOCKER_HOST and friends).
	// They are appended to the inherited environment for this command
	// only.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// Image runs docker build for the given options.
func Image(ctx context.Context, opts Options) error {
	if opts.Tag == "" {
		return fmt.Errorf("docker build requires a tag")
	}
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = filepath.Join(opts.Dir, "Dockerfile")
	}
	if _, err := os.Stat(dockerfile); err != nil {
		return fmt.Errorf("no Dockerfile for image %s: %w", opts.Tag, err)
	}

	cmd := exec.CommandContext(ctx, "docker", buildArgs(opts)...)
	cmd.Dir = opts.Dir
	cmd.Env = mergedEnv(os.Environ(), opts.Env)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker build %s: %w", opts.Tag, err)
	}
	return nil
}

func buildArgs(opts Options) []string {
	args := []string{"build", "--tag", opts.Tag}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Dockerfile != "" {
		args = append(args, "--file", opts.Dockerfile)
	}
	return append(args, ".")
}

// mergedEnv overlays extra onto base, replacing duplicates so the
// overlay wins regardless of the caller's environment.
func mergedEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, shadowed := extra[key]; shadowed {
			continue
		}
		merged = append(merged, kv)
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+extra[key])
	}
	return merged
}

// Available reports whether a docker binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}
