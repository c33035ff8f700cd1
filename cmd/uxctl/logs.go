// logs.go implements 'uxctl logs': stream logs from the api or web
// workload without needing kubectl.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/kube"
	corev1 "k8s.io/api/core/v1"
)

func newLogsCommand(kubeconfig, kubeContext *string) *cobra.Command {
	var follow bool
	var tail int64 = 100
	var container string
	cmd := &cobra.Command{
		Use:       "logs (api|web)",
		Short:     "Stream logs from a UnityExpress workload",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"api", "web"},
		Example: `  # Last 100 lines of the API server
  uxctl logs api

  # Follow the web frontend
  uxctl logs web --follow --tail 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := appcfg.Default()
			deployment, err := componentDeployment(cfg, args[0])
			if err != nil {
				return err
			}
			kubeClient, err := kube.New(ctx, *kubeconfig, *kubeContext)
			if err != nil {
				return err
			}
			pod, err := kubeClient.FirstRunningPod(ctx, cfg.Namespace, deployment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Streaming logs from %s/%s\n", cfg.Namespace, pod)

			opts := &corev1.PodLogOptions{Follow: follow}
			if tail >= 0 {
				opts.TailLines = &tail
			}
			if container != "" {
				opts.Container = container
			}
			stream, err := kubeClient.Clientset.CoreV1().Pods(cfg.Namespace).GetLogs(pod, opts).Stream(ctx)
			if err != nil {
				return fmt.Errorf("open log stream for %s: %w", pod, err)
			}
			defer stream.Close()
			_, err = io.Copy(cmd.OutOrStdout(), stream)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep the stream open and follow new log lines")
	cmd.Flags().Int64Var(&tail, "tail", tail, "Number of recent lines to show (-1 for all)")
	cmd.Flags().StringVarP(&container, "container", "c", "", "Container name when the pod runs more than one")
	return cmd
}

func componentDeployment(cfg appcfg.Config, component string) (string, error) {
	switch component {
	case "api":
		return cfg.APIService, nil
	case "web":
		return cfg.WebService, nil
	default:
		return "", fmt.Errorf("unknown component %q (use api or web)", component)
	}
}
