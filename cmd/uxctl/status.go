// status.go implements 'uxctl status': a compact view of the release, the
// pods backing it, and the externally reachable service URLs.
package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/deploy"
	"github.com/unityexpress/uxctl/internal/kube"
	"github.com/unityexpress/uxctl/internal/minikube"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func newStatusCommand(kubeconfig, kubeContext *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the deployed release, its pods, and service URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := appcfg.Default()
			out := cmd.OutOrStdout()

			settings := deploy.Settings(*kubeconfig, *kubeContext, cfg.Namespace)
			actionCfg, err := deploy.NewActionConfig(settings, cfg.Namespace, nil)
			if err != nil {
				return err
			}
			rel, err := deploy.ReleaseStatus(actionCfg, cfg.Release)
			if err != nil {
				fmt.Fprintf(out, "Release %s: not installed (%v)\n", cfg.Release, err)
			} else {
				fmt.Fprintf(out, "Release %s: %s (revision %d, chart %s)\n",
					rel.Name, rel.Info.Status, rel.Version, rel.Chart.Metadata.Name)
			}

			kubeClient, err := kube.New(ctx, *kubeconfig, *kubeContext)
			if err != nil {
				return err
			}
			pods, err := kubeClient.Clientset.CoreV1().Pods(cfg.Namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return fmt.Errorf("list pods in %s: %w", cfg.Namespace, err)
			}
			fmt.Fprintf(out, "\nPods in %s:\n", cfg.Namespace)
			renderPodTable(out, pods.Items)

			fmt.Fprintln(out)
			printServiceURLs(ctx, out, cfg)
			return nil
		},
	}
	return cmd
}

func renderPodTable(w io.Writer, pods []corev1.Pod) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREADY\tSTATUS\tRESTARTS\tAGE")
	for _, pod := range pods {
		ready := 0
		restarts := int32(0)
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		status := string(pod.Status.Phase)
		if pod.DeletionTimestamp != nil {
			status = "Terminating"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%d\t%s\n",
			pod.Name, ready, len(pod.Spec.Containers), status, restarts,
			humanDuration(time.Since(pod.CreationTimestamp.Time)))
	}
	if len(pods) == 0 {
		fmt.Fprintln(tw, "(none)\t\t\t\t")
	}
	_ = tw.Flush()
}

func printServiceURLs(ctx context.Context, out io.Writer, cfg appcfg.Config) {
	if !minikube.Available() {
		fmt.Fprintln(out, "Service URLs unavailable (minikube not on PATH)")
		return
	}
	mk := minikube.New("")
	for _, svc := range []string{cfg.APIService, cfg.WebService} {
		url, err := mk.ServiceURL(ctx, cfg.Namespace, svc)
		if err != nil {
			fmt.Fprintf(out, "%s: no URL (%v)\n", svc, err)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", svc, url)
	}
}

// humanDuration renders a duration as the two most significant units, the
// way kubectl ages read.
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "<1m"
	}
	units := []struct {
		dur  time.Duration
		name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	}
	var parts []string
	remain := d
	for _, unit := range units {
		if remain >= unit.dur {
			value := remain / unit.dur
			remain -= value * unit.dur
			parts = append(parts, fmt.Sprintf("%d%s", value, unit.name))
			if len(parts) == 2 {
				break
			}
		}
	}
	return strings.Join(parts, "")
}
