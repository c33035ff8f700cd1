// verify.go implements 'uxctl verify': the ordered post-deploy check
// pipeline, with colored streaming output, a JSON payload for automation,
// and a local run history.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/checkup"
	"github.com/unityexpress/uxctl/internal/kube"
)

func newVerifyCommand(kubeconfig, kubeContext *string) *cobra.Command {
	var outputJSON bool
	var failOn string
	var history int
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the ordered verification pipeline against the deployed stack",
		Example: `  # Run all checks with streaming output
  uxctl verify

  # Emit JSON and fail the pipeline on warnings
  uxctl verify --json --fail-on warn

  # Show the last five recorded runs
  uxctl verify --history 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if history > 0 {
				return renderHistory(out, history)
			}
			mode, err := parseFailOnMode(failOn)
			if err != nil {
				return err
			}
			cfg := appcfg.Default()
			kubeClient, err := kube.New(ctx, *kubeconfig, *kubeContext)
			if err != nil {
				return err
			}

			runner := checkup.NewRunner(buildPipeline(kubeClient, cfg, settle)...)
			if !outputJSON {
				runner.OnResult(func(o checkup.Outcome) {
					renderOutcome(out, o)
				})
			}
			report := runner.Run(ctx)

			if outputJSON {
				payload := verifyPayload{
					Cluster: kubeClient.RESTConfig.Host,
					Report:  report,
				}
				body, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return fmt.Errorf("encode verify payload: %w", err)
				}
				fmt.Fprintln(out, string(body))
			} else {
				fmt.Fprintf(out, "\n%d check(s) run: %d failure(s), %d warning(s)\n",
					len(report.Outcomes), report.Failures, report.Warnings)
				if report.Halted {
					fmt.Fprintln(out, "Pipeline halted early on a fatal failure.")
				}
			}

			if err := checkup.AppendHistory(report); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: could not record verify history: %v\n", err)
			}

			if mode.shouldFail(report.Failures, report.Warnings) {
				return fmt.Errorf("verification reported %d failure(s) and %d warning(s)", report.Failures, report.Warnings)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output the full report as JSON for automation pipelines")
	cmd.Flags().StringVar(&failOn, "fail-on", "fail", "Exit with status 1 when checks reach this severity (never|warn|fail)")
	cmd.Flags().IntVar(&history, "history", 0, "Show the last N recorded verify runs instead of running checks")
	cmd.Flags().DurationVar(&settle, "settle", checkup.DefaultSettle, "Delay between opening a port-forward and the first probe request")
	return cmd
}

// buildPipeline assembles the ordered check list. Cluster reachability,
// namespace presence, and pod health are fatal; endpoint and autoscaling
// probes only ever warn.
func buildPipeline(kubeClient *kube.Client, cfg appcfg.Config, settle time.Duration) []checkup.Entry {
	openService := func(service string, localPort int) checkup.OpenForward {
		return func(ctx context.Context) (checkup.Releaser, error) {
			return kubeClient.ForwardService(ctx, cfg.Namespace, service, localPort)
		}
	}
	kafkaProbe := fmt.Sprintf("timeout 5 bash -c 'echo > /dev/tcp/%s/%d' && echo OK || echo FAIL", cfg.KafkaService, cfg.KafkaPort)
	mongoProbe := fmt.Sprintf(`node -e 'const net=require("net");const s=net.connect(%d,%q,()=>{console.log("OK");s.end()});s.on("error",()=>{console.log("FAIL");process.exit(0)})'`, cfg.MongoPort, cfg.MongoService)

	return []checkup.Entry{
		{Check: checkup.Tools{Binaries: []string{"minikube", "docker"}}},
		{Check: checkup.Connectivity{Client: kubeClient.Clientset}},
		{Check: checkup.NamespaceExists{Client: kubeClient.Clientset, Namespace: cfg.Namespace}},
		{Check: checkup.PodsHealthy{Client: kubeClient.Clientset, Namespace: cfg.Namespace}},
		{Check: checkup.HTTPProbe{
			Label:  "API health endpoint",
			Open:   openService(cfg.APIService, cfg.APIProbePort),
			URL:    checkup.ForwardedURL(cfg.APIProbePort, cfg.HealthPath),
			Settle: settle,
			Expect: func(status int, body []byte) (string, bool) {
				text := strings.ToLower(strings.TrimSpace(string(body)))
				ok := status == 200 && (strings.Contains(text, "ok") || strings.Contains(text, "healthy"))
				return fmt.Sprintf("status %d, body %q", status, truncateBody(text)), ok
			},
		}},
		{Check: checkup.HTTPProbe{
			Label:  "Web UI",
			Open:   openService(cfg.WebService, cfg.WebProbePort),
			URL:    checkup.ForwardedURL(cfg.WebProbePort, "/"),
			Settle: settle,
		}},
		{Check: checkup.ExecProbe{
			Label:        "Kafka reachability",
			Executor:     kubeClient,
			Namespace:    cfg.Namespace,
			Deployment:   cfg.APIDeployment,
			Command:      []string{"bash", "-c", kafkaProbe},
			SuccessToken: "OK",
		}},
		{Check: checkup.ExecProbe{
			Label:        "MongoDB reachability",
			Executor:     kubeClient,
			Namespace:    cfg.Namespace,
			Deployment:   cfg.APIDeployment,
			Command:      []string{"sh", "-c", mongoProbe},
			SuccessToken: "OK",
		}},
		{Check: checkup.WatermarkPresent{
			Client:    kubeClient.Clientset,
			Namespace: cfg.Namespace,
			Key:       appcfg.WatermarkAnnotation,
			Expected:  appcfg.ProjectUUID,
		}, Advisory: true},
		{Check: checkup.HPAPresent{Client: kubeClient.Clientset, Namespace: cfg.Namespace}, Advisory: true},
		{Check: checkup.MetricsAvailable{Metrics: kubeClient.Metrics}, Advisory: true},
		{Check: checkup.ScaledObjectPresent{Dynamic: kubeClient.Dynamic, Namespace: cfg.Namespace}, Advisory: true},
	}
}

type verifyPayload struct {
	Cluster string         `json:"cluster"`
	Report  checkup.Report `json:"report"`
}

func renderOutcome(w io.Writer, o checkup.Outcome) {
	fmt.Fprintf(w, "%s %s: %s\n", statusBadge(o.Result.Status), o.Name, o.Result.Summary)
	for _, detail := range o.Result.Details {
		detail = strings.TrimSpace(detail)
		if detail == "" {
			continue
		}
		fmt.Fprintf(w, "       - %s\n", detail)
	}
}

func statusBadge(status checkup.Status) string {
	switch status {
	case checkup.StatusPass:
		return color.GreenString("[PASS]")
	case checkup.StatusWarn:
		return color.YellowString("[WARN]")
	case checkup.StatusFail:
		return color.RedString("[FAIL]")
	default:
		return "[????]"
	}
}

func renderHistory(w io.Writer, limit int) error {
	entries, err := checkup.LoadHistory(limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tCHECKS\tFAILURES\tWARNINGS\tHALTED")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%v\n",
			entry.GeneratedAt.Local().Format("2006-01-02 15:04:05"),
			len(entry.Outcomes), entry.Failures, entry.Warnings, entry.Halted)
	}
	return tw.Flush()
}

func truncateBody(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}

type failOnMode int

const (
	failNever failOnMode = iota
	failWarn
	failFail
)

func parseFailOnMode(value string) (failOnMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "fail":
		return failFail, nil
	case "warn":
		return failWarn, nil
	case "never", "none":
		return failNever, nil
	default:
		return failFail, fmt.Errorf("unsupported fail-on value %q (use never|warn|fail)", value)
	}
}

func (m failOnMode) shouldFail(failures, warnings int) bool {
	switch m {
	case failNever:
		return false
	case failWarn:
		return failures > 0 || warnings > 0
	default:
		return failures > 0
	}
}
