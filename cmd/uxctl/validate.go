// validate.go implements 'uxctl validate': offline preflight checks that
// need no running cluster beyond minikube itself.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/checkup"
	"github.com/unityexpress/uxctl/internal/minikube"
	"github.com/unityexpress/uxctl/internal/project"
)

func newValidateCommand() *cobra.Command {
	var manifestPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check tools, the minikube cluster, and the project layout before deploying",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			cfg := appcfg.Default()

			runner := checkup.NewRunner(
				checkup.Entry{Check: checkup.Tools{Binaries: []string{"minikube", "docker"}}},
				checkup.Entry{Check: checkup.CheckFunc{Label: "Minikube cluster", Fn: checkMinikube}},
				checkup.Entry{Check: checkup.CheckFunc{Label: "Project structure", Fn: func(ctx context.Context) checkup.Result {
					return checkStructure(manifestPath)
				}}},
				checkup.Entry{Check: checkup.CheckFunc{Label: "Helm chart files", Fn: func(ctx context.Context) checkup.Result {
					return checkChartFiles(cfg)
				}}},
			)
			runner.OnResult(func(o checkup.Outcome) { renderOutcome(out, o) })
			report := runner.Run(ctx)
			if report.Failures > 0 {
				return fmt.Errorf("validation reported %d failure(s)", report.Failures)
			}
			fmt.Fprintln(out, "\nEnvironment looks ready. Run 'uxctl deploy' next.")
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "structure-manifest", "", "Override the expected project structure manifest (YAML)")
	return cmd
}

func checkMinikube(ctx context.Context) checkup.Result {
	if !minikube.Available() {
		return checkup.Fail("minikube not found on PATH")
	}
	status, err := minikube.New("").Status(ctx)
	if err != nil {
		return checkup.Fail("minikube status: %v", err)
	}
	if !status.Running() {
		return checkup.Fail("minikube is not running (host=%s kubelet=%s apiserver=%s)",
			status.Host, status.Kubelet, status.APIServer).
			WithDetails("start it with 'minikube start'")
	}
	return checkup.Pass("minikube profile %s running", status.Name)
}

func checkStructure(manifestPath string) checkup.Result {
	root, err := project.LocateFromWd(appcfg.Markers())
	if err != nil {
		return checkup.Fail("locate project root: %v", err)
	}
	var manifest project.Manifest
	if manifestPath != "" {
		manifest, err = project.LoadManifest(manifestPath)
	} else {
		manifest, err = project.DefaultManifest()
	}
	if err != nil {
		return checkup.Fail("load structure manifest: %v", err)
	}
	missing := manifest.Verify(root)
	if len(missing) > 0 {
		return checkup.Fail("%d expected entries missing under %s", len(missing), root).
			WithDetails(missing...)
	}
	return checkup.Pass("project structure complete at %s", root)
}

func checkChartFiles(cfg appcfg.Config) checkup.Result {
	root, err := project.LocateFromWd(appcfg.Markers())
	if err != nil {
		return checkup.Fail("locate project root: %v", err)
	}
	cfg.ProjectRoot = root
	if _, err := os.Stat(cfg.ChartPath()); err != nil {
		return checkup.Fail("chart directory missing: %s", cfg.ChartPath())
	}
	if _, err := os.Stat(cfg.ValuesPath()); err != nil {
		return checkup.Warn("minikube values override missing: %s", cfg.ValuesPath())
	}
	return checkup.Pass("chart and values present under %s", cfg.ChartPath())
}
