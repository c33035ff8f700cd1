// deploy.go implements 'uxctl deploy': build the application images against
// the minikube docker daemon, then install or upgrade the helm releases.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/build"
	"github.com/unityexpress/uxctl/internal/deploy"
	"github.com/unityexpress/uxctl/internal/kube"
	"github.com/unityexpress/uxctl/internal/logging"
	"github.com/unityexpress/uxctl/internal/minikube"
	"github.com/unityexpress/uxctl/internal/project"
	"github.com/unityexpress/uxctl/internal/ui"
)

func newDeployCommand(kubeconfig, kubeContext, logLevel *string) *cobra.Command {
	var skipMonitoring bool
	var noCache bool
	var dryRun bool
	var yes bool
	var wait bool
	timeout := 5 * time.Minute
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build images and deploy the UnityExpress stack to minikube",
		Example: `  # Full deployment including the monitoring stack
  uxctl deploy

  # Application charts only, rebuilt from scratch
  uxctl deploy --skip-monitoring --no-cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, err := logging.New(*logLevel)
			if err != nil {
				return err
			}
			cfg := appcfg.Default()
			root, err := project.LocateFromWd(appcfg.Markers())
			if err != nil {
				return err
			}
			cfg.ProjectRoot = root
			logger.Info("project root located", "root", root)

			dec := approvalMode(cmd, yes)
			if !dryRun {
				prompt := fmt.Sprintf("Deploy UnityExpress (release %s) to minikube? Type 'yes' to continue:", cfg.Release)
				if err := confirmAction(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), dec, prompt, confirmModeYes, ""); err != nil {
					return err
				}
			}

			mk := minikube.New("")
			if !minikube.Available() {
				return fmt.Errorf("minikube not found on PATH")
			}
			status, err := mk.Status(ctx)
			if err != nil {
				return err
			}
			if !status.Running() {
				return fmt.Errorf("minikube is not running (host=%s kubelet=%s apiserver=%s); start it with 'minikube start'",
					status.Host, status.Kubelet, status.APIServer)
			}
			logger.Info("minikube cluster running", "profile", status.Name)

			if !dryRun {
				if !build.Available() {
					return fmt.Errorf("docker not found on PATH")
				}
				dockerEnv, err := mk.DockerEnv(ctx)
				if err != nil {
					return fmt.Errorf("point docker at the minikube daemon: %w", err)
				}
				images := []struct {
					tag string
					dir string
				}{
					{cfg.APIImage, cfg.APIContext()},
					{cfg.WebImage, cfg.WebContext()},
				}
				for _, img := range images {
					stop := ui.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Building %s", img.tag))
					err := build.Image(ctx, build.Options{
						Dir:     img.dir,
						Tag:     img.tag,
						NoCache: noCache,
						Env:     dockerEnv,
						Stderr:  os.Stderr,
					})
					stop(err == nil)
					if err != nil {
						return err
					}
				}
			}

			kubeClient, err := kube.New(ctx, *kubeconfig, *kubeContext)
			if err != nil {
				return err
			}
			if !dryRun {
				if err := deploy.EnsureNamespace(ctx, kubeClient.Clientset, cfg.Namespace); err != nil {
					return err
				}
			}

			settings := deploy.Settings(*kubeconfig, *kubeContext, cfg.Namespace)
			actionCfg, err := deploy.NewActionConfig(settings, cfg.Namespace, func(format string, v ...interface{}) {
				logger.V(1).Info(fmt.Sprintf(format, v...))
			})
			if err != nil {
				return err
			}

			stop := ui.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Deploying release %s", cfg.Release))
			rel, err := deploy.Apply(ctx, actionCfg, settings, deploy.Options{
				Release:     cfg.Release,
				Chart:       cfg.ChartPath(),
				Namespace:   cfg.Namespace,
				ValuesFiles: existingFiles(cfg.ValuesPath()),
				SetValues:   []string{fmt.Sprintf("projectUuid=%s", appcfg.ProjectUUID)},
				Wait:        wait,
				Timeout:     timeout,
				DryRun:      dryRun,
			})
			stop(err == nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Release %s deployed (revision %d)\n", rel.Name, rel.Version)

			if skipMonitoring {
				fmt.Fprintln(cmd.OutOrStdout(), "Monitoring stack skipped (--skip-monitoring)")
				return nil
			}
			if !dryRun {
				if err := deploy.EnsureNamespace(ctx, kubeClient.Clientset, cfg.MonitoringNamespace); err != nil {
					return err
				}
			}
			monSettings := deploy.Settings(*kubeconfig, *kubeContext, cfg.MonitoringNamespace)
			monCfg, err := deploy.NewActionConfig(monSettings, cfg.MonitoringNamespace, func(format string, v ...interface{}) {
				logger.V(1).Info(fmt.Sprintf(format, v...))
			})
			if err != nil {
				return err
			}
			if exists, err := deploy.ReleaseExists(monCfg, cfg.MonitoringRelease); err == nil && exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Monitoring release %s already installed, leaving it as is\n", cfg.MonitoringRelease)
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'uxctl verify' to check the deployment.")
				return nil
			}
			stop = ui.StartSpinner(cmd.ErrOrStderr(), "Deploying monitoring stack")
			monRel, err := deploy.Apply(ctx, monCfg, monSettings, deploy.Options{
				Release:     cfg.MonitoringRelease,
				Chart:       cfg.MonitoringChart,
				RepoURL:     cfg.MonitoringRepoURL,
				Namespace:   cfg.MonitoringNamespace,
				ValuesFiles: existingFiles(cfg.MonitoringValuesPath()),
				Wait:        wait,
				Timeout:     timeout,
				DryRun:      dryRun,
			})
			stop(err == nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Release %s deployed (revision %d)\n", monRel.Name, monRel.Version)
			if !dryRun {
				fmt.Fprintln(cmd.OutOrStdout())
				printServiceURLs(ctx, cmd.OutOrStdout(), cfg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'uxctl verify' to check the deployment.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMonitoring, "skip-monitoring", false, "Skip deploying the kube-prometheus-stack monitoring release")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Rebuild images without the docker layer cache")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the helm releases without installing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for the release workloads to become ready")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Timeout for each helm operation")
	return cmd
}

// existingFiles filters the given paths down to those present on disk, so
// optional values overrides are passed to helm only when they exist.
func existingFiles(paths ...string) []string {
	var out []string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			out = append(out, path)
		}
	}
	return out
}
