// destroy.go implements 'uxctl destroy': uninstall both helm releases and
// delete their namespaces.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/deploy"
	"github.com/unityexpress/uxctl/internal/kube"
	"github.com/unityexpress/uxctl/internal/ui"
)

func newDestroyCommand(kubeconfig, kubeContext *string) *cobra.Command {
	var yes bool
	var keepNamespaces bool
	timeout := 5 * time.Minute
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Remove the UnityExpress stack and its namespaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := appcfg.Default()
			out := cmd.OutOrStdout()

			dec := approvalMode(cmd, yes)
			prompt := fmt.Sprintf("This deletes the releases and namespaces %s and %s. Type the namespace name (%s) to confirm:",
				cfg.Namespace, cfg.MonitoringNamespace, cfg.Namespace)
			if err := confirmAction(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), dec, prompt, confirmModeExact, cfg.Namespace); err != nil {
				return err
			}

			releases := []struct {
				release   string
				namespace string
			}{
				{cfg.MonitoringRelease, cfg.MonitoringNamespace},
				{cfg.Release, cfg.Namespace},
			}
			for _, target := range releases {
				settings := deploy.Settings(*kubeconfig, *kubeContext, target.namespace)
				actionCfg, err := deploy.NewActionConfig(settings, target.namespace, nil)
				if err != nil {
					return err
				}
				stop := ui.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Uninstalling release %s", target.release))
				err = deploy.Uninstall(actionCfg, target.release, timeout)
				stop(err == nil)
				if err != nil {
					return err
				}
			}

			if keepNamespaces {
				fmt.Fprintln(out, "Namespaces kept (--keep-namespaces)")
				return nil
			}
			kubeClient, err := kube.New(ctx, *kubeconfig, *kubeContext)
			if err != nil {
				return err
			}
			for _, ns := range []string{cfg.Namespace, cfg.MonitoringNamespace} {
				if err := deploy.DeleteNamespace(ctx, kubeClient.Clientset, ns); err != nil {
					return err
				}
				fmt.Fprintf(out, "Namespace %s deleted\n", ns)
			}
			fmt.Fprintln(out, "UnityExpress stack removed.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&keepNamespaces, "keep-namespaces", false, "Uninstall the releases but keep the namespaces")
	return cmd
}
