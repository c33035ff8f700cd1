// main.go bootstraps uxctl: it builds the root Cobra command and executes
// it with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var kubeconfigPath string
	var kubeContext string
	logLevel := "info"
	cmd := &cobra.Command{
		Use:           "uxctl",
		Short:         "Deploy and verify the UnityExpress demo stack on minikube",
		Long:          "uxctl builds the UnityExpress images, deploys the helm charts to a local minikube cluster, and verifies the running stack end to end.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&kubeconfigPath, "kubeconfig", "k", "", "Path to the kubeconfig file to use for CLI requests")
	cmd.PersistentFlags().StringVarP(&kubeContext, "context", "K", "", "Name of the kubeconfig context to use")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level for uxctl output (debug, info, warn, error)")

	deployCmd := newDeployCommand(&kubeconfigPath, &kubeContext, &logLevel)
	statusCmd := newStatusCommand(&kubeconfigPath, &kubeContext)
	verifyCmd := newVerifyCommand(&kubeconfigPath, &kubeContext)
	validateCmd := newValidateCommand()
	logsCmd := newLogsCommand(&kubeconfigPath, &kubeContext)
	openCmd := newOpenCommand()
	destroyCmd := newDestroyCommand(&kubeconfigPath, &kubeContext)
	cmd.AddCommand(deployCmd, statusCmd, verifyCmd, validateCmd, logsCmd, openCmd, destroyCmd)

	cmd.Example = `  # Build images and deploy the full stack including monitoring
  uxctl deploy

  # Verify the running stack and fail the pipeline on warnings
  uxctl verify --json --fail-on warn

  # Tear everything down
  uxctl destroy --yes`
	bindViper(cmd, deployCmd, statusCmd, verifyCmd, validateCmd, logsCmd, openCmd, destroyCmd)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("UXCTL")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		for _, cmd := range commands {
			flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()}
			for _, fs := range flagSets {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = fmt.Sprintf("%s\nHint: the cluster did not answer in time. Check 'minikube status' and network connectivity.", err)
	case apierrors.IsUnauthorized(err):
		message = fmt.Sprintf("%s\nHint: kubeconfig credentials were rejected. Run 'kubectl config view' to confirm the active user.", err)
	case apierrors.IsForbidden(err):
		message = fmt.Sprintf("%s\nHint: missing Kubernetes permissions for the current user.", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}
