// open.go implements 'uxctl open': resolve a service URL through minikube
// and open it in the local browser.
package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/unityexpress/uxctl/internal/appcfg"
	"github.com/unityexpress/uxctl/internal/minikube"
)

func newOpenCommand() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:       "open [api|web]",
		Short:     "Open a UnityExpress service in the browser",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"api", "web"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := appcfg.Default()
			component := "web"
			if len(args) == 1 {
				component = args[0]
			}
			service, err := componentDeployment(cfg, component)
			if err != nil {
				return err
			}
			if !minikube.Available() {
				return fmt.Errorf("minikube not found on PATH")
			}
			url, err := minikube.New("").ServiceURL(ctx, cfg.Namespace, service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			if printOnly {
				return nil
			}
			if err := openBrowser(url); err != nil {
				return fmt.Errorf("open browser: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the URL without launching a browser")
	return cmd
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
