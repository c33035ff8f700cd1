// Package deploy drives helm releases for the application and monitoring
// charts through the helm SDK instead of shelling out to the helm binary.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	cliValues "helm.sh/helm/v3/pkg/cli/values"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Settings builds helm environment settings bound to the given kubeconfig,
// context, and namespace.
func Settings(kubeconfig, kubeContext, namespace string) *cli.EnvSettings {
	settings := cli.New()
	if kubeconfig != "" {
		settings.KubeConfig = kubeconfig
	}
	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}
	if namespace != "" {
		settings.SetNamespace(namespace)
	}
	return settings
}

// NewActionConfig initializes a helm action configuration for the
// namespace. logFunc receives helm's internal debug lines; pass nil to
// discard them.
func NewActionConfig(settings *cli.EnvSettings, namespace string, logFunc action.DebugLog) (*action.Configuration, error) {
	if logFunc == nil {
		logFunc = func(string, ...interface{}) {}
	}
	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), namespace, os.Getenv("HELM_DRIVER"), logFunc); err != nil {
		return nil, fmt.Errorf("init helm action config: %w", err)
	}
	return cfg, nil
}

// Options describes one chart deployment.
type Options struct {
	Release   string
	Chart     string
	Namespace string
	// RepoURL resolves Chart against a remote repository instead of a
	// local path.
	RepoURL     string
	Version     string
	ValuesFiles []string
	SetValues   []string
	Wait        bool
	Timeout     time.Duration
	DryRun      bool
}

// Apply upgrades the release, installing it first when no deployed
// release exists yet.
func Apply(ctx context.Context, actionCfg *action.Configuration, settings *cli.EnvSettings, opts Options) (*release.Release, error) {
	if opts.Chart == "" || opts.Release == "" {
		return nil, fmt.Errorf("chart and release are required")
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = settings.Namespace()
	}

	chartPathOptions := action.ChartPathOptions{RepoURL: opts.RepoURL, Version: opts.Version}
	chartPath, err := chartPathOptions.LocateChart(opts.Chart, settings)
	if err != nil {
		return nil, fmt.Errorf("locate chart: %w", err)
	}
	chartRequested, err := loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}
	if err := ensureInstallable(chartRequested); err != nil {
		return nil, err
	}

	vals, err := buildValues(settings, opts.ValuesFiles, opts.SetValues)
	if err != nil {
		return nil, err
	}

	upgrade := action.NewUpgrade(actionCfg)
	upgrade.Namespace = namespace
	upgrade.Timeout = opts.Timeout
	upgrade.Wait = opts.Wait
	upgrade.Install = true
	upgrade.DryRun = opts.DryRun
	upgrade.ChartPathOptions = chartPathOptions

	rel, err := upgrade.RunWithContext(ctx, opts.Release, chartRequested, vals)
	if err != nil {
		if !isNoDeployedReleaseErr(err) {
			return nil, fmt.Errorf("helm upgrade %s: %w", opts.Release, err)
		}
		install := action.NewInstall(actionCfg)
		install.ReleaseName = opts.Release
		install.Namespace = namespace
		install.Timeout = opts.Timeout
		install.Wait = opts.Wait
		install.DryRun = opts.DryRun
		install.ChartPathOptions = chartPathOptions
		rel, err = install.RunWithContext(ctx, chartRequested, vals)
		if err != nil {
			return nil, fmt.Errorf("helm install %s: %w", opts.Release, err)
		}
	}
	return rel, nil
}

// Uninstall removes the release. A release that does not exist is not
// an error.
func Uninstall(actionCfg *action.Configuration, releaseName string, timeout time.Duration) error {
	uninstall := action.NewUninstall(actionCfg)
	uninstall.Timeout = timeout
	if _, err := uninstall.Run(releaseName); err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return nil
		}
		return fmt.Errorf("helm uninstall %s: %w", releaseName, err)
	}
	return nil
}

// ReleaseStatus returns the release status, or driver.ErrReleaseNotFound
// wrapped when the release does not exist.
func ReleaseStatus(actionCfg *action.Configuration, releaseName string) (*release.Release, error) {
	status := action.NewStatus(actionCfg)
	rel, err := status.Run(releaseName)
	if err != nil {
		return nil, fmt.Errorf("helm status %s: %w", releaseName, err)
	}
	return rel, nil
}

// ReleaseExists reports whether the release is present in any state.
func ReleaseExists(actionCfg *action.Configuration, releaseName string) (bool, error) {
	_, err := ReleaseStatus(actionCfg, releaseName)
	if err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureNamespace creates the namespace when it does not exist yet.
func EnsureNamespace(ctx context.Context, client kubernetes.Interface, namespace string) error {
	if namespace == "" || client == nil {
		return nil
	}
	_, err := client.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace %s: %w", namespace, err)
	}
	_, err = client.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: namespace}}, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create namespace %s: %w", namespace, err)
	}
	return nil
}

// DeleteNamespace removes the namespace. Absence is not an error.
func DeleteNamespace(ctx context.Context, client kubernetes.Interface, namespace string) error {
	err := client.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete namespace %s: %w", namespace, err)
	}
	return nil
}

func buildValues(settings *cli.EnvSettings, files, setVals []string) (map[string]interface{}, error) {
	valOpts := &cliValues.Options{
		ValueFiles: files,
		Values:     setVals,
	}
	vals, err := valOpts.MergeValues(getter.All(settings))
	if err != nil {
		return nil, fmt.Errorf("merge values: %w", err)
	}
	return vals, nil
}

func ensureInstallable(ch *chart.Chart) error {
	chartType := ""
	if ch.Metadata != nil {
		chartType = ch.Metadata.Type
	}
	switch chartType {
	case "", "application":
		return nil
	}
	return fmt.Errorf("%s charts are not installable", chartType)
}

func isNoDeployedReleaseErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "has no deployed releases")
}
